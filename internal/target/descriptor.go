// Package target resolves the -target/-arch CLI surface to a
// types.Target descriptor, and handles the macOS SDK-root discovery
// named in §6 "Environment".
package target

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"cc11/internal/types"
)

// Triple is a parsed target triple: arch-os, e.g. "x86_64-linux",
// "arm64-darwin".
type Triple struct {
	Arch string
	OS   string
}

// archAliases maps the -arch flag's short names to the Triple.Arch
// values ByTriple expects.
var archAliases = map[string]string{
	"x86_64": "x86_64",
	"amd64":  "x86_64",
	"arm64":  "arm64",
	"aarch64": "arm64",
	"rv32i":  "rv32i",
	"riscv32": "rv32i",
	"eep":    "eep",
}

// ParseTriple parses a "-target" value of the form arch-os or
// arch-vendor-os (the vendor component, if present, is ignored).
func ParseTriple(s string) (Triple, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 2 {
		return Triple{}, fmt.Errorf("invalid target triple %q", s)
	}
	arch, ok := archAliases[parts[0]]
	if !ok {
		return Triple{}, fmt.Errorf("unknown architecture %q in target triple %q", parts[0], s)
	}
	osName := parts[len(parts)-1]
	return Triple{Arch: arch, OS: normalizeOS(osName)}, nil
}

func normalizeOS(s string) string {
	switch {
	case strings.HasPrefix(s, "linux"):
		return "linux"
	case strings.HasPrefix(s, "darwin"), strings.HasPrefix(s, "macos"), strings.HasPrefix(s, "apple"):
		return "darwin"
	default:
		return s
	}
}

// Resolve implements the CLI's -target/-arch precedence: specifying both
// is an error; -arch alone defaults to the host OS; -target alone gives
// both arch and OS; specifying neither defaults to the host triple.
func Resolve(archFlag, targetFlag, hostOS string) (*types.Target, error) {
	if archFlag != "" && targetFlag != "" {
		return nil, fmt.Errorf("-target and -arch are mutually exclusive")
	}
	var tr Triple
	switch {
	case targetFlag != "":
		var err error
		tr, err = ParseTriple(targetFlag)
		if err != nil {
			return nil, err
		}
	case archFlag != "":
		arch, ok := archAliases[archFlag]
		if !ok {
			return nil, fmt.Errorf("unknown architecture %q", archFlag)
		}
		tr = Triple{Arch: arch, OS: normalizeOS(hostOS)}
	default:
		tr = Triple{Arch: "x86_64", OS: normalizeOS(hostOS)}
	}
	td := types.ByTriple(tr.Arch, tr.OS)
	if td == nil {
		if tr.Arch == "eep" {
			return nil, fmt.Errorf("target %q is a registered but unimplemented architecture (see Open Questions)", tr.Arch)
		}
		return nil, fmt.Errorf("unsupported target %s-%s", tr.Arch, tr.OS)
	}
	return td, nil
}

// SDKRoot implements the macOS SDK discovery in §6 "Environment":
// $SDKROOT if set, otherwise `xcrun --sdk macosx --show-sdk-path` on an
// Apple host.
func SDKRoot(goos string) (string, error) {
	if v := os.Getenv("SDKROOT"); v != "" {
		return v, nil
	}
	if goos != "darwin" {
		return "", nil
	}
	out, err := exec.Command("xcrun", "--sdk", "macosx", "--show-sdk-path").Output()
	if err != nil {
		return "", fmt.Errorf("resolving macOS SDK root: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
