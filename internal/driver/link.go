package driver

import (
	"fmt"
	"os"
	"os/exec"

	"cc11/internal/buildid"
)

// linkCmd is overridable by tests; production code always calls this.
var linkCmd = exec.Command

// buildIDPath is the sidecar file recording output's build id from its
// last successful link, read back on the next Link to decide whether the
// linker actually needs to run again.
func buildIDPath(output string) string {
	return output + ".buildid"
}

// Link invokes the system linker on objects, producing output. Link
// errors are surfaced with exit 1 and the linker's own stderr output,
// per §7 "Link errors". Signal forwarding to the child while it runs
// follows cmd/go/internal/base.StartSigHandlers: the linker should see
// the same interrupt/quit signals the driver does, rather than being
// orphaned on Ctrl-C.
//
// Before invoking the linker, Link hashes objects' contents into a build
// id (internal/buildid.Of) and compares it against the id recorded
// alongside output from its last successful link. If they match and
// output is still present, the objects haven't changed since that link
// and the linker invocation is skipped entirely.
func Link(objects []string, output string) error {
	parts := make([][]byte, 0, len(objects))
	for _, o := range objects {
		data, err := os.ReadFile(o)
		if err != nil {
			return fmt.Errorf("link: reading %s: %w", o, err)
		}
		parts = append(parts, data)
	}
	id := buildid.Of(parts...)

	idPath := buildIDPath(output)
	if existing, err := os.ReadFile(idPath); err == nil {
		if _, statErr := os.Stat(output); statErr == nil && buildid.Match(string(existing), id) {
			return nil
		}
	}

	args := append(append([]string{}, objects...), "-o", output)
	cmd := linkCmd("cc", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stop := forwardSignals(cmd)
	err := cmd.Run()
	stop()
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}

	os.WriteFile(idPath, []byte(id), 0o644)
	return nil
}
