package driver

import (
	"path/filepath"
	"strings"
)

// Artifact records what one source produced and where, the per-source
// artifact routing table named as a SPEC_FULL supplement (needed to
// thread per-source outputs through to the link step and to final exit
// reporting; §4.H only names the routing rules, not a place to hold the
// result).
type Artifact struct {
	Source     string
	Kind       SourceKind
	ObjectPath string // "" if this source was object-like already (Source itself is the object)
	Failed     bool
}

// objectPathFor derives the path of the object file to produce for a C
// source when going all the way to a linked executable (the ObjectOnly
// and AssemblyOnly cases instead use cfg.Output directly for a single
// source, or a name derived from each source for multiple sources — see
// Run in pipeline.go).
func objectPathFor(source, tmpDir string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(tmpDir, base+".o")
}

func asmPathFor(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".s"
}

func outputPathFor(source string, ext string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ext
}
