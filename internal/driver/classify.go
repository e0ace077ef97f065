// Package driver implements the pipeline orchestration of component H:
// per-source dispatch, artifact routing, the link step, and
// error/exit-code propagation, sequencing source acquisition →
// preprocess → lex → parse → type-check → IR build → optimise → lower →
// register-allocate → emit → (optionally) link.
package driver

import "strings"

// SourceKind classifies one input file by extension, per §4.H
// "classify by extension".
type SourceKind uint8

const (
	KindUnknown SourceKind = iota
	KindC
	KindPreprocessed
	KindHeader
	KindObject
	KindSharedLib
	KindStdin
)

// Classify returns the SourceKind of path. "-" is always KindStdin (read
// as C source, per §6 "Positional: source files or `-` (stdin)").
func Classify(path string) SourceKind {
	if path == "-" {
		return KindStdin
	}
	ext := ""
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		ext = strings.ToLower(path[i:])
	}
	switch ext {
	case ".c":
		return KindC
	case ".i":
		return KindPreprocessed
	case ".h":
		return KindHeader
	case ".o":
		return KindObject
	case ".so", ".dylib", ".a":
		return KindSharedLib
	default:
		return KindUnknown
	}
}

// IsCompilable reports whether k is routed through the full
// preprocess→...→emit pipeline, as opposed to being passed straight to
// the link step.
func (k SourceKind) IsCompilable() bool {
	return k == KindC || k == KindPreprocessed || k == KindStdin
}

// IsObjectLike reports whether k is routed directly to the link step.
func (k SourceKind) IsObjectLike() bool {
	return k == KindObject || k == KindSharedLib
}
