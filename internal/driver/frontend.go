package driver

import (
	"cc11/internal/ast"
	"cc11/internal/diag"
	"cc11/internal/types"
)

// Frontend is the fixed interface to the external collaborators named
// in §1 as out of scope: the preprocessor, lexer, parser, and type
// checker. The driver depends only on this interface; cc11's own
// pipeline package does not implement a real C front end, since
// §1 Out of scope explicitly assigns that to a different component of
// the larger project.
type Frontend interface {
	// Preprocess expands macros/includes in src (read from path, or
	// stdin when path == "-") and returns the preprocessed text.
	Preprocess(path string, src []byte, cfg PreprocessConfig) (string, error)

	// ParseAndCheck lexes, parses, and type-checks preprocessed source,
	// producing a fully resolved typed AST (component B) ready for IR
	// construction. Diagnostics are reported through sink as they are
	// produced; a non-nil error return means compilation of this source
	// must abort (§7 "Partial failures are not tolerated inside one
	// translation unit").
	ParseAndCheck(path, preprocessed string, td *types.Target, sink diag.Sink) (*ast.Unit, error)
}

// PreprocessConfig carries the subset of Config the preprocessor needs.
type PreprocessConfig struct {
	UserIncludes   []string
	SystemIncludes []string
	SysrootPath    string
	Defines        []string
	Std            string
}
