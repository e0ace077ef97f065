package lsp

import (
	"strconv"
	"strings"

	"cc11/internal/build"
	"cc11/internal/diag"
	"cc11/internal/driver"
)

// check runs the frontend over text and publishes whatever diagnostics
// result, matching the non-interactive driver's pipeline up through
// BuildUnit (§4.E "IR construction itself never emits diagnostics — a
// well-typed AST builds without error") but never touching codegen or
// the linker.
func (s *server) check(uri, text string) {
	path := uriToPath(uri)
	sink := &collectingSink{}

	pre, err := s.fe.Preprocess(path, []byte(text), driver.PreprocessConfig{
		UserIncludes:   s.cfg.UserIncludes,
		SystemIncludes: s.cfg.SystemIncludes,
		SysrootPath:    s.cfg.SysrootPath,
		Defines:        s.cfg.Defines,
		Std:            s.cfg.Std,
	})
	if err != nil {
		sink.Report(diag.Diagnostic{Severity: diag.SeverityError, Message: err.Error()})
		s.publish(uri, sink.diags)
		return
	}

	astUnit, err := s.fe.ParseAndCheck(path, pre, s.td, sink)
	if err != nil {
		if len(sink.diags) == 0 {
			sink.Report(diag.Diagnostic{Severity: diag.SeverityError, Message: err.Error()})
		}
		s.publish(uri, sink.diags)
		return
	}

	if _, err := build.BuildUnit(astUnit, s.td); err != nil {
		sink.Report(diag.Diagnostic{Severity: diag.SeverityError, Message: err.Error()})
	}
	s.publish(uri, sink.diags)
}

func (s *server) publish(uri string, diags []diag.Diagnostic) {
	out := make([]lspDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = toLSPDiagnostic(d)
	}
	s.notify("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}

// collectingSink buffers every diagnostic reported during one check
// rather than writing to a stream, since the LSP transport needs the
// whole batch for a single publishDiagnostics notification.
type collectingSink struct {
	diags []diag.Diagnostic
}

func (c *collectingSink) Report(d diag.Diagnostic) {
	c.diags = append(c.diags, d)
}

func toLSPDiagnostic(d diag.Diagnostic) lspDiagnostic {
	line, col := parsePos(d.Pos)
	sev := 1 // Error
	switch d.Severity {
	case diag.SeverityWarning:
		sev = 2
	case diag.SeverityNote:
		sev = 3
	}
	pos := lspPosition{Line: line, Character: col}
	return lspDiagnostic{
		Range:    lspRange{Start: pos, End: pos},
		Severity: sev,
		Message:  d.Message,
	}
}

// parsePos recovers zero-based (line, character) from a "file:line:col"
// position string; line/col in that string are the conventional 1-based
// compiler form, so both are decremented. Any piece that fails to parse
// falls back to 0 rather than aborting the whole diagnostic.
func parsePos(pos string) (line, col int) {
	parts := strings.Split(pos, ":")
	if len(parts) < 2 {
		return 0, 0
	}
	if n, err := strconv.Atoi(parts[len(parts)-2]); err == nil && n > 0 {
		line = n - 1
	}
	if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil && n > 0 {
		col = n - 1
	}
	return line, col
}

// uriToPath strips the file:// scheme LSP clients send; this driver
// never opens the path itself (it always works from the text the
// client sent in didOpen/didChange), so it only needs to be stable
// enough to label diagnostics and pass to the frontend as a source name.
func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
