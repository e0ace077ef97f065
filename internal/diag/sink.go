// Package diag defines the diagnostics sink boundary between the
// preprocessor/lexer/parser/type-checker (external collaborators, §1)
// and the driver. IR construction itself never emits diagnostics — a
// well-typed AST builds without error (§4.E "Failure semantics") — but
// the driver wires a Sink through to those external stages and honours
// -fdiagnostics-sink.
package diag

import (
	"fmt"
	"io"
)

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

// Diagnostic is one reported message, with an optional source position
// recorded as a plain file:line:col string (position tracking is owned
// by the external lexer/parser; the driver only threads it through).
type Diagnostic struct {
	Severity Severity
	Pos      string
	Message  string
}

// Sink receives diagnostics as they are produced. LSP mode uses a Sink
// that forwards to the protocol layer instead of printing (§4.H "The LSP
// driver bypasses codegen ... and streams diagnostics").
type Sink interface {
	Report(d Diagnostic)
}

// WriterSink formats diagnostics to an io.Writer, the shape
// -fdiagnostics-sink=<path> and the default stderr destination use.
type WriterSink struct {
	W       io.Writer
	Werror  bool
	nErrors int
}

func (s *WriterSink) Report(d Diagnostic) {
	kind := "error"
	switch d.Severity {
	case SeverityWarning:
		kind = "warning"
		if s.Werror {
			kind = "error"
			d.Severity = SeverityError
		}
	case SeverityNote:
		kind = "note"
	}
	if d.Severity == SeverityError {
		s.nErrors++
	}
	if d.Pos != "" {
		fmt.Fprintf(s.W, "%s: %s: %s\n", d.Pos, kind, d.Message)
	} else {
		fmt.Fprintf(s.W, "%s: %s\n", kind, d.Message)
	}
}

// HasErrors reports whether any error-severity diagnostic (including a
// warning escalated by -Werror) has been reported through this sink.
func (s *WriterSink) HasErrors() bool { return s.nErrors > 0 }

// DiscardingSink drops every diagnostic, errors included; the driver and
// the -interp driver use it on its own for -w ("inhibit all warnings")
// when no -fdiagnostics-sink is given.
type DiscardingSink struct{}

func (DiscardingSink) Report(Diagnostic) {}

// MultiSink fans a diagnostic out to every sink in Sinks, used when both
// a human-readable sink and an LSP-protocol sink must see the same
// stream.
type MultiSink struct{ Sinks []Sink }

func (m MultiSink) Report(d Diagnostic) {
	for _, s := range m.Sinks {
		s.Report(d)
	}
}
