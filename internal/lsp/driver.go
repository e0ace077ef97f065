// Package lsp implements the LSP driver named in §4.H: "The LSP driver
// bypasses codegen (syntax-only) and streams diagnostics." It speaks
// just enough of the Language Server Protocol over stdio to parse and
// type-check a document on open/change and publish the resulting
// diagnostics; it implements no code-intelligence request beyond that,
// per the explicit Non-goal on full LSP transport.
package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"cc11/internal/driver"
	"cc11/internal/target"
	"cc11/internal/types"
)

var stdin io.Reader = os.Stdin
var stdout io.Writer = os.Stdout
var stderr io.Writer = os.Stderr

func hostOS() string { return runtime.GOOS }

// Run serves the LSP protocol over stdin/stdout until the client sends
// "exit" or the input stream closes, using fe for every document it is
// asked to check.
func Run(cfg *driver.Config, fe driver.Frontend) int {
	td, err := target.Resolve(cfg.Arch, cfg.Target, hostOS())
	if err != nil {
		fmt.Fprintln(stderr, "cc11-lsp:", err)
		return driver.ExitFailure
	}
	s := &server{cfg: cfg, fe: fe, td: td, out: stdout}
	return s.serve(stdin)
}

// server holds the minimal state a syntax-only LSP session needs: one
// frontend, one resolved target, and the writer its responses and
// notifications go to.
type server struct {
	cfg *driver.Config
	fe  driver.Frontend
	td  *types.Target
	out io.Writer
}

func (s *server) serve(r io.Reader) int {
	br := bufio.NewReader(r)
	for {
		msg, err := readMessage(br)
		if err == io.EOF {
			return driver.ExitSuccess
		}
		if err != nil {
			fmt.Fprintln(stderr, "cc11-lsp: reading message:", err)
			return driver.ExitFailure
		}

		var env struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(msg, &env); err != nil {
			continue
		}

		switch env.Method {
		case "initialize":
			s.reply(env.ID, initializeResult{
				Capabilities: capabilities{
					// Full-document sync: this driver re-checks the whole
					// document on every change rather than tracking edits.
					TextDocumentSync: 1,
				},
			})
		case "initialized":
			// no response required
		case "textDocument/didOpen":
			var p didOpenParams
			if json.Unmarshal(env.Params, &p) == nil {
				s.check(p.TextDocument.URI, p.TextDocument.Text)
			}
		case "textDocument/didChange":
			var p didChangeParams
			if json.Unmarshal(env.Params, &p) == nil && len(p.ContentChanges) > 0 {
				s.check(p.TextDocument.URI, p.ContentChanges[len(p.ContentChanges)-1].Text)
			}
		case "shutdown":
			s.reply(env.ID, nil)
		case "exit":
			return driver.ExitSuccess
		}
	}
}
