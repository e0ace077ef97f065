// Command cc11-lsp is a dedicated entry point for the LSP driver, for
// editor integrations that want to launch a language-server binary
// directly rather than passing -lsp to cc11.
package main

import (
	"fmt"
	"os"

	"cc11/internal/driver"
	"cc11/internal/frontend"
	"cc11/internal/lsp"
)

func main() {
	cfg, err := driver.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc11-lsp:", err)
		os.Exit(driver.ExitFailure)
	}
	os.Exit(lsp.Run(cfg, frontend.Stub{}))
}
