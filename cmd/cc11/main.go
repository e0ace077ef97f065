// Command cc11 is the compiler driver binary: it parses the CLI surface
// of §6 and dispatches to the ordinary pipeline, the interpreter driver
// (-interp), or the LSP driver (-lsp).
package main

import (
	"fmt"
	"os"

	"cc11/internal/driver"
	"cc11/internal/frontend"
	"cc11/internal/interp"
	"cc11/internal/lsp"
)

func main() {
	cfg, err := driver.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc11:", err)
		os.Exit(driver.ExitFailure)
	}

	fe := frontend.Stub{}

	var code int
	switch {
	case cfg.Interp:
		code = interp.Run(cfg, fe)
	case cfg.LSP:
		code = lsp.Run(cfg, fe)
	default:
		code = driver.Run(cfg, fe)
	}
	os.Exit(code)
}
