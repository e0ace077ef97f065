package driver

import (
	"strings"
	"testing"

	"cc11/internal/ir"
	"cc11/internal/types"
)

// TestDumpFunctionAnnotatesIntArgRegisters checks that the assembly dump
// names the ABI register each integer parameter materialises from.
func TestDumpFunctionAnnotatesIntArgRegisters(t *testing.T) {
	td := types.X8664Linux
	fn := ir.NewFunction("f", []*types.Type{types.I32Type, types.I32Type}, types.I32Type)
	fn.NewBlock()

	var b strings.Builder
	dumpFunction(&b, fn, td)
	out := b.String()

	if !strings.Contains(out, "param 0 -> RDI") {
		t.Fatalf("expected first int param bound to RDI, got:\n%s", out)
	}
	if !strings.Contains(out, "param 1 -> RSI") {
		t.Fatalf("expected second int param bound to RSI, got:\n%s", out)
	}
}
