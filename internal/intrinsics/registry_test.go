package intrinsics

import (
	"testing"

	"cc11/internal/types"
)

func TestLookupKnownAndUnknown(t *testing.T) {
	e, ok := Lookup("__builtin_popcountll")
	if !ok {
		t.Fatal("expected __builtin_popcountll to be recognised")
	}
	if e.Kind != KindPopcount || e.Width != 64 {
		t.Fatalf("got %+v, want {KindPopcount 64}", e)
	}

	if _, ok := Lookup("not_a_builtin"); ok {
		t.Fatal("expected an unrecognised name to report ok=false")
	}
}

func TestResultTypeWidthDispatch(t *testing.T) {
	cases := []struct {
		name string
		e    Entry
		want *types.Type
	}{
		{"popcount32", Entry{Kind: KindPopcount, Width: 32}, types.I32Type},
		{"popcount64", Entry{Kind: KindPopcount, Width: 64}, types.I64Type},
		{"bswap16", Entry{Kind: KindBswap, Width: 16}, types.I16Type},
		{"bswap32", Entry{Kind: KindBswap, Width: 32}, types.I32Type},
		{"bswap64", Entry{Kind: KindBswap, Width: 64}, types.I64Type},
		{"fabsf", Entry{Kind: KindFAbs, Width: 32}, types.F32Type},
		{"fabs", Entry{Kind: KindFAbs, Width: 64}, types.F64Type},
		{"memcmp", Entry{Kind: KindMemCmp}, types.I32Type},
		{"vastart", Entry{Kind: KindVaStart}, types.Void},
	}
	for _, c := range cases {
		if got := c.e.ResultType(); got != c.want {
			t.Errorf("%s: ResultType() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestVaCopyIsByRef(t *testing.T) {
	if !VaCopyIsByRef(types.X8664Linux) {
		t.Error("expected x86_64 (8-byte pointers) to use by-reference va_list")
	}
	if VaCopyIsByRef(types.RV32ILinux) {
		t.Error("expected rv32i (4-byte pointers) to use by-value va_list")
	}
}
