// Package intrinsics implements the builtin registry (component I): a
// static table mapping builtin identifiers to the IR construction they
// lower to, consulted by the IR builder's call lowering before it falls
// through to an ordinary OpCall.
package intrinsics

import "cc11/internal/types"

// Kind discriminates the closed set of recognised builtins.
type Kind uint8

const (
	KindNone Kind = iota
	KindVaStart
	KindVaArg
	KindVaCopy
	KindVaEnd
	KindPopcount
	KindClz
	KindCtz
	KindBswap
	KindMemSet
	KindMemCpy
	KindMemMove
	KindMemCmp
	KindUnreachable
	KindFAbs
	KindSqrt
)

// Entry is one registry row: a builtin name paired with the Kind the
// builder construction-dispatches on, plus the integer width it applies
// to (for the popcount/clz/ctz/bswap families, which come in l/ll
// variants, and for the fabs*/sqrt* family, which comes in f/(none)/l
// variants).
type Entry struct {
	Kind  Kind
	Width int // 0 = not width-specific (va_*, mem*, unreachable)
}

var table = map[string]Entry{
	"__builtin_va_start": {Kind: KindVaStart},
	"__builtin_va_arg":   {Kind: KindVaArg},
	"__builtin_va_copy":  {Kind: KindVaCopy},
	"__builtin_va_end":   {Kind: KindVaEnd},

	"__builtin_popcount":   {Kind: KindPopcount, Width: 32},
	"__builtin_popcountl":  {Kind: KindPopcount, Width: 64},
	"__builtin_popcountll": {Kind: KindPopcount, Width: 64},

	"__builtin_clz":   {Kind: KindClz, Width: 32},
	"__builtin_clzl":  {Kind: KindClz, Width: 64},
	"__builtin_clzll": {Kind: KindClz, Width: 64},

	"__builtin_ctz":   {Kind: KindCtz, Width: 32},
	"__builtin_ctzl":  {Kind: KindCtz, Width: 64},
	"__builtin_ctzll": {Kind: KindCtz, Width: 64},

	"__builtin_bswap16": {Kind: KindBswap, Width: 16},
	"__builtin_bswap32": {Kind: KindBswap, Width: 32},
	"__builtin_bswap64": {Kind: KindBswap, Width: 64},

	"__builtin_memset":  {Kind: KindMemSet},
	"__builtin_memcpy":  {Kind: KindMemCpy},
	"__builtin_memmove": {Kind: KindMemMove},
	"__builtin_memcmp":  {Kind: KindMemCmp},

	"__builtin_unreachable": {Kind: KindUnreachable},

	"fabs": {Kind: KindFAbs, Width: 64}, "fabsf": {Kind: KindFAbs, Width: 32}, "fabsl": {Kind: KindFAbs, Width: 64},
	"sqrt": {Kind: KindSqrt, Width: 64}, "sqrtf": {Kind: KindSqrt, Width: 32}, "sqrtl": {Kind: KindSqrt, Width: 64},
}

// Lookup returns the Entry for name, or (Entry{}, false) if name is not
// a recognised builtin/intrinsic.
func Lookup(name string) (Entry, bool) {
	e, ok := table[name]
	return e, ok
}

// ResultType returns the IR type a call to this intrinsic produces,
// given its recognised Width (for the families that carry one).
func (e Entry) ResultType() *types.Type {
	switch e.Kind {
	case KindPopcount, KindClz, KindCtz:
		if e.Width == 64 {
			return types.I64Type
		}
		return types.I32Type
	case KindBswap:
		switch e.Width {
		case 16:
			return types.I16Type
		case 64:
			return types.I64Type
		default:
			return types.I32Type
		}
	case KindFAbs, KindSqrt:
		if e.Width == 32 {
			return types.F32Type
		}
		return types.F64Type
	case KindMemCmp:
		return types.I32Type
	case KindMemSet, KindMemCpy, KindMemMove:
		return types.PointerTo(types.Void)
	}
	return types.Void
}

// VaCopyIsByRef reports whether va_list on this target is passed by
// reference (an array type decaying to a pointer, as on the SysV x86-64
// and AArch64 ABIs cc11 targets) rather than by value (a plain struct, as
// on some 32-bit ABIs). The RV32I target descriptor here models va_list
// by value, so va_copy must copy the whole structure rather than a
// single pointer. See §4.I "va_copy emits a bitwise copy using
// target-specified by-ref/by-value convention."
func VaCopyIsByRef(td *types.Target) bool {
	return td.PointerSize == 8
}
