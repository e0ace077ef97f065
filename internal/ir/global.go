package ir

import "cc11/internal/types"

// Linkage is a global symbol's linkage.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkageInternal
	LinkageNone
)

// DefState is a global's definition state, tracked so the unit can
// resolve tentative definitions at teardown (glossary: "Tentative
// definition").
type DefState uint8

const (
	DefUndefined DefState = iota
	DefTentative
	DefDefined
)

// GlobalKind discriminates the three things a Global can be.
type GlobalKind uint8

const (
	GlobalFunc GlobalKind = iota
	GlobalData
	GlobalString
)

// InitValue is one entry of a data Global's flattened initializer, the
// output of the initializer layout engine (component F) for global
// context: a (byte-offset, value) pair rather than an IR store, because
// globals have no instruction stream to store into.
type InitValue struct {
	Offset   int64
	Bitfield bool
	BitWidth uint8
	BitOff   uint8

	// Exactly one of the following is meaningful, chosen by Kind.
	Kind    InitValueKind
	Int     int64
	Float   float64
	Sym     *Global // address-of another global (+ Disp)
	Disp    int64
	StrData string
}

// InitValueKind discriminates an InitValue's payload.
type InitValueKind uint8

const (
	InitInt InitValueKind = iota
	InitFloat
	InitAddr
	InitString
)

// Global is a linker-visible symbol: a function, data object, or string
// literal, with a name, linkage, definition state, and type.
type Global struct {
	Name    string
	Kind    GlobalKind
	Linkage Linkage
	State   DefState
	Type    *types.Type

	// GlobalData
	InitValues []InitValue
	ZeroFill   bool // no initializer: the object is a .bss-style zero region

	// GlobalString
	StringData string

	// GlobalFunc
	Func *Function

	Next, Prev *Global // doubly linked position within the owning Unit
}
