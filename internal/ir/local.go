package ir

import "cc11/internal/types"

// LocalFlag is a bit in a Local's flag word.
type LocalFlag uint8

const (
	LocalFlagParam LocalFlag = 1 << iota // materialised from an incoming parameter
)

// Local is an anonymous stack slot owned by a Function. It is never
// referenced by name after the builder runs — only by address-of and
// load/store ops holding a *Local pointer.
type Local struct {
	Id    int
	Type  *types.Type
	Flags LocalFlag
}
