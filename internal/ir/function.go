package ir

import "cc11/internal/types"

// FuncFlag is a bit in a Function's flag word.
type FuncFlag uint32

const (
	FuncMakesCall FuncFlag = 1 << iota
	FuncUsesVarargs
)

// Function owns an ordered, doubly linked list of basic blocks, its
// locals, and the facts later passes need without re-scanning the body.
type Function struct {
	Name   string
	Global *Global

	FirstBlock, LastBlock *Block
	nextBlockId           int
	nextOpId              int

	Locals    []*Local
	ParamType []*types.Type
	RetType   *types.Type
	Flags     FuncFlag

	// Labels maps a C source label name to its block, populated as
	// `label:` statements are built and consumed by the goto fix-up
	// pass (§4.E "Goto/label").
	Labels map[string]*Block
}

// NewFunction allocates an empty function. The caller must add at least
// one block before the builder runs.
func NewFunction(name string, params []*types.Type, ret *types.Type) *Function {
	return &Function{
		Name:      name,
		ParamType: params,
		RetType:   ret,
		Labels:    make(map[string]*Block),
	}
}

// NewLocal allocates a fresh local slot of type t and returns it.
func (f *Function) NewLocal(t *types.Type, flags LocalFlag) *Local {
	l := &Local{Id: len(f.Locals), Type: t, Flags: flags}
	f.Locals = append(f.Locals, l)
	return l
}

// NewBlock allocates a fresh block, assigns it the next id, and appends
// it to the end of f's block list.
func (f *Function) NewBlock() *Block {
	b := NewBlock(f.nextBlockId)
	f.nextBlockId++
	if f.LastBlock == nil {
		f.FirstBlock, f.LastBlock = b, b
	} else {
		b.Prev = f.LastBlock
		f.LastBlock.Next = b
		f.LastBlock = b
	}
	return b
}

// NewOp allocates a fresh op with a unique id and the given kind/type.
// It does not append the op anywhere; callers append via Stmt.Append or
// Stmt.Prepend.
func (f *Function) NewOp(kind OpKind, t *types.Type) *Op {
	op := &Op{Id: f.nextOpId, Kind: kind, Type: t}
	f.nextOpId++
	return op
}

// Blocks returns f's blocks in list order. Provided for callers that
// prefer range-over-slice to walking Next pointers by hand.
func (f *Function) Blocks() []*Block {
	var bs []*Block
	for b := f.FirstBlock; b != nil; b = b.Next {
		bs = append(bs, b)
	}
	return bs
}

// ForEachOp calls fn for every op in every block of f, in block and
// statement order.
func (f *Function) ForEachOp(fn func(*Op)) {
	for b := f.FirstBlock; b != nil; b = b.Next {
		for _, s := range b.Stmts {
			for _, op := range s.Ops {
				fn(op)
			}
		}
	}
}
