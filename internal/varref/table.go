// Package varref implements the scope-keyed variable-reference table
// (component D): the mapping from a source variable to its current SSA
// value, local slot, or global symbol while the builder walks one
// function body.
package varref

import "cc11/internal/ir"

// Scope is a lexical scope id, assigned by the builder as it enters and
// leaves blocks ({ } compound statements, for-loop headers, ...).
type Scope int

// GlobalScope is the scope-less fallback used for file-scope globals, so
// that a read with no enclosing block-scope match still finds them.
const GlobalScope Scope = -1

// Var identifies a source variable: its name plus the lexical scope it
// was declared in. Two variables with the same name in different scopes
// (shadowing) are distinct Vars.
type Var struct {
	Name  string
	Scope Scope
}

// Kind discriminates what a Ref points at.
type Kind uint8

const (
	KindSSA Kind = iota
	KindLocal
	KindGlobal
)

// Ref is the stored reference for a Var: an SSA op (the current defining
// op for that variable in a given block), a local slot (the variable is
// addressable or of aggregate/array type), or a global symbol.
type Ref struct {
	Kind   Kind
	Op     *ir.Op
	Local  *ir.Local
	Global *ir.Global
}

type key struct {
	v     Var
	block *ir.Block // nil means "any block" (local/global entries, and SSA entries outside per-block tracking)
}

// Table is the (identifier, lexical scope, optional basic block)-keyed
// mapping described in §4.D. Its lifetime follows one function build;
// after the function is built the table is discarded (the builder
// simply drops it — there is no explicit Close).
type Table struct {
	entries map[key]Ref
}

// New returns an empty Table.
func New() *Table {
	return &Table{entries: make(map[key]Ref)}
}

// GetRef looks up v as seen from block, in the fallback order required
// to reproduce C's block-scoped shadowing:
//
//  1. (name, scope, block)       — an SSA value current in this exact block
//  2. (name, scope, *)           — a local slot or global symbol for this
//     scope, independent of block
//  3. (name, GLOBAL, *)          — a function-scope global, found even
//     when the caller has no scope-specific match
//
// Returns ok=false if none match.
func (t *Table) GetRef(v Var, block *ir.Block) (Ref, bool) {
	if r, ok := t.entries[key{v, block}]; ok {
		return r, true
	}
	if r, ok := t.entries[key{v, nil}]; ok {
		return r, true
	}
	if r, ok := t.entries[key{Var{v.Name, GlobalScope}, nil}]; ok {
		return r, true
	}
	return Ref{}, false
}

// GetBlockSSA returns the SSA value recorded for v in exactly block,
// without falling back to a local/global/other-block entry. The IR
// builder uses this to distinguish "no value reaches this block without
// a phi" from "v is a local/global, visible from any block" when
// deciding whether to run the phi-insertion worklist.
func (t *Table) GetBlockSSA(v Var, block *ir.Block) (*ir.Op, bool) {
	r, ok := t.entries[key{v, block}]
	if !ok || r.Kind != KindSSA {
		return nil, false
	}
	return r.Op, true
}

// AddRef records ref as v's current reference as seen from block. Pass
// block == nil to add a block-independent entry (locals and globals are
// always added this way; SSA defs are added per-block since their value
// changes block to block).
func (t *Table) AddRef(v Var, block *ir.Block, ref Ref) {
	t.entries[key{v, block}] = ref
}

// SetSSA is a convenience wrapper recording op as v's current SSA
// definition in block.
func (t *Table) SetSSA(v Var, block *ir.Block, op *ir.Op) {
	t.AddRef(v, block, Ref{Kind: KindSSA, Op: op})
}

// PromoteToLocal rewrites every recorded reference to v so that future
// lookups resolve to local instead of whatever SSA op they previously
// held. It does not itself emit the store of the old SSA value into
// local — that IR construction is the builder's job (§4.E: "used when
// `&var` is taken"), since only the builder knows the current statement
// to append the store to.
func (t *Table) PromoteToLocal(v Var, local *ir.Local) {
	for k := range t.entries {
		if k.v == v {
			t.entries[k] = Ref{Kind: KindLocal, Local: local}
		}
	}
}
