package ir

import (
	"cc11/internal/arena"
	"cc11/internal/types"
)

// Unit owns an arena, a target descriptor, and the doubly linked list of
// globals built for one compilation unit.
type Unit struct {
	Arena  *arena.Arena
	Target *types.Target

	FirstGlobal, LastGlobal *Global
	byName                  map[string]*Global
}

// NewUnit creates an empty unit targeting td, owning a fresh arena.
func NewUnit(td *types.Target) *Unit {
	return &Unit{
		Arena:  arena.New(),
		Target: td,
		byName: make(map[string]*Global),
	}
}

// Lookup returns the global named name, or nil.
func (u *Unit) Lookup(name string) *Global {
	return u.byName[name]
}

// DefineGlobal appends g to the unit's global list and indexes it by
// name, applying the tentative-definition merge rule: a later tentative
// or defined declaration for the same name upgrades the existing entry
// in place rather than creating a duplicate symbol.
func (u *Unit) DefineGlobal(g *Global) *Global {
	if existing, ok := u.byName[g.Name]; ok {
		return mergeGlobal(existing, g)
	}
	if u.LastGlobal == nil {
		u.FirstGlobal, u.LastGlobal = g, g
	} else {
		g.Prev = u.LastGlobal
		u.LastGlobal.Next = g
		u.LastGlobal = g
	}
	u.byName[g.Name] = g
	return g
}

// mergeGlobal folds a newly seen declaration for an already-known symbol
// into the existing Global, honouring:
//   - a Defined declaration always wins over a Tentative or Undefined one;
//   - two Tentative declarations collapse into one (glossary: tentative
//     definition — "promoted to a zero-initialised definition if no
//     stronger definition is seen at end of unit").
func mergeGlobal(existing, next *Global) *Global {
	if next.State == DefDefined {
		existing.State = DefDefined
		existing.InitValues = next.InitValues
		existing.ZeroFill = next.ZeroFill
		existing.StringData = next.StringData
		existing.Func = next.Func
	} else if next.State == DefTentative && existing.State == DefUndefined {
		existing.State = DefTentative
	}
	return existing
}

// ResolveTentativeDefinitions promotes every remaining tentative
// file-scope data definition to a zero-initialised definition. Called by
// build.BuildUnit once per unit at build completion, per the glossary
// definition of "tentative definition" and the SUPPLEMENTED FEATURES
// note in SPEC_FULL.md.
func (u *Unit) ResolveTentativeDefinitions() {
	for g := u.FirstGlobal; g != nil; g = g.Next {
		if g.Kind == GlobalData && g.State == DefTentative {
			g.State = DefDefined
			g.ZeroFill = true
		}
	}
}

// ForEachUse calls fn once for every operand slot of op, in a fixed
// field order, implementing the "for-each-use of an op" walker. Each
// operand slot is visited exactly once per op (component G invariant).
func ForEachUse(op *Op, fn func(use *Op)) {
	visit := func(p *Op) {
		if p != nil {
			fn(p)
		}
	}
	switch op.Kind {
	case OpAddrOffset:
		visit(op.Base)
		visit(op.Index)
	case OpLoadAddr, OpBitfieldLoad:
		visit(op.Addr)
	case OpStoreLocal, OpStoreGlobal:
		visit(op.Value)
	case OpStoreAddr, OpBitfieldStore:
		visit(op.Addr)
		visit(op.Value)
	case OpUnary:
		visit(op.X)
	case OpBinary:
		visit(op.X)
		visit(op.Y)
	case OpCast:
		visit(op.X)
	case OpCall:
		visit(op.Target)
		for _, a := range op.Args {
			visit(a)
		}
	case OpCondBranch:
		visit(op.Cond)
	case OpSwitch:
		visit(op.Cond)
	case OpPhi:
		for _, e := range op.Phi {
			visit(e.Value)
		}
	case OpMov:
		visit(op.Value)
	case OpMemSet, OpMemCopy, OpMemMove, OpMemCmp:
		visit(op.Dst)
		visit(op.Src)
		visit(op.Len)
	case OpVaArg:
		visit(op.VaList)
	case OpVaStart:
		visit(op.VaList)
	case OpRet:
		visit(op.Value)
	}
}
