// Package cfg implements the CFG maintenance utilities of component G:
// edge wiring, block merge/split/switch terminator construction, phi
// simplification, dead-block pruning, and the use-walker. These are
// subroutines the IR builder (internal/build) calls; nothing here
// inspects the typed AST.
package cfg

import (
	"cc11/internal/ir"
	"cc11/internal/types"
)

func addSucc(b, to *ir.Block) {
	for _, s := range b.Succs {
		if s == to {
			return
		}
	}
	b.Succs = append(b.Succs, to)
}

func addPred(b, from *ir.Block) {
	for _, p := range b.Preds {
		if p == from {
			return
		}
	}
	b.Preds = append(b.Preds, from)
}

// wireTerminator installs term as b's terminator, appending it to b's
// current statement, and records the edges it implies.
func wireTerminator(b *ir.Block, term *ir.Op, succs ...*ir.Block) {
	b.CurrentStmt().Append(term)
	b.Term = term
	for _, s := range succs {
		addSucc(b, s)
		addPred(s, b)
	}
}

// MakeReturn terminates b with a return of value (nil for a void
// return).
func MakeReturn(f *ir.Function, b *ir.Block, value *ir.Op) *ir.Op {
	term := f.NewOp(ir.OpRet, types.Void)
	term.Value = value
	wireTerminator(b, term)
	return term
}

// MakeBranch terminates b with an unconditional branch to target — the
// "merge" construction named in §4.C, used to join control flow back
// together after an if/else or loop body.
func MakeBranch(f *ir.Function, b *ir.Block, target *ir.Block) *ir.Op {
	term := f.NewOp(ir.OpBranch, types.Void)
	term.True = target
	wireTerminator(b, term, target)
	return term
}

// MakeCondBranch terminates b with a conditional branch on cond — the
// "split" construction named in §4.C, used to fork control flow for
// if/else, loops, and the ternary operator.
func MakeCondBranch(f *ir.Function, b *ir.Block, cond *ir.Op, trueBlk, falseBlk *ir.Block) *ir.Op {
	term := f.NewOp(ir.OpCondBranch, types.Void)
	term.Cond = cond
	term.True = trueBlk
	term.False = falseBlk
	wireTerminator(b, term, trueBlk, falseBlk)
	return term
}

// MakeSwitch terminates b with a multi-way switch on cond.
func MakeSwitch(f *ir.Function, b *ir.Block, cond *ir.Op, cases []ir.SwitchCase, def *ir.Block) *ir.Op {
	term := f.NewOp(ir.OpSwitch, types.Void)
	term.Cond = cond
	term.Cases = cases
	term.Default = def
	succs := make([]*ir.Block, 0, len(cases)+1)
	for _, c := range cases {
		succs = append(succs, c.Block)
	}
	if def != nil {
		succs = append(succs, def)
	}
	wireTerminator(b, term, succs...)
	return term
}

// ReplaceSuccessor rewires all edges from b that pointed at old to point
// at replacement instead, updating old's and replacement's predecessor
// lists to match. Used when a block is pruned and control must flow
// directly to its successor.
func ReplaceSuccessor(b, old, replacement *ir.Block) {
	for i, s := range b.Succs {
		if s == old {
			b.Succs[i] = replacement
		}
	}
	removePred(old, b)
	addPred(replacement, b)
	rewriteTermTarget(b.Term, old, replacement)
}

func removePred(b, from *ir.Block) {
	out := b.Preds[:0]
	for _, p := range b.Preds {
		if p != from {
			out = append(out, p)
		}
	}
	b.Preds = out
}

func rewriteTermTarget(term *ir.Op, old, replacement *ir.Block) {
	if term == nil {
		return
	}
	if term.True == old {
		term.True = replacement
	}
	if term.False == old {
		term.False = replacement
	}
	if term.Default == old {
		term.Default = replacement
	}
	for i := range term.Cases {
		if term.Cases[i].Block == old {
			term.Cases[i].Block = replacement
		}
	}
}
