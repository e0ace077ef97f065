package build

import (
	"cc11/internal/ir"
	"cc11/internal/varref"
)

// This file resolves the Open Question left by gen_var_phis/
// find_phi_exprs in §9: rather than a per-block cached-op lookup with a
// TODO'd fallback, reads run the standard incomplete-SSA construction
// (Braun et al., "Simple and Efficient Construction of SSA Form"): a
// read with no direct definition in its block inserts a phi, sealing it
// immediately when all of the block's predecessors are already known
// and deferring it to sealBlock otherwise. A live SSA ref always wins
// over inserting a new phi — readVariable only ever synthesises one
// when no entry (SSA, local, or global) already resolves the read.

// writeVariable records op as v's current SSA definition in block.
func (b *Builder) writeVariable(v varref.Var, block *ir.Block, op *ir.Op) {
	b.vars.SetSSA(v, block, op)
	b.recordWrite(v, op)
}

// readVariable resolves v as seen from block: a direct SSA/local/global
// reference if the table already has one, or a freshly constructed phi
// otherwise.
func (b *Builder) readVariable(v varref.Var, block *ir.Block) *ir.Op {
	if op, ok := b.vars.GetBlockSSA(v, block); ok {
		return op
	}
	return b.readVariableRecursive(v, block)
}

func (b *Builder) readVariableRecursive(v varref.Var, block *ir.Block) *ir.Op {
	var val *ir.Op
	switch {
	case !b.sealed[block]:
		phi := b.newPhi(v, block)
		if b.incompletePhis[block] == nil {
			b.incompletePhis[block] = make(map[varref.Var]*ir.Op)
		}
		b.incompletePhis[block][v] = phi
		val = phi
	case len(block.Preds) == 0:
		// Sealed with no predecessors: block is unreachable (e.g. the
		// statements preceding a switch's first case label). Any read
		// here is dead code; produce an explicit undef rather than an
		// empty, malformed phi.
		t := b.declType[v]
		if t == nil {
			if ws := b.writes[v]; len(ws) > 0 {
				t = ws[len(ws)-1].Type
			}
		}
		val = b.fn.NewOp(ir.OpUndef, t)
		block.CurrentStmt().Append(val)
	case len(block.Preds) == 1:
		val = b.readVariable(v, block.Preds[0])
	default:
		phi := b.newPhi(v, block)
		// Record the phi as v's value in block before recursing into
		// predecessors, so a cyclic reference (a loop body reading a
		// variable it itself updates) resolves to this phi instead of
		// recursing forever.
		b.vars.SetSSA(v, block, phi)
		val = b.addPhiOperands(v, phi, block)
	}
	b.vars.SetSSA(v, block, val)
	return val
}

// newPhi allocates an empty OpPhi at the head of block for v, typed
// from v's declaration (recorded at `declareName` time) or, failing
// that, from its most recent write.
func (b *Builder) newPhi(v varref.Var, block *ir.Block) *ir.Op {
	t := b.declType[v]
	if t == nil {
		if ws := b.writes[v]; len(ws) > 0 {
			t = ws[len(ws)-1].Type
		}
	}
	phi := b.fn.NewOp(ir.OpPhi, t)
	if len(block.Stmts) == 0 {
		block.NewStmt()
	}
	block.Stmts[0].Prepend(phi)
	return phi
}

// addPhiOperands fills phi with one entry per predecessor edge of
// block, recursively resolving each predecessor's reaching value for v.
func (b *Builder) addPhiOperands(v varref.Var, phi *ir.Op, block *ir.Block) *ir.Op {
	for _, pred := range block.Preds {
		val := b.readVariable(v, pred)
		phi.Phi = append(phi.Phi, ir.PhiEntry{Pred: pred, Value: val})
	}
	return phi
}

// sealBlock marks block as having all of its predecessors known and
// resolves every phi that was spawned speculatively while it was
// unsealed. Call once no further predecessor edge will ever be added to
// block — immediately after creation for a single-entry block, or after
// the loop body/back-edge is wired for a loop header, or (for a `goto`
// label) only once the whole function body has been scanned.
func (b *Builder) sealBlock(block *ir.Block) {
	if b.sealed[block] {
		return
	}
	for v, phi := range b.incompletePhis[block] {
		b.addPhiOperands(v, phi, block)
	}
	delete(b.incompletePhis, block)
	b.sealed[block] = true
}

// sealRemaining seals every block still outstanding at function
// finalisation — the `goto` label blocks deliberately left unsealed
// until every forward reference has been resolved, per the comment
// above.
func (b *Builder) sealRemaining() {
	for blk := b.fn.FirstBlock; blk != nil; blk = blk.Next {
		if !b.sealed[blk] {
			b.sealBlock(blk)
		}
	}
}
