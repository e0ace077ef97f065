package build

import (
	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/varref"
)

// assignTarget is an assignment/increment destination. A bare name stays
// in the SSA/varref domain (resolveRead/resolveWrite) so that assigning
// to an ordinary scalar local never forces it into an addressable slot;
// every other lvalue shape (member/index/deref) goes through the
// address-based load/store pair.
type assignTarget struct {
	isName bool
	v      varref.Var
	lv     lvalue
}

func (b *Builder) buildAssignTarget(e *ast.Node) (assignTarget, error) {
	if e.Op == ast.ONAME {
		return assignTarget{isName: true, v: b.resolveVar(e.Sym)}, nil
	}
	lv, err := b.buildLValue(e)
	return assignTarget{lv: lv}, err
}

func (b *Builder) loadTarget(t assignTarget) (*ir.Op, error) {
	if t.isName {
		return b.resolveRead(t.v)
	}
	return b.loadLValue(t.lv)
}

func (b *Builder) storeTarget(t assignTarget, val *ir.Op) error {
	if t.isName {
		return b.resolveWrite(t.v, val)
	}
	return b.storeLValue(t.lv, val)
}

// buildAssign lowers `Left = Right`. Aggregate assignment (struct/union/
// array) copies by value via a memcpy rather than a single store, since
// aggregates never hold as SSA/register values (invariant 3).
func (b *Builder) buildAssign(e *ast.Node) (*ir.Op, error) {
	if e.Left.Type.IsAggregate() {
		return b.buildAggregateAssign(e)
	}
	target, err := b.buildAssignTarget(e.Left)
	if err != nil {
		return nil, err
	}
	val, err := b.buildExpr(e.Right)
	if err != nil {
		return nil, err
	}
	val, err = b.buildCast(e.Right.Type, e.Left.Type, val)
	if err != nil {
		return nil, err
	}
	if err := b.storeTarget(target, val); err != nil {
		return nil, err
	}
	return val, nil
}

func (b *Builder) buildAggregateAssign(e *ast.Node) (*ir.Op, error) {
	dstLV, err := b.buildLValue(e.Left)
	if err != nil {
		return nil, err
	}
	dst, err := b.addrOfLValue(dstLV)
	if err != nil {
		return nil, err
	}
	src, err := b.buildExpr(e.Right)
	if err != nil {
		return nil, err
	}
	b.emitAggregateCopy(dst, src, e.Left.Type)
	return dst, nil
}

// buildCompoundAssign lowers `Left OpSub= Right` as a read, a binary op
// against the evaluated right-hand side, and a single write — matching
// C's single-evaluation-of-lvalue semantics for the compound-assignment
// operators.
func (b *Builder) buildCompoundAssign(e *ast.Node) (*ir.Op, error) {
	if isPointer(e.Left.Type) && (e.SubOp == ast.OADD || e.SubOp == ast.OSUB) {
		target, err := b.buildAssignTarget(e.Left)
		if err != nil {
			return nil, err
		}
		old, err := b.loadTarget(target)
		if err != nil {
			return nil, err
		}
		newVal, err := b.buildPointerOffsetFromValue(old, e)
		if err != nil {
			return nil, err
		}
		if err := b.storeTarget(target, newVal); err != nil {
			return nil, err
		}
		return newVal, nil
	}

	target, err := b.buildAssignTarget(e.Left)
	if err != nil {
		return nil, err
	}
	old, err := b.loadTarget(target)
	if err != nil {
		return nil, err
	}
	rhs, err := b.buildExpr(e.Right)
	if err != nil {
		return nil, err
	}
	bop := binOpFor(e.SubOp, e.Left.Type)
	op := b.fn.NewOp(ir.OpBinary, e.Left.Type)
	op.BinOp, op.X, op.Y = bop, old, rhs
	b.block.CurrentStmt().Append(op)
	if err := b.storeTarget(target, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (b *Builder) buildPointerOffsetFromValue(base *ir.Op, e *ast.Node) (*ir.Op, error) {
	idx, err := b.buildExpr(e.Right)
	if err != nil {
		return nil, err
	}
	if e.SubOp == ast.OSUB {
		neg := b.fn.NewOp(ir.OpUnary, idx.Type)
		neg.UnOp, neg.X = ir.UnNegI, idx
		b.block.CurrentStmt().Append(neg)
		idx = neg
	}
	elemSize := sizeOfElem(e.Left.Type, b.td)
	off := b.fn.NewOp(ir.OpAddrOffset, e.Left.Type)
	off.Base, off.Index, off.Scale = base, idx, elemSize
	b.block.CurrentStmt().Append(off)
	return off, nil
}
