package build

import (
	"cc11/internal/ir"
	"cc11/internal/types"
)

// buildCast lowers an implicit or explicit conversion from "from" to
// "to", returning val unchanged when the two types already coincide (a
// no-op conversion the type checker still threads through OCONV nodes
// for arithmetic-promotion bookkeeping). Every integer conversion is
// lowered as its signed-extension variant: §9's Open Question on
// signed/unsigned codegen is resolved by treating all integers as
// signed at this boundary, since types.Type carries no signedness bit
// (see DESIGN.md).
func (b *Builder) buildCast(from, to *types.Type, val *ir.Op) (*ir.Op, error) {
	if from == nil || to == nil || from.Equal(to) {
		return val, nil
	}

	fromFloat := from.Kind == types.KindPrimitive && from.Prim.IsFloat()
	toFloat := to.Kind == types.KindPrimitive && to.Prim.IsFloat()

	switch {
	case to.Kind == types.KindNone:
		return val, nil

	case isPointer(to) && isPointer(from):
		return val, nil

	case isPointer(to) && from.Kind == types.KindPrimitive:
		op := b.fn.NewOp(ir.OpCast, to)
		op.CastKind, op.X = ir.CastZeroExtend, val
		b.block.CurrentStmt().Append(op)
		return op, nil

	case isPointer(from) && to.Kind == types.KindPrimitive:
		op := b.fn.NewOp(ir.OpCast, to)
		op.CastKind, op.X = ir.CastTruncate, val
		b.block.CurrentStmt().Append(op)
		return op, nil

	case fromFloat && toFloat:
		op := b.fn.NewOp(ir.OpCast, to)
		op.CastKind, op.X = ir.CastFloatConv, val
		b.block.CurrentStmt().Append(op)
		return op, nil

	case fromFloat && !toFloat:
		op := b.fn.NewOp(ir.OpCast, to)
		op.CastKind, op.X = ir.CastSignedIntFloat, val
		b.block.CurrentStmt().Append(op)
		return op, nil

	case !fromFloat && toFloat:
		op := b.fn.NewOp(ir.OpCast, to)
		op.CastKind, op.X = ir.CastSignedIntFloat, val
		b.block.CurrentStmt().Append(op)
		return op, nil

	default:
		fromSize, toSize := from.Prim.Size(), to.Prim.Size()
		var kind ir.CastKind
		switch {
		case toSize < fromSize:
			kind = ir.CastTruncate
		case toSize > fromSize:
			kind = ir.CastSignExtend
		default:
			return val, nil
		}
		op := b.fn.NewOp(ir.OpCast, to)
		op.CastKind, op.X = kind, val
		b.block.CurrentStmt().Append(op)
		return op, nil
	}
}
