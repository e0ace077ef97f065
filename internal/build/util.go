package build

import (
	"fmt"

	"cc11/internal/ast"
	"cc11/internal/initlayout"
	"cc11/internal/ir"
	"cc11/internal/types"
)

func sizeOfElem(ptrOrArray *types.Type, td *types.Target) int64 {
	return types.SizeOf(ptrOrArray.Elem, td)
}

// emitAggregateCopy lowers a whole-object copy (aggregate assignment,
// aggregate argument passing, aggregate return) to an OpMemCopy.
func (b *Builder) emitAggregateCopy(dst, src *ir.Op, t *types.Type) {
	op := b.fn.NewOp(ir.OpMemCopy, types.Void)
	op.Dst, op.Src = dst, src
	ln := b.fn.NewOp(ir.OpConstInt, types.PrimType(b.td.PointerIntPrim()))
	ln.ConstInt = types.SizeOf(t, b.td)
	b.block.CurrentStmt().Append(ln)
	op.Len = ln
	b.block.CurrentStmt().Append(op)
}

var stringLitSeq int

// internStringLiteral creates a fresh GlobalString for data, named
// uniquely within the function (no cross-unit deduplication: a later
// pass is free to merge identical string constants, which is a
// link-time or optimisation-level concern outside this package).
func (b *Builder) internStringLiteral(data string) *ir.Global {
	stringLitSeq++
	name := fmt.Sprintf(".L.%s.str%d", b.fn.Name, stringLitSeq)
	g := &ir.Global{
		Name: name, Kind: ir.GlobalString, Linkage: ir.LinkageInternal,
		State: ir.DefDefined, Type: types.ArrayOf(types.I8Type, int64(len(data))+1),
		StringData: data,
	}
	return b.unit.DefineGlobal(g)
}

// buildCompoundLiteral materialises a brace initializer as a fresh
// anonymous local, returning its address (per the aggregate-by-address
// convention). For a compound literal of scalar type the stored value is
// loaded back from the local and returned instead.
func (b *Builder) buildCompoundLiteral(e *ast.Node) (*ir.Op, error) {
	local := b.fn.NewLocal(e.Type, 0)
	if err := b.storeInitRecords(local, e.Type, e); err != nil {
		return nil, err
	}
	op := b.fn.NewOp(ir.OpAddrLocal, types.PointerTo(e.Type))
	op.Local = local
	b.block.CurrentStmt().Append(op)
	if e.Type.IsAggregate() {
		return op, nil
	}
	return b.loadLValue(lvalue{kind: lvLocal, local: local, t: e.Type})
}

// storeInitRecords flattens init against t via the initializer layout
// engine and emits one store per record into local.
func (b *Builder) storeInitRecords(local *ir.Local, t *types.Type, init *ast.Node) error {
	records := initlayout.Flatten(t, init, b.td)
	for _, rec := range records {
		val, err := b.buildExpr(rec.Expr)
		if err != nil {
			return err
		}
		val, err = b.buildCast(rec.Expr.Type, rec.Type, val)
		if err != nil {
			return err
		}
		if rec.Offset == 0 && rec.Type.Equal(t) && !rec.Bitfield {
			if err := b.storeLValue(lvalue{kind: lvLocal, local: local, t: t}, val); err != nil {
				return err
			}
			continue
		}
		base := b.fn.NewOp(ir.OpAddrLocal, types.PointerTo(t))
		base.Local = local
		b.block.CurrentStmt().Append(base)
		addr := base
		if rec.Offset != 0 {
			off := b.fn.NewOp(ir.OpAddrOffset, types.PointerTo(rec.Type))
			off.Base, off.Disp = base, rec.Offset
			b.block.CurrentStmt().Append(off)
			addr = off
		}
		lv := lvalue{kind: lvAddr, t: rec.Type, addr: addr, bitfield: rec.Bitfield, bitWidth: rec.BitWidth, bitOff: rec.BitOff}
		if err := b.storeLValue(lv, val); err != nil {
			return err
		}
	}
	return nil
}
