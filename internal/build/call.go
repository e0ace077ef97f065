package build

import (
	"cc11/internal/ast"
	"cc11/internal/intrinsics"
	"cc11/internal/ir"
	"cc11/internal/types"
)

// buildCall lowers a call expression, dispatching to the intrinsic
// registry (component I) first and falling through to an ordinary
// OpCall, per §4.I "consulted by the IR builder's call lowering before
// it falls through to an ordinary OpCall."
//
// An aggregate-returning call passes a hidden destination pointer as its
// first argument (the caller-allocates convention) rather than
// producing an aggregate SSA value, consistent with invariant 3; the
// call's own value, by the aggregate-by-address convention, is that
// destination's address.
func (b *Builder) buildCall(e *ast.Node) (*ir.Op, error) {
	if e.Left.Op == ast.ONAME {
		if entry, ok := intrinsics.Lookup(e.Left.Sym); ok {
			return b.buildIntrinsicCall(e, entry)
		}
	}

	callee, err := b.buildExpr(e.Left)
	if err != nil {
		return nil, err
	}

	var args []*ir.Op
	var argTypes []*types.Type
	var sretAddr *ir.Op
	aggregateReturn := e.Type.IsAggregate()
	if aggregateReturn {
		retLocal := b.fn.NewLocal(e.Type, 0)
		sretOp := b.fn.NewOp(ir.OpAddrLocal, types.PointerTo(e.Type))
		sretOp.Local = retLocal
		b.block.CurrentStmt().Append(sretOp)
		sretAddr = sretOp
		args = append(args, sretAddr)
		argTypes = append(argTypes, types.PointerTo(e.Type))
	}

	fixedParams := -1
	if e.Left.Type != nil && e.Left.Type.Kind == types.KindFunc {
		fixedParams = len(e.Left.Type.Params)
	}
	for i, a := range e.List {
		val, err := b.buildExpr(a)
		if err != nil {
			return nil, err
		}
		if fixedParams >= 0 && i >= fixedParams {
			val.Flags |= ir.FlagVariadicArg
		}
		args = append(args, val)
		argTypes = append(argTypes, a.Type)
	}

	resultType := e.Type
	if aggregateReturn {
		resultType = types.Void
	}
	op := b.fn.NewOp(ir.OpCall, resultType)
	op.Target = callee
	op.Args = args
	op.ArgTypes = argTypes
	if e.Left.Type != nil {
		op.FuncType = e.Left.Type
	}
	b.fn.Flags |= ir.FuncMakesCall
	b.block.CurrentStmt().Append(op)

	if aggregateReturn {
		return sretAddr, nil
	}
	return op, nil
}

func (b *Builder) buildIntrinsicCall(e *ast.Node, entry intrinsics.Entry) (*ir.Op, error) {
	switch entry.Kind {
	case intrinsics.KindVaStart:
		addr, err := b.vaListAddr(e.List[0])
		if err != nil {
			return nil, err
		}
		op := b.fn.NewOp(ir.OpVaStart, types.Void)
		op.VaList = addr
		b.block.CurrentStmt().Append(op)
		return op, nil

	case intrinsics.KindVaArg:
		addr, err := b.vaListAddr(e.List[0])
		if err != nil {
			return nil, err
		}
		op := b.fn.NewOp(ir.OpVaArg, e.Type)
		op.VaList = addr
		b.block.CurrentStmt().Append(op)
		return op, nil

	case intrinsics.KindVaEnd:
		op := b.fn.NewOp(ir.OpConstZero, types.Void)
		b.block.CurrentStmt().Append(op)
		return op, nil

	case intrinsics.KindVaCopy:
		return b.buildVaCopy(e)

	case intrinsics.KindPopcount, intrinsics.KindClz, intrinsics.KindCtz, intrinsics.KindBswap,
		intrinsics.KindFAbs, intrinsics.KindSqrt:
		x, err := b.buildExpr(e.List[0])
		if err != nil {
			return nil, err
		}
		op := b.fn.NewOp(ir.OpUnary, entry.ResultType())
		op.UnOp = unOpFor(entry.Kind)
		op.X = x
		b.block.CurrentStmt().Append(op)
		return op, nil

	case intrinsics.KindMemSet, intrinsics.KindMemCpy, intrinsics.KindMemMove, intrinsics.KindMemCmp:
		dst, err := b.buildExpr(e.List[0])
		if err != nil {
			return nil, err
		}
		mid, err := b.buildExpr(e.List[1])
		if err != nil {
			return nil, err
		}
		ln, err := b.buildExpr(e.List[2])
		if err != nil {
			return nil, err
		}
		op := b.fn.NewOp(memKindFor(entry.Kind), entry.ResultType())
		op.Dst, op.Src, op.Len = dst, mid, ln
		b.block.CurrentStmt().Append(op)
		return op, nil

	case intrinsics.KindUnreachable:
		op := b.fn.NewOp(ir.OpUndef, types.Void)
		b.block.CurrentStmt().Append(op)
		return op, nil
	}
	return nil, b.err("build: unhandled intrinsic kind %v", entry.Kind)
}

func (b *Builder) vaListAddr(e *ast.Node) (*ir.Op, error) {
	lv, err := b.buildLValue(e)
	if err != nil {
		return nil, err
	}
	return b.addrOfLValue(lv)
}

// buildVaCopy lowers __builtin_va_copy per target ABI (§4.I): a single
// pointer copy when va_list is passed by reference, a whole-structure
// copy otherwise.
func (b *Builder) buildVaCopy(e *ast.Node) (*ir.Op, error) {
	dst, err := b.vaListAddr(e.List[0])
	if err != nil {
		return nil, err
	}
	src, err := b.vaListAddr(e.List[1])
	if err != nil {
		return nil, err
	}
	if intrinsics.VaCopyIsByRef(b.td) {
		ptrT := types.PointerTo(types.Void)
		val, err := b.loadLValue(lvalue{kind: lvAddr, t: ptrT, addr: src})
		if err != nil {
			return nil, err
		}
		if err := b.storeLValue(lvalue{kind: lvAddr, t: ptrT, addr: dst}, val); err != nil {
			return nil, err
		}
		return val, nil
	}
	b.emitAggregateCopy(dst, src, e.List[0].Type)
	return dst, nil
}

func unOpFor(k intrinsics.Kind) ir.UnOp {
	switch k {
	case intrinsics.KindPopcount:
		return ir.UnPopcount
	case intrinsics.KindClz:
		return ir.UnClz
	case intrinsics.KindCtz:
		return ir.UnCtz
	case intrinsics.KindBswap:
		return ir.UnBswap
	case intrinsics.KindFAbs:
		return ir.UnFAbs
	case intrinsics.KindSqrt:
		return ir.UnFSqrt
	}
	return ir.UnXXX
}

func memKindFor(k intrinsics.Kind) ir.OpKind {
	switch k {
	case intrinsics.KindMemSet:
		return ir.OpMemSet
	case intrinsics.KindMemCpy:
		return ir.OpMemCopy
	case intrinsics.KindMemMove:
		return ir.OpMemMove
	case intrinsics.KindMemCmp:
		return ir.OpMemCmp
	}
	return ir.OXXX
}
