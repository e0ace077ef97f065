package build

import (
	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/ir/cfg"
	"cc11/internal/types"
)

// buildExpr lowers e to a value. By the aggregate-by-address convention
// (IR data-model invariant 3: aggregates never live as SSA values), an
// expression whose static type is a struct/union/array evaluates here
// to its address rather than its bytes.
func (b *Builder) buildExpr(e *ast.Node) (*ir.Op, error) {
	switch e.Op {
	case ast.OLITERAL:
		return b.buildLiteral(e)

	case ast.ONAME:
		if e.Type.IsAggregate() || e.Type.Kind == types.KindFunc {
			lv, err := b.buildLValue(e)
			if err != nil {
				return nil, err
			}
			return b.addrOfLValue(lv)
		}
		return b.resolveRead(b.resolveVar(e.Sym))

	case ast.OADDR:
		lv, err := b.buildLValue(e.Left)
		if err != nil {
			return nil, err
		}
		return b.addrOfLValue(lv)

	case ast.ODEREF:
		ptr, err := b.buildExpr(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Type.IsAggregate() {
			return ptr, nil
		}
		return b.loadLValue(lvalue{kind: lvAddr, t: e.Type, addr: ptr})

	case ast.OPLUS:
		return b.buildExpr(e.Left)

	case ast.ONEG, ast.OBITNOT, ast.ONOT:
		return b.buildUnary(e)

	case ast.OPREINC, ast.OPREDEC, ast.OPOSTINC, ast.OPOSTDEC:
		return b.buildIncDec(e)

	case ast.OADD, ast.OSUB, ast.OMUL, ast.ODIV, ast.OMOD,
		ast.OAND, ast.OOR, ast.OXOR, ast.OSHL, ast.OSHR,
		ast.OEQ, ast.ONE, ast.OLT, ast.OLE, ast.OGT, ast.OGE:
		return b.buildBinary(e)

	case ast.OANDAND, ast.OOROR:
		return b.buildShortCircuit(e)

	case ast.OCOND:
		return b.buildCond(e)

	case ast.OAS:
		return b.buildAssign(e)

	case ast.OASOP:
		return b.buildCompoundAssign(e)

	case ast.OCONV:
		val, err := b.buildExpr(e.Left)
		if err != nil {
			return nil, err
		}
		from, to := e.Left.Type, e.Type
		if e.PreCast != nil {
			from = e.PreCast
		}
		if e.PostCast != nil {
			to = e.PostCast
		}
		return b.buildCast(from, to, val)

	case ast.OCALL:
		return b.buildCall(e)

	case ast.OMEMBER, ast.OINDEX:
		lv, err := b.buildLValue(e)
		if err != nil {
			return nil, err
		}
		if e.Type.IsAggregate() {
			return b.addrOfLValue(lv)
		}
		return b.loadLValue(lv)

	case ast.OCOMPLIT:
		return b.buildCompoundLiteral(e)

	case ast.OCOMMA:
		if _, err := b.buildExpr(e.Left); err != nil {
			return nil, err
		}
		return b.buildExpr(e.Right)
	}
	return nil, b.err("build: unsupported expression kind %v", e.Op)
}

func (b *Builder) buildLiteral(e *ast.Node) (*ir.Op, error) {
	if e.Type.Kind == types.KindPrimitive && e.Type.Prim.IsFloat() {
		op := b.fn.NewOp(ir.OpConstFloat, e.Type)
		op.ConstFloat = e.FloatVal
		b.block.CurrentStmt().Append(op)
		return op, nil
	}
	if e.StringVal != "" {
		g := b.internStringLiteral(e.StringVal)
		op := b.fn.NewOp(ir.OpAddrGlobal, types.PointerTo(types.I8Type))
		op.Global = g
		b.block.CurrentStmt().Append(op)
		return op, nil
	}
	if e.IntVal == 0 {
		op := b.fn.NewOp(ir.OpConstZero, e.Type)
		b.block.CurrentStmt().Append(op)
		return op, nil
	}
	op := b.fn.NewOp(ir.OpConstInt, e.Type)
	op.ConstInt = e.IntVal
	b.block.CurrentStmt().Append(op)
	return op, nil
}

func (b *Builder) buildUnary(e *ast.Node) (*ir.Op, error) {
	x, err := b.buildExpr(e.Left)
	if err != nil {
		return nil, err
	}
	var u ir.UnOp
	switch e.Op {
	case ast.ONEG:
		if e.Type.Kind == types.KindPrimitive && e.Type.Prim.IsFloat() {
			u = ir.UnNegF
		} else {
			u = ir.UnNegI
		}
	case ast.OBITNOT:
		u = ir.UnBitNot
	case ast.ONOT:
		u = ir.UnLogicalNot
	}
	op := b.fn.NewOp(ir.OpUnary, e.Type)
	op.UnOp = u
	op.X = x
	b.block.CurrentStmt().Append(op)
	return op, nil
}

// toBool converts val (of static type t) to an i1, inserting a
// compare-not-zero cast unless val is already boolean.
func (b *Builder) toBool(val *ir.Op, t *types.Type) *ir.Op {
	if t.Kind == types.KindPrimitive && t.Prim == types.I1 {
		return val
	}
	op := b.fn.NewOp(ir.OpCast, types.I1Type)
	op.CastKind = ir.CastCompareNotZero
	op.X = val
	b.block.CurrentStmt().Append(op)
	return op
}

func isPointer(t *types.Type) bool { return t.Kind == types.KindPointer }

func (b *Builder) buildBinary(e *ast.Node) (*ir.Op, error) {
	// Pointer arithmetic: ptr +/- int scales by the pointee size; two
	// pointers subtracted yield an element-count difference.
	if (e.Op == ast.OADD || e.Op == ast.OSUB) && isPointer(e.Left.Type) {
		if isPointer(e.Right.Type) && e.Op == ast.OSUB {
			return b.buildPointerDiff(e)
		}
		return b.buildPointerOffset(e.Left, e.Right, e.Op, e.Type)
	}
	if e.Op == ast.OADD && isPointer(e.Right.Type) {
		return b.buildPointerOffset(e.Right, e.Left, e.Op, e.Type)
	}

	x, err := b.buildExpr(e.Left)
	if err != nil {
		return nil, err
	}
	y, err := b.buildExpr(e.Right)
	if err != nil {
		return nil, err
	}
	bop := binOpFor(e.Op, e.Left.Type)
	resultType := e.Type
	if bop.IsCompare() {
		resultType = types.I1Type
	}
	op := b.fn.NewOp(ir.OpBinary, resultType)
	op.BinOp = bop
	op.X, op.Y = x, y
	b.block.CurrentStmt().Append(op)
	return op, nil
}

// binOpFor maps a source operator plus its (post-promotion) operand type
// to a BinOp. Integer comparisons and shifts are lowered as their signed
// variant uniformly: the typed-AST boundary this builder consumes does
// not carry a separate signedness bit on types.Type (see DESIGN.md), so
// unsigned-specific codegen is left to a future type-checker enrichment.
func binOpFor(op ast.Op, t *types.Type) ir.BinOp {
	isFloat := t.Kind == types.KindPrimitive && t.Prim.IsFloat()
	switch op {
	case ast.OADD:
		if isFloat {
			return ir.BinAddF
		}
		return ir.BinAddI
	case ast.OSUB:
		if isFloat {
			return ir.BinSubF
		}
		return ir.BinSubI
	case ast.OMUL:
		if isFloat {
			return ir.BinMulF
		}
		return ir.BinMulI
	case ast.ODIV:
		if isFloat {
			return ir.BinDivF
		}
		return ir.BinDivS
	case ast.OMOD:
		return ir.BinModS
	case ast.OAND:
		return ir.BinAndI
	case ast.OOR:
		return ir.BinOrI
	case ast.OXOR:
		return ir.BinXorI
	case ast.OSHL:
		return ir.BinShlI
	case ast.OSHR:
		return ir.BinShrS
	case ast.OEQ:
		if isFloat {
			return ir.BinCmpEQF
		}
		return ir.BinCmpEQ
	case ast.ONE:
		if isFloat {
			return ir.BinCmpNEF
		}
		return ir.BinCmpNE
	case ast.OLT:
		if isFloat {
			return ir.BinCmpLTF
		}
		return ir.BinCmpLTS
	case ast.OLE:
		if isFloat {
			return ir.BinCmpLEF
		}
		return ir.BinCmpLES
	case ast.OGT:
		if isFloat {
			return ir.BinCmpGTF
		}
		return ir.BinCmpGTS
	case ast.OGE:
		if isFloat {
			return ir.BinCmpGEF
		}
		return ir.BinCmpGES
	}
	return ir.BinXXX
}

func (b *Builder) buildPointerOffset(ptrExpr, idxExpr *ast.Node, op ast.Op, resultType *types.Type) (*ir.Op, error) {
	base, err := b.buildExpr(ptrExpr)
	if err != nil {
		return nil, err
	}
	idx, err := b.buildExpr(idxExpr)
	if err != nil {
		return nil, err
	}
	if op == ast.OSUB {
		neg := b.fn.NewOp(ir.OpUnary, idx.Type)
		neg.UnOp = ir.UnNegI
		neg.X = idx
		b.block.CurrentStmt().Append(neg)
		idx = neg
	}
	elemSize := types.SizeOf(ptrExpr.Type.Elem, b.td)
	off := b.fn.NewOp(ir.OpAddrOffset, resultType)
	off.Base, off.Index, off.Scale = base, idx, elemSize
	b.block.CurrentStmt().Append(off)
	return off, nil
}

func (b *Builder) buildPointerDiff(e *ast.Node) (*ir.Op, error) {
	x, err := b.buildExpr(e.Left)
	if err != nil {
		return nil, err
	}
	y, err := b.buildExpr(e.Right)
	if err != nil {
		return nil, err
	}
	intType := types.PrimType(b.td.PointerIntPrim())
	xi := b.fn.NewOp(ir.OpCast, intType)
	xi.CastKind, xi.X = ir.CastZeroExtend, x
	b.block.CurrentStmt().Append(xi)
	yi := b.fn.NewOp(ir.OpCast, intType)
	yi.CastKind, yi.X = ir.CastZeroExtend, y
	b.block.CurrentStmt().Append(yi)

	sub := b.fn.NewOp(ir.OpBinary, intType)
	sub.BinOp, sub.X, sub.Y = ir.BinSubI, xi, yi
	b.block.CurrentStmt().Append(sub)

	elemSize := types.SizeOf(e.Left.Type.Elem, b.td)
	if elemSize <= 1 {
		return sub, nil
	}
	scale := b.fn.NewOp(ir.OpConstInt, intType)
	scale.ConstInt = elemSize
	b.block.CurrentStmt().Append(scale)
	div := b.fn.NewOp(ir.OpBinary, e.Type)
	div.BinOp, div.X, div.Y = ir.BinDivS, sub, scale
	b.block.CurrentStmt().Append(div)
	return div, nil
}

// buildShortCircuit lowers && / || with the control-flow split required
// to avoid evaluating the right operand unless necessary.
func (b *Builder) buildShortCircuit(e *ast.Node) (*ir.Op, error) {
	lhs, err := b.buildExpr(e.Left)
	if err != nil {
		return nil, err
	}
	lhsBool := b.toBool(lhs, e.Left.Type)
	startBlk := b.block

	// The short-circuit result is materialised in startBlk ahead of its
	// conditional branch, since nothing may follow a block's terminator.
	shortVal := b.fn.NewOp(ir.OpConstInt, types.I1Type)
	if e.Op == ast.OOROR {
		shortVal.ConstInt = 1
	}
	startBlk.CurrentStmt().Append(shortVal)

	rhsBlk := b.newBlock()
	mergeBlk := b.newBlock()
	if e.Op == ast.OANDAND {
		cfg.MakeCondBranch(b.fn, startBlk, lhsBool, rhsBlk, mergeBlk)
	} else {
		cfg.MakeCondBranch(b.fn, startBlk, lhsBool, mergeBlk, rhsBlk)
	}
	b.sealBlock(rhsBlk)

	b.setBlock(rhsBlk)
	rhs, err := b.buildExpr(e.Right)
	if err != nil {
		return nil, err
	}
	rhsBool := b.toBool(rhs, e.Right.Type)
	rhsEnd := b.block
	cfg.MakeBranch(b.fn, rhsEnd, mergeBlk)
	b.sealBlock(mergeBlk)

	b.setBlock(mergeBlk)
	phi := b.rawPhi(mergeBlk, types.I1Type, []ir.PhiEntry{
		{Pred: startBlk, Value: shortVal},
		{Pred: rhsEnd, Value: rhsBool},
	})
	return phi, nil
}

func (b *Builder) buildCond(e *ast.Node) (*ir.Op, error) {
	startBlk := b.block
	if e.List[0] == nil {
		condVal, err := b.buildExpr(e.Left)
		if err != nil {
			return nil, err
		}
		boolVal := b.toBool(condVal, e.Left.Type)
		falseBlk, mergeBlk := b.newBlock(), b.newBlock()
		cfg.MakeCondBranch(b.fn, startBlk, boolVal, mergeBlk, falseBlk)
		b.sealBlock(falseBlk)

		b.setBlock(falseBlk)
		falseVal, err := b.buildExpr(e.List[1])
		if err != nil {
			return nil, err
		}
		falseEnd := b.block
		cfg.MakeBranch(b.fn, falseEnd, mergeBlk)
		b.sealBlock(mergeBlk)

		b.setBlock(mergeBlk)
		return b.rawPhi(mergeBlk, e.Type, []ir.PhiEntry{
			{Pred: startBlk, Value: condVal},
			{Pred: falseEnd, Value: falseVal},
		}), nil
	}

	condVal, err := b.buildExpr(e.Left)
	if err != nil {
		return nil, err
	}
	boolVal := b.toBool(condVal, e.Left.Type)
	trueBlk, falseBlk, mergeBlk := b.newBlock(), b.newBlock(), b.newBlock()
	cfg.MakeCondBranch(b.fn, startBlk, boolVal, trueBlk, falseBlk)
	b.sealBlock(trueBlk)
	b.sealBlock(falseBlk)

	b.setBlock(trueBlk)
	trueVal, err := b.buildExpr(e.List[0])
	if err != nil {
		return nil, err
	}
	trueEnd := b.block
	cfg.MakeBranch(b.fn, trueEnd, mergeBlk)

	b.setBlock(falseBlk)
	falseVal, err := b.buildExpr(e.List[1])
	if err != nil {
		return nil, err
	}
	falseEnd := b.block
	cfg.MakeBranch(b.fn, falseEnd, mergeBlk)
	b.sealBlock(mergeBlk)

	b.setBlock(mergeBlk)
	return b.rawPhi(mergeBlk, e.Type, []ir.PhiEntry{
		{Pred: trueEnd, Value: trueVal},
		{Pred: falseEnd, Value: falseVal},
	}), nil
}

// rawPhi installs a phi with explicit entries at the head of block, for
// merge points (&&/||/?:) that do not correspond to a named source
// variable and so never go through the incomplete-SSA worklist.
func (b *Builder) rawPhi(block *ir.Block, t *types.Type, entries []ir.PhiEntry) *ir.Op {
	phi := b.fn.NewOp(ir.OpPhi, t)
	phi.Phi = entries
	if len(block.Stmts) == 0 {
		block.NewStmt()
	}
	block.Stmts[0].Prepend(phi)
	return phi
}

func (b *Builder) buildIncDec(e *ast.Node) (*ir.Op, error) {
	target, err := b.buildAssignTarget(e.Left)
	if err != nil {
		return nil, err
	}
	old, err := b.loadTarget(target)
	if err != nil {
		return nil, err
	}
	delta := int64(1)
	if e.Op == ast.OPREDEC || e.Op == ast.OPOSTDEC {
		delta = -1
	}
	var newVal *ir.Op
	if isPointer(e.Left.Type) {
		elemSize := types.SizeOf(e.Left.Type.Elem, b.td)
		off := b.fn.NewOp(ir.OpAddrOffset, e.Left.Type)
		idxConst := b.fn.NewOp(ir.OpConstInt, types.I64Type)
		idxConst.ConstInt = delta
		b.block.CurrentStmt().Append(idxConst)
		off.Base, off.Index, off.Scale = old, idxConst, elemSize
		b.block.CurrentStmt().Append(off)
		newVal = off
	} else {
		bop := ir.BinAddI
		if e.Left.Type.Kind == types.KindPrimitive && e.Left.Type.Prim.IsFloat() {
			bop = ir.BinAddF
		}
		var deltaOp *ir.Op
		if bop == ir.BinAddF {
			deltaOp = b.fn.NewOp(ir.OpConstFloat, e.Left.Type)
			deltaOp.ConstFloat = float64(delta)
		} else {
			deltaOp = b.fn.NewOp(ir.OpConstInt, e.Left.Type)
			deltaOp.ConstInt = delta
		}
		b.block.CurrentStmt().Append(deltaOp)
		add := b.fn.NewOp(ir.OpBinary, e.Left.Type)
		add.BinOp, add.X, add.Y = bop, old, deltaOp
		b.block.CurrentStmt().Append(add)
		newVal = add
	}
	if err := b.storeTarget(target, newVal); err != nil {
		return nil, err
	}
	if e.Op == ast.OPREINC || e.Op == ast.OPREDEC {
		return newVal, nil
	}
	return old, nil
}
