package build

import (
	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/types"
	"cc11/internal/varref"
)

// lvKind discriminates how an lvalue's storage is reached.
type lvKind uint8

const (
	lvLocal  lvKind = iota // scalar local slot, addressed by *ir.Local
	lvGlobal               // global symbol
	lvAddr                 // a computed pointer value (member/index/deref)
)

// lvalue is an addressable expression result: the builder computes one
// of these for every assignment target, `&` operand, and compound-
// assignment/increment operand.
type lvalue struct {
	kind lvKind
	t    *types.Type

	local  *ir.Local
	global *ir.Global
	addr   *ir.Op // lvKind == lvAddr

	bitfield bool
	bitWidth uint8
	bitOff   uint8
}

// resolveRead reads v's current value as seen from b.block: a local or
// global load, a live SSA value, or (if neither exists yet for this
// block) a freshly constructed phi.
func (b *Builder) resolveRead(v varref.Var) (*ir.Op, error) {
	if ref, ok := b.vars.GetRef(v, b.block); ok {
		switch ref.Kind {
		case varref.KindLocal:
			return b.loadLValue(lvalue{kind: lvLocal, local: ref.Local, t: ref.Local.Type})
		case varref.KindGlobal:
			return b.loadLValue(lvalue{kind: lvGlobal, global: ref.Global, t: ref.Global.Type})
		case varref.KindSSA:
			return ref.Op, nil
		}
	}
	return b.readVariable(v, b.block), nil
}

// resolveWrite stores val as v's new value in b.block, choosing the
// storage form matching v's current reference kind.
func (b *Builder) resolveWrite(v varref.Var, val *ir.Op) error {
	if ref, ok := b.vars.GetRef(v, b.block); ok {
		switch ref.Kind {
		case varref.KindLocal:
			return b.storeLValue(lvalue{kind: lvLocal, local: ref.Local, t: ref.Local.Type}, val)
		case varref.KindGlobal:
			return b.storeLValue(lvalue{kind: lvGlobal, global: ref.Global, t: ref.Global.Type}, val)
		}
	}
	b.writeVariable(v, b.block, val)
	return nil
}

// resolveAddr computes and returns the address of v, promoting it from
// a pure SSA value to an addressable local slot the first time its
// address is taken, per §4.E "used when `&var` is taken": the table's
// existing SSA value (if any) is stored into the new local before the
// table's references for v are rewritten.
func (b *Builder) resolveAddr(v varref.Var) (*ir.Op, error) {
	ref, ok := b.vars.GetRef(v, b.block)
	if ok {
		switch ref.Kind {
		case varref.KindLocal:
			op := b.fn.NewOp(ir.OpAddrLocal, types.PointerTo(ref.Local.Type))
			op.Local = ref.Local
			b.block.CurrentStmt().Append(op)
			return op, nil
		case varref.KindGlobal:
			op := b.fn.NewOp(ir.OpAddrGlobal, types.PointerTo(ref.Global.Type))
			op.Global = ref.Global
			b.block.CurrentStmt().Append(op)
			return op, nil
		}
	}

	t := b.declType[v]
	if t == nil {
		return nil, b.err("build: address taken of undeclared variable %q", v.Name)
	}
	local := b.fn.NewLocal(t, 0)
	if ok && ref.Kind == varref.KindSSA {
		if err := b.storeLValue(lvalue{kind: lvLocal, local: local, t: t}, ref.Op); err != nil {
			return nil, err
		}
	} else if !ok {
		// Address taken before any write reached this block: read
		// (possibly synthesising a phi/undef) and seed the local so the
		// promoted storage starts from the same value an SSA read
		// would have produced.
		cur := b.readVariable(v, b.block)
		if err := b.storeLValue(lvalue{kind: lvLocal, local: local, t: t}, cur); err != nil {
			return nil, err
		}
	}
	b.vars.PromoteToLocal(v, local)

	op := b.fn.NewOp(ir.OpAddrLocal, types.PointerTo(t))
	op.Local = local
	b.block.CurrentStmt().Append(op)
	return op, nil
}

// buildLValue computes the lvalue addressed by e (ODEREF, OMEMBER,
// OINDEX, or a parenthesised/comma wrapper around one of those).
func (b *Builder) buildLValue(e *ast.Node) (lvalue, error) {
	switch e.Op {
	case ast.ONAME:
		v := b.resolveVar(e.Sym)
		addr, err := b.resolveAddr(v)
		if err != nil {
			return lvalue{}, err
		}
		return lvalue{kind: lvAddr, t: e.Type, addr: addr}, nil

	case ast.ODEREF:
		ptr, err := b.buildExpr(e.Left)
		if err != nil {
			return lvalue{}, err
		}
		return lvalue{kind: lvAddr, t: e.Type, addr: ptr}, nil

	case ast.OMEMBER:
		base, err := b.memberBase(e)
		if err != nil {
			return lvalue{}, err
		}
		f := e.Field
		addr := base
		if f.Offset != 0 {
			off := b.fn.NewOp(ir.OpAddrOffset, types.PointerTo(e.Type))
			off.Base = base
			off.Disp = f.Offset
			b.block.CurrentStmt().Append(off)
			addr = off
		}
		return lvalue{
			kind: lvAddr, t: e.Type, addr: addr,
			bitfield: f.Bitfield, bitWidth: f.BitWidth, bitOff: f.BitOff,
		}, nil

	case ast.OINDEX:
		base, elemType, err := b.indexBase(e)
		if err != nil {
			return lvalue{}, err
		}
		idx, err := b.buildExpr(e.Right)
		if err != nil {
			return lvalue{}, err
		}
		scale := types.SizeOf(elemType, b.td)
		off := b.fn.NewOp(ir.OpAddrOffset, types.PointerTo(elemType))
		off.Base = base
		off.Index = idx
		off.Scale = scale
		b.block.CurrentStmt().Append(off)
		return lvalue{kind: lvAddr, t: elemType, addr: off}, nil

	case ast.OCOMMA:
		if _, err := b.buildExpr(e.Left); err != nil {
			return lvalue{}, err
		}
		return b.buildLValue(e.Right)
	}
	return lvalue{}, b.err("build: expression of kind %v is not an lvalue", e.Op)
}

// memberBase returns the base address `.`/`->` addresses into:
// e.Left's own address for `.`, or e.Left's pointer value for `->`.
func (b *Builder) memberBase(e *ast.Node) (*ir.Op, error) {
	if e.Indirect {
		return b.buildExpr(e.Left)
	}
	lv, err := b.buildLValue(e.Left)
	if err != nil {
		return nil, err
	}
	return b.addrOfLValue(lv)
}

// indexBase returns the base address `[ ]` indexes into, and the
// element type. An array-typed operand decays to its own address; a
// pointer-typed operand is loaded as an ordinary rvalue.
func (b *Builder) indexBase(e *ast.Node) (*ir.Op, *types.Type, error) {
	left := e.Left
	if left.Type.Kind == types.KindArray {
		lv, err := b.buildLValue(left)
		if err != nil {
			return nil, nil, err
		}
		addr, err := b.addrOfLValue(lv)
		return addr, left.Type.Elem, err
	}
	val, err := b.buildExpr(left)
	return val, left.Type.Elem, err
}

// addrOfLValue returns lv's address as a pointer-valued Op, materialising
// an OpAddrLocal/OpAddrGlobal for the local/global forms.
func (b *Builder) addrOfLValue(lv lvalue) (*ir.Op, error) {
	switch lv.kind {
	case lvLocal:
		op := b.fn.NewOp(ir.OpAddrLocal, types.PointerTo(lv.t))
		op.Local = lv.local
		b.block.CurrentStmt().Append(op)
		return op, nil
	case lvGlobal:
		op := b.fn.NewOp(ir.OpAddrGlobal, types.PointerTo(lv.t))
		op.Global = lv.global
		b.block.CurrentStmt().Append(op)
		return op, nil
	case lvAddr:
		return lv.addr, nil
	}
	return nil, b.err("build: unaddressable lvalue")
}

func (b *Builder) loadLValue(lv lvalue) (*ir.Op, error) {
	switch lv.kind {
	case lvLocal:
		op := b.fn.NewOp(ir.OpLoadLocal, lv.t)
		op.Local = lv.local
		b.block.CurrentStmt().Append(op)
		return op, nil
	case lvGlobal:
		op := b.fn.NewOp(ir.OpLoadGlobal, lv.t)
		op.Global = lv.global
		b.block.CurrentStmt().Append(op)
		return op, nil
	case lvAddr:
		if lv.bitfield {
			op := b.fn.NewOp(ir.OpBitfieldLoad, lv.t)
			op.Addr = lv.addr
			op.BitWidth, op.BitOff = lv.bitWidth, lv.bitOff
			b.block.CurrentStmt().Append(op)
			return op, nil
		}
		op := b.fn.NewOp(ir.OpLoadAddr, lv.t)
		op.Addr = lv.addr
		b.block.CurrentStmt().Append(op)
		return op, nil
	}
	return nil, b.err("build: unreadable lvalue")
}

func (b *Builder) storeLValue(lv lvalue, val *ir.Op) error {
	switch lv.kind {
	case lvLocal:
		op := b.fn.NewOp(ir.OpStoreLocal, types.Void)
		op.Local, op.Value = lv.local, val
		b.block.CurrentStmt().Append(op)
		return nil
	case lvGlobal:
		op := b.fn.NewOp(ir.OpStoreGlobal, types.Void)
		op.Global, op.Value = lv.global, val
		b.block.CurrentStmt().Append(op)
		return nil
	case lvAddr:
		if lv.bitfield {
			op := b.fn.NewOp(ir.OpBitfieldStore, types.Void)
			op.Addr, op.Value = lv.addr, val
			op.BitWidth, op.BitOff = lv.bitWidth, lv.bitOff
			b.block.CurrentStmt().Append(op)
			return nil
		}
		op := b.fn.NewOp(ir.OpStoreAddr, types.Void)
		op.Addr, op.Value = lv.addr, val
		b.block.CurrentStmt().Append(op)
		return nil
	}
	return b.err("build: unwritable lvalue")
}
