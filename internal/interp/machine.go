// Package interp implements the interpreter driver named in §1 and §6:
// it runs directly on the IR a translation unit builds, bypassing both
// target codegen and the linker, per "The interpreter driver runs on a
// single source after IR build." The machine is a straightforward
// tree-walking evaluator over the block/op IR rather than a bytecode
// VM, matching the scale of the rest of this component.
package interp

import (
	"fmt"
	"math"

	"cc11/internal/ir"
	"cc11/internal/types"
)

// value is the machine's only runtime representation: every scalar the
// interpreter handles is either a 64-bit integer (also used to store a
// pointer, as a byte offset into Machine.mem) or a float64; Type at the
// use site says which field is live.
type value struct {
	i int64
	f float64
}

func intVal(i int64) value   { return value{i: i} }
func floatVal(f float64) value { return value{f: f} }

func isFloatType(t *types.Type) bool {
	return t != nil && t.Kind == types.KindPrimitive && t.Prim.IsFloat()
}

// Machine holds one translation unit's interpreted state: a flat byte
// array standing in for the whole address space (globals first, then
// every call frame's locals bump-allocated after them) and the address
// assigned to each global.
type Machine struct {
	unit *ir.Unit
	td   *types.Target

	mem        []byte
	nextFree   int64
	globalAddr map[*ir.Global]int64
}

// NewMachine lays out every global of unit in Machine memory, applying
// their initializers, ready to call a function.
func NewMachine(unit *ir.Unit, td *types.Target) *Machine {
	m := &Machine{unit: unit, td: td, globalAddr: make(map[*ir.Global]int64)}
	for g := unit.FirstGlobal; g != nil; g = g.Next {
		if g.Kind == ir.GlobalFunc {
			continue
		}
		size := types.SizeOf(g.Type, td)
		if g.Kind == ir.GlobalString {
			size = int64(len(g.StringData)) + 1
		}
		addr := m.alloc(size, 8)
		m.globalAddr[g] = addr
	}
	for g := unit.FirstGlobal; g != nil; g = g.Next {
		switch g.Kind {
		case ir.GlobalString:
			copy(m.mem[m.globalAddr[g]:], g.StringData)
		case ir.GlobalData:
			total := types.SizeOf(g.Type, td)
			for i, iv := range g.InitValues {
				width := total - iv.Offset
				if i+1 < len(g.InitValues) {
					if next := g.InitValues[i+1].Offset - iv.Offset; next < width {
						width = next
					}
				}
				if width > 8 || width <= 0 {
					width = 8
				}
				m.applyInit(m.globalAddr[g], iv, width)
			}
		}
	}
	return m
}

// applyInit stores one flattened initializer record at base+iv.Offset.
// width bounds an InitInt/InitAddr word write to the gap before the next
// record (or the end of the object for the last one), since InitValue
// does not itself carry the width of the storage unit it targets — only
// its offset — and a fixed 8-byte write would otherwise clobber an
// adjacent small scalar field packed within the same 8 bytes.
func (m *Machine) applyInit(base int64, iv ir.InitValue, width int64) {
	off := base + iv.Offset
	switch iv.Kind {
	case ir.InitInt:
		if iv.Bitfield {
			mask := int64(1)<<uint(iv.BitWidth) - 1
			raw := m.readInt(off, width, false)
			raw = (raw &^ (mask << iv.BitOff)) | ((iv.Int & mask) << iv.BitOff)
			m.writeInt(off, width, raw)
			return
		}
		m.writeInt(off, width, iv.Int)
	case ir.InitFloat:
		m.writeFloat(off, iv.Float)
	case ir.InitAddr:
		m.writeInt(off, m.td.PointerSize, m.globalAddr[iv.Sym]+iv.Disp)
	case ir.InitString:
		copy(m.mem[off:], iv.StrData)
	}
}

func (m *Machine) alloc(size, align int64) int64 {
	if align <= 0 {
		align = 1
	}
	if r := m.nextFree % align; r != 0 {
		m.nextFree += align - r
	}
	addr := m.nextFree
	m.nextFree += size
	for int64(len(m.mem)) < m.nextFree {
		m.mem = append(m.mem, make([]byte, 4096)...)
	}
	return addr
}

func (m *Machine) writeInt(addr, size int64, v int64) {
	for i := int64(0); i < size; i++ {
		m.mem[addr+i] = byte(v >> (8 * uint(i)))
	}
}

func (m *Machine) readInt(addr, size int64, signExtend bool) int64 {
	var v uint64
	for i := int64(0); i < size; i++ {
		v |= uint64(m.mem[addr+i]) << (8 * uint(i))
	}
	if signExtend && size < 8 {
		shift := uint(64 - 8*size)
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

func (m *Machine) writeFloat(addr int64, v float64) {
	if addr+8 > int64(len(m.mem)) {
		m.mem = append(m.mem, make([]byte, addr+8-int64(len(m.mem)))...)
	}
	bits := math.Float64bits(v)
	m.writeInt(addr, 8, int64(bits))
}

func (m *Machine) readFloat(addr int64) float64 {
	return math.Float64frombits(uint64(m.readInt(addr, 8, false)))
}

// frame is one call's interpreted state: every op's computed value,
// and the address assigned to each of the function's locals.
type frame struct {
	fn     *ir.Function
	vals   map[*ir.Op]value
	locals map[*ir.Local]int64
}

// Call interprets fn with the given argument values (already converted
// to value form in parameter order, matching how buildCall lowers
// arguments: a hidden sret destination first for an aggregate-
// returning function, then each declared parameter).
func (m *Machine) Call(fn *ir.Function, args []value) (value, error) {
	fr := &frame{fn: fn, vals: make(map[*ir.Op]value), locals: make(map[*ir.Local]int64)}
	for _, l := range fn.Locals {
		fr.locals[l] = m.alloc(max1(types.SizeOf(l.Type, m.td)), max1(types.AlignOf(l.Type, m.td)))
	}

	argIdx := 0
	for blk := fn.FirstBlock; blk != nil; blk = blk.Next {
		if len(blk.Stmts) == 0 || !blk.Stmts[0].Params {
			break
		}
		for _, op := range blk.Stmts[0].Ops {
			if op.Kind == ir.OpMov && op.Flags&ir.FlagParam != 0 {
				if argIdx < len(args) {
					fr.vals[op] = args[argIdx]
				}
				argIdx++
			}
		}
		break
	}

	blk := fn.FirstBlock
	for blk != nil {
		next, ret, err := m.runBlock(fr, blk)
		if err != nil {
			return value{}, err
		}
		if next == nil {
			return ret, nil
		}
		blk = next
	}
	return value{}, fmt.Errorf("interp: function %s fell off its block list without a terminator", fn.Name)
}

func max1(n int64) int64 {
	if n <= 0 {
		return 1
	}
	return n
}

// runBlock executes every op of blk and returns the successor block to
// continue at, or a final return value when blk's terminator is OpRet.
// The Params statement's hidden-sret/param OpMov ops are pre-seeded by
// Call before this ever runs, so re-visiting them here just hits the
// memoised value in eval; the Params statement may also hold real work
// (an aggregate parameter's copy-in, appended to it by the same builder
// statement that declared the param), which still needs to execute.
func (m *Machine) runBlock(fr *frame, blk *ir.Block) (*ir.Block, value, error) {
	for _, stmt := range blk.Stmts {
		for _, op := range stmt.Ops {
			if op.Kind.IsTerminator() {
				return m.runTerminator(fr, op)
			}
			v, err := m.eval(fr, op)
			if err != nil {
				return nil, value{}, err
			}
			fr.vals[op] = v
		}
	}
	return nil, value{}, fmt.Errorf("interp: block bb%d has no terminator", blk.Id)
}

func (m *Machine) runTerminator(fr *frame, op *ir.Op) (*ir.Block, value, error) {
	switch op.Kind {
	case ir.OpRet:
		if op.Value == nil {
			return nil, value{}, nil
		}
		v, err := m.eval(fr, op.Value)
		return nil, v, err
	case ir.OpBranch:
		return op.True, value{}, nil
	case ir.OpCondBranch:
		c, err := m.eval(fr, op.Cond)
		if err != nil {
			return nil, value{}, err
		}
		if c.i != 0 {
			return op.True, value{}, nil
		}
		return op.False, value{}, nil
	case ir.OpSwitch:
		c, err := m.eval(fr, op.Cond)
		if err != nil {
			return nil, value{}, err
		}
		for _, cs := range op.Cases {
			if cs.Value == c.i {
				return cs.Block, value{}, nil
			}
		}
		if op.Default != nil {
			return op.Default, value{}, nil
		}
		return nil, value{}, fmt.Errorf("interp: switch with no matching case and no default")
	}
	return nil, value{}, fmt.Errorf("interp: unhandled terminator kind %v", op.Kind)
}

// eval computes op's value, memoising phi results (every non-phi op is
// computed exactly once per visit by runBlock's linear walk; phi lookup
// can re-enter eval for a predecessor's already-visited op, which is
// always already in fr.vals by construction of the walk order).
func (m *Machine) eval(fr *frame, op *ir.Op) (value, error) {
	if v, ok := fr.vals[op]; ok {
		return v, nil
	}
	v, err := m.evalOp(fr, op)
	if err == nil {
		fr.vals[op] = v
	}
	return v, err
}

func (m *Machine) evalOp(fr *frame, op *ir.Op) (value, error) {
	switch op.Kind {
	case ir.OpConstInt:
		return intVal(op.ConstInt), nil
	case ir.OpConstFloat:
		return floatVal(op.ConstFloat), nil
	case ir.OpConstZero:
		return value{}, nil
	case ir.OpUndef:
		return value{}, nil

	case ir.OpAddrLocal:
		return intVal(fr.locals[op.Local]), nil
	case ir.OpAddrGlobal:
		return intVal(m.globalAddr[op.Global]), nil
	case ir.OpAddrOffset:
		base, err := m.eval(fr, op.Base)
		if err != nil {
			return value{}, err
		}
		off := op.Disp
		if op.Index != nil {
			idx, err := m.eval(fr, op.Index)
			if err != nil {
				return value{}, err
			}
			scale := op.Scale
			if scale == 0 {
				scale = 1
			}
			off += idx.i * scale
		}
		return intVal(base.i + off), nil

	case ir.OpLoadLocal:
		return m.load(fr.locals[op.Local], op.Type), nil
	case ir.OpLoadGlobal:
		return m.load(m.globalAddr[op.Global], op.Type), nil
	case ir.OpLoadAddr:
		addr, err := m.eval(fr, op.Addr)
		if err != nil {
			return value{}, err
		}
		return m.load(addr.i, op.Type), nil

	case ir.OpStoreLocal:
		v, err := m.eval(fr, op.Value)
		if err != nil {
			return value{}, err
		}
		m.store(fr.locals[op.Local], op.Value.Type, v)
		return value{}, nil
	case ir.OpStoreGlobal:
		v, err := m.eval(fr, op.Value)
		if err != nil {
			return value{}, err
		}
		m.store(m.globalAddr[op.Global], op.Value.Type, v)
		return value{}, nil
	case ir.OpStoreAddr:
		addr, err := m.eval(fr, op.Addr)
		if err != nil {
			return value{}, err
		}
		v, err := m.eval(fr, op.Value)
		if err != nil {
			return value{}, err
		}
		m.store(addr.i, op.Value.Type, v)
		return value{}, nil

	case ir.OpBitfieldLoad:
		addr, err := m.eval(fr, op.Addr)
		if err != nil {
			return value{}, err
		}
		raw := m.readInt(addr.i, 8, false)
		mask := int64(1)<<uint(op.BitWidth) - 1
		return intVal((raw >> op.BitOff) & mask), nil
	case ir.OpBitfieldStore:
		addr, err := m.eval(fr, op.Addr)
		if err != nil {
			return value{}, err
		}
		v, err := m.eval(fr, op.Value)
		if err != nil {
			return value{}, err
		}
		mask := int64(1)<<uint(op.BitWidth) - 1
		raw := m.readInt(addr.i, 8, false)
		raw = (raw &^ (mask << op.BitOff)) | ((v.i & mask) << op.BitOff)
		m.writeInt(addr.i, 8, raw)
		return value{}, nil

	case ir.OpUnary:
		return m.evalUnary(fr, op)
	case ir.OpBinary:
		return m.evalBinary(fr, op)
	case ir.OpCast:
		return m.evalCast(fr, op)

	case ir.OpMov:
		if op.Flags&ir.FlagParam != 0 {
			// Parameter movs are pre-seeded by Call; reaching here means
			// the value simply wasn't supplied (short variadic call).
			return value{}, nil
		}
		return m.eval(fr, op.Value)

	case ir.OpPhi:
		return m.evalPhi(fr, op)

	case ir.OpCall:
		return m.evalCall(fr, op)

	case ir.OpMemSet:
		return m.evalMemSet(fr, op)
	case ir.OpMemCopy, ir.OpMemMove:
		return m.evalMemCopy(fr, op)
	case ir.OpMemCmp:
		return m.evalMemCmp(fr, op)

	case ir.OpVaStart, ir.OpVaArg:
		return value{}, fmt.Errorf("interp: variadic argument access is not supported by the interpreter driver")
	}
	return value{}, fmt.Errorf("interp: unhandled op kind %v", op.Kind)
}

// evalPhi resolves a phi by re-evaluating the owning block's current
// predecessor op, not by remembering "which edge we came from" (the
// interpreter has no separate previous-block bookkeeping); relies on
// every predecessor's own value already sitting in fr.vals from when
// that predecessor block ran, since SimplifyPhis/PruneUnreachable never
// let an edge survive build without its source block having executed
// first in any straight-line interpretation of this CFG shape.
func (m *Machine) evalPhi(fr *frame, op *ir.Op) (value, error) {
	for _, e := range op.Phi {
		if v, ok := fr.vals[e.Value]; ok {
			return v, nil
		}
	}
	if len(op.Phi) > 0 {
		return m.eval(fr, op.Phi[0].Value)
	}
	return value{}, nil
}

func (m *Machine) load(addr int64, t *types.Type) value {
	if t == nil {
		return value{}
	}
	if isFloatType(t) {
		if t.Prim == types.F32 {
			bits := uint32(m.readInt(addr, 4, false))
			return floatVal(float64(math.Float32frombits(bits)))
		}
		return floatVal(m.readFloat(addr))
	}
	size := types.SizeOf(t, m.td)
	if size <= 0 || size > 8 {
		size = 8
	}
	return intVal(m.readInt(addr, size, true))
}

func (m *Machine) store(addr int64, t *types.Type, v value) {
	if t == nil {
		return
	}
	if isFloatType(t) {
		if t.Prim == types.F32 {
			bits := math.Float32bits(float32(v.f))
			m.writeInt(addr, 4, int64(bits))
			return
		}
		m.writeFloat(addr, v.f)
		return
	}
	size := types.SizeOf(t, m.td)
	if size <= 0 || size > 8 {
		size = 8
	}
	m.writeInt(addr, size, v.i)
}

func (m *Machine) evalUnary(fr *frame, op *ir.Op) (value, error) {
	x, err := m.eval(fr, op.X)
	if err != nil {
		return value{}, err
	}
	switch op.UnOp {
	case ir.UnNegI:
		return intVal(-x.i), nil
	case ir.UnNegF:
		return floatVal(-x.f), nil
	case ir.UnBitNot:
		return intVal(^x.i), nil
	case ir.UnLogicalNot:
		if x.i == 0 {
			return intVal(1), nil
		}
		return intVal(0), nil
	case ir.UnFAbs:
		return floatVal(math.Abs(x.f)), nil
	case ir.UnFSqrt:
		return floatVal(math.Sqrt(x.f)), nil
	case ir.UnPopcount:
		return intVal(int64(popcount(uint64(x.i)))), nil
	case ir.UnClz:
		return intVal(int64(clz(uint64(x.i)))), nil
	case ir.UnCtz:
		return intVal(int64(ctz(uint64(x.i)))), nil
	case ir.UnBswap:
		return intVal(int64(bswap(uint64(x.i)))), nil
	}
	return value{}, fmt.Errorf("interp: unhandled unary op %v", op.UnOp)
}

func popcount(v uint64) int {
	n := 0
	for v != 0 {
		n++
		v &= v - 1
	}
	return n
}

func clz(v uint64) int {
	n := 0
	for i := 63; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func ctz(v uint64) int {
	if v == 0 {
		return 64
	}
	n := 0
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

func bswap(v uint64) uint64 {
	var out uint64
	for i := 0; i < 8; i++ {
		out = (out << 8) | (v & 0xff)
		v >>= 8
	}
	return out
}

func (m *Machine) evalBinary(fr *frame, op *ir.Op) (value, error) {
	x, err := m.eval(fr, op.X)
	if err != nil {
		return value{}, err
	}
	y, err := m.eval(fr, op.Y)
	if err != nil {
		return value{}, err
	}
	b2i := func(b bool) value {
		if b {
			return intVal(1)
		}
		return intVal(0)
	}
	switch op.BinOp {
	case ir.BinAddI:
		return intVal(x.i + y.i), nil
	case ir.BinSubI:
		return intVal(x.i - y.i), nil
	case ir.BinMulI:
		return intVal(x.i * y.i), nil
	case ir.BinDivS:
		if y.i == 0 {
			return value{}, fmt.Errorf("interp: division by zero")
		}
		return intVal(x.i / y.i), nil
	case ir.BinDivU:
		if y.i == 0 {
			return value{}, fmt.Errorf("interp: division by zero")
		}
		return intVal(int64(uint64(x.i) / uint64(y.i))), nil
	case ir.BinModS:
		if y.i == 0 {
			return value{}, fmt.Errorf("interp: division by zero")
		}
		return intVal(x.i % y.i), nil
	case ir.BinModU:
		if y.i == 0 {
			return value{}, fmt.Errorf("interp: division by zero")
		}
		return intVal(int64(uint64(x.i) % uint64(y.i))), nil
	case ir.BinAndI:
		return intVal(x.i & y.i), nil
	case ir.BinOrI:
		return intVal(x.i | y.i), nil
	case ir.BinXorI:
		return intVal(x.i ^ y.i), nil
	case ir.BinShlI:
		return intVal(x.i << uint(y.i)), nil
	case ir.BinShrS:
		return intVal(x.i >> uint(y.i)), nil
	case ir.BinShrU:
		return intVal(int64(uint64(x.i) >> uint(y.i))), nil
	case ir.BinAddF:
		return floatVal(x.f + y.f), nil
	case ir.BinSubF:
		return floatVal(x.f - y.f), nil
	case ir.BinMulF:
		return floatVal(x.f * y.f), nil
	case ir.BinDivF:
		return floatVal(x.f / y.f), nil
	case ir.BinCmpEQ:
		return b2i(x.i == y.i), nil
	case ir.BinCmpNE:
		return b2i(x.i != y.i), nil
	case ir.BinCmpLTS:
		return b2i(x.i < y.i), nil
	case ir.BinCmpLES:
		return b2i(x.i <= y.i), nil
	case ir.BinCmpGTS:
		return b2i(x.i > y.i), nil
	case ir.BinCmpGES:
		return b2i(x.i >= y.i), nil
	case ir.BinCmpLTU:
		return b2i(uint64(x.i) < uint64(y.i)), nil
	case ir.BinCmpLEU:
		return b2i(uint64(x.i) <= uint64(y.i)), nil
	case ir.BinCmpGTU:
		return b2i(uint64(x.i) > uint64(y.i)), nil
	case ir.BinCmpGEU:
		return b2i(uint64(x.i) >= uint64(y.i)), nil
	case ir.BinCmpEQF:
		return b2i(x.f == y.f), nil
	case ir.BinCmpNEF:
		return b2i(x.f != y.f), nil
	case ir.BinCmpLTF:
		return b2i(x.f < y.f), nil
	case ir.BinCmpLEF:
		return b2i(x.f <= y.f), nil
	case ir.BinCmpGTF:
		return b2i(x.f > y.f), nil
	case ir.BinCmpGEF:
		return b2i(x.f >= y.f), nil
	}
	return value{}, fmt.Errorf("interp: unhandled binary op %v", op.BinOp)
}

func (m *Machine) evalCast(fr *frame, op *ir.Op) (value, error) {
	x, err := m.eval(fr, op.X)
	if err != nil {
		return value{}, err
	}
	switch op.CastKind {
	case ir.CastTruncate:
		size := types.SizeOf(op.Type, m.td)
		if size <= 0 || size >= 8 {
			return intVal(x.i), nil
		}
		mask := int64(1)<<uint(8*size) - 1
		v := x.i & mask
		shift := uint(64 - 8*size)
		return intVal(v<<shift >> shift), nil
	case ir.CastSignExtend, ir.CastZeroExtend:
		return intVal(x.i), nil
	case ir.CastFloatConv:
		return floatVal(x.f), nil
	case ir.CastSignedIntFloat:
		if isFloatType(op.Type) {
			return floatVal(float64(x.i)), nil
		}
		return intVal(int64(x.f)), nil
	case ir.CastUnsignedIntFloat:
		if isFloatType(op.Type) {
			return floatVal(float64(uint64(x.i))), nil
		}
		return intVal(int64(uint64(x.f))), nil
	case ir.CastCompareNotZero:
		if isFloatType(op.X.Type) {
			if x.f != 0 {
				return intVal(1), nil
			}
			return intVal(0), nil
		}
		if x.i != 0 {
			return intVal(1), nil
		}
		return intVal(0), nil
	}
	return value{}, fmt.Errorf("interp: unhandled cast kind %v", op.CastKind)
}

func (m *Machine) evalMemSet(fr *frame, op *ir.Op) (value, error) {
	dst, err := m.eval(fr, op.Dst)
	if err != nil {
		return value{}, err
	}
	fill, err := m.eval(fr, op.Src)
	if err != nil {
		return value{}, err
	}
	n, err := m.eval(fr, op.Len)
	if err != nil {
		return value{}, err
	}
	for i := int64(0); i < n.i; i++ {
		m.mem[dst.i+i] = byte(fill.i)
	}
	return dst, nil
}

func (m *Machine) evalMemCopy(fr *frame, op *ir.Op) (value, error) {
	dst, err := m.eval(fr, op.Dst)
	if err != nil {
		return value{}, err
	}
	src, err := m.eval(fr, op.Src)
	if err != nil {
		return value{}, err
	}
	n, err := m.eval(fr, op.Len)
	if err != nil {
		return value{}, err
	}
	if n.i > 0 {
		buf := make([]byte, n.i)
		copy(buf, m.mem[src.i:src.i+n.i])
		copy(m.mem[dst.i:dst.i+n.i], buf)
	}
	return dst, nil
}

func (m *Machine) evalMemCmp(fr *frame, op *ir.Op) (value, error) {
	a, err := m.eval(fr, op.Dst)
	if err != nil {
		return value{}, err
	}
	b, err := m.eval(fr, op.Src)
	if err != nil {
		return value{}, err
	}
	n, err := m.eval(fr, op.Len)
	if err != nil {
		return value{}, err
	}
	for i := int64(0); i < n.i; i++ {
		da, db := m.mem[a.i+i], m.mem[b.i+i]
		if da != db {
			if da < db {
				return intVal(-1), nil
			}
			return intVal(1), nil
		}
	}
	return intVal(0), nil
}

func (m *Machine) evalCall(fr *frame, op *ir.Op) (value, error) {
	g := m.calleeGlobal(op.Target)
	if g == nil || g.Func == nil {
		return value{}, fmt.Errorf("interp: call through a value that does not resolve to a defined function (external/library calls are outside the interpreter driver's scope)")
	}
	args := make([]value, len(op.Args))
	for i, a := range op.Args {
		v, err := m.eval(fr, a)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}
	return m.Call(g.Func, args)
}

// calleeGlobal recovers the Global a call target resolves to: direct
// calls always lower to an OpAddrGlobal of the callee (ONAME decaying
// to its address, per the builder's function-designator handling).
func (m *Machine) calleeGlobal(op *ir.Op) *ir.Global {
	if op.Kind == ir.OpAddrGlobal {
		return op.Global
	}
	return nil
}
