package interp

import (
	"testing"

	"cc11/internal/ir"
	"cc11/internal/ir/cfg"
	"cc11/internal/types"
)

// buildAddFunc builds `int add(int a, int b) { return a + b; }` directly
// in IR, mirroring how the builder materialises scalar parameters as
// Params-statement OpMov ops (§4.E) feeding straight-line arithmetic.
func buildAddFunc() *ir.Function {
	fn := ir.NewFunction("add", []*types.Type{types.I32Type, types.I32Type}, types.I32Type)
	entry := fn.NewBlock()

	pa := fn.NewOp(ir.OpMov, types.I32Type)
	pa.Flags |= ir.FlagParam
	pb := fn.NewOp(ir.OpMov, types.I32Type)
	pb.Flags |= ir.FlagParam
	stmt := entry.CurrentStmt()
	stmt.Params = true
	stmt.Append(pa)
	stmt.Append(pb)

	sum := fn.NewOp(ir.OpBinary, types.I32Type)
	sum.BinOp = ir.BinAddI
	sum.X, sum.Y = pa, pb
	entry.CurrentStmt().Append(sum)

	cfg.MakeReturn(fn, entry, sum)
	return fn
}

func TestMachineCallAddsTwoParams(t *testing.T) {
	fn := buildAddFunc()
	unit := ir.NewUnit(types.X8664Linux)
	m := NewMachine(unit, types.X8664Linux)

	ret, err := m.Call(fn, []value{intVal(3), intVal(4)})
	if err != nil {
		t.Fatal(err)
	}
	if ret.i != 7 {
		t.Fatalf("add(3, 4) = %d, want 7", ret.i)
	}
}

// buildMaxFunc builds `int max(int a, int b) { if (a > b) return a; return
// b; }` via a cond branch into two blocks that join with a phi, so both
// the runTerminator cond-branch path and evalPhi get exercised.
func buildMaxFunc() *ir.Function {
	fn := ir.NewFunction("max", []*types.Type{types.I32Type, types.I32Type}, types.I32Type)
	entry := fn.NewBlock()
	onA := fn.NewBlock()
	onB := fn.NewBlock()
	join := fn.NewBlock()

	pa := fn.NewOp(ir.OpMov, types.I32Type)
	pa.Flags |= ir.FlagParam
	pb := fn.NewOp(ir.OpMov, types.I32Type)
	pb.Flags |= ir.FlagParam
	stmt := entry.CurrentStmt()
	stmt.Params = true
	stmt.Append(pa)
	stmt.Append(pb)

	cmp := fn.NewOp(ir.OpBinary, types.I32Type)
	cmp.BinOp = ir.BinCmpGTS
	cmp.X, cmp.Y = pa, pb
	entry.CurrentStmt().Append(cmp)
	cfg.MakeCondBranch(fn, entry, cmp, onA, onB)

	cfg.MakeBranch(fn, onA, join)
	cfg.MakeBranch(fn, onB, join)

	phi := fn.NewOp(ir.OpPhi, types.I32Type)
	phi.Phi = []ir.PhiEntry{{Pred: onA, Value: pa}, {Pred: onB, Value: pb}}
	join.CurrentStmt().Append(phi)
	cfg.MakeReturn(fn, join, phi)
	return fn
}

func TestMachineCallCondBranchAndPhi(t *testing.T) {
	fn := buildMaxFunc()
	unit := ir.NewUnit(types.X8664Linux)
	m := NewMachine(unit, types.X8664Linux)

	if ret, err := m.Call(fn, []value{intVal(10), intVal(3)}); err != nil || ret.i != 10 {
		t.Fatalf("max(10, 3) = %v, %v, want 10, nil", ret.i, err)
	}
	if ret, err := m.Call(fn, []value{intVal(2), intVal(9)}); err != nil || ret.i != 9 {
		t.Fatalf("max(2, 9) = %v, %v, want 9, nil", ret.i, err)
	}
}

// buildLocalRoundTripFunc builds a function that stores its single
// parameter into a local slot and loads it back, exercising
// OpAddrLocal/OpStoreAddr/OpLoadAddr.
func buildLocalRoundTripFunc() *ir.Function {
	fn := ir.NewFunction("roundtrip", []*types.Type{types.I32Type}, types.I32Type)
	entry := fn.NewBlock()

	p := fn.NewOp(ir.OpMov, types.I32Type)
	p.Flags |= ir.FlagParam
	stmt := entry.CurrentStmt()
	stmt.Params = true
	stmt.Append(p)

	local := fn.NewLocal(types.I32Type, 0)
	addr := fn.NewOp(ir.OpAddrLocal, types.PointerTo(types.I32Type))
	addr.Local = local
	entry.CurrentStmt().Append(addr)

	store := fn.NewOp(ir.OpStoreAddr, types.Void)
	store.Addr = addr
	store.Value = p
	entry.CurrentStmt().Append(store)

	load := fn.NewOp(ir.OpLoadAddr, types.I32Type)
	load.Addr = addr
	entry.CurrentStmt().Append(load)

	cfg.MakeReturn(fn, entry, load)
	return fn
}

func TestMachineCallLocalStoreLoadRoundTrip(t *testing.T) {
	fn := buildLocalRoundTripFunc()
	unit := ir.NewUnit(types.X8664Linux)
	m := NewMachine(unit, types.X8664Linux)

	ret, err := m.Call(fn, []value{intVal(42)})
	if err != nil {
		t.Fatal(err)
	}
	if ret.i != 42 {
		t.Fatalf("roundtrip(42) = %d, want 42", ret.i)
	}
}

// buildCountdownFunc builds a directly recursive `int countdown(int n) {
// if (n <= 0) return 0; return countdown(n - 1); }`, exercising evalCall
// and calleeGlobal against a self-referential ir.Global.
func buildCountdownFunc(g *ir.Global) *ir.Function {
	fn := ir.NewFunction("countdown", []*types.Type{types.I32Type}, types.I32Type)
	g.Func = fn
	entry := fn.NewBlock()
	baseCase := fn.NewBlock()
	recurse := fn.NewBlock()

	p := fn.NewOp(ir.OpMov, types.I32Type)
	p.Flags |= ir.FlagParam
	stmt := entry.CurrentStmt()
	stmt.Params = true
	stmt.Append(p)

	zero := fn.NewOp(ir.OpConstInt, types.I32Type)
	zero.ConstInt = 0
	entry.CurrentStmt().Append(zero)
	cmp := fn.NewOp(ir.OpBinary, types.I32Type)
	cmp.BinOp = ir.BinCmpLES
	cmp.X, cmp.Y = p, zero
	entry.CurrentStmt().Append(cmp)
	cfg.MakeCondBranch(fn, entry, cmp, baseCase, recurse)

	retZero := fn.NewOp(ir.OpConstInt, types.I32Type)
	retZero.ConstInt = 0
	baseCase.CurrentStmt().Append(retZero)
	cfg.MakeReturn(fn, baseCase, retZero)

	one := fn.NewOp(ir.OpConstInt, types.I32Type)
	one.ConstInt = 1
	recurse.CurrentStmt().Append(one)
	nMinus1 := fn.NewOp(ir.OpBinary, types.I32Type)
	nMinus1.BinOp = ir.BinSubI
	nMinus1.X, nMinus1.Y = p, one
	recurse.CurrentStmt().Append(nMinus1)

	callee := fn.NewOp(ir.OpAddrGlobal, types.PointerTo(types.Void))
	callee.Global = g
	recurse.CurrentStmt().Append(callee)

	call := fn.NewOp(ir.OpCall, types.I32Type)
	call.Target = callee
	call.Args = []*ir.Op{nMinus1}
	recurse.CurrentStmt().Append(call)
	cfg.MakeReturn(fn, recurse, call)

	return fn
}

func TestMachineCallRecursion(t *testing.T) {
	unit := ir.NewUnit(types.X8664Linux)
	g := &ir.Global{Name: "countdown", Kind: ir.GlobalFunc, State: ir.DefDefined}
	fn := buildCountdownFunc(g)
	unit.DefineGlobal(g)

	m := NewMachine(unit, types.X8664Linux)
	ret, err := m.Call(fn, []value{intVal(5)})
	if err != nil {
		t.Fatal(err)
	}
	if ret.i != 0 {
		t.Fatalf("countdown(5) = %d, want 0", ret.i)
	}
}

func TestMachineDivisionByZeroErrors(t *testing.T) {
	fn := ir.NewFunction("divzero", nil, types.I32Type)
	entry := fn.NewBlock()
	entry.CurrentStmt().Params = true

	zero := fn.NewOp(ir.OpConstInt, types.I32Type)
	one := fn.NewOp(ir.OpConstInt, types.I32Type)
	one.ConstInt = 1
	entry.CurrentStmt().Append(zero)
	entry.CurrentStmt().Append(one)

	div := fn.NewOp(ir.OpBinary, types.I32Type)
	div.BinOp = ir.BinDivS
	div.X, div.Y = one, zero
	entry.CurrentStmt().Append(div)
	cfg.MakeReturn(fn, entry, div)

	unit := ir.NewUnit(types.X8664Linux)
	m := NewMachine(unit, types.X8664Linux)
	if _, err := m.Call(fn, nil); err == nil {
		t.Fatal("expected division by zero to produce an error")
	}
}
