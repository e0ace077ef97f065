package build

import (
	"testing"

	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/types"
)

func litI32(v int64) *ast.Node {
	return &ast.Node{Op: ast.OLITERAL, Type: types.I32Type, IntVal: v}
}

func name(sym string, t *types.Type) *ast.Node {
	return &ast.Node{Op: ast.ONAME, Sym: sym, Type: t}
}

// buildOne runs decl through BuildFunction against a fresh unit and
// function, returning the finalised IR so a test can inspect its shape.
func buildOne(t *testing.T, decl *ast.Func) *ir.Function {
	t.Helper()
	td := types.X8664Linux
	unit := ir.NewUnit(td)
	paramTypes := make([]*types.Type, len(decl.Params))
	for i, p := range decl.Params {
		paramTypes[i] = p.Type
	}
	fn := ir.NewFunction(decl.Name, paramTypes, decl.Ret)
	if err := BuildFunction(unit, fn, decl, td, map[string]*ir.Global{}); err != nil {
		t.Fatalf("BuildFunction(%s) failed: %v", decl.Name, err)
	}
	if err := ir.Validate(fn); err != nil {
		t.Fatalf("BuildFunction(%s) produced invalid IR: %v", decl.Name, err)
	}
	return fn
}

// int f(int x) { return x + 1; }
func TestBuildFunctionSimpleReturn(t *testing.T) {
	decl := &ast.Func{
		Name:   "f",
		Params: []ast.Param{{Sym: "x", Type: types.I32Type}},
		Ret:    types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ORETURN, Left: &ast.Node{
				Op: ast.OADD, Type: types.I32Type,
				Left: name("x", types.I32Type), Right: litI32(1),
			}},
		}},
	}
	fn := buildOne(t, decl)

	if fn.FirstBlock == nil || fn.FirstBlock.Term == nil {
		t.Fatal("expected a single terminated entry block")
	}
	if fn.FirstBlock.Term.Kind != ir.OpRet {
		t.Fatalf("entry block terminator = %v, want OpRet", fn.FirstBlock.Term.Kind)
	}
}

// int max(int a, int b) { return a > b ? a : b; }
func TestBuildFunctionTernaryMax(t *testing.T) {
	a, b := types.I32Type, types.I32Type
	decl := &ast.Func{
		Name:   "max",
		Params: []ast.Param{{Sym: "a", Type: a}, {Sym: "b", Type: b}},
		Ret:    types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ORETURN, Left: &ast.Node{
				Op: ast.OCOND, Type: types.I32Type,
				Left: &ast.Node{
					Op: ast.OGT, Type: types.I1Type,
					Left: name("a", a), Right: name("b", b),
				},
				List: []*ast.Node{name("a", a), name("b", b)},
			}},
		}},
	}
	fn := buildOne(t, decl)

	var phiCount int
	var joinBlock *ir.Block
	for blk := fn.FirstBlock; blk != nil; blk = blk.Next {
		for _, s := range blk.Stmts {
			for _, op := range s.Ops {
				if op.Kind == ir.OpPhi {
					phiCount++
					joinBlock = blk
				}
			}
		}
	}
	if phiCount != 1 {
		t.Fatalf("expected exactly one phi in the ternary merge block, got %d", phiCount)
	}
	if joinBlock == nil || len(joinBlock.Preds) != 2 {
		t.Fatalf("expected the merge block to have two predecessors, got %v", joinBlock)
	}
}

// int g(void) { short s = 1; int i = s; return i; }
func TestBuildFunctionSignExtendCast(t *testing.T) {
	decl := &ast.Func{
		Name: "g",
		Ret:  types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ODECL, List: []*ast.Node{
				{Sym: "s", Type: types.I16Type, Left: litI32(1)},
			}},
			{Op: ast.ODECL, List: []*ast.Node{
				{Sym: "i", Type: types.I32Type, Left: name("s", types.I16Type)},
			}},
			{Op: ast.ORETURN, Left: name("i", types.I32Type)},
		}},
	}
	fn := buildOne(t, decl)

	var sawSignExtend bool
	for blk := fn.FirstBlock; blk != nil; blk = blk.Next {
		for _, s := range blk.Stmts {
			for _, op := range s.Ops {
				if op.Kind == ir.OpCast && op.CastKind == ir.CastSignExtend {
					sawSignExtend = true
				}
			}
		}
	}
	if !sawSignExtend {
		t.Fatal("expected the short->int widening to lower to a CastSignExtend op")
	}
}

// struct P { int x, y; }; int h(void) { struct P p = {1, 2}; return p.y; }
func TestBuildFunctionAggregateInitAndMemberRead(t *testing.T) {
	structP := &types.Type{
		Kind: types.KindStruct, Name: "P",
		Fields: []types.Field{
			{Name: "x", Type: types.I32Type, Offset: 0},
			{Name: "y", Type: types.I32Type, Offset: 4},
		},
		Size: 8, Align: 4,
	}
	initList := &ast.Node{Op: ast.OCOMPLIT, Type: structP, List: []*ast.Node{
		{Designators: nil, Value: litI32(1)},
		{Designators: nil, Value: litI32(2)},
	}}
	decl := &ast.Func{
		Name: "h",
		Ret:  types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ODECL, List: []*ast.Node{
				{Sym: "p", Type: structP, Left: initList},
			}},
			{Op: ast.ORETURN, Left: &ast.Node{
				Op: ast.OMEMBER, Type: types.I32Type,
				Left:  name("p", structP),
				Sym:   "y",
				Field: &structP.Fields[1],
			}},
		}},
	}
	fn := buildOne(t, decl)

	var sawLoad bool
	for blk := fn.FirstBlock; blk != nil; blk = blk.Next {
		for _, s := range blk.Stmts {
			for _, op := range s.Ops {
				if op.Kind == ir.OpLoadAddr {
					sawLoad = true
				}
			}
		}
	}
	if !sawLoad {
		t.Fatal("expected reading p.y through its computed field address to emit an OpLoadAddr")
	}
}

func assignAdd1(sym string) *ast.Node {
	return &ast.Node{Op: ast.OEXPRSTMT, Left: &ast.Node{
		Op: ast.OAS, Type: types.I32Type,
		Left: name(sym, types.I32Type),
		Right: &ast.Node{
			Op: ast.OADD, Type: types.I32Type,
			Left: name(sym, types.I32Type), Right: litI32(1),
		},
	}}
}

func countOp(fn *ir.Function, match func(*ir.Op) bool) int {
	n := 0
	for blk := fn.FirstBlock; blk != nil; blk = blk.Next {
		for _, s := range blk.Stmts {
			for _, op := range s.Ops {
				if match(op) {
					n++
				}
			}
		}
	}
	return n
}

func isAddI(op *ir.Op) bool { return op.Kind == ir.OpBinary && op.BinOp == ir.BinAddI }

// int f(int x) { defer x = x + 1; return x; }
//
// The deferred increment must run before the function returns (LIFO
// replay at the `return`), but must not affect the value already
// snapshotted for the return itself.
func TestBuildFunctionDeferRunsOnReturn(t *testing.T) {
	decl := &ast.Func{
		Name:   "f",
		Params: []ast.Param{{Sym: "x", Type: types.I32Type}},
		Ret:    types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ODEFER, Left: assignAdd1("x")},
			{Op: ast.ORETURN, Left: name("x", types.I32Type)},
		}},
	}
	fn := buildOne(t, decl)

	if n := countOp(fn, isAddI); n != 1 {
		t.Fatalf("expected exactly one live x+1 from the deferred statement, got %d", n)
	}
	ret := fn.LastBlock.Term
	if ret == nil || ret.Kind != ir.OpRet {
		t.Fatal("expected the function to end in a return")
	}
	if ret.Value != nil && ret.Value.Kind == ir.OpBinary {
		t.Fatal("return value must be the pre-defer snapshot of x, not the incremented value")
	}
}

// int g(void) { int n = 0; while (1) { defer n = n + 1; break; } return n; }
//
// break must replay the loop body's pending defer before branching out
// of the loop, not drop it with the dead block the branch leaves behind.
func TestBuildFunctionDeferRunsOnLoopBreak(t *testing.T) {
	decl := &ast.Func{
		Name: "g",
		Ret:  types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ODECL, List: []*ast.Node{
				{Sym: "n", Type: types.I32Type, Left: litI32(0)},
			}},
			{Op: ast.OWHILE, Left: litI32(1), Right: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
				{Op: ast.ODEFER, Left: assignAdd1("n")},
				{Op: ast.OBREAK},
			}}},
			{Op: ast.ORETURN, Left: name("n", types.I32Type)},
		}},
	}
	fn := buildOne(t, decl)

	if n := countOp(fn, isAddI); n != 1 {
		t.Fatalf("expected exactly one live n+1 surviving after dead-block pruning, got %d", n)
	}
}

// int sc(int a, int b) { return a && b; }
func TestBuildFunctionShortCircuitAndProducesPhi(t *testing.T) {
	a, b := types.I32Type, types.I32Type
	decl := &ast.Func{
		Name:   "sc",
		Params: []ast.Param{{Sym: "a", Type: a}, {Sym: "b", Type: b}},
		Ret:    types.I32Type,
		Body: &ast.Node{Op: ast.OBLOCK, List: []*ast.Node{
			{Op: ast.ORETURN, Left: &ast.Node{
				Op: ast.OANDAND, Type: types.I1Type,
				Left: name("a", a), Right: name("b", b),
			}},
		}},
	}
	fn := buildOne(t, decl)

	var phi *ir.Op
	for blk := fn.FirstBlock; blk != nil; blk = blk.Next {
		for _, s := range blk.Stmts {
			for _, op := range s.Ops {
				if op.Kind == ir.OpPhi {
					phi = op
				}
			}
		}
	}
	if phi == nil {
		t.Fatal("expected && to merge through a phi when the right operand is not evaluated")
	}
	if len(phi.Phi) != 2 {
		t.Fatalf("short-circuit merge phi has %d entries, want 2 (fast-false path, evaluated-rhs path)", len(phi.Phi))
	}
}
