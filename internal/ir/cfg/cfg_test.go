package cfg

import (
	"testing"

	"cc11/internal/ir"
	"cc11/internal/types"
)

func newTestFunc() *ir.Function {
	return ir.NewFunction("f", nil, types.I32Type)
}

func TestMakeBranchWiresEdges(t *testing.T) {
	f := newTestFunc()
	a := f.NewBlock()
	b := f.NewBlock()
	MakeBranch(f, a, b)

	if a.Term == nil || a.Term.Kind != ir.OpBranch {
		t.Fatalf("MakeBranch did not set a's terminator")
	}
	if len(a.Succs) != 1 || a.Succs[0] != b {
		t.Fatalf("a.Succs = %v, want [b]", a.Succs)
	}
	if len(b.Preds) != 1 || b.Preds[0] != a {
		t.Fatalf("b.Preds = %v, want [a]", b.Preds)
	}
}

func TestMakeCondBranchWiresBothEdges(t *testing.T) {
	f := newTestFunc()
	a, t1, t2 := f.NewBlock(), f.NewBlock(), f.NewBlock()
	cond := f.NewOp(ir.OpConstInt, types.I1Type)
	a.CurrentStmt().Append(cond)
	MakeCondBranch(f, a, cond, t1, t2)

	if len(a.Succs) != 2 {
		t.Fatalf("expected 2 successors, got %d", len(a.Succs))
	}
	if len(t1.Preds) != 1 || len(t2.Preds) != 1 {
		t.Fatalf("expected both branch targets to record a's predecessor")
	}
}

// TestPruneUnreachableRemovesDeadBlock builds entry -> live, plus a
// disconnected dead block with no predecessors, and checks that only
// the dead block is removed.
func TestPruneUnreachableRemovesDeadBlock(t *testing.T) {
	f := newTestFunc()
	entry := f.NewBlock()
	live := f.NewBlock()
	dead := f.NewBlock()
	MakeBranch(f, entry, live)
	MakeReturn(f, live, nil)
	MakeReturn(f, dead, nil) // dead has no predecessor

	PruneUnreachable(f)

	for b := f.FirstBlock; b != nil; b = b.Next {
		if b == dead {
			t.Fatalf("PruneUnreachable left an unreachable block in the function")
		}
	}
}

// TestPruneUnreachableCollapsesEmptyForwardingBlock checks the
// empty-branch-only collapse pass: entry -> mid -> target, where mid
// has no ops, collapses to entry -> target directly.
func TestPruneUnreachableCollapsesEmptyForwardingBlock(t *testing.T) {
	f := newTestFunc()
	entry := f.NewBlock()
	mid := f.NewBlock()
	target := f.NewBlock()
	MakeBranch(f, entry, mid)
	MakeBranch(f, mid, target)
	MakeReturn(f, target, nil)

	PruneUnreachable(f)

	found := false
	for b := f.FirstBlock; b != nil; b = b.Next {
		if b == mid {
			found = true
		}
	}
	if found {
		t.Fatalf("expected the empty forwarding block to be collapsed away")
	}
	if len(entry.Succs) != 1 || entry.Succs[0] != target {
		t.Fatalf("entry should branch directly to target after collapse, got %v", entry.Succs)
	}
}

// TestSimplifyPhisResolvesTrivialPhi builds a diamond where both arms
// feed the same value into a phi and checks that the phi is eliminated
// and every use rewritten to the common value.
func TestSimplifyPhisResolvesTrivialPhi(t *testing.T) {
	f := newTestFunc()
	entry := f.NewBlock()
	left := f.NewBlock()
	right := f.NewBlock()
	join := f.NewBlock()

	cond := f.NewOp(ir.OpConstInt, types.I1Type)
	entry.CurrentStmt().Append(cond)
	MakeCondBranch(f, entry, cond, left, right)

	v := f.NewOp(ir.OpConstInt, types.I32Type)
	v.ConstInt = 7
	entry.CurrentStmt().Append(v)

	MakeBranch(f, left, join)
	MakeBranch(f, right, join)

	phi := f.NewOp(ir.OpPhi, types.I32Type)
	phi.Phi = []ir.PhiEntry{{Pred: left, Value: v}, {Pred: right, Value: v}}
	join.CurrentStmt().Append(phi)

	use := f.NewOp(ir.OpUnary, types.I32Type)
	use.UnOp = ir.UnNegI
	use.X = phi
	join.CurrentStmt().Append(use)
	MakeReturn(f, join, use)

	SimplifyPhis(f)

	if use.X == phi {
		t.Fatalf("SimplifyPhis did not rewrite the use of the trivial phi")
	}
	if use.X != v {
		t.Fatalf("SimplifyPhis rewrote the use to %v, want the common value %v", use.X, v)
	}
	for _, op := range join.EntryPhis() {
		if op == phi {
			t.Fatalf("SimplifyPhis left the trivial phi in the block's entry phis")
		}
	}
}
