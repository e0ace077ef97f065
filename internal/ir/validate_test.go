package ir_test

import (
	"testing"

	"cc11/internal/ir"
	"cc11/internal/ir/cfg"
	"cc11/internal/types"
)

func TestValidateAcceptsWellFormedFunction(t *testing.T) {
	fn := ir.NewFunction("f", nil, types.I32Type)
	b := fn.NewBlock()
	v := fn.NewOp(ir.OpConstInt, types.I32Type)
	v.ConstInt = 1
	b.CurrentStmt().Append(v)
	cfg.MakeReturn(fn, b, v)

	if err := ir.Validate(fn); err != nil {
		t.Fatalf("expected a well-formed function to validate, got %v", err)
	}
}

func TestValidateRejectsBlockWithoutTerminator(t *testing.T) {
	fn := ir.NewFunction("f", nil, types.I32Type)
	b := fn.NewBlock()
	v := fn.NewOp(ir.OpConstInt, types.I32Type)
	b.CurrentStmt().Append(v)
	// no terminator appended, no b.Term set

	if err := ir.Validate(fn); err == nil {
		t.Fatal("expected Validate to reject a block with no terminator")
	}
}

func TestValidateRejectsPhiEntryCountMismatch(t *testing.T) {
	fn := ir.NewFunction("f", nil, types.I32Type)
	entry := fn.NewBlock()
	a := fn.NewBlock()
	bb := fn.NewBlock()
	join := fn.NewBlock()

	cond := fn.NewOp(ir.OpConstInt, types.I1Type)
	entry.CurrentStmt().Append(cond)
	cfg.MakeCondBranch(fn, entry, cond, a, bb)

	va := fn.NewOp(ir.OpConstInt, types.I32Type)
	a.CurrentStmt().Append(va)
	cfg.MakeBranch(fn, a, join)

	vb := fn.NewOp(ir.OpConstInt, types.I32Type)
	bb.CurrentStmt().Append(vb)
	cfg.MakeBranch(fn, bb, join)

	// join has two predecessors but this phi only lists one entry.
	phi := fn.NewOp(ir.OpPhi, types.I32Type)
	phi.Phi = []ir.PhiEntry{{Pred: a, Value: va}}
	join.CurrentStmt().Append(phi)
	cfg.MakeReturn(fn, join, phi)

	if err := ir.Validate(fn); err == nil {
		t.Fatal("expected Validate to reject a phi with fewer entries than predecessors")
	}
}

func TestValidateRejectsPhiAfterNonPhiOp(t *testing.T) {
	fn := ir.NewFunction("f", nil, types.I32Type)
	entry := fn.NewBlock()
	a := fn.NewBlock()
	bb := fn.NewBlock()
	join := fn.NewBlock()

	cond := fn.NewOp(ir.OpConstInt, types.I1Type)
	entry.CurrentStmt().Append(cond)
	cfg.MakeCondBranch(fn, entry, cond, a, bb)
	cfg.MakeBranch(fn, a, join)
	cfg.MakeBranch(fn, bb, join)

	notAPhi := fn.NewOp(ir.OpConstInt, types.I32Type)
	join.CurrentStmt().Append(notAPhi)

	phi := fn.NewOp(ir.OpPhi, types.I32Type)
	phi.Phi = []ir.PhiEntry{{Pred: a, Value: notAPhi}, {Pred: bb, Value: notAPhi}}
	join.CurrentStmt().Append(phi)
	cfg.MakeReturn(fn, join, phi)

	if err := ir.Validate(fn); err == nil {
		t.Fatal("expected Validate to reject a phi appearing after a non-phi op in the same block")
	}
}

func TestValidateRejectsUseOfUndefinedOp(t *testing.T) {
	fn := ir.NewFunction("f", nil, types.I32Type)
	b := fn.NewBlock()
	foreign := &ir.Op{Id: -1, Kind: ir.OpConstInt, Type: types.I32Type} // never appended anywhere
	neg := fn.NewOp(ir.OpUnary, types.I32Type)
	neg.UnOp = ir.UnNegI
	neg.X = foreign
	b.CurrentStmt().Append(neg)
	cfg.MakeReturn(fn, b, neg)

	if err := ir.Validate(fn); err == nil {
		t.Fatal("expected Validate to reject a use of an op not defined anywhere in the function")
	}
}

func TestValidateRejectsMissingFinalReturn(t *testing.T) {
	fn := ir.NewFunction("f", nil, types.I32Type)
	entry := fn.NewBlock()
	v := fn.NewOp(ir.OpConstInt, types.I32Type)
	entry.CurrentStmt().Append(v)
	cfg.MakeReturn(fn, entry, v)

	// The last block in the function's list branches instead of
	// returning; Validate's final check looks only at f.LastBlock.
	tail := fn.NewBlock()
	cfg.MakeBranch(fn, tail, entry)

	if err := ir.Validate(fn); err == nil {
		t.Fatal("expected Validate to reject a function whose last block does not end in a return")
	}
}
