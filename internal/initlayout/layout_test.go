package initlayout

import (
	"testing"

	"cc11/internal/ast"
	"cc11/internal/types"
)

func intLit(v int64) *ast.Node {
	return &ast.Node{Op: ast.OLITERAL, Type: types.I32Type, IntVal: v}
}

func item(val *ast.Node, designators ...ast.Designator) *ast.Node {
	return &ast.Node{Designators: designators, Value: val}
}

func complit(items ...*ast.Node) *ast.Node {
	return &ast.Node{Op: ast.OCOMPLIT, List: items}
}

func TestFlattenNilInitReturnsNoRecords(t *testing.T) {
	if recs := Flatten(types.I32Type, nil, types.X8664Linux); recs != nil {
		t.Fatalf("expected nil for a value-initialized object, got %v", recs)
	}
}

func TestFlattenScalarUnwrapsSingleElementBraces(t *testing.T) {
	init := complit(item(intLit(42)))
	recs := Flatten(types.I32Type, init, types.X8664Linux)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Offset != 0 || recs[0].Expr.IntVal != 42 {
		t.Fatalf("got %+v, want offset 0 value 42", recs[0])
	}
}

func TestFlattenStructInOrder(t *testing.T) {
	st := &types.Type{
		Kind: types.KindStruct,
		Fields: []types.Field{
			{Name: "a", Type: types.I32Type, Offset: 0},
			{Name: "b", Type: types.I32Type, Offset: 4},
		},
	}
	init := complit(item(intLit(1)), item(intLit(2)))
	recs := Flatten(st, init, types.X8664Linux)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Offset != 0 || recs[0].Expr.IntVal != 1 {
		t.Errorf("record 0 = %+v, want offset 0 value 1", recs[0])
	}
	if recs[1].Offset != 4 || recs[1].Expr.IntVal != 2 {
		t.Errorf("record 1 = %+v, want offset 4 value 2", recs[1])
	}
}

func TestFlattenStructFieldDesignatorRepositionsCursor(t *testing.T) {
	st := &types.Type{
		Kind: types.KindStruct,
		Fields: []types.Field{
			{Name: "a", Type: types.I32Type, Offset: 0},
			{Name: "b", Type: types.I32Type, Offset: 4},
			{Name: "c", Type: types.I32Type, Offset: 8},
		},
	}
	init := complit(item(intLit(9), ast.Designator{Field: "c"}))
	recs := Flatten(st, init, types.X8664Linux)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Offset != 8 || recs[0].Expr.IntVal != 9 {
		t.Fatalf("got %+v, want offset 8 value 9", recs[0])
	}
}

func TestFlattenStructBitfield(t *testing.T) {
	st := &types.Type{
		Kind: types.KindStruct,
		Fields: []types.Field{
			{Name: "flag", Type: types.I32Type, Offset: 0, Bitfield: true, BitWidth: 1, BitOff: 3},
		},
	}
	init := complit(item(intLit(1)))
	recs := Flatten(st, init, types.X8664Linux)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if !r.Bitfield || r.BitWidth != 1 || r.BitOff != 3 {
		t.Fatalf("got %+v, want a bitfield record width 1 bitoff 3", r)
	}
}

func TestFlattenArrayWithIndexDesignator(t *testing.T) {
	arr := &types.Type{Kind: types.KindArray, Elem: types.I32Type, Count: 4}
	init := complit(
		item(intLit(10)),
		item(intLit(20), ast.Designator{IsIdx: true, Index: 3}),
	)
	recs := Flatten(arr, init, types.X8664Linux)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Offset != 0 || recs[0].Expr.IntVal != 10 {
		t.Errorf("record 0 = %+v, want offset 0 value 10", recs[0])
	}
	if recs[1].Offset != 12 || recs[1].Expr.IntVal != 20 {
		t.Errorf("record 1 = %+v, want offset 12 (index 3) value 20", recs[1])
	}
}

func TestFlattenNestedStructRecurses(t *testing.T) {
	inner := &types.Type{
		Kind: types.KindStruct,
		Fields: []types.Field{
			{Name: "x", Type: types.I32Type, Offset: 0},
			{Name: "y", Type: types.I32Type, Offset: 4},
		},
	}
	outer := &types.Type{
		Kind: types.KindStruct,
		Fields: []types.Field{
			{Name: "p", Type: inner, Offset: 0},
			{Name: "tag", Type: types.I32Type, Offset: 8},
		},
	}
	init := complit(
		item(complit(item(intLit(1)), item(intLit(2)))),
		item(intLit(3)),
	)
	recs := Flatten(outer, init, types.X8664Linux)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Offset != 0 || recs[1].Offset != 4 || recs[2].Offset != 8 {
		t.Fatalf("got offsets %d, %d, %d, want 0, 4, 8", recs[0].Offset, recs[1].Offset, recs[2].Offset)
	}
}
