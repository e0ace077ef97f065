package initlayout

import (
	"testing"

	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/types"
)

func TestFoldGlobalConstantInt(t *testing.T) {
	rec := Record{Offset: 4, Type: types.I32Type, Expr: &ast.Node{Op: ast.OLITERAL, IntVal: 7}}
	iv, err := FoldGlobalConstant(rec, types.X8664Linux, func(string) *ir.Global { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if iv.Kind != ir.InitInt || iv.Int != 7 || iv.Offset != 4 {
		t.Fatalf("got %+v, want InitInt 7 at offset 4", iv)
	}
}

func TestFoldGlobalConstantFloat(t *testing.T) {
	rec := Record{Type: types.F64Type, Expr: &ast.Node{Op: ast.OLITERAL, FloatVal: 3.5}}
	iv, err := FoldGlobalConstant(rec, types.X8664Linux, func(string) *ir.Global { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if iv.Kind != ir.InitFloat || iv.Float != 3.5 {
		t.Fatalf("got %+v, want InitFloat 3.5", iv)
	}
}

func TestFoldGlobalConstantString(t *testing.T) {
	rec := Record{Type: types.I32Type, Expr: &ast.Node{Op: ast.OLITERAL, StringVal: "hi"}}
	iv, err := FoldGlobalConstant(rec, types.X8664Linux, func(string) *ir.Global { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if iv.Kind != ir.InitString || iv.StrData != "hi" {
		t.Fatalf("got %+v, want InitString \"hi\"", iv)
	}
}

func TestFoldGlobalConstantAddressOfName(t *testing.T) {
	g := &ir.Global{}
	lookup := func(name string) *ir.Global {
		if name == "arr" {
			return g
		}
		return nil
	}
	rec := Record{Expr: &ast.Node{Op: ast.OADDR, Left: &ast.Node{Op: ast.ONAME, Sym: "arr"}}}
	iv, err := FoldGlobalConstant(rec, types.X8664Linux, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if iv.Kind != ir.InitAddr || iv.Sym != g || iv.Disp != 0 {
		t.Fatalf("got %+v, want InitAddr to g with disp 0", iv)
	}
}

func TestFoldGlobalConstantAddressOfIndex(t *testing.T) {
	g := &ir.Global{}
	lookup := func(name string) *ir.Global {
		if name == "arr" {
			return g
		}
		return nil
	}
	rec := Record{Expr: &ast.Node{
		Op: ast.OADDR,
		Left: &ast.Node{
			Op:       ast.OINDEX,
			Left:     &ast.Node{Op: ast.ONAME, Sym: "arr"},
			Right:    &ast.Node{Op: ast.OLITERAL, IntVal: 3},
			ElemType: types.I32Type,
		},
	}}
	iv, err := FoldGlobalConstant(rec, types.X8664Linux, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if iv.Kind != ir.InitAddr || iv.Sym != g || iv.Disp != 12 {
		t.Fatalf("got %+v, want InitAddr to g with disp 12 (3 * sizeof(i32))", iv)
	}
}

func TestFoldGlobalConstantBareNameDecaysToAddress(t *testing.T) {
	g := &ir.Global{}
	lookup := func(name string) *ir.Global {
		if name == "arr" {
			return g
		}
		return nil
	}
	rec := Record{Expr: &ast.Node{Op: ast.ONAME, Sym: "arr"}}
	iv, err := FoldGlobalConstant(rec, types.X8664Linux, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if iv.Kind != ir.InitAddr || iv.Sym != g {
		t.Fatalf("got %+v, want bare array name to decay to its own address", iv)
	}
}

func TestFoldGlobalConstantUnsupportedShapeErrors(t *testing.T) {
	rec := Record{Expr: &ast.Node{Op: ast.OCALL}}
	if _, err := FoldGlobalConstant(rec, types.X8664Linux, func(string) *ir.Global { return nil }); err == nil {
		t.Fatal("expected an error for a non-constant expression")
	}
}
