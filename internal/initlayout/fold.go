package initlayout

import (
	"fmt"

	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/types"
)

// FoldGlobalConstant reduces rec.Expr to the closed set of value kinds a
// Global initializer may hold: address, integer, float, or string. The
// type checker is expected to have reduced most cases (constant folding
// of arithmetic on compile-time constants); this function only handles
// the residuals enumerated in §4.F and §9 ("Global initializer constant
// folding"): literals, and address-of a global (optionally offset by a
// constant displacement, e.g. `&arr[3]` or `&g.field`).
//
// globalOf resolves an ONAME to the ir.Global the builder already
// created for it (the builder owns that mapping; this package does not
// know about the variable-reference table).
func FoldGlobalConstant(rec Record, td *types.Target, globalOf func(name string) *ir.Global) (ir.InitValue, error) {
	v, disp, err := foldAddr(rec.Expr, td, globalOf)
	if err == nil {
		return ir.InitValue{
			Offset: rec.Offset, Bitfield: rec.Bitfield, BitWidth: rec.BitWidth, BitOff: rec.BitOff,
			Kind: ir.InitAddr, Sym: v, Disp: disp,
		}, nil
	}

	switch rec.Expr.Op {
	case ast.OLITERAL:
		if rec.Type.Kind == types.KindPrimitive && rec.Type.Prim.IsFloat() {
			return ir.InitValue{
				Offset: rec.Offset, Bitfield: rec.Bitfield, BitWidth: rec.BitWidth, BitOff: rec.BitOff,
				Kind: ir.InitFloat, Float: rec.Expr.FloatVal,
			}, nil
		}
		if rec.Expr.StringVal != "" {
			return ir.InitValue{Offset: rec.Offset, Kind: ir.InitString, StrData: rec.Expr.StringVal}, nil
		}
		return ir.InitValue{
			Offset: rec.Offset, Bitfield: rec.Bitfield, BitWidth: rec.BitWidth, BitOff: rec.BitOff,
			Kind: ir.InitInt, Int: rec.Expr.IntVal,
		}, nil
	}
	return ir.InitValue{}, fmt.Errorf("initlayout: expression of kind %v did not reduce to a global-initializer constant", rec.Expr.Op)
}

// foldAddr recognises `&name`, `&name[const]`, and `&name.field` shapes,
// returning the referenced global and a constant byte displacement.
func foldAddr(e *ast.Node, td *types.Target, globalOf func(name string) *ir.Global) (*ir.Global, int64, error) {
	if e.Op != ast.OADDR {
		if e.Op == ast.ONAME {
			// Bare array/function name decays to its own address.
			if g := globalOf(e.Sym); g != nil {
				return g, 0, nil
			}
		}
		return nil, 0, fmt.Errorf("not an address constant")
	}
	inner := e.Left
	switch inner.Op {
	case ast.ONAME:
		if g := globalOf(inner.Sym); g != nil {
			return g, 0, nil
		}
	case ast.OINDEX:
		if inner.Left.Op == ast.ONAME && inner.Right.Op == ast.OLITERAL {
			if g := globalOf(inner.Left.Sym); g != nil {
				elemSize := types.SizeOf(inner.ElemType, td)
				if elemSize == 0 {
					elemSize = 1
				}
				return g, inner.Right.IntVal * elemSize, nil
			}
		}
	case ast.OMEMBER:
		if inner.Left.Op == ast.ONAME && inner.Field != nil {
			if g := globalOf(inner.Left.Sym); g != nil {
				return g, inner.Field.Offset, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("unsupported address-constant shape")
}
