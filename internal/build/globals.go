package build

import (
	"cc11/internal/ast"
	"cc11/internal/initlayout"
	"cc11/internal/ir"
	"cc11/internal/types"
)

// BuildUnit lowers a whole translation unit (component E's entry point,
// called by the driver once type checking succeeds): every file-scope
// global is materialised first so that function bodies can resolve
// forward references to siblings and to data declared later in the
// file, then every function body is built in turn.
func BuildUnit(u *ast.Unit, td *types.Target) (*ir.Unit, error) {
	unit := ir.NewUnit(td)
	globalOf := make(map[string]*ir.Global)

	for _, g := range u.Globals {
		ig, err := buildGlobalData(unit, td, g.Name, g.Type, g.Init, g.IsStatic, g.Tentative, globalOf)
		if err != nil {
			return nil, err
		}
		globalOf[g.Name] = ig
	}

	// Every function's global is defined before any body is built, so a
	// body sees each sibling wherever it appears in u.Funcs.
	bodyDecls := u.Funcs[:0:0]
	var bodyFns []*ir.Function
	for _, fn := range u.Funcs {
		paramTypes := make([]*types.Type, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = p.Type
		}
		irFn := ir.NewFunction(fn.Name, paramTypes, fn.Ret)
		linkage := ir.LinkageExternal
		if fn.IsStatic {
			linkage = ir.LinkageInternal
		}
		state := ir.DefUndefined
		if fn.Body != nil {
			state = ir.DefDefined
		}
		g := &ir.Global{
			Name: fn.Name, Kind: ir.GlobalFunc, Linkage: linkage, State: state,
			Type: types.FuncType(fn.Ret, paramTypes, fn.Variadic), Func: irFn,
		}
		g = unit.DefineGlobal(g)
		irFn.Global = g
		globalOf[fn.Name] = g

		if fn.Body != nil {
			bodyDecls = append(bodyDecls, fn)
			bodyFns = append(bodyFns, irFn)
		}
	}
	for i, fn := range bodyDecls {
		if err := BuildFunction(unit, bodyFns[i], fn, td, globalOf); err != nil {
			return nil, err
		}
	}

	unit.ResolveTentativeDefinitions()
	return unit, nil
}

// buildGlobalData materialises one file-scope data declaration as an
// ir.Global, flattening any initializer via the initializer layout
// engine and folding each record to a constant per
// initlayout.FoldGlobalConstant. A declaration with neither "extern"
// nor an initializer is tentative (glossary: tentative definition) and
// is resolved to a zero-filled definition at BuildUnit's end if nothing
// stronger ever supersedes it.
//
// Shared with ODECL's static-local case: a `static` local variable is,
// at the IR level, exactly a file-scope data global with internal
// linkage and a mangled name, initialised once rather than on every
// call.
func buildGlobalData(unit *ir.Unit, td *types.Target, name string, t *types.Type, init *ast.Node, isStatic, tentative bool, globalOf map[string]*ir.Global) (*ir.Global, error) {
	g := &ir.Global{Name: name, Kind: ir.GlobalData, Type: t}
	if isStatic {
		g.Linkage = ir.LinkageInternal
	} else {
		g.Linkage = ir.LinkageExternal
	}

	switch {
	case init != nil:
		g.State = ir.DefDefined
		records := initlayout.Flatten(t, init, td)
		for _, rec := range records {
			iv, err := initlayout.FoldGlobalConstant(rec, td, func(n string) *ir.Global { return globalOf[n] })
			if err != nil {
				return nil, err
			}
			g.InitValues = append(g.InitValues, iv)
		}
	case tentative:
		g.State = ir.DefTentative
	default:
		g.State = ir.DefUndefined
	}

	return unit.DefineGlobal(g), nil
}

// buildGlobalData as a Builder method lets ODECL materialise a `static`
// local using the same logic as a real file-scope global, keyed by a
// name mangled with the owning function's name so two functions' same-
// named statics never collide.
func (b *Builder) buildGlobalData(name string, t *types.Type, init *ast.Node) (*ir.Global, error) {
	return buildGlobalData(b.unit, b.td, name, t, init, true, init == nil, b.globalOf)
}
