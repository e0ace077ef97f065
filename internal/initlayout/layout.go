// Package initlayout implements the initializer layout engine (component
// F): flattening nested/designated initializers into (offset, bitfield?,
// value) triples the builder can turn into stores (locals) or a
// value-list (globals).
package initlayout

import (
	"cc11/internal/ast"
	"cc11/internal/types"
)

// Record is one flattened initializer entry: store Expr at Offset within
// the object being initialized (optionally as a bitfield write of
// BitWidth bits at BitOff within the containing storage unit).
type Record struct {
	Offset   int64
	Bitfield bool
	BitWidth uint8
	BitOff   uint8
	Type     *types.Type
	Expr     *ast.Node
}

// Flatten walks init against t, producing the ordered sequence of
// (offset, value) writes it implies. init is nil for a value-initialized
// (all-zero) object, in which case Flatten returns no records — the
// caller's zero-memset covers the whole thing.
func Flatten(t *types.Type, init *ast.Node, td *types.Target) []Record {
	if init == nil {
		return nil
	}
	var out []Record
	flattenInto(&out, t, init, 0, td)
	return out
}

func flattenInto(out *[]Record, t *types.Type, init *ast.Node, base int64, td *types.Target) {
	switch t.Kind {
	case types.KindStruct:
		flattenStruct(out, t, init, base, td)
	case types.KindUnion:
		flattenUnion(out, t, init, base, td)
	case types.KindArray:
		flattenArray(out, t, init, base, td)
	default:
		// Scalar target: a braced single-element list `{expr}` is
		// permitted by C and unwraps to its sole element; otherwise
		// init is the scalar expression itself.
		expr := init
		if init.Op == ast.OCOMPLIT && len(init.List) == 1 {
			expr = initItemValue(init.List[0])
		} else if init.Op == ast.OCOMPLIT && len(init.List) == 0 {
			return
		}
		*out = append(*out, Record{Offset: base, Type: t, Expr: expr})
	}
}

func initItemValue(item *ast.Node) *ast.Node {
	if item.Value != nil {
		return item.Value
	}
	return item
}

func flattenStruct(out *[]Record, t *types.Type, init *ast.Node, base int64, td *types.Target) {
	if init.Op != ast.OCOMPLIT {
		*out = append(*out, Record{Offset: base, Type: t, Expr: init})
		return
	}
	fieldIdx := 0
	for _, item := range init.List {
		// A field designator repositions the cursor; an index
		// designator is invalid for a struct and is treated as a name
		// lookup failure the type checker would already have rejected,
		// so it is simply ignored here (builder invariant: input is
		// well-typed).
		if len(item.Designators) > 0 && item.Designators[0].Field != "" {
			name := item.Designators[0].Field
			for i, f := range t.Fields {
				if f.Name == name {
					fieldIdx = i
					break
				}
			}
		}
		if fieldIdx >= len(t.Fields) {
			break
		}
		f := t.Fields[fieldIdx]
		value := initItemValue(item)
		if f.Type.IsAggregate() && isAggregateInit(value) {
			flattenInto(out, f.Type, value, base+f.Offset, td)
		} else if f.Bitfield {
			*out = append(*out, Record{
				Offset: base + f.Offset, Bitfield: true,
				BitWidth: f.BitWidth, BitOff: f.BitOff, Type: f.Type, Expr: value,
			})
		} else {
			*out = append(*out, Record{Offset: base + f.Offset, Type: f.Type, Expr: value})
		}
		fieldIdx++
	}
}

func flattenUnion(out *[]Record, t *types.Type, init *ast.Node, base int64, td *types.Target) {
	if init.Op != ast.OCOMPLIT || len(init.List) == 0 {
		return
	}
	// Only the single active field is ever written, per §4.F "Union".
	item := init.List[0]
	f := t.Fields[0]
	if len(item.Designators) > 0 && item.Designators[0].Field != "" {
		for _, cand := range t.Fields {
			if cand.Name == item.Designators[0].Field {
				f = cand
				break
			}
		}
	}
	value := initItemValue(item)
	if f.Type.IsAggregate() && isAggregateInit(value) {
		flattenInto(out, f.Type, value, base+f.Offset, td)
	} else {
		*out = append(*out, Record{Offset: base + f.Offset, Type: f.Type, Expr: value})
	}
}

func flattenArray(out *[]Record, t *types.Type, init *ast.Node, base int64, td *types.Target) {
	if init.Op != ast.OCOMPLIT {
		*out = append(*out, Record{Offset: base, Type: t, Expr: init})
		return
	}
	elemSize := types.SizeOf(t.Elem, td)
	idx := int64(0)
	for _, item := range init.List {
		if len(item.Designators) > 0 && item.Designators[0].IsIdx {
			idx = item.Designators[0].Index
		}
		value := initItemValue(item)
		off := base + idx*elemSize
		if t.Elem.IsAggregate() && isAggregateInit(value) {
			flattenInto(out, t.Elem, value, off, td)
		} else {
			*out = append(*out, Record{Offset: off, Type: t.Elem, Expr: value})
		}
		idx++
	}
}

// isAggregateInit reports whether value is itself a nested brace
// initializer list (as opposed to e.g. a string literal initializing a
// char array, or a compound-literal expression used as a whole value),
// per §4.F "Nested init-lists recurse; nested expressions of
// compound-literal kind are descended when the target is non-scalar."
func isAggregateInit(value *ast.Node) bool {
	return value.Op == ast.OCOMPLIT
}
