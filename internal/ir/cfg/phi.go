package cfg

import "cc11/internal/ir"

// SimplifyPhis removes every phi in f whose entries all resolve to a
// single non-self value, rewriting uses of the removed phi to that
// value. Runs to a fixpoint because simplifying one phi can make
// another phi (one that used it) simplifiable in turn.
func SimplifyPhis(f *ir.Function) {
	replacement := map[*ir.Op]*ir.Op{}
	for {
		changed := false
		for b := f.FirstBlock; b != nil; b = b.Next {
			for _, phi := range b.EntryPhis() {
				if _, done := replacement[phi]; done {
					continue
				}
				if v, ok := trivialValue(phi); ok {
					replacement[phi] = resolve(replacement, v)
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	if len(replacement) == 0 {
		return
	}
	rewrite := func(p **ir.Op) {
		if *p == nil {
			return
		}
		if r, ok := replacement[*p]; ok {
			*p = resolve(replacement, r)
		}
	}
	f.ForEachOp(func(op *ir.Op) {
		rewrite(&op.Base)
		rewrite(&op.Index)
		rewrite(&op.Addr)
		rewrite(&op.Value)
		rewrite(&op.X)
		rewrite(&op.Y)
		rewrite(&op.Target)
		rewrite(&op.Cond)
		rewrite(&op.Dst)
		rewrite(&op.Src)
		rewrite(&op.Len)
		rewrite(&op.VaList)
		for i := range op.Args {
			rewrite(&op.Args[i])
		}
		for i := range op.Phi {
			rewrite(&op.Phi[i].Value)
		}
	})
	removeSimplifiedPhis(f, replacement)
}

// trivialValue reports whether every entry of phi is either phi itself
// (a self-reference, ignored) or the same other value v, in which case
// it returns (v, true).
func trivialValue(phi *ir.Op) (*ir.Op, bool) {
	var v *ir.Op
	for _, e := range phi.Phi {
		if e.Value == phi || e.Value == nil {
			continue
		}
		if v == nil {
			v = e.Value
		} else if v != e.Value {
			return nil, false
		}
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

func resolve(replacement map[*ir.Op]*ir.Op, op *ir.Op) *ir.Op {
	seen := map[*ir.Op]bool{}
	for {
		r, ok := replacement[op]
		if !ok || seen[r] {
			return op
		}
		seen[op] = true
		op = r
	}
}

func removeSimplifiedPhis(f *ir.Function, replacement map[*ir.Op]*ir.Op) {
	for b := f.FirstBlock; b != nil; b = b.Next {
		if len(b.Stmts) == 0 {
			continue
		}
		first := b.Stmts[0]
		out := first.Ops[:0]
		for _, op := range first.Ops {
			if op.Kind == ir.OpPhi {
				if _, dead := replacement[op]; dead {
					continue
				}
			}
			out = append(out, op)
		}
		first.Ops = out
	}
}
