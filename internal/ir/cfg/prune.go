package cfg

import "cc11/internal/ir"

// PruneUnreachable removes blocks unreachable from f's entry block and
// detached/empty blocks with no incoming edges, splicing their
// predecessors' terminators to skip over them.
func PruneUnreachable(f *ir.Function) {
	if f.FirstBlock == nil {
		return
	}
	reachable := map[*ir.Block]bool{f.FirstBlock: true}
	work := []*ir.Block{f.FirstBlock}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range b.Succs {
			if !reachable[s] {
				reachable[s] = true
				work = append(work, s)
			}
		}
	}

	for b := f.FirstBlock; b != nil; {
		next := b.Next
		if !reachable[b] || (b.Id == ir.DetachedID) {
			unlinkBlock(f, b)
		}
		b = next
	}

	// A second pass collapses blocks that are empty except for a single
	// unconditional branch — the shape left behind by an `if` with no
	// `else`, or a loop with an empty body — forwarding their
	// predecessors directly to the successor. A block whose successor
	// has phis at its head is kept, since those phis name it as a
	// predecessor.
	for b := f.FirstBlock; b != nil; {
		next := b.Next
		nops := 0
		for _, s := range b.Stmts {
			nops += len(s.Ops)
		}
		if b != f.FirstBlock && nops == 1 && b.Term != nil && b.Term.Kind == ir.OpBranch && len(b.Preds) > 0 {
			target := b.Term.True
			if target != b && len(target.EntryPhis()) == 0 {
				preds := append([]*ir.Block(nil), b.Preds...)
				for _, p := range preds {
					ReplaceSuccessor(p, b, target)
				}
				unlinkBlock(f, b)
			}
		}
		b = next
	}
}

func unlinkBlock(f *ir.Function, b *ir.Block) {
	for _, s := range b.Succs {
		removePred(s, b)
		for _, phi := range s.EntryPhis() {
			out := phi.Phi[:0]
			for _, e := range phi.Phi {
				if e.Pred != b {
					out = append(out, e)
				}
			}
			phi.Phi = out
		}
	}
	if b.Prev != nil {
		b.Prev.Next = b.Next
	} else {
		f.FirstBlock = b.Next
	}
	if b.Next != nil {
		b.Next.Prev = b.Prev
	} else {
		f.LastBlock = b.Prev
	}
	b.Next, b.Prev = nil, nil
}
