package ir

import "fmt"

// Validate re-checks a finished function against the invariants the
// builder is supposed to maintain by construction (§8 "Testable
// Properties"): every block terminates exactly once, every phi has one
// entry per predecessor and occurs only at block heads, and every
// operand is an op defined in the function. It does not compare the
// type of a def with the types its uses expect. It is the last step of
// finalisation, run once per function after phi simplification; a
// failure here means a builder bug, not a user program error — callers
// are expected to treat it as an internal assertion.
func Validate(f *Function) error {
	for b := f.FirstBlock; b != nil; b = b.Next {
		if err := validateTermination(b); err != nil {
			return err
		}
		if err := validatePhiShape(b); err != nil {
			return err
		}
	}
	var defined map[*Op]bool
	for b := f.FirstBlock; b != nil; b = b.Next {
		for _, s := range b.Stmts {
			for _, op := range s.Ops {
				if defined == nil {
					defined = make(map[*Op]bool)
				}
				defined[op] = true
			}
		}
	}
	for b := f.FirstBlock; b != nil; b = b.Next {
		for _, s := range b.Stmts {
			for _, op := range s.Ops {
				if err := validateUses(op, defined); err != nil {
					return err
				}
			}
		}
	}
	if f.LastBlock != nil && (f.LastBlock.Term == nil || f.LastBlock.Term.Kind != OpRet) {
		return fmt.Errorf("ir: function %s's last block bb%d does not end in a return", f.Name, f.LastBlock.Id)
	}
	return nil
}

func validateTermination(b *Block) error {
	if len(b.Stmts) == 0 {
		return fmt.Errorf("ir: block bb%d has no statements", b.Id)
	}
	last := b.Stmts[len(b.Stmts)-1].Last()
	if last == nil || !last.Kind.IsTerminator() {
		return fmt.Errorf("ir: block bb%d does not end in a terminator", b.Id)
	}
	if last != b.Term {
		return fmt.Errorf("ir: block bb%d's recorded terminator does not match its last op", b.Id)
	}
	for _, s := range b.Stmts {
		for _, op := range s.Ops {
			if op != last && op.Kind.IsTerminator() {
				return fmt.Errorf("ir: block bb%d has a terminator op %d before its end", b.Id, op.Id)
			}
		}
	}
	return nil
}

func validatePhiShape(b *Block) error {
	sawNonPhi := false
	for _, s := range b.Stmts {
		for _, op := range s.Ops {
			if op.Kind != OpPhi {
				sawNonPhi = true
				continue
			}
			if sawNonPhi {
				return fmt.Errorf("ir: block bb%d has a phi op %d after a non-phi op", b.Id, op.Id)
			}
			if len(op.Phi) != len(b.Preds) {
				return fmt.Errorf("ir: block bb%d phi op %d has %d entries, want %d (one per predecessor)",
					b.Id, op.Id, len(op.Phi), len(b.Preds))
			}
			seen := make(map[*Block]bool, len(op.Phi))
			for _, e := range op.Phi {
				isPred := false
				for _, p := range b.Preds {
					if p == e.Pred {
						isPred = true
						break
					}
				}
				if !isPred {
					return fmt.Errorf("ir: block bb%d phi op %d references bb%d, which is not a predecessor", b.Id, op.Id, e.Pred.Id)
				}
				if seen[e.Pred] {
					return fmt.Errorf("ir: block bb%d phi op %d has more than one entry for predecessor bb%d", b.Id, op.Id, e.Pred.Id)
				}
				seen[e.Pred] = true
			}
		}
	}
	return nil
}

// validateUses checks that every operand op reads from is itself a
// defined op in the function (dominance proper is left to the builder's
// construction order; this is the cheap half of "SSA entry" that catches
// a dangling/foreign pointer, the bug class most likely to slip in
// during a CFG rewrite) and that phi entries in particular resolve to
// ops actually produced somewhere in the function.
func validateUses(op *Op, defined map[*Op]bool) error {
	var err error
	ForEachUse(op, func(use *Op) {
		if err == nil && !defined[use] {
			err = fmt.Errorf("ir: op %d (%v) uses op %d, which is not defined anywhere in the function", op.Id, op.Kind, use.Id)
		}
	})
	return err
}
