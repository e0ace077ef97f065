package driver

import (
	"fmt"
	"strings"

	"cc11/internal/ir"
	"cc11/internal/target"
	"cc11/internal/types"
)

// dumpAssembly renders u in a stable textual form. Target-specific code
// generation is an external collaborator (§1 Out of scope); this is the
// driver's placeholder "assembly" output so -S/-c/link routing has real
// bytes to move around and a golden-testable artifact, not a production
// instruction encoder.
func dumpAssembly(u *ir.Unit, td *types.Target) string {
	var b strings.Builder
	for g := u.FirstGlobal; g != nil; g = g.Next {
		fmt.Fprintf(&b, "# global %s linkage=%d state=%d type=%s\n", g.Name, g.Linkage, g.State, g.Type)
		if g.Kind == ir.GlobalFunc && g.Func != nil {
			dumpFunction(&b, g.Func, td)
		}
	}
	return b.String()
}

// dumpParamRegs annotates f's integer/pointer parameters with the ABI
// register each is materialised from, per td. Parameters that spill past
// the register file (IntArgRegName returns "") or that are
// floating-point (carried in the FP register file this model doesn't
// name) are left unannotated.
func dumpParamRegs(b *strings.Builder, f *ir.Function, td *types.Target) {
	intIdx := 0
	for i, t := range f.ParamType {
		if t.Kind == types.KindPrimitive && t.Prim.IsFloat() {
			continue
		}
		reg := target.IntArgRegName(td, intIdx)
		intIdx++
		if reg == "" {
			continue
		}
		fmt.Fprintf(b, "  # param %d -> %s\n", i, reg)
	}
}

func dumpFunction(b *strings.Builder, f *ir.Function, td *types.Target) {
	fmt.Fprintf(b, "func %s:\n", f.Name)
	dumpParamRegs(b, f, td)
	for blk := f.FirstBlock; blk != nil; blk = blk.Next {
		fmt.Fprintf(b, "  bb%d:\n", blk.Id)
		for _, s := range blk.Stmts {
			for _, op := range s.Ops {
				fmt.Fprintf(b, "    %s\n", dumpOp(op))
			}
		}
	}
}

func dumpOp(op *ir.Op) string {
	return fmt.Sprintf("v%d = %s", op.Id, op.Kind)
}
