package build

import (
	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/ir/cfg"
	"cc11/internal/types"
)

// finalise closes out a function's construction (§4.E "Finalisation"):
// any control-flow path that falls off the end of the body without an
// explicit return is given one (synthesising the implicit `return 0`
// main() gets under the hosted environment's boot convention, and
// plain `return;`/`return <zero>` otherwise), then unreachable code is
// pruned, every block still unsealed is sealed, and the resulting phis
// are simplified to a fixpoint.
func (b *Builder) finalise(decl *ast.Func) error {
	if b.block.Term == nil {
		var val *ir.Op
		if b.fn.RetType != nil && b.fn.RetType != types.Void && !b.fn.RetType.IsAggregate() {
			val = b.fn.NewOp(ir.OpConstInt, b.fn.RetType)
			if decl.Name == "main" {
				val.ConstInt = 0
			}
			b.block.CurrentStmt().Append(val)
		}
		if err := b.runAllDefers(); err != nil {
			return err
		}
		// Falling off the end of an aggregate-returning function without a
		// `return` is undefined behaviour in C; emit a bare void return
		// rather than fabricate a copy into the sret slot.
		cfg.MakeReturn(b.fn, b.block, val)
	}

	cfg.PruneUnreachable(b.fn)
	b.sealRemaining()
	cfg.SimplifyPhis(b.fn)
	return ir.Validate(b.fn)
}
