package build

import (
	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/ir/cfg"
	"cc11/internal/types"
	"cc11/internal/varref"
)

// switchCollector accumulates the (value -> block) table of an OSWITCH
// while its body is being built case label by case label, and the set
// of blocks whose predecessor set is only complete once the whole
// switch (including the dispatch edges MakeSwitch adds) has been built.
type switchCollector struct {
	cases       []ir.SwitchCase
	defaultBlk  *ir.Block
	pendingSeal []*ir.Block
}

func (b *Builder) constBool(v bool) *ir.Op {
	op := b.fn.NewOp(ir.OpConstInt, types.I1Type)
	if v {
		op.ConstInt = 1
	}
	b.block.CurrentStmt().Append(op)
	return op
}

// buildStmt lowers one statement node. Control-flow constructs follow
// §4.E's block-per-construct shapes; every construct that forks control
// flow merges back into a single successor block before returning.
func (b *Builder) buildStmt(s *ast.Node) error {
	switch s.Op {
	case ast.OBLOCK:
		old := b.enterScope()
		for _, st := range s.List {
			if err := b.buildStmt(st); err != nil {
				return err
			}
		}
		return b.leaveScope(old, true)

	case ast.OEXPRSTMT:
		_, err := b.buildExpr(s.Left)
		return err

	case ast.ODECL:
		return b.buildDecl(s)

	case ast.OIF:
		return b.buildIf(s)

	case ast.OWHILE:
		return b.buildWhile(s)

	case ast.ODOWHILE:
		return b.buildDoWhile(s)

	case ast.OFOR:
		return b.buildFor(s)

	case ast.OSWITCH:
		return b.buildSwitch(s)

	case ast.OCASE:
		return b.buildCase(s)

	case ast.OBREAK:
		if len(b.loops) == 0 {
			return b.err("build: break outside loop or switch")
		}
		frame := b.loops[len(b.loops)-1]
		if err := b.runDefersAbove(frame.deferDepth); err != nil {
			return err
		}
		cfg.MakeBranch(b.fn, b.block, frame.breakTarget)
		b.setBlock(b.newBlock())
		b.sealBlock(b.block)
		return nil

	case ast.OCONTINUE:
		var target *ir.Block
		var deferDepth int
		found := false
		for i := len(b.loops) - 1; i >= 0; i-- {
			if !b.loops[i].isSwitch {
				target = b.loops[i].continueTarget
				deferDepth = b.loops[i].deferDepth
				found = true
				break
			}
		}
		if !found {
			return b.err("build: continue outside loop")
		}
		if err := b.runDefersAbove(deferDepth); err != nil {
			return err
		}
		cfg.MakeBranch(b.fn, b.block, target)
		b.setBlock(b.newBlock())
		b.sealBlock(b.block)
		return nil

	case ast.OGOTO:
		blk, ok := b.fn.Labels[s.Sym]
		if !ok {
			blk = b.newBlock()
			b.fn.Labels[s.Sym] = blk
		}
		if depth, ok := b.labelDepth[s.Sym]; ok {
			if err := b.runDefersAbove(depth); err != nil {
				return err
			}
		}
		cfg.MakeBranch(b.fn, b.block, blk)
		b.setBlock(b.newBlock())
		b.sealBlock(b.block)
		return nil

	case ast.OLABEL:
		blk, ok := b.fn.Labels[s.Sym]
		if !ok {
			blk = b.newBlock()
			b.fn.Labels[s.Sym] = blk
		}
		if b.block.Term == nil {
			cfg.MakeBranch(b.fn, b.block, blk)
		}
		b.setBlock(blk)
		if s.Left != nil {
			return b.buildStmt(s.Left)
		}
		return nil

	case ast.ORETURN:
		if b.fn.RetType != nil && b.fn.RetType.IsAggregate() {
			if s.Left == nil {
				return b.err("build: missing return value for aggregate-returning function")
			}
			addr, err := b.buildExpr(s.Left)
			if err != nil {
				return err
			}
			b.emitAggregateCopy(b.sretPtr, addr, b.fn.RetType)
			if err := b.runAllDefers(); err != nil {
				return err
			}
			cfg.MakeReturn(b.fn, b.block, nil)
			b.setBlock(b.newBlock())
			b.sealBlock(b.block)
			return nil
		}

		var val *ir.Op
		if s.Left != nil {
			v, err := b.buildExpr(s.Left)
			if err != nil {
				return err
			}
			v, err = b.buildCast(s.Left.Type, b.fn.RetType, v)
			if err != nil {
				return err
			}
			val = v
		}
		if err := b.runAllDefers(); err != nil {
			return err
		}
		cfg.MakeReturn(b.fn, b.block, val)
		b.setBlock(b.newBlock())
		b.sealBlock(b.block)
		return nil

	case ast.ODEFER:
		b.defers = append(b.defers, deferEntry{stmt: s.Left})
		return nil
	}
	return b.err("build: unsupported statement kind %v", s.Op)
}

func (b *Builder) buildDecl(s *ast.Node) error {
	for _, d := range s.List {
		v := varref.Var{Name: d.Sym, Scope: b.scope}
		b.declareName(d.Sym, v, d.Type)

		if d.IsStatic {
			g, err := b.buildGlobalData(b.fn.Name+"."+d.Sym, d.Type, d.Left)
			if err != nil {
				return err
			}
			g.Linkage = ir.LinkageInternal
			b.vars.AddRef(v, nil, varref.Ref{Kind: varref.KindGlobal, Global: g})
			continue
		}

		if d.Type.IsAggregate() {
			local := b.fn.NewLocal(d.Type, 0)
			b.vars.AddRef(v, nil, varref.Ref{Kind: varref.KindLocal, Local: local})
			if d.Left != nil {
				if err := b.storeInitRecords(local, d.Type, d.Left); err != nil {
					return err
				}
			}
			continue
		}

		var val *ir.Op
		if d.Left != nil {
			rv, err := b.buildExpr(d.Left)
			if err != nil {
				return err
			}
			rv, err = b.buildCast(d.Left.Type, d.Type, rv)
			if err != nil {
				return err
			}
			val = rv
		} else {
			val = b.fn.NewOp(ir.OpUndef, d.Type)
			b.block.CurrentStmt().Append(val)
		}
		b.writeVariable(v, b.block, val)
	}
	return nil
}

func (b *Builder) buildIf(s *ast.Node) error {
	condVal, err := b.buildExpr(s.Left)
	if err != nil {
		return err
	}
	boolVal := b.toBool(condVal, s.Left.Type)
	condEnd := b.block

	hasElse := len(s.List) > 0 && s.List[0] != nil
	thenBlk := b.newBlock()
	mergeBlk := b.newBlock()
	if hasElse {
		elseBlk := b.newBlock()
		cfg.MakeCondBranch(b.fn, condEnd, boolVal, thenBlk, elseBlk)
		b.sealBlock(thenBlk)
		b.sealBlock(elseBlk)

		b.setBlock(thenBlk)
		if err := b.buildStmt(s.Right); err != nil {
			return err
		}
		if b.block.Term == nil {
			cfg.MakeBranch(b.fn, b.block, mergeBlk)
		}

		b.setBlock(elseBlk)
		if err := b.buildStmt(s.List[0]); err != nil {
			return err
		}
		if b.block.Term == nil {
			cfg.MakeBranch(b.fn, b.block, mergeBlk)
		}
	} else {
		cfg.MakeCondBranch(b.fn, condEnd, boolVal, thenBlk, mergeBlk)
		b.sealBlock(thenBlk)

		b.setBlock(thenBlk)
		if err := b.buildStmt(s.Right); err != nil {
			return err
		}
		if b.block.Term == nil {
			cfg.MakeBranch(b.fn, b.block, mergeBlk)
		}
	}
	b.sealBlock(mergeBlk)
	b.setBlock(mergeBlk)
	return nil
}

func (b *Builder) buildWhile(s *ast.Node) error {
	headerBlk := b.newBlock()
	cfg.MakeBranch(b.fn, b.block, headerBlk)

	bodyBlk := b.newBlock()
	afterBlk := b.newBlock()

	b.setBlock(headerBlk)
	condVal, err := b.buildExpr(s.Left)
	if err != nil {
		return err
	}
	boolVal := b.toBool(condVal, s.Left.Type)
	condEnd := b.block
	cfg.MakeCondBranch(b.fn, condEnd, boolVal, bodyBlk, afterBlk)
	b.sealBlock(bodyBlk)

	b.loops = append(b.loops, loopFrame{continueTarget: headerBlk, breakTarget: afterBlk, deferDepth: b.scopeDepth})
	b.setBlock(bodyBlk)
	if err := b.buildStmt(s.Right); err != nil {
		return err
	}
	if b.block.Term == nil {
		cfg.MakeBranch(b.fn, b.block, headerBlk)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.sealBlock(headerBlk)
	b.sealBlock(afterBlk)
	b.setBlock(afterBlk)
	return nil
}

func (b *Builder) buildDoWhile(s *ast.Node) error {
	bodyBlk := b.newBlock()
	cfg.MakeBranch(b.fn, b.block, bodyBlk)

	condBlk := b.newBlock()
	afterBlk := b.newBlock()

	b.loops = append(b.loops, loopFrame{continueTarget: condBlk, breakTarget: afterBlk, deferDepth: b.scopeDepth})
	b.setBlock(bodyBlk)
	if err := b.buildStmt(s.Left); err != nil {
		return err
	}
	if b.block.Term == nil {
		cfg.MakeBranch(b.fn, b.block, condBlk)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.setBlock(condBlk)
	condVal, err := b.buildExpr(s.Right)
	if err != nil {
		return err
	}
	boolVal := b.toBool(condVal, s.Right.Type)
	condEnd := b.block
	cfg.MakeCondBranch(b.fn, condEnd, boolVal, bodyBlk, afterBlk)

	b.sealBlock(bodyBlk)
	b.sealBlock(condBlk)
	b.sealBlock(afterBlk)
	b.setBlock(afterBlk)
	return nil
}

func (b *Builder) buildFor(s *ast.Node) error {
	old := b.enterScope()
	if s.List[0] != nil {
		if err := b.buildStmt(s.List[0]); err != nil {
			return err
		}
	}

	headerBlk := b.newBlock()
	cfg.MakeBranch(b.fn, b.block, headerBlk)

	bodyBlk := b.newBlock()
	postBlk := b.newBlock()
	afterBlk := b.newBlock()

	b.setBlock(headerBlk)
	var boolVal *ir.Op
	if s.List[1] != nil {
		condVal, err := b.buildExpr(s.List[1])
		if err != nil {
			return err
		}
		boolVal = b.toBool(condVal, s.List[1].Type)
	} else {
		boolVal = b.constBool(true)
	}
	condEnd := b.block
	cfg.MakeCondBranch(b.fn, condEnd, boolVal, bodyBlk, afterBlk)
	b.sealBlock(bodyBlk)

	b.loops = append(b.loops, loopFrame{continueTarget: postBlk, breakTarget: afterBlk, deferDepth: b.scopeDepth})
	b.setBlock(bodyBlk)
	if err := b.buildStmt(s.Left); err != nil {
		return err
	}
	if b.block.Term == nil {
		cfg.MakeBranch(b.fn, b.block, postBlk)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.setBlock(postBlk)
	if s.List[2] != nil {
		if _, err := b.buildExpr(s.List[2]); err != nil {
			return err
		}
	}
	if b.block.Term == nil {
		cfg.MakeBranch(b.fn, b.block, headerBlk)
	}

	b.sealBlock(postBlk)
	b.sealBlock(headerBlk)
	b.sealBlock(afterBlk)
	if err := b.leaveScope(old, false); err != nil {
		return err
	}
	b.setBlock(afterBlk)
	return nil
}

func (b *Builder) buildSwitch(s *ast.Node) error {
	condVal, err := b.buildExpr(s.Left)
	if err != nil {
		return err
	}
	dispatchBlk := b.block

	afterBlk := b.newBlock()
	bodyBlk := b.newBlock()
	sw := &switchCollector{pendingSeal: []*ir.Block{bodyBlk}}
	b.switches = append(b.switches, sw)
	b.loops = append(b.loops, loopFrame{breakTarget: afterBlk, isSwitch: true, deferDepth: b.scopeDepth})

	b.setBlock(bodyBlk)
	if err := b.buildStmt(s.Right); err != nil {
		return err
	}
	if b.block.Term == nil {
		cfg.MakeBranch(b.fn, b.block, afterBlk)
	}

	b.loops = b.loops[:len(b.loops)-1]
	b.switches = b.switches[:len(b.switches)-1]

	def := sw.defaultBlk
	if def == nil {
		def = afterBlk
	}
	cfg.MakeSwitch(b.fn, dispatchBlk, condVal, sw.cases, def)

	for _, blk := range sw.pendingSeal {
		b.sealBlock(blk)
	}
	b.sealBlock(afterBlk)
	b.setBlock(afterBlk)
	return nil
}

func (b *Builder) buildCase(s *ast.Node) error {
	if len(b.switches) == 0 {
		return b.err("build: case/default outside switch")
	}
	sw := b.switches[len(b.switches)-1]
	blk := b.newBlock()
	sw.pendingSeal = append(sw.pendingSeal, blk)
	if b.block.Term == nil {
		cfg.MakeBranch(b.fn, b.block, blk)
	}
	if s.Left == nil {
		sw.defaultBlk = blk
	} else {
		sw.cases = append(sw.cases, ir.SwitchCase{Value: s.Left.IntVal, Block: blk})
	}
	b.setBlock(blk)
	return nil
}
