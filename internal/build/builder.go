// Package build implements the IR builder (component E): a recursive
// descent over the typed AST that constructs the IR model while
// maintaining SSA form, phi placement, and CFG edges as it goes.
package build

import (
	"fmt"

	"cc11/internal/ast"
	"cc11/internal/ir"
	"cc11/internal/types"
	"cc11/internal/varref"
)

// loopFrame is one entry of the break/continue stack, delimiting the
// innermost enclosing loop or switch per §4.E "Break/continue".
type loopFrame struct {
	continueTarget *ir.Block // nil for a switch frame: continue skips switches
	breakTarget    *ir.Block
	isSwitch       bool

	// deferDepth is b.scopeDepth as it stood when this loop/switch was
	// entered, so break/continue can replay exactly the defers
	// registered in the scopes the jump leaves (§4.E "Break/continue"
	// triggers the same LIFO replay a scope exit would).
	deferDepth int
}

// deferEntry is one `defer` statement pushed on the scope-delimited
// stack, or a bare scope marker (stmt == nil) pushed by enterScope.
type deferEntry struct {
	stmt *ast.Node
}

// Builder carries the mutable state of one function's construction. A
// fresh Builder is used per function; nothing here is shared across
// functions in a unit.
type Builder struct {
	unit *ir.Unit
	fn   *ir.Function
	td   *types.Target

	vars          *varref.Table
	scope         varref.Scope
	nextScope     varref.Scope
	active        map[string][]varref.Scope   // name -> stack of in-scope declaration scopes
	declaredNames map[varref.Scope][]string   // scope -> names declared directly in it
	declType      map[varref.Var]*types.Type

	// scopeDepth counts currently-open enterScope nestings; it is the
	// stack-position companion to the defer slice's scope markers, and
	// labelDepth (computed once per function, statically, so a forward
	// goto's target depth is known before its scope is reached) is
	// expressed in the same units so a goto can compute how many
	// enclosing scopes it leaves.
	scopeDepth int
	labelDepth map[string]int

	block *ir.Block

	// sretPtr is the hidden destination-pointer parameter an aggregate-
	// returning function receives, matching buildCall's caller-allocates
	// convention: `return expr;` copies into *sretPtr rather than handing
	// back expr's own address.
	sretPtr *ir.Op

	sealed         map[*ir.Block]bool
	incompletePhis map[*ir.Block]map[varref.Var]*ir.Op

	loops    []loopFrame
	switches []*switchCollector
	defers   []deferEntry

	// writes is the var-writes map named in §3: every IR op that
	// (re)defines a source variable, indexed for diagnostics and for
	// recovering a variable's type when a phi must be synthesised for
	// it in a block with no direct reference.
	writes map[varref.Var][]*ir.Op

	globalOf map[string]*ir.Global
}

// NewBuilder creates a Builder for function fn, targeting td, resolving
// other translation-unit globals via globalOf.
func NewBuilder(unit *ir.Unit, fn *ir.Function, td *types.Target, globalOf map[string]*ir.Global) *Builder {
	b := &Builder{
		unit:           unit,
		fn:             fn,
		td:             td,
		vars:           varref.New(),
		active:         make(map[string][]varref.Scope),
		declaredNames:  make(map[varref.Scope][]string),
		declType:       make(map[varref.Var]*types.Type),
		sealed:         make(map[*ir.Block]bool),
		incompletePhis: make(map[*ir.Block]map[varref.Var]*ir.Op),
		writes:         make(map[varref.Var][]*ir.Op),
		globalOf:       globalOf,
	}
	// File-scope globals and sibling functions are visible from every
	// scope without an explicit declaration reaching this function, so
	// they are seeded into the table at file (global) scope up front
	// rather than waiting for a declareName that will never come.
	for name, g := range globalOf {
		v := varref.Var{Name: name, Scope: varref.GlobalScope}
		b.vars.AddRef(v, nil, varref.Ref{Kind: varref.KindGlobal, Global: g})
	}
	return b
}

// BuildFunction lowers decl's body into fn (already created by the
// caller), leaving fn fully finalised (§4.E "Finalisation").
func BuildFunction(unit *ir.Unit, fn *ir.Function, decl *ast.Func, td *types.Target, globalOf map[string]*ir.Global) error {
	b := NewBuilder(unit, fn, td, globalOf)
	b.labelDepth = labelDepths(decl.Body)

	entry := fn.NewBlock()
	b.block = entry
	b.sealBlock(entry)

	paramStmt := entry.NewStmt()
	paramStmt.Params = true
	if decl.Ret.IsAggregate() {
		sret := fn.NewOp(ir.OpMov, types.PointerTo(decl.Ret))
		sret.Flags |= ir.FlagParam
		paramStmt.Append(sret)
		b.sretPtr = sret
	}
	for _, p := range decl.Params {
		b.materialiseParam(paramStmt, p)
	}
	if decl.Variadic {
		fn.Flags |= ir.FuncUsesVarargs
	}

	if decl.Body != nil {
		if err := b.buildStmt(decl.Body); err != nil {
			return err
		}
	}

	return b.finalise(decl)
}

func (b *Builder) materialiseParam(stmt *ir.Stmt, p ast.Param) {
	v := varref.Var{Name: p.Sym, Scope: b.scope}
	b.declareName(p.Sym, v, p.Type)
	if p.Type.IsAggregate() {
		// An aggregate argument is passed as the address of the caller's
		// own object (buildCall evaluates an aggregate-typed argument to
		// its address, per the aggregate-by-address convention); the
		// callee copies it into a local of its own so it has independent,
		// by-value storage matching C parameter-passing semantics.
		incoming := b.fn.NewOp(ir.OpMov, types.PointerTo(p.Type))
		incoming.Flags |= ir.FlagParam
		stmt.Append(incoming)

		local := b.fn.NewLocal(p.Type, ir.LocalFlagParam)
		b.vars.AddRef(v, nil, varref.Ref{Kind: varref.KindLocal, Local: local})

		dst := b.fn.NewOp(ir.OpAddrLocal, types.PointerTo(p.Type))
		dst.Local = local
		stmt.Append(dst)
		b.emitAggregateCopy(dst, incoming, p.Type)
		return
	}
	mov := b.fn.NewOp(ir.OpMov, p.Type)
	mov.Flags |= ir.FlagParam
	stmt.Append(mov)
	b.writeVariable(v, b.block, mov)
}

// declareName registers name as resolving to v within the current
// scope, recording its declared type, per the lookup order of §4.D.
func (b *Builder) declareName(name string, v varref.Var, t *types.Type) {
	b.active[name] = append(b.active[name], v.Scope)
	b.declaredNames[v.Scope] = append(b.declaredNames[v.Scope], name)
	b.declType[v] = t
}

// resolveVar returns the Var that name currently refers to, following
// C's innermost-scope-wins shadowing rule; falls back to file scope for
// globals and function siblings.
func (b *Builder) resolveVar(name string) varref.Var {
	if stack := b.active[name]; len(stack) > 0 {
		return varref.Var{Name: name, Scope: stack[len(stack)-1]}
	}
	return varref.Var{Name: name, Scope: varref.GlobalScope}
}

// enterScope opens a fresh lexical scope (a `{ }` block, or a for-loop
// header) and returns the previous scope id to restore on exit.
func (b *Builder) enterScope() varref.Scope {
	b.nextScope++
	old := b.scope
	b.scope = b.nextScope
	b.scopeDepth++
	b.defers = append(b.defers, deferEntry{}) // scope marker: stmt == nil
	return old
}

// leaveScope pops every declaration made since the matching enterScope
// and restores old as the active scope. If runDefers is true, any
// `defer` statements registered in the closing scope run first, in LIFO
// order, per §4.E "Defer".
func (b *Builder) leaveScope(old varref.Scope, runDefers bool) error {
	if runDefers {
		if err := b.runDefersToScopeMarker(); err != nil {
			return err
		}
	} else {
		b.popDefersToScopeMarker()
	}
	closing := b.scope
	for _, n := range b.declaredNames[closing] {
		if stack := b.active[n]; len(stack) > 0 {
			b.active[n] = stack[:len(stack)-1]
		}
	}
	delete(b.declaredNames, closing)
	b.scope = old
	b.scopeDepth--
	return nil
}

func (b *Builder) popDefersToScopeMarker() {
	for len(b.defers) > 0 {
		top := b.defers[len(b.defers)-1]
		b.defers = b.defers[:len(b.defers)-1]
		if top.stmt == nil {
			return
		}
	}
}

// runDefersToScopeMarker replays, in LIFO order, every `defer` statement
// registered since the matching enterScope, per §4.E "Defer: LIFO
// replay at scope exit". A `break`/`continue`/`goto` that leaves the
// scope first runs its own defers live via runDefersAbove before
// branching away; by the time the Go-level recursion unwinds back here,
// the builder's insertion point has moved to the jump's target, so this
// second pass over the same statements lands in the abandoned block and
// is discarded by dead-block pruning rather than double-counted.
func (b *Builder) runDefersToScopeMarker() error {
	for len(b.defers) > 0 {
		top := b.defers[len(b.defers)-1]
		b.defers = b.defers[:len(b.defers)-1]
		if top.stmt == nil {
			return nil
		}
		if err := b.buildStmt(top.stmt); err != nil {
			return err
		}
	}
	return nil
}

// runAllDefers replays every defer currently pending, for a `return`
// that exits every enclosing scope at once.
func (b *Builder) runAllDefers() error {
	for i := len(b.defers) - 1; i >= 0; i-- {
		if b.defers[i].stmt == nil {
			continue
		}
		if err := b.buildStmt(b.defers[i].stmt); err != nil {
			return err
		}
	}
	return nil
}

// runDefersAbove replays, in LIFO order, every defer statement
// registered at a scope deeper than targetDepth — the scopes a
// break/continue/goto leaves on its way to a shallower target. Like
// runAllDefers it only reads the defer stack, never pops it: the
// scopes themselves are still closed normally as the Go-level recursion
// unwinds back through their own enterScope/leaveScope pair once the
// jump's target block is reached, replaying the same statements again
// into the now-unreachable block that cfg.PruneUnreachable discards.
func (b *Builder) runDefersAbove(targetDepth int) error {
	toExit := b.scopeDepth - targetDepth
	for i := len(b.defers) - 1; i >= 0 && toExit > 0; i-- {
		e := b.defers[i]
		if e.stmt == nil {
			toExit--
			continue
		}
		if err := b.buildStmt(e.stmt); err != nil {
			return err
		}
	}
	return nil
}

// labelDepths walks body once, statically recording every label's
// lexical scope nesting depth in the same units b.scopeDepth counts at
// build time (one per enclosing block or for-loop header), so a goto's
// target depth is known up front regardless of whether the jump is
// forward or backward. This assumes the target label lies on the
// goto's own scope chain, true for the early-exit/cleanup idiom the
// defer-replay rule exists for; a goto crossing into an unrelated
// sibling branch's label (legal but rare C, since labels have function
// scope) can still under- or over-replay.
func labelDepths(body *ast.Node) map[string]int {
	out := make(map[string]int)
	var walk func(n *ast.Node, depth int)
	walk = func(n *ast.Node, depth int) {
		if n == nil {
			return
		}
		switch n.Op {
		case ast.OBLOCK:
			for _, st := range n.List {
				walk(st, depth+1)
			}
		case ast.OFOR:
			walk(n.List[0], depth+1)
			walk(n.Left, depth+1)
			walk(n.List[2], depth+1)
		case ast.OIF:
			walk(n.Right, depth)
			if len(n.List) > 0 {
				walk(n.List[0], depth)
			}
		case ast.OWHILE:
			walk(n.Right, depth)
		case ast.ODOWHILE:
			walk(n.Left, depth)
		case ast.OSWITCH:
			walk(n.Right, depth)
		case ast.OLABEL:
			out[n.Sym] = depth
			walk(n.Left, depth)
		}
	}
	walk(body, 0)
	return out
}

func (b *Builder) recordWrite(v varref.Var, op *ir.Op) {
	b.writes[v] = append(b.writes[v], op)
}

func (b *Builder) err(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func (b *Builder) setBlock(blk *ir.Block) { b.block = blk }
func (b *Builder) newBlock() *ir.Block    { return b.fn.NewBlock() }
