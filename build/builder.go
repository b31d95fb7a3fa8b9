// Package build lowers a golang.org/x/tools/go/ssa program into a
// cfa.AutomataSystem, the Go-native counterpart of gazer's
// ModuleToCfa/FunctionToCfa/BlocksToCfa: one Cfa per function, with
// every natural loop recursively collapsed into its own nested Cfa so
// that what's left at each level is the acyclic graph bmc's
// topological reachability sweep needs.
package build

import (
	"fmt"
	"go/token"

	"golang.org/x/tools/go/ssa"

	"gobmc/cfa"
	"gobmc/expr"
	"gobmc/memory"
	"gobmc/translate"
)

// Builder drives the whole-program lowering. Every call site to a
// user function, and every bounded unwinding step of a loop, gets its
// own freshly-built Cfa rather than sharing one across call sites: bmc
// can then treat each CallTransition's callee as already uniquely
// scoped, with no cross-call-site variable renaming to do.
type Builder struct {
	Sys     *cfa.AutomataSystem
	Mem     memory.Model
	Mode    translate.Mode
	FileSet *token.FileSet

	// Unwind caps how many times a loop's collapsed Cfa is chained via
	// CallTransition before a still-looping path is simply left
	// without a further transition. Zero means DefaultUnwind.
	Unwind int

	exprBuilder expr.Builder

	building   map[*ssa.Function]bool
	errLocs    map[*cfa.Cfa]*cfa.Location
	loopNumber map[*ssa.BasicBlock]int
	loopCount  int
	callSeq    int
}

// DefaultUnwind is used when Builder.Unwind is left at its zero value.
const DefaultUnwind = 10

func (bd *Builder) unwindBound() int {
	if bd.Unwind > 0 {
		return bd.Unwind
	}
	return DefaultUnwind
}

type loopResult struct {
	cfa     *cfa.Cfa
	liveIn  []ssa.Value
	liveOut []ssa.Value

	// extCarry maps a liveIn value that is a header phi's
	// outside-the-loop edge value to the positions (normally one) of
	// the carry output(s) that should replace it as the argument on
	// every unwinding step after the first.
	extCarry map[ssa.Value][]int
	numCarry int
}

// NewBuilder constructs a Builder writing every Cfa into sys, whose
// expr.Context every lowered formula shares. unwind bounds how many
// times a loop is unrolled; 0 selects DefaultUnwind.
func NewBuilder(sys *cfa.AutomataSystem, mem memory.Model, mode translate.Mode, fset *token.FileSet, unwind int) *Builder {
	return &Builder{
		Sys:         sys,
		Mem:         mem,
		Mode:        mode,
		FileSet:     fset,
		Unwind:      unwind,
		exprBuilder: expr.NewFoldingBuilder(sys.Context()),
		building:    make(map[*ssa.Function]bool),
		errLocs:     make(map[*cfa.Cfa]*cfa.Location),
	}
}

// BuildFunction lowers fn into a fresh Cfa every time it is called. A
// function referenced from two call sites gets two separate Cfa
// instances rather than one shared one: each CallTransition's callee
// then owns its own Inputs/Outputs/Locals, so the bmc encoder never
// has to rename variables to keep two call sites from aliasing each
// other's internal state. Direct or mutual recursion is still rejected
// via the building stack, independent of this per-call-site copying.
func (bd *Builder) BuildFunction(fn *ssa.Function) (*cfa.Cfa, error) {
	if bd.building[fn] {
		return nil, fmt.Errorf("build: %s is recursive; recursive functions are not supported", fn.Name())
	}
	bd.building[fn] = true
	defer delete(bd.building, fn)

	name := fmt.Sprintf("%s#%d", qualifiedName(fn), bd.nextCallSeq())
	c, err := bd.Sys.CreateCfa(name)
	if err != nil {
		return nil, err
	}

	sc := newScopeEnv(bd.exprBuilder)
	for _, p := range fn.Params {
		t, err := translate.TranslateType(c.Context(), bd.Mem, p.Type())
		if err != nil {
			return nil, err
		}
		iv, err := c.CreateInput(p.Name(), t)
		if err != nil {
			return nil, err
		}
		sc.bind(p, iv)
	}
	if len(fn.FreeVars) > 0 {
		return nil, fmt.Errorf("build: %s is a closure; free variables are not supported", fn.Name())
	}

	if len(fn.Blocks) == 0 {
		// external/declared-only function: entry falls straight to exit.
		_, err := c.CreateAssignTransition(c.Entry(), c.Exit(), bd.exprBuilder.True(), nil)
		return c, err
	}

	li := ComputeLoopInfo(fn)
	r := newRegion(bd, c, fn, li, filteredBlocks(fn.Blocks, li, nil), nil, sc)
	if err := r.build(); err != nil {
		return nil, err
	}
	_, err = c.CreateAssignTransition(c.Entry(), r.loc[fn.Blocks[0]], bd.exprBuilder.True(), nil)
	return c, err
}

func (bd *Builder) nextCallSeq() int {
	n := bd.callSeq
	bd.callSeq++
	return n
}

// position resolves v's source position through FileSet, if any — a
// parameter or other position-less value yields the zero
// token.Position, which trace treats as "no source location" rather
// than as an error.
func (bd *Builder) position(v ssa.Value) token.Position {
	if bd.FileSet == nil {
		return token.Position{}
	}
	pos := v.Pos()
	if !pos.IsValid() {
		return token.Position{}
	}
	return bd.FileSet.Position(pos)
}

func qualifiedName(fn *ssa.Function) string {
	if fn.Pkg != nil {
		return fn.Pkg.Pkg.Path() + "." + fn.Name()
	}
	return fn.Name()
}

func (bd *Builder) errorLocation(c *cfa.Cfa) *cfa.Location {
	if loc, ok := bd.errLocs[c]; ok {
		return loc
	}
	loc := c.CreateErrorLocation()
	bd.errLocs[c] = loc
	return loc
}

// wireUserCall lowers a call to a statically-known user function as a
// CallTransition into a fresh Cfa built for this call site. Only
// functions with at most one return value are supported — the engine
// has no tuple type to carry a multi-value result across a
// CallTransition's binding list.
func (bd *Builder) wireUserCall(r *region, inst *ssa.Call, cur *cfa.Location) (*cfa.Location, error) {
	callee := inst.Call.StaticCallee()
	if callee == nil {
		return nil, unsupportedBuild(inst, "dynamic dispatch is not supported")
	}
	calleeCfa, err := bd.BuildFunction(callee)
	if err != nil {
		return nil, err
	}
	if len(calleeCfa.Outputs()) > 1 {
		return nil, unsupportedBuild(inst, "multi-value return from %s is not supported", callee.Name())
	}

	args := make([]expr.Expr, len(inst.Call.Args))
	for i, a := range inst.Call.Args {
		v, err := r.tr.Operand(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	var resultTargets []*expr.Variable
	if len(calleeCfa.Outputs()) == 1 {
		rv, err := r.cfa.CreateLocal(inst.Name(), calleeCfa.Outputs()[0].Type())
		if err != nil {
			return nil, err
		}
		resultTargets = []*expr.Variable{rv}
		r.sc.bind(inst, rv)
	}

	next := r.cfa.CreateLocation()
	if _, err := r.cfa.CreateCallTransition(cur, next, bd.exprBuilder.True(), calleeCfa, args, resultTargets); err != nil {
		return nil, err
	}
	return next, nil
}

// wireLoop chains bd.unwindBound() CallTransitions for l, one per
// bounded unwinding step. Each step builds its OWN fresh nested Cfa
// for the loop body (buildLoopCfa is never memoized across steps), so
// a call transition's callee is never shared by more than one call
// site and the bmc encoder can treat its internal formula as already
// uniquely scoped. Each step's selector output picks either a real
// recorded exit (wired as a guarded AssignTransition into the outer
// region) or the reserved continue value, which guards whether the
// next step's call happens at all. A path still selecting continue
// after the last step is left with no further transition — ordinary
// bounded-unwinding under-approximation, not a build error.
func (bd *Builder) wireLoop(r *region, l *Loop) error {
	idx := bd.loopIndex(l)
	continueIdx := int64(len(l.Exits))

	firstRes, err := bd.buildLoopCfa(r.fn, r.li, l, 0)
	if err != nil {
		return err
	}
	args := make([]expr.Expr, len(firstRes.liveIn))
	for i, v := range firstRes.liveIn {
		val, err := r.tr.Operand(v)
		if err != nil {
			return err
		}
		args[i] = val
	}
	invariantArgs := append([]expr.Expr(nil), args...)

	cur := r.loc[l.Header]
	guard := bd.exprBuilder.True()

	for step := 0; step < bd.unwindBound(); step++ {
		res := firstRes
		if step > 0 {
			res, err = bd.buildLoopCfa(r.fn, r.li, l, step)
			if err != nil {
				return err
			}
		}
		outputs := res.cfa.Outputs()

		selVar, err := r.cfa.CreateLocal(loopSelectorLocalName(l, idx, step), outputs[0].Type())
		if err != nil {
			return err
		}
		resultTargets := make([]*expr.Variable, len(outputs))
		resultTargets[0] = selVar

		liveOutVars := make([]*expr.Variable, len(res.liveOut))
		for i, v := range res.liveOut {
			rv, err := r.cfa.CreateLocal(loopOutputLocalName(l, idx, step, v), outputs[1+i].Type())
			if err != nil {
				return err
			}
			resultTargets[1+i] = rv
			liveOutVars[i] = rv
		}

		base := 1 + len(res.liveOut)
		carryVars := make([]*expr.Variable, res.numCarry)
		for i := 0; i < res.numCarry; i++ {
			rv, err := r.cfa.CreateLocal(carryLocalName(l, idx, step, i), outputs[base+i].Type())
			if err != nil {
				return err
			}
			resultTargets[base+i] = rv
			carryVars[i] = rv
		}

		post := r.cfa.CreateLocation()
		if _, err := r.cfa.CreateCallTransition(cur, post, guard, res.cfa, args, resultTargets); err != nil {
			return err
		}

		for i, v := range res.liveOut {
			r.sc.bind(v, liveOutVars[i])
		}

		for i, exitBlock := range l.Exits {
			target, ok := r.loc[exitBlock]
			if !ok {
				continue
			}
			sel := bd.exprBuilder.VarRef(selVar)
			eqGuard, err := bd.exprBuilder.Eq(sel, bd.exprBuilder.IntLit(int64(i)))
			if err != nil {
				return err
			}
			assigns, err := bd.exitPhiAssignments(r, l, exitBlock)
			if err != nil {
				return err
			}
			if _, err := r.cfa.CreateAssignTransition(post, target, eqGuard, assigns); err != nil {
				return err
			}
		}

		nextArgs := make([]expr.Expr, len(res.liveIn))
		for i, v := range res.liveIn {
			if idxs, ok := res.extCarry[v]; ok && len(idxs) > 0 {
				nextArgs[i] = bd.exprBuilder.VarRef(carryVars[idxs[0]])
			} else {
				nextArgs[i] = invariantArgs[i]
			}
		}

		sel := bd.exprBuilder.VarRef(selVar)
		nextGuard, err := bd.exprBuilder.Eq(sel, bd.exprBuilder.IntLit(continueIdx))
		if err != nil {
			return err
		}

		args = nextArgs
		guard = nextGuard
		cur = post
	}
	return nil
}

// exitPhiAssignments resolves phis in exitBlock that merge a value
// coming from inside l, assuming (as is true of the loop shapes go/ssa
// emits for ordinary for/while statements) that at most one of
// exitBlock's predecessors lies inside l.
func (bd *Builder) exitPhiAssignments(r *region, l *Loop, exitBlock *ssa.BasicBlock) ([]cfa.Assignment, error) {
	inLoop := make(map[*ssa.BasicBlock]bool, len(l.Blocks))
	for _, b := range l.Blocks {
		inLoop[b] = true
	}
	predIdx := -1
	for i, p := range exitBlock.Preds {
		if inLoop[p] {
			predIdx = i
			break
		}
	}
	if predIdx < 0 {
		return nil, nil
	}
	var assigns []cfa.Assignment
	for _, instr := range exitBlock.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		edgeVal := phi.Edges[predIdx]
		rv, ok := r.sc.lookup(edgeVal)
		if !ok {
			continue
		}
		pv, ok := r.sc.lookup(phi)
		if !ok {
			nv, err := r.cfa.CreateLocal(phi.Name(), rv.Type())
			if err != nil {
				return nil, err
			}
			r.sc.bind(phi, nv)
			pv = nv
		}
		assigns = append(assigns, cfa.Assignment{Variable: pv, Value: bd.exprBuilder.VarRef(rv)})
	}
	return assigns, nil
}

// buildLoopCfa lowers l's body into a fresh Cfa for one bounded
// unwinding step. It is never memoized: wireLoop calls it once per
// step so that every CallTransition it issues points at a Cfa used by
// exactly one call site, keeping that callee's internal variables from
// ever needing to be shared (and hence renamed) across steps.
func (bd *Builder) buildLoopCfa(fn *ssa.Function, li *LoopInfo, l *Loop, step int) (*loopResult, error) {
	liveIn := liveInValues(l.Blocks)
	liveOut := liveOutValues(l.Blocks, fn.Blocks)

	idx := bd.loopIndex(l)
	// The (idx, step) pair alone is not unique across rebuilds: a loop
	// nested inside another gets rebuilt once per outer unwinding step,
	// each time starting step back at 0, so the call sequence number is
	// folded in to keep every generated Cfa name globally distinct.
	name := fmt.Sprintf("%s/loop%d#%d.%d", qualifiedName(fn), idx, step, bd.nextCallSeq())
	loopCfa, err := bd.Sys.CreateCfa(name)
	if err != nil {
		return nil, err
	}

	sc := newScopeEnv(bd.exprBuilder)
	for i, v := range liveIn {
		t, err := translate.TranslateType(loopCfa.Context(), bd.Mem, v.Type())
		if err != nil {
			return nil, err
		}
		iv, err := loopCfa.CreateInput(fmt.Sprintf("in%d_%s", i, v.Name()), t)
		if err != nil {
			return nil, err
		}
		sc.bind(v, iv)
	}

	blockSet := make(map[*ssa.BasicBlock]bool, len(l.Blocks))
	for _, b := range l.Blocks {
		blockSet[b] = true
	}
	headerPhis := collectHeaderPhis(l.Header)
	carryVars := make([]*expr.Variable, len(headerPhis))
	extCarry := make(map[ssa.Value][]int)
	for i, phi := range headerPhis {
		t, err := translate.TranslateType(loopCfa.Context(), bd.Mem, phi.Type())
		if err != nil {
			return nil, err
		}
		cv, err := loopCfa.CreateLocal(fmt.Sprintf("carry%d_%s", i, phi.Name()), t)
		if err != nil {
			return nil, err
		}
		carryVars[i] = cv

		for j, p := range l.Header.Preds {
			if !blockSet[p] {
				ext := phi.Edges[j]
				extCarry[ext] = append(extCarry[ext], i)
				break
			}
		}
	}

	r := newRegion(bd, loopCfa, fn, li, filteredBlocks(l.Blocks, li, l.Header), l.Header, sc)
	r.exitLoc = loopCfa.Exit()
	r.exits = l.Exits
	r.headerPhis = headerPhis
	r.carryVars = carryVars
	selVar, err := loopCfa.CreateLocal(LoopOutputSelectorName, loopCfa.Context().IntType())
	if err != nil {
		return nil, err
	}
	r.selVar = selVar
	if err := r.build(); err != nil {
		return nil, err
	}

	if err := bd.seedLoopHeader(loopCfa, l, r, sc); err != nil {
		return nil, err
	}

	loopCfa.AddOutput(selVar)
	for _, v := range liveOut {
		rv, ok := sc.lookup(v)
		if !ok {
			return nil, fmt.Errorf("build: %s never bound inside loop %s", v.Name(), name)
		}
		loopCfa.AddOutput(rv)
	}
	for _, cv := range carryVars {
		loopCfa.AddOutput(cv)
	}

	res := &loopResult{cfa: loopCfa, liveIn: liveIn, liveOut: liveOut, extCarry: extCarry, numCarry: len(carryVars)}
	return res, nil
}

// collectHeaderPhis returns header's phi instructions, which by go/ssa
// construction always lead a block's instruction list.
func collectHeaderPhis(header *ssa.BasicBlock) []*ssa.Phi {
	var out []*ssa.Phi
	for _, instr := range header.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		out = append(out, phi)
	}
	return out
}

// seedLoopHeader wires the loop Cfa's Entry into its header's Location,
// binding every header phi whose value on loop entry comes from
// outside the loop to the corresponding Input.
func (bd *Builder) seedLoopHeader(loopCfa *cfa.Cfa, l *Loop, r *region, sc *scopeEnv) error {
	blockSet := make(map[*ssa.BasicBlock]bool, len(l.Blocks))
	for _, b := range l.Blocks {
		blockSet[b] = true
	}
	var assigns []cfa.Assignment
	for _, instr := range l.Header.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		extIdx := -1
		for j, p := range l.Header.Preds {
			if !blockSet[p] {
				extIdx = j
				break
			}
		}
		if extIdx < 0 {
			continue
		}
		ext := phi.Edges[extIdx]
		rv, ok := sc.lookup(ext)
		if !ok {
			return fmt.Errorf("build: loop entry value %s was not captured as a live-in", ext.Name())
		}
		pv, ok := sc.lookup(phi)
		if !ok {
			nv, err := loopCfa.CreateLocal(phi.Name(), rv.Type())
			if err != nil {
				return err
			}
			sc.bind(phi, nv)
			pv = nv
		}
		assigns = append(assigns, cfa.Assignment{Variable: pv, Value: bd.exprBuilder.VarRef(rv)})
	}
	_, err := loopCfa.CreateAssignTransition(loopCfa.Entry(), r.loc[l.Header], bd.exprBuilder.True(), assigns)
	return err
}

// loopIndex gives each distinct loop header a stable small integer,
// used only to keep generated Cfa/local names readable and unique.
func (bd *Builder) loopIndex(l *Loop) int {
	if idx, ok := bd.loopNumber[l.Header]; ok {
		return idx
	}
	idx := bd.loopCount
	bd.loopCount++
	if bd.loopNumber == nil {
		bd.loopNumber = make(map[*ssa.BasicBlock]int)
	}
	bd.loopNumber[l.Header] = idx
	return idx
}

func loopSelectorLocalName(l *Loop, idx, step int) string {
	return fmt.Sprintf("loop%d_%s#%d", idx, LoopOutputSelectorName, step)
}

func loopOutputLocalName(l *Loop, idx, step int, v ssa.Value) string {
	return fmt.Sprintf("loop%d_out_%s#%d", idx, v.Name(), step)
}

func carryLocalName(l *Loop, idx, step, i int) string {
	return fmt.Sprintf("loop%d_carry%d#%d", idx, i, step)
}
