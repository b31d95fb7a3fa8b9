package build

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"

	"gobmc/cfa"
	"gobmc/expr"
	"gobmc/translate"
)

// scopeEnv is the translate.Resolver for one Cfa's own namespace: a
// function gets one, and every loop nested inside it gets its own,
// parametric one seeded from the loop's live-in values — exactly the
// isolation a CallTransition's argument/result bindings are supposed
// to provide.
type scopeEnv struct {
	vars map[ssa.Value]*expr.Variable
	b    expr.Builder
}

func newScopeEnv(b expr.Builder) *scopeEnv {
	return &scopeEnv{vars: make(map[ssa.Value]*expr.Variable), b: b}
}

func (e *scopeEnv) Value(v ssa.Value) (expr.Expr, error) {
	vr, ok := e.vars[v]
	if !ok {
		return expr.Invalid, fmt.Errorf("build: %s has no binding in this Cfa's scope", v.Name())
	}
	return e.b.VarRef(vr), nil
}

func (e *scopeEnv) bind(v ssa.Value, vr *expr.Variable) { e.vars[v] = vr }

func (e *scopeEnv) lookup(v ssa.Value) (*expr.Variable, bool) {
	vr, ok := e.vars[v]
	return vr, ok
}

// region is one Cfa's worth of go/ssa basic blocks being lowered: the
// whole body of a loop-free function, or the body of exactly one
// natural loop once its own nested loops have themselves been
// collapsed. It is the direct generalization of gazer's BlocksToCfa,
// parametrized over where a loop-internal branch to an exit block
// should go (a real Location at the top level has none; a nested
// loop's region routes it to that loop's own Cfa.Exit()).
type region struct {
	bd     *Builder
	cfa    *cfa.Cfa
	fn     *ssa.Function
	li     *LoopInfo
	blocks []*ssa.BasicBlock

	blockSet map[*ssa.BasicBlock]bool
	exclude  *ssa.BasicBlock // header of the loop this region itself builds, or nil

	exitLoc *cfa.Location     // where an exit edge out of this region lands, or nil at top level
	exits   []*ssa.BasicBlock // ordered exit blocks, valid only when exitLoc != nil
	selVar  *expr.Variable    // selector local written before taking an exit or continue edge

	// headerPhis/carryVars are set only while building a loop's own
	// region (exitLoc != nil): the phis at exclude and the per-iteration
	// output each one's latch-edge value is written to, so a genuine
	// back edge never closes a cycle inside this Cfa — it instead exits
	// to exitLoc carrying the values the next bounded unwinding needs.
	headerPhis []*ssa.Phi
	carryVars  []*expr.Variable

	loc     map[*ssa.BasicBlock]*cfa.Location
	retVars []*expr.Variable // function-level regions only, populated lazily on first Return

	sc *scopeEnv
	tr *translate.Translator
}

func newRegion(bd *Builder, c *cfa.Cfa, fn *ssa.Function, li *LoopInfo, blocks []*ssa.BasicBlock, exclude *ssa.BasicBlock, sc *scopeEnv) *region {
	blockSet := make(map[*ssa.BasicBlock]bool, len(blocks))
	for _, b := range blocks {
		blockSet[b] = true
	}
	return &region{
		bd: bd, cfa: c, fn: fn, li: li, blocks: blocks, blockSet: blockSet, exclude: exclude,
		loc: make(map[*ssa.BasicBlock]*cfa.Location, len(blocks)),
		sc:  sc,
		tr:  translate.New(c.Context(), bd.exprBuilder, bd.Mem, bd.Mode, bd.FileSet, sc),
	}
}

// isBackEdge reports whether from->to is a loop back edge: to is some
// loop's header and from is a member of that same loop's body. This
// holds regardless of whether that loop is the one this region builds
// directly (exclude == to) or one being collapsed into a nested Cfa —
// either way the cycle it closes must not feed topoSort's indegree
// count.
func (r *region) isBackEdge(from, to *ssa.BasicBlock) bool {
	l, ok := r.li.LoopFor(to)
	if !ok {
		return false
	}
	for _, lb := range l.Blocks {
		if lb == from {
			return true
		}
	}
	return false
}

// build lowers every block in the region in topological order,
// collapsing any strictly-nested loop header it encounters into a
// single CallTransition first.
func (r *region) build() error {
	for _, b := range r.blocks {
		r.loc[b] = r.cfa.CreateLocation()
	}
	order := topoSort(r.blocks, r.isBackEdge)

	for _, b := range order {
		if l, ok := r.li.LoopFor(b); ok && b != r.exclude {
			if err := r.bd.wireLoop(r, l); err != nil {
				return err
			}
			continue
		}
		cur, err := r.buildBlockBody(b, r.loc[b])
		if err != nil {
			return err
		}
		if cur == nil {
			continue // this path dead-ended at an error sink
		}
		if err := r.wireTerminator(b, cur); err != nil {
			return err
		}
	}
	return nil
}

// buildBlockBody chains one Location/AssignTransition pair per
// value-producing instruction in b, starting from entry. It returns
// nil if the block's path dead-ends at a recognized error sink.
func (r *region) buildBlockBody(b *ssa.BasicBlock, entry *cfa.Location) (*cfa.Location, error) {
	cur := entry
	for _, instr := range b.Instrs {
		switch inst := instr.(type) {
		case *ssa.Phi, *ssa.DebugRef, *ssa.If, *ssa.Jump, *ssa.Return:
			continue
		case *ssa.Call:
			name := translate.CalleeName(inst)
			switch {
			case translate.IsErrorSink(name):
				errLoc := r.bd.errorLocation(r.cfa)
				if _, err := r.cfa.CreateAssignTransition(cur, errLoc, r.tr.Builder.True(), nil); err != nil {
					return nil, err
				}
				return nil, nil
			case name != "" && !translate.IsNondet(name) && !translate.IsDebugAnnotation(name):
				next, err := r.bd.wireUserCall(r, inst, cur)
				if err != nil {
					return nil, err
				}
				cur = next
			default:
				et, err := translate.TranslateType(r.cfa.Context(), r.bd.Mem, inst.Type())
				if err != nil {
					return nil, err
				}
				val, err := r.translateValue(inst, et)
				if err != nil {
					return nil, err
				}
				next, err := r.bindResult(inst, val, cur)
				if err != nil {
					return nil, err
				}
				cur = next
			}
		case *ssa.Store:
			next, err := r.buildStore(inst, cur)
			if err != nil {
				return nil, err
			}
			cur = next
		default:
			v, ok := instr.(ssa.Value)
			if !ok {
				continue // e.g. *ssa.RunDefers, *ssa.MapUpdate — no binding needed
			}
			et, err := translate.TranslateType(r.cfa.Context(), r.bd.Mem, v.Type())
			if err != nil {
				return nil, err
			}
			val, err := r.translateValue(instr, et)
			if err != nil {
				return nil, err
			}
			next, err := r.bindResult(v, val, cur)
			if err != nil {
				return nil, err
			}
			cur = next
		}
	}
	return cur, nil
}

// translateValue lowers instr through r.tr.Translate, degrading a
// *translate.UnsupportedError into a fresh Undef of fallbackType
// instead of aborting the build: per spec, an unsupported value-level
// construct leaves the defined value unconstrained rather than killing
// the whole query, reserving a hard abort for control flow (wireEdge's
// own guard/phi translation calls bypass this helper entirely).
func (r *region) translateValue(instr ssa.Instruction, fallbackType expr.Type) (expr.Expr, error) {
	val, err := r.tr.Translate(instr)
	if err == nil {
		return val, nil
	}
	var unsup *translate.UnsupportedError
	if !errors.As(err, &unsup) {
		return expr.Invalid, err
	}
	log.WithField("function", r.fn.String()).Warn(unsup)
	return r.tr.Builder.Undef(fallbackType), nil
}

// buildStore lowers a *ssa.Store. *ssa.Store carries no result value of
// its own, so it never goes through bindResult: under ArrayModel the
// translated value is the whole updated memory array, which gets bound
// to a fresh array variable via Mem.Rebind so later loads on this path
// see the write; under HavocModel, which tracks no array, Rebind
// reports false and the store's only remaining effect — its operands
// having been translated at all, e.g. for their side effects on nested
// calls — is none, so the block simply continues from cur unchanged.
func (r *region) buildStore(inst *ssa.Store, cur *cfa.Location) (*cfa.Location, error) {
	val, err := r.tr.Translate(inst)
	if err != nil {
		return nil, err
	}
	elemType, err := translate.TranslateType(r.cfa.Context(), r.bd.Mem, inst.Val.Type())
	if err != nil {
		return nil, err
	}
	newVar, ok := r.bd.Mem.Rebind(r.cfa.Context(), elemType)
	if !ok {
		return cur, nil
	}
	next := r.cfa.CreateLocation()
	if _, err := r.cfa.CreateAssignTransition(cur, next, r.tr.Builder.True(), []cfa.Assignment{{Variable: newVar, Value: val}}); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *region) bindResult(v ssa.Value, val expr.Expr, cur *cfa.Location) (*cfa.Location, error) {
	lv, err := r.cfa.CreateLocal(v.Name(), r.cfa.Context().Type(val))
	if err != nil {
		return nil, err
	}
	next := r.cfa.CreateLocation()
	assign := cfa.Assignment{Variable: lv, Value: val, Pos: r.bd.position(v)}
	if _, err := r.cfa.CreateAssignTransition(cur, next, r.tr.Builder.True(), []cfa.Assignment{assign}); err != nil {
		return nil, err
	}
	r.sc.bind(v, lv)
	return next, nil
}

func (r *region) wireTerminator(b *ssa.BasicBlock, cur *cfa.Location) error {
	term := b.Instrs[len(b.Instrs)-1]
	switch inst := term.(type) {
	case *ssa.Return:
		if err := r.wireReturn(inst, cur); err != nil {
			return err
		}
		return nil
	case *ssa.If:
		cond, err := r.tr.Cond(inst.Cond)
		if err != nil {
			return err
		}
		notCond, err := r.tr.Builder.Not(cond)
		if err != nil {
			return err
		}
		if err := r.wireEdge(b, b.Succs[0], cur, cond); err != nil {
			return err
		}
		return r.wireEdge(b, b.Succs[1], cur, notCond)
	case *ssa.Jump:
		return r.wireEdge(b, b.Succs[0], cur, r.tr.Builder.True())
	default:
		return unsupportedBuild(term, "unsupported terminator instruction")
	}
}

const (
	// FunctionReturnValueName names a function's sole return-value
	// output, or the prefix for each of several.
	FunctionReturnValueName = "RET_VAL"
	// LoopOutputSelectorName names the local a collapsed loop's call
	// site reads to learn which recorded exit block to resume at.
	LoopOutputSelectorName = "__output_selector"
)

func (r *region) wireReturn(inst *ssa.Return, cur *cfa.Location) error {
	if r.retVars == nil && len(inst.Results) > 0 {
		vars := make([]*expr.Variable, len(inst.Results))
		for i, res := range inst.Results {
			t, err := translate.TranslateType(r.cfa.Context(), r.bd.Mem, res.Type())
			if err != nil {
				return err
			}
			name := FunctionReturnValueName
			if len(inst.Results) > 1 {
				name = fmt.Sprintf("%s#%d", FunctionReturnValueName, i)
			}
			vr, err := r.cfa.CreateLocal(name, t)
			if err != nil {
				return err
			}
			r.cfa.AddOutput(vr)
			vars[i] = vr
		}
		r.retVars = vars
	}
	var assigns []cfa.Assignment
	for i, res := range inst.Results {
		val, err := r.tr.Operand(res)
		if err != nil {
			return err
		}
		assigns = append(assigns, cfa.Assignment{Variable: r.retVars[i], Value: val})
	}
	_, err := r.cfa.CreateAssignTransition(cur, r.cfa.Exit(), r.tr.Builder.True(), assigns)
	return err
}

// wireEdge wires one control-flow edge from inside the region. If to
// still belongs to this region (the common case, and always true at
// the function's top level), this binds to's phis for this
// predecessor and lands on its Location. If to falls outside the
// region, it must be one of this region's recorded loop exits — this
// happens only inside a collapsed loop's own region — and the edge
// instead records which exit was taken and leaves via the region's
// exitLoc (the loop Cfa's own Exit()).
func (r *region) wireEdge(from, to *ssa.BasicBlock, cur *cfa.Location, guard expr.Expr) error {
	if r.exitLoc != nil && to == r.exclude {
		return r.wireContinueEdge(from, cur, guard)
	}
	if target, ok := r.loc[to]; ok {
		assigns, err := r.phiAssignments(from, to)
		if err != nil {
			return err
		}
		_, err = r.cfa.CreateAssignTransition(cur, target, guard, assigns)
		return err
	}
	if r.exitLoc == nil {
		return fmt.Errorf("build: block %s branches outside its function", to)
	}
	idx := -1
	for i, e := range r.exits {
		if e == to {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("build: block %s branches to %s, which is not a recorded loop exit", from, to)
	}
	assigns := []cfa.Assignment{{Variable: r.selVar, Value: r.tr.Builder.IntLit(int64(idx))}}
	_, err := r.cfa.CreateAssignTransition(cur, r.exitLoc, guard, assigns)
	return err
}

// wireContinueEdge handles a genuine loop back edge (from, a block
// inside the loop, branching to its own header). Rather than closing a
// cycle inside this Cfa, it records the header phis' values along this
// edge into carryVars and leaves via exitLoc with the reserved
// continue selector (one past the last real exit index) — the call
// site reads this to feed the next bounded unwinding step.
func (r *region) wireContinueEdge(from *ssa.BasicBlock, cur *cfa.Location, guard expr.Expr) error {
	predIndex := -1
	for i, p := range r.exclude.Preds {
		if p == from {
			predIndex = i
			break
		}
	}
	if predIndex < 0 {
		return fmt.Errorf("build: %s is not a predecessor of loop header %s", from, r.exclude)
	}
	assigns := make([]cfa.Assignment, 0, len(r.headerPhis)+1)
	for i, phi := range r.headerPhis {
		val, err := r.tr.Operand(phi.Edges[predIndex])
		if err != nil {
			return err
		}
		assigns = append(assigns, cfa.Assignment{Variable: r.carryVars[i], Value: val})
	}
	assigns = append(assigns, cfa.Assignment{Variable: r.selVar, Value: r.tr.Builder.IntLit(int64(len(r.exits)))})
	_, err := r.cfa.CreateAssignTransition(cur, r.exitLoc, guard, assigns)
	return err
}

func (r *region) phiAssignments(from, to *ssa.BasicBlock) ([]cfa.Assignment, error) {
	predIndex := -1
	for i, p := range to.Preds {
		if p == from {
			predIndex = i
			break
		}
	}
	var assigns []cfa.Assignment
	for _, instr := range to.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		if predIndex < 0 || predIndex >= len(phi.Edges) {
			return nil, unsupportedBuild(phi, "phi predecessor index out of range")
		}
		val, err := r.tr.Operand(phi.Edges[predIndex])
		if err != nil {
			return nil, err
		}
		pv, ok := r.sc.lookup(phi)
		if !ok {
			nv, err := r.cfa.CreateLocal(phi.Name(), r.cfa.Context().Type(val))
			if err != nil {
				return nil, err
			}
			r.sc.bind(phi, nv)
			pv = nv
		}
		assigns = append(assigns, cfa.Assignment{Variable: pv, Value: val})
	}
	return assigns, nil
}

func unsupportedBuild(instr ssa.Instruction, msg string, args ...interface{}) error {
	return &translate.UnsupportedError{Instr: instr, Msg: fmt.Sprintf(msg, args...)}
}
