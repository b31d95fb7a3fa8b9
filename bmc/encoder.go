// Package bmc builds one bounded-model-checking query per error
// location in a cfa.Cfa and drives a solver.Solver to answer it. The
// encoding itself is a direct port of gazer's BmcPass::encode and
// encodeEdge (original_source/src/LLVM/Analysis/BmcPass.cpp) from
// basic-block/PHI-node terms onto this repo's cfa.Location/Transition
// graph: every SSA instruction is already its own Location here, so
// the per-block formula cache BmcPass builds by hand falls out for
// free, and a CallTransition's callee is inlined recursively instead
// of being left to a separate interprocedural pass.
package bmc

import (
	"fmt"

	"gobmc/cfa"
	"gobmc/expr"
)

// ErrorSite pairs an error location with the formula describing
// exactly the inputs under which it is reached — BmcPass's per-error
// "dp[idx]" entry, but keyed by the location itself since this repo's
// Location values are never shared across call sites after build's
// per-call-site Cfa duplication.
type ErrorSite struct {
	Location *cfa.Location
	Formula  expr.Expr
}

// Encoder lowers cfa.Cfa reachability into expr.Expr formulas over a
// single shared expr.Context/expr.Builder.
type Encoder struct {
	ctx *expr.Context
	b   expr.Builder

	// predVars remembers the witness variable created for each
	// location with more than one incoming transition, so a later
	// trace walk-back can read its value straight out of a model
	// without re-deriving which predecessor it names.
	predVars map[*cfa.Location]*expr.Variable
}

func NewEncoder(ctx *expr.Context, b expr.Builder) *Encoder {
	return &Encoder{ctx: ctx, b: b, predVars: make(map[*cfa.Location]*expr.Variable)}
}

// PredecessorWitness returns the local variable created for loc's
// incoming-transition selector, if loc had more than one predecessor.
// trace uses this to read which edge a counterexample took.
func (e *Encoder) PredecessorWitness(loc *cfa.Location) (*expr.Variable, bool) {
	v, ok := e.predVars[loc]
	return v, ok
}

// EncodeErrors computes the reachability formula for every error
// location inside root, recursively inlining every call it makes. The
// returned sites are in the topological order reach discovers them,
// which is deterministic for a fixed Cfa.
func (e *Encoder) EncodeErrors(root *cfa.Cfa) ([]ErrorSite, error) {
	_, sites, err := e.reach(root, e.b.True())
	return sites, err
}

// reach runs BmcPass::encode's topological dp sweep over c, with
// entryCond substituted for the "entry is always reachable" base case
// so a CallTransition can seed its callee's sweep with the caller's
// own path condition plus argument bindings.
func (e *Encoder) reach(c *cfa.Cfa, entryCond expr.Expr) (map[*cfa.Location]expr.Expr, []ErrorSite, error) {
	order := topoSort(c)
	dp := make(map[*cfa.Location]expr.Expr, len(order))
	var sites []ErrorSite

	dp[c.Entry()] = entryCond
	if c.Entry().IsError() {
		sites = append(sites, ErrorSite{Location: c.Entry(), Formula: entryCond})
	}

	for _, loc := range order {
		if loc.ID() == cfa.EntryID {
			continue
		}
		formula, nested, err := e.reachLocation(c, loc, dp)
		if err != nil {
			return nil, nil, err
		}
		dp[loc] = formula
		sites = append(sites, nested...)
		if loc.IsError() {
			sites = append(sites, ErrorSite{Location: loc, Formula: formula})
		}
	}
	return dp, sites, nil
}

// reachLocation computes dp[loc] — the OR, over every incoming
// transition, of (predecessor's own dp AND that edge's formula) — and
// returns any error sites discovered while inlining a call along the
// way. A location with more than one incoming transition gets a fresh
// integer witness pinned to the index of the edge taken, the same role
// BmcPass's synthetic "predN" PHI node plays for its model extraction.
func (e *Encoder) reachLocation(c *cfa.Cfa, loc *cfa.Location, dp map[*cfa.Location]expr.Expr) (expr.Expr, []ErrorSite, error) {
	incoming := loc.Incoming()
	if len(incoming) == 0 {
		return e.b.False(), nil, nil
	}

	var witness *expr.Variable
	if len(incoming) > 1 {
		v, err := c.CreateLocal(predLocalName(loc), e.ctx.IntType())
		if err != nil {
			return expr.Invalid, nil, err
		}
		e.predVars[loc] = v
		witness = v
	}

	var disj []expr.Expr
	var allSites []ErrorSite
	for i, t := range incoming {
		pred := t.Source()
		predDp, ok := dp[pred]
		if !ok {
			continue
		}
		edge, sites, err := e.edgeFormula(t, predDp)
		if err != nil {
			return expr.Invalid, nil, err
		}
		allSites = append(allSites, sites...)

		if witness != nil {
			sel, err := e.b.Eq(e.b.VarRef(witness), e.b.IntLit(int64(i)))
			if err != nil {
				return expr.Invalid, nil, err
			}
			edge, err = e.b.And(edge, sel)
			if err != nil {
				return expr.Invalid, nil, err
			}
		}
		disj = append(disj, edge)
	}
	if len(disj) == 0 {
		return e.b.False(), allSites, nil
	}
	formula, err := e.b.Or(disj...)
	if err != nil {
		return expr.Invalid, nil, err
	}
	return formula, allSites, nil
}

// edgeFormula is the per-transition analogue of BmcPass::encodeEdge:
// for an AssignTransition it is the predecessor's dp, ANDed with the
// guard and with every assignment's equality; for a CallTransition it
// recurses into the callee's own reachability sweep, seeded with the
// bindings this call site supplies, and surfaces the callee's own
// error sites (and any it in turn inlined) up to our caller.
func (e *Encoder) edgeFormula(t cfa.Transition, predDp expr.Expr) (expr.Expr, []ErrorSite, error) {
	switch tt := t.(type) {
	case *cfa.AssignTransition:
		conj := []expr.Expr{predDp, tt.Guard()}
		for _, a := range tt.Assignments() {
			eq, err := e.b.Eq(e.b.VarRef(a.Variable), a.Value)
			if err != nil {
				return expr.Invalid, nil, err
			}
			conj = append(conj, eq)
		}
		f, err := e.b.And(conj...)
		return f, nil, err

	case *cfa.CallTransition:
		callee := tt.Callee()
		conj := []expr.Expr{predDp, tt.Guard()}
		for i, input := range callee.Inputs() {
			eq, err := e.b.Eq(e.b.VarRef(input), tt.ArgBindings()[i])
			if err != nil {
				return expr.Invalid, nil, err
			}
			conj = append(conj, eq)
		}
		entryCond, err := e.b.And(conj...)
		if err != nil {
			return expr.Invalid, nil, err
		}

		calleeDp, calleeSites, err := e.reach(callee, entryCond)
		if err != nil {
			return expr.Invalid, nil, err
		}

		resultConj := []expr.Expr{calleeDp[callee.Exit()]}
		for i, out := range callee.Outputs() {
			eq, err := e.b.Eq(e.b.VarRef(tt.ResultTargets()[i]), e.b.VarRef(out))
			if err != nil {
				return expr.Invalid, nil, err
			}
			resultConj = append(resultConj, eq)
		}
		f, err := e.b.And(resultConj...)
		if err != nil {
			return expr.Invalid, nil, err
		}
		return f, calleeSites, nil

	default:
		return expr.Invalid, nil, fmt.Errorf("bmc: unhandled transition type %T", t)
	}
}

func predLocalName(loc *cfa.Location) string {
	return fmt.Sprintf("bmc.pred%d", loc.ID())
}
