package bmc

import (
	"context"

	"gobmc/cfa"
	"gobmc/solver"
)

// Outcome is the verification-level verdict for one error location,
// the Go counterpart of BmcPass::runOnFunction's sat/unsat/unknown
// three-way report per error block.
type Outcome int

const (
	Successful Outcome = iota
	Failed
	Inconclusive
)

func (o Outcome) String() string {
	switch o {
	case Successful:
		return "successful"
	case Failed:
		return "failed"
	default:
		return "inconclusive"
	}
}

// Result is the verdict for a single error site, plus the
// satisfying model when Outcome is Failed.
type Result struct {
	Site    ErrorSite
	Outcome Outcome
	Model   solver.Valuation
}

// CheckAll asserts and checks each site's formula against sv in turn,
// bracketing every query in a Push/Pop so the solver's declarations
// are shared across queries but no query's assertion leaks into the
// next — the Go equivalent of BmcPass giving every error block its own
// fresh CachingZ3Solver, generalized to reuse one incremental solver
// instead of paying for a fresh context per query.
func (e *Encoder) CheckAll(ctx context.Context, sv solver.Solver, sites []ErrorSite) ([]Result, error) {
	results := make([]Result, 0, len(sites))
	for _, site := range sites {
		r, err := e.checkOne(ctx, sv, site)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (e *Encoder) checkOne(ctx context.Context, sv solver.Solver, site ErrorSite) (Result, error) {
	sv.Push()
	defer sv.Pop()

	if err := sv.Add(site.Formula); err != nil {
		return Result{}, err
	}
	status, err := sv.Check(ctx)
	if err != nil {
		return Result{}, err
	}

	switch status {
	case solver.Sat:
		model, err := sv.Model()
		if err != nil {
			return Result{}, err
		}
		return Result{Site: site, Outcome: Failed, Model: model}, nil
	case solver.Unsat:
		return Result{Site: site, Outcome: Successful}, nil
	default:
		return Result{Site: site, Outcome: Inconclusive}, nil
	}
}

// LocationName is a small convenience for callers that only want a
// human-readable label for a site, e.g. when logging CheckAll results.
func LocationName(loc *cfa.Location) string { return loc.Name() }
