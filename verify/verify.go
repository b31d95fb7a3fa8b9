// Package verify wires build, bmc, solver/z3solver and trace together
// into the single entry point main.go's CLI drives, in the teacher's
// own top-level style: constraints.go's bare sequence of "build the
// program, solve it, print the result" calls, generalized here into a
// reusable library function so both the CLI and the package's own
// end-to-end scenario tests can call it the same way.
package verify

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"gobmc/bmc"
	"gobmc/build"
	"gobmc/cfa"
	"gobmc/expr"
	"gobmc/memory"
	"gobmc/solver"
	"gobmc/solver/z3solver"
	"gobmc/trace"
	"gobmc/translate"
)

// Options configures one Check run.
type Options struct {
	// EntryFunction is the unqualified name of the function to verify,
	// e.g. "main"; the first loaded package with a member of that name
	// supplies it. Every other loaded function is still reachable
	// through CallTransitions if EntryFunction calls it, but only
	// EntryFunction's own Cfa is built as the root of the sweep.
	EntryFunction string

	Mode   translate.Mode
	Unwind int

	// ArrayMemory selects memory.ArrayModel over the default
	// memory.HavocModel, for precise slice/array reasoning.
	ArrayMemory bool
}

// FunctionReport is the verdict for every error site discovered while
// verifying one function, alongside an extracted Trace for anything
// Failed.
type FunctionReport struct {
	Function string
	Results  []bmc.Result
	Traces   map[*cfa.Location]*trace.Trace

	// Reasons records why the run degraded to Inconclusive without
	// reaching any error site at all — an UnsupportedConstruct that
	// involved control flow and aborted CFA construction or
	// reachability encoding before any bmc.Result existed. Per §7, this
	// still surfaces as one of the three user-visible outcomes rather
	// than a bare error.
	Reasons []string
}

// Check loads patterns (a file path or package pattern accepted by
// golang.org/x/tools/go/packages), builds opts.EntryFunction's Cfa,
// encodes every error location reachable from it, and checks each one
// against one fresh solver/z3solver backend that all the sites share.
func Check(ctx context.Context, opts Options, patterns ...string) (*FunctionReport, error) {
	log.WithField("patterns", patterns).Info("loading program")
	_, pkgs, err := build.LoadProgram(patterns...)
	if err != nil {
		return nil, err
	}
	fn, err := build.EntryFunction(pkgs, opts.EntryFunction)
	if err != nil {
		return nil, err
	}

	ectx := expr.NewContext()
	sys := cfa.NewAutomataSystem(ectx)

	var mem memory.Model
	if opts.ArrayMemory {
		mem = memory.NewArrayModel()
	} else {
		mem = memory.NewHavocModel()
	}

	unwind := opts.Unwind
	if unwind <= 0 {
		unwind = build.DefaultUnwind
	}

	fset := fn.Prog.Fset
	bd := build.NewBuilder(sys, mem, opts.Mode, fset, unwind)

	log.WithFields(log.Fields{"function": opts.EntryFunction, "mode": opts.Mode, "unwind": unwind}).Info("building cfa")
	root, err := bd.BuildFunction(fn)
	if err != nil {
		var unsup *translate.UnsupportedError
		if errors.As(err, &unsup) {
			log.WithField("function", opts.EntryFunction).Warn(err)
			return inconclusiveReport(opts.EntryFunction, err), nil
		}
		return nil, fmt.Errorf("verify: building %s: %w", opts.EntryFunction, err)
	}
	sys.SetMain(root)

	enc := bmc.NewEncoder(ectx, expr.NewFoldingBuilder(ectx))
	log.Info("encoding error reachability")
	sites, err := enc.EncodeErrors(root)
	if err != nil {
		var unsup *translate.UnsupportedError
		if errors.As(err, &unsup) {
			log.WithField("function", opts.EntryFunction).Warn(err)
			return inconclusiveReport(opts.EntryFunction, err), nil
		}
		return nil, fmt.Errorf("verify: encoding: %w", err)
	}
	log.WithField("sites", len(sites)).Info("error sites discovered")

	sv, err := z3solver.New(ectx)
	if err != nil {
		return nil, err
	}
	defer sv.Close()

	results, err := enc.CheckAll(ctx, sv, sites)
	if err != nil {
		return nil, fmt.Errorf("verify: checking: %w", err)
	}

	report := &FunctionReport{Function: opts.EntryFunction, Results: results, Traces: make(map[*cfa.Location]*trace.Trace)}
	for _, r := range results {
		log.WithFields(log.Fields{
			"location": bmc.LocationName(r.Site.Location),
			"outcome":  r.Outcome,
		}).Info("checked error site")
		if r.Outcome != bmc.Failed {
			continue
		}
		tr, err := trace.Extract(ectx, enc, root, r.Site.Location, r.Model, nil)
		if err != nil {
			return nil, fmt.Errorf("verify: extracting trace for %s: %w", r.Site.Location.Name(), err)
		}
		report.Traces[r.Site.Location] = tr
	}
	return report, nil
}

// inconclusiveReport builds the degraded FunctionReport Check returns
// when an UnsupportedError involving control flow aborted CFA
// construction or reachability encoding before any error site could be
// checked — no bmc.Result exists, so Status alone can't carry the
// reason; Reasons does.
func inconclusiveReport(fn string, cause error) *FunctionReport {
	return &FunctionReport{
		Function: fn,
		Traces:   make(map[*cfa.Location]*trace.Trace),
		Reasons:  []string{cause.Error()},
	}
}

// Status summarizes a FunctionReport into a single top-level outcome:
// Failed if any site failed, Inconclusive if none failed but some were
// unresolved (or the run never reached any site at all), Successful
// only if every site resolved unsat.
func (r *FunctionReport) Status() bmc.Outcome {
	sawInconclusive := len(r.Reasons) > 0
	for _, res := range r.Results {
		switch res.Outcome {
		case bmc.Failed:
			return bmc.Failed
		case bmc.Inconclusive:
			sawInconclusive = true
		}
	}
	if sawInconclusive {
		return bmc.Inconclusive
	}
	return bmc.Successful
}

var _ solver.Solver = (*z3solver.Solver)(nil)
