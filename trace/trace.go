// Package trace reconstructs a concrete counterexample path from a
// satisfying bmc model, grounded on the commented-out
// BmcTrace::Create in original_source/src/LLVM/Analysis/BmcPass.cpp:
// walk backward from the error location through whichever predecessor
// the model's witness variable names (or the sole predecessor, when
// there is only one), then walk the collected path forward turning
// every AssignTransition's assignments into Assignment events and
// every CallTransition into a Call event.
package trace

import (
	"fmt"
	"go/token"

	"gobmc/bmc"
	"gobmc/cfa"
	"gobmc/expr"
	"gobmc/solver"
)

// EventKind tags one step of a reconstructed counterexample.
type EventKind int

const (
	Assign EventKind = iota
	Call

	// Truncated marks the point where walkBack gave up reconstructing
	// the path further back toward the entry — a missing or
	// out-of-range predecessor witness — rather than failing the whole
	// extraction. ValueText carries the reason; Location is the
	// location backward reconstruction could not get past.
	Truncated
)

// Event is one step of a Trace, attached to the location it arrives
// at. SourceName is looked up in the sourceNames map the caller passes
// to Extract; it is empty for variables the map does not name, and for
// every variable when the map is nil (as verify.Check passes it).
type Event struct {
	Kind       EventKind
	Location   *cfa.Location
	Variable   *expr.Variable
	Value      expr.Expr
	ValueText  string
	Callee     string
	SourceName string
	Pos        token.Position
}

// Trace is a chronological sequence of Events from a Cfa's entry to an
// error location.
type Trace struct {
	Events []Event
}

// Extract reconstructs the path the model took to reach site.Location
// within its own owning Cfa. Interprocedural stitching across the
// CallTransition that led into a different Cfa is not attempted: each
// extracted Trace covers one Cfa's own locations, the same scope
// BmcPass's own BmcTrace covers for one function.
func Extract(ctx *expr.Context, enc *bmc.Encoder, owner *cfa.Cfa, loc *cfa.Location, model solver.Valuation, sourceNames map[*expr.Variable]string) (*Trace, error) {
	path, truncatedAt, reason := walkBack(ctx, enc, loc, model)

	var events []Event
	if truncatedAt != nil {
		events = append(events, Event{
			Kind:      Truncated,
			Location:  truncatedAt,
			ValueText: reason,
		})
	}
	for _, t := range path {
		switch tt := t.(type) {
		case *cfa.AssignTransition:
			for _, a := range tt.Assignments() {
				val, ok := model.Value(a.Variable)
				if !ok {
					continue
				}
				events = append(events, Event{
					Kind:       Assign,
					Location:   tt.Target(),
					Variable:   a.Variable,
					Value:      val,
					ValueText:  ctx.String(val),
					SourceName: sourceNames[a.Variable],
					Pos:        a.Pos,
				})
			}
		case *cfa.CallTransition:
			events = append(events, Event{
				Kind:     Call,
				Location: tt.Target(),
				Callee:   tt.Callee().Name(),
			})
		default:
			return nil, fmt.Errorf("trace: unhandled transition type %T", t)
		}
	}
	return &Trace{Events: events}, nil
}

// walkBack retraces the path from owner's entry to loc, choosing at
// each multi-predecessor location the edge the model's witness
// variable selects, and returns it in chronological (entry-to-loc)
// order. When a predecessor witness is missing, stale, or
// out-of-range, it gives up reconstructing any further back and
// returns the partial path alongside the location it got stuck at and
// a human-readable reason, rather than failing the whole extraction.
func walkBack(ctx *expr.Context, enc *bmc.Encoder, loc *cfa.Location, model solver.Valuation) (path []cfa.Transition, truncatedAt *cfa.Location, reason string) {
	var reversed []cfa.Transition
	cur := loc
	for cur.ID() != cfa.EntryID {
		incoming := cur.Incoming()
		if len(incoming) == 0 {
			truncatedAt = cur
			reason = fmt.Sprintf("%s has no incoming transition and is not the entry", cur.Name())
			break
		}

		var chosen cfa.Transition
		if len(incoming) == 1 {
			chosen = incoming[0]
		} else {
			witness, ok := enc.PredecessorWitness(cur)
			if !ok {
				truncatedAt = cur
				reason = fmt.Sprintf("%s has %d predecessors but no witness variable was recorded", cur.Name(), len(incoming))
				break
			}
			val, ok := model.Value(witness)
			if !ok {
				truncatedAt = cur
				reason = fmt.Sprintf("model has no value for %s's predecessor witness", cur.Name())
				break
			}
			idx := ctx.IntLitValue(val)
			if idx == nil {
				truncatedAt = cur
				reason = fmt.Sprintf("predecessor witness for %s did not resolve to an integer literal", cur.Name())
				break
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(incoming) {
				truncatedAt = cur
				reason = fmt.Sprintf("predecessor witness for %s selected out-of-range index %d", cur.Name(), i)
				break
			}
			chosen = incoming[i]
		}
		reversed = append(reversed, chosen)
		cur = chosen.Source()
	}

	path = make([]cfa.Transition, len(reversed))
	for i, t := range reversed {
		path[len(reversed)-1-i] = t
	}
	return path, truncatedAt, reason
}
