// Package cfa implements the control-flow automaton: locations joined
// by guarded, simultaneous-assignment transitions over expr.Variables.
// Its shape is grounded directly on gazer's Cfa/Location/Transition
// classes (see CfaTest.cpp): entry and exit locations are reserved at
// ids 0 and 1, every other location gets a dense, monotonically
// increasing id, and edges come in two kinds — AssignTransition (a
// guard plus a parallel assignment list) and CallTransition (a call
// into a callee Cfa with argument/return bindings).
package cfa

import (
	"fmt"
	"go/token"

	"gobmc/expr"
)

// LocationID identifies a Location within its owning Cfa. 0 is always
// the entry location and 1 is always the exit location.
type LocationID int

const (
	EntryID LocationID = 0
	ExitID  LocationID = 1
)

// Location is a control point in a Cfa.
type Location struct {
	id       LocationID
	name     string
	errorLoc bool

	incoming []Transition
	outgoing []Transition
}

func (l *Location) ID() LocationID      { return l.id }
func (l *Location) Name() string        { return l.name }
func (l *Location) IsError() bool       { return l.errorLoc }
func (l *Location) Incoming() []Transition { return l.incoming }
func (l *Location) Outgoing() []Transition { return l.outgoing }
func (l *Location) String() string      { return l.name }

// Assignment binds a single local/output variable's next value on a
// transition. Every transition's assignments are evaluated
// simultaneously against the source location's variable values, never
// sequentially against each other.
type Assignment struct {
	Variable *expr.Variable
	Value    expr.Expr

	// Pos is the source position the assigned value came from, when
	// build could resolve one from the originating SSA instruction.
	// Synthetic bookkeeping assignments (phi selectors, loop carry
	// variables) leave it zero; trace treats a zero Pos as "no source
	// location" rather than an error.
	Pos token.Position
}

// Transition is either an AssignTransition or a CallTransition.
type Transition interface {
	Source() *Location
	Target() *Location
	Guard() expr.Expr
	String(ctx *expr.Context) string
}

// AssignTransition moves from Source to Target if Guard holds,
// applying every Assignment in parallel.
type AssignTransition struct {
	source, target *Location
	guard          expr.Expr
	assignments    []Assignment
}

func (t *AssignTransition) Source() *Location        { return t.source }
func (t *AssignTransition) Target() *Location        { return t.target }
func (t *AssignTransition) Guard() expr.Expr          { return t.guard }
func (t *AssignTransition) Assignments() []Assignment { return t.assignments }

func (t *AssignTransition) String(ctx *expr.Context) string {
	s := fmt.Sprintf("%s -> %s [%s]", t.source, t.target, ctx.String(t.guard))
	for _, a := range t.assignments {
		s += fmt.Sprintf(" %s := %s;", a.Variable.Name(), ctx.String(a.Value))
	}
	return s
}

// CallTransition moves from Source to Target if Guard holds, calling
// Callee with ArgBindings assigned to its inputs and its outputs bound
// back into ResultTargets on return, in the order Callee declares
// them.
type CallTransition struct {
	source, target *Location
	guard          expr.Expr
	callee         *Cfa
	argBindings    []expr.Expr
	resultTargets  []*expr.Variable
}

func (t *CallTransition) Source() *Location         { return t.source }
func (t *CallTransition) Target() *Location         { return t.target }
func (t *CallTransition) Guard() expr.Expr           { return t.guard }
func (t *CallTransition) Callee() *Cfa               { return t.callee }
func (t *CallTransition) ArgBindings() []expr.Expr    { return t.argBindings }
func (t *CallTransition) ResultTargets() []*expr.Variable { return t.resultTargets }

func (t *CallTransition) String(ctx *expr.Context) string {
	return fmt.Sprintf("%s -> %s [%s] call %s", t.source, t.target, ctx.String(t.guard), t.callee.Name())
}

// Cfa is one procedure's control-flow automaton: a set of locations,
// a set of transitions between them, and the input/output/local
// variables visible inside it. Every Cfa belongs to exactly one
// AutomataSystem and shares that system's expr.Context.
type Cfa struct {
	ctx  *expr.Context
	name string

	locations []*Location
	nextID    LocationID

	inputs  []*expr.Variable
	outputs []*expr.Variable
	locals  []*expr.Variable

	entry, exit *Location
}

func newCfa(ctx *expr.Context, name string) *Cfa {
	c := &Cfa{ctx: ctx, name: name}
	c.entry = c.createLocationWithID(EntryID, name+"/entry")
	c.exit = c.createLocationWithID(ExitID, name+"/exit")
	c.nextID = 2
	return c
}

func (c *Cfa) Name() string       { return c.name }
func (c *Cfa) Context() *expr.Context { return c.ctx }
func (c *Cfa) Entry() *Location   { return c.entry }
func (c *Cfa) Exit() *Location    { return c.exit }
func (c *Cfa) NumLocations() int  { return len(c.locations) }
func (c *Cfa) Locations() []*Location { return c.locations }
func (c *Cfa) Inputs() []*expr.Variable  { return c.inputs }
func (c *Cfa) Outputs() []*expr.Variable { return c.outputs }
func (c *Cfa) Locals() []*expr.Variable  { return c.locals }

func (c *Cfa) createLocationWithID(id LocationID, name string) *Location {
	loc := &Location{id: id, name: name}
	c.locations = append(c.locations, loc)
	return loc
}

// CreateLocation allocates a fresh, non-entry, non-exit location.
func (c *Cfa) CreateLocation() *Location {
	loc := c.createLocationWithID(c.nextID, fmt.Sprintf("%s/loc%d", c.name, c.nextID))
	c.nextID++
	return loc
}

// CreateErrorLocation allocates a fresh location marked as an error
// sink — bmc treats reachability of any such location as a violation.
func (c *Cfa) CreateErrorLocation() *Location {
	loc := c.CreateLocation()
	loc.errorLoc = true
	return loc
}

func (c *Cfa) qualify(name string) string { return c.name + "/" + name }

// CreateInput declares a new input variable, visible to callers as an
// argument binding target.
func (c *Cfa) CreateInput(name string, t expr.Type) (*expr.Variable, error) {
	v, err := c.ctx.SymbolTable().CreateVariable(c.qualify(name), t)
	if err != nil {
		return nil, err
	}
	c.inputs = append(c.inputs, v)
	return v, nil
}

// CreateLocal declares a new local variable, invisible outside the Cfa
// unless also passed to AddOutput.
func (c *Cfa) CreateLocal(name string, t expr.Type) (*expr.Variable, error) {
	v, err := c.ctx.SymbolTable().CreateVariable(c.qualify(name), t)
	if err != nil {
		return nil, err
	}
	c.locals = append(c.locals, v)
	return v, nil
}

// AddOutput marks an existing local as observable to callers via
// CallTransition.ResultTargets.
func (c *Cfa) AddOutput(v *expr.Variable) {
	c.outputs = append(c.outputs, v)
}

// CreateAssignTransition creates a guarded, parallel-assignment edge
// between two locations already owned by this Cfa.
func (c *Cfa) CreateAssignTransition(source, target *Location, guard expr.Expr, assignments []Assignment) (*AssignTransition, error) {
	if err := checkOwned(c, source, target); err != nil {
		return nil, err
	}
	t := &AssignTransition{source: source, target: target, guard: guard, assignments: assignments}
	source.outgoing = append(source.outgoing, t)
	target.incoming = append(target.incoming, t)
	return t, nil
}

// CreateCallTransition creates a guarded call edge into callee.
func (c *Cfa) CreateCallTransition(source, target *Location, guard expr.Expr, callee *Cfa, args []expr.Expr, resultTargets []*expr.Variable) (*CallTransition, error) {
	if err := checkOwned(c, source, target); err != nil {
		return nil, err
	}
	if len(args) != len(callee.inputs) {
		return nil, fmt.Errorf("cfa: call to %s expects %d arguments, got %d", callee.name, len(callee.inputs), len(args))
	}
	if len(resultTargets) != len(callee.outputs) {
		return nil, fmt.Errorf("cfa: call to %s expects %d result bindings, got %d", callee.name, len(callee.outputs), len(resultTargets))
	}
	t := &CallTransition{source: source, target: target, guard: guard, callee: callee, argBindings: args, resultTargets: resultTargets}
	source.outgoing = append(source.outgoing, t)
	target.incoming = append(target.incoming, t)
	return t, nil
}

func checkOwned(c *Cfa, locs ...*Location) error {
	for _, l := range locs {
		owned := false
		for _, cand := range c.locations {
			if cand == l {
				owned = true
				break
			}
		}
		if !owned {
			return fmt.Errorf("cfa: location %s does not belong to %s", l, c.name)
		}
	}
	return nil
}

// AutomataSystem owns every Cfa built for a single verification run,
// plus the shared expr.Context they're expressed over.
type AutomataSystem struct {
	ctx  *expr.Context
	cfas map[string]*Cfa
	main *Cfa
}

func NewAutomataSystem(ctx *expr.Context) *AutomataSystem {
	return &AutomataSystem{ctx: ctx, cfas: make(map[string]*Cfa)}
}

func (s *AutomataSystem) Context() *expr.Context { return s.ctx }

// CreateCfa allocates a fresh, empty Cfa (with entry/exit already
// present) under the given name. The name must be unique within the
// system.
func (s *AutomataSystem) CreateCfa(name string) (*Cfa, error) {
	if _, exists := s.cfas[name]; exists {
		return nil, fmt.Errorf("cfa: duplicate automaton name %q", name)
	}
	c := newCfa(s.ctx, name)
	s.cfas[name] = c
	return c, nil
}

func (s *AutomataSystem) Lookup(name string) (*Cfa, bool) {
	c, ok := s.cfas[name]
	return c, ok
}

func (s *AutomataSystem) Cfas() []*Cfa {
	out := make([]*Cfa, 0, len(s.cfas))
	for _, c := range s.cfas {
		out = append(out, c)
	}
	return out
}

func (s *AutomataSystem) SetMain(c *Cfa) { s.main = c }
func (s *AutomataSystem) Main() *Cfa     { return s.main }
