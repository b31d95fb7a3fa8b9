package trace

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"gobmc/bmc"
	"gobmc/cfa"
	"gobmc/expr"
)

type fakeValuation map[*expr.Variable]expr.Expr

func (f fakeValuation) Value(v *expr.Variable) (expr.Expr, bool) {
	e, ok := f[v]
	return e, ok
}

func TestExtractStraightLine(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := cfa.NewAutomataSystem(ctx)

	c, err := sys.CreateCfa("F")
	if err != nil {
		t.Fatal(err)
	}
	y, err := c.CreateLocal("y", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	errLoc := c.CreateErrorLocation()
	mid := c.CreateLocation()

	if _, err := c.CreateAssignTransition(c.Entry(), mid, b.True(), []cfa.Assignment{{Variable: y, Value: b.IntLit(7)}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(mid, errLoc, b.True(), nil); err != nil {
		t.Fatal(err)
	}

	enc := bmc.NewEncoder(ctx, b)
	sites, err := enc.EncodeErrors(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 1 {
		t.Fatalf("got %d sites, want 1", len(sites))
	}

	model := fakeValuation{y: b.IntLit(7)}
	tr, err := Extract(ctx, enc, c, sites[0].Location, model, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(tr.Events))
	}
	if tr.Events[0].Variable != y {
		t.Fatal("expected the single event to bind y")
	}
}

func TestExtractChoosesModelSelectedBranch(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := cfa.NewAutomataSystem(ctx)

	c, err := sys.CreateCfa("Branch")
	if err != nil {
		t.Fatal(err)
	}
	x, err := c.CreateInput("x", ctx.BoolType())
	if err != nil {
		t.Fatal(err)
	}
	tagLeft, err := c.CreateLocal("tag", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}

	mid1 := c.CreateLocation()
	mid2 := c.CreateLocation()
	errLoc := c.CreateErrorLocation()

	notX, err := b.Not(b.VarRef(x))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(c.Entry(), mid1, b.VarRef(x), []cfa.Assignment{{Variable: tagLeft, Value: b.IntLit(1)}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(c.Entry(), mid2, notX, []cfa.Assignment{{Variable: tagLeft, Value: b.IntLit(2)}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(mid1, errLoc, b.True(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(mid2, errLoc, b.True(), nil); err != nil {
		t.Fatal(err)
	}

	enc := bmc.NewEncoder(ctx, b)
	sites, err := enc.EncodeErrors(c)
	if err != nil {
		t.Fatal(err)
	}

	witness, ok := enc.PredecessorWitness(errLoc)
	if !ok {
		t.Fatal("errLoc should have a witness variable")
	}
	// model picks the second incoming edge (index 1: mid2's transition).
	model := fakeValuation{witness: b.IntLit(1), tagLeft: b.IntLit(2)}

	tr, err := Extract(ctx, enc, c, sites[0].Location, model, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(tr.Events))
	}
	if tr.Events[0].Variable != tagLeft {
		t.Fatal("expected the tag assignment from the mid2 branch")
	}
	iv := ctx.IntLitValue(tr.Events[0].Value)
	if iv == nil || iv.Int64() != 2 {
		t.Fatalf("expected tag=2 from the mid2 branch, got:\n%s", spew.Sdump(tr.Events))
	}
}

func TestExtractTruncatesOnMissingWitness(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := cfa.NewAutomataSystem(ctx)

	c, err := sys.CreateCfa("Branch")
	if err != nil {
		t.Fatal(err)
	}
	x, err := c.CreateInput("x", ctx.BoolType())
	if err != nil {
		t.Fatal(err)
	}

	mid1 := c.CreateLocation()
	mid2 := c.CreateLocation()
	errLoc := c.CreateErrorLocation()

	notX, err := b.Not(b.VarRef(x))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(c.Entry(), mid1, b.VarRef(x), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(c.Entry(), mid2, notX, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(mid1, errLoc, b.True(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(mid2, errLoc, b.True(), nil); err != nil {
		t.Fatal(err)
	}

	enc := bmc.NewEncoder(ctx, b)
	sites, err := enc.EncodeErrors(c)
	if err != nil {
		t.Fatal(err)
	}

	// model has no value at all for errLoc's predecessor witness,
	// simulating a stale or incomplete valuation.
	model := fakeValuation{}

	tr, err := Extract(ctx, enc, c, sites[0].Location, model, nil)
	if err != nil {
		t.Fatalf("Extract should degrade gracefully, not fail: %v", err)
	}
	if len(tr.Events) != 1 {
		t.Fatalf("got %d events, want 1 truncation marker", len(tr.Events))
	}
	if tr.Events[0].Kind != Truncated {
		t.Fatalf("expected a Truncated marker event, got kind %v", tr.Events[0].Kind)
	}
	if tr.Events[0].ValueText == "" {
		t.Fatal("expected a non-empty truncation reason")
	}
}
