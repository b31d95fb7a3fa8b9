package bmc

import (
	"testing"

	"gobmc/cfa"
	"gobmc/expr"
)

func TestEncodeStraightLineError(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := cfa.NewAutomataSystem(ctx)

	c, err := sys.CreateCfa("Straight")
	if err != nil {
		t.Fatal(err)
	}
	x, err := c.CreateInput("x", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}

	errLoc := c.CreateErrorLocation()
	guard, err := b.Eq(b.VarRef(x), b.IntLit(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAssignTransition(c.Entry(), errLoc, guard, nil); err != nil {
		t.Fatal(err)
	}

	enc := NewEncoder(ctx, b)
	sites, err := enc.EncodeErrors(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 1 {
		t.Fatalf("got %d error sites, want 1", len(sites))
	}
	if sites[0].Location != errLoc {
		t.Fatal("error site does not point at the error location")
	}
	if ctx.Kind(sites[0].Formula) != expr.KindEq {
		t.Fatalf("expected the single guard to survive folding, got kind %s", ctx.Kind(sites[0].Formula))
	}
}

func TestEncodeMergesMultiplePredecessorsWithWitness(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := cfa.NewAutomataSystem(ctx)

	c, err := sys.CreateCfa("Diamond")
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

	enc := NewEncoder(ctx, b)
	sites, err := enc.EncodeErrors(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 1 {
		t.Fatalf("got %d error sites, want 1", len(sites))
	}
	if _, ok := enc.PredecessorWitness(errLoc); !ok {
		t.Fatal("errLoc merges two incoming transitions and should have gotten a predecessor witness variable")
	}
	if _, ok := enc.PredecessorWitness(mid1); ok {
		t.Fatal("mid1 has a single predecessor and should not have gotten a witness variable")
	}
}

func TestEncodeInlinesCallTransition(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := cfa.NewAutomataSystem(ctx)

	callee, err := sys.CreateCfa("Callee")
	if err != nil {
		t.Fatal(err)
	}
	in, err := callee.CreateInput("n", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	calleeErr := callee.CreateErrorLocation()
	isZero, err := b.Eq(b.VarRef(in), b.IntLit(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := callee.CreateAssignTransition(callee.Entry(), calleeErr, isZero, nil); err != nil {
		t.Fatal(err)
	}

	caller, err := sys.CreateCfa("Caller")
	if err != nil {
		t.Fatal(err)
	}
	arg, err := caller.CreateInput("a", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	post := caller.CreateLocation()
	if _, err := caller.CreateCallTransition(caller.Entry(), post, b.True(), callee, []expr.Expr{b.VarRef(arg)}, nil); err != nil {
		t.Fatal(err)
	}

	enc := NewEncoder(ctx, b)
	sites, err := enc.EncodeErrors(caller)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 1 {
		t.Fatalf("got %d error sites, want 1 (the inlined callee error)", len(sites))
	}
	if sites[0].Location != calleeErr {
		t.Fatal("inlined error site should point at the callee's own error location")
	}
}
