package cfa

import (
	"testing"

	"gobmc/expr"
)

func TestCanCreateCfa(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := NewAutomataSystem(ctx)

	c, err := sys.CreateCfa("Test")
	if err != nil {
		t.Fatal(err)
	}

	if c.NumLocations() != 2 {
		t.Fatalf("NumLocations() = %d, want 2", c.NumLocations())
	}
	if c.Entry() == nil || c.Exit() == nil {
		t.Fatal("entry/exit must exist immediately after creation")
	}

	loc2 := c.CreateLocation()
	loc3 := c.CreateLocation()
	loc4 := c.CreateLocation()

	if c.NumLocations() != 5 {
		t.Fatalf("NumLocations() = %d, want 5", c.NumLocations())
	}
	if loc2.ID() != 2 || loc3.ID() != 3 || loc4.ID() != 4 {
		t.Fatalf("unexpected location ids: %d %d %d", loc2.ID(), loc3.ID(), loc4.ID())
	}

	in1, err := c.CreateInput("in1", ctx.BoolType())
	if err != nil {
		t.Fatal(err)
	}
	tmp, err := c.CreateLocal("tmp", ctx.BoolType())
	if err != nil {
		t.Fatal(err)
	}
	out1, err := c.CreateLocal("out1", ctx.BoolType())
	if err != nil {
		t.Fatal(err)
	}
	c.AddOutput(out1)

	if len(c.Inputs()) != 1 || len(c.Outputs()) != 1 || len(c.Locals()) != 2 {
		t.Fatalf("unexpected var counts: inputs=%d outputs=%d locals=%d", len(c.Inputs()), len(c.Outputs()), len(c.Locals()))
	}
	if in1.Name() != "Test/in1" || out1.Name() != "Test/out1" || tmp.Name() != "Test/tmp" {
		t.Fatalf("unexpected qualified names: %s %s %s", in1.Name(), out1.Name(), tmp.Name())
	}

	notIn1, err := b.Not(b.VarRef(in1))
	if err != nil {
		t.Fatal(err)
	}
	edge1, err := c.CreateAssignTransition(c.Entry(), loc2, b.VarRef(in1), nil)
	if err != nil {
		t.Fatal(err)
	}
	edge2, err := c.CreateAssignTransition(c.Entry(), loc3, notIn1, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(c.Entry().Outgoing()) != 2 {
		t.Fatalf("entry has %d outgoing edges, want 2", len(c.Entry().Outgoing()))
	}
	if len(loc2.Incoming()) != 1 || len(loc3.Incoming()) != 1 {
		t.Fatalf("unexpected incoming edge counts")
	}
	if edge1.Source() != c.Entry() || edge2.Source() != c.Entry() {
		t.Fatal("both edges must originate at entry")
	}
	if edge1.Target() != loc2 || edge2.Target() != loc3 {
		t.Fatal("edge targets do not match")
	}
}

func TestCreateTransitionRejectsForeignLocation(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	sys := NewAutomataSystem(ctx)

	a, _ := sys.CreateCfa("A")
	other, _ := sys.CreateCfa("B")
	foreign := other.CreateLocation()

	if _, err := a.CreateAssignTransition(a.Entry(), foreign, b.True(), nil); err == nil {
		t.Fatal("expected error assigning a transition to a foreign location")
	}
}
