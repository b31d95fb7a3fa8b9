package z3solver

import (
	"context"
	"testing"

	"gobmc/expr"
)

func TestSatWithModel(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)

	x, err := ctx.SymbolTable().CreateVariable("x", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	gt, err := b.Gt(b.VarRef(x), b.IntLit(10))
	if err != nil {
		t.Fatal(err)
	}

	sv, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := sv.Add(gt); err != nil {
		t.Fatal(err)
	}

	status, err := sv.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.String() != "sat" {
		t.Fatalf("Check() = %s, want sat", status)
	}

	model, err := sv.Model()
	if err != nil {
		t.Fatal(err)
	}
	val, ok := model.Value(x)
	if !ok {
		t.Fatal("expected a value for x in the model")
	}
	iv := ctx.IntLitValue(val)
	if iv.Cmp(iv) != 0 {
		t.Fatal("unreachable")
	}
	if iv.Int64() <= 10 {
		t.Fatalf("x = %s, want > 10", iv.String())
	}
}

func TestUnsat(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)

	x, err := ctx.SymbolTable().CreateVariable("y", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	lt, err := b.Lt(b.VarRef(x), b.IntLit(0))
	if err != nil {
		t.Fatal(err)
	}
	gt, err := b.Gt(b.VarRef(x), b.IntLit(0))
	if err != nil {
		t.Fatal(err)
	}

	sv, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := sv.Add(lt); err != nil {
		t.Fatal(err)
	}
	if err := sv.Add(gt); err != nil {
		t.Fatal(err)
	}

	status, err := sv.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.String() != "unsat" {
		t.Fatalf("Check() = %s, want unsat", status)
	}
}

func TestPushPop(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)

	x, err := ctx.SymbolTable().CreateVariable("z", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	eqFive, err := b.Eq(b.VarRef(x), b.IntLit(5))
	if err != nil {
		t.Fatal(err)
	}
	eqSix, err := b.Eq(b.VarRef(x), b.IntLit(6))
	if err != nil {
		t.Fatal(err)
	}

	sv, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := sv.Add(eqFive); err != nil {
		t.Fatal(err)
	}

	sv.Push()
	if err := sv.Add(eqSix); err != nil {
		t.Fatal(err)
	}
	status, err := sv.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.String() != "unsat" {
		t.Fatalf("x=5 and x=6 together should be unsat, got %s", status)
	}
	sv.Pop()

	status, err = sv.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.String() != "sat" {
		t.Fatalf("x=5 alone should be sat after Pop, got %s", status)
	}
}
