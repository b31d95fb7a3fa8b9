package memory

import (
	"testing"

	"gobmc/expr"
)

func TestHavocLoadIsUnconstrained(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	m := NewHavocModel()

	addr, err := m.HandleAlloca(ctx, b, ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	v1, err := m.HandleLoad(ctx, b, ctx.IntType(), addr)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := m.HandleLoad(ctx, b, ctx.IntType(), addr)
	if err != nil {
		t.Fatal(err)
	}
	if v1 == v2 {
		t.Errorf("two havoc loads returned the same expr %v; each load must be a fresh nondet value", ctx.String(v1))
	}
}

func TestArrayModelReadAfterWrite(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	m := NewArrayModel()

	addr, err := m.HandleAlloca(ctx, b, ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	val := b.IntLit(42)
	written, err := m.HandleStore(ctx, b, ctx.IntType(), addr, val)
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Kind(written) != expr.KindWrite {
		t.Fatalf("HandleStore did not produce a Write node: %v", ctx.String(written))
	}
	read, err := b.Read(written, addr)
	if err != nil {
		t.Fatal(err)
	}
	if read != val {
		t.Errorf("Read(Write(mem,a,42),a) = %v, want 42", ctx.String(read))
	}
}

func TestArrayModelMemoryVariableExists(t *testing.T) {
	ctx := expr.NewContext()
	b := expr.NewFoldingBuilder(ctx)
	m := NewArrayModel()
	if _, ok := m.MemoryVariable(ctx.IntType()); ok {
		t.Fatal("expected no memory variable before first alloca")
	}
	if _, err := m.HandleAlloca(ctx, b, ctx.IntType()); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.MemoryVariable(ctx.IntType()); !ok {
		t.Fatal("expected a memory variable after alloca")
	}
}
