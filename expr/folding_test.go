package expr

import "testing"

func newFoldCtx(t *testing.T) (*Context, *FoldingBuilder) {
	t.Helper()
	ctx := NewContext()
	return ctx, NewFoldingBuilder(ctx)
}

func TestAndOrIdentities(t *testing.T) {
	ctx, b := newFoldCtx(t)
	xv := must2(ctx.SymbolTable().CreateVariable("x", ctx.BoolType()))
	x := b.VarRef(xv)

	if got := Must(b.And(x, b.True())); got != x {
		t.Errorf("And(x, true) = %v, want x", ctx.String(got))
	}
	if got := Must(b.And(x, b.False())); got != b.False() {
		t.Errorf("And(x, false) = %v, want false", ctx.String(got))
	}
	if got := Must(b.Or(x, b.False())); got != x {
		t.Errorf("Or(x, false) = %v, want x", ctx.String(got))
	}
	if got := Must(b.Or(x, b.True())); got != b.True() {
		t.Errorf("Or(x, true) = %v, want true", ctx.String(got))
	}
	if got := Must(b.And(x, x)); got != x {
		t.Errorf("And(x, x) = %v, want x", ctx.String(got))
	}
	if got := Must(b.Or(x, x)); got != x {
		t.Errorf("Or(x, x) = %v, want x", ctx.String(got))
	}
}

func TestNotInvolution(t *testing.T) {
	ctx, b := newFoldCtx(t)
	xv := must2(ctx.SymbolTable().CreateVariable("x", ctx.BoolType()))
	x := b.VarRef(xv)
	nx := Must(b.Not(x))
	nnx := Must(b.Not(nx))
	if nnx != x {
		t.Errorf("Not(Not(x)) = %v, want x", ctx.String(nnx))
	}
}

func TestSelectIdentities(t *testing.T) {
	ctx, b := newFoldCtx(t)
	v, err := ctx.SymbolTable().CreateVariable("v", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	a := b.VarRef(v)
	w, err := ctx.SymbolTable().CreateVariable("w", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	c := b.VarRef(w)

	if got := Must(b.Select(b.True(), a, c)); got != a {
		t.Errorf("Select(true, a, c) = %v, want a", ctx.String(got))
	}
	if got := Must(b.Select(b.False(), a, c)); got != c {
		t.Errorf("Select(false, a, c) = %v, want c", ctx.String(got))
	}
	if got := Must(b.Select(Must(b.Eq(a, c)), a, a)); got != a {
		t.Errorf("Select(cond, a, a) = %v, want a", ctx.String(got))
	}
}

func TestHashConsIdentity(t *testing.T) {
	ctx, b := newFoldCtx(t)
	v, err := ctx.SymbolTable().CreateVariable("x", ctx.IntType())
	if err != nil {
		t.Fatal(err)
	}
	a := b.VarRef(v)
	one := b.IntLit(1)
	e1 := Must(b.Add(a, one))
	e2 := Must(b.Add(a, one))
	if e1 != e2 {
		t.Errorf("structurally equal nodes got distinct Exprs: %d vs %d", e1, e2)
	}
}

func TestConstantFolding(t *testing.T) {
	ctx, b := newFoldCtx(t)
	sum := Must(b.Add(b.IntLit(2), b.IntLit(3)))
	if ctx.Kind(sum) != KindIntLit || ctx.IntLitValue(sum).Int64() != 5 {
		t.Errorf("Add(2,3) did not fold to literal 5, got %v", ctx.String(sum))
	}
	lt := Must(b.Lt(b.IntLit(2), b.IntLit(3)))
	if lt != b.True() {
		t.Errorf("Lt(2,3) did not fold to true, got %v", ctx.String(lt))
	}
}

func TestBvAndFoldsLiterals(t *testing.T) {
	ctx, b := newFoldCtx(t)
	// 0xFF & 0xFF at width 8 folds to the literal 0xFF
	sum := Must(b.BvAnd(b.BvLit(0xFF, 8), b.BvLit(0xFF, 8)))
	if ctx.Kind(sum) != KindBvLit {
		t.Fatalf("expected folded BvLit, got %v", ctx.String(sum))
	}
	v, w := ctx.BvLitValue(sum)
	if w != 8 || v.Uint64() != 0xFF {
		t.Errorf("BvAnd(0xFF,0xFF) = %v:%d, want 255:8", v, w)
	}
}

func TestBvAddSubMulWrap(t *testing.T) {
	ctx, b := newFoldCtx(t)
	// 255 + 1 mod 2^8 == 0
	sum := Must(b.Add(b.BvLit(0xFF, 8), b.BvLit(1, 8)))
	if ctx.Kind(sum) != KindBvLit {
		t.Fatalf("expected folded BvLit, got %v", ctx.String(sum))
	}
	v, w := ctx.BvLitValue(sum)
	if w != 8 || v.Uint64() != 0 {
		t.Errorf("Add(0xFF,1) at width 8 = %v:%d, want 0:8", v, w)
	}
	// 16 * 16 mod 2^8 == 0
	prod := Must(b.Mul(b.BvLit(16, 8), b.BvLit(16, 8)))
	v, w = ctx.BvLitValue(prod)
	if w != 8 || v.Uint64() != 0 {
		t.Errorf("Mul(16,16) at width 8 = %v:%d, want 0:8", v, w)
	}
	// x - 0 == x, x + 0 == x, x * 1 == x, even for symbolic Bv operands
	v8, err := ctx.SymbolTable().CreateVariable("x8", ctx.BvType(8))
	if err != nil {
		t.Fatal(err)
	}
	x := b.VarRef(v8)
	zero, one := b.BvLit(0, 8), b.BvLit(1, 8)
	if got := Must(b.Add(x, zero)); got != x {
		t.Errorf("Add(x,0) = %v, want x", ctx.String(got))
	}
	if got := Must(b.Sub(x, zero)); got != x {
		t.Errorf("Sub(x,0) = %v, want x", ctx.String(got))
	}
	if got := Must(b.Mul(x, one)); got != x {
		t.Errorf("Mul(x,1) = %v, want x", ctx.String(got))
	}
}

func TestSExtOnNegative(t *testing.T) {
	ctx, b := newFoldCtx(t)
	// -1 as an 8-bit literal is 0xFF; SExt to 16 bits must stay all-ones.
	negOne := b.BvLit(0xFF, 8)
	ext := Must(b.SExt(negOne, 16))
	v, w := ctx.BvLitValue(ext)
	if w != 16 || v.Uint64() != 0xFFFF {
		t.Errorf("SExt(0xFF:8, 16) = %v:%d, want 0xFFFF:16", v, w)
	}
}

func TestBvUnsignedCompareWraps(t *testing.T) {
	_, b := newFoldCtx(t)
	// unsigned: 0xFF (255) > 0x01 (1) at width 8
	gt := Must(b.BvUGt(b.BvLit(0xFF, 8), b.BvLit(0x01, 8)))
	if gt != b.True() {
		t.Errorf("BvUGt(0xFF,0x01) did not fold to true")
	}
	// signed: 0xFF is -1, which is < 1
	slt := Must(b.BvSLt(b.BvLit(0xFF, 8), b.BvLit(0x01, 8)))
	if slt != b.True() {
		t.Errorf("BvSLt(0xFF,0x01) did not fold to true")
	}
}

func TestReadWriteLaw(t *testing.T) {
	ctx, b := newFoldCtx(t)
	arrTy := ctx.ArrayType(ctx.IntType(), ctx.IntType())
	v, err := ctx.SymbolTable().CreateVariable("arr", arrTy)
	if err != nil {
		t.Fatal(err)
	}
	arr := b.VarRef(v)
	idx := b.IntLit(0)
	val := b.IntLit(42)
	written := Must(b.Write(arr, idx, val))
	read := Must(b.Read(written, idx))
	if read != val {
		t.Errorf("Read(Write(a,i,v),i) = %v, want v", ctx.String(read))
	}
}

func TestFloatNanNeverEqual(t *testing.T) {
	ctx, b := newFoldCtx(t)
	nan := b.FloatLit(NaNFloat(Double))
	eq := Must(b.FEq(nan, nan))
	if eq != b.False() {
		t.Errorf("FEq(NaN, NaN) = %v, want false", ctx.String(eq))
	}
}

// must2 unwraps a (value, error) pair, panicking on error, so tests can
// stay one expression per assertion.
func must2[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
