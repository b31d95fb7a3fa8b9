package expr

import "math/big"

// Builder constructs Exprs. RawBuilder allocates a fresh node per call;
// FoldingBuilder additionally hash-conses and applies the algebraic
// rewrites of §4.B. Both fail with a *TypeError (surfaced through the
// returned error) when operand types don't match what the operator
// requires — see the Must wrapper in wrap.go for callers that want to
// panic instead of checking.
type Builder interface {
	True() Expr
	False() Expr
	BoolLit(v bool) Expr
	IntLit(v int64) Expr
	IntLitBig(v *big.Int) Expr
	BvLit(v uint64, width uint) Expr
	BvLitBig(v *big.Int, width uint) Expr
	FloatLit(v *BigFloat) Expr
	Undef(t Type) Expr
	VarRef(v *Variable) Expr

	Not(x Expr) (Expr, error)
	And(xs ...Expr) (Expr, error)
	Or(xs ...Expr) (Expr, error)
	Xor(a, b Expr) (Expr, error)
	Eq(a, b Expr) (Expr, error)
	NotEq(a, b Expr) (Expr, error)
	Select(cond, then, els Expr) (Expr, error)

	Add(a, b Expr) (Expr, error)
	Sub(a, b Expr) (Expr, error)
	Mul(a, b Expr) (Expr, error)
	Div(a, b Expr) (Expr, error)
	Mod(a, b Expr) (Expr, error)
	Lt(a, b Expr) (Expr, error)
	LtEq(a, b Expr) (Expr, error)
	Gt(a, b Expr) (Expr, error)
	GtEq(a, b Expr) (Expr, error)

	BvSDiv(a, b Expr) (Expr, error)
	BvUDiv(a, b Expr) (Expr, error)
	BvSRem(a, b Expr) (Expr, error)
	BvURem(a, b Expr) (Expr, error)
	Shl(a, b Expr) (Expr, error)
	LShr(a, b Expr) (Expr, error)
	AShr(a, b Expr) (Expr, error)
	BvAnd(a, b Expr) (Expr, error)
	BvOr(a, b Expr) (Expr, error)
	BvXor(a, b Expr) (Expr, error)
	BvULt(a, b Expr) (Expr, error)
	BvULtEq(a, b Expr) (Expr, error)
	BvUGt(a, b Expr) (Expr, error)
	BvUGtEq(a, b Expr) (Expr, error)
	BvSLt(a, b Expr) (Expr, error)
	BvSLtEq(a, b Expr) (Expr, error)
	BvSGt(a, b Expr) (Expr, error)
	BvSGtEq(a, b Expr) (Expr, error)
	ZExt(a Expr, width uint) (Expr, error)
	SExt(a Expr, width uint) (Expr, error)
	Trunc(a Expr, width uint) (Expr, error)

	FAdd(a, b Expr, rm RoundingMode) (Expr, error)
	FSub(a, b Expr, rm RoundingMode) (Expr, error)
	FMul(a, b Expr, rm RoundingMode) (Expr, error)
	FDiv(a, b Expr, rm RoundingMode) (Expr, error)
	FEq(a, b Expr) (Expr, error)
	FGt(a, b Expr) (Expr, error)
	FGtEq(a, b Expr) (Expr, error)
	FLt(a, b Expr) (Expr, error)
	FLtEq(a, b Expr) (Expr, error)
	FIsNan(a Expr) (Expr, error)
	FCast(a Expr, kind FloatKind, rm RoundingMode) (Expr, error)
	SignedToFp(a Expr, kind FloatKind, rm RoundingMode) (Expr, error)
	UnsignedToFp(a Expr, kind FloatKind, rm RoundingMode) (Expr, error)
	FpToSigned(a Expr, width uint, rm RoundingMode) (Expr, error)
	FpToUnsigned(a Expr, width uint, rm RoundingMode) (Expr, error)

	Read(arr, idx Expr) (Expr, error)
	Write(arr, idx, val Expr) (Expr, error)
}

// makeFn abstracts over RawBuilder's fresh-allocation and
// FoldingBuilder's hash-consed allocation so the type-checking and node
// assembly logic below is written exactly once.
type makeFn func(node) Expr

func checkType(op string, ctx *Context, e Expr, want func(Type) bool, wantName string) error {
	if !want(ctx.Type(e)) {
		return typeErrorf(op, wantName, ctx.Type(e))
	}
	return nil
}

func sameType(op string, ctx *Context, a, b Expr) error {
	if ctx.Type(a) != ctx.Type(b) {
		return typeErrorf(op, ctx.Type(a).String(), ctx.Type(b))
	}
	return nil
}

func mkBool(make makeFn, ctx *Context, kind Kind, operands ...Expr) Expr {
	return make(node{kind: kind, typ: ctx.BoolType(), operands: operands})
}

func mkSameType(make makeFn, ctx *Context, kind Kind, typ Type, operands ...Expr) Expr {
	return make(node{kind: kind, typ: typ, operands: operands})
}

func binBoolOp(op string, make makeFn, ctx *Context, kind Kind, a, b Expr) (Expr, error) {
	if err := checkType(op, ctx, a, IsBool, "Bool"); err != nil {
		return Invalid, err
	}
	if err := checkType(op, ctx, b, IsBool, "Bool"); err != nil {
		return Invalid, err
	}
	return mkBool(make, ctx, kind, a, b), nil
}

func binArithOp(op string, make makeFn, ctx *Context, kind Kind, a, b Expr, want func(Type) bool, wantName string) (Expr, error) {
	if err := checkType(op, ctx, a, want, wantName); err != nil {
		return Invalid, err
	}
	if err := sameType(op, ctx, a, b); err != nil {
		return Invalid, err
	}
	return mkSameType(make, ctx, kind, ctx.Type(a), a, b), nil
}

func cmpOp(op string, make makeFn, ctx *Context, kind Kind, a, b Expr, want func(Type) bool, wantName string) (Expr, error) {
	if err := checkType(op, ctx, a, want, wantName); err != nil {
		return Invalid, err
	}
	if err := sameType(op, ctx, a, b); err != nil {
		return Invalid, err
	}
	return mkBool(make, ctx, kind, a, b), nil
}
