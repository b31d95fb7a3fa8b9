package expr

import "math/big"

// RawBuilder is the non-folding builder: every call allocates a fresh
// node, with no rewrites and no hash-consing. It exists for tests that
// need to observe un-simplified expression shapes.
type RawBuilder struct {
	ctx *Context
}

func NewRawBuilder(ctx *Context) *RawBuilder { return &RawBuilder{ctx: ctx} }

func (b *RawBuilder) make(n node) Expr { return b.ctx.newNodeRaw(n) }

func (b *RawBuilder) True() Expr  { return b.BoolLit(true) }
func (b *RawBuilder) False() Expr { return b.BoolLit(false) }
func (b *RawBuilder) BoolLit(v bool) Expr {
	return b.make(node{kind: KindBoolLit, typ: b.ctx.BoolType(), boolVal: v})
}
func (b *RawBuilder) IntLit(v int64) Expr { return b.IntLitBig(big.NewInt(v)) }
func (b *RawBuilder) IntLitBig(v *big.Int) Expr {
	return b.make(node{kind: KindIntLit, typ: b.ctx.IntType(), intVal: new(big.Int).Set(v)})
}
func (b *RawBuilder) BvLit(v uint64, width uint) Expr {
	return b.BvLitBig(new(big.Int).SetUint64(v), width)
}
func (b *RawBuilder) BvLitBig(v *big.Int, width uint) Expr {
	wrapped := wrapBv(v, width)
	return b.make(node{kind: KindBvLit, typ: b.ctx.BvType(width), intVal: wrapped, bvWidth: width})
}
func (b *RawBuilder) FloatLit(v *BigFloat) Expr {
	return b.make(node{kind: KindFloatLit, typ: b.ctx.FloatType(v.Kind), floatVal: v})
}
func (b *RawBuilder) Undef(t Type) Expr {
	return b.make(node{kind: KindUndef, typ: t})
}
func (b *RawBuilder) VarRef(v *Variable) Expr {
	return b.make(node{kind: KindVarRef, typ: v.Type(), variable: v})
}

func (b *RawBuilder) Not(x Expr) (Expr, error) {
	if err := checkType("Not", b.ctx, x, IsBool, "Bool"); err != nil {
		return Invalid, err
	}
	return mkBool(b.make, b.ctx, KindNot, x), nil
}

func (b *RawBuilder) And(xs ...Expr) (Expr, error) { return variadicBool(b.make, b.ctx, KindAnd, b.True(), xs) }
func (b *RawBuilder) Or(xs ...Expr) (Expr, error)  { return variadicBool(b.make, b.ctx, KindOr, b.False(), xs) }

func (b *RawBuilder) Xor(a, c Expr) (Expr, error) { return binBoolOp("Xor", b.make, b.ctx, KindXor, a, c) }

func (b *RawBuilder) Eq(a, c Expr) (Expr, error) {
	if err := sameType("Eq", b.ctx, a, c); err != nil {
		return Invalid, err
	}
	return mkBool(b.make, b.ctx, KindEq, a, c), nil
}
func (b *RawBuilder) NotEq(a, c Expr) (Expr, error) {
	if err := sameType("NotEq", b.ctx, a, c); err != nil {
		return Invalid, err
	}
	return mkBool(b.make, b.ctx, KindNotEq, a, c), nil
}
func (b *RawBuilder) Select(cond, then, els Expr) (Expr, error) {
	if err := checkType("Select", b.ctx, cond, IsBool, "Bool"); err != nil {
		return Invalid, err
	}
	if err := sameType("Select", b.ctx, then, els); err != nil {
		return Invalid, err
	}
	return mkSameType(b.make, b.ctx, KindSelect, b.ctx.Type(then), cond, then, els), nil
}

func (b *RawBuilder) Add(a, c Expr) (Expr, error) { return binArithOp("Add", b.make, b.ctx, KindAdd, a, c, isIntLike, "Int or Bv") }
func (b *RawBuilder) Sub(a, c Expr) (Expr, error) { return binArithOp("Sub", b.make, b.ctx, KindSub, a, c, isIntLike, "Int or Bv") }
func (b *RawBuilder) Mul(a, c Expr) (Expr, error) { return binArithOp("Mul", b.make, b.ctx, KindMul, a, c, isIntLike, "Int or Bv") }
func (b *RawBuilder) Div(a, c Expr) (Expr, error) { return binArithOp("Div", b.make, b.ctx, KindDiv, a, c, IsInt, "Int") }
func (b *RawBuilder) Mod(a, c Expr) (Expr, error) { return binArithOp("Mod", b.make, b.ctx, KindMod, a, c, IsInt, "Int") }
func (b *RawBuilder) Lt(a, c Expr) (Expr, error)   { return cmpOp("Lt", b.make, b.ctx, KindLt, a, c, IsInt, "Int") }
func (b *RawBuilder) LtEq(a, c Expr) (Expr, error) { return cmpOp("LtEq", b.make, b.ctx, KindLtEq, a, c, IsInt, "Int") }
func (b *RawBuilder) Gt(a, c Expr) (Expr, error)   { return cmpOp("Gt", b.make, b.ctx, KindGt, a, c, IsInt, "Int") }
func (b *RawBuilder) GtEq(a, c Expr) (Expr, error) { return cmpOp("GtEq", b.make, b.ctx, KindGtEq, a, c, IsInt, "Int") }

func (b *RawBuilder) BvSDiv(a, c Expr) (Expr, error) { return binArithOp("BvSDiv", b.make, b.ctx, KindBvSDiv, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvUDiv(a, c Expr) (Expr, error) { return binArithOp("BvUDiv", b.make, b.ctx, KindBvUDiv, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvSRem(a, c Expr) (Expr, error) { return binArithOp("BvSRem", b.make, b.ctx, KindBvSRem, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvURem(a, c Expr) (Expr, error) { return binArithOp("BvURem", b.make, b.ctx, KindBvURem, a, c, IsBv, "Bv") }
func (b *RawBuilder) Shl(a, c Expr) (Expr, error)    { return binArithOp("Shl", b.make, b.ctx, KindShl, a, c, IsBv, "Bv") }
func (b *RawBuilder) LShr(a, c Expr) (Expr, error)   { return binArithOp("LShr", b.make, b.ctx, KindLShr, a, c, IsBv, "Bv") }
func (b *RawBuilder) AShr(a, c Expr) (Expr, error)   { return binArithOp("AShr", b.make, b.ctx, KindAShr, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvAnd(a, c Expr) (Expr, error)  { return binArithOp("BvAnd", b.make, b.ctx, KindBvAnd, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvOr(a, c Expr) (Expr, error)   { return binArithOp("BvOr", b.make, b.ctx, KindBvOr, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvXor(a, c Expr) (Expr, error)  { return binArithOp("BvXor", b.make, b.ctx, KindBvXor, a, c, IsBv, "Bv") }

func (b *RawBuilder) BvULt(a, c Expr) (Expr, error)   { return cmpOp("BvULt", b.make, b.ctx, KindBvULt, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvULtEq(a, c Expr) (Expr, error) { return cmpOp("BvULtEq", b.make, b.ctx, KindBvULtEq, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvUGt(a, c Expr) (Expr, error)   { return cmpOp("BvUGt", b.make, b.ctx, KindBvUGt, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvUGtEq(a, c Expr) (Expr, error) { return cmpOp("BvUGtEq", b.make, b.ctx, KindBvUGtEq, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvSLt(a, c Expr) (Expr, error)   { return cmpOp("BvSLt", b.make, b.ctx, KindBvSLt, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvSLtEq(a, c Expr) (Expr, error) { return cmpOp("BvSLtEq", b.make, b.ctx, KindBvSLtEq, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvSGt(a, c Expr) (Expr, error)   { return cmpOp("BvSGt", b.make, b.ctx, KindBvSGt, a, c, IsBv, "Bv") }
func (b *RawBuilder) BvSGtEq(a, c Expr) (Expr, error) { return cmpOp("BvSGtEq", b.make, b.ctx, KindBvSGtEq, a, c, IsBv, "Bv") }

func (b *RawBuilder) ZExt(a Expr, width uint) (Expr, error) {
	return extOp("ZExt", b.make, b.ctx, KindZExt, a, width)
}
func (b *RawBuilder) SExt(a Expr, width uint) (Expr, error) {
	return extOp("SExt", b.make, b.ctx, KindSExt, a, width)
}
func (b *RawBuilder) Trunc(a Expr, width uint) (Expr, error) {
	return truncOp("Trunc", b.make, b.ctx, a, width)
}

func (b *RawBuilder) FAdd(a, c Expr, rm RoundingMode) (Expr, error) { return fBinOp("FAdd", b.make, b.ctx, KindFAdd, a, c, rm) }
func (b *RawBuilder) FSub(a, c Expr, rm RoundingMode) (Expr, error) { return fBinOp("FSub", b.make, b.ctx, KindFSub, a, c, rm) }
func (b *RawBuilder) FMul(a, c Expr, rm RoundingMode) (Expr, error) { return fBinOp("FMul", b.make, b.ctx, KindFMul, a, c, rm) }
func (b *RawBuilder) FDiv(a, c Expr, rm RoundingMode) (Expr, error) { return fBinOp("FDiv", b.make, b.ctx, KindFDiv, a, c, rm) }

func (b *RawBuilder) FEq(a, c Expr) (Expr, error)   { return fCmpOp("FEq", b.make, b.ctx, KindFEq, a, c) }
func (b *RawBuilder) FGt(a, c Expr) (Expr, error)   { return fCmpOp("FGt", b.make, b.ctx, KindFGt, a, c) }
func (b *RawBuilder) FGtEq(a, c Expr) (Expr, error) { return fCmpOp("FGtEq", b.make, b.ctx, KindFGtEq, a, c) }
func (b *RawBuilder) FLt(a, c Expr) (Expr, error)   { return fCmpOp("FLt", b.make, b.ctx, KindFLt, a, c) }
func (b *RawBuilder) FLtEq(a, c Expr) (Expr, error) { return fCmpOp("FLtEq", b.make, b.ctx, KindFLtEq, a, c) }

func (b *RawBuilder) FIsNan(a Expr) (Expr, error) {
	if err := checkType("FIsNan", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	return mkBool(b.make, b.ctx, KindFIsNan, a), nil
}

func (b *RawBuilder) FCast(a Expr, kind FloatKind, rm RoundingMode) (Expr, error) {
	if err := checkType("FCast", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	n := node{kind: KindFCast, typ: b.ctx.FloatType(kind), operands: []Expr{a}, rounding: rm}
	return b.make(n), nil
}

func (b *RawBuilder) SignedToFp(a Expr, kind FloatKind, rm RoundingMode) (Expr, error) {
	if err := checkType("SignedToFp", b.ctx, a, isIntLike, "Int or Bv"); err != nil {
		return Invalid, err
	}
	return b.make(node{kind: KindSignedToFp, typ: b.ctx.FloatType(kind), operands: []Expr{a}, rounding: rm}), nil
}
func (b *RawBuilder) UnsignedToFp(a Expr, kind FloatKind, rm RoundingMode) (Expr, error) {
	if err := checkType("UnsignedToFp", b.ctx, a, isIntLike, "Int or Bv"); err != nil {
		return Invalid, err
	}
	return b.make(node{kind: KindUnsignedToFp, typ: b.ctx.FloatType(kind), operands: []Expr{a}, rounding: rm}), nil
}
func (b *RawBuilder) FpToSigned(a Expr, width uint, rm RoundingMode) (Expr, error) {
	if err := checkType("FpToSigned", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	return b.make(node{kind: KindFpToSigned, typ: b.ctx.BvType(width), operands: []Expr{a}, rounding: rm}), nil
}
func (b *RawBuilder) FpToUnsigned(a Expr, width uint, rm RoundingMode) (Expr, error) {
	if err := checkType("FpToUnsigned", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	return b.make(node{kind: KindFpToUnsigned, typ: b.ctx.BvType(width), operands: []Expr{a}, rounding: rm}), nil
}

func (b *RawBuilder) Read(arr, idx Expr) (Expr, error) {
	domain, elem, ok := ArrayParts(b.ctx.Type(arr))
	if !ok {
		return Invalid, typeErrorf("Read", "Array", b.ctx.Type(arr))
	}
	if b.ctx.Type(idx) != domain {
		return Invalid, typeErrorf("Read", domain.String(), b.ctx.Type(idx))
	}
	return b.make(node{kind: KindRead, typ: elem, operands: []Expr{arr, idx}}), nil
}
func (b *RawBuilder) Write(arr, idx, val Expr) (Expr, error) {
	domain, elem, ok := ArrayParts(b.ctx.Type(arr))
	if !ok {
		return Invalid, typeErrorf("Write", "Array", b.ctx.Type(arr))
	}
	if b.ctx.Type(idx) != domain {
		return Invalid, typeErrorf("Write", domain.String(), b.ctx.Type(idx))
	}
	if b.ctx.Type(val) != elem {
		return Invalid, typeErrorf("Write", elem.String(), b.ctx.Type(val))
	}
	return b.make(node{kind: KindWrite, typ: b.ctx.Type(arr), operands: []Expr{arr, idx, val}}), nil
}

func isIntLike(t Type) bool { return IsInt(t) || IsBv(t) }

func wrapBv(v *big.Int, width uint) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), width)
	r := new(big.Int).Mod(v, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r
}

func variadicBool(make makeFn, ctx *Context, kind Kind, neutral Expr, xs []Expr) (Expr, error) {
	for _, x := range xs {
		if err := checkType(kind.String(), ctx, x, IsBool, "Bool"); err != nil {
			return Invalid, err
		}
	}
	if len(xs) == 0 {
		return neutral, nil
	}
	if len(xs) == 1 {
		return xs[0], nil
	}
	return mkBool(make, ctx, kind, xs...), nil
}

func extOp(op string, make makeFn, ctx *Context, kind Kind, a Expr, width uint) (Expr, error) {
	srcWidth, ok := BvWidth(ctx.Type(a))
	if !ok {
		return Invalid, typeErrorf(op, "Bv", ctx.Type(a))
	}
	if width < srcWidth {
		return Invalid, typeErrorf(op, "width >= source width", ctx.Type(a))
	}
	return make(node{kind: kind, typ: ctx.BvType(width), operands: []Expr{a}}), nil
}

func truncOp(op string, make makeFn, ctx *Context, a Expr, width uint) (Expr, error) {
	srcWidth, ok := BvWidth(ctx.Type(a))
	if !ok {
		return Invalid, typeErrorf(op, "Bv", ctx.Type(a))
	}
	if width > srcWidth {
		return Invalid, typeErrorf(op, "width <= source width", ctx.Type(a))
	}
	return make(node{kind: KindTrunc, typ: ctx.BvType(width), operands: []Expr{a}}), nil
}

func fBinOp(op string, make makeFn, ctx *Context, kind Kind, a, b Expr, rm RoundingMode) (Expr, error) {
	if err := checkType(op, ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, ctx, a, b); err != nil {
		return Invalid, err
	}
	return make(node{kind: kind, typ: ctx.Type(a), operands: []Expr{a, b}, rounding: rm}), nil
}

func fCmpOp(op string, make makeFn, ctx *Context, kind Kind, a, b Expr) (Expr, error) {
	if err := checkType(op, ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, ctx, a, b); err != nil {
		return Invalid, err
	}
	return mkBool(make, ctx, kind, a, b), nil
}
