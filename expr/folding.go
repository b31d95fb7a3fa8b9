package expr

import "math/big"

// FoldingBuilder is the default builder: it hash-conses every node
// except Undef (each Undef call allocates a distinct node, so two
// undefined values are never forced equal) and applies the algebraic
// rewrites below before allocating, so
// structurally redundant or triviallly-decidable subexpressions never
// reach the arena in their unreduced form.
type FoldingBuilder struct {
	ctx *Context
}

func NewFoldingBuilder(ctx *Context) *FoldingBuilder { return &FoldingBuilder{ctx: ctx} }

func (b *FoldingBuilder) make(n node) Expr { return b.ctx.newNodeInterned(n) }

func (b *FoldingBuilder) True() Expr  { return b.BoolLit(true) }
func (b *FoldingBuilder) False() Expr { return b.BoolLit(false) }
func (b *FoldingBuilder) BoolLit(v bool) Expr {
	return b.make(node{kind: KindBoolLit, typ: b.ctx.BoolType(), boolVal: v})
}
func (b *FoldingBuilder) IntLit(v int64) Expr { return b.IntLitBig(big.NewInt(v)) }
func (b *FoldingBuilder) IntLitBig(v *big.Int) Expr {
	return b.make(node{kind: KindIntLit, typ: b.ctx.IntType(), intVal: new(big.Int).Set(v)})
}
func (b *FoldingBuilder) BvLit(v uint64, width uint) Expr {
	return b.BvLitBig(new(big.Int).SetUint64(v), width)
}
func (b *FoldingBuilder) BvLitBig(v *big.Int, width uint) Expr {
	return b.make(node{kind: KindBvLit, typ: b.ctx.BvType(width), intVal: wrapBv(v, width), bvWidth: width})
}
func (b *FoldingBuilder) FloatLit(v *BigFloat) Expr {
	return b.make(node{kind: KindFloatLit, typ: b.ctx.FloatType(v.Kind), floatVal: v})
}
func (b *FoldingBuilder) Undef(t Type) Expr {
	return b.ctx.newNodeRaw(node{kind: KindUndef, typ: t})
}
func (b *FoldingBuilder) VarRef(v *Variable) Expr {
	return b.make(node{kind: KindVarRef, typ: v.Type(), variable: v})
}

func (b *FoldingBuilder) kind(e Expr) Kind { return b.ctx.Kind(e) }

func (b *FoldingBuilder) Not(x Expr) (Expr, error) {
	if err := checkType("Not", b.ctx, x, IsBool, "Bool"); err != nil {
		return Invalid, err
	}
	switch b.kind(x) {
	case KindNot:
		return b.ctx.Operand(x, 0), nil // Not(Not(a)) -> a
	case KindBoolLit:
		return b.BoolLit(!b.ctx.BoolLitValue(x)), nil
	}
	return mkBool(b.make, b.ctx, KindNot, x), nil
}

// And/Or fold the neutral element, absorb duplicates, and short-circuit
// on a literal operand; anything left over is built variadically.
func (b *FoldingBuilder) And(xs ...Expr) (Expr, error) { return b.andOr(true, xs) }
func (b *FoldingBuilder) Or(xs ...Expr) (Expr, error)  { return b.andOr(false, xs) }

func (b *FoldingBuilder) andOr(isAnd bool, xs []Expr) (Expr, error) {
	absorbing := b.BoolLit(!isAnd) // And: false absorbs; Or: true absorbs
	neutral := b.BoolLit(isAnd)    // And: true is neutral; Or: false is neutral
	kind := KindOr
	if isAnd {
		kind = KindAnd
	}

	seen := make(map[Expr]bool)
	var kept []Expr
	for _, x := range xs {
		if err := checkType(kind.String(), b.ctx, x, IsBool, "Bool"); err != nil {
			return Invalid, err
		}
		if x == absorbing {
			return absorbing, nil
		}
		if x == neutral || seen[x] {
			continue
		}
		seen[x] = true
		kept = append(kept, x)
	}
	switch len(kept) {
	case 0:
		return neutral, nil
	case 1:
		return kept[0], nil
	default:
		return mkBool(b.make, b.ctx, kind, kept...), nil
	}
}

func (b *FoldingBuilder) Xor(a, c Expr) (Expr, error) {
	if err := binBoolOpCheck("Xor", b.ctx, a, c); err != nil {
		return Invalid, err
	}
	if a == c {
		return b.False(), nil
	}
	if b.kind(a) == KindBoolLit && b.kind(c) == KindBoolLit {
		return b.BoolLit(b.ctx.BoolLitValue(a) != b.ctx.BoolLitValue(c)), nil
	}
	return mkBool(b.make, b.ctx, KindXor, a, c), nil
}

func (b *FoldingBuilder) Eq(a, c Expr) (Expr, error) {
	if err := sameType("Eq", b.ctx, a, c); err != nil {
		return Invalid, err
	}
	if a == c {
		return b.True(), nil
	}
	if b.ctx.IsLiteral(a) && b.ctx.IsLiteral(c) {
		return b.BoolLit(literalsEqual(b.ctx, a, c)), nil
	}
	return mkBool(b.make, b.ctx, KindEq, a, c), nil
}
func (b *FoldingBuilder) NotEq(a, c Expr) (Expr, error) {
	eq, err := b.Eq(a, c)
	if err != nil {
		return Invalid, err
	}
	return b.Not(eq)
}

func (b *FoldingBuilder) Select(cond, then, els Expr) (Expr, error) {
	if err := checkType("Select", b.ctx, cond, IsBool, "Bool"); err != nil {
		return Invalid, err
	}
	if err := sameType("Select", b.ctx, then, els); err != nil {
		return Invalid, err
	}
	if then == els {
		return then, nil
	}
	if b.kind(cond) == KindBoolLit {
		if b.ctx.BoolLitValue(cond) {
			return then, nil
		}
		return els, nil
	}
	return mkSameType(b.make, b.ctx, KindSelect, b.ctx.Type(then), cond, then, els), nil
}

func literalsEqual(ctx *Context, a, c Expr) bool {
	if ctx.Kind(a) != ctx.Kind(c) {
		return false
	}
	switch ctx.Kind(a) {
	case KindBoolLit:
		return ctx.BoolLitValue(a) == ctx.BoolLitValue(c)
	case KindIntLit:
		return ctx.IntLitValue(a).Cmp(ctx.IntLitValue(c)) == 0
	case KindBvLit:
		av, aw := ctx.BvLitValue(a)
		cv, cw := ctx.BvLitValue(c)
		return aw == cw && av.Cmp(cv) == 0
	case KindFloatLit:
		return ctx.FloatLitValue(a).Equal(ctx.FloatLitValue(c))
	default:
		return false
	}
}

func binBoolOpCheck(op string, ctx *Context, a, b Expr) error {
	if err := checkType(op, ctx, a, IsBool, "Bool"); err != nil {
		return err
	}
	return checkType(op, ctx, b, IsBool, "Bool")
}

// Add/Sub/Mul are shared between Int mode and Bv mode — the same three
// Kinds solver/z3solver.go's arith helper dispatches over both z3.Int
// and z3.BV — so they check isIntLike and fold down the matching arm.
// Div/Mod stay Int-only; Bv division/remainder are the separate
// BvSDiv/BvUDiv/BvSRem/BvURem kinds below.
func (b *FoldingBuilder) Add(a, c Expr) (Expr, error) { return b.addSubMul("Add", KindAdd, a, c) }
func (b *FoldingBuilder) Sub(a, c Expr) (Expr, error) { return b.addSubMul("Sub", KindSub, a, c) }
func (b *FoldingBuilder) Mul(a, c Expr) (Expr, error) { return b.addSubMul("Mul", KindMul, a, c) }
func (b *FoldingBuilder) Div(a, c Expr) (Expr, error) { return b.intArith("Div", KindDiv, a, c) }
func (b *FoldingBuilder) Mod(a, c Expr) (Expr, error) { return b.intArith("Mod", KindMod, a, c) }

func (b *FoldingBuilder) addSubMul(op string, kind Kind, a, c Expr) (Expr, error) {
	if err := checkType(op, b.ctx, a, isIntLike, "Int or Bv"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, b.ctx, a, c); err != nil {
		return Invalid, err
	}
	if IsBv(b.ctx.Type(a)) {
		return b.bvArith(op, kind, a, c, false)
	}
	return b.intArithFold(kind, a, c)
}

func (b *FoldingBuilder) intArith(op string, kind Kind, a, c Expr) (Expr, error) {
	if err := checkType(op, b.ctx, a, IsInt, "Int"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, b.ctx, a, c); err != nil {
		return Invalid, err
	}
	return b.intArithFold(kind, a, c)
}

func (b *FoldingBuilder) intArithFold(kind Kind, a, c Expr) (Expr, error) {
	zero := b.IntLit(0)
	one := b.IntLit(1)
	switch kind {
	case KindAdd:
		if a == zero {
			return c, nil
		}
		if c == zero {
			return a, nil
		}
	case KindSub:
		if c == zero {
			return a, nil
		}
	case KindMul:
		if a == zero || c == zero {
			return zero, nil
		}
		if a == one {
			return c, nil
		}
		if c == one {
			return a, nil
		}
	}
	if b.kind(a) == KindIntLit && b.kind(c) == KindIntLit {
		av, cv := b.ctx.IntLitValue(a), b.ctx.IntLitValue(c)
		r := new(big.Int)
		switch kind {
		case KindAdd:
			r.Add(av, cv)
		case KindSub:
			r.Sub(av, cv)
		case KindMul:
			r.Mul(av, cv)
		case KindDiv:
			if cv.Sign() == 0 {
				return mkSameType(b.make, b.ctx, kind, b.ctx.Type(a), a, c), nil
			}
			r.Div(av, cv)
		case KindMod:
			if cv.Sign() == 0 {
				return mkSameType(b.make, b.ctx, kind, b.ctx.Type(a), a, c), nil
			}
			r.Mod(av, cv)
		}
		return b.IntLitBig(r), nil
	}
	return mkSameType(b.make, b.ctx, kind, b.ctx.Type(a), a, c), nil
}

func (b *FoldingBuilder) Lt(a, c Expr) (Expr, error)   { return b.cmp("Lt", KindLt, a, c) }
func (b *FoldingBuilder) LtEq(a, c Expr) (Expr, error) { return b.cmp("LtEq", KindLtEq, a, c) }
func (b *FoldingBuilder) Gt(a, c Expr) (Expr, error)   { return b.cmp("Gt", KindGt, a, c) }
func (b *FoldingBuilder) GtEq(a, c Expr) (Expr, error) { return b.cmp("GtEq", KindGtEq, a, c) }

func (b *FoldingBuilder) cmp(op string, kind Kind, a, c Expr) (Expr, error) {
	if err := checkType(op, b.ctx, a, IsInt, "Int"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, b.ctx, a, c); err != nil {
		return Invalid, err
	}
	if b.kind(a) == KindIntLit && b.kind(c) == KindIntLit {
		cmp := b.ctx.IntLitValue(a).Cmp(b.ctx.IntLitValue(c))
		return b.BoolLit(evalCmp(kind, cmp)), nil
	}
	return mkBool(b.make, b.ctx, kind, a, c), nil
}

func evalCmp(kind Kind, cmp int) bool {
	switch kind {
	case KindLt, KindBvULt, KindBvSLt:
		return cmp < 0
	case KindLtEq, KindBvULtEq, KindBvSLtEq:
		return cmp <= 0
	case KindGt, KindBvUGt, KindBvSGt:
		return cmp > 0
	case KindGtEq, KindBvUGtEq, KindBvSGtEq:
		return cmp >= 0
	default:
		return false
	}
}

// Bit-vector arithmetic: results are folded modulo 2^width; identity
// rewrites mirror the Int-mode ones above.
func (b *FoldingBuilder) BvSDiv(a, c Expr) (Expr, error) { return b.bvArith("BvSDiv", KindBvSDiv, a, c, true) }
func (b *FoldingBuilder) BvUDiv(a, c Expr) (Expr, error) { return b.bvArith("BvUDiv", KindBvUDiv, a, c, false) }
func (b *FoldingBuilder) BvSRem(a, c Expr) (Expr, error) { return b.bvArith("BvSRem", KindBvSRem, a, c, true) }
func (b *FoldingBuilder) BvURem(a, c Expr) (Expr, error) { return b.bvArith("BvURem", KindBvURem, a, c, false) }
func (b *FoldingBuilder) Shl(a, c Expr) (Expr, error)    { return b.bvArith("Shl", KindShl, a, c, false) }
func (b *FoldingBuilder) LShr(a, c Expr) (Expr, error)   { return b.bvArith("LShr", KindLShr, a, c, false) }
func (b *FoldingBuilder) AShr(a, c Expr) (Expr, error)   { return b.bvArith("AShr", KindAShr, a, c, true) }
func (b *FoldingBuilder) BvAnd(a, c Expr) (Expr, error)  { return b.bvArith("BvAnd", KindBvAnd, a, c, false) }
func (b *FoldingBuilder) BvOr(a, c Expr) (Expr, error)   { return b.bvArith("BvOr", KindBvOr, a, c, false) }
func (b *FoldingBuilder) BvXor(a, c Expr) (Expr, error)  { return b.bvArith("BvXor", KindBvXor, a, c, false) }

func (b *FoldingBuilder) bvArith(op string, kind Kind, a, c Expr, signed bool) (Expr, error) {
	if err := checkType(op, b.ctx, a, IsBv, "Bv"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, b.ctx, a, c); err != nil {
		return Invalid, err
	}
	width, _ := BvWidth(b.ctx.Type(a))
	switch kind {
	case KindAdd:
		zero := b.BvLit(0, width)
		if a == zero {
			return c, nil
		}
		if c == zero {
			return a, nil
		}
	case KindSub:
		zero := b.BvLit(0, width)
		if c == zero {
			return a, nil
		}
	case KindMul:
		zero, one := b.BvLit(0, width), b.BvLit(1, width)
		if a == zero || c == zero {
			return zero, nil
		}
		if a == one {
			return c, nil
		}
		if c == one {
			return a, nil
		}
	}
	if b.kind(a) == KindBvLit && b.kind(c) == KindBvLit {
		av, _ := b.ctx.BvLitValue(a)
		cv, _ := b.ctx.BvLitValue(c)
		if r, ok := evalBvArith(kind, av, cv, width, signed); ok {
			return b.BvLitBig(r, width), nil
		}
	}
	return mkSameType(b.make, b.ctx, kind, b.ctx.Type(a), a, c), nil
}

func evalBvArith(kind Kind, av, cv *big.Int, width uint, signed bool) (*big.Int, bool) {
	a, c := av, cv
	if signed {
		a = toSigned(av, width)
		c = toSigned(cv, width)
	}
	r := new(big.Int)
	switch kind {
	case KindAdd:
		r.Add(av, cv)
	case KindSub:
		r.Sub(av, cv)
	case KindMul:
		r.Mul(av, cv)
	case KindBvAnd:
		r.And(av, cv)
	case KindBvOr:
		r.Or(av, cv)
	case KindBvXor:
		r.Xor(av, cv)
	case KindShl:
		r.Lsh(av, uint(cv.Uint64()))
	case KindLShr:
		r.Rsh(av, uint(cv.Uint64()))
	case KindAShr:
		r.Rsh(a, uint(cv.Uint64()))
	case KindBvSDiv, KindBvUDiv:
		if cv.Sign() == 0 {
			return nil, false
		}
		r.Quo(a, c)
	case KindBvSRem, KindBvURem:
		if cv.Sign() == 0 {
			return nil, false
		}
		r.Rem(a, c)
	default:
		return nil, false
	}
	return wrapBv(r, width), true
}

func toSigned(v *big.Int, width uint) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), width)
	half := new(big.Int).Lsh(big.NewInt(1), width-1)
	r := new(big.Int).Mod(v, mod)
	if r.Cmp(half) >= 0 {
		r.Sub(r, mod)
	}
	return r
}

func (b *FoldingBuilder) BvULt(a, c Expr) (Expr, error)   { return b.bvCmp("BvULt", KindBvULt, a, c, false) }
func (b *FoldingBuilder) BvULtEq(a, c Expr) (Expr, error) { return b.bvCmp("BvULtEq", KindBvULtEq, a, c, false) }
func (b *FoldingBuilder) BvUGt(a, c Expr) (Expr, error)   { return b.bvCmp("BvUGt", KindBvUGt, a, c, false) }
func (b *FoldingBuilder) BvUGtEq(a, c Expr) (Expr, error) { return b.bvCmp("BvUGtEq", KindBvUGtEq, a, c, false) }
func (b *FoldingBuilder) BvSLt(a, c Expr) (Expr, error)   { return b.bvCmp("BvSLt", KindBvSLt, a, c, true) }
func (b *FoldingBuilder) BvSLtEq(a, c Expr) (Expr, error) { return b.bvCmp("BvSLtEq", KindBvSLtEq, a, c, true) }
func (b *FoldingBuilder) BvSGt(a, c Expr) (Expr, error)   { return b.bvCmp("BvSGt", KindBvSGt, a, c, true) }
func (b *FoldingBuilder) BvSGtEq(a, c Expr) (Expr, error) { return b.bvCmp("BvSGtEq", KindBvSGtEq, a, c, true) }

func (b *FoldingBuilder) bvCmp(op string, kind Kind, a, c Expr, signed bool) (Expr, error) {
	if err := checkType(op, b.ctx, a, IsBv, "Bv"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, b.ctx, a, c); err != nil {
		return Invalid, err
	}
	if b.kind(a) == KindBvLit && b.kind(c) == KindBvLit {
		width, _ := BvWidth(b.ctx.Type(a))
		av, _ := b.ctx.BvLitValue(a)
		cv, _ := b.ctx.BvLitValue(c)
		x, y := av, cv
		if signed {
			x, y = toSigned(av, width), toSigned(cv, width)
		}
		return b.BoolLit(evalCmp(kind, x.Cmp(y))), nil
	}
	return mkBool(b.make, b.ctx, kind, a, c), nil
}

func (b *FoldingBuilder) ZExt(a Expr, width uint) (Expr, error) {
	srcWidth, ok := BvWidth(b.ctx.Type(a))
	if !ok {
		return Invalid, typeErrorf("ZExt", "Bv", b.ctx.Type(a))
	}
	if width < srcWidth {
		return Invalid, typeErrorf("ZExt", "width >= source width", b.ctx.Type(a))
	}
	if width == srcWidth {
		return a, nil
	}
	if b.kind(a) == KindBvLit {
		v, _ := b.ctx.BvLitValue(a)
		return b.BvLitBig(v, width), nil
	}
	return b.make(node{kind: KindZExt, typ: b.ctx.BvType(width), operands: []Expr{a}}), nil
}

func (b *FoldingBuilder) SExt(a Expr, width uint) (Expr, error) {
	srcWidth, ok := BvWidth(b.ctx.Type(a))
	if !ok {
		return Invalid, typeErrorf("SExt", "Bv", b.ctx.Type(a))
	}
	if width < srcWidth {
		return Invalid, typeErrorf("SExt", "width >= source width", b.ctx.Type(a))
	}
	if width == srcWidth {
		return a, nil
	}
	if b.kind(a) == KindBvLit {
		v, _ := b.ctx.BvLitValue(a)
		return b.BvLitBig(toSigned(v, srcWidth), width), nil
	}
	return b.make(node{kind: KindSExt, typ: b.ctx.BvType(width), operands: []Expr{a}}), nil
}

func (b *FoldingBuilder) Trunc(a Expr, width uint) (Expr, error) {
	srcWidth, ok := BvWidth(b.ctx.Type(a))
	if !ok {
		return Invalid, typeErrorf("Trunc", "Bv", b.ctx.Type(a))
	}
	if width > srcWidth {
		return Invalid, typeErrorf("Trunc", "width <= source width", b.ctx.Type(a))
	}
	if width == srcWidth {
		return a, nil
	}
	if b.kind(a) == KindBvLit {
		v, _ := b.ctx.BvLitValue(a)
		return b.BvLitBig(v, width), nil
	}
	return b.make(node{kind: KindTrunc, typ: b.ctx.BvType(width), operands: []Expr{a}}), nil
}

func (b *FoldingBuilder) FAdd(a, c Expr, rm RoundingMode) (Expr, error) { return b.fArith("FAdd", KindFAdd, a, c, rm) }
func (b *FoldingBuilder) FSub(a, c Expr, rm RoundingMode) (Expr, error) { return b.fArith("FSub", KindFSub, a, c, rm) }
func (b *FoldingBuilder) FMul(a, c Expr, rm RoundingMode) (Expr, error) { return b.fArith("FMul", KindFMul, a, c, rm) }
func (b *FoldingBuilder) FDiv(a, c Expr, rm RoundingMode) (Expr, error) { return b.fArith("FDiv", KindFDiv, a, c, rm) }

func (b *FoldingBuilder) fArith(op string, kind Kind, a, c Expr, rm RoundingMode) (Expr, error) {
	if err := checkType(op, b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, b.ctx, a, c); err != nil {
		return Invalid, err
	}
	if b.kind(a) == KindFloatLit && b.kind(c) == KindFloatLit {
		av, cv := b.ctx.FloatLitValue(a), b.ctx.FloatLitValue(c)
		var r *BigFloat
		switch kind {
		case KindFAdd:
			r = av.Add(cv, rm)
		case KindFSub:
			r = av.Sub(cv, rm)
		case KindFMul:
			r = av.Mul(cv, rm)
		case KindFDiv:
			r = av.Div(cv, rm)
		}
		return b.FloatLit(r), nil
	}
	return b.make(node{kind: kind, typ: b.ctx.Type(a), operands: []Expr{a, c}, rounding: rm}), nil
}

func (b *FoldingBuilder) FEq(a, c Expr) (Expr, error)   { return b.fCmp("FEq", KindFEq, a, c) }
func (b *FoldingBuilder) FGt(a, c Expr) (Expr, error)   { return b.fCmp("FGt", KindFGt, a, c) }
func (b *FoldingBuilder) FGtEq(a, c Expr) (Expr, error) { return b.fCmp("FGtEq", KindFGtEq, a, c) }
func (b *FoldingBuilder) FLt(a, c Expr) (Expr, error)   { return b.fCmp("FLt", KindFLt, a, c) }
func (b *FoldingBuilder) FLtEq(a, c Expr) (Expr, error) { return b.fCmp("FLtEq", KindFLtEq, a, c) }

func (b *FoldingBuilder) fCmp(op string, kind Kind, a, c Expr) (Expr, error) {
	if err := checkType(op, b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if err := sameType(op, b.ctx, a, c); err != nil {
		return Invalid, err
	}
	if b.kind(a) == KindFloatLit && b.kind(c) == KindFloatLit {
		av, cv := b.ctx.FloatLitValue(a), b.ctx.FloatLitValue(c)
		if av.IsNaN() || cv.IsNaN() {
			return b.False(), nil // every FP comparison with NaN is false, incl FEq
		}
		if kind == KindFEq {
			return b.BoolLit(av.Cmp(cv) == 0), nil
		}
		return b.BoolLit(evalCmp(foldKindToIntKind(kind), av.Cmp(cv))), nil
	}
	return mkBool(b.make, b.ctx, kind, a, c), nil
}

func foldKindToIntKind(k Kind) Kind {
	switch k {
	case KindFGt:
		return KindGt
	case KindFGtEq:
		return KindGtEq
	case KindFLt:
		return KindLt
	case KindFLtEq:
		return KindLtEq
	default:
		return KindLt
	}
}

func (b *FoldingBuilder) FIsNan(a Expr) (Expr, error) {
	if err := checkType("FIsNan", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if b.kind(a) == KindFloatLit {
		return b.BoolLit(b.ctx.FloatLitValue(a).IsNaN()), nil
	}
	return mkBool(b.make, b.ctx, KindFIsNan, a), nil
}

func (b *FoldingBuilder) FCast(a Expr, kind FloatKind, rm RoundingMode) (Expr, error) {
	if err := checkType("FCast", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if fk, _ := FloatKindOf(b.ctx.Type(a)); fk == kind {
		return a, nil
	}
	if b.kind(a) == KindFloatLit {
		return b.FloatLit(b.ctx.FloatLitValue(a).Cast(kind, rm)), nil
	}
	return b.make(node{kind: KindFCast, typ: b.ctx.FloatType(kind), operands: []Expr{a}, rounding: rm}), nil
}

func (b *FoldingBuilder) SignedToFp(a Expr, kind FloatKind, rm RoundingMode) (Expr, error) {
	if err := checkType("SignedToFp", b.ctx, a, isIntLike, "Int or Bv"); err != nil {
		return Invalid, err
	}
	if v, ok := b.intLikeLiteral(a, true); ok {
		return b.FloatLit(bigFloatFromInt(kind, v, rm)), nil
	}
	return b.make(node{kind: KindSignedToFp, typ: b.ctx.FloatType(kind), operands: []Expr{a}, rounding: rm}), nil
}
func (b *FoldingBuilder) UnsignedToFp(a Expr, kind FloatKind, rm RoundingMode) (Expr, error) {
	if err := checkType("UnsignedToFp", b.ctx, a, isIntLike, "Int or Bv"); err != nil {
		return Invalid, err
	}
	if v, ok := b.intLikeLiteral(a, false); ok {
		return b.FloatLit(bigFloatFromInt(kind, v, rm)), nil
	}
	return b.make(node{kind: KindUnsignedToFp, typ: b.ctx.FloatType(kind), operands: []Expr{a}, rounding: rm}), nil
}

func (b *FoldingBuilder) intLikeLiteral(a Expr, signed bool) (*big.Int, bool) {
	switch b.kind(a) {
	case KindIntLit:
		return b.ctx.IntLitValue(a), true
	case KindBvLit:
		v, w := b.ctx.BvLitValue(a)
		if signed {
			return toSigned(v, w), true
		}
		return v, true
	default:
		return nil, false
	}
}

func (b *FoldingBuilder) FpToSigned(a Expr, width uint, rm RoundingMode) (Expr, error) {
	if err := checkType("FpToSigned", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if b.kind(a) == KindFloatLit {
		return b.BvLitBig(b.ctx.FloatLitValue(a).ToBigInt(), width), nil
	}
	return b.make(node{kind: KindFpToSigned, typ: b.ctx.BvType(width), operands: []Expr{a}, rounding: rm}), nil
}
func (b *FoldingBuilder) FpToUnsigned(a Expr, width uint, rm RoundingMode) (Expr, error) {
	if err := checkType("FpToUnsigned", b.ctx, a, IsFloat, "Float"); err != nil {
		return Invalid, err
	}
	if b.kind(a) == KindFloatLit {
		return b.BvLitBig(b.ctx.FloatLitValue(a).ToBigInt(), width), nil
	}
	return b.make(node{kind: KindFpToUnsigned, typ: b.ctx.BvType(width), operands: []Expr{a}, rounding: rm}), nil
}

func (b *FoldingBuilder) Read(arr, idx Expr) (Expr, error) {
	domain, elem, ok := ArrayParts(b.ctx.Type(arr))
	if !ok {
		return Invalid, typeErrorf("Read", "Array", b.ctx.Type(arr))
	}
	if b.ctx.Type(idx) != domain {
		return Invalid, typeErrorf("Read", domain.String(), b.ctx.Type(idx))
	}
	// Read(Write(a, i, v), i) -> v
	if b.kind(arr) == KindWrite && b.ctx.Operand(arr, 1) == idx {
		return b.ctx.Operand(arr, 2), nil
	}
	return b.make(node{kind: KindRead, typ: elem, operands: []Expr{arr, idx}}), nil
}
func (b *FoldingBuilder) Write(arr, idx, val Expr) (Expr, error) {
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
