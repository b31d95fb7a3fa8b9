package translate

import "gobmc/expr"

// asBool coerces e to Bool. Bv1 values (Go's single-bit comparisons,
// when represented as Bv(1) rather than natively Bool) compare
// not-equal to zero, and so do Int values; any other type is rejected.
func (t *Translator) asBool(e expr.Expr) (expr.Expr, error) {
	typ := t.Ctx.Type(e)
	if expr.IsBool(typ) {
		return e, nil
	}
	if w, ok := expr.BvWidth(typ); ok && w == 1 {
		return t.Builder.NotEq(e, t.Builder.BvLit(0, 1))
	}
	if expr.IsInt(typ) {
		return t.Builder.NotEq(e, t.Builder.IntLit(0))
	}
	return expr.Invalid, &UnsupportedError{Msg: "cannot coerce " + typ.String() + " to Bool"}
}

// asBv coerces e to Bv(width). A Bv of another width is zero-extended
// or truncated; a Bool becomes 1/0; a literal Int is rebuilt as a Bv
// literal of that width, wrapped modulo 2^width, and a non-literal Int
// is rejected (Int input arises only when the surrounding expression mixes modes, which the translator
// otherwise avoids by picking one Mode for an entire run).
func (t *Translator) asBv(e expr.Expr, width uint) (expr.Expr, error) {
	typ := t.Ctx.Type(e)
	b := t.Builder
	if w, ok := expr.BvWidth(typ); ok {
		if w == width {
			return e, nil
		}
		if w < width {
			return b.ZExt(e, width)
		}
		return b.Trunc(e, width)
	}
	if expr.IsBool(typ) {
		return b.Select(e, b.BvLit(1, width), b.BvLit(0, width))
	}
	if expr.IsInt(typ) {
		if t.Ctx.IsLiteral(e) {
			return b.BvLitBig(t.Ctx.IntLitValue(e), width), nil
		}
		return expr.Invalid, &UnsupportedError{Msg: "cannot coerce non-literal Int to Bv in BitVectors mode"}
	}
	return expr.Invalid, &UnsupportedError{Msg: "cannot coerce " + typ.String() + " to Bv"}
}

// asInt coerces e to the unbounded Int sort used throughout Integers
// mode.
func (t *Translator) asInt(e expr.Expr) (expr.Expr, error) {
	typ := t.Ctx.Type(e)
	b := t.Builder
	if expr.IsInt(typ) {
		return e, nil
	}
	if expr.IsBool(typ) {
		return b.Select(e, b.IntLit(1), b.IntLit(0))
	}
	if _, ok := expr.BvWidth(typ); ok {
		if t.Ctx.IsLiteral(e) {
			v, _ := t.Ctx.BvLitValue(e)
			return b.IntLitBig(v), nil
		}
		return expr.Invalid, &UnsupportedError{Msg: "cannot coerce non-literal Bv to Int"}
	}
	return expr.Invalid, &UnsupportedError{Msg: "cannot coerce " + typ.String() + " to Int"}
}

func (t *Translator) coerceIntPair(a, b expr.Expr) (expr.Expr, expr.Expr, error) {
	l, err := t.asInt(a)
	if err != nil {
		return expr.Invalid, expr.Invalid, err
	}
	r, err := t.asInt(b)
	if err != nil {
		return expr.Invalid, expr.Invalid, err
	}
	return l, r, nil
}

