package translate

import (
	gotypes "go/types"

	"gobmc/expr"
	"gobmc/memory"
)

// TranslateType maps a go/types.Type to the expr.Type used to
// represent values of that type. Pointer- and slice-shaped types are
// delegated to the memory model, mirroring gazer's
// InstToExpr::translateTypeTo dispatch onto the active memory model
// for pointer kinds.
func TranslateType(ctx *expr.Context, mem memory.Model, t gotypes.Type) (expr.Type, error) {
	switch t := t.Underlying().(type) {
	case *gotypes.Basic:
		return translateBasic(ctx, t)
	case *gotypes.Pointer:
		elem, err := TranslateType(ctx, mem, t.Elem())
		if err != nil {
			return nil, err
		}
		return mem.TranslateType(ctx, elem), nil
	case *gotypes.Slice:
		elem, err := TranslateType(ctx, mem, t.Elem())
		if err != nil {
			return nil, err
		}
		return mem.TranslateType(ctx, elem), nil
	case *gotypes.Array:
		elem, err := TranslateType(ctx, mem, t.Elem())
		if err != nil {
			return nil, err
		}
		return ctx.ArrayType(ctx.IntType(), elem), nil
	default:
		return nil, &UnsupportedError{Msg: "unsupported go type " + t.String()}
	}
}

func translateBasic(ctx *expr.Context, t *gotypes.Basic) (expr.Type, error) {
	switch t.Kind() {
	case gotypes.Bool, gotypes.UntypedBool:
		return ctx.BoolType(), nil
	case gotypes.Int, gotypes.Int64:
		return ctx.BvType(64), nil
	case gotypes.Int8:
		return ctx.BvType(8), nil
	case gotypes.Int16:
		return ctx.BvType(16), nil
	case gotypes.Int32, gotypes.UntypedRune:
		return ctx.BvType(32), nil
	case gotypes.Uint, gotypes.Uint64, gotypes.Uintptr:
		return ctx.BvType(64), nil
	case gotypes.Uint8:
		return ctx.BvType(8), nil
	case gotypes.Uint16:
		return ctx.BvType(16), nil
	case gotypes.Uint32:
		return ctx.BvType(32), nil
	case gotypes.Float32:
		return ctx.FloatType(expr.Single), nil
	case gotypes.Float64, gotypes.UntypedFloat:
		return ctx.FloatType(expr.Double), nil
	case gotypes.UntypedInt:
		return ctx.IntType(), nil
	default:
		return nil, &UnsupportedError{Msg: "unsupported basic kind " + t.String()}
	}
}

// IsUnsignedKind reports whether t is one of Go's unsigned integer
// basic kinds — translate needs this to pick BvU* vs BvS* lowerings.
func IsUnsignedKind(t gotypes.Type) bool {
	b, ok := t.Underlying().(*gotypes.Basic)
	if !ok {
		return false
	}
	switch b.Kind() {
	case gotypes.Uint, gotypes.Uint8, gotypes.Uint16, gotypes.Uint32, gotypes.Uint64, gotypes.Uintptr:
		return true
	default:
		return false
	}
}
