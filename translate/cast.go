package translate

import (
	"golang.org/x/tools/go/ssa"

	"gobmc/expr"
)

// convert lowers *ssa.Convert, the numeric half of gazer's
// visitCastInst (ZExt/SExt/Trunc/FPExt/FPTrunc/SIToFP/UIToFP/FPToSI/
// FPToUI all collapse onto this single SSA instruction in Go, since
// Go's type system doesn't distinguish them at the instruction level
// the way LLVM's opcodes do — the dispatch below recovers gazer's
// per-case split by inspecting the source and destination Go types).
func (t *Translator) convert(inst *ssa.Convert) (expr.Expr, error) {
	x, err := t.operand(inst.X)
	if err != nil {
		return expr.Invalid, err
	}
	srcFloat := isFloatType(inst.X.Type())
	dstFloat := isFloatType(inst.Type())
	rm := expr.RoundNearestTiesToEven

	if dstFloat && srcFloat {
		return t.Builder.FCast(x, floatKindOfType(inst.Type()), rm)
	}
	if dstFloat && !srcFloat {
		if IsUnsignedKind(inst.X.Type()) {
			return t.Builder.UnsignedToFp(x, floatKindOfType(inst.Type()), rm)
		}
		return t.Builder.SignedToFp(x, floatKindOfType(inst.Type()), rm)
	}
	if !dstFloat && srcFloat {
		width, err := bvWidthOf(t.Ctx, t.Mem, inst.Type())
		if err != nil {
			return expr.Invalid, err
		}
		if IsUnsignedKind(inst.Type()) {
			return t.Builder.FpToUnsigned(x, width, rm)
		}
		return t.Builder.FpToSigned(x, width, rm)
	}

	// integer-to-integer: widen/narrow, matching gazer's integerCast.
	return t.integerCast(inst, x)
}

func (t *Translator) integerCast(inst *ssa.Convert, x expr.Expr) (expr.Expr, error) {
	b := t.Builder
	dstWidth, err := bvWidthOf(t.Ctx, t.Mem, inst.Type())
	if err != nil {
		return expr.Invalid, err
	}

	if t.Mode == BitVectors {
		srcWidth, ok := expr.BvWidth(t.Ctx.Type(x))
		if !ok {
			bx, err := t.asBv(x, dstWidth)
			return bx, err
		}
		switch {
		case dstWidth == srcWidth:
			return x, nil
		case dstWidth > srcWidth:
			if IsUnsignedKind(inst.X.Type()) {
				return b.ZExt(x, dstWidth)
			}
			return b.SExt(x, dstWidth)
		default:
			return b.Trunc(x, dstWidth)
		}
	}

	// Integers mode: ZExt/SExt are no-ops (values already carry their
	// true mathematical value); Trunc needs the explicit sign-aware
	// modulo formula gazer's visitCastInst uses, since an unbounded Int
	// has no bit pattern to truncate directly.
	if dstWidth >= 64 {
		return x, nil
	}
	return t.truncInt(x, dstWidth, IsUnsignedKind(inst.Type()))
}

// truncInt reproduces gazer's Integers-mode Trunc lowering: take x mod
// 2^w, then re-center into the signed range [-2^(w-1), 2^(w-1)) unless
// the destination is unsigned.
func (t *Translator) truncInt(x expr.Expr, width uint, unsigned bool) (expr.Expr, error) {
	b := t.Builder
	modulus := b.IntLit(1 << width)
	modVal, err := b.Mod(x, modulus)
	if err != nil {
		return expr.Invalid, err
	}
	if unsigned {
		return modVal, nil
	}
	half := b.IntLit(1 << (width - 1))
	halfCheck, err := b.Div(modVal, half)
	if err != nil {
		return expr.Invalid, err
	}
	parity, err := b.Mod(halfCheck, b.IntLit(2))
	if err != nil {
		return expr.Invalid, err
	}
	isNonNegative, err := b.Eq(parity, b.IntLit(0))
	if err != nil {
		return expr.Invalid, err
	}
	negated, err := b.Sub(modVal, modulus)
	if err != nil {
		return expr.Invalid, err
	}
	return b.Select(isNonNegative, modVal, negated)
}

