package translate

import (
	"go/token"
	gotypes "go/types"
	"math/big"

	"golang.org/x/tools/go/ssa"

	"gobmc/expr"
)

// binOp lowers *ssa.BinOp, which in go/ssa's token.Token-tagged form
// covers both arithmetic and comparison operators — gazer splits these
// across visitBinaryOperator and visitICmpInst/visitFCmpInst because
// LLVM has separate instructions; here one switch on inst.Op covers
// both, but the lowering per case mirrors those functions directly.
func (t *Translator) binOp(inst *ssa.BinOp) (expr.Expr, error) {
	lhs, err := t.operand(inst.X)
	if err != nil {
		return expr.Invalid, err
	}
	rhs, err := t.operand(inst.Y)
	if err != nil {
		return expr.Invalid, err
	}

	if isFloatType(inst.X.Type()) {
		return t.floatBinOp(inst, lhs, rhs)
	}
	if isComparison(inst.Op) {
		return t.compare(inst, lhs, rhs)
	}
	return t.intBinOp(inst, lhs, rhs)
}

func isComparison(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	default:
		return false
	}
}

func isFloatType(t gotypes.Type) bool {
	b, ok := t.Underlying().(*gotypes.Basic)
	return ok && b.Info()&gotypes.IsFloat != 0
}

func (t *Translator) floatBinOp(inst *ssa.BinOp, lhs, rhs expr.Expr) (expr.Expr, error) {
	b := t.Builder
	rm := expr.RoundNearestTiesToEven
	switch inst.Op {
	case token.ADD:
		return b.FAdd(lhs, rhs, rm)
	case token.SUB:
		return b.FSub(lhs, rhs, rm)
	case token.MUL:
		return b.FMul(lhs, rhs, rm)
	case token.QUO:
		return b.FDiv(lhs, rhs, rm)
	case token.EQL:
		return b.FEq(lhs, rhs)
	case token.NEQ:
		eq, err := b.FEq(lhs, rhs)
		if err != nil {
			return expr.Invalid, err
		}
		return b.Not(eq)
	case token.LSS:
		return b.FLt(lhs, rhs)
	case token.LEQ:
		return b.FLtEq(lhs, rhs)
	case token.GTR:
		return b.FGt(lhs, rhs)
	case token.GEQ:
		return b.FGtEq(lhs, rhs)
	default:
		return expr.Invalid, unsupported(inst, t.FileSet, "unsupported float binary op %s", inst.Op)
	}
}

// compare lowers an integer comparison, picking the signed or unsigned
// expr operator family by the operand's Go type, the direct analogue
// of gazer's ICmpInst predicate switch plus its unsigned-compare
// special-casing in Integers mode.
func (t *Translator) compare(inst *ssa.BinOp, lhs, rhs expr.Expr) (expr.Expr, error) {
	b := t.Builder
	if t.Mode == Integers {
		l, r, err := t.coerceIntPair(lhs, rhs)
		if err != nil {
			return expr.Invalid, err
		}
		if IsUnsignedKind(inst.X.Type()) {
			return t.unsignedIntCompare(inst.Op, l, r, inst.X.Type())
		}
		return intCompare(b, inst.Op, l, r)
	}

	l, r := lhs, rhs
	if IsUnsignedKind(inst.X.Type()) {
		switch inst.Op {
		case token.EQL:
			return b.Eq(l, r)
		case token.NEQ:
			return b.NotEq(l, r)
		case token.LSS:
			return b.BvULt(l, r)
		case token.LEQ:
			return b.BvULtEq(l, r)
		case token.GTR:
			return b.BvUGt(l, r)
		case token.GEQ:
			return b.BvUGtEq(l, r)
		}
	} else {
		switch inst.Op {
		case token.EQL:
			return b.Eq(l, r)
		case token.NEQ:
			return b.NotEq(l, r)
		case token.LSS:
			return b.BvSLt(l, r)
		case token.LEQ:
			return b.BvSLtEq(l, r)
		case token.GTR:
			return b.BvSGt(l, r)
		case token.GEQ:
			return b.BvSGtEq(l, r)
		}
	}
	return expr.Invalid, unsupported(inst, t.FileSet, "unsupported integer comparison %s", inst.Op)
}

func intCompare(b expr.Builder, op token.Token, l, r expr.Expr) (expr.Expr, error) {
	switch op {
	case token.EQL:
		return b.Eq(l, r)
	case token.NEQ:
		return b.NotEq(l, r)
	case token.LSS:
		return b.Lt(l, r)
	case token.LEQ:
		return b.LtEq(l, r)
	case token.GTR:
		return b.Gt(l, r)
	case token.GEQ:
		return b.GtEq(l, r)
	default:
		return expr.Invalid, &UnsupportedError{Msg: "unsupported Int comparison op " + op.String()}
	}
}

// unsignedIntCompare reproduces gazer's Integers-mode unsigned
// comparison trick: since Integers mode has no native unsigned sort, a
// negative operand is rewritten to its unsigned bit pattern's
// mathematical value before the (otherwise ordinary, signed) Int
// comparison runs — InstToExpr.cpp's unsignedCompareOperand, called
// from visitICmpInst for icmp.isUnsigned().
func (t *Translator) unsignedIntCompare(op token.Token, l, r expr.Expr, goType gotypes.Type) (expr.Expr, error) {
	width, err := bvWidthOf(t.Ctx, t.Mem, goType)
	if err != nil {
		return expr.Invalid, err
	}
	lu, err := t.unsignedCompareOperand(l, width)
	if err != nil {
		return expr.Invalid, err
	}
	ru, err := t.unsignedCompareOperand(r, width)
	if err != nil {
		return expr.Invalid, err
	}
	return intCompare(t.Builder, op, lu, ru)
}

// unsignedCompareOperand is InstToExpr.cpp's unsignedCompareOperand: a
// negative operand x is substituted by (2^width - 1) + x, the maximum
// representable value of width bits, before an unsigned comparison;
// a non-negative operand passes through unchanged.
func (t *Translator) unsignedCompareOperand(x expr.Expr, width uint) (expr.Expr, error) {
	b := t.Builder
	neg, err := b.Lt(x, b.IntLit(0))
	if err != nil {
		return expr.Invalid, err
	}
	maxVal := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	wrapped, err := b.Add(b.IntLitBig(maxVal), x)
	if err != nil {
		return expr.Invalid, err
	}
	return b.Select(neg, wrapped, x)
}

func (t *Translator) intBinOp(inst *ssa.BinOp, lhs, rhs expr.Expr) (expr.Expr, error) {
	b := t.Builder

	isBoolLogic := inst.Type().Underlying() == gotypes.Typ[gotypes.Bool]
	if isBoolLogic {
		switch inst.Op {
		case token.AND:
			bl, err := t.asBool(lhs)
			if err != nil {
				return expr.Invalid, err
			}
			br, err := t.asBool(rhs)
			if err != nil {
				return expr.Invalid, err
			}
			return b.And(bl, br)
		case token.OR:
			bl, err := t.asBool(lhs)
			if err != nil {
				return expr.Invalid, err
			}
			br, err := t.asBool(rhs)
			if err != nil {
				return expr.Invalid, err
			}
			return b.Or(bl, br)
		case token.XOR:
			bl, err := t.asBool(lhs)
			if err != nil {
				return expr.Invalid, err
			}
			br, err := t.asBool(rhs)
			if err != nil {
				return expr.Invalid, err
			}
			return b.Xor(bl, br)
		}
	}

	if t.Mode == Integers {
		l, r, err := t.coerceIntPair(lhs, rhs)
		if err != nil {
			return expr.Invalid, err
		}
		switch inst.Op {
		case token.ADD:
			return b.Add(l, r)
		case token.SUB:
			return b.Sub(l, r)
		case token.MUL:
			return b.Mul(l, r)
		case token.QUO:
			return b.Div(l, r)
		case token.REM:
			// SRem/URem have no Integers-mode encoding here, matching
			// InstToExpr.cpp's llvm_unreachable on SRem/URem in integer
			// arithmetic mode.
			return expr.Invalid, &UnsupportedError{Msg: "SRem/URem unsupported in Integers mode"}
		default:
			// Bitwise ops on wider integers have no Integers-mode
			// encoding; InstToExpr.cpp returns an Undef expr of the
			// result type rather than failing, an approximation the
			// design flags as intentional.
			et, err := TranslateType(t.Ctx, t.Mem, inst.Type())
			if err != nil {
				return expr.Invalid, err
			}
			return b.Undef(et), nil
		}
	}

	width, err := bvWidthOf(t.Ctx, t.Mem, inst.Type())
	if err != nil {
		return expr.Invalid, err
	}
	l, err := t.asBv(lhs, width)
	if err != nil {
		return expr.Invalid, err
	}
	r, err := t.asBv(rhs, width)
	if err != nil {
		return expr.Invalid, err
	}
	switch inst.Op {
	case token.ADD:
		return b.Add(l, r)
	case token.SUB:
		return b.Sub(l, r)
	case token.MUL:
		return b.Mul(l, r)
	case token.QUO:
		if IsUnsignedKind(inst.X.Type()) {
			return b.BvUDiv(l, r)
		}
		return b.BvSDiv(l, r)
	case token.REM:
		if IsUnsignedKind(inst.X.Type()) {
			return b.BvURem(l, r)
		}
		return b.BvSRem(l, r)
	case token.SHL:
		return b.Shl(l, r)
	case token.SHR:
		if IsUnsignedKind(inst.X.Type()) {
			return b.LShr(l, r)
		}
		return b.AShr(l, r)
	case token.AND:
		return b.BvAnd(l, r)
	case token.OR:
		return b.BvOr(l, r)
	case token.XOR:
		return b.BvXor(l, r)
	case token.AND_NOT:
		notR, err := notBv(b, r, width)
		if err != nil {
			return expr.Invalid, err
		}
		return b.BvAnd(l, notR)
	default:
		return expr.Invalid, unsupported(inst, t.FileSet, "unsupported bit-vector binary op %s", inst.Op)
	}
}

func notBv(b expr.Builder, e expr.Expr, width uint) (expr.Expr, error) {
	allOnes := b.BvLit(^uint64(0), width)
	return b.BvXor(e, allOnes)
}

// unOp lowers *ssa.UnOp: unary minus, boolean/bitwise negation, and
// pointer dereference (which go/ssa also expresses via UnOp{Op: '*'}).
func (t *Translator) unOp(inst *ssa.UnOp) (expr.Expr, error) {
	x, err := t.operand(inst.X)
	if err != nil {
		return expr.Invalid, err
	}
	b := t.Builder
	switch inst.Op {
	case token.NOT:
		bx, err := t.asBool(x)
		if err != nil {
			return expr.Invalid, err
		}
		return b.Not(bx)
	case token.SUB:
		if isFloatType(inst.Type()) {
			zero := b.FloatLit(expr.NewBigFloat(floatKindOfType(inst.Type()), 0, expr.RoundNearestTiesToEven))
			return b.FSub(zero, x, expr.RoundNearestTiesToEven)
		}
		if t.Mode == Integers {
			return b.Sub(b.IntLit(0), x)
		}
		width, err := bvWidthOf(t.Ctx, t.Mem, inst.Type())
		if err != nil {
			return expr.Invalid, err
		}
		zero := b.BvLit(0, width)
		return b.Sub(zero, x)
	case token.XOR:
		width, err := bvWidthOf(t.Ctx, t.Mem, inst.Type())
		if err != nil {
			return expr.Invalid, err
		}
		return notBv(b, x, width)
	case token.MUL:
		// Pointer dereference: treat exactly like *ssa.Load.
		et, err := TranslateType(t.Ctx, t.Mem, inst.Type())
		if err != nil {
			return expr.Invalid, err
		}
		return t.Mem.HandleLoad(t.Ctx, b, et, x)
	default:
		return expr.Invalid, unsupported(inst, t.FileSet, "unsupported unary op %s", inst.Op)
	}
}

func floatKindOfType(t gotypes.Type) expr.FloatKind {
	if b, ok := t.Underlying().(*gotypes.Basic); ok && b.Kind() == gotypes.Float32 {
		return expr.Single
	}
	return expr.Double
}
