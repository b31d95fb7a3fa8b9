package expr

import (
	"fmt"
	"math/big"
)

func roundingModeToBig(rm RoundingMode) big.RoundingMode {
	switch rm {
	case RoundNearestTiesToEven:
		return big.ToNearestEven
	case RoundNearestTiesToAway:
		return big.ToNearestAway
	case RoundTowardPositive:
		return big.ToPositiveInf
	case RoundTowardNegative:
		return big.ToNegativeInf
	case RoundTowardZero:
		return big.ToZero
	default:
		return big.ToNearestEven
	}
}

// BigFloat is a minimal arbitrary-precision float carrying its
// FloatKind (and thus its folding precision) alongside the value,
// plus an explicit NaN flag since math/big.Float has no NaN of its own.
type BigFloat struct {
	Kind  FloatKind
	Val   *big.Float
	NaN   bool
}

// NewBigFloat builds a BigFloat of the given kind rounded to that
// kind's precision under rm.
func NewBigFloat(kind FloatKind, v float64, rm RoundingMode) *BigFloat {
	f := new(big.Float).SetPrec(kind.precisionBits()).SetMode(roundingModeToBig(rm))
	f.SetFloat64(v)
	return &BigFloat{Kind: kind, Val: f}
}

// NaNFloat builds a NaN value of the given kind.
func NaNFloat(kind FloatKind) *BigFloat {
	return &BigFloat{Kind: kind, Val: new(big.Float).SetPrec(kind.precisionBits()), NaN: true}
}

func (f *BigFloat) String() string {
	if f.NaN {
		return "NaN"
	}
	return f.Val.Text('g', -1)
}

func (f *BigFloat) IsNaN() bool { return f.NaN }

func (f *BigFloat) Cmp(o *BigFloat) int {
	if f.NaN || o.NaN {
		panic("expr: Cmp on NaN BigFloat")
	}
	return f.Val.Cmp(o.Val)
}

func (f *BigFloat) Equal(o *BigFloat) bool {
	if f.NaN || o.NaN {
		return false // IEEE: NaN != NaN, including itself
	}
	return f.Kind == o.Kind && f.Val.Cmp(o.Val) == 0
}

func binOpFloat(op string, a, b *BigFloat, rm RoundingMode, fn func(z, x, y *big.Float) *big.Float) *BigFloat {
	if a.Kind != b.Kind {
		panic(fmt.Sprintf("expr: mismatched float kinds in %s: %s vs %s", op, a.Kind, b.Kind))
	}
	if a.NaN || b.NaN {
		return NaNFloat(a.Kind)
	}
	z := new(big.Float).SetPrec(a.Kind.precisionBits()).SetMode(roundingModeToBig(rm))
	fn(z, a.Val, b.Val)
	return &BigFloat{Kind: a.Kind, Val: z}
}

func (f *BigFloat) Add(o *BigFloat, rm RoundingMode) *BigFloat {
	return binOpFloat("FAdd", f, o, rm, func(z, x, y *big.Float) *big.Float { return z.Add(x, y) })
}
func (f *BigFloat) Sub(o *BigFloat, rm RoundingMode) *BigFloat {
	return binOpFloat("FSub", f, o, rm, func(z, x, y *big.Float) *big.Float { return z.Sub(x, y) })
}
func (f *BigFloat) Mul(o *BigFloat, rm RoundingMode) *BigFloat {
	return binOpFloat("FMul", f, o, rm, func(z, x, y *big.Float) *big.Float { return z.Mul(x, y) })
}
func (f *BigFloat) Div(o *BigFloat, rm RoundingMode) *BigFloat {
	if !f.NaN && !o.NaN && o.Val.Sign() == 0 {
		return NaNFloat(f.Kind)
	}
	return binOpFloat("FDiv", f, o, rm, func(z, x, y *big.Float) *big.Float { return z.Quo(x, y) })
}

// Cast reinterprets f at a new kind/precision, rounding under rm.
func (f *BigFloat) Cast(kind FloatKind, rm RoundingMode) *BigFloat {
	if f.NaN {
		return NaNFloat(kind)
	}
	z := new(big.Float).SetPrec(kind.precisionBits()).SetMode(roundingModeToBig(rm))
	z.Set(f.Val)
	return &BigFloat{Kind: kind, Val: z}
}

func bigFloatFromInt(kind FloatKind, v *big.Int, rm RoundingMode) *BigFloat {
	z := new(big.Float).SetPrec(kind.precisionBits()).SetMode(roundingModeToBig(rm))
	z.SetInt(v)
	return &BigFloat{Kind: kind, Val: z}
}

// ToBigInt truncates toward zero, as FpToSigned/FpToUnsigned require.
func (f *BigFloat) ToBigInt() *big.Int {
	if f.NaN {
		return big.NewInt(0)
	}
	i, _ := f.Val.Int(nil)
	return i
}
