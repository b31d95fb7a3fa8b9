package expr

// Kind tags every node in the closed expression universe. New kinds
// are never added by a caller; this list is exhaustive.
type Kind int

const (
	KindBoolLit Kind = iota
	KindIntLit
	KindBvLit
	KindFloatLit
	KindUndef
	KindVarRef

	KindNot
	KindAnd
	KindOr
	KindXor
	KindEq
	KindNotEq
	KindSelect

	KindAdd
	KindSub
	KindMul
	KindDiv
	KindMod
	KindLt
	KindLtEq
	KindGt
	KindGtEq

	KindBvSDiv
	KindBvUDiv
	KindBvSRem
	KindBvURem
	KindShl
	KindLShr
	KindAShr
	KindBvAnd
	KindBvOr
	KindBvXor
	KindBvULt
	KindBvULtEq
	KindBvUGt
	KindBvUGtEq
	KindBvSLt
	KindBvSLtEq
	KindBvSGt
	KindBvSGtEq
	KindZExt
	KindSExt
	KindTrunc

	KindFAdd
	KindFSub
	KindFMul
	KindFDiv
	KindFEq
	KindFGt
	KindFGtEq
	KindFLt
	KindFLtEq
	KindFIsNan
	KindFCast
	KindSignedToFp
	KindUnsignedToFp
	KindFpToSigned
	KindFpToUnsigned

	KindRead
	KindWrite
)

var kindNames = map[Kind]string{
	KindBoolLit: "BoolLit", KindIntLit: "IntLit", KindBvLit: "BvLit",
	KindFloatLit: "FloatLit", KindUndef: "Undef", KindVarRef: "VarRef",
	KindNot: "Not", KindAnd: "And", KindOr: "Or", KindXor: "Xor",
	KindEq: "Eq", KindNotEq: "NotEq", KindSelect: "Select",
	KindAdd: "Add", KindSub: "Sub", KindMul: "Mul", KindDiv: "Div", KindMod: "Mod",
	KindLt: "Lt", KindLtEq: "LtEq", KindGt: "Gt", KindGtEq: "GtEq",
	KindBvSDiv: "BvSDiv", KindBvUDiv: "BvUDiv", KindBvSRem: "BvSRem", KindBvURem: "BvURem",
	KindShl: "Shl", KindLShr: "LShr", KindAShr: "AShr",
	KindBvAnd: "BvAnd", KindBvOr: "BvOr", KindBvXor: "BvXor",
	KindBvULt: "BvULt", KindBvULtEq: "BvULtEq", KindBvUGt: "BvUGt", KindBvUGtEq: "BvUGtEq",
	KindBvSLt: "BvSLt", KindBvSLtEq: "BvSLtEq", KindBvSGt: "BvSGt", KindBvSGtEq: "BvSGtEq",
	KindZExt: "ZExt", KindSExt: "SExt", KindTrunc: "Trunc",
	KindFAdd: "FAdd", KindFSub: "FSub", KindFMul: "FMul", KindFDiv: "FDiv",
	KindFEq: "FEq", KindFGt: "FGt", KindFGtEq: "FGtEq", KindFLt: "FLt", KindFLtEq: "FLtEq",
	KindFIsNan: "FIsNan", KindFCast: "FCast",
	KindSignedToFp: "SignedToFp", KindUnsignedToFp: "UnsignedToFp",
	KindFpToSigned: "FpToSigned", KindFpToUnsigned: "FpToUnsigned",
	KindRead: "Read", KindWrite: "Write",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// RoundingMode selects one of the IEEE-754 rounding directions used by
// every floating-point operation and cast.
type RoundingMode int

const (
	RoundNearestTiesToEven RoundingMode = iota
	RoundNearestTiesToAway
	RoundTowardPositive
	RoundTowardNegative
	RoundTowardZero
)

func (rm RoundingMode) String() string {
	switch rm {
	case RoundNearestTiesToEven:
		return "rne"
	case RoundNearestTiesToAway:
		return "rna"
	case RoundTowardPositive:
		return "rtp"
	case RoundTowardNegative:
		return "rtn"
	case RoundTowardZero:
		return "rtz"
	default:
		return "rne"
	}
}
