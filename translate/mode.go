package translate

// Mode picks how the translator represents Go's fixed-width integer
// kinds. BitVectors maps every sized integer type directly onto
// expr.Bv(width), so wraparound and signedness fall out of the
// expression layer's own folding rules. Integers maps every integer
// value onto the unbounded expr.Int and makes wraparound explicit via
// Mod/Div arithmetic wherever a width-sensitive operation (Trunc,
// unsigned comparison, overflow-sensitive arithmetic) needs it —
// mirroring gazer's IntType encoding in InstToExpr.cpp.
type Mode int

const (
	BitVectors Mode = iota
	Integers
)

func (m Mode) String() string {
	if m == Integers {
		return "int"
	}
	return "bv"
}
