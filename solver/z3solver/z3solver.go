// Package z3solver implements solver.Solver against
// github.com/aclements/go-z3/z3, the same binding the teacher repo uses
// throughout constraints and symexec. The lowering from expr.Expr to
// z3.Value is grounded on symexec/context.go's EncodingContext, which
// builds exactly this kind of recursive type/expr translation for the
// same handful of sorts (Bool, Int, Bv, Float, Array).
package z3solver

import (
	"context"
	"fmt"

	"github.com/aclements/go-z3/z3"

	"gobmc/expr"
	"gobmc/solver"
)

// Solver wraps one z3.Context/z3.Solver pair plus the running cache of
// already-lowered expr.Expr and expr.Variable nodes, the way
// symexec/context.go's EncodingContext caches sorts and constants
// across one symbolic-execution run.
type Solver struct {
	ctx   *expr.Context
	zctx  *z3.Context
	s     *z3.Solver
	cache map[expr.Expr]z3.Value
	vars  map[*expr.Variable]z3.Value
}

// New creates a Solver that lowers expressions owned by ctx. A fresh
// z3.Context/z3.Solver pair is created per Solver, matching how
// symexec/dynamic.go's solve constructs a new z3.Context for every
// query rather than sharing one globally.
func New(ctx *expr.Context) (*Solver, error) {
	zctx, err := z3.NewContext(nil)
	if err != nil {
		return nil, &solver.Error{Op: "NewContext", Err: err}
	}
	return &Solver{
		ctx:   ctx,
		zctx:  zctx,
		s:     z3.NewSolver(zctx),
		cache: make(map[expr.Expr]z3.Value),
		vars:  make(map[*expr.Variable]z3.Value),
	}, nil
}

func (sv *Solver) Add(e expr.Expr) error {
	v, err := sv.lower(e)
	if err != nil {
		return err
	}
	b, ok := v.(z3.Bool)
	if !ok {
		return &solver.Error{Op: "Add", Err: fmt.Errorf("expression is not boolean")}
	}
	sv.s.Assert(b)
	return nil
}

// Check honors ctx's deadline as a pre-flight check: go-z3 exposes no
// way to interrupt a solver call already in progress from another
// goroutine, so a query started before ctx expired still runs to
// completion, but a query not yet started when ctx is already done is
// reported Unknown without ever reaching the solver. CheckAll passes
// one ctx to every query of a batch, so once it expires every query
// not yet started is reported Unknown.
func (sv *Solver) Check(ctx context.Context) (solver.Status, error) {
	if err := ctx.Err(); err != nil {
		return solver.Unknown, nil
	}
	sat, err := sv.s.Check()
	if err != nil {
		return solver.Unknown, &solver.Error{Op: "Check", Err: err}
	}
	switch sat {
	case z3.Sat:
		return solver.Sat, nil
	case z3.Unsat:
		return solver.Unsat, nil
	default:
		return solver.Unknown, nil
	}
}

func (sv *Solver) Model() (solver.Valuation, error) {
	m := sv.s.Model()
	if m == nil {
		return nil, &solver.Error{Op: "Model", Err: fmt.Errorf("no model available; Check must return Sat first")}
	}
	return &valuation{sv: sv, m: m}, nil
}

func (sv *Solver) Push() { sv.s.Push() }
func (sv *Solver) Pop()  { sv.s.Pop() }
func (sv *Solver) Close() {}

type valuation struct {
	sv *Solver
	m  *z3.Model
}

// Value evaluates v's z3 constant against the model and folds the
// result back into an expr.Expr literal for bmc/trace to consume,
// mirroring how CachingZ3Solver hands its model back to BmcTrace as a
// plain name-to-value map rather than a live z3 handle.
func (val *valuation) Value(v *expr.Variable) (expr.Expr, bool) {
	zv, ok := val.sv.vars[v]
	if !ok {
		return expr.Invalid, false
	}
	evaluated := val.m.Eval(zv, true)
	if evaluated == nil {
		return expr.Invalid, false
	}
	return val.sv.reflect(v.Type(), evaluated)
}

// reflect folds a concrete z3.Value read out of a model back into an
// expr.Expr literal of the expected type.
func (sv *Solver) reflect(t expr.Type, v z3.Value) (expr.Expr, bool) {
	b := expr.NewFoldingBuilder(sv.ctx)
	switch {
	case expr.IsBool(t):
		bv, ok := v.(z3.Bool)
		if !ok {
			return expr.Invalid, false
		}
		lit, isLit := bv.AsBool()
		if !isLit {
			return expr.Invalid, false
		}
		return b.BoolLit(lit), true
	case expr.IsInt(t):
		iv, ok := v.(z3.Int)
		if !ok {
			return expr.Invalid, false
		}
		bi, isLit := iv.AsBigInt()
		if !isLit {
			return expr.Invalid, false
		}
		return b.IntLitBig(bi), true
	case expr.IsBv(t):
		bvv, ok := v.(z3.BV)
		if !ok {
			return expr.Invalid, false
		}
		bi, isLit := bvv.AsBigInt()
		if !isLit {
			return expr.Invalid, false
		}
		width, _ := expr.BvWidth(t)
		return b.BvLitBig(bi, width), true
	default:
		return expr.Invalid, false
	}
}

// lower recursively translates e into the z3 term universe, caching
// every node it visits so a diamond-shaped formula (two conjuncts
// sharing a subterm) is only ever asserted once, the same sharing
// expr's own hash-consed arena already guarantees on the Go side.
func (sv *Solver) lower(e expr.Expr) (z3.Value, error) {
	if v, ok := sv.cache[e]; ok {
		return v, nil
	}
	v, err := sv.lowerUncached(e)
	if err != nil {
		return nil, err
	}
	sv.cache[e] = v
	return v, nil
}

func (sv *Solver) lowerUncached(e expr.Expr) (z3.Value, error) {
	c := sv.ctx
	k := c.Kind(e)

	switch k {
	case expr.KindBoolLit:
		return sv.zctx.FromBool(c.BoolLitValue(e)), nil
	case expr.KindIntLit:
		return sv.zctx.FromBigInt(c.IntLitValue(e), sv.sort(c.IntType())), nil
	case expr.KindBvLit:
		iv, width := c.BvLitValue(e)
		return sv.zctx.FromBigInt(iv, sv.sort(c.BvType(width))), nil
	case expr.KindFloatLit:
		fv := c.FloatLitValue(e)
		f64, _ := fv.Val.Float64()
		return sv.zctx.FromFloat64(f64, sv.sort(c.Type(e))), nil
	case expr.KindUndef:
		return sv.freshConst("undef", c.Type(e)), nil
	case expr.KindVarRef:
		return sv.varValue(c.VarRefVariable(e)), nil
	}

	ops := c.Operands(e)
	args := make([]z3.Value, len(ops))
	for i, op := range ops {
		v, err := sv.lower(op)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch k {
	case expr.KindNot:
		return args[0].(z3.Bool).Not(), nil
	case expr.KindAnd:
		acc := args[0].(z3.Bool)
		for _, a := range args[1:] {
			acc = acc.And(a.(z3.Bool))
		}
		return acc, nil
	case expr.KindOr:
		acc := args[0].(z3.Bool)
		for _, a := range args[1:] {
			acc = acc.Or(a.(z3.Bool))
		}
		return acc, nil
	case expr.KindXor:
		return args[0].(z3.Bool).Xor(args[1].(z3.Bool)), nil
	case expr.KindEq:
		return args[0].Eq(args[1]), nil
	case expr.KindNotEq:
		return args[0].Eq(args[1]).(z3.Bool).Not(), nil
	case expr.KindSelect:
		cond := args[0].(z3.Bool)
		return cond.IfThenElse(args[1], args[2]), nil

	case expr.KindAdd:
		return arith(args[0], args[1], "Add")
	case expr.KindSub:
		return arith(args[0], args[1], "Sub")
	case expr.KindMul:
		return arith(args[0], args[1], "Mul")
	case expr.KindDiv:
		return arith(args[0], args[1], "Div")
	case expr.KindMod:
		return arith(args[0], args[1], "Mod")
	case expr.KindLt:
		return cmp(args[0], args[1], "LT")
	case expr.KindLtEq:
		return cmp(args[0], args[1], "LE")
	case expr.KindGt:
		return cmp(args[0], args[1], "GT")
	case expr.KindGtEq:
		return cmp(args[0], args[1], "GE")

	case expr.KindBvSDiv:
		return args[0].(z3.BV).SDiv(args[1].(z3.BV)), nil
	case expr.KindBvUDiv:
		return args[0].(z3.BV).UDiv(args[1].(z3.BV)), nil
	case expr.KindBvSRem:
		return args[0].(z3.BV).SRem(args[1].(z3.BV)), nil
	case expr.KindBvURem:
		return args[0].(z3.BV).URem(args[1].(z3.BV)), nil
	case expr.KindShl:
		return args[0].(z3.BV).Lsh(args[1].(z3.BV)), nil
	case expr.KindLShr:
		return args[0].(z3.BV).URsh(args[1].(z3.BV)), nil
	case expr.KindAShr:
		return args[0].(z3.BV).SRsh(args[1].(z3.BV)), nil
	case expr.KindBvAnd:
		return args[0].(z3.BV).And(args[1].(z3.BV)), nil
	case expr.KindBvOr:
		return args[0].(z3.BV).Or(args[1].(z3.BV)), nil
	case expr.KindBvXor:
		return args[0].(z3.BV).Xor(args[1].(z3.BV)), nil
	case expr.KindBvULt:
		return args[0].(z3.BV).ULT(args[1].(z3.BV)), nil
	case expr.KindBvULtEq:
		return args[0].(z3.BV).ULE(args[1].(z3.BV)), nil
	case expr.KindBvUGt:
		return args[0].(z3.BV).UGT(args[1].(z3.BV)), nil
	case expr.KindBvUGtEq:
		return args[0].(z3.BV).UGE(args[1].(z3.BV)), nil
	case expr.KindBvSLt:
		return args[0].(z3.BV).SLT(args[1].(z3.BV)), nil
	case expr.KindBvSLtEq:
		return args[0].(z3.BV).SLE(args[1].(z3.BV)), nil
	case expr.KindBvSGt:
		return args[0].(z3.BV).SGT(args[1].(z3.BV)), nil
	case expr.KindBvSGtEq:
		return args[0].(z3.BV).SGE(args[1].(z3.BV)), nil
	case expr.KindZExt:
		width, _ := expr.BvWidth(c.Type(e))
		from, _ := expr.BvWidth(c.Type(ops[0]))
		return args[0].(z3.BV).ZeroExt(width - from), nil
	case expr.KindSExt:
		width, _ := expr.BvWidth(c.Type(e))
		from, _ := expr.BvWidth(c.Type(ops[0]))
		return args[0].(z3.BV).SignExt(width - from), nil
	case expr.KindTrunc:
		width, _ := expr.BvWidth(c.Type(e))
		return args[0].(z3.BV).Extract(width-1, 0), nil

	case expr.KindFAdd:
		return args[0].(z3.Float).Add(args[1].(z3.Float), z3.RoundNearestTiesToEven), nil
	case expr.KindFSub:
		return args[0].(z3.Float).Sub(args[1].(z3.Float), z3.RoundNearestTiesToEven), nil
	case expr.KindFMul:
		return args[0].(z3.Float).Mul(args[1].(z3.Float), z3.RoundNearestTiesToEven), nil
	case expr.KindFDiv:
		return args[0].(z3.Float).Div(args[1].(z3.Float), z3.RoundNearestTiesToEven), nil
	case expr.KindFEq:
		return args[0].(z3.Float).FPEq(args[1].(z3.Float)), nil
	case expr.KindFGt:
		return args[0].(z3.Float).GT(args[1].(z3.Float)), nil
	case expr.KindFGtEq:
		return args[0].(z3.Float).GE(args[1].(z3.Float)), nil
	case expr.KindFLt:
		return args[0].(z3.Float).LT(args[1].(z3.Float)), nil
	case expr.KindFLtEq:
		return args[0].(z3.Float).LE(args[1].(z3.Float)), nil
	case expr.KindFIsNan:
		return args[0].(z3.Float).IsNaN(), nil
	case expr.KindSignedToFp:
		return args[0].(z3.BV).SToFloat(sv.sort(c.Type(e)).(z3.FloatSort), z3.RoundNearestTiesToEven), nil
	case expr.KindUnsignedToFp:
		return args[0].(z3.BV).UToFloat(sv.sort(c.Type(e)).(z3.FloatSort), z3.RoundNearestTiesToEven), nil
	case expr.KindFpToSigned:
		width, _ := expr.BvWidth(c.Type(e))
		return args[0].(z3.Float).ToBVSigned(width, z3.RoundTowardZero), nil
	case expr.KindFpToUnsigned:
		width, _ := expr.BvWidth(c.Type(e))
		return args[0].(z3.Float).ToBVUnsigned(width, z3.RoundTowardZero), nil
	case expr.KindFCast:
		return args[0].(z3.Float).ToFloat(sv.sort(c.Type(e)).(z3.FloatSort), z3.RoundNearestTiesToEven), nil

	case expr.KindRead:
		return args[0].(z3.Array).Select(args[1]), nil
	case expr.KindWrite:
		return args[0].(z3.Array).Store(args[1], args[2]), nil
	}
	return nil, &solver.Error{Op: "lower", Err: fmt.Errorf("unsupported expression kind %s", k)}
}

func arith(a, b z3.Value, op string) (z3.Value, error) {
	switch av := a.(type) {
	case z3.Int:
		bv := b.(z3.Int)
		switch op {
		case "Add":
			return av.Add(bv), nil
		case "Sub":
			return av.Sub(bv), nil
		case "Mul":
			return av.Mul(bv), nil
		case "Div":
			return av.Div(bv), nil
		case "Mod":
			return av.Mod(bv), nil
		}
	case z3.BV:
		bv := b.(z3.BV)
		switch op {
		case "Add":
			return av.Add(bv), nil
		case "Sub":
			return av.Sub(bv), nil
		case "Mul":
			return av.Mul(bv), nil
		case "Div":
			return av.SDiv(bv), nil
		case "Mod":
			return av.SRem(bv), nil
		}
	}
	return nil, &solver.Error{Op: "arith", Err: fmt.Errorf("unsupported operand type for %s", op)}
}

func cmp(a, b z3.Value, op string) (z3.Value, error) {
	switch av := a.(type) {
	case z3.Int:
		bv := b.(z3.Int)
		switch op {
		case "LT":
			return av.LT(bv), nil
		case "LE":
			return av.LE(bv), nil
		case "GT":
			return av.GT(bv), nil
		case "GE":
			return av.GE(bv), nil
		}
	case z3.BV:
		bv := b.(z3.BV)
		switch op {
		case "LT":
			return av.SLT(bv), nil
		case "LE":
			return av.SLE(bv), nil
		case "GT":
			return av.SGT(bv), nil
		case "GE":
			return av.SGE(bv), nil
		}
	}
	return nil, &solver.Error{Op: "cmp", Err: fmt.Errorf("unsupported operand type for %s", op)}
}

func (sv *Solver) varValue(v *expr.Variable) z3.Value {
	if zv, ok := sv.vars[v]; ok {
		return zv
	}
	zv := sv.zctx.Const(v.Name(), sv.sort(v.Type()))
	sv.vars[v] = zv
	return zv
}

func (sv *Solver) freshConst(prefix string, t expr.Type) z3.Value {
	name := fmt.Sprintf("%s!%d", prefix, len(sv.cache))
	return sv.zctx.Const(name, sv.sort(t))
}

// sort lowers an expr.Type to its z3.Sort, the Go-native counterpart
// of EncodingContext's own type-to-sort dispatch.
func (sv *Solver) sort(t expr.Type) z3.Sort {
	switch {
	case expr.IsBool(t):
		return sv.zctx.BoolSort()
	case expr.IsInt(t):
		return sv.zctx.IntSort()
	case expr.IsBv(t):
		w, _ := expr.BvWidth(t)
		return sv.zctx.BVSort(int(w))
	case expr.IsFloat(t):
		k, _ := expr.FloatKindOf(t)
		exp, sig := floatExpSig(k)
		return sv.zctx.FloatSort(exp, sig)
	default:
		domain, elem, _ := expr.ArrayParts(t)
		return sv.zctx.ArraySort(sv.sort(domain), sv.sort(elem))
	}
}

func floatExpSig(k expr.FloatKind) (exp, sig int) {
	switch k {
	case expr.Half:
		return 5, 11
	case expr.Single:
		return 8, 24
	case expr.Fp80:
		return 15, 64
	case expr.Fp128, expr.Ppc128:
		return 15, 113
	default:
		return 11, 53
	}
}
