// Package translate lowers individual golang.org/x/tools/go/ssa
// instructions into expr.Expr, the way gazer's InstToExpr lowers LLVM
// instructions. build drives it one instruction at a time while
// constructing a cfa.Cfa; translate itself never touches control flow.
package translate

import (
	"go/token"
	gotypes "go/types"
	"math/big"

	"golang.org/x/tools/go/ssa"

	"gobmc/expr"
	"gobmc/memory"
)

// Resolver looks up the expr.Expr currently bound to an SSA value that
// is not itself a constant — ordinarily a VarRef to the logical
// variable build created for it. Constants are handled by translate
// directly and never reach the resolver.
type Resolver interface {
	Value(v ssa.Value) (expr.Expr, error)
}

// Translator lowers one ssa.Instruction at a time against a shared
// expr.Context/Builder/memory.Model, in a single integer Mode.
type Translator struct {
	Ctx      *expr.Context
	Builder  expr.Builder
	Mem      memory.Model
	Mode     Mode
	FileSet  *token.FileSet
	Resolver Resolver

	// debugBindings accumulates DebugBinding facts recorded by
	// recognized gazer.inlined_global.write calls (§10.3).
	debugBindings []DebugBinding
}

// DebugBinding records that SSA value Value should be reported under
// SourceName in extracted counterexamples, recovered from gazer's
// inlined-global debug annotation handling.
type DebugBinding struct {
	Value      ssa.Value
	SourceName string
}

func New(ctx *expr.Context, b expr.Builder, mem memory.Model, mode Mode, fset *token.FileSet, resolver Resolver) *Translator {
	return &Translator{Ctx: ctx, Builder: b, Mem: mem, Mode: mode, FileSet: fset, Resolver: resolver}
}

func (t *Translator) DebugBindings() []DebugBinding { return t.debugBindings }

// Operand resolves any SSA value to its expr.Expr: a constant through
// its literal lowering, anything else through Resolver. build calls
// this directly for phi edges and call arguments, which bypass
// Translate entirely since they carry no instruction of their own.
func (t *Translator) Operand(v ssa.Value) (expr.Expr, error) {
	return t.operand(v)
}

func (t *Translator) operand(v ssa.Value) (expr.Expr, error) {
	if c, ok := v.(*ssa.Const); ok {
		return t.constExpr(c)
	}
	return t.Resolver.Value(v)
}

func (t *Translator) constExpr(c *ssa.Const) (expr.Expr, error) {
	b := t.Builder
	switch typ := c.Type().Underlying().(type) {
	case *gotypes.Basic:
		switch {
		case typ.Info()&gotypes.IsBoolean != 0:
			return b.BoolLit(!c.IsNil() && c.Value.String() == "true"), nil
		case typ.Info()&gotypes.IsFloat != 0:
			f, _ := big.NewFloat(0).SetString(c.Value.String())
			kind := expr.Double
			if typ.Kind() == gotypes.Float32 {
				kind = expr.Single
			}
			val, _ := f.Float64()
			return b.FloatLit(expr.NewBigFloat(kind, val, expr.RoundNearestTiesToEven)), nil
		case typ.Info()&gotypes.IsInteger != 0:
			iv, ok := constant2BigInt(c)
			if !ok {
				return expr.Invalid, unsupported(nil, t.FileSet, "non-integral integer constant %s", c.Value)
			}
			if t.Mode == Integers {
				return b.IntLitBig(iv), nil
			}
			width, err := bvWidthOf(t.Ctx, t.Mem, c.Type())
			if err != nil {
				return expr.Invalid, err
			}
			return b.BvLitBig(iv, width), nil
		default:
			return expr.Invalid, unsupported(nil, t.FileSet, "unsupported constant kind %s", c.Type())
		}
	default:
		if c.IsNil() {
			return b.IntLit(0), nil
		}
		return expr.Invalid, unsupported(nil, t.FileSet, "unsupported constant type %s", c.Type())
	}
}

func constant2BigInt(c *ssa.Const) (*big.Int, bool) {
	if c.Value == nil {
		return big.NewInt(0), true
	}
	i := new(big.Int)
	_, ok := i.SetString(c.Value.ExactString(), 10)
	return i, ok
}

func bvWidthOf(ctx *expr.Context, mem memory.Model, t gotypes.Type) (uint, error) {
	et, err := TranslateType(ctx, mem, t)
	if err != nil {
		return 0, err
	}
	w, ok := expr.BvWidth(et)
	if !ok {
		return 64, nil
	}
	return w, nil
}

// Translate lowers a single value-producing instruction. Terminators
// (*ssa.If, *ssa.Jump, *ssa.Return) carry no result value and are
// handled by build directly.
func (t *Translator) Translate(instr ssa.Instruction) (expr.Expr, error) {
	switch inst := instr.(type) {
	case *ssa.BinOp:
		return t.binOp(inst)
	case *ssa.UnOp:
		return t.unOp(inst)
	case *ssa.Convert:
		return t.convert(inst)
	case *ssa.ChangeType:
		return t.operand(inst.X)
	case *ssa.Alloc:
		et, err := TranslateType(t.Ctx, t.Mem, inst.Type().(*gotypes.Pointer).Elem())
		if err != nil {
			return expr.Invalid, err
		}
		return t.Mem.HandleAlloca(t.Ctx, t.Builder, et)
	case *ssa.Store:
		return t.Store(inst)
	case *ssa.IndexAddr:
		addr, err := t.operand(inst.X)
		if err != nil {
			return expr.Invalid, err
		}
		idx, err := t.operand(inst.Index)
		if err != nil {
			return expr.Invalid, err
		}
		var elemGoType gotypes.Type
		switch xt := inst.X.Type().Underlying().(type) {
		case *gotypes.Pointer:
			elemGoType = xt.Elem().(*gotypes.Array).Elem()
		case *gotypes.Slice:
			elemGoType = xt.Elem()
		}
		et, err := TranslateType(t.Ctx, t.Mem, elemGoType)
		if err != nil {
			return expr.Invalid, err
		}
		intIdx, err := t.asInt(idx)
		if err != nil {
			return expr.Invalid, err
		}
		return t.Mem.HandleGetElementPtr(t.Ctx, t.Builder, et, addr, intIdx)
	case *ssa.FieldAddr:
		addr, err := t.operand(inst.X)
		if err != nil {
			return expr.Invalid, err
		}
		fieldIdx := t.Builder.IntLit(int64(inst.Field))
		st := inst.X.Type().Underlying().(*gotypes.Pointer).Elem().Underlying().(*gotypes.Struct)
		et, err := TranslateType(t.Ctx, t.Mem, st.Field(inst.Field).Type())
		if err != nil {
			return expr.Invalid, err
		}
		return t.Mem.HandleGetElementPtr(t.Ctx, t.Builder, et, addr, fieldIdx)
	case *ssa.Extract:
		// Tuple extraction: the call/convert producing the tuple must
		// already be bound to a variable per component by build; this
		// instruction just forwards that binding.
		return t.Resolver.Value(inst)
	case *ssa.Call:
		return t.call(inst)
	case *ssa.Phi:
		return expr.Invalid, unsupported(instr, t.FileSet, "phi nodes are assigned by build, not translate")
	default:
		return expr.Invalid, unsupported(instr, t.FileSet, "unhandled instruction kind")
	}
}

// Cond lowers an *ssa.If's branch condition to a Bool guard.
func (t *Translator) Cond(v ssa.Value) (expr.Expr, error) {
	e, err := t.operand(v)
	if err != nil {
		return expr.Invalid, err
	}
	return t.asBool(e)
}

func (t *Translator) Store(inst *ssa.Store) (expr.Expr, error) {
	addr, err := t.operand(inst.Addr)
	if err != nil {
		return expr.Invalid, err
	}
	val, err := t.operand(inst.Val)
	if err != nil {
		return expr.Invalid, err
	}
	et, err := TranslateType(t.Ctx, t.Mem, inst.Val.Type())
	if err != nil {
		return expr.Invalid, err
	}
	return t.Mem.HandleStore(t.Ctx, t.Builder, et, addr, val)
}
