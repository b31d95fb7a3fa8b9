package memory

import (
	"strconv"

	"gobmc/expr"
)

// HavocModel is the default Model: every load returns a fresh,
// completely unconstrained ("havocked") value of the pointee type, and
// stores are not tracked at all. This is unsound for precise reasoning
// about aliasing slices, but it is cheap, always terminates, and is
// what the engine falls back to whenever no ArrayModel has been wired
// for a pointee type. Addresses are plain, disjoint Int constants; only
// their identity (nil vs non-nil, alloca vs alloca) is meaningful.
type HavocModel struct {
	nextAddr  int64
	undefSeq  int
}

func NewHavocModel() *HavocModel { return &HavocModel{nextAddr: 1} }

func (m *HavocModel) TranslateType(ctx *expr.Context, elemType expr.Type) expr.Type {
	return ctx.IntType()
}

func (m *HavocModel) HandleAlloca(ctx *expr.Context, b expr.Builder, elemType expr.Type) (expr.Expr, error) {
	addr := m.nextAddr
	m.nextAddr++
	return b.IntLit(addr), nil
}

func (m *HavocModel) HandleLoad(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr expr.Expr) (expr.Expr, error) {
	m.undefSeq++
	name := addrTypeKey(elemType)
	v, err := ctx.SymbolTable().CreateVariable(undefVarName(name, m.undefSeq), elemType)
	if err != nil {
		return expr.Invalid, err
	}
	return b.VarRef(v), nil
}

func (m *HavocModel) HandleStore(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr, val expr.Expr) (expr.Expr, error) {
	return val, nil // not tracked; the write has no observable effect under havoc
}

func (m *HavocModel) HandleGetElementPtr(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr, idx expr.Expr) (expr.Expr, error) {
	return b.Add(addr, idx)
}

func (m *HavocModel) HandlePointerValue(ctx *expr.Context, b expr.Builder, addr expr.Expr) (expr.Expr, error) {
	return b.NotEq(addr, b.IntLit(0))
}

func (m *HavocModel) HandlePointerCast(ctx *expr.Context, b expr.Builder, addr expr.Expr, toType expr.Type) (expr.Expr, error) {
	return addr, nil
}

func (m *HavocModel) MemoryVariable(elemType expr.Type) (*expr.Variable, bool) { return nil, false }

func (m *HavocModel) Rebind(ctx *expr.Context, elemType expr.Type) (*expr.Variable, bool) { return nil, false }

func undefVarName(typeName string, seq int) string {
	return "$havoc<" + typeName + ">#" + strconv.Itoa(seq)
}
