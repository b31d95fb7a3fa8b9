package memory

import (
	"strconv"

	"gobmc/expr"
)

// ArrayModel represents every pointee type's storage as one Z3-array-
// backed logical variable: Array<Int, elemType>, addressed by plain
// Int indices handed out per alloca. This is the precise counterpart
// to HavocModel, grounded on the teacher's per-type valuesMemory /
// arrayValuesMemory / arrayLenMemory arrays (symexec/context.go):
// where the teacher allocates one z3.Array per Go pointer/slice type
// directly against the solver, ArrayModel allocates the same shape as
// an expr.Variable of expr Array type and lets translate read/write it
// through ordinary expr.Read/expr.Write like any other value — the
// array only touches the solver once the whole formula is handed off.
type ArrayModel struct {
	mem      map[string]*expr.Variable // elemType key -> current array variable
	nextAddr map[string]int64
	version  map[string]int
}

func NewArrayModel() *ArrayModel {
	return &ArrayModel{
		mem:      make(map[string]*expr.Variable),
		nextAddr: make(map[string]int64),
		version:  make(map[string]int),
	}
}

func (m *ArrayModel) TranslateType(ctx *expr.Context, elemType expr.Type) expr.Type {
	return ctx.IntType()
}

func (m *ArrayModel) memVar(ctx *expr.Context, elemType expr.Type) (*expr.Variable, error) {
	key := addrTypeKey(elemType)
	if v, ok := m.mem[key]; ok {
		return v, nil
	}
	return m.freshMemVar(ctx, elemType)
}

func (m *ArrayModel) freshMemVar(ctx *expr.Context, elemType expr.Type) (*expr.Variable, error) {
	key := addrTypeKey(elemType)
	arrType := ctx.ArrayType(ctx.IntType(), elemType)
	name := "$<" + key + ">Memory#" + strconv.Itoa(m.version[key])
	m.version[key]++
	v, err := ctx.SymbolTable().CreateVariable(name, arrType)
	if err != nil {
		return nil, err
	}
	m.mem[key] = v
	return v, nil
}

func (m *ArrayModel) HandleAlloca(ctx *expr.Context, b expr.Builder, elemType expr.Type) (expr.Expr, error) {
	key := addrTypeKey(elemType)
	addr := m.nextAddr[key] + 1
	m.nextAddr[key] = addr
	if _, ok := m.mem[key]; !ok {
		if _, err := m.freshMemVar(ctx, elemType); err != nil {
			return expr.Invalid, err
		}
	}
	return b.IntLit(addr), nil
}

func (m *ArrayModel) HandleLoad(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr expr.Expr) (expr.Expr, error) {
	v, err := m.memVar(ctx, elemType)
	if err != nil {
		return expr.Invalid, err
	}
	return b.Read(b.VarRef(v), addr)
}

// HandleStore returns the new array value arr[addr := val]. A caller
// (translate) is responsible for binding this value to a fresh version
// of the per-type memory variable — exactly as it would bind any other
// assignment target — so later reads on the same CFA edge observe it.
func (m *ArrayModel) HandleStore(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr, val expr.Expr) (expr.Expr, error) {
	v, err := m.memVar(ctx, elemType)
	if err != nil {
		return expr.Invalid, err
	}
	updated, err := b.Write(b.VarRef(v), addr, val)
	if err != nil {
		return expr.Invalid, err
	}
	return updated, nil
}

// Rebind replaces the live memory variable for elemType with fresh,
// called once build has assigned the HandleStore result to a new
// variable version on the CFA.
func (m *ArrayModel) Rebind(ctx *expr.Context, elemType expr.Type) (*expr.Variable, bool) {
	v, err := m.freshMemVar(ctx, elemType)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (m *ArrayModel) HandleGetElementPtr(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr, idx expr.Expr) (expr.Expr, error) {
	return b.Add(addr, idx)
}

func (m *ArrayModel) HandlePointerValue(ctx *expr.Context, b expr.Builder, addr expr.Expr) (expr.Expr, error) {
	return b.NotEq(addr, b.IntLit(0))
}

func (m *ArrayModel) HandlePointerCast(ctx *expr.Context, b expr.Builder, addr expr.Expr, toType expr.Type) (expr.Expr, error) {
	return addr, nil
}

func (m *ArrayModel) MemoryVariable(elemType expr.Type) (*expr.Variable, bool) {
	v, ok := m.mem[addrTypeKey(elemType)]
	return v, ok
}
