// Package memory provides pluggable translations of pointer-like SSA
// values (pointers, slices, array indexing) into expr.Expr. The engine
// never hard-codes one pointer encoding; translate asks a Model.
package memory

import (
	"fmt"

	"gobmc/expr"
)

// Model turns pointer-shaped SSA operations into expressions over the
// logical variables a translate.Translator has already created for
// ordinary values. A Model owns whatever auxiliary per-type arrays it
// needs (ArrayModel keeps one flat array per pointee type; the default
// HavocModel keeps none) and is free to allocate fresh symbolic
// variables lazily as new pointee types are seen.
type Model interface {
	// TranslateType maps a pointer/slice/array SSA type to the expr.Type
	// used to represent *values of that type* (not their storage).
	// Pointers and slices are represented as Int indices into the
	// model's own memory arrays; this lets every pointer-shaped value
	// stay comparable and nil-checkable without exposing the storage
	// layout to translate.
	TranslateType(ctx *expr.Context, elemType expr.Type) expr.Type

	// HandleAlloca returns the fresh address value for a new allocation
	// of the given pointee type, and records that the allocation is
	// live for the purposes of HandleLoad/HandleStore.
	HandleAlloca(ctx *expr.Context, b expr.Builder, elemType expr.Type) (expr.Expr, error)

	// HandleLoad reads through pointer addr (of pointee type elemType).
	HandleLoad(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr expr.Expr) (expr.Expr, error)

	// HandleStore writes val through pointer addr (of pointee type
	// elemType) and returns the updated per-type memory array value, if
	// any — callers thread this into the CFA transition's assignment
	// list so the update is visible to later reads along the same edge.
	HandleStore(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr, val expr.Expr) (expr.Expr, error)

	// HandleGetElementPtr computes the address of index idx within the
	// array/slice rooted at addr.
	HandleGetElementPtr(ctx *expr.Context, b expr.Builder, elemType expr.Type, addr, idx expr.Expr) (expr.Expr, error)

	// HandlePointerValue reports whether addr is non-nil, for
	// nil-comparisons and dereference guards.
	HandlePointerValue(ctx *expr.Context, b expr.Builder, addr expr.Expr) (expr.Expr, error)

	// HandlePointerCast reinterprets addr as pointing to toType; most
	// models treat this as identity since addresses carry no static
	// pointee type of their own.
	HandlePointerCast(ctx *expr.Context, b expr.Builder, addr expr.Expr, toType expr.Type) (expr.Expr, error)

	// MemoryVariable exposes the per-elemType array variable backing
	// HandleLoad/HandleStore, for models (ArrayModel) that materialize
	// one. Havoc-style models that keep no array return (nil, false).
	MemoryVariable(elemType expr.Type) (*expr.Variable, bool)

	// Rebind advances the live memory variable for elemType to a fresh
	// version, called by build once it has bound a HandleStore result
	// onto the CFA so later loads along the same path see the write.
	// Models that track no array (HavocModel) return (nil, false) and
	// build skips the rebinding assignment entirely.
	Rebind(ctx *expr.Context, elemType expr.Type) (*expr.Variable, bool)
}

// UnsupportedError reports a pointee type or operation a Model cannot
// encode precisely.
type UnsupportedError struct {
	Model string
	Op    string
	Type  expr.Type
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("memory: %s does not support %s for %s", e.Model, e.Op, e.Type)
}

func addrTypeKey(t expr.Type) string { return t.String() }
