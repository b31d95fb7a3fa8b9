package translate

import (
	"strconv"
	"strings"

	"golang.org/x/tools/go/ssa"

	"gobmc/expr"
)

// errorSinkNames and debugAnnotationName are the recognized external
// names from §6, matched against the unqualified callee name exactly
// as gazer's BmcPass matches isErrorFunctionName.
var errorSinkNames = map[string]bool{
	"__VERIFIER_error": true,
	"__assert_fail":    true,
	"__gazer_error":     true,
	"gazer.error_code":  true,
}

const debugAnnotationName = "gazer.inlined_global.write"
const nondetPrefix = "__VERIFIER_nondet_"

// CalleeName returns the unqualified name of a static call's callee,
// or "" for a dynamic call (no *ssa.Function target).
func CalleeName(inst *ssa.Call) string {
	fn := inst.Call.StaticCallee()
	if fn == nil {
		return ""
	}
	return fn.Name()
}

// IsErrorSink reports whether name is a recognized error-sink call —
// build redirects such a call to the CFA's error location instead of
// asking translate for a value.
func IsErrorSink(name string) bool { return errorSinkNames[name] }

// IsNondet reports whether name is a recognized nondeterministic-input
// call, e.g. __VERIFIER_nondet_int.
func IsNondet(name string) bool { return strings.HasPrefix(name, nondetPrefix) }

// IsDebugAnnotation reports whether name is the recognized debug
// value-to-source-name binding call.
func IsDebugAnnotation(name string) bool { return name == debugAnnotationName }

// call lowers a *ssa.Call that produces an ordinary value: either a
// recognized nondet-input stub, or the recognized debug annotation
// (which evaluates to its bound argument, unchanged). Calls to
// error sinks and to user-defined functions are intercepted by build
// before reaching here — reaching this function with such a callee is
// a translator misuse, reported as UnsupportedError.
func (t *Translator) call(inst *ssa.Call) (expr.Expr, error) {
	name := CalleeName(inst)
	switch {
	case IsNondet(name):
		return t.nondetValue(inst)
	case IsDebugAnnotation(name):
		return t.debugAnnotation(inst)
	case name == "":
		return expr.Invalid, unsupported(inst, t.FileSet, "dynamic call has no static callee")
	default:
		return expr.Invalid, unsupported(inst, t.FileSet, "call to %s must be handled by build, not translate", name)
	}
}

func (t *Translator) nondetValue(inst *ssa.Call) (expr.Expr, error) {
	et, err := TranslateType(t.Ctx, t.Mem, inst.Type())
	if err != nil {
		return expr.Invalid, err
	}
	name := "$nondet#" + CalleeName(inst)
	v, err := t.Ctx.SymbolTable().CreateVariable(uniqueName(t.Ctx, name), et)
	if err != nil {
		return expr.Invalid, err
	}
	return t.Builder.VarRef(v), nil
}

func uniqueName(ctx *expr.Context, base string) string {
	name := base
	for i := 0; ; i++ {
		if _, exists := ctx.SymbolTable().Lookup(name); !exists {
			return name
		}
		name = base + "#" + strconv.Itoa(i)
	}
}

// debugAnnotation records a value-to-source-name binding (§10.3) and
// evaluates to its bound value, so the call is transparent to whatever
// consumes its result.
func (t *Translator) debugAnnotation(inst *ssa.Call) (expr.Expr, error) {
	args := inst.Call.Args
	if len(args) < 2 {
		return expr.Invalid, unsupported(inst, t.FileSet, "gazer.inlined_global.write expects (value, name) arguments")
	}
	val, err := t.operand(args[0])
	if err != nil {
		return expr.Invalid, err
	}
	if c, ok := args[1].(*ssa.Const); ok && c.Value != nil {
		t.debugBindings = append(t.debugBindings, DebugBinding{Value: args[0], SourceName: c.Value.ExactString()})
	}
	return val, nil
}
