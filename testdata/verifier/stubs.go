// Package main realizes the "nondet int compared against a nonzero
// guard" scenario from the testable-properties catalog. The stub
// declarations below stand in for gazer's own extern C symbols;
// translate.IsErrorSink/IsNondet match the error and nondet stubs by
// their exact unqualified names, which only works when the function lives in the
// same package as its call site — Go has no extern-linkage mechanism
// for giving an imported symbol one of these literal names.
package main

func __VERIFIER_error() {}

func __assert_fail() {}

func __VERIFIER_nondet_int() int { return 0 }

func __VERIFIER_nondet_bool() bool { return false }

func gazerInlinedGlobalWrite(v int, name string) int { return v }
