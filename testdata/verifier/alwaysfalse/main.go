// Package main realizes the "always-false conjunction" scenario: the
// guard reaching the error sink is unsatisfiable on its own terms, so
// the checker must report Successful with no model at all.
package main

func __VERIFIER_error() {}

func __VERIFIER_nondet_int() int { return 0 }

func main() {
	x := __VERIFIER_nondet_int()
	if x > 0 && x < 0 {
		__VERIFIER_error()
	}
}
