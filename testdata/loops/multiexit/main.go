// Package main realizes the "loop with two exits" scenario: a break
// partway through the body gives the loop a second exit block besides
// its natural condition-false exit, exercising exitPhiAssignments'
// per-exit wiring and the loop selector's full range of values.
package main

func __VERIFIER_error() {}

func __VERIFIER_nondet_int() int { return 0 }

func main() {
	found := false
	i := 0
	for i < 10 {
		if __VERIFIER_nondet_int() == i {
			found = true
			break
		}
		i++
	}
	if found && i >= 10 {
		__VERIFIER_error()
	}
}
