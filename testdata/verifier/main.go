package main

func main() {
	x := __VERIFIER_nondet_int()
	if x == 7 {
		__VERIFIER_error()
	}
}
