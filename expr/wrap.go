package expr

// Must panics instead of returning an error; useful for callers
// building expressions from statically-known-well-typed operands, such
// as translate's own internal bookkeeping.
func Must(e Expr, err error) Expr {
	if err != nil {
		panic(err)
	}
	return e
}
