package translate

import (
	"fmt"
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// UnsupportedError reports an SSA construct the translator has no
// lowering for. Per the engine's error-severity policy this degrades
// the enclosing query to Inconclusive rather than aborting the run.
type UnsupportedError struct {
	Instr ssa.Instruction
	Pos   token.Position
	Msg   string
}

func (e *UnsupportedError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("translate: unsupported construct at %s: %s (%v)", e.Pos, e.Msg, e.Instr)
	}
	return fmt.Sprintf("translate: unsupported construct: %s (%v)", e.Msg, e.Instr)
}

func unsupported(instr ssa.Instruction, fset *token.FileSet, msg string, args ...interface{}) error {
	pos := token.Position{}
	if fset != nil {
		pos = fset.Position(instr.Pos())
	}
	return &UnsupportedError{Instr: instr, Pos: pos, Msg: fmt.Sprintf(msg, args...)}
}
