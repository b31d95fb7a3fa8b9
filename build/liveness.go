package build

import "golang.org/x/tools/go/ssa"

// filteredBlocks drops every block that is a non-header member of some
// loop other than exclude, at any nesting depth, leaving each such
// loop's header behind as the node a call transition will collapse it
// onto. exclude is the header of the loop whose own region is being
// built (nil at function scope), whose full body always survives.
func filteredBlocks(raw []*ssa.BasicBlock, li *LoopInfo, exclude *ssa.BasicBlock) []*ssa.BasicBlock {
	drop := make(map[*ssa.BasicBlock]bool)
	for _, l := range li.Loops() {
		if l.Header == exclude {
			continue
		}
		for _, b := range l.Blocks {
			if b != l.Header {
				drop[b] = true
			}
		}
	}
	out := make([]*ssa.BasicBlock, 0, len(raw))
	for _, b := range raw {
		if !drop[b] {
			out = append(out, b)
		}
	}
	return out
}

// liveInValues lists, in first-use order, every SSA value referenced
// inside blocks that is not itself defined by an instruction inside
// blocks — the set a collapsed loop's Cfa must declare as Inputs.
func liveInValues(blocks []*ssa.BasicBlock) []ssa.Value {
	inSet := make(map[*ssa.BasicBlock]bool, len(blocks))
	for _, b := range blocks {
		inSet[b] = true
	}

	seen := make(map[ssa.Value]bool)
	var out []ssa.Value
	add := func(v ssa.Value) {
		if v == nil || seen[v] {
			return
		}
		if _, ok := v.(*ssa.Const); ok {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	for _, b := range blocks {
		for _, instr := range b.Instrs {
			if phi, ok := instr.(*ssa.Phi); ok {
				for i, edge := range phi.Edges {
					pred := phi.Block().Preds[i]
					if !inSet[pred] {
						add(edge)
					}
				}
				continue
			}
			for _, op := range instr.Operands(nil) {
				if op == nil || *op == nil {
					continue
				}
				if definedOutside(*op, inSet) {
					add(*op)
				}
			}
		}
	}
	return out
}

// definedOutside reports whether v's defining point lies outside
// blockSet. Values with no block of their own (parameters, free
// variables, globals, functions, builtins) are always "outside" —
// they belong to the enclosing function or package, never to one loop
// body.
func definedOutside(v ssa.Value, blockSet map[*ssa.BasicBlock]bool) bool {
	instr, ok := v.(ssa.Instruction)
	if !ok {
		return true
	}
	return !blockSet[instr.Block()]
}

// liveOutValues lists, in first-use order, every SSA value defined
// inside blocks that some instruction outside allBlocks\blocks still
// references — the set a collapsed loop's Cfa must declare as Outputs
// (besides its selector).
func liveOutValues(blocks, allBlocks []*ssa.BasicBlock) []ssa.Value {
	inSet := make(map[*ssa.BasicBlock]bool, len(blocks))
	for _, b := range blocks {
		inSet[b] = true
	}
	defined := make(map[ssa.Value]bool)
	for _, b := range blocks {
		for _, instr := range b.Instrs {
			if v, ok := instr.(ssa.Value); ok {
				defined[v] = true
			}
		}
	}

	seen := make(map[ssa.Value]bool)
	var out []ssa.Value
	add := func(v ssa.Value) {
		if defined[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	for _, b := range allBlocks {
		if inSet[b] {
			continue
		}
		for _, instr := range b.Instrs {
			if phi, ok := instr.(*ssa.Phi); ok {
				for i, edge := range phi.Edges {
					pred := phi.Block().Preds[i]
					if inSet[pred] {
						add(edge)
					}
				}
				continue
			}
			for _, op := range instr.Operands(nil) {
				if op == nil || *op == nil {
					continue
				}
				add(*op)
			}
		}
	}
	return out
}
