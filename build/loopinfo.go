package build

import "golang.org/x/tools/go/ssa"

// Loop is one natural loop: a header block plus every block the
// header dominates that has a back edge into it. go/ssa ships no
// LoopInfo pass the way LLVM does, so this is computed directly from
// the dominator tree — the one piece of infrastructure the Go front
// end needs that the teacher (and the original gazer) got for free
// from their host toolchain (see SPEC_FULL.md §4.F).
type Loop struct {
	Header *ssa.BasicBlock
	Blocks []*ssa.BasicBlock
	Exits  []*ssa.BasicBlock // blocks outside the loop reached directly from inside it
}

// LoopInfo is the natural-loop forest of a single function, keyed by
// loop header block.
type LoopInfo struct {
	byHeader map[*ssa.BasicBlock]*Loop
}

func (li *LoopInfo) LoopFor(header *ssa.BasicBlock) (*Loop, bool) {
	l, ok := li.byHeader[header]
	return l, ok
}

func (li *LoopInfo) Loops() []*Loop {
	out := make([]*Loop, 0, len(li.byHeader))
	for _, l := range li.byHeader {
		out = append(out, l)
	}
	return out
}

// dominators computes, for every reachable block, its immediate
// dominator using the standard iterative Cooper/Harvey/Kennedy
// algorithm over go/ssa's own block numbering and predecessor lists.
func dominators(fn *ssa.Function) map[*ssa.BasicBlock]*ssa.BasicBlock {
	blocks := fn.Blocks
	if len(blocks) == 0 {
		return nil
	}
	entry := blocks[0]
	idom := make(map[*ssa.BasicBlock]*ssa.BasicBlock, len(blocks))
	idom[entry] = entry

	order := reversePostorder(entry)
	index := make(map[*ssa.BasicBlock]int, len(order))
	for i, b := range order {
		index[b] = i
	}

	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom *ssa.BasicBlock
			for _, p := range b.Preds {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersectDom(idom, index, newIdom, p)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersectDom(idom map[*ssa.BasicBlock]*ssa.BasicBlock, index map[*ssa.BasicBlock]int, a, b *ssa.BasicBlock) *ssa.BasicBlock {
	for a != b {
		for index[a] > index[b] {
			a = idom[a]
		}
		for index[b] > index[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(entry *ssa.BasicBlock) []*ssa.BasicBlock {
	var order []*ssa.BasicBlock
	visited := make(map[*ssa.BasicBlock]bool)
	var visit func(b *ssa.BasicBlock)
	visit = func(b *ssa.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			visit(s)
		}
		order = append(order, b)
	}
	visit(entry)
	// order is now postorder with entry last; reverse it.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func dominates(idom map[*ssa.BasicBlock]*ssa.BasicBlock, a, b *ssa.BasicBlock) bool {
	for b != nil {
		if b == a {
			return true
		}
		if idom[b] == b {
			return b == a
		}
		b = idom[b]
	}
	return false
}

// ComputeLoopInfo finds every natural loop in fn: a back edge n -> h
// where h dominates n identifies h as a loop header; the loop body is
// every block h dominates that can reach n without leaving the set.
func ComputeLoopInfo(fn *ssa.Function) *LoopInfo {
	li := &LoopInfo{byHeader: make(map[*ssa.BasicBlock]*Loop)}
	if len(fn.Blocks) == 0 {
		return li
	}
	idom := dominators(fn)

	for _, n := range fn.Blocks {
		for _, h := range n.Succs {
			if !dominates(idom, h, n) {
				continue
			}
			loop, ok := li.byHeader[h]
			if !ok {
				loop = &Loop{Header: h}
				li.byHeader[h] = loop
			}
			body := findLoopBody(h, n)
			loop.Blocks = mergeBlocks(loop.Blocks, body)
		}
	}
	for _, loop := range li.byHeader {
		loop.Exits = findExits(loop)
	}
	return li
}

func findLoopBody(header, latch *ssa.BasicBlock) []*ssa.BasicBlock {
	body := map[*ssa.BasicBlock]bool{header: true}
	stack := []*ssa.BasicBlock{latch}
	body[latch] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range b.Preds {
			if !body[p] {
				body[p] = true
				stack = append(stack, p)
			}
		}
	}
	out := make([]*ssa.BasicBlock, 0, len(body))
	for b := range body {
		out = append(out, b)
	}
	return out
}

func mergeBlocks(a, b []*ssa.BasicBlock) []*ssa.BasicBlock {
	seen := make(map[*ssa.BasicBlock]bool, len(a))
	for _, x := range a {
		seen[x] = true
	}
	for _, x := range b {
		if !seen[x] {
			seen[x] = true
			a = append(a, x)
		}
	}
	return a
}

func findExits(loop *Loop) []*ssa.BasicBlock {
	inLoop := make(map[*ssa.BasicBlock]bool, len(loop.Blocks))
	for _, b := range loop.Blocks {
		inLoop[b] = true
	}
	var exits []*ssa.BasicBlock
	seen := make(map[*ssa.BasicBlock]bool)
	for _, b := range loop.Blocks {
		for _, s := range b.Succs {
			if !inLoop[s] && !seen[s] {
				seen[s] = true
				exits = append(exits, s)
			}
		}
	}
	return exits
}
