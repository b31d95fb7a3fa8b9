package build

import "golang.org/x/tools/go/ssa"

// topoSort orders blocks so that every forward (non-back) edge goes
// from an earlier block to a later one, via Kahn's algorithm. Once
// loop bodies have been extracted into their own nested Cfa (see
// buildLoopCfa and wireLoop in builder.go), what remains of a function's block graph
// is a DAG and this ordering is exactly what bmc's reachability sweep
// (BmcPass.cpp's topological numbering) needs.
func topoSort(blocks []*ssa.BasicBlock, isBackEdge func(from, to *ssa.BasicBlock) bool) []*ssa.BasicBlock {
	inSet := make(map[*ssa.BasicBlock]bool, len(blocks))
	for _, b := range blocks {
		inSet[b] = true
	}

	indegree := make(map[*ssa.BasicBlock]int, len(blocks))
	for _, b := range blocks {
		indegree[b] = 0
	}
	for _, b := range blocks {
		for _, s := range b.Succs {
			if !inSet[s] || isBackEdge(b, s) {
				continue
			}
			indegree[s]++
		}
	}

	var queue []*ssa.BasicBlock
	for _, b := range blocks {
		if indegree[b] == 0 {
			queue = append(queue, b)
		}
	}

	var order []*ssa.BasicBlock
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		order = append(order, b)
		for _, s := range b.Succs {
			if !inSet[s] || isBackEdge(b, s) {
				continue
			}
			indegree[s]--
			if indegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	// A block graph with unreachable cycles the back-edge predicate
	// didn't account for falls back to source order for the remainder,
	// rather than dropping blocks silently.
	if len(order) < len(blocks) {
		placed := make(map[*ssa.BasicBlock]bool, len(order))
		for _, b := range order {
			placed[b] = true
		}
		for _, b := range blocks {
			if !placed[b] {
				order = append(order, b)
			}
		}
	}
	return order
}
