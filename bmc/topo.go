package bmc

import "gobmc/cfa"

// topoSort orders c's locations so that every transition goes from an
// earlier location to a later one, via Kahn's algorithm. build never
// leaves a cycle inside one Cfa — every natural loop is collapsed into
// its own nested callee Cfa before bmc ever sees it — so this ordering
// always covers every location, the same assumption BmcPass.cpp makes
// about its own topological block numbering.
func topoSort(c *cfa.Cfa) []*cfa.Location {
	locs := c.Locations()
	indegree := make(map[*cfa.Location]int, len(locs))
	for _, l := range locs {
		indegree[l] = len(l.Incoming())
	}

	var queue []*cfa.Location
	for _, l := range locs {
		if indegree[l] == 0 {
			queue = append(queue, l)
		}
	}

	order := make([]*cfa.Location, 0, len(locs))
	for len(queue) > 0 {
		l := queue[0]
		queue = queue[1:]
		order = append(order, l)
		for _, t := range l.Outgoing() {
			to := t.Target()
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) < len(locs) {
		placed := make(map[*cfa.Location]bool, len(order))
		for _, l := range order {
			placed[l] = true
		}
		for _, l := range locs {
			if !placed[l] {
				order = append(order, l)
			}
		}
	}
	return order
}
