package cpm

import "github.com/joshharrison/ganttcpm/internal/graph"

// TopoSort orders tasks so every predecessor precedes its successors, using a
// depth-first walk over incoming edges. Ties follow input task order. The
// second result is false if the graph has a cycle; that is an expected
// outcome, not an error.
func TopoSort(g *graph.TaskGraph) ([]string, bool) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case visiting:
			return false
		case done:
			return true
		}
		state[id] = visiting
		for _, ei := range g.In[id] {
			if !visit(g.Edges[ei].PredecessorID) {
				return false
			}
		}
		state[id] = done
		order = append(order, id)
		return true
	}

	for _, id := range g.Order {
		if !visit(id) {
			return nil, false
		}
	}
	return order, true
}
