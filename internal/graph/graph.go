package graph

import (
	"fmt"
	"sort"
)

// Build constructs a TaskGraph from a snapshot of tasks and dependencies.
// It never fails: malformed input is repaired or dropped and reported in the
// returned warnings, in input order.
func Build(tasks []Task, deps []Dependency) (*TaskGraph, []Warning) {
	g := &TaskGraph{
		Nodes: make(map[string]*Node, len(tasks)),
		Out:   make(map[string][]int),
		In:    make(map[string][]int),
	}
	var warnings []Warning

	// Index all tasks
	for _, t := range tasks {
		if _, dup := g.Nodes[t.ID]; dup {
			warnings = append(warnings, Warning{
				Kind:    WarnDuplicateTask,
				TaskID:  t.ID,
				Message: fmt.Sprintf("task %q appears more than once; keeping the first", t.ID),
			})
			continue
		}
		if !t.HasDates() {
			warnings = append(warnings, Warning{
				Kind:    WarnMissingDates,
				TaskID:  t.ID,
				Message: fmt.Sprintf("task %q has no start or end date; scheduled with length 1", t.ID),
			})
		}
		g.Nodes[t.ID] = &Node{
			Task:   t,
			Length: Length(t.Start, t.End),
			Index:  len(g.Order),
		}
		g.Order = append(g.Order, t.ID)
	}

	seenIDs := make(map[string]bool, len(deps))
	for _, d := range deps {
		key := d.Key()
		if seenIDs[key] {
			if d.ID != "" {
				warnings = append(warnings, Warning{
					Kind:         WarnDuplicateDepID,
					DependencyID: key,
					Message:      fmt.Sprintf("dependency id %q is used more than once; later uses are renamed", key),
				})
			}
			base := key
			for n := 2; seenIDs[key]; n++ {
				key = fmt.Sprintf("%s#%d", base, n)
			}
		}
		seenIDs[key] = true
		d.ID = key
		_, predOK := g.Nodes[d.PredecessorID]
		_, succOK := g.Nodes[d.SuccessorID]
		if !predOK || !succOK {
			missing := d.SuccessorID
			if !predOK {
				missing = d.PredecessorID
			}
			warnings = append(warnings, Warning{
				Kind:         WarnDanglingDependency,
				TaskID:       missing,
				DependencyID: d.ID,
				Message:      fmt.Sprintf("dependency %q references unknown task %q; dropped", d.ID, missing),
			})
			continue
		}
		if d.Relation == "" {
			d.Relation = FinishToStart
		}
		if !d.Relation.Valid() {
			warnings = append(warnings, Warning{
				Kind:         WarnUnknownRelation,
				DependencyID: d.ID,
				Message:      fmt.Sprintf("dependency %q has unknown relation %q; treated as %s", d.ID, d.Relation, FinishToStart),
			})
			d.Relation = FinishToStart
		}
		idx := len(g.Edges)
		g.Edges = append(g.Edges, d)
		g.Out[d.PredecessorID] = append(g.Out[d.PredecessorID], idx)
		g.In[d.SuccessorID] = append(g.In[d.SuccessorID], idx)
	}

	// Sort adjacency by the input position of the far endpoint for
	// deterministic traversal
	for id := range g.Out {
		g.sortEdges(g.Out[id], func(e Dependency) string { return e.SuccessorID })
	}
	for id := range g.In {
		g.sortEdges(g.In[id], func(e Dependency) string { return e.PredecessorID })
	}

	for _, id := range g.Order {
		if len(g.In[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Out[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	return g, warnings
}

func (g *TaskGraph) sortEdges(idx []int, far func(Dependency) string) {
	sort.SliceStable(idx, func(a, b int) bool {
		na := g.Nodes[far(g.Edges[idx[a]])].Index
		nb := g.Nodes[far(g.Edges[idx[b]])].Index
		if na != nb {
			return na < nb
		}
		return idx[a] < idx[b]
	})
}

// Predecessors returns the distinct IDs of tasks with an edge into id.
func (g *TaskGraph) Predecessors(id string) []string {
	return g.endpoints(g.In[id], func(e Dependency) string { return e.PredecessorID })
}

// Successors returns the distinct IDs of tasks id has an edge to.
func (g *TaskGraph) Successors(id string) []string {
	return g.endpoints(g.Out[id], func(e Dependency) string { return e.SuccessorID })
}

func (g *TaskGraph) endpoints(idx []int, far func(Dependency) string) []string {
	var ids []string
	seen := make(map[string]bool, len(idx))
	for _, i := range idx {
		id := far(g.Edges[i])
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
// The path starts and ends at the same task.
func (g *TaskGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Successors(node) {
			if color[next] == gray {
				// Walk parents back from node to next
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.Order {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Nodes)
}

// Filter returns a new TaskGraph containing only tasks matching the predicate.
// Every edge that links a kept task to a dropped one is reported with a
// filtered_dependency warning; its constraint no longer applies.
func (g *TaskGraph) Filter(pred func(*Node) bool) (*TaskGraph, []Warning) {
	var tasks []Task
	keep := make(map[string]bool)
	for _, id := range g.Order {
		n := g.Nodes[id]
		if pred(n) {
			tasks = append(tasks, n.Task)
			keep[id] = true
		}
	}
	var deps []Dependency
	var warnings []Warning
	for _, e := range g.Edges {
		switch {
		case keep[e.PredecessorID] && keep[e.SuccessorID]:
			deps = append(deps, e)
		case keep[e.PredecessorID] || keep[e.SuccessorID]:
			warnings = append(warnings, Warning{
				Kind:         WarnFilteredDependency,
				DependencyID: e.ID,
				Message:      fmt.Sprintf("dependency %q (%s -> %s) crosses the filter; its constraint is ignored", e.ID, e.PredecessorID, e.SuccessorID),
			})
		}
	}
	filtered, _ := Build(tasks, deps)
	return filtered, warnings
}
