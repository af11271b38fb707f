package graph

import (
	"errors"
	"fmt"
)

var (
	ErrSelfDependency      = errors.New("task cannot depend on itself")
	ErrDuplicateDependency = errors.New("dependency already exists")
	ErrWouldCreateCycle    = errors.New("dependency would create a cycle")
)

// WouldCreateCycle reports whether adding the edge pred -> succ to existing
// would close a cycle, i.e. whether pred is reachable from succ once the edge
// is in place. existing is not modified.
func WouldCreateCycle(existing []Dependency, pred, succ string) bool {
	adj := make(map[string][]string, len(existing)+1)
	for _, d := range existing {
		adj[d.PredecessorID] = append(adj[d.PredecessorID], d.SuccessorID)
	}
	adj[pred] = append(adj[pred], succ)

	visited := map[string]bool{succ: true}
	stack := []string{succ}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == pred {
			return true
		}
		for _, next := range adj[node] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// Admit checks whether candidate may be added to existing. It returns nil
// when the edge is acceptable, or an error wrapping one of
// ErrSelfDependency, ErrDuplicateDependency or ErrWouldCreateCycle.
func Admit(existing []Dependency, candidate Dependency) error {
	pred, succ := candidate.PredecessorID, candidate.SuccessorID
	if pred == succ {
		return fmt.Errorf("%s: %w", pred, ErrSelfDependency)
	}
	rel := normalized(candidate.Relation)
	for _, d := range existing {
		if d.PredecessorID == pred && d.SuccessorID == succ && normalized(d.Relation) == rel {
			return fmt.Errorf("%s -> %s (%s): %w", pred, succ, rel, ErrDuplicateDependency)
		}
	}
	if WouldCreateCycle(existing, pred, succ) {
		return fmt.Errorf("%s -> %s: %w", pred, succ, ErrWouldCreateCycle)
	}
	return nil
}

func normalized(r Relation) Relation {
	if !r.Valid() {
		return FinishToStart
	}
	return r
}
