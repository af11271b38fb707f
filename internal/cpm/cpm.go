package cpm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshharrison/ganttcpm/internal/graph"
)

// Schedule builds a graph from a snapshot and analyzes it. It never fails;
// malformed input shows up in the result's diagnostics.
func Schedule(tasks []graph.Task, deps []graph.Dependency, opts Options) Result {
	g, warnings := graph.Build(tasks, deps)
	return Analyze(g, warnings, opts)
}

// Analyze performs critical path method analysis on a task graph. warnings
// are carried into the result ahead of anything the analysis adds.
// If the graph has a cycle the result is *Degraded, otherwise *Scheduled.
func Analyze(g *graph.TaskGraph, warnings []graph.Warning, opts Options) Result {
	warnings = append([]graph.Warning(nil), warnings...)

	order, ok := TopoSort(g)
	if !ok {
		return classifyFallback(g, warnings)
	}

	schedules := make(map[string]*TaskSchedule, len(order))

	// Forward pass: compute ES and EF
	for _, id := range order {
		n := g.Nodes[id]
		start, finish := 0, 0
		hasFinish := false
		hasStart := false
		for _, ei := range g.In[id] {
			e := g.Edges[ei]
			pred := schedules[e.PredecessorID]
			rel := opts.relation(e)

			anchor := pred.EF
			if rel.FromStart() {
				anchor = pred.ES
			}
			cand := anchor + e.Lag

			if rel.ConstrainsStart() {
				if !hasStart || cand > start {
					start, hasStart = cand, true
				}
			} else if !hasFinish || cand > finish {
				finish, hasFinish = cand, true
			}
		}

		ef := start + n.Length
		if hasFinish && finish > ef {
			ef = finish
		}
		schedules[id] = &TaskSchedule{
			TaskID: id,
			Length: n.Length,
			ES:     ef - n.Length,
			EF:     ef,
		}
	}

	// Total project duration
	totalDuration := 0
	for _, ts := range schedules {
		if ts.EF > totalDuration {
			totalDuration = ts.EF
		}
	}

	// Backward pass: compute LS and LF in reverse topological order.
	// Every task is bounded by the project end; tasks with no successors
	// finish exactly there.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := schedules[id]

		lf := totalDuration
		for _, ei := range g.Out[id] {
			e := g.Edges[ei]
			succ := schedules[e.SuccessorID]
			rel := opts.relation(e)

			anchor := succ.LS
			if !rel.ConstrainsStart() {
				anchor = succ.LF
			}
			cand := anchor - e.Lag
			if rel.FromStart() {
				// bound is on this task's start
				cand += ts.Length
			}
			if cand < lf {
				lf = cand
			}
		}
		ts.LF = lf
		ts.LS = lf - ts.Length
		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
	}

	result := &Scheduled{
		ProjectDuration: totalDuration,
		TopoOrder:       order,
		Warnings:        warnings,
	}

	// Build critical path (critical tasks in topological order)
	for _, id := range order {
		if schedules[id].IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	for _, e := range g.Edges {
		if drivesSuccessor(e, schedules, opts) {
			result.CriticalDependencies = append(result.CriticalDependencies, e.ID)
		}
	}

	result.Waves = computeWaves(order, schedules)

	result.Tasks = make(map[string]TaskSchedule, len(schedules))
	for id, ts := range schedules {
		result.Tasks[id] = *ts
	}
	return result
}

func (o Options) relation(e graph.Dependency) graph.Relation {
	if o.FinishToStartOnly {
		return graph.FinishToStart
	}
	return e.Relation
}

// drivesSuccessor reports whether e lies on a longest path: both ends are
// critical and the edge's constraint is the one that fixed the successor's
// earliest time. Two critical tasks joined by a slack edge are not enough.
func drivesSuccessor(e graph.Dependency, schedules map[string]*TaskSchedule, opts Options) bool {
	pred, succ := schedules[e.PredecessorID], schedules[e.SuccessorID]
	if !pred.IsCritical || !succ.IsCritical {
		return false
	}
	rel := opts.relation(e)

	anchor := pred.EF
	if rel.FromStart() {
		anchor = pred.ES
	}
	target := succ.EF
	if rel.ConstrainsStart() {
		target = succ.ES
	}
	return anchor+e.Lag == target
}

// classifyFallback handles cyclic graphs. No times are computed; the
// critical set is whatever the caller flagged.
func classifyFallback(g *graph.TaskGraph, warnings []graph.Warning) *Degraded {
	cycle := g.DetectCycle()
	w := graph.Warning{
		Kind:    graph.WarnCyclicGraph,
		Message: fmt.Sprintf("dependency cycle detected: %s; falling back to externally marked critical tasks", strings.Join(cycle, " -> ")),
	}
	if len(cycle) > 0 {
		w.TaskID = cycle[0]
	}

	d := &Degraded{
		Cycle:    cycle,
		Warnings: append(warnings, w),
	}

	marked := make(map[string]bool)
	for _, id := range g.Order {
		if g.Nodes[id].MarkedCritical {
			marked[id] = true
			d.CriticalTasks = append(d.CriticalTasks, id)
		}
	}
	for _, e := range g.Edges {
		if marked[e.PredecessorID] && marked[e.SuccessorID] {
			d.CriticalDependencies = append(d.CriticalDependencies, e.ID)
		}
	}
	return d
}

// computeWaves groups tasks by their earliest start time.
func computeWaves(order []string, schedules map[string]*TaskSchedule) []Wave {
	// Group tasks by ES
	esGroups := make(map[int][]string)
	for _, id := range order {
		es := schedules[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	// Sort ES values
	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]

		hasCritical := false
		for _, id := range taskIDs {
			schedules[id].Wave = i
			if schedules[id].IsCritical {
				hasCritical = true
			}
		}

		// Sort critical tasks first within wave
		sort.SliceStable(taskIDs, func(a, b int) bool {
			return schedules[taskIDs[a]].IsCritical && !schedules[taskIDs[b]].IsCritical
		})

		waves[i] = Wave{
			Index:      i,
			Start:      es,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}

	return waves
}
