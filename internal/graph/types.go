package graph

import (
	"strings"
	"time"
)

// Relation is the precedence type of a dependency edge.
type Relation string

const (
	FinishToStart  Relation = "finish_to_start"
	StartToStart   Relation = "start_to_start"
	FinishToFinish Relation = "finish_to_finish"
	StartToFinish  Relation = "start_to_finish"
)

// Valid reports whether r is one of the four known relation kinds.
func (r Relation) Valid() bool {
	switch r {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	}
	return false
}

// ConstrainsStart reports whether the relation bounds the successor's start
// (as opposed to its finish).
func (r Relation) ConstrainsStart() bool {
	return r == FinishToStart || r == StartToStart
}

// FromStart reports whether the relation is measured from the predecessor's
// start (as opposed to its finish).
func (r Relation) FromStart() bool {
	return r == StartToStart || r == StartToFinish
}

// ParseRelation maps the spellings the editor and importers use onto a
// Relation. Unknown values are returned as-is so Build can flag them.
func ParseRelation(s string) Relation {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "", "fs", "finish_to_start", "finishtostart":
		return FinishToStart
	case "ss", "start_to_start", "starttostart":
		return StartToStart
	case "ff", "finish_to_finish", "finishtofinish":
		return FinishToFinish
	case "sf", "start_to_finish", "starttofinish":
		return StartToFinish
	}
	return Relation(s)
}

// Task is a schedulable unit of work as supplied by the editor.
type Task struct {
	ID             string     `json:"id" yaml:"id"`
	Name           string     `json:"name,omitempty" yaml:"name,omitempty"`
	Phase          string     `json:"phase,omitempty" yaml:"phase,omitempty"`
	Start          *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	End            *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	MarkedCritical bool       `json:"externally_marked_critical,omitempty" yaml:"externally_marked_critical,omitempty"`
}

// HasDates reports whether both endpoints are known.
func (t Task) HasDates() bool {
	return t.Start != nil && t.End != nil
}

// Dependency is a directed precedence edge between two tasks.
type Dependency struct {
	ID            string   `json:"id,omitempty" yaml:"id,omitempty"`
	PredecessorID string   `json:"predecessor_id" yaml:"predecessor_id"`
	SuccessorID   string   `json:"successor_id" yaml:"successor_id"`
	Relation      Relation `json:"relation" yaml:"relation"`
	Lag           int      `json:"lag" yaml:"lag"` // days, negative means overlap
}

// Key returns the dependency ID, or "pred->succ" when none was supplied.
// Build makes keys unique within a graph.
func (d Dependency) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.PredecessorID + "->" + d.SuccessorID
}

// Node is a task annotated with its scheduling length.
type Node struct {
	Task
	Length int // days, always >= 1
	Index  int // position in the input task list
}

// TaskGraph is the dependency graph of one snapshot. Edges holds only the
// dependencies that survived validation; Out and In index into it.
type TaskGraph struct {
	Nodes  map[string]*Node
	Order  []string         // task IDs in input order
	Edges  []Dependency     // valid edges, relation normalized
	Out    map[string][]int // task -> indices of edges leaving it
	In     map[string][]int // task -> indices of edges entering it
	Roots  []string         // tasks with no predecessors
	Leaves []string         // tasks with no successors
}

// WarningKind classifies a non-fatal scheduling anomaly.
type WarningKind string

const (
	WarnMissingDates       WarningKind = "missing_dates"
	WarnDanglingDependency WarningKind = "dangling_dependency"
	WarnUnknownRelation    WarningKind = "unknown_relation"
	WarnDuplicateTask      WarningKind = "duplicate_task"
	WarnDuplicateDepID     WarningKind = "duplicate_dependency_id"
	WarnFilteredDependency WarningKind = "filtered_dependency"
	WarnCyclicGraph        WarningKind = "cyclic_graph"
)

// Warning is an anomaly recorded while building or scheduling a graph.
type Warning struct {
	Kind         WarningKind `json:"kind"`
	TaskID       string      `json:"task_id,omitempty"`
	DependencyID string      `json:"dependency_id,omitempty"`
	Message      string      `json:"message"`
}

func (w Warning) String() string {
	return string(w.Kind) + ": " + w.Message
}
