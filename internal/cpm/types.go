package cpm

import "github.com/joshharrison/ganttcpm/internal/graph"

// Result is the outcome of one scheduling run. It is either *Scheduled or
// *Degraded; callers type-switch to reach the variant-specific fields, so a
// project duration can only be read from a graph that was actually scheduled.
type Result interface {
	// IsDegraded reports whether a cycle forced the fallback classifier.
	IsDegraded() bool
	// CriticalTaskIDs returns the critical tasks in a stable order.
	CriticalTaskIDs() []string
	// CriticalDependencyIDs returns the critical dependency keys in a stable order.
	CriticalDependencyIDs() []string
	// Diagnostics returns every anomaly recorded during the run.
	Diagnostics() []graph.Warning

	sealed()
}

// Scheduled holds the complete critical path analysis of an acyclic graph.
type Scheduled struct {
	ProjectDuration      int
	Tasks                map[string]TaskSchedule
	CriticalPath         []string // critical task IDs in topological order
	CriticalDependencies []string
	TopoOrder            []string
	Waves                []Wave // tasks grouped by earliest start
	Warnings             []graph.Warning
}

// Degraded is produced when the dependency graph contains a cycle. Only the
// externally supplied critical flags are trusted; no times are computed.
type Degraded struct {
	CriticalTasks        []string
	CriticalDependencies []string
	Cycle                []string // one offending cycle, first task repeated at the end
	Warnings             []graph.Warning
}

// TaskSchedule holds the scheduling info for a single task.
type TaskSchedule struct {
	TaskID     string
	Length     int
	ES, EF     int // earliest start/finish
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
	Wave       int // which parallel wave this belongs to
}

// Wave represents a group of tasks sharing an earliest start.
type Wave struct {
	Index      int
	Start      int
	TaskIDs    []string
	IsCritical bool // true if wave contains critical path tasks
}

// Options tunes the engine.
type Options struct {
	// FinishToStartOnly schedules every relation with finish-to-start
	// arithmetic, keeping the declared lag.
	FinishToStartOnly bool
}

func (s *Scheduled) IsDegraded() bool                { return false }
func (s *Scheduled) CriticalTaskIDs() []string       { return s.CriticalPath }
func (s *Scheduled) CriticalDependencyIDs() []string { return s.CriticalDependencies }
func (s *Scheduled) Diagnostics() []graph.Warning    { return s.Warnings }
func (s *Scheduled) sealed()                         {}

func (d *Degraded) IsDegraded() bool                { return true }
func (d *Degraded) CriticalTaskIDs() []string       { return d.CriticalTasks }
func (d *Degraded) CriticalDependencyIDs() []string { return d.CriticalDependencies }
func (d *Degraded) Diagnostics() []graph.Warning    { return d.Warnings }
func (d *Degraded) sealed()                         {}

// IsCritical reports whether id is on the critical path.
func (s *Scheduled) IsCritical(id string) bool {
	ts, ok := s.Tasks[id]
	return ok && ts.IsCritical
}
