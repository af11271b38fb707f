package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/ganttcpm/internal/cpm"
	"github.com/joshharrison/ganttcpm/internal/graph"
	"github.com/joshharrison/ganttcpm/internal/ui"
)

// Reporter renders a scheduling result for terminals and machines.
type Reporter struct {
	Graph  *graph.TaskGraph
	Result cpm.Result
}

// New creates a new Reporter.
func New(g *graph.TaskGraph, result cpm.Result) *Reporter {
	return &Reporter{Graph: g, Result: result}
}

// TaskDoc is the per-task view handed to the rendering layer. Time fields
// are absent when the result is degraded.
type TaskDoc struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Phase      string `json:"phase,omitempty"`
	Length     int    `json:"length"`
	HasDates   bool   `json:"has_dates"`
	ES         *int   `json:"earliest_start,omitempty"`
	EF         *int   `json:"earliest_finish,omitempty"`
	LS         *int   `json:"latest_start,omitempty"`
	LF         *int   `json:"latest_finish,omitempty"`
	Slack      *int   `json:"slack,omitempty"`
	Wave       *int   `json:"wave,omitempty"`
	IsCritical bool   `json:"is_critical"`
}

// Document is the JSON form of a result. Status is "scheduled" or
// "degraded"; ProjectDuration is only present for scheduled results.
type Document struct {
	Status                string          `json:"status"`
	ProjectDuration       *int            `json:"project_duration,omitempty"`
	Tasks                 []TaskDoc       `json:"tasks"`
	CriticalTaskIDs       []string        `json:"critical_task_ids"`
	CriticalDependencyIDs []string        `json:"critical_dependency_ids"`
	Cycle                 []string        `json:"cycle,omitempty"`
	Warnings              []graph.Warning `json:"warnings"`
}

// Document builds the machine-readable view, tasks in input order.
func (r *Reporter) Document() Document {
	doc := Document{
		Status:                "scheduled",
		Tasks:                 []TaskDoc{},
		CriticalTaskIDs:       nonNil(r.Result.CriticalTaskIDs()),
		CriticalDependencyIDs: nonNil(r.Result.CriticalDependencyIDs()),
		Warnings:              r.Result.Diagnostics(),
	}
	if doc.Warnings == nil {
		doc.Warnings = []graph.Warning{}
	}

	critical := make(map[string]bool)
	for _, id := range doc.CriticalTaskIDs {
		critical[id] = true
	}

	var scheduled *cpm.Scheduled
	switch res := r.Result.(type) {
	case *cpm.Scheduled:
		scheduled = res
		d := res.ProjectDuration
		doc.ProjectDuration = &d
	case *cpm.Degraded:
		doc.Status = "degraded"
		doc.Cycle = res.Cycle
	}

	for _, id := range r.Graph.Order {
		n := r.Graph.Nodes[id]
		td := TaskDoc{
			ID:         id,
			Name:       n.Name,
			Phase:      n.Phase,
			Length:     n.Length,
			HasDates:   n.HasDates(),
			IsCritical: critical[id],
		}
		if scheduled != nil {
			ts := scheduled.Tasks[id]
			td.ES, td.EF, td.LS, td.LF = intPtr(ts.ES), intPtr(ts.EF), intPtr(ts.LS), intPtr(ts.LF)
			td.Slack, td.Wave = intPtr(ts.Slack), intPtr(ts.Wave)
		}
		doc.Tasks = append(doc.Tasks, td)
	}
	return doc
}

// JSON returns the indented machine-readable result.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Document(), "", "  ")
}

// PrintSchedule writes a terminal-friendly schedule table.
func (r *Reporter) PrintSchedule(w io.Writer) {
	switch res := r.Result.(type) {
	case *cpm.Scheduled:
		fmt.Fprintf(w, "%s %s · %s days, %d tasks, %d critical\n\n",
			ui.BoldCyan("📅 Schedule"), ui.ModeBadge(false),
			ui.Bold(res.ProjectDuration), r.Graph.TaskCount(), len(res.CriticalPath))

		for _, wave := range res.Waves {
			fmt.Fprintf(w, "  🌊 %s %d %s\n", ui.BoldWhite("WAVE"), wave.Index+1, ui.Dim(fmt.Sprintf("(day %d)", wave.Start)))
			for _, id := range wave.TaskIDs {
				r.printTask(w, res.Tasks[id])
			}
			fmt.Fprintln(w)
		}

		if len(res.CriticalPath) > 0 {
			fmt.Fprintf(w, "Critical:  %s\n", ui.BoldYellow("⚡ "+strings.Join(res.CriticalPath, " → ")))
		}

	case *cpm.Degraded:
		fmt.Fprintf(w, "%s %s · dependency cycle, times not computed\n",
			ui.BoldCyan("📅 Schedule"), ui.ModeBadge(true))
		fmt.Fprintf(w, "Cycle:     %s\n", ui.BoldRed(strings.Join(res.Cycle, " → ")))
		if len(res.CriticalTasks) > 0 {
			fmt.Fprintf(w, "Flagged:   %s\n", ui.BoldYellow("⚡ "+strings.Join(res.CriticalTasks, ", ")))
		} else {
			fmt.Fprintf(w, "Flagged:   %s\n", ui.Dim("none"))
		}
	}
}

func (r *Reporter) printTask(w io.Writer, ts cpm.TaskSchedule) {
	n := r.Graph.Nodes[ts.TaskID]

	name := truncate(n.Name, 32)
	dates := ""
	if !n.HasDates() {
		dates = ui.Dim("(no dates)")
	}

	fmt.Fprintf(w, "    %s %s %s %-32s ES %3d  EF %3d  LS %3d  LF %3d  slack %s %s\n",
		ui.CriticalMarker(ts.IsCritical), ui.BoldMagenta(ts.TaskID), ui.PhaseLabel(n.Phase), name,
		ts.ES, ts.EF, ts.LS, ts.LF, ui.SlackLabel(ts.Slack), dates)
}

// PrintWarnings lists diagnostics, one per line. Nothing is written when
// there are none.
func (r *Reporter) PrintWarnings(w io.Writer) {
	warnings := r.Result.Diagnostics()
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", ui.WarningIcon(), ui.Yellow(fmt.Sprintf("%d warnings", len(warnings))))
	for _, warn := range warnings {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim(string(warn.Kind)), warn.Message)
	}
}

// PrintASCII writes the dependency graph grouped by wave, or in input order
// when the result is degraded.
func (r *Reporter) PrintASCII(w io.Writer) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Task Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════"))
	fmt.Fprintln(w)

	critical := r.criticalEdges()
	printNode := func(id string, isCritical bool) {
		fmt.Fprintf(w, "  %s [%s] %s\n", ui.CriticalMarker(isCritical), ui.BoldMagenta(id), r.Graph.Nodes[id].Name)
		for _, ei := range r.Graph.Out[id] {
			e := r.Graph.Edges[ei]
			arrow := ui.Dim("└──→")
			if critical[e.ID] {
				arrow = ui.Red("└══→")
			}
			fmt.Fprintf(w, "      %s %s %s\n", arrow, e.SuccessorID, ui.Dim(edgeLabel(e)))
		}
	}

	switch res := r.Result.(type) {
	case *cpm.Scheduled:
		for _, wave := range res.Waves {
			fmt.Fprintf(w, "%s 🌊 Wave %d %s\n", ui.Cyan("──"), wave.Index+1, ui.Cyan("──────────────────────────────"))
			for _, id := range wave.TaskIDs {
				printNode(id, res.Tasks[id].IsCritical)
			}
			fmt.Fprintln(w)
		}
	default:
		flagged := make(map[string]bool)
		for _, id := range res.CriticalTaskIDs() {
			flagged[id] = true
		}
		for _, id := range r.Graph.Order {
			printNode(id, flagged[id])
		}
	}
}

// PrintDOT writes the graph in Graphviz format with the critical path in red.
func (r *Reporter) PrintDOT(w io.Writer) {
	fmt.Fprintln(w, "digraph schedule {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	criticalTasks := make(map[string]bool)
	for _, id := range r.Result.CriticalTaskIDs() {
		criticalTasks[id] = true
	}
	for _, id := range r.Graph.Order {
		n := r.Graph.Nodes[id]
		label := fmt.Sprintf("%s\\n%s (%dd)", id, n.Name, n.Length)
		attrs := fmt.Sprintf(`label="%s"`, label)
		if criticalTasks[id] {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, attrs)
	}

	fmt.Fprintln(w)

	critical := r.criticalEdges()
	for _, e := range r.Graph.Edges {
		attrs := fmt.Sprintf(`label=%q`, edgeLabel(e))
		if critical[e.ID] {
			attrs += `, color=red, penwidth=2`
		}
		fmt.Fprintf(w, "  %q -> %q [%s];\n", e.PredecessorID, e.SuccessorID, attrs)
	}

	fmt.Fprintln(w, "}")
}

func (r *Reporter) criticalEdges() map[string]bool {
	m := make(map[string]bool)
	for _, id := range r.Result.CriticalDependencyIDs() {
		m[id] = true
	}
	return m
}

var relationAbbrev = map[graph.Relation]string{
	graph.FinishToStart:  "FS",
	graph.StartToStart:   "SS",
	graph.FinishToFinish: "FF",
	graph.StartToFinish:  "SF",
}

// edgeLabel renders a dependency as e.g. "FS", "SS+2" or "FF-1".
func edgeLabel(e graph.Dependency) string {
	label := relationAbbrev[e.Relation]
	if e.Lag != 0 {
		label += fmt.Sprintf("%+d", e.Lag)
	}
	return label
}

// truncate shortens s to at most limit runes, ending in "..." when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func intPtr(v int) *int { return &v }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
