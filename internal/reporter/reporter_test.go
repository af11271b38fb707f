package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/ganttcpm/internal/cpm"
	"github.com/joshharrison/ganttcpm/internal/graph"
)

func init() {
	color.NoColor = true
}

func dated(id, phase string, days int) graph.Task {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, days)
	return graph.Task{ID: id, Name: "Task " + strings.ToUpper(id), Phase: phase, Start: &start, End: &end}
}

func link(pred, succ string) graph.Dependency {
	return graph.Dependency{PredecessorID: pred, SuccessorID: succ, Relation: graph.FinishToStart}
}

// diamond: a(1) -> b(5) -> d(1), a -> c(1) -> d.
func makeDiamond(t *testing.T) *Reporter {
	t.Helper()
	tasks := []graph.Task{
		dated("a", "Design", 1),
		dated("b", "Build", 5),
		dated("c", "Build", 1),
		dated("d", "Ship", 1),
	}
	deps := []graph.Dependency{link("a", "b"), link("a", "c"), link("b", "d"), link("c", "d")}
	g, warnings := graph.Build(tasks, deps)
	return New(g, cpm.Analyze(g, warnings, cpm.Options{}))
}

func makeCycle(t *testing.T) *Reporter {
	t.Helper()
	tasks := []graph.Task{{ID: "a", MarkedCritical: true}, {ID: "b"}, {ID: "c", MarkedCritical: true}}
	deps := []graph.Dependency{link("a", "b"), link("b", "a"), link("a", "c")}
	g, warnings := graph.Build(tasks, deps)
	return New(g, cpm.Analyze(g, warnings, cpm.Options{}))
}

func TestPrintSchedule(t *testing.T) {
	rpt := makeDiamond(t)

	var buf bytes.Buffer
	rpt.PrintSchedule(&buf)
	out := buf.String()

	assert.Contains(t, out, "scheduled")
	assert.Contains(t, out, "7 days")
	assert.Contains(t, out, "4 tasks")
	assert.Contains(t, out, "WAVE 1")
	assert.Contains(t, out, "[Design]")
	assert.Contains(t, out, "Task B")
	assert.Contains(t, out, "a → b → d")
}

func TestPrintSchedule_Degraded(t *testing.T) {
	rpt := makeCycle(t)

	var buf bytes.Buffer
	rpt.PrintSchedule(&buf)
	out := buf.String()

	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "a → b → a")
	assert.Contains(t, out, "a, c")
	assert.NotContains(t, out, "ES ")
}

func TestPrintWarnings(t *testing.T) {
	g, warnings := graph.Build(
		[]graph.Task{{ID: "a"}},
		[]graph.Dependency{link("a", "ghost")},
	)
	rpt := New(g, cpm.Analyze(g, warnings, cpm.Options{}))

	var buf bytes.Buffer
	rpt.PrintWarnings(&buf)
	out := buf.String()

	assert.Contains(t, out, "2 warnings")
	assert.Contains(t, out, string(graph.WarnMissingDates))
	assert.Contains(t, out, string(graph.WarnDanglingDependency))
}

func TestPrintWarnings_None(t *testing.T) {
	rpt := makeDiamond(t)

	var buf bytes.Buffer
	rpt.PrintWarnings(&buf)
	assert.Empty(t, buf.String())
}

func TestJSON_Scheduled(t *testing.T) {
	data, err := makeDiamond(t).JSON()
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "scheduled", doc.Status)
	require.NotNil(t, doc.ProjectDuration)
	assert.Equal(t, 7, *doc.ProjectDuration)
	assert.Equal(t, []string{"a", "b", "d"}, doc.CriticalTaskIDs)
	assert.Equal(t, []string{"a->b", "b->d"}, doc.CriticalDependencyIDs)
	assert.Empty(t, doc.Cycle)

	require.Len(t, doc.Tasks, 4)
	c := doc.Tasks[2]
	assert.Equal(t, "c", c.ID)
	require.NotNil(t, c.Slack)
	assert.Equal(t, 4, *c.Slack)
	assert.False(t, c.IsCritical)
}

func TestJSON_Degraded(t *testing.T) {
	data, err := makeCycle(t).JSON()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "degraded", raw["status"])
	_, hasDuration := raw["project_duration"]
	assert.False(t, hasDuration, "degraded results must not carry a project duration")

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"a", "c"}, doc.CriticalTaskIDs)
	assert.Equal(t, []string{"a->c"}, doc.CriticalDependencyIDs)
	assert.Equal(t, []string{"a", "b", "a"}, doc.Cycle)
	for _, td := range doc.Tasks {
		assert.Nil(t, td.ES, "task %s", td.ID)
		assert.Nil(t, td.Slack, "task %s", td.ID)
	}
}

func TestJSON_EmptyListsAreArrays(t *testing.T) {
	g, warnings := graph.Build(nil, nil)
	data, err := New(g, cpm.Analyze(g, warnings, cpm.Options{})).JSON()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"tasks": []`)
	assert.Contains(t, s, `"critical_task_ids": []`)
	assert.Contains(t, s, `"warnings": []`)
}

func TestPrintDOT(t *testing.T) {
	var buf bytes.Buffer
	makeDiamond(t).PrintDOT(&buf)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph schedule {"))
	assert.Contains(t, out, `"a" -> "b" [label="FS", color=red, penwidth=2];`)
	assert.Contains(t, out, `"a" -> "c" [label="FS"];`)
	assert.Contains(t, out, `"b" [label="b\nTask B (5d)", style="rounded,bold", color=red];`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestPrintASCII(t *testing.T) {
	var buf bytes.Buffer
	makeDiamond(t).PrintASCII(&buf)
	out := buf.String()

	assert.Contains(t, out, "Task Dependency Graph")
	assert.Contains(t, out, "Wave 1")
	assert.Contains(t, out, "└══→ b FS")
	assert.Contains(t, out, "└──→ c FS")
}

func TestEdgeLabel(t *testing.T) {
	tests := []struct {
		dep  graph.Dependency
		want string
	}{
		{graph.Dependency{Relation: graph.FinishToStart}, "FS"},
		{graph.Dependency{Relation: graph.StartToStart, Lag: 2}, "SS+2"},
		{graph.Dependency{Relation: graph.FinishToFinish, Lag: -1}, "FF-1"},
		{graph.Dependency{Relation: graph.StartToFinish}, "SF"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, edgeLabel(tt.dep))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{strings.Repeat("x", 32), strings.Repeat("x", 32)},
		{strings.Repeat("x", 40), strings.Repeat("x", 29) + "..."},
		{strings.Repeat("é", 40), strings.Repeat("é", 29) + "..."},
		{strings.Repeat("日本", 20), strings.Repeat("日本", 14) + "日..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, 32)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got))
	}
}
