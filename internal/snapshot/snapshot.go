// Package snapshot loads task/dependency snapshots exported by the Gantt
// editor or its backing store.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshharrison/ganttcpm/internal/graph"
)

// Phase groups tasks for display. It carries no scheduling semantics.
type Phase struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	TaskIDs []string `json:"task_ids,omitempty" yaml:"-"`
}

// Snapshot is an immutable view of the editor state handed to the engine.
type Snapshot struct {
	Phases       []Phase
	Tasks        []graph.Task
	Dependencies []graph.Dependency
}

// Load reads a snapshot from path, choosing the decoder by file extension.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// AddDependency returns a copy of s with dep appended, provided the edge
// passes graph.Admit. s itself is never modified.
func AddDependency(s *Snapshot, dep graph.Dependency) (*Snapshot, error) {
	if err := graph.Admit(s.Dependencies, dep); err != nil {
		return nil, err
	}
	next := &Snapshot{
		Phases:       append([]Phase(nil), s.Phases...),
		Tasks:        append([]graph.Task(nil), s.Tasks...),
		Dependencies: make([]graph.Dependency, 0, len(s.Dependencies)+1),
	}
	next.Dependencies = append(next.Dependencies, s.Dependencies...)
	next.Dependencies = append(next.Dependencies, dep)
	return next, nil
}

// PhaseOf returns the display name of the phase a task belongs to.
func (s *Snapshot) PhaseOf(taskID string) string {
	for _, p := range s.Phases {
		for _, id := range p.TaskIDs {
			if id == taskID {
				if p.Name != "" {
					return p.Name
				}
				return p.ID
			}
		}
	}
	return ""
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty input
// means "no date".
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}
