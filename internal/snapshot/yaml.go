package snapshot

import (
	"fmt"

	"github.com/joshharrison/ganttcpm/internal/graph"
	"gopkg.in/yaml.v3"
)

type yamlTask struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Phase     string `yaml:"phase"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Critical  bool   `yaml:"externally_marked_critical"`
}

type yamlPhase struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Tasks []yamlTask `yaml:"tasks"`
}

type yamlDependency struct {
	ID            string `yaml:"id"`
	PredecessorID string `yaml:"predecessor_id"`
	SuccessorID   string `yaml:"successor_id"`
	Relation      string `yaml:"relation"`
	Lag           int    `yaml:"lag"`
}

type yamlSnapshot struct {
	Phases       []yamlPhase      `yaml:"phases"`
	Tasks        []yamlTask       `yaml:"tasks"`
	Dependencies []yamlDependency `yaml:"dependencies"`
}

// ParseYAML decodes a snapshot written in YAML. The layout mirrors the JSON
// form but only canonical field names are accepted.
func ParseYAML(data []byte) (*Snapshot, error) {
	var raw yamlSnapshot
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	s := &Snapshot{}
	phaseIdx := make(map[string]int)
	for _, p := range raw.Phases {
		phase := Phase{ID: p.ID, Name: p.Name}
		for _, yt := range p.Tasks {
			if yt.Phase == "" {
				yt.Phase = p.ID
			}
			t, err := yt.toTask(len(s.Tasks))
			if err != nil {
				return nil, err
			}
			phase.TaskIDs = append(phase.TaskIDs, t.ID)
			s.Tasks = append(s.Tasks, t)
		}
		phaseIdx[phase.ID] = len(s.Phases)
		s.Phases = append(s.Phases, phase)
	}
	for _, yt := range raw.Tasks {
		t, err := yt.toTask(len(s.Tasks))
		if err != nil {
			return nil, err
		}
		if i, ok := phaseIdx[t.Phase]; ok {
			s.Phases[i].TaskIDs = append(s.Phases[i].TaskIDs, t.ID)
		}
		s.Tasks = append(s.Tasks, t)
	}
	for _, d := range raw.Dependencies {
		s.Dependencies = append(s.Dependencies, graph.Dependency{
			ID:            d.ID,
			PredecessorID: d.PredecessorID,
			SuccessorID:   d.SuccessorID,
			Relation:      graph.ParseRelation(d.Relation),
			Lag:           d.Lag,
		})
	}
	return s, nil
}

func (yt yamlTask) toTask(index int) (graph.Task, error) {
	if yt.ID == "" {
		return graph.Task{}, fmt.Errorf("parse snapshot: task %d has no id", index)
	}
	start, err := parseDate(yt.StartDate)
	if err != nil {
		return graph.Task{}, fmt.Errorf("parse snapshot: task %s start: %w", yt.ID, err)
	}
	end, err := parseDate(yt.EndDate)
	if err != nil {
		return graph.Task{}, fmt.Errorf("parse snapshot: task %s end: %w", yt.ID, err)
	}
	return graph.Task{
		ID:             yt.ID,
		Name:           yt.Name,
		Phase:          yt.Phase,
		Start:          start,
		End:            end,
		MarkedCritical: yt.Critical,
	}, nil
}
