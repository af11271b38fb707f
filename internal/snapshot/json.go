package snapshot

import (
	"fmt"

	"github.com/joshharrison/ganttcpm/internal/graph"
	"github.com/tidwall/gjson"
)

// Field aliases accepted from the editor and from raw store exports.
var (
	taskStartKeys    = []string{"start_date", "startDate", "start"}
	taskEndKeys      = []string{"end_date", "endDate", "end"}
	taskCriticalKeys = []string{"externally_marked_critical", "is_critical", "isCritical", "critical"}
	taskPhaseKeys    = []string{"phase", "phase_id", "phaseId"}
	depPredKeys      = []string{"predecessor_id", "predecessorId", "from"}
	depSuccKeys      = []string{"successor_id", "successorId", "to"}
	depRelationKeys  = []string{"relation", "dependency_type", "type"}
	depLagKeys       = []string{"lag", "lag_days", "lagDays"}
)

// ParseJSON decodes a snapshot. Tasks may appear at the top level, nested
// under phases[].tasks, or both.
func ParseJSON(data []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse snapshot: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	s := &Snapshot{}
	phaseIdx := make(map[string]int)

	var err error
	root.Get("phases").ForEach(func(_, p gjson.Result) bool {
		phase := Phase{
			ID:   field(p, "id").String(),
			Name: field(p, "name", "title").String(),
		}
		p.Get("tasks").ForEach(func(_, item gjson.Result) bool {
			var t graph.Task
			if t, err = jsonTask(item, len(s.Tasks)); err != nil {
				return false
			}
			if t.Phase == "" {
				t.Phase = phase.ID
			}
			phase.TaskIDs = append(phase.TaskIDs, t.ID)
			s.Tasks = append(s.Tasks, t)
			return true
		})
		if err != nil {
			return false
		}
		phaseIdx[phase.ID] = len(s.Phases)
		s.Phases = append(s.Phases, phase)
		return true
	})
	if err != nil {
		return nil, err
	}

	root.Get("tasks").ForEach(func(_, item gjson.Result) bool {
		var t graph.Task
		if t, err = jsonTask(item, len(s.Tasks)); err != nil {
			return false
		}
		if i, ok := phaseIdx[t.Phase]; ok {
			s.Phases[i].TaskIDs = append(s.Phases[i].TaskIDs, t.ID)
		}
		s.Tasks = append(s.Tasks, t)
		return true
	})
	if err != nil {
		return nil, err
	}

	deps := root.Get("dependencies")
	if !deps.Exists() {
		deps = root.Get("task_dependencies")
	}
	deps.ForEach(func(_, item gjson.Result) bool {
		s.Dependencies = append(s.Dependencies, graph.Dependency{
			ID:            field(item, "id").String(),
			PredecessorID: field(item, depPredKeys...).String(),
			SuccessorID:   field(item, depSuccKeys...).String(),
			Relation:      graph.ParseRelation(field(item, depRelationKeys...).String()),
			Lag:           int(field(item, depLagKeys...).Int()),
		})
		return true
	})

	return s, nil
}

func jsonTask(item gjson.Result, index int) (graph.Task, error) {
	id := field(item, "id").String()
	if id == "" {
		return graph.Task{}, fmt.Errorf("parse snapshot: task %d has no id", index)
	}
	start, err := parseDate(field(item, taskStartKeys...).String())
	if err != nil {
		return graph.Task{}, fmt.Errorf("parse snapshot: task %s start: %w", id, err)
	}
	end, err := parseDate(field(item, taskEndKeys...).String())
	if err != nil {
		return graph.Task{}, fmt.Errorf("parse snapshot: task %s end: %w", id, err)
	}
	return graph.Task{
		ID:             id,
		Name:           field(item, "name", "title").String(),
		Phase:          field(item, taskPhaseKeys...).String(),
		Start:          start,
		End:            end,
		MarkedCritical: field(item, taskCriticalKeys...).Bool(),
	}, nil
}

// field returns the first non-null value among keys.
func field(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		v := r.Get(k)
		if v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}
