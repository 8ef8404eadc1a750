package depgraph

import "github.com/theadarsh-ai/WBSMonitor/internal/task"

// TaskSchedule holds the duration-weighted scheduling window for one task.
type TaskSchedule struct {
	TaskID     int
	ES, EF     int // earliest start/finish (days from cycle start)
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
}

// ScheduleResult is the outcome of a forward/backward pass over the graph.
type ScheduleResult struct {
	Tasks         map[int]*TaskSchedule
	TotalDuration int   // minimum project duration in days
	Critical      []int // zero-slack tasks in topological order
}

// Schedule runs a duration-weighted forward/backward pass over the
// graph using each task's duration in days (minimum 1). Unlike
// CriticalPath, which counts nodes, this weights chains by declared
// durations and exposes per-task slack. Returns nil when the graph has
// a cycle.
func Schedule(g *Graph, tasks []task.Task) *ScheduleResult {
	order, ok := g.topoSort()
	if !ok {
		return nil
	}

	durations := make(map[int]int, len(order))
	for _, t := range tasks {
		if t.DurationDays > 0 {
			durations[t.ID] = t.DurationDays
		} else {
			durations[t.ID] = 1
		}
	}
	for _, id := range order {
		if durations[id] == 0 {
			durations[id] = 1
		}
	}

	result := &ScheduleResult{Tasks: make(map[int]*TaskSchedule, len(order))}
	for _, id := range order {
		result.Tasks[id] = &TaskSchedule{TaskID: id}
	}

	// Forward pass: ES = max(EF of predecessors)
	for _, id := range order {
		ts := result.Tasks[id]
		es := 0
		for _, pred := range g.RevAdj[id] {
			if predTS := result.Tasks[pred]; predTS.EF > es {
				es = predTS.EF
			}
		}
		ts.ES = es
		ts.EF = es + durations[id]
	}

	for _, ts := range result.Tasks {
		if ts.EF > result.TotalDuration {
			result.TotalDuration = ts.EF
		}
	}

	// Backward pass in reverse topological order: LF = min(LS of successors)
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Tasks[id]

		if len(g.Adj[id]) == 0 {
			ts.LF = result.TotalDuration
		} else {
			minLS := result.TotalDuration
			for _, succ := range g.Adj[id] {
				if succTS := result.Tasks[succ]; succTS.LS < minLS {
					minLS = succTS.LS
				}
			}
			ts.LF = minLS
		}
		ts.LS = ts.LF - durations[id]

		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
	}

	for _, id := range order {
		if result.Tasks[id].IsCritical {
			result.Critical = append(result.Critical, id)
		}
	}

	return result
}
