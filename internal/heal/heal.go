// Package heal proposes task reassignments when a flagged task is
// unlikely to meet its deadline under its current assignee. It only
// suggests and applies in-memory snapshots; persistence belongs to the
// caller's sink.
package heal

import (
	"fmt"
	"sort"
	"time"

	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// Load summarizes one assignee's active workload.
type Load struct {
	Assignee      string  `json:"assignee"`
	TaskCount     int     `json:"task_count"`
	AvgCompletion float64 `json:"avg_completion"`
	Module        string  `json:"module"`
}

// Policy is the eligibility threshold for reassignment.
type Policy struct {
	// MaxDaysToDeadline: a task qualifies only when its deadline is at
	// most this many days away (or already past).
	MaxDaysToDeadline int
	// MaxCompletion: a task qualifies only below this completion
	// percent. Strict less-than.
	MaxCompletion int
}

// DefaultPolicy returns the reference thresholds.
func DefaultPolicy() Policy {
	return Policy{MaxDaysToDeadline: 3, MaxCompletion: 20}
}

// Suggestion is a proposed reassignment.
type Suggestion struct {
	TaskID       int     `json:"task_id"`
	FromAssignee string  `json:"from_assignee"`
	ToAssignee   string  `json:"to_assignee"`
	Reason       string  `json:"reason"`
	Confidence   float64 `json:"confidence"`
}

// Workload aggregates active load per assignee over tasks below 100%
// completion. The module recorded is the first one seen for that
// assignee in source order.
func Workload(tasks []task.Task) map[string]Load {
	counts := make(map[string]int)
	sums := make(map[string]int)
	modules := make(map[string]string)

	for _, t := range tasks {
		if t.Completed() {
			continue
		}
		assignee := t.Assignee
		if assignee == "" {
			assignee = "Unassigned"
		}
		counts[assignee]++
		sums[assignee] += t.CompletionPercent
		if _, seen := modules[assignee]; !seen {
			modules[assignee] = t.Module
		}
	}

	out := make(map[string]Load, len(counts))
	for assignee, n := range counts {
		out[assignee] = Load{
			Assignee:      assignee,
			TaskCount:     n,
			AvgCompletion: float64(sums[assignee]) / float64(n),
			Module:        modules[assignee],
		}
	}
	return out
}

// Suggest proposes a replacement assignee for t, or nil when the task
// does not meet the policy threshold or no candidate exists. Candidates
// are assignees in the same module excluding the current one; the
// assignee with the fewest active tasks wins, ties broken by
// lexicographically smallest name so the choice is deterministic.
func Suggest(t task.Task, workload map[string]Load, policy Policy, now time.Time) *Suggestion {
	days, hasDeadline := t.DaysUntilDeadline(now)
	if !hasDeadline || t.Completed() {
		return nil
	}
	if days > policy.MaxDaysToDeadline || t.CompletionPercent >= policy.MaxCompletion {
		return nil
	}

	current := t.Assignee
	if current == "" {
		current = "Unassigned"
	}

	candidates := make([]Load, 0, len(workload))
	for _, load := range workload {
		if load.Assignee == current || load.Assignee == "Unassigned" {
			continue
		}
		if load.Module != t.Module {
			continue
		}
		candidates = append(candidates, load)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TaskCount != candidates[j].TaskCount {
			return candidates[i].TaskCount < candidates[j].TaskCount
		}
		return candidates[i].Assignee < candidates[j].Assignee
	})
	best := candidates[0]

	return &Suggestion{
		TaskID:       t.ID,
		FromAssignee: current,
		ToAssignee:   best.Assignee,
		Reason: fmt.Sprintf("Due in %d day(s) at %d%% completion; %s has %d active task(s) in module %q",
			days, t.CompletionPercent, best.Assignee, best.TaskCount, t.Module),
		Confidence: 0.75,
	}
}

// Apply returns a copy of t with the suggestion applied: the assignee
// swapped and a status annotation appended. The input task is not
// mutated and nothing is persisted here.
func Apply(t task.Task, s *Suggestion) task.Task {
	t.Assignee = s.ToAssignee
	annotation := fmt.Sprintf("Reallocated from %s to %s", s.FromAssignee, s.ToAssignee)
	if t.Status == "" {
		t.Status = annotation
	} else {
		t.Status = t.Status + "; " + annotation
	}
	return t
}
