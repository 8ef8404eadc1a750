package risk

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// Fixed clock: mid-month so both imminent and far deadlines fit inside
// the current calendar month.
var testNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newTestClassifier(oracle Oracle) *Classifier {
	return New(DefaultConfig(), oracle, fixedNow)
}

func taskDue(end time.Time, completion int) task.Task {
	return task.Task{ID: 1, Name: "T", EndDate: &end, CompletionPercent: completion}
}

func TestClassify_Completed(t *testing.T) {
	c := newTestClassifier(nil)
	end := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC) // overdue, but done

	a := c.Classify(taskDue(end, 100))
	if a.Level != task.OnTrack {
		t.Errorf("completed task classified %q, want on_track", a.Level)
	}
	if a.Reason != "Task completed" {
		t.Errorf("reason = %q", a.Reason)
	}
}

func TestClassify_NoDeadline(t *testing.T) {
	c := newTestClassifier(nil)

	a := c.Classify(task.Task{ID: 1, Name: "T", CompletionPercent: 0})
	if a.Level != task.OnTrack {
		t.Errorf("no-deadline task classified %q, want on_track", a.Level)
	}
	if a.Reason != "No deadline set" {
		t.Errorf("reason = %q", a.Reason)
	}
}

func TestClassify_NotDueThisMonth(t *testing.T) {
	c := newTestClassifier(nil)
	end := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	a := c.Classify(taskDue(end, 0))
	if a.Level != task.OnTrack {
		t.Errorf("next-month task classified %q, want on_track", a.Level)
	}
	if a.Reason != "Not due this month" {
		t.Errorf("reason = %q", a.Reason)
	}
}

func TestClassify_MonthWindowAtMonthEnd(t *testing.T) {
	// On March 31 a deadline of April 1 is one day away but outside the
	// attention window.
	c := New(DefaultConfig(), nil, func() time.Time {
		return time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)
	})
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	a := c.Classify(taskDue(end, 0))
	if a.Level != task.OnTrack || a.Reason != "Not due this month" {
		t.Errorf("got %q/%q, want on_track/Not due this month", a.Level, a.Reason)
	}
}

func TestClassify_OverdueEscalation(t *testing.T) {
	c := newTestClassifier(nil)
	end := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC) // 2 days overdue

	a := c.Classify(taskDue(end, 40))
	if a.Level != task.CriticalEscalation {
		t.Errorf("overdue task classified %q, want critical_escalation", a.Level)
	}
	if !strings.Contains(a.Reason, "2 days overdue") {
		t.Errorf("reason = %q", a.Reason)
	}
}

func TestClassify_OverdueBelowEscalationThreshold(t *testing.T) {
	c := newTestClassifier(nil)
	end := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) // 1 day overdue

	a := c.Classify(taskDue(end, 40))
	if a.Level == task.CriticalEscalation {
		t.Error("1 day overdue should not escalate at the 2-day threshold")
	}
}

func TestClassify_EscalationDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OverdueEscalationDays = 0
	c := New(cfg, nil, fixedNow)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) // 9 days overdue

	a := c.Classify(taskDue(end, 10))
	if a.Level == task.CriticalEscalation {
		t.Error("escalation rule disabled, should never produce critical_escalation")
	}
}

func TestClassify_AlertRuleDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlertWindowDays = 0
	c := New(cfg, nil, fixedNow)
	end := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC) // 3 days out

	a := c.Classify(taskDue(end, 10))
	if a.Level == task.Alert {
		t.Error("zero alert window should disable the alert rule")
	}
	if a.Level != task.AtRisk {
		t.Errorf("low-progress task with the alert rule off classified %q, want at_risk", a.Level)
	}
}

func TestNew_NegativeConfigCorrected(t *testing.T) {
	c := New(Config{AlertWindowDays: -1, AlertCompletionThreshold: -5, OverdueEscalationDays: 2}, nil, fixedNow)
	end := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)

	a := c.Classify(taskDue(end, 10))
	if a.Level != task.Alert {
		t.Errorf("negative thresholds should fall back to defaults, classified %q", a.Level)
	}
}

func TestClassify_AlertWindow(t *testing.T) {
	c := newTestClassifier(nil)
	end := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC) // 3 days out

	a := c.Classify(taskDue(end, 10))
	if a.Level != task.Alert {
		t.Errorf("imminent low-progress task classified %q, want alert", a.Level)
	}
	if a.Reason != "Due in 3 day(s) with only 10% complete" {
		t.Errorf("reason = %q", a.Reason)
	}
}

func TestClassify_AlertBoundaries(t *testing.T) {
	c := newTestClassifier(nil)
	windowEdge := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC) // exactly 7 days
	pastWindow := time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC) // 8 days

	cases := []struct {
		name       string
		end        time.Time
		completion int
		want       task.RiskLevel
	}{
		{"at window edge below threshold", windowEdge, 29, task.Alert},
		{"at window edge at threshold", windowEdge, 30, task.OnTrack},
		{"past window low completion", pastWindow, 29, task.AtRisk},
		{"past window at half done", pastWindow, 50, task.OnTrack},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := c.Classify(taskDue(tc.end, tc.completion))
			if a.Level != tc.want {
				t.Errorf("classified %q, want %q", a.Level, tc.want)
			}
		})
	}
}

func TestClassify_BoundaryHoldsUnderLocalClock(t *testing.T) {
	// A deadline 8 calendar days out must stay past the 7-day alert
	// window even when the clock runs in a zone west of UTC.
	c := New(DefaultConfig(), nil, func() time.Time {
		return time.Date(2025, 3, 10, 9, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
	})
	end := time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC)

	a := c.Classify(taskDue(end, 29))
	if a.Level != task.AtRisk {
		t.Errorf("classified %q (%s), want at_risk", a.Level, a.Reason)
	}
}

func TestClassify_AtRisk(t *testing.T) {
	c := newTestClassifier(nil)
	end := time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC)

	a := c.Classify(taskDue(end, 20))
	if a.Level != task.AtRisk {
		t.Errorf("classified %q, want at_risk", a.Level)
	}
	if a.Reason != "Due Mar 25 at 20% complete" {
		t.Errorf("reason = %q", a.Reason)
	}
}

func TestClassifyAll_Totality(t *testing.T) {
	c := newTestClassifier(nil)
	due := func(day int) *time.Time {
		d := time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
		return &d
	}
	tasks := []task.Task{
		{ID: 1, Name: "done", EndDate: due(12), CompletionPercent: 100},
		{ID: 2, Name: "imminent", EndDate: due(13), CompletionPercent: 5},
		{ID: 3, Name: "behind", EndDate: due(28), CompletionPercent: 10},
		{ID: 4, Name: "overdue", EndDate: due(7), CompletionPercent: 60},
		{ID: 5, Name: "unscheduled"},
	}

	categorized := c.ClassifyAll(context.Background(), tasks)

	total := 0
	for _, tier := range categorized {
		total += len(tier)
	}
	if total != len(tasks) {
		t.Fatalf("categorized %d tasks, want %d", total, len(tasks))
	}
	for _, level := range task.Levels {
		if _, ok := categorized[level]; !ok {
			t.Errorf("missing tier %q in result", level)
		}
	}
	if len(categorized[task.Alert]) != 1 || categorized[task.Alert][0].ID != 2 {
		t.Errorf("alert tier = %+v", categorized[task.Alert])
	}
	if len(categorized[task.AtRisk]) != 1 || categorized[task.AtRisk][0].ID != 3 {
		t.Errorf("at_risk tier = %+v", categorized[task.AtRisk])
	}
	if len(categorized[task.CriticalEscalation]) != 1 || categorized[task.CriticalEscalation][0].ID != 4 {
		t.Errorf("critical tier = %+v", categorized[task.CriticalEscalation])
	}
	for _, tier := range categorized {
		for _, tsk := range tier {
			if tsk.RiskLevel == "" || tsk.RiskReason == "" {
				t.Errorf("task %d missing risk annotation: %+v", tsk.ID, tsk)
			}
		}
	}
}

type stubOracle struct {
	result map[task.RiskLevel][]task.Task
	err    error
	calls  int
}

func (s *stubOracle) ClassifyBatch(ctx context.Context, tasks []task.Task) (map[task.RiskLevel][]task.Task, error) {
	s.calls++
	return s.result, s.err
}

func TestClassifyAll_OracleResultUsed(t *testing.T) {
	tasks := []task.Task{{ID: 1, Name: "T"}}
	oracle := &stubOracle{result: map[task.RiskLevel][]task.Task{
		task.Alert: {{ID: 1, Name: "T", RiskLevel: task.Alert, RiskReason: "oracle says so"}},
	}}
	c := newTestClassifier(oracle)

	categorized := c.ClassifyAll(context.Background(), tasks)
	if oracle.calls != 1 {
		t.Fatalf("oracle called %d times, want 1", oracle.calls)
	}
	if len(categorized[task.Alert]) != 1 {
		t.Errorf("expected oracle result to be used, got %+v", categorized)
	}
}

func TestClassifyAll_OracleFailureFallsBack(t *testing.T) {
	tasks := []task.Task{{ID: 1, Name: "T"}}
	oracle := &stubOracle{err: ErrOracleUnavailable}
	c := newTestClassifier(oracle)

	categorized := c.ClassifyAll(context.Background(), tasks)
	if len(categorized[task.OnTrack]) != 1 {
		t.Errorf("expected deterministic fallback, got %+v", categorized)
	}
	if categorized[task.OnTrack][0].RiskReason != "No deadline set" {
		t.Errorf("fallback reason = %q", categorized[task.OnTrack][0].RiskReason)
	}
}

func TestClassifyAll_OracleDroppedTaskFallsBack(t *testing.T) {
	tasks := []task.Task{{ID: 1, Name: "T"}, {ID: 2, Name: "U"}}
	oracle := &stubOracle{result: map[task.RiskLevel][]task.Task{
		task.OnTrack: {{ID: 1, Name: "T", RiskLevel: task.OnTrack}},
	}}
	c := newTestClassifier(oracle)

	categorized := c.ClassifyAll(context.Background(), tasks)
	total := 0
	for _, tier := range categorized {
		total += len(tier)
	}
	if total != 2 {
		t.Errorf("expected fallback preserving totality, got %d tasks", total)
	}
}

func TestClassifyAll_OracleBogusTierFallsBack(t *testing.T) {
	tasks := []task.Task{{ID: 1, Name: "T"}}
	oracle := &stubOracle{result: map[task.RiskLevel][]task.Task{
		task.RiskLevel("catastrophic"): {{ID: 1, Name: "T"}},
	}}
	c := newTestClassifier(oracle)

	categorized := c.ClassifyAll(context.Background(), tasks)
	if len(categorized[task.OnTrack]) != 1 {
		t.Errorf("expected deterministic fallback for unknown tier, got %+v", categorized)
	}
}

func TestMarkAllOnTrack(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, Name: "T", RiskLevel: task.CriticalEscalation},
		{ID: 2, Name: "U"},
	}

	categorized := MarkAllOnTrack(tasks)
	if len(categorized[task.OnTrack]) != 2 {
		t.Fatalf("expected all tasks on_track, got %+v", categorized)
	}
	for _, tsk := range categorized[task.OnTrack] {
		if tsk.RiskLevel != task.OnTrack {
			t.Errorf("task %d level = %q", tsk.ID, tsk.RiskLevel)
		}
	}
	for _, level := range task.Levels {
		if _, ok := categorized[level]; !ok {
			t.Errorf("missing tier %q", level)
		}
	}
}

func TestSummary(t *testing.T) {
	categorized := map[task.RiskLevel][]task.Task{
		task.Alert:   {{ID: 1}, {ID: 2}},
		task.OnTrack: {{ID: 3}},
	}

	got := Summary(categorized)
	want := "Risk summary: 0 critical escalation, 2 alert, 0 at risk, 1 on track (3 total)"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestClassifyAll_EmptyInput(t *testing.T) {
	c := newTestClassifier(nil)

	categorized := c.ClassifyAll(context.Background(), nil)
	for _, level := range task.Levels {
		if len(categorized[level]) != 0 {
			t.Errorf("tier %q not empty: %+v", level, categorized[level])
		}
	}
}
