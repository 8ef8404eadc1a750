package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/theadarsh-ai/WBSMonitor/internal/heal"
	"github.com/theadarsh-ai/WBSMonitor/internal/monitor"
	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

func sampleResult() *monitor.Result {
	end := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	return &monitor.Result{
		RanAt:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		TotalTasks: 2,
		TierCounts: map[task.RiskLevel]int{task.Alert: 1, task.OnTrack: 1},
		Categorized: map[task.RiskLevel][]task.Task{
			task.Alert: {
				{ID: 1, Name: "Design schema", CompletionPercent: 10, EndDate: &end, RiskLevel: task.Alert, RiskReason: "Due in 3 day(s) with only 10% complete"},
			},
			task.OnTrack: {
				{ID: 2, Name: "Build API", CompletionPercent: 0, RiskLevel: task.OnTrack, RiskReason: "No deadline set"},
			},
		},
		CriticalPath: []int{1, 2},
		ModuleDeps:   map[string][]string{"Platform": {"Data"}},
		Suggestions: []heal.Suggestion{
			{TaskID: 1, FromAssignee: "Asha", ToAssignee: "Ben", Reason: "lighter load"},
		},
		Messages: []monitor.Message{{Subject: "[ALERT] Design schema - Data"}},
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	New(sampleResult()).PrintSummary(&buf)

	out := buf.String()
	for _, want := range []string{
		"2 tasks analyzed",
		"Design schema",
		"Due in 3 day(s) with only 10% complete",
		"Critical path:",
		"1 → 2",
		"Platform",
		"Asha",
		"1 notification(s) composed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummary_EmptyCycle(t *testing.T) {
	var buf bytes.Buffer
	New(&monitor.Result{RanAt: time.Now()}).PrintSummary(&buf)

	if !strings.Contains(buf.String(), "No tasks in this cycle.") {
		t.Errorf("empty summary = %q", buf.String())
	}
}

func TestJSON(t *testing.T) {
	data, err := New(sampleResult()).JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var round monitor.Result
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if round.TotalTasks != 2 || len(round.CriticalPath) != 2 {
		t.Errorf("round-trip = %+v", round)
	}
}
