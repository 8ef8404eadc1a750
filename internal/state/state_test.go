package state

import (
	"testing"
	"time"

	"github.com/theadarsh-ai/WBSMonitor/internal/monitor"
	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

func sampleResult() *monitor.Result {
	return &monitor.Result{
		RanAt:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		TotalTasks: 2,
		TierCounts: map[task.RiskLevel]int{
			task.Alert:   1,
			task.OnTrack: 1,
		},
		CriticalPath: []int{1, 2},
		Tasks: []task.Task{
			{ID: 1, Name: "Design schema", RiskLevel: task.Alert, RiskReason: "behind"},
			{ID: 2, Name: "Build API", RiskLevel: task.OnTrack},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	if store.Exists() {
		t.Error("fresh store should have no snapshot")
	}
	if _, err := store.Load(); err == nil {
		t.Error("Load before Save should fail")
	}

	if err := store.Save(sampleResult()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Exists() {
		t.Error("snapshot should exist after Save")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TotalTasks != 2 || got.TierCounts[task.Alert] != 1 {
		t.Errorf("loaded result = %+v", got)
	}
	if len(got.CriticalPath) != 2 || got.CriticalPath[0] != 1 {
		t.Errorf("critical path = %v", got.CriticalPath)
	}
	if got.Tasks[0].RiskLevel != task.Alert || got.Tasks[0].RiskReason != "behind" {
		t.Errorf("task annotations = %+v", got.Tasks[0])
	}
	if !got.RanAt.Equal(sampleResult().RanAt) {
		t.Errorf("ran at = %v", got.RanAt)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())

	first := sampleResult()
	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}

	second := sampleResult()
	second.TotalTasks = 5
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalTasks != 5 {
		t.Errorf("loaded total = %d, want 5", got.TotalTasks)
	}
}

func TestClean(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save(sampleResult()); err != nil {
		t.Fatal(err)
	}

	if err := store.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if store.Exists() {
		t.Error("snapshot should be gone after Clean")
	}
}
