// Package ingest reads WBS exports from local JSON files and writes
// post-cycle snapshots back. Spreadsheet and transport concerns live
// outside the core: this package only honors the source contract, an
// ordered list of task records with IDs assigned by position.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// FileSource reads tasks from a JSON array of WBS rows.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for the given file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Fetch parses the WBS file. Task IDs are assigned by row position
// starting at 1. Rows without a task name are skipped with a warning
// and never abort the batch; row fields tolerate the common alternate
// column names seen in WBS exports.
func (f *FileSource) Fetch(ctx context.Context) ([]task.Task, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read WBS file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse WBS file %s: not valid JSON", f.Path)
	}
	rows := gjson.ParseBytes(data)
	if !rows.IsArray() {
		return nil, fmt.Errorf("parse WBS file %s: expected a JSON array of rows", f.Path)
	}

	var tasks []task.Task
	pos := 0
	rows.ForEach(func(_, row gjson.Result) bool {
		pos++
		name := firstString(row, "task_name", "task", "name")
		if name == "" {
			log.Printf("warning: skipping WBS row %d: no task name", pos)
			return true
		}

		t := task.Task{
			ID:                pos,
			Name:              name,
			Module:            firstString(row, "module", "project_module"),
			Assignee:          firstString(row, "assigned_to", "assignee"),
			Email:             firstString(row, "mail_id", "email"),
			ProductOwner:      firstString(row, "product_owner", "po"),
			DurationDays:      int(firstNumber(row, "duration_days", "duration")),
			CompletionPercent: int(firstNumber(row, "completion_percent", "completion")),
			Status:            row.Get("status").String(),
			StartDate:         parseDate(firstString(row, "start_date", "start")),
			EndDate:           parseDate(firstString(row, "end_date", "end")),
		}

		deps := row.Get("dependencies")
		if deps.IsArray() {
			deps.ForEach(func(_, d gjson.Result) bool {
				if id := int(d.Int()); id > 0 {
					t.Dependencies = append(t.Dependencies, id)
				}
				return true
			})
		} else {
			t.Dependencies = task.ParseDependencies(deps.String())
		}

		tasks = append(tasks, t)
		return true
	})

	return tasks, nil
}

// FileSink writes the post-cycle task snapshot back to a JSON file,
// keeping a timestamped backup of the previous contents.
type FileSink struct {
	Path string
	now  func() time.Time
}

// NewFileSink creates a sink writing to the given file.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path, now: time.Now}
}

// Save writes the snapshot. An existing file is first copied aside as
// <name>.bak-<timestamp> so one prior version survives each cycle.
func (f *FileSink) Save(ctx context.Context, tasks []task.Task) error {
	if prev, err := os.ReadFile(f.Path); err == nil {
		backup := fmt.Sprintf("%s.bak-%s", f.Path, f.now().Format("20060102-150405"))
		if err := os.WriteFile(backup, prev, 0644); err != nil {
			log.Printf("warning: write backup %s: %v", backup, err)
		}
	}

	data, err := marshalTasks(tasks)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return os.WriteFile(f.Path, data, 0644)
}

func marshalTasks(tasks []task.Task) ([]byte, error) {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal task snapshot: %w", err)
	}
	return data, nil
}

func firstString(row gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := row.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func firstNumber(row gjson.Result, keys ...string) float64 {
	for _, k := range keys {
		if v := row.Get(k); v.Exists() {
			return v.Float()
		}
	}
	return 0
}

// parseDate accepts bare dates and RFC 3339 timestamps. Anything else
// is treated as no date.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
