// Package monitor runs one monitoring cycle end to end: ingest,
// classify, graph build, impact aggregation, reallocation advice,
// message composition, handoff. Stages run strictly in that order:
// impact reads risk levels set by classification, and every graph
// query runs against the graph built this cycle.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/theadarsh-ai/WBSMonitor/internal/depgraph"
	"github.com/theadarsh-ai/WBSMonitor/internal/heal"
	"github.com/theadarsh-ai/WBSMonitor/internal/impact"
	"github.com/theadarsh-ai/WBSMonitor/internal/risk"
	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// Source supplies the task snapshot for a cycle. Task IDs are assigned
// by source-order position starting at 1.
type Source interface {
	Fetch(ctx context.Context) ([]task.Task, error)
}

// Persister writes the post-cycle task snapshot to durable storage.
type Persister interface {
	Save(ctx context.Context, tasks []task.Task) error
}

// Sink delivers composed notification messages. The runner only
// composes; delivery is entirely the sink's concern.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// Message is the notification contract handed to a Sink.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// ImpactReport is the downstream analysis for one flagged task.
type ImpactReport struct {
	TaskID    int                  `json:"task_id"`
	TaskName  string               `json:"task_name"`
	RiskLevel task.RiskLevel       `json:"risk_level"`
	Impacted  []impact.TaskSummary `json:"impacted"`
	Narrative string               `json:"narrative"`
}

// Result is the complete output of one monitoring cycle. A cycle always
// produces a Result with counts, even when everything is zero.
type Result struct {
	RanAt        time.Time                     `json:"ran_at"`
	TotalTasks   int                           `json:"total_tasks"`
	TierCounts   map[task.RiskLevel]int        `json:"tier_counts"`
	Categorized  map[task.RiskLevel][]task.Task `json:"categorized"`
	CriticalPath []int                         `json:"critical_path"`
	ModuleDeps   map[string][]string           `json:"module_dependencies"`
	Impacts      []ImpactReport                `json:"impacts"`
	Suggestions  []heal.Suggestion             `json:"suggestions"`
	Messages     []Message                     `json:"messages"`
	Tasks        []task.Task                   `json:"tasks"`
}

// Config tunes a Runner.
type Config struct {
	Risk       risk.Config
	Heal       heal.Policy
	Recipients []string // digest recipients (project manager addresses)
}

// Runner executes monitoring cycles. Cycles are serialized with an
// internal mutex: the task store and graph are rebuilt in place each
// run and are not meant to be read mid-rebuild.
type Runner struct {
	source     Source
	classifier *risk.Classifier
	persister  Persister
	sink       Sink
	cfg        Config
	now        func() time.Time

	mu     sync.Mutex
	latest *Result
}

// New creates a Runner. persister and sink may be nil; source must not
// be. now may be nil for wall-clock time.
func New(source Source, classifier *risk.Classifier, persister Persister, sink Sink, cfg Config, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{
		source:     source,
		classifier: classifier,
		persister:  persister,
		sink:       sink,
		cfg:        cfg,
		now:        now,
	}
}

// RunCycle executes one full monitoring cycle. Zero ingested tasks is a
// valid, empty result, not an error. Per-task problems are skipped at
// ingestion; oracle problems degrade inside the classifier; only an
// ingestion failure itself is surfaced to the caller.
func (r *Runner) RunCycle(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	store := task.NewStore(tasks)

	result := &Result{
		RanAt:      r.now(),
		TotalTasks: store.Len(),
		TierCounts: make(map[task.RiskLevel]int),
		ModuleDeps: map[string][]string{},
	}
	if store.Len() == 0 {
		r.latest = result
		return result, nil
	}

	// Classification must complete before the graph is built so node
	// snapshots carry this cycle's risk levels.
	categorized := r.classify(ctx, store.Tasks())
	result.Categorized = categorized
	for level, tier := range categorized {
		result.TierCounts[level] += len(tier)
		for _, t := range tier {
			store.Replace(t)
		}
	}

	g := depgraph.Build(store.Tasks())
	result.CriticalPath = g.CriticalPath()
	result.ModuleDeps = impact.ModuleDependencies(store.Tasks(), g)

	flagged := flaggedTasks(categorized)
	for _, t := range flagged {
		impacted := impact.Downstream(g, t.ID)
		result.Impacts = append(result.Impacts, ImpactReport{
			TaskID:    t.ID,
			TaskName:  t.Name,
			RiskLevel: t.RiskLevel,
			Impacted:  impacted,
			Narrative: impact.Narrative(t, impacted),
		})
	}

	workload := heal.Workload(store.Tasks())
	for _, t := range flagged {
		if s := heal.Suggest(t, workload, r.cfg.Heal, r.now()); s != nil {
			updated, _ := store.Get(t.ID)
			store.Replace(heal.Apply(updated, s))
			result.Suggestions = append(result.Suggestions, *s)
		}
	}

	result.Tasks = store.Tasks()
	result.Messages = r.composeMessages(result)

	if r.persister != nil {
		if err := r.persister.Save(ctx, result.Tasks); err != nil {
			log.Printf("warning: persist task snapshot: %v", err)
		}
	}
	if r.sink != nil {
		for _, msg := range result.Messages {
			if err := r.sink.Deliver(ctx, msg); err != nil {
				log.Printf("warning: deliver %q: %v", msg.Subject, err)
			}
		}
	}

	r.latest = result
	return result, nil
}

// classify never lets an internal failure escape: anything unexpected
// degrades to the conservative mark-everything-on_track fallback so
// the reporting surface always gets a complete result.
func (r *Runner) classify(ctx context.Context, tasks []task.Task) (categorized map[task.RiskLevel][]task.Task) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("warning: classification failed (%v), marking all tasks on_track", rec)
			categorized = risk.MarkAllOnTrack(tasks)
		}
	}()
	return r.classifier.ClassifyAll(ctx, tasks)
}

// Latest returns the most recent cycle result if it is younger than
// ttl. Callers treat the returned snapshot as immutable.
func (r *Runner) Latest(ttl time.Duration) (*Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return nil, false
	}
	if ttl > 0 && r.now().Sub(r.latest.RanAt) > ttl {
		return nil, false
	}
	return r.latest, true
}

// flaggedTasks returns escalation and alert tier tasks ordered by
// severity, then task ID.
func flaggedTasks(categorized map[task.RiskLevel][]task.Task) []task.Task {
	flagged := append([]task.Task(nil), categorized[task.CriticalEscalation]...)
	flagged = append(flagged, categorized[task.Alert]...)
	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].RiskLevel != flagged[j].RiskLevel {
			return flagged[i].RiskLevel.Severity() > flagged[j].RiskLevel.Severity()
		}
		return flagged[i].ID < flagged[j].ID
	})
	return flagged
}
