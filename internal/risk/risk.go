// Package risk assigns each task to one of four ordered severity tiers.
// The deterministic policy here is the reference implementation; an
// oracle can be injected to replace it behind the same interface, and
// oracle failure always degrades back to this policy.
package risk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// ErrOracleUnavailable is returned by oracle implementations when the
// backing service cannot be reached or produces unusable output. The
// classifier treats it (and any other oracle error) as a signal to fall
// back to the deterministic policy.
var ErrOracleUnavailable = errors.New("classification oracle unavailable")

// Config is the classification tuning surface.
type Config struct {
	// AlertWindowDays is how many days before a deadline a
	// low-progress task escalates to the alert tier. Zero disables
	// the alert rule.
	AlertWindowDays int
	// AlertCompletionThreshold is the completion percent below which
	// an imminent deadline triggers the alert tier. Strict less-than;
	// zero disables the alert rule.
	AlertCompletionThreshold int
	// OverdueEscalationDays is how many days past the deadline a task
	// classifies as critical_escalation. Zero disables the rule, in
	// which case the deterministic policy never produces that tier.
	OverdueEscalationDays int
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		AlertWindowDays:          7,
		AlertCompletionThreshold: 30,
		OverdueEscalationDays:    2,
	}
}

// Assessment is a single classification outcome.
type Assessment struct {
	Level      task.RiskLevel `json:"risk_level"`
	Reason     string         `json:"risk_reason"`
	Confidence float64        `json:"confidence"`
}

// Oracle is a pluggable classification backend. Implementations must
// cover every input task; a partial or malformed result is an error.
type Oracle interface {
	ClassifyBatch(ctx context.Context, tasks []task.Task) (map[task.RiskLevel][]task.Task, error)
}

// Classifier categorizes tasks per cycle. Each call is independent:
// there is no persistent state beyond configuration.
type Classifier struct {
	cfg    Config
	oracle Oracle
	now    func() time.Time
}

// New creates a classifier. oracle may be nil to use the deterministic
// policy only. now may be nil to use wall-clock time. Zero thresholds
// disable their rules; negative values are corrected to the defaults
// with a logged warning.
func New(cfg Config, oracle Oracle, now func() time.Time) *Classifier {
	def := DefaultConfig()
	if cfg.AlertWindowDays < 0 {
		log.Printf("warning: alert window %d is invalid, using default %d", cfg.AlertWindowDays, def.AlertWindowDays)
		cfg.AlertWindowDays = def.AlertWindowDays
	}
	if cfg.AlertCompletionThreshold < 0 {
		log.Printf("warning: alert completion threshold %d is invalid, using default %d", cfg.AlertCompletionThreshold, def.AlertCompletionThreshold)
		cfg.AlertCompletionThreshold = def.AlertCompletionThreshold
	}
	if now == nil {
		now = time.Now
	}
	return &Classifier{cfg: cfg, oracle: oracle, now: now}
}

// Classify applies the deterministic policy to a single task.
func (c *Classifier) Classify(t task.Task) Assessment {
	now := c.now()

	if t.Completed() {
		return Assessment{Level: task.OnTrack, Reason: "Task completed", Confidence: 1}
	}

	days, hasDeadline := t.DaysUntilDeadline(now)
	if !hasDeadline {
		return Assessment{Level: task.OnTrack, Reason: "No deadline set", Confidence: 1}
	}

	// Attention narrows to deadlines inside the current calendar month.
	end := *t.EndDate
	if end.Month() != now.Month() || end.Year() != now.Year() {
		return Assessment{Level: task.OnTrack, Reason: "Not due this month", Confidence: 1}
	}

	if c.cfg.OverdueEscalationDays > 0 && days <= -c.cfg.OverdueEscalationDays {
		return Assessment{
			Level:      task.CriticalEscalation,
			Reason:     fmt.Sprintf("%d days overdue at %d%% completion", -days, t.CompletionPercent),
			Confidence: 1,
		}
	}

	switch {
	case days > 0 && days <= c.cfg.AlertWindowDays && t.CompletionPercent < c.cfg.AlertCompletionThreshold:
		return Assessment{
			Level:      task.Alert,
			Reason:     fmt.Sprintf("Due in %d day(s) with only %d%% complete", days, t.CompletionPercent),
			Confidence: 1,
		}
	case days > c.cfg.AlertWindowDays && t.CompletionPercent < 50:
		return Assessment{
			Level:      task.AtRisk,
			Reason:     fmt.Sprintf("Due %s at %d%% complete", end.Format("Jan 2"), t.CompletionPercent),
			Confidence: 1,
		}
	default:
		return Assessment{Level: task.OnTrack, Reason: "On schedule", Confidence: 1}
	}
}

// ClassifyAll groups every input task into exactly one tier. The total
// count across tiers always equals the input count. When an oracle is
// configured it is tried first; any failure falls back to the
// deterministic policy and never reaches the caller. Every returned
// task is a fresh snapshot with RiskLevel and RiskReason set.
func (c *Classifier) ClassifyAll(ctx context.Context, tasks []task.Task) map[task.RiskLevel][]task.Task {
	if c.oracle != nil {
		categorized, err := c.oracle.ClassifyBatch(ctx, tasks)
		if err == nil && totalityHolds(categorized, len(tasks)) {
			return categorized
		}
		if err != nil {
			log.Printf("warning: oracle classification failed, using deterministic policy: %v", err)
		} else {
			log.Printf("warning: oracle result dropped tasks, using deterministic policy")
		}
	}
	return c.classifyAllDeterministic(tasks)
}

func (c *Classifier) classifyAllDeterministic(tasks []task.Task) map[task.RiskLevel][]task.Task {
	categorized := emptyTiers()
	for _, t := range tasks {
		a := c.Classify(t)
		t.RiskLevel = a.Level
		t.RiskReason = a.Reason
		categorized[a.Level] = append(categorized[a.Level], t)
	}
	return categorized
}

// MarkAllOnTrack is the conservative whole-batch fallback for
// unexpected internal failure: every task lands in on_track so the
// reporting surface still gets a complete result instead of a crash.
func MarkAllOnTrack(tasks []task.Task) map[task.RiskLevel][]task.Task {
	categorized := emptyTiers()
	for _, t := range tasks {
		t.RiskLevel = task.OnTrack
		t.RiskReason = "Conservative fallback assessment"
		categorized[task.OnTrack] = append(categorized[task.OnTrack], t)
	}
	return categorized
}

// Summary renders per-tier counts for logs and digests.
func Summary(categorized map[task.RiskLevel][]task.Task) string {
	total := 0
	for _, tier := range categorized {
		total += len(tier)
	}
	return fmt.Sprintf(
		"Risk summary: %d critical escalation, %d alert, %d at risk, %d on track (%d total)",
		len(categorized[task.CriticalEscalation]),
		len(categorized[task.Alert]),
		len(categorized[task.AtRisk]),
		len(categorized[task.OnTrack]),
		total,
	)
}

func emptyTiers() map[task.RiskLevel][]task.Task {
	return map[task.RiskLevel][]task.Task{
		task.CriticalEscalation: nil,
		task.Alert:              nil,
		task.AtRisk:             nil,
		task.OnTrack:            nil,
	}
}

func totalityHolds(categorized map[task.RiskLevel][]task.Task, want int) bool {
	got := 0
	for level, tier := range categorized {
		if _, ok := task.ParseRiskLevel(string(level)); !ok {
			return false
		}
		got += len(tier)
	}
	return got == want
}
