package task

import (
	"strconv"
	"strings"
	"time"
)

// RiskLevel is one of the four ordered severity tiers assigned during
// classification. Ordering is critical_escalation > alert > at_risk > on_track.
type RiskLevel string

const (
	CriticalEscalation RiskLevel = "critical_escalation"
	Alert              RiskLevel = "alert"
	AtRisk             RiskLevel = "at_risk"
	OnTrack            RiskLevel = "on_track"
)

// Levels lists all tiers from most to least severe.
var Levels = []RiskLevel{CriticalEscalation, Alert, AtRisk, OnTrack}

// ParseRiskLevel validates a tier string. Returns false for anything
// outside the four enumerated tiers.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(strings.TrimSpace(s)) {
	case CriticalEscalation:
		return CriticalEscalation, true
	case Alert:
		return Alert, true
	case AtRisk:
		return AtRisk, true
	case OnTrack:
		return OnTrack, true
	}
	return "", false
}

// Severity returns a sortable rank: higher means more severe.
func (r RiskLevel) Severity() int {
	switch r {
	case CriticalEscalation:
		return 3
	case Alert:
		return 2
	case AtRisk:
		return 1
	default:
		return 0
	}
}

// Task is a single WBS row for one monitoring cycle. IDs are assigned by
// source-order position (1-based) at ingestion and are stable within a
// cycle only; records are rebuilt wholesale on the next cycle.
type Task struct {
	ID                int        `json:"task_id"`
	Name              string     `json:"task_name"`
	Module            string     `json:"module"`
	Assignee          string     `json:"assigned_to"`
	Email             string     `json:"mail_id,omitempty"`
	ProductOwner      string     `json:"product_owner,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	CompletionPercent int        `json:"completion_percent"`
	DurationDays      int        `json:"duration_days"`
	Status            string     `json:"status"`
	Dependencies      []int      `json:"dependencies,omitempty"`
	RiskLevel         RiskLevel  `json:"risk_level,omitempty"`
	RiskReason        string     `json:"risk_reason,omitempty"`
}

// Completed reports whether the task has reached 100% completion.
func (t Task) Completed() bool {
	return t.CompletionPercent >= 100
}

// DaysUntilDeadline returns whole calendar days from now to the end
// date. Negative means overdue; a task due today yields 0. Each
// timestamp's own calendar date is pinned to UTC before subtracting, so
// the count is exact whole days even when the deadline and the clock
// carry different locations. ok is false when no deadline is set.
func (t Task) DaysUntilDeadline(now time.Time) (days int, ok bool) {
	if t.EndDate == nil {
		return 0, false
	}
	end := calendarDate(*t.EndDate)
	today := calendarDate(now)
	return int(end.Sub(today).Hours() / 24), true
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDependencies splits a raw comma-separated predecessor field into
// task IDs. Malformed tokens are silently dropped.
func ParseDependencies(raw string) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return nil
	}
	var deps []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			continue
		}
		deps = append(deps, id)
	}
	return deps
}
