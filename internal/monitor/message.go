package monitor

import (
	"fmt"
	"strings"

	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// composeMessages renders escalation and alert notifications for
// flagged tasks plus a digest summary when anything is flagged.
// Messages are composed only; delivery belongs to the Sink.
func (r *Runner) composeMessages(result *Result) []Message {
	var msgs []Message

	narratives := make(map[int]string, len(result.Impacts))
	for _, rep := range result.Impacts {
		narratives[rep.TaskID] = rep.Narrative
	}

	// Reallocation runs after classification, so address the final
	// snapshot of each flagged task, not the tier-time one.
	latest := make(map[int]task.Task, len(result.Tasks))
	for _, t := range result.Tasks {
		latest[t.ID] = t
	}
	current := func(t task.Task) task.Task {
		if cur, ok := latest[t.ID]; ok {
			return cur
		}
		return t
	}

	for _, t := range result.Categorized[task.CriticalEscalation] {
		msgs = append(msgs, r.taskMessage(current(t), true, narratives[t.ID]))
	}
	for _, t := range result.Categorized[task.Alert] {
		msgs = append(msgs, r.taskMessage(current(t), false, narratives[t.ID]))
	}

	if len(msgs) > 0 && len(r.cfg.Recipients) > 0 {
		msgs = append(msgs, r.digestMessage(result))
	}
	return msgs
}

func (r *Runner) taskMessage(t task.Task, escalation bool, narrative string) Message {
	urgency := "ALERT"
	if escalation {
		urgency = "URGENT ESCALATION"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", orDefault(t.Assignee, "Team Member"))
	if escalation {
		b.WriteString("This task requires immediate attention and escalation due to critical delays.\n\n")
	} else {
		b.WriteString("This task has been flagged for attention due to potential schedule risk.\n\n")
	}

	fmt.Fprintf(&b, "Task:       %s\n", t.Name)
	fmt.Fprintf(&b, "Module:     %s\n", orDefault(t.Module, "N/A"))
	fmt.Fprintf(&b, "Completion: %d%%\n", t.CompletionPercent)
	fmt.Fprintf(&b, "Due:        %s\n", formatDate(t))
	fmt.Fprintf(&b, "Status:     %s\n", orDefault(t.Status, "N/A"))
	fmt.Fprintf(&b, "Assessment: %s\n\n", t.RiskReason)

	b.WriteString("Required actions:\n")
	if escalation {
		b.WriteString("  - Provide an immediate status update on current blockers\n")
		b.WriteString("  - Submit a revised completion timeline within 24 hours\n")
		b.WriteString("  - Identify resources needed to expedite completion\n")
	} else {
		b.WriteString("  - Review progress and update the completion percentage\n")
		b.WriteString("  - Identify any blockers preventing completion\n")
		b.WriteString("  - Escalate if additional support is needed\n")
	}

	if narrative != "" {
		fmt.Fprintf(&b, "\nImpact analysis:\n%s\n", narrative)
	}

	to := r.cfg.Recipients
	if t.Email != "" {
		to = append([]string{t.Email}, to...)
	}

	return Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] %s - %s", urgency, t.Name, orDefault(t.Module, "Project")),
		Body:    b.String(),
	}
}

func (r *Runner) digestMessage(result *Result) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Project status summary for %s\n\n", result.RanAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Tasks analyzed: %d\n", result.TotalTasks)
	fmt.Fprintf(&b, "  Critical escalation: %d\n", result.TierCounts[task.CriticalEscalation])
	fmt.Fprintf(&b, "  Alert:               %d\n", result.TierCounts[task.Alert])
	fmt.Fprintf(&b, "  At risk:             %d\n", result.TierCounts[task.AtRisk])
	fmt.Fprintf(&b, "  On track:            %d\n", result.TierCounts[task.OnTrack])

	if len(result.CriticalPath) > 0 {
		ids := make([]string, len(result.CriticalPath))
		for i, id := range result.CriticalPath {
			ids[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(&b, "\nCritical path: %s\n", strings.Join(ids, " -> "))
	}

	if len(result.Suggestions) > 0 {
		b.WriteString("\nReallocations applied:\n")
		for _, s := range result.Suggestions {
			fmt.Fprintf(&b, "  - Task %d: %s -> %s (%s)\n", s.TaskID, s.FromAssignee, s.ToAssignee, s.Reason)
		}
	}

	return Message{
		To:      r.cfg.Recipients,
		Subject: fmt.Sprintf("Daily Project Status Summary - %s", result.RanAt.Format("2006-01-02")),
		Body:    b.String(),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatDate(t task.Task) string {
	if t.EndDate == nil {
		return "N/A"
	}
	return t.EndDate.Format("2006-01-02")
}
