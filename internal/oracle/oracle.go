// Package oracle implements a Claude-backed risk classifier satisfying
// the risk.Oracle interface. All failures (transport, malformed JSON,
// tiers outside the enumeration) surface as risk.ErrOracleUnavailable
// so the caller falls back to the deterministic policy.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/theadarsh-ai/WBSMonitor/internal/impact"
	"github.com/theadarsh-ai/WBSMonitor/internal/risk"
	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// chunkSize bounds how many tasks go into one model call.
const chunkSize = 20

// Client wraps the Anthropic SDK for risk classification calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
	now   func() time.Time
}

// NewClient creates an oracle client. apiKey defaults to the
// ANTHROPIC_API_KEY env var; model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set: %w", risk.ErrOracleUnavailable)
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := anthropic.Model("claude-sonnet-4-6")
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{inner: inner, model: m, now: time.Now}, nil
}

const classifyPrompt = `You are an expert project risk analyst. Assess delivery risk for each task in a work breakdown structure.

Categorize each task into exactly ONE of these risk levels:
1. critical_escalation: requires immediate attention, high business impact
2. alert: needs action soon, potential for delays
3. at_risk: concerning trend, monitor closely
4. on_track: progressing well, no immediate concerns

Return your answer as a JSON array with one entry per task:
[
  {"task_id": 1, "risk_level": "alert", "risk_reason": "<1-2 sentence explanation>", "confidence": 0.85}
]

Rules:
- Cover EVERY task in the input, each exactly once.
- Only use task IDs from the provided list.
- risk_level must be one of the four values above, nothing else.

Return ONLY the JSON array. No markdown fences, no commentary outside the JSON.

Here are the tasks:
`

// taskContext is the per-task payload sent to the model.
type taskContext struct {
	TaskID      int    `json:"task_id"`
	Name        string `json:"task_name"`
	Module      string `json:"module,omitempty"`
	Completion  int    `json:"completion_percent"`
	DueDate     string `json:"due_date,omitempty"`
	Assignee    string `json:"assigned_to,omitempty"`
	CurrentDate string `json:"current_date"`
}

func buildPrompt(tasks []task.Task, now time.Time) (string, error) {
	ctxs := make([]taskContext, 0, len(tasks))
	for _, t := range tasks {
		tc := taskContext{
			TaskID:      t.ID,
			Name:        t.Name,
			Module:      t.Module,
			Completion:  t.CompletionPercent,
			Assignee:    t.Assignee,
			CurrentDate: now.Format("2006-01-02"),
		}
		if t.EndDate != nil {
			tc.DueDate = t.EndDate.Format("2006-01-02")
		}
		ctxs = append(ctxs, tc)
	}
	data, err := json.MarshalIndent(ctxs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	return classifyPrompt + string(data), nil
}

// ClassifyBatch assesses all tasks in chunks and groups them by tier.
// The result covers every input task or the call fails.
func (c *Client) ClassifyBatch(ctx context.Context, tasks []task.Task) (map[task.RiskLevel][]task.Task, error) {
	categorized := map[task.RiskLevel][]task.Task{
		task.CriticalEscalation: nil,
		task.Alert:              nil,
		task.AtRisk:             nil,
		task.OnTrack:            nil,
	}

	for start := 0; start < len(tasks); start += chunkSize {
		end := start + chunkSize
		if end > len(tasks) {
			end = len(tasks)
		}
		if err := c.classifyChunk(ctx, tasks[start:end], categorized); err != nil {
			return nil, err
		}
	}

	return categorized, nil
}

func (c *Client) classifyChunk(ctx context.Context, chunk []task.Task, categorized map[task.RiskLevel][]task.Task) error {
	prompt, err := buildPrompt(chunk, c.now())
	if err != nil {
		return err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return fmt.Errorf("claude API call: %v: %w", err, risk.ErrOracleUnavailable)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	assessments, err := parseAssessments(text, chunk)
	if err != nil {
		return err
	}

	for _, t := range chunk {
		a := assessments[t.ID]
		t.RiskLevel = a.Level
		t.RiskReason = a.Reason
		categorized[a.Level] = append(categorized[a.Level], t)
	}
	return nil
}

// parseAssessments validates the model output against the input chunk.
// Every task must be covered with a tier from the enumeration; anything
// else maps to ErrOracleUnavailable rather than leaking a malformed
// tier string downstream.
func parseAssessments(text string, chunk []task.Task) (map[int]risk.Assessment, error) {
	text = stripJSONFences(text)
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("invalid JSON in oracle response: %w", risk.ErrOracleUnavailable)
	}

	parsed := gjson.Parse(text)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("oracle response is not a JSON array: %w", risk.ErrOracleUnavailable)
	}

	known := make(map[int]bool, len(chunk))
	for _, t := range chunk {
		known[t.ID] = true
	}

	assessments := make(map[int]risk.Assessment, len(chunk))
	var bad error
	parsed.ForEach(func(_, item gjson.Result) bool {
		id := int(item.Get("task_id").Int())
		if !known[id] {
			return true // unknown IDs are ignored
		}
		level, ok := task.ParseRiskLevel(item.Get("risk_level").String())
		if !ok {
			bad = fmt.Errorf("oracle returned invalid tier %q for task %d: %w",
				item.Get("risk_level").String(), id, risk.ErrOracleUnavailable)
			return false
		}
		confidence := item.Get("confidence").Float()
		if confidence == 0 {
			confidence = 0.75
		}
		assessments[id] = risk.Assessment{
			Level:      level,
			Reason:     item.Get("risk_reason").String(),
			Confidence: confidence,
		}
		return true
	})
	if bad != nil {
		return nil, bad
	}

	if len(assessments) != len(chunk) {
		return nil, fmt.Errorf("oracle covered %d of %d tasks: %w", len(assessments), len(chunk), risk.ErrOracleUnavailable)
	}
	return assessments, nil
}

const narrativePrompt = `You are an expert dependency impact analyst. Given a delayed task and the downstream tasks that transitively depend on it, explain how the delay will cascade.

Cover direct versus indirect impacts, critical path implications, and the highest-risk dependencies. Be specific and actionable. Limit the response to 5-6 sentences of plain text.`

// ImpactNarrative asks the model for a cascading-impact explanation.
// Interface-compatible with impact.Narrative: callers use whichever
// string they get.
func (c *Client) ImpactNarrative(ctx context.Context, t task.Task, impacted []impact.TaskSummary) (string, error) {
	payload := map[string]any{
		"affected_task": map[string]any{
			"name":       t.Name,
			"module":     t.Module,
			"completion": t.CompletionPercent,
			"risk_level": t.RiskLevel,
		},
		"downstream_tasks": impacted,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal impact context: %w", err)
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(1024),
		System: []anthropic.TextBlockParam{
			{Text: narrativePrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Analyze cascading dependency impact:\n\n" + string(data))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API call: %v: %w", err, risk.ErrOracleUnavailable)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty oracle narrative: %w", risk.ErrOracleUnavailable)
	}
	return text, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
