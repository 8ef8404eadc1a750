// Package report renders a monitoring result for terminals and for
// machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/theadarsh-ai/WBSMonitor/internal/monitor"
	"github.com/theadarsh-ai/WBSMonitor/internal/task"
	"github.com/theadarsh-ai/WBSMonitor/internal/ui"
)

// Reporter provides status display for a completed monitoring cycle.
type Reporter struct {
	Result *monitor.Result
}

// New creates a Reporter.
func New(result *monitor.Result) *Reporter {
	return &Reporter{Result: result}
}

// PrintSummary writes a terminal-friendly cycle breakdown.
func (r *Reporter) PrintSummary(w io.Writer) {
	res := r.Result

	fmt.Fprintf(w, "%s %s  %d tasks analyzed\n\n",
		ui.BoldCyan("WBS Monitor"),
		ui.Dim(res.RanAt.Format("2006-01-02 15:04")),
		res.TotalTasks)

	if res.TotalTasks == 0 {
		fmt.Fprintf(w, "  %s\n", ui.Dim("No tasks in this cycle."))
		return
	}

	for _, level := range task.Levels {
		tier := res.Categorized[level]
		fmt.Fprintf(w, "  %s %s (%d)\n", ui.RiskIcon(level), ui.RiskLabel(level), len(tier))
		for _, t := range tier {
			r.printTask(w, t)
		}
		fmt.Fprintln(w)
	}

	if len(res.CriticalPath) > 0 {
		ids := make([]string, len(res.CriticalPath))
		for i, id := range res.CriticalPath {
			ids[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(w, "%s %s\n", ui.BoldYellow("Critical path:"), strings.Join(ids, " → "))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.BoldYellow("Critical path:"), ui.Dim("none (empty or cyclic graph)"))
	}

	if len(res.ModuleDeps) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldWhite("Module dependencies:"))
		modules := make([]string, 0, len(res.ModuleDeps))
		for m := range res.ModuleDeps {
			modules = append(modules, m)
		}
		sort.Strings(modules)
		for _, m := range modules {
			if len(res.ModuleDeps[m]) == 0 {
				continue
			}
			fmt.Fprintf(w, "  %s %s %s\n", ui.Magenta(m), ui.Dim("depends on"), strings.Join(res.ModuleDeps[m], ", "))
		}
	}

	if len(res.Impacts) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldWhite("Downstream impact:"))
		for _, rep := range res.Impacts {
			fmt.Fprintf(w, "  %s %s: %s\n", ui.RiskIcon(rep.RiskLevel), ui.BoldMagenta(rep.TaskName), rep.Narrative)
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldWhite("Reallocations:"))
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "  task %d: %s %s %s  %s\n",
				s.TaskID, s.FromAssignee, ui.Dim("→"), ui.Bold(s.ToAssignee), ui.Dim("("+s.Reason+")"))
		}
	}

	if n := len(res.Messages); n > 0 {
		fmt.Fprintf(w, "\n%s %d notification(s) composed\n", ui.Cyan("✉"), n)
	}
}

func (r *Reporter) printTask(w io.Writer, t task.Task) {
	name := t.Name
	if len(name) > 40 {
		name = name[:37] + "..."
	}
	due := "no deadline"
	if t.EndDate != nil {
		due = "due " + t.EndDate.Format("Jan 2")
	}
	fmt.Fprintf(w, "    %-40s %3d%%  %-12s %s\n", name, t.CompletionPercent, due, ui.Dim(t.RiskReason))
}

// JSON returns the machine-readable result.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Result, "", "  ")
}
