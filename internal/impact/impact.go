// Package impact derives downstream impact reports and cross-module
// dependency summaries from a built dependency graph.
package impact

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theadarsh-ai/WBSMonitor/internal/depgraph"
	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// TaskSummary is the graph-snapshot view of an impacted task.
type TaskSummary struct {
	ID         int    `json:"task_id"`
	Name       string `json:"task_name"`
	Module     string `json:"module"`
	Completion int    `json:"completion"`
	Status     string `json:"status"`
}

// Downstream resolves every transitive dependent of id to its
// graph-snapshot summary, sorted by task ID.
func Downstream(g *depgraph.Graph, id int) []TaskSummary {
	var out []TaskSummary
	for _, did := range g.Descendants(id) {
		n := g.Nodes[did]
		out = append(out, TaskSummary{
			ID:         n.ID,
			Name:       n.Name,
			Module:     n.Module,
			Completion: n.Completion,
			Status:     n.Status,
		})
	}
	return out
}

// ModuleDependencies maps each module to the modules its tasks directly
// depend on. Only tasks with a non-empty module participate, and
// same-module edges are skipped. Values are sorted for determinism.
// The result is a reporting adjacency; it is not guaranteed acyclic.
func ModuleDependencies(tasks []task.Task, g *depgraph.Graph) map[string][]string {
	deps := make(map[string]map[string]bool)

	for _, t := range tasks {
		if t.Module == "" {
			continue
		}
		if deps[t.Module] == nil {
			deps[t.Module] = make(map[string]bool)
		}
		for _, pred := range g.Predecessors(t.ID) {
			predModule := g.Nodes[pred].Module
			if predModule != "" && predModule != t.Module {
				deps[t.Module][predModule] = true
			}
		}
	}

	out := make(map[string][]string, len(deps))
	for module, set := range deps {
		list := make([]string, 0, len(set))
		for m := range set {
			list = append(list, m)
		}
		sort.Strings(list)
		out[module] = list
	}
	return out
}

// Narrative produces the deterministic impact explanation: how many
// tasks a delay reaches, across which modules, and how many of those
// are still incomplete. Oracle-backed explanations share this return
// type so callers never care which produced the text.
func Narrative(t task.Task, impacted []TaskSummary) string {
	if len(impacted) == 0 {
		return "No direct downstream dependencies. Task is a leaf node."
	}

	moduleSet := make(map[string]bool)
	incomplete := 0
	for _, imp := range impacted {
		if imp.Module != "" {
			moduleSet[imp.Module] = true
		}
		if imp.Completion < 100 {
			incomplete++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Impacts %d downstream task(s)", len(impacted))
	if len(moduleSet) > 0 {
		modules := make([]string, 0, len(moduleSet))
		for m := range moduleSet {
			modules = append(modules, m)
		}
		sort.Strings(modules)
		fmt.Fprintf(&b, " across %d module(s): %s", len(modules), strings.Join(modules, ", "))
	}
	if incomplete > 0 {
		fmt.Fprintf(&b, ". %d incomplete task(s) at risk.", incomplete)
	}
	return b.String()
}
