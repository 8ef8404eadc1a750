package depgraph

import "github.com/theadarsh-ai/WBSMonitor/internal/task"

// Node carries a snapshot of task state copied at graph-build time.
// Graph queries reflect build-time state, not later task mutation.
type Node struct {
	ID         int
	Name       string
	Module     string
	Completion int
	Status     string
	RiskLevel  task.RiskLevel
}

// Graph is a directed dependency graph of tasks. Edges point from
// prerequisite to dependent. Rebuilt from scratch every cycle.
type Graph struct {
	Nodes  map[int]*Node
	Adj    map[int][]int // prerequisite -> dependents
	RevAdj map[int][]int // dependent -> prerequisites
	Roots  []int         // nodes with no prerequisites
	Leaves []int         // nodes with no dependents
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, succs := range g.Adj {
		n += len(succs)
	}
	return n
}
