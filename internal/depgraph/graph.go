package depgraph

import (
	"sort"

	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// Build constructs a dependency graph from a task snapshot. One node per
// task, one edge per valid predecessor reference. Dependencies naming a
// task ID absent from the snapshot are dropped without error. Building
// always starts from empty state, so calling Build again with the same
// input yields an identical graph.
func Build(tasks []task.Task) *Graph {
	g := &Graph{
		Nodes:  make(map[int]*Node),
		Adj:    make(map[int][]int),
		RevAdj: make(map[int][]int),
	}

	for _, t := range tasks {
		if t.ID == 0 {
			continue
		}
		g.Nodes[t.ID] = &Node{
			ID:         t.ID,
			Name:       t.Name,
			Module:     t.Module,
			Completion: t.CompletionPercent,
			Status:     t.Status,
			RiskLevel:  t.RiskLevel,
		}
	}

	edgeSet := make(map[[2]int]bool)
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := g.Nodes[dep]; !ok {
				continue // dangling reference
			}
			if _, ok := g.Nodes[t.ID]; !ok {
				continue
			}
			key := [2]int{dep, t.ID}
			if dep == t.ID || edgeSet[key] {
				continue
			}
			edgeSet[key] = true
			g.Adj[dep] = append(g.Adj[dep], t.ID)
			g.RevAdj[t.ID] = append(g.RevAdj[t.ID], dep)
		}
	}

	// Sort adjacency lists for deterministic traversal order
	for k := range g.Adj {
		sort.Ints(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Ints(g.RevAdj[k])
	}

	for id := range g.Nodes {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
	sort.Ints(g.Roots)
	sort.Ints(g.Leaves)

	return g
}

// Descendants returns every node reachable by following edges forward
// from id, sorted ascending. Unknown IDs yield an empty result. The
// visited set makes traversal safe on cyclic graphs.
func (g *Graph) Descendants(id int) []int {
	if _, ok := g.Nodes[id]; !ok {
		return nil
	}

	visited := make(map[int]bool)
	queue := append([]int(nil), g.Adj[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] || cur == id {
			continue
		}
		visited[cur] = true
		queue = append(queue, g.Adj[cur]...)
	}

	out := make([]int, 0, len(visited))
	for d := range visited {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// Predecessors returns the direct in-edges of id, sorted ascending.
func (g *Graph) Predecessors(id int) []int {
	preds := g.RevAdj[id]
	out := make([]int, len(preds))
	copy(out, preds)
	return out
}

// HasCycle reports whether the graph contains a dependency cycle.
// Uses DFS with coloring: white (unvisited), gray (in progress),
// black (done). A cycle is a normal outcome here, not an error.
func (g *Graph) HasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[int]int)

	var dfs func(node int) bool
	dfs = func(node int) bool {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				return true
			}
			if color[next] == white && dfs(next) {
				return true
			}
		}
		color[node] = black
		return false
	}

	ids := make([]int, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if color[id] == white && dfs(id) {
			return true
		}
	}
	return false
}

// CriticalPath returns the longest path through the graph counted in
// nodes: the dependency chain that bounds the minimum completion order
// at one unit of work per task. When multiple longest paths exist the
// one preferring the lowest task ID at each choice point is returned.
// A cyclic graph has no defined longest path and yields an empty list.
func (g *Graph) CriticalPath() []int {
	order, ok := g.topoSort()
	if !ok {
		return nil // cycle
	}
	if len(order) == 0 {
		return nil
	}

	// Longest-path DP over topological order. dist is the node count of
	// the longest chain ending at each node; parent reconstructs it.
	dist := make(map[int]int, len(order))
	parent := make(map[int]int, len(order))
	for _, id := range order {
		dist[id] = 1
		parent[id] = 0
		for _, pred := range g.RevAdj[id] {
			cand := dist[pred] + 1
			if cand > dist[id] || (cand == dist[id] && parent[id] != 0 && pred < parent[id]) {
				dist[id] = cand
				parent[id] = pred
			}
		}
	}

	// Endpoint with the longest chain; ties go to the lowest ID.
	end, best := 0, 0
	for _, id := range order {
		if dist[id] > best || (dist[id] == best && (end == 0 || id < end)) {
			best = dist[id]
			end = id
		}
	}

	path := make([]int, 0, best)
	for cur := end; cur != 0; cur = parent[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// topoSort runs Kahn's algorithm. ok is false when the graph has a
// cycle (not all nodes can be ordered). The ready queue stays sorted so
// the order is deterministic.
func (g *Graph) topoSort() (order []int, ok bool) {
	inDegree := make(map[int]int, len(g.Nodes))
	var queue []int
	for id := range g.Nodes {
		inDegree[id] = len(g.RevAdj[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Ints(queue)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []int
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Ints(newReady)
		queue = append(queue, newReady...)
	}

	return order, len(order) == len(g.Nodes)
}
