package loop

import (
	"context"
	"sort"
)

// Loop is a detected strange loop: a reference path returning to its
// origin. Strength is the product of the edge strengths along the path.
type Loop struct {
	Path     []string `json:"path"`
	Strength float64  `json:"strength"`
}

// DetectLoops runs a depth-bounded DFS from startID back to startID.
// Length-1 loops (a single edge returning immediately) are excluded.
// Results are sorted by strength descending and capped to 10.
func (g *Graph) DetectLoops(ctx context.Context, startID string) ([]Loop, error) {
	if !g.enabled {
		return nil, nil
	}
	if err := g.ensureBuilt(ctx); err != nil {
		return nil, err
	}

	var loops []Loop
	path := []string{startID}
	onPath := map[string]bool{startID: true}

	var dfs func(node string, strength float64, depth int)
	dfs = func(node string, strength float64, depth int) {
		if depth >= g.maxDepth {
			return
		}
		for _, e := range g.adj[node] {
			next := strength * e.strength
			if e.target == startID {
				if len(path) > 1 {
					closed := make([]string, len(path)+1)
					copy(closed, path)
					closed[len(path)] = startID
					loops = append(loops, Loop{Path: closed, Strength: next})
				}
				continue
			}
			if onPath[e.target] {
				continue
			}
			path = append(path, e.target)
			onPath[e.target] = true
			dfs(e.target, next, depth+1)
			onPath[e.target] = false
			path = path[:len(path)-1]
		}
	}
	dfs(startID, 1.0, 0)

	sort.Slice(loops, func(i, j int) bool { return loops[i].Strength > loops[j].Strength })
	if len(loops) > maxLoopResults {
		loops = loops[:maxLoopResults]
	}
	return loops, nil
}

// hasCycle reports whether any directed cycle exists in the graph.
func (g *Graph) hasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}

	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = gray
		for _, e := range g.adj[node] {
			switch color[e.target] {
			case gray:
				return true
			case white:
				if visit(e.target) {
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	for node := range g.adj {
		if color[node] == white && visit(node) {
			return true
		}
	}
	return false
}
