package loop

import (
	"context"
	"math"
	"sort"

	"github.com/strangeloop-ai/memory/internal/model"
)

const (
	// propagationDepth bounds importance spread to < 3 hops.
	propagationDepth = 3
	// propagationCutoff halts recursion once the spread magnitude
	// drops below it, limiting fan-out.
	propagationCutoff = 0.5
)

// FindClusters treats the graph as undirected and runs a single-level
// modularity optimization (greedy node moves until stable). Only
// communities with at least minSize members are returned, largest first.
func (g *Graph) FindClusters(ctx context.Context, minSize int) ([][]string, error) {
	if !g.enabled {
		return nil, nil
	}
	if minSize < 2 {
		minSize = 2
	}
	if err := g.ensureBuilt(ctx); err != nil {
		return nil, err
	}

	und := g.undirected()
	if len(und) == 0 {
		return nil, nil
	}

	nodes := make([]string, 0, len(und))
	for n := range und {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes) // deterministic iteration

	// Weighted degree per node and total edge weight.
	degree := map[string]float64{}
	var m float64
	for n, neighbors := range und {
		for _, w := range neighbors {
			degree[n] += w
			m += w
		}
	}
	m /= 2
	if m == 0 {
		return nil, nil
	}

	community := map[string]int{}
	commTotal := map[int]float64{} // sum of degrees per community
	for i, n := range nodes {
		community[n] = i
		commTotal[i] = degree[n]
	}

	for pass := 0; pass < 20; pass++ {
		moved := false
		for _, n := range nodes {
			cur := community[n]

			// Weight from n into each neighboring community.
			toComm := map[int]float64{}
			for nb, w := range und[n] {
				toComm[community[nb]] += w
			}

			commTotal[cur] -= degree[n]
			bestComm, bestGain := cur, 0.0
			for c, w := range toComm {
				gain := w - commTotal[c]*degree[n]/(2*m)
				if gain > bestGain {
					bestComm, bestGain = c, gain
				}
			}
			baseline := toComm[cur] - commTotal[cur]*degree[n]/(2*m)
			if bestComm != cur && bestGain > baseline {
				community[n] = bestComm
				commTotal[bestComm] += degree[n]
				moved = true
			} else {
				commTotal[cur] += degree[n]
			}
		}
		if !moved {
			break
		}
	}

	groups := map[int][]string{}
	for n, c := range community {
		groups[c] = append(groups[c], n)
	}

	var clusters [][]string
	for _, members := range groups {
		if len(members) >= minSize {
			sort.Strings(members)
			clusters = append(clusters, members)
		}
	}
	sort.Slice(clusters, func(i, j int) bool { return len(clusters[i]) > len(clusters[j]) })
	return clusters, nil
}

// FindContradictions returns every contradicts-typed edge with strength.
func (g *Graph) FindContradictions(ctx context.Context) ([]model.Reference, error) {
	if !g.enabled {
		return nil, nil
	}
	refs, err := g.store.ListReferences(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Reference
	for _, r := range refs {
		if r.Type == model.RefContradicts {
			out = append(out, r)
		}
	}
	return out, nil
}

// PropagateImportance spreads an importance delta from sourceID to its
// graph successors, multiplying by decay per hop. Every affected
// memory's importance stays clamped in [1,10]. Recursion stops past
// depth 3 or once the propagated magnitude drops below 0.5. Returns the
// number of memories touched.
func (g *Graph) PropagateImportance(ctx context.Context, sourceID string, delta, decay float64) (int, error) {
	if !g.enabled {
		return 0, nil
	}
	if err := g.ensureBuilt(ctx); err != nil {
		return 0, err
	}

	visited := map[string]bool{sourceID: true}
	affected := 0

	var spread func(id string, d float64, depth int) error
	spread = func(id string, d float64, depth int) error {
		if depth >= propagationDepth {
			return nil
		}
		next := d * decay
		if math.Abs(next) < propagationCutoff {
			return nil
		}
		for _, e := range g.adj[id] {
			if visited[e.target] {
				continue
			}
			visited[e.target] = true

			mem, err := g.store.GetByID(ctx, e.target)
			if err != nil {
				continue // edge to a vanished memory, skip
			}
			imp := clampImportance(int(math.Round(float64(mem.Importance) + next)))
			if imp != mem.Importance {
				if err := g.store.SetImportance(ctx, e.target, imp); err != nil {
					return err
				}
			}
			affected++

			if err := spread(e.target, next, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := spread(sourceID, delta, 0); err != nil {
		return affected, err
	}
	return affected, nil
}

func clampImportance(n int) int {
	if n < model.MinImportance {
		return model.MinImportance
	}
	if n > model.MaxImportance {
		return model.MaxImportance
	}
	return n
}

// Analysis is the structural self-report of the reference graph.
type Analysis struct {
	Enabled    bool    `json:"enabled"`
	Nodes      int     `json:"nodes"`
	Edges      int     `json:"edges"`
	Density    float64 `json:"density"`
	HasCycle   bool    `json:"has_cycle"`
	Components int     `json:"components"`
}

// AnalyzeSelf reports node/edge counts, reference density, whether any
// cycle exists, and the weakly-connected component count.
func (g *Graph) AnalyzeSelf(ctx context.Context) (*Analysis, error) {
	if !g.enabled {
		return &Analysis{Enabled: false}, nil
	}
	if err := g.ensureBuilt(ctx); err != nil {
		return nil, err
	}

	ids, err := g.store.MemoryIDs(ctx)
	if err != nil {
		return nil, err
	}

	edges := 0
	for _, out := range g.adj {
		edges += len(out)
	}

	a := &Analysis{
		Enabled: true,
		Nodes:   len(ids),
		Edges:   edges,
	}
	if len(ids) > 1 {
		a.Density = float64(edges) / float64(len(ids)*(len(ids)-1))
	}
	a.HasCycle = g.hasCycle()

	// Weakly-connected components over all memories; isolated memories
	// each count as their own component.
	und := g.undirected()
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		a.Components++
		stack := []string{id}
		seen[id] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for nb := range und[n] {
				if !seen[nb] {
					seen[nb] = true
					stack = append(stack, nb)
				}
			}
		}
	}

	return a, nil
}
