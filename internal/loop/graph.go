// Package loop maintains the directed reference graph between memories
// and its algorithms: cycle detection, clustering, contradiction listing,
// and importance propagation.
//
// The layer is optional. When disabled every operation returns an empty,
// neutral result; callers must treat that as "unknown", not "no
// relations exist", and can check Enabled to tell the two apart.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/strangeloop-ai/memory/internal/model"
	"github.com/strangeloop-ai/memory/internal/store"
)

const (
	// DefaultMaxDepth bounds loop-detection DFS.
	DefaultMaxDepth = 5
	// maxLoopResults caps how many loops DetectLoops reports.
	maxLoopResults = 10
	// DefaultRelatedHops bounds GetRelated traversal.
	DefaultRelatedHops = 2
)

// Graph is the strange-loop layer. The adjacency view is a read-through
// cache rebuilt wholesale from storage and invalidated on every write.
type Graph struct {
	store    *store.SQLiteStore
	enabled  bool
	maxDepth int

	adj   map[string][]edge
	built bool
}

type edge struct {
	target   string
	refType  model.ReferenceType
	strength float64
}

// New creates the graph layer. maxDepth <= 0 means DefaultMaxDepth.
func New(s *store.SQLiteStore, enabled bool, maxDepth int) *Graph {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Graph{store: s, enabled: enabled, maxDepth: maxDepth}
}

// Enabled reports whether the layer is active.
func (g *Graph) Enabled() bool { return g.enabled }

// AddReference upserts a directed, typed, weighted edge and invalidates
// the cached graph view. Strength is clamped into [0,1]. A no-op when
// the layer is disabled.
func (g *Graph) AddReference(ctx context.Context, sourceID, targetID string, refType model.ReferenceType, strength float64) error {
	if !g.enabled {
		return nil
	}
	if sourceID == targetID {
		return fmt.Errorf("reference cannot point at itself: %s", sourceID)
	}
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}

	// Clear errors beat foreign-key failures from the store.
	if _, err := g.store.GetByID(ctx, sourceID); err != nil {
		return fmt.Errorf("reference source: %w", err)
	}
	if _, err := g.store.GetByID(ctx, targetID); err != nil {
		return fmt.Errorf("reference target: %w", err)
	}

	err := g.store.UpsertReference(ctx, &model.Reference{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     refType,
		Strength: strength,
	})
	if err != nil {
		return err
	}
	g.Invalidate()
	return nil
}

// RemoveReference deletes an edge and invalidates the cached view.
func (g *Graph) RemoveReference(ctx context.Context, sourceID, targetID string) error {
	if !g.enabled {
		return nil
	}
	if err := g.store.RemoveReference(ctx, sourceID, targetID); err != nil {
		return err
	}
	g.Invalidate()
	return nil
}

// Related is one memory reachable from a traversal origin.
type Related struct {
	MemoryID string  `json:"memory_id"`
	Strength float64 `json:"strength"`
	Hops     int     `json:"hops"`
}

// GetRelated walks outgoing edges breadth-first, accumulating path
// strength as the product of traversed edge strengths, sorted strongest
// first.
//
// This is a directed notion of related: A->B does not make B related to
// A unless a reciprocal edge exists. Directional reference types
// (derived_from, supersedes) depend on that asymmetry.
func (g *Graph) GetRelated(ctx context.Context, id string, maxHops int) ([]Related, error) {
	if !g.enabled {
		return nil, nil
	}
	if maxHops <= 0 {
		maxHops = DefaultRelatedHops
	}
	if err := g.ensureBuilt(ctx); err != nil {
		return nil, err
	}

	type qitem struct {
		id       string
		strength float64
		hops     int
	}

	seen := map[string]bool{id: true}
	queue := []qitem{{id: id, strength: 1.0, hops: 0}}
	var out []Related

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops >= maxHops {
			continue
		}
		for _, e := range g.adj[cur.id] {
			if seen[e.target] {
				continue
			}
			seen[e.target] = true
			r := Related{
				MemoryID: e.target,
				Strength: cur.strength * e.strength,
				Hops:     cur.hops + 1,
			}
			out = append(out, r)
			queue = append(queue, qitem{id: e.target, strength: r.Strength, hops: r.Hops})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out, nil
}

// Invalidate drops the cached adjacency view; the next read rebuilds it
// in full. O(edges), acceptable at this scale.
func (g *Graph) Invalidate() {
	g.adj = nil
	g.built = false
}

func (g *Graph) ensureBuilt(ctx context.Context) error {
	if g.built {
		return nil
	}
	refs, err := g.store.ListReferences(ctx)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	g.adj = make(map[string][]edge, len(refs))
	for _, r := range refs {
		g.adj[r.SourceID] = append(g.adj[r.SourceID], edge{
			target:   r.TargetID,
			refType:  r.Type,
			strength: r.Strength,
		})
	}
	g.built = true
	slog.Debug("graph cache rebuilt", "edges", len(refs), "sources", len(g.adj))
	return nil
}

// undirected builds the weighted undirected view used by clustering and
// component counting. Opposing directed edges merge by weight sum.
func (g *Graph) undirected() map[string]map[string]float64 {
	und := map[string]map[string]float64{}
	add := func(a, b string, w float64) {
		if und[a] == nil {
			und[a] = map[string]float64{}
		}
		und[a][b] += w
	}
	for src, edges := range g.adj {
		for _, e := range edges {
			add(src, e.target, e.strength)
			add(e.target, src, e.strength)
		}
	}
	return und
}
