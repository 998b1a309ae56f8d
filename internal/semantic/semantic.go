// Package semantic implements the vector-similarity layer: embedding
// generation for captured memories and cosine search over an in-process
// vector cache.
//
// Vector search is a brute-force scan over all stored vectors. That is a
// deliberate tradeoff at the target scale (tens of thousands of
// memories); past roughly 1e5 vectors an ANN index should replace the
// scan behind the same interface.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/strangeloop-ai/memory/internal/chunker"
	"github.com/strangeloop-ai/memory/internal/embedding"
	"github.com/strangeloop-ai/memory/internal/model"
	"github.com/strangeloop-ai/memory/internal/store"
)

const (
	// DefaultThreshold is the similarity floor for precise lookups.
	DefaultThreshold = 0.6
	// contextThreshold is the looser floor for broad context retrieval.
	contextThreshold = 0.5
	// contextRecentLimit caps how many recent memories feed the context query.
	contextRecentLimit = 3
)

// Index is the semantic layer over the canonical store and a pluggable
// embedder. A nil embedder disables the layer.
type Index struct {
	store    *store.SQLiteStore
	embedder embedding.Embedder

	// cache holds L2-normalized vectors, lazily loaded and rebuilt in
	// full whenever invalidated.
	cache  []cachedVector
	loaded bool
}

type cachedVector struct {
	memoryID string
	vector   embedding.Vector
}

// Match is one semantic search hit.
type Match struct {
	MemoryID   string  `json:"memory_id"`
	Similarity float64 `json:"similarity"`
}

// New creates the semantic index. embedder may be nil (layer disabled).
func New(s *store.SQLiteStore, embedder embedding.Embedder) *Index {
	return &Index{store: s, embedder: embedder}
}

// Enabled reports whether an embedding provider is configured.
func (x *Index) Enabled() bool { return x.embedder != nil }

// EmbedMemory generates and persists the embedding for a memory. The
// input concatenates content, context, and a tags suffix so tag and
// context signal participate in similarity. Upserts are idempotent:
// re-embedding replaces the prior vector.
func (x *Index) EmbedMemory(ctx context.Context, memoryID, content, memContext string, tags []string) (string, error) {
	if x.embedder == nil {
		return "", fmt.Errorf("no embedding provider configured")
	}

	vec, err := x.embedText(ctx, BuildInput(content, memContext, tags))
	if err != nil {
		return "", fmt.Errorf("embed memory %s: %w", memoryID, err)
	}

	emb := &model.Embedding{
		MemoryID: memoryID,
		Vector:   vec,
		Provider: x.embedder.Name(),
		Model:    x.embedder.Name(),
	}
	if err := x.store.PutEmbedding(ctx, emb); err != nil {
		return "", err
	}
	x.Invalidate()

	slog.Debug("memory embedded", "memory_id", memoryID, "dims", len(vec))
	return emb.ID, nil
}

// BuildInput assembles the embedding input text. The tags suffix is
// appended only when tags are present.
func BuildInput(content, memContext string, tags []string) string {
	parts := []string{content}
	if memContext != "" {
		parts = append(parts, memContext)
	}
	if len(tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(tags, ", "))
	}
	return strings.Join(parts, "\n\n")
}

// embedText embeds one text, chunking oversized input and average-pooling
// the chunk vectors into a single normalized vector.
func (x *Index) embedText(ctx context.Context, text string) (embedding.Vector, error) {
	chunks := chunker.Chunk(text, chunker.DefaultOptions())
	if len(chunks) == 0 {
		return nil, fmt.Errorf("empty embedding input")
	}
	if len(chunks) == 1 {
		v, err := x.embedder.Embed(ctx, chunks[0])
		if err != nil {
			return nil, err
		}
		return embedding.Normalize(v), nil
	}

	pooled := make(embedding.Vector, x.embedder.Dims())
	for i, chunk := range chunks {
		v, err := x.embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		for j := range v {
			pooled[j] += v[j]
		}
	}
	return embedding.Normalize(pooled), nil
}

// SearchSimilar embeds the query and scans all cached vectors. Results
// are filtered to similarity >= threshold, sorted descending, and capped
// to topK. Memories without an embedding are simply absent, never errors.
func (x *Index) SearchSimilar(ctx context.Context, query string, topK int, threshold float64, excludeIDs []string) ([]Match, error) {
	if x.embedder == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = 10
	}

	qv, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qv = embedding.Normalize(qv)

	if err := x.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	exclude := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = true
	}

	var matches []Match
	for _, c := range x.cache {
		if exclude[c.memoryID] {
			continue
		}
		sim := dot(qv, c.vector)
		if sim >= threshold {
			matches = append(matches, Match{MemoryID: c.memoryID, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// GetContextMemories composes a query from the current context plus the
// content of up to the last 3 recent memories, then searches with the
// looser context threshold. The recent memories themselves are excluded
// from the results.
func (x *Index) GetContextMemories(ctx context.Context, currentContext string, recentIDs []string, maxResults int) ([]Match, error) {
	if x.embedder == nil {
		return nil, nil
	}

	parts := []string{currentContext}
	start := len(recentIDs) - contextRecentLimit
	if start < 0 {
		start = 0
	}
	for _, id := range recentIDs[start:] {
		m, err := x.store.GetByID(ctx, id)
		if err != nil {
			continue // stale id, skip
		}
		parts = append(parts, m.Content)
	}

	return x.SearchSimilar(ctx, strings.Join(parts, "\n\n"), maxResults, contextThreshold, recentIDs)
}

// Invalidate drops the vector cache; the next search rebuilds it in full.
func (x *Index) Invalidate() {
	x.cache = nil
	x.loaded = false
}

func (x *Index) ensureLoaded(ctx context.Context) error {
	if x.loaded {
		return nil
	}
	embs, err := x.store.AllEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	x.cache = make([]cachedVector, 0, len(embs))
	for _, e := range embs {
		x.cache = append(x.cache, cachedVector{
			memoryID: e.MemoryID,
			vector:   embedding.Normalize(e.Vector),
		})
	}
	x.loaded = true
	slog.Debug("vector cache loaded", "vectors", len(x.cache))
	return nil
}

// dot is cosine similarity for pre-normalized vectors.
func dot(a, b embedding.Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
