// Package manager composes the canonical, semantic, and strange-loop
// layers behind one API. External callers depend on this package only;
// direct layer access is for administrative tooling.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/strangeloop-ai/memory/internal/embedding"
	"github.com/strangeloop-ai/memory/internal/loop"
	"github.com/strangeloop-ai/memory/internal/model"
	"github.com/strangeloop-ai/memory/internal/semantic"
	"github.com/strangeloop-ai/memory/internal/store"
)

// DefaultImportance is used when a capture omits importance.
const DefaultImportance = 5

// Config wires up a Manager.
type Config struct {
	DBPath            string
	Embedder          embedding.Embedder // nil disables the semantic layer
	GraphEnabled      bool
	MaxLoopDepth      int
	DefaultImportance int
}

// Manager is the orchestrator. Cross-layer writes are best-effort: a
// failed embedding or link step never rolls back the canonical insert.
type Manager struct {
	store             *store.SQLiteStore
	semantic          *semantic.Index
	graph             *loop.Graph
	defaultImportance int
}

// New opens the store and builds the three layers.
func New(cfg Config) (*Manager, error) {
	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	di := cfg.DefaultImportance
	if di < model.MinImportance || di > model.MaxImportance {
		di = DefaultImportance
	}
	return &Manager{
		store:             s,
		semantic:          semantic.New(s, cfg.Embedder),
		graph:             loop.New(s, cfg.GraphEnabled, cfg.MaxLoopDepth),
		defaultImportance: di,
	}, nil
}

// Close releases the underlying store.
func (m *Manager) Close() error { return m.store.Close() }

// Store exposes the canonical layer for administrative tooling.
func (m *Manager) Store() *store.SQLiteStore { return m.store }

// Graph exposes the strange-loop layer for administrative tooling.
func (m *Manager) Graph() *loop.Graph { return m.graph }

// CaptureParams holds capture arguments. Zero Importance means the
// configured default; SkipEmbedding turns off step (b).
type CaptureParams struct {
	Content       string
	Type          string
	Importance    int
	AgentID       string
	Context       string
	Source        string
	Tags          []string
	Entities      *model.Entities
	RelatedTo     []string
	SkipEmbedding bool
}

// Capture validates at the boundary, inserts the canonical record, then
// best-effort attaches an embedding and RELATED edges to the ids in
// RelatedTo. A duplicate propagates to the caller with the conflicting
// id; embedding and edge failures are logged, not fatal, and never undo
// the canonical insert.
func (m *Manager) Capture(ctx context.Context, p CaptureParams) (*model.Memory, error) {
	if p.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	memType, err := model.ParseMemoryType(p.Type)
	if err != nil {
		return nil, err
	}
	source, err := model.ParseSource(p.Source)
	if err != nil {
		return nil, err
	}
	importance := p.Importance
	if importance == 0 {
		importance = m.defaultImportance
	}
	if importance < model.MinImportance || importance > model.MaxImportance {
		return nil, fmt.Errorf("importance %d out of range [%d,%d]", importance, model.MinImportance, model.MaxImportance)
	}
	if p.AgentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	mem := &model.Memory{
		Content:    p.Content,
		Type:       memType,
		Importance: importance,
		AgentID:    p.AgentID,
		Context:    p.Context,
		Source:     source,
		Tags:       model.NormalizeTags(p.Tags),
		Entities:   p.Entities,
	}
	mem.ContentHash = model.ContentHash(memType, p.AgentID, p.Content)

	id, err := m.store.Capture(ctx, mem)
	if err != nil {
		return nil, err
	}

	if !p.SkipEmbedding && m.semantic.Enabled() {
		embID, err := m.semantic.EmbedMemory(ctx, id, mem.Content, mem.Context, mem.Tags)
		if err != nil {
			slog.Warn("embedding failed, memory captured without vector", "memory_id", id, "error", err)
		} else if err := m.store.SetEmbeddingID(ctx, id, embID); err != nil {
			slog.Warn("embedding link failed", "memory_id", id, "error", err)
		} else {
			mem.EmbeddingID = embID
		}
	}

	for _, target := range p.RelatedTo {
		if err := m.graph.AddReference(ctx, id, target, model.RefRelated, 1.0); err != nil {
			slog.Warn("related edge failed", "memory_id", id, "target", target, "error", err)
		}
	}

	return mem, nil
}

// SearchMode selects the search strategy.
type SearchMode string

const (
	SearchText     SearchMode = "text"
	SearchSemantic SearchMode = "semantic"
	SearchHybrid   SearchMode = "hybrid"
)

// SearchRequest holds search arguments.
type SearchRequest struct {
	Query         string
	Mode          SearchMode
	AgentID       string
	Type          string
	MinImportance int
	Limit         int
}

// SearchResult is one hit with its provenance.
type SearchResult struct {
	model.Memory
	Similarity float64 `json:"similarity,omitempty"`
	MatchedBy  string  `json:"matched_by"`
}

// Search fans out to the text and/or semantic layers. In hybrid mode
// text results come first, semantic hits are added only when the id is
// unseen, each semantic hit is re-validated against the importance
// filter, and the final ordering is by importance descending. The
// hybrid tie-breaker is importance, not relevance.
func (m *Manager) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	mode := req.Mode
	if mode == "" {
		mode = SearchHybrid
	}
	if mode != SearchText && mode != SearchSemantic && mode != SearchHybrid {
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}

	var results []SearchResult
	seen := map[string]bool{}

	if mode == SearchText || mode == SearchHybrid {
		memories, err := m.store.SearchText(ctx, store.SearchParams{
			Query:         req.Query,
			AgentID:       req.AgentID,
			Type:          req.Type,
			MinImportance: req.MinImportance,
			Limit:         limit,
		})
		if err != nil {
			return nil, fmt.Errorf("text search: %w", err)
		}
		for _, mem := range memories {
			seen[mem.ID] = true
			results = append(results, SearchResult{Memory: mem, MatchedBy: "text"})
		}
	}

	if mode == SearchSemantic || mode == SearchHybrid {
		matches, err := m.semantic.SearchSimilar(ctx, req.Query, limit, semantic.DefaultThreshold, nil)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		for _, match := range matches {
			if seen[match.MemoryID] {
				continue // first-seen id wins
			}
			mem, err := m.store.GetByID(ctx, match.MemoryID)
			if err != nil {
				continue // vector for a vanished memory
			}
			if mem.Importance < req.MinImportance {
				continue
			}
			if req.AgentID != "" && mem.AgentID != req.AgentID {
				continue
			}
			if req.Type != "" && string(mem.Type) != req.Type {
				continue
			}
			seen[mem.ID] = true
			results = append(results, SearchResult{Memory: *mem, Similarity: match.Similarity, MatchedBy: "semantic"})
		}
	}

	if mode == SearchHybrid {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Importance > results[j].Importance
		})
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// MemoryDetail is a memory with its graph-derived context attached.
// GraphEnabled distinguishes "no relations found" from "graph disabled".
type MemoryDetail struct {
	model.Memory
	GraphEnabled bool           `json:"graph_enabled"`
	Loops        []loop.Loop    `json:"loops,omitempty"`
	Related      []loop.Related `json:"related,omitempty"`
}

// GetByID fetches a memory, stamps access, and optionally attaches
// detected loops and related ids.
func (m *Manager) GetByID(ctx context.Context, id string, includeRelated bool) (*MemoryDetail, error) {
	// Stamp first so the returned record carries the fresh count.
	if err := m.store.UpdateAccess(ctx, id); err != nil {
		return nil, err
	}
	mem, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &MemoryDetail{Memory: *mem, GraphEnabled: m.graph.Enabled()}
	if includeRelated && m.graph.Enabled() {
		if detail.Loops, err = m.graph.DetectLoops(ctx, id); err != nil {
			return nil, err
		}
		if detail.Related, err = m.graph.GetRelated(ctx, id, loop.DefaultRelatedHops); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// RelatedMemory is a full record with its graph connection strength.
type RelatedMemory struct {
	model.Memory
	Strength float64 `json:"strength"`
}

// GetRelated resolves graph neighbors to full canonical records.
func (m *Manager) GetRelated(ctx context.Context, id string, maxResults int) ([]RelatedMemory, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	neighbors, err := m.graph.GetRelated(ctx, id, loop.DefaultRelatedHops)
	if err != nil {
		return nil, err
	}
	var out []RelatedMemory
	for _, n := range neighbors {
		if len(out) >= maxResults {
			break
		}
		mem, err := m.store.GetByID(ctx, n.MemoryID)
		if err != nil {
			continue
		}
		out = append(out, RelatedMemory{Memory: *mem, Strength: n.Strength})
	}
	return out, nil
}

// GetContextForTask runs the semantic layer's context-composition search
// and stamps access on every returned memory. This is the primary hook
// an agent uses to pull relevant memory into its working context.
func (m *Manager) GetContextForTask(ctx context.Context, taskDescription string, recentIDs []string, maxMemories int) ([]SearchResult, error) {
	if maxMemories <= 0 {
		maxMemories = 5
	}
	matches, err := m.semantic.GetContextMemories(ctx, taskDescription, recentIDs, maxMemories)
	if err != nil {
		return nil, err
	}

	var out []SearchResult
	for _, match := range matches {
		mem, err := m.store.GetByID(ctx, match.MemoryID)
		if err != nil {
			continue
		}
		if err := m.store.UpdateAccess(ctx, mem.ID); err != nil {
			slog.Warn("access stamp failed", "memory_id", mem.ID, "error", err)
		}
		out = append(out, SearchResult{Memory: *mem, Similarity: match.Similarity, MatchedBy: "context"})
	}
	return out, nil
}

// AddReference validates the type string and passes through to the
// graph layer.
func (m *Manager) AddReference(ctx context.Context, sourceID, targetID, refType string, strength float64) error {
	t, err := model.ParseReferenceType(refType)
	if err != nil {
		return err
	}
	return m.graph.AddReference(ctx, sourceID, targetID, t, strength)
}

// Delete removes a memory; the store cascades to embeddings, edges,
// tags, and the access log. The graph cache is invalidated.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.graph.Invalidate()
	m.semantic.Invalidate()
	return nil
}

// Stats passes through to the canonical layer's aggregates.
func (m *Manager) Stats(ctx context.Context) (*store.Stats, error) {
	return m.store.Stats(ctx)
}

// ReembedAll regenerates embeddings for every memory and re-links them.
// The repair operation for interrupted captures and provider switches:
// cross-layer writes have no transaction, so this is the compensating
// action.
func (m *Manager) ReembedAll(ctx context.Context) (int, error) {
	if !m.semantic.Enabled() {
		return 0, fmt.Errorf("no embedding provider configured")
	}
	memories, err := m.store.ExportAll(ctx, "")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, mem := range memories {
		embID, err := m.semantic.EmbedMemory(ctx, mem.ID, mem.Content, mem.Context, mem.Tags)
		if err != nil {
			return count, fmt.Errorf("re-embed %s: %w", mem.ID, err)
		}
		if err := m.store.SetEmbeddingID(ctx, mem.ID, embID); err != nil {
			return count, err
		}
		count++
	}
	slog.Info("re-embedded all memories", "count", count)
	return count, nil
}
