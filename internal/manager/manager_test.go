package manager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strangeloop-ai/memory/internal/embedding"
	"github.com/strangeloop-ai/memory/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(Config{
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		Embedder:     embedding.NewMockEmbedder(64),
		GraphEnabled: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestCaptureValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Capture(ctx, CaptureParams{Content: "x", Type: "hunch", AgentID: "main"})
	assert.Error(t, err, "unknown type rejected at the boundary")

	_, err = m.Capture(ctx, CaptureParams{Content: "x", Type: "insight", AgentID: "main", Importance: 11})
	assert.Error(t, err, "importance outside [1,10] rejected")

	_, err = m.Capture(ctx, CaptureParams{Content: "", Type: "insight", AgentID: "main"})
	assert.Error(t, err, "empty content rejected")

	_, err = m.Capture(ctx, CaptureParams{Content: "x", Type: "insight"})
	assert.Error(t, err, "missing agent rejected")

	_, err = m.Capture(ctx, CaptureParams{Content: "x", Type: "insight", AgentID: "main", Source: "telepathy"})
	assert.Error(t, err, "unknown source rejected")
}

func TestCaptureDefaults(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	mem, err := m.Capture(ctx, CaptureParams{
		Content: "defaults apply",
		Type:    "learning",
		AgentID: "main",
		Tags:    []string{"Mixed Case", "mixed-case"},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultImportance, mem.Importance)
	assert.Equal(t, "agent", string(mem.Source))
	assert.Equal(t, []string{"mixed-case"}, mem.Tags, "tags normalized and deduped")
	assert.NotEmpty(t, mem.EmbeddingID, "embedding generated and linked at capture")
}

func TestCaptureDuplicatePropagates(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	first, err := m.Capture(ctx, CaptureParams{Content: "once only", Type: "learning", AgentID: "main"})
	require.NoError(t, err)

	_, err = m.Capture(ctx, CaptureParams{Content: "Once  ONLY", Type: "learning", AgentID: "main"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDuplicateContent)

	var dup *store.DuplicateContentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingID, "caller can fetch instead of create")
}

func TestCaptureSkipEmbedding(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	mem, err := m.Capture(ctx, CaptureParams{
		Content: "no vector please", Type: "learning", AgentID: "main", SkipEmbedding: true,
	})
	require.NoError(t, err)
	assert.Empty(t, mem.EmbeddingID)
}

func TestHybridSearchDeduplicates(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	// Matches both text search and semantic search.
	mem, err := m.Capture(ctx, CaptureParams{
		Content: "kubernetes rollout procedure", Type: "learning", AgentID: "main",
	})
	require.NoError(t, err)

	results, err := m.Search(ctx, SearchRequest{Query: "kubernetes rollout procedure", Mode: SearchHybrid})
	require.NoError(t, err)

	count := 0
	for _, r := range results {
		if r.ID == mem.ID {
			count++
			assert.Equal(t, "text", r.MatchedBy, "first-seen id wins")
		}
	}
	assert.Equal(t, 1, count, "hybrid never returns the same id twice")
}

func TestHybridSearchOrderedByImportance(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Capture(ctx, CaptureParams{
		Content: "incident postmortem minor detail", Type: "learning", AgentID: "main", Importance: 2,
	})
	require.NoError(t, err)
	_, err = m.Capture(ctx, CaptureParams{
		Content: "incident postmortem root cause", Type: "insight", AgentID: "main", Importance: 9,
	})
	require.NoError(t, err)

	results, err := m.Search(ctx, SearchRequest{Query: "incident postmortem", Mode: SearchHybrid})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Importance, results[i].Importance,
			"hybrid ranks by importance, not relevance")
	}
}

func TestSearchFiltersSemanticHits(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Capture(ctx, CaptureParams{
		Content: "obscure trivia about planets", Type: "learning", AgentID: "main", Importance: 2,
	})
	require.NoError(t, err)

	results, err := m.Search(ctx, SearchRequest{
		Query: "obscure trivia about planets", Mode: SearchSemantic, MinImportance: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, results, "semantic hits re-validated against the importance filter")
}

func TestEndToEndCaptureAndRelations(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	m1, err := m.Capture(ctx, CaptureParams{
		Content:    "R_V metrics show consciousness signatures",
		Type:       "insight",
		AgentID:    "main",
		Tags:       []string{"consciousness", "R_V"},
		Importance: 9,
	})
	require.NoError(t, err)

	m2, err := m.Capture(ctx, CaptureParams{
		Content:   "Layer 27 is causally necessary for the observed signatures",
		Type:      "learning",
		AgentID:   "main",
		RelatedTo: []string{m1.ID},
	})
	require.NoError(t, err)

	related, err := m.GetRelated(ctx, m2.ID, 10)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, m1.ID, related[0].ID)
	assert.Equal(t, 1.0, related[0].Strength)

	// Directed asymmetry: M1 has no outgoing edge to M2.
	reverse, err := m.GetRelated(ctx, m1.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, reverse)
}

func TestGetByIDStampsAccessAndAttachesGraph(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	a, err := m.Capture(ctx, CaptureParams{Content: "graph detail a", Type: "learning", AgentID: "main"})
	require.NoError(t, err)
	b, err := m.Capture(ctx, CaptureParams{Content: "graph detail b", Type: "learning", AgentID: "main", RelatedTo: []string{a.ID}})
	require.NoError(t, err)
	require.NoError(t, m.AddReference(ctx, a.ID, b.ID, "supports", 0.8))

	detail, err := m.GetByID(ctx, b.ID, true)
	require.NoError(t, err)

	assert.True(t, detail.GraphEnabled)
	assert.NotEmpty(t, detail.Related)
	assert.NotEmpty(t, detail.Loops, "mutual edges form a strange loop")
	assert.Equal(t, 1, detail.AccessCount)

	_, err = m.GetByID(ctx, "01MISSING", false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetContextForTaskStampsAccess(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	mem, err := m.Capture(ctx, CaptureParams{
		Content: "scheduler deadlock happens under load", Type: "learning", AgentID: "main",
	})
	require.NoError(t, err)

	results, err := m.GetContextForTask(ctx, "investigating the scheduler deadlock under load", nil, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	got, err := m.GetByID(ctx, mem.ID, false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.AccessCount, 1, "context retrieval stamps access")
}

func TestDeleteInvalidatesLayers(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	a, err := m.Capture(ctx, CaptureParams{Content: "delete me", Type: "learning", AgentID: "main"})
	require.NoError(t, err)
	b, err := m.Capture(ctx, CaptureParams{Content: "survivor", Type: "learning", AgentID: "main", RelatedTo: []string{a.ID}})
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, a.ID))

	related, err := m.GetRelated(ctx, b.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, related, "edges to the deleted memory are gone")

	results, err := m.Search(ctx, SearchRequest{Query: "delete me", Mode: SearchSemantic})
	require.NoError(t, err)
	assert.Empty(t, results, "vector cache rebuilt without the deleted memory")
}

func TestStatsCountsCaptures(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Capture(ctx, CaptureParams{Content: "stat one", Type: "learning", AgentID: "main"})
	require.NoError(t, err)
	_, err = m.Capture(ctx, CaptureParams{Content: "stat two", Type: "event", AgentID: "main"})
	require.NoError(t, err)
	// A failed duplicate does not count.
	_, err = m.Capture(ctx, CaptureParams{Content: "stat one", Type: "learning", AgentID: "main"})
	require.Error(t, err)

	st, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalMemories)
}

func TestReembedAll(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	// Captured without a vector, then backfilled.
	mem, err := m.Capture(ctx, CaptureParams{
		Content: "late vector", Type: "learning", AgentID: "main", SkipEmbedding: true,
	})
	require.NoError(t, err)

	count, err := m.ReembedAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := m.GetByID(ctx, mem.ID, false)
	require.NoError(t, err)
	assert.NotEmpty(t, got.EmbeddingID)
}

func TestGraphDisabledManager(t *testing.T) {
	ctx := context.Background()
	m, err := New(Config{
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		Embedder:     embedding.NewMockEmbedder(64),
		GraphEnabled: false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	a, err := m.Capture(ctx, CaptureParams{Content: "flat world", Type: "learning", AgentID: "main"})
	require.NoError(t, err)

	detail, err := m.GetByID(ctx, a.ID, true)
	require.NoError(t, err)
	assert.False(t, detail.GraphEnabled, "unknown, not 'no relations exist'")
	assert.Empty(t, detail.Related)
}
