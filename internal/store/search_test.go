package store

import (
	"context"
	"testing"

	"github.com/strangeloop-ai/memory/internal/model"
)

func captureWith(t *testing.T, s *SQLiteStore, content string, mt model.MemoryType, agent string, importance int) string {
	t.Helper()
	m := &model.Memory{
		Content:    content,
		Type:       mt,
		Importance: importance,
		AgentID:    agent,
		Source:     model.SourceAgent,
	}
	m.ContentHash = model.ContentHash(mt, agent, content)
	id, err := s.Capture(context.Background(), m)
	if err != nil {
		t.Fatalf("capture %q: %v", content, err)
	}
	return id
}

func TestSearchTextMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	captureWith(t, s, "deployment pipelines run on kubernetes", model.TypeLearning, "main", 5)
	captureWith(t, s, "the cat sat on the mat", model.TypeEvent, "main", 5)

	results, err := s.SearchText(ctx, SearchParams{Query: "kubernetes"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Content != "deployment pipelines run on kubernetes" {
		t.Errorf("unexpected match %q", results[0].Content)
	}
}

func TestSearchTextStemming(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	captureWith(t, s, "deploying services is risky", model.TypeLearning, "main", 5)

	// Porter stemming should match "deploy" against "deploying"
	results, err := s.SearchText(ctx, SearchParams{Query: "deploy"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected stemmed match, got %d results", len(results))
	}
}

func TestSearchTextContextField(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := &model.Memory{
		Content:    "short note",
		Context:    "during the zeppelin migration",
		Type:       model.TypeEvent,
		Importance: 5,
		AgentID:    "main",
		Source:     model.SourceAgent,
	}
	m.ContentHash = model.ContentHash(m.Type, m.AgentID, m.Content)
	s.Capture(ctx, m)

	results, _ := s.SearchText(ctx, SearchParams{Query: "zeppelin"})
	if len(results) != 1 {
		t.Errorf("expected context field to be indexed, got %d results", len(results))
	}
}

func TestSearchTextFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	captureWith(t, s, "shared topic alpha", model.TypeLearning, "main", 3)
	captureWith(t, s, "shared topic beta", model.TypeInsight, "main", 8)
	captureWith(t, s, "shared topic gamma", model.TypeLearning, "helper", 5)

	byImportance, _ := s.SearchText(ctx, SearchParams{Query: "shared", MinImportance: 5})
	if len(byImportance) != 2 {
		t.Errorf("importance filter: expected 2, got %d", len(byImportance))
	}

	byAgent, _ := s.SearchText(ctx, SearchParams{Query: "shared", AgentID: "helper"})
	if len(byAgent) != 1 {
		t.Errorf("agent filter: expected 1, got %d", len(byAgent))
	}

	byType, _ := s.SearchText(ctx, SearchParams{Query: "shared", Type: "insight"})
	if len(byType) != 1 {
		t.Errorf("type filter: expected 1, got %d", len(byType))
	}
}

func TestSearchTextOrderedByImportance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	captureWith(t, s, "ranking memo low", model.TypeLearning, "main", 2)
	captureWith(t, s, "ranking memo high", model.TypeLearning, "main", 9)
	captureWith(t, s, "ranking memo mid", model.TypeLearning, "main", 5)

	results, _ := s.SearchText(ctx, SearchParams{Query: "ranking memo"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Importance != 9 || results[2].Importance != 2 {
		t.Errorf("expected importance-descending order, got %d,%d,%d",
			results[0].Importance, results[1].Importance, results[2].Importance)
	}
}

func TestSearchTextLimitAndHostileQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	captureWith(t, s, "limit one", model.TypeLearning, "main", 5)
	captureWith(t, s, "limit two", model.TypeLearning, "main", 5)

	results, _ := s.SearchText(ctx, SearchParams{Query: "limit", Limit: 1})
	if len(results) != 1 {
		t.Errorf("expected limit 1, got %d", len(results))
	}

	// FTS operator characters must not break the query
	if _, err := s.SearchText(ctx, SearchParams{Query: `"limit" AND (two`}); err != nil {
		t.Errorf("hostile query should not error: %v", err)
	}
}
