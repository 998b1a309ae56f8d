package store

import (
	"context"
	"errors"
	"testing"

	"github.com/strangeloop-ai/memory/internal/model"
)

func TestUpsertReferenceReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := captureWith(t, s, "edge source", model.TypeLearning, "main", 5)
	b := captureWith(t, s, "edge target", model.TypeLearning, "main", 5)

	err := s.UpsertReference(ctx, &model.Reference{
		SourceID: a, TargetID: b, Type: model.RefRelated, Strength: 0.5,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Re-adding the same ordered pair replaces, not duplicates
	err = s.UpsertReference(ctx, &model.Reference{
		SourceID: a, TargetID: b, Type: model.RefSupports, Strength: 0.9,
	})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	refs, _ := s.ListReferences(ctx)
	if len(refs) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(refs))
	}
	if refs[0].Type != model.RefSupports || refs[0].Strength != 0.9 {
		t.Errorf("edge not replaced: %+v", refs[0])
	}
}

func TestReferenceRequiresEndpoints(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := captureWith(t, s, "lonely endpoint", model.TypeLearning, "main", 5)

	err := s.UpsertReference(ctx, &model.Reference{
		SourceID: a, TargetID: "01MISSING", Type: model.RefRelated, Strength: 1,
	})
	if err == nil {
		t.Error("expected foreign key failure for dangling target")
	}
}

func TestReferencesFrom(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := captureWith(t, s, "hub", model.TypeLearning, "main", 5)
	b := captureWith(t, s, "spoke one", model.TypeLearning, "main", 5)
	c := captureWith(t, s, "spoke two", model.TypeLearning, "main", 5)

	s.UpsertReference(ctx, &model.Reference{SourceID: a, TargetID: b, Type: model.RefRelated, Strength: 1})
	s.UpsertReference(ctx, &model.Reference{SourceID: a, TargetID: c, Type: model.RefDerivedFrom, Strength: 0.7})
	s.UpsertReference(ctx, &model.Reference{SourceID: b, TargetID: a, Type: model.RefRelated, Strength: 1})

	out, err := s.ReferencesFrom(ctx, a)
	if err != nil {
		t.Fatalf("references from: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 outgoing edges, got %d", len(out))
	}
}

func TestRemoveReference(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := captureWith(t, s, "rm source", model.TypeLearning, "main", 5)
	b := captureWith(t, s, "rm target", model.TypeLearning, "main", 5)

	s.UpsertReference(ctx, &model.Reference{SourceID: a, TargetID: b, Type: model.RefRelated, Strength: 1})
	if err := s.RemoveReference(ctx, a, b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveReference(ctx, a, b); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing edge, got %v", err)
	}
}

func TestEmbeddingUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id := captureWith(t, s, "vectorized", model.TypeLearning, "main", 5)

	e1 := &model.Embedding{MemoryID: id, Vector: []float32{1, 2, 3}, Provider: "mock", Model: "m"}
	if err := s.PutEmbedding(ctx, e1); err != nil {
		t.Fatalf("put: %v", err)
	}
	e2 := &model.Embedding{MemoryID: id, Vector: []float32{4, 5, 6}, Provider: "mock", Model: "m"}
	if err := s.PutEmbedding(ctx, e2); err != nil {
		t.Fatalf("re-put: %v", err)
	}

	if n, _ := s.CountEmbeddings(ctx); n != 1 {
		t.Errorf("expected exactly 1 live embedding, got %d", n)
	}

	got, err := s.GetEmbedding(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Vector[0] != 4 {
		t.Errorf("expected replaced vector, got %v", got.Vector)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	v := []float32{0.25, -1.5, 3.125, 0}
	got := decodeVector(encodeVector(v))
	if len(got) != len(v) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(v))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Errorf("index %d: %f != %f", i, got[i], v[i])
		}
	}
}
