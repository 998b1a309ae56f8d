package embedding

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float64
		delta    float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0, 0.001},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0, 0.001},
		{"opposite", Vector{1, 0, 0}, Vector{-1, 0, 0}, -1.0, 0.001},
		{"similar", Vector{1, 1, 0}, Vector{1, 0, 0}, 0.707, 0.01},
		{"empty", Vector{}, Vector{}, 0.0, 0.001},
		{"different lengths", Vector{1, 0}, Vector{1, 0, 0}, 0.0, 0.001},
		{"zero vector", Vector{0, 0, 0}, Vector{1, 0, 0}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f (±%f)", tt.a, tt.b, got, tt.expected, tt.delta)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize(Vector{3, 4})
	if math.Abs(float64(v[0])-0.6) > 0.001 || math.Abs(float64(v[1])-0.8) > 0.001 {
		t.Errorf("Normalize(3,4) = %v, want (0.6, 0.8)", v)
	}

	zero := Normalize(Vector{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector should stay zero, got %v", zero)
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	e := NewMockEmbedder(64)

	a, err := e.Embed(ctx, "the strange loop returns")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(ctx, "the strange loop returns")
	if CosineSimilarity(a, b) < 0.999 {
		t.Error("identical text should produce identical vectors")
	}

	c, _ := e.Embed(ctx, "unrelated grocery list")
	if sim := CosineSimilarity(a, c); sim > 0.5 {
		t.Errorf("unrelated texts too similar: %f", sim)
	}

	overlap, _ := e.Embed(ctx, "a strange loop appears")
	if CosineSimilarity(a, overlap) <= CosineSimilarity(a, c) {
		t.Error("shared words should raise similarity")
	}
}

func TestNewDisabled(t *testing.T) {
	if e := New(Config{}); e != nil {
		t.Error("expected nil embedder when no provider configured")
	}
	if e := New(Config{Provider: "mock"}); e == nil || e.Dims() != 64 {
		t.Error("mock provider should default to 64 dims")
	}
}
