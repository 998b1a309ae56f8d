package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// MockEmbedder produces deterministic bag-of-words vectors without any
// model backend. Texts sharing words land near each other, which is
// enough signal for tests and offline runs.
type MockEmbedder struct {
	dims int
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{dims: dims}
}

func (e *MockEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	v := make(Vector, e.dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,:;!?\"'()")))
		v[h.Sum32()%uint32(e.dims)]++
	}
	return Normalize(v), nil
}

func (e *MockEmbedder) Dims() int    { return e.dims }
func (e *MockEmbedder) Name() string { return "mock" }
