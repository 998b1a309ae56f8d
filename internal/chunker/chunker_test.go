package chunker

import (
	"strings"
	"testing"
)

func TestChunkShortText(t *testing.T) {
	chunks := Chunk("a short memory", DefaultOptions())
	if len(chunks) != 1 || chunks[0] != "a short memory" {
		t.Errorf("expected single untouched chunk, got %v", chunks)
	}
}

func TestChunkEmpty(t *testing.T) {
	if got := Chunk("   \n\n  ", DefaultOptions()); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}

func TestChunkParagraphs(t *testing.T) {
	para := strings.Repeat("sentence goes here. ", 30) // ~600 chars
	text := para + "\n\n" + para + "\n\n" + para + "\n\n" + para

	opts := Options{TargetSize: 1200, MaxSize: 2000}
	chunks := Chunk(text, opts)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > opts.MaxSize {
			t.Errorf("chunk %d exceeds max size: %d", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestChunkOversizedLine(t *testing.T) {
	text := strings.Repeat("x", 5000)
	chunks := Chunk(text, Options{TargetSize: 1000, MaxSize: 1500})

	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != 5000 {
		t.Errorf("content lost during hard split: %d of 5000 chars", total)
	}
}
