// Package chunker splits long text into pieces small enough to embed.
// Embeddings of the pieces are average-pooled back into one vector.
package chunker

import "strings"

const (
	DefaultTargetSize = 1200
	DefaultMaxSize    = 2000
)

// Options configures chunking behavior.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MaxSize:    DefaultMaxSize,
	}
}

// Chunk splits text into chunks. Short text (<= MaxSize) returns a
// single chunk.
func Chunk(text string, opts Options) []string {
	if opts.TargetSize == 0 {
		opts = DefaultOptions()
	}

	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}
	if len(text) <= opts.MaxSize {
		return []string{text}
	}

	// Accumulate paragraphs up to the target size, hard-splitting any
	// single paragraph that exceeds it on its own.
	var chunks []string
	var current strings.Builder

	flush := func() {
		t := strings.TrimSpace(current.String())
		if t != "" {
			chunks = append(chunks, t)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > opts.MaxSize {
			flush()
			chunks = append(chunks, hardSplit(para, opts.TargetSize)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > opts.TargetSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// hardSplit breaks oversized text on line boundaries, falling back to a
// raw byte split for a single enormous line.
func hardSplit(text string, target int) []string {
	var chunks []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		for len(line) > target {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}
			chunks = append(chunks, line[:target])
			line = line[target:]
		}
		if current.Len()+len(line)+1 > target && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		chunks = append(chunks, t)
	}

	return chunks
}
