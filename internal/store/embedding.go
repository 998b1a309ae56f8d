package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/strangeloop-ai/memory/internal/model"
)

// PutEmbedding upserts the embedding for a memory. At most one embedding
// exists per memory id; re-embedding replaces the vector wholesale.
func (s *SQLiteStore) PutEmbedding(ctx context.Context, e *model.Embedding) error {
	if e.ID == "" {
		e.ID = s.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO embeddings (id, memory_id, vector, dims, provider, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(memory_id) DO UPDATE SET
		   id = excluded.id,
		   vector = excluded.vector,
		   dims = excluded.dims,
		   provider = excluded.provider,
		   model = excluded.model,
		   created_at = excluded.created_at`,
		e.ID, e.MemoryID, encodeVector(e.Vector), len(e.Vector),
		e.Provider, e.Model, e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// GetEmbedding fetches the embedding for a memory id.
func (s *SQLiteStore) GetEmbedding(ctx context.Context, memoryID string) (*model.Embedding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, memory_id, vector, provider, model, created_at
		 FROM embeddings WHERE memory_id = ?`, memoryID)
	e, err := scanEmbedding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: embedding for %s", ErrNotFound, memoryID)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// AllEmbeddings returns every stored embedding, used to populate the
// in-process vector cache.
func (s *SQLiteStore) AllEmbeddings(ctx context.Context) ([]model.Embedding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, memory_id, vector, provider, model, created_at FROM embeddings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Embedding
	for rows.Next() {
		e, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// CountEmbeddings reports how many memories currently have a vector.
func (s *SQLiteStore) CountEmbeddings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n)
	return n, err
}

func scanEmbedding(row scanner) (*model.Embedding, error) {
	var e model.Embedding
	var blob []byte
	var createdAt string
	if err := row.Scan(&e.ID, &e.MemoryID, &blob, &e.Provider, &e.Model, &createdAt); err != nil {
		return nil, err
	}
	e.Vector = decodeVector(blob)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// Vectors persist as little-endian float32 blobs.

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
