package store

import (
	"context"
	"errors"

	"github.com/strangeloop-ai/memory/internal/model"
)

// ExportAll returns all memories, optionally filtered by agent.
func (s *SQLiteStore) ExportAll(ctx context.Context, agentID string) ([]model.Memory, error) {
	query := selectMemory
	args := []interface{}{}
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemories(rows)
}

// Import captures memories from an export. Duplicates (same content hash)
// are skipped, not errors. Returns (imported, skipped).
func (s *SQLiteStore) Import(ctx context.Context, memories []model.Memory) (int, int, error) {
	imported, skipped := 0, 0
	for i := range memories {
		m := memories[i]
		m.ID = ""
		if m.ContentHash == "" {
			m.ContentHash = model.ContentHash(m.Type, m.AgentID, m.Content)
		}
		_, err := s.Capture(ctx, &m)
		if errors.Is(err, ErrDuplicateContent) {
			skipped++
			continue
		}
		if err != nil {
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}
