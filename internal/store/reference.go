package store

import (
	"context"
	"fmt"
	"time"

	"github.com/strangeloop-ai/memory/internal/model"
)

// UpsertReference creates or replaces the directed edge keyed by the
// ordered (source, target) pair. Endpoints must exist; foreign keys
// reject dangling edges.
func (s *SQLiteStore) UpsertReference(ctx context.Context, r *model.Reference) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_refs (source_id, target_id, ref_type, strength, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source_id, target_id) DO UPDATE SET
		   ref_type = excluded.ref_type,
		   strength = excluded.strength`,
		r.SourceID, r.TargetID, string(r.Type), r.Strength, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert reference %s->%s: %w", r.SourceID, r.TargetID, err)
	}
	return nil
}

// RemoveReference deletes a single directed edge.
func (s *SQLiteStore) RemoveReference(ctx context.Context, sourceID, targetID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memory_refs WHERE source_id = ? AND target_id = ?`, sourceID, targetID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: reference %s->%s", ErrNotFound, sourceID, targetID)
	}
	return nil
}

// ListReferences returns every edge, used to build the in-memory graph view.
func (s *SQLiteStore) ListReferences(ctx context.Context) ([]model.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, target_id, ref_type, strength, created_at FROM memory_refs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var r model.Reference
		var refType, createdAt string
		if err := rows.Scan(&r.SourceID, &r.TargetID, &refType, &r.Strength, &createdAt); err != nil {
			return nil, err
		}
		r.Type = model.ReferenceType(refType)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// ReferencesFrom returns the outgoing edges of one memory.
func (s *SQLiteStore) ReferencesFrom(ctx context.Context, sourceID string) ([]model.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, target_id, ref_type, strength, created_at
		 FROM memory_refs WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var r model.Reference
		var refType, createdAt string
		if err := rows.Scan(&r.SourceID, &r.TargetID, &refType, &r.Strength, &createdAt); err != nil {
			return nil, err
		}
		r.Type = model.ReferenceType(refType)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
