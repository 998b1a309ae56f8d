package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath          string       `json:"db_path"`
	DBSizeBytes     int64        `json:"db_size_bytes"`
	TotalMemories   int          `json:"total_memories"`
	TotalEmbeddings int          `json:"total_embeddings"`
	TotalReferences int          `json:"total_references"`
	TotalTags       int          `json:"total_tags"`
	ByType          []BucketStat `json:"by_type"`
	ByAgent         []BucketStat `json:"by_agent"`
}

// BucketStat is a count grouped by one dimension.
type BucketStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats returns aggregate counts across all layers' tables.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&st.TotalEmbeddings)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_refs`).Scan(&st.TotalReferences)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE usage_count > 0`).Scan(&st.TotalTags)

	byType, err := s.bucketCounts(ctx, `SELECT type, COUNT(*) FROM memories GROUP BY type ORDER BY COUNT(*) DESC`)
	if err != nil {
		return st, err
	}
	st.ByType = byType

	byAgent, err := s.bucketCounts(ctx, `SELECT agent_id, COUNT(*) FROM memories GROUP BY agent_id ORDER BY COUNT(*) DESC`)
	if err != nil {
		return st, err
	}
	st.ByAgent = byAgent

	return st, nil
}

func (s *SQLiteStore) bucketCounts(ctx context.Context, query string) ([]BucketStat, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BucketStat
	for rows.Next() {
		var b BucketStat
		if err := rows.Scan(&b.Name, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
