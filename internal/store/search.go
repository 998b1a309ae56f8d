package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/strangeloop-ai/memory/internal/model"
)

// SearchParams holds parameters for full-text search.
type SearchParams struct {
	Query         string
	AgentID       string
	Type          string
	MinImportance int
	Limit         int
}

// SearchText runs a stemmed full-text match over content and context,
// filters by agent/type/importance, and orders by importance descending
// then text relevance.
func (s *SQLiteStore) SearchText(ctx context.Context, p SearchParams) ([]model.Memory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	match := ftsQuery(p.Query)
	if match == "" {
		return nil, nil
	}

	where := []string{"memories_fts MATCH ?", "m.importance >= ?"}
	args := []interface{}{match, p.MinImportance}

	if p.AgentID != "" {
		where = append(where, "m.agent_id = ?")
		args = append(args, p.AgentID)
	}
	if p.Type != "" {
		where = append(where, "m.type = ?")
		args = append(args, p.Type)
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.created_at, m.updated_at, m.content, m.context, m.content_hash,
		       m.type, m.importance, m.agent_id, m.source, m.tags, m.entities,
		       m.embedding_id, m.access_count, m.last_accessed
		FROM memories m
		INNER JOIN memories_fts ON memories_fts.rowid = m.rowid
		WHERE %s
		ORDER BY m.importance DESC, bm25(memories_fts) ASC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemories(rows)
}

// ftsQuery quotes each term so user input cannot break FTS5 syntax.
// Terms combine with implicit AND.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}
