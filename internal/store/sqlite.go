// Package store provides the canonical SQLite-backed memory store: the
// structured records, full-text shadow index, tags, access log, persisted
// embeddings, and reference edges all live in one database file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/strangeloop-ai/memory/internal/model"
)

// ErrNotFound is returned by lookups whose id does not resolve.
var ErrNotFound = errors.New("memory not found")

// ErrDuplicateContent is the sentinel matched by errors.Is for captures
// whose content hash already exists.
var ErrDuplicateContent = errors.New("duplicate content")

// DuplicateContentError carries the id of the conflicting memory so the
// caller can fetch instead of create.
type DuplicateContentError struct {
	ExistingID string
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content: existing memory %s", e.ExistingID)
}

func (e *DuplicateContentError) Unwrap() error { return ErrDuplicateContent }

// SQLiteStore implements the canonical layer on a single SQLite file.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates the database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewID returns a fresh ULID.
func (s *SQLiteStore) NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id            TEXT PRIMARY KEY,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		content       TEXT NOT NULL,
		context       TEXT,
		content_hash  TEXT NOT NULL UNIQUE,
		type          TEXT NOT NULL,
		importance    INTEGER NOT NULL DEFAULT 5,
		agent_id      TEXT NOT NULL,
		source        TEXT NOT NULL DEFAULT 'agent',
		tags          TEXT,
		entities      TEXT,
		embedding_id  TEXT,
		access_count  INTEGER NOT NULL DEFAULT 0,
		last_accessed TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);
	CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(agent_id);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);

	CREATE TABLE IF NOT EXISTS tags (
		name        TEXT PRIMARY KEY,
		usage_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS memory_tags (
		memory_id TEXT NOT NULL REFERENCES memories(id),
		tag       TEXT NOT NULL REFERENCES tags(name),
		PRIMARY KEY (memory_id, tag)
	);
	CREATE INDEX IF NOT EXISTS idx_memory_tags_tag ON memory_tags(tag);

	CREATE TABLE IF NOT EXISTS access_log (
		memory_id   TEXT NOT NULL REFERENCES memories(id),
		accessed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_access_log_memory ON access_log(memory_id);

	CREATE TABLE IF NOT EXISTS embeddings (
		id         TEXT PRIMARY KEY,
		memory_id  TEXT NOT NULL UNIQUE REFERENCES memories(id),
		vector     BLOB NOT NULL,
		dims       INTEGER NOT NULL,
		provider   TEXT NOT NULL,
		model      TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memory_refs (
		source_id  TEXT NOT NULL REFERENCES memories(id),
		target_id  TEXT NOT NULL REFERENCES memories(id),
		ref_type   TEXT NOT NULL,
		strength   REAL NOT NULL DEFAULT 1.0,
		created_at TEXT NOT NULL,
		PRIMARY KEY (source_id, target_id)
	);
	CREATE INDEX IF NOT EXISTS idx_refs_target ON memory_refs(target_id);
	CREATE INDEX IF NOT EXISTS idx_refs_type ON memory_refs(ref_type);

	CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		content,
		context,
		content=memories,
		content_rowid=rowid,
		tokenize='porter unicode61'
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers for automatic sync
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
		INSERT INTO memories_fts(rowid, content, context) VALUES (new.rowid, new.content, new.context);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, content, context) VALUES('delete', old.rowid, old.content, old.context);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE OF content, context ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, content, context) VALUES('delete', old.rowid, old.content, old.context);
		INSERT INTO memories_fts(rowid, content, context) VALUES (new.rowid, new.content, new.context);
	END`)

	return nil
}

// Capture atomically inserts a memory, its tag rows, and (via triggers)
// its full-text index entry. Fails with DuplicateContentError before
// writing anything when the content hash already exists.
func (s *SQLiteStore) Capture(ctx context.Context, m *model.Memory) (string, error) {
	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = s.NewID()
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM memories WHERE content_hash = ?`, m.ContentHash).Scan(&existing)
	if err == nil {
		return "", &DuplicateContentError{ExistingID: existing}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	var tagsJSON, entitiesJSON *string
	if len(m.Tags) > 0 {
		b, _ := json.Marshal(m.Tags)
		str := string(b)
		tagsJSON = &str
	}
	if m.Entities != nil {
		b, _ := json.Marshal(m.Entities)
		str := string(b)
		entitiesJSON = &str
	}

	var contextPtr *string
	if m.Context != "" {
		contextPtr = &m.Context
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, created_at, updated_at, content, context, content_hash,
		                       type, importance, agent_id, source, tags, entities, access_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		m.ID, now.Format(time.RFC3339), now.Format(time.RFC3339), m.Content, contextPtr,
		m.ContentHash, string(m.Type), m.Importance, m.AgentID, string(m.Source),
		tagsJSON, entitiesJSON)
	if err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}

	for _, tag := range m.Tags {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tags (name, usage_count) VALUES (?, 1)
			 ON CONFLICT(name) DO UPDATE SET usage_count = usage_count + 1`, tag)
		if err != nil {
			return "", fmt.Errorf("upsert tag: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO memory_tags (memory_id, tag) VALUES (?, ?)`, m.ID, tag)
		if err != nil {
			return "", fmt.Errorf("insert memory tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return m.ID, nil
}

// GetByID fetches a single memory. Returns ErrNotFound when absent.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, selectMemory+` WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateAccess increments the access counter, stamps last_accessed, and
// appends to the access log. A popularity signal only; nothing is evicted.
func (s *SQLiteStore) UpdateAccess(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`,
		now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO access_log (memory_id, accessed_at) VALUES (?, ?)`, id, now)
	return err
}

// SetImportance updates a memory's importance score.
func (s *SQLiteStore) SetImportance(ctx context.Context, id string, importance int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET importance = ?, updated_at = ? WHERE id = ?`,
		importance, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SetEmbeddingID links an embedding record back onto its memory.
func (s *SQLiteStore) SetEmbeddingID(ctx context.Context, id, embeddingID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET embedding_id = ?, updated_at = ? WHERE id = ?`,
		embeddingID, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a memory and cascades to its embedding, edges, tag
// associations (decrementing usage counts), and access log, in one
// transaction.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE tags SET usage_count = usage_count - 1
		 WHERE name IN (SELECT tag FROM memory_tags WHERE memory_id = ?)`, id)
	if err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM memory_tags WHERE memory_id = ?`,
		`DELETE FROM access_log WHERE memory_id = ?`,
		`DELETE FROM embeddings WHERE memory_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memory_refs WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return tx.Commit()
}

// ListParams filters List.
type ListParams struct {
	AgentID string
	Type    string
	Tag     string
	Limit   int
}

// List returns memories newest first, optionally filtered.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Memory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1=1"}
	args := []interface{}{}
	if p.AgentID != "" {
		where = append(where, "m.agent_id = ?")
		args = append(args, p.AgentID)
	}
	if p.Type != "" {
		where = append(where, "m.type = ?")
		args = append(args, p.Type)
	}
	join := ""
	if p.Tag != "" {
		join = "INNER JOIN memory_tags mt ON mt.memory_id = m.id"
		where = append(where, "mt.tag = ?")
		args = append(args, model.NormalizeTag(p.Tag))
	}

	query := fmt.Sprintf(`%s %s WHERE %s ORDER BY m.created_at DESC LIMIT ?`,
		selectMemoryAliased, join, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemories(rows)
}

// MemoryIDs returns every memory id in the store.
func (s *SQLiteStore) MemoryIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM memories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const memoryColumns = `id, created_at, updated_at, content, context, content_hash,
	type, importance, agent_id, source, tags, entities, embedding_id, access_count, last_accessed`

const selectMemory = `SELECT ` + memoryColumns + ` FROM memories`

const selectMemoryAliased = `SELECT m.id, m.created_at, m.updated_at, m.content, m.context, m.content_hash,
	m.type, m.importance, m.agent_id, m.source, m.tags, m.entities, m.embedding_id, m.access_count, m.last_accessed
	FROM memories m`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var createdAt, updatedAt string
	var contextStr, tagsJSON, entitiesJSON, embeddingID, lastAccessed sql.NullString
	var memType, source string

	err := row.Scan(
		&m.ID, &createdAt, &updatedAt, &m.Content, &contextStr, &m.ContentHash,
		&memType, &m.Importance, &m.AgentID, &source, &tagsJSON, &entitiesJSON,
		&embeddingID, &m.AccessCount, &lastAccessed,
	)
	if err != nil {
		return m, err
	}

	m.Type = model.MemoryType(memType)
	m.Source = model.Source(source)
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if contextStr.Valid {
		m.Context = contextStr.String
	}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &m.Tags)
	}
	if entitiesJSON.Valid {
		m.Entities = &model.Entities{}
		json.Unmarshal([]byte(entitiesJSON.String), m.Entities)
	}
	if embeddingID.Valid {
		m.EmbeddingID = embeddingID.String
	}
	if lastAccessed.Valid {
		t, _ := time.Parse(time.RFC3339, lastAccessed.String)
		m.LastAccessed = &t
	}

	return m, nil
}

func scanMemories(rows *sql.Rows) ([]model.Memory, error) {
	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// TagUsage returns a tag's current usage counter. Missing tags count 0.
func (s *SQLiteStore) TagUsage(ctx context.Context, tag string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT usage_count FROM tags WHERE name = ?`, model.NormalizeTag(tag)).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}
