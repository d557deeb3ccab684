// Package sqlitestore implements the store contract on a local sqlite file,
// for runs and tests that do not have a search cluster available. The
// Analyze method applies the same stop-token semantics the cluster-side
// analyzer would.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/talkindex/talkindex/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL,
	labels     TEXT
);
`

type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) a sqlite-backed document store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// Document writes from the pipeline are serialized per id, but the
	// labeling stage may later run updates while a scan cursor is open.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *Store) Scan(ctx context.Context, pageSize int, fn func(store.Hit) error) error {
	if pageSize <= 0 {
		pageSize = 100
	}
	after := ""
	for {
		hits, err := s.page(ctx, after, pageSize)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			return nil
		}
		for _, h := range hits {
			if err := fn(h); err != nil {
				return err
			}
		}
		after = hits[len(hits)-1].ID
		if len(hits) < pageSize {
			return nil
		}
	}
}

func (s *Store) page(ctx context.Context, after string, limit int) ([]store.Hit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, link, transcript, labels FROM documents WHERE id > ? ORDER BY id LIMIT ?`,
		after, limit)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []store.Hit
	for rows.Next() {
		var h store.Hit
		var labels sql.NullString
		if err := rows.Scan(&h.ID, &h.Doc.Title, &h.Doc.Link, &h.Doc.Transcript, &labels); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		if labels.Valid {
			h.Doc.Labels = &labels.String
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Document, error) {
	var doc store.Document
	var labels sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT title, link, transcript, labels FROM documents WHERE id = ?`, id).
		Scan(&doc.Title, &doc.Link, &doc.Transcript, &labels)
	if err == sql.ErrNoRows {
		return store.Document{}, fmt.Errorf("document %s not found", id)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if labels.Valid {
		doc.Labels = &labels.String
	}
	return doc, nil
}

func (s *Store) Index(ctx context.Context, id string, doc store.Document) error {
	var labels sql.NullString
	if doc.Labels != nil {
		labels = sql.NullString{String: *doc.Labels, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, link, transcript, labels)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			transcript = excluded.transcript,
			labels = excluded.labels`,
		id, doc.Title, doc.Link, doc.Transcript, labels)
	if err != nil {
		return fmt.Errorf("index document %s: %w", id, err)
	}
	return nil
}

func (s *Store) UpdateLabels(ctx context.Context, id string, labels string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET labels = ? WHERE id = ?`, labels, id)
	if err != nil {
		return fmt.Errorf("update labels for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update labels for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

func (s *Store) Analyze(_ context.Context, text string) ([]string, error) {
	return store.StopAnalyze(text), nil
}

var _ store.Store = (*Store)(nil)
