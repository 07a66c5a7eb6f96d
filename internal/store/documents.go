// Package store persists study documents saved from chat sessions in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	// DefaultTitle is used when a document is saved without a title.
	DefaultTitle = "AI Note"

	defaultListLimit = 10
	maxListLimit     = 50
)

// Error definitions
var (
	ErrNotFound     = errors.New("document not found")
	ErrEmptyContent = errors.New("document content is required")
)

const schema = `
CREATE TABLE IF NOT EXISTS study_documents (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL DEFAULT '',
	user_id    TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_study_documents_user_created
	ON study_documents (user_id, created_at DESC);
`

// Document is a saved piece of study material.
type Document struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store reads and writes study documents.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the SQLite database at path, applying WAL and busy timeout
// pragmas on every pooled connection, and creates the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(10000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Create saves a new document and returns it with its generated id.
func (s *Store) Create(ctx context.Context, doc Document) (Document, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return Document{}, ErrEmptyContent
	}
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = DefaultTitle
	}
	doc.ID = uuid.NewString()
	doc.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO study_documents (id, session_id, user_id, title, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.SessionID, doc.UserID, doc.Title, doc.Content, doc.CreatedAt.UnixNano())
	if err != nil {
		return Document{}, fmt.Errorf("store: insert: %w", err)
	}
	return doc, nil
}

// Get returns the document with the given id.
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, title, content, created_at
		 FROM study_documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("store: get %s: %w", id, err)
	}
	return doc, nil
}

// ListRecent returns up to limit documents, newest first. A non-empty
// userID restricts the result to that user. limit is clamped to 1..50 and
// defaults to 10.
func (s *Store) ListRecent(ctx context.Context, userID string, limit int) ([]Document, error) {
	limit = ClampLimit(limit)

	query := `SELECT id, session_id, user_id, title, content, created_at FROM study_documents`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ClampLimit normalises a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (Document, error) {
	var (
		doc     Document
		created int64
	)
	if err := sc.Scan(&doc.ID, &doc.SessionID, &doc.UserID, &doc.Title, &doc.Content, &created); err != nil {
		return Document{}, err
	}
	doc.CreatedAt = time.Unix(0, created).UTC()
	return doc, nil
}
