// Package sqlite implements the content repository on an embedded SQLite
// database. It is the zero-infrastructure variant of the Postgres
// repository: same table shape, with JSON validity enforced through
// json_valid CHECK constraints instead of a JSONB column type.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"

	"github.com/openlearntech/contentstore/pkg/contentstore"
)

// Repository implements contentstore.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a repository over an already-open database handle.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens (or creates) the SQLite database at path and returns a
// repository over it. The caller owns the handle lifecycle via Close.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent callers.
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the content table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS content (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL CHECK (json_valid(content)),
			metadata TEXT NOT NULL CHECK (json_valid(metadata))
		)`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure content schema: %w", translateError(err))
	}
	return nil
}

func (r *Repository) Upsert(ctx context.Context, contentID *int64, metadata, parameters contentstore.Document) (int64, error) {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("%w: metadata: %v", contentstore.ErrInvalidDocument, err)
	}
	parametersJSON, err := json.Marshal(parameters)
	if err != nil {
		return 0, fmt.Errorf("%w: parameters: %v", contentstore.ErrInvalidDocument, err)
	}

	if contentID == nil {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO content (content, metadata) VALUES (?, ?)`,
			string(parametersJSON), string(metadataJSON))
		if err != nil {
			return 0, translateError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, translateError(err)
		}
		return id, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO content (id, content, metadata) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata`,
		*contentID, string(parametersJSON), string(metadataJSON))
	if err != nil {
		return 0, translateError(err)
	}
	return *contentID, nil
}

func (r *Repository) Exists(ctx context.Context, contentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM content WHERE id = ?)`, contentID).Scan(&exists)
	if err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

func (r *Repository) GetMetadata(ctx context.Context, contentID int64) (contentstore.Document, error) {
	return r.getDocument(ctx, `SELECT metadata FROM content WHERE id = ?`, contentID)
}

func (r *Repository) GetParameters(ctx context.Context, contentID int64) (contentstore.Document, error) {
	return r.getDocument(ctx, `SELECT content FROM content WHERE id = ?`, contentID)
}

func (r *Repository) getDocument(ctx context.Context, query string, contentID int64) (contentstore.Document, error) {
	var data string
	err := r.db.QueryRowContext(ctx, query, contentID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}

	var doc contentstore.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	return doc, nil
}

func (r *Repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM content WHERE metadata IS NOT NULL`)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, translateError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func (r *Repository) Delete(ctx context.Context, contentID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, contentID); err != nil {
		return translateError(err)
	}
	return nil
}

// SQLITE_CONSTRAINT is the primary result code for constraint violations;
// extended codes keep it in their low byte.
const sqliteConstraint = 19

func translateError(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		if se.Code()&0xff == sqliteConstraint {
			return fmt.Errorf("%w: %v", contentstore.ErrInvalidDocument, err)
		}
	}
	return fmt.Errorf("%w: %v", contentstore.ErrStorageUnavailable, err)
}
