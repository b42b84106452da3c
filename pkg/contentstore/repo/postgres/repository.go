package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlearntech/contentstore/pkg/contentstore"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements contentstore.Repository using PostgreSQL. The
// metadata and parameters documents live in JSONB columns, so syntactic
// JSON validity is enforced by the column type itself.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// EnsureSchema creates the content table if it does not exist. It uses
// CREATE TABLE IF NOT EXISTS so concurrent process instances can run it
// safely. The `content` column holds the parameters document and `metadata`
// the metadata document.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS content (
			id BIGSERIAL PRIMARY KEY,
			content JSONB NOT NULL,
			metadata JSONB NOT NULL
		)`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure content schema: %w", translateError(err))
	}
	return nil
}

func (r *Repository) Upsert(ctx context.Context, contentID *int64, metadata, parameters contentstore.Document) (int64, error) {
	metadataJSON, parametersJSON, err := encodeDocuments(metadata, parameters)
	if err != nil {
		return 0, err
	}

	if contentID == nil {
		query := `INSERT INTO content (content, metadata) VALUES ($1, $2) RETURNING id`
		var id int64
		if err := r.db.QueryRow(ctx, query, parametersJSON, metadataJSON).Scan(&id); err != nil {
			return 0, translateError(err)
		}
		return id, nil
	}

	query := `
		INSERT INTO content (id, content, metadata) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata`

	if _, err := r.db.Exec(ctx, query, *contentID, parametersJSON, metadataJSON); err != nil {
		return 0, translateError(err)
	}

	// An explicit id can outrun the BIGSERIAL sequence; keep the sequence
	// ahead so later generated ids never collide with restored rows.
	advance := `SELECT setval('content_id_seq', GREATEST((SELECT last_value FROM content_id_seq), $1))`
	if _, err := r.db.Exec(ctx, advance, *contentID); err != nil {
		return 0, translateError(err)
	}
	return *contentID, nil
}

func (r *Repository) Exists(ctx context.Context, contentID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM content WHERE id = $1)`, contentID).Scan(&exists)
	if err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

func (r *Repository) GetMetadata(ctx context.Context, contentID int64) (contentstore.Document, error) {
	return r.getDocument(ctx, `SELECT metadata FROM content WHERE id = $1`, contentID)
}

func (r *Repository) GetParameters(ctx context.Context, contentID int64) (contentstore.Document, error) {
	return r.getDocument(ctx, `SELECT content FROM content WHERE id = $1`, contentID)
}

func (r *Repository) getDocument(ctx context.Context, query string, contentID int64) (contentstore.Document, error) {
	var data []byte
	err := r.db.QueryRow(ctx, query, contentID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}

	var doc contentstore.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	return doc, nil
}

func (r *Repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM content WHERE metadata IS NOT NULL`)
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

// Delete removes the record. Deleting an absent id affects zero rows and is
// not an error.
func (r *Repository) Delete(ctx context.Context, contentID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM content WHERE id = $1`, contentID); err != nil {
		return translateError(err)
	}
	return nil
}

func encodeDocuments(metadata, parameters contentstore.Document) ([]byte, []byte, error) {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: metadata: %v", contentstore.ErrInvalidDocument, err)
	}
	parametersJSON, err := json.Marshal(parameters)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parameters: %v", contentstore.ErrInvalidDocument, err)
	}
	return metadataJSON, parametersJSON, nil
}

// translateError maps driver errors onto the storage error kinds: malformed
// documents surface as ErrInvalidDocument, everything else as
// ErrStorageUnavailable for the caller to decide on retry policy.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02", // invalid_text_representation (malformed JSON literal)
			"23514": // check_violation
			return fmt.Errorf("%w: %s", contentstore.ErrInvalidDocument, pgErr.Message)
		}
		return fmt.Errorf("%w: %s (code %s)", contentstore.ErrStorageUnavailable, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %v", contentstore.ErrStorageUnavailable, err)
}
