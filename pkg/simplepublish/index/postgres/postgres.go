package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// DBTX is an interface that allows us to use either a database connection
// or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Index implements simplepublish.SearchIndex using PostgreSQL. Documents
// are stored as jsonb keyed by content ID.
type Index struct {
	db DBTX
}

// New creates a new PostgreSQL search index
func New(db DBTX) *Index {
	return &Index{db: db}
}

// NewWithPool creates a new PostgreSQL search index with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Index {
	return &Index{db: pool}
}

// Schema is the DDL for the index table. Apply it with Migrate or through
// an external migration tool.
const Schema = `
CREATE TABLE IF NOT EXISTS envelope_index (
	content_id TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS envelope_index_document_idx ON envelope_index USING GIN (document);
`

// Migrate creates the index table if it does not exist
func (i *Index) Migrate(ctx context.Context) error {
	if _, err := i.db.Exec(ctx, Schema); err != nil {
		return i.wrapError("migrate", err)
	}
	return nil
}

// Insert upserts a document keyed by its content ID
func (i *Index) Insert(ctx context.Context, doc simplepublish.IndexDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode index document: %w", err)
	}

	query := `
		INSERT INTO envelope_index (content_id, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (content_id)
		DO UPDATE SET document = EXCLUDED.document, updated_at = now()`

	if _, err := i.db.Exec(ctx, query, doc.ContentID, payload); err != nil {
		return i.wrapError("insert", err)
	}
	return nil
}

// Delete removes the document for contentID. Deleting a missing document
// affects zero rows and succeeds.
func (i *Index) Delete(ctx context.Context, contentID string) error {
	if _, err := i.db.Exec(ctx, `DELETE FROM envelope_index WHERE content_id = $1`, contentID); err != nil {
		return i.wrapError("delete", err)
	}
	return nil
}

// Search returns documents whose title matches the query or whose tags or
// categories contain it exactly
func (i *Index) Search(ctx context.Context, query string) ([]simplepublish.IndexDocument, error) {
	sql := `
		SELECT document FROM envelope_index
		WHERE document->>'title' ILIKE '%' || $1 || '%'
		   OR document->'tags' ? $1
		   OR document->'categories' ? $1
		ORDER BY updated_at DESC`

	rows, err := i.db.Query(ctx, sql, query)
	if err != nil {
		return nil, i.wrapError("search", err)
	}
	defer rows.Close()

	var docs []simplepublish.IndexDocument
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, i.wrapError("search", err)
		}
		var doc simplepublish.IndexDocument
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("decode index document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, i.wrapError("search", err)
	}

	return docs, nil
}

// wrapError maps common Postgres error codes to readable messages
func (i *Index) wrapError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("envelope_index table does not exist - run Migrate first")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}
