package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// Index implements simplepublish.SearchIndex using SQLite with an FTS5
// virtual table over the projected fields.
type Index struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS envelope_index (
	content_id   TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	publish_date TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	categories   TEXT NOT NULL DEFAULT '[]'
);

CREATE VIRTUAL TABLE IF NOT EXISTS envelope_fts USING fts5(
	content_id UNINDEXED,
	title,
	tags,
	categories
);

CREATE TRIGGER IF NOT EXISTS envelope_fts_insert AFTER INSERT ON envelope_index BEGIN
	INSERT INTO envelope_fts(content_id, title, tags, categories)
		VALUES (new.content_id, new.title, new.tags, new.categories);
END;

CREATE TRIGGER IF NOT EXISTS envelope_fts_update AFTER UPDATE ON envelope_index BEGIN
	DELETE FROM envelope_fts WHERE content_id = old.content_id;
	INSERT INTO envelope_fts(content_id, title, tags, categories)
		VALUES (new.content_id, new.title, new.tags, new.categories);
END;

CREATE TRIGGER IF NOT EXISTS envelope_fts_delete AFTER DELETE ON envelope_index BEGIN
	DELETE FROM envelope_fts WHERE content_id = old.content_id;
END;
`

// Open opens (or creates) the SQLite database at path and bootstraps the
// schema. Use ":memory:" for an ephemeral index.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite index: %w", err)
	}

	// FTS triggers need a single writer; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap sqlite index schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the underlying database connection
func (i *Index) Close() error {
	return i.db.Close()
}

// Insert upserts a document keyed by its content ID
func (i *Index) Insert(ctx context.Context, doc simplepublish.IndexDocument) error {
	tags, err := json.Marshal(doc.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	categories, err := json.Marshal(doc.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	query := `
		INSERT INTO envelope_index (content_id, title, publish_date, tags, categories)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET
			title = excluded.title,
			publish_date = excluded.publish_date,
			tags = excluded.tags,
			categories = excluded.categories`

	if _, err := i.db.ExecContext(ctx, query, doc.ContentID, doc.Title, doc.PublishDate, string(tags), string(categories)); err != nil {
		return fmt.Errorf("insert index document: %w", err)
	}
	return nil
}

// Delete removes the document for contentID. Deleting a missing document
// affects zero rows and succeeds.
func (i *Index) Delete(ctx context.Context, contentID string) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM envelope_index WHERE content_id = ?`, contentID); err != nil {
		return fmt.Errorf("delete index document: %w", err)
	}
	return nil
}

// Search runs an FTS5 match over title, tags, and categories
func (i *Index) Search(ctx context.Context, query string) ([]simplepublish.IndexDocument, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT e.content_id, e.title, e.publish_date, e.tags, e.categories
		FROM envelope_fts f
		JOIN envelope_index e ON e.content_id = f.content_id
		WHERE envelope_fts MATCH ?
		ORDER BY rank`

	rows, err := i.db.QueryContext(ctx, sqlQuery, match)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var docs []simplepublish.IndexDocument
	for rows.Next() {
		var doc simplepublish.IndexDocument
		var tags, categories string
		if err := rows.Scan(&doc.ContentID, &doc.Title, &doc.PublishDate, &tags, &categories); err != nil {
			return nil, fmt.Errorf("scan index document: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &doc.Categories); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	return docs, nil
}

// ftsQuery quotes each term so user input cannot inject FTS5 operators
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for idx, term := range terms {
		terms[idx] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
