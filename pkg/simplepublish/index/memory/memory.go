package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// Index is an in-memory implementation of the simplepublish.SearchIndex
// interface
type Index struct {
	mu   sync.RWMutex
	docs map[string]simplepublish.IndexDocument
}

// New creates a new in-memory search index
func New() *Index {
	return &Index{docs: make(map[string]simplepublish.IndexDocument)}
}

// Insert upserts a document keyed by its content ID. Slice fields are
// copied so later caller mutations cannot reach into index state.
func (i *Index) Insert(ctx context.Context, doc simplepublish.IndexDocument) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.docs[doc.ContentID] = cloneDoc(doc)
	return nil
}

// Delete removes the document for contentID. Missing documents are a no-op.
func (i *Index) Delete(ctx context.Context, contentID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.docs, contentID)
	return nil
}

// Search returns documents whose title, tags, or categories contain the
// query, case-insensitively
func (i *Index) Search(ctx context.Context, query string) ([]simplepublish.IndexDocument, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	q := strings.ToLower(query)
	var out []simplepublish.IndexDocument
	for _, doc := range i.docs {
		if matches(doc, q) {
			out = append(out, cloneDoc(doc))
		}
	}
	return out, nil
}

// Get returns the stored document and whether it exists. Used by tests to
// observe index state directly.
func (i *Index) Get(contentID string) (simplepublish.IndexDocument, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	doc, ok := i.docs[contentID]
	return cloneDoc(doc), ok
}

func cloneDoc(doc simplepublish.IndexDocument) simplepublish.IndexDocument {
	doc.Tags = append([]string(nil), doc.Tags...)
	doc.Categories = append([]string(nil), doc.Categories...)
	return doc
}

func matches(doc simplepublish.IndexDocument, q string) bool {
	if strings.Contains(strings.ToLower(doc.Title), q) {
		return true
	}
	for _, t := range doc.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	for _, c := range doc.Categories {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}
