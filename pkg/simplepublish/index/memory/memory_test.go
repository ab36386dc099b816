package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	"github.com/tendant/simple-publish/pkg/simplepublish/index/memory"
)

func TestMemoryIndex(t *testing.T) {
	index := memory.New()
	ctx := context.Background()

	doc := simplepublish.IndexDocument{
		ContentID: "post-42",
		Title:     "Go Patterns",
		Tags:      []string{"go", "concurrency"},
	}

	t.Run("insert and get", func(t *testing.T) {
		require.NoError(t, index.Insert(ctx, doc))

		got, ok := index.Get("post-42")
		require.True(t, ok)
		assert.Equal(t, doc, got)
	})

	t.Run("insert upserts", func(t *testing.T) {
		updated := doc
		updated.Title = "Updated"
		require.NoError(t, index.Insert(ctx, updated))

		got, _ := index.Get("post-42")
		assert.Equal(t, "Updated", got.Title)
	})

	t.Run("search matches title and tags case-insensitively", func(t *testing.T) {
		docs, err := index.Search(ctx, "UPDATED")
		require.NoError(t, err)
		assert.Len(t, docs, 1)

		docs, err = index.Search(ctx, "concurrency")
		require.NoError(t, err)
		assert.Len(t, docs, 1)

		docs, err = index.Search(ctx, "nothing-here")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, index.Delete(ctx, "post-42"))
		_, ok := index.Get("post-42")
		assert.False(t, ok)

		assert.NoError(t, index.Delete(ctx, "post-42"))
	})
}

func TestMemoryIndexIsolatesSlices(t *testing.T) {
	index := memory.New()
	ctx := context.Background()

	tags := []string{"go", "concurrency"}
	require.NoError(t, index.Insert(ctx, simplepublish.IndexDocument{
		ContentID: "post-42",
		Title:     "Go Patterns",
		Tags:      tags,
	}))

	// Mutating the caller's slice after insert must not reach index state.
	tags[0] = "rust"
	got, ok := index.Get("post-42")
	require.True(t, ok)
	assert.Equal(t, []string{"go", "concurrency"}, got.Tags)

	// Mutating a search result must not reach index state either.
	docs, err := index.Search(ctx, "patterns")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	docs[0].Tags[1] = "mutated"

	got, _ = index.Get("post-42")
	assert.Equal(t, []string{"go", "concurrency"}, got.Tags)
}
