package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	"github.com/tendant/simple-publish/pkg/simplepublish/storage/fs"
)

func TestNew(t *testing.T) {
	t.Run("requires base dir", func(t *testing.T) {
		_, err := fs.New(fs.Config{})
		assert.Error(t, err)
	})

	t.Run("creates base dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "blobs")
		_, err := fs.New(fs.Config{BaseDir: dir})
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestFilesystemBackend(t *testing.T) {
	backend, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("upload and download", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, "post-42", strings.NewReader(`{"title":"Hi"}`)))

		rc, err := backend.Download(ctx, "post-42")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"Hi"}`, string(data))
	})

	t.Run("exists and meta", func(t *testing.T) {
		exists, err := backend.Exists(ctx, "post-42")
		require.NoError(t, err)
		assert.True(t, exists)

		meta, err := backend.GetObjectMeta(ctx, "post-42")
		require.NoError(t, err)
		assert.Equal(t, int64(len(`{"title":"Hi"}`)), meta.Size)

		exists, err = backend.Exists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("missing object maps to ErrObjectNotFound", func(t *testing.T) {
		_, err := backend.Download(ctx, "missing")
		assert.ErrorIs(t, err, simplepublish.ErrObjectNotFound)

		_, err = backend.GetObjectMeta(ctx, "missing")
		assert.ErrorIs(t, err, simplepublish.ErrObjectNotFound)

		err = backend.Delete(ctx, "missing")
		assert.ErrorIs(t, err, simplepublish.ErrObjectNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, "post-42"))

		_, err := backend.Download(ctx, "post-42")
		assert.ErrorIs(t, err, simplepublish.ErrObjectNotFound)
	})
}

func TestKeysStayUnderBaseDir(t *testing.T) {
	root := t.TempDir()
	baseDir := filepath.Join(root, "blobs")
	backend, err := fs.New(fs.Config{BaseDir: baseDir})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("nested keys are allowed", func(t *testing.T) {
		require.NoError(t, backend.Upload(ctx, "nested/ok.txt", strings.NewReader("in bounds")))

		rc, err := backend.Download(ctx, "nested/ok.txt")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "in bounds", string(data))
	})

	t.Run("escaping keys are rejected on every operation", func(t *testing.T) {
		for _, key := range []string{"../evil.txt", "a/../../evil.txt", ".."} {
			err := backend.Upload(ctx, key, strings.NewReader("out of bounds"))
			assert.Error(t, err, key)

			_, err = backend.Download(ctx, key)
			assert.Error(t, err, key)

			_, err = backend.Exists(ctx, key)
			assert.Error(t, err, key)

			_, err = backend.GetObjectMeta(ctx, key)
			assert.Error(t, err, key)

			err = backend.Delete(ctx, key)
			assert.Error(t, err, key)
			assert.NotErrorIs(t, err, simplepublish.ErrObjectNotFound, key)
		}

		// Nothing escaped into the parent directory.
		entries, err := os.ReadDir(root)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "blobs", entries[0].Name())
	})
}
