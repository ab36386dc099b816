package simplepublish_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	memoryindex "github.com/tendant/simple-publish/pkg/simplepublish/index/memory"
	fsstorage "github.com/tendant/simple-publish/pkg/simplepublish/storage/fs"
	memorystorage "github.com/tendant/simple-publish/pkg/simplepublish/storage/memory"
)

func sha256hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestAcceptAssets(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	logo := []byte("png bytes here")
	style := []byte("body { color: red }")

	summary, err := env.svc.AcceptAssets(ctx, []simplepublish.Asset{
		{OriginalName: "logo.png", ContentType: "image/png", Data: bytes.NewReader(logo)},
		{OriginalName: "style.css", ContentType: "text/css", Data: bytes.NewReader(style)},
	})
	require.NoError(t, err)
	require.Len(t, summary, 2)

	logoName := fmt.Sprintf("logo-%s.png", sha256hex(logo))
	styleName := fmt.Sprintf("style-%s.css", sha256hex(style))

	assert.Equal(t, "/"+logoName, summary["logo.png"])
	assert.Equal(t, "/"+styleName, summary["style.css"])

	t.Run("published bytes and content type are intact", func(t *testing.T) {
		rc, err := env.blob.Download(ctx, logoName)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, logo, data)

		meta, err := env.blob.GetObjectMeta(ctx, logoName)
		require.NoError(t, err)
		assert.Equal(t, "image/png", meta.ContentType)
	})

	t.Run("empty batch yields empty summary", func(t *testing.T) {
		summary, err := env.svc.AcceptAssets(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, summary)
	})
}

func TestAcceptAssetsIdenticalContent(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	data := []byte("identical bytes")
	digest := sha256hex(data)

	summary, err := env.svc.AcceptAssets(ctx, []simplepublish.Asset{
		{OriginalName: "logo.png", ContentType: "image/png", Data: bytes.NewReader(data)},
		{OriginalName: "logo2.png", ContentType: "image/png", Data: bytes.NewReader(data)},
	})
	require.NoError(t, err)

	// Same digest, different names: two distinct storage keys with
	// identical content.
	assert.Equal(t, "/logo-"+digest+".png", summary["logo.png"])
	assert.Equal(t, "/logo2-"+digest+".png", summary["logo2.png"])

	for _, key := range []string{"logo-" + digest + ".png", "logo2-" + digest + ".png"} {
		exists, err := env.blob.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists, key)
	}
}

// countingBlobStore counts publish calls to observe deduplication.
type countingBlobStore struct {
	simplepublish.BlobStore
	uploads atomic.Int64
}

func (c *countingBlobStore) UploadWithParams(ctx context.Context, reader io.Reader, params simplepublish.UploadParams) error {
	c.uploads.Add(1)
	return c.BlobStore.UploadWithParams(ctx, reader, params)
}

func TestAcceptAssetsDeduplicatesByFingerprint(t *testing.T) {
	counting := &countingBlobStore{BlobStore: memorystorage.New()}
	svc, err := simplepublish.New(
		simplepublish.WithBlobStore(counting),
		simplepublish.WithSearchIndex(memoryindex.New()),
	)
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("cacheable bytes")
	upload := func() {
		summary, err := svc.AcceptAssets(ctx, []simplepublish.Asset{
			{OriginalName: "logo.png", ContentType: "image/png", Data: bytes.NewReader(data)},
		})
		require.NoError(t, err)
		require.Len(t, summary, 1)
	}

	upload()
	upload()

	// The second upload resolves to the same content-addressed key, so
	// the bytes are published once.
	assert.Equal(t, int64(1), counting.uploads.Load())
}

// trackingReader records how much of the stream was consumed.
type trackingReader struct {
	r        io.Reader
	consumed atomic.Int64
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	t.consumed.Add(int64(n))
	return n, err
}

// brokenReader fails after yielding a few bytes.
type brokenReader struct {
	remaining int
}

func (b *brokenReader) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, errors.New("stream reset")
	}
	n := b.remaining
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = 'x'
	}
	b.remaining -= n
	return n, nil
}

func TestAcceptAssetsBatchIndependence(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	good := &trackingReader{r: bytes.NewBufferString("good asset bytes")}

	_, err := env.svc.AcceptAssets(ctx, []simplepublish.Asset{
		{OriginalName: "bad.bin", ContentType: "application/octet-stream", Data: &brokenReader{remaining: 4}},
		{OriginalName: "good.bin", ContentType: "application/octet-stream", Data: good},
	})
	require.Error(t, err)

	var assetErr *simplepublish.AssetError
	require.ErrorAs(t, err, &assetErr)
	assert.Equal(t, "bad.bin", assetErr.OriginalName)
	assert.Equal(t, "fingerprint", assetErr.Op)

	// The failing asset did not prevent the other from being processed.
	assert.Equal(t, int64(len("good asset bytes")), good.consumed.Load())
}

func TestAcceptAssetsRejectsUnsafeNames(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	for _, name := range []string{
		"../escape.txt",
		"dir/inner.png",
		`back\slash.png`,
		"..",
		".",
		"",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.AcceptAssets(ctx, []simplepublish.Asset{
				{OriginalName: name, ContentType: "text/plain", Data: bytes.NewReader([]byte("payload"))},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, simplepublish.ErrInvalidAssetName)

			var assetErr *simplepublish.AssetError
			require.ErrorAs(t, err, &assetErr)
			assert.Equal(t, "validate", assetErr.Op)
		})
	}
}

func TestAcceptAssetsTraversalNameWritesNothing(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "blobs")
	store, err := fsstorage.New(fsstorage.Config{BaseDir: baseDir})
	require.NoError(t, err)

	svc, err := simplepublish.New(
		simplepublish.WithBlobStore(store),
		simplepublish.WithSearchIndex(memoryindex.New()),
	)
	require.NoError(t, err)

	_, err = svc.AcceptAssets(context.Background(), []simplepublish.Asset{
		{OriginalName: "../escape.txt", ContentType: "text/plain", Data: bytes.NewReader([]byte("payload"))},
	})
	require.ErrorIs(t, err, simplepublish.ErrInvalidAssetName)

	// Nothing landed next to the base directory and the store stayed empty.
	entries, err := os.ReadDir(filepath.Dir(baseDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "blobs", entries[0].Name())

	inside, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	assert.Empty(t, inside)
}
