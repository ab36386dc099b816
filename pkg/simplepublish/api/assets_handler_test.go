package api_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestAcceptAssetsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	logo := []byte("fake png bytes")
	body, contentType := multipartBody(t, map[string][]byte{"logo.png": logo})

	resp, err := http.Post(srv.URL+"/api/v1/assets/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))

	digest := sha256.Sum256(logo)
	want := fmt.Sprintf("/logo-%s.png", hex.EncodeToString(digest[:]))
	assert.Equal(t, map[string]string{"logo.png": want}, summary)
}

func TestAcceptAssetsEndpointBatch(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"logo.png":  []byte("logo"),
		"style.css": []byte("body {}"),
	})

	resp, err := http.Post(srv.URL+"/api/v1/assets/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Len(t, summary, 2)
	assert.Contains(t, summary, "logo.png")
	assert.Contains(t, summary, "style.css")
}

func TestAcceptAssetsEndpointStripsPathFromFilenames(t *testing.T) {
	srv := newTestServer(t)

	evil := []byte("payload")
	body, contentType := multipartBody(t, map[string][]byte{"../../evil.png": evil})

	resp, err := http.Post(srv.URL+"/api/v1/assets/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Only the base component of the client-supplied filename survives into
	// the summary and the storage key.
	var summary map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.Len(t, summary, 1)

	digest := sha256.Sum256(evil)
	want := fmt.Sprintf("/evil-%s.png", hex.EncodeToString(digest[:]))
	assert.Equal(t, want, summary["evil.png"])
}

func TestAcceptAssetsEndpointRejectsNonMultipart(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/assets/", "application/json",
		bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
