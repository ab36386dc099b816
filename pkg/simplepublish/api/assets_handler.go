package api

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// maxMultipartMemory bounds how much of a multipart upload is held in
// memory before spilling to disk.
const maxMultipartMemory = 32 << 20

// AssetsHandler exposes batch asset publishing over HTTP
type AssetsHandler struct {
	service simplepublish.Service
	logger  *slog.Logger
}

// NewAssetsHandler creates a handler backed by the given service
func NewAssetsHandler(service simplepublish.Service, logger *slog.Logger) *AssetsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetsHandler{service: service, logger: logger}
}

// Routes returns the router for asset endpoints
func (h *AssetsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Accept)
	return r
}

// Accept publishes every file in a multipart upload and returns the
// original-name-to-public-URL summary. Any single failure fails the batch.
func (h *AssetsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.logger.Error("failed to parse multipart form", "error", err)
		renderError(w, r, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var assets []simplepublish.Asset
	var closers []interface{ Close() error }
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			// The client controls the filename; only its base component may
			// become part of a storage key.
			name := filepath.Base(fh.Filename)
			if name == "." || name == ".." || name == string(filepath.Separator) {
				renderError(w, r, http.StatusBadRequest, "invalid file name")
				return
			}

			file, err := fh.Open()
			if err != nil {
				h.logger.Error("failed to open uploaded file", "filename", name, "error", err)
				renderError(w, r, http.StatusBadRequest, "unreadable uploaded file")
				return
			}
			closers = append(closers, file)

			contentType := fh.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			assets = append(assets, simplepublish.Asset{
				OriginalName: name,
				ContentType:  contentType,
				Data:         file,
			})
		}
	}

	summary, err := h.service.AcceptAssets(r.Context(), assets)
	if err != nil {
		h.logger.Error("asset batch failed", "count", len(assets), "error", err)
		renderError(w, r, simplepublish.HTTPStatus(err), "asset upload failed")
		return
	}

	render.JSON(w, r, summary)
}
