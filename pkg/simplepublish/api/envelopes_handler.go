package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// EnvelopesHandler exposes envelope store/retrieve/delete over HTTP
type EnvelopesHandler struct {
	service simplepublish.Service
	logger  *slog.Logger
}

// NewEnvelopesHandler creates a handler backed by the given service
func NewEnvelopesHandler(service simplepublish.Service, logger *slog.Logger) *EnvelopesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnvelopesHandler{service: service, logger: logger}
}

// Routes returns the router for envelope endpoints
func (h *EnvelopesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Put("/{content_id}", h.Store)
	r.Get("/{content_id}", h.Retrieve)
	r.Delete("/{content_id}", h.Delete)
	r.Get("/", h.Search)
	return r
}

// Store writes an envelope under the content ID in the URL
func (h *EnvelopesHandler) Store(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")

	var env simplepublish.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.logger.Error("failed to decode envelope", "content_id", contentID, "error", err)
		renderError(w, r, http.StatusBadRequest, "invalid envelope body")
		return
	}

	if err := h.service.StoreEnvelope(r.Context(), contentID, env); err != nil {
		h.logger.Error("store failed", "content_id", contentID, "error", err)
		renderError(w, r, simplepublish.HTTPStatus(err), "store failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Retrieve returns the stored envelope with its injected assets field
func (h *EnvelopesHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")

	env, err := h.service.RetrieveEnvelope(r.Context(), contentID)
	if err != nil {
		status := simplepublish.HTTPStatus(err)
		if status != http.StatusNotFound {
			h.logger.Error("retrieve failed", "content_id", contentID, "error", err)
		}
		renderError(w, r, status, "retrieve failed")
		return
	}

	render.JSON(w, r, env)
}

// Delete removes the envelope and its index document
func (h *EnvelopesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")

	if err := h.service.DeleteEnvelope(r.Context(), contentID); err != nil {
		h.logger.Error("delete failed", "content_id", contentID, "error", err)
		renderError(w, r, simplepublish.HTTPStatus(err), "delete failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search queries the search index with the q parameter
func (h *EnvelopesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		renderError(w, r, http.StatusBadRequest, "query parameter q is required")
		return
	}

	docs, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", "query", query, "error", err)
		renderError(w, r, simplepublish.HTTPStatus(err), "search failed")
		return
	}

	if docs == nil {
		docs = []simplepublish.IndexDocument{}
	}
	render.JSON(w, r, docs)
}

// renderError writes the JSON error body the API uses everywhere
func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}
