package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/repostore"
	"github.com/starford/othala/internal/sse"
)

const maxCommitBytes = 50 << 20

// Handler holds API route handlers.
type Handler struct {
	store  *repostore.Store
	broker *sse.Broker
	author string
	email  string
}

// NewHandler creates a new Handler. broker may be nil when commit events
// are not wanted (tests, embedded use).
func NewHandler(store *repostore.Store, broker *sse.Broker, author, email string) *Handler {
	return &Handler{store: store, broker: broker, author: author, email: email}
}

// writeError maps a store error to the wire status taxonomy.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("repository out of sync with commit"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrEmptyCommit):
		writeJSON(w, http.StatusBadRequest, errorBody("commit contains no changes"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeCommit(w http.ResponseWriter, r *http.Request) (models.CommitPayload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCommitBytes)
	var p models.CommitPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return p, false
	}
	return p, true
}

func (h *Handler) applied(revision, message string) map[string]any {
	if h.broker != nil {
		h.broker.PublishCommit(revision, message)
	}
	return map[string]any{
		"repository_info": models.RepositoryInfo{LatestRevision: revision},
	}
}

// ListDirectories handles GET /directories.
func (h *Handler) ListDirectories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"directories":     h.store.Directories(),
		"repository_info": models.RepositoryInfo{LatestRevision: h.store.Head()},
	})
}

// CreateDirectory handles POST /directories.
func (h *Handler) CreateDirectory(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeCommit(w, r)
	if !ok {
		return
	}
	rev, err := h.store.Apply(p, h.author, h.email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.applied(rev, p.Message))
}

// UpdateDirectory handles PATCH /directories/{directory}.
func (h *Handler) UpdateDirectory(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeCommit(w, r)
	if !ok {
		return
	}
	rev, err := h.store.Apply(p, h.author, h.email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.applied(rev, p.Message))
}

// DeleteDirectory handles DELETE /directories/{directory}.
func (h *Handler) DeleteDirectory(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeCommit(w, r)
	if !ok {
		return
	}
	rev, err := h.store.Remove(p, h.author, h.email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.applied(rev, p.Message))
}

// ListDocuments handles GET /directories/{directory}/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	listing, err := h.store.ListDirectory(chi.URLParam(r, "directory"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// CreateDocument handles POST /directories/{directory}/documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeCommit(w, r)
	if !ok {
		return
	}
	rev, err := h.store.Apply(p, h.author, h.email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.applied(rev, p.Message))
}

// GetFile handles GET .../files/{filename}, returning the rendered form.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	h.getFile(w, r, false, true)
}

// EditFile handles GET .../files/{filename}/edit, returning raw Markdown.
func (h *Handler) EditFile(w http.ResponseWriter, r *http.Request) {
	h.getFile(w, r, true, false)
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request, includeMarkdown, includeHTML bool) {
	f, err := h.store.GetFile(
		chi.URLParam(r, "directory"),
		chi.URLParam(r, "document"),
		chi.URLParam(r, "filename"),
		includeMarkdown, includeHTML,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// UpdateFile handles PATCH .../files/{filename}.
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeCommit(w, r)
	if !ok {
		return
	}
	rev, err := h.store.Apply(p, h.author, h.email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.applied(rev, p.Message))
}

// DeleteFile handles DELETE .../files/{filename}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeCommit(w, r)
	if !ok {
		return
	}
	rev, err := h.store.Remove(p, h.author, h.email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.applied(rev, p.Message))
}

// FileHistory handles GET .../files/{filename}/history.
func (h *Handler) FileHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.store.History(
		chi.URLParam(r, "directory"),
		chi.URLParam(r, "document"),
		chi.URLParam(r, "filename"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": hist})
}

// Attachments handles GET .../documents/{document}/attachments.
func (h *Handler) Attachments(w http.ResponseWriter, r *http.Request) {
	atts, err := h.store.Attachments(chi.URLParam(r, "directory"), chi.URLParam(r, "document"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attachments": atts})
}

// Translate handles POST .../files/{filename}/translate.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCommitBytes)
	var req models.TranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.SourceFilename == "" || req.Path == "" || req.LanguageCode == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("source_filename, path and language_code are required"))
		return
	}
	rev, err := h.store.Translate(req, h.author, h.email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.applied(rev, "translation initiated"))
}

// RepositoryInfo handles GET /repository_info.
func (h *Handler) RepositoryInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"repository_info": models.RepositoryInfo{LatestRevision: h.store.Head()},
	})
}

// TranslationInfo handles GET /translation_info.
func (h *Handler) TranslationInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Languages())
}
