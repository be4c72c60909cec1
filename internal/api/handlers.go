package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/checksum"
	"github.com/starford/staffline/internal/midiexport"
	"github.com/starford/staffline/internal/scoreservice"
	"github.com/starford/staffline/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *scoreservice.Service
	sessions *session.Manager
}

// NewHandler creates a new Handler.
func NewHandler(svc *scoreservice.Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// scorePath extracts the score path from the URL (everything after /api/scores/).
// Supports encoded slashes from OpenAPI clients (e.g. etudes%2Ffirst.yaml).
func scorePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListScores handles GET /api/scores.
//
//	@Summary		List scores with optional pagination
//	@Tags			scores
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(path, title, updated, measures)
//	@Success		200		{object}	ScoreListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scores [get]
func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListScores(r.Context(), limit, offset, q.Get("sort"))
	if err != nil {
		h.fail(w, "list scores", err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreListResponse{Scores: items, Total: total})
}

// GetScore handles GET /api/scores/*. With ?format=midi the score is
// returned as a Standard MIDI File.
//
//	@Summary		Get a single score by path
//	@Tags			scores
//	@Produce		json
//	@Produce		audio/midi
//	@Param			path	path		string	true	"Score path"
//	@Param			format	query		string	false	"Response format"	Enums(json, midi)
//	@Param			tempo	query		number	false	"MIDI tempo in quarter notes per minute"
//	@Success		200		{object}	ScoreDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scores/{path} [get]
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	p := scorePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "json":
	case "midi":
		h.exportMIDI(w, r, p)
		return
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("format must be json or midi"))
		return
	}
	sc, err := h.svc.GetScore(r.Context(), p)
	if err != nil {
		h.fail(w, "get score", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(sc.Checksum))
	writeJSON(w, http.StatusOK, sc)
}

func (h *Handler) exportMIDI(w http.ResponseWriter, r *http.Request, p string) {
	opts := midiexport.DefaultOptions()
	if t := r.URL.Query().Get("tempo"); t != "" {
		tempo, err := strconv.ParseFloat(t, 64)
		if err != nil || tempo <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("tempo must be a positive number"))
			return
		}
		opts.Tempo = tempo
	}

	var buf bytes.Buffer
	if err := h.svc.ExportMIDI(r.Context(), p, opts, &buf); err != nil {
		h.fail(w, "export midi", err)
		return
	}
	name := strings.TrimSuffix(path.Base(p), path.Ext(p)) + ".mid"
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("write midi failed", slog.String("path", p), slog.String("error", err.Error()))
	}
}

// CreateScore handles POST /api/scores.
//
//	@Summary		Create a new score
//	@Tags			scores
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateScoreRequest	true	"Score to create"
//	@Success		201		{object}	ScoreDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scores [post]
func (h *Handler) CreateScore(w http.ResponseWriter, r *http.Request) {
	var req CreateScoreRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	sc, err := h.svc.CreateScore(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		h.fail(w, "create score", err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

// UpdateScore handles PUT /api/scores/*.
//
//	@Summary		Update a score with optimistic concurrency
//	@Tags			scores
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string				true	"Score path"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateScoreRequest	true	"Updated content"
//	@Success		200			{object}	ScoreDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scores/{path} [put]
func (h *Handler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	p := scorePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req UpdateScoreRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	sc, err := h.svc.UpdateScore(r.Context(), p, []byte(req.Content), r.Header.Get("If-Match"))
	if err != nil {
		h.fail(w, "update score", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(sc.Checksum))
	writeJSON(w, http.StatusOK, sc)
}

// MoveScore handles PATCH /api/scores/*, renaming the score to the path
// given in the body.
//
//	@Summary		Move a score
//	@Tags			scores
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Current score path"
//	@Param			body	body		MoveScoreRequest	true	"New path"
//	@Success		200		{object}	ScoreDetail
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scores/{path} [patch]
func (h *Handler) MoveScore(w http.ResponseWriter, r *http.Request) {
	p := scorePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req MoveScoreRequest
	if !readJSON(w, r, &req) {
		return
	}
	sc, err := h.svc.MoveScore(r.Context(), p, req.Path)
	if err != nil {
		h.fail(w, "move score", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(sc.Checksum))
	writeJSON(w, http.StatusOK, sc)
}

// DeleteScore handles DELETE /api/scores/*.
//
//	@Summary		Delete a score
//	@Tags			scores
//	@Param			path	path	string	true	"Score path"
//	@Success		204		"Score deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scores/{path} [delete]
func (h *Handler) DeleteScore(w http.ResponseWriter, r *http.Request) {
	p := scorePath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteScore(r.Context(), p); err != nil {
		h.fail(w, "delete score", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across scores
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{Path: hit.Path, Title: hit.Title, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	writeError(w, op, err, h.sessions.Geometry())
}

func badInput(err error) error {
	return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
}
