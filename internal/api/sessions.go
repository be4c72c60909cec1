package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/staffline/internal/path"
)

// segmentsFrom returns the request segments, parsing D when no segments
// were sent.
func segmentsFrom(req SegmentsRequest) ([]path.Segment, error) {
	if len(req.Segments) > 0 || req.D == "" {
		return req.Segments, nil
	}
	segs, err := path.Parse(req.D)
	if err != nil {
		return nil, badInput(err)
	}
	return segs, nil
}

// ListSessions handles GET /api/sessions.
//
//	@Summary		List open drawing sessions
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	SessionListResponse
//	@Security		BearerAuth
//	@Router			/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: h.sessions.List()})
}

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open a drawing session on one part of a score
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Score and part"
//	@Success		201		{object}	SessionView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	v, err := h.sessions.Open(r.Context(), req.Path, req.Part)
	if err != nil {
		h.fail(w, "open session", err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get the buffer and overlay of a session
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// AppendSegments handles POST /api/sessions/{id}/segments.
//
//	@Summary		Feed pointer segments through the session buffer
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			body	body		SegmentsRequest	true	"Segments or SVG path data"
//	@Success		200		{object}	SessionView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/segments [post]
func (h *Handler) AppendSegments(w http.ResponseWriter, r *http.Request) {
	var req SegmentsRequest
	if !readJSON(w, r, &req) {
		return
	}
	segs, err := segmentsFrom(req)
	if err != nil {
		h.fail(w, "append segments", err)
		return
	}
	v, err := h.sessions.AppendAll(chi.URLParam(r, "id"), segs)
	if err != nil {
		h.fail(w, "append segments", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ReplaceSegments handles PUT /api/sessions/{id}/segments.
//
//	@Summary		Replace the whole session buffer
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			body	body		SegmentsRequest	true	"Segments or SVG path data"
//	@Success		200		{object}	SessionView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/segments [put]
func (h *Handler) ReplaceSegments(w http.ResponseWriter, r *http.Request) {
	var req SegmentsRequest
	if !readJSON(w, r, &req) {
		return
	}
	segs, err := segmentsFrom(req)
	if err != nil {
		h.fail(w, "replace segments", err)
		return
	}
	v, err := h.sessions.Replace(chi.URLParam(r, "id"), segs)
	if err != nil {
		h.fail(w, "replace segments", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UndoSegment handles POST /api/sessions/{id}/undo.
//
//	@Summary		Remove the most recent note from the buffer
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/undo [post]
func (h *Handler) UndoSegment(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Undo(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "undo", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CommitSession handles POST /api/sessions/{id}/commit.
//
//	@Summary		Decode the buffer and save it into the score
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionView
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Failure		422	{object}	ValidationResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/commit [post]
func (h *Handler) CommitSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Commit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "commit session", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ReloadSession handles POST /api/sessions/{id}/reload.
//
//	@Summary		Discard local edits and redraw from the stored score
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/reload [post]
func (h *Handler) ReloadSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.sessions.Reload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "reload session", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CloseSession handles DELETE /api/sessions/{id}.
//
//	@Summary		Close a drawing session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session ID"
//	@Success		204	"Session closed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		h.fail(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
