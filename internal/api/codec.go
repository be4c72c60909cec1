package api

import (
	"net/http"

	"github.com/starford/staffline/internal/codec"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/scorefile"
)

// Geometry handles GET /api/codec/geometry.
//
//	@Summary		Get the staff layout used by the codec
//	@Tags			codec
//	@Produce		json
//	@Success		200	{object}	geometry.Config
//	@Security		BearerAuth
//	@Router			/codec/geometry [get]
func (h *Handler) Geometry(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Geometry())
}

// Encode handles POST /api/codec/encode.
//
//	@Summary		Draw measures as path segments
//	@Tags			codec
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EncodeRequest	true	"Measures in score file form"
//	@Success		200		{object}	PathResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/codec/encode [post]
func (h *Handler) Encode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Visible < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("visible must not be negative"))
		return
	}
	measures, err := scorefile.ToMeasures(req.Measures)
	if err != nil {
		h.fail(w, "encode", err)
		return
	}
	geom := h.sessions.Geometry()
	visible := req.Visible
	if visible == 0 {
		visible = geom.VisibleMeasures
	}
	segs := codec.ToPathSegments(measures, geom, visible)
	writeJSON(w, http.StatusOK, PathResponse{Segments: segs, D: path.Format(segs)})
}

// Decode handles POST /api/codec/decode.
//
//	@Summary		Read measures back from path segments
//	@Tags			codec
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SegmentsRequest	true	"Segments or SVG path data"
//	@Success		200		{object}	DecodeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	ValidationResponse
//	@Security		BearerAuth
//	@Router			/codec/decode [post]
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	var req SegmentsRequest
	if !readJSON(w, r, &req) {
		return
	}
	segs, err := segmentsFrom(req)
	if err != nil {
		h.fail(w, "decode", err)
		return
	}
	measures, err := codec.ToMeasures(segs, h.sessions.Geometry())
	if err != nil {
		h.fail(w, "decode", err)
		return
	}
	writeJSON(w, http.StatusOK, DecodeResponse{Measures: scorefile.FromMeasures(measures)})
}
