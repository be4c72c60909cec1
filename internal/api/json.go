package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/codec"
	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/validation"
)

const maxBody = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps domain errors to HTTP statuses. Validation failures carry
// every error and the overlay drawn from them.
func writeError(w http.ResponseWriter, op string, err error, geom geometry.Config) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(verrs, codec.ErrorOverlay(verrs, geom)))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrInvalidInput), errors.Is(err, apperr.ErrUnsupported):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func validationBody(errs validation.Errors, overlay []path.Segment) ValidationResponse {
	out := ValidationResponse{
		Error:   "validation failed",
		Errors:  make([]ValidationError, len(errs)),
		Overlay: overlay,
		D:       path.Format(overlay),
	}
	for i, e := range errs {
		ve := ValidationError{
			Code:     e.Code(),
			Tag:      e.Tag,
			Message:  e.Message,
			Location: e.Identifier.String(),
		}
		if m := e.Identifier.Nearest(validation.KindMeasure); m != nil {
			ve.Measure = codec.MeasureKey(m.Index)
		}
		out.Errors[i] = ve
	}
	return out
}
