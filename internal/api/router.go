package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/staffline/internal/scoreservice"
	"github.com/starford/staffline/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *scoreservice.Service, sessions *session.Manager, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/scores", h.ListScores)
	r.Post("/scores", h.CreateScore)
	r.Get("/scores/*", h.GetScore)
	r.Put("/scores/*", h.UpdateScore)
	r.Patch("/scores/*", h.MoveScore)
	r.Delete("/scores/*", h.DeleteScore)

	r.Get("/search", h.Search)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Post("/", h.OpenSession)
		r.Get("/{id}", h.GetSession)
		r.Delete("/{id}", h.CloseSession)
		r.Post("/{id}/segments", h.AppendSegments)
		r.Put("/{id}/segments", h.ReplaceSegments)
		r.Post("/{id}/undo", h.UndoSegment)
		r.Post("/{id}/commit", h.CommitSession)
		r.Post("/{id}/reload", h.ReloadSession)
	})

	r.Get("/codec/geometry", h.Geometry)
	r.Post("/codec/encode", h.Encode)
	r.Post("/codec/decode", h.Decode)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
