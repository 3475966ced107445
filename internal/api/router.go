package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/rollcall/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// corsOrigins lists the browser origins allowed to call the API.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(sess *session.Session, corsOrigins []string, sseHandler http.Handler) chi.Router {
	h := NewHandler(sess)

	r := chi.NewRouter()
	r.Use(CORSMiddleware(corsOrigins))

	// Students.
	r.Get("/students", h.ListStudents)
	r.Get("/students/{id}", h.GetStudent)
	r.Put("/students/{id}/status", h.SetStatus)
	r.Get("/students/{id}/attendance/{date}", h.GetAttendance)
	r.Put("/students/{id}/attendance/{date}", h.MarkAttendance)

	// Summary.
	r.Get("/summary", h.Summary)
	r.Get("/dashboard", h.Dashboard)
	r.Get("/statuses", h.Statuses)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
