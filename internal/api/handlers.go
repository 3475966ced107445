package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/rollcall/internal/apperr"
	"github.com/starford/rollcall/internal/attendance"
	"github.com/starford/rollcall/internal/models"
	"github.com/starford/rollcall/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	sess *session.Session
}

// NewHandler creates a new Handler.
func NewHandler(sess *session.Session) *Handler {
	return &Handler{sess: sess}
}

// ListStudents handles GET /api/students.
//
//	@Summary		List students matching a name search
//	@Tags			students
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive name substring"
//	@Success		200	{object}	StudentListResponse
//	@Router			/students [get]
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	cards := h.sess.Students(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, StudentListResponse{
		Students: cards,
		Total:    len(cards),
	})
}

// GetStudent handles GET /api/students/{id}.
//
//	@Summary		Get a student with its current status
//	@Tags			students
//	@Produce		json
//	@Param			id	path		string	true	"Student ID"
//	@Success		200	{object}	StudentCard
//	@Failure		404	{object}	errResponse
//	@Router			/students/{id} [get]
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	card, err := h.sess.Student(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get student", id)
		return
	}
	writeCard(w, card)
}

// SetStatus handles PUT /api/students/{id}/status.
//
//	@Summary		Set the status of the student's last attendance record
//	@Tags			students
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Student ID"
//	@Param			If-Match	header		string				false	"Student checksum for optimistic concurrency"
//	@Param			body		body		SetStatusRequest	true	"New status"
//	@Success		200			{object}	StudentCard
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Router			/students/{id}/status [put]
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	card, err := h.sess.SetStatus(r.Context(), id, st, ifMatch(r))
	if err != nil {
		h.writeError(w, err, "set status", id)
		return
	}
	writeCard(w, card)
}

// GetAttendance handles GET /api/students/{id}/attendance/{date}.
//
//	@Summary		Status of a student on a given date
//	@Tags			students
//	@Produce		json
//	@Param			id		path		string	true	"Student ID"
//	@Param			date	path		string	true	"Date (YYYY-MM-DD) or 'today'"
//	@Success		200		{object}	DayStatusResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/students/{id}/attendance/{date} [get]
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.sess.StatusOn(r.Context(), id, dateParam(r))
	if err != nil {
		h.writeError(w, err, "get attendance", id)
		return
	}
	writeJSON(w, http.StatusOK, DayStatusResponse{
		ID:     id,
		Date:   rec.Date,
		Status: rec.Status,
		Label:  attendance.Label(rec.Status),
	})
}

// MarkAttendance handles PUT /api/students/{id}/attendance/{date}.
//
//	@Summary		Record a status for a given date
//	@Tags			students
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Student ID"
//	@Param			date		path		string				true	"Date (YYYY-MM-DD) or 'today'"
//	@Param			If-Match	header		string				false	"Student checksum for optimistic concurrency"
//	@Param			body		body		SetStatusRequest	true	"New status"
//	@Success		200			{object}	StudentCard
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Router			/students/{id}/attendance/{date} [put]
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	card, err := h.sess.MarkOn(r.Context(), id, dateParam(r), st, ifMatch(r))
	if err != nil {
		h.writeError(w, err, "mark attendance", id)
		return
	}
	writeCard(w, card)
}

// Summary handles GET /api/summary.
//
//	@Summary		Attendance counts over the whole roster
//	@Tags			summary
//	@Produce		json
//	@Success		200	{object}	SummaryResponse
//	@Router			/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Summary(r.Context()))
}

// Dashboard handles GET /api/dashboard.
//
//	@Summary		Summary counts and filtered student cards in one snapshot
//	@Tags			summary
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive name substring"
//	@Success		200	{object}	DashboardResponse
//	@Router			/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Dashboard(r.Context(), r.URL.Query().Get("q")))
}

// Statuses handles GET /api/statuses.
//
//	@Summary		Selectable statuses with display labels
//	@Tags			summary
//	@Produce		json
//	@Success		200	{object}	StatusesResponse
//	@Router			/statuses [get]
func (h *Handler) Statuses(w http.ResponseWriter, _ *http.Request) {
	var out []StatusOption
	for _, st := range attendance.Statuses() {
		out = append(out, StatusOption{Value: st, Label: attendance.Label(st)})
	}
	writeJSON(w, http.StatusOK, StatusesResponse{Statuses: out})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, op, id string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("student not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorBody("status must be one of present, late, absent"))
	case errors.Is(err, apperr.ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
	default:
		slog.Error(op+" failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeStatus(w http.ResponseWriter, r *http.Request) (models.AttendanceStatus, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return "", false
	}
	st, err := attendance.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("status must be one of present, late, absent"))
		return "", false
	}
	return st, true
}

// dateParam returns the {date} URL parameter, with "today" mapped to empty.
func dateParam(r *http.Request) string {
	if date := chi.URLParam(r, "date"); date != "today" {
		return date
	}
	return ""
}

// ifMatch returns the If-Match header without the surrounding ETag quotes.
func ifMatch(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

func writeCard(w http.ResponseWriter, card *session.Card) {
	w.Header().Set("ETag", `"`+card.Checksum+`"`)
	writeJSON(w, http.StatusOK, card)
}
