package api

import (
	"github.com/starford/rollcall/internal/models"
	"github.com/starford/rollcall/internal/session"
)

// SetStatusRequest is the request body for status updates.
type SetStatusRequest struct {
	Status string `json:"status" example:"present" validate:"required"`
}

// StudentCard is a student with its current status (aliased from the domain layer).
type StudentCard = session.Card

// DashboardResponse is the summary plus filtered cards (aliased from the domain layer).
type DashboardResponse = session.Dashboard

// StudentListResponse wraps filtered student listings.
type StudentListResponse struct {
	Students []StudentCard `json:"students" validate:"required"`
	Total    int           `json:"total" example:"3" validate:"required"`
}

// SummaryResponse carries the roster counts.
type SummaryResponse = models.Summary

// StatusOption is one selectable attendance status.
type StatusOption struct {
	Value models.AttendanceStatus `json:"value" example:"present" validate:"required"`
	Label string                  `json:"label" example:"Present" validate:"required"`
}

// StatusesResponse lists the selectable statuses in button order.
type StatusesResponse struct {
	Statuses []StatusOption `json:"statuses" validate:"required"`
}

// DayStatusResponse is a student's status on one date.
type DayStatusResponse struct {
	ID     string                  `json:"id" example:"s1" validate:"required"`
	Date   string                  `json:"date" example:"2025-01-10" validate:"required"`
	Status models.AttendanceStatus `json:"status" example:"late" validate:"required"`
	Label  string                  `json:"label" example:"Late" validate:"required"`
}
