// Package session holds the roster for one dashboard session and is the only
// place where it changes.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/rollcall/internal/apperr"
	"github.com/starford/rollcall/internal/attendance"
	"github.com/starford/rollcall/internal/checksum"
	"github.com/starford/rollcall/internal/models"
)

// Change kinds passed to listeners.
const (
	ChangeStudentUpdated = "student.updated"
	ChangeRosterReset    = "roster.reset"
)

// Change describes an effective roster change. Version is the roster version
// the change produced and Summary the counts at that version.
type Change struct {
	Kind      string
	StudentID string // empty for roster.reset
	Version   uint64
	Summary   models.Summary
}

// Listener is called after every effective change, outside the session lock.
// Concurrent updates may reach a listener out of order; Version tells which
// change is the latest.
type Listener func(Change)

// Card is a student together with its derived display state.
type Card struct {
	models.Student
	Status   models.AttendanceStatus `json:"status"`
	Label    string                  `json:"label"`
	Checksum string                  `json:"checksum"`
}

// Dashboard is the snapshot consumed by a display surface: counts over the
// whole roster and the cards matching the search term.
type Dashboard struct {
	Term     string         `json:"term"`
	Summary  models.Summary `json:"summary"`
	Students []Card         `json:"students"`
}

// Session owns the roster. Each update builds a new roster value and swaps it
// in under the lock, so readers only ever see complete rosters.
type Session struct {
	mu      sync.Mutex
	roster  models.Roster
	version uint64

	// memo for derived values, keyed by version (and term for the filter)
	summary    models.Summary
	summaryAt  uint64
	summaryOK  bool
	filterTerm string
	filterAt   uint64
	filtered   models.Roster
	filterOK   bool

	listeners []Listener
	now       func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used to resolve "today" in MarkOn.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithListener registers l for change notifications.
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listeners = append(s.listeners, l)
	}
}

// New creates a session holding roster r. The caller must not modify r afterwards.
func New(r models.Roster, opts ...Option) *Session {
	s := &Session{roster: r, version: 1, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l for change notifications.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current roster and its version. The roster must be
// treated as read-only.
func (s *Session) Snapshot() (models.Roster, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster, s.version
}

// Summary returns the counts by current status.
func (s *Session) Summary(_ context.Context) models.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

// Students returns the cards of the students whose name matches term.
func (s *Session) Students(_ context.Context, term string) []Card {
	s.mu.Lock()
	filtered := s.filterLocked(term)
	s.mu.Unlock()
	return cards(filtered)
}

// Student returns the card of one student.
func (s *Session) Student(_ context.Context, id string) (*Card, error) {
	s.mu.Lock()
	st, ok := attendance.Find(s.roster, id)
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session: student %q: %w", id, apperr.ErrNotFound)
	}
	c := newCard(st)
	return &c, nil
}

// Dashboard returns the summary and the filtered cards from one roster version.
func (s *Session) Dashboard(_ context.Context, term string) Dashboard {
	s.mu.Lock()
	sum := s.summaryLocked()
	filtered := s.filterLocked(term)
	s.mu.Unlock()
	return Dashboard{
		Term:     attendance.NormalizeTerm(term),
		Summary:  sum,
		Students: cards(filtered),
	}
}

// StatusOn returns the student's status on date. An empty date means today.
func (s *Session) StatusOn(_ context.Context, id, date string) (models.AttendanceRecord, error) {
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}
	if err := validation.Validate(date, validation.Date(models.DateLayout)); err != nil {
		return models.AttendanceRecord{}, fmt.Errorf("session: date %q: %w", date, apperr.ErrInvalidDate)
	}
	s.mu.Lock()
	st, ok := attendance.Find(s.roster, id)
	s.mu.Unlock()
	if !ok {
		return models.AttendanceRecord{}, fmt.Errorf("session: student %q: %w", id, apperr.ErrNotFound)
	}
	return models.AttendanceRecord{Date: date, Status: attendance.StatusOn(st, date)}, nil
}

// SetStatus overwrites the status of the student's last attendance record.
// A student without records is left as is. When ifMatch is non-empty it must
// equal the student's current checksum.
func (s *Session) SetStatus(_ context.Context, id string, st models.AttendanceStatus, ifMatch string) (*Card, error) {
	if !attendance.Valid(st) {
		return nil, fmt.Errorf("session: status %q: %w", st, apperr.ErrInvalidStatus)
	}
	return s.update(id, ifMatch, func(r models.Roster) models.Roster {
		return attendance.SetStatus(r, id, st)
	})
}

// MarkOn records status st for the student on date, overwriting that date's
// record or appending a new one. An empty date means today.
func (s *Session) MarkOn(_ context.Context, id, date string, st models.AttendanceStatus, ifMatch string) (*Card, error) {
	if !attendance.Valid(st) {
		return nil, fmt.Errorf("session: status %q: %w", st, apperr.ErrInvalidStatus)
	}
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}
	if err := validation.Validate(date, validation.Date(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("session: date %q: %w", date, apperr.ErrInvalidDate)
	}
	return s.update(id, ifMatch, func(r models.Roster) models.Roster {
		return attendance.MarkOn(r, id, date, st)
	})
}

// Reset replaces the whole roster, starting a fresh session state.
func (s *Session) Reset(r models.Roster) {
	s.mu.Lock()
	s.roster = r
	s.version++
	version := s.version
	sum := s.summaryLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Change{Kind: ChangeRosterReset, Version: version, Summary: sum})
}

func (s *Session) update(id, ifMatch string, apply func(models.Roster) models.Roster) (*Card, error) {
	s.mu.Lock()
	cur, ok := attendance.Find(s.roster, id)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("session: student %q: %w", id, apperr.ErrNotFound)
	}
	if ifMatch != "" && ifMatch != checksum.Student(cur) {
		s.mu.Unlock()
		return nil, fmt.Errorf("session: student %q: %w", id, apperr.ErrConflict)
	}

	next := apply(s.roster)
	if attendance.Same(next, s.roster) {
		s.mu.Unlock()
		c := newCard(cur)
		return &c, nil
	}

	s.roster = next
	s.version++
	version := s.version
	updated, _ := attendance.Find(next, id)
	sum := s.summaryLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Change{Kind: ChangeStudentUpdated, StudentID: id, Version: version, Summary: sum})
	c := newCard(updated)
	return &c, nil
}

func (s *Session) summaryLocked() models.Summary {
	if !s.summaryOK || s.summaryAt != s.version {
		s.summary = attendance.Summarize(s.roster)
		s.summaryAt = s.version
		s.summaryOK = true
	}
	return s.summary
}

func (s *Session) filterLocked(term string) models.Roster {
	if !s.filterOK || s.filterAt != s.version || s.filterTerm != term {
		s.filtered = attendance.FilterByName(s.roster, term)
		s.filterTerm = term
		s.filterAt = s.version
		s.filterOK = true
	}
	return s.filtered
}

func notify(listeners []Listener, c Change) {
	for _, l := range listeners {
		l(c)
	}
}

func newCard(st models.Student) Card {
	cur := attendance.CurrentStatus(st)
	sum := checksum.Student(st)
	if st.Attendance == nil {
		st.Attendance = []models.AttendanceRecord{}
	}
	return Card{
		Student:  st,
		Status:   cur,
		Label:    attendance.Label(cur),
		Checksum: sum,
	}
}

func cards(r models.Roster) []Card {
	out := make([]Card, len(r))
	for i, st := range r {
		out[i] = newCard(st)
	}
	return out
}
