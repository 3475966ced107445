// Package testutil provides shared test helpers for setting up seed files and sessions.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/rollcall/internal/models"
	"github.com/starford/rollcall/internal/seed"
	"github.com/starford/rollcall/internal/session"
)

// Roster is a small seed with one student per status plus one without records.
const Roster = `students:
  - id: s1
    name: Ana Gomez
    email: ana@example.com
    image: ana.png
    attendance:
      - date: 2025-01-09
        status: present
      - date: 2025-01-10
        status: absent
  - id: s2
    name: Luis Ana
  - id: s3
    name: Marta Ruiz
    attendance:
      - date: 2025-01-10
        status: late
  - id: s4
    name: Pedro Soto
    attendance:
      - date: 2025-01-10
        status: present
`

// TestSeedDir creates a temporary directory holding students.yaml with Roster.
func TestSeedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "students.yaml"), []byte(Roster), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// TestRoster parses Roster.
func TestRoster(t *testing.T) models.Roster {
	t.Helper()
	r, err := seed.Parse([]byte(Roster))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// TestSession creates a session over Roster.
func TestSession(t *testing.T, opts ...session.Option) *session.Session {
	t.Helper()
	return session.New(TestRoster(t), opts...)
}
