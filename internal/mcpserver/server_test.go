package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/rollcall/internal/models"
	"github.com/starford/rollcall/internal/session"
	"github.com/starford/rollcall/internal/testutil"
)

func testServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	today := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
	sess := testutil.TestSession(t, session.WithClock(func() time.Time { return today }))
	return New(sess), sess
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_students":
		result, err = srv.listStudents(ctx, req)
	case "get_student":
		result, err = srv.getStudent(ctx, req)
	case "get_summary":
		result, err = srv.getSummary(ctx, req)
	case "set_status":
		result, err = srv.setStatus(ctx, req)
	case "mark_attendance":
		result, err = srv.markAttendance(ctx, req)
	case "get_status_labels":
		result, err = srv.getStatusLabels(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListStudents(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_students", map[string]interface{}{"query": "ana"})
	var cards []session.Card
	if err := json.Unmarshal([]byte(resultText(r)), &cards); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "s1" || cards[1].ID != "s2" {
		t.Errorf("cards = %+v", cards)
	}

	r = callTool(t, srv, "list_students", map[string]interface{}{})
	_ = json.Unmarshal([]byte(resultText(r)), &cards)
	if len(cards) != 4 {
		t.Errorf("len = %d, want 4", len(cards))
	}
}

func TestGetStudentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_student", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing student")
	}
}

func TestSetStatusAndSummary(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "set_status", map[string]interface{}{"id": "s1", "status": "present"})
	if r.IsError {
		t.Fatalf("set_status: %s", resultText(r))
	}

	r = callTool(t, srv, "get_summary", map[string]interface{}{})
	var sum models.Summary
	_ = json.Unmarshal([]byte(resultText(r)), &sum)
	want := models.Summary{Total: 4, Present: 2, Absent: 1, Late: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
}

func TestSetStatus_InvalidAndStale(t *testing.T) {
	srv, sess := testServer(t)

	r := callTool(t, srv, "set_status", map[string]interface{}{"id": "s1", "status": "excused"})
	if !r.IsError {
		t.Error("expected error for invalid status")
	}

	card, _ := sess.Student(context.Background(), "s1")
	_, _ = sess.SetStatus(context.Background(), "s1", models.StatusLate, "")

	r = callTool(t, srv, "set_status", map[string]interface{}{"id": "s1", "status": "present", "if_match": card.Checksum})
	if !r.IsError || !strings.Contains(resultText(r), "checksum mismatch") {
		t.Errorf("stale if_match = %q", resultText(r))
	}
}

func TestMarkAttendance(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "mark_attendance", map[string]interface{}{"id": "s2", "status": "late"})
	if r.IsError {
		t.Fatalf("mark_attendance: %s", resultText(r))
	}
	var card session.Card
	_ = json.Unmarshal([]byte(resultText(r)), &card)
	if len(card.Attendance) != 1 || card.Attendance[0].Date != "2025-01-11" || card.Status != models.StatusLate {
		t.Errorf("card = %+v", card)
	}

	r = callTool(t, srv, "mark_attendance", map[string]interface{}{"id": "s2", "status": "late", "date": "11.01.2025"})
	if !r.IsError {
		t.Error("expected error for malformed date")
	}
}

func TestStatusLabels(t *testing.T) {
	srv, _ := testServer(t)

	text := resultText(callTool(t, srv, "get_status_labels", map[string]interface{}{}))
	for _, want := range []string{"`present`: Present", "`late`: Late", "`absent`: Absent"} {
		if !strings.Contains(text, want) {
			t.Errorf("labels missing %q", want)
		}
	}
}
