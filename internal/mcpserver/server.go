// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Rollcall tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/rollcall/internal/apperr"
	"github.com/starford/rollcall/internal/attendance"
	"github.com/starford/rollcall/internal/session"
)

const statusesURI = "rollcall://statuses"

// Server wraps the MCP server with Rollcall tools.
type Server struct {
	mcp  *server.MCPServer
	sess *session.Session
}

// New creates a new MCP server with all Rollcall tools registered.
func New(sess *session.Session) *Server {
	s := &Server{sess: sess}

	s.mcp = server.NewMCPServer(
		"Rollcall",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_students",
		mcp.WithDescription("List students with their current attendance status, optionally filtered by name."),
		mcp.WithString("query", mcp.Description("Case-insensitive name substring (empty for all)")),
	), s.listStudents)

	s.mcp.AddTool(mcp.NewTool("get_student",
		mcp.WithDescription("Read one student with its attendance history, current status and checksum."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Student ID")),
	), s.getStudent)

	s.mcp.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Count students by current status (present, absent, late) over the whole roster."),
	), s.getSummary)

	s.mcp.AddTool(mcp.NewTool("set_status",
		mcp.WithDescription("Overwrite the status of the student's last attendance record. "+
			"Read the contract first via the get_status_labels tool or the rollcall://statuses resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Student ID")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status"), mcp.Enum("present", "absent", "late")),
		mcp.WithString("if_match", mcp.Description("Checksum returned by get_student; the update fails if it is stale")),
	), s.setStatus)

	s.mcp.AddTool(mcp.NewTool("mark_attendance",
		mcp.WithDescription("Record a status for a given date, replacing that date's record or appending one."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Student ID")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status"), mcp.Enum("present", "absent", "late")),
		mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD (default today)")),
		mcp.WithString("if_match", mcp.Description("Checksum returned by get_student; the update fails if it is stale")),
	), s.markAttendance)

	s.mcp.AddTool(mcp.NewTool("get_status_labels",
		mcp.WithDescription("Returns the attendance contract: statuses, labels and update rules."),
	), s.getStatusLabels)

	// Resource: attendance contract.
	s.mcp.AddResource(
		mcp.NewResource(statusesURI, "Attendance Contract",
			mcp.WithResourceDescription("Attendance statuses and the rules for changing them."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readStatusesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listStudents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}
	return jsonResult(s.sess.Students(ctx, query))
}

func (s *Server) getStudent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.sess.Student(ctx, id)
	if err != nil {
		return toolError(err, id), nil
	}
	return jsonResult(card)
}

func (s *Server) getSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sess.Summary(ctx))
}

func (s *Server) setStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := attendance.ParseStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.sess.SetStatus(ctx, id, st, req.GetString("if_match", ""))
	if err != nil {
		return toolError(err, id), nil
	}
	return jsonResult(card)
}

func (s *Server) markAttendance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := attendance.ParseStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.sess.MarkOn(ctx, id, req.GetString("date", ""), st, req.GetString("if_match", ""))
	if err != nil {
		return toolError(err, id), nil
	}
	return jsonResult(card)
}

func (s *Server) getStatusLabels(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(StatusContract + "\n## Labels\n\n" + labelList()), nil
}

func (s *Server) readStatusesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statusesURI,
			MIMEType: "text/markdown",
			Text:     StatusContract,
		},
	}, nil
}

func labelList() string {
	out := ""
	for _, st := range attendance.Statuses() {
		out += fmt.Sprintf("- `%s`: %s\n", st, attendance.Label(st))
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error, id string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("student not found: %s", id))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("checksum mismatch for %s; read the student again", id))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
