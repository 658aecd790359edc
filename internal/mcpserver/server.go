// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes PDA.OK operations for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/BrayneSnax/pdaok/internal/insight"
	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/state"
	"github.com/BrayneSnax/pdaok/internal/transmit"
)

// Server wraps the MCP server with PDA.OK tools.
type Server struct {
	mcp    *server.MCPServer
	ctrl   *state.Controller
	reader *transmit.Reader
	cache  *insight.Cache
}

// New creates a new MCP server with all tools registered.
func New(ctrl *state.Controller, reader *transmit.Reader, cache *insight.Cache) *Server {
	s := &Server{ctrl: ctrl, reader: reader, cache: cache}

	s.mcp = server.NewMCPServer(
		"PDA.OK",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("append_moment",
		mcp.WithDescription("Append a journal moment. Read the moment format first via "+
			"the get_moment_contract tool or the pdaok://moment-format resource."),
		mcp.WithString("journal", mcp.Description("Target journal: 'journal' (default) or 'substance'")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Free-text body of the moment")),
		mcp.WithString("tone", mcp.Description("Optional tone word")),
		mcp.WithString("allyId", mcp.Description("Optional ally id to mirror the moment into")),
	), s.appendMoment)

	s.mcp.AddTool(mcp.NewTool("list_transmissions",
		mcp.WithDescription("List all transmissions, most recent first, with the unread count."),
	), s.listTransmissions)

	s.mcp.AddTool(mcp.NewTool("mark_transmission_read",
		mcp.WithDescription("Mark one transmission as read. Unknown ids are a no-op."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Transmission id")),
	), s.markTransmissionRead)

	s.mcp.AddTool(mcp.NewTool("check_transmissions",
		mcp.WithDescription("Run an immediate transmission eligibility pass. Bypasses the "+
			"elapsed-time guard but not the minimum-signal guard."),
	), s.checkTransmissions)

	s.mcp.AddTool(mcp.NewTool("clear_transmissions",
		mcp.WithDescription("Delete every transmission. Irreversible."),
	), s.clearTransmissions)

	s.mcp.AddTool(mcp.NewTool("daily_synthesis",
		mcp.WithDescription("Return today's synthesis. Generated at most once per day; "+
			"falls back to a default message when there is too little journal activity."),
	), s.dailySynthesis)

	s.mcp.AddTool(mcp.NewTool("get_moment_contract",
		mcp.WithDescription("Returns the canonical moment format. Call this before appending moments."),
	), s.getMomentContract)

	// Resource: moment format contract.
	s.mcp.AddResource(
		mcp.NewResource("pdaok://moment-format", "Moment Format Contract",
			mcp.WithResourceDescription("Canonical JSON shape for journal moments."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMomentFormatResource,
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

func (s *Server) appendMoment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m := models.Moment{Text: text}
	if tone, err := req.RequireString("tone"); err == nil {
		m.Tone = tone
	}
	if allyID, err := req.RequireString("allyId"); err == nil {
		m.AllyID = allyID
	}

	journal := ""
	if j, err := req.RequireString("journal"); err == nil {
		journal = j
	}
	switch journal {
	case "substance":
		m = s.ctrl.AppendSubstanceEntry(m)
	case "journal", "":
		m = s.ctrl.AppendJournalEntry(m)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown journal: %s", journal)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended: %s", m.ID)), nil
}

func (s *Server) listTransmissions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.reader.Snapshot(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) markTransmissionRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.reader.MarkRead(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("marked read: %s", id)), nil
}

func (s *Server) checkTransmissions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	created := s.reader.ForceCheck(ctx)
	if len(created) == 0 {
		return mcp.NewToolResultText("no entities eligible"), nil
	}
	out, _ := json.MarshalIndent(created, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) clearTransmissions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.reader.ClearAll(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("cleared"), nil
}

func (s *Server) dailySynthesis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.ctrl.Snapshot()
	return mcp.NewToolResultText(s.cache.Synthesize(ctx, &snap)), nil
}

func (s *Server) getMomentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MomentFormatContract), nil
}

func (s *Server) readMomentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "pdaok://moment-format",
			MIMEType: "text/markdown",
			Text:     MomentFormatContract,
		},
	}, nil
}
