package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/BrayneSnax/pdaok/internal/insight"
	"github.com/BrayneSnax/pdaok/internal/testutil"
	"github.com/BrayneSnax/pdaok/internal/transmit"
)

type stubGen struct {
	text string
}

func (g stubGen) Generate(_ context.Context, _ string) (string, error) {
	return g.text, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	ctrl, db := testutil.TestController(t)
	sched := transmit.New(db, stubGen{text: "msg"}, testutil.Logger(), transmit.Config{
		PollInterval: time.Minute,
		MinGap:       time.Hour,
		RecentWindow: time.Hour,
		MinSignal:    3,
	}, nil)
	reader := transmit.NewReader(db, sched, ctrl.BuildTransmissionContext, time.Minute, testutil.Logger())
	cache := insight.New(db, stubGen{text: "synthesis"}, testutil.Logger(), 5)
	return New(ctrl, reader, cache)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; call the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "append_moment":
		result, err = srv.appendMoment(ctx, req)
	case "list_transmissions":
		result, err = srv.listTransmissions(ctx, req)
	case "mark_transmission_read":
		result, err = srv.markTransmissionRead(ctx, req)
	case "check_transmissions":
		result, err = srv.checkTransmissions(ctx, req)
	case "clear_transmissions":
		result, err = srv.clearTransmissions(ctx, req)
	case "daily_synthesis":
		result, err = srv.dailySynthesis(ctx, req)
	case "get_moment_contract":
		result, err = srv.getMomentContract(ctx, req)
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

func TestAppendMomentTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "append_moment", map[string]interface{}{
		"text":   "walked before lunch",
		"tone":   "bright",
		"allyId": "ally-caffeine",
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.HasPrefix(resultText(r), "appended: ") {
		t.Errorf("result = %q", resultText(r))
	}

	snap := srv.ctrl.Snapshot()
	if len(snap.JournalEntries) != 1 {
		t.Errorf("journal entries = %d, want 1", len(snap.JournalEntries))
	}
}

func TestAppendMomentToolSubstanceJournal(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "append_moment", map[string]interface{}{
		"journal": "substance",
		"text":    "one cup, seated",
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if len(srv.ctrl.Snapshot().SubstanceJournalEntries) != 1 {
		t.Error("substance journal not appended")
	}
}

func TestAppendMomentToolRejectsUnknownJournal(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "append_moment", map[string]interface{}{
		"journal": "dreams",
		"text":    "x",
	})
	if !r.IsError {
		t.Error("expected error result for unknown journal")
	}
}

func TestAppendMomentToolRequiresText(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "append_moment", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error result when text is missing")
	}
}

func TestListAndMarkTransmissions(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_transmissions", nil)
	if r.IsError {
		t.Fatalf("list error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"transmissions"`) {
		t.Errorf("list result = %q", resultText(r))
	}

	// Unknown ids are a no-op, not an error.
	r = callTool(t, srv, "mark_transmission_read", map[string]interface{}{"id": "no-such-id"})
	if r.IsError {
		t.Errorf("mark read error: %s", resultText(r))
	}
}

func TestCheckTransmissionsQuietStore(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "check_transmissions", nil)
	if r.IsError {
		t.Fatalf("check error: %s", resultText(r))
	}
	if resultText(r) != "no entities eligible" {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestClearTransmissionsTool(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "clear_transmissions", nil)
	if r.IsError {
		t.Fatalf("clear error: %s", resultText(r))
	}
	if resultText(r) != "cleared" {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestDailySynthesisToolDefaultsBelowThreshold(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "daily_synthesis", nil)
	if r.IsError {
		t.Fatalf("synthesis error: %s", resultText(r))
	}
	if resultText(r) != insight.DefaultMessage {
		t.Errorf("result = %q, want default message", resultText(r))
	}
}

func TestMomentContract(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_moment_contract", nil)
	if resultText(r) != MomentFormatContract {
		t.Error("tool did not return the contract")
	}

	contents, err := srv.readMomentFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("resource error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatal("expected text resource contents")
	}
	if tc.URI != "pdaok://moment-format" || !strings.Contains(tc.Text, "Moment Format Contract") {
		t.Errorf("resource = %+v", tc)
	}
}
