package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	mcppkg "github.com/mark3labs/mcp-go/mcp"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/aggregator"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
)

// stubSource serves canned data so handler tests need no filesystem or
// network.
type stubSource struct {
	typ      history.SourceType
	sessions []history.Session
	conv     *history.Conversation
	results  []history.SearchResult

	lastConvQuery history.ConversationQuery
}

func (s *stubSource) Type() history.SourceType { return s.typ }
func (s *stubSource) Available() bool          { return true }

func (s *stubSource) ListProjects(context.Context) ([]history.Project, error) {
	return []history.Project{{ID: "Users/me/repo", Source: s.typ}}, nil
}

func (s *stubSource) ListSessions(_ context.Context, filter history.SessionFilter) ([]history.Session, error) {
	return history.Page(s.sessions, filter.Limit, filter.Offset), nil
}

func (s *stubSource) GetConversation(_ context.Context, q history.ConversationQuery) (*history.Conversation, error) {
	s.lastConvQuery = q
	if s.conv != nil && q.SessionID == s.conv.Session.ID {
		return s.conv, nil
	}
	return nil, nil
}

func (s *stubSource) Search(context.Context, history.SearchQuery) ([]history.SearchResult, error) {
	return s.results, nil
}

func newTestAggregator(src *stubSource) *aggregator.Aggregator {
	return aggregator.New(src)
}

func callResultText(t *testing.T, res *mcppkg.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected non-empty tool result")
	}
	text, ok := mcppkg.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content")
	}
	return text.Text
}

func TestNewServerRegistersTools(t *testing.T) {
	srv := NewServer(newTestAggregator(&stubSource{typ: history.SourceLocal}))
	if srv == nil {
		t.Fatalf("expected MCP server instance")
	}
}

func TestHandleListProjectsReturnsJSON(t *testing.T) {
	h := handleListProjects(newTestAggregator(&stubSource{typ: history.SourceLocal}))
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{}}}

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", callResultText(t, res))
	}

	var payload aggregator.ProjectList
	if err := json.Unmarshal([]byte(callResultText(t, res)), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(payload.Projects) != 1 || payload.Projects[0].ID != "Users/me/repo" {
		t.Fatalf("unexpected project list: %+v", payload.Projects)
	}
	if len(payload.Sources) != 1 || payload.Sources[0] != "local" {
		t.Fatalf("unexpected sources_searched: %+v", payload.Sources)
	}
}

func TestHandleListSessionsDefaultLimit(t *testing.T) {
	src := &stubSource{typ: history.SourceLocal}
	for i := 0; i < 30; i++ {
		src.sessions = append(src.sessions, history.Session{
			ID:        "s" + strings.Repeat("x", i+1),
			Source:    history.SourceLocal,
			UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour),
		})
	}
	h := handleListSessions(newTestAggregator(src))
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{}}}

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var payload aggregator.SessionPage
	if err := json.Unmarshal([]byte(callResultText(t, res)), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(payload.Sessions) != defaultSessionLimit {
		t.Fatalf("expected default page of %d sessions, got %d", defaultSessionLimit, len(payload.Sessions))
	}
	if !payload.Pagination.HasMore {
		t.Fatalf("expected has_more with 30 sessions and limit %d", defaultSessionLimit)
	}
}

func TestHandleGetConversationRequiresSessionID(t *testing.T) {
	h := handleGetConversation(newTestAggregator(&stubSource{typ: history.SourceLocal}))
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{}}}

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error when session_id is missing")
	}
}

func TestHandleGetConversationNotFound(t *testing.T) {
	h := handleGetConversation(newTestAggregator(&stubSource{typ: history.SourceLocal}))
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{
		"session_id": "nope",
	}}}

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error for unknown session")
	}
	if text := callResultText(t, res); !strings.Contains(text, "nope") {
		t.Fatalf("error should name the session, got %q", text)
	}
}

func TestHandleGetConversationParsesRoles(t *testing.T) {
	src := &stubSource{
		typ: history.SourceLocal,
		conv: &history.Conversation{
			Session: history.Session{ID: "sess-1", Source: history.SourceLocal},
		},
	}
	h := handleGetConversation(newTestAggregator(src))
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{
		"session_id": "sess-1",
		"roles":      "user, system",
	}}}

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", callResultText(t, res))
	}

	got := src.lastConvQuery.Roles
	if len(got) != 2 || got[0] != "user" || got[1] != "system" {
		t.Fatalf("expected roles [user system], got %v", got)
	}
	if src.lastConvQuery.Limit != defaultConversationLimit {
		t.Fatalf("expected default limit %d, got %d", defaultConversationLimit, src.lastConvQuery.Limit)
	}
}

func TestHandleSearchRequiresQuery(t *testing.T) {
	h := handleSearch(newTestAggregator(&stubSource{typ: history.SourceLocal}))
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{}}}

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error when query is missing")
	}
}

func TestHandleSearchReturnsResults(t *testing.T) {
	src := &stubSource{
		typ: history.SourceLocal,
		results: []history.SearchResult{
			{Source: history.SourceLocal, SessionID: "sess-1", Snippet: "...rate limiter..."},
		},
	}
	h := handleSearch(newTestAggregator(src))
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{
		"query": "rate limiter",
	}}}

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", callResultText(t, res))
	}

	var payload aggregator.SearchResponse
	if err := json.Unmarshal([]byte(callResultText(t, res)), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(payload.Results) != 1 || payload.Results[0].SessionID != "sess-1" {
		t.Fatalf("unexpected results: %+v", payload.Results)
	}
}

func TestSplitRoles(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"user", 1},
		{"user,assistant,system", 3},
		{" user , ,system ", 2},
	}
	for _, tc := range cases {
		req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: map[string]any{
			"roles": tc.in,
		}}}
		if got := splitRoles(req); len(got) != tc.want {
			t.Fatalf("splitRoles(%q) = %v, want %d entries", tc.in, got, tc.want)
		}
	}
}
