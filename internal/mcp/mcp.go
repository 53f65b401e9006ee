// Package mcp implements the Model Context Protocol server for unified
// conversation history.
//
// It exposes the aggregator's four operations as MCP tools over stdio, so
// any MCP client (Claude Code, Cursor, Windsurf, etc.) can browse local
// Claude Code logs and claude.ai conversations through one surface.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/aggregator"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
)

// Defaults applied when the caller omits a limit. Conversation pages are
// larger because messages are the unit a client actually reads.
const (
	defaultSessionLimit      = 20
	defaultConversationLimit = 50
	defaultSearchLimit       = 20
)

// serverInstructions is returned in the initialize response and may be added
// to the system prompt by clients.
const serverInstructions = `Unified access to Claude conversation history from two sources: local ` +
	`Claude Code session logs (~/.claude/projects) and claude.ai web conversations. ` +
	`Use these tools to: list projects with recorded history; browse sessions ` +
	`with date filtering; read a full conversation transcript; or search message ` +
	`text across everything. All tools accept a source filter ("local", "remote", ` +
	`or "all"). Key tools: search_conversations, get_conversation.`

// NewServer creates the MCP server with every history tool registered.
func NewServer(agg *aggregator.Aggregator) *server.MCPServer {
	srv := server.NewMCPServer(
		"claude-unified-history",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	registerTools(srv, agg)
	return srv
}

func registerTools(srv *server.MCPServer, agg *aggregator.Aggregator) {
	// ─── list_projects ──────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("list_projects",
			mcp.WithDescription("List all projects that have recorded conversation history. Local projects come from the Claude Code log tree; remote history appears as a single 'claude-ai' project. Projects are sorted by most recent activity."),
			mcp.WithTitleAnnotation("List Projects"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
			mcp.WithString("source",
				mcp.Description("Restrict to one source: local, remote, or all (default: all)"),
			),
		),
		handleListProjects(agg),
	)

	// ─── list_sessions ──────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List conversation sessions, newest first, optionally filtered by project and date range. Dates are YYYY-MM-DD and interpreted in the given IANA timezone (system timezone when omitted); end_date is inclusive through end of day."),
			mcp.WithTitleAnnotation("List Sessions"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
			mcp.WithString("source",
				mcp.Description("Restrict to one source: local, remote, or all (default: all)"),
			),
			mcp.WithString("project_id",
				mcp.Description("Filter by project ID from list_projects (e.g. '-Users-me-repo' or 'claude-ai')"),
			),
			mcp.WithString("project_path",
				mcp.Description("Filter by filesystem project path (local source only)"),
			),
			mcp.WithString("start_date",
				mcp.Description("Earliest session date, YYYY-MM-DD"),
			),
			mcp.WithString("end_date",
				mcp.Description("Latest session date, YYYY-MM-DD (inclusive)"),
			),
			mcp.WithString("timezone",
				mcp.Description("IANA timezone for date interpretation, e.g. America/New_York (default: system timezone)"),
			),
			mcp.WithNumber("limit",
				mcp.Description(fmt.Sprintf("Max sessions per page (default: %d)", defaultSessionLimit)),
			),
			mcp.WithNumber("offset",
				mcp.Description("Pagination offset (default: 0)"),
			),
		),
		handleListSessions(agg),
	)

	// ─── get_conversation ───────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("get_conversation",
			mcp.WithDescription("Get the full message transcript of one session by ID. Messages are ordered oldest first and paginated. By default only user and assistant turns are returned; pass roles to include system output."),
			mcp.WithTitleAnnotation("Get Conversation"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
			mcp.WithString("session_id",
				mcp.Required(),
				mcp.Description("Session ID from list_sessions or search_conversations"),
			),
			mcp.WithString("source",
				mcp.Description("Hint which source holds the session: local, remote, or all (default: all)"),
			),
			mcp.WithString("roles",
				mcp.Description("Comma-separated roles to include: user, assistant, system (default: user,assistant)"),
			),
			mcp.WithNumber("limit",
				mcp.Description(fmt.Sprintf("Max messages per page (default: %d)", defaultConversationLimit)),
			),
			mcp.WithNumber("offset",
				mcp.Description("Pagination offset (default: 0)"),
			),
		),
		handleGetConversation(agg),
	)

	// ─── search_conversations ───────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("search_conversations",
			mcp.WithDescription("Search message text across all conversation history. Matching is case-insensitive substring; each hit includes a snippet around the first match. Results are newest first."),
			mcp.WithTitleAnnotation("Search Conversations"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Text to search for"),
			),
			mcp.WithString("source",
				mcp.Description("Restrict to one source: local, remote, or all (default: all)"),
			),
			mcp.WithString("project_path",
				mcp.Description("Filter by filesystem project path (local source only)"),
			),
			mcp.WithString("start_date",
				mcp.Description("Earliest message date, YYYY-MM-DD"),
			),
			mcp.WithString("end_date",
				mcp.Description("Latest message date, YYYY-MM-DD (inclusive)"),
			),
			mcp.WithString("timezone",
				mcp.Description("IANA timezone for date interpretation (default: system timezone)"),
			),
			mcp.WithNumber("limit",
				mcp.Description(fmt.Sprintf("Max results (default: %d)", defaultSearchLimit)),
			),
		),
		handleSearch(agg),
	)
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleListProjects(agg *aggregator.Aggregator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, _ := req.GetArguments()["source"].(string)

		list, err := agg.ListProjects(ctx, source)
		if err != nil {
			return mcp.NewToolResultError("Failed to list projects: " + err.Error()), nil
		}
		return jsonResult(list)
	}
}

func handleListSessions(agg *aggregator.Aggregator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, _ := req.GetArguments()["source"].(string)
		projectID, _ := req.GetArguments()["project_id"].(string)
		projectPath, _ := req.GetArguments()["project_path"].(string)
		startDate, _ := req.GetArguments()["start_date"].(string)
		endDate, _ := req.GetArguments()["end_date"].(string)
		timezone, _ := req.GetArguments()["timezone"].(string)

		page, err := agg.ListSessions(ctx, source, history.SessionFilter{
			ProjectID:   projectID,
			ProjectPath: projectPath,
			StartDate:   startDate,
			EndDate:     endDate,
			Timezone:    timezone,
			Limit:       intArg(req, "limit", defaultSessionLimit),
			Offset:      intArg(req, "offset", 0),
		})
		if err != nil {
			return mcp.NewToolResultError("Failed to list sessions: " + err.Error()), nil
		}
		return jsonResult(page)
	}
}

func handleGetConversation(agg *aggregator.Aggregator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, _ := req.GetArguments()["session_id"].(string)
		if sessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}
		source, _ := req.GetArguments()["source"].(string)

		conv, err := agg.GetConversation(ctx, source, history.ConversationQuery{
			SessionID: sessionID,
			Roles:     splitRoles(req),
			Limit:     intArg(req, "limit", defaultConversationLimit),
			Offset:    intArg(req, "offset", 0),
		})
		if err != nil {
			return mcp.NewToolResultError("Failed to get conversation: " + err.Error()), nil
		}
		if conv == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Session not found: %s", sessionID)), nil
		}
		return jsonResult(conv)
	}
}

func handleSearch(agg *aggregator.Aggregator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := req.GetArguments()["query"].(string)
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		source, _ := req.GetArguments()["source"].(string)
		projectPath, _ := req.GetArguments()["project_path"].(string)
		startDate, _ := req.GetArguments()["start_date"].(string)
		endDate, _ := req.GetArguments()["end_date"].(string)
		timezone, _ := req.GetArguments()["timezone"].(string)

		resp, err := agg.Search(ctx, source, history.SearchQuery{
			Query:       query,
			ProjectPath: projectPath,
			StartDate:   startDate,
			EndDate:     endDate,
			Timezone:    timezone,
			Limit:       intArg(req, "limit", defaultSearchLimit),
		})
		if err != nil {
			return mcp.NewToolResultError("Search failed: " + err.Error()), nil
		}
		return jsonResult(resp)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// jsonResult marshals a response payload as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("Failed to encode response: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// splitRoles parses the comma-separated roles argument. Empty input yields
// nil, which downstream reads as the user+assistant default.
func splitRoles(req mcp.CallToolRequest) []string {
	raw, _ := req.GetArguments()["roles"].(string)
	var roles []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			roles = append(roles, token)
		}
	}
	return roles
}
