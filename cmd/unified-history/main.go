// unified-history — one interface over every Claude conversation.
//
// Usage:
//
//	unified-history mcp              Start MCP server (stdio transport)
//	unified-history tui              Launch interactive terminal browser
//	unified-history projects         List projects with recorded history
//	unified-history sessions         List recent sessions
//	unified-history show <id>        Print a conversation transcript
//	unified-history search <query>   Search message text
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/aggregator"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/claudeapi"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/config"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/local"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/logging"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/mcp"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/remote"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/tui"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "mcp":
		cmdMCP()
	case "tui":
		cmdTUI()
	case "projects":
		cmdProjects()
	case "sessions":
		cmdSessions()
	case "show":
		cmdShow()
	case "search":
		cmdSearch()
	case "version", "--version", "-v":
		fmt.Printf("unified-history %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// buildAggregator wires config → logging → sources. The local source is
// always registered; remote only when a session key is configured and not
// force-disabled. Local comes first so session lookups stay cheap.
func buildAggregator() *aggregator.Aggregator {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	logging.Init(logging.Config{
		LogDir:     cfg.Log.Dir,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	root := cfg.HistoryRoot
	if root == "" {
		root = local.DefaultRoot()
	}

	sources := []history.Source{local.New(root)}
	if cfg.RemoteActive() {
		client := claudeapi.New(claudeapi.Config{
			SessionKey:     cfg.SessionKey,
			OrganizationID: cfg.OrganizationID,
		})
		sources = append(sources, remote.New(client))
	}

	return aggregator.New(sources...)
}

// ─── Commands ────────────────────────────────────────────────────────────────

func cmdMCP() {
	agg := buildAggregator()
	defer logging.Shutdown()

	srv := mcp.NewServer(agg)
	if err := mcpserver.ServeStdio(srv); err != nil {
		fatal(err)
	}
}

func cmdTUI() {
	agg := buildAggregator()
	defer logging.Shutdown()

	model := tui.New(agg, version)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

func cmdProjects() {
	agg := buildAggregator()
	defer logging.Shutdown()

	list, err := agg.ListProjects(context.Background(), "all")
	if err != nil {
		fatal(err)
	}

	if len(list.Projects) == 0 {
		fmt.Println("No conversation history found.")
		return
	}

	fmt.Printf("Projects (%s):\n\n", strings.Join(list.Sources, ", "))
	for _, p := range list.Projects {
		fmt.Printf("  [%s] %s — %d sessions, %d messages, last active %s\n",
			p.Source, p.Name, p.SessionCount, p.MessageCount,
			p.LastActivity.Format("2006-01-02 15:04"))
	}
}

func cmdSessions() {
	filter := history.SessionFilter{Limit: 20}
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--project":
			if i+1 < len(os.Args) {
				filter.ProjectID = os.Args[i+1]
				i++
			}
		case "--since":
			if i+1 < len(os.Args) {
				filter.StartDate = os.Args[i+1]
				i++
			}
		case "--until":
			if i+1 < len(os.Args) {
				filter.EndDate = os.Args[i+1]
				i++
			}
		case "--limit":
			if i+1 < len(os.Args) {
				if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
					filter.Limit = n
				}
				i++
			}
		}
	}

	agg := buildAggregator()
	defer logging.Shutdown()

	page, err := agg.ListSessions(context.Background(), "all", filter)
	if err != nil {
		fatal(err)
	}

	if len(page.Sessions) == 0 {
		fmt.Println("No sessions found.")
		return
	}

	for _, s := range page.Sessions {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("  [%s] %s\n      %s — %d messages, updated %s\n",
			s.Source, title, s.ID, s.MessageCount,
			s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if page.Pagination.HasMore {
		fmt.Printf("\n  ...more sessions available (use --limit)\n")
	}
}

func cmdShow() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: unified-history show <session-id> [--limit N]")
		os.Exit(1)
	}
	sessionID := os.Args[2]

	limit := 200
	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--limit" && i+1 < len(os.Args) {
			if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
				limit = n
			}
			i++
		}
	}

	agg := buildAggregator()
	defer logging.Shutdown()

	conv, err := agg.GetConversation(context.Background(), "all", history.ConversationQuery{
		SessionID: sessionID,
		Limit:     limit,
	})
	if err != nil {
		fatal(err)
	}
	if conv == nil {
		fmt.Fprintf(os.Stderr, "session not found: %s\n", sessionID)
		os.Exit(1)
	}

	sess := conv.Session
	title := sess.Title
	if title == "" {
		title = sess.ID
	}
	fmt.Printf("%s [%s]\n", title, sess.Source)
	if sess.ProjectName != "" {
		fmt.Printf("Project: %s\n", sess.ProjectName)
	}
	fmt.Printf("Messages: %d\n\n", conv.Pagination.TotalCount)

	for _, msg := range conv.Messages {
		fmt.Printf("── %s  %s\n%s\n\n",
			msg.Role, msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Content)
	}

	if conv.Pagination.HasMore {
		fmt.Printf("...%d more messages (use --limit)\n",
			conv.Pagination.TotalCount-len(conv.Messages))
	}
}

func cmdSearch() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: unified-history search <query> [--project PATH] [--since DATE] [--until DATE] [--limit N]")
		os.Exit(1)
	}

	// Collect the query (everything that's not a flag)
	var queryParts []string
	q := history.SearchQuery{Limit: 20}

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--project":
			if i+1 < len(os.Args) {
				q.ProjectPath = os.Args[i+1]
				i++
			}
		case "--since":
			if i+1 < len(os.Args) {
				q.StartDate = os.Args[i+1]
				i++
			}
		case "--until":
			if i+1 < len(os.Args) {
				q.EndDate = os.Args[i+1]
				i++
			}
		case "--limit":
			if i+1 < len(os.Args) {
				if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
					q.Limit = n
				}
				i++
			}
		default:
			queryParts = append(queryParts, os.Args[i])
		}
	}

	q.Query = strings.Join(queryParts, " ")
	if q.Query == "" {
		fmt.Fprintln(os.Stderr, "error: search query is required")
		os.Exit(1)
	}

	agg := buildAggregator()
	defer logging.Shutdown()

	resp, err := agg.Search(context.Background(), "all", q)
	if err != nil {
		fatal(err)
	}

	if len(resp.Results) == 0 {
		fmt.Printf("No matches found for: %q\n", q.Query)
		return
	}

	fmt.Printf("Found %d matches (%s):\n\n", len(resp.Results), strings.Join(resp.Sources, ", "))
	for i, r := range resp.Results {
		fmt.Printf("[%d] [%s] session %s — %s\n    %s\n\n",
			i+1, r.Source, r.SessionID,
			r.Timestamp.Format("2006-01-02 15:04"), r.Snippet)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func printUsage() {
	fmt.Printf(`unified-history v%s — every Claude conversation, one place

Usage:
  unified-history <command> [arguments]

Commands:
  mcp                Start MCP server (stdio transport)
  tui                Launch interactive terminal browser
  projects           List projects with recorded history
  sessions           List sessions [--project ID] [--since DATE] [--until DATE] [--limit N]
  show <session-id>  Print a conversation transcript [--limit N]
  search <query>     Search message text [--project PATH] [--since DATE] [--until DATE] [--limit N]
  version            Print version
  help               Show this help

Environment:
  CLAUDE_SESSION_KEY       claude.ai session key (enables the remote source)
  CLAUDE_ORG_ID            claude.ai organization UUID (skips discovery)
  CLAUDE_REMOTE_ENABLED    Set to false to force-disable the remote source
  CLAUDE_HISTORY_ROOT      Override local log tree (default: ~/.claude/projects)

Config file: ~/.unified-history/config.toml (environment wins over file)

MCP Configuration (add to your agent's config):
  {
    "mcp": {
      "unified-history": {
        "type": "stdio",
        "command": "unified-history",
        "args": ["mcp"]
      }
    }
  }
`, version)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "unified-history: %s\n", err)
	os.Exit(1)
}
