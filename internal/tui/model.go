// Package tui implements the Bubbletea terminal browser for unified
// conversation history.
//
// Structure:
// - Screen constants as iota
// - Single Model struct holds ALL state
// - Update() with type switch
// - Per-screen key handlers returning (tea.Model, tea.Cmd)
// - Vim keys (j/k) for navigation
// - PrevScreen for back navigation
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/aggregator"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
)

// loadTimeout bounds every data-loading command; remote fetches can hang on
// a slow connection and the UI must stay responsive.
const loadTimeout = 30 * time.Second

const sessionPageSize = 50

// ─── Screens ─────────────────────────────────────────────────────────────────

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenSessions
	ScreenConversation
	ScreenSearch
	ScreenSearchResults
)

// ─── Custom Messages ─────────────────────────────────────────────────────────

type projectsLoadedMsg struct {
	list *aggregator.ProjectList
	err  error
}

type sessionsLoadedMsg struct {
	page *aggregator.SessionPage
	err  error
}

type conversationLoadedMsg struct {
	conv *history.Conversation
	err  error
}

type searchResultsMsg struct {
	resp  *aggregator.SearchResponse
	query string
	err   error
}

// ─── Model ───────────────────────────────────────────────────────────────────

type Model struct {
	agg        *aggregator.Aggregator
	Version    string
	Screen     Screen
	PrevScreen Screen
	Width      int
	Height     int
	Cursor     int
	Scroll     int
	Loading    bool
	Spinner    spinner.Model

	// Error display
	ErrorMsg string

	// Dashboard
	Projects *aggregator.ProjectList

	// Sessions
	Sessions           *aggregator.SessionPage
	SelectedProject    *history.Project
	SelectedProjectIdx int

	// Conversation
	Conversation *history.Conversation
	ConvScroll   int

	// Search
	SearchInput   textinput.Model
	SearchQuery   string
	SearchResults *aggregator.SearchResponse
}

// New creates a TUI model over the given aggregator.
func New(agg *aggregator.Aggregator, version string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search conversations..."
	ti.CharLimit = 256
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorLavender)

	return Model{
		agg:         agg,
		Version:     version,
		Screen:      ScreenDashboard,
		SearchInput: ti,
		Spinner:     sp,
		Loading:     true,
	}
}

// Init loads the project list for the dashboard.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		loadProjects(m.agg),
		tea.EnterAltScreen,
	)
}

// ─── Commands (data loading) ─────────────────────────────────────────────────

func loadProjects(agg *aggregator.Aggregator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		list, err := agg.ListProjects(ctx, "all")
		return projectsLoadedMsg{list: list, err: err}
	}
}

func loadSessions(agg *aggregator.Aggregator, projectID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		page, err := agg.ListSessions(ctx, "all", history.SessionFilter{
			ProjectID: projectID,
			Limit:     sessionPageSize,
		})
		return sessionsLoadedMsg{page: page, err: err}
	}
}

func loadConversation(agg *aggregator.Aggregator, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		conv, err := agg.GetConversation(ctx, "all", history.ConversationQuery{
			SessionID: sessionID,
			Limit:     200,
		})
		return conversationLoadedMsg{conv: conv, err: err}
	}
}

func searchConversations(agg *aggregator.Aggregator, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		resp, err := agg.Search(ctx, "all", history.SearchQuery{
			Query: query,
			Limit: 50,
		})
		return searchResultsMsg{resp: resp, query: query, err: err}
	}
}
