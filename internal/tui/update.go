package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ─── Update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Global quit — always works
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// If search input is focused, let it handle most keys
		if m.Screen == ScreenSearch && m.SearchInput.Focused() {
			return m.handleSearchInputKeys(msg)
		}
		return m.handleKeyPress(msg.String())

	// ─── Data loaded messages ────────────────────────────────────────────
	case projectsLoadedMsg:
		m.Loading = false
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Projects = msg.list
		return m, nil

	case sessionsLoadedMsg:
		m.Loading = false
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Sessions = msg.page
		m.Screen = ScreenSessions
		m.Cursor = 0
		m.Scroll = 0
		return m, nil

	case conversationLoadedMsg:
		m.Loading = false
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		if msg.conv == nil {
			m.ErrorMsg = "conversation not found"
			return m, nil
		}
		m.Conversation = msg.conv
		m.Screen = ScreenConversation
		m.ConvScroll = 0
		return m, nil

	case searchResultsMsg:
		m.Loading = false
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.SearchResults = msg.resp
		m.SearchQuery = msg.query
		m.Screen = ScreenSearchResults
		m.Cursor = 0
		m.Scroll = 0
		return m, nil

	case spinner.TickMsg:
		// Only forward spinner ticks while something is loading
		if m.Loading {
			var cmd tea.Cmd
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// ─── Key Press Router ────────────────────────────────────────────────────────

func (m Model) handleKeyPress(key string) (tea.Model, tea.Cmd) {
	// Clear error on any keypress
	m.ErrorMsg = ""

	switch m.Screen {
	case ScreenDashboard:
		return m.handleDashboardKeys(key)
	case ScreenSessions:
		return m.handleSessionsKeys(key)
	case ScreenConversation:
		return m.handleConversationKeys(key)
	case ScreenSearch:
		return m.handleSearchKeys(key)
	case ScreenSearchResults:
		return m.handleSearchResultsKeys(key)
	}
	return m, nil
}

// ─── Dashboard (project list) ────────────────────────────────────────────────

func (m Model) handleDashboardKeys(key string) (tea.Model, tea.Cmd) {
	count := 0
	if m.Projects != nil {
		count = len(m.Projects.Projects)
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < count-1 {
			m.Cursor++
		}
	case "enter", " ":
		if count > 0 && m.Cursor < count {
			project := m.Projects.Projects[m.Cursor]
			m.SelectedProject = &project
			m.SelectedProjectIdx = m.Cursor
			m.PrevScreen = ScreenDashboard
			m.Loading = true
			return m, tea.Batch(m.Spinner.Tick, loadSessions(m.agg, project.ID))
		}
	case "a":
		// All sessions across every project
		m.SelectedProject = nil
		m.PrevScreen = ScreenDashboard
		m.Loading = true
		return m, tea.Batch(m.Spinner.Tick, loadSessions(m.agg, ""))
	case "s", "/":
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenSearch
		m.Cursor = 0
		m.SearchInput.SetValue("")
		m.SearchInput.Focus()
		return m, nil
	case "r":
		m.Loading = true
		return m, tea.Batch(m.Spinner.Tick, loadProjects(m.agg))
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// ─── Sessions ────────────────────────────────────────────────────────────────

func (m Model) handleSessionsKeys(key string) (tea.Model, tea.Cmd) {
	count := 0
	if m.Sessions != nil {
		count = len(m.Sessions.Sessions)
	}
	visibleItems := m.Height - 8
	if visibleItems < 5 {
		visibleItems = 5
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Scroll {
				m.Scroll = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < count-1 {
			m.Cursor++
			if m.Cursor >= m.Scroll+visibleItems {
				m.Scroll = m.Cursor - visibleItems + 1
			}
		}
	case "enter":
		if count > 0 && m.Cursor < count {
			sessionID := m.Sessions.Sessions[m.Cursor].ID
			m.PrevScreen = ScreenSessions
			m.Loading = true
			return m, tea.Batch(m.Spinner.Tick, loadConversation(m.agg, sessionID))
		}
	case "/", "s":
		m.PrevScreen = ScreenSessions
		m.Screen = ScreenSearch
		m.SearchInput.SetValue("")
		m.SearchInput.Focus()
		return m, nil
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = m.SelectedProjectIdx
		m.Scroll = 0
		return m, nil
	}
	return m, nil
}

// ─── Conversation ────────────────────────────────────────────────────────────

func (m Model) handleConversationKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.ConvScroll > 0 {
			m.ConvScroll--
		}
	case "down", "j":
		m.ConvScroll++
	case "g":
		m.ConvScroll = 0
	case "esc", "q":
		m.Screen = m.PrevScreen
		m.ConvScroll = 0
		return m, nil
	}
	return m, nil
}

// ─── Search Input ────────────────────────────────────────────────────────────

func (m Model) handleSearchInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := m.SearchInput.Value()
		if query != "" {
			m.SearchInput.Blur()
			m.Loading = true
			return m, tea.Batch(m.Spinner.Tick, searchConversations(m.agg, query))
		}
		return m, nil
	case "esc":
		m.SearchInput.Blur()
		m.Screen = m.PrevScreen
		m.Cursor = 0
		return m, nil
	}

	// Let the text input component handle everything else
	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.Screen = m.PrevScreen
		m.Cursor = 0
		return m, nil
	case "i", "/":
		m.SearchInput.Focus()
		return m, nil
	}
	return m, nil
}

// ─── Search Results ──────────────────────────────────────────────────────────

func (m Model) handleSearchResultsKeys(key string) (tea.Model, tea.Cmd) {
	count := 0
	if m.SearchResults != nil {
		count = len(m.SearchResults.Results)
	}
	visibleItems := (m.Height - 10) / 2 // 2 lines per result
	if visibleItems < 3 {
		visibleItems = 3
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Scroll {
				m.Scroll = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < count-1 {
			m.Cursor++
			if m.Cursor >= m.Scroll+visibleItems {
				m.Scroll = m.Cursor - visibleItems + 1
			}
		}
	case "enter":
		if count > 0 && m.Cursor < count {
			sessionID := m.SearchResults.Results[m.Cursor].SessionID
			m.PrevScreen = ScreenSearchResults
			m.Loading = true
			return m, tea.Batch(m.Spinner.Tick, loadConversation(m.agg, sessionID))
		}
	case "/", "s":
		m.PrevScreen = ScreenSearchResults
		m.Screen = ScreenSearch
		m.SearchInput.Focus()
		return m, nil
	case "esc", "q":
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenSearch
		m.Cursor = 0
		m.Scroll = 0
		m.SearchInput.Focus()
		return m, nil
	}
	return m, nil
}
