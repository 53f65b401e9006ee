package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ─── Banner ──────────────────────────────────────────────────────────────────

func renderBanner() string {
	frameStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorOverlay).
		Padding(0, 1).
		MarginBottom(1)

	textStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	taglineStyle := lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)

	var b strings.Builder
	b.WriteString(textStyle.Render(" UNIFIED HISTORY "))
	b.WriteString("\n")
	b.WriteString(taglineStyle.Render(" > every Claude conversation, one place"))

	return frameStyle.Render(b.String()) + "\n"
}

// ─── View (main router) ─────────────────────────────────────────────────────

func (m Model) View() string {
	var content string

	switch m.Screen {
	case ScreenDashboard:
		content = m.viewDashboard()
	case ScreenSessions:
		content = m.viewSessions()
	case ScreenConversation:
		content = m.viewConversation()
	case ScreenSearch:
		content = m.viewSearch()
	case ScreenSearchResults:
		content = m.viewSearchResults()
	default:
		content = "Unknown screen"
	}

	if m.Loading {
		content += "\n" + m.Spinner.View() + " Loading..."
	}

	// Show error if present
	if m.ErrorMsg != "" {
		content += "\n" + errorStyle.Render("Error: "+m.ErrorMsg)
	}

	return appStyle.Render(content)
}

// ─── Dashboard (projects) ────────────────────────────────────────────────────

func (m Model) viewDashboard() string {
	var b strings.Builder

	b.WriteString(renderBanner())
	b.WriteString("\n")

	if m.Projects == nil {
		b.WriteString(noResultsStyle.Render("Loading projects..."))
		return b.String()
	}

	count := len(m.Projects.Projects)
	b.WriteString(headerStyle.Render(fmt.Sprintf("  Projects — %d (%s)",
		count, strings.Join(m.Projects.Sources, ", "))))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("No conversation history found."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  r reload • q quit"))
		return b.String()
	}

	for i, p := range m.Projects.Projects {
		cursor := "  "
		style := listItemStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s sessions  %s\n",
			cursor,
			sourceBadgeStyle.Render(fmt.Sprintf("[%-6s]", p.Source)),
			style.Render(truncateStr(p.Name, 45)),
			statNumberStyle.Render(fmt.Sprintf("%d", p.SessionCount)),
			timestampStyle.Render(relativeTime(p.LastActivity))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter sessions • a all sessions • / search • r reload • q quit"))

	return b.String()
}

// ─── Sessions ────────────────────────────────────────────────────────────────

func (m Model) viewSessions() string {
	var b strings.Builder

	title := "All Sessions"
	if m.SelectedProject != nil {
		title = "Sessions — " + m.SelectedProject.Name
	}
	b.WriteString(headerStyle.Render("  " + title))
	b.WriteString("\n")

	if m.Sessions == nil || len(m.Sessions.Sessions) == 0 {
		b.WriteString(noResultsStyle.Render("No sessions found."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  esc back"))
		return b.String()
	}

	count := len(m.Sessions.Sessions)
	visibleItems := m.Height - 8
	if visibleItems < 5 {
		visibleItems = 5
	}

	end := m.Scroll + visibleItems
	if end > count {
		end = count
	}

	for i := m.Scroll; i < end; i++ {
		s := m.Sessions.Sessions[i]
		cursor := "  "
		style := listItemStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		title := s.Title
		if title == "" {
			title = s.ID
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s msgs  %s\n",
			cursor,
			sourceBadgeStyle.Render(fmt.Sprintf("[%-6s]", s.Source)),
			style.Render(truncateStr(title, 50)),
			statNumberStyle.Render(fmt.Sprintf("%d", s.MessageCount)),
			timestampStyle.Render(relativeTime(s.UpdatedAt))))
	}

	if count > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}
	if m.Sessions.Pagination.HasMore {
		b.WriteString(fmt.Sprintf("  %s", timestampStyle.Render("(more on server)")))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter open • / search • esc back"))

	return b.String()
}

// ─── Conversation ────────────────────────────────────────────────────────────

func (m Model) viewConversation() string {
	var b strings.Builder

	if m.Conversation == nil {
		b.WriteString(headerStyle.Render("  Conversation"))
		b.WriteString("\n")
		b.WriteString(noResultsStyle.Render("Loading..."))
		return b.String()
	}

	sess := m.Conversation.Session
	title := sess.Title
	if title == "" {
		title = sess.ID
	}
	b.WriteString(headerStyle.Render("  " + truncateStr(title, 70)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Source:"),
		sourceBadgeStyle.Render(string(sess.Source))))
	if sess.ProjectName != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			detailLabelStyle.Render("Project:"),
			projectStyle.Render(sess.ProjectName)))
	}
	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Messages:"),
		detailValueStyle.Render(fmt.Sprintf("%d", m.Conversation.Pagination.TotalCount))))

	b.WriteString("\n")

	// Flatten messages into display lines, then apply scroll.
	var lines []string
	for _, msg := range m.Conversation.Messages {
		roleStyle := userRoleStyle
		if msg.Role == "assistant" {
			roleStyle = assistantRoleStyle
		}
		lines = append(lines, fmt.Sprintf("%s  %s",
			roleStyle.Render(fmt.Sprintf("%-9s", msg.Role)),
			timestampStyle.Render(msg.Timestamp.Format("2006-01-02 15:04"))))
		for _, l := range strings.Split(msg.Content, "\n") {
			lines = append(lines, detailContentStyle.Render(l))
		}
		lines = append(lines, "")
	}

	maxLines := m.Height - 12
	if maxLines < 5 {
		maxLines = 5
	}
	maxScroll := len(lines) - maxLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	scroll := m.ConvScroll
	if scroll > maxScroll {
		scroll = maxScroll
	}

	end := scroll + maxLines
	if end > len(lines) {
		end = len(lines)
	}
	for i := scroll; i < end; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}

	if len(lines) > maxLines {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("line %d-%d of %d", scroll+1, end, len(lines)))))
	}

	b.WriteString(helpStyle.Render("\n  j/k scroll • g top • esc back"))

	return b.String()
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (m Model) viewSearch() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Search Conversations"))
	b.WriteString("\n\n")

	b.WriteString(searchInputStyle.Render(m.SearchInput.View()))
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("  Type a query and press enter • esc go back"))

	return b.String()
}

// ─── Search Results ──────────────────────────────────────────────────────────

func (m Model) viewSearchResults() string {
	var b strings.Builder

	resultCount := 0
	sources := ""
	if m.SearchResults != nil {
		resultCount = len(m.SearchResults.Results)
		sources = strings.Join(m.SearchResults.Sources, ", ")
	}
	header := fmt.Sprintf("  Search: %q — %d result", m.SearchQuery, resultCount)
	if resultCount != 1 {
		header += "s"
	}
	if sources != "" {
		header += " (" + sources + ")"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if resultCount == 0 {
		b.WriteString(noResultsStyle.Render("No matches found. Try a different query."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  / new search • esc back"))
		return b.String()
	}

	visibleItems := (m.Height - 10) / 2 // 2 lines per result
	if visibleItems < 3 {
		visibleItems = 3
	}

	end := m.Scroll + visibleItems
	if end > resultCount {
		end = resultCount
	}

	for i := m.Scroll; i < end; i++ {
		r := m.SearchResults.Results[i]
		cursor := "  "
		style := listItemStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s\n",
			cursor,
			sourceBadgeStyle.Render(fmt.Sprintf("[%-6s]", r.Source)),
			style.Render(truncateStr(r.SessionID, 40)),
			timestampStyle.Render(relativeTime(r.Timestamp))))
		b.WriteString(contentPreviewStyle.Render(truncateStr(r.Snippet, 90)))
		b.WriteString("\n")
	}

	if resultCount > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, resultCount))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter open conversation • / search • esc back"))

	return b.String()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func truncateStr(s string, max int) string {
	// Remove newlines for single-line display
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// relativeTime renders an activity timestamp the way a session list reads
// best: recent entries as "2h ago", older ones as dates.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
