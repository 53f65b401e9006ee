// Package remote adapts the claude.ai API client to the history.Source
// contract. Remote conversations have no project hierarchy, so everything
// hangs off one synthetic project.
package remote

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/claudeapi"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/logging"
)

const (
	// ProjectID names the synthetic project all remote conversations share.
	ProjectID   = "claude-ai"
	projectName = "Claude.ai Conversations"

	// defaultSearchLimit caps detail fetches when the caller gave no limit;
	// every remote search hit costs one network round-trip.
	defaultSearchLimit = 20
)

// Source exposes claude.ai conversations through the shared contract.
type Source struct {
	client *claudeapi.Client
	log    *slog.Logger
}

// New wraps an API client. The client owns availability; the source just
// reflects it.
func New(client *claudeapi.Client) *Source {
	return &Source{
		client: client,
		log:    logging.ForComponent(logging.CompRemote),
	}
}

func (s *Source) Type() history.SourceType { return history.SourceRemote }

func (s *Source) Available() bool { return s.client.Available() }

// ListProjects synthesizes the single claude-ai project, with lastActivity
// taken from the newest conversation.
func (s *Source) ListProjects(ctx context.Context) ([]history.Project, error) {
	convs, ok := s.client.Conversations(ctx, "")
	if !ok {
		s.log.Debug("conversation listing unavailable, omitting remote project")
		return nil, nil
	}

	var last time.Time
	for _, c := range convs {
		if c.UpdatedAt.After(last) {
			last = c.UpdatedAt
		}
	}
	return []history.Project{{
		ID:           ProjectID,
		Name:         projectName,
		Source:       history.SourceRemote,
		SessionCount: len(convs),
		LastActivity: last,
	}}, nil
}

// ListSessions fetches the full summary list and filters, sorts, and pages
// client-side; the listing endpoint has no date parameters.
func (s *Source) ListSessions(ctx context.Context, filter history.SessionFilter) ([]history.Session, error) {
	if filter.ProjectID != "" && filter.ProjectID != ProjectID {
		return nil, nil
	}
	if filter.ProjectPath != "" {
		return nil, nil // remote sessions have no filesystem paths
	}

	convs, ok := s.client.Conversations(ctx, "")
	if !ok {
		return nil, nil
	}
	start, end := filter.Bounds()

	var sessions []history.Session
	for _, c := range convs {
		if !history.SpanIntersects(c.CreatedAt, c.UpdatedAt, start, end) {
			continue
		}
		sessions = append(sessions, history.Session{
			ID:          c.UUID,
			Source:      history.SourceRemote,
			ProjectID:   ProjectID,
			ProjectName: projectName,
			Title:       c.Name,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return history.Page(sessions, filter.Limit, filter.Offset), nil
}

// GetConversation fetches one conversation's detail and normalizes its
// messages. A failed or missing fetch reads as not found.
func (s *Source) GetConversation(ctx context.Context, q history.ConversationQuery) (*history.Conversation, error) {
	detail, ok := s.client.Conversation(ctx, q.SessionID)
	if !ok || detail == nil {
		return nil, nil
	}

	var messages []history.Message
	for _, m := range detail.ChatMessages {
		role := roleForSender(m.Sender)
		if !q.WantsRole(role) {
			continue
		}
		messages = append(messages, history.Message{
			ID:        m.UUID,
			Role:      role,
			Content:   messageText(m),
			Timestamp: m.CreatedAt,
		})
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	total := len(messages)
	page := history.Page(messages, q.Limit, q.Offset)
	return &history.Conversation{
		Session: history.Session{
			ID:           detail.UUID,
			Source:       history.SourceRemote,
			ProjectID:    ProjectID,
			ProjectName:  projectName,
			Title:        detail.Name,
			CreatedAt:    detail.CreatedAt,
			UpdatedAt:    detail.UpdatedAt,
			MessageCount: total,
		},
		Messages:   page,
		Pagination: history.NewPagination(total, q.Limit, q.Offset),
	}, nil
}

// Search filters summaries server-side, then fetches detail for each
// candidate to scan message bodies — the listing endpoint returns no text.
// Each hit costs a round-trip, so the limit bounds detail fetches, not just
// the result slice.
func (s *Source) Search(ctx context.Context, q history.SearchQuery) ([]history.SearchResult, error) {
	if q.Query == "" {
		return nil, nil
	}
	if q.ProjectPath != "" {
		return nil, nil
	}

	summaries, ok := s.client.Conversations(ctx, q.Query)
	if !ok {
		return nil, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	start, end := q.Bounds()
	queryLower := strings.ToLower(q.Query)

	var results []history.SearchResult
	for _, summary := range summaries {
		if len(results) >= limit {
			break
		}
		detail, ok := s.client.Conversation(ctx, summary.UUID)
		if !ok || detail == nil {
			continue
		}
		for _, m := range detail.ChatMessages {
			text := messageText(m)
			if !strings.Contains(strings.ToLower(text), queryLower) {
				continue
			}
			if !history.InBounds(m.CreatedAt, start, end) {
				continue
			}
			results = append(results, history.SearchResult{
				Source:    history.SourceRemote,
				SessionID: detail.UUID,
				MessageID: m.UUID,
				Snippet:   history.MakeSnippet(text, q.Query, history.SnippetWindow),
				Timestamp: m.CreatedAt,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func roleForSender(sender string) string {
	if sender == "human" {
		return "user"
	}
	return "assistant"
}

// messageText prefers the flat text field and falls back to flattening the
// structured content blocks.
func messageText(m claudeapi.ChatMessage) string {
	if m.Text != "" {
		return m.Text
	}
	return history.FlattenContent(m.Content)
}
