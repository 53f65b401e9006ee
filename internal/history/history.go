// Package history defines the unified conversation model shared by every
// backing store, and the Source contract each store implements.
//
// Two stores exist today: the local Claude Code log tree
// (~/.claude/projects/<encoded-path>/<uuid>.jsonl) and the claude.ai web
// API. Both normalize their records into the types here; the aggregator
// composes them without knowing which is which.
package history

import (
	"context"
	"time"
)

// ─── Source classification ───────────────────────────────────────────────────

// SourceType identifies which backing store produced an entity.
type SourceType string

const (
	SourceLocal  SourceType = "local"
	SourceRemote SourceType = "remote"
)

// MatchesFilter reports whether this source type passes a caller-supplied
// source filter ("local", "remote", "all", or empty for all).
func (s SourceType) MatchesFilter(filter string) bool {
	switch filter {
	case "", "all":
		return true
	default:
		return string(s) == filter
	}
}

// ─── Entities ────────────────────────────────────────────────────────────────

// Project is a grouping of sessions. Local projects map to directories under
// the log root; the remote store exposes a single synthetic project. Projects
// are computed on every listing call, never persisted.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path,omitempty"`
	Source       SourceType `json:"source"`
	SessionCount int        `json:"session_count"`
	MessageCount int        `json:"message_count"`
	LastActivity time.Time  `json:"last_activity"`
}

// Session is one conversation, identified uniquely within its source.
type Session struct {
	ID           string     `json:"id"`
	Source       SourceType `json:"source"`
	ProjectID    string     `json:"project_id,omitempty"`
	ProjectName  string     `json:"project_name,omitempty"`
	Title        string     `json:"title,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MessageCount int        `json:"message_count"`
}

// Message is a single normalized conversation turn. Content is flattened
// text; structured blocks are collapsed by FlattenContent.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user, assistant, or system
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a session plus a paginated slice of its messages, sorted
// ascending by timestamp.
type Conversation struct {
	Session    Session    `json:"session"`
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
}

// SearchResult is one substring match. Score is reserved for future ranking
// and stays zero for substring search.
type SearchResult struct {
	Source    SourceType `json:"source"`
	SessionID string     `json:"session_id"`
	MessageID string     `json:"message_id"`
	Snippet   string     `json:"snippet"`
	Timestamp time.Time  `json:"timestamp"`
	Score     float64    `json:"score,omitempty"`
}

// Pagination describes the page slice applied to a result set.
type Pagination struct {
	TotalCount int  `json:"total_count"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
}

// NewPagination derives pagination info from the pre-slice total.
func NewPagination(total, limit, offset int) Pagination {
	return Pagination{
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    offset+limit < total,
	}
}

// Page slices [offset, offset+limit) out of a result list, clamping at the
// edges. A limit <= 0 means no limit.
func Page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ─── Query parameters ────────────────────────────────────────────────────────

// SessionFilter narrows a session listing. Dates are bare days or full
// timestamps; engines normalize them with NormalizeDate before comparing.
type SessionFilter struct {
	ProjectID   string
	ProjectPath string
	StartDate   string
	EndDate     string
	Timezone    string
	Limit       int
	Offset      int
}

// Bounds resolves the filter's date range into UTC boundary instants.
// Either bound may be nil when unset or unparsable.
func (f SessionFilter) Bounds() (start, end *time.Time) {
	return ParseBounds(f.StartDate, f.EndDate, f.Timezone)
}

// ConversationQuery selects one conversation's messages.
type ConversationQuery struct {
	SessionID string
	Roles     []string // empty means {user, assistant}
	Limit     int
	Offset    int
}

// WantsRole reports whether the query's role set includes role.
func (q ConversationQuery) WantsRole(role string) bool {
	if len(q.Roles) == 0 {
		return role == "user" || role == "assistant"
	}
	for _, r := range q.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SearchQuery is a free-text substring search.
type SearchQuery struct {
	Query       string
	ProjectPath string
	StartDate   string
	EndDate     string
	Timezone    string
	Limit       int
}

// Bounds resolves the query's date range into UTC boundary instants.
func (q SearchQuery) Bounds() (start, end *time.Time) {
	return ParseBounds(q.StartDate, q.EndDate, q.Timezone)
}

// ─── Source contract ─────────────────────────────────────────────────────────

// Source is the uniform contract every backing store implements. The
// aggregator depends only on this interface, never on a concrete engine.
//
// Operations return best-effort results: a missing store yields empty
// listings, and GetConversation returns (nil, nil) when the session does not
// exist. Errors are reserved for genuine operational failures, which the
// aggregator swallows per source anyway.
type Source interface {
	Type() SourceType
	Available() bool
	ListProjects(ctx context.Context) ([]Project, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	GetConversation(ctx context.Context, q ConversationQuery) (*Conversation, error)
	Search(ctx context.Context, q SearchQuery) ([]SearchResult, error)
}
