// Package aggregator fans queries out to every registered history source and
// merges the results. Source failures never fail a query: an erroring source
// contributes an empty slice and a log line, nothing more.
package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/logging"
)

// Aggregator multiplexes the Source contract across every backing store.
// Source order is significant: GetConversation probes sources in registration
// order, so register local before remote to keep lookups cheap.
type Aggregator struct {
	sources []history.Source
	log     *slog.Logger
}

// New builds an aggregator over the given sources.
func New(sources ...history.Source) *Aggregator {
	return &Aggregator{
		sources: sources,
		log:     logging.ForComponent(logging.CompMCP),
	}
}

// ProjectList is the merged project listing plus the sources that served it.
type ProjectList struct {
	Projects []history.Project `json:"projects"`
	Sources  []string          `json:"sources_searched"`
}

// SessionPage is one page of merged sessions.
type SessionPage struct {
	Sessions   []history.Session  `json:"sessions"`
	Pagination history.Pagination `json:"pagination"`
	Sources    []string           `json:"sources_searched"`
}

// SearchResponse is a merged, limit-truncated search result set.
type SearchResponse struct {
	Results []history.SearchResult `json:"results"`
	Sources []string               `json:"sources_searched"`
}

// selectSources narrows the registered sources to those that are available
// and match the caller's source filter ("", "all", "local", "remote").
func (a *Aggregator) selectSources(filter string) []history.Source {
	var picked []history.Source
	for _, src := range a.sources {
		if !src.Available() {
			continue
		}
		if !src.Type().MatchesFilter(filter) {
			continue
		}
		picked = append(picked, src)
	}
	return picked
}

func sourceNames(sources []history.Source) []string {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, string(src.Type()))
	}
	return names
}

// fanOut runs fn against every source concurrently. Per-source errors are
// logged and swallowed; the closures always return nil so one bad source
// cannot cancel its siblings.
func fanOut[T any](a *Aggregator, ctx context.Context, sources []history.Source, op string, fn func(context.Context, history.Source) ([]T, error)) []T {
	var (
		mu     sync.Mutex
		merged []T
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			items, err := fn(gctx, src)
			if err != nil {
				a.log.Warn("source query failed",
					slog.String("op", op),
					slog.String("source", string(src.Type())),
					slog.Any("error", err))
				return nil
			}
			mu.Lock()
			merged = append(merged, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // closures never return errors
	return merged
}

// ListProjects merges project listings from every selected source.
func (a *Aggregator) ListProjects(ctx context.Context, sourceFilter string) (*ProjectList, error) {
	sources := a.selectSources(sourceFilter)
	projects := fanOut(a, ctx, sources, "list_projects", func(ctx context.Context, src history.Source) ([]history.Project, error) {
		return src.ListProjects(ctx)
	})
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastActivity.After(projects[j].LastActivity)
	})
	return &ProjectList{
		Projects: projects,
		Sources:  sourceNames(sources),
	}, nil
}

// ListSessions merges per-source session listings and re-pages the merged
// set. Each source is asked for offset zero and one row past the global page
// boundary, so the page is correct no matter how the rows interleave and
// has_more can still flip on. The reported total is a lower bound.
func (a *Aggregator) ListSessions(ctx context.Context, sourceFilter string, filter history.SessionFilter) (*SessionPage, error) {
	sources := a.selectSources(sourceFilter)

	limit, offset := filter.Limit, filter.Offset
	perSource := filter
	perSource.Offset = 0
	if limit > 0 {
		perSource.Limit = offset + limit + 1
	}

	sessions := fanOut(a, ctx, sources, "list_sessions", func(ctx context.Context, src history.Source) ([]history.Session, error) {
		return src.ListSessions(ctx, perSource)
	})
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	total := len(sessions)
	page := history.Page(sessions, limit, offset)
	return &SessionPage{
		Sessions:   page,
		Pagination: history.NewPagination(total, limit, offset),
		Sources:    sourceNames(sources),
	}, nil
}

// GetConversation probes sources in registration order and returns the first
// hit. A source that errors or misses is skipped, not fatal.
func (a *Aggregator) GetConversation(ctx context.Context, sourceFilter string, q history.ConversationQuery) (*history.Conversation, error) {
	for _, src := range a.selectSources(sourceFilter) {
		conv, err := src.GetConversation(ctx, q)
		if err != nil {
			a.log.Warn("source query failed",
				slog.String("op", "get_conversation"),
				slog.String("source", string(src.Type())),
				slog.Any("error", err))
			continue
		}
		if conv != nil {
			return conv, nil
		}
	}
	return nil, nil
}

// Search fans the query out, merges by timestamp descending, and truncates
// to the caller's limit.
func (a *Aggregator) Search(ctx context.Context, sourceFilter string, q history.SearchQuery) (*SearchResponse, error) {
	sources := a.selectSources(sourceFilter)
	results := fanOut(a, ctx, sources, "search", func(ctx context.Context, src history.Source) ([]history.SearchResult, error) {
		return src.Search(ctx, q)
	})
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return &SearchResponse{
		Results: results,
		Sources: sourceNames(sources),
	}, nil
}
