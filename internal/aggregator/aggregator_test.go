package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
)

// fakeSource is a canned in-memory source. Setting err makes every
// operation fail with it.
type fakeSource struct {
	typ       history.SourceType
	available bool
	projects  []history.Project
	sessions  []history.Session
	conv      *history.Conversation
	results   []history.SearchResult
	err       error

	convCalls int
}

func (f *fakeSource) Type() history.SourceType { return f.typ }
func (f *fakeSource) Available() bool          { return f.available }

func (f *fakeSource) ListProjects(context.Context) ([]history.Project, error) {
	return f.projects, f.err
}

func (f *fakeSource) ListSessions(_ context.Context, filter history.SessionFilter) ([]history.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return history.Page(f.sessions, filter.Limit, filter.Offset), nil
}

func (f *fakeSource) GetConversation(context.Context, history.ConversationQuery) (*history.Conversation, error) {
	f.convCalls++
	return f.conv, f.err
}

func (f *fakeSource) Search(context.Context, history.SearchQuery) ([]history.SearchResult, error) {
	return f.results, f.err
}

func ts(day int) time.Time {
	return time.Date(2025, 6, day, 12, 0, 0, 0, time.UTC)
}

func localFake() *fakeSource {
	return &fakeSource{
		typ:       history.SourceLocal,
		available: true,
		projects:  []history.Project{{ID: "p1", Source: history.SourceLocal, LastActivity: ts(10)}},
		sessions: []history.Session{
			{ID: "l1", Source: history.SourceLocal, UpdatedAt: ts(20)},
			{ID: "l2", Source: history.SourceLocal, UpdatedAt: ts(5)},
		},
		results: []history.SearchResult{
			{Source: history.SourceLocal, SessionID: "l1", Timestamp: ts(20)},
		},
	}
}

func remoteFake() *fakeSource {
	return &fakeSource{
		typ:       history.SourceRemote,
		available: true,
		projects:  []history.Project{{ID: "claude-ai", Source: history.SourceRemote, LastActivity: ts(15)}},
		sessions: []history.Session{
			{ID: "r1", Source: history.SourceRemote, UpdatedAt: ts(12)},
		},
		results: []history.SearchResult{
			{Source: history.SourceRemote, SessionID: "r1", Timestamp: ts(12)},
		},
	}
}

func TestListProjectsMergesAndSorts(t *testing.T) {
	agg := New(localFake(), remoteFake())

	list, err := agg.ListProjects(context.Background(), "all")
	require.NoError(t, err)

	require.Len(t, list.Projects, 2)
	assert.Equal(t, "claude-ai", list.Projects[0].ID) // newest activity first
	assert.Equal(t, "p1", list.Projects[1].ID)
	assert.Equal(t, []string{"local", "remote"}, list.Sources)
}

func TestSourceFilterNarrowsFanOut(t *testing.T) {
	agg := New(localFake(), remoteFake())

	list, err := agg.ListProjects(context.Background(), "local")
	require.NoError(t, err)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, history.SourceLocal, list.Projects[0].Source)
	assert.Equal(t, []string{"local"}, list.Sources)
}

func TestUnavailableSourceSkipped(t *testing.T) {
	remote := remoteFake()
	remote.available = false
	agg := New(localFake(), remote)

	list, err := agg.ListProjects(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, []string{"local"}, list.Sources)
}

// A failing source must not disturb the healthy ones: the merged response
// equals what the healthy sources alone would produce.
func TestSourceErrorIsolated(t *testing.T) {
	remote := remoteFake()
	remote.err = errors.New("upstream down")
	agg := New(localFake(), remote)

	list, err := agg.ListProjects(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "p1", list.Projects[0].ID)
	// The failing source was still consulted.
	assert.Equal(t, []string{"local", "remote"}, list.Sources)

	resp, err := agg.Search(context.Background(), "all", history.SearchQuery{Query: "x", Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, history.SourceLocal, resp.Results[0].Source)
}

func TestListSessionsGlobalPagination(t *testing.T) {
	agg := New(localFake(), remoteFake())

	// Merged order by recency: l1 (20th), r1 (12th), l2 (5th).
	page, err := agg.ListSessions(context.Background(), "all", history.SessionFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Sessions, 2)
	assert.Equal(t, "l1", page.Sessions[0].ID)
	assert.Equal(t, "r1", page.Sessions[1].ID)
	assert.Equal(t, 3, page.Pagination.TotalCount)
	assert.True(t, page.Pagination.HasMore)

	page, err = agg.ListSessions(context.Background(), "all", history.SessionFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, "l2", page.Sessions[0].ID)
	assert.False(t, page.Pagination.HasMore)
}

func TestGetConversationProbesInOrder(t *testing.T) {
	local := localFake()
	remote := remoteFake()
	remote.conv = &history.Conversation{Session: history.Session{ID: "r1", Source: history.SourceRemote}}
	agg := New(local, remote)

	conv, err := agg.GetConversation(context.Background(), "", history.ConversationQuery{SessionID: "r1"})
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, history.SourceRemote, conv.Session.Source)
	assert.Equal(t, 1, local.convCalls) // local probed first, missed
}

func TestGetConversationSkipsErroringSource(t *testing.T) {
	local := localFake()
	local.err = errors.New("disk fault")
	remote := remoteFake()
	remote.conv = &history.Conversation{Session: history.Session{ID: "r1", Source: history.SourceRemote}}
	agg := New(local, remote)

	conv, err := agg.GetConversation(context.Background(), "", history.ConversationQuery{SessionID: "r1"})
	require.NoError(t, err)
	require.NotNil(t, conv)
}

func TestGetConversationNotFound(t *testing.T) {
	agg := New(localFake(), remoteFake())

	conv, err := agg.GetConversation(context.Background(), "", history.ConversationQuery{SessionID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestSearchMergesByRecencyAndTruncates(t *testing.T) {
	agg := New(localFake(), remoteFake())

	resp, err := agg.Search(context.Background(), "all", history.SearchQuery{Query: "x", Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "l1", resp.Results[0].SessionID)
	assert.Equal(t, "r1", resp.Results[1].SessionID)

	resp, err = agg.Search(context.Background(), "all", history.SearchQuery{Query: "x", Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "l1", resp.Results[0].SessionID)
}

func TestNoSourcesYieldsEmptyResponse(t *testing.T) {
	agg := New()

	list, err := agg.ListProjects(context.Background(), "all")
	require.NoError(t, err)
	assert.Empty(t, list.Projects)
	assert.Empty(t, list.Sources)
}
