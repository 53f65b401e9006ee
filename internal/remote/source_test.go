package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/claudeapi"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
)

// fixtureAPI serves a small claude.ai API surface: two conversations, one of
// which mentions "deployment" in a message body.
func fixtureAPI(t *testing.T) *httptest.Server {
	t.Helper()

	conversations := []map[string]any{
		{
			"uuid":       "conv-new",
			"name":       "Deployment planning",
			"created_at": "2025-07-01T09:00:00Z",
			"updated_at": "2025-07-02T18:30:00Z",
		},
		{
			"uuid":       "conv-old",
			"name":       "Recipe ideas",
			"created_at": "2025-05-10T12:00:00Z",
			"updated_at": "2025-05-10T13:00:00Z",
		},
	}
	details := map[string]map[string]any{
		"conv-new": {
			"uuid":       "conv-new",
			"name":       "Deployment planning",
			"created_at": "2025-07-01T09:00:00Z",
			"updated_at": "2025-07-02T18:30:00Z",
			"chat_messages": []map[string]any{
				{
					"uuid":       "msg-1",
					"sender":     "human",
					"text":       "How should we stage the deployment?",
					"created_at": "2025-07-01T09:00:00Z",
				},
				{
					"uuid":       "msg-2",
					"sender":     "assistant",
					"text":       "Roll out to the canary fleet first.",
					"created_at": "2025-07-01T09:01:00Z",
				},
			},
		},
		"conv-old": {
			"uuid":       "conv-old",
			"name":       "Recipe ideas",
			"created_at": "2025-05-10T12:00:00Z",
			"updated_at": "2025-05-10T13:00:00Z",
			"chat_messages": []map[string]any{
				{
					"uuid":       "msg-3",
					"sender":     "human",
					"text":       "Something quick for dinner?",
					"created_at": "2025-05-10T12:00:00Z",
				},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/organizations/org-1/chat_conversations", func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "" && q != "deployment" {
			json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		if r.URL.Query().Get("q") == "deployment" {
			json.NewEncoder(w).Encode(conversations[:1])
			return
		}
		json.NewEncoder(w).Encode(conversations)
	})
	mux.HandleFunc("/organizations/org-1/chat_conversations/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/organizations/org-1/chat_conversations/"):]
		detail, ok := details[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(detail)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fixtureSource(t *testing.T) *Source {
	t.Helper()
	srv := fixtureAPI(t)
	client := claudeapi.New(claudeapi.Config{
		SessionKey:     "sk-test",
		OrganizationID: "org-1",
		BaseURL:        srv.URL,
	})
	return New(client)
}

func TestListProjectsSynthesizesOne(t *testing.T) {
	src := fixtureSource(t)

	projects, err := src.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, ProjectID, p.ID)
	assert.Equal(t, history.SourceRemote, p.Source)
	assert.Equal(t, 2, p.SessionCount)
	assert.Equal(t, "2025-07-02T18:30:00Z", p.LastActivity.Format("2006-01-02T15:04:05Z"))
}

func TestListSessionsSortsAndFilters(t *testing.T) {
	src := fixtureSource(t)

	sessions, err := src.ListSessions(context.Background(), history.SessionFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "conv-new", sessions[0].ID)
	assert.Equal(t, "Deployment planning", sessions[0].Title)
	assert.Equal(t, "conv-old", sessions[1].ID)

	// Date filter keeps only the July conversation.
	sessions, err = src.ListSessions(context.Background(), history.SessionFilter{
		StartDate: "2025-06-01",
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "conv-new", sessions[0].ID)
}

func TestListSessionsSkipsForeignProject(t *testing.T) {
	src := fixtureSource(t)

	sessions, err := src.ListSessions(context.Background(), history.SessionFilter{
		ProjectID: "Users/test/project1",
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Filesystem paths never match the remote source.
	sessions, err = src.ListSessions(context.Background(), history.SessionFilter{
		ProjectPath: "Users/test/project1",
		Limit:       10,
	})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestGetConversationMapsSenders(t *testing.T) {
	src := fixtureSource(t)

	conv, err := src.GetConversation(context.Background(), history.ConversationQuery{
		SessionID: "conv-new",
		Limit:     10,
	})
	require.NoError(t, err)
	require.NotNil(t, conv)

	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "user", conv.Messages[0].Role)
	assert.Equal(t, "assistant", conv.Messages[1].Role)
	assert.Equal(t, 2, conv.Session.MessageCount)
	assert.Equal(t, 2, conv.Pagination.TotalCount)
	assert.False(t, conv.Pagination.HasMore)
}

func TestGetConversationNotFound(t *testing.T) {
	src := fixtureSource(t)

	conv, err := src.GetConversation(context.Background(), history.ConversationQuery{
		SessionID: "no-such-conversation",
	})
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestGetConversationRoleFilter(t *testing.T) {
	src := fixtureSource(t)

	conv, err := src.GetConversation(context.Background(), history.ConversationQuery{
		SessionID: "conv-new",
		Roles:     []string{"assistant"},
		Limit:     10,
	})
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "msg-2", conv.Messages[0].ID)
}

func TestSearchScansMessageBodies(t *testing.T) {
	src := fixtureSource(t)

	results, err := src.Search(context.Background(), history.SearchQuery{
		Query: "deployment",
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, history.SourceRemote, r.Source)
	assert.Equal(t, "conv-new", r.SessionID)
	assert.Equal(t, "msg-1", r.MessageID)
	assert.Contains(t, r.Snippet, "deployment")
}

func TestSearchEmptyQuery(t *testing.T) {
	src := fixtureSource(t)

	results, err := src.Search(context.Background(), history.SearchQuery{Query: ""})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchProjectPathNeverMatches(t *testing.T) {
	src := fixtureSource(t)

	results, err := src.Search(context.Background(), history.SearchQuery{
		Query:       "deployment",
		ProjectPath: "Users/test/project1",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUnavailableClientDegrades(t *testing.T) {
	client := claudeapi.New(claudeapi.Config{}) // no session key
	src := New(client)

	assert.False(t, src.Available())

	projects, err := src.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}
