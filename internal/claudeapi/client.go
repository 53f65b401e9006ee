// Package claudeapi is a read-only client for the claude.ai web API,
// authenticated with a browser session cookie.
//
// The client degrades rather than fails: an authorization rejection or a
// failed organization discovery demotes the instance permanently, and every
// later call returns no result without touching the network. A fresh
// credential requires a fresh client.
package claudeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/logging"
)

const (
	// DefaultBaseURL is the claude.ai API origin.
	DefaultBaseURL = "https://claude.ai/api"

	// requestTimeout is the absolute per-attempt timeout.
	requestTimeout = 10 * time.Second

	// minRequestGap is the minimum delay between request starts.
	minRequestGap = 100 * time.Millisecond

	// maxRetries is how many times a failed attempt may be retried.
	maxRetries = 3
)

// sleepFn is swapped out by tests to observe backoff without waiting.
var sleepFn = time.Sleep

var errNoOrganization = errors.New("no organizations on account")

// Config configures a client instance.
type Config struct {
	SessionKey     string
	OrganizationID string // optional; skips discovery when set
	BaseURL        string // optional; tests point this at a local server
}

// Client talks to the claude.ai API. One instance per credential; the
// availability flag and cached organization id are its only mutable state.
type Client struct {
	baseURL    string
	sessionKey string
	http       *http.Client
	limiter    *rate.Limiter
	available  atomic.Bool
	orgID      atomic.Value // string
	orgGroup   singleflight.Group
	log        *slog.Logger
}

// New creates a client. The session key must already be obtained; the
// client performs no authentication flow of its own.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		baseURL:    base,
		sessionKey: cfg.SessionKey,
		http:       &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Every(minRequestGap), 1),
		log:        logging.ForComponent(logging.CompAPI),
	}
	c.available.Store(cfg.SessionKey != "")
	if cfg.OrganizationID != "" {
		c.orgID.Store(cfg.OrganizationID)
	}
	return c
}

// Available reports whether the client will still attempt network calls.
func (c *Client) Available() bool { return c.available.Load() }

// demote flips the client unavailable. The transition is one-way.
func (c *Client) demote(reason string) {
	if c.available.CompareAndSwap(true, false) {
		c.log.Warn("remote source demoted", slog.String("reason", reason))
	}
}

// ─── Wire types ──────────────────────────────────────────────────────────────

type Organization struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type ConversationSummary struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessage struct {
	UUID      string          `json:"uuid"`
	Sender    string          `json:"sender"` // "human" or "assistant"
	Text      string          `json:"text"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ConversationDetail struct {
	ConversationSummary
	ChatMessages []ChatMessage `json:"chat_messages"`
}

// ─── Endpoints ───────────────────────────────────────────────────────────────

// OrganizationID returns the cached organization id, discovering it on
// first use. Concurrent callers share one discovery flight. Accounts with
// no organizations demote the client.
func (c *Client) OrganizationID(ctx context.Context) (string, bool) {
	if !c.Available() {
		return "", false
	}
	if v, ok := c.orgID.Load().(string); ok && v != "" {
		return v, true
	}

	v, err, _ := c.orgGroup.Do("discover", func() (any, error) {
		orgs, ok := c.Organizations(ctx)
		if !ok || len(orgs) == 0 {
			c.demote("organization discovery failed")
			return "", errNoOrganization
		}
		c.orgID.Store(orgs[0].UUID)
		return orgs[0].UUID, nil
	})
	if err != nil {
		return "", false
	}
	return v.(string), true
}

// Organizations lists the organizations visible to the credential.
func (c *Client) Organizations(ctx context.Context) ([]Organization, bool) {
	body, ok := c.fetch(ctx, "/organizations")
	if !ok {
		return nil, false
	}
	var orgs []Organization
	if err := json.Unmarshal(body, &orgs); err != nil {
		return nil, false
	}
	return orgs, true
}

// Conversations lists conversation summaries, optionally filtered
// server-side by a free-text query. Summaries carry no message bodies.
func (c *Client) Conversations(ctx context.Context, query string) ([]ConversationSummary, bool) {
	org, ok := c.OrganizationID(ctx)
	if !ok {
		return nil, false
	}
	path := "/organizations/" + org + "/chat_conversations"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	body, ok := c.fetch(ctx, path)
	if !ok {
		return nil, false
	}
	var convs []ConversationSummary
	if err := json.Unmarshal(body, &convs); err != nil {
		return nil, false
	}
	return convs, true
}

// Conversation fetches one conversation's full detail including messages.
func (c *Client) Conversation(ctx context.Context, id string) (*ConversationDetail, bool) {
	org, ok := c.OrganizationID(ctx)
	if !ok {
		return nil, false
	}
	body, ok := c.fetch(ctx, "/organizations/"+org+"/chat_conversations/"+id)
	if !ok {
		return nil, false
	}
	var detail ConversationDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, false
	}
	return &detail, true
}

// ─── Transport ───────────────────────────────────────────────────────────────

// fetch performs an authenticated GET with pacing, retry, and demotion.
//
//   - 401/403 demote the client and stop.
//   - 429 sleeps 2^(attempt+1) seconds and retries.
//   - Other non-success statuses stop without retrying.
//   - A per-attempt timeout stops without retrying.
//   - Other transport errors retry on the same exponential schedule.
//
// A false return means "no result"; only authorization failures change the
// client's state.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, bool) {
	if !c.Available() {
		return nil, false
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, false
		}
		req.Header.Set("Cookie", "sessionKey="+c.sessionKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) && urlErr.Timeout() {
				c.log.Warn("request timed out", slog.String("path", path))
				return nil, false
			}
			if attempt < maxRetries {
				c.log.Debug("transport error, retrying",
					slog.String("path", path),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()))
				sleepFn(backoff(attempt))
				continue
			}
			return nil, false
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			c.demote(fmt.Sprintf("HTTP %d from %s", resp.StatusCode, path))
			return nil, false

		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			if attempt < maxRetries {
				c.log.Debug("rate limited, backing off",
					slog.String("path", path),
					slog.Int("attempt", attempt))
				sleepFn(backoff(attempt))
				continue
			}
			return nil, false

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			c.log.Warn("unexpected status",
				slog.String("path", path),
				slog.Int("status", resp.StatusCode))
			return nil, false
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, false
		}
		return body, true
	}
	return nil, false
}

// backoff returns 2^(attempt+1) seconds: 2s, 4s, 8s.
func backoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt+1)) * time.Second
}
