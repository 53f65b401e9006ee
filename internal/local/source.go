// Package local implements the history.Source contract over the Claude Code
// log tree: one directory per project under the root (path encoded with
// every non-alphanumeric rune replaced by "-"), one newline-delimited JSON
// file per session named <session-uuid>.jsonl.
//
// Nothing here is persisted or cached; every listing re-derives its answer
// from the files on disk. A missing root yields empty results, never an
// error.
package local

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
	"github.com/joseph-holland/claude-unified-history-mcp/internal/logging"
)

// searchBatchSize bounds how many session files are parsed concurrently
// during a search. Batches run sequentially; the result limit is checked
// between batches only, so an in-flight batch always runs to completion.
const searchBatchSize = 10

// Source reads the local log tree.
type Source struct {
	root string
	log  *slog.Logger
}

// DefaultRoot returns ~/.claude/projects.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "projects")
}

// New creates a local source over root, defaulting to ~/.claude/projects.
func New(root string) *Source {
	if root == "" {
		root = DefaultRoot()
	}
	return &Source{
		root: root,
		log:  logging.ForComponent(logging.CompLocal),
	}
}

func (s *Source) Type() history.SourceType { return history.SourceLocal }

// Available is always true: an empty or missing tree is an empty store, not
// an unavailable one.
func (s *Source) Available() bool { return true }

// projectDir pairs an encoded directory name with its decoded display path.
type projectDir struct {
	encoded string
	decoded string
}

// sessionFile is one search/listing candidate.
type sessionFile struct {
	path      string
	sessionID string
	dir       projectDir
}

func (s *Source) projectDirs() ([]projectDir, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	dirs := make([]projectDir, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dirs = append(dirs, projectDir{encoded: e.Name(), decoded: decodeProjectDir(e.Name())})
	}
	return dirs, nil
}

func (s *Source) sessionFiles(dir projectDir) []sessionFile {
	entries, err := os.ReadDir(filepath.Join(s.root, dir.encoded))
	if err != nil {
		return nil
	}
	files := make([]sessionFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		files = append(files, sessionFile{
			path:      filepath.Join(s.root, dir.encoded, name),
			sessionID: strings.TrimSuffix(name, ".jsonl"),
			dir:       dir,
		})
	}
	return files
}

// matchesProject applies an exact project filter by encoded id or decoded path.
func (d projectDir) matchesProject(projectID, projectPath string) bool {
	if projectID != "" && d.encoded != projectID {
		return false
	}
	if projectPath != "" && d.decoded != projectPath {
		return false
	}
	return true
}

// ListProjects walks the root and derives one Project per distinct decoded
// path, parsing every session file to accumulate message counts.
func (s *Source) ListProjects(ctx context.Context) ([]history.Project, error) {
	dirs, err := s.projectDirs()
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]*history.Project)
	var order []string
	for _, dir := range dirs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		proj, ok := byPath[dir.decoded]
		if !ok {
			proj = &history.Project{
				ID:     dir.encoded,
				Name:   projectDisplayName(dir.decoded),
				Path:   dir.decoded,
				Source: history.SourceLocal,
			}
			byPath[dir.decoded] = proj
			order = append(order, dir.decoded)
		}

		for _, f := range s.sessionFiles(dir) {
			recs, err := parseSessionFile(f.path, nil, nil)
			if err != nil {
				s.log.Warn("session file unreadable", slog.String("path", f.path), slog.String("error", err.Error()))
				continue
			}
			proj.SessionCount++
			proj.MessageCount += len(recs)
			if info, err := os.Stat(f.path); err == nil && info.ModTime().After(proj.LastActivity) {
				proj.LastActivity = info.ModTime()
			}
		}
	}

	projects := make([]history.Project, 0, len(order))
	for _, path := range order {
		projects = append(projects, *byPath[path])
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastActivity.After(projects[j].LastActivity)
	})
	return projects, nil
}

// ListSessions parses each candidate file, computes its record time span,
// and keeps files whose span intersects the requested date range. Empty
// files are skipped. Results are sorted descending by update time, then
// sliced.
func (s *Source) ListSessions(ctx context.Context, filter history.SessionFilter) ([]history.Session, error) {
	dirs, err := s.projectDirs()
	if err != nil {
		return nil, err
	}
	start, end := filter.Bounds()

	var sessions []history.Session
	for _, dir := range dirs {
		if !dir.matchesProject(filter.ProjectID, filter.ProjectPath) {
			continue
		}
		for _, f := range s.sessionFiles(dir) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			recs, err := parseSessionFile(f.path, nil, nil)
			if err != nil || len(recs) == 0 {
				continue
			}
			created, updated := recordSpan(recs)
			if !history.SpanIntersects(created, updated, start, end) {
				continue
			}
			sessions = append(sessions, history.Session{
				ID:           f.sessionID,
				Source:       history.SourceLocal,
				ProjectID:    dir.encoded,
				ProjectName:  dir.decoded,
				CreatedAt:    created,
				UpdatedAt:    updated,
				MessageCount: len(recs),
			})
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return history.Page(sessions, filter.Limit, filter.Offset), nil
}

// GetConversation locates the file named for the session id across all
// project directories; session ids are globally unique so the first match
// wins. Returns (nil, nil) when no file matches.
func (s *Source) GetConversation(ctx context.Context, q history.ConversationQuery) (*history.Conversation, error) {
	dirs, err := s.projectDirs()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		path := filepath.Join(s.root, dir.encoded, q.SessionID+".jsonl")
		if _, err := os.Stat(path); err != nil {
			continue
		}

		recs, err := parseSessionFile(path, nil, nil)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, nil
		}
		created, updated := recordSpan(recs)

		var messages []history.Message
		for _, r := range recs {
			if !q.WantsRole(r.Role) {
				continue
			}
			messages = append(messages, history.Message{
				ID:        r.ID,
				Role:      r.Role,
				Content:   r.Content,
				Timestamp: r.Timestamp,
			})
		}
		sort.Slice(messages, func(i, j int) bool {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		})

		total := len(messages)
		page := history.Page(messages, q.Limit, q.Offset)
		return &history.Conversation{
			Session: history.Session{
				ID:           q.SessionID,
				Source:       history.SourceLocal,
				ProjectID:    dir.encoded,
				ProjectName:  dir.decoded,
				CreatedAt:    created,
				UpdatedAt:    updated,
				MessageCount: total,
			},
			Messages:   page,
			Pagination: history.NewPagination(total, q.Limit, q.Offset),
		}, nil
	}
	return nil, nil
}

// Search runs the two-phase scan from the design: candidate enumeration
// under the project filter, then fixed-size concurrent batches of file
// parses with mtime-based pruning. The limit is a soft early exit checked
// between batches.
func (s *Source) Search(ctx context.Context, q history.SearchQuery) ([]history.SearchResult, error) {
	if q.Query == "" {
		return nil, nil
	}
	dirs, err := s.projectDirs()
	if err != nil {
		return nil, err
	}
	start, end := q.Bounds()
	queryLower := strings.ToLower(q.Query)

	var files []sessionFile
	for _, dir := range dirs {
		if !dir.matchesProject("", q.ProjectPath) {
			continue
		}
		files = append(files, s.sessionFiles(dir)...)
	}

	var (
		mu      sync.Mutex
		results []history.SearchResult
	)
	for batchStart := 0; batchStart < len(files); batchStart += searchBatchSize {
		if ctx.Err() != nil {
			break
		}
		mu.Lock()
		reached := q.Limit > 0 && len(results) >= q.Limit
		mu.Unlock()
		if reached {
			break
		}

		batchEnd := batchStart + searchBatchSize
		if batchEnd > len(files) {
			batchEnd = len(files)
		}

		var g errgroup.Group
		for _, f := range files[batchStart:batchEnd] {
			f := f
			g.Go(func() error {
				hits := s.searchFile(f, queryLower, q.Query, start, end)
				if len(hits) > 0 {
					mu.Lock()
					results = append(results, hits...)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// searchFile scans one session log for substring matches. Files whose
// stat-time range cannot intersect the date range are skipped without
// parsing; that heuristic is best effort, the per-record filter inside the
// parse is authoritative.
func (s *Source) searchFile(f sessionFile, queryLower, query string, start, end *time.Time) []history.SearchResult {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil
	}
	if lower, upper := fileTimeRange(info); !history.SpanIntersects(lower, upper, start, end) {
		return nil
	}

	recs, err := parseSessionFile(f.path, start, end)
	if err != nil {
		return nil
	}

	var hits []history.SearchResult
	for _, r := range recs {
		if !strings.Contains(strings.ToLower(r.Content), queryLower) {
			continue
		}
		hits = append(hits, history.SearchResult{
			Source:    history.SourceLocal,
			SessionID: f.sessionID,
			MessageID: r.ID,
			Snippet:   history.MakeSnippet(r.Content, query, history.SnippetWindow),
			Timestamp: r.Timestamp,
		})
	}
	return hits
}

func recordSpan(recs []record) (min, max time.Time) {
	for _, r := range recs {
		if min.IsZero() || r.Timestamp.Before(min) {
			min = r.Timestamp
		}
		if r.Timestamp.After(max) {
			max = r.Timestamp
		}
	}
	return min, max
}
