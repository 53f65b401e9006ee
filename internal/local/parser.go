package local

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joseph-holland/claude-unified-history-mcp/internal/history"
)

// logRecord is one line of a Claude Code session log. Lines carry more
// fields than this; we only decode what the query surface needs.
type logRecord struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	SessionID string          `json:"sessionId"`
	Timestamp string          `json:"timestamp"`
	CWD       string          `json:"cwd"`
	Message   json.RawMessage `json:"message"`
}

// logMessage is the message payload inside a record.
type logMessage struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// record is a parsed, normalized log line.
type record struct {
	ID        string
	Role      string
	Content   string
	Timestamp time.Time
}

// maxLineSize bounds a single log line; assistant turns with large tool
// results can run to megabytes.
const maxLineSize = 10 * 1024 * 1024

// parseSessionFile reads a session log line by line. Lines that fail to
// parse, carry no timestamp, or exceed maxLineSize are skipped, never
// aborting the file. When bounds are given, out-of-range records are
// dropped during the scan so they are never materialized.
func parseSessionFile(path string, start, end *time.Time) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []record
	reader := bufio.NewReaderSize(f, 64*1024)

	for {
		line, tooLong, err := readLogLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, err
		}
		if tooLong || len(line) == 0 {
			continue
		}

		var raw logRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}

		ts := history.ParseTimestamp(raw.Timestamp)
		if ts.IsZero() {
			continue // summary lines and other untimestamped records
		}
		if !history.InBounds(ts, start, end) {
			continue
		}

		var msg logMessage
		if len(raw.Message) > 0 {
			_ = json.Unmarshal(raw.Message, &msg)
		}

		role := msg.Role
		if role == "" {
			role = raw.Type
		}
		if raw.Type == "result" {
			// Terminal result records read as system output.
			role = "system"
		}
		switch role {
		case "user", "assistant", "system":
		default:
			continue
		}

		id := msg.ID
		if id == "" {
			id = raw.UUID
		}

		records = append(records, record{
			ID:        id,
			Role:      role,
			Content:   history.FlattenContent(msg.Content),
			Timestamp: ts,
		})
	}
	return records, nil
}

// readLogLine returns the next line from r. A line longer than maxLineSize
// is drained and reported as too long instead of aborting the read, so one
// oversized record never hides the rest of the file.
func readLogLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineSize {
				tooLong = true
				line = nil
			}
		}
		switch err {
		case nil:
			return bytes.TrimRight(line, "\r\n"), tooLong, nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(line) == 0 && !tooLong {
				return nil, false, io.EOF
			}
			return line, tooLong, nil
		default:
			return nil, false, err
		}
	}
}

// decodeProjectDir converts Claude Code's munged directory name back into a
// display path. The encoding replaces every non-alphanumeric rune with "-",
// so decoding is lossy: "-Users-test-project1" reads as "Users/test/project1".
func decodeProjectDir(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "-"), "-", "/")
}

// projectDisplayName is the last segment of a decoded project path.
func projectDisplayName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
