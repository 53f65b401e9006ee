package history

import (
	"encoding/json"
	"strings"
)

// FlattenContent collapses a message content payload into plain text. The
// payload is either a JSON string or an ordered list of typed blocks:
// "text" blocks contribute their text, any other block type contributes its
// JSON representation, all joined with single spaces.
func FlattenContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, b := range blocks {
		var blk struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(b, &blk); err != nil {
			continue
		}
		if blk.Type == "text" {
			if blk.Text != "" {
				parts = append(parts, blk.Text)
			}
			continue
		}
		parts = append(parts, string(b))
	}
	return strings.Join(parts, " ")
}

// SnippetWindow is the number of characters kept on each side of a match.
const SnippetWindow = 50

// MakeSnippet extracts a bounded excerpt around the first case-insensitive
// occurrence of query in text, ellipsis-marked on whichever side was
// truncated. Rune-safe: windowing never splits a UTF-8 sequence.
func MakeSnippet(text, query string, window int) string {
	if window <= 0 {
		window = SnippetWindow
	}
	runes := []rune(text)

	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 {
		if len(runes) > window*2 {
			return string(runes[:window*2]) + "..."
		}
		return text
	}

	matchStart := byteToRuneIndex(text, idx)
	matchEnd := byteToRuneIndex(text, idx+len(query))

	start := matchStart - window
	if start < 0 {
		start = 0
	}
	end := matchEnd + window
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}
	return snippet
}

// byteToRuneIndex converts a byte offset into a rune offset without
// allocating substring copies.
func byteToRuneIndex(s string, byteIdx int) int {
	if byteIdx <= 0 {
		return 0
	}
	if byteIdx >= len(s) {
		return len([]rune(s))
	}
	count := 0
	for i := range s {
		if i >= byteIdx {
			break
		}
		count++
	}
	return count
}
