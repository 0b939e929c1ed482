package oracle

import (
	"strings"

	"github.com/tacit/wm/internal/state"
)

// MarkerResponse is a decoded marker-protocol reply.
type MarkerResponse struct {
	// Positive reports whether the marker value was YES or TRUE.
	Positive bool

	// Content is everything after the marker line, trimmed. Empty when
	// negative.
	Content string
}

// ParseMarkerResponse decodes a free-text oracle reply against the
// line-based grammar `MARKER: YES|NO|TRUE|FALSE`. Markdown emphasis,
// heading and blockquote prefixes are stripped before matching. A
// missing marker resolves to negative with empty content; the oracle
// emits natural language, so the grammar degrades rather than erroring.
func ParseMarkerResponse(text, marker string) MarkerResponse {
	lines := strings.Split(text, "\n")
	prefix := marker + ":"

	for i, line := range lines {
		stripped := stripMarkdownPrefix(line)
		if !strings.HasPrefix(stripped, prefix) {
			continue
		}
		value := strings.ToUpper(strings.TrimSpace(stripped[len(prefix):]))
		if value == "YES" || value == "TRUE" {
			return MarkerResponse{
				Positive: true,
				Content:  strings.TrimSpace(strings.Join(lines[i+1:], "\n")),
			}
		}
		return MarkerResponse{}
	}

	state.Log("oracle", "No "+marker+" marker found in response, treating as negative")
	return MarkerResponse{}
}

// stripMarkdownPrefix removes heading, blockquote and emphasis
// characters that models sometimes wrap marker lines in.
func stripMarkdownPrefix(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#>*"))
}
