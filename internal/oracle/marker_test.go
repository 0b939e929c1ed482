package oracle

import "testing"

func TestParseMarkerResponse(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		marker      string
		wantPos     bool
		wantContent string
	}{
		{
			name:        "yes with bullet content",
			text:        "HAS_KNOWLEDGE: YES\n- a\n- b",
			marker:      "HAS_KNOWLEDGE",
			wantPos:     true,
			wantContent: "- a\n- b",
		},
		{
			name:        "markdown heading prefix",
			text:        "## HAS_RELEVANT: TRUE\nX",
			marker:      "HAS_RELEVANT",
			wantPos:     true,
			wantContent: "X",
		},
		{
			name:   "no marker anywhere",
			text:   "no marker here",
			marker: "HAS_KNOWLEDGE",
		},
		{
			name:   "negative",
			text:   "HAS_KNOWLEDGE: NO",
			marker: "HAS_KNOWLEDGE",
		},
		{
			name:   "false value",
			text:   "WAS_COMPRESSED: FALSE\nleftover ignored",
			marker: "WAS_COMPRESSED",
		},
		{
			name:        "lowercase value accepted",
			text:        "HAS_KNOWLEDGE: yes\ncontent",
			marker:      "HAS_KNOWLEDGE",
			wantPos:     true,
			wantContent: "content",
		},
		{
			name:        "marker not on first line",
			text:        "Sure, here's my analysis:\n\nHAS_KNOWLEDGE: YES\n\ninsight",
			marker:      "HAS_KNOWLEDGE",
			wantPos:     true,
			wantContent: "insight",
		},
		{
			name:        "blockquote and emphasis wrapping",
			text:        "> **HAS_KNOWLEDGE: YES**\nwrapped",
			marker:      "HAS_KNOWLEDGE",
			wantPos:     false, // trailing ** makes the value "YES**", not YES
			wantContent: "",
		},
		{
			name:   "unrelated marker does not match",
			text:   "HAS_RELEVANT: YES\nX",
			marker: "HAS_KNOWLEDGE",
		},
		{
			name:   "empty input",
			text:   "",
			marker: "HAS_KNOWLEDGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarkerResponse(tt.text, tt.marker)
			if got.Positive != tt.wantPos {
				t.Errorf("Positive = %v, want %v", got.Positive, tt.wantPos)
			}
			if got.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", got.Content, tt.wantContent)
			}
		})
	}
}

func TestParseMarkerResponseNeverErrors(t *testing.T) {
	// Garbage of every shape resolves to the negative default.
	for _, text := range []string{"{json}", "HAS_KNOWLEDGE", "HAS_KNOWLEDGE:", ": YES", "\n\n\n"} {
		got := ParseMarkerResponse(text, "HAS_KNOWLEDGE")
		if got.Positive || got.Content != "" {
			t.Errorf("ParseMarkerResponse(%q) = %+v, want negative empty", text, got)
		}
	}
}
