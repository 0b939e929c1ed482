// Package oracle talks to the text-generation backend. The backend is
// opaque: it takes a system instruction and a user message and returns
// free text, which the marker protocol in this package decodes. No
// retries happen at the call site for the CLI backend; a failed call
// propagates and the caller decides whether it is fatal.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/tacit/wm/internal/state"
)

// Oracle is the opaque text-generation backend.
type Oracle interface {
	// Complete sends the prompts and returns the raw response text.
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// New builds the backend selected by the project configuration.
func New(cfg state.OracleConfig) (Oracle, error) {
	switch cfg.Backend {
	case "", "cli":
		return &CLIOracle{}, nil
	case "api":
		return NewAPIOracle(APIConfig{Model: cfg.Model, MaxTokens: cfg.MaxTokens})
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", cfg.Backend)
	}
}

// carry-over sentinels wrapping the continuity slice in the request.
const (
	carryoverBegin = "--- PREVIOUS CONTEXT (for continuity) ---"
	carryoverEnd   = "--- END PREVIOUS CONTEXT ---"
)

// BuildExtractionMessage composes the user message for incremental
// extraction: accumulated knowledge, optional carry-over slice wrapped
// in sentinels, the new transcript segment, and the terminal cue.
func BuildExtractionMessage(currentState, carryover, newTranscript string) string {
	var b strings.Builder
	b.WriteString("CURRENT STATE:\n")
	b.WriteString(currentState)
	b.WriteString("\n\n")
	if strings.TrimSpace(carryover) != "" {
		b.WriteString(carryoverBegin)
		b.WriteString("\n")
		b.WriteString(carryover)
		b.WriteString("\n")
		b.WriteString(carryoverEnd)
		b.WriteString("\n\n")
	}
	b.WriteString("NEW TRANSCRIPT:\n")
	b.WriteString(newTranscript)
	b.WriteString("\n\nOUTPUT:")
	return b.String()
}
