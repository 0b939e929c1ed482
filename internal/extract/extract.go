// Package extract runs the incremental extraction pipeline: new
// transcript messages since the last checkpoint are sent to the oracle
// together with the current state, and the rewritten state is stored
// when the oracle reports new knowledge.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tacit/wm/internal/oracle"
	"github.com/tacit/wm/internal/session"
	"github.com/tacit/wm/internal/state"
	"github.com/tacit/wm/internal/transcript"
)

// carryoverWindow is how far before the checkpoint we re-read for
// continuity. Bounded so context does not grow without limit.
const carryoverWindow = 5 * time.Minute

const extractionSystemPrompt = `You are capturing tacit knowledge that will help future AI sessions.

Tacit knowledge is the wisdom that emerges from HOW someone works, not what they explicitly say. The user might not realize they're teaching you these patterns.

CAPTURE:
- Rationale behind decisions (WHY this approach, not just WHAT was done)
- Paths rejected and why (the judgment in pruning options)
- Constraints discovered through friction
- Preferences revealed by corrections
- Patterns the user follows without stating

EXAMPLES OF GOOD CAPTURE:
- "Prefers asking before implementing when architecture is unclear"
- "Values failing fast over silent error handling"
- "Rejected X approach because Y - prefers Z pattern"

DO NOT CAPTURE:
- What happened ("Fixed X", "Updated Y")
- Explicit requests or questions
- Tool outputs or code snippets
- Anything the assistant said

THE TEST: Would a new session find this useful 6 months from now? Is it about HOW to work with this user/codebase, not WHAT happened today?

Most sessions have no tacit insights worth capturing. That's normal.

RESPONSE FORMAT:

If you found tacit knowledge worth capturing, respond:
HAS_KNOWLEDGE: YES

<your markdown content here - existing state + new insights>

If nothing worth capturing, respond:
HAS_KNOWLEDGE: NO`

// Options controls an extraction run.
type Options struct {
	TranscriptPath string
	SessionID      string
}

// Run performs an interactive extraction. It succeeds quietly when the
// project is uninitialized or extraction is paused, since hooks may
// fire in projects that never opted in.
func Run(ctx context.Context, opts Options) error {
	fmt.Fprintln(os.Stderr, "DEPRECATED: 'wm extract' will be replaced by 'wm distill' in a future version.")
	fmt.Fprintln(os.Stderr, "The distill command processes all sessions in batch with improved categorization.")
	fmt.Fprintln(os.Stderr)

	if !state.IsInitialized() {
		fmt.Fprintln(os.Stderr, "Not initialized. Run 'wm init' first.")
		return nil
	}
	if !state.IsExtractEnabled() {
		state.Log("extract", "Paused via config, skipping")
		fmt.Println("Extract is paused. Use 'wm resume extract' to enable.")
		return nil
	}

	path, err := findTranscript(opts.TranscriptPath)
	if err != nil {
		return err
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = os.Getenv("CLAUDE_SESSION_ID")
	}
	return extractFromTranscript(ctx, path, sessionID, false)
}

// RunHook is the background variant. It never emits noise for
// uninitialized or paused projects.
func RunHook(ctx context.Context) error {
	if !state.IsInitialized() {
		return nil
	}
	if !state.IsExtractEnabled() {
		state.Log("extract", "Paused via config, skipping")
		return nil
	}

	path, err := findTranscript("")
	if err != nil {
		return err
	}
	return extractFromTranscript(ctx, path, os.Getenv("CLAUDE_SESSION_ID"), true)
}

// RunBackground extracts from a known transcript path without any
// interactive output. Used by the watch loop.
func RunBackground(ctx context.Context, transcriptPath, sessionID string) error {
	if !state.IsInitialized() || !state.IsExtractEnabled() {
		return nil
	}
	return extractFromTranscript(ctx, transcriptPath, sessionID, true)
}

// findTranscript resolves the transcript path: explicit flag, then the
// CLAUDE_TRANSCRIPT_PATH environment variable, then the most recently
// modified session file for the current project.
func findTranscript(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("transcript not found: %s", explicit)
		}
		return explicit, nil
	}

	if path := os.Getenv("CLAUDE_TRANSCRIPT_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	sessions, err := session.Discover(session.CurrentProjectPath())
	if err == nil && len(sessions) > 0 {
		return sessions[0].TranscriptPath, nil
	}

	return "", errors.New("could not find transcript; use --transcript <path> to specify")
}

func extractFromTranscript(ctx context.Context, transcriptPath, sessionID string, hook bool) error {
	state.Log("extract", fmt.Sprintf("Starting extraction from %s (session: %q)", transcriptPath, sessionID))

	// Captured before reading so messages arriving during the oracle
	// call land after the next cutoff, not before it.
	readAt := time.Now().UTC()

	currentState := state.ReadState()
	lastExtracted := state.ReadCheckpoint(sessionID)
	if lastExtracted != nil {
		state.Log("extract", fmt.Sprintf("Last extracted: %s", lastExtracted.Format(time.RFC3339)))
	} else {
		state.Log("extract", "Last extracted: never")
	}

	entries, err := transcript.ReadTranscript(transcriptPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	state.Log("extract", fmt.Sprintf("Parsed %d transcript entries", len(entries)))

	var carryover string
	if lastExtracted != nil {
		windowStart := lastExtracted.Add(-carryoverWindow)
		prior := transcript.MessagesInWindow(entries, windowStart, *lastExtracted, sessionID)
		if len(prior) > 0 {
			state.Log("extract", fmt.Sprintf("Including %d carryover messages from past %s", len(prior), carryoverWindow))
			carryover = transcript.FormatContext(prior)
		}
	}

	messages := transcript.MessagesSince(entries, lastExtracted, sessionID)
	if len(messages) == 0 {
		state.Log("extract", "No new messages for this session, skipping")
		if !hook {
			fmt.Println("No new transcript content to extract from.")
		}
		return state.WriteCheckpoint(sessionID, readAt)
	}
	state.Log("extract", fmt.Sprintf("Processing %d new messages", len(messages)))

	formatted := transcript.FormatContext(messages)
	if isBlank(formatted) {
		state.Log("extract", "Formatted transcript is empty, skipping")
		if !hook {
			fmt.Println("No extractable content in new messages.")
		}
		return state.WriteCheckpoint(sessionID, readAt)
	}

	result, err := runOracle(ctx, currentState, carryover, formatted)
	if err != nil {
		if hook {
			// Hook invocations degrade: the assistant session must
			// never see oracle transport errors. The checkpoint stays
			// put so the window is retried next run.
			state.Log("extract", fmt.Sprintf("Oracle failed, degrading: %v", err))
			return nil
		}
		return err
	}

	if result.Positive {
		if err := state.WriteState(result.Content); err != nil {
			return fmt.Errorf("write state: %w", err)
		}
		state.Log("extract", fmt.Sprintf("Complete - %d messages processed, knowledge extracted", len(messages)))
		if !hook {
			fmt.Printf("State updated (%d messages processed, session: %s)\n", len(messages), sessionLabel(sessionID))
		}
	} else {
		state.Log("extract", fmt.Sprintf("Complete - %d messages processed, no new knowledge", len(messages)))
		if !hook {
			fmt.Printf("No new knowledge to extract (%d messages processed, session: %s)\n", len(messages), sessionLabel(sessionID))
		}
	}

	// Checkpoint moves forward regardless of the oracle verdict.
	return state.WriteCheckpoint(sessionID, readAt)
}

func runOracle(ctx context.Context, currentState, carryover, newTranscript string) (oracle.MarkerResponse, error) {
	o, err := oracle.New(state.ReadConfig().Oracle)
	if err != nil {
		return oracle.MarkerResponse{}, err
	}
	message := oracle.BuildExtractionMessage(currentState, carryover, newTranscript)
	state.Log("extract", fmt.Sprintf("Message length: %d bytes", len(message)))

	raw, err := o.Complete(ctx, extractionSystemPrompt, message)
	if err != nil {
		return oracle.MarkerResponse{}, fmt.Errorf("oracle: %w", err)
	}
	return oracle.ParseMarkerResponse(raw, "HAS_KNOWLEDGE"), nil
}

func sessionLabel(id string) string {
	if id == "" {
		return "all"
	}
	return id
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
