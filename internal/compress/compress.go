// Package compress synthesizes the accumulated state document into a
// more concise form via the oracle, keeping a backup of the original.
package compress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tacit/wm/internal/oracle"
	"github.com/tacit/wm/internal/state"
)

const compressionSystemPrompt = `You are compressing accumulated tacit knowledge into a more concise form.

TACIT KNOWLEDGE REMINDER (what we're preserving):
- Rationale behind decisions (WHY this approach)
- Paths rejected and why (judgment in pruning)
- Constraints discovered through friction
- Preferences revealed by corrections
- Patterns followed without stating

COMPRESSION STRATEGIES:
1. MERGE related items into broader principles
   - "Prefers X in context A" + "Prefers X in context B" → "Generally prefers X"

2. ABSTRACT specific instances into general patterns
   - Multiple specific file/function mentions → General architectural preference

3. REMOVE obsolete items
   - Superseded by later, more refined understanding
   - No longer relevant to current codebase state
   - Too specific to be useful in new contexts

4. PRESERVE critical items
   - Hard constraints that caused friction when violated
   - Strong preferences that were corrected multiple times
   - Architectural decisions with clear rationale

5. CONSOLIDATE structure
   - Group related items under clear headings
   - Remove redundant phrasing
   - Keep bullet points concise

THE GOAL: A new session 6 months from now should get the essential wisdom in fewer words. Compress aggressively but preserve meaning.

RESPONSE FORMAT:

If compression was possible, respond:
WAS_COMPRESSED: YES

<compressed markdown content>

If the state is already concise and no meaningful compression is possible, respond:
WAS_COMPRESSED: NO`

// Run compresses state.md in place, backing up the previous content to
// state.md.backup first.
func Run(ctx context.Context) error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}

	currentState := state.ReadState()
	if strings.TrimSpace(currentState) == "" {
		fmt.Println("Nothing to compress - state.md is empty.")
		return nil
	}

	lineCount := countLines(currentState)
	state.Log("compress", fmt.Sprintf("Starting compression of state.md (%d lines, %d chars)", lineCount, len(currentState)))
	fmt.Printf("Compressing state.md (%d lines)...\n", lineCount)

	o, err := oracle.New(state.ReadConfig().Oracle)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("CURRENT STATE TO COMPRESS:\n\n%s\n\nOUTPUT:", currentState)
	state.Log("compress", fmt.Sprintf("Sending %d chars to oracle", len(message)))

	raw, err := o.Complete(ctx, compressionSystemPrompt, message)
	if err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	resp := oracle.ParseMarkerResponse(raw, "WAS_COMPRESSED")

	if !resp.Positive {
		state.Log("compress", "No compression possible - state already concise")
		fmt.Println("State is already concise - no compression needed.")
		return nil
	}

	if err := os.WriteFile(state.Path("state.md.backup"), []byte(currentState), 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := state.WriteState(resp.Content); err != nil {
		return fmt.Errorf("write compressed state: %w", err)
	}

	newLineCount := countLines(resp.Content)
	reduction := 0
	if lineCount > 0 {
		reduction = 100 - newLineCount*100/lineCount
	}
	state.Log("compress", fmt.Sprintf("Compressed %d -> %d lines (%d%% reduction)", lineCount, newLineCount, reduction))
	fmt.Printf("Compressed: %d -> %d lines (%d%% reduction)\n", lineCount, newLineCount, reduction)
	fmt.Println("Backup saved to .wm/state.md.backup")
	return nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(strings.TrimSuffix(s, "\n"), "\n"))
}
