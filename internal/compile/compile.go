// Package compile assembles the working set: dive context, guardrails
// and metis joined into one document. All content is pre-curated by
// distillation, so no oracle call is involved.
package compile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tacit/wm/internal/state"
)

const distillDir = "distill"

// hookResponse matches the hook output contract: additionalContext is
// only injected when wrapped in hookSpecificOutput.
type hookResponse struct {
	HookSpecificOutput *hookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

type hookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Run is the interactive entry point. Uninitialized projects succeed
// quietly since hooks may invoke compile in projects without .wm/.
func Run() error {
	if !state.IsInitialized() {
		fmt.Fprintln(os.Stderr, "Not initialized. Run 'wm init' first.")
		return nil
	}
	if !state.IsCompileEnabled() {
		fmt.Println("Compile is paused. Use 'wm resume compile' to enable.")
		return nil
	}

	combined := combineContext(readDiveContext(), readDistilledFile("guardrails.md"), readDistilledFile("metis.md"))
	if strings.TrimSpace(combined) == "" {
		fmt.Println("No distilled knowledge found. Run 'wm distill' first.")
		return nil
	}

	if err := state.WriteWorkingSet(combined); err != nil {
		return fmt.Errorf("write working set: %w", err)
	}
	fmt.Println("Compiled working set to .wm/working_set.md")
	return nil
}

// RunHook handles the prompt-submit hook: read the hook payload from
// stdin, emit the hook response JSON on stdout. Every failure path
// produces an empty response, never error noise.
func RunHook(sessionID string, stdin io.Reader, stdout io.Writer) error {
	if !state.IsInitialized() {
		return nil
	}
	if !state.IsCompileEnabled() {
		state.Log("compile", "Paused via config, returning empty")
		return emitResponse(stdout, "")
	}

	state.Log("compile", "Hook fired")

	// The prompt is consumed but unused: distilled content is
	// pre-curated and always relevant.
	_ = readHookPrompt(stdin)
	state.Log("compile", fmt.Sprintf("Session: %s", sessionID))

	dive := readDiveContext()
	guardrails := readDistilledFile("guardrails.md")
	metis := readDistilledFile("metis.md")

	if strings.TrimSpace(dive) != "" {
		state.Log("compile", fmt.Sprintf("Dive context: %d bytes", len(dive)))
	}
	if strings.TrimSpace(guardrails) != "" {
		state.Log("compile", fmt.Sprintf("Guardrails: %d bytes", len(guardrails)))
	}
	if strings.TrimSpace(metis) != "" {
		state.Log("compile", fmt.Sprintf("Metis: %d bytes", len(metis)))
	}

	combined := combineContext(dive, guardrails, metis)
	if strings.TrimSpace(combined) == "" {
		state.Log("compile", "No distilled content found, returning empty")
		return emitResponse(stdout, "")
	}

	// Working set kept on disk for inspection; best effort.
	_ = state.WriteWorkingSetForSession(sessionID, combined)

	state.Log("compile", "Complete")
	return emitResponse(stdout, combined)
}

func emitResponse(w io.Writer, additionalContext string) error {
	resp := hookResponse{}
	if additionalContext != "" {
		resp.HookSpecificOutput = &hookSpecificOutput{
			HookEventName:     "UserPromptSubmit",
			AdditionalContext: additionalContext,
		}
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// readHookPrompt extracts the prompt field from the hook JSON, falling
// back to the raw input.
func readHookPrompt(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil || strings.TrimSpace(string(data)) == "" {
		return ""
	}
	if prompt := gjson.GetBytes(data, "prompt"); prompt.Exists() && prompt.Type == gjson.String {
		return prompt.String()
	}
	return strings.TrimSpace(string(data))
}

func readDistilledFile(name string) string {
	data, err := os.ReadFile(filepath.Join(state.Path(distillDir), name))
	if err != nil {
		return ""
	}
	return string(data)
}

// readDiveContext prefers dive_context.md, falling back to the legacy
// OH_context.md name.
func readDiveContext() string {
	if data, err := os.ReadFile(state.Path("dive_context.md")); err == nil {
		return string(data)
	}
	if data, err := os.ReadFile(state.Path("OH_context.md")); err == nil {
		return string(data)
	}
	return ""
}

// combineContext joins non-empty sections: dive context first, then
// guardrails, then metis.
func combineContext(dive, guardrails, metis string) string {
	var sections []string
	for _, s := range []string{dive, guardrails, metis} {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			sections = append(sections, trimmed)
		}
	}
	return strings.Join(sections, "\n\n---\n\n")
}
