package compile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tacit/wm/internal/state"
)

func useTempProject(t *testing.T) {
	t.Helper()
	t.Setenv("CLAUDE_PROJECT_DIR", t.TempDir())
	if err := state.Init(); err != nil {
		t.Fatal(err)
	}
}

func writeDistilled(t *testing.T, name, content string) {
	t.Helper()
	dir := state.Path(distillDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCombineContext(t *testing.T) {
	got := combineContext("dive", "# Guardrails\n- g", "# Metis\n- m")
	parts := strings.Split(got, "\n\n---\n\n")
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3:\n%s", len(parts), got)
	}
	if parts[0] != "dive" {
		t.Errorf("dive context must come first, got %q", parts[0])
	}
}

func TestCombineContextSkipsEmptySections(t *testing.T) {
	got := combineContext("", "# Guardrails\n- g", "   ")
	if strings.Contains(got, "---") {
		t.Errorf("single section should have no separator: %q", got)
	}
	if got != "# Guardrails\n- g" {
		t.Errorf("got %q", got)
	}

	if combineContext("", "", "") != "" {
		t.Error("all-empty input should combine to empty")
	}
}

func TestRunWritesWorkingSet(t *testing.T) {
	useTempProject(t)
	writeDistilled(t, "guardrails.md", "# Guardrails\n- never force-push")

	if err := Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := state.ReadWorkingSet()
	if err != nil {
		t.Fatalf("ReadWorkingSet: %v", err)
	}
	if !strings.Contains(got, "never force-push") {
		t.Errorf("working set = %q", got)
	}
}

func TestRunUninitializedSucceedsQuietly(t *testing.T) {
	t.Setenv("CLAUDE_PROJECT_DIR", t.TempDir())
	if err := Run(); err != nil {
		t.Errorf("Run on uninitialized project: %v", err)
	}
}

func TestRunHookEmitsWrappedResponse(t *testing.T) {
	useTempProject(t)
	writeDistilled(t, "metis.md", "# Metis\n- prefer table tests")

	var out bytes.Buffer
	stdin := strings.NewReader(`{"prompt":"how do I test this?"}`)
	if err := RunHook("sess-1", stdin, &out); err != nil {
		t.Fatalf("RunHook: %v", err)
	}

	var resp struct {
		HookSpecificOutput struct {
			HookEventName     string `json:"hookEventName"`
			AdditionalContext string `json:"additionalContext"`
		} `json:"hookSpecificOutput"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, out.String())
	}
	if resp.HookSpecificOutput.HookEventName != "UserPromptSubmit" {
		t.Errorf("hookEventName = %q", resp.HookSpecificOutput.HookEventName)
	}
	if !strings.Contains(resp.HookSpecificOutput.AdditionalContext, "prefer table tests") {
		t.Errorf("additionalContext = %q", resp.HookSpecificOutput.AdditionalContext)
	}

	// Working set lands under the session directory.
	data, err := os.ReadFile(filepath.Join(state.SessionDir("sess-1"), "working_set.md"))
	if err != nil {
		t.Fatalf("session working set: %v", err)
	}
	if !strings.Contains(string(data), "prefer table tests") {
		t.Errorf("session working set = %q", data)
	}
}

func TestRunHookEmptyWhenNothingDistilled(t *testing.T) {
	useTempProject(t)

	var out bytes.Buffer
	if err := RunHook("sess-1", strings.NewReader("{}"), &out); err != nil {
		t.Fatalf("RunHook: %v", err)
	}
	got := strings.TrimSpace(out.String())
	if got != "{}" {
		t.Errorf("empty response = %q, want {}", got)
	}
}

func TestRunHookUninitializedEmitsNothing(t *testing.T) {
	t.Setenv("CLAUDE_PROJECT_DIR", t.TempDir())

	var out bytes.Buffer
	if err := RunHook("sess-1", strings.NewReader(""), &out); err != nil {
		t.Fatalf("RunHook: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("uninitialized hook output = %q, want none", out.String())
	}
}

func TestReadDiveContextLegacyFallback(t *testing.T) {
	useTempProject(t)

	if err := os.WriteFile(state.Path("OH_context.md"), []byte("legacy pack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readDiveContext(); got != "legacy pack" {
		t.Errorf("legacy fallback = %q", got)
	}

	if err := os.WriteFile(state.Path("dive_context.md"), []byte("new pack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readDiveContext(); got != "new pack" {
		t.Errorf("dive_context.md should win: %q", got)
	}
}

func TestReadHookPrompt(t *testing.T) {
	if got := readHookPrompt(strings.NewReader(`{"prompt":"the ask"}`)); got != "the ask" {
		t.Errorf("json prompt = %q", got)
	}
	if got := readHookPrompt(strings.NewReader("raw intent")); got != "raw intent" {
		t.Errorf("raw fallback = %q", got)
	}
	if got := readHookPrompt(strings.NewReader("")); got != "" {
		t.Errorf("empty input = %q", got)
	}
}
