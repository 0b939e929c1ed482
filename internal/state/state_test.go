package state

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// useTempProject points the .wm/ directory at a fresh temp dir.
func useTempProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CLAUDE_PROJECT_DIR", dir)
	return dir
}

func TestInitCreatesLayout(t *testing.T) {
	useTempProject(t)

	if IsInitialized() {
		t.Fatal("fresh project should not be initialized")
	}
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !IsInitialized() {
		t.Fatal("expected initialized after Init")
	}
	for _, name := range []string{"config.toml", "state.md", "working_set.md"} {
		if _, err := os.Stat(Path(name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	// Idempotent.
	if err := Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	if got := ReadState(); got != "" {
		t.Errorf("fresh state = %q, want empty", got)
	}
	if err := WriteState("# Knowledge\n- a fact\n"); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	if got := ReadState(); got != "# Knowledge\n- a fact\n" {
		t.Errorf("ReadState = %q", got)
	}

	// No temp file left behind.
	leftovers, err := filepath.Glob(filepath.Join(Dir(), "*.tmp*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestWriteFileAtomicConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	a := strings.Repeat("a", 8192)
	b := strings.Repeat("b", 8192)

	var wg sync.WaitGroup
	for _, content := range []string{a, b} {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := WriteFileAtomic(path, []byte(c)); err != nil {
					t.Errorf("WriteFileAtomic: %v", err)
					return
				}
			}
		}(content)
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != a && string(got) != b {
		t.Errorf("final document is torn: %d bytes, starts %q ends %q",
			len(got), got[:1], got[len(got)-1:])
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	if got := ReadCheckpoint("sess-1"); got != nil {
		t.Fatal("missing checkpoint should read as nil")
	}

	ts := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	if err := WriteCheckpoint("sess-1", ts); err != nil {
		t.Fatalf("WriteCheckpoint: %v", err)
	}

	got := ReadCheckpoint("sess-1")
	if got == nil {
		t.Fatal("expected checkpoint")
	}
	if !got.Equal(ts) {
		t.Errorf("checkpoint = %v, want %v", got, ts)
	}

	// Session scoping: a different session has no cursor.
	if other := ReadCheckpoint("sess-2"); other != nil {
		t.Error("checkpoints must be per-session")
	}
}

func TestCheckpointProjectLevel(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	ts := time.Now().UTC().Truncate(time.Second)
	if err := WriteCheckpoint("", ts); err != nil {
		t.Fatalf("WriteCheckpoint: %v", err)
	}
	got := ReadCheckpoint("")
	if got == nil || !got.Equal(ts) {
		t.Fatalf("project-level checkpoint = %v, want %v", got, ts)
	}
}

func TestCheckpointMalformedFile(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(SessionDir("bad"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(SessionDir("bad"), "extraction_state.json"), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ReadCheckpoint("bad"); got != nil {
		t.Error("malformed checkpoint should read as nil, not error")
	}
}

func TestConfigDefaults(t *testing.T) {
	useTempProject(t)

	cfg := ReadConfig()
	if !cfg.Operations.Extract || !cfg.Operations.Compile {
		t.Error("operations should default to enabled")
	}
	if cfg.Oracle.Backend != "cli" {
		t.Errorf("default backend = %q, want cli", cfg.Oracle.Backend)
	}
}

func TestConfigMalformedFallsBack(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path("config.toml"), []byte("[[[not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := ReadConfig()
	if !cfg.Operations.Extract {
		t.Error("malformed config should fall back to defaults")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Operations.Extract = false
	cfg.Oracle.Backend = "api"
	cfg.Oracle.Model = "claude-3-5-haiku-latest"
	cfg.Oracle.MaxTokens = 2048
	if err := WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got := ReadConfig()
	if got.Operations.Extract {
		t.Error("extract should stay paused")
	}
	if got.Oracle.Backend != "api" || got.Oracle.MaxTokens != 2048 {
		t.Errorf("oracle config = %+v", got.Oracle)
	}
	if IsExtractEnabled() {
		t.Error("IsExtractEnabled should report paused")
	}
	if !IsCompileEnabled() {
		t.Error("IsCompileEnabled should report enabled")
	}
}

func TestLogAppends(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Log("test", "first")
	Log("test", "second")

	data, err := os.ReadFile(Path("hook.log"))
	if err != nil {
		t.Fatalf("read hook.log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "[test] first") || !strings.Contains(content, "[test] second") {
		t.Errorf("hook.log = %q", content)
	}
}

func TestWorkingSetForSession(t *testing.T) {
	useTempProject(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if err := WriteWorkingSetForSession("s1", "session content"); err != nil {
		t.Fatalf("WriteWorkingSetForSession: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(SessionDir("s1"), "working_set.md"))
	if err != nil {
		t.Fatalf("read session working set: %v", err)
	}
	if string(data) != "session content" {
		t.Errorf("content = %q", data)
	}
}
