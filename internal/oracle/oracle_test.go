package oracle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tacit/wm/internal/state"
)

func TestNewSelectsBackend(t *testing.T) {
	o, err := New(state.OracleConfig{})
	if err != nil {
		t.Fatalf("New default: %v", err)
	}
	if _, ok := o.(*CLIOracle); !ok {
		t.Errorf("default backend = %T, want *CLIOracle", o)
	}

	if _, err := New(state.OracleConfig{Backend: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestBuildExtractionMessage(t *testing.T) {
	msg := BuildExtractionMessage("old state", "recent messages", "fresh messages")

	if !strings.HasPrefix(msg, "CURRENT STATE:\nold state") {
		t.Errorf("missing state section:\n%s", msg)
	}
	if !strings.Contains(msg, carryoverBegin+"\nrecent messages\n"+carryoverEnd) {
		t.Errorf("missing carryover sentinels:\n%s", msg)
	}
	if !strings.Contains(msg, "NEW TRANSCRIPT:\nfresh messages") {
		t.Errorf("missing transcript section:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "OUTPUT:") {
		t.Errorf("missing terminal cue:\n%s", msg)
	}
}

func TestBuildExtractionMessageNoCarryover(t *testing.T) {
	msg := BuildExtractionMessage("s", "", "t")
	if strings.Contains(msg, carryoverBegin) {
		t.Error("empty carryover should omit the sentinel block")
	}
	msg = BuildExtractionMessage("s", "   \n", "t")
	if strings.Contains(msg, carryoverBegin) {
		t.Error("blank carryover should omit the sentinel block")
	}
}

func TestEnvGuardRestores(t *testing.T) {
	t.Setenv(DisableEnv, "original")

	g := setEnvGuard(DisableEnv, "1")
	if got := os.Getenv(DisableEnv); got != "1" {
		t.Fatalf("guarded value = %q", got)
	}
	g.Release()
	if got := os.Getenv(DisableEnv); got != "original" {
		t.Errorf("after release = %q, want original", got)
	}
}

func TestEnvGuardUnsetsWhenAbsent(t *testing.T) {
	os.Unsetenv(DisableEnv)
	g := setEnvGuard(DisableEnv, "1")
	g.Release()
	if _, set := os.LookupEnv(DisableEnv); set {
		t.Error("variable should be unset after release")
	}
}

// fakeCLI writes a script that prints a fixed JSON response.
func fakeCLI(t *testing.T, response string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-claude")
	script := "#!/bin/sh\ncat >/dev/null 2>&1 || true\nprintf '%s' '" + response + "'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIOracleParsesResult(t *testing.T) {
	o := &CLIOracle{Binary: fakeCLI(t, `{"result":"HAS_KNOWLEDGE: NO","is_error":false}`)}
	got, err := o.Complete(context.Background(), "sys", "msg")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "HAS_KNOWLEDGE: NO" {
		t.Errorf("result = %q", got)
	}
}

func TestCLIOracleMissingResultField(t *testing.T) {
	o := &CLIOracle{Binary: fakeCLI(t, `{"other":"field"}`)}
	if _, err := o.Complete(context.Background(), "sys", "msg"); err == nil {
		t.Error("expected error for missing result field")
	}
}

func TestCLIOracleInvalidJSON(t *testing.T) {
	o := &CLIOracle{Binary: fakeCLI(t, `not json`)}
	if _, err := o.Complete(context.Background(), "sys", "msg"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCLIOracleSetsRecursionGuard(t *testing.T) {
	os.Unsetenv(DisableEnv)

	// The script proves the guard was set in the subprocess env.
	path := filepath.Join(t.TempDir(), "fake-claude")
	script := "#!/bin/sh\nif [ -n \"$WM_DISABLED\" ]; then printf '{\"result\":\"guarded\"}'; else printf '{\"result\":\"unguarded\"}'; fi\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	o := &CLIOracle{Binary: path}
	got, err := o.Complete(context.Background(), "sys", "msg")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "guarded" {
		t.Errorf("result = %q, want guarded", got)
	}
	if _, set := os.LookupEnv(DisableEnv); set {
		t.Error("guard should be released after the call")
	}
}
