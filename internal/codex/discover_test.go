package codex

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSession(t *testing.T, root, day, name, cwd string) string {
	t.Helper()
	dir := filepath.Join(root, "2026", "08", day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	content := `{"timestamp":"2026-08-01T10:00:00Z","type":"session_meta","payload":{"id":"` + name + `","cwd":"` + cwd + `"}}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscoverSessionsMissingRoot(t *testing.T) {
	sessions, err := DiscoverSessions(filepath.Join(t.TempDir(), "absent"), "")
	if err != nil {
		t.Fatalf("DiscoverSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("len = %d, want 0", len(sessions))
	}
}

func TestDiscoverSessionsFindsRollouts(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "01", "rollout-2026-08-01-aaa.jsonl", "/home/u/alpha")
	writeSession(t, root, "02", "rollout-2026-08-02-bbb.jsonl", "/home/u/beta")

	// Non-session files are ignored.
	if err := os.WriteFile(filepath.Join(root, "2026", "08", "01", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sessions, err := DiscoverSessions(root, "")
	if err != nil {
		t.Fatalf("DiscoverSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len = %d, want 2", len(sessions))
	}
	for _, s := range sessions {
		if s.SessionID == "" || s.Cwd == "" {
			t.Errorf("incomplete session info: %+v", s)
		}
	}
}

func TestDiscoverSessionsProjectFilter(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "01", "rollout-aaa.jsonl", "/home/u/alpha")
	writeSession(t, root, "01", "rollout-bbb.jsonl", "/home/u/beta")

	sessions, err := DiscoverSessions(root, "alpha")
	if err != nil {
		t.Fatalf("DiscoverSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len = %d, want 1", len(sessions))
	}
	if sessions[0].Cwd != "/home/u/alpha" {
		t.Errorf("Cwd = %q", sessions[0].Cwd)
	}
}

func TestDiscoverSessionsNewestFirst(t *testing.T) {
	root := t.TempDir()
	older := writeSession(t, root, "01", "rollout-old.jsonl", "/p")
	newer := writeSession(t, root, "02", "rollout-new.jsonl", "/p")

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	sessions, err := DiscoverSessions(root, "")
	if err != nil {
		t.Fatalf("DiscoverSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len = %d, want 2", len(sessions))
	}
	if sessions[0].SessionPath != newer {
		t.Errorf("first = %s, want newest %s", sessions[0].SessionPath, newer)
	}
}

func TestReadSessionTolerance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rollout-x.jsonl")
	content := `{"type":"event_msg","payload":{"type":"user_message","message":"a"}}
garbage line
{"type":"event_msg","payload":{"type":"agent_message","message":"b"}}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadSession(path)
	if err != nil {
		t.Fatalf("ReadSession: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
}
