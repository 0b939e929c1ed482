package codex

import (
	"bufio"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SessionInfo describes one discovered Codex session log.
type SessionInfo struct {
	// Session id from the filename: rollout-<timestamp>-<uuid>.jsonl
	// without the rollout- prefix and extension.
	SessionID string

	// Full path to the session JSONL file.
	SessionPath string

	// Working directory the session ran in, from session_meta.
	// Empty when the metadata line is missing or unreadable.
	Cwd string

	// Last modification time.
	ModifiedAt time.Time

	// File size in bytes.
	SizeBytes int64
}

// SessionsDir returns the Codex sessions root (~/.codex/sessions).
func SessionsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codex", "sessions"), nil
}

// DiscoverSessions finds Codex sessions under root, which is laid out as
// YYYY/MM/DD/rollout-*.jsonl. A missing root yields an empty result, not
// an error; unreadable entries are skipped. When projectFilter is
// non-empty only sessions whose cwd contains the filter are returned.
// Results are sorted newest-modified-first.
func DiscoverSessions(root, projectFilter string) ([]SessionInfo, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionInfo
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !isSessionFile(path) {
			return nil
		}
		info, ok := sessionInfo(path)
		if !ok {
			return nil
		}
		if projectFilter != "" {
			if info.Cwd == "" || !strings.Contains(info.Cwd, projectFilter) {
				return nil
			}
		}
		sessions = append(sessions, info)
		return nil
	})

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModifiedAt.After(sessions[j].ModifiedAt)
	})
	return sessions, nil
}

// isSessionFile reports whether path names a Codex session log.
func isSessionFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, "rollout-") && strings.HasSuffix(name, ".jsonl")
}

// sessionInfo builds a SessionInfo for a session file.
func sessionInfo(path string) (SessionInfo, bool) {
	stat, err := os.Stat(path)
	if err != nil {
		return SessionInfo{}, false
	}

	name := strings.TrimSuffix(filepath.Base(path), ".jsonl")
	sessionID := strings.TrimPrefix(name, "rollout-")

	return SessionInfo{
		SessionID:   sessionID,
		SessionPath: path,
		Cwd:         readSessionCwd(path),
		ModifiedAt:  stat.ModTime().UTC(),
		SizeBytes:   stat.Size(),
	}, true
}

// readSessionCwd reads the cwd from the session_meta entry, which is
// normally the first line. Checks the first few lines to be safe.
func readSessionCwd(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for i := 0; i < 5 && scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.IsSessionMeta() {
			return entry.SessionCwd()
		}
	}
	return ""
}
