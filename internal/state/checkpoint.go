package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const checkpointFile = "extraction_state.json"

// checkpoint is the on-disk shape of a per-session extraction cursor.
type checkpoint struct {
	LastExtracted string `json:"last_extracted"`
}

// checkpointPath returns the checkpoint file for a session. An empty
// session id uses the project-level path (unscoped extraction).
func checkpointPath(sessionID string) string {
	if sessionID == "" {
		return Path(checkpointFile)
	}
	return filepath.Join(SessionDir(sessionID), checkpointFile)
}

// ReadCheckpoint returns the timestamp through which the session's
// transcript has been extracted. A missing or unreadable checkpoint
// means full-history mode and returns nil, never an error.
func ReadCheckpoint(sessionID string) *time.Time {
	data, err := os.ReadFile(checkpointPath(sessionID))
	if err != nil {
		return nil
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, cp.LastExtracted)
	if err != nil {
		return nil
	}
	return &t
}

// WriteCheckpoint records the extraction cursor for a session. Callers
// pass the wall clock captured before reading the transcript, so
// messages arriving during the oracle call are picked up next run.
func WriteCheckpoint(sessionID string, ts time.Time) error {
	path := checkpointPath(sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session state dir: %w", err)
	}
	data, err := json.MarshalIndent(checkpoint{LastExtracted: ts.Format(time.RFC3339)}, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}
