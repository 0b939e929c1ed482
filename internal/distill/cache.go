package distill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tacit/wm/internal/session"
	"github.com/tacit/wm/internal/state"
)

const distillDir = "distill"

// SessionExtraction is the cached result of one session's Pass 1 run.
type SessionExtraction struct {
	SessionID    string    `json:"session_id"`
	ExtractedAt  time.Time `json:"extracted_at"`
	HasKnowledge bool      `json:"has_knowledge"`
	Content      string    `json:"content"`

	// Size of the transcript at extraction time. Transcripts are
	// append-only JSONL, so a size change means new content. The
	// heuristic cannot detect truncation or rotation.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

func distillPath(name string) string {
	return filepath.Join(state.Path(distillDir), name)
}

func loadCache() map[string]SessionExtraction {
	data, err := os.ReadFile(distillPath("cache.json"))
	if err != nil {
		return map[string]SessionExtraction{}
	}
	var cache map[string]SessionExtraction
	if err := json.Unmarshal(data, &cache); err != nil || cache == nil {
		return map[string]SessionExtraction{}
	}
	return cache
}

func saveCache(cache map[string]SessionExtraction) error {
	if err := os.MkdirAll(state.Path(distillDir), 0o755); err != nil {
		return fmt.Errorf("create distill directory: %w", err)
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize cache: %w", err)
	}
	return state.WriteFileAtomic(distillPath("cache.json"), data)
}

// needsExtraction reports whether a session is missing from the cache
// or its transcript grew since the cached run.
func needsExtraction(info session.Info, cache map[string]SessionExtraction) bool {
	cached, ok := cache[info.SessionID]
	if !ok {
		return true
	}
	return cached.FileSizeBytes != info.SizeBytes
}

// logExtractionError appends one line to errors.log. Best effort;
// logging never fails the batch.
func logExtractionError(sessionID string, err error) {
	if mkErr := os.MkdirAll(state.Path(distillDir), 0o755); mkErr != nil {
		return
	}
	oneline := strings.ReplaceAll(err.Error(), "\n", " | ")
	line := fmt.Sprintf("[%s] Session %s: %s\n", time.Now().Format("2006-01-02 15:04:05"), sessionID, oneline)

	f, openErr := os.OpenFile(distillPath("errors.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line)
}
