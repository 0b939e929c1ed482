package codex

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// ReadSession parses a Codex session JSONL file into entries, in line
// order. Malformed lines are skipped with a warning; only an open
// failure is an error.
func ReadSession(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 10*1024*1024)

	var entries []Entry
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping malformed line %d in Codex session: %v\n", lineNum, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			fmt.Fprintf(os.Stderr, "Warning: Codex session parse stopped at oversized line %d\n", lineNum+1)
			return entries, nil
		}
		return entries, fmt.Errorf("read session: %w", err)
	}

	return entries, nil
}
