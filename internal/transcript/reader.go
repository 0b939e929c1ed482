package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReadTranscript parses a transcript JSONL file into entries, in line
// order. Malformed lines are skipped with a warning rather than failing
// the whole file; only an open failure is an error.
func ReadTranscript(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Tool results can push single lines into the megabytes.
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
			fmt.Fprintf(os.Stderr, "Warning: skipping malformed line %d in transcript: %v\n", lineNum, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			fmt.Fprintf(os.Stderr, "Warning: transcript parse stopped at oversized line %d\n", lineNum+1)
			return entries, nil
		}
		return entries, fmt.Errorf("read transcript: %w", err)
	}

	return entries, nil
}

// parseTime parses an entry timestamp. The second return is false for
// empty or unparseable timestamps.
func parseTime(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
