package transcript

import "time"

// MessagesSince returns the entries relevant to extraction that arrived
// after the cursor: user/assistant messages and summaries, optionally
// restricted to one session. Summaries always pass regardless of cursor
// or session tag; they are compacted context with no natural position.
// A nil cursor selects the full history (first extraction).
func MessagesSince(entries []Entry, since *time.Time, sessionID string) []*Entry {
	var out []*Entry
	for i := range entries {
		e := &entries[i]
		if !e.IsMessage() && !e.IsSummary() {
			continue
		}
		if e.IsSummary() {
			out = append(out, e)
			continue
		}
		if sessionID != "" && e.SessionID() != sessionID {
			continue
		}
		if since != nil {
			// Entries without a parseable timestamp pass through.
			if ts, ok := parseTime(e.Timestamp()); ok && !ts.After(*since) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// MessagesInWindow returns message/summary entries with timestamps in
// [start, end), optionally restricted to one session. Entries without a
// timestamp are excluded: the window is used for the carry-over slice,
// which must not re-include summaries already selected elsewhere.
func MessagesInWindow(entries []Entry, start, end time.Time, sessionID string) []*Entry {
	var out []*Entry
	for i := range entries {
		e := &entries[i]
		if !e.IsMessage() && !e.IsSummary() {
			continue
		}
		if sessionID != "" && e.SessionID() != sessionID {
			continue
		}
		ts, ok := parseTime(e.Timestamp())
		if !ok {
			continue
		}
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}
