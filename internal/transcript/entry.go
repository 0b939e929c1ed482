// Package transcript parses Claude Code session transcripts.
// Transcripts are append-only JSONL files where each line is one entry:
// a user message, an assistant message, or a compaction summary. Entry
// shapes evolve upstream, so anything unrecognized decodes to an Unknown
// entry rather than failing the line.
package transcript

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// EntryKind identifies the decoded variant of a transcript entry.
type EntryKind int

const (
	KindUnknown EntryKind = iota
	KindUser
	KindAssistant
	KindSummary
)

// ContentBlock is one typed block of a message content array.
// Claude Code uses text, tool_use, tool_result and thinking blocks.
type ContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	Name     string          `json:"name,omitempty"`
	ID       string          `json:"id,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	// tool_result blocks
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// message is the nested message object on user/assistant entries.
// Content is either a plain string or an array of ContentBlock.
type message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Entry is one decoded transcript line. The zero value is an Unknown
// entry, which downstream filters treat as inert.
type Entry struct {
	kind      EntryKind
	uuid      string
	sessionID string
	timestamp string
	summary   string
	text      string // plain-string content
	blocks    []ContentBlock
}

// envelope is the generic wire shape shared by all entry types.
type envelope struct {
	Type       string  `json:"type"`
	UUID       string  `json:"uuid"`
	ParentUUID *string `json:"parentUuid"`
	SessionID  string  `json:"sessionId"`
	Timestamp  string  `json:"timestamp"`
	Summary    string  `json:"summary"`
	Message    message `json:"message"`
}

// UnmarshalJSON decodes an entry, mapping unrecognized types to Unknown.
// It only returns an error when the line is not a JSON object at all.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	e.uuid = env.UUID
	e.sessionID = env.SessionID
	e.timestamp = env.Timestamp

	switch env.Type {
	case "user":
		e.kind = KindUser
	case "assistant":
		e.kind = KindAssistant
	case "summary":
		e.kind = KindSummary
		e.summary = env.Summary
		return nil
	default:
		e.kind = KindUnknown
		return nil
	}

	// Content is either a string or an array of typed blocks.
	if len(env.Message.Content) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(env.Message.Content, &s); err == nil {
		e.text = s
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(env.Message.Content, &blocks); err == nil {
		e.blocks = blocks
	}
	// Unparseable content leaves a message entry with no text, which the
	// formatter renders as nothing.
	return nil
}

// Kind returns the decoded variant.
func (e *Entry) Kind() EntryKind { return e.kind }

// IsUser reports whether the entry is a user message.
func (e *Entry) IsUser() bool { return e.kind == KindUser }

// IsAssistant reports whether the entry is an assistant message.
func (e *Entry) IsAssistant() bool { return e.kind == KindAssistant }

// IsSummary reports whether the entry is a compaction summary.
func (e *Entry) IsSummary() bool { return e.kind == KindSummary }

// IsMessage reports whether the entry is a user or assistant message.
func (e *Entry) IsMessage() bool { return e.IsUser() || e.IsAssistant() }

// SessionID returns the session identifier, or "" when absent
// (summaries carry none).
func (e *Entry) SessionID() string { return e.sessionID }

// Timestamp returns the raw RFC 3339 timestamp string, or "" when absent.
func (e *Entry) Timestamp() string { return e.timestamp }

// SummaryText returns the compaction summary text for summary entries.
func (e *Entry) SummaryText() string {
	if e.kind != KindSummary {
		return ""
	}
	return e.summary
}

// textOfBlocks joins the text blocks of a content array.
func (e *Entry) textOfBlocks() string {
	out := ""
	for _, b := range e.blocks {
		if b.Type != "text" || b.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += b.Text
	}
	return out
}

// UserText returns the authored text of a user message, or "".
func (e *Entry) UserText() string {
	if e.kind != KindUser {
		return ""
	}
	if e.text != "" {
		return e.text
	}
	return e.textOfBlocks()
}

// AssistantText returns the text of an assistant message, or "".
func (e *Entry) AssistantText() string {
	if e.kind != KindAssistant {
		return ""
	}
	if e.text != "" {
		return e.text
	}
	return e.textOfBlocks()
}

// AssistantThinking returns the joined thinking blocks of an assistant
// message, or "".
func (e *Entry) AssistantThinking() string {
	if e.kind != KindAssistant {
		return ""
	}
	out := ""
	for _, b := range e.blocks {
		if b.Type != "thinking" || b.Thinking == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += b.Thinking
	}
	return out
}

// ToolUse is one tool invocation extracted from an assistant message.
type ToolUse struct {
	Name  string
	Input json.RawMessage
}

// ToolUses returns the tool_use blocks of an assistant message.
func (e *Entry) ToolUses() []ToolUse {
	if e.kind != KindAssistant {
		return nil
	}
	var uses []ToolUse
	for _, b := range e.blocks {
		if b.Type == "tool_use" {
			uses = append(uses, ToolUse{Name: b.Name, Input: b.Input})
		}
	}
	return uses
}

// ToolResult is one tool output carried on a user entry.
type ToolResult struct {
	ToolUseID string
	Content   string
}

// ToolResults returns the tool_result blocks of a user entry. Content is
// flattened to text: plain strings pass through, block arrays contribute
// their text blocks.
func (e *Entry) ToolResults() []ToolResult {
	if e.kind != KindUser {
		return nil
	}
	var results []ToolResult
	for _, b := range e.blocks {
		if b.Type != "tool_result" {
			continue
		}
		results = append(results, ToolResult{
			ToolUseID: b.ToolUseID,
			Content:   flattenResultContent(b.Content),
		})
	}
	return results
}

// flattenResultContent extracts text from a tool_result content field,
// which is either a string or an array of text blocks.
func flattenResultContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	v := gjson.ParseBytes(raw)
	if v.Type == gjson.String {
		return v.String()
	}
	if !v.IsArray() {
		return ""
	}
	out := ""
	for _, item := range v.Array() {
		if item.Get("type").String() != "text" {
			continue
		}
		text := item.Get("text").String()
		if text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += text
	}
	return out
}
