// Package codex parses Codex CLI session logs. Sessions are JSONL files
// of timestamped typed events: session_meta (id, cwd, cli_version),
// event_msg (user_message, agent_message, agent_reasoning, token_count)
// and response_item (message, function_call, function_call_output).
package codex

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Entry is one decoded line of a Codex session log. The payload keeps
// its raw JSON; accessors pull the fields each payload type carries.
type Entry struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// IsSessionMeta reports whether this is the session metadata entry.
func (e *Entry) IsSessionMeta() bool { return e.Type == "session_meta" }

// IsEventMsg reports whether this is an event message.
func (e *Entry) IsEventMsg() bool { return e.Type == "event_msg" }

// IsResponseItem reports whether this is a response item.
func (e *Entry) IsResponseItem() bool { return e.Type == "response_item" }

func (e *Entry) payloadType() string {
	return gjson.GetBytes(e.Payload, "type").String()
}

// SessionID returns the session id from session_meta, or "".
func (e *Entry) SessionID() string {
	if !e.IsSessionMeta() {
		return ""
	}
	return gjson.GetBytes(e.Payload, "id").String()
}

// SessionCwd returns the working directory from session_meta, or "".
func (e *Entry) SessionCwd() string {
	if !e.IsSessionMeta() {
		return ""
	}
	return gjson.GetBytes(e.Payload, "cwd").String()
}

// IsUserMessage reports an event_msg carrying a user message.
func (e *Entry) IsUserMessage() bool {
	return e.IsEventMsg() && e.payloadType() == "user_message"
}

// IsAgentMessage reports an event_msg carrying an agent message.
func (e *Entry) IsAgentMessage() bool {
	return e.IsEventMsg() && e.payloadType() == "agent_message"
}

// IsAgentReasoning reports an event_msg carrying agent reasoning.
func (e *Entry) IsAgentReasoning() bool {
	return e.IsEventMsg() && e.payloadType() == "agent_reasoning"
}

// IsTokenCount reports a token-count telemetry event. These carry no
// renderable text and are never extracted.
func (e *Entry) IsTokenCount() bool {
	return e.IsEventMsg() && e.payloadType() == "token_count"
}

// IsFunctionCall reports a response_item function call.
func (e *Entry) IsFunctionCall() bool {
	return e.IsResponseItem() && e.payloadType() == "function_call"
}

// IsFunctionCallOutput reports a response_item function call output.
func (e *Entry) IsFunctionCallOutput() bool {
	return e.IsResponseItem() && e.payloadType() == "function_call_output"
}

// IsRelevant reports whether the entry contributes to extraction
// context.
func (e *Entry) IsRelevant() bool {
	return e.IsUserMessage() ||
		e.IsAgentMessage() ||
		e.IsAgentReasoning() ||
		e.IsFunctionCall() ||
		e.IsFunctionCallOutput()
}

// UserMessageText returns the user message text, or "".
func (e *Entry) UserMessageText() string {
	if !e.IsUserMessage() {
		return ""
	}
	return gjson.GetBytes(e.Payload, "message").String()
}

// AgentMessageText returns the agent message text, or "".
func (e *Entry) AgentMessageText() string {
	if !e.IsAgentMessage() {
		return ""
	}
	return gjson.GetBytes(e.Payload, "message").String()
}

// AgentReasoningText returns the agent reasoning text, or "".
func (e *Entry) AgentReasoningText() string {
	if !e.IsAgentReasoning() {
		return ""
	}
	return gjson.GetBytes(e.Payload, "text").String()
}

// FunctionCallName returns the called function's name, or "".
func (e *Entry) FunctionCallName() string {
	if !e.IsFunctionCall() {
		return ""
	}
	return gjson.GetBytes(e.Payload, "name").String()
}

// FunctionCallArgs returns the function call arguments as the raw JSON
// string Codex logged, or "".
func (e *Entry) FunctionCallArgs() string {
	if !e.IsFunctionCall() {
		return ""
	}
	return gjson.GetBytes(e.Payload, "arguments").String()
}

// FunctionCallOutput returns the function call output text. Non-string
// outputs are rendered as their JSON.
func (e *Entry) FunctionCallOutput() string {
	if !e.IsFunctionCallOutput() {
		return ""
	}
	out := gjson.GetBytes(e.Payload, "output")
	if !out.Exists() {
		return ""
	}
	if out.Type == gjson.String {
		return out.String()
	}
	return out.Raw
}
