package codex

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tacit/wm/internal/transcript"
)

const maxOutputBytes = 500

// FormatContext renders Codex entries as a labeled plain-text transcript
// for the extraction oracle, mirroring the Claude Code format. Irrelevant
// entries (session metadata, token counts) are skipped.
func FormatContext(entries []Entry) string {
	var b strings.Builder

	for i := range entries {
		e := &entries[i]
		if !e.IsRelevant() {
			continue
		}

		switch {
		case e.IsUserMessage():
			if text := stripEnvironmentContext(e.UserMessageText()); text != "" {
				b.WriteString("USER: ")
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		case e.IsAgentMessage():
			if text := e.AgentMessageText(); text != "" {
				b.WriteString("ASSISTANT: ")
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		case e.IsAgentReasoning():
			if text := e.AgentReasoningText(); text != "" {
				b.WriteString("THINKING: ")
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		case e.IsFunctionCall():
			name := e.FunctionCallName()
			if name == "" {
				continue
			}
			b.WriteString("TOOL: ")
			b.WriteString(name)
			if summary := summarizeToolArgs(name, e.FunctionCallArgs()); summary != "" {
				b.WriteString("(")
				b.WriteString(summary)
				b.WriteString(")")
			}
			b.WriteString("\n")
		case e.IsFunctionCallOutput():
			if out := e.FunctionCallOutput(); out != "" {
				b.WriteString("TOOL_RESULT: ")
				b.WriteString(transcript.TruncateUTF8(out, maxOutputBytes))
				b.WriteString("\n\n")
			}
		}
	}

	return b.String()
}

// stripEnvironmentContext removes <environment_context> blocks from user
// messages. They carry cwd and sandbox settings, not user intent.
func stripEnvironmentContext(text string) string {
	return transcript.StripTagBlocks(text, "<environment_context>", "</environment_context>")
}

// summarizeToolArgs pulls the key identifier out of a function call's
// JSON arguments. Unrecognized tools get no summary.
func summarizeToolArgs(name, args string) string {
	if args == "" || !gjson.Valid(args) {
		return ""
	}
	parsed := gjson.Parse(args)

	switch name {
	case "shell":
		cmd := parsed.Get("command")
		if cmd.IsArray() {
			// Commands log as ["zsh", "-lc", "actual command"].
			arr := cmd.Array()
			if len(arr) > 0 {
				return arr[len(arr)-1].String()
			}
			return ""
		}
		return cmd.String()
	case "read_file", "write_file":
		return parsed.Get("path").String()
	case "edit_file":
		return parsed.Get("target_file").String()
	}
	return ""
}
