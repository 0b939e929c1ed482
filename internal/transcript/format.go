package transcript

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// maxToolResultBytes caps rendered tool output. Beyond this the output is
// file dumps and command noise, not conversation.
const maxToolResultBytes = 500

// truncationMarker suffixes tool output cut at maxToolResultBytes.
const truncationMarker = "...[truncated]"

// FormatContext renders selected entries as a labeled plain-text
// transcript for the extraction oracle. Empty input yields "".
func FormatContext(entries []*Entry) string {
	var b strings.Builder

	for _, e := range entries {
		switch {
		case e.IsSummary():
			if text := e.SummaryText(); text != "" {
				b.WriteString("SUMMARY: ")
				b.WriteString(text)
				b.WriteString("\n\n")
			}

		case e.IsUser():
			// Tool results first: what the assistant read or executed.
			for _, r := range e.ToolResults() {
				if r.Content == "" {
					continue
				}
				b.WriteString("TOOL_RESULT: ")
				b.WriteString(TruncateUTF8(r.Content, maxToolResultBytes))
				b.WriteString("\n\n")
			}

			if text := stripSystemReminders(e.UserText()); text != "" {
				b.WriteString("USER: ")
				b.WriteString(text)
				b.WriteString("\n\n")
			}

		case e.IsAssistant():
			if thinking := e.AssistantThinking(); thinking != "" {
				b.WriteString("THINKING: ")
				b.WriteString(thinking)
				b.WriteString("\n\n")
			}

			uses := e.ToolUses()
			if len(uses) > 0 {
				b.WriteString("TOOLS: ")
				for _, u := range uses {
					b.WriteString(u.Name)
					if summary := toolSummary(u.Name, u.Input); summary != "" {
						b.WriteString("(")
						b.WriteString(summary)
						b.WriteString(")")
					}
					b.WriteString(" ")
				}
				b.WriteString("\n")
			}

			if text := e.AssistantText(); text != "" {
				b.WriteString("ASSISTANT: ")
				b.WriteString(text)
				b.WriteString("\n\n")
			} else if len(uses) > 0 {
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// toolSummary extracts the key identifier from tool input: the file path,
// command, or search pattern. Unrecognized tools get no summary.
func toolSummary(name string, input []byte) string {
	if len(input) == 0 {
		return ""
	}
	args := gjson.ParseBytes(input)
	switch name {
	case "Edit", "Write", "Read":
		return args.Get("file_path").String()
	case "Bash":
		return args.Get("command").String()
	case "Glob", "Grep":
		return args.Get("pattern").String()
	}
	return ""
}

// stripSystemReminders removes <system-reminder> blocks from user text.
// They restate CLAUDE.md content injected by the harness, not anything
// the user authored.
func stripSystemReminders(text string) string {
	return StripTagBlocks(text, "<system-reminder>", "</system-reminder>")
}

// StripTagBlocks removes every openTag...closeTag span from text,
// including the tags. An unclosed open tag consumes the rest of the
// text. The result is trimmed.
func StripTagBlocks(text, openTag, closeTag string) string {
	var b strings.Builder
	b.Grow(len(text))

	rest := text
	for {
		open := strings.Index(rest, openTag)
		if open == -1 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		afterOpen := rest[open+len(openTag):]
		closeIdx := strings.Index(afterOpen, closeTag)
		if closeIdx == -1 {
			break
		}
		rest = afterOpen[closeIdx+len(closeTag):]
	}

	return strings.TrimSpace(b.String())
}

// TruncateUTF8 cuts s to at most max bytes without splitting a rune,
// appending the truncation marker when anything was removed.
func TruncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}
