// Package distill implements on-demand batch distillation: Pass 1
// extracts tacit knowledge from every discovered session (with a
// per-session cache), Pass 2 categorizes the accumulated extractions
// into guardrails and metis.
package distill

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tacit/wm/internal/codex"
	"github.com/tacit/wm/internal/oh"
	"github.com/tacit/wm/internal/oracle"
	"github.com/tacit/wm/internal/session"
	"github.com/tacit/wm/internal/state"
	"github.com/tacit/wm/internal/transcript"
)

const sessionExtractionPrompt = `You are extracting tacit knowledge from an AI coding session transcript.

Tacit knowledge is wisdom about HOW to work effectively, not WHAT was done. Look for:
- User preferences revealed through corrections or choices
- Patterns in how problems were approached
- Constraints discovered through friction
- Decisions and their rationale (WHY, not just WHAT)
- Quality standards implicit in feedback

OUTPUT FORMAT:

If you found tacit knowledge worth capturing, respond:
HAS_KNOWLEDGE: YES

Then list each insight as a separate bullet point:
- Insight 1
- Insight 2
...

Each insight should be:
- Self-contained (understandable without the transcript)
- About HOW to work, not WHAT happened
- Useful for future AI sessions

If nothing worth capturing, respond:
HAS_KNOWLEDGE: NO

Most sessions have little or no tacit knowledge. That's normal.`

const categorizationPrompt = `You are categorizing tacit knowledge into two types:

**GUARDRAILS** - Hard constraints that must NEVER be violated:
- Prohibitions: "Never do X", "Always do Y before Z"
- Safety rules: Things that could cause data loss, security issues, or broken builds
- Project-specific requirements that are non-negotiable
- Examples: "Never commit .env files", "Always run tests before pushing", "Never delete migrations"

**METIS** - Wisdom and patterns about HOW to work effectively:
- Preferences: How the user likes things done
- Patterns: Approaches that work well in this codebase
- Context: Understanding about why things are the way they are
- Soft guidance that may have exceptions
- Examples: "Prefer functional approaches", "User likes concise commit messages", "Check existing patterns first"

OUTPUT FORMAT:

GUARDRAILS:
- Item 1
- Item 2
...

METIS:
- Item 1
- Item 2
...

Rules:
1. Each item should be self-contained and actionable
2. Preserve the original meaning but clarify if needed
3. If an item could be both, choose based on severity (safety-critical = guardrail)
4. It's OK to have empty sections if nothing fits that category
5. Combine duplicates, but don't lose distinct nuances`

// Options for a distillation run.
type Options struct {
	DryRun    bool
	Force     bool
	PushToOH  bool
	ContextID string
	Project   string
}

// Run executes the two-pass distillation.
func Run(ctx context.Context, opts Options) error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}
	if opts.PushToOH && opts.ContextID == "" {
		return errors.New("--context-id is required when using --push-to-oh")
	}

	sessions, err := discoverSessions(opts.Project)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		if opts.Project != "" {
			fmt.Printf("No sessions found for projects matching %q.\n", opts.Project)
		} else {
			fmt.Println("No sessions found for project.")
		}
		return nil
	}

	if opts.Project != "" {
		fmt.Printf("Found %d session(s) matching project filter %q\n", len(sessions), opts.Project)
	} else {
		fmt.Printf("Found %d session(s)\n", len(sessions))
	}

	if opts.DryRun {
		fmt.Println("\n[DRY RUN] Would process:")
		cache := loadCache()
		for _, s := range sessions {
			status := "cached"
			if opts.Force {
				status = "force"
			} else if needsExtraction(s.Info, cache) {
				status = "new/changed"
			}
			name := s.SessionID
			if s.codex {
				name += " (codex)"
			}
			fmt.Printf("  %s (%d KB, %s) [%s]\n",
				name, s.SizeBytes/1024, s.ModifiedAt.Format("2006-01-02 15:04"), status)
		}
		return nil
	}

	fmt.Println("\n=== Pass 1: Extracting knowledge from sessions ===")
	fmt.Println()
	extractions, err := runPass1(ctx, sessions, opts.Force)
	if err != nil {
		return err
	}

	raw := accumulateExtractions(extractions)
	if raw == "" {
		fmt.Println("\nNo knowledge extracted from any session.")
		return nil
	}

	if err := writeRawExtractions(raw); err != nil {
		return err
	}
	withKnowledge := 0
	for _, e := range extractions {
		if e.HasKnowledge {
			withKnowledge++
		}
	}
	fmt.Printf("\nPass 1 complete: %d session(s) with knowledge extracted.\n", withKnowledge)
	fmt.Printf("Raw extractions written to .wm/%s/raw_extractions.md\n", distillDir)

	fmt.Println("\n=== Pass 2: Categorizing into guardrails vs metis ===")
	fmt.Println()
	categorized, err := runPass2(ctx, raw)
	if err != nil {
		return err
	}

	if opts.PushToOH {
		return pushToOH(ctx, opts.ContextID, categorized)
	}
	return nil
}

// sessionSource is one transcript to distill. Claude and Codex sessions
// flow through the same cache and extraction loop; only the read and
// format step differs per schema.
type sessionSource struct {
	session.Info
	codex bool
}

func discoverSessions(projectFilter string) ([]sessionSource, error) {
	if projectFilter == "" {
		project := session.CurrentProjectPath()
		var sources []sessionSource

		// A project with no Claude directory may still have Codex
		// sessions, so discovery failures mean "none", not an error.
		if claude, err := session.Discover(project); err == nil {
			for _, s := range claude {
				sources = append(sources, sessionSource{Info: s})
			}
		}
		if root, err := codex.SessionsDir(); err == nil {
			if infos, err := codex.DiscoverSessions(root, project); err == nil {
				for _, c := range infos {
					sources = append(sources, sessionSource{
						Info: session.Info{
							SessionID:      c.SessionID,
							TranscriptPath: c.SessionPath,
							ModifiedAt:     c.ModifiedAt,
							SizeBytes:      c.SizeBytes,
						},
						codex: true,
					})
				}
			}
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i].ModifiedAt.After(sources[j].ModifiedAt) })
		return sources, nil
	}

	if strings.TrimSpace(projectFilter) == "" {
		return nil, errors.New("project filter cannot be empty")
	}
	projects, err := session.FindProjects(projectFilter)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("no projects found matching %q; use 'wm show sessions' to list available projects", projectFilter)
	}
	if len(projects) > 1 {
		fmt.Printf("Matched %d projects:\n", len(projects))
		for _, p := range projects {
			fmt.Printf("  %s (%d sessions)\n", p.ProjectID, p.SessionCount)
		}
		fmt.Println()
	} else {
		fmt.Printf("Project: %s\n", projects[0].ProjectID)
	}

	var all []sessionSource
	for _, p := range projects {
		infos, err := session.DiscoverInDir(p.ProjectDir)
		if err != nil {
			return nil, err
		}
		for _, s := range infos {
			all = append(all, sessionSource{Info: s})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ModifiedAt.After(all[j].ModifiedAt) })
	return all, nil
}

// runPass1 extracts each session, reusing cached results where the
// transcript has not grown. A failed session is logged and skipped;
// the batch continues.
func runPass1(ctx context.Context, sessions []sessionSource, force bool) ([]SessionExtraction, error) {
	cache := loadCache()
	var results []SessionExtraction
	processed, skipped, failed := 0, 0, 0

	for _, s := range sessions {
		if !force && !needsExtraction(s.Info, cache) {
			if cached, ok := cache[s.SessionID]; ok {
				fmt.Printf("  %s [cached]\n", s.SessionID)
				results = append(results, cached)
				skipped++
				continue
			}
		}

		fmt.Printf("  %s extracting...\n", s.SessionID)
		extraction, err := extractFromSession(ctx, s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "    error: %v\n", err)
			logExtractionError(s.SessionID, err)
			failed++
			continue
		}
		if extraction.HasKnowledge {
			fmt.Println("    knowledge found")
		} else {
			fmt.Println("    no knowledge")
		}
		cache[s.SessionID] = extraction
		results = append(results, extraction)
		processed++
	}

	if err := saveCache(cache); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("%d session(s) processed", processed)
	if skipped > 0 {
		summary += fmt.Sprintf(", %d from cache", skipped)
	}
	if failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}
	fmt.Printf("\n%s\n", summary)
	if failed > 0 {
		fmt.Printf("See .wm/%s/errors.log for failure details\n", distillDir)
	}
	return results, nil
}

// extractFromSession runs the oracle over a session's full history.
// Unlike the incremental pipeline there is no cursor: each session is
// independent and selected whole, scoped by its session id.
func extractFromSession(ctx context.Context, s sessionSource) (SessionExtraction, error) {
	state.Log("distill", fmt.Sprintf("Extracting from session %s", s.SessionID))

	formatted, err := sessionContext(s)
	if err != nil {
		return SessionExtraction{}, err
	}

	empty := SessionExtraction{
		SessionID:     s.SessionID,
		ExtractedAt:   time.Now().UTC(),
		HasKnowledge:  false,
		FileSizeBytes: s.SizeBytes,
	}
	if strings.TrimSpace(formatted) == "" {
		return empty, nil
	}

	o, err := oracle.New(state.ReadConfig().Oracle)
	if err != nil {
		return SessionExtraction{}, err
	}
	raw, err := o.Complete(ctx, sessionExtractionPrompt, fmt.Sprintf("TRANSCRIPT:\n%s\n\nOUTPUT:", formatted))
	if err != nil {
		return SessionExtraction{}, fmt.Errorf("oracle: %w", err)
	}
	resp := oracle.ParseMarkerResponse(raw, "HAS_KNOWLEDGE")

	return SessionExtraction{
		SessionID:     s.SessionID,
		ExtractedAt:   time.Now().UTC(),
		HasKnowledge:  resp.Positive,
		Content:       resp.Content,
		FileSizeBytes: s.SizeBytes,
	}, nil
}

// sessionContext reads and renders a session transcript in its native
// schema.
func sessionContext(s sessionSource) (string, error) {
	if s.codex {
		entries, err := codex.ReadSession(s.TranscriptPath)
		if err != nil {
			return "", fmt.Errorf("read session: %w", err)
		}
		return codex.FormatContext(entries), nil
	}

	entries, err := transcript.ReadTranscript(s.TranscriptPath)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	messages := transcript.MessagesSince(entries, nil, s.SessionID)
	return transcript.FormatContext(messages), nil
}

func accumulateExtractions(extractions []SessionExtraction) string {
	var b strings.Builder
	for _, e := range extractions {
		if e.HasKnowledge && strings.TrimSpace(e.Content) != "" {
			fmt.Fprintf(&b, "## Session: %s\n\n%s\n\n", e.SessionID, e.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

func writeRawExtractions(content string) error {
	if err := os.MkdirAll(state.Path(distillDir), 0o755); err != nil {
		return fmt.Errorf("create distill directory: %w", err)
	}
	return state.WriteFileAtomic(distillPath("raw_extractions.md"), []byte(content))
}

// CategorizationResult holds Pass 2 output.
type CategorizationResult struct {
	Guardrails []string
	Metis      []string
}

func runPass2(ctx context.Context, rawExtractions string) (CategorizationResult, error) {
	o, err := oracle.New(state.ReadConfig().Oracle)
	if err != nil {
		return CategorizationResult{}, err
	}
	message := fmt.Sprintf("Categorize these extracted insights:\n\n%s\n\nOUTPUT:", rawExtractions)
	raw, err := o.Complete(ctx, categorizationPrompt, message)
	if err != nil {
		return CategorizationResult{}, fmt.Errorf("oracle: %w", err)
	}
	result := parseCategorizationResponse(raw)

	if len(result.Guardrails) > 0 {
		content := formatCategorizedOutput("Guardrails", result.Guardrails)
		if err := writeCategorizedFile("guardrails.md", content); err != nil {
			return result, err
		}
		fmt.Printf("  %d guardrail(s) written to .wm/%s/guardrails.md\n", len(result.Guardrails), distillDir)
	} else {
		fmt.Println("  No guardrails identified")
	}

	if len(result.Metis) > 0 {
		content := formatCategorizedOutput("Metis", result.Metis)
		if err := writeCategorizedFile("metis.md", content); err != nil {
			return result, err
		}
		fmt.Printf("  %d metis item(s) written to .wm/%s/metis.md\n", len(result.Metis), distillDir)
	} else {
		fmt.Println("  No metis items identified")
	}

	fmt.Printf("\nPass 2 complete: %d guardrail(s), %d metis item(s)\n",
		len(result.Guardrails), len(result.Metis))
	return result, nil
}

// parseCategorizationResponse splits the oracle reply into the two
// bullet sections. Lines outside a recognized section are ignored.
func parseCategorizationResponse(response string) CategorizationResult {
	var result CategorizationResult
	section := ""

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "GUARDRAILS:") || trimmed == "GUARDRAILS":
			section = "guardrails"
			continue
		case strings.HasPrefix(trimmed, "METIS:") || trimmed == "METIS":
			section = "metis"
			continue
		}
		item, ok := parseBulletItem(trimmed)
		if !ok {
			continue
		}
		switch section {
		case "guardrails":
			result.Guardrails = append(result.Guardrails, item)
		case "metis":
			result.Metis = append(result.Metis, item)
		}
	}
	return result
}

func parseBulletItem(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	content := strings.TrimSpace(strings.TrimLeft(trimmed, "-*•"))
	if content == "" {
		return "", false
	}
	return content, true
}

func formatCategorizedOutput(title string, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return b.String()
}

func writeCategorizedFile(name, content string) error {
	if err := os.MkdirAll(state.Path(distillDir), 0o755); err != nil {
		return fmt.Errorf("create distill directory: %w", err)
	}
	return state.WriteFileAtomic(distillPath(name), []byte(content))
}

func pushToOH(ctx context.Context, contextID string, categorized CategorizationResult) error {
	if len(categorized.Guardrails) == 0 && len(categorized.Metis) == 0 {
		fmt.Println("\n=== Push to OH ===")
		fmt.Println()
		fmt.Println("  Nothing to push (no candidates)")
		return nil
	}

	fmt.Println("\n=== Push to Open Horizons ===")
	fmt.Println()
	fmt.Printf("  Context: %s\n", contextID)

	result, err := oh.PushCandidates(ctx, contextID, categorized.Guardrails, categorized.Metis)
	if err != nil {
		return err
	}

	if result.GuardrailsPushed > 0 {
		fmt.Printf("  %d guardrail(s) pushed\n", result.GuardrailsPushed)
	}
	if result.MetisPushed > 0 {
		fmt.Printf("  %d metis item(s) pushed\n", result.MetisPushed)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("  %d item(s) failed:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %q: %s\n", e.Content, e.Message)
		}
	}

	total := result.GuardrailsPushed + result.MetisPushed
	fmt.Printf("\nOH push complete: %d item(s) pushed, %d error(s)\n", total, len(result.Errors))
	if total == 0 && len(result.Errors) > 0 {
		return errors.New("all items failed to push to OH")
	}
	return nil
}
