package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/codex"
	"github.com/tacit/wm/internal/session"
	"github.com/tacit/wm/internal/state"
)

var showSessionID string

var showCmd = &cobra.Command{
	Use:   "show [state|working|sessions]",
	Short: "Display state, working set, or discovered sessions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		what := "state"
		if len(args) > 0 {
			what = args[0]
		}
		switch what {
		case "state":
			return showState()
		case "working":
			return showWorking(showSessionID)
		case "sessions":
			return showSessions()
		default:
			return fmt.Errorf("unknown target: %s (use: state, working, sessions)", what)
		}
	},
}

func init() {
	showCmd.Flags().StringVar(&showSessionID, "session-id", "", "session ID for session-specific working set")
	rootCmd.AddCommand(showCmd)
}

func showState() error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}
	content := state.ReadState()
	if strings.TrimSpace(content) == "" {
		fmt.Println("_No knowledge captured yet. Run 'wm distill' after some conversations._")
		return nil
	}
	fmt.Println(content)
	return nil
}

func showWorking(sessionID string) error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}

	var content string
	var err error
	if sessionID != "" {
		var data []byte
		data, err = os.ReadFile(filepath.Join(state.SessionDir(sessionID), "working_set.md"))
		content = string(data)
	} else {
		content, err = state.ReadWorkingSet()
	}
	if err != nil {
		if os.IsNotExist(err) {
			if sessionID != "" {
				fmt.Printf("_No working set for session %s. Run 'wm hook compile --session-id %s' first._\n", sessionID, sessionID)
			} else {
				fmt.Println("_No working set compiled yet. Run 'wm compile' first._")
			}
			return nil
		}
		return fmt.Errorf("read working set: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		fmt.Println("_No working set compiled yet. Run 'wm compile' first._")
		return nil
	}
	fmt.Println(content)
	return nil
}

func showSessions() error {
	project := session.CurrentProjectPath()

	claudeSessions, err := session.Discover(project)
	if err != nil {
		claudeSessions = nil
	}
	if len(claudeSessions) == 0 {
		fmt.Println("_No Claude sessions found for this project._")
	} else {
		fmt.Printf("# Claude Sessions (%d)\n\n", len(claudeSessions))
		for _, s := range claudeSessions {
			marker := "-"
			if _, err := os.Stat(filepath.Join(state.SessionDir(s.SessionID), "extraction_state.json")); err == nil {
				marker = "*"
			}
			fmt.Printf("%s %s (%s, %s)\n", marker, s.SessionID, formatSize(s.SizeBytes), s.ModifiedAt.Format("2006-01-02 15:04"))
		}
		fmt.Println()
		fmt.Println("* = has wm state, - = not yet processed")
	}

	codexRoot, err := codex.SessionsDir()
	if err != nil {
		return nil
	}
	codexSessions, err := codex.DiscoverSessions(codexRoot, project)
	if err != nil || len(codexSessions) == 0 {
		return nil
	}
	fmt.Printf("\n# Codex Sessions (%d)\n\n", len(codexSessions))
	for _, s := range codexSessions {
		fmt.Printf("- %s (%s, %s)\n", s.SessionID, formatSize(s.SizeBytes), s.ModifiedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func formatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
