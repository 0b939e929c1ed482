// Package session discovers Claude Code session transcripts. Claude Code
// stores them as UUID-named JSONL files under ~/.claude/projects/<id>/,
// where the project id is the absolute project path with slashes
// replaced by dashes.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Info describes one discovered session transcript.
type Info struct {
	// Session UUID (filename without the .jsonl extension).
	SessionID string

	// Full path to the transcript file.
	TranscriptPath string

	// Last modification time.
	ModifiedAt time.Time

	// File size in bytes.
	SizeBytes int64
}

// ProjectID converts a project path to Claude Code's directory name:
// the absolute path with every slash replaced by a dash.
func ProjectID(projectPath string) string {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		abs = projectPath
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return strings.ReplaceAll(filepath.ToSlash(abs), "/", "-")
}

// ProjectsDir returns the Claude projects root (~/.claude/projects).
func ProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// ProjectDir returns the transcript directory for a project, or an error
// when Claude Code has no directory for it.
func ProjectDir(projectPath string) (string, error) {
	root, err := ProjectsDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, ProjectID(projectPath))
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("no Claude project directory for %s", projectPath)
	}
	return dir, nil
}

// Discover returns all session transcripts for a project, sorted
// newest-modified-first.
func Discover(projectPath string) ([]Info, error) {
	dir, err := ProjectDir(projectPath)
	if err != nil {
		return nil, err
	}
	return DiscoverInDir(dir)
}

// DiscoverInDir returns all session transcripts in a directory, sorted
// newest-modified-first. Entries that cannot be stat'ed are skipped.
func DiscoverInDir(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read project directory: %w", err)
	}

	var sessions []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		sessionID := strings.TrimSuffix(name, ".jsonl")
		// Session files are UUID-named; anything else is a stray.
		if _, err := uuid.Parse(sessionID); err != nil {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		sessions = append(sessions, Info{
			SessionID:      sessionID,
			TranscriptPath: filepath.Join(dir, name),
			ModifiedAt:     stat.ModTime().UTC(),
			SizeBytes:      stat.Size(),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModifiedAt.After(sessions[j].ModifiedAt)
	})
	return sessions, nil
}

// Project describes a Claude project directory and its session count.
type Project struct {
	ProjectID    string
	ProjectDir   string
	SessionCount int
}

// FindProjects returns projects whose id contains the filter substring,
// across all of ~/.claude/projects. Unreadable directories are skipped.
func FindProjects(filter string) ([]Project, error) {
	root, err := ProjectsDir()
	if err != nil {
		return nil, err
	}
	return FindProjectsInRoot(root, filter)
}

// FindProjectsInRoot is FindProjects against an explicit projects root.
func FindProjectsInRoot(root, filter string) ([]Project, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	var projects []Project
	for _, entry := range entries {
		if !entry.IsDir() || !strings.Contains(entry.Name(), filter) {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		sessions, err := DiscoverInDir(dir)
		if err != nil {
			continue
		}
		projects = append(projects, Project{
			ProjectID:    entry.Name(),
			ProjectDir:   dir,
			SessionCount: len(sessions),
		})
	}
	return projects, nil
}

// CurrentProjectPath returns the project root for this invocation:
// CLAUDE_PROJECT_DIR when hooks set it, otherwise the working directory.
func CurrentProjectPath() string {
	if dir := os.Getenv("CLAUDE_PROJECT_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
