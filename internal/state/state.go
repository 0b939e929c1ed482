// Package state manages the .wm/ directory: the knowledge document,
// per-session extraction checkpoints, compiled working sets, the hook
// log, and project configuration.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	wmDirName      = ".wm"
	stateFile      = "state.md"
	workingSetFile = "working_set.md"
	hookLogFile    = "hook.log"
)

// Dir returns the .wm directory for the current project. Hooks set
// CLAUDE_PROJECT_DIR; interactive runs use the working directory.
func Dir() string {
	if projectDir := os.Getenv("CLAUDE_PROJECT_DIR"); projectDir != "" {
		return filepath.Join(projectDir, wmDirName)
	}
	return wmDirName
}

// Path returns the path of a file inside .wm/.
func Path(name string) string {
	return filepath.Join(Dir(), name)
}

// IsInitialized reports whether .wm/ exists for the current project.
func IsInitialized() bool {
	_, err := os.Stat(Dir())
	return err == nil
}

// Init creates .wm/ and a default config file. Safe to call twice.
func Init() error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", wmDirName, err)
	}
	cfgPath := Path(configFile)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := WriteConfig(DefaultConfig()); err != nil {
			return err
		}
	}
	for _, name := range []string{stateFile, workingSetFile} {
		if _, err := os.Stat(Path(name)); os.IsNotExist(err) {
			if err := WriteFileAtomic(Path(name), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Log appends a line to .wm/hook.log. Errors are ignored: logging never
// fails the operation it describes.
func Log(context, message string) {
	line := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), context, message)
	f, err := os.OpenFile(Path(hookLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line)
}

// ReadState returns the knowledge document, or "" when it doesn't exist.
func ReadState() string {
	data, err := os.ReadFile(Path(stateFile))
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteState atomically replaces the knowledge document. Concurrent
// writers race with last-writer-wins, but a reader never sees a partial
// write.
func WriteState(content string) error {
	return WriteFileAtomic(Path(stateFile), []byte(content))
}

// StatePath returns the knowledge document path.
func StatePath() string { return Path(stateFile) }

// ReadWorkingSet returns the compiled working set, or an error when it
// has not been compiled.
func ReadWorkingSet() (string, error) {
	data, err := os.ReadFile(Path(workingSetFile))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteWorkingSet atomically replaces the global working set.
func WriteWorkingSet(content string) error {
	return WriteFileAtomic(Path(workingSetFile), []byte(content))
}

// SessionDir returns the per-session state directory.
func SessionDir(sessionID string) string {
	return Path(filepath.Join("sessions", sessionID))
}

// WriteWorkingSetForSession writes the working set under the session's
// own directory. Per-session paths keep concurrent compiles from
// contending on one file.
func WriteWorkingSetForSession(sessionID, content string) error {
	dir := SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return WriteFileAtomic(filepath.Join(dir, workingSetFile), []byte(content))
}

// WriteFileAtomic writes data to a uniquely-named temporary file in the
// target's directory, then renames it into place. A crash mid-write
// never leaves a half-written file visible, and concurrent writers each
// get their own temp file, so the rename target is always a complete
// document (last writer wins).
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
