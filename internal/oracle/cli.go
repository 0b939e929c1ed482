package oracle

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/tidwall/gjson"

	"github.com/tacit/wm/internal/state"
)

// DisableEnv short-circuits the whole tool when set. It doubles as the
// recursion guard: the CLI backend sets it around the subprocess so the
// invoked assistant cannot trigger a nested extraction.
const DisableEnv = "WM_DISABLED"

// CLIOracle invokes the claude CLI as a subprocess and decodes its JSON
// wrapper.
type CLIOracle struct {
	// Binary overrides the executable name, for tests.
	Binary string
}

// Complete runs one CLI call. A non-zero exit or a response without a
// result field is an error.
func (o *CLIOracle) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	guard := setEnvGuard(DisableEnv, "1")
	defer guard.Release()

	state.Log("oracle", fmt.Sprintf("Calling claude CLI (message: %d bytes)", len(userMessage)))

	binary := o.Binary
	if binary == "" {
		binary = "claude"
	}
	cmd := exec.CommandContext(ctx, binary,
		"-p",
		"--output-format", "json",
		"--no-session-persistence",
		"--system-prompt", systemPrompt,
		userMessage,
	)
	cmd.Stdin = nil

	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("claude CLI failed (exit %d): %s", exitErr.ExitCode(), string(exitErr.Stderr))
		}
		return "", fmt.Errorf("spawn claude CLI: %w", err)
	}

	if !gjson.ValidBytes(out) {
		return "", fmt.Errorf("parse claude CLI response: not valid JSON")
	}
	result := gjson.GetBytes(out, "result")
	if !result.Exists() || result.Type != gjson.String {
		return "", fmt.Errorf("claude CLI response missing 'result' field")
	}
	return result.String(), nil
}

// envGuard restores an environment variable on Release, including on
// early error returns. It preserves any value that was already set.
type envGuard struct {
	key      string
	original string
	wasSet   bool
}

func setEnvGuard(key, value string) *envGuard {
	original, wasSet := os.LookupEnv(key)
	os.Setenv(key, value)
	return &envGuard{key: key, original: original, wasSet: wasSet}
}

// Release puts the variable back the way it was.
func (g *envGuard) Release() {
	if g.wasSet {
		os.Setenv(g.key, g.original)
	} else {
		os.Unsetenv(g.key)
	}
}
