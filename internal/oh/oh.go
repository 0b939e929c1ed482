// Package oh talks to the Open Horizons knowledge-context API: pushing
// distilled candidates and fetching dive packs.
package oh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tacit/wm/internal/state"
)

const defaultAPIURL = "https://app.openhorizons.me"

var httpClient = &http.Client{Timeout: 30 * time.Second}

type createCandidateRequest struct {
	Type       string `json:"type"`
	ContextID  string `json:"context_id"`
	Content    string `json:"content"`
	SourceType string `json:"source_type"`
}

// PushError records one item that failed to push.
type PushError struct {
	Content string
	Message string
}

// PushResult summarizes a candidate push.
type PushResult struct {
	GuardrailsPushed int
	MetisPushed      int
	Errors           []PushError
}

// PushCandidates sends guardrail and metis candidates one at a time.
// Individual failures are collected, not fatal.
func PushCandidates(ctx context.Context, contextID string, guardrails, metis []string) (PushResult, error) {
	apiKey := os.Getenv("OH_API_KEY")
	if apiKey == "" {
		return PushResult{}, errors.New("OH_API_KEY environment variable not set")
	}
	apiURL := os.Getenv("OH_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	state.Log("oh", fmt.Sprintf("Pushing %d guardrails and %d metis to OH context %s",
		len(guardrails), len(metis), contextID))

	var result PushResult
	for _, item := range guardrails {
		candidateID, err := pushSingleCandidate(ctx, apiURL, apiKey, contextID, "guardrail", item)
		if err != nil {
			state.Log("oh", fmt.Sprintf("Failed to push guardrail: %v", err))
			result.Errors = append(result.Errors, PushError{Content: truncateForError(item), Message: err.Error()})
			continue
		}
		state.Log("oh", fmt.Sprintf("Created guardrail candidate: %s", candidateID))
		result.GuardrailsPushed++
	}
	for _, item := range metis {
		candidateID, err := pushSingleCandidate(ctx, apiURL, apiKey, contextID, "metis", item)
		if err != nil {
			state.Log("oh", fmt.Sprintf("Failed to push metis: %v", err))
			result.Errors = append(result.Errors, PushError{Content: truncateForError(item), Message: err.Error()})
			continue
		}
		state.Log("oh", fmt.Sprintf("Created metis candidate: %s", candidateID))
		result.MetisPushed++
	}
	return result, nil
}

func pushSingleCandidate(ctx context.Context, apiURL, apiKey, contextID, candidateType, content string) (string, error) {
	url := strings.TrimRight(apiURL, "/") + "/api/candidates"

	body, err := json.Marshal(createCandidateRequest{
		Type:       candidateType,
		ContextID:  contextID,
		Content:    content,
		SourceType: "wm_distill",
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d - %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	candidateID := gjson.GetBytes(respBody, "candidate_id")
	if !candidateID.Exists() {
		return "", errors.New("response missing candidate_id")
	}
	return candidateID.String(), nil
}

// truncateForError shortens item content for error reporting, cutting
// at a character boundary.
func truncateForError(content string) string {
	runes := []rune(content)
	if len(runes) <= 50 {
		return content
	}
	return string(runes[:50]) + "..."
}

// apiCredentials resolves the OH endpoint and key: environment first,
// then ~/.config/openhorizons/config.json.
func apiCredentials() (apiURL, apiKey string, err error) {
	apiURL = os.Getenv("OH_API_URL")
	if apiURL == "" {
		apiURL, _ = loadConfigValue("api_url")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	apiKey = os.Getenv("OH_API_KEY")
	if apiKey == "" {
		apiKey, _ = loadConfigValue("api_key")
	}
	if apiKey == "" {
		return "", "", errors.New("OH API key not found; set OH_API_KEY or configure ~/.config/openhorizons/config.json")
	}
	return apiURL, apiKey, nil
}

func loadConfigValue(key string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(home, ".config", "openhorizons", "config.json"))
	if err != nil {
		return "", err
	}
	value := gjson.GetBytes(data, key)
	if !value.Exists() || value.Type != gjson.String {
		return "", fmt.Errorf("key %q not found in config", key)
	}
	return value.String(), nil
}
