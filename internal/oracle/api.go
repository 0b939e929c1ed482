package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultModel is used when the config names none.
const defaultModel = "claude-3-5-haiku-latest"

// APIConfig tunes the Anthropic API backend.
type APIConfig struct {
	Model     string
	MaxTokens int

	// Retry settings. Zero values take the defaults below.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// APIKey overrides ANTHROPIC_API_KEY.
	APIKey string
}

// APIOracle calls the Anthropic API directly, with retry and
// exponential backoff on transient failures.
type APIOracle struct {
	cfg    APIConfig
	client anthropic.Client
}

// NewAPIOracle builds the API backend. The key comes from config or the
// ANTHROPIC_API_KEY environment variable.
func NewAPIOracle(cfg APIConfig) (*APIOracle, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("oracle: no API key: set ANTHROPIC_API_KEY or use the cli backend")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Second
	}
	return &APIOracle{
		cfg:    cfg,
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Complete sends one request, retrying transient failures.
func (o *APIOracle) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := o.cfg.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := o.doRequest(ctx, systemPrompt, userMessage)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("oracle: max retries exceeded: %w", lastErr)
}

func (o *APIOracle) doRequest(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	model := o.cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := o.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("oracle request: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// isRetryable reports whether an API error is worth retrying: rate
// limits, server errors and timeouts.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"rate_limit", "429", "500", "502", "503", "504", "timeout", "deadline"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
