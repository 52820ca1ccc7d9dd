// Package gemini is the remote assistant gateway. It wraps the Gemini API
// for chat, summaries, risk analysis, news, one-shot speech synthesis, and
// the live bidirectional voice channel.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nagrik-ai/nagrik/pkg/core"
)

const (
	chatModel     = "gemini-3-flash-preview"
	thinkingModel = "gemini-3-pro-preview"
	ttsModel      = "gemini-2.5-flash-preview-tts"
	liveModel     = "gemini-2.5-flash-native-audio-preview-12-2025"

	thinkingBudgetTokens = 10000
	historyWindow        = 10
)

// Config holds gateway credentials and overrides.
type Config struct {
	APIKey string

	// Debug enables wire-level logging on the live channel.
	Debug bool
}

// Client talks to the Gemini API. A zero client is not usable; construct
// it with NewClient.
type Client struct {
	genai  *genai.Client
	apiKey string
	debug  bool
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, core.NewAuthenticationError("missing API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.NewRemoteUnavailableError("cannot create Gemini client", err)
	}
	return &Client{genai: client, apiKey: cfg.APIKey, debug: cfg.Debug}, nil
}

// mapError classifies an API failure. Authentication problems are the set
// the user can fix by supplying a new key; transient faults are marked
// retryable; everything else stays generic.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "403", "404", "PERMISSION_DENIED", "NOT_FOUND", "API key not valid", "API_KEY_INVALID", "401", "UNAUTHENTICATED"):
		return core.NewAuthenticationError(fmt.Sprintf("%s: credential rejected", op))
	case containsAny(msg, "429", "RESOURCE_EXHAUSTED", "500", "503", "UNAVAILABLE", "DEADLINE_EXCEEDED", "connection refused", "connection reset", "no such host", "timeout"):
		return core.NewRemoteUnavailableError(fmt.Sprintf("%s failed", op), err)
	default:
		return core.NewGenericError(fmt.Sprintf("%s failed", op), err)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
