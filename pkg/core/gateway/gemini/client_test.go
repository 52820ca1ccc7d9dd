package gemini

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected core.ErrorKind
	}{
		{"nil passes through", nil, ""},
		{"403 is auth", errors.New("googleapi: Error 403: The caller does not have permission"), core.ErrAuthentication},
		{"404 is auth", errors.New("Error 404: model not found"), core.ErrAuthentication},
		{"permission denied is auth", errors.New("rpc error: PERMISSION_DENIED"), core.ErrAuthentication},
		{"not found is auth", errors.New("NOT_FOUND: no such model"), core.ErrAuthentication},
		{"invalid key is auth", errors.New("API key not valid. Please pass a valid API key."), core.ErrAuthentication},
		{"429 is retryable", errors.New("Error 429: quota"), core.ErrRemoteUnavailable},
		{"503 is retryable", errors.New("Error 503: UNAVAILABLE"), core.ErrRemoteUnavailable},
		{"network fault is retryable", errors.New("dial tcp: connection refused"), core.ErrRemoteUnavailable},
		{"anything else is generic", errors.New("unexpected shape"), core.ErrGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError("test", tt.err)
			if tt.err == nil {
				if mapped != nil {
					t.Errorf("expected nil, got %v", mapped)
				}
				return
			}
			if got := core.KindOf(mapped); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestRetryableClassification(t *testing.T) {
	transient := mapError("op", errors.New("Error 503: UNAVAILABLE"))
	var coreErr *core.Error
	if !errors.As(transient, &coreErr) || !coreErr.IsRetryable() {
		t.Error("remote faults must be retryable")
	}

	auth := mapError("op", errors.New("PERMISSION_DENIED"))
	if errors.As(auth, &coreErr) && coreErr.IsRetryable() {
		t.Error("auth faults must not be retryable")
	}
}

func TestNagrikInstructionEnforcesLanguage(t *testing.T) {
	for _, lang := range []types.Language{types.LangEnglish, types.LangHindi, types.LangTamil} {
		instruction := nagrikInstruction(lang)
		if !strings.Contains(instruction, fmt.Sprintf("**%s**", lang)) {
			t.Errorf("instruction must name %s", lang)
		}
		if !strings.Contains(instruction, "NagrikAi") {
			t.Error("instruction must carry the assistant identity")
		}
	}
}

func TestHistoryContentsWindowAndRoles(t *testing.T) {
	var history []types.ChatMessage
	for i := 0; i < 15; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		history = append(history, types.ChatMessage{Role: role, Content: fmt.Sprintf("msg %d", i)})
	}

	contents := historyContents(history, historyWindow)
	if len(contents) != historyWindow {
		t.Fatalf("expected %d turns, got %d", historyWindow, len(contents))
	}
	// The window keeps the most recent turns.
	if contents[len(contents)-1].Parts[0].Text != "msg 14" {
		t.Errorf("expected newest message last, got %q", contents[len(contents)-1].Parts[0].Text)
	}
	if contents[0].Parts[0].Text != "msg 5" {
		t.Errorf("expected window to start at msg 5, got %q", contents[0].Parts[0].Text)
	}
	// Assistant turns map to the model role on the wire.
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Errorf("unexpected roles %q, %q", contents[0].Role, contents[1].Role)
	}
}

func TestParseRiskAnalysis(t *testing.T) {
	payload := `{
		"riskLevel": "High",
		"riskScore": 82,
		"summary": "Strong indicators of procedural abuse.",
		"steps": ["Collect the demand in writing"],
		"lawsApplicable": ["Prevention of Corruption Act"],
		"riskFactors": [{"factor": "Procedural Violation", "score": 90}],
		"recommendedChannels": [{"agency": "Lokayukta", "link": "https://example.gov", "contact": "1064"}]
	}`

	analysis, err := parseRiskAnalysis(payload)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if analysis.RiskLevel != types.RiskHigh || analysis.RiskScore != 82 {
		t.Errorf("unexpected level/score: %s/%d", analysis.RiskLevel, analysis.RiskScore)
	}
	if len(analysis.RiskFactors) != 1 || analysis.RiskFactors[0].Score != 90 {
		t.Errorf("unexpected factors: %+v", analysis.RiskFactors)
	}
	if len(analysis.RecommendedChannels) != 1 || analysis.RecommendedChannels[0].Contact != "1064" {
		t.Errorf("unexpected channels: %+v", analysis.RecommendedChannels)
	}
}

func TestParseRiskAnalysisRejectsGarbage(t *testing.T) {
	if _, err := parseRiskAnalysis("I cannot answer that"); err == nil {
		t.Error("expected parse error")
	}
}

func TestFallbackRiskAnalysis(t *testing.T) {
	fallback := fallbackRiskAnalysis()
	if fallback.RiskLevel != types.RiskMedium || fallback.RiskScore != 50 {
		t.Errorf("unexpected fallback level/score: %s/%d", fallback.RiskLevel, fallback.RiskScore)
	}
	if fallback.Summary != "Statutory link unstable." {
		t.Errorf("unexpected fallback summary %q", fallback.Summary)
	}
	if fallback.Steps == nil || fallback.RiskFactors == nil {
		t.Error("fallback slices must be non-nil for rendering")
	}
}

func TestParseNewsItems(t *testing.T) {
	payload := `[
		{"title": "Court upholds verdict", "source": "The Hindu", "date": "2026-08-30",
		 "snippet": "...", "link": "https://example.com", "category": "Legal"}
	]`

	items, err := parseNewsItems(payload)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 || items[0].Category != types.NewsLegal {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestParseNewsItemsRejectsGarbage(t *testing.T) {
	if _, err := parseNewsItems("no headlines today"); err == nil {
		t.Error("expected parse error")
	}
}

func TestRiskSchemaShape(t *testing.T) {
	schema := riskSchema()
	if len(schema.Required) != 7 {
		t.Errorf("expected 7 required fields, got %d", len(schema.Required))
	}
	for _, field := range schema.Required {
		if _, ok := schema.Properties[field]; !ok {
			t.Errorf("required field %q missing from properties", field)
		}
	}
}
