package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

var riskFactorNames = []string{
	"Procedural Violation",
	"Financial Impact",
	"Evidence Strength",
	"Legal Recourse",
	"Systemic Rot",
}

func riskSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"riskLevel": {Type: genai.TypeString, Enum: []string{"Low", "Medium", "High"}},
			"riskScore": {Type: genai.TypeInteger},
			"summary":   {Type: genai.TypeString},
			"steps":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"lawsApplicable": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"riskFactors": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"factor": {Type: genai.TypeString},
						"score":  {Type: genai.TypeInteger},
					},
				},
			},
			"recommendedChannels": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"agency":  {Type: genai.TypeString},
						"link":    {Type: genai.TypeString},
						"contact": {Type: genai.TypeString},
					},
				},
			},
		},
		Required: []string{"riskLevel", "riskScore", "summary", "steps", "lawsApplicable", "riskFactors", "recommendedChannels"},
	}
}

// fallbackRiskAnalysis is returned whenever the structured audit cannot be
// completed, so callers always have something renderable.
func fallbackRiskAnalysis() types.RiskAnalysis {
	return types.RiskAnalysis{
		RiskLevel:           types.RiskMedium,
		RiskScore:           50,
		Summary:             "Statutory link unstable.",
		Steps:               []string{},
		LawsApplicable:      []string{},
		RiskFactors:         []types.RiskFactor{},
		RecommendedChannels: []types.ReportingChannel{},
	}
}

// AnalyzeCorruptionRisk runs a structured statutory audit over an incident
// description. On any failure it returns the neutral fallback analysis
// together with the error.
func (c *Client) AnalyzeCorruptionRisk(ctx context.Context, incident string) (types.RiskAnalysis, error) {
	prompt := fmt.Sprintf(`Perform a statutory corruption audit for: %q.
Analyze the risk factors carefully and provide a score (0-100) for exactly 5 distinct factors: '%s'.`,
		incident, strings.Join(riskFactorNames, "', '"))

	result, err := c.genai.Models.GenerateContent(ctx, chatModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   riskSchema(),
		},
	)
	if err != nil {
		return fallbackRiskAnalysis(), mapError("risk analysis", err)
	}

	analysis, err := parseRiskAnalysis(result.Text())
	if err != nil {
		return fallbackRiskAnalysis(), err
	}
	return analysis, nil
}

func parseRiskAnalysis(text string) (types.RiskAnalysis, error) {
	var analysis types.RiskAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &analysis); err != nil {
		return types.RiskAnalysis{}, mapError("risk analysis", err)
	}
	return analysis, nil
}
