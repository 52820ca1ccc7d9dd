package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

const newsPrompt = "Find 6 recent news headlines (last 7 days) about Corruption crackdowns, Cybercrime alerts, or Major Supreme Court verdicts in India. Return ONLY a JSON list."

func newsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":    {Type: genai.TypeString},
				"source":   {Type: genai.TypeString},
				"date":     {Type: genai.TypeString},
				"snippet":  {Type: genai.TypeString},
				"link":     {Type: genai.TypeString},
				"category": {Type: genai.TypeString, Enum: []string{"Corruption", "Cybercrime", "Legal"}},
			},
		},
	}
}

// FetchLegalNews pulls current legal headlines through search grounding.
// Failures return an empty list alongside the error so the caller can
// render a quiet "no news" state.
func (c *Client) FetchLegalNews(ctx context.Context) ([]types.NewsItem, error) {
	result, err := c.genai.Models.GenerateContent(ctx, chatModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: newsPrompt}}}},
		&genai.GenerateContentConfig{
			Tools:            []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
			ResponseMIMEType: "application/json",
			ResponseSchema:   newsSchema(),
		},
	)
	if err != nil {
		return []types.NewsItem{}, mapError("news", err)
	}

	items, err := parseNewsItems(result.Text())
	if err != nil {
		return []types.NewsItem{}, err
	}
	return items, nil
}

func parseNewsItems(text string) ([]types.NewsItem, error) {
	var items []types.NewsItem
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &items); err != nil {
		return nil, mapError("news", err)
	}
	return items, nil
}
