package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

// SynthesizeSpeech renders text as raw 16-bit mono PCM at 24kHz. An empty
// result with a nil error means the model declined to produce audio; the
// caller treats that as an instantly finished clip.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string, voice types.VoiceProfile) ([]byte, error) {
	if !voice.Valid() {
		voice = types.DefaultVoice
	}

	result, err := c.genai.Models.GenerateContent(ctx, ttsModel,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
						VoiceName: string(voice),
					},
				},
			},
		},
	)
	if err != nil {
		return nil, mapError("speech synthesis", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, nil
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, nil
}
