package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nagrik-ai/nagrik/pkg/core"
	"github.com/nagrik-ai/nagrik/pkg/core/types"
)

func nagrikInstruction(language types.Language) string {
	return fmt.Sprintf(`
Identity: You are 'NagrikAi', an intelligent, empathetic, and highly capable Indian Legal Assistant.

CRITICAL INSTRUCTION - LANGUAGE ENFORCEMENT:
You MUST respond in **%[1]s**.
- Even if the user asks in a different language, reply in %[1]s unless explicitly asked to translate.
- Ensure legal terms are explained simply in %[1]s.

OUTPUT STRUCTURE & VISUALIZATION (MANDATORY):
1. **Structured Layout**:
   - Start with a friendly greeting in %[1]s.
   - Use '### ' for clear section headings.
   - Use bullet points ('- ') for steps or lists.
   - Use '**Bold**' for important laws (e.g., **Section 154 CrPC**).
   - Ensure double newlines between sections for readability.

2. **Clarity**: Break down complex legal sections into simple, digestible steps.
3. **Visual Aids**: When explaining a process (like FIR filing), use a numbered list format that looks like a roadmap.

CORE KNOWLEDGE:
- Indian Penal Code (IPC) / Bharatiya Nyaya Sanhita (BNS)
- Code of Criminal Procedure (CrPC) / Bharatiya Nagarik Suraksha Sanhita (BNSS)
- Consumer Protection Act
- Cyber Crime & IT Act

DISCLAIMER:
Always end with a brief note that you are an AI and this is not professional legal counsel.
`, language)
}

// ChatOptions adjust a single exchange.
type ChatOptions struct {
	// DeepThinking routes the request to the pro model with a thinking
	// budget, trading latency for depth.
	DeepThinking bool

	// Attachment is an optional image sent alongside the message.
	Attachment *types.Attachment

	// OnChunk receives the accumulated reply text plus any grounding
	// sources seen so far after each stream chunk.
	OnChunk func(fullText string, sources []types.GroundingSource)
}

// ChatReply is the final state of a streamed exchange.
type ChatReply struct {
	Text             string
	GroundingSources []types.GroundingSource
}

// CompleteChat streams one assistant reply. The history window keeps only
// the most recent turns; web search grounding is always offered to the
// model and any sources it cites come back on the reply.
func (c *Client) CompleteChat(ctx context.Context, message string, history []types.ChatMessage, language types.Language, opts ChatOptions) (ChatReply, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: nagrikInstruction(language)}},
		},
		Temperature: genai.Ptr(float32(0.7)),
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	model := chatModel
	if opts.DeepThinking {
		model = thinkingModel
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(thinkingBudgetTokens)),
		}
	}

	contents := historyContents(history, historyWindow)
	currentParts := []*genai.Part{{Text: message}}
	if opts.Attachment != nil {
		currentParts = append(currentParts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: opts.Attachment.MIMEType,
				Data:     opts.Attachment.Data,
			},
		})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: currentParts})

	var reply ChatReply
	var full strings.Builder
	iter := c.genai.Models.GenerateContentStream(ctx, model, contents, config)
	for result, err := range iter {
		if err != nil {
			return reply, mapError("chat", err)
		}
		if len(result.Candidates) == 0 {
			continue
		}
		cand := result.Candidates[0]
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					full.WriteString(part.Text)
				}
			}
		}
		if sources := groundingSources(cand); sources != nil {
			reply.GroundingSources = sources
		}
		if opts.OnChunk != nil {
			opts.OnChunk(full.String(), reply.GroundingSources)
		}
	}

	reply.Text = full.String()
	return reply, nil
}

func historyContents(history []types.ChatMessage, window int) []*genai.Content {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return contents
}

func groundingSources(cand *genai.Candidate) []types.GroundingSource {
	if cand.GroundingMetadata == nil || len(cand.GroundingMetadata.GroundingChunks) == 0 {
		return nil
	}
	sources := make([]types.GroundingSource, 0, len(cand.GroundingMetadata.GroundingChunks))
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		source := types.GroundingSource{Title: "Authority Source", URI: "#"}
		if chunk.Web != nil {
			if chunk.Web.Title != "" {
				source.Title = chunk.Web.Title
			}
			if chunk.Web.URI != "" {
				source.URI = chunk.Web.URI
			}
		}
		sources = append(sources, source)
	}
	return sources
}

// SummarizeSession condenses a transcript into the fixed consultation
// summary layout, written in the user's language.
func (c *Client) SummarizeSession(ctx context.Context, messages []types.ChatMessage, language types.Language) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}

	var transcript strings.Builder
	for i, msg := range messages {
		if i > 0 {
			transcript.WriteString("\n---\n")
		}
		transcript.WriteString(strings.ToUpper(string(msg.Role)))
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
	}

	prompt := fmt.Sprintf(`You are an expert legal aide. Summarize the following consultation transcript in %s.

Format the output strictly as follows:
### Consultation Summary
**Core Issue:** [One sentence description]

**Key Advice Given:**
- [Bullet point]
- [Bullet point]

**Recommended Action Items:**
1. [Step 1]
2. [Step 2]

**Relevant Laws:** [List laws mentioned]

Transcript:
%s`, language, transcript.String())

	result, err := c.genai.Models.GenerateContent(ctx, chatModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0.5))},
	)
	if err != nil {
		return "", mapError("summary", err)
	}
	text := result.Text()
	if text == "" {
		return "", core.NewGenericError("summary: empty response", nil)
	}
	return text, nil
}
