package models

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiConfig configures a Gemini-backed chat client.
type GeminiConfig struct {
	APIKey string
	Model  string
	// Per-million-token pricing used to compute Usage.Cost. Zero values
	// leave the cost at 0.
	PromptPricePerMTok     float64
	CompletionPricePerMTok float64
}

// GeminiClient is a ChatClient backed by the Gemini API with Google Search
// grounding enabled, so generations can pull in live web results.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini client requires a model name")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, cfg: cfg}, nil
}

func (c *GeminiClient) TextChat(ctx context.Context, req TextChatRequest) (*TextChatResponse, error) {
	var contents []*genai.Content
	genCfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			// Gemini takes the system instruction out of band.
			genCfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	if len(contents) == 0 {
		return nil, fmt.Errorf("chat request contains no user messages")
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}

	usage := Usage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.Cost = float64(usage.PromptTokens)/1e6*c.cfg.PromptPricePerMTok +
			float64(usage.CompletionTokens)/1e6*c.cfg.CompletionPricePerMTok
	}

	return &TextChatResponse{Text: text, Usage: usage}, nil
}
