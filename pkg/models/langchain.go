package models

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// LangChainClient adapts a langchaingo llms.Model to the ChatClient interface.
// Useful for providers without native search grounding; the response is a
// plain completion.
type LangChainClient struct {
	model llms.Model
}

func NewLangChainClient(model llms.Model) *LangChainClient {
	return &LangChainClient{model: model}
}

// NewGoogleAIClient builds a LangChainClient on the langchaingo Google AI
// provider.
func NewGoogleAIClient(ctx context.Context, modelName, apiKey string) (*LangChainClient, error) {
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(modelName))
	if err != nil {
		return nil, fmt.Errorf("failed to init Google AI client: %w", err)
	}
	return NewLangChainClient(llm), nil
}

func (c *LangChainClient) TextChat(ctx context.Context, req TextChatRequest) (*TextChatResponse, error) {
	var prompts []llms.MessageContent
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			prompts = append(prompts, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		default:
			prompts = append(prompts, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		}
	}

	resp, err := c.model.GenerateContent(ctx, prompts)
	if err != nil {
		return nil, fmt.Errorf("llm generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	choice := resp.Choices[0]
	return &TextChatResponse{
		Text:  choice.Content,
		Usage: usageFromGenerationInfo(choice.GenerationInfo),
	}, nil
}

// usageFromGenerationInfo extracts token counts from the provider-specific
// generation info map. Providers disagree on key names, so all known
// spellings are checked.
func usageFromGenerationInfo(info map[string]any) Usage {
	usage := Usage{}
	usage.PromptTokens = intFromInfo(info, "input_tokens", "PromptTokens", "prompt_tokens")
	usage.CompletionTokens = intFromInfo(info, "output_tokens", "CompletionTokens", "completion_tokens")
	return usage
}

func intFromInfo(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
