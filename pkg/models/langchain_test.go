package models

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

type fakeLLM struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeLLM) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not supported")
}

func messageText(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	if len(msg.Parts) != 1 {
		t.Fatalf("message parts = %d, want 1", len(msg.Parts))
	}
	part, ok := msg.Parts[0].(llms.TextContent)
	if !ok {
		t.Fatalf("part type = %T, want llms.TextContent", msg.Parts[0])
	}
	return part.Text
}

func TestLangChainClientTextChat(t *testing.T) {
	llm := &fakeLLM{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content: "R",
			GenerationInfo: map[string]any{
				"input_tokens":  10,
				"output_tokens": 5,
			},
		}},
	}}
	client := NewLangChainClient(llm)

	resp, err := client.TextChat(context.Background(), TextChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a research assistant."},
			{Role: RoleUser, Content: "Research the following topic: X, focusing on the following question: Y"},
		},
	})
	if err != nil {
		t.Fatalf("TextChat() error = %v", err)
	}

	if len(llm.messages) != 2 {
		t.Fatalf("forwarded messages = %d, want 2", len(llm.messages))
	}
	if llm.messages[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("first message role = %q, want %q", llm.messages[0].Role, llms.ChatMessageTypeSystem)
	}
	if got := messageText(t, llm.messages[0]); got != "You are a research assistant." {
		t.Errorf("system message = %q, want the system content", got)
	}
	if llm.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("second message role = %q, want %q", llm.messages[1].Role, llms.ChatMessageTypeHuman)
	}
	if got := messageText(t, llm.messages[1]); got != "Research the following topic: X, focusing on the following question: Y" {
		t.Errorf("user message = %q, want the user content unchanged", got)
	}

	if resp.Text != "R" {
		t.Errorf("Text = %q, want %q", resp.Text, "R")
	}
	if resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 5 {
		t.Errorf("Usage = %+v, want 10/5", resp.Usage)
	}
}

func TestLangChainClientErrors(t *testing.T) {
	t.Run("Generation failure", func(t *testing.T) {
		client := NewLangChainClient(&fakeLLM{err: errors.New("provider down")})
		if _, err := client.TextChat(context.Background(), TextChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "x"}},
		}); err == nil {
			t.Fatal("TextChat() error = nil, want generation failure")
		}
	})

	t.Run("No choices", func(t *testing.T) {
		client := NewLangChainClient(&fakeLLM{resp: &llms.ContentResponse{}})
		if _, err := client.TextChat(context.Background(), TextChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "x"}},
		}); err == nil {
			t.Fatal("TextChat() error = nil, want no-choices failure")
		}
	})
}

func TestUsageFromGenerationInfo(t *testing.T) {
	tests := []struct {
		name           string
		info           map[string]any
		wantPrompt     int
		wantCompletion int
	}{
		{"Nil info", nil, 0, 0},
		{"Snake case ints", map[string]any{"input_tokens": 10, "output_tokens": 5}, 10, 5},
		{"Camel case keys", map[string]any{"PromptTokens": 7, "CompletionTokens": 3}, 7, 3},
		{"OpenAI style keys", map[string]any{"prompt_tokens": 4, "completion_tokens": 2}, 4, 2},
		{"Float values", map[string]any{"input_tokens": float64(12), "output_tokens": float64(6)}, 12, 6},
		{"Int32 values", map[string]any{"input_tokens": int32(8), "output_tokens": int64(1)}, 8, 1},
		{"Unknown keys", map[string]any{"tokens": 99}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := usageFromGenerationInfo(tt.info)
			if usage.PromptTokens != tt.wantPrompt {
				t.Errorf("PromptTokens = %d, want %d", usage.PromptTokens, tt.wantPrompt)
			}
			if usage.CompletionTokens != tt.wantCompletion {
				t.Errorf("CompletionTokens = %d, want %d", usage.CompletionTokens, tt.wantCompletion)
			}
		})
	}
}
