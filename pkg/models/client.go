package models

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single entry in a chat payload.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TextChatRequest is a plain text chat request: an ordered message list,
// no streaming, no tool results fed back in.
type TextChatRequest struct {
	Messages []Message
}

// Usage reports token accounting for a single generation.
type Usage struct {
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
	Cost             float64 `json:"cost"`
}

// TextChatResponse carries the generated text plus usage metadata.
type TextChatResponse struct {
	Text  string
	Usage Usage
}

// ChatClient is a chat-capable model client. Implementations own connection
// pooling, provider auth and any provider-side tooling (e.g. web search).
type ChatClient interface {
	TextChat(ctx context.Context, req TextChatRequest) (*TextChatResponse, error)
}
