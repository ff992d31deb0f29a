package agent

import (
	"context"
	"fmt"

	"github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/research"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"
)

// New builds an ADK agent with the research tool registered, so the research
// capability is reachable from an agent conversation.
func New(ctx context.Context, cfg *config.Config, handler *research.Handler) (adkagent.Agent, error) {
	modelClient, err := gemini.NewModel(ctx, cfg.AgentModel, &genai.ClientConfig{
		APIKey: cfg.GoogleApiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	researchAgent, err := llmagent.New(llmagent.Config{
		Name:        "research_agent",
		Model:       modelClient,
		Description: "An assistant that can research topics using a web-search-capable model.",
		Instruction: "You are a helpful assistant. When the user asks you to research a topic, call the research tool with the topic and the question to focus on, then present the returned research to the user.",
		Toolsets: []tool.Toolset{
			NewResearchToolset(handler),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return researchAgent, nil
}
