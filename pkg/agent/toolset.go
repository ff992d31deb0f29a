package agent

import (
	"context"
	"fmt"

	"github.com/mikeboe/research-agent/pkg/research"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// ResearchToolset exposes the research handler as a function tool that an
// agent (or scripting host) can call by name. It is a thin adapter: argument
// mapping only, no research logic.
type ResearchToolset struct {
	handler *research.Handler
}

func NewResearchToolset(handler *research.Handler) *ResearchToolset {
	return &ResearchToolset{handler: handler}
}

func (t *ResearchToolset) Name() string {
	return "research_tools"
}

func (t *ResearchToolset) Tools(ctx agent.ReadonlyContext) ([]tool.Tool, error) {
	researchTool, err := functiontool.New[ResearchArgs, research.Result](
		functiontool.Config{
			Name:        "research",
			Description: "Research a topic using a web-search-capable AI model and return the generated text.",
		},
		t.researchTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create research tool: %w", err)
	}

	return []tool.Tool{researchTool}, nil
}

type ResearchArgs struct {
	Topic  string `json:"topic" description:"The topic to research"`
	Prompt string `json:"prompt" description:"The question to focus the research on"`
}

// Wrapper for ADK tool interface
func (t *ResearchToolset) researchTool(ctx tool.Context, args ResearchArgs) (research.Result, error) {
	return t.Research(ctx, args)
}

// Public method using standard context
func (t *ResearchToolset) Research(ctx context.Context, args ResearchArgs) (research.Result, error) {
	result, err := t.handler.Run(ctx, args.Topic, args.Prompt)
	if err != nil {
		return research.Result{}, err
	}
	return *result, nil
}
