package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	agentpkg "github.com/mikeboe/research-agent/pkg/agent"
	appconfig "github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/models"
	"github.com/mikeboe/research-agent/pkg/research"
	"github.com/spf13/cobra"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

var (
	topic  string
	prompt string
)

func newResearchHandler(ctx context.Context, cfg *appconfig.Config) (*research.Handler, error) {
	registry := models.NewRegistry()
	geminiClient, err := models.NewGeminiClient(ctx, models.GeminiConfig{
		APIKey: cfg.GoogleApiKey,
		Model:  cfg.ResearchModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	registry.Register(cfg.ResearchModel, geminiClient)

	return research.New(
		research.Config{ResearchModel: cfg.ResearchModel},
		registry,
		research.WithMessageSink(research.SlogMessageSink{}),
		research.WithArtifactSink(research.FileArtifactStore{Dir: cfg.ArtifactDir}),
	)
}

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}

	cfg := appconfig.Load()

	rootCmd := &cobra.Command{
		Use:   "research-agent",
		Short: "Research a topic with a web-search-capable AI model",
		Long:  `research-agent sends a single research request to the configured model and prints the generated text. The research is also saved as a markdown document.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Check if topic provided via flags
			topicFlagChanged := cmd.Flags().Changed("topic")

			if !topicFlagChanged {
				// Interactive Mode
				reader := bufio.NewReader(os.Stdin)

				fmt.Print("Enter research topic: ")
				input, _ := reader.ReadString('\n')
				topic = strings.TrimSpace(input)
				if topic == "" {
					slog.Error("Topic cannot be empty")
					os.Exit(1)
				}

				fmt.Print("Enter research question: ")
				input, _ = reader.ReadString('\n')
				prompt = strings.TrimSpace(input)
				if prompt == "" {
					slog.Error("Research question cannot be empty")
					os.Exit(1)
				}
			} else {
				// Non-Interactive Mode (Flag provided)
				if topic == "" {
					slog.Error("--topic flag provided but empty")
					os.Exit(1)
				}
				if prompt == "" {
					slog.Error("--prompt flag is required")
					os.Exit(1)
				}
			}

			ctx := context.Background()

			researcher, err := newResearchHandler(ctx, cfg)
			if err != nil {
				slog.Error("Failed to init research handler", "error", err)
				os.Exit(1)
			}

			result, err := researcher.Run(ctx, topic, prompt)
			if err != nil {
				slog.Error("Invalid research request", "error", err)
				os.Exit(1)
			}

			// The CLI surface propagates model failures instead of printing
			// the error result.
			if result.Status == research.StatusError {
				slog.Error("Research failed", "topic", result.Topic, "error", result.Error)
				os.Exit(1)
			}

			fmt.Println(result.Research)
		},
	}

	rootCmd.Flags().StringVarP(&topic, "topic", "t", "", "The research topic")
	rootCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "The question to focus the research on")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an agent that can call the research tool",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			researcher, err := newResearchHandler(ctx, cfg)
			if err != nil {
				slog.Error("Failed to init research handler", "error", err)
				os.Exit(1)
			}

			researchAgent, err := agentpkg.New(ctx, cfg, researcher)
			if err != nil {
				slog.Error("Failed to init agent", "error", err)
				os.Exit(1)
			}

			sessionSvc := session.InMemoryService()
			appName := "research-agent"
			userID := "user"
			sessionID := uuid.NewString()

			if _, err := sessionSvc.Create(ctx, &session.CreateRequest{
				AppName:   appName,
				UserID:    userID,
				SessionID: sessionID,
			}); err != nil {
				slog.Error("Failed to create session", "error", err)
				os.Exit(1)
			}

			r, err := runner.New(runner.Config{
				AppName:        appName,
				Agent:          researchAgent,
				SessionService: sessionSvc,
			})
			if err != nil {
				slog.Error("Failed to create runner", "error", err)
				os.Exit(1)
			}

			reader := bufio.NewReader(os.Stdin)
			fmt.Println("Type a message, or 'exit' to quit.")
			for {
				fmt.Print("> ")
				line, err := reader.ReadString('\n')
				if err != nil {
					break
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" {
					break
				}

				userContent := &genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: line}},
				}

				runCfg := adkagent.RunConfig{
					StreamingMode: adkagent.StreamingModeSSE,
				}

				next := r.Run(ctx, userID, sessionID, userContent, runCfg)
				for event, err := range next {
					if err != nil {
						slog.Error("Agent runner error", "error", err)
						break
					}
					if event.LLMResponse.Content == nil {
						continue
					}
					for _, part := range event.LLMResponse.Content.Parts {
						if part.Text != "" {
							fmt.Print(part.Text)
						}
						if part.FunctionCall != nil {
							slog.Info("Agent tool call", "tool", part.FunctionCall.Name)
						}
					}
				}
				fmt.Println()
			}
		},
	}
	rootCmd.AddCommand(chatCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
