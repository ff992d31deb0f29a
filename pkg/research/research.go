package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikeboe/research-agent/pkg/models"
)

// Validation errors. These are returned directly from Run, before any model
// call is made; model-side failures are reported through the Result instead.
var (
	ErrMissingTopic  = errors.New("topic is required")
	ErrMissingPrompt = errors.New("prompt is required")
	ErrMissingModel  = errors.New("research model is not configured")
)

const systemPrompt = `You are a research assistant with access to live web search.
Research the requested topic thoroughly, stick to verifiable facts and cite your sources.`

const userPromptTemplate = "Research the following topic: %s, focusing on the following question: %s"

// Config holds the handler configuration. ResearchModel names a
// web-search-capable model known to the registry; it is set once at startup.
type Config struct {
	ResearchModel string
}

func (c Config) Validate() error {
	if c.ResearchModel == "" {
		return ErrMissingModel
	}
	return nil
}

// Result statuses.
const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Result is the outcome of a single research request. Status is either
// "completed" (Research holds the generated text) or "error" (Error holds
// the failure message).
type Result struct {
	Status   string `json:"status"`
	Topic    string `json:"topic"`
	Research string `json:"research,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message"`
}

// ModelRegistry resolves a model identifier to a live chat client.
type ModelRegistry interface {
	GetClient(model string) (models.ChatClient, error)
}

// Handler shapes a research request for the configured model and maps the
// response back into a Result. It holds no mutable state; concurrent calls
// are independent.
type Handler struct {
	cfg       Config
	registry  ModelRegistry
	messages  MessageSink
	artifacts ArtifactSink
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures optional handler collaborators.
type Option func(*Handler)

// WithMessageSink routes status messages to sink.
func WithMessageSink(sink MessageSink) Option {
	return func(h *Handler) { h.messages = sink }
}

// WithArtifactSink persists the generated research through sink.
func WithArtifactSink(sink ArtifactSink) Option {
	return func(h *Handler) { h.artifacts = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func New(cfg Config, registry ModelRegistry, opts ...Option) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, fmt.Errorf("model registry is required")
	}

	h := &Handler{
		cfg:       cfg,
		registry:  registry,
		messages:  NopMessageSink{},
		artifacts: NopArtifactSink{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Run validates the inputs, dispatches a single chat request to the
// configured model and returns the outcome.
//
// Missing inputs fail with an error before anything is sent. Model lookup
// and generation failures never surface as errors: they are caught and
// returned as a Result with status "error", since callers expect a result
// object for model-level failures. No retries, no fallback model.
func (h *Handler) Run(ctx context.Context, topic, prompt string) (*Result, error) {
	if topic == "" {
		return nil, ErrMissingTopic
	}
	if prompt == "" {
		return nil, ErrMissingPrompt
	}

	h.messages.Info(fmt.Sprintf("Starting research for topic: %s", topic))
	h.logger.Info("Starting research", "topic", topic, "model", h.cfg.ResearchModel)

	client, err := h.registry.GetClient(h.cfg.ResearchModel)
	if err != nil {
		h.logger.Error("Model lookup failed", "model", h.cfg.ResearchModel, "error", err)
		return h.errorResult(topic, err), nil
	}

	resp, err := client.TextChat(ctx, models.TextChatRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: systemPrompt},
			{Role: models.RoleUser, Content: fmt.Sprintf(userPromptTemplate, topic, prompt)},
		},
	})
	if err != nil {
		h.logger.Error("Research generation failed", "topic", topic, "error", err)
		return h.errorResult(topic, err), nil
	}

	h.messages.Info(fmt.Sprintf("Research completed for topic: %s", topic))
	h.logger.Info("Research completed", "topic", topic,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"cost", resp.Usage.Cost)

	artifact := Artifact{
		Name:     fmt.Sprintf("research_%d.md", h.now().Unix()),
		Encoding: "utf-8",
		MimeType: "text/markdown",
		Body:     []byte(resp.Text),
	}
	if err := h.artifacts.Store(ctx, artifact); err != nil {
		// The result still carries the full text, so a failed save is not fatal.
		h.logger.Warn("Failed to store research artifact", "name", artifact.Name, "error", err)
	}

	return &Result{
		Status:   StatusCompleted,
		Topic:    topic,
		Research: resp.Text,
		Message:  fmt.Sprintf("Research completed successfully for topic: %s", topic),
	}, nil
}

func (h *Handler) errorResult(topic string, err error) *Result {
	return &Result{
		Status:  StatusError,
		Topic:   topic,
		Error:   err.Error(),
		Message: fmt.Sprintf("Failed to generate research for topic: %s", topic),
	}
}
