package research

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
)

// Artifact is a named, typed output blob produced by a research run.
type Artifact struct {
	Name     string `json:"name"`
	Encoding string `json:"encoding"`
	MimeType string `json:"mimeType"`
	Body     []byte `json:"body"`
}

// MessageSink receives progress/status messages. Messages are observability
// only; a sink failure must not fail the run.
type MessageSink interface {
	Info(msg string)
}

// ArtifactSink persists generated artifacts.
type ArtifactSink interface {
	Store(ctx context.Context, artifact Artifact) error
}

type NopMessageSink struct{}

func (NopMessageSink) Info(string) {}

type NopArtifactSink struct{}

func (NopArtifactSink) Store(context.Context, Artifact) error { return nil }

// SlogMessageSink writes status messages to a structured logger.
type SlogMessageSink struct {
	Logger *slog.Logger
}

func (s SlogMessageSink) Info(msg string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(msg)
}

// FileArtifactStore writes artifacts as files under Dir.
type FileArtifactStore struct {
	Dir string
}

func (s FileArtifactStore) Store(_ context.Context, artifact Artifact) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return os.WriteFile(filepath.Join(dir, artifact.Name), artifact.Body, 0644)
}
