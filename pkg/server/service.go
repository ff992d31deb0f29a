package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/research"
)

type Service struct {
	DB       *database.PostgresDB
	Cfg      research.Config
	Registry research.ModelRegistry
}

func NewService(db *database.PostgresDB, cfg research.Config, registry research.ModelRegistry) *Service {
	return &Service{
		DB:       db,
		Cfg:      cfg,
		Registry: registry,
	}
}

type Run struct {
	ID        uuid.UUID `json:"id"`
	Topic     string    `json:"topic"`
	Prompt    string    `json:"prompt"`
	Status    string    `json:"status"`
	Research  *string   `json:"research,omitempty"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRunRequest struct {
	Topic  string `json:"topic"`
	Prompt string `json:"prompt"`
}

func (s *Service) CreateRun(ctx context.Context, req CreateRunRequest) (*Run, error) {
	if req.Topic == "" {
		return nil, research.ErrMissingTopic
	}
	if req.Prompt == "" {
		return nil, research.ErrMissingPrompt
	}

	runID := uuid.New()
	query := `
		INSERT INTO research_runs (id, topic, prompt, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, topic, prompt, status, created_at, updated_at
	`

	run := &Run{}
	err := s.DB.Pool.QueryRow(ctx, query, runID, req.Topic, req.Prompt).Scan(
		&run.ID, &run.Topic, &run.Prompt, &run.Status, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	// Start background worker
	go s.runWorker(run.ID, req.Topic, req.Prompt)

	return run, nil
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, topic, prompt, status, research, error, created_at, updated_at
		FROM research_runs
		WHERE id = $1
	`
	run := &Run{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Topic, &run.Prompt, &run.Status, &run.Research, &run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *Service) ListRuns(ctx context.Context) ([]Run, error) {
	query := `
		SELECT id, topic, prompt, status, research, error, created_at, updated_at
		FROM research_runs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Topic, &run.Prompt, &run.Status, &run.Research, &run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetRunLogs(ctx context.Context, runID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE run_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

type ArtifactRecord struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Name      string    `json:"name"`
	Encoding  string    `json:"encoding"`
	MimeType  string    `json:"mime_type"`
	Body      []byte    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) GetRunArtifacts(ctx context.Context, runID uuid.UUID) ([]ArtifactRecord, error) {
	query := `
		SELECT id, run_id, name, encoding, mime_type, body, created_at
		FROM research_artifacts
		WHERE run_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		if err := rows.Scan(&a.ID, &a.RunID, &a.Name, &a.Encoding, &a.MimeType, &a.Body, &a.CreatedAt); err != nil {
			continue
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

func (s *Service) runWorker(runID uuid.UUID, topic, prompt string) {
	ctx := context.Background()

	// Update status to running
	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_runs SET status = 'running', updated_at = NOW() WHERE id = $1", runID)

	// Route handler logs, status messages and artifacts to the run row
	dbLogger := slog.New(NewDBLogHandler(s.DB, runID))

	handler, err := research.New(s.Cfg, s.Registry,
		research.WithLogger(dbLogger),
		research.WithMessageSink(&DBMessageSink{DB: s.DB, RunID: runID}),
		research.WithArtifactSink(&DBArtifactStore{DB: s.DB, RunID: runID}),
	)
	if err != nil {
		s.failRun(ctx, runID, fmt.Sprintf("Failed to init handler: %v", err))
		return
	}

	result, err := handler.Run(ctx, topic, prompt)
	if err != nil {
		// Inputs were validated at submit time, so this is unexpected.
		s.failRun(ctx, runID, fmt.Sprintf("Research failed: %v", err))
		return
	}

	if result.Status == research.StatusError {
		_, _ = s.DB.Pool.Exec(ctx,
			"UPDATE research_runs SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1",
			runID, result.Error)
		return
	}

	_, err = s.DB.Pool.Exec(ctx,
		"UPDATE research_runs SET status = 'completed', research = $2, updated_at = NOW() WHERE id = $1",
		runID, result.Research)
	if err != nil {
		dbLogger.Error("Failed to save research text to DB", "error", err)
	}
}

func (s *Service) failRun(ctx context.Context, runID uuid.UUID, reason string) {
	// Log the failure
	dbLogger := slog.New(NewDBLogHandler(s.DB, runID))
	dbLogger.Error(reason)

	// Update status
	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_runs SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1", runID, reason)
}
