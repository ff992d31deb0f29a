package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mikeboe/research-agent/pkg/database"
	"github.com/mikeboe/research-agent/pkg/research"
)

// DBMessageSink records status messages as log entries on the run.
type DBMessageSink struct {
	DB    *database.PostgresDB
	RunID uuid.UUID
}

func (s *DBMessageSink) Info(msg string) {
	// Status messages are observability only, so insert failures are dropped.
	_, _ = s.DB.Pool.Exec(context.Background(),
		`INSERT INTO research_logs (run_id, level, message, metadata) VALUES ($1, 'INFO', $2, '{}')`,
		s.RunID, msg)
}

// DBArtifactStore persists artifacts in the research_artifacts table.
type DBArtifactStore struct {
	DB    *database.PostgresDB
	RunID uuid.UUID
}

func (s *DBArtifactStore) Store(ctx context.Context, artifact research.Artifact) error {
	_, err := s.DB.Pool.Exec(ctx,
		`INSERT INTO research_artifacts (id, run_id, name, encoding, mime_type, body) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), s.RunID, artifact.Name, artifact.Encoding, artifact.MimeType, artifact.Body)
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}
