package database

import (
	"context"
	"fmt"
)

func (db *PostgresDB) InitSchema(ctx context.Context) error {
	// 1. Research Runs Table
	runsQuery := `
		CREATE TABLE IF NOT EXISTS research_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			topic TEXT NOT NULL,
			prompt TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			research TEXT,
			error TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := db.Pool.Exec(ctx, runsQuery); err != nil {
		return fmt.Errorf("failed to create research_runs table: %w", err)
	}

	// 2. Research Logs Table
	logsQuery := `
		CREATE TABLE IF NOT EXISTS research_logs (
			id SERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES research_runs(id) ON DELETE CASCADE,
			timestamp TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			metadata JSONB
		);
	`
	if _, err := db.Pool.Exec(ctx, logsQuery); err != nil {
		return fmt.Errorf("failed to create research_logs table: %w", err)
	}

	// 3. Research Artifacts Table
	artifactsQuery := `
		CREATE TABLE IF NOT EXISTS research_artifacts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id UUID NOT NULL REFERENCES research_runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			encoding TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			body BYTEA NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := db.Pool.Exec(ctx, artifactsQuery); err != nil {
		return fmt.Errorf("failed to create research_artifacts table: %w", err)
	}

	// Indexes for faster querying
	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_research_logs_run_id ON research_logs(run_id)"); err != nil {
		return fmt.Errorf("failed to create index on research_logs: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_research_artifacts_run_id ON research_artifacts(run_id)"); err != nil {
		return fmt.Errorf("failed to create index on research_artifacts: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_research_runs_created_at ON research_runs(created_at DESC)"); err != nil {
		return fmt.Errorf("failed to create index on research_runs: %w", err)
	}

	return nil
}
