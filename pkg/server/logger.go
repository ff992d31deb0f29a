package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mikeboe/research-agent/pkg/database"
)

// DBLogHandler is a slog.Handler that writes records to the database
type DBLogHandler struct {
	DB    *database.PostgresDB
	RunID uuid.UUID
}

func NewDBLogHandler(db *database.PostgresDB, runID uuid.UUID) *DBLogHandler {
	return &DBLogHandler{
		DB:    db,
		RunID: runID,
	}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true // Log everything
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Extract attributes to JSON
	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		// Fallback for marshal error
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO research_logs (run_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Use background context so records persist even if the request context
	// is already cancelled.
	_, err = h.DB.Pool.Exec(context.Background(), query, h.RunID, r.Time, r.Level.String(), r.Message, metaJSON)
	return err
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Attribute chaining is not needed for per-run log capture.
	return h
}

func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	return h
}
