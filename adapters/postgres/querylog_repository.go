package postgres

import (
	"context"
	"fmt"

	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/ports"

	"github.com/jmoiron/sqlx"
)

// queryLogRepository implements the QueryLogRepository interface
type queryLogRepository struct {
	db *sqlx.DB
}

// NewQueryLogRepository creates a new query log repository
func NewQueryLogRepository(db *sqlx.DB) ports.QueryLogRepository {
	return &queryLogRepository{db: db}
}

// Create inserts one immutable query turn
func (r *queryLogRepository) Create(ctx context.Context, log *chat.QueryLog) error {
	var plot interface{}
	if log.ResponsePlot != nil {
		plot = []byte(log.ResponsePlot)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO query_logs (id, session_id, prompt, response_text, response_plot, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, log.ID, log.SessionID, log.Prompt, log.ResponseText, plot, log.Status, log.ErrorMessage, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create query log: %w", err)
	}
	return nil
}

// ListForSession returns all turns of a session oldest first
func (r *queryLogRepository) ListForSession(ctx context.Context, sessionID core.ID) ([]*chat.QueryLog, error) {
	var logs []*chat.QueryLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, session_id, prompt, response_text, response_plot, status, error_message, created_at
		FROM query_logs
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	return logs, nil
}

// RecentForSession returns up to limit most recent turns, newest first
func (r *queryLogRepository) RecentForSession(ctx context.Context, sessionID core.ID, limit int) ([]*chat.QueryLog, error) {
	var logs []*chat.QueryLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, session_id, prompt, response_text, response_plot, status, error_message, created_at
		FROM query_logs
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get context window: %w", err)
	}
	return logs, nil
}
