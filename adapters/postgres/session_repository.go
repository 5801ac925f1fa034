package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/ports"

	"github.com/jmoiron/sqlx"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new analysis session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new analysis session
func (r *sessionRepository) Create(ctx context.Context, session *chat.AnalysisSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_sessions (id, user_id, dataset_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, session.ID, session.UserID, session.DatasetID, session.Title, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its ID
func (r *sessionRepository) GetByID(ctx context.Context, id core.ID) (*chat.AnalysisSession, error) {
	var session chat.AnalysisSession
	err := r.db.GetContext(ctx, &session, `
		SELECT id, user_id, dataset_id, title, created_at, updated_at
		FROM analysis_sessions
		WHERE id = $1
	`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("session", id.String())
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// ListByUser returns a user's sessions, most recently active first
func (r *sessionRepository) ListByUser(ctx context.Context, userID core.ID, limit int) ([]*chat.AnalysisSession, error) {
	query := `
		SELECT id, user_id, dataset_id, title, created_at, updated_at
		FROM analysis_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var sessions []*chat.AnalysisSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes a session; its query logs cascade in the schema
func (r *sessionRepository) Delete(ctx context.Context, id core.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM analysis_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireRow(result, "session", id)
}

// Touch bumps updated_at after a query has been executed
func (r *sessionRepository) Touch(ctx context.Context, id core.ID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE analysis_sessions SET updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return requireRow(result, "session", id)
}
