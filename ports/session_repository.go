package ports

import (
	"context"

	"datachat/domain/chat"
	"datachat/domain/core"
)

// SessionRepository defines the interface for analysis session storage
type SessionRepository interface {
	Create(ctx context.Context, session *chat.AnalysisSession) error
	GetByID(ctx context.Context, id core.ID) (*chat.AnalysisSession, error)
	ListByUser(ctx context.Context, userID core.ID, limit int) ([]*chat.AnalysisSession, error)
	Delete(ctx context.Context, id core.ID) error

	// Touch bumps updated_at; called after each executed query
	Touch(ctx context.Context, id core.ID) error
}
