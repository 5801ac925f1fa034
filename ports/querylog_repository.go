package ports

import (
	"context"

	"datachat/domain/chat"
	"datachat/domain/core"
)

// QueryLogRepository defines the interface for query log storage.
// Logs are insert-only; there is no update operation.
type QueryLogRepository interface {
	Create(ctx context.Context, log *chat.QueryLog) error

	// ListForSession returns all turns of a session oldest first, for display
	ListForSession(ctx context.Context, sessionID core.ID) ([]*chat.QueryLog, error)

	// RecentForSession returns up to limit most recent turns newest first.
	// This is the conversation context window injected into the engine.
	RecentForSession(ctx context.Context, sessionID core.ID, limit int) ([]*chat.QueryLog, error)
}
