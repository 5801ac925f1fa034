package app

import (
	"context"
	"strings"
	"unicode/utf8"

	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/internal"
	"datachat/internal/errors"
	"datachat/internal/query"
	"datachat/ports"
)

// ChatService exposes the conversational surface: ask questions of a
// session's dataset and read the transcript back.
type ChatService struct {
	sessions ports.SessionRepository
	logs     ports.QueryLogRepository
	executor *query.Executor
	logger   *internal.Logger

	maxPromptLength int
}

// NewChatService creates a chat service
func NewChatService(
	sessions ports.SessionRepository,
	logs ports.QueryLogRepository,
	executor *query.Executor,
	logger *internal.Logger,
	maxPromptLength int,
) *ChatService {
	return &ChatService{
		sessions:        sessions,
		logs:            logs,
		executor:        executor,
		logger:          logger,
		maxPromptLength: maxPromptLength,
	}
}

// Ask executes one query turn in the session. Validation failures (blank or
// oversized prompt, unknown session, wrong owner) return an error; once the
// prompt reaches the executor the turn always produces a persisted log entry,
// success or error.
func (s *ChatService) Ask(ctx context.Context, userID, sessionID core.ID, prompt string) (*chat.QueryLog, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.ValidationError("prompt cannot be empty")
	}
	if utf8.RuneCountInString(prompt) > s.maxPromptLength {
		return nil, errors.ValidationError("prompt exceeds maximum length")
	}

	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	entry := s.executor.Execute(ctx, session, prompt)

	if err := s.sessions.Touch(ctx, session.ID); err != nil {
		s.logger.Warn("[chat] failed to touch session %s: %v", session.ID, err)
	}
	return entry, nil
}

// GetSession returns a session the user owns.
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID core.ID) (*chat.AnalysisSession, error) {
	return s.getOwnedSession(ctx, userID, sessionID)
}

// ListSessions returns the user's sessions, most recently active first.
func (s *ChatService) ListSessions(ctx context.Context, userID core.ID, limit int) ([]*chat.AnalysisSession, error) {
	return s.sessions.ListByUser(ctx, userID, limit)
}

// History returns the full transcript of a session, oldest first.
func (s *ChatService) History(ctx context.Context, userID, sessionID core.ID) ([]*chat.QueryLog, error) {
	if _, err := s.getOwnedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.logs.ListForSession(ctx, sessionID)
}

// DeleteSession removes a session and its logs via the cascade.
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID core.ID) error {
	if _, err := s.getOwnedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// getOwnedSession hides other users' sessions behind not-found rather than
// confirming they exist.
func (s *ChatService) getOwnedSession(ctx context.Context, userID, sessionID core.ID) (*chat.AnalysisSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, core.ErrSessionNotFound
	}
	return session, nil
}
