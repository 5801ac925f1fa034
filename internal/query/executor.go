package query

import (
	"context"
	"time"

	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/internal"
	"datachat/internal/dataframe"
	"datachat/ports"
)

// placeholderResponse is recorded when the engine succeeds but returns no text
const placeholderResponse = "Query executed successfully"

// Executor orchestrates one query turn: context window, cached frame, engine
// invocation, and the persisted QueryLog. Its contract is that a failed query
// is a normal, recorded outcome - Execute never returns an error and never
// panics the conversation.
type Executor struct {
	engine   ports.AnalysisEngine
	cache    *dataframe.Cache
	datasets ports.DatasetRepository
	logs     ports.QueryLogRepository
	logger   *internal.Logger

	contextWindow int
	timeout       time.Duration
}

// NewExecutor creates a query executor
func NewExecutor(
	engine ports.AnalysisEngine,
	cache *dataframe.Cache,
	datasets ports.DatasetRepository,
	logs ports.QueryLogRepository,
	logger *internal.Logger,
	contextWindow int,
	timeout time.Duration,
) *Executor {
	return &Executor{
		engine:        engine,
		cache:         cache,
		datasets:      datasets,
		logs:          logs,
		logger:        logger,
		contextWindow: contextWindow,
		timeout:       timeout,
	}
}

// Execute runs one query against the session's dataset and returns the
// resulting log entry. Concurrent calls for the same session are not ordered
// relative to each other: each sees whatever context was persisted when it
// read the window.
func (e *Executor) Execute(ctx context.Context, session *chat.AnalysisSession, prompt string) *chat.QueryLog {
	// The persist must outlive the attempt's deadline: when the attempt fails
	// because the timeout fired, the error turn still has to be recorded.
	persistCtx := context.WithoutCancel(ctx)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	entry, err := e.attempt(ctx, session, prompt)
	if err != nil {
		e.logger.Warn("[QueryExecutor] Query failed for session %s: %v", session.ID, err)
		entry = chat.NewErrorLog(session.ID, prompt, err.Error())
	}

	// A persist failure is logged, not raised; the caller still gets the turn
	if perr := e.logs.Create(persistCtx, entry); perr != nil {
		e.logger.Error("[QueryExecutor] Could not persist query log for session %s: %v", session.ID, perr)
	}

	return entry
}

func (e *Executor) attempt(ctx context.Context, session *chat.AnalysisSession, prompt string) (*chat.QueryLog, error) {
	ds, err := e.datasets.GetByID(ctx, session.DatasetID)
	if err != nil {
		return nil, err
	}
	if !ds.IsReady() {
		return nil, core.ErrDatasetNotReady
	}

	history, err := e.logs.RecentForSession(ctx, session.ID, e.contextWindow)
	if err != nil {
		return nil, err
	}

	frame, err := e.cache.Get(ctx, ds.ID, ds.FilePath)
	if err != nil {
		return nil, err
	}

	answer, err := e.engine.Answer(ctx, frame, ds.Metadata, prompt, history)
	if err != nil {
		return nil, err
	}

	text := answer.Text
	if text == "" {
		text = placeholderResponse
	}

	plot, err := answer.Chart.Marshal()
	if err != nil {
		return nil, err
	}

	return chat.NewSuccessLog(session.ID, prompt, text, plot), nil
}
