package chat

import (
	"encoding/json"
	"time"

	"datachat/domain/core"
)

// AnalysisSession is a conversation scoped to exactly one dataset and one user.
// The dataset reference is immutable after creation.
type AnalysisSession struct {
	ID        core.ID   `json:"id" db:"id"`
	UserID    core.ID   `json:"user_id" db:"user_id"`
	DatasetID core.ID   `json:"dataset_id" db:"dataset_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewAnalysisSession creates a session for a user over a dataset
func NewAnalysisSession(userID, datasetID core.ID, title string) *AnalysisSession {
	now := time.Now()
	return &AnalysisSession{
		ID:        core.NewID(),
		UserID:    userID,
		DatasetID: datasetID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// QueryStatus is the outcome of one executed query turn
type QueryStatus string

const (
	QuerySuccess QueryStatus = "success"
	QueryError   QueryStatus = "error"
)

// QueryLog is one recorded prompt/result turn in a session. Exactly one of
// ResponseText (status success) or ErrorMessage (status error) carries the
// outcome; logs are immutable once created.
type QueryLog struct {
	ID           core.ID         `json:"id" db:"id"`
	SessionID    core.ID         `json:"session_id" db:"session_id"`
	Prompt       string          `json:"prompt" db:"prompt"`
	ResponseText string          `json:"response_text,omitempty" db:"response_text"`
	ResponsePlot json.RawMessage `json:"response_plot,omitempty" db:"response_plot"`
	Status       QueryStatus     `json:"status" db:"status"`
	ErrorMessage string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// NewSuccessLog builds a success turn with optional plot payload
func NewSuccessLog(sessionID core.ID, prompt, responseText string, plot json.RawMessage) *QueryLog {
	return &QueryLog{
		ID:           core.NewID(),
		SessionID:    sessionID,
		Prompt:       prompt,
		ResponseText: responseText,
		ResponsePlot: plot,
		Status:       QuerySuccess,
		CreatedAt:    time.Now(),
	}
}

// NewErrorLog builds an error turn carrying the captured failure message
func NewErrorLog(sessionID core.ID, prompt, errMsg string) *QueryLog {
	return &QueryLog{
		ID:           core.NewID(),
		SessionID:    sessionID,
		Prompt:       prompt,
		Status:       QueryError,
		ErrorMessage: errMsg,
		CreatedAt:    time.Now(),
	}
}

// PlotSpec is the portable, declarative chart description attached to a
// successful query turn. It is self-contained so renderers need no access to
// the underlying dataframe.
type PlotSpec struct {
	Kind   string       `json:"kind"` // "bar", "line", "scatter", "pie"
	Title  string       `json:"title,omitempty"`
	XLabel string       `json:"x_label,omitempty"`
	YLabel string       `json:"y_label,omitempty"`
	Labels []string     `json:"labels,omitempty"`
	Series []PlotSeries `json:"series"`
}

// PlotSeries is one named sequence of values in a plot
type PlotSeries struct {
	Name   string    `json:"name,omitempty"`
	Values []float64 `json:"values"`
}

// Marshal serializes the plot into the stored JSON document form
func (p *PlotSpec) Marshal() (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}
