package ports

import (
	"context"

	"datachat/domain/chat"
	"datachat/domain/dataset"
	"datachat/domain/table"
)

// EngineAnswer is the normalized result of one engine invocation
type EngineAnswer struct {
	Text  string
	Chart *chat.PlotSpec
}

// AnalysisEngine turns a natural-language prompt into an answer over a frame.
// The backend is opaque to callers: any implementation that can interpret the
// prompt against the frame's schema and contents is acceptable.
type AnalysisEngine interface {
	Answer(ctx context.Context, frame *table.Frame, meta dataset.Metadata, prompt string, history []*chat.QueryLog) (*EngineAnswer, error)
}
