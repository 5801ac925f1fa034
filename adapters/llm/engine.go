package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"datachat/domain/chat"
	"datachat/domain/dataset"
	"datachat/domain/table"
	"datachat/internal/errors"
	"datachat/ports"
)

// maxPreviewRows bounds how many data rows are shown to the model
const maxPreviewRows = 10

const engineSystemPrompt = `You are a data analysis engine. You are given the schema of a tabular dataset, a preview of its rows, recent conversation turns, and a user question.
Answer the question using only the provided data. Respond with a single JSON object:
{"answer": "<plain-language answer>", "chart": null}
If a chart materially helps, set "chart" to:
{"kind": "bar"|"line"|"scatter"|"pie", "title": "...", "x_label": "...", "y_label": "...", "labels": ["..."], "series": [{"name": "...", "values": [1, 2]}]}
Never include row-level data beyond what the preview already shows. Respond with valid JSON only.`

// Engine implements ports.AnalysisEngine over a chat-completion LLM client.
// It is one concrete backend behind the engine port; the executor does not
// know or care that an LLM is involved.
type Engine struct {
	client    ports.LLMClient
	model     string
	maxTokens int
}

// NewEngine creates an analysis engine using the given client and model
func NewEngine(client ports.LLMClient, model string, maxTokens int) *Engine {
	return &Engine{client: client, model: model, maxTokens: maxTokens}
}

var _ ports.AnalysisEngine = (*Engine)(nil)

// engineResponse is the JSON document the model is instructed to produce
type engineResponse struct {
	Answer string         `json:"answer"`
	Chart  *chat.PlotSpec `json:"chart"`
}

// Answer interprets the prompt against the frame and returns a normalized answer
func (e *Engine) Answer(ctx context.Context, frame *table.Frame, meta dataset.Metadata, prompt string, history []*chat.QueryLog) (*ports.EngineAnswer, error) {
	userPrompt := e.buildPrompt(frame, meta, prompt, history)

	raw, err := e.client.ChatCompletion(ctx, e.model, engineSystemPrompt, userPrompt, e.maxTokens)
	if err != nil {
		return nil, errors.ExternalServiceError("analysis engine", err)
	}

	var decoded engineResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &decoded); err != nil {
		return nil, errors.ExternalServiceError("analysis engine",
			fmt.Errorf("malformed engine response: %w", err))
	}

	if decoded.Chart != nil && len(decoded.Chart.Series) == 0 {
		// A chart with no series renders as nothing; drop it
		decoded.Chart = nil
	}

	return &ports.EngineAnswer{
		Text:  strings.TrimSpace(decoded.Answer),
		Chart: decoded.Chart,
	}, nil
}

// buildPrompt assembles schema, preview, and conversation context.
// History arrives newest first and is replayed oldest first here.
func (e *Engine) buildPrompt(frame *table.Frame, meta dataset.Metadata, prompt string, history []*chat.QueryLog) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset: %d rows, %d columns.\n\nSchema:\n", meta.RowCount, meta.ColumnCount)
	for _, col := range meta.Columns {
		fmt.Fprintf(&b, "- %s (%s, %d nulls)", col.Name, col.DataType, col.NullCount)
		if len(col.SampleValues) > 0 {
			fmt.Fprintf(&b, " e.g. %s", strings.Join(col.SampleValues, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRow preview:\n")
	b.WriteString(strings.Join(frame.Columns, " | "))
	b.WriteString("\n")
	for _, row := range frame.Head(maxPreviewRows) {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("\nRecent conversation (oldest first):\n")
		for i := len(history) - 1; i >= 0; i-- {
			turn := history[i]
			fmt.Fprintf(&b, "Q: %s\n", turn.Prompt)
			if turn.Status == chat.QuerySuccess {
				fmt.Fprintf(&b, "A: %s\n", turn.ResponseText)
			} else {
				fmt.Fprintf(&b, "A: (failed: %s)\n", turn.ErrorMessage)
			}
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", prompt)
	return b.String()
}

// stripCodeFence removes a wrapping markdown code fence, if present
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
