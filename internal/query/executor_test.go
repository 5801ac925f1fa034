package query

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"datachat/adapters/tabular"
	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/domain/dataset"
	"datachat/domain/table"
	"datachat/internal"
	"datachat/internal/dataframe"
	"datachat/internal/testkit"
	"datachat/ports"
)

// stubEngine is a controllable ports.AnalysisEngine
type stubEngine struct {
	answer  *ports.EngineAnswer
	err     error
	history [][]*chat.QueryLog
}

func (s *stubEngine) Answer(ctx context.Context, frame *table.Frame, meta dataset.Metadata, prompt string, history []*chat.QueryLog) (*ports.EngineAnswer, error) {
	s.history = append(s.history, history)
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

type fixture struct {
	executor *Executor
	engine   *stubEngine
	datasets *testkit.MemoryDatasetRepo
	logs     *testkit.MemoryQueryLogRepo
	session  *chat.AnalysisSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	path := testkit.WriteCSV(t, "sales.csv", "date,amount\n2024-01-01,100\n2024-01-02,200\n2024-01-03,300\n")

	datasets := testkit.NewMemoryDatasetRepo()
	ds := dataset.NewDataset(core.NewID(), "sales", path, 0)
	ds.MarkReady(dataset.Metadata{
		RowCount:      3,
		ColumnCount:   2,
		Columns:       []dataset.ColumnInfo{{Name: "date"}, {Name: "amount", DataType: dataset.TypeNumeric}},
		ParseWarnings: []string{},
	})
	if err := datasets.Create(context.Background(), ds); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}

	logs := testkit.NewMemoryQueryLogRepo()
	engine := &stubEngine{answer: &ports.EngineAnswer{Text: "The total is 600."}}
	cache := dataframe.NewCache(tabular.NewReader(), 32)
	executor := NewExecutor(engine, cache, datasets, logs,
		internal.NewLogger(internal.LogLevelError), 10, 30*time.Second)

	session := chat.NewAnalysisSession(ds.UserID, ds.ID, "Analysis of sales")

	return &fixture{executor: executor, engine: engine, datasets: datasets, logs: logs, session: session}
}

func TestExecuteSuccess(t *testing.T) {
	f := newFixture(t)

	entry := f.executor.Execute(context.Background(), f.session, "What is the total amount?")

	if entry.Status != chat.QuerySuccess {
		t.Fatalf("Expected success, got %s (%s)", entry.Status, entry.ErrorMessage)
	}
	if entry.ResponseText != "The total is 600." {
		t.Errorf("Unexpected response text: %q", entry.ResponseText)
	}
	if entry.Prompt != "What is the total amount?" {
		t.Errorf("Prompt not recorded: %q", entry.Prompt)
	}

	stored, _ := f.logs.ListForSession(context.Background(), f.session.ID)
	if len(stored) != 1 {
		t.Fatalf("Expected 1 persisted log, got %d", len(stored))
	}
}

func TestExecutePlaceholderWhenEngineReturnsNoText(t *testing.T) {
	f := newFixture(t)
	f.engine.answer = &ports.EngineAnswer{Text: ""}

	entry := f.executor.Execute(context.Background(), f.session, "do something")

	if entry.Status != chat.QuerySuccess {
		t.Fatalf("Expected success, got %s", entry.Status)
	}
	if entry.ResponseText != "Query executed successfully" {
		t.Errorf("Expected placeholder text, got %q", entry.ResponseText)
	}
}

func TestExecuteSerializesChart(t *testing.T) {
	f := newFixture(t)
	f.engine.answer = &ports.EngineAnswer{
		Text: "Here is the chart.",
		Chart: &chat.PlotSpec{
			Kind:   "bar",
			Labels: []string{"a", "b"},
			Series: []chat.PlotSeries{{Name: "amount", Values: []float64{100, 200}}},
		},
	}

	entry := f.executor.Execute(context.Background(), f.session, "plot it")

	if entry.Status != chat.QuerySuccess {
		t.Fatalf("Expected success, got %s", entry.Status)
	}
	if entry.ResponsePlot == nil {
		t.Fatal("Expected serialized plot payload")
	}
}

func TestExecuteEngineFailureBecomesErrorLog(t *testing.T) {
	f := newFixture(t)
	f.engine.err = errors.New("model overloaded")

	entry := f.executor.Execute(context.Background(), f.session, "What is the total?")

	if entry.Status != chat.QueryError {
		t.Fatalf("Expected error log, got %s", entry.Status)
	}
	if entry.ErrorMessage == "" {
		t.Error("Expected captured error message")
	}
	if entry.ResponseText != "" {
		t.Error("Error log must not carry response text")
	}

	// Failure is persisted like any other turn
	stored, _ := f.logs.ListForSession(context.Background(), f.session.ID)
	if len(stored) != 1 || stored[0].Status != chat.QueryError {
		t.Fatalf("Expected persisted error log, got %v", stored)
	}
}

func TestExecuteSessionSurvivesFailure(t *testing.T) {
	f := newFixture(t)

	f.engine.err = errors.New("model overloaded")
	first := f.executor.Execute(context.Background(), f.session, "first")
	if first.Status != chat.QueryError {
		t.Fatalf("Expected first query to fail, got %s", first.Status)
	}

	f.engine.err = nil
	second := f.executor.Execute(context.Background(), f.session, "second")
	if second.Status != chat.QuerySuccess {
		t.Fatalf("Next query must succeed independently, got %s (%s)", second.Status, second.ErrorMessage)
	}
}

func TestExecuteDatasetNotReady(t *testing.T) {
	f := newFixture(t)

	ds := dataset.NewDataset(core.NewID(), "pending", "/tmp/pending.csv", 0)
	f.datasets.Create(context.Background(), ds)
	session := chat.NewAnalysisSession(ds.UserID, ds.ID, "too early")

	entry := f.executor.Execute(context.Background(), session, "anything")

	if entry.Status != chat.QueryError {
		t.Fatalf("Expected error for non-ready dataset, got %s", entry.Status)
	}
}

func TestExecutePersistFailureStillReturnsLog(t *testing.T) {
	f := newFixture(t)
	f.logs.CreateErr = errors.New("database gone")

	entry := f.executor.Execute(context.Background(), f.session, "What is the total?")

	if entry == nil {
		t.Fatal("Execute must always return a log entry")
	}
	if entry.Status != chat.QuerySuccess {
		t.Errorf("Expected the computed result despite persist failure, got %s", entry.Status)
	}
}

// hangingEngine blocks until the attempt's deadline fires
type hangingEngine struct{}

func (hangingEngine) Answer(ctx context.Context, frame *table.Frame, meta dataset.Metadata, prompt string, history []*chat.QueryLog) (*ports.EngineAnswer, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// deadlineLogRepo refuses writes on an expired context, like the real
// postgres repository's ExecContext would.
type deadlineLogRepo struct {
	*testkit.MemoryQueryLogRepo
}

func (r *deadlineLogRepo) Create(ctx context.Context, log *chat.QueryLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.MemoryQueryLogRepo.Create(ctx, log)
}

func TestExecuteTimeoutErrorTurnIsPersisted(t *testing.T) {
	f := newFixture(t)
	logs := &deadlineLogRepo{MemoryQueryLogRepo: testkit.NewMemoryQueryLogRepo()}

	cache := dataframe.NewCache(tabular.NewReader(), 32)
	executor := NewExecutor(hangingEngine{}, cache, f.datasets, logs,
		internal.NewLogger(internal.LogLevelError), 10, 50*time.Millisecond)

	entry := executor.Execute(context.Background(), f.session, "slow question")

	if entry.Status != chat.QueryError {
		t.Fatalf("Expected error log for timed-out query, got %s", entry.Status)
	}
	if entry.ErrorMessage == "" {
		t.Error("Expected captured timeout message")
	}

	// The timeout that failed the attempt must not also kill the persist.
	stored, err := logs.ListForSession(context.Background(), f.session.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(stored) != 1 || stored[0].Status != chat.QueryError {
		t.Fatalf("Expected the timeout turn to be persisted as an error log, got %v", stored)
	}
}

func TestExecuteContextWindow(t *testing.T) {
	f := newFixture(t)

	// Seed 15 prior turns; the engine must see only the 10 most recent,
	// newest first.
	for i := 0; i < 15; i++ {
		log := chat.NewSuccessLog(f.session.ID, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), nil)
		log.CreatedAt = time.Now().Add(time.Duration(i-20) * time.Minute)
		if err := f.logs.Create(context.Background(), log); err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}

	f.executor.Execute(context.Background(), f.session, "current question")

	if len(f.engine.history) != 1 {
		t.Fatalf("Expected 1 engine invocation, got %d", len(f.engine.history))
	}
	window := f.engine.history[0]
	if len(window) != 10 {
		t.Fatalf("Expected context window of 10, got %d", len(window))
	}
	if window[0].Prompt != "q14" {
		t.Errorf("Expected newest turn first, got %q", window[0].Prompt)
	}
	if window[9].Prompt != "q5" {
		t.Errorf("Expected 10th most recent turn last, got %q", window[9].Prompt)
	}
}
