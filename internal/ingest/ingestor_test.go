package ingest

import (
	"context"
	"strings"
	"testing"

	"datachat/adapters/tabular"
	"datachat/domain/core"
	"datachat/domain/dataset"
	"datachat/internal"
	"datachat/internal/testkit"
)

func newIngestorUnderTest(repo *testkit.MemoryDatasetRepo) *Ingestor {
	return NewIngestor(repo, tabular.NewReader(), internal.NewLogger(internal.LogLevelError))
}

func createDataset(t *testing.T, repo *testkit.MemoryDatasetRepo, path string) *dataset.Dataset {
	t.Helper()
	ds := dataset.NewDataset(core.NewID(), "fixture", path, 0)
	if err := repo.Create(context.Background(), ds); err != nil {
		t.Fatalf("failed to seed dataset: %v", err)
	}
	return ds
}

func TestIngestCSVSuccess(t *testing.T) {
	repo := testkit.NewMemoryDatasetRepo()
	path := testkit.WriteCSV(t, "sales.csv", "date,amount\n2024-01-01,100\n2024-01-02,200\n2024-01-03,\n")
	ds := createDataset(t, repo, path)

	if err := newIngestorUnderTest(repo).Ingest(context.Background(), ds); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	stored, err := repo.GetByID(context.Background(), ds.ID)
	if err != nil {
		t.Fatalf("dataset vanished: %v", err)
	}
	if stored.Status != dataset.StatusReady {
		t.Fatalf("Expected ready, got %s (metadata: %+v)", stored.Status, stored.Metadata)
	}
	if stored.Metadata.RowCount != 3 {
		t.Errorf("Expected row_count 3, got %d", stored.Metadata.RowCount)
	}
	if stored.Metadata.ColumnCount != 2 || len(stored.Metadata.Columns) != 2 {
		t.Errorf("Expected 2 columns, got %+v", stored.Metadata)
	}
	if stored.Metadata.FileSizeBytes == 0 {
		t.Error("Expected file size to be recorded")
	}
	if len(stored.Metadata.ParseWarnings) != 0 {
		t.Errorf("Expected empty parse warnings, got %v", stored.Metadata.ParseWarnings)
	}

	amount := stored.Metadata.Columns[1]
	if amount.Name != "amount" || amount.DataType != dataset.TypeNumeric {
		t.Errorf("Unexpected amount column profile: %+v", amount)
	}
	if amount.NullCount != 1 {
		t.Errorf("Expected 1 null in amount, got %d", amount.NullCount)
	}
}

func TestIngestXLSXSuccess(t *testing.T) {
	repo := testkit.NewMemoryDatasetRepo()
	path := testkit.WriteXLSX(t, "sales.xlsx", [][]interface{}{
		{"region", "sales"},
		{"north", 10},
		{"south", 20},
	})
	ds := createDataset(t, repo, path)

	if err := newIngestorUnderTest(repo).Ingest(context.Background(), ds); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), ds.ID)
	if stored.Status != dataset.StatusReady {
		t.Fatalf("Expected ready, got %s", stored.Status)
	}
	if stored.Metadata.RowCount != 2 || stored.Metadata.ColumnCount != 2 {
		t.Errorf("Unexpected shape: %+v", stored.Metadata)
	}
}

func TestIngestPersistsProcessingBeforeParse(t *testing.T) {
	repo := testkit.NewMemoryDatasetRepo()
	path := testkit.WriteCSV(t, "sales.csv", "a\n1\n")
	ds := createDataset(t, repo, path)

	if err := newIngestorUnderTest(repo).Ingest(context.Background(), ds); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// pending (create) -> processing -> ready, in that order
	want := []dataset.DatasetStatus{dataset.StatusPending, dataset.StatusProcessing, dataset.StatusReady}
	if len(repo.StatusHistory) != len(want) {
		t.Fatalf("Unexpected status history: %v", repo.StatusHistory)
	}
	for i, s := range want {
		if repo.StatusHistory[i] != s {
			t.Errorf("Transition %d: expected %s, got %s", i, s, repo.StatusHistory[i])
		}
	}
}

func TestIngestEmptyTable(t *testing.T) {
	repo := testkit.NewMemoryDatasetRepo()
	path := testkit.WriteCSV(t, "empty.csv", "date,amount\n")
	ds := createDataset(t, repo, path)

	err := newIngestorUnderTest(repo).Ingest(context.Background(), ds)
	if err == nil {
		t.Fatal("Expected error for empty table")
	}

	stored, _ := repo.GetByID(context.Background(), ds.ID)
	if stored.Status != dataset.StatusError {
		t.Fatalf("Expected error status, got %s", stored.Status)
	}
	if !strings.Contains(stored.Metadata.Error, "no data rows") {
		t.Errorf("Expected original message in metadata.error, got %q", stored.Metadata.Error)
	}
	if len(stored.Metadata.ParseWarnings) != 1 {
		t.Errorf("Expected error mirrored into parse_warnings, got %v", stored.Metadata.ParseWarnings)
	}
	if stored.Metadata.Columns != nil {
		t.Error("Error payload must not contain a partial schema")
	}
}

func TestIngestUnreadableFile(t *testing.T) {
	repo := testkit.NewMemoryDatasetRepo()
	ds := createDataset(t, repo, "/nonexistent/sales.csv")

	err := newIngestorUnderTest(repo).Ingest(context.Background(), ds)
	if err == nil {
		t.Fatal("Expected error for unreadable file")
	}

	stored, _ := repo.GetByID(context.Background(), ds.ID)
	if stored.Status != dataset.StatusError {
		t.Fatalf("Expected error status, got %s", stored.Status)
	}
	if stored.Metadata.Error == "" {
		t.Error("Expected captured error message")
	}
}
