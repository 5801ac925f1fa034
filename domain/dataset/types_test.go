package dataset

import (
	"testing"

	"datachat/domain/core"
)

func TestNewDatasetDefaults(t *testing.T) {
	userID := core.NewID()
	ds := NewDataset(userID, "sales", "/tmp/sales.csv", 1234)

	if ds.ID.IsEmpty() {
		t.Error("Expected a generated dataset ID")
	}
	if ds.UserID != userID {
		t.Errorf("Expected user %s, got %s", userID, ds.UserID)
	}
	if ds.Status != StatusPending {
		t.Errorf("Expected status pending, got %s", ds.Status)
	}
	if ds.Metadata.ParseWarnings == nil {
		t.Error("Expected parse_warnings slot to be initialized")
	}
	if ds.IsReady() {
		t.Error("Pending dataset must not report ready")
	}
}

func TestStatusTransitions(t *testing.T) {
	ds := NewDataset(core.NewID(), "sales", "/tmp/sales.csv", 10)

	ds.MarkProcessing()
	if ds.Status != StatusProcessing {
		t.Fatalf("Expected processing, got %s", ds.Status)
	}

	meta := Metadata{
		RowCount:      3,
		ColumnCount:   2,
		Columns:       []ColumnInfo{{Name: "date"}, {Name: "amount"}},
		FileSizeBytes: 10,
		ParseWarnings: []string{},
	}
	ds.MarkReady(meta)
	if !ds.IsReady() {
		t.Fatal("Expected ready after MarkReady")
	}
	if ds.Metadata.RowCount != 3 || ds.Metadata.ColumnCount != 2 {
		t.Errorf("Unexpected metadata after MarkReady: %+v", ds.Metadata)
	}
}

func TestMarkErrorReplacesMetadata(t *testing.T) {
	ds := NewDataset(core.NewID(), "bad", "/tmp/bad.csv", 0)
	ds.MarkProcessing()
	ds.MarkReady(Metadata{RowCount: 5, ColumnCount: 1, ParseWarnings: []string{}})

	ds.MarkError("file has no data rows")

	if ds.Status != StatusError {
		t.Fatalf("Expected error status, got %s", ds.Status)
	}
	if ds.Metadata.Error != "file has no data rows" {
		t.Errorf("Expected error payload, got %+v", ds.Metadata)
	}
	if ds.Metadata.RowCount != 0 || ds.Metadata.Columns != nil {
		t.Error("Error payload must not retain partial schema data")
	}
	if len(ds.Metadata.ParseWarnings) != 1 || ds.Metadata.ParseWarnings[0] != "file has no data rows" {
		t.Errorf("Expected error mirrored into parse_warnings, got %v", ds.Metadata.ParseWarnings)
	}
}
