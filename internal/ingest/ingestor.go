package ingest

import (
	"context"
	"os"

	"datachat/domain/core"
	"datachat/domain/dataset"
	"datachat/internal"
	"datachat/ports"
)

// Ingestor parses a stored dataset file, derives its schema summary and
// drives the dataset status machine: pending -> processing -> ready | error.
type Ingestor struct {
	repo     ports.DatasetRepository
	reader   ports.TableReader
	profiler *Profiler
	logger   *internal.Logger
}

// NewIngestor creates an ingestor over the given repository and reader
func NewIngestor(repo ports.DatasetRepository, reader ports.TableReader, logger *internal.Logger) *Ingestor {
	return &Ingestor{
		repo:     repo,
		reader:   reader,
		profiler: NewProfiler(DefaultProfileConfig()),
		logger:   logger,
	}
}

// Ingest parses and validates the dataset file, then persists either a
// complete schema summary (ready) or an error payload (error). The processing
// transition is persisted before parsing starts so a crash mid-parse is
// observable as stuck-in-processing. The original error is returned to the
// caller after the state mutation; the caller decides disposition.
func (i *Ingestor) Ingest(ctx context.Context, ds *dataset.Dataset) error {
	i.logger.Info("[Ingestor] Starting ingestion for dataset %s (%s)", ds.ID, ds.FilePath)

	ds.MarkProcessing()
	if err := i.repo.UpdateStatus(ctx, ds.ID, ds.Status, ds.Metadata); err != nil {
		return i.fail(ctx, ds, err)
	}

	frame, err := i.reader.Read(ds.FilePath)
	if err != nil {
		return i.fail(ctx, ds, err)
	}

	if frame.RowCount() == 0 {
		return i.fail(ctx, ds, core.ErrEmptyData)
	}
	if frame.ColumnCount() == 0 {
		return i.fail(ctx, ds, core.ErrNoColumns)
	}

	fileSize := ds.FileSize
	if fi, statErr := os.Stat(ds.FilePath); statErr == nil {
		fileSize = fi.Size()
	}

	meta := dataset.Metadata{
		RowCount:      frame.RowCount(),
		ColumnCount:   frame.ColumnCount(),
		Columns:       make([]dataset.ColumnInfo, 0, frame.ColumnCount()),
		FileSizeBytes: fileSize,
		ParseWarnings: []string{},
	}
	for _, name := range frame.Columns {
		values, _ := frame.Column(name)
		meta.Columns = append(meta.Columns, i.profiler.ProfileColumn(name, values))
	}

	ds.MarkReady(meta)
	if err := i.repo.Update(ctx, ds); err != nil {
		return i.fail(ctx, ds, err)
	}

	i.logger.Info("[Ingestor] Dataset %s ready: %d rows, %d columns", ds.ID, meta.RowCount, meta.ColumnCount)
	return nil
}

// fail records the error payload and returns the original error
func (i *Ingestor) fail(ctx context.Context, ds *dataset.Dataset, cause error) error {
	i.logger.Error("[Ingestor] Ingestion failed for dataset %s: %v", ds.ID, cause)

	ds.MarkError(cause.Error())
	if uerr := i.repo.UpdateStatus(ctx, ds.ID, ds.Status, ds.Metadata); uerr != nil {
		i.logger.Warn("[Ingestor] Could not persist error status for dataset %s: %v", ds.ID, uerr)
	}
	return cause
}
