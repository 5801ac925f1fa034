package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/domain/dataset"
	"datachat/internal"
	"datachat/internal/errors"
	"datachat/internal/ingest"
	"datachat/internal/upload"
	"datachat/ports"
)

// UploadResult is what a completed upload hands back to the caller: the
// ingested dataset and the session opened over it.
type UploadResult struct {
	Dataset *dataset.Dataset      `json:"dataset"`
	Session *chat.AnalysisSession `json:"session"`
}

// UploadService owns the full upload flow: validate, store, register,
// ingest, and open an analysis session over the result.
type UploadService struct {
	validator *upload.Validator
	storage   ports.FileStorage
	datasets  ports.DatasetRepository
	sessions  ports.SessionRepository
	ingestor  *ingest.Ingestor
	logger    *internal.Logger

	maxNameLength int
}

// NewUploadService creates an upload service
func NewUploadService(
	validator *upload.Validator,
	storage ports.FileStorage,
	datasets ports.DatasetRepository,
	sessions ports.SessionRepository,
	ingestor *ingest.Ingestor,
	logger *internal.Logger,
	maxNameLength int,
) *UploadService {
	return &UploadService{
		validator:     validator,
		storage:       storage,
		datasets:      datasets,
		sessions:      sessions,
		ingestor:      ingestor,
		logger:        logger,
		maxNameLength: maxNameLength,
	}
}

// Upload runs the complete flow for one uploaded file. The reader r carries
// the file content, size is its total length in bytes, and filename is the
// client-supplied name used for both content validation and the dataset name.
//
// If ingestion fails, the dataset row and the stored file are removed so a
// bad upload leaves no residue, and the ingest error is returned.
func (s *UploadService) Upload(ctx context.Context, userID core.ID, r io.Reader, size int64, filename string) (*UploadResult, error) {
	name := strings.TrimSpace(filename)
	if name == "" {
		return nil, errors.ValidationError("dataset name cannot be empty")
	}
	if utf8.RuneCountInString(name) > s.maxNameLength {
		return nil, errors.ValidationError("dataset name exceeds maximum length")
	}

	// Sniff the head without consuming it for storage.
	head := make([]byte, upload.SniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrap(err, "failed to read upload")
	}
	head = head[:n]

	if err := s.validator.Validate(head, size, name); err != nil {
		return nil, err
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	filePath, err := s.storage.Store(ctx, body, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to store uploaded file")
	}

	ds := dataset.NewDataset(userID, name, filePath, size)
	if err := s.datasets.Create(ctx, ds); err != nil {
		s.discardFile(ctx, filePath)
		return nil, errors.Wrap(err, "failed to register dataset")
	}

	if err := s.ingestor.Ingest(ctx, ds); err != nil {
		s.logger.Warn("[upload] ingest failed for dataset %s: %v", ds.ID, err)
		if delErr := s.datasets.Delete(ctx, ds.ID); delErr != nil {
			s.logger.Error("[upload] failed to remove dataset %s after ingest failure: %v", ds.ID, delErr)
		}
		s.discardFile(ctx, filePath)
		return nil, err
	}

	session := chat.NewAnalysisSession(userID, ds.ID, "Analysis of "+name)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create analysis session")
	}

	s.logger.Info("[upload] dataset %s ready (%d rows, %d columns)", ds.ID, ds.Metadata.RowCount, ds.Metadata.ColumnCount)
	return &UploadResult{Dataset: ds, Session: session}, nil
}

func (s *UploadService) discardFile(ctx context.Context, filePath string) {
	if err := s.storage.Delete(ctx, filePath); err != nil {
		s.logger.Warn("[upload] failed to remove stored file %s: %v", filePath, err)
	}
}

// ListDatasets returns the user's datasets, most recently uploaded first.
func (s *UploadService) ListDatasets(ctx context.Context, userID core.ID, limit, offset int) ([]*dataset.Dataset, error) {
	return s.datasets.GetByUserID(ctx, userID, limit, offset)
}

// GetDataset returns one dataset, enforcing ownership.
func (s *UploadService) GetDataset(ctx context.Context, userID, datasetID core.ID) (*dataset.Dataset, error) {
	ds, err := s.datasets.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.UserID != userID {
		return nil, core.ErrDatasetNotFound
	}
	return ds, nil
}

// DeleteDataset removes a dataset row and its stored file. Sessions and
// query logs over the dataset go with it via the cascade.
func (s *UploadService) DeleteDataset(ctx context.Context, userID, datasetID core.ID) error {
	ds, err := s.GetDataset(ctx, userID, datasetID)
	if err != nil {
		return err
	}
	if err := s.datasets.Delete(ctx, ds.ID); err != nil {
		return err
	}
	s.discardFile(ctx, ds.FilePath)
	return nil
}
