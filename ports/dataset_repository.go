package ports

import (
	"context"

	"datachat/domain/core"
	"datachat/domain/dataset"
)

// DatasetRepository defines the interface for dataset storage operations
type DatasetRepository interface {
	Create(ctx context.Context, ds *dataset.Dataset) error
	GetByID(ctx context.Context, id core.ID) (*dataset.Dataset, error)
	GetByUserID(ctx context.Context, userID core.ID, limit, offset int) ([]*dataset.Dataset, error)
	Update(ctx context.Context, ds *dataset.Dataset) error
	Delete(ctx context.Context, id core.ID) error

	// UpdateStatus persists only the status and metadata columns. Used by the
	// ingestor so the processing transition is observable before parsing starts.
	UpdateStatus(ctx context.Context, id core.ID, status dataset.DatasetStatus, meta dataset.Metadata) error
}
