package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"datachat/domain/core"
	"datachat/domain/dataset"
	"datachat/ports"

	"github.com/jmoiron/sqlx"
)

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB) ports.DatasetRepository {
	return &datasetRepository{db: db}
}

const datasetColumns = `id, user_id, name, file_path, file_size, status, metadata, uploaded_at, updated_at`

// Create inserts a new dataset into the database
func (r *datasetRepository) Create(ctx context.Context, ds *dataset.Dataset) error {
	metadataJSON, err := json.Marshal(ds.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `INSERT INTO datasets (` + datasetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		ds.ID, ds.UserID, ds.Name, ds.FilePath, ds.FileSize,
		ds.Status, metadataJSON, ds.UploadedAt, ds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	return nil
}

// GetByID retrieves a dataset by its ID
func (r *datasetRepository) GetByID(ctx context.Context, id core.ID) (*dataset.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = $1`

	ds, err := r.scanDataset(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("dataset", id.String())
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// GetByUserID retrieves datasets for a specific user, newest first
func (r *datasetRepository) GetByUserID(ctx context.Context, userID core.ID, limit, offset int) ([]*dataset.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets
		WHERE user_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryxContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*dataset.Dataset
	for rows.Next() {
		ds, err := r.scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, rows.Err()
}

// Update modifies an existing dataset
func (r *datasetRepository) Update(ctx context.Context, ds *dataset.Dataset) error {
	metadataJSON, err := json.Marshal(ds.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `UPDATE datasets SET
		name = $2, file_path = $3, file_size = $4, status = $5,
		metadata = $6, updated_at = $7
	WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		ds.ID, ds.Name, ds.FilePath, ds.FileSize, ds.Status, metadataJSON, ds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}

	return requireRow(result, "dataset", ds.ID)
}

// Delete removes a dataset; sessions and query logs cascade in the schema
func (r *datasetRepository) Delete(ctx context.Context, id core.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return requireRow(result, "dataset", id)
}

// UpdateStatus updates only the status and metadata of a dataset
func (r *datasetRepository) UpdateStatus(ctx context.Context, id core.ID, status dataset.DatasetStatus, meta dataset.Metadata) error {
	metadataJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `UPDATE datasets SET status = $2, metadata = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to update dataset status: %w", err)
	}
	return requireRow(result, "dataset", id)
}

// rowScanner covers both QueryRowx and rows iteration
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *datasetRepository) scanDataset(row rowScanner) (*dataset.Dataset, error) {
	var ds dataset.Dataset
	var metadataJSON []byte

	err := row.Scan(
		&ds.ID, &ds.UserID, &ds.Name, &ds.FilePath, &ds.FileSize,
		&ds.Status, &metadataJSON, &ds.UploadedAt, &ds.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &ds.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &ds, nil
}

func requireRow(result sql.Result, resource string, id core.ID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.NewNotFoundError(resource, id.String())
	}
	return nil
}
