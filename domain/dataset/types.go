package dataset

import (
	"time"

	"datachat/domain/core"
)

// DatasetStatus represents the processing state of a dataset
type DatasetStatus string

const (
	StatusPending    DatasetStatus = "pending"
	StatusProcessing DatasetStatus = "processing"
	StatusReady      DatasetStatus = "ready"
	StatusError      DatasetStatus = "error"
)

// Dataset represents a stored, user-owned tabular file and its schema summary
type Dataset struct {
	ID     core.ID `json:"id" db:"id"`
	UserID core.ID `json:"user_id" db:"user_id"`

	Name     string `json:"name" db:"name"`
	FilePath string `json:"file_path" db:"file_path"`
	FileSize int64  `json:"file_size" db:"file_size"`

	Status   DatasetStatus `json:"status" db:"status"`
	Metadata Metadata      `json:"metadata" db:"metadata"`

	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Metadata is the schema summary derived at ingestion time. It holds either a
// complete profile (status ready) or an error payload (status error) - never
// raw row data and never a partial mix of the two.
type Metadata struct {
	RowCount      int          `json:"row_count,omitempty"`
	ColumnCount   int          `json:"column_count,omitempty"`
	Columns       []ColumnInfo `json:"columns,omitempty"`
	FileSizeBytes int64        `json:"file_size_bytes,omitempty"`
	ParseWarnings []string     `json:"parse_warnings"`
	Error         string       `json:"error,omitempty"`
}

// ColumnInfo describes a single column in the dataset
type ColumnInfo struct {
	Name         string        `json:"name"`
	DataType     ColumnType    `json:"data_type"`
	NullCount    int           `json:"null_count"`
	SampleValues []string      `json:"sample_values,omitempty"`
	Numeric      *NumericStats `json:"numeric,omitempty"`
}

// ColumnType is the inferred data type of a column
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeBoolean     ColumnType = "boolean"
	TypeTimestamp   ColumnType = "timestamp"
	TypeCategorical ColumnType = "categorical"
	TypeText        ColumnType = "text"
)

// NumericStats summarizes the distribution of a numeric column
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Skew   float64 `json:"skew"`
}

// NewDataset creates a pending dataset owned by the given user
func NewDataset(userID core.ID, name, filePath string, fileSize int64) *Dataset {
	now := time.Now()
	return &Dataset{
		ID:         core.NewID(),
		UserID:     userID,
		Name:       name,
		FilePath:   filePath,
		FileSize:   fileSize,
		Status:     StatusPending,
		Metadata:   Metadata{ParseWarnings: []string{}},
		UploadedAt: now,
		UpdatedAt:  now,
	}
}

// IsReady returns true if the dataset can be queried
func (d *Dataset) IsReady() bool {
	return d.Status == StatusReady
}

// MarkProcessing transitions the dataset into the processing state
func (d *Dataset) MarkProcessing() {
	d.Status = StatusProcessing
	d.UpdatedAt = time.Now()
}

// MarkReady records a complete schema summary and transitions to ready
func (d *Dataset) MarkReady(meta Metadata) {
	d.Metadata = meta
	d.Status = StatusReady
	d.UpdatedAt = time.Now()
}

// MarkError replaces the metadata with an error payload and transitions to error
func (d *Dataset) MarkError(msg string) {
	d.Metadata = Metadata{
		Error:         msg,
		ParseWarnings: []string{msg},
	}
	d.Status = StatusError
	d.UpdatedAt = time.Now()
}
