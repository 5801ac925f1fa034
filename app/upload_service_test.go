package app

import (
	"context"
	"strings"
	"testing"

	"datachat/adapters/storage"
	"datachat/adapters/tabular"
	"datachat/domain/core"
	"datachat/domain/dataset"
	"datachat/internal"
	"datachat/internal/errors"
	"datachat/internal/ingest"
	"datachat/internal/testkit"
	"datachat/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadFixture struct {
	svc      *UploadService
	datasets *testkit.MemoryDatasetRepo
	sessions *testkit.MemorySessionRepo
	store    *storage.LocalFileStorage
	userID   core.ID
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	store, err := storage.NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)

	datasets := testkit.NewMemoryDatasetRepo()
	sessions := testkit.NewMemorySessionRepo()
	ingestor := ingest.NewIngestor(datasets, tabular.NewReader(), logger)

	return &uploadFixture{
		svc: NewUploadService(
			upload.NewValidator(100*1024*1024),
			store, datasets, sessions, ingestor, logger, 255,
		),
		datasets: datasets,
		sessions: sessions,
		store:    store,
		userID:   core.NewID(),
	}
}

func TestUploadHappyPath(t *testing.T) {
	fx := newUploadFixture(t)
	content := "name,age\nalice,30\nbob,25\n"

	result, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader(content), int64(len(content)), "people.csv")
	require.NoError(t, err)

	require.NotNil(t, result.Dataset)
	assert.Equal(t, dataset.StatusReady, result.Dataset.Status)
	assert.Equal(t, 2, result.Dataset.Metadata.RowCount)
	assert.Equal(t, 2, result.Dataset.Metadata.ColumnCount)

	require.NotNil(t, result.Session)
	assert.Equal(t, "Analysis of people.csv", result.Session.Title)
	assert.Equal(t, result.Dataset.ID, result.Session.DatasetID)

	stored, err := fx.datasets.GetByID(context.Background(), result.Dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, dataset.StatusReady, stored.Status)

	// The stored file survives and is readable.
	rc, err := fx.store.GetReader(context.Background(), result.Dataset.FilePath)
	require.NoError(t, err)
	rc.Close()
}

func TestUploadRejectsBlankName(t *testing.T) {
	fx := newUploadFixture(t)

	_, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader("a,b\n1,2\n"), 8, "   ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestUploadRejectsOverlongName(t *testing.T) {
	fx := newUploadFixture(t)
	name := strings.Repeat("x", 300) + ".csv"

	_, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader("a,b\n1,2\n"), 8, name)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestUploadNameCapCountsRunesNotBytes(t *testing.T) {
	fx := newUploadFixture(t)
	// 251 runes + ".csv" = 255 runes, but well over 255 bytes.
	name := strings.Repeat("é", 251) + ".csv"
	content := "a,b\n1,2\n"

	result, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader(content), int64(len(content)), name)
	require.NoError(t, err, "a 255-rune multibyte name must be accepted")
	assert.Equal(t, name, result.Dataset.Name)

	_, err = fx.svc.Upload(context.Background(), fx.userID, strings.NewReader(content), int64(len(content)), strings.Repeat("é", 256)+".csv")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestUploadRejectsDisallowedContent(t *testing.T) {
	fx := newUploadFixture(t)
	// PE header, regardless of the friendly extension.
	content := "MZ\x90\x00\x03\x00\x00\x00"

	_, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader(content), int64(len(content)), "report.csv")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))

	// Nothing was stored or registered.
	list, err := fx.datasets.GetByUserID(context.Background(), fx.userID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadIngestFailureCleansUp(t *testing.T) {
	fx := newUploadFixture(t)
	// Header only: parses but has no data rows, so ingestion fails.
	content := "name,age\n"

	_, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader(content), int64(len(content)), "empty.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyData)

	list, err := fx.datasets.GetByUserID(context.Background(), fx.userID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "failed ingest should leave no dataset row")

	sessions, err := fx.sessions.ListByUser(context.Background(), fx.userID, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestGetDatasetEnforcesOwnership(t *testing.T) {
	fx := newUploadFixture(t)
	content := "a,b\n1,2\n"

	result, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader(content), int64(len(content)), "mine.csv")
	require.NoError(t, err)

	_, err = fx.svc.GetDataset(context.Background(), core.NewID(), result.Dataset.ID)
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))

	ds, err := fx.svc.GetDataset(context.Background(), fx.userID, result.Dataset.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Dataset.ID, ds.ID)
}

func TestDeleteDatasetRemovesStoredFile(t *testing.T) {
	fx := newUploadFixture(t)
	content := "a,b\n1,2\n"

	result, err := fx.svc.Upload(context.Background(), fx.userID, strings.NewReader(content), int64(len(content)), "gone.csv")
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteDataset(context.Background(), fx.userID, result.Dataset.ID))

	_, err = fx.datasets.GetByID(context.Background(), result.Dataset.ID)
	assert.True(t, core.IsNotFoundError(err))

	_, err = fx.store.GetReader(context.Background(), result.Dataset.FilePath)
	assert.Error(t, err)
}
