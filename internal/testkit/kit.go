// Package testkit provides in-memory port implementations and file fixtures
// for exercising the ingestion and query pipelines without postgres.
package testkit

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/domain/dataset"
	"datachat/domain/table"
	"datachat/ports"

	"github.com/xuri/excelize/v2"
)

// MemoryDatasetRepo is an in-memory ports.DatasetRepository
type MemoryDatasetRepo struct {
	mu       sync.Mutex
	datasets map[core.ID]*dataset.Dataset

	// StatusHistory records every persisted status transition, in order
	StatusHistory []dataset.DatasetStatus
}

// NewMemoryDatasetRepo creates an empty in-memory dataset repository
func NewMemoryDatasetRepo() *MemoryDatasetRepo {
	return &MemoryDatasetRepo{datasets: make(map[core.ID]*dataset.Dataset)}
}

func (r *MemoryDatasetRepo) Create(ctx context.Context, ds *dataset.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ds
	r.datasets[ds.ID] = &cp
	r.StatusHistory = append(r.StatusHistory, ds.Status)
	return nil
}

func (r *MemoryDatasetRepo) GetByID(ctx context.Context, id core.ID) (*dataset.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.datasets[id]
	if !ok {
		return nil, core.NewNotFoundError("dataset", id.String())
	}
	cp := *ds
	return &cp, nil
}

func (r *MemoryDatasetRepo) GetByUserID(ctx context.Context, userID core.ID, limit, offset int) ([]*dataset.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*dataset.Dataset
	for _, ds := range r.datasets {
		if ds.UserID == userID {
			cp := *ds
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r *MemoryDatasetRepo) Update(ctx context.Context, ds *dataset.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[ds.ID]; !ok {
		return core.NewNotFoundError("dataset", ds.ID.String())
	}
	cp := *ds
	r.datasets[ds.ID] = &cp
	r.StatusHistory = append(r.StatusHistory, ds.Status)
	return nil
}

func (r *MemoryDatasetRepo) Delete(ctx context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[id]; !ok {
		return core.NewNotFoundError("dataset", id.String())
	}
	delete(r.datasets, id)
	return nil
}

func (r *MemoryDatasetRepo) UpdateStatus(ctx context.Context, id core.ID, status dataset.DatasetStatus, meta dataset.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.datasets[id]
	if !ok {
		return core.NewNotFoundError("dataset", id.String())
	}
	ds.Status = status
	ds.Metadata = meta
	ds.UpdatedAt = time.Now()
	r.StatusHistory = append(r.StatusHistory, status)
	return nil
}

var _ ports.DatasetRepository = (*MemoryDatasetRepo)(nil)

// MemorySessionRepo is an in-memory ports.SessionRepository
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[core.ID]*chat.AnalysisSession
}

// NewMemorySessionRepo creates an empty in-memory session repository
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[core.ID]*chat.AnalysisSession)}
}

func (r *MemorySessionRepo) Create(ctx context.Context, s *chat.AnalysisSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemorySessionRepo) GetByID(ctx context.Context, id core.ID) (*chat.AnalysisSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, core.NewNotFoundError("session", id.String())
	}
	cp := *s
	return &cp, nil
}

func (r *MemorySessionRepo) ListByUser(ctx context.Context, userID core.ID, limit int) ([]*chat.AnalysisSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.AnalysisSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemorySessionRepo) Delete(ctx context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepo) Touch(ctx context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return core.NewNotFoundError("session", id.String())
	}
	s.UpdatedAt = time.Now()
	return nil
}

var _ ports.SessionRepository = (*MemorySessionRepo)(nil)

// MemoryQueryLogRepo is an in-memory ports.QueryLogRepository
type MemoryQueryLogRepo struct {
	mu   sync.Mutex
	logs []*chat.QueryLog

	// CreateErr, when set, makes Create fail; used to exercise the
	// "never crash the conversation" contract.
	CreateErr error
}

// NewMemoryQueryLogRepo creates an empty in-memory query log repository
func NewMemoryQueryLogRepo() *MemoryQueryLogRepo {
	return &MemoryQueryLogRepo{}
}

func (r *MemoryQueryLogRepo) Create(ctx context.Context, log *chat.QueryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *MemoryQueryLogRepo) ListForSession(ctx context.Context, sessionID core.ID) ([]*chat.QueryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*chat.QueryLog
	for _, l := range r.logs {
		if l.SessionID == sessionID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryQueryLogRepo) RecentForSession(ctx context.Context, sessionID core.ID, limit int) ([]*chat.QueryLog, error) {
	all, err := r.ListForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

var _ ports.QueryLogRepository = (*MemoryQueryLogRepo)(nil)

// MemoryUserRepo is an in-memory ports.UserRepository
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[core.ID]*ports.User
}

// NewMemoryUserRepo creates an empty in-memory user repository
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[core.ID]*ports.User)}
}

func (r *MemoryUserRepo) Create(ctx context.Context, u *ports.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, id core.ID) (*ports.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, core.NewNotFoundError("user", id.String())
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepo) GetByUsername(ctx context.Context, username string) (*ports.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.NewNotFoundError("user", username)
}

func (r *MemoryUserRepo) Delete(ctx context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return core.NewNotFoundError("user", id.String())
	}
	delete(r.users, id)
	return nil
}

var _ ports.UserRepository = (*MemoryUserRepo)(nil)

// CountingReader wraps a TableReader and counts storage reads, so cache tests
// can observe whether a hit avoided re-parsing.
type CountingReader struct {
	Inner ports.TableReader

	mu    sync.Mutex
	reads int
}

// NewCountingReader wraps the given reader
func NewCountingReader(inner ports.TableReader) *CountingReader {
	return &CountingReader{Inner: inner}
}

func (c *CountingReader) Read(filePath string) (*table.Frame, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.Inner.Read(filePath)
}

// Reads returns how many times the underlying storage was parsed
func (c *CountingReader) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

var _ ports.TableReader = (*CountingReader)(nil)

// WriteCSV writes a CSV fixture into a temp dir and returns its path
func WriteCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write CSV fixture: %v", err)
	}
	return path
}

// WriteXLSX writes an xlsx fixture (first row is the header) and returns its path
func WriteXLSX(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to build xlsx fixture: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save xlsx fixture: %v", err)
	}
	return path
}
