package migration

import (
	"context"

	"datachat/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createUsersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.createDatasetsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create datasets table")
	}

	if err := r.createAnalysisSessionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_sessions table")
	}

	if err := r.createQueryLogsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create query_logs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.insertDefaultUser(ctx, db); err != nil {
		return errors.Wrap(err, "failed to insert default user")
	}

	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(100) UNIQUE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createDatasetsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS datasets (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			file_path TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			metadata JSONB,
			uploaded_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createAnalysisSessionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createQueryLogsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS query_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES analysis_sessions(id) ON DELETE CASCADE,
			prompt TEXT NOT NULL,
			response_text TEXT,
			response_plot JSONB,
			status VARCHAR(20) NOT NULL DEFAULT 'success',
			error_message TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_datasets_user_id ON datasets(user_id);
		CREATE INDEX IF NOT EXISTS idx_datasets_status ON datasets(status);
		CREATE INDEX IF NOT EXISTS idx_analysis_sessions_user_id ON analysis_sessions(user_id);
		CREATE INDEX IF NOT EXISTS idx_analysis_sessions_dataset_id ON analysis_sessions(dataset_id);
		CREATE INDEX IF NOT EXISTS idx_query_logs_session_id ON query_logs(session_id);
		CREATE INDEX IF NOT EXISTS idx_query_logs_created_at ON query_logs(session_id, created_at DESC)
	`)
	return err
}

func (r *MigrationRunner) insertDefaultUser(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, username)
		VALUES ('00000000-0000-0000-0000-000000000001', 'default')
		ON CONFLICT (username) DO NOTHING
	`)
	return err
}
