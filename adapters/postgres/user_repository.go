package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"datachat/domain/core"
	"datachat/ports"

	"github.com/jmoiron/sqlx"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *ports.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, created_at) VALUES ($1, $2, NOW())
	`, user.ID, user.Username)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id core.ID) (*ports.User, error) {
	var user ports.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username FROM users WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("user", id.String())
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*ports.User, error) {
	var user ports.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username FROM users WHERE username = $1`, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("user", username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Delete(ctx context.Context, id core.ID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(result, "user", id)
}
