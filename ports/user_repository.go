package ports

import (
	"context"

	"datachat/domain/core"
)

// User is the minimal ownership record other entities reference
type User struct {
	ID       core.ID `json:"id" db:"id"`
	Username string  `json:"username" db:"username"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id core.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Delete(ctx context.Context, id core.ID) error
}
