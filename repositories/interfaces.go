package repositories

import (
	"context"
	"errors"

	"github.com/microfront/profile-service/models"
)

// ErrUserNotFound is returned when a username has no profile record.
var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts the profile store so handlers work identically
// against the in-memory and PostgreSQL adapters.
type UserRepository interface {
	// GetByUsername retrieves a user. Returns ErrUserNotFound when the
	// username has no record.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpsertDisplayName sets the display name, creating the user record
	// when it does not exist.
	UpsertDisplayName(ctx context.Context, username, displayName string) (*models.User, error)

	// Exists reports whether the username has a record.
	Exists(ctx context.Context, username string) (bool, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error
}
