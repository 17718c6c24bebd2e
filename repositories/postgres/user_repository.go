package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/microfront/profile-service/models"
	"github.com/microfront/profile-service/repositories"
	"go.uber.org/zap"
)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT username, display_name, updated_at
		FROM users
		WHERE username = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username,
		&user.DisplayName,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpsertDisplayName sets the display name for a user, creating the row if needed
func (r *UserRepository) UpsertDisplayName(ctx context.Context, username, displayName string) (*models.User, error) {
	query := `
		INSERT INTO users (username, display_name, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username)
		DO UPDATE SET display_name = EXCLUDED.display_name,
		              updated_at = EXCLUDED.updated_at
		RETURNING username, display_name, updated_at
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username, displayName, time.Now().UTC()).Scan(
		&user.Username,
		&user.DisplayName,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert display name: %w", err)
	}

	r.logger.Debug("display name updated", zap.String("username", username))
	return user, nil
}

// Exists reports whether a user with the given username exists
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

// HealthCheck verifies the underlying database connection
func (r *UserRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
