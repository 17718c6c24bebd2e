// Package memory provides an in-memory UserRepository used for local
// development and tests, mirroring the persistent adapter's behavior.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/microfront/profile-service/models"
	"github.com/microfront/profile-service/repositories"
)

// UserRepository is a map-backed profile store. Safe for concurrent use.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

// NewUserRepository creates an in-memory store seeded with a test user,
// matching the development seed of the persistent adapter.
func NewUserRepository() *UserRepository {
	r := &UserRepository{
		users: make(map[string]models.User),
		now:   time.Now,
	}
	r.users["testuser"] = models.User{
		Username:    "testuser",
		DisplayName: "Test User",
		UpdatedAt:   r.now().UTC(),
	}
	return r
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &user, nil
}

// UpsertDisplayName sets the display name, creating the record if needed.
func (r *UserRepository) UpsertDisplayName(_ context.Context, username, displayName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := models.User{
		Username:    username,
		DisplayName: displayName,
		UpdatedAt:   r.now().UTC(),
	}
	r.users[username] = user
	return &user, nil
}

// Exists reports whether the username has a record.
func (r *UserRepository) Exists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[username]
	return ok, nil
}

// HealthCheck always succeeds for the in-memory store.
func (r *UserRepository) HealthCheck(context.Context) error {
	return nil
}
