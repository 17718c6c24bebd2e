package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/microfront/profile-service/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return &config.Config{
		Database: config.DatabaseConfig{
			Adapter: "memory",
		},
		JWT: config.JWTConfig{
			PublicKeyPEM: string(pemBytes),
			Algorithm:    "RS256",
			Audience:     "micro-frontend-service",
			Issuer:       "test-auth-service",
			MaxAge:       time.Hour,
			ClockSkew:    time.Minute,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerMinute: 60,
			Window:            time.Minute,
		},
	}
}

func TestNewDependencies(t *testing.T) {
	t.Run("successful initialization with memory adapter", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.NotNil(t, deps.Config)
		assert.NotNil(t, deps.Logger)
		assert.Nil(t, deps.DB)

		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.Keyset)
		assert.NotNil(t, deps.Validator)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.RateLimit)
		assert.NotNil(t, deps.UserHandler)
		assert.NotNil(t, deps.HealthHandler)

		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("invalid public key fails", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.JWT.PublicKeyPEM = "not a pem"
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, deps)
	})

	t.Run("key and algorithm mismatch fails", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.JWT.Algorithm = "ES256"
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, deps)
	})

	t.Run("unknown adapter fails", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Database.Adapter = "redis"
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, deps)
	})

	t.Run("rate limiter uses the configured window", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.RateLimit.RequestsPerMinute = 1
		cfg.RateLimit.Window = time.Hour

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(ctx)

		first := deps.RateLimit.Check("10.0.0.1")
		require.True(t, first.Allowed)

		second := deps.RateLimit.Check("10.0.0.1")
		require.False(t, second.Allowed)
		assert.Greater(t, time.Until(second.ResetAt), 50*time.Minute)
	})

	t.Run("seeded user is reachable through the repository", func(t *testing.T) {
		ctx := context.Background()
		deps, err := NewDependencies(ctx, testConfig(t), zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(ctx)

		user, err := deps.Users.GetByUsername(ctx, "testuser")
		require.NoError(t, err)
		assert.Equal(t, "Test User", user.DisplayName)
	})
}
