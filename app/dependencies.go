package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/microfront/profile-service/config"
	"github.com/microfront/profile-service/handlers"
	"github.com/microfront/profile-service/jwtauth"
	"github.com/microfront/profile-service/middleware"
	"github.com/microfront/profile-service/repositories"
	"github.com/microfront/profile-service/repositories/memory"
	"github.com/microfront/profile-service/repositories/postgres"
	"github.com/microfront/profile-service/services/ratelimit"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// User store
	Users repositories.UserRepository

	// Auth
	Keyset         *jwtauth.Keyset
	Validator      *jwtauth.Validator
	AuthMiddleware *middleware.AuthMiddleware

	// Rate limiting
	RateLimit *ratelimit.Service

	// Handlers
	UserHandler   *handlers.UserHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initUserStore(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize user store: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initUserStore selects the user repository by the configured adapter
func (d *Dependencies) initUserStore(cfg *config.Config) error {
	switch cfg.Database.Adapter {
	case "postgres":
		db, err := postgres.NewDB(cfg.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		d.DB = db
		d.Users = postgres.NewUserRepository(db, d.Logger)
		d.Logger.Info("using postgres user store")
	case "memory":
		d.Users = memory.NewUserRepository()
		d.Logger.Info("using in-memory user store")
	default:
		return fmt.Errorf("unknown database adapter: %s", cfg.Database.Adapter)
	}
	return nil
}

// initAuth builds the verification keyset, validator, rate limiter, and
// auth middleware. A bad key or bad JWT settings is a startup failure.
func (d *Dependencies) initAuth(cfg *config.Config) error {
	keyset, err := jwtauth.NewKeyset(jwtauth.KeysetConfig{
		PublicKeyPEM: cfg.JWT.PublicKeyPEM,
		Algorithm:    cfg.JWT.Algorithm,
		Audience:     cfg.JWT.Audience,
		Issuer:       cfg.JWT.Issuer,
		MaxAge:       cfg.JWT.MaxAge,
		ClockSkew:    cfg.JWT.ClockSkew,
	})
	if err != nil {
		return fmt.Errorf("failed to build keyset: %w", err)
	}

	d.Keyset = keyset
	d.Validator = jwtauth.NewValidator(keyset)
	d.RateLimit = ratelimit.NewService(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Window, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Validator, d.RateLimit, d.Logger)

	d.Logger.Info("auth initialized",
		zap.String("algorithm", keyset.Algorithm()),
		zap.String("audience", keyset.Audience()),
		zap.String("issuer", keyset.Issuer()))
	return nil
}

func (d *Dependencies) initHandlers() {
	d.UserHandler = handlers.NewUserHandler(d.Users, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.Users, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
