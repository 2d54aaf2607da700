// Package app wires the application together. Dependencies is the central
// dependency-injection point handed to route setup.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/auth"
	"github.com/chapters-studio/portfolio-api/config"
	"github.com/chapters-studio/portfolio-api/keycloak"
	"github.com/chapters-studio/portfolio-api/middleware"
	"github.com/chapters-studio/portfolio-api/repositories"
	"github.com/chapters-studio/portfolio-api/repositories/postgres"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Projects repositories.ProjectRepository
	Feedback repositories.FeedbackRepository
	Users    repositories.UserRepository

	// Auth
	Hasher         *auth.PasswordHasher
	TokenIssuer    *auth.TokenIssuer
	Verifier       auth.TokenVerifier
	KeyProvider    *keycloak.KeyProvider
	KeycloakAdmin  *keycloak.AdminClient // nil when no identity provider is configured
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Projects = postgres.NewProjectRepository(d.DB, d.Logger)
	d.Feedback = postgres.NewFeedbackRepository(d.DB, d.Logger)
	d.Users = postgres.NewUserRepository(d.DB, d.Logger)

	d.Logger.Info("repositories initialized")
}

// initAuth initializes the credential hasher, token codecs and access guard
func (d *Dependencies) initAuth(cfg *config.Config) error {
	d.Hasher = auth.NewPasswordHasher(cfg.JWT.BcryptCost)

	issuer, err := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return err
	}
	d.TokenIssuer = issuer

	// Locally-issued tokens are always accepted; externally-issued tokens
	// only when an identity provider is configured.
	chain := auth.VerifierChain{auth.NewLocalVerifier(issuer)}

	if cfg.Keycloak.Enabled() {
		d.KeyProvider = keycloak.NewKeyProvider(keycloak.KeyProviderConfig{
			JWKSURL:     cfg.Keycloak.JWKSURL(),
			CacheTTL:    cfg.Keycloak.JWKSCacheTTL,
			HTTPTimeout: cfg.Keycloak.HTTPTimeout,
		}, d.Logger)

		chain = append(chain, keycloak.NewValidator(
			d.KeyProvider,
			cfg.Keycloak.ClientID,
			cfg.Keycloak.Issuer(),
			d.Logger,
		))

		d.KeycloakAdmin = keycloak.NewAdminClient(keycloak.AdminClientConfig{
			TokenURL:      cfg.Keycloak.TokenURL(),
			AdminUsersURL: cfg.Keycloak.AdminUsersURL(),
			ClientID:      cfg.Keycloak.ClientID,
			ClientSecret:  cfg.Keycloak.ClientSecret,
			HTTPTimeout:   cfg.Keycloak.HTTPTimeout,
		}, d.Logger)

		d.Logger.Info("identity provider configured",
			zap.String("issuer", cfg.Keycloak.Issuer()))
	}

	d.Verifier = chain

	if cfg.DisableAuth {
		d.Logger.Warn("authentication is DISABLED; all requests are admitted")
		d.AuthMiddleware = middleware.NewBypassAuthMiddleware(d.Logger)
	} else {
		d.AuthMiddleware = middleware.NewAuthMiddleware(chain, d.Logger)
	}

	return nil
}

// Close releases held resources
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
