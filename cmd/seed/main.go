// seed inserts development sample data for local testing: go run ./cmd/seed.
// Idempotent: skips everything if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"org-access-api/backend/internal/config"
	"org-access-api/backend/internal/db"
	identitydomain "org-access-api/backend/internal/identity/domain"
	identityrepo "org-access-api/backend/internal/identity/repository"
	identityservice "org-access-api/backend/internal/identity/service"
	organizationrepo "org-access-api/backend/internal/organization/repository"
	organizationservice "org-access-api/backend/internal/organization/service"
	"org-access-api/backend/internal/platform/logging"
	"org-access-api/backend/internal/platform/rbac"
	"org-access-api/backend/internal/security"
	userrepo "org-access-api/backend/internal/user/repository"
)

const (
	devPassword = "password123"
	devOrgName  = "Acme Dev"
)

var (
	devUser = identitydomain.Profile{
		FirstName: "Dev",
		LastName:  "User",
		Email:     "dev@example.com",
		Password:  devPassword,
		Phone:     "+15550000001",
	}
	memberUser = identitydomain.Profile{
		FirstName: "Member",
		LastName:  "User",
		Email:     "member@example.com",
		Password:  devPassword,
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.RequireServing(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(false, cfg.Level())
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := seed(ctx, cfg, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	tokens, err := security.NewTokenProviderFromPEM(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		return fmt.Errorf("jwt keys: %w", err)
	}

	users := userrepo.NewPostgresRepository(database)
	orgs := organizationrepo.NewPostgresRepository(database)
	existing, err := users.GetByEmail(ctx, devUser.Email)
	if err != nil {
		return fmt.Errorf("lookup dev user: %w", err)
	}
	if existing != nil {
		log.Info("dev user already exists, skipping", zap.String("email", devUser.Email))
		return nil
	}

	auth := identityservice.NewAuthService(users, identityrepo.NewPostgresRepository(database), security.NewHasher(cfg.BcryptCost), tokens, nil)
	orgSvc := organizationservice.NewOrganizationService(orgs, rbac.NewEvaluator(orgs, nil), nil)

	dev, err := auth.Register(ctx, devUser)
	if err != nil {
		return fmt.Errorf("register %s: %w", devUser.Email, err)
	}
	member, err := auth.Register(ctx, memberUser)
	if err != nil {
		return fmt.Errorf("register %s: %w", memberUser.Email, err)
	}
	org, err := orgSvc.Create(ctx, dev.User.ID, devOrgName, "Sample organisation for local development")
	if err != nil {
		return fmt.Errorf("create organisation: %w", err)
	}
	if err := orgSvc.AddMember(ctx, dev.User.ID, org.ID, member.User.ID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	log.Info("seed complete",
		zap.String("dev_user", dev.User.Email),
		zap.String("member_user", member.User.Email),
		zap.String("org_id", org.ID),
		zap.String("password", devPassword),
	)
	return nil
}
