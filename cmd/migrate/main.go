// Command migrate applies the embedded users/organisations/audit_logs schema to DATABASE_URL.
//
//	go run ./cmd/migrate              # up
//	go run ./cmd/migrate -direction down
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"org-access-api/backend/internal/config"
	"org-access-api/backend/internal/db/migrate"
	"org-access-api/backend/internal/platform/logging"
)

func main() {
	direction := flag.String("direction", "up", "up applies every pending migration, down reverts them all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.IsProduction(), cfg.Level())
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.DatabaseURL == "" {
		log.Fatal("migrate: DATABASE_URL must be set")
	}

	start := time.Now()
	// Run treats "already at target version" as success.
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.Fatal("migrate failed", zap.String("direction", *direction), zap.Error(err))
	}
	log.Info("schema migrated", zap.String("direction", *direction), zap.Duration("took", time.Since(start)))
}
