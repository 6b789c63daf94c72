package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"log"
	"os"

	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Printf("invalid DB_DRIVER: %v", err)
		os.Exit(1)
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, dialect, cfg.DSN(), opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
