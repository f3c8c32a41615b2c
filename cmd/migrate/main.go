package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status]

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"certify-backend/internal/shared/config"
	"certify-backend/internal/shared/storage/db"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := run(ctx, command, sqlDB); err != nil {
		log.Printf("migrate %s: %v", command, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, sqlDB *sql.DB) error {
	switch command {
	case "up":
		return db.RunMigrations(ctx, sqlDB)
	case "down":
		return db.RollbackMigration(ctx, sqlDB)
	case "status":
		return db.MigrationStatus(ctx, sqlDB)
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", command)
	}
}
