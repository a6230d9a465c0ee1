// Command migrate applies or inspects the embedded schema migrations.
//
// Usage:
//
//	migrate [up|down|reset|status|version]
//
// The database is taken from the same configuration as the server.
package main

import (
	"log/slog"
	"os"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	logging.Setup("")

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	d, err := sqlstore.ParseDialect(cfg.Database.Driver)
	if err != nil {
		slog.Error("Unsupported database driver", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}

	db, err := sqlstore.Open(d, cfg.Database.DSN)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := sqlstore.Migrate(db, d, command); err != nil {
		slog.Error("Migration failed", "command", command, "error", err)
		db.Close()
		os.Exit(1)
	}
	slog.Info("Migration finished", "command", command)
}
