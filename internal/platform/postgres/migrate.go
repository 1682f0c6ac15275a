package postgres

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"

	"github.com/phrazzld/lexis/internal/platform/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate runs a goose command (see package migrate) with the embedded
// PostgreSQL migrations.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	return migrate.Run(ctx, db, "postgres", migrationFS, command, logger)
}
