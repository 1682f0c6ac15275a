// Package migrate runs goose migrations embedded by the storage drivers.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

// Table is the goose version table.
const Table = "schema_migrations"

// Dir is the directory inside a driver's embedded FS holding its migrations.
const Dir = "migrations"

// Commands understood by Run.
const (
	Up      = "up"
	Down    = "down"
	Status  = "status"
	Version = "version"
)

// goose keeps its configuration in package globals.
var mu sync.Mutex

// slogGooseLogger forwards goose output to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs without exiting so the caller decides how to fail.
func (l slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Run executes command against db for the given goose dialect using the
// migrations under Dir in fsys.
func Run(ctx context.Context, db *sql.DB, dialect string, fsys fs.FS, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetLogger(slogGooseLogger{logger: logger.With("component", "migrations", "dialect", dialect)})
	goose.SetBaseFS(fsys)
	goose.SetTableName(Table)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	var err error
	switch command {
	case Up:
		err = goose.UpContext(ctx, db, Dir)
	case Down:
		err = goose.DownContext(ctx, db, Dir)
	case Status:
		err = goose.StatusContext(ctx, db, Dir)
	case Version:
		err = goose.VersionContext(ctx, db, Dir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
