package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/lexis/internal/platform/migrate"
	"github.com/phrazzld/lexis/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds database setup in tests.
const TestTimeout = 10 * time.Second

var (
	once     sync.Once
	shared   *sql.DB
	setupErr error
)

// DatabaseURL returns the database URL for tests, or "" when none is set.
func DatabaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	return os.Getenv("LEXIS_TEST_DB_URL")
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return DatabaseURL() != ""
}

// Open returns a migrated connection shared by every test in the process,
// skipping t when no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	if !IsIntegrationTestEnvironment() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()

		db, err := postgres.Open(ctx, DatabaseURL())
		if err != nil {
			setupErr = err
			return
		}
		if err := postgres.Migrate(ctx, db, migrate.Up, nil); err != nil {
			_ = db.Close()
			setupErr = err
			return
		}
		shared = db
	})
	require.NoError(t, setupErr, "test database setup failed")
	return shared
}

// WithTx runs fn inside a transaction that is rolled back afterwards.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
