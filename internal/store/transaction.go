package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lexis/internal/platform/logger"
)

// TxFn is the unit of work run by RunInTransaction. Stores bound to tx with
// their WithTx method see each other's writes before commit.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction on db. A nil return commits;
// an error or a panic rolls back. Rollback failures are joined to the
// error fn returned, which stays matchable with errors.Is.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContextOrDefault(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.ErrorContext(ctx, "transaction begin failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.ErrorContext(ctx, "rollback after panic failed",
				slog.Any("panic", p),
				slog.String("rollback_error", rbErr.Error()))
		} else {
			log.ErrorContext(ctx, "transaction rolled back after panic", slog.Any("panic", p))
		}
		// ALLOW-PANIC: Propagating caught panic from transaction
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		return rollback(ctx, log, tx, err)
	}

	if err := tx.Commit(); err != nil {
		log.ErrorContext(ctx, "transaction commit failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	log.DebugContext(ctx, "transaction committed")
	return nil
}

// rollback undoes tx after cause and returns cause, joined with the
// rollback error when that fails too.
func rollback(ctx context.Context, log *slog.Logger, tx *sql.Tx, cause error) error {
	rbErr := tx.Rollback()
	if rbErr == nil || errors.Is(rbErr, sql.ErrTxDone) {
		log.DebugContext(ctx, "transaction rolled back", slog.String("cause", cause.Error()))
		return cause
	}
	log.ErrorContext(ctx, "transaction rollback failed",
		slog.String("cause", cause.Error()),
		slog.String("rollback_error", rbErr.Error()))
	return errors.Join(cause, fmt.Errorf("%w: rollback: %v", ErrTransactionFailed, rbErr))
}
