// Package database provides the narrow connection surface the engine
// runs on. The engine only ever executes statements, scans rows, and
// opens transactions, so those three capabilities are the whole
// interface; both a native pgx pool and a database/sql handle satisfy
// it, and tests swap in fakes.
package database

import (
	"context"
	"fmt"
)

// Row is a single-row query result.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a multi-row query result.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier executes SQL. Both database handles and open transactions
// implement it, so bookkeeping code runs identically in and out of a
// transaction.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

// Tx is a transaction-scoped Querier.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is a database handle that can open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Close()
}

// WithTx runs fn inside a transaction. On success the transaction is
// committed; on error it is rolled back.
func WithTx(ctx context.Context, db DB, fn func(tx Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback on committed tx returns ErrTxClosed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
