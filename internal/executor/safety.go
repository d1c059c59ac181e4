package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/schemanaut/schemanaut/internal/database"
)

// SetLockTimeout sets a transaction-local lock_timeout so DDL fails fast
// instead of queueing behind long-running queries. SET LOCAL expires with
// the transaction, leaving the session untouched.
func SetLockTimeout(ctx context.Context, q database.Querier, timeout time.Duration) error {
	sql := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())

	if err := q.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting lock_timeout: %w", err)
	}

	return nil
}

// SetStatementTimeout sets a transaction-local statement_timeout so a
// runaway statement cannot hold locks indefinitely.
func SetStatementTimeout(ctx context.Context, q database.Querier, timeout time.Duration) error {
	sql := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", timeout.Milliseconds())

	if err := q.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting statement_timeout: %w", err)
	}

	return nil
}
