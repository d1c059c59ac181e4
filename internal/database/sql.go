package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// SQLDB adapts a database/sql handle to the DB interface, for callers
// that hand the engine their existing *sql.DB instead of a pgx pool.
type SQLDB struct {
	db *sql.DB
}

var _ DB = (*SQLDB)(nil)

// WrapSQL wraps an existing database/sql handle.
func WrapSQL(db *sql.DB) *SQLDB {
	return &SQLDB{db: db}
}

// OpenSQL opens a database/sql handle through the pgx stdlib driver
// and pings the database to verify connectivity.
func OpenSQL(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return db, nil
}

func (d *SQLDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := d.db.ExecContext(ctx, query, args...)

	return err
}

func (d *SQLDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &sqlRows{rows: rows}, nil
}

func (d *SQLDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{row: d.db.QueryRowContext(ctx, query, args...)}
}

func (d *SQLDB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &sqlTx{tx: tx}, nil
}

func (d *SQLDB) Close() {
	_ = d.db.Close()
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool {
	return r.rows.Next()
}

func (r *sqlRows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

func (r *sqlRows) Err() error {
	return r.rows.Err()
}

func (r *sqlRows) Close() {
	_ = r.rows.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

var _ Tx = (*sqlTx)(nil)

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, query, args...)

	return err
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &sqlRows{rows: rows}, nil
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{row: t.tx.QueryRowContext(ctx, query, args...)}
}

// sqlRow normalizes database/sql's no-rows sentinel so callers only
// ever match against ErrNoRows.
type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}

	return err
}

// Commit ignores the context; database/sql commits without one.
func (t *sqlTx) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(context.Context) error {
	return t.tx.Rollback()
}
