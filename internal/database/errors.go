package database

import "errors"

// ErrInvalidDatabaseURL indicates the provided database URL could not be parsed.
var ErrInvalidDatabaseURL = errors.New("invalid database URL")

// ErrConnectionFailed indicates a connection to the database could not be established.
var ErrConnectionFailed = errors.New("database connection failed")

// ErrNoRows is returned by Row.Scan when the query matched no rows,
// whichever adapter produced the row.
var ErrNoRows = errors.New("no rows in result set")
