package diff

import "errors"

var (
	// ErrNoCurrent indicates Compute was called without a current
	// snapshot.
	ErrNoCurrent = errors.New("current snapshot is required")

	// ErrVersionMismatch indicates the two snapshots use different
	// serialization format versions and cannot be compared.
	ErrVersionMismatch = errors.New("snapshot format versions differ")

	// ErrDialectMismatch indicates the two snapshots were generated
	// for different SQL dialects and cannot be compared.
	ErrDialectMismatch = errors.New("snapshot dialects differ")
)
