// Package snapshot turns declarative schema definitions into canonical,
// serializable snapshots. Snapshots are the only currency of the diff
// engine and the unit of storage in the bookkeeping tables: equality of
// their content hashes is what lets a migration run short-circuit.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/schemanaut/schemanaut/internal/schema"
)

// FormatVersion identifies the serialized snapshot shape. Stored alongside
// every snapshot; loads of a different version fail instead of guessing.
const FormatVersion = "1"

// DialectPostgres is the only dialect the generator emits today.
const DialectPostgres = "postgresql"

// Snapshot is the canonical description of one plugin's tables at a point
// in time. All collections are keyed by name so serialization is
// independent of declaration order.
type Snapshot struct {
	Version string           `json:"version"`
	Dialect string           `json:"dialect"`
	Tables  map[string]Table `json:"tables"`
}

// Table is the canonical form of a single table.
type Table struct {
	Columns           map[string]Column     `json:"columns"`
	Indexes           map[string]Index      `json:"indexes"`
	ForeignKeys       map[string]ForeignKey `json:"foreignKeys"`
	UniqueConstraints map[string]Unique     `json:"uniqueConstraints"`
	CheckConstraints  map[string]Check      `json:"checkConstraints"`
}

// PrimaryKeyColumns lists the names of the primary key columns in
// sorted order, or nil when the table has no primary key.
func (t Table) PrimaryKeyColumns() []string {
	var cols []string
	for _, name := range slices.Sorted(maps.Keys(t.Columns)) {
		if t.Columns[name].PrimaryKey {
			cols = append(cols, name)
		}
	}

	return cols
}

// Column is the canonical form of a column definition.
type Column struct {
	Type       schema.ColumnType `json:"type"`
	Nullable   bool              `json:"nullable"`
	Default    string            `json:"default,omitempty"`
	PrimaryKey bool              `json:"primaryKey,omitempty"`
}

// Index is the canonical form of an index. Column order is significant.
type Index struct {
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// ForeignKey is the canonical form of a foreign key constraint.
type ForeignKey struct {
	Columns    []string         `json:"columns"`
	RefTable   string           `json:"refTable"`
	RefColumns []string         `json:"refColumns"`
	OnDelete   schema.RefAction `json:"onDelete,omitempty"`
	OnUpdate   schema.RefAction `json:"onUpdate,omitempty"`
}

// Unique is the canonical form of a unique constraint.
type Unique struct {
	Columns []string `json:"columns"`
}

// Check is the canonical form of a check constraint.
type Check struct {
	Expression string `json:"expression"`
}

// Marshal serializes the snapshot to its canonical JSON form. The output
// is byte-identical for structurally equal snapshots: map keys are emitted
// in sorted order and struct fields in declaration order.
func Marshal(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	return data, nil
}

// Parse deserializes a stored snapshot and upgrades it to the current
// format. Unknown format versions are rejected with ErrFormatVersion.
func Parse(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}

	if err := upgradeFormat(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

// Hash returns the SHA-256 hex digest of the snapshot's canonical form.
func Hash(s *Snapshot) (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

// upgradeFormat migrates older serialized shapes to the current one.
// Version 1 is the first published format, so today this only rejects
// snapshots written by a newer (or corrupted) engine.
func upgradeFormat(s *Snapshot) error {
	if s.Version != FormatVersion {
		return fmt.Errorf("%w: stored=%q supported=%q", ErrFormatVersion, s.Version, FormatVersion)
	}

	return nil
}
