// Package diff computes the structural change set between two schema
// snapshots. Changes are bucketed by object kind so the SQL generator
// can emit statements in dependency order.
package diff

import "github.com/schemanaut/schemanaut/internal/snapshot"

// Diff holds every change between a previous and a current snapshot.
//
// Objects belonging to a created table are reported twice: the table
// itself carries its full definition, and its indexes and foreign keys
// additionally land in the created buckets so cross-table creation can
// be ordered globally. Foreign keys of deleted tables land in the
// deleted bucket for the same reason; their indexes do not, since a
// DROP TABLE removes them implicitly.
type Diff struct {
	CreatedTables []TableChange
	DeletedTables []TableChange

	AddedColumns    []ColumnChange
	DeletedColumns  []ColumnChange
	ModifiedColumns []ColumnModification

	CreatedIndexes []IndexChange
	DeletedIndexes []IndexChange
	AlteredIndexes []IndexModification

	CreatedForeignKeys []ForeignKeyChange
	DeletedForeignKeys []ForeignKeyChange
	AlteredForeignKeys []ForeignKeyModification

	CreatedUniques []UniqueChange
	DeletedUniques []UniqueChange

	CreatedChecks []CheckChange
	DeletedChecks []CheckChange

	PrimaryKeyChanges []PrimaryKeyChange
}

// TableChange names a created or deleted table together with its
// definition at the relevant point in time.
type TableChange struct {
	Name  string
	Table snapshot.Table
}

// ColumnChange names an added or deleted column.
type ColumnChange struct {
	Table  string
	Name   string
	Column snapshot.Column
}

// ColumnModification records an in-place column change. Primary key
// membership is excluded; it is tracked per table in PrimaryKeyChange.
type ColumnModification struct {
	Table string
	Name  string
	From  snapshot.Column
	To    snapshot.Column
}

// IndexChange names a created or deleted index.
type IndexChange struct {
	Table string
	Name  string
	Index snapshot.Index
}

// IndexModification records an index whose columns or uniqueness
// changed. It is applied as a drop followed by a create.
type IndexModification struct {
	Table string
	Name  string
	From  snapshot.Index
	To    snapshot.Index
}

// ForeignKeyChange names a created or deleted foreign key constraint.
type ForeignKeyChange struct {
	Table      string
	Name       string
	ForeignKey snapshot.ForeignKey
}

// ForeignKeyModification records a foreign key whose columns, target,
// or referential actions changed. It is applied as a drop followed by
// an add.
type ForeignKeyModification struct {
	Table string
	Name  string
	From  snapshot.ForeignKey
	To    snapshot.ForeignKey
}

// UniqueChange names a created or deleted unique constraint. A unique
// constraint whose columns change is reported as a delete plus a
// create.
type UniqueChange struct {
	Table  string
	Name   string
	Unique snapshot.Unique
}

// CheckChange names a created or deleted check constraint. A check
// whose expression changes is reported as a delete plus a create.
type CheckChange struct {
	Table string
	Name  string
	Check snapshot.Check
}

// PrimaryKeyChange records that the primary key column set of a table
// changed. Column names are sorted.
type PrimaryKeyChange struct {
	Table string
	From  []string
	To    []string
}

// HasChanges reports whether the diff contains any change at all.
func (d *Diff) HasChanges() bool {
	return d.Total() > 0
}

// Total counts the changes across all buckets.
func (d *Diff) Total() int {
	return len(d.CreatedTables) + len(d.DeletedTables) +
		len(d.AddedColumns) + len(d.DeletedColumns) + len(d.ModifiedColumns) +
		len(d.CreatedIndexes) + len(d.DeletedIndexes) + len(d.AlteredIndexes) +
		len(d.CreatedForeignKeys) + len(d.DeletedForeignKeys) + len(d.AlteredForeignKeys) +
		len(d.CreatedUniques) + len(d.DeletedUniques) +
		len(d.CreatedChecks) + len(d.DeletedChecks) +
		len(d.PrimaryKeyChanges)
}
