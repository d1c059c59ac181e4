package diff

import (
	"fmt"
	"maps"
	"slices"

	"github.com/schemanaut/schemanaut/internal/snapshot"
)

// Compute diffs the previous snapshot against the current one. A nil
// previous snapshot means nothing has been applied yet and every table
// in the current snapshot is reported as created. Iteration is over
// sorted object names, so the same pair of snapshots always produces
// the same diff.
func Compute(prev, curr *snapshot.Snapshot) (*Diff, error) {
	if curr == nil {
		return nil, ErrNoCurrent
	}

	if prev != nil {
		if prev.Version != curr.Version {
			return nil, fmt.Errorf("%w: previous %q, current %q", ErrVersionMismatch, prev.Version, curr.Version)
		}

		if prev.Dialect != curr.Dialect {
			return nil, fmt.Errorf("%w: previous %q, current %q", ErrDialectMismatch, prev.Dialect, curr.Dialect)
		}
	}

	var prevTables map[string]snapshot.Table
	if prev != nil {
		prevTables = prev.Tables
	}

	d := &Diff{}

	for _, name := range sortedKeys(curr.Tables) {
		currTable := curr.Tables[name]

		prevTable, ok := prevTables[name]
		if !ok {
			addCreatedTable(d, name, currTable)
			continue
		}

		diffTable(d, name, prevTable, currTable)
	}

	for _, name := range sortedKeys(prevTables) {
		if _, ok := curr.Tables[name]; !ok {
			addDeletedTable(d, name, prevTables[name])
		}
	}

	return d, nil
}

func addCreatedTable(d *Diff, name string, t snapshot.Table) {
	d.CreatedTables = append(d.CreatedTables, TableChange{Name: name, Table: t})

	for _, idx := range sortedKeys(t.Indexes) {
		d.CreatedIndexes = append(d.CreatedIndexes, IndexChange{Table: name, Name: idx, Index: t.Indexes[idx]})
	}

	for _, fk := range sortedKeys(t.ForeignKeys) {
		d.CreatedForeignKeys = append(d.CreatedForeignKeys, ForeignKeyChange{Table: name, Name: fk, ForeignKey: t.ForeignKeys[fk]})
	}
}

// addDeletedTable also reports the table's outgoing foreign keys as
// deleted. Dropping those constraints before any DROP TABLE runs keeps
// the drop order valid even when deleted tables reference each other.
func addDeletedTable(d *Diff, name string, t snapshot.Table) {
	d.DeletedTables = append(d.DeletedTables, TableChange{Name: name, Table: t})

	for _, fk := range sortedKeys(t.ForeignKeys) {
		d.DeletedForeignKeys = append(d.DeletedForeignKeys, ForeignKeyChange{Table: name, Name: fk, ForeignKey: t.ForeignKeys[fk]})
	}
}

func diffTable(d *Diff, table string, prev, curr snapshot.Table) {
	diffColumns(d, table, prev, curr)
	diffPrimaryKey(d, table, prev, curr)
	diffIndexes(d, table, prev.Indexes, curr.Indexes)
	diffForeignKeys(d, table, prev.ForeignKeys, curr.ForeignKeys)
	diffUniques(d, table, prev.UniqueConstraints, curr.UniqueConstraints)
	diffChecks(d, table, prev.CheckConstraints, curr.CheckConstraints)
}

func diffColumns(d *Diff, table string, prev, curr snapshot.Table) {
	for _, name := range sortedKeys(curr.Columns) {
		currCol := curr.Columns[name]

		prevCol, ok := prev.Columns[name]
		if !ok {
			d.AddedColumns = append(d.AddedColumns, ColumnChange{Table: table, Name: name, Column: currCol})
			continue
		}

		if columnChanged(prevCol, currCol) {
			d.ModifiedColumns = append(d.ModifiedColumns, ColumnModification{Table: table, Name: name, From: prevCol, To: currCol})
		}
	}

	for _, name := range sortedKeys(prev.Columns) {
		if _, ok := curr.Columns[name]; !ok {
			d.DeletedColumns = append(d.DeletedColumns, ColumnChange{Table: table, Name: name, Column: prev.Columns[name]})
		}
	}
}

// columnChanged ignores primary key membership, which is compared per
// table instead.
func columnChanged(from, to snapshot.Column) bool {
	from.PrimaryKey = false
	to.PrimaryKey = false

	return from != to
}

func diffPrimaryKey(d *Diff, table string, prev, curr snapshot.Table) {
	from := prev.PrimaryKeyColumns()
	to := curr.PrimaryKeyColumns()

	if !slices.Equal(from, to) {
		d.PrimaryKeyChanges = append(d.PrimaryKeyChanges, PrimaryKeyChange{Table: table, From: from, To: to})
	}
}

func diffIndexes(d *Diff, table string, prev, curr map[string]snapshot.Index) {
	for _, name := range sortedKeys(curr) {
		currIdx := curr[name]

		prevIdx, ok := prev[name]
		if !ok {
			d.CreatedIndexes = append(d.CreatedIndexes, IndexChange{Table: table, Name: name, Index: currIdx})
			continue
		}

		if prevIdx.Unique != currIdx.Unique || !slices.Equal(prevIdx.Columns, currIdx.Columns) {
			d.AlteredIndexes = append(d.AlteredIndexes, IndexModification{Table: table, Name: name, From: prevIdx, To: currIdx})
		}
	}

	for _, name := range sortedKeys(prev) {
		if _, ok := curr[name]; !ok {
			d.DeletedIndexes = append(d.DeletedIndexes, IndexChange{Table: table, Name: name, Index: prev[name]})
		}
	}
}

func diffForeignKeys(d *Diff, table string, prev, curr map[string]snapshot.ForeignKey) {
	for _, name := range sortedKeys(curr) {
		currFK := curr[name]

		prevFK, ok := prev[name]
		if !ok {
			d.CreatedForeignKeys = append(d.CreatedForeignKeys, ForeignKeyChange{Table: table, Name: name, ForeignKey: currFK})
			continue
		}

		if foreignKeyChanged(prevFK, currFK) {
			d.AlteredForeignKeys = append(d.AlteredForeignKeys, ForeignKeyModification{Table: table, Name: name, From: prevFK, To: currFK})
		}
	}

	for _, name := range sortedKeys(prev) {
		if _, ok := curr[name]; !ok {
			d.DeletedForeignKeys = append(d.DeletedForeignKeys, ForeignKeyChange{Table: table, Name: name, ForeignKey: prev[name]})
		}
	}
}

func foreignKeyChanged(from, to snapshot.ForeignKey) bool {
	return from.RefTable != to.RefTable ||
		from.OnDelete != to.OnDelete ||
		from.OnUpdate != to.OnUpdate ||
		!slices.Equal(from.Columns, to.Columns) ||
		!slices.Equal(from.RefColumns, to.RefColumns)
}

func diffUniques(d *Diff, table string, prev, curr map[string]snapshot.Unique) {
	for _, name := range sortedKeys(curr) {
		currUq := curr[name]

		prevUq, ok := prev[name]
		if !ok {
			d.CreatedUniques = append(d.CreatedUniques, UniqueChange{Table: table, Name: name, Unique: currUq})
			continue
		}

		if !slices.Equal(prevUq.Columns, currUq.Columns) {
			d.DeletedUniques = append(d.DeletedUniques, UniqueChange{Table: table, Name: name, Unique: prevUq})
			d.CreatedUniques = append(d.CreatedUniques, UniqueChange{Table: table, Name: name, Unique: currUq})
		}
	}

	for _, name := range sortedKeys(prev) {
		if _, ok := curr[name]; !ok {
			d.DeletedUniques = append(d.DeletedUniques, UniqueChange{Table: table, Name: name, Unique: prev[name]})
		}
	}
}

func diffChecks(d *Diff, table string, prev, curr map[string]snapshot.Check) {
	for _, name := range sortedKeys(curr) {
		currCk := curr[name]

		prevCk, ok := prev[name]
		if !ok {
			d.CreatedChecks = append(d.CreatedChecks, CheckChange{Table: table, Name: name, Check: currCk})
			continue
		}

		if prevCk.Expression != currCk.Expression {
			d.DeletedChecks = append(d.DeletedChecks, CheckChange{Table: table, Name: name, Check: prevCk})
			d.CreatedChecks = append(d.CreatedChecks, CheckChange{Table: table, Name: name, Check: currCk})
		}
	}

	for _, name := range sortedKeys(prev) {
		if _, ok := curr[name]; !ok {
			d.DeletedChecks = append(d.DeletedChecks, CheckChange{Table: table, Name: name, Check: prev[name]})
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
