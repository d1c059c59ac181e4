// Package sqlgen lowers a schema diff into an ordered list of DDL
// statements. Statements come out in dependency order: constraints and
// indexes are dropped before the columns and tables they depend on,
// and foreign keys are added last so they can reference freshly
// created tables. Each statement is tagged as destructive or additive
// so callers can gate execution without re-parsing SQL.
package sqlgen

import "github.com/schemanaut/schemanaut/internal/diff"

// Kind identifies the DDL operation a statement performs.
type Kind string

const (
	KindCreateTable    Kind = "create_table"
	KindDropTable      Kind = "drop_table"
	KindAddColumn      Kind = "add_column"
	KindDropColumn     Kind = "drop_column"
	KindAlterColumn    Kind = "alter_column"
	KindCreateIndex    Kind = "create_index"
	KindDropIndex      Kind = "drop_index"
	KindAddConstraint  Kind = "add_constraint"
	KindDropConstraint Kind = "drop_constraint"
)

// Statement is a single executable DDL statement. Object holds the
// column, index, or constraint name the statement targets; it is empty
// for table-level statements.
type Statement struct {
	SQL         string
	Kind        Kind
	Table       string
	Object      string
	Destructive bool
}

// Generate lowers the diff into executable statements. The fixed phase
// order satisfies every dependency between generated statements:
// foreign key drops come before index drops, constraint drops, column
// changes, and table drops; creations run in the reverse direction
// with foreign key additions last.
func Generate(d *diff.Diff) []Statement {
	var stmts []Statement

	for _, fk := range d.DeletedForeignKeys {
		stmts = append(stmts, dropConstraint(fk.Table, fk.Name))
	}

	for _, fk := range d.AlteredForeignKeys {
		stmts = append(stmts, dropConstraint(fk.Table, fk.Name))
	}

	for _, idx := range d.DeletedIndexes {
		stmts = append(stmts, dropIndex(idx.Table, idx.Name))
	}

	for _, idx := range d.AlteredIndexes {
		stmts = append(stmts, dropIndex(idx.Table, idx.Name))
	}

	for _, uq := range d.DeletedUniques {
		stmts = append(stmts, dropConstraint(uq.Table, uq.Name))
	}

	for _, ck := range d.DeletedChecks {
		stmts = append(stmts, dropConstraint(ck.Table, ck.Name))
	}

	for _, pk := range d.PrimaryKeyChanges {
		if len(pk.From) > 0 {
			stmts = append(stmts, dropPrimaryKey(pk.Table))
		}
	}

	for _, col := range d.ModifiedColumns {
		stmts = append(stmts, alterColumn(col)...)
	}

	for _, col := range d.DeletedColumns {
		stmts = append(stmts, dropColumn(col.Table, col.Name))
	}

	for _, t := range d.DeletedTables {
		stmts = append(stmts, dropTable(t.Name))
	}

	for _, t := range d.CreatedTables {
		stmts = append(stmts, createTable(t.Name, t.Table))
	}

	for _, col := range d.AddedColumns {
		stmts = append(stmts, addColumn(col))
	}

	for _, pk := range d.PrimaryKeyChanges {
		if len(pk.To) > 0 {
			stmts = append(stmts, addPrimaryKey(pk.Table, pk.To))
		}
	}

	for _, uq := range d.CreatedUniques {
		stmts = append(stmts, addUnique(uq))
	}

	for _, ck := range d.CreatedChecks {
		stmts = append(stmts, addCheck(ck))
	}

	for _, idx := range d.CreatedIndexes {
		stmts = append(stmts, createIndex(idx.Table, idx.Name, idx.Index))
	}

	for _, idx := range d.AlteredIndexes {
		stmts = append(stmts, createIndex(idx.Table, idx.Name, idx.To))
	}

	for _, fk := range d.CreatedForeignKeys {
		stmts = append(stmts, addForeignKey(fk.Table, fk.Name, fk.ForeignKey))
	}

	for _, fk := range d.AlteredForeignKeys {
		stmts = append(stmts, addForeignKey(fk.Table, fk.Name, fk.To))
	}

	return stmts
}

// Destructive filters the list down to its destructive statements.
func Destructive(stmts []Statement) []Statement {
	var out []Statement
	for _, s := range stmts {
		if s.Destructive {
			out = append(out, s)
		}
	}

	return out
}
