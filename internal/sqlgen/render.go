package sqlgen

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/schemanaut/schemanaut/internal/diff"
	"github.com/schemanaut/schemanaut/internal/schema"
	"github.com/schemanaut/schemanaut/internal/snapshot"
)

// Identifiers are validated lowercase names, so statements never need
// quoting. Primary keys are unnamed and rely on the server-assigned
// <table>_pkey constraint name.

func createTable(name string, t snapshot.Table) Statement {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, col := range sortedKeys(t.Columns) {
		defs = append(defs, columnDef(col, t.Columns[col]))
	}

	if pk := t.PrimaryKeyColumns(); len(pk) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	for _, uq := range sortedKeys(t.UniqueConstraints) {
		defs = append(defs, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", uq, strings.Join(t.UniqueConstraints[uq].Columns, ", ")))
	}

	for _, ck := range sortedKeys(t.CheckConstraints) {
		defs = append(defs, fmt.Sprintf("CONSTRAINT %s CHECK (%s)", ck, t.CheckConstraints[ck].Expression))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", name, strings.Join(defs, ",\n    "))

	return Statement{SQL: sql, Kind: KindCreateTable, Table: name}
}

// columnDef renders a column for CREATE TABLE. NOT NULL is implied for
// primary key columns, so it is only rendered for the rest.
func columnDef(name string, col snapshot.Column) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(col.Type.SQL())

	if !col.Nullable && !col.PrimaryKey {
		b.WriteString(" NOT NULL")
	}

	if col.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default)
	}

	return b.String()
}

func dropTable(name string) Statement {
	return Statement{
		SQL:         fmt.Sprintf("DROP TABLE %s", name),
		Kind:        KindDropTable,
		Table:       name,
		Destructive: true,
	}
}

func addColumn(col diff.ColumnChange) Statement {
	return Statement{
		SQL:    fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", col.Table, columnDef(col.Name, col.Column)),
		Kind:   KindAddColumn,
		Table:  col.Table,
		Object: col.Name,
	}
}

func dropColumn(table, name string) Statement {
	return Statement{
		SQL:         fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, name),
		Kind:        KindDropColumn,
		Table:       table,
		Object:      name,
		Destructive: true,
	}
}

// alterColumn emits one statement per changed facet: type, then
// nullability, then default. A type change that cannot represent every
// value of the old type is destructive.
func alterColumn(col diff.ColumnModification) []Statement {
	var stmts []Statement

	if col.From.Type != col.To.Type {
		typeSQL := col.To.Type.SQL()
		stmts = append(stmts, Statement{
			SQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
				col.Table, col.Name, typeSQL, col.Name, typeSQL),
			Kind:        KindAlterColumn,
			Table:       col.Table,
			Object:      col.Name,
			Destructive: !col.From.Type.Widens(col.To.Type),
		})
	}

	if col.From.Nullable != col.To.Nullable {
		action := "SET NOT NULL"
		if col.To.Nullable {
			action = "DROP NOT NULL"
		}

		stmts = append(stmts, Statement{
			SQL:    fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", col.Table, col.Name, action),
			Kind:   KindAlterColumn,
			Table:  col.Table,
			Object: col.Name,
		})
	}

	if col.From.Default != col.To.Default {
		sql := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", col.Table, col.Name)
		if col.To.Default != "" {
			sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", col.Table, col.Name, col.To.Default)
		}

		stmts = append(stmts, Statement{
			SQL:    sql,
			Kind:   KindAlterColumn,
			Table:  col.Table,
			Object: col.Name,
		})
	}

	return stmts
}

func createIndex(table, name string, idx snapshot.Index) Statement {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}

	return Statement{
		SQL:    fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, name, table, strings.Join(idx.Columns, ", ")),
		Kind:   KindCreateIndex,
		Table:  table,
		Object: name,
	}
}

func dropIndex(table, name string) Statement {
	return Statement{
		SQL:    fmt.Sprintf("DROP INDEX %s", name),
		Kind:   KindDropIndex,
		Table:  table,
		Object: name,
	}
}

func addPrimaryKey(table string, cols []string) Statement {
	return Statement{
		SQL:    fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", table, strings.Join(cols, ", ")),
		Kind:   KindAddConstraint,
		Table:  table,
		Object: table + "_pkey",
	}
}

func dropPrimaryKey(table string) Statement {
	return Statement{
		SQL:    fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s_pkey", table, table),
		Kind:   KindDropConstraint,
		Table:  table,
		Object: table + "_pkey",
	}
}

func addUnique(uq diff.UniqueChange) Statement {
	return Statement{
		SQL: fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			uq.Table, uq.Name, strings.Join(uq.Unique.Columns, ", ")),
		Kind:   KindAddConstraint,
		Table:  uq.Table,
		Object: uq.Name,
	}
}

func addCheck(ck diff.CheckChange) Statement {
	return Statement{
		SQL:    fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", ck.Table, ck.Name, ck.Check.Expression),
		Kind:   KindAddConstraint,
		Table:  ck.Table,
		Object: ck.Name,
	}
}

func addForeignKey(table, name string, fk snapshot.ForeignKey) Statement {
	var b strings.Builder
	fmt.Fprintf(&b, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		table, name, strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", "))

	if fk.OnDelete != schema.NoAction {
		fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete.SQL())
	}

	if fk.OnUpdate != schema.NoAction {
		fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate.SQL())
	}

	return Statement{SQL: b.String(), Kind: KindAddConstraint, Table: table, Object: name}
}

func dropConstraint(table, name string) Statement {
	return Statement{
		SQL:    fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", table, name),
		Kind:   KindDropConstraint,
		Table:  table,
		Object: name,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
