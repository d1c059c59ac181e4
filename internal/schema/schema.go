// Package schema defines the declarative table model a plugin registers
// with the migration engine. Definitions are plain data: the snapshot
// generator turns them into canonical snapshots, and the diff engine never
// sees anything but snapshots.
package schema

// Definition is a single plugin's declared schema: the full set of tables
// the plugin owns. A definition may reference tables owned by other plugins
// in foreign keys by name; no cross-plugin existence check is performed at
// diff time.
type Definition struct {
	Tables []Table
}

// Table declares one relational table with its columns and secondary
// objects. All names are raw SQL identifiers (lower_snake_case, unquoted).
type Table struct {
	Name              string
	Columns           []Column
	Indexes           []Index
	ForeignKeys       []ForeignKey
	UniqueConstraints []UniqueConstraint
	CheckConstraints  []CheckConstraint
}

// Column declares a single column. Default holds a raw SQL expression
// (e.g. "now()", "0", "'pending'"); empty means no default.
type Column struct {
	Name       string
	Type       ColumnType
	Nullable   bool
	Default    string
	PrimaryKey bool
}

// Index declares a secondary index. Column order is significant.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKey declares a named foreign key constraint. RefTable may belong
// to another plugin.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   RefAction
	OnUpdate   RefAction
}

// UniqueConstraint declares a named UNIQUE constraint.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// CheckConstraint declares a named CHECK constraint with a raw SQL
// boolean expression.
type CheckConstraint struct {
	Name       string
	Expression string
}

// RefAction is a referential action for ON DELETE / ON UPDATE.
type RefAction string

// Referential actions. The zero value means NO ACTION.
const (
	NoAction   RefAction = ""
	Restrict   RefAction = "RESTRICT"
	Cascade    RefAction = "CASCADE"
	SetNull    RefAction = "SET NULL"
	SetDefault RefAction = "SET DEFAULT"
)

// SQL returns the action as it appears in DDL. The zero value renders as
// NO ACTION so generated statements are explicit.
func (a RefAction) SQL() string {
	if a == NoAction {
		return "NO ACTION"
	}

	return string(a)
}

// PrimaryKey returns the names of the primary key columns in declaration
// order. An empty slice means the table has no primary key.
func (t *Table) PrimaryKey() []string {
	var cols []string

	for _, c := range t.Columns {
		if c.PrimaryKey {
			cols = append(cols, c.Name)
		}
	}

	return cols
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}

	return nil
}
