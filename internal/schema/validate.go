package schema

import (
	"fmt"
	"regexp"

	"github.com/schemanaut/schemanaut/internal/parser"
)

// maxIdentifierLen is PostgreSQL's NAMEDATALEN-1.
const maxIdentifierLen = 63

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`) //nolint:gochecknoglobals // compiled once

// Validate checks a definition for structural problems before any snapshot
// is generated from it: identifier syntax, duplicate names, dangling column
// references, unsupported types, and unparseable default or check
// expressions. A nil error means the definition is safe to snapshot.
func Validate(def *Definition) error {
	tables := make(map[string]bool, len(def.Tables))

	for i := range def.Tables {
		t := &def.Tables[i]

		if err := validIdent(t.Name); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}

		if tables[t.Name] {
			return fmt.Errorf("table %q: %w", t.Name, ErrDuplicateTable)
		}

		tables[t.Name] = true

		if err := validateTable(t); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
	}

	return nil
}

func validateTable(t *Table) error {
	if len(t.Columns) == 0 {
		return ErrEmptyTable
	}

	cols, err := validateColumns(t)
	if err != nil {
		return err
	}

	return validateTableObjects(t, cols)
}

func validateColumns(t *Table) (map[string]bool, error) {
	cols := make(map[string]bool, len(t.Columns))

	for i := range t.Columns {
		c := &t.Columns[i]

		if err := validIdent(c.Name); err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}

		if cols[c.Name] {
			return nil, fmt.Errorf("column %q: %w", c.Name, ErrDuplicateColumn)
		}

		cols[c.Name] = true

		if !c.Type.known() {
			return nil, fmt.Errorf("column %q type %q: %w", c.Name, c.Type.Kind, ErrUnknownType)
		}

		if c.Default != "" {
			if err := parser.ValidateExpression(c.Default); err != nil {
				return nil, fmt.Errorf("column %q default: %w: %w", c.Name, ErrInvalidExpression, err)
			}
		}
	}

	return cols, nil
}

// validateTableObjects checks indexes and constraints against the table's
// declared columns. Foreign key referenced columns are not resolvable here;
// the referenced table may belong to another plugin.
func validateTableObjects(t *Table, cols map[string]bool) error {
	objects := make(map[string]bool)

	checkObject := func(kind, name string, columns []string) error {
		if err := validIdent(name); err != nil {
			return fmt.Errorf("%s %q: %w", kind, name, err)
		}

		if objects[name] {
			return fmt.Errorf("%s %q: %w", kind, name, ErrDuplicateObject)
		}

		objects[name] = true

		for _, col := range columns {
			if !cols[col] {
				return fmt.Errorf("%s %q column %q: %w", kind, name, col, ErrUnknownColumn)
			}
		}

		return nil
	}

	for _, idx := range t.Indexes {
		if err := checkObject("index", idx.Name, idx.Columns); err != nil {
			return err
		}

		if len(idx.Columns) == 0 {
			return fmt.Errorf("index %q: %w", idx.Name, ErrUnknownColumn)
		}
	}

	for _, fk := range t.ForeignKeys {
		if err := checkObject("foreign key", fk.Name, fk.Columns); err != nil {
			return err
		}

		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
			return fmt.Errorf("foreign key %q: column count %d does not match referenced count %d",
				fk.Name, len(fk.Columns), len(fk.RefColumns))
		}

		if err := validIdent(fk.RefTable); err != nil {
			return fmt.Errorf("foreign key %q referenced table %q: %w", fk.Name, fk.RefTable, err)
		}
	}

	for _, uq := range t.UniqueConstraints {
		if err := checkObject("unique constraint", uq.Name, uq.Columns); err != nil {
			return err
		}

		if len(uq.Columns) == 0 {
			return fmt.Errorf("unique constraint %q: %w", uq.Name, ErrUnknownColumn)
		}
	}

	for _, ck := range t.CheckConstraints {
		if err := checkObject("check constraint", ck.Name, nil); err != nil {
			return err
		}

		if err := parser.ValidateExpression(ck.Expression); err != nil {
			return fmt.Errorf("check constraint %q: %w: %w", ck.Name, ErrInvalidExpression, err)
		}
	}

	return nil
}

// ValidateIdentifier checks a single SQL identifier against the same
// rules table and column names follow.
func ValidateIdentifier(name string) error {
	return validIdent(name)
}

func validIdent(name string) error {
	if name == "" || len(name) > maxIdentifierLen || !identifierPattern.MatchString(name) {
		return ErrInvalidIdentifier
	}

	return nil
}
