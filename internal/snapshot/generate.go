package snapshot

import (
	"fmt"
	"strings"

	"github.com/schemanaut/schemanaut/internal/schema"
)

// Generate builds the canonical snapshot for a plugin's definition. The
// definition is validated first; the same definition always yields a
// byte-identical Marshal result regardless of declaration order, because
// every collection is re-keyed by name and raw expressions are trimmed.
func Generate(def *schema.Definition) (*Snapshot, error) {
	if err := schema.Validate(def); err != nil {
		return nil, fmt.Errorf("validating definition: %w", err)
	}

	tables := make(map[string]Table, len(def.Tables))
	for i := range def.Tables {
		tables[def.Tables[i].Name] = generateTable(&def.Tables[i])
	}

	return &Snapshot{
		Version: FormatVersion,
		Dialect: DialectPostgres,
		Tables:  tables,
	}, nil
}

func generateTable(t *schema.Table) Table {
	out := Table{
		Columns:           make(map[string]Column, len(t.Columns)),
		Indexes:           make(map[string]Index, len(t.Indexes)),
		ForeignKeys:       make(map[string]ForeignKey, len(t.ForeignKeys)),
		UniqueConstraints: make(map[string]Unique, len(t.UniqueConstraints)),
		CheckConstraints:  make(map[string]Check, len(t.CheckConstraints)),
	}

	for _, c := range t.Columns {
		out.Columns[c.Name] = Column{
			Type:       c.Type,
			Nullable:   c.Nullable,
			Default:    strings.TrimSpace(c.Default),
			PrimaryKey: c.PrimaryKey,
		}
	}

	for _, idx := range t.Indexes {
		out.Indexes[idx.Name] = Index{
			Columns: append([]string(nil), idx.Columns...),
			Unique:  idx.Unique,
		}
	}

	for _, fk := range t.ForeignKeys {
		out.ForeignKeys[fk.Name] = ForeignKey{
			Columns:    append([]string(nil), fk.Columns...),
			RefTable:   fk.RefTable,
			RefColumns: append([]string(nil), fk.RefColumns...),
			OnDelete:   fk.OnDelete,
			OnUpdate:   fk.OnUpdate,
		}
	}

	for _, uq := range t.UniqueConstraints {
		out.UniqueConstraints[uq.Name] = Unique{
			Columns: append([]string(nil), uq.Columns...),
		}
	}

	for _, ck := range t.CheckConstraints {
		out.CheckConstraints[ck.Name] = Check{
			Expression: strings.TrimSpace(ck.Expression),
		}
	}

	return out
}
