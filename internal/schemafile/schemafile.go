// Package schemafile loads declarative schema modules from YAML files.
// Each file declares one plugin's tables; the CLI registers every module
// it finds with the migration service, sorted by plugin name so runs are
// deterministic regardless of filesystem order.
package schemafile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/schemanaut/schemanaut/internal/schema"
)

// Module is one plugin's schema definition loaded from disk.
type Module struct {
	PluginName string
	Definition *schema.Definition
	Path       string // path to the YAML file the module came from
}

// yamlModule is the raw YAML file representation.
type yamlModule struct {
	Plugin string      `yaml:"plugin"`
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name              string           `yaml:"name"`
	Columns           []yamlColumn     `yaml:"columns"`
	Indexes           []yamlIndex      `yaml:"indexes"`
	ForeignKeys       []yamlForeignKey `yaml:"foreign_keys"`
	UniqueConstraints []yamlUnique     `yaml:"unique_constraints"`
	CheckConstraints  []yamlCheck      `yaml:"check_constraints"`
}

type yamlColumn struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable"`
	Default    string `yaml:"default"`
	PrimaryKey bool   `yaml:"primary_key"`
}

type yamlIndex struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

type yamlForeignKey struct {
	Name       string   `yaml:"name"`
	Columns    []string `yaml:"columns"`
	RefTable   string   `yaml:"ref_table"`
	RefColumns []string `yaml:"ref_columns"`
	OnDelete   string   `yaml:"on_delete"`
	OnUpdate   string   `yaml:"on_update"`
}

type yamlUnique struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

type yamlCheck struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// Load reads a single module file, converts it to the internal schema
// model, and validates the result. A module with no tables is legal; its
// first run is simply a no-op.
func Load(path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Module{}, fmt.Errorf("reading schema file %s: %w", path, err)
	}

	var raw yamlModule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Module{}, fmt.Errorf("parsing schema file %s: %w", path, err)
	}

	if raw.Plugin == "" {
		return Module{}, fmt.Errorf("%s: %w", path, ErrMissingPlugin)
	}

	if err := schema.ValidateIdentifier(raw.Plugin); err != nil {
		return Module{}, fmt.Errorf("%s: plugin %q: %w", path, raw.Plugin, err)
	}

	def, err := toDefinition(&raw)
	if err != nil {
		return Module{}, fmt.Errorf("%s: %w", path, err)
	}

	if err := schema.Validate(def); err != nil {
		return Module{}, fmt.Errorf("%s: %w", path, err)
	}

	return Module{PluginName: raw.Plugin, Definition: def, Path: path}, nil
}

// toDefinition converts the raw YAML representation to the schema model.
func toDefinition(raw *yamlModule) (*schema.Definition, error) {
	def := &schema.Definition{Tables: make([]schema.Table, 0, len(raw.Tables))}

	for i := range raw.Tables {
		table, err := toTable(&raw.Tables[i])
		if err != nil {
			return nil, err
		}

		def.Tables = append(def.Tables, table)
	}

	return def, nil
}

func toTable(raw *yamlTable) (schema.Table, error) {
	t := schema.Table{Name: raw.Name}

	for _, c := range raw.Columns {
		typ, err := ParseType(c.Type)
		if err != nil {
			return schema.Table{}, fmt.Errorf("table %s column %s: %w", raw.Name, c.Name, err)
		}

		t.Columns = append(t.Columns, schema.Column{
			Name:       c.Name,
			Type:       typ,
			Nullable:   c.Nullable,
			Default:    c.Default,
			PrimaryKey: c.PrimaryKey,
		})
	}

	for _, idx := range raw.Indexes {
		t.Indexes = append(t.Indexes, schema.Index{
			Name:    idx.Name,
			Columns: idx.Columns,
			Unique:  idx.Unique,
		})
	}

	for _, fk := range raw.ForeignKeys {
		onDelete, err := refAction(fk.OnDelete)
		if err != nil {
			return schema.Table{}, fmt.Errorf("table %s foreign key %s: on_delete: %w", raw.Name, fk.Name, err)
		}

		onUpdate, err := refAction(fk.OnUpdate)
		if err != nil {
			return schema.Table{}, fmt.Errorf("table %s foreign key %s: on_update: %w", raw.Name, fk.Name, err)
		}

		t.ForeignKeys = append(t.ForeignKeys, schema.ForeignKey{
			Name:       fk.Name,
			Columns:    fk.Columns,
			RefTable:   fk.RefTable,
			RefColumns: fk.RefColumns,
			OnDelete:   onDelete,
			OnUpdate:   onUpdate,
		})
	}

	for _, uq := range raw.UniqueConstraints {
		t.UniqueConstraints = append(t.UniqueConstraints, schema.UniqueConstraint{
			Name:    uq.Name,
			Columns: uq.Columns,
		})
	}

	for _, ck := range raw.CheckConstraints {
		t.CheckConstraints = append(t.CheckConstraints, schema.CheckConstraint{
			Name:       ck.Name,
			Expression: ck.Expression,
		})
	}

	return t, nil
}

// refAction maps a YAML action string to the schema constant. Empty and
// "no action" both mean the default.
func refAction(s string) (schema.RefAction, error) {
	switch normalize(s) {
	case "", "no action":
		return schema.NoAction, nil
	case "restrict":
		return schema.Restrict, nil
	case "cascade":
		return schema.Cascade, nil
	case "set null":
		return schema.SetNull, nil
	case "set default":
		return schema.SetDefault, nil
	default:
		return schema.NoAction, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}
