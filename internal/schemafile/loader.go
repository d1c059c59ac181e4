package schemafile

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadFromDir scans a directory for *.yaml / *.yml schema modules and
// returns them sorted by plugin name. Files with other extensions are
// skipped. Two files declaring the same plugin is an error.
func LoadFromDir(dir string) ([]Module, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema directory %s: %w", dir, err)
	}

	var modules []Module

	seen := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		m, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		if prev, ok := seen[m.PluginName]; ok {
			return nil, fmt.Errorf("%s and %s: %w: %s", prev, m.Path, ErrDuplicatePlugin, m.PluginName)
		}

		seen[m.PluginName] = m.Path
		modules = append(modules, m)
	}

	return Sort(modules), nil
}
