package schemafile

import "sort"

// Sort returns a new slice of modules sorted by plugin name. The sort is
// stable to preserve load order for equal names.
func Sort(modules []Module) []Module {
	sorted := make([]Module, len(modules))
	copy(sorted, modules)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PluginName < sorted[j].PluginName
	})

	return sorted
}
