// Package rules holds the built-in review rules for generated DDL.
package rules

import "github.com/schemanaut/schemanaut/internal/guard"

// NewDefaultRegistry returns a Registry with all built-in rules.
func NewDefaultRegistry() *guard.Registry {
	r := guard.NewRegistry()
	r.Register(NewIndexBuildRule())
	r.Register(NewAddNotNullRule())
	r.Register(NewVolatileDefaultRule())
	r.Register(NewSetNotNullRule())
	r.Register(NewTypeChangeRule())
	r.Register(NewDataLossRule())

	return r
}
