package schemafile

import "errors"

// Sentinel errors returned by schema file loading.
var (
	ErrMissingPlugin   = errors.New("schema file missing plugin name")
	ErrDuplicatePlugin = errors.New("duplicate plugin name")
	ErrInvalidType     = errors.New("invalid column type")
	ErrInvalidAction   = errors.New("invalid referential action")
)
