package guard

import "errors"

// ErrParse indicates a generated statement did not parse as valid
// PostgreSQL, which points at a generator bug rather than bad input.
var ErrParse = errors.New("generated statement failed to parse")
