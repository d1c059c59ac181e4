package snapshot

import "errors"

// ErrFormatVersion indicates a stored snapshot was written in a format this
// engine does not understand.
var ErrFormatVersion = errors.New("unsupported snapshot format version")
