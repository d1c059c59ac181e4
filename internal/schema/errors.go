package schema

import "errors"

// ErrInvalidIdentifier indicates a table, column, or constraint name is not
// a valid unquoted SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrDuplicateTable indicates two tables in one definition share a name.
var ErrDuplicateTable = errors.New("duplicate table name")

// ErrDuplicateColumn indicates two columns in one table share a name.
var ErrDuplicateColumn = errors.New("duplicate column name")

// ErrDuplicateObject indicates two indexes or constraints share a name.
var ErrDuplicateObject = errors.New("duplicate index or constraint name")

// ErrUnknownColumn indicates an index or constraint references a column the
// table does not declare.
var ErrUnknownColumn = errors.New("unknown column")

// ErrUnknownType indicates a column uses a type kind the engine does not
// support.
var ErrUnknownType = errors.New("unsupported column type")

// ErrInvalidExpression indicates a default value or check expression failed
// to parse.
var ErrInvalidExpression = errors.New("invalid SQL expression")

// ErrEmptyTable indicates a table declares no columns.
var ErrEmptyTable = errors.New("table has no columns")
