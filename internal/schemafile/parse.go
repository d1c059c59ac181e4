package schemafile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/schemanaut/schemanaut/internal/schema"
)

// typePattern matches type declarations in two forms:
//
//	kind          (e.g. bigint, double precision)
//	kind(n[,m])   (e.g. varchar(255), numeric(12,2))
var typePattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by ParseType
	`^([a-z][a-z ]*[a-z])(?:\((\d+)(?:\s*,\s*(\d+))?\))?$`,
)

// ParseType parses a YAML type string into the internal type union. Input
// is case-insensitive. Only varchar takes a length and only numeric takes
// precision and scale; whether the kind itself is supported is checked
// later by schema validation.
func ParseType(s string) (schema.ColumnType, error) {
	matches := typePattern.FindStringSubmatch(normalize(s))
	if matches == nil {
		return schema.ColumnType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}

	kind := schema.TypeKind(matches[1])

	if matches[2] == "" {
		return schema.TypeOf(kind), nil
	}

	switch kind {
	case schema.Varchar:
		if matches[3] != "" {
			return schema.ColumnType{}, fmt.Errorf("%w: varchar takes a single length", ErrInvalidType)
		}

		n, err := strconv.Atoi(matches[2])
		if err != nil {
			return schema.ColumnType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}

		return schema.VarcharType(n), nil
	case schema.Numeric:
		precision, err := strconv.Atoi(matches[2])
		if err != nil {
			return schema.ColumnType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}

		var scale int

		if matches[3] != "" {
			scale, err = strconv.Atoi(matches[3])
			if err != nil {
				return schema.ColumnType{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
			}
		}

		return schema.NumericType(precision, scale), nil
	default:
		return schema.ColumnType{}, fmt.Errorf("%w: %s takes no modifiers", ErrInvalidType, kind)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
