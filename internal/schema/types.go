package schema

import "fmt"

// TypeKind enumerates the supported column type families. The set is the
// PostgreSQL types the engine knows how to compare and render; anything
// else must be modeled as one of these.
type TypeKind string

// Supported type kinds.
const (
	Smallint        TypeKind = "smallint"
	Integer         TypeKind = "integer"
	Bigint          TypeKind = "bigint"
	Serial          TypeKind = "serial"
	BigSerial       TypeKind = "bigserial"
	Boolean         TypeKind = "boolean"
	Text            TypeKind = "text"
	Varchar         TypeKind = "varchar"
	UUID            TypeKind = "uuid"
	Date            TypeKind = "date"
	Timestamp       TypeKind = "timestamp"
	Timestamptz     TypeKind = "timestamptz"
	Numeric         TypeKind = "numeric"
	Real            TypeKind = "real"
	DoublePrecision TypeKind = "double precision"
	JSON            TypeKind = "json"
	JSONB           TypeKind = "jsonb"
	Bytea           TypeKind = "bytea"
)

// ColumnType is the tagged union describing a column's SQL type. Length
// applies to varchar (0 = unbounded); Precision/Scale apply to numeric
// (0/0 = unconstrained). All other kinds take no modifiers.
type ColumnType struct {
	Kind      TypeKind `json:"kind"`
	Length    int      `json:"length,omitempty"`
	Precision int      `json:"precision,omitempty"`
	Scale     int      `json:"scale,omitempty"`
}

// TypeOf returns a ColumnType with no modifiers.
func TypeOf(kind TypeKind) ColumnType {
	return ColumnType{Kind: kind}
}

// VarcharType returns varchar(n), or unbounded varchar when n is 0.
func VarcharType(n int) ColumnType {
	return ColumnType{Kind: Varchar, Length: n}
}

// NumericType returns numeric(p, s), or unconstrained numeric when both
// are 0.
func NumericType(precision, scale int) ColumnType {
	return ColumnType{Kind: Numeric, Precision: precision, Scale: scale}
}

// SQL renders the type as it appears in DDL.
func (t ColumnType) SQL() string {
	switch t.Kind {
	case Varchar:
		if t.Length > 0 {
			return fmt.Sprintf("varchar(%d)", t.Length)
		}

		return "varchar"
	case Numeric:
		if t.Precision > 0 {
			return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
		}

		return "numeric"
	default:
		return string(t.Kind)
	}
}

// known reports whether the kind is one of the supported constants.
func (t ColumnType) known() bool {
	switch t.Kind {
	case Smallint, Integer, Bigint, Serial, BigSerial, Boolean, Text,
		Varchar, UUID, Date, Timestamp, Timestamptz, Numeric, Real,
		DoublePrecision, JSON, JSONB, Bytea:
		return true
	default:
		return false
	}
}

// Widens reports whether changing a column from t to target cannot lose
// data. Only provably-lossless transitions qualify: identical types, a
// larger modifier of the same kind, or an allowlisted cross-kind widening.
// Everything else is treated as narrowing and therefore destructive.
func (t ColumnType) Widens(target ColumnType) bool {
	if t == target {
		return true
	}

	if t.Kind == target.Kind {
		return sameKindWidens(t, target)
	}

	if !crossKindWidens(t.Kind, target.Kind) {
		return false
	}

	// Integer kinds widen only into unconstrained numeric; numeric(p,s)
	// may be too small for the integer range.
	if target.Kind == Numeric {
		return target.Precision == 0
	}

	return true
}

// sameKindWidens handles modifier-only changes within one kind.
func sameKindWidens(from, to ColumnType) bool {
	switch from.Kind {
	case Varchar:
		// varchar with no length is unbounded.
		return to.Length == 0 || (from.Length > 0 && to.Length >= from.Length)
	case Numeric:
		if to.Precision == 0 {
			return true // unconstrained numeric
		}

		if from.Precision == 0 {
			return false
		}

		return to.Precision >= from.Precision && to.Scale >= from.Scale &&
			(to.Precision-to.Scale) >= (from.Precision-from.Scale)
	default:
		return false
	}
}

// wideningPairs lists the cross-kind transitions that are lossless.
var wideningPairs = map[TypeKind][]TypeKind{ //nolint:gochecknoglobals // static lookup table
	Smallint: {Integer, Bigint, Numeric},
	Integer:  {Bigint, Numeric},
	Bigint:   {Numeric},
	Serial:   {BigSerial},
	Varchar:  {Text},
	Real:     {DoublePrecision},
}

func crossKindWidens(from, to TypeKind) bool {
	for _, k := range wideningPairs[from] {
		if k == to {
			return true
		}
	}

	return false
}
