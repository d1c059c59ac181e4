package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schemanaut/schemanaut/internal/schema"
)

func TestColumnType_SQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  schema.ColumnType
		want string
	}{
		{"plain text", schema.TypeOf(schema.Text), "text"},
		{"bounded varchar", schema.VarcharType(255), "varchar(255)"},
		{"unbounded varchar", schema.VarcharType(0), "varchar"},
		{"constrained numeric", schema.NumericType(10, 2), "numeric(10,2)"},
		{"unconstrained numeric", schema.NumericType(0, 0), "numeric"},
		{"double precision", schema.TypeOf(schema.DoublePrecision), "double precision"},
		{"timestamptz", schema.TypeOf(schema.Timestamptz), "timestamptz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.typ.SQL())
		})
	}
}

func TestColumnType_Widens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from schema.ColumnType
		to   schema.ColumnType
		want bool
	}{
		{"identical types", schema.TypeOf(schema.Text), schema.TypeOf(schema.Text), true},
		{"integer to bigint", schema.TypeOf(schema.Integer), schema.TypeOf(schema.Bigint), true},
		{"bigint to integer", schema.TypeOf(schema.Bigint), schema.TypeOf(schema.Integer), false},
		{"smallint to bigint", schema.TypeOf(schema.Smallint), schema.TypeOf(schema.Bigint), true},
		{"varchar to text", schema.VarcharType(50), schema.TypeOf(schema.Text), true},
		{"text to varchar", schema.TypeOf(schema.Text), schema.VarcharType(200), false},
		{"varchar grows", schema.VarcharType(50), schema.VarcharType(200), true},
		{"varchar shrinks", schema.VarcharType(200), schema.VarcharType(50), false},
		{"varchar to unbounded", schema.VarcharType(200), schema.VarcharType(0), true},
		{"unbounded varchar to bounded", schema.VarcharType(0), schema.VarcharType(4000), false},
		{"numeric precision grows", schema.NumericType(5, 2), schema.NumericType(10, 2), true},
		{"numeric precision shrinks", schema.NumericType(10, 2), schema.NumericType(5, 2), false},
		{"numeric scale eats integer digits", schema.NumericType(10, 2), schema.NumericType(10, 8), false},
		{"numeric to unconstrained", schema.NumericType(10, 2), schema.NumericType(0, 0), true},
		{"integer to unconstrained numeric", schema.TypeOf(schema.Integer), schema.NumericType(0, 0), true},
		{"integer to small numeric", schema.TypeOf(schema.Integer), schema.NumericType(5, 2), false},
		{"serial to bigserial", schema.TypeOf(schema.Serial), schema.TypeOf(schema.BigSerial), true},
		{"real to double precision", schema.TypeOf(schema.Real), schema.TypeOf(schema.DoublePrecision), true},
		{"timestamp to timestamptz is not lossless", schema.TypeOf(schema.Timestamp), schema.TypeOf(schema.Timestamptz), false},
		{"json to jsonb is not lossless", schema.TypeOf(schema.JSON), schema.TypeOf(schema.JSONB), false},
		{"text to integer", schema.TypeOf(schema.Text), schema.TypeOf(schema.Integer), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.from.Widens(tt.to))
		})
	}
}

func TestRefAction_SQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NO ACTION", schema.NoAction.SQL())
	assert.Equal(t, "CASCADE", schema.Cascade.SQL())
	assert.Equal(t, "SET NULL", schema.SetNull.SQL())
}

func TestTable_PrimaryKey(t *testing.T) {
	t.Parallel()

	table := schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "tenant_id", Type: schema.TypeOf(schema.UUID), PrimaryKey: true},
			{Name: "id", Type: schema.TypeOf(schema.Bigint), PrimaryKey: true},
			{Name: "total", Type: schema.NumericType(12, 2)},
		},
	}

	assert.Equal(t, []string{"tenant_id", "id"}, table.PrimaryKey())
	assert.Nil(t, (&schema.Table{}).PrimaryKey())
}
