package typereg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saiql/internal/ir"
)

func TestParseBasic(t *testing.T) {
	tests := []struct {
		dialect ir.Dialect
		raw     string
		want    ir.TypeInfo
	}{
		{ir.DialectPostgres, "VARCHAR(255)", ir.TypeInfo{Kind: ir.KindVarchar, Length: 255}},
		{ir.DialectPostgres, "character varying(64)", ir.TypeInfo{Kind: ir.KindVarchar, Length: 64}},
		{ir.DialectPostgres, "timestamptz", ir.TypeInfo{Kind: ir.KindTimestampTZ}},
		{ir.DialectPostgres, "TIMESTAMP(6) WITH TIME ZONE", ir.TypeInfo{Kind: ir.KindTimestampTZ, Precision: 6}},
		{ir.DialectOracle, "NUMBER(10,2)", ir.TypeInfo{Kind: ir.KindDecimal, Precision: 10, Scale: 2}},
		{ir.DialectOracle, "VARCHAR2(100)", ir.TypeInfo{Kind: ir.KindVarchar, Length: 100}},
		{ir.DialectMySQL, "bigint unsigned", ir.TypeInfo{Kind: ir.KindDecimal, Precision: 20}},
		{ir.DialectMySQL, "INT UNSIGNED", ir.TypeInfo{Kind: ir.KindBigInt}},
		{ir.DialectMySQL, "datetime(3)", ir.TypeInfo{Kind: ir.KindTimestamp, Precision: 3}},
		{ir.DialectMSSQL, "money", ir.TypeInfo{Kind: ir.KindDecimal, Precision: 19, Scale: 4}},
		{ir.DialectMSSQL, "UNIQUEIDENTIFIER", ir.TypeInfo{Kind: ir.KindUUID}},
		{ir.DialectSQLite, "TEXT", ir.TypeInfo{Kind: ir.KindText}},
		{ir.DialectHANA, "NVARCHAR(50)", ir.TypeInfo{Kind: ir.KindVarchar, Length: 50}},
	}
	for _, tt := range tests {
		got := Parse(tt.dialect, tt.raw)
		tt.want.SourceRaw = tt.raw
		assert.Equal(t, tt.want, got, "%s %s", tt.dialect, tt.raw)
	}
}

func TestParseUnknownNeverFails(t *testing.T) {
	got := Parse(ir.DialectPostgres, "tsvector")
	assert.Equal(t, ir.KindUnknown, got.Kind)
	assert.Equal(t, "tsvector", got.SourceRaw)
	assert.True(t, got.Unknown())

	got = Parse(ir.DialectOracle, "SDO_GEOMETRY")
	assert.Equal(t, ir.KindUnknown, got.Kind)
}

func TestParseNonNumericArgs(t *testing.T) {
	// "varchar(max)" has no numeric argument; base rule still matches.
	got := Parse(ir.DialectMSSQL, "varchar(max)")
	assert.Equal(t, ir.KindVarchar, got.Kind)
	assert.Zero(t, got.Length)
}

func TestRenderDecimalForms(t *testing.T) {
	assert.Equal(t, "numeric(10,2)", Render(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindDecimal, Precision: 10, Scale: 2}))
	assert.Equal(t, "numeric(10)", Render(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindDecimal, Precision: 10}))
	assert.Equal(t, "numeric", Render(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindDecimal}))
	assert.Equal(t, "NUMBER(19,4)", Render(ir.DialectOracle, ir.TypeInfo{Kind: ir.KindDecimal, Precision: 19, Scale: 4}))
}

func TestRenderTargets(t *testing.T) {
	tests := []struct {
		dialect ir.Dialect
		info    ir.TypeInfo
		want    string
	}{
		{ir.DialectOracle, ir.TypeInfo{Kind: ir.KindVarchar, Length: 255}, "VARCHAR2(255)"},
		{ir.DialectOracle, ir.TypeInfo{Kind: ir.KindBoolean}, "NUMBER(1)"},
		{ir.DialectMySQL, ir.TypeInfo{Kind: ir.KindBoolean}, "tinyint(1)"},
		{ir.DialectMySQL, ir.TypeInfo{Kind: ir.KindText}, "longtext"},
		{ir.DialectSQLite, ir.TypeInfo{Kind: ir.KindBigInt}, "INTEGER"},
		{ir.DialectMSSQL, ir.TypeInfo{Kind: ir.KindTimestampTZ}, "datetimeoffset"},
		{ir.DialectHANA, ir.TypeInfo{Kind: ir.KindVarchar, Length: 50}, "NVARCHAR(50)"},
		{ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindJSONB}, "jsonb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Render(tt.dialect, tt.info), "%s %v", tt.dialect, tt.info.Kind)
	}
}

func TestRenderUnknownIsEmpty(t *testing.T) {
	assert.Empty(t, Render(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindUnknown}))
}

func TestClassify(t *testing.T) {
	// Oracle string semantics never survive.
	c := Classify(ir.DialectOracle, Parse(ir.DialectOracle, "VARCHAR2(50)"), ir.DialectPostgres)
	assert.Equal(t, Lossy, c.Fidelity)
	assert.Contains(t, c.Reason, "empty-string-as-NULL")

	// Timezone dropped on MySQL target.
	c = Classify(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindTimestampTZ}, ir.DialectMySQL)
	assert.Equal(t, Lossy, c.Fidelity)
	assert.Contains(t, c.Reason, "Timezone dropped")

	// Fixed point on SQLite.
	c = Classify(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindDecimal, Precision: 10, Scale: 2}, ir.DialectSQLite)
	assert.Equal(t, Lossy, c.Fidelity)
	assert.Contains(t, c.Reason, "floating point")

	// Same dialect is lossless.
	c = Classify(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindJSONB}, ir.DialectPostgres)
	assert.Equal(t, Lossless, c.Fidelity)

	// Unknown is unsupported, with the original string in the reason.
	c = Classify(ir.DialectPostgres, ir.TypeInfo{Kind: ir.KindUnknown, SourceRaw: "tsvector"}, ir.DialectMySQL)
	assert.Equal(t, Unsupported, c.Fidelity)
	assert.Contains(t, c.Reason, "tsvector")
}

func TestColumnFromNative(t *testing.T) {
	col := ColumnFromNative(ir.DialectPostgres, "Email", "varchar(128)", true, nil)
	assert.Equal(t, "email", col.Name)
	assert.Equal(t, ir.KindVarchar, col.Type.Kind)
	assert.False(t, col.Unsupported)

	col = ColumnFromNative(ir.DialectPostgres, "doc", "tsvector", false, nil)
	require.True(t, col.Unsupported)
	assert.Equal(t, ir.KindUnknown, col.Type.Kind)
}
