package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeFunctionsJSONExtension(t *testing.T) {
	a := AnalyzeFunctions("SELECT JSON_OBJECT('key', value), UPPER(name) FROM t")

	assert.Equal(t, []string{"json_object", "upper"}, a.Calls)
	assert.Equal(t, FuncJSONExtension, a.Classes["json_object"])
	assert.Equal(t, FuncBuiltin, a.Classes["upper"])
	assert.True(t, a.Safe)
	assert.True(t, a.NeedsExtension)
	assert.Empty(t, a.Unknown)
}

func TestAnalyzeFunctionsUnknownUDF(t *testing.T) {
	a := AnalyzeFunctions("SELECT my_custom_udf(v) FROM t")

	assert.False(t, a.Safe)
	assert.Equal(t, []string{"my_custom_udf"}, a.Unknown)
	assert.Equal(t, FuncUnknown, a.Classes["my_custom_udf"])
	assert.False(t, a.NeedsExtension)
}

func TestAnalyzeFunctionsBuiltinsOnly(t *testing.T) {
	a := AnalyzeFunctions("SELECT COALESCE(a, b), ROUND(total, 2) FROM orders")
	assert.True(t, a.Safe)
	assert.False(t, a.NeedsExtension)
	assert.Equal(t, []string{"coalesce", "round"}, a.Calls)
}

func TestAnalyzeFunctionsIgnoresKeywords(t *testing.T) {
	a := AnalyzeFunctions("SELECT id FROM t WHERE id IN (1, 2) AND EXISTS (SELECT 1 FROM u)")
	assert.NotContains(t, a.Calls, "in")
	assert.NotContains(t, a.Calls, "exists")
	assert.NotContains(t, a.Calls, "select")
}

func TestAnalyzeFunctionsDeduplicates(t *testing.T) {
	a := AnalyzeFunctions("SELECT UPPER(a), UPPER(b), upper(c) FROM t")
	require.Len(t, a.Calls, 1)
	assert.Equal(t, "upper", a.Calls[0])
}
