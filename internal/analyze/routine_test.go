package analyze

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saiql/internal/ir"
)

func pgFunc() *ir.Routine {
	return &ir.Routine{
		Name:       "calc_discount",
		Kind:       ir.RoutineFunction,
		Language:   "plpgsql",
		Volatility: ir.VolatilityImmutable,
		Security:   ir.SecurityInvoker,
	}
}

func TestClassifyRoutinePostgres(t *testing.T) {
	r := pgFunc()
	ClassifyRoutine(ir.DialectPostgres, r)
	assert.True(t, r.Classification.Allowed)

	r = pgFunc()
	r.Language = "plpython3u"
	ClassifyRoutine(ir.DialectPostgres, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonLanguage)

	r = pgFunc()
	r.Volatility = ir.VolatilityVolatile
	ClassifyRoutine(ir.DialectPostgres, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonVolatile)

	r = pgFunc()
	r.Security = ir.SecurityDefiner
	ClassifyRoutine(ir.DialectPostgres, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonDefinerSecurity)
}

func TestClassifyRoutineMySQL(t *testing.T) {
	// Deterministic, invoker, read-only: safe.
	r := &ir.Routine{
		Name: "fn_tax", Kind: ir.RoutineFunction,
		Volatility: ir.VolatilityImmutable, DataAccess: ir.AccessReads,
		Security: ir.SecurityInvoker,
	}
	ClassifyRoutine(ir.DialectMySQL, r)
	assert.True(t, r.Classification.Allowed)

	// Non-deterministic function.
	r = &ir.Routine{
		Name: "fn_now", Kind: ir.RoutineFunction,
		Volatility: ir.VolatilityVolatile, DataAccess: ir.AccessNone,
		Security: ir.SecurityInvoker,
	}
	ClassifyRoutine(ir.DialectMySQL, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonNotDeterministic)

	// Modifying procedure.
	r = &ir.Routine{
		Name: "sp_purge", Kind: ir.RoutineProcedure,
		Volatility: ir.VolatilityVolatile, DataAccess: ir.AccessModifies,
		Security: ir.SecurityInvoker,
	}
	ClassifyRoutine(ir.DialectMariaDB, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonModifiesSQLData)

	// Read-only procedure is admissible even without the DETERMINISTIC mark.
	r = &ir.Routine{
		Name: "sp_report", Kind: ir.RoutineProcedure,
		Volatility: ir.VolatilityVolatile, DataAccess: ir.AccessReads,
		Security: ir.SecurityInvoker,
	}
	ClassifyRoutine(ir.DialectMySQL, r)
	assert.True(t, r.Classification.Allowed)
}

func TestClassifyRoutinePackageNeverAllowed(t *testing.T) {
	r := &ir.Routine{Name: "pkg_billing", Kind: ir.RoutinePackage}
	ClassifyRoutine(ir.DialectOracle, r)
	require.False(t, r.Classification.Allowed)
	assert.Equal(t, []ir.ReasonCode{ir.ReasonPackage}, r.Classification.ReasonCodes)
}

func TestClassifyRoutineOracle(t *testing.T) {
	r := &ir.Routine{
		Name: "calc_discount", Kind: ir.RoutineFunction,
		Body: "BEGIN RETURN amount / 10; END;",
	}
	ClassifyRoutine(ir.DialectOracle, r)
	assert.True(t, r.Classification.Allowed)

	r = &ir.Routine{
		Name: "walk_tree", Kind: ir.RoutineFunction,
		Body: "BEGIN SELECT id FROM t START WITH parent IS NULL CONNECT BY PRIOR id = parent; END;",
	}
	ClassifyRoutine(ir.DialectOracle, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonDialectConstruct)

	r = &ir.Routine{
		Name: "batch", Kind: ir.RoutineProcedure,
		Body: "DECLARE CURSOR c IS SELECT id FROM t; BEGIN OPEN c; FETCH c INTO v; CLOSE c; END;",
	}
	ClassifyRoutine(ir.DialectOracle, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonCursor)
}

func TestClassifyRoutineUnsupportedDialect(t *testing.T) {
	r := &ir.Routine{Name: "fn", Kind: ir.RoutineFunction}
	ClassifyRoutine(ir.DialectHANA, r)
	require.False(t, r.Classification.Allowed)
	assert.Contains(t, r.Classification.ReasonCodes, ir.ReasonLevelUnsupported)
}

func TestComplexityScore(t *testing.T) {
	assert.Less(t, ComplexityScore("BEGIN RETURN 1; END;"), 20)

	big := "BEGIN\n" + strings.Repeat("IF x THEN INSERT INTO t VALUES (1); END IF;\n", 30) + "END;"
	assert.Equal(t, 100, ComplexityScore(big))
}
