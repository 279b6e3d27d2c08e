package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saiql/internal/ir"
)

func mustTranslator(t *testing.T, mode ir.TranslateMode, source, target ir.Dialect) *Translator {
	t.Helper()
	tr, err := New(mode, source, target, nil)
	require.NoError(t, err)
	return tr
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(ir.TranslateMode("yolo"), ir.DialectOracle, ir.DialectPostgres, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown translate mode")
}

func TestAnalyzeModeNeverEmitsSQL(t *testing.T) {
	tr := mustTranslator(t, ir.ModeAnalyze, ir.DialectOracle, ir.DialectPostgres)

	simple := tr.View(&ir.View{Name: "v_plain", Definition: "CREATE VIEW v_plain AS SELECT id, name FROM users"})
	assert.Nil(t, simple.SQL)
	assert.Empty(t, simple.Warnings)
	assert.Equal(t, ir.ModeAnalyze, simple.Mode)

	complexV := tr.View(&ir.View{
		Name:       "v_cte",
		Definition: "CREATE VIEW v_cte AS WITH t AS (SELECT id FROM users) SELECT id FROM t",
	})
	assert.Nil(t, complexV.SQL)
	require.NotEmpty(t, complexV.Warnings)
	require.NotEmpty(t, complexV.ManualSteps)
	assert.Equal(t, "rewrite view for target dialect", complexV.ManualSteps[0].Action)

	trig := tr.Trigger(&ir.Trigger{
		Name: "trg_del", Table: "orders", Timing: ir.TimingAfter,
		Events: []ir.TriggerEvent{ir.EventDelete}, Scope: ir.ScopeRow,
		Body: "BEGIN :NEW.x := LOWER(:NEW.x); END;",
	})
	assert.Nil(t, trig.SQL)
	assert.NotEmpty(t, trig.Warnings)

	for _, res := range tr.Results() {
		assert.Nil(t, res.SQL, "mode=analyze must never carry sql for %s", res.ObjectName)
	}
}

func TestStubModeComplexView(t *testing.T) {
	tr := mustTranslator(t, ir.ModeStub, ir.DialectOracle, ir.DialectPostgres)

	res := tr.View(&ir.View{
		Name: "complex_v",
		Definition: "CREATE VIEW complex_v AS SELECT id, RANK() OVER (ORDER BY total) AS rnk " +
			"FROM orders",
	})

	require.NotNil(t, res.SQL)
	assert.Equal(t, ir.RiskCritical, res.Risk)
	assert.Contains(t, *res.SQL, "STUB")
	assert.Contains(t, *res.SQL, "CREATE OR REPLACE FUNCTION complex_v_stub_error()")
	assert.Contains(t, *res.SQL, "RAISE EXCEPTION")
	assert.Contains(t, *res.SQL, "Manual rewrite required")

	var critical bool
	for _, w := range res.Warnings {
		if w.Severity == ir.RiskCritical && w.Reason == ir.ReasonStubEmitted {
			critical = true
		}
	}
	assert.True(t, critical, "stub result must carry a critical warning")
	require.NotEmpty(t, res.ManualSteps)
	assert.Equal(t, "complex_v", res.ManualSteps[0].Object)
}

func TestStubModeStubsEvenSupportedViews(t *testing.T) {
	tr := mustTranslator(t, ir.ModeStub, ir.DialectOracle, ir.DialectPostgres)
	res := tr.View(&ir.View{Name: "v_ok", Definition: "CREATE VIEW v_ok AS SELECT id FROM users"})
	require.NotNil(t, res.SQL)
	assert.Contains(t, *res.SQL, "STUB")
	assert.Equal(t, ir.RiskCritical, res.Risk)
}

func TestStubWithoutGuaranteedFailureWarns(t *testing.T) {
	tr := mustTranslator(t, ir.ModeStub, ir.DialectOracle, ir.DialectMySQL)
	res := tr.View(&ir.View{Name: "v_ok", Definition: "CREATE VIEW v_ok AS SELECT id FROM users"})

	require.NotNil(t, res.SQL)
	assert.Contains(t, *res.SQL, "LIMITATION")

	var softFailure bool
	for _, w := range res.Warnings {
		if w.Reason == ir.ReasonStubMayNotFail {
			softFailure = true
		}
	}
	assert.True(t, softFailure)
}

func TestSubsetTranslateSimpleView(t *testing.T) {
	tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectOracle, ir.DialectPostgres)

	res := tr.View(&ir.View{
		Name:       "v_active",
		Definition: "CREATE VIEW v_active AS SELECT id, name FROM users WHERE active = 1",
	})

	require.NotNil(t, res.SQL)
	assert.Equal(t, "CREATE VIEW v_active AS SELECT id, name FROM users WHERE active = true;\n", *res.SQL)
	assert.NotContains(t, *res.SQL, "STUB")

	var unverified int
	for _, w := range res.Warnings {
		if w.Reason == ir.ReasonUnverifiedSyntax {
			unverified++
			assert.Equal(t, ir.RiskLow, w.Severity)
			assert.Equal(t, "Translated SQL syntax unverified (no compile-check); manual verification required.", w.Message)
		}
	}
	assert.Equal(t, 1, unverified, "exactly one unverified-syntax warning per translation")
}

func TestSubsetTranslateFallsBackToStubKeepingMode(t *testing.T) {
	tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectOracle, ir.DialectPostgres)

	res := tr.View(&ir.View{
		Name:       "v_union",
		Definition: "CREATE VIEW v_union AS SELECT id FROM a UNION SELECT id FROM b",
	})

	require.NotNil(t, res.SQL)
	assert.Contains(t, *res.SQL, "STUB")
	assert.Equal(t, ir.ModeSubsetTranslate, res.Mode)
	assert.Equal(t, ir.RiskCritical, res.Risk)
}

func TestSubsetTranslateRefusesLegacyOuterJoin(t *testing.T) {
	tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectOracle, ir.DialectPostgres)

	res := tr.View(&ir.View{
		Name:       "v_legacy",
		Definition: "CREATE VIEW v_legacy AS SELECT o.id, c.name FROM orders o JOIN customers c ON o.cust_id = c.id(+)",
	})

	require.NotNil(t, res.SQL)
	assert.Contains(t, *res.SQL, "STUB")
	assert.Contains(t, *res.SQL, string(ir.ReasonOuterJoinLegacy))
}

func TestSubsetTranslateAdmittedTrigger(t *testing.T) {
	tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectOracle, ir.DialectPostgres)

	res := tr.Trigger(&ir.Trigger{
		Name:   "trg_lower_email",
		Table:  "users",
		Timing: ir.TimingBefore,
		Events: []ir.TriggerEvent{ir.EventInsert, ir.EventUpdate},
		Scope:  ir.ScopeRow,
		Body:   "BEGIN :NEW.email := LOWER(:NEW.email); END;",
	})

	require.NotNil(t, res.SQL)
	assert.Contains(t, *res.SQL, "NEW.email = LOWER(NEW.email)")
	assert.Contains(t, *res.SQL, "CREATE TRIGGER trg_lower_email")
	assert.Contains(t, *res.SQL, "BEFORE INSERT OR UPDATE ON users")
	assert.Contains(t, *res.SQL, "EXECUTE FUNCTION trg_lower_email_fn()")
	assert.NotContains(t, *res.SQL, "STUB")
}

func TestSubsetTranslateTriggerStubsForOtherTargets(t *testing.T) {
	tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectOracle, ir.DialectMySQL)

	res := tr.Trigger(&ir.Trigger{
		Name:   "trg_lower_email",
		Table:  "users",
		Timing: ir.TimingBefore,
		Events: []ir.TriggerEvent{ir.EventInsert},
		Scope:  ir.ScopeRow,
		Body:   "BEGIN :NEW.email := LOWER(:NEW.email); END;",
	})

	require.NotNil(t, res.SQL)
	assert.Contains(t, *res.SQL, "STUB")
}

func TestSubsetTranslateRoutineSameDialectReemits(t *testing.T) {
	tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectPostgres, ir.DialectPostgres)

	def := "CREATE FUNCTION add_one(i integer) RETURNS integer AS $$ SELECT i + 1 $$ LANGUAGE sql IMMUTABLE;"
	res := tr.Routine(&ir.Routine{
		Name:       "add_one",
		Kind:       ir.RoutineFunction,
		Language:   "sql",
		Volatility: ir.VolatilityImmutable,
		DataAccess: ir.AccessContains,
		Security:   ir.SecurityInvoker,
		Definition: def,
	})

	require.NotNil(t, res.SQL)
	assert.Equal(t, def, *res.SQL)
	assert.Equal(t, ir.ObjectFunction, res.ObjectType)
}

func TestSubsetTranslateRoutineCrossDialectStubs(t *testing.T) {
	tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectPostgres, ir.DialectMySQL)

	res := tr.Routine(&ir.Routine{
		Name:       "add_one",
		Kind:       ir.RoutineFunction,
		Language:   "sql",
		Volatility: ir.VolatilityImmutable,
		DataAccess: ir.AccessContains,
		Security:   ir.SecurityInvoker,
		Definition: "CREATE FUNCTION add_one(i integer) RETURNS integer RETURN i + 1;",
	})

	require.NotNil(t, res.SQL)
	assert.Contains(t, *res.SQL, "STUB")
	assert.Equal(t, ir.RiskCritical, res.Risk)
}

func TestPackageAlwaysManual(t *testing.T) {
	body := `PACKAGE BODY billing AS
  PROCEDURE close_month(p_month IN NUMBER) IS
  BEGIN
    UPDATE invoices SET status = 'CLOSED' WHERE month = p_month;
  END;
END billing;`

	tr := mustTranslator(t, ir.ModeAnalyze, ir.DialectOracle, ir.DialectPostgres)
	res := tr.Package("billing", body)

	assert.Nil(t, res.SQL)
	assert.Equal(t, ir.RiskCritical, res.Risk)
	assert.NotEmpty(t, res.ManualSteps)

	var pkgReason bool
	for _, w := range res.Warnings {
		if w.Reason == ir.ReasonPackage {
			pkgReason = true
		}
	}
	assert.True(t, pkgReason)

	trStub := mustTranslator(t, ir.ModeStub, ir.DialectOracle, ir.DialectPostgres)
	stubbed := trStub.Package("billing", body)
	require.NotNil(t, stubbed.SQL)
	assert.Contains(t, *stubbed.SQL, "STUB")
}

func TestTranslationDeterministic(t *testing.T) {
	views := []*ir.View{
		{Name: "v_a", Definition: "CREATE VIEW v_a AS SELECT id FROM t1 WHERE id > 0"},
		{Name: "v_b", Definition: "CREATE VIEW v_b AS SELECT id FROM t2 UNION SELECT id FROM t3"},
		{Name: "v_c", Definition: "CREATE VIEW v_c AS SELECT a.id, b.name FROM a JOIN b ON a.id = b.a_id"},
	}

	run := func() []ir.TranslationResult {
		tr := mustTranslator(t, ir.ModeSubsetTranslate, ir.DialectOracle, ir.DialectPostgres)
		for _, v := range views {
			tr.View(v)
		}
		return tr.Results()
	}

	first, second := run(), run()
	require.Equal(t, first, second)

	// Stub bodies are byte-identical across runs as well.
	for i := range first {
		if first[i].SQL != nil {
			assert.True(t, strings.HasSuffix(*first[i].SQL, "\n"))
			assert.Equal(t, *first[i].SQL, *second[i].SQL)
		}
	}
}
