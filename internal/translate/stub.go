package translate

import (
	"fmt"
	"strings"

	"saiql/internal/ir"
)

// Stubs are deliberately non-functional DDL. They fail loudly where the
// target engine makes that possible, and carry a LIMITATION comment where it
// does not: under some session modes MySQL, MSSQL, and SQLite evaluate 1/0
// to NULL rather than raising.

const manualRewriteBanner = "Manual rewrite required"

// stubOutput is one emitted stub plus whether its loud failure is guaranteed
// by the target engine.
type stubOutput struct {
	sql        string
	guaranteed bool
}

func stubView(target ir.Dialect, name string, reasons []ir.ReasonCode) stubOutput {
	reason := reasonList(reasons)
	switch target {
	case ir.DialectPostgres:
		sql := fmt.Sprintf(`-- STUB: view %[1]s could not be translated (%[2]s).
-- %[3]s before this view is usable.
CREATE OR REPLACE FUNCTION %[1]s_stub_error() RETURNS boolean AS $$
BEGIN
    RAISE EXCEPTION 'STUB view %[1]s: %[3]s';
END;
$$ LANGUAGE plpgsql;
CREATE OR REPLACE VIEW %[1]s AS SELECT %[1]s_stub_error() AS stub;
`, name, reason, manualRewriteBanner)
		return stubOutput{sql: sql, guaranteed: true}
	case ir.DialectOracle:
		sql := fmt.Sprintf(`-- STUB: view %[1]s could not be translated (%[2]s).
-- %[3]s. Querying this view raises ORA-01476 (divisor is equal to zero).
CREATE OR REPLACE VIEW %[1]s AS SELECT 1/0 AS stub FROM dual;
`, name, reason, manualRewriteBanner)
		return stubOutput{sql: sql, guaranteed: true}
	default:
		sql := fmt.Sprintf(`-- STUB: view %[1]s could not be translated (%[2]s).
-- %[3]s.
-- LIMITATION: 1/0 may return NULL instead of failing under certain session modes.
CREATE VIEW %[1]s AS SELECT 1/0 AS stub;
`, name, reason, manualRewriteBanner)
		return stubOutput{sql: sql, guaranteed: false}
	}
}

func stubRoutine(target ir.Dialect, name string, kind ir.RoutineKind, reasons []ir.ReasonCode) stubOutput {
	reason := reasonList(reasons)
	if target == ir.DialectPostgres {
		sql := fmt.Sprintf(`-- STUB: %[4]s %[1]s could not be translated (%[2]s).
-- %[3]s before this %[4]s is usable.
CREATE OR REPLACE FUNCTION %[1]s() RETURNS void AS $$
BEGIN
    RAISE EXCEPTION 'STUB %[4]s %[1]s: %[3]s';
END;
$$ LANGUAGE plpgsql;
`, name, reason, manualRewriteBanner, kind)
		return stubOutput{sql: sql, guaranteed: true}
	}
	sql := fmt.Sprintf(`-- STUB: %s %s could not be translated (%s).
-- %s. No executable object is emitted for this target.
`, kind, name, reason, manualRewriteBanner)
	return stubOutput{sql: sql, guaranteed: false}
}

func stubTrigger(target ir.Dialect, name, table string, reasons []ir.ReasonCode) stubOutput {
	reason := reasonList(reasons)
	if target == ir.DialectPostgres {
		sql := fmt.Sprintf(`-- STUB: trigger %[1]s on %[2]s could not be translated (%[3]s).
-- %[4]s before this trigger is usable.
CREATE OR REPLACE FUNCTION %[1]s_stub() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'STUB trigger %[1]s: %[4]s';
END;
$$ LANGUAGE plpgsql;
`, name, table, reason, manualRewriteBanner)
		return stubOutput{sql: sql, guaranteed: true}
	}
	sql := fmt.Sprintf(`-- STUB: trigger %s on %s could not be translated (%s).
-- %s. No executable object is emitted for this target.
`, name, table, reason, manualRewriteBanner)
	return stubOutput{sql: sql, guaranteed: false}
}

func reasonList(reasons []ir.ReasonCode) string {
	if len(reasons) == 0 {
		return string(ir.ReasonTranslationRefused)
	}
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, "; ")
}
