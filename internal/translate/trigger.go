package translate

import (
	"fmt"
	"regexp"
	"strings"

	"saiql/internal/ir"
)

// Trigger translation is supported for exactly one pair: Oracle source to
// Postgres target, and only for triggers the analyzer admitted. Everything
// else stubs.

var (
	oldNewColonRe = regexp.MustCompile(`:(NEW|OLD)\.`)
	plsqlAssignRe = regexp.MustCompile(`:=`)
	beginEndRe    = regexp.MustCompile(`(?i)^\s*BEGIN\b|\bEND\s*;?\s*$`)
)

// canTranslateTrigger reports whether the (source, target) pair has a
// trigger translation path at all.
func canTranslateTrigger(source, target ir.Dialect) bool {
	return source == ir.DialectOracle && target == ir.DialectPostgres
}

// translateTriggerSQL wraps an admitted Oracle trigger body in a plpgsql
// trigger function and the CREATE TRIGGER statement that attaches it.
func translateTriggerSQL(t *ir.Trigger) string {
	body := strings.TrimSpace(beginEndRe.ReplaceAllString(t.Body, ""))
	body = oldNewColonRe.ReplaceAllString(body, "$1.")
	body = plsqlAssignRe.ReplaceAllString(body, "=")
	body = strings.TrimSuffix(strings.TrimSpace(body), ";")

	events := make([]string, len(t.Events))
	for i, ev := range t.Events {
		events[i] = strings.ToUpper(string(ev))
	}

	fn := t.Name + "_fn"
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %[1]s() RETURNS trigger AS $$
BEGIN
    %[2]s;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;
CREATE TRIGGER %[3]s
    %[4]s %[5]s ON %[6]s
    FOR EACH ROW
    EXECUTE FUNCTION %[1]s();
`, fn, body, t.Name, strings.ToUpper(string(t.Timing)), strings.Join(events, " OR "), t.Table)
}
