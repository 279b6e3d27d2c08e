package analyze

import (
	"regexp"
	"strings"

	"saiql/internal/ir"
)

// Per-dialect allowlists for the L3 routine subset. Denied routines carry
// reason codes the translator uses to decide between stubbing and skipping.

var (
	cursorRe      = regexp.MustCompile(`(?i)\bCURSOR\b|\bFETCH\b`)
	dynamicSQLRe  = regexp.MustCompile(`(?i)\bEXECUTE\s+IMMEDIATE\b|\bPREPARE\b.*\bFROM\b`)
	autonomousRe  = regexp.MustCompile(`(?i)AUTONOMOUS_TRANSACTION`)
	oracleOnlyRe  = regexp.MustCompile(`(?i)\bROWNUM\b|\bCONNECT\s+BY\b|\bDBMS_\w+|\bUTL_\w+`)
)

// ClassifyRoutine applies the source dialect's allowlist and stores the
// verdict on the routine.
func ClassifyRoutine(dialect ir.Dialect, r *ir.Routine) {
	var reasons []ir.ReasonCode

	if r.Kind == ir.RoutinePackage {
		r.Classification = ir.Classification{Allowed: false, ReasonCodes: []ir.ReasonCode{ir.ReasonPackage}}
		return
	}

	switch dialect {
	case ir.DialectPostgres:
		if lang := strings.ToLower(r.Language); lang != "sql" && lang != "plpgsql" {
			reasons = append(reasons, ir.ReasonLanguage)
		}
		if r.Volatility != ir.VolatilityImmutable && r.Volatility != ir.VolatilityStable {
			reasons = append(reasons, ir.ReasonVolatile)
		}
		if r.Security != ir.SecurityInvoker {
			reasons = append(reasons, ir.ReasonDefinerSecurity)
		}
	case ir.DialectMySQL, ir.DialectMariaDB:
		deterministic := r.Volatility == ir.VolatilityImmutable || r.Volatility == ir.VolatilityStable
		readOnlyProc := r.Kind == ir.RoutineProcedure && r.DataAccess != ir.AccessModifies
		if !deterministic && !readOnlyProc {
			reasons = append(reasons, ir.ReasonNotDeterministic)
		}
		if r.DataAccess == ir.AccessModifies {
			reasons = append(reasons, ir.ReasonModifiesSQLData)
		}
		if r.Security != ir.SecurityInvoker {
			reasons = append(reasons, ir.ReasonDefinerSecurity)
		}
	case ir.DialectOracle:
		reasons = append(reasons, classifyOracleBody(r.Body)...)
	default:
		reasons = append(reasons, ir.ReasonLevelUnsupported)
	}

	r.Classification = ir.Classification{Allowed: len(reasons) == 0, ReasonCodes: reasons}
}

// classifyOracleBody is the explicit per-routine classification Oracle gets:
// complexity-scored, with hard rejections for constructs that cannot carry
// over mechanically.
func classifyOracleBody(body string) []ir.ReasonCode {
	var reasons []ir.ReasonCode
	if cursorRe.MatchString(body) {
		reasons = append(reasons, ir.ReasonCursor)
	}
	if dynamicSQLRe.MatchString(body) {
		reasons = append(reasons, ir.ReasonDynamicSQL)
	}
	if autonomousRe.MatchString(body) {
		reasons = append(reasons, ir.ReasonAutonomousTxn)
	}
	if oracleOnlyRe.MatchString(body) {
		reasons = append(reasons, ir.ReasonDialectConstruct)
	}
	if ComplexityScore(body) > 40 {
		reasons = append(reasons, ir.ReasonTranslationRefused)
	}
	return reasons
}

// ComplexityScore computes the 0-100 routine complexity score from line
// count, control-flow density, DML count, and cursor count.
func ComplexityScore(body string) int {
	lines := strings.Count(body, "\n") + 1
	flow := len(controlFlowRe.FindAllString(body, -1))
	dml := len(dmlRe.FindAllString(body, -1))
	cursors := len(cursorRe.FindAllString(body, -1))

	score := lines/5 + flow*5 + dml*8 + cursors*15
	if score > 100 {
		score = 100
	}
	return score
}
