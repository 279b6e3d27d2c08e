package translate

import (
	"fmt"
	"regexp"
	"strings"

	"saiql/internal/ir"
)

// View translation under SUBSET_TRANSLATE is minimal and mechanical: strip
// keywords the target rejects, translate boolean literals where the dialects
// disagree, and normalise the CREATE VIEW prefix. Anything the analyzer did
// not whitelist never reaches this code.

var (
	forceKeywordRe    = regexp.MustCompile(`(?i)\b(FORCE|EDITIONABLE|NOFORCE)\s+`)
	createViewHeadRe  = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:ALGORITHM\s*=\s*\w+\s+)?(?:DEFINER\s*=\s*\S+\s+)?(?:SQL\s+SECURITY\s+\w+\s+)?VIEW\s+[^\s(]+\s*(?:\([^)]*\))?\s*AS\s+`)
	legacyOuterJoinRe = regexp.MustCompile(`\(\+\)`)
	boolEqTrueRe      = regexp.MustCompile(`=\s*1\b`)
	boolEqFalseRe     = regexp.MustCompile(`=\s*0\b`)
	fromDualRe        = regexp.MustCompile(`(?i)\s+FROM\s+DUAL\b`)
)

// errLegacyOuterJoin marks the one construct the view translator refuses
// outright rather than transforming.
type viewTranslationError struct {
	reason ir.ReasonCode
}

func (e *viewTranslationError) Error() string { return string(e.reason) }

// translateViewSQL produces the target CREATE VIEW statement for a
// whitelisted view.
func translateViewSQL(source, target ir.Dialect, v *ir.View) (string, error) {
	body := strings.TrimSpace(v.Definition)
	body = forceKeywordRe.ReplaceAllString(body, "")
	body = createViewHeadRe.ReplaceAllString(body, "")

	if legacyOuterJoinRe.MatchString(body) {
		return "", &viewTranslationError{reason: ir.ReasonOuterJoinLegacy}
	}

	if source == ir.DialectOracle && target == ir.DialectPostgres {
		body = boolEqTrueRe.ReplaceAllString(body, "= true")
		body = boolEqFalseRe.ReplaceAllString(body, "= false")
	}
	if source == ir.DialectOracle && target != ir.DialectOracle {
		body = fromDualRe.ReplaceAllString(body, "")
	}

	body = strings.TrimSuffix(strings.TrimSpace(body), ";")
	return fmt.Sprintf("CREATE VIEW %s AS %s;\n", v.Name, body), nil
}
