package analyze

import (
	"regexp"
	"strings"

	"saiql/internal/ir"
)

// The behavioural-safe trigger subset is deliberately tiny: a row-level
// BEFORE INSERT or BEFORE UPDATE trigger whose body is a single assignment
// to a NEW column through one of the whitelisted scalar functions.

// TriggerAnalysis is the verdict for one trigger definition.
type TriggerAnalysis struct {
	Allowed bool
	Risk    ir.RiskLevel
	Reasons []ir.ReasonCode
}

var triggerBodyFuncs = map[string]bool{
	"UPPER": true, "LOWER": true, "TRIM": true, "LTRIM": true, "RTRIM": true,
}

var (
	// assignmentRe matches the one admissible body statement:
	//   [SET] [:]NEW.col := FUNC([:]NEW.col)   (":=" or "=")
	assignmentRe = regexp.MustCompile(`(?i)^\s*(?:SET\s+)?:?NEW\.\w+\s*:?=\s*([A-Za-z_]+)\s*\(\s*:?(?:NEW\.)?\w+\s*\)\s*;?\s*$`)

	dmlRe         = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|MERGE)\b`)
	controlFlowRe = regexp.MustCompile(`(?i)\b(IF|ELSIF|ELSE|CASE|WHILE|LOOP|FOR|GOTO|EXCEPTION|CURSOR|FETCH|OPEN|CLOSE)\b`)
	bodyWrapRe    = regexp.MustCompile(`(?i)^\s*BEGIN\b|\bEND\s*;?\s*$`)
)

// AnalyzeTrigger classifies a trigger against the behavioural-safe subset.
func AnalyzeTrigger(t *ir.Trigger) TriggerAnalysis {
	var reasons []ir.ReasonCode

	switch t.Timing {
	case ir.TimingBefore:
	case ir.TimingAfter:
		reasons = append(reasons, ir.ReasonAfterTrigger)
	case ir.TimingInsteadOf:
		reasons = append(reasons, ir.ReasonInsteadOfTrigger)
	default:
		reasons = append(reasons, ir.ReasonTriggerBody)
	}
	if t.Scope != ir.ScopeRow {
		reasons = append(reasons, ir.ReasonStatementTrigger)
	}
	for _, ev := range t.Events {
		if ev != ir.EventInsert && ev != ir.EventUpdate {
			reasons = append(reasons, ir.ReasonTriggerEvent)
			break
		}
	}
	if len(t.Events) == 0 {
		reasons = append(reasons, ir.ReasonTriggerEvent)
	}

	body := normalizeSQL(t.Body)
	body = bodyWrapRe.ReplaceAllString(body, "")
	body = strings.TrimSpace(body)

	hasDML := dmlRe.MatchString(body)
	hasFlow := controlFlowRe.MatchString(body)

	switch {
	case hasDML:
		reasons = append(reasons, ir.ReasonTriggerDML)
	case hasFlow:
		reasons = append(reasons, ir.ReasonTriggerControlFlow)
	case strings.Count(body, ";") > 1:
		reasons = append(reasons, ir.ReasonTriggerBody)
	default:
		m := assignmentRe.FindStringSubmatch(body)
		if m == nil {
			reasons = append(reasons, ir.ReasonTriggerBody)
		} else if !triggerBodyFuncs[strings.ToUpper(m[1])] {
			reasons = append(reasons, ir.ReasonTriggerBody)
		}
	}

	if len(reasons) > 0 {
		risk := ir.RiskHigh
		if hasDML || hasFlow {
			risk = ir.RiskCritical
		}
		return TriggerAnalysis{Allowed: false, Risk: risk, Reasons: reasons}
	}
	return TriggerAnalysis{Allowed: true, Risk: ir.RiskLow}
}

// ClassifyTrigger attaches the analyzer verdict to the trigger record.
func ClassifyTrigger(t *ir.Trigger) {
	a := AnalyzeTrigger(t)
	t.Classification = ir.Classification{Allowed: a.Allowed, ReasonCodes: a.Reasons}
}
