// Package report folds translator results into the machine report and the
// text report. Both outputs are deterministic: identical inputs yield
// byte-identical bytes.
package report

import (
	"encoding/json"
	"strings"

	"saiql/internal/ir"
)

// WarningEntry is a machine-report warning. Object is duplicated under the
// legacy "object" key so older consumers keep working.
type WarningEntry struct {
	Severity ir.RiskLevel  `json:"severity"`
	Object   string        `json:"object_name"`
	Message  string        `json:"message"`
	Reason   ir.ReasonCode `json:"reason"`
	Legacy   string        `json:"object"`
}

// StepEntry is a machine-report manual step, with the same legacy alias.
type StepEntry struct {
	Object string `json:"object_name"`
	Action string `json:"action"`
	Reason string `json:"reason"`
	Legacy string `json:"object"`
}

// Counts holds the object totals. Outcome buckets are omitted when zero.
type Counts struct {
	Detected     int            `json:"detected"`
	ByType       map[string]int `json:"by_type"`
	Translated   int            `json:"translated,omitempty"`
	Stubbed      int            `json:"stubbed,omitempty"`
	AnalyzedOnly int            `json:"analyzed_only,omitempty"`
}

// Machine is the machine-readable report. The risk summary always lists all
// five levels, including zeros; the text report omits the zeros instead.
type Machine struct {
	Mode          ir.TranslateMode      `json:"mode"`
	SourceDialect ir.Dialect            `json:"source_dialect,omitempty"`
	TargetDialect ir.Dialect            `json:"target_dialect,omitempty"`
	Counts        Counts                `json:"counts"`
	RiskSummary   map[ir.RiskLevel]int  `json:"risk_summary"`
	Warnings      []WarningEntry        `json:"warnings"`
	ManualSteps   []StepEntry           `json:"manual_steps"`
}

// Generator folds a read-only result list. It holds no state between calls.
type Generator struct {
	Mode   ir.TranslateMode
	Source ir.Dialect
	Target ir.Dialect
}

// Machine builds the machine report for the given results.
func (g Generator) Machine(results []ir.TranslationResult) Machine {
	m := Machine{
		Mode:          g.Mode,
		SourceDialect: g.Source,
		TargetDialect: g.Target,
		Counts: Counts{
			Detected: len(results),
			ByType:   map[string]int{},
		},
		RiskSummary: map[ir.RiskLevel]int{},
	}
	for _, lvl := range ir.RiskLevels() {
		m.RiskSummary[lvl] = 0
	}

	var warnings []ir.Warning
	var steps []ir.ManualStep
	for i := range results {
		r := &results[i]
		m.Counts.ByType[string(r.ObjectType)]++
		m.RiskSummary[r.Risk]++
		switch {
		case r.SQL == nil:
			m.Counts.AnalyzedOnly++
		case strings.Contains(*r.SQL, "STUB"):
			m.Counts.Stubbed++
		case *r.SQL != "":
			m.Counts.Translated++
		default:
			m.Counts.AnalyzedOnly++
		}
		warnings = append(warnings, r.Warnings...)
		steps = append(steps, r.ManualSteps...)
	}

	ir.SortWarnings(warnings)
	for _, w := range warnings {
		m.Warnings = append(m.Warnings, WarningEntry{
			Severity: w.Severity,
			Object:   w.Object,
			Message:  w.Message,
			Reason:   w.Reason,
			Legacy:   w.Object,
		})
	}
	for _, s := range ir.CanonicalManualSteps(steps) {
		m.ManualSteps = append(m.ManualSteps, StepEntry{
			Object: s.Object,
			Action: s.Action,
			Reason: s.Reason,
			Legacy: s.Object,
		})
	}
	return m
}

// JSON renders the machine report as indented JSON. Map keys are sorted by
// the encoder, so the bytes are stable for identical inputs.
func (g Generator) JSON(results []ir.TranslationResult) ([]byte, error) {
	m := g.Machine(results)
	return json.MarshalIndent(m, "", "  ")
}
