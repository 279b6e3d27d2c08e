package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saiql/internal/ir"
)

func strPtr(s string) *string { return &s }

func sampleResults() []ir.TranslationResult {
	return []ir.TranslationResult{
		{
			ObjectType: ir.ObjectView,
			ObjectName: "v_active",
			Mode:       ir.ModeSubsetTranslate,
			SQL:        strPtr("CREATE VIEW v_active AS SELECT id FROM users;\n"),
			Risk:       ir.RiskLow,
			Warnings: []ir.Warning{{
				Severity: ir.RiskLow, Object: "v_active",
				Message: "Translated SQL syntax unverified (no compile-check); manual verification required.",
				Reason:  ir.ReasonUnverifiedSyntax,
			}},
		},
		{
			ObjectType: ir.ObjectView,
			ObjectName: "v_union",
			Mode:       ir.ModeSubsetTranslate,
			SQL:        strPtr("-- STUB: view v_union could not be translated.\nCREATE VIEW v_union AS SELECT 1/0 AS stub;\n"),
			Risk:       ir.RiskCritical,
			Warnings: []ir.Warning{{
				Severity: ir.RiskCritical, Object: "v_union",
				Message: "view emitted as loud-failure stub; Manual rewrite required",
				Reason:  ir.ReasonStubEmitted,
			}},
			ManualSteps: []ir.ManualStep{{
				Object: "v_union", Action: "rewrite view for target dialect", Reason: "stub emitted",
			}},
		},
		{
			ObjectType: ir.ObjectTrigger,
			ObjectName: "trg_audit",
			Mode:       ir.ModeSubsetTranslate,
			Risk:       ir.RiskHigh,
			ManualSteps: []ir.ManualStep{
				{Object: "trg_audit", Action: "rewrite trigger for target dialect", Reason: "after trigger"},
				{Object: "trg_audit", Action: "rewrite trigger for target dialect", Reason: "duplicate, dropped"},
			},
		},
	}
}

func newGenerator() Generator {
	return Generator{
		Mode:   ir.ModeSubsetTranslate,
		Source: ir.DialectOracle,
		Target: ir.DialectPostgres,
	}
}

func TestMachineCounts(t *testing.T) {
	m := newGenerator().Machine(sampleResults())

	assert.Equal(t, 3, m.Counts.Detected)
	assert.Equal(t, 1, m.Counts.Translated)
	assert.Equal(t, 1, m.Counts.Stubbed)
	assert.Equal(t, 1, m.Counts.AnalyzedOnly)
	assert.Equal(t, map[string]int{"trigger": 1, "view": 2}, m.Counts.ByType)
}

func TestMachineRiskSummaryListsAllLevels(t *testing.T) {
	m := newGenerator().Machine(sampleResults())

	require.Len(t, m.RiskSummary, 5)
	assert.Equal(t, 0, m.RiskSummary[ir.RiskSafe])
	assert.Equal(t, 0, m.RiskSummary[ir.RiskMedium])
	assert.Equal(t, 1, m.RiskSummary[ir.RiskLow])
	assert.Equal(t, 1, m.RiskSummary[ir.RiskHigh])
	assert.Equal(t, 1, m.RiskSummary[ir.RiskCritical])
}

func TestMachineWarningsSortedWithLegacyAlias(t *testing.T) {
	m := newGenerator().Machine(sampleResults())

	require.Len(t, m.Warnings, 2)
	assert.Equal(t, ir.RiskLow, m.Warnings[0].Severity)
	assert.Equal(t, ir.RiskCritical, m.Warnings[1].Severity)
	for _, w := range m.Warnings {
		assert.Equal(t, w.Object, w.Legacy)
	}

	raw, err := json.Marshal(m.Warnings[0])
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, decoded["object_name"], decoded["object"])
}

func TestMachineManualStepsDeduplicated(t *testing.T) {
	m := newGenerator().Machine(sampleResults())

	require.Len(t, m.ManualSteps, 2)
	// First occurrence wins on duplicate (object, action).
	assert.Equal(t, "after trigger", m.ManualSteps[0].Reason)
	assert.Equal(t, "trg_audit", m.ManualSteps[0].Object)
	assert.Equal(t, "v_union", m.ManualSteps[1].Object)
}

func TestTextReportSections(t *testing.T) {
	text := newGenerator().Text(sampleResults())

	for _, want := range []string{
		"SAIQL Translation Report",
		"Object Counts",
		"By Type",
		"Risk Summary",
		"Warnings",
		"Manual Steps Checklist",
		"End of Report",
	} {
		assert.Contains(t, text, want)
	}

	// Zero-count risk levels are omitted from the text report only.
	assert.NotContains(t, text, "safe")
	assert.NotContains(t, text, "medium")
	assert.Contains(t, text, "critical")

	assert.Contains(t, text, "[ ] v_union: rewrite view for target dialect (stub emitted)")
}

func TestReportsDeterministic(t *testing.T) {
	g := newGenerator()
	results := sampleResults()

	json1, err := g.JSON(results)
	require.NoError(t, err)
	json2, err := g.JSON(results)
	require.NoError(t, err)
	assert.Equal(t, json1, json2)

	assert.Equal(t, g.Text(results), g.Text(results))
}

func TestEmptyResults(t *testing.T) {
	g := Generator{Mode: ir.ModeAnalyze}
	m := g.Machine(nil)

	assert.Equal(t, 0, m.Counts.Detected)
	assert.Empty(t, m.Warnings)

	text := g.Text(nil)
	assert.Contains(t, text, "(none)")
	assert.True(t, strings.HasSuffix(text, "End of Report\n"))
}
