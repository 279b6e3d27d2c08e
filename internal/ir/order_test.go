package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortWarningsTotalOrder(t *testing.T) {
	in := []Warning{
		{Severity: RiskLow, Object: "b_view", Message: "m2"},
		{Severity: RiskCritical, Object: "a_view", Message: "m1"},
		{Severity: RiskLow, Object: "a_view", Message: "m9"},
		{Severity: RiskLow, Object: "a_view", Message: "m1"},
		{Severity: RiskSafe, Object: "z_view", Message: "m0"},
	}
	SortWarnings(in)

	want := []Warning{
		{Severity: RiskSafe, Object: "z_view", Message: "m0"},
		{Severity: RiskLow, Object: "a_view", Message: "m1"},
		{Severity: RiskLow, Object: "a_view", Message: "m9"},
		{Severity: RiskLow, Object: "b_view", Message: "m2"},
		{Severity: RiskCritical, Object: "a_view", Message: "m1"},
	}
	assert.Equal(t, want, in)

	// Sorting an already-sorted list is a no-op.
	again := append([]Warning(nil), in...)
	SortWarnings(again)
	assert.Equal(t, in, again)
}

func TestCanonicalManualSteps(t *testing.T) {
	in := []ManualStep{
		{Object: "pkg_b", Action: "rewrite body", Reason: "cursor"},
		{Object: "pkg_a", Action: "rewrite body", Reason: "package"},
		{Object: "pkg_b", Action: "rewrite body", Reason: "duplicate, different reason"},
		{Object: "pkg_a", Action: "create manually", Reason: "package"},
	}
	out := CanonicalManualSteps(in)

	require.Len(t, out, 3)
	assert.Equal(t, "pkg_a", out[0].Object)
	assert.Equal(t, "create manually", out[0].Action)
	assert.Equal(t, "pkg_a", out[1].Object)
	assert.Equal(t, "rewrite body", out[1].Action)
	assert.Equal(t, "pkg_b", out[2].Object)
	// First occurrence wins on dedup.
	assert.Equal(t, "cursor", out[2].Reason)
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"view": 2, "table": 5, "trigger": 1}
	assert.Equal(t, []string{"table", "trigger", "view"}, SortedKeys(m))
}

func TestRiskOrdinal(t *testing.T) {
	assert.Less(t, RiskSafe.Ordinal(), RiskLow.Ordinal())
	assert.Less(t, RiskLow.Ordinal(), RiskMedium.Ordinal())
	assert.Less(t, RiskMedium.Ordinal(), RiskHigh.Ordinal())
	assert.Less(t, RiskHigh.Ordinal(), RiskCritical.Ordinal())
	assert.Equal(t, RiskCritical, MaxRisk(RiskLow, RiskCritical))
	assert.Equal(t, RiskHigh, MaxRisk(RiskHigh, RiskSafe))
	// Unknown levels sort after critical.
	assert.Greater(t, RiskLevel("bogus").Ordinal(), RiskCritical.Ordinal())
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "v_customer_summary", FoldName("  V_CUSTOMER_SUMMARY "))
	assert.Equal(t, "orders", FoldName("Orders"))
}
