package report

import (
	"fmt"
	"sort"
	"strings"

	"saiql/internal/ir"
)

const (
	textHeader  = "SAIQL Translation Report"
	textTrailer = "End of Report"
)

// Text renders the fixed-width text report. It is derived from the machine
// report so the two can never disagree.
func (g Generator) Text(results []ir.TranslationResult) string {
	m := g.Machine(results)

	var b strings.Builder
	rule := strings.Repeat("=", len(textHeader)+8)
	fmt.Fprintf(&b, "%s\n    %s\n%s\n", rule, textHeader, rule)
	fmt.Fprintf(&b, "Mode:   %s\n", m.Mode)
	if m.SourceDialect != "" {
		fmt.Fprintf(&b, "Source: %s\n", m.SourceDialect)
	}
	if m.TargetDialect != "" {
		fmt.Fprintf(&b, "Target: %s\n", m.TargetDialect)
	}
	b.WriteString("\n")

	section(&b, "Object Counts")
	fmt.Fprintf(&b, "%-16s %d\n", "detected", m.Counts.Detected)
	if m.Counts.AnalyzedOnly > 0 {
		fmt.Fprintf(&b, "%-16s %d\n", "analyzed_only", m.Counts.AnalyzedOnly)
	}
	if m.Counts.Stubbed > 0 {
		fmt.Fprintf(&b, "%-16s %d\n", "stubbed", m.Counts.Stubbed)
	}
	if m.Counts.Translated > 0 {
		fmt.Fprintf(&b, "%-16s %d\n", "translated", m.Counts.Translated)
	}
	b.WriteString("\n")

	section(&b, "By Type")
	types := make([]string, 0, len(m.Counts.ByType))
	for k := range m.Counts.ByType {
		types = append(types, k)
	}
	sort.Strings(types)
	for _, k := range types {
		fmt.Fprintf(&b, "%-16s %d\n", k, m.Counts.ByType[k])
	}
	b.WriteString("\n")

	section(&b, "Risk Summary")
	for _, lvl := range ir.RiskLevels() {
		if n := m.RiskSummary[lvl]; n > 0 {
			fmt.Fprintf(&b, "%-16s %d\n", lvl, n)
		}
	}
	b.WriteString("\n")

	section(&b, "Warnings")
	if len(m.Warnings) == 0 {
		b.WriteString("(none)\n")
	}
	for _, w := range m.Warnings {
		fmt.Fprintf(&b, "[%s] %s: %s\n", w.Severity, w.Object, w.Message)
	}
	b.WriteString("\n")

	section(&b, "Manual Steps Checklist")
	if len(m.ManualSteps) == 0 {
		b.WriteString("(none)\n")
	}
	for _, s := range m.ManualSteps {
		fmt.Fprintf(&b, "[ ] %s: %s (%s)\n", s.Object, s.Action, s.Reason)
	}

	fmt.Fprintf(&b, "\n%s\n", textTrailer)
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", len(title)))
	b.WriteString("\n")
}
