package analyze

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"saiql/internal/ir"
)

// The package analyzer never translates. It extracts structure, enumerates
// approximate table dependencies, scores complexity, and emits the manual
// migration checklist. Dependency output is advisory only: the regex scan
// misses dynamic SQL and schema-qualified references, so it is never used
// for topological ordering.

// PackageMember is one procedure or function found inside a package body.
type PackageMember struct {
	Kind ir.RoutineKind
	Name string
}

// PackageAnalysis is the full static-analysis result for one package.
type PackageAnalysis struct {
	Name         string
	Members      []PackageMember
	Dependencies []string
	Complexity   int
	Warnings     []ir.Warning
	ManualSteps  []ir.ManualStep
}

var (
	memberRe = regexp.MustCompile(`(?i)\b(PROCEDURE|FUNCTION)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	depRe    = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INSERT\s+INTO|UPDATE)\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// depStopWords are keywords the dependency regex would otherwise capture.
var depStopWords = map[string]bool{
	"select": true, "dual": true, "where": true, "set": true, "values": true,
}

// AnalyzePackage statically analyzes one package body.
func AnalyzePackage(name, body string) PackageAnalysis {
	name = ir.FoldName(name)
	a := PackageAnalysis{Name: name}

	clean := normalizeSQL(body)
	for _, m := range memberRe.FindAllStringSubmatch(clean, -1) {
		kind := ir.RoutineProcedure
		if strings.EqualFold(m[1], "FUNCTION") {
			kind = ir.RoutineFunction
		}
		a.Members = append(a.Members, PackageMember{Kind: kind, Name: ir.FoldName(m[2])})
	}

	seen := map[string]bool{}
	for _, m := range depRe.FindAllStringSubmatch(clean, -1) {
		dep := ir.FoldName(m[1])
		if dep == "" || depStopWords[dep] || seen[dep] {
			continue
		}
		seen[dep] = true
		a.Dependencies = append(a.Dependencies, dep)
	}
	sort.Strings(a.Dependencies)

	a.Complexity = packageComplexity(body, len(a.Members))

	if cursorRe.MatchString(body) {
		a.Warnings = append(a.Warnings, ir.Warning{
			Severity: ir.RiskHigh, Object: name,
			Message: "package uses cursors; no mechanical equivalent is emitted",
			Reason:  ir.ReasonCursor,
		})
	}
	if autonomousRe.MatchString(body) {
		a.Warnings = append(a.Warnings, ir.Warning{
			Severity: ir.RiskCritical, Object: name,
			Message: "autonomous transaction semantics cannot be carried over",
			Reason:  ir.ReasonAutonomousTxn,
		})
	}
	if oracleOnlyRe.MatchString(body) {
		a.Warnings = append(a.Warnings, ir.Warning{
			Severity: ir.RiskHigh, Object: name,
			Message: "dialect-specific constructs (ROWNUM/CONNECT BY/DBMS_*) require rewrite",
			Reason:  ir.ReasonDialectConstruct,
		})
	}
	if dynamicSQLRe.MatchString(body) {
		a.Warnings = append(a.Warnings, ir.Warning{
			Severity: ir.RiskHigh, Object: name,
			Message: "dynamic SQL defeats static dependency analysis",
			Reason:  ir.ReasonDynamicSQL,
		})
	}
	ir.SortWarnings(a.Warnings)

	a.ManualSteps = append(a.ManualSteps, ir.ManualStep{
		Object: name,
		Action: "rewrite package for target dialect",
		Reason: string(ir.ReasonPackage),
	})
	for _, m := range a.Members {
		a.ManualSteps = append(a.ManualSteps, ir.ManualStep{
			Object: name,
			Action: fmt.Sprintf("port %s %s", m.Kind, m.Name),
			Reason: string(ir.ReasonPackage),
		})
	}
	a.ManualSteps = ir.CanonicalManualSteps(a.ManualSteps)
	return a
}

// packageComplexity folds member count into the shared body score.
func packageComplexity(body string, members int) int {
	score := ComplexityScore(body) + members*5
	if score > 100 {
		score = 100
	}
	return score
}
