// Package analyze contains the dialect-parameterised static analyzers for
// views, triggers, routines, and packages. Analyzers classify DDL text
// against the per-level safety subsets; they never execute it.
package analyze

import (
	"regexp"
	"strings"

	"saiql/internal/ir"
)

// ViewPattern is the closed whitelist of view shapes eligible for automatic
// translation.
type ViewPattern string

const (
	PatternSimpleSelect ViewPattern = "SIMPLE_SELECT"
	PatternSelectWhere  ViewPattern = "SELECT_WHERE"
	PatternBasicJoin    ViewPattern = "BASIC_JOIN"
	PatternUnsupported  ViewPattern = "UNSUPPORTED"
)

// ViewAnalysis is the verdict for one view definition.
type ViewAnalysis struct {
	Pattern ViewPattern
	Risk    ir.RiskLevel
	Reasons []ir.ReasonCode
	Tables  []string
}

// Supported reports whether the view matched a whitelisted pattern.
func (a ViewAnalysis) Supported() bool { return a.Pattern != PatternUnsupported }

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	stringLitRe    = regexp.MustCompile(`'(?:[^']|'')*'`)
	spaceRe        = regexp.MustCompile(`\s+`)

	// createPrefixRe strips the CREATE ... AS header down to the SELECT.
	createPrefixRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:FORCE\s+)?(?:EDITIONABLE\s+)?(?:ALGORITHM\s*=\s*\w+\s+)?(?:DEFINER\s*=\s*\S+\s+)?(?:SQL\s+SECURITY\s+\w+\s+)?VIEW\s+[^\s(]+\s*(?:\([^)]*\))?\s*AS\s+`)

	// computedExprRe catches arithmetic even with no surrounding whitespace
	// ("a+b", "price*2") and string concatenation.
	computedExprRe = regexp.MustCompile(`(?:[A-Za-z0-9_"')\]]\s*[\+\-\*/%]\s*[A-Za-z0-9_"'(])|\|\|`)

	// funcCallRe catches the computed-column function calls the whitelist
	// rejects, with or without whitespace before the parenthesis.
	funcCallRe = regexp.MustCompile(`(?i)\b(UPPER|LOWER|NVL|IFNULL|COALESCE|SUBSTRING|SUBSTR|CAST|TRIM|LTRIM|RTRIM|CONCAT|ROUND|ABS|LENGTH|TO_CHAR|TO_DATE|DATE_FORMAT)\s*\(`)

	aggregateRe = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX|GROUP_CONCAT|STRING_AGG|LISTAGG)\s*\(`)

	// nonEqJoinRe rejects every comparison except plain equality in a join
	// condition: <, >, <=, >=, <>, !=, BETWEEN, LIKE, IN.
	nonEqJoinRe = regexp.MustCompile(`(?i)\b(BETWEEN|LIKE|IN)\b|[<>!]`)
)

// viewConstruct pairs a detection regex with its reason code and risk class.
type viewConstruct struct {
	re     *regexp.Regexp
	reason ir.ReasonCode
	risk   ir.RiskLevel
}

var unsupportedConstructs = []viewConstruct{
	{regexp.MustCompile(`(?i)\bUNION\b|\bINTERSECT\b|\bEXCEPT\b|\bMINUS\b`), ir.ReasonViewSetOperation, ir.RiskCritical},
	{regexp.MustCompile(`(?i)\bOVER\s*\(|\bWINDOW\b|\bPARTITION\s+BY\b`), ir.ReasonViewWindowFunction, ir.RiskCritical},
	{regexp.MustCompile(`(?i)^\s*WITH\b`), ir.ReasonViewCTE, ir.RiskCritical},
	{regexp.MustCompile(`(?i)\b(LEFT|RIGHT|FULL|CROSS)\s+(OUTER\s+)?JOIN\b`), ir.ReasonViewOuterJoin, ir.RiskHigh},
	{regexp.MustCompile(`(?i)\bGROUP\s+BY\b`), ir.ReasonViewGroupBy, ir.RiskHigh},
	{regexp.MustCompile(`(?i)\bHAVING\b`), ir.ReasonViewHaving, ir.RiskHigh},
	{regexp.MustCompile(`(?i)\bORDER\s+BY\b`), ir.ReasonViewOrderBy, ir.RiskHigh},
	{regexp.MustCompile(`(?i)\bDISTINCT\b`), ir.ReasonViewDistinct, ir.RiskHigh},
	{regexp.MustCompile(`(?i)\bCASE\b`), ir.ReasonViewComputedColumn, ir.RiskHigh},
}

// AnalyzeView classifies a view definition against the pattern whitelist.
// MySQL-family definitions go through the AST classifier first and fall back
// to the textual scan when the statement does not parse.
func AnalyzeView(dialect ir.Dialect, name, definition string) ViewAnalysis {
	if dialect == ir.DialectMySQL || dialect == ir.DialectMariaDB {
		if a, ok := analyzeViewAST(name, definition); ok {
			return a
		}
	}
	return analyzeViewText(definition)
}

func analyzeViewText(definition string) ViewAnalysis {
	body := normalizeSQL(definition)
	body = createPrefixRe.ReplaceAllString(body, "")
	upper := strings.ToUpper(body)

	for _, c := range unsupportedConstructs {
		if c.re.MatchString(body) {
			return ViewAnalysis{Pattern: PatternUnsupported, Risk: c.risk, Reasons: []ir.ReasonCode{c.reason}}
		}
	}
	// A second SELECT anywhere means a subquery.
	if strings.Count(upper, "SELECT") > 1 {
		return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskCritical, Reasons: []ir.ReasonCode{ir.ReasonViewSubquery}}
	}
	if aggregateRe.MatchString(body) {
		return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskHigh, Reasons: []ir.ReasonCode{ir.ReasonViewAggregate}}
	}

	selectList, rest := splitSelect(body)
	if selectList == "" {
		return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskHigh, Reasons: []ir.ReasonCode{ir.ReasonTranslationRefused}}
	}
	if funcCallRe.MatchString(selectList) || computedExprRe.MatchString(selectList) {
		return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskHigh, Reasons: []ir.ReasonCode{ir.ReasonViewComputedColumn}}
	}

	tables, joinOn, hasJoin := parseFromClause(rest)
	if strings.Contains(strings.ToUpper(rest), "(+)") {
		return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskHigh, Reasons: []ir.ReasonCode{ir.ReasonOuterJoinLegacy}}
	}

	whereIdx := indexKeyword(rest, "WHERE")
	hasWhere := whereIdx >= 0

	switch {
	case hasJoin:
		if len(tables) != 2 {
			return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskHigh, Reasons: []ir.ReasonCode{ir.ReasonViewMultiTable}, Tables: tables}
		}
		if joinOn == "" || nonEqJoinRe.MatchString(joinOn) || !strings.Contains(joinOn, "=") {
			return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskHigh, Reasons: []ir.ReasonCode{ir.ReasonViewJoinCondition}, Tables: tables}
		}
		return ViewAnalysis{Pattern: PatternBasicJoin, Risk: ir.RiskMedium, Tables: tables}
	case len(tables) > 1:
		return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskHigh, Reasons: []ir.ReasonCode{ir.ReasonViewMultiTable}, Tables: tables}
	case hasWhere:
		return ViewAnalysis{Pattern: PatternSelectWhere, Risk: ir.RiskLow, Tables: tables}
	default:
		return ViewAnalysis{Pattern: PatternSimpleSelect, Risk: ir.RiskSafe, Tables: tables}
	}
}

// normalizeSQL strips comments and string literals and collapses whitespace
// so token scans cannot be fooled by quoted text.
func normalizeSQL(sql string) string {
	sql = blockCommentRe.ReplaceAllString(sql, " ")
	sql = lineCommentRe.ReplaceAllString(sql, " ")
	sql = stringLitRe.ReplaceAllString(sql, "''")
	return strings.TrimSpace(spaceRe.ReplaceAllString(sql, " "))
}

// splitSelect returns the projection list and everything from FROM onward.
func splitSelect(body string) (selectList, rest string) {
	upper := strings.ToUpper(body)
	selIdx := strings.Index(upper, "SELECT")
	fromIdx := indexKeyword(body, "FROM")
	if selIdx < 0 || fromIdx < 0 || fromIdx < selIdx {
		return "", ""
	}
	return strings.TrimSpace(body[selIdx+len("SELECT") : fromIdx]), strings.TrimSpace(body[fromIdx:])
}

// indexKeyword finds a keyword as a whole word, case-insensitively.
func indexKeyword(s, kw string) int {
	re := regexp.MustCompile(`(?i)\b` + kw + `\b`)
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.$"]*`)

// parseFromClause extracts the referenced tables and, when the clause is a
// single JOIN, the ON condition text.
func parseFromClause(rest string) (tables []string, joinOn string, hasJoin bool) {
	upper := strings.ToUpper(rest)
	if !strings.HasPrefix(upper, "FROM") {
		return nil, "", false
	}
	clause := rest[len("FROM"):]
	end := len(clause)
	if i := indexKeyword(clause, "WHERE"); i >= 0 && i < end {
		end = i
	}
	clause = strings.TrimSpace(clause[:end])

	joinIdx := indexKeyword(clause, "JOIN")
	if joinIdx < 0 {
		for _, part := range strings.Split(clause, ",") {
			if name := firstIdent(part); name != "" {
				tables = append(tables, name)
			}
		}
		return tables, "", false
	}

	hasJoin = true
	left := clause[:joinIdx]
	left = regexp.MustCompile(`(?i)\bINNER\s*$`).ReplaceAllString(left, "")
	right := clause[joinIdx+len("JOIN"):]
	onIdx := indexKeyword(right, "ON")
	if onIdx >= 0 {
		joinOn = strings.TrimSpace(right[onIdx+len("ON"):])
		right = right[:onIdx]
	}
	if name := firstIdent(left); name != "" {
		tables = append(tables, name)
	}
	if name := firstIdent(right); name != "" {
		tables = append(tables, name)
	}
	// A second JOIN keyword in the remainder means more than two tables.
	if indexKeyword(joinOn, "JOIN") >= 0 {
		tables = append(tables, "")
	}
	return tables, joinOn, true
}

func firstIdent(s string) string {
	s = strings.TrimSpace(s)
	m := identRe.FindString(s)
	return ir.FoldName(strings.Trim(m, `"`))
}
