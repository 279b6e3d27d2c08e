package analyze

import (
	"regexp"
	"sort"
	"strings"
)

// SQLite has no server-side routine catalog; its L3 story is analysing the
// function calls inside view bodies: which are built in, which need the JSON
// extension, and which are unknown UDFs the target cannot provide.

// FunctionClass buckets one called function.
type FunctionClass string

const (
	FuncBuiltin       FunctionClass = "builtin"
	FuncJSONExtension FunctionClass = "json_extension"
	FuncUnknown       FunctionClass = "unknown"
)

// FunctionAnalysis is the result of scanning one SQL body for function calls.
type FunctionAnalysis struct {
	Calls          []string                 // sorted, deduplicated, lower-cased
	Classes        map[string]FunctionClass // per call
	Safe           bool                     // no unknown functions
	NeedsExtension bool                     // at least one json_* call
	Unknown        []string                 // sorted unknown calls
}

var sqliteBuiltins = toSet(
	"abs", "avg", "cast", "char", "coalesce", "count", "date", "datetime",
	"glob", "group_concat", "hex", "ifnull", "iif", "instr", "julianday",
	"length", "like", "lower", "ltrim", "max", "min", "nullif", "printf",
	"quote", "random", "randomblob", "replace", "round", "rtrim", "strftime",
	"substr", "substring", "sum", "time", "total", "trim", "typeof",
	"unicode", "unixepoch", "upper", "zeroblob",
)

var sqliteJSONFuncs = toSet(
	"json", "json_array", "json_array_length", "json_each", "json_extract",
	"json_group_array", "json_group_object", "json_insert", "json_object",
	"json_patch", "json_quote", "json_remove", "json_replace", "json_set",
	"json_tree", "json_type", "json_valid",
)

// sqlKeywords are call-shaped tokens that are not function invocations.
var sqlKeywords = toSet(
	"select", "from", "where", "and", "or", "not", "in", "exists", "on",
	"join", "as", "values", "between", "is", "null", "by", "group", "order",
	"having", "union", "all", "distinct", "limit", "offset", "when", "then",
	"case", "end", "over",
)

var callRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

func toSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// AnalyzeFunctions extracts and classifies every function call in body.
func AnalyzeFunctions(body string) FunctionAnalysis {
	clean := normalizeSQL(body)
	seen := map[string]bool{}
	a := FunctionAnalysis{Safe: true, Classes: map[string]FunctionClass{}}

	for _, m := range callRe.FindAllStringSubmatch(clean, -1) {
		name := strings.ToLower(m[1])
		if sqlKeywords[name] || seen[name] {
			continue
		}
		seen[name] = true
		a.Calls = append(a.Calls, name)

		switch {
		case sqliteJSONFuncs[name]:
			a.Classes[name] = FuncJSONExtension
			a.NeedsExtension = true
		case sqliteBuiltins[name]:
			a.Classes[name] = FuncBuiltin
		default:
			a.Classes[name] = FuncUnknown
			a.Unknown = append(a.Unknown, name)
			a.Safe = false
		}
	}
	sort.Strings(a.Calls)
	sort.Strings(a.Unknown)
	return a
}
