// Package typereg is the process-wide, immutable type registry. It parses
// dialect-specific type strings into the IR, renders IR types back into a
// target dialect's canonical DDL form, and classifies cross-dialect
// conversions as lossless, lossy, partial, or unsupported.
//
// The registry never fails on unknown input: an unmatched type string parses
// to UNKNOWN with the original text preserved, and the caller decides whether
// that aborts or merely flags the column.
package typereg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"saiql/internal/ir"
)

// parenRe matches the parenthesized argument list of a type string.
// Example: "VARCHAR(255)" -> "(255)".
var parenRe = regexp.MustCompile(`\(([^)]*)\)`)

// wsRe collapses runs of whitespace after the parenthesized part is removed.
var wsRe = regexp.MustCompile(`\s+`)

// Parse lifts a source type string into the IR. Matching is case-insensitive;
// parenthesized arguments become precision/scale or length depending on the
// rule; trailing modifiers ("WITH TIME ZONE", "UNSIGNED") are folded into the
// lookup key. An unmatched string yields KindUnknown with SourceRaw set.
func Parse(dialect ir.Dialect, raw string) ir.TypeInfo {
	table, ok := dialectParse[dialect]
	if !ok {
		return ir.TypeInfo{Kind: ir.KindUnknown, SourceRaw: raw}
	}

	args := parseArgs(raw)
	base := strings.ToUpper(strings.TrimSpace(parenRe.ReplaceAllString(raw, "")))
	base = strings.TrimSpace(wsRe.ReplaceAllString(base, " "))

	rule, ok := table[base]
	if !ok {
		return ir.TypeInfo{Kind: ir.KindUnknown, SourceRaw: raw}
	}

	info := ir.TypeInfo{Kind: rule.kind, SourceRaw: raw}
	switch rule.mode {
	case paramsLength:
		if len(args) > 0 {
			info.Length = args[0]
		}
	case paramsPrecision:
		if len(args) > 0 {
			info.Precision = args[0]
		}
	case paramsPrecScale:
		if len(args) > 0 {
			info.Precision = args[0]
		}
		if len(args) > 1 {
			info.Scale = args[1]
		}
	case paramsFixed:
		info.Precision = rule.precision
		info.Scale = rule.scale
	}
	return info
}

func parseArgs(raw string) []int {
	m := parenRe.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	var args []int
	for _, part := range strings.Split(m[1], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			// Non-numeric argument (e.g. "max"); the base rule decides.
			continue
		}
		args = append(args, n)
	}
	return args
}

// Render produces the target dialect's canonical DDL type string for an IR
// type. UNKNOWN renders to the empty string; callers must not emit it.
func Render(dialect ir.Dialect, t ir.TypeInfo) string {
	if t.Kind == ir.KindUnknown {
		return ""
	}
	table, ok := dialectRender[dialect]
	if !ok {
		return ""
	}
	rule, ok := table[t.Kind]
	if !ok {
		return ""
	}
	switch rule.mode {
	case paramsLength:
		if t.Length > 0 {
			return fmt.Sprintf("%s(%d)", rule.base, t.Length)
		}
	case paramsPrecision:
		if t.Precision > 0 {
			return fmt.Sprintf("%s(%d)", rule.base, t.Precision)
		}
	case paramsPrecScale:
		if t.Precision > 0 && t.Scale > 0 {
			return fmt.Sprintf("%s(%d,%d)", rule.base, t.Precision, t.Scale)
		}
		if t.Precision > 0 {
			return fmt.Sprintf("%s(%d)", rule.base, t.Precision)
		}
	}
	return rule.base
}

// Fidelity classifies one cross-dialect conversion.
type Fidelity string

const (
	Lossless    Fidelity = "lossless"
	Lossy       Fidelity = "lossy"
	Partial     Fidelity = "partial"
	Unsupported Fidelity = "unsupported"
)

// Conversion is the verdict for a (source dialect, type, target dialect)
// triple. Reason names the concrete semantic change when fidelity is not
// lossless.
type Conversion struct {
	Fidelity Fidelity
	Reason   string
}

// Classify reports how faithfully t survives migration from src to dst.
// The rules are declarative and symmetric in shape, not in content: each row
// names the semantic change a reviewer needs to know about.
func Classify(src ir.Dialect, t ir.TypeInfo, dst ir.Dialect) Conversion {
	if t.Kind == ir.KindUnknown {
		return Conversion{Fidelity: Unsupported, Reason: fmt.Sprintf("no registry mapping for %q", t.SourceRaw)}
	}
	if _, ok := dialectRender[dst][t.Kind]; !ok {
		return Conversion{Fidelity: Unsupported, Reason: fmt.Sprintf("target has no rendering for %s", t.Kind)}
	}
	if src == dst {
		return Conversion{Fidelity: Lossless}
	}

	if src == ir.DialectOracle {
		switch t.Kind {
		case ir.KindVarchar, ir.KindChar, ir.KindText:
			return Conversion{Fidelity: Lossy, Reason: "Oracle empty-string-as-NULL semantics are not preserved"}
		case ir.KindTimestamp:
			if strings.EqualFold(strings.TrimSpace(parenRe.ReplaceAllString(t.SourceRaw, "")), "DATE") {
				return Conversion{Fidelity: Partial, Reason: "Oracle DATE carries time of day; target DATE mapping widened to TIMESTAMP"}
			}
		}
	}

	switch t.Kind {
	case ir.KindTimestampTZ:
		if dst == ir.DialectMySQL || dst == ir.DialectMariaDB || dst == ir.DialectSQLite || dst == ir.DialectHANA {
			return Conversion{Fidelity: Lossy, Reason: "Timezone dropped: target normalises to UTC"}
		}
	case ir.KindDecimal:
		if dst == ir.DialectSQLite {
			return Conversion{Fidelity: Lossy, Reason: "Fixed-point precision replaced by floating point"}
		}
	case ir.KindJSONB:
		if dst != ir.DialectPostgres {
			return Conversion{Fidelity: Partial, Reason: "JSONB binary storage and indexing degraded to plain JSON text"}
		}
	case ir.KindJSON:
		if dst == ir.DialectOracle || dst == ir.DialectMSSQL || dst == ir.DialectSQLite || dst == ir.DialectHANA {
			return Conversion{Fidelity: Partial, Reason: "JSON stored as text without native validation"}
		}
	case ir.KindUUID:
		if dst != ir.DialectPostgres && dst != ir.DialectMSSQL {
			return Conversion{Fidelity: Partial, Reason: "UUID stored as text/raw without native type checks"}
		}
	case ir.KindBoolean:
		if dst == ir.DialectOracle || dst == ir.DialectMSSQL || dst == ir.DialectSQLite {
			return Conversion{Fidelity: Partial, Reason: "BOOLEAN mapped to a numeric stand-in"}
		}
	case ir.KindVarchar, ir.KindChar, ir.KindText, ir.KindDate, ir.KindTime, ir.KindTimestamp:
		if dst == ir.DialectSQLite {
			return Conversion{Fidelity: Partial, Reason: "SQLite type affinity does not enforce declared type"}
		}
	}
	return Conversion{Fidelity: Lossless}
}

// ColumnFromNative is the adapter-boundary helper: parse the native type,
// set the unsupported flag per the UNKNOWN invariant.
func ColumnFromNative(dialect ir.Dialect, name, nativeType string, nullable bool, def *string) ir.Column {
	info := Parse(dialect, nativeType)
	return ir.Column{
		Name:        ir.FoldName(name),
		NativeType:  nativeType,
		Type:        info,
		Nullable:    nullable,
		Default:     def,
		Unsupported: info.Unknown(),
	}
}
