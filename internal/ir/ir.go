// Package ir contains the dialect-neutral intermediate representation shared
// by every component of the harness. It provides a structured representation
// of tables, views, routines, and triggers for all dialects that we support,
// plus the translation result types the report generator consumes.
package ir

import "strings"

// Dialect identifies a supported SQL dialect.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectMariaDB  Dialect = "mariadb"
	DialectSQLite   Dialect = "sqlite"
	DialectOracle   Dialect = "oracle"
	DialectMSSQL    Dialect = "mssql"
	DialectHANA     Dialect = "hana"
)

// SupportedDialects returns a slice of all supported dialect values.
func SupportedDialects() []Dialect {
	return []Dialect{
		DialectPostgres,
		DialectMySQL,
		DialectMariaDB,
		DialectSQLite,
		DialectOracle,
		DialectMSSQL,
		DialectHANA,
	}
}

// IsValidDialect reports whether d is a recognized dialect string.
func IsValidDialect(d string) bool {
	for _, supported := range SupportedDialects() {
		if strings.EqualFold(string(supported), d) {
			return true
		}
	}
	return false
}

// TypeKind is the closed set of dialect-neutral column types.
type TypeKind string

const (
	KindSmallInt    TypeKind = "SMALLINT"
	KindInteger     TypeKind = "INTEGER"
	KindBigInt      TypeKind = "BIGINT"
	KindDecimal     TypeKind = "DECIMAL"
	KindReal        TypeKind = "REAL"
	KindDouble      TypeKind = "DOUBLE"
	KindChar        TypeKind = "CHAR"
	KindVarchar     TypeKind = "VARCHAR"
	KindText        TypeKind = "TEXT"
	KindBytea       TypeKind = "BYTEA"
	KindDate        TypeKind = "DATE"
	KindTime        TypeKind = "TIME"
	KindTimestamp   TypeKind = "TIMESTAMP"
	KindTimestampTZ TypeKind = "TIMESTAMP_TZ"
	KindBoolean     TypeKind = "BOOLEAN"
	KindUUID        TypeKind = "UUID"
	KindJSON        TypeKind = "JSON"
	KindJSONB       TypeKind = "JSONB"
	KindUnknown     TypeKind = "UNKNOWN"
)

// TypeInfo is an IR type with optional precision, scale, and length.
// A zero value for Precision, Scale, or Length means "absent".
// SourceRaw preserves the original type string for reporting, which matters
// most when Kind is UNKNOWN.
type TypeInfo struct {
	Kind      TypeKind `json:"kind"`
	Precision int      `json:"precision,omitempty"`
	Scale     int      `json:"scale,omitempty"`
	Length    int      `json:"length,omitempty"`
	SourceRaw string   `json:"source_raw,omitempty"`
}

// Unknown reports whether the type failed registry mapping.
func (t TypeInfo) Unknown() bool { return t.Kind == KindUnknown }

// Column is a single table column lifted into the IR.
type Column struct {
	Name        string   `json:"name"`
	NativeType  string   `json:"native_type"`
	Type        TypeInfo `json:"ir_type"`
	Nullable    bool     `json:"nullable"`
	Default     *string  `json:"default,omitempty"`
	Identity    bool     `json:"identity,omitempty"`
	Unsupported bool     `json:"is_unsupported,omitempty"`
}

// ForeignKey describes one column-level foreign key reference.
type ForeignKey struct {
	Name      string `json:"constraint_name"`
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// UniqueConstraint is a named unique constraint over one or more columns.
type UniqueConstraint struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Index describes a physical index. Primary implies Unique.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
	Primary bool     `json:"primary"`
}

// TableSchema is the full L0/L1 shape of one table. Column order is
// significant and must survive a round trip through any adapter.
type TableSchema struct {
	Name        string             `json:"name"`
	Columns     []Column           `json:"columns"`
	PrimaryKey  []string           `json:"pk,omitempty"`
	ForeignKeys []ForeignKey       `json:"fks,omitempty"`
	Uniques     []UniqueConstraint `json:"unique_constraints,omitempty"`
	Indexes     []Index            `json:"indexes,omitempty"`
}

// FindColumn returns the column with the given (case-folded) name, or nil.
func (t *TableSchema) FindColumn(name string) *Column {
	name = FoldName(name)
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// DepKind distinguishes the two kinds of view dependencies.
type DepKind string

const (
	DepTable DepKind = "table"
	DepView  DepKind = "view"
)

// Dependency is one edge of a view's dependency set.
type Dependency struct {
	Kind DepKind `json:"kind"`
	Name string  `json:"name"`
}

// View is an extracted view definition plus its dependency set.
type View struct {
	Schema     string       `json:"schema,omitempty"`
	Name       string       `json:"name"`
	Definition string       `json:"definition"`
	DependsOn  []Dependency `json:"dependencies,omitempty"`
}

// RoutineKind is the closed set of routine kinds.
type RoutineKind string

const (
	RoutineFunction  RoutineKind = "function"
	RoutineProcedure RoutineKind = "procedure"
	RoutinePackage   RoutineKind = "package"
)

// Volatility mirrors the Postgres volatility classes; other dialects are
// mapped onto it at the adapter boundary.
type Volatility string

const (
	VolatilityImmutable Volatility = "immutable"
	VolatilityStable    Volatility = "stable"
	VolatilityVolatile  Volatility = "volatile"
)

// DataAccess is the SQL-standard data access characteristic.
type DataAccess string

const (
	AccessNone     DataAccess = "none"
	AccessContains DataAccess = "contains"
	AccessReads    DataAccess = "reads"
	AccessModifies DataAccess = "modifies"
)

// Security is the routine's execution identity.
type Security string

const (
	SecurityInvoker Security = "invoker"
	SecurityDefiner Security = "definer"
)

// Parameter is one routine parameter.
type Parameter struct {
	Name string `json:"name"`
	Mode string `json:"mode,omitempty"` // in, out, inout
	Type string `json:"type"`
}

// Classification is the analyzer verdict attached to routines and triggers.
// Allowed=false always carries at least one reason code.
type Classification struct {
	Allowed     bool         `json:"allowed"`
	ReasonCodes []ReasonCode `json:"reason_codes,omitempty"`
}

// Routine is an extracted stored function, procedure, or package.
type Routine struct {
	Schema         string         `json:"schema,omitempty"`
	Name           string         `json:"name"`
	Kind           RoutineKind    `json:"kind"`
	Language       string         `json:"language,omitempty"`
	Volatility     Volatility     `json:"volatility,omitempty"`
	DataAccess     DataAccess     `json:"data_access,omitempty"`
	Security       Security       `json:"security,omitempty"`
	Parameters     []Parameter    `json:"parameters,omitempty"`
	ReturnType     string         `json:"return_type,omitempty"`
	Body           string         `json:"body_text,omitempty"`
	Definition     string         `json:"full_definition_text"`
	Classification Classification `json:"classification"`
}

// TriggerTiming is the closed set of trigger timings.
type TriggerTiming string

const (
	TimingBefore    TriggerTiming = "before"
	TimingAfter     TriggerTiming = "after"
	TimingInsteadOf TriggerTiming = "instead_of"
)

// TriggerEvent is one of the DML events a trigger fires on.
type TriggerEvent string

const (
	EventInsert TriggerEvent = "insert"
	EventUpdate TriggerEvent = "update"
	EventDelete TriggerEvent = "delete"
)

// TriggerScope distinguishes row-level and statement-level triggers.
type TriggerScope string

const (
	ScopeRow       TriggerScope = "row"
	ScopeStatement TriggerScope = "statement"
)

// Trigger is an extracted trigger definition.
type Trigger struct {
	Schema         string         `json:"schema,omitempty"`
	Name           string         `json:"name"`
	Table          string         `json:"table"`
	Timing         TriggerTiming  `json:"timing"`
	Events         []TriggerEvent `json:"events"`
	Scope          TriggerScope   `json:"scope"`
	Body           string         `json:"body_text,omitempty"`
	Definition     string         `json:"definition_text"`
	Classification Classification `json:"classification"`
}

// ObjectType tags a TranslationResult with the kind of object it covers.
type ObjectType string

const (
	ObjectTable     ObjectType = "table"
	ObjectView      ObjectType = "view"
	ObjectFunction  ObjectType = "function"
	ObjectProcedure ObjectType = "procedure"
	ObjectPackage   ObjectType = "package"
	ObjectTrigger   ObjectType = "trigger"
)

// TranslateMode is the translator capability mode. Stronger modes never
// engage without explicit caller intent; ModeAnalyze is the default.
type TranslateMode string

const (
	ModeAnalyze         TranslateMode = "analyze"
	ModeStub            TranslateMode = "stub"
	ModeSubsetTranslate TranslateMode = "subset_translate"
)

// RiskLevel classifies the risk of acting on a translation result.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskOrdinal fixes the severity order used by the canonical warning sort.
var riskOrdinal = map[RiskLevel]int{
	RiskSafe:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Ordinal returns the rank of r within the risk scale; unknown levels sort
// last so a malformed level is never silently promoted.
func (r RiskLevel) Ordinal() int {
	if o, ok := riskOrdinal[r]; ok {
		return o
	}
	return len(riskOrdinal)
}

// RiskLevels returns all levels in ascending severity order.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskSafe, RiskLow, RiskMedium, RiskHigh, RiskCritical}
}

// MaxRisk returns the more severe of a and b.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Ordinal() > a.Ordinal() {
		return b
	}
	return a
}

// ReasonCode is the enumerated denial/warning vocabulary. Free-text messages
// supplement these codes but never replace them.
type ReasonCode string

const (
	ReasonNotDeterministic    ReasonCode = "not deterministic"
	ReasonModifiesSQLData     ReasonCode = "modifies sql data"
	ReasonDefinerSecurity     ReasonCode = "definer security"
	ReasonVolatile            ReasonCode = "volatile"
	ReasonLanguage            ReasonCode = "unsupported language"
	ReasonAfterTrigger        ReasonCode = "after trigger"
	ReasonInsteadOfTrigger    ReasonCode = "instead of trigger"
	ReasonStatementTrigger    ReasonCode = "statement trigger"
	ReasonTriggerEvent        ReasonCode = "unsupported trigger event"
	ReasonTriggerBody         ReasonCode = "unsupported trigger body"
	ReasonTriggerDML          ReasonCode = "trigger contains dml"
	ReasonTriggerControlFlow  ReasonCode = "trigger contains control flow"
	ReasonViewWindowFunction  ReasonCode = "window function"
	ReasonViewSetOperation    ReasonCode = "set operation"
	ReasonViewCTE             ReasonCode = "common table expression"
	ReasonViewOuterJoin       ReasonCode = "outer join"
	ReasonViewSubquery        ReasonCode = "subquery"
	ReasonViewComputedColumn  ReasonCode = "computed column"
	ReasonViewAggregate       ReasonCode = "aggregate"
	ReasonViewDistinct        ReasonCode = "distinct"
	ReasonViewGroupBy         ReasonCode = "group by"
	ReasonViewHaving          ReasonCode = "having"
	ReasonViewOrderBy         ReasonCode = "order by"
	ReasonViewJoinCondition   ReasonCode = "non-equality join condition"
	ReasonViewMultiTable      ReasonCode = "more than two tables"
	ReasonPackage             ReasonCode = "package requires manual migration"
	ReasonCursor              ReasonCode = "cursor"
	ReasonDynamicSQL          ReasonCode = "dynamic sql"
	ReasonAutonomousTxn       ReasonCode = "autonomous transaction"
	ReasonDialectConstruct    ReasonCode = "dialect-specific construct"
	ReasonUnknownType         ReasonCode = "unmapped type"
	ReasonLossyType           ReasonCode = "lossy type mapping"
	ReasonUnverifiedSyntax    ReasonCode = "unverified syntax"
	ReasonStubEmitted         ReasonCode = "stub emitted"
	ReasonStubMayNotFail      ReasonCode = "stub failure not guaranteed"
	ReasonOuterJoinLegacy     ReasonCode = "legacy outer join syntax"
	ReasonLevelUnsupported    ReasonCode = "level not supported"
	ReasonDependencyCycle     ReasonCode = "dependency cycle"
	ReasonTranslationRefused  ReasonCode = "translation refused"
)

// Warning is one report-bound warning. The canonical total order is
// (severity ordinal, object name, message); see SortWarnings.
type Warning struct {
	Severity RiskLevel  `json:"severity"`
	Object   string     `json:"object_name"`
	Message  string     `json:"message"`
	Reason   ReasonCode `json:"reason"`
}

// ManualStep is one entry of the manual-migration checklist, deduplicated on
// (object name, action).
type ManualStep struct {
	Object string `json:"object_name"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// TranslationResult is the per-object outcome of one translator pass.
// SQL is nil exactly when the mode was analyze; that boundary is inviolable.
type TranslationResult struct {
	ObjectType  ObjectType        `json:"object_type"`
	ObjectName  string            `json:"object_name"`
	Mode        TranslateMode     `json:"mode"`
	SQL         *string           `json:"sql_output,omitempty"`
	Risk        RiskLevel         `json:"risk_level"`
	Warnings    []Warning         `json:"warnings,omitempty"`
	ManualSteps []ManualStep      `json:"manual_steps,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasSQL reports whether the result carries emitted DDL.
func (r *TranslationResult) HasSQL() bool {
	return r.SQL != nil && strings.TrimSpace(*r.SQL) != ""
}

// FoldName lower-cases an object name at the boundary. Every schema-level
// name entering the IR goes through this exactly once.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
