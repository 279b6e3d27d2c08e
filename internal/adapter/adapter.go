// Package adapter defines the uniform capability surface every dialect
// adapter implements, the result records mutating calls return, and the
// registry the harness resolves adapters from. The harness never branches on
// the concrete adapter type: capabilities are advertised through Supports,
// and "expected" failures such as constraint violations come back as result
// records, not errors.
package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"saiql/internal/ir"
)

// Level is one of the five migration capability tiers.
type Level int

const (
	L0Tables Level = iota
	L1Constraints
	L2Views
	L3Routines
	L4Triggers
)

// Levels returns all tiers in walk order.
func Levels() []Level {
	return []Level{L0Tables, L1Constraints, L2Views, L3Routines, L4Triggers}
}

func (l Level) String() string {
	switch l {
	case L0Tables:
		return "l0"
	case L1Constraints:
		return "l1"
	case L2Views:
		return "l2"
	case L3Routines:
		return "l3"
	case L4Triggers:
		return "l4"
	}
	return fmt.Sprintf("l?%d", int(l))
}

// ErrorClass buckets a failed mutating call per the harness error taxonomy.
// Integrity errors are never retried; transient errors get a bounded retry.
type ErrorClass string

const (
	ErrClassNone        ErrorClass = ""
	ErrClassConfig      ErrorClass = "config"
	ErrClassConnection  ErrorClass = "connection"
	ErrClassIntegrity   ErrorClass = "integrity"
	ErrClassTransient   ErrorClass = "transient"
	ErrClassTimeout     ErrorClass = "timeout"
	ErrClassUnsupported ErrorClass = "unsupported"
	ErrClassOther       ErrorClass = "other"
)

// ExecResult is the outcome of one mutating statement. Expected failures
// (duplicate key, FK violation) are data of the run, not exceptions.
type ExecResult struct {
	OK           bool       `json:"success"`
	Err          string     `json:"error,omitempty"`
	Class        ErrorClass `json:"error_class,omitempty"`
	RowsAffected int64      `json:"rows_affected,omitempty"`
}

// Done returns a successful result.
func Done(rows int64) ExecResult {
	return ExecResult{OK: true, RowsAffected: rows}
}

// Failed wraps an error into a classified failure result.
func Failed(class ErrorClass, err error) ExecResult {
	return ExecResult{OK: false, Class: class, Err: err.Error()}
}

// NotSupported is the result an adapter returns for a capability it does not
// implement; the reason is mandatory.
func NotSupported(reason string) ExecResult {
	return ExecResult{OK: false, Class: ErrClassUnsupported, Err: reason}
}

// ExtractStats records how one table extraction was ordered and how it ran.
type ExtractStats struct {
	RowCount     int           `json:"row_count"`
	Duration     time.Duration `json:"duration"`
	OrderKeyUsed string        `json:"order_key_used"`
}

// ExtractResult is a single-pass, deterministically ordered row extraction.
// Row field names are lower-cased at the adapter boundary.
type ExtractResult struct {
	Rows  []map[string]any `json:"rows"`
	Stats ExtractStats     `json:"stats"`
}

// UnsupportedLevelError is returned by read-path methods of a level the
// adapter does not implement.
type UnsupportedLevelError struct {
	Dialect ir.Dialect
	Level   Level
	Reason  string
}

func (e *UnsupportedLevelError) Error() string {
	return fmt.Sprintf("%s: level %s not supported: %s", e.Dialect, e.Level, e.Reason)
}

// Adapter is the uniform L0-L4 capability surface over one engine.
// All blocking calls take a context; adapters own a pooled connection that
// lives from Connect to Close.
type Adapter interface {
	Dialect() ir.Dialect
	Connect(ctx context.Context) error
	Close() error
	Version(ctx context.Context) (string, error)
	Supports(level Level) bool
	// SessionSettings reports the PRAGMA/NLS/session baseline the adapter
	// established on connect; the bundle records it verbatim.
	SessionSettings() map[string]string

	// L0: tables.
	ListTables(ctx context.Context) ([]string, error)
	TableSchema(ctx context.Context, table string) (*ir.TableSchema, error)
	ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*ExtractResult, error)
	CreateTable(ctx context.Context, schema *ir.TableSchema) ExecResult
	DropTable(ctx context.Context, table string) ExecResult
	InsertRow(ctx context.Context, table string, columns []string, values []any) ExecResult

	// L1: constraints and physical structure. Foreign keys are added in a
	// second pass once every table exists; secondary indexes are created the
	// same way.
	PrimaryKey(ctx context.Context, table string) ([]string, error)
	ForeignKeys(ctx context.Context, table string) ([]ir.ForeignKey, error)
	UniqueConstraints(ctx context.Context, table string) ([]ir.UniqueConstraint, error)
	Indexes(ctx context.Context, table string) ([]ir.Index, error)
	AddForeignKey(ctx context.Context, table string, fk ir.ForeignKey) ExecResult
	CreateIndex(ctx context.Context, table string, index ir.Index) ExecResult

	// L2: views.
	ListViews(ctx context.Context, schema string) ([]string, error)
	ViewDefinition(ctx context.Context, name string) (*ir.View, error)
	ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error)
	OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error)
	CreateView(ctx context.Context, view *ir.View) ExecResult
	DropView(ctx context.Context, name string) ExecResult
	CreateViewsInOrder(ctx context.Context, views []ir.View) []ExecResult

	// L3: routines.
	ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error)
	RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error)
	SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error)
	SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error)
	CreateRoutine(ctx context.Context, routine *ir.Routine) ExecResult
	DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) ExecResult
	CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []ExecResult

	// L4: triggers.
	ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error)
	TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error)
	SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error)
	SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error)
	CreateTrigger(ctx context.Context, trigger *ir.Trigger) ExecResult
	DropTrigger(ctx context.Context, name, table string) ExecResult
}

var (
	registry = make(map[ir.Dialect]func(Config) (Adapter, error))
	mu       sync.RWMutex
)

// Register installs a constructor for one dialect. Adapter packages call it
// from init.
func Register(dialect ir.Dialect, fn func(Config) (Adapter, error)) {
	mu.Lock()
	defer mu.Unlock()
	registry[dialect] = fn
}

// New resolves and constructs the adapter for a dialect. The config is
// validated before the constructor runs; a config error is fatal to the run.
func New(dialect ir.Dialect, cfg Config) (Adapter, error) {
	if err := cfg.Validate(dialect); err != nil {
		return nil, err
	}
	mu.RLock()
	fn, ok := registry[dialect]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return fn(cfg)
}
