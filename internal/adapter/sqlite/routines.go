package sqlite

import (
	"context"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// SQLite has no stored routines. The read path returns the typed level
// error; the write path returns an unsupported result record.

func (a *liteAdapter) routinesUnsupported() error {
	return &adapter.UnsupportedLevelError{
		Dialect: ir.DialectSQLite,
		Level:   adapter.L3Routines,
		Reason:  "sqlite has no stored routines",
	}
}

func (a *liteAdapter) ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, a.routinesUnsupported()
}

func (a *liteAdapter) RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error) {
	return nil, a.routinesUnsupported()
}

func (a *liteAdapter) SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, a.routinesUnsupported()
}

func (a *liteAdapter) SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, a.routinesUnsupported()
}

func (a *liteAdapter) CreateRoutine(ctx context.Context, routine *ir.Routine) adapter.ExecResult {
	return adapter.NotSupported("sqlite has no stored routines")
}

func (a *liteAdapter) DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) adapter.ExecResult {
	return adapter.NotSupported("sqlite has no stored routines")
}

func (a *liteAdapter) CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []adapter.ExecResult {
	results := make([]adapter.ExecResult, len(routines))
	for i := range results {
		results[i] = adapter.NotSupported("sqlite has no stored routines")
	}
	return results
}
