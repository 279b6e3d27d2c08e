package mssql

import (
	"context"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// T-SQL procedural objects are outside the supported translation subset;
// both levels surface through the typed level error and skip path.

const tsqlReason = "t-sql procedural objects are not in the supported subset"

func levelErr(level adapter.Level) error {
	return &adapter.UnsupportedLevelError{
		Dialect: ir.DialectMSSQL,
		Level:   level,
		Reason:  tsqlReason,
	}
}

func (a *msAdapter) ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *msAdapter) RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *msAdapter) SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *msAdapter) SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *msAdapter) CreateRoutine(ctx context.Context, routine *ir.Routine) adapter.ExecResult {
	return adapter.NotSupported(tsqlReason)
}

func (a *msAdapter) DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) adapter.ExecResult {
	return adapter.NotSupported(tsqlReason)
}

func (a *msAdapter) CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []adapter.ExecResult {
	results := make([]adapter.ExecResult, len(routines))
	for i := range results {
		results[i] = adapter.NotSupported(tsqlReason)
	}
	return results
}

func (a *msAdapter) ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *msAdapter) TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *msAdapter) SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *msAdapter) SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *msAdapter) CreateTrigger(ctx context.Context, trigger *ir.Trigger) adapter.ExecResult {
	return adapter.NotSupported(tsqlReason)
}

func (a *msAdapter) DropTrigger(ctx context.Context, name, table string) adapter.ExecResult {
	return adapter.NotSupported(tsqlReason)
}
