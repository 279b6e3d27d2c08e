package hana

import (
	"context"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// HANA object levels above L1 are out of scope for this endpoint; SQLScript
// has no translation path from any supported source.

const hanaReason = "hana endpoint supports tables and constraints only"

func levelErr(level adapter.Level) error {
	return &adapter.UnsupportedLevelError{
		Dialect: ir.DialectHANA,
		Level:   level,
		Reason:  hanaReason,
	}
}

func (a *hanaAdapter) ListViews(ctx context.Context, schema string) ([]string, error) {
	return nil, levelErr(adapter.L2Views)
}

func (a *hanaAdapter) ViewDefinition(ctx context.Context, name string) (*ir.View, error) {
	return nil, levelErr(adapter.L2Views)
}

func (a *hanaAdapter) ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error) {
	return nil, levelErr(adapter.L2Views)
}

func (a *hanaAdapter) OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error) {
	return nil, nil, levelErr(adapter.L2Views)
}

func (a *hanaAdapter) CreateView(ctx context.Context, view *ir.View) adapter.ExecResult {
	return adapter.NotSupported(hanaReason)
}

func (a *hanaAdapter) DropView(ctx context.Context, name string) adapter.ExecResult {
	return adapter.NotSupported(hanaReason)
}

func (a *hanaAdapter) CreateViewsInOrder(ctx context.Context, views []ir.View) []adapter.ExecResult {
	results := make([]adapter.ExecResult, len(views))
	for i := range results {
		results[i] = adapter.NotSupported(hanaReason)
	}
	return results
}

func (a *hanaAdapter) ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *hanaAdapter) RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *hanaAdapter) SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *hanaAdapter) SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, levelErr(adapter.L3Routines)
}

func (a *hanaAdapter) CreateRoutine(ctx context.Context, routine *ir.Routine) adapter.ExecResult {
	return adapter.NotSupported(hanaReason)
}

func (a *hanaAdapter) DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) adapter.ExecResult {
	return adapter.NotSupported(hanaReason)
}

func (a *hanaAdapter) CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []adapter.ExecResult {
	results := make([]adapter.ExecResult, len(routines))
	for i := range results {
		results[i] = adapter.NotSupported(hanaReason)
	}
	return results
}

func (a *hanaAdapter) ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *hanaAdapter) TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *hanaAdapter) SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *hanaAdapter) SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return nil, levelErr(adapter.L4Triggers)
}

func (a *hanaAdapter) CreateTrigger(ctx context.Context, trigger *ir.Trigger) adapter.ExecResult {
	return adapter.NotSupported(hanaReason)
}

func (a *hanaAdapter) DropTrigger(ctx context.Context, name, table string) adapter.ExecResult {
	return adapter.NotSupported(hanaReason)
}
