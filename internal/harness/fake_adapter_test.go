package harness

import (
	"context"
	"fmt"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// fakeAdapter is an in-memory endpoint for runner tests. The source side is
// seeded with schema objects; the target side records everything created on
// it.
type fakeAdapter struct {
	dialect  ir.Dialect
	tables   []string
	schemas  map[string]*ir.TableSchema
	rows     map[string][]map[string]any
	views    []ir.View
	routines []ir.Routine
	triggers []ir.Trigger

	created     map[ir.ObjectType][]string
	dropped     map[ir.ObjectType][]string
	addedFKs    map[string][]ir.ForeignKey
	indexed     map[string][]string
	inserted    map[string]int
	rejectRows  bool
	connectErrs int
}

func newFakeAdapter(dialect ir.Dialect) *fakeAdapter {
	return &fakeAdapter{
		dialect:  dialect,
		schemas:  map[string]*ir.TableSchema{},
		rows:     map[string][]map[string]any{},
		created:  map[ir.ObjectType][]string{},
		dropped:  map[ir.ObjectType][]string{},
		addedFKs: map[string][]ir.ForeignKey{},
		indexed:  map[string][]string{},
		inserted: map[string]int{},
	}
}

func (f *fakeAdapter) Dialect() ir.Dialect { return f.dialect }

func (f *fakeAdapter) Connect(ctx context.Context) error {
	if f.connectErrs > 0 {
		f.connectErrs--
		return fmt.Errorf("fake endpoint unreachable")
	}
	return nil
}

func (f *fakeAdapter) Close() error { return nil }

func (f *fakeAdapter) Version(ctx context.Context) (string, error) { return "fake 1.0", nil }

func (f *fakeAdapter) Supports(level adapter.Level) bool { return true }

func (f *fakeAdapter) SessionSettings() map[string]string {
	return map[string]string{"timezone": "UTC"}
}

func (f *fakeAdapter) ListTables(ctx context.Context) ([]string, error) { return f.tables, nil }

func (f *fakeAdapter) TableSchema(ctx context.Context, table string) (*ir.TableSchema, error) {
	s, ok := f.schemas[table]
	if !ok {
		return nil, fmt.Errorf("no such table %s", table)
	}
	return s, nil
}

func (f *fakeAdapter) ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*adapter.ExtractResult, error) {
	rows := f.rows[table]
	return &adapter.ExtractResult{
		Rows:  rows,
		Stats: adapter.ExtractStats{RowCount: len(rows), OrderKeyUsed: "id"},
	}, nil
}

func (f *fakeAdapter) CreateTable(ctx context.Context, schema *ir.TableSchema) adapter.ExecResult {
	f.schemas[schema.Name] = schema
	f.created[ir.ObjectTable] = append(f.created[ir.ObjectTable], schema.Name)
	return adapter.Done(0)
}

func (f *fakeAdapter) DropTable(ctx context.Context, table string) adapter.ExecResult {
	f.dropped[ir.ObjectTable] = append(f.dropped[ir.ObjectTable], table)
	return adapter.Done(0)
}

func (f *fakeAdapter) InsertRow(ctx context.Context, table string, columns []string, values []any) adapter.ExecResult {
	if f.rejectRows {
		return adapter.Failed(adapter.ErrClassIntegrity, fmt.Errorf("duplicate key"))
	}
	f.inserted[table]++
	return adapter.Done(1)
}

func (f *fakeAdapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	s, ok := f.schemas[table]
	if !ok {
		return nil, fmt.Errorf("no such table %s", table)
	}
	return s.PrimaryKey, nil
}

func (f *fakeAdapter) ForeignKeys(ctx context.Context, table string) ([]ir.ForeignKey, error) {
	if s, ok := f.schemas[table]; ok {
		return s.ForeignKeys, nil
	}
	return nil, nil
}

func (f *fakeAdapter) UniqueConstraints(ctx context.Context, table string) ([]ir.UniqueConstraint, error) {
	if s, ok := f.schemas[table]; ok {
		return s.Uniques, nil
	}
	return nil, nil
}

func (f *fakeAdapter) Indexes(ctx context.Context, table string) ([]ir.Index, error) {
	if s, ok := f.schemas[table]; ok {
		return s.Indexes, nil
	}
	return nil, nil
}

func (f *fakeAdapter) AddForeignKey(ctx context.Context, table string, fk ir.ForeignKey) adapter.ExecResult {
	f.addedFKs[table] = append(f.addedFKs[table], fk)
	return adapter.Done(0)
}

func (f *fakeAdapter) CreateIndex(ctx context.Context, table string, index ir.Index) adapter.ExecResult {
	f.indexed[table] = append(f.indexed[table], index.Name)
	return adapter.Done(0)
}

func (f *fakeAdapter) ListViews(ctx context.Context, schema string) ([]string, error) {
	names := make([]string, len(f.views))
	for i, v := range f.views {
		names[i] = v.Name
	}
	return names, nil
}

func (f *fakeAdapter) ViewDefinition(ctx context.Context, name string) (*ir.View, error) {
	for i := range f.views {
		if f.views[i].Name == name {
			return &f.views[i], nil
		}
	}
	return nil, fmt.Errorf("no such view %s", name)
}

func (f *fakeAdapter) ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error) {
	return nil, nil
}

func (f *fakeAdapter) OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error) {
	return f.views, nil, nil
}

func (f *fakeAdapter) CreateView(ctx context.Context, view *ir.View) adapter.ExecResult {
	f.created[ir.ObjectView] = append(f.created[ir.ObjectView], view.Name)
	return adapter.Done(0)
}

func (f *fakeAdapter) DropView(ctx context.Context, name string) adapter.ExecResult {
	f.dropped[ir.ObjectView] = append(f.dropped[ir.ObjectView], name)
	return adapter.Done(0)
}

func (f *fakeAdapter) CreateViewsInOrder(ctx context.Context, views []ir.View) []adapter.ExecResult {
	out := make([]adapter.ExecResult, len(views))
	for i := range views {
		out[i] = f.CreateView(ctx, &views[i])
	}
	return out
}

func (f *fakeAdapter) ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return f.routines, nil
}

func (f *fakeAdapter) RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error) {
	for i := range f.routines {
		if f.routines[i].Name == name {
			return &f.routines[i], nil
		}
	}
	return nil, fmt.Errorf("no such routine %s", name)
}

func (f *fakeAdapter) SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return f.routines, nil
}

func (f *fakeAdapter) SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	return nil, nil
}

func (f *fakeAdapter) CreateRoutine(ctx context.Context, routine *ir.Routine) adapter.ExecResult {
	objType := ir.ObjectFunction
	if routine.Kind == ir.RoutineProcedure {
		objType = ir.ObjectProcedure
	}
	f.created[objType] = append(f.created[objType], routine.Name)
	return adapter.Done(0)
}

func (f *fakeAdapter) DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) adapter.ExecResult {
	objType := ir.ObjectFunction
	if kind == ir.RoutineProcedure {
		objType = ir.ObjectProcedure
	}
	f.dropped[objType] = append(f.dropped[objType], name)
	return adapter.Done(0)
}

func (f *fakeAdapter) CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []adapter.ExecResult {
	out := make([]adapter.ExecResult, len(routines))
	for i := range routines {
		out[i] = f.CreateRoutine(ctx, &routines[i])
	}
	return out
}

func (f *fakeAdapter) ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return f.triggers, nil
}

func (f *fakeAdapter) TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error) {
	for i := range f.triggers {
		if f.triggers[i].Name == name {
			return &f.triggers[i], nil
		}
	}
	return nil, fmt.Errorf("no such trigger %s", name)
}

func (f *fakeAdapter) SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return f.triggers, nil
}

func (f *fakeAdapter) SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	return nil, nil
}

func (f *fakeAdapter) CreateTrigger(ctx context.Context, trigger *ir.Trigger) adapter.ExecResult {
	f.created[ir.ObjectTrigger] = append(f.created[ir.ObjectTrigger], trigger.Name)
	return adapter.Done(0)
}

func (f *fakeAdapter) DropTrigger(ctx context.Context, name, table string) adapter.ExecResult {
	f.dropped[ir.ObjectTrigger] = append(f.dropped[ir.ObjectTrigger], name)
	return adapter.Done(0)
}
