package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func dataAccessOf(s string) ir.DataAccess {
	switch strings.ToUpper(s) {
	case "NO SQL":
		return ir.AccessNone
	case "READS SQL DATA":
		return ir.AccessReads
	case "MODIFIES SQL DATA":
		return ir.AccessModifies
	default:
		return ir.AccessContains
	}
}

func (a *myAdapter) ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			routine_name,
			routine_type,
			is_deterministic,
			sql_data_access,
			security_type,
			routine_definition
		FROM information_schema.routines
		WHERE routine_schema = DATABASE()
		ORDER BY routine_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routines []ir.Routine
	for rows.Next() {
		var name, rtype, deterministic, access, security string
		var def sql.NullString
		if err := rows.Scan(&name, &rtype, &deterministic, &access, &security, &def); err != nil {
			return nil, err
		}
		r := ir.Routine{
			Schema:     schema,
			Name:       ir.FoldName(name),
			Kind:       ir.RoutineFunction,
			Language:   "sql",
			Volatility: ir.VolatilityVolatile,
			DataAccess: dataAccessOf(access),
			Security:   ir.SecurityInvoker,
			Body:       def.String,
			Definition: def.String,
		}
		if strings.EqualFold(rtype, "PROCEDURE") {
			r.Kind = ir.RoutineProcedure
		}
		if deterministic == "YES" {
			r.Volatility = ir.VolatilityImmutable
		}
		if strings.EqualFold(security, "DEFINER") {
			r.Security = ir.SecurityDefiner
		}
		routines = append(routines, r)
	}
	return routines, rows.Err()
}

func (a *myAdapter) RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, "")
	if err != nil {
		return nil, err
	}
	folded := ir.FoldName(name)
	for i := range routines {
		if routines[i].Name == folded && routines[i].Kind == kind {
			return &routines[i], nil
		}
	}
	return nil, fmt.Errorf("mysql: %s %q not found", kind, name)
}

func (a *myAdapter) SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, schema)
	if err != nil {
		return nil, err
	}
	safe, _ := adapter.SplitRoutines(a.dialect, routines)
	return safe, nil
}

func (a *myAdapter) SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, schema)
	if err != nil {
		return nil, err
	}
	_, skipped := adapter.SplitRoutines(a.dialect, routines)
	return skipped, nil
}

func (a *myAdapter) CreateRoutine(ctx context.Context, routine *ir.Routine) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, definerRe.ReplaceAllString(routine.Definition, ""))
}

func (a *myAdapter) DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) adapter.ExecResult {
	obj := "FUNCTION"
	if kind == ir.RoutineProcedure {
		obj = "PROCEDURE"
	}
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP %s IF EXISTS %s", obj, quoteIdent(name)))
}

func (a *myAdapter) CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(routines))
	for i := range routines {
		results = append(results, a.CreateRoutine(ctx, &routines[i]))
	}
	return results
}
