package postgres

import (
	"context"
	"fmt"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// volatilityOf maps pg_proc.provolatile onto the IR scale.
func volatilityOf(flag string) ir.Volatility {
	switch flag {
	case "i":
		return ir.VolatilityImmutable
	case "s":
		return ir.VolatilityStable
	default:
		return ir.VolatilityVolatile
	}
}

func (a *pgAdapter) ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			p.proname,
			p.prokind,
			l.lanname,
			p.provolatile,
			p.prosecdef,
			pg_get_functiondef(p.oid)
		FROM pg_proc p
		JOIN pg_namespace n ON p.pronamespace = n.oid
		JOIN pg_language l  ON p.prolang = l.oid
		WHERE n.nspname = $1 AND p.prokind IN ('f', 'p')
		ORDER BY p.proname
	`, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routines []ir.Routine
	for rows.Next() {
		var name, kind, lang, volatile string
		var secdef bool
		var def string
		if err := rows.Scan(&name, &kind, &lang, &volatile, &secdef, &def); err != nil {
			return nil, err
		}
		r := ir.Routine{
			Schema:     schema,
			Name:       ir.FoldName(name),
			Kind:       ir.RoutineFunction,
			Language:   lang,
			Volatility: volatilityOf(volatile),
			Security:   ir.SecurityInvoker,
			Definition: def,
		}
		if kind == "p" {
			r.Kind = ir.RoutineProcedure
		}
		if secdef {
			r.Security = ir.SecurityDefiner
		}
		routines = append(routines, r)
	}
	return routines, rows.Err()
}

func (a *pgAdapter) RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, "public")
	if err != nil {
		return nil, err
	}
	folded := ir.FoldName(name)
	for i := range routines {
		if routines[i].Name == folded && routines[i].Kind == kind {
			return &routines[i], nil
		}
	}
	return nil, fmt.Errorf("postgres: %s %q not found", kind, name)
}

func (a *pgAdapter) SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, schema)
	if err != nil {
		return nil, err
	}
	safe, _ := adapter.SplitRoutines(ir.DialectPostgres, routines)
	return safe, nil
}

func (a *pgAdapter) SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, schema)
	if err != nil {
		return nil, err
	}
	_, skipped := adapter.SplitRoutines(ir.DialectPostgres, routines)
	return skipped, nil
}

func (a *pgAdapter) CreateRoutine(ctx context.Context, routine *ir.Routine) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, routine.Definition)
}

func (a *pgAdapter) DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) adapter.ExecResult {
	obj := "FUNCTION"
	if kind == ir.RoutineProcedure {
		obj = "PROCEDURE"
	}
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP %s IF EXISTS %s CASCADE", obj, quoteIdent(name)))
}

func (a *pgAdapter) CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(routines))
	for i := range routines {
		results = append(results, a.CreateRoutine(ctx, &routines[i]))
	}
	return results
}
