package oracle

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *oraAdapter) ListRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT object_name, object_type
		FROM user_objects
		WHERE object_type IN ('FUNCTION', 'PROCEDURE', 'PACKAGE')
		ORDER BY object_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type listed struct {
		name string
		kind ir.RoutineKind
	}
	var names []listed
	for rows.Next() {
		var name, objType string
		if err := rows.Scan(&name, &objType); err != nil {
			return nil, err
		}
		kind := ir.RoutineFunction
		switch objType {
		case "PROCEDURE":
			kind = ir.RoutineProcedure
		case "PACKAGE":
			kind = ir.RoutinePackage
		}
		names = append(names, listed{name: name, kind: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var routines []ir.Routine
	for _, l := range names {
		body, err := a.routineSource(ctx, l.name)
		if err != nil {
			return nil, err
		}
		routines = append(routines, ir.Routine{
			Schema:     schema,
			Name:       ir.FoldName(l.name),
			Kind:       l.kind,
			Language:   "plsql",
			Volatility: ir.VolatilityVolatile,
			Security:   ir.SecurityDefiner, // Oracle default AUTHID
			Body:       body,
			Definition: body,
		})
	}
	return routines, nil
}

// routineSource reassembles the object's source lines from user_source.
func (a *oraAdapter) routineSource(ctx context.Context, name string) (string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT text
		FROM user_source
		WHERE name = UPPER(:1)
		ORDER BY line
	`, name)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", err
		}
		b.WriteString(line)
	}
	return b.String(), rows.Err()
}

func (a *oraAdapter) RoutineDefinition(ctx context.Context, name string, kind ir.RoutineKind) (*ir.Routine, error) {
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
	return nil, fmt.Errorf("oracle: %s %q not found", kind, name)
}

func (a *oraAdapter) SafeRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, schema)
	if err != nil {
		return nil, err
	}
	safe, _ := adapter.SplitRoutines(ir.DialectOracle, routines)
	return safe, nil
}

func (a *oraAdapter) SkippedRoutines(ctx context.Context, schema string) ([]ir.Routine, error) {
	routines, err := a.ListRoutines(ctx, schema)
	if err != nil {
		return nil, err
	}
	_, skipped := adapter.SplitRoutines(ir.DialectOracle, routines)
	return skipped, nil
}

func (a *oraAdapter) CreateRoutine(ctx context.Context, routine *ir.Routine) adapter.ExecResult {
	def := routine.Definition
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(def)), "CREATE") {
		def = "CREATE OR REPLACE " + def
	}
	return adapter.Exec(ctx, a.db, classify, def)
}

func (a *oraAdapter) DropRoutine(ctx context.Context, name string, kind ir.RoutineKind) adapter.ExecResult {
	obj := "FUNCTION"
	switch kind {
	case ir.RoutineProcedure:
		obj = "PROCEDURE"
	case ir.RoutinePackage:
		obj = "PACKAGE"
	}
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP %s %s", obj, quoteIdent(name)))
}

func (a *oraAdapter) CreateRoutinesInOrder(ctx context.Context, routines []ir.Routine) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(routines))
	for i := range routines {
		results = append(results, a.CreateRoutine(ctx, &routines[i]))
	}
	return results
}
