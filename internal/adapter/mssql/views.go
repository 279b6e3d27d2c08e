package mssql

import (
	"context"
	"fmt"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *msAdapter) ListViews(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = "dbo"
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.views
		WHERE table_schema = @p1
		ORDER BY table_name
	`, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		views = append(views, ir.FoldName(name))
	}
	return views, rows.Err()
}

func (a *msAdapter) ViewDefinition(ctx context.Context, name string) (*ir.View, error) {
	var def string
	err := a.db.QueryRowContext(ctx, `
		SELECT m.definition
		FROM sys.sql_modules m
		JOIN sys.views v ON m.object_id = v.object_id
		WHERE v.name = @p1
	`, name).Scan(&def)
	if err != nil {
		return nil, fmt.Errorf("mssql: view %q: %w", name, err)
	}
	v := &ir.View{Name: ir.FoldName(name), Definition: def}
	if v.DependsOn, err = a.ViewDependencies(ctx, name); err != nil {
		return nil, err
	}
	return v, nil
}

func (a *msAdapter) ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT DISTINCT d.referenced_entity_name, o.type
		FROM sys.sql_expression_dependencies d
		JOIN sys.views v ON d.referencing_id = v.object_id
		LEFT JOIN sys.objects o ON d.referenced_id = o.object_id
		WHERE v.name = @p1
		ORDER BY d.referenced_entity_name
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []ir.Dependency
	for rows.Next() {
		var depName, objType string
		if err := rows.Scan(&depName, &objType); err != nil {
			return nil, err
		}
		kind := ir.DepTable
		if objType == "V " || objType == "V" {
			kind = ir.DepView
		}
		deps = append(deps, ir.Dependency{Kind: kind, Name: ir.FoldName(depName)})
	}
	return deps, rows.Err()
}

func (a *msAdapter) OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error) {
	names, err := a.ListViews(ctx, schema)
	if err != nil {
		return nil, nil, err
	}
	views := make([]ir.View, 0, len(names))
	for _, name := range names {
		v, err := a.ViewDefinition(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		views = append(views, *v)
	}
	ordered, warnings := adapter.OrderViews(views)
	return ordered, warnings, nil
}

func (a *msAdapter) CreateView(ctx context.Context, view *ir.View) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, view.Definition)
}

func (a *msAdapter) DropView(ctx context.Context, name string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP VIEW IF EXISTS %s", quoteIdent(name)))
}

func (a *msAdapter) CreateViewsInOrder(ctx context.Context, views []ir.View) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(views))
	for i := range views {
		results = append(results, a.CreateView(ctx, &views[i]))
	}
	return results
}
