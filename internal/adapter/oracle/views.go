package oracle

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *oraAdapter) ListViews(ctx context.Context, schema string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT view_name
		FROM user_views
		ORDER BY view_name
	`)
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

func (a *oraAdapter) ViewDefinition(ctx context.Context, name string) (*ir.View, error) {
	var text string
	err := a.db.QueryRowContext(ctx, `
		SELECT text FROM user_views WHERE view_name = UPPER(:1)
	`, name).Scan(&text)
	if err != nil {
		return nil, fmt.Errorf("oracle: view %q: %w", name, err)
	}
	v := &ir.View{
		Name:       ir.FoldName(name),
		Definition: fmt.Sprintf("CREATE VIEW %s AS %s", quoteIdent(name), strings.TrimSpace(text)),
	}
	if v.DependsOn, err = a.ViewDependencies(ctx, name); err != nil {
		return nil, err
	}
	return v, nil
}

func (a *oraAdapter) ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT referenced_name, referenced_type
		FROM user_dependencies
		WHERE name = UPPER(:1)
		  AND type = 'VIEW'
		  AND referenced_type IN ('TABLE', 'VIEW')
		ORDER BY referenced_name
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []ir.Dependency
	for rows.Next() {
		var depName, depType string
		if err := rows.Scan(&depName, &depType); err != nil {
			return nil, err
		}
		kind := ir.DepTable
		if depType == "VIEW" {
			kind = ir.DepView
		}
		deps = append(deps, ir.Dependency{Kind: kind, Name: ir.FoldName(depName)})
	}
	return deps, rows.Err()
}

func (a *oraAdapter) OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error) {
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

func (a *oraAdapter) CreateView(ctx context.Context, view *ir.View) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, view.Definition)
}

func (a *oraAdapter) DropView(ctx context.Context, name string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP VIEW %s", quoteIdent(name)))
}

func (a *oraAdapter) CreateViewsInOrder(ctx context.Context, views []ir.View) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(views))
	for i := range views {
		results = append(results, a.CreateView(ctx, &views[i]))
	}
	return results
}
