package sqlite

import (
	"context"
	"fmt"

	"saiql/internal/adapter"
	"saiql/internal/analyze"
	"saiql/internal/ir"
)

func (a *liteAdapter) ListViews(ctx context.Context, schema string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'view'
		ORDER BY name
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

func (a *liteAdapter) ViewDefinition(ctx context.Context, name string) (*ir.View, error) {
	var def string
	err := a.db.QueryRowContext(ctx, `
		SELECT sql FROM sqlite_master WHERE type = 'view' AND name = ?
	`, name).Scan(&def)
	if err != nil {
		return nil, fmt.Errorf("sqlite: view %q: %w", name, err)
	}
	v := &ir.View{Name: ir.FoldName(name), Definition: def}
	if v.DependsOn, err = a.ViewDependencies(ctx, name); err != nil {
		return nil, err
	}
	return v, nil
}

// ViewDependencies derives the dependency set from the view text; SQLite has
// no dependency catalog.
func (a *liteAdapter) ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error) {
	var def string
	err := a.db.QueryRowContext(ctx, `
		SELECT sql FROM sqlite_master WHERE type = 'view' AND name = ?
	`, name).Scan(&def)
	if err != nil {
		return nil, err
	}

	viewNames, err := a.ListViews(ctx, "")
	if err != nil {
		return nil, err
	}
	isView := make(map[string]bool, len(viewNames))
	for _, v := range viewNames {
		isView[v] = true
	}

	res := analyze.AnalyzeView(ir.DialectSQLite, ir.FoldName(name), def)
	var deps []ir.Dependency
	for _, t := range res.Tables {
		kind := ir.DepTable
		if isView[t] {
			kind = ir.DepView
		}
		deps = append(deps, ir.Dependency{Kind: kind, Name: t})
	}
	return deps, nil
}

func (a *liteAdapter) OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error) {
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

func (a *liteAdapter) CreateView(ctx context.Context, view *ir.View) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, view.Definition)
}

func (a *liteAdapter) DropView(ctx context.Context, name string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP VIEW IF EXISTS %s", quoteIdent(name)))
}

func (a *liteAdapter) CreateViewsInOrder(ctx context.Context, views []ir.View) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(views))
	for i := range views {
		results = append(results, a.CreateView(ctx, &views[i]))
	}
	return results
}
