package postgres

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *pgAdapter) ListViews(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.views
		WHERE table_schema = $1
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

func (a *pgAdapter) ViewDefinition(ctx context.Context, name string) (*ir.View, error) {
	var def string
	err := a.db.QueryRowContext(ctx,
		`SELECT pg_get_viewdef($1::regclass, true)`, name).Scan(&def)
	if err != nil {
		return nil, fmt.Errorf("postgres: view %q: %w", name, err)
	}
	v := &ir.View{
		Name:       ir.FoldName(name),
		Definition: fmt.Sprintf("CREATE VIEW %s AS %s", quoteIdent(name), strings.TrimSpace(def)),
	}
	if v.DependsOn, err = a.ViewDependencies(ctx, name); err != nil {
		return nil, err
	}
	return v, nil
}

func (a *pgAdapter) ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error) {
	// pg_depend links the view's rewrite rule to every relation it reads.
	rows, err := a.db.QueryContext(ctx, `
		SELECT DISTINCT d.relname, d.relkind
		FROM pg_depend dep
		JOIN pg_rewrite r ON dep.objid = r.oid
		JOIN pg_class v   ON r.ev_class = v.oid
		JOIN pg_class d   ON dep.refobjid = d.oid
		WHERE v.relname = $1
		  AND d.relname <> v.relname
		  AND d.relkind IN ('r', 'v')
		ORDER BY d.relname
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []ir.Dependency
	for rows.Next() {
		var depName, kind string
		if err := rows.Scan(&depName, &kind); err != nil {
			return nil, err
		}
		dk := ir.DepTable
		if kind == "v" {
			dk = ir.DepView
		}
		deps = append(deps, ir.Dependency{Kind: dk, Name: ir.FoldName(depName)})
	}
	return deps, rows.Err()
}

func (a *pgAdapter) OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error) {
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

func (a *pgAdapter) CreateView(ctx context.Context, view *ir.View) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, view.Definition)
}

func (a *pgAdapter) DropView(ctx context.Context, name string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP VIEW IF EXISTS %s CASCADE", quoteIdent(name)))
}

func (a *pgAdapter) CreateViewsInOrder(ctx context.Context, views []ir.View) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(views))
	for i := range views {
		results = append(results, a.CreateView(ctx, &views[i]))
	}
	return results
}
