package mysql

import (
	"context"
	"fmt"
	"regexp"

	"saiql/internal/adapter"
	"saiql/internal/analyze"
	"saiql/internal/ir"
)

// definerRe strips the DEFINER clause the server stores on views and
// triggers; definer identity never crosses the migration boundary.
var definerRe = regexp.MustCompile("(?i)DEFINER\\s*=\\s*(?:`[^`]*`|\\w+)@(?:`[^`]*`|\\w+)\\s*")

func (a *myAdapter) ListViews(ctx context.Context, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.views
		WHERE table_schema = DATABASE()
		ORDER BY table_name
	`
	args := []any{}
	if schema != "" {
		query = `
		SELECT table_name
		FROM information_schema.views
		WHERE table_schema = ?
		ORDER BY table_name
	`
		args = append(args, schema)
	}
	rows, err := a.db.QueryContext(ctx, query, args...)
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

func (a *myAdapter) ViewDefinition(ctx context.Context, name string) (*ir.View, error) {
	var def string
	err := a.db.QueryRowContext(ctx, `
		SELECT view_definition
		FROM information_schema.views
		WHERE table_schema = DATABASE() AND table_name = ?
	`, name).Scan(&def)
	if err != nil {
		return nil, fmt.Errorf("mysql: view %q: %w", name, err)
	}
	def = definerRe.ReplaceAllString(def, "")
	v := &ir.View{
		Name:       ir.FoldName(name),
		Definition: fmt.Sprintf("CREATE VIEW %s AS %s", quoteIdent(name), def),
	}
	if v.DependsOn, err = a.ViewDependencies(ctx, name); err != nil {
		return nil, err
	}
	return v, nil
}

// ViewDependencies derives the dependency set from the view's FROM clause;
// neither MySQL nor MariaDB exposes a portable dependency catalog. The set
// only drives creation ordering, so partial extraction degrades gracefully.
func (a *myAdapter) ViewDependencies(ctx context.Context, name string) ([]ir.Dependency, error) {
	var def string
	err := a.db.QueryRowContext(ctx, `
		SELECT view_definition
		FROM information_schema.views
		WHERE table_schema = DATABASE() AND table_name = ?
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

	res := analyze.AnalyzeView(a.dialect, ir.FoldName(name), def)
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

func (a *myAdapter) OrderedViews(ctx context.Context, schema string) ([]ir.View, []ir.Warning, error) {
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

func (a *myAdapter) CreateView(ctx context.Context, view *ir.View) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, definerRe.ReplaceAllString(view.Definition, ""))
}

func (a *myAdapter) DropView(ctx context.Context, name string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP VIEW IF EXISTS %s", quoteIdent(name)))
}

func (a *myAdapter) CreateViewsInOrder(ctx context.Context, views []ir.View) []adapter.ExecResult {
	results := make([]adapter.ExecResult, 0, len(views))
	for i := range views {
		results = append(results, a.CreateView(ctx, &views[i]))
	}
	return results
}
