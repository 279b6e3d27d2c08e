package mysql

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *myAdapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, ir.FoldName(c))
	}
	return cols, rows.Err()
}

func (a *myAdapter) ForeignKeys(ctx context.Context, table string) ([]ir.ForeignKey, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			constraint_name,
			column_name,
			referenced_table_name,
			referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.ForeignKey
	for rows.Next() {
		var name, col, refTable, refCol string
		if err := rows.Scan(&name, &col, &refTable, &refCol); err != nil {
			return nil, err
		}
		out = append(out, ir.ForeignKey{
			Name:      ir.FoldName(name),
			Column:    ir.FoldName(col),
			RefTable:  ir.FoldName(refTable),
			RefColumn: ir.FoldName(refCol),
		})
	}
	return out, rows.Err()
}

func (a *myAdapter) UniqueConstraints(ctx context.Context, table string) ([]ir.UniqueConstraint, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		 AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = DATABASE()
		  AND tc.table_name = ?
		  AND tc.constraint_type = 'UNIQUE'
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*ir.UniqueConstraint{}
	var order []string
	for rows.Next() {
		var name, col string
		if err := rows.Scan(&name, &col); err != nil {
			return nil, err
		}
		uc, ok := byName[name]
		if !ok {
			uc = &ir.UniqueConstraint{Name: ir.FoldName(name)}
			byName[name] = uc
			order = append(order, name)
		}
		uc.Columns = append(uc.Columns, ir.FoldName(col))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ir.UniqueConstraint, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (a *myAdapter) Indexes(ctx context.Context, table string) ([]ir.Index, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT index_name, column_name, non_unique
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY index_name, seq_in_index
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*ir.Index{}
	var order []string
	for rows.Next() {
		var name, col string
		var nonUnique int
		if err := rows.Scan(&name, &col, &nonUnique); err != nil {
			return nil, err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &ir.Index{
				Name:    ir.FoldName(name),
				Unique:  nonUnique == 0,
				Primary: name == "PRIMARY",
			}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, ir.FoldName(col))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ir.Index, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (a *myAdapter) AddForeignKey(ctx context.Context, table string, fk ir.ForeignKey) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(table), quoteIdent(fk.Name), quoteIdent(fk.Column),
		quoteIdent(fk.RefTable), quoteIdent(fk.RefColumn)))
}

func (a *myAdapter) CreateIndex(ctx context.Context, table string, index ir.Index) adapter.ExecResult {
	cols := make([]string, len(index.Columns))
	for i, c := range index.Columns {
		cols[i] = quoteIdent(c)
	}
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}
	return adapter.Exec(ctx, a.db, classify, fmt.Sprintf(
		"CREATE %sINDEX %s ON %s (%s)",
		unique, quoteIdent(index.Name), quoteIdent(table), strings.Join(cols, ", ")))
}
