package oracle

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *oraAdapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT cc.column_name
		FROM user_constraints c
		JOIN user_cons_columns cc ON c.constraint_name = cc.constraint_name
		WHERE c.table_name = UPPER(:1) AND c.constraint_type = 'P'
		ORDER BY cc.position
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

func (a *oraAdapter) ForeignKeys(ctx context.Context, table string) ([]ir.ForeignKey, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			c.constraint_name,
			cc.column_name,
			rc.table_name  AS ref_table,
			rcc.column_name AS ref_column
		FROM user_constraints c
		JOIN user_cons_columns cc  ON c.constraint_name = cc.constraint_name
		JOIN user_constraints rc   ON c.r_constraint_name = rc.constraint_name
		JOIN user_cons_columns rcc ON rc.constraint_name = rcc.constraint_name
		                          AND rcc.position = cc.position
		WHERE c.table_name = UPPER(:1) AND c.constraint_type = 'R'
		ORDER BY c.constraint_name, cc.position
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

func (a *oraAdapter) UniqueConstraints(ctx context.Context, table string) ([]ir.UniqueConstraint, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT c.constraint_name, cc.column_name
		FROM user_constraints c
		JOIN user_cons_columns cc ON c.constraint_name = cc.constraint_name
		WHERE c.table_name = UPPER(:1) AND c.constraint_type = 'U'
		ORDER BY c.constraint_name, cc.position
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

func (a *oraAdapter) Indexes(ctx context.Context, table string) ([]ir.Index, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT i.index_name, ic.column_name, i.uniqueness
		FROM user_indexes i
		JOIN user_ind_columns ic ON i.index_name = ic.index_name
		WHERE i.table_name = UPPER(:1)
		ORDER BY i.index_name, ic.column_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*ir.Index{}
	var order []string
	for rows.Next() {
		var name, col, uniqueness string
		if err := rows.Scan(&name, &col, &uniqueness); err != nil {
			return nil, err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &ir.Index{Name: ir.FoldName(name), Unique: uniqueness == "UNIQUE"}
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

func (a *oraAdapter) AddForeignKey(ctx context.Context, table string, fk ir.ForeignKey) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(table), quoteIdent(fk.Name), quoteIdent(fk.Column),
		quoteIdent(fk.RefTable), quoteIdent(fk.RefColumn)))
}

func (a *oraAdapter) CreateIndex(ctx context.Context, table string, index ir.Index) adapter.ExecResult {
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
