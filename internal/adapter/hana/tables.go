package hana

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/typereg"
)

func (a *hanaAdapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM SYS.TABLES
		WHERE SCHEMA_NAME = CURRENT_SCHEMA AND IS_USER_DEFINED_TYPE = 'FALSE'
		ORDER BY TABLE_NAME
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, ir.FoldName(name))
	}
	return tables, rows.Err()
}

func (a *hanaAdapter) TableSchema(ctx context.Context, table string) (*ir.TableSchema, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			COLUMN_NAME,
			DATA_TYPE_NAME,
			LENGTH,
			SCALE,
			IS_NULLABLE,
			DEFAULT_VALUE,
			GENERATION_TYPE
		FROM SYS.TABLE_COLUMNS
		WHERE SCHEMA_NAME = CURRENT_SCHEMA AND TABLE_NAME = UPPER(?)
		ORDER BY POSITION
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schema := &ir.TableSchema{Name: ir.FoldName(table)}
	for rows.Next() {
		var name, dataType, nullable string
		var length, scale sql.NullInt64
		var def, generation sql.NullString
		if err := rows.Scan(&name, &dataType, &length, &scale, &nullable, &def, &generation); err != nil {
			return nil, err
		}
		native := dataType
		switch {
		case scale.Valid && scale.Int64 > 0:
			native = fmt.Sprintf("%s(%d,%d)", dataType, length.Int64, scale.Int64)
		case strings.Contains(dataType, "CHAR") && length.Valid:
			native = fmt.Sprintf("%s(%d)", dataType, length.Int64)
		}
		var defPtr *string
		if def.Valid {
			defPtr = &def.String
		}
		col := typereg.ColumnFromNative(ir.DialectHANA, name, native, nullable == "TRUE", defPtr)
		if strings.Contains(generation.String, "IDENTITY") {
			col.Identity = true
			col.Default = nil
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("hana: table %q not found", table)
	}

	if schema.PrimaryKey, err = a.PrimaryKey(ctx, table); err != nil {
		return nil, err
	}
	if schema.ForeignKeys, err = a.ForeignKeys(ctx, table); err != nil {
		return nil, err
	}
	if schema.Uniques, err = a.UniqueConstraints(ctx, table); err != nil {
		return nil, err
	}
	if schema.Indexes, err = a.Indexes(ctx, table); err != nil {
		return nil, err
	}
	return schema, nil
}

func (a *hanaAdapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT COLUMN_NAME
		FROM SYS.CONSTRAINTS
		WHERE SCHEMA_NAME = CURRENT_SCHEMA
		  AND TABLE_NAME = UPPER(?)
		  AND IS_PRIMARY_KEY = 'TRUE'
		ORDER BY POSITION
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

func (a *hanaAdapter) ForeignKeys(ctx context.Context, table string) ([]ir.ForeignKey, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			CONSTRAINT_NAME,
			COLUMN_NAME,
			REFERENCED_TABLE_NAME,
			REFERENCED_COLUMN_NAME
		FROM SYS.REFERENTIAL_CONSTRAINTS
		WHERE SCHEMA_NAME = CURRENT_SCHEMA AND TABLE_NAME = UPPER(?)
		ORDER BY CONSTRAINT_NAME, POSITION
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

func (a *hanaAdapter) UniqueConstraints(ctx context.Context, table string) ([]ir.UniqueConstraint, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT CONSTRAINT_NAME, COLUMN_NAME
		FROM SYS.CONSTRAINTS
		WHERE SCHEMA_NAME = CURRENT_SCHEMA
		  AND TABLE_NAME = UPPER(?)
		  AND IS_UNIQUE_KEY = 'TRUE'
		  AND IS_PRIMARY_KEY = 'FALSE'
		ORDER BY CONSTRAINT_NAME, POSITION
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

func (a *hanaAdapter) Indexes(ctx context.Context, table string) ([]ir.Index, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT i.INDEX_NAME, ic.COLUMN_NAME, i.CONSTRAINT
		FROM SYS.INDEXES i
		JOIN SYS.INDEX_COLUMNS ic
		  ON i.SCHEMA_NAME = ic.SCHEMA_NAME AND i.INDEX_NAME = ic.INDEX_NAME
		WHERE i.SCHEMA_NAME = CURRENT_SCHEMA AND i.TABLE_NAME = UPPER(?)
		ORDER BY i.INDEX_NAME, ic.POSITION
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*ir.Index{}
	var order []string
	for rows.Next() {
		var name, col string
		var constraint sql.NullString
		if err := rows.Scan(&name, &col, &constraint); err != nil {
			return nil, err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &ir.Index{
				Name:    ir.FoldName(name),
				Unique:  strings.Contains(constraint.String, "UNIQUE"),
				Primary: strings.Contains(constraint.String, "PRIMARY"),
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

func (a *hanaAdapter) AddForeignKey(ctx context.Context, table string, fk ir.ForeignKey) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(table), quoteIdent(fk.Name), quoteIdent(fk.Column),
		quoteIdent(fk.RefTable), quoteIdent(fk.RefColumn)))
}

func (a *hanaAdapter) CreateIndex(ctx context.Context, table string, index ir.Index) adapter.ExecResult {
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

func (a *hanaAdapter) ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*adapter.ExtractResult, error) {
	if orderBy == "" {
		schema, err := a.TableSchema(ctx, table)
		if err != nil {
			return nil, err
		}
		orderBy = adapter.OrderKey(schema)
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", quoteIdent(table), orderBy)
	if chunkSize <= 0 {
		return adapter.ExtractRows(ctx, a.db, query, orderBy)
	}
	return adapter.ExtractPaged(ctx, a.db, func(offset int) string {
		return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, chunkSize, offset)
	}, chunkSize, orderBy)
}

func (a *hanaAdapter) CreateTable(ctx context.Context, schema *ir.TableSchema) adapter.ExecResult {
	var defs []string
	for _, col := range schema.Columns {
		typ := typereg.Render(ir.DialectHANA, col.Type)
		if typ == "" {
			if a.cfg.StrictTypes {
				return adapter.Failed(adapter.ErrClassConfig,
					fmt.Errorf("column %s.%s: unmapped type %q", schema.Name, col.Name, col.NativeType))
			}
			typ = col.NativeType
		}
		def := fmt.Sprintf("%s %s", quoteIdent(col.Name), typ)
		if col.Identity {
			def += " GENERATED BY DEFAULT AS IDENTITY"
		}
		if !col.Nullable {
			def += " NOT NULL"
		}
		if col.Default != nil && !col.Identity {
			def += " DEFAULT " + *col.Default
		}
		defs = append(defs, def)
	}
	if len(schema.PrimaryKey) > 0 {
		pk := make([]string, len(schema.PrimaryKey))
		for i, c := range schema.PrimaryKey {
			pk[i] = quoteIdent(c)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}
	for _, uc := range schema.Uniques {
		cols := make([]string, len(uc.Columns))
		for i, c := range uc.Columns {
			cols[i] = quoteIdent(c)
		}
		defs = append(defs, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)",
			quoteIdent(uc.Name), strings.Join(cols, ", ")))
	}
	ddl := fmt.Sprintf("CREATE COLUMN TABLE %s (\n    %s\n)",
		quoteIdent(schema.Name), strings.Join(defs, ",\n    "))
	return adapter.Exec(ctx, a.db, classify, ddl)
}

func (a *hanaAdapter) DropTable(ctx context.Context, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TABLE %s CASCADE", quoteIdent(table)))
}

func (a *hanaAdapter) InsertRow(ctx context.Context, table string, columns []string, values []any) adapter.ExecResult {
	quoted := make([]string, len(columns))
	holders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		holders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(holders, ", "))
	return adapter.Exec(ctx, a.db, classify, stmt, values...)
}
