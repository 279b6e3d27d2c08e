package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/typereg"
)

func (a *msAdapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE' AND table_schema = 'dbo'
		ORDER BY table_name
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

func (a *msAdapter) TableSchema(ctx context.Context, table string) (*ir.TableSchema, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			COLUMNPROPERTY(OBJECT_ID('dbo.' + c.table_name), c.column_name, 'IsIdentity')
		FROM information_schema.columns c
		WHERE c.table_schema = 'dbo' AND c.table_name = @p1
		ORDER BY c.ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schema := &ir.TableSchema{Name: ir.FoldName(table)}
	for rows.Next() {
		var name, dataType, nullable string
		var def sql.NullString
		var charLen, numPrec, numScale, isIdentity sql.NullInt64
		if err := rows.Scan(&name, &dataType, &nullable, &def, &charLen, &numPrec, &numScale, &isIdentity); err != nil {
			return nil, err
		}
		native := dataType
		switch {
		case charLen.Valid && charLen.Int64 > 0:
			native = fmt.Sprintf("%s(%d)", dataType, charLen.Int64)
		case charLen.Valid && charLen.Int64 == -1:
			native = dataType + "(max)"
		case numScale.Valid && numScale.Int64 > 0:
			native = fmt.Sprintf("%s(%d,%d)", dataType, numPrec.Int64, numScale.Int64)
		}
		var defPtr *string
		if def.Valid {
			defPtr = &def.String
		}
		col := typereg.ColumnFromNative(ir.DialectMSSQL, name, native, nullable == "YES", defPtr)
		if isIdentity.Valid && isIdentity.Int64 == 1 {
			col.Identity = true
			col.Default = nil
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("mssql: table %q not found", table)
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

func (a *msAdapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		WHERE tc.table_schema = 'dbo'
		  AND tc.table_name = @p1
		  AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
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

func (a *msAdapter) ForeignKeys(ctx context.Context, table string) ([]ir.ForeignKey, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			fk.name,
			pc.name  AS column_name,
			rt.name  AS ref_table,
			rc.name  AS ref_column
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables pt  ON fk.parent_object_id = pt.object_id
		JOIN sys.columns pc ON fkc.parent_object_id = pc.object_id
		                   AND fkc.parent_column_id = pc.column_id
		JOIN sys.tables rt  ON fk.referenced_object_id = rt.object_id
		JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id
		                   AND fkc.referenced_column_id = rc.column_id
		WHERE pt.name = @p1
		ORDER BY fk.name, fkc.constraint_column_id
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

func (a *msAdapter) UniqueConstraints(ctx context.Context, table string) ([]ir.UniqueConstraint, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		WHERE tc.table_schema = 'dbo'
		  AND tc.table_name = @p1
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

func (a *msAdapter) Indexes(ctx context.Context, table string) ([]ir.Index, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT i.name, c.name AS column_name, i.is_unique, i.is_primary_key
		FROM sys.indexes i
		JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		JOIN sys.tables t ON i.object_id = t.object_id
		WHERE t.name = @p1 AND i.name IS NOT NULL
		ORDER BY i.name, ic.key_ordinal
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*ir.Index{}
	var order []string
	for rows.Next() {
		var name, col string
		var unique, primary bool
		if err := rows.Scan(&name, &col, &unique, &primary); err != nil {
			return nil, err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &ir.Index{Name: ir.FoldName(name), Unique: unique, Primary: primary}
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

func (a *msAdapter) AddForeignKey(ctx context.Context, table string, fk ir.ForeignKey) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdent(table), quoteIdent(fk.Name), quoteIdent(fk.Column),
		quoteIdent(fk.RefTable), quoteIdent(fk.RefColumn)))
}

func (a *msAdapter) CreateIndex(ctx context.Context, table string, index ir.Index) adapter.ExecResult {
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

func (a *msAdapter) ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*adapter.ExtractResult, error) {
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
		return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, chunkSize)
	}, chunkSize, orderBy)
}

func (a *msAdapter) CreateTable(ctx context.Context, schema *ir.TableSchema) adapter.ExecResult {
	var defs []string
	for _, col := range schema.Columns {
		typ := typereg.Render(ir.DialectMSSQL, col.Type)
		if typ == "" {
			if a.cfg.StrictTypes {
				return adapter.Failed(adapter.ErrClassConfig,
					fmt.Errorf("column %s.%s: unmapped type %q", schema.Name, col.Name, col.NativeType))
			}
			typ = col.NativeType
		}
		def := fmt.Sprintf("%s %s", quoteIdent(col.Name), typ)
		if col.Identity {
			def += " IDENTITY(1,1)"
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
	ddl := fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		quoteIdent(schema.Name), strings.Join(defs, ",\n    "))
	return adapter.Exec(ctx, a.db, classify, ddl)
}

func (a *msAdapter) DropTable(ctx context.Context, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table)))
}

func (a *msAdapter) InsertRow(ctx context.Context, table string, columns []string, values []any) adapter.ExecResult {
	quoted := make([]string, len(columns))
	holders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		holders[i] = fmt.Sprintf("@p%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(holders, ", "))
	return adapter.Exec(ctx, a.db, classify, stmt, values...)
}
