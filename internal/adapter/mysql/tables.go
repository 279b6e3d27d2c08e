package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/typereg"
)

func (a *myAdapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
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

func (a *myAdapter) TableSchema(ctx context.Context, table string) (*ir.TableSchema, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.extra
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE() AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schema := &ir.TableSchema{Name: ir.FoldName(table)}
	for rows.Next() {
		var name, colType, nullable, extra string
		var def sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &def, &extra); err != nil {
			return nil, err
		}
		var defPtr *string
		if def.Valid {
			defPtr = &def.String
		}
		col := typereg.ColumnFromNative(a.dialect, name, colType, nullable == "YES", defPtr)
		if strings.Contains(extra, "auto_increment") {
			col.Identity = true
			col.Default = nil
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("mysql: table %q not found", table)
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

func (a *myAdapter) ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*adapter.ExtractResult, error) {
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

func (a *myAdapter) CreateTable(ctx context.Context, schema *ir.TableSchema) adapter.ExecResult {
	var defs []string
	for _, col := range schema.Columns {
		typ := typereg.Render(a.dialect, col.Type)
		if typ == "" {
			if a.cfg.StrictTypes {
				return adapter.Failed(adapter.ErrClassConfig,
					fmt.Errorf("column %s.%s: unmapped type %q", schema.Name, col.Name, col.NativeType))
			}
			typ = col.NativeType
		}
		def := fmt.Sprintf("%s %s", quoteIdent(col.Name), typ)
		if !col.Nullable {
			def += " NOT NULL"
		}
		if col.Identity {
			def += " AUTO_INCREMENT"
		} else if col.Default != nil {
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
	ddl := fmt.Sprintf("CREATE TABLE %s (\n    %s\n) ENGINE=InnoDB",
		quoteIdent(schema.Name), strings.Join(defs, ",\n    "))
	return adapter.Exec(ctx, a.db, classify, ddl)
}

func (a *myAdapter) DropTable(ctx context.Context, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table)))
}

func (a *myAdapter) InsertRow(ctx context.Context, table string, columns []string, values []any) adapter.ExecResult {
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
