package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/typereg"
)

func (a *oraAdapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name
		FROM user_tables
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

func (a *oraAdapter) TableSchema(ctx context.Context, table string) (*ir.TableSchema, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			column_name,
			data_type,
			data_length,
			data_precision,
			data_scale,
			nullable,
			data_default,
			identity_column
		FROM user_tab_columns
		WHERE table_name = UPPER(:1)
		ORDER BY column_id
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schema := &ir.TableSchema{Name: ir.FoldName(table)}
	for rows.Next() {
		var name, dataType, nullable, identity string
		var length sql.NullInt64
		var precision, scale sql.NullInt64
		var def sql.NullString
		if err := rows.Scan(&name, &dataType, &length, &precision, &scale, &nullable, &def, &identity); err != nil {
			return nil, err
		}
		native := dataType
		switch {
		case precision.Valid && scale.Valid && scale.Int64 > 0:
			native = fmt.Sprintf("%s(%d,%d)", dataType, precision.Int64, scale.Int64)
		case precision.Valid:
			native = fmt.Sprintf("%s(%d)", dataType, precision.Int64)
		case strings.Contains(dataType, "CHAR") && length.Valid:
			native = fmt.Sprintf("%s(%d)", dataType, length.Int64)
		}
		var defPtr *string
		if def.Valid {
			trimmed := strings.TrimSpace(def.String)
			defPtr = &trimmed
		}
		col := typereg.ColumnFromNative(ir.DialectOracle, name, native, nullable == "Y", defPtr)
		if identity == "YES" {
			col.Identity = true
			col.Default = nil
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("oracle: table %q not found", table)
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

func (a *oraAdapter) ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*adapter.ExtractResult, error) {
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

func (a *oraAdapter) CreateTable(ctx context.Context, schema *ir.TableSchema) adapter.ExecResult {
	var defs []string
	for _, col := range schema.Columns {
		typ := typereg.Render(ir.DialectOracle, col.Type)
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
		} else if col.Default != nil {
			def += " DEFAULT " + *col.Default
		}
		if !col.Nullable {
			def += " NOT NULL"
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

func (a *oraAdapter) DropTable(ctx context.Context, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TABLE %s CASCADE CONSTRAINTS", quoteIdent(table)))
}

func (a *oraAdapter) InsertRow(ctx context.Context, table string, columns []string, values []any) adapter.ExecResult {
	quoted := make([]string, len(columns))
	holders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		holders[i] = fmt.Sprintf(":%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(holders, ", "))
	return adapter.Exec(ctx, a.db, classify, stmt, values...)
}
