package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/typereg"
)

func (a *pgAdapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
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

func (a *pgAdapter) TableSchema(ctx context.Context, table string) (*ir.TableSchema, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			c.column_name,
			COALESCE(c.data_type, ''),
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_identity
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schema := &ir.TableSchema{Name: ir.FoldName(table)}
	for rows.Next() {
		var name, dataType, nullable, identity string
		var def sql.NullString
		var charLen, numPrec, numScale sql.NullInt64
		if err := rows.Scan(&name, &dataType, &nullable, &def, &charLen, &numPrec, &numScale, &identity); err != nil {
			return nil, err
		}
		native := dataType
		if charLen.Valid {
			native = fmt.Sprintf("%s(%d)", dataType, charLen.Int64)
		} else if numScale.Valid && numScale.Int64 > 0 {
			native = fmt.Sprintf("%s(%d,%d)", dataType, numPrec.Int64, numScale.Int64)
		}
		var defPtr *string
		if def.Valid {
			defPtr = &def.String
		}
		col := typereg.ColumnFromNative(ir.DialectPostgres, name, native, nullable == "YES", defPtr)
		// Serial columns carry a nextval default instead of the identity flag.
		if identity == "YES" || (def.Valid && strings.HasPrefix(def.String, "nextval(")) {
			col.Identity = true
			col.Default = nil
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("postgres: table %q not found", table)
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

func (a *pgAdapter) ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*adapter.ExtractResult, error) {
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

func (a *pgAdapter) CreateTable(ctx context.Context, schema *ir.TableSchema) adapter.ExecResult {
	ddl, err := renderCreateTable(schema, a.cfg.StrictTypes)
	if err != nil {
		return adapter.Failed(adapter.ErrClassConfig, err)
	}
	return adapter.Exec(ctx, a.db, classify, ddl)
}

func (a *pgAdapter) DropTable(ctx context.Context, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", quoteIdent(table)))
}

func (a *pgAdapter) InsertRow(ctx context.Context, table string, columns []string, values []any) adapter.ExecResult {
	quoted := make([]string, len(columns))
	holders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		holders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(holders, ", "))
	return adapter.Exec(ctx, a.db, classify, stmt, values...)
}

// renderCreateTable emits the target CREATE TABLE statement, mapping every
// column through the type registry. An UNKNOWN mapping falls back to the
// source native type, or aborts the table under strict_types.
func renderCreateTable(schema *ir.TableSchema, strict bool) (string, error) {
	var defs []string
	for _, col := range schema.Columns {
		typ := typereg.Render(ir.DialectPostgres, col.Type)
		if typ == "" {
			if strict {
				return "", fmt.Errorf("column %s.%s: unmapped type %q",
					schema.Name, col.Name, col.NativeType)
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
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		quoteIdent(schema.Name), strings.Join(defs, ",\n    ")), nil
}
