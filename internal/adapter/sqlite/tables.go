package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/typereg"
)

func (a *liteAdapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
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

func (a *liteAdapter) TableSchema(ctx context.Context, table string) (*ir.TableSchema, error) {
	rows, err := a.db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schema := &ir.TableSchema{Name: ir.FoldName(table)}
	type pkCol struct {
		name string
		rank int
	}
	var pks []pkCol
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var def sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &def, &pk); err != nil {
			return nil, err
		}
		var defPtr *string
		if def.Valid {
			defPtr = &def.String
		}
		schema.Columns = append(schema.Columns,
			typereg.ColumnFromNative(ir.DialectSQLite, name, colType, notNull == 0, defPtr))
		if pk > 0 {
			pks = append(pks, pkCol{name: ir.FoldName(name), rank: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("sqlite: table %q not found", table)
	}

	for rank := 1; rank <= len(pks); rank++ {
		for _, p := range pks {
			if p.rank == rank {
				schema.PrimaryKey = append(schema.PrimaryKey, p.name)
			}
		}
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

func (a *liteAdapter) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	schema, err := a.TableSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	return schema.PrimaryKey, nil
}

func (a *liteAdapter) ForeignKeys(ctx context.Context, table string) ([]ir.ForeignKey, error) {
	rows, err := a.db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.ForeignKey
	for rows.Next() {
		var id, seq int
		var refTable, from string
		var to sql.NullString
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		out = append(out, ir.ForeignKey{
			Name:      fmt.Sprintf("fk_%s_%d", ir.FoldName(table), id),
			Column:    ir.FoldName(from),
			RefTable:  ir.FoldName(refTable),
			RefColumn: ir.FoldName(to.String),
		})
	}
	return out, rows.Err()
}

func (a *liteAdapter) UniqueConstraints(ctx context.Context, table string) ([]ir.UniqueConstraint, error) {
	indexes, err := a.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	var out []ir.UniqueConstraint
	for _, idx := range indexes {
		if idx.Unique && !idx.Primary {
			out = append(out, ir.UniqueConstraint{Name: idx.Name, Columns: idx.Columns})
		}
	}
	return out, nil
}

func (a *liteAdapter) Indexes(ctx context.Context, table string) ([]ir.Index, error) {
	rows, err := a.db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type listed struct {
		name    string
		unique  bool
		primary bool
	}
	var names []listed
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		names = append(names, listed{name: name, unique: unique == 1, primary: origin == "pk"})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ir.Index
	for _, l := range names {
		cols, err := a.indexColumns(ctx, l.name)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.Index{
			Name:    ir.FoldName(l.name),
			Columns: cols,
			Unique:  l.unique,
			Primary: l.primary,
		})
	}
	return out, nil
}

func (a *liteAdapter) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, ir.FoldName(name.String))
		}
	}
	return cols, rows.Err()
}

// AddForeignKey verifies the constraint landed, since it can only be carried
// by the CREATE TABLE statement on this engine.
func (a *liteAdapter) AddForeignKey(ctx context.Context, table string, fk ir.ForeignKey) adapter.ExecResult {
	fks, err := a.ForeignKeys(ctx, table)
	if err != nil {
		return adapter.Failed(adapter.ErrClassOther, err)
	}
	for _, got := range fks {
		if got.Column == fk.Column && got.RefTable == fk.RefTable && got.RefColumn == fk.RefColumn {
			return adapter.Done(0)
		}
	}
	return adapter.Failed(adapter.ErrClassOther, fmt.Errorf(
		"foreign key on %s.%s referencing %s.%s missing after create",
		table, fk.Column, fk.RefTable, fk.RefColumn))
}

func (a *liteAdapter) CreateIndex(ctx context.Context, table string, index ir.Index) adapter.ExecResult {
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

func (a *liteAdapter) ExtractData(ctx context.Context, table, orderBy string, chunkSize int) (*adapter.ExtractResult, error) {
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

func (a *liteAdapter) CreateTable(ctx context.Context, schema *ir.TableSchema) adapter.ExecResult {
	var defs []string
	for _, col := range schema.Columns {
		typ := typereg.Render(ir.DialectSQLite, col.Type)
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
		if col.Default != nil {
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
	// SQLite has no ALTER TABLE ADD CONSTRAINT, so foreign keys must ride
	// inside the CREATE TABLE statement.
	for _, fk := range schema.ForeignKeys {
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteIdent(fk.Column), quoteIdent(fk.RefTable), quoteIdent(fk.RefColumn)))
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		quoteIdent(schema.Name), strings.Join(defs, ",\n    "))
	return adapter.Exec(ctx, a.db, classify, ddl)
}

func (a *liteAdapter) DropTable(ctx context.Context, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table)))
}

func (a *liteAdapter) InsertRow(ctx context.Context, table string, columns []string, values []any) adapter.ExecResult {
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
