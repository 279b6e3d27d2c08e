package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/typereg"
)

// runTables walks L0: introspect every source table, recreate it on the
// target, extract the data in deterministic order, and replay it row by row.
// Rejected rows are recorded, never retried.
func (r *Runner) runTables(ctx context.Context) {
	lr := r.level("l0", r.target.Supports(adapter.L0Tables))

	tables, err := r.source.ListTables(ctx)
	if err != nil {
		lr.fail("list tables: " + err.Error())
		r.aborted = true
		return
	}
	lr.SourceCount = len(tables)

	for _, tbl := range tables {
		if ctx.Err() != nil {
			r.aborted = true
			return
		}
		schema, err := r.source.TableSchema(ctx, tbl)
		if err != nil {
			lr.fail("introspect " + tbl + ": " + err.Error())
			continue
		}
		r.schemas[tbl] = schema
		if err := r.bundle.WriteDDL(ir.ObjectTable, tbl, r.tableDDL(schema)); err != nil {
			r.log.Warn("write table ddl", zap.String("table", tbl), zap.Error(err))
		}

		_ = r.target.DropTable(ctx, tbl)
		res := r.target.CreateTable(ctx, schema)
		switch {
		case res.OK:
			lr.Migrated++
			r.teardown = append(r.teardown, func(ctx context.Context) adapter.ExecResult {
				return r.target.DropTable(ctx, tbl)
			})
		case res.Class == adapter.ErrClassUnsupported:
			lr.skip(res.Err)
			continue
		default:
			lr.fail("create " + tbl + ": " + res.Err)
			continue
		}

		ext, err := r.source.ExtractData(ctx, tbl, "", r.cfg.ChunkSize)
		if err != nil {
			lr.fail("extract " + tbl + ": " + err.Error())
			continue
		}
		r.extracts[tbl] = ext
		lr.RowsExtracted += ext.Stats.RowCount

		cols := make([]string, len(schema.Columns))
		for i, c := range schema.Columns {
			cols[i] = c.Name
		}
		for _, row := range ext.Rows {
			vals := make([]any, len(cols))
			for i, c := range cols {
				vals[i] = row[c]
			}
			ins := r.target.InsertRow(ctx, tbl, cols, vals)
			if ins.OK {
				lr.RowsInserted++
				continue
			}
			lr.RowsFailed++
			r.log.Warn("row rejected",
				zap.String("table", tbl),
				zap.String("class", string(ins.Class)),
				zap.String("error", ins.Err))
		}
	}
	r.log.Info("l0 complete",
		zap.Int("tables", lr.SourceCount),
		zap.Int("migrated", lr.Migrated),
		zap.Int("rows", lr.RowsInserted))
}

// runConstraints walks L1 in a second pass, after every table exists on the
// target. Primary keys and unique constraints ride inside CREATE TABLE and
// are verified in place; foreign keys and secondary indexes are created here,
// so references between tables resolve regardless of creation order.
func (r *Runner) runConstraints(ctx context.Context) {
	lr := r.level("l1", r.target.Supports(adapter.L1Constraints))

	tables := make([]string, 0, len(r.schemas))
	for tbl := range r.schemas {
		tables = append(tables, tbl)
	}
	sort.Strings(tables)

	if !lr.Supported {
		for _, tbl := range tables {
			schema := r.schemas[tbl]
			n := len(schema.ForeignKeys) + len(schema.Uniques) + len(secondaryIndexes(schema))
			if len(schema.PrimaryKey) > 0 {
				n++
			}
			lr.SourceCount += n
			for i := 0; i < n; i++ {
				lr.skip(string(ir.ReasonLevelUnsupported))
			}
		}
		return
	}

	for _, tbl := range tables {
		if ctx.Err() != nil {
			r.aborted = true
			return
		}
		schema := r.schemas[tbl]

		if len(schema.PrimaryKey) > 0 {
			lr.SourceCount++
			pk, err := r.target.PrimaryKey(ctx, tbl)
			switch {
			case err != nil:
				lr.fail("verify pk of " + tbl + ": " + err.Error())
			case slices.Equal(pk, schema.PrimaryKey):
				lr.Migrated++
			default:
				lr.fail(fmt.Sprintf("pk mismatch on %s: source %v, target %v",
					tbl, schema.PrimaryKey, pk))
			}
		}

		if len(schema.Uniques) > 0 {
			got, err := r.target.UniqueConstraints(ctx, tbl)
			for _, uc := range schema.Uniques {
				lr.SourceCount++
				switch {
				case err != nil:
					lr.fail("verify uniques of " + tbl + ": " + err.Error())
				case hasUnique(got, uc):
					lr.Migrated++
				default:
					lr.fail(fmt.Sprintf("unique constraint %s on %s missing from target", uc.Name, tbl))
				}
			}
		}

		for _, fk := range schema.ForeignKeys {
			lr.SourceCount++
			res := r.target.AddForeignKey(ctx, tbl, fk)
			switch {
			case res.OK:
				lr.Migrated++
			case res.Class == adapter.ErrClassUnsupported:
				lr.skip(res.Err)
			default:
				lr.fail(fmt.Sprintf("add foreign key %s on %s: %s", fk.Name, tbl, res.Err))
			}
		}

		for _, idx := range secondaryIndexes(schema) {
			lr.SourceCount++
			res := r.target.CreateIndex(ctx, tbl, idx)
			switch {
			case res.OK:
				lr.Migrated++
			case res.Class == adapter.ErrClassUnsupported:
				lr.skip(res.Err)
			default:
				lr.fail(fmt.Sprintf("create index %s on %s: %s", idx.Name, tbl, res.Err))
			}
		}
	}
}

// secondaryIndexes filters out the indexes that back the primary key or a
// unique constraint; those already exist once the table DDL has run.
func secondaryIndexes(schema *ir.TableSchema) []ir.Index {
	var out []ir.Index
	for _, idx := range schema.Indexes {
		if idx.Primary {
			continue
		}
		if idx.Unique && (sameColumns(schema.PrimaryKey, idx.Columns) || backsUnique(schema.Uniques, idx)) {
			continue
		}
		out = append(out, idx)
	}
	return out
}

func backsUnique(uniques []ir.UniqueConstraint, idx ir.Index) bool {
	for _, uc := range uniques {
		if sameColumns(uc.Columns, idx.Columns) {
			return true
		}
	}
	return false
}

func hasUnique(got []ir.UniqueConstraint, want ir.UniqueConstraint) bool {
	for _, uc := range got {
		if sameColumns(uc.Columns, want.Columns) {
			return true
		}
	}
	return false
}

// sameColumns compares two column sets ignoring order; constraint-backing
// index names differ across engines, column sets do not.
func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := slices.Clone(a), slices.Clone(b)
	sort.Strings(as)
	sort.Strings(bs)
	return slices.Equal(as, bs)
}

// runViews walks L2 in dependency order through the translator.
func (r *Runner) runViews(ctx context.Context) {
	lr := r.level("l2", r.target.Supports(adapter.L2Views))

	views, warns, err := r.source.OrderedViews(ctx, r.cfg.Schema)
	if r.levelUnsupported(lr, err) {
		return
	}
	if err != nil {
		lr.fail("order views: " + err.Error())
		return
	}
	lr.SourceCount = len(views)
	for _, w := range warns {
		r.log.Warn("view ordering", zap.String("object", w.Object), zap.String("message", w.Message))
	}

	for i := range views {
		if ctx.Err() != nil {
			r.aborted = true
			return
		}
		res := r.tr.View(&views[i])
		r.apply(lr, res, func(sql string) adapter.ExecResult {
			_ = r.target.DropView(ctx, res.ObjectName)
			return r.target.CreateView(ctx, &ir.View{Name: res.ObjectName, Definition: sql})
		}, func(ctx context.Context) adapter.ExecResult {
			return r.target.DropView(ctx, res.ObjectName)
		})
	}
}

// runRoutines walks L3. Packages go through the package analyzer; functions
// and procedures through the routine path.
func (r *Runner) runRoutines(ctx context.Context) {
	lr := r.level("l3", r.target.Supports(adapter.L3Routines))

	routines, err := r.source.ListRoutines(ctx, r.cfg.Schema)
	if r.levelUnsupported(lr, err) {
		return
	}
	if err != nil {
		lr.fail("list routines: " + err.Error())
		return
	}
	lr.SourceCount = len(routines)

	for i := range routines {
		if ctx.Err() != nil {
			r.aborted = true
			return
		}
		rt := &routines[i]
		var res ir.TranslationResult
		if rt.Kind == ir.RoutinePackage {
			res = r.tr.Package(rt.Name, rt.Body)
		} else {
			res = r.tr.Routine(rt)
		}
		kind := rt.Kind
		if kind == ir.RoutinePackage {
			// Package stubs land as plain functions.
			kind = ir.RoutineFunction
		}
		r.apply(lr, res, func(sql string) adapter.ExecResult {
			_ = r.target.DropRoutine(ctx, res.ObjectName, kind)
			return r.target.CreateRoutine(ctx, &ir.Routine{
				Name:       res.ObjectName,
				Kind:       kind,
				Definition: sql,
			})
		}, func(ctx context.Context) adapter.ExecResult {
			return r.target.DropRoutine(ctx, res.ObjectName, kind)
		})
	}
}

// runTriggers walks L4.
func (r *Runner) runTriggers(ctx context.Context) {
	lr := r.level("l4", r.target.Supports(adapter.L4Triggers))

	triggers, err := r.source.ListTriggers(ctx, r.cfg.Schema)
	if r.levelUnsupported(lr, err) {
		return
	}
	if err != nil {
		lr.fail("list triggers: " + err.Error())
		return
	}
	lr.SourceCount = len(triggers)

	for i := range triggers {
		if ctx.Err() != nil {
			r.aborted = true
			return
		}
		trg := &triggers[i]
		res := r.tr.Trigger(trg)
		r.apply(lr, res, func(sql string) adapter.ExecResult {
			_ = r.target.DropTrigger(ctx, res.ObjectName, trg.Table)
			return r.target.CreateTrigger(ctx, &ir.Trigger{
				Name:       res.ObjectName,
				Table:      trg.Table,
				Timing:     trg.Timing,
				Events:     trg.Events,
				Scope:      trg.Scope,
				Definition: sql,
			})
		}, func(ctx context.Context) adapter.ExecResult {
			return r.target.DropTrigger(ctx, res.ObjectName, trg.Table)
		})
	}
}

// levelUnsupported records a source endpoint that cannot serve this level
// and reports whether the walk should stop here.
func (r *Runner) levelUnsupported(lr *LevelResult, err error) bool {
	var unsup *adapter.UnsupportedLevelError
	if !errors.As(err, &unsup) {
		return false
	}
	lr.Supported = false
	lr.skip(string(ir.ReasonLevelUnsupported))
	r.log.Info("level unsupported at source",
		zap.String("level", lr.Level),
		zap.String("reason", unsup.Reason))
	return true
}

// apply carries one translation result to the target: the DDL artifact is
// always written when SQL exists; the object is created only when the target
// supports the level. Stubs created on the target still count as skipped in
// the parity summary, because the real object was not carried. Every object
// that lands, stub or real, registers its drop for the teardown pass.
func (r *Runner) apply(lr *LevelResult, res ir.TranslationResult, create func(sql string) adapter.ExecResult, drop func(ctx context.Context) adapter.ExecResult) {
	if !res.HasSQL() {
		lr.skip(skipReason(res))
		return
	}
	if err := r.bundle.WriteDDL(res.ObjectType, res.ObjectName, *res.SQL); err != nil {
		r.log.Warn("write ddl", zap.String("object", res.ObjectName), zap.Error(err))
	}
	if !lr.Supported {
		lr.skip(string(ir.ReasonLevelUnsupported))
		return
	}

	exec := create(*res.SQL)
	if exec.OK {
		r.teardown = append(r.teardown, drop)
	}
	switch {
	case !exec.OK && exec.Class == adapter.ErrClassUnsupported:
		lr.skip(exec.Err)
	case !exec.OK:
		lr.fail("create " + res.ObjectName + ": " + exec.Err)
	case strings.Contains(*res.SQL, "STUB"):
		lr.skip(skipReason(res))
	default:
		lr.Migrated++
	}
}

func skipReason(res ir.TranslationResult) string {
	if len(res.Warnings) > 0 {
		return string(res.Warnings[0].Reason)
	}
	return "analysis only"
}

// tableDDL renders the bundle artifact for one table in the target dialect's
// type vocabulary. Identifiers are already case-folded; the artifact is for
// audit, the adapter renders its own DDL for execution.
func (r *Runner) tableDDL(schema *ir.TableSchema) string {
	target := ir.Dialect(r.cfg.TargetDialect)
	var defs []string
	for _, col := range schema.Columns {
		typ := typereg.Render(target, col.Type)
		if typ == "" {
			typ = col.NativeType
		}
		def := col.Name + " " + typ
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
		defs = append(defs, "PRIMARY KEY ("+strings.Join(schema.PrimaryKey, ", ")+")")
	}
	for _, uc := range schema.Uniques {
		defs = append(defs, "CONSTRAINT "+uc.Name+" UNIQUE ("+strings.Join(uc.Columns, ", ")+")")
	}
	for _, fk := range schema.ForeignKeys {
		defs = append(defs, "CONSTRAINT "+fk.Name+" FOREIGN KEY ("+fk.Column+
			") REFERENCES "+fk.RefTable+" ("+fk.RefColumn+")")
	}
	ddl := "CREATE TABLE " + schema.Name + " (\n    " + strings.Join(defs, ",\n    ") + "\n);"
	for _, idx := range secondaryIndexes(schema) {
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		ddl += "\nCREATE " + unique + "INDEX " + idx.Name + " ON " + schema.Name +
			" (" + strings.Join(idx.Columns, ", ") + ");"
	}
	return ddl
}
