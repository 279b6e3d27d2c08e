package adapter

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"saiql/internal/analyze"
	"saiql/internal/ir"
)

// Classifier buckets a driver error into the harness taxonomy. Each dialect
// package supplies its own, keyed on driver error types or vendor codes.
type Classifier func(error) ErrorClass

// Exec runs one mutating statement and folds the outcome into an ExecResult.
// Driver errors never escape; they come back classified.
func Exec(ctx context.Context, db *sql.DB, classify Classifier, stmt string, args ...any) ExecResult {
	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		if ctx.Err() != nil {
			return Failed(ErrClassTimeout, ctx.Err())
		}
		return Failed(classify(err), err)
	}
	rows, _ := res.RowsAffected()
	return Done(rows)
}

// ExtractRows runs a fully-formed SELECT and scans every row into a map with
// lower-cased field names. The query must already carry its ORDER BY; the
// order key is recorded in the stats verbatim.
func ExtractRows(ctx context.Context, db *sql.DB, query, orderKey string) (*ExtractResult, error) {
	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	folded := make([]string, len(cols))
	for i, c := range cols {
		folded[i] = ir.FoldName(c)
	}

	out := &ExtractResult{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, name := range folded {
			if b, ok := vals[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = vals[i]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.Stats = ExtractStats{
		RowCount:     len(out.Rows),
		Duration:     time.Since(start),
		OrderKeyUsed: orderKey,
	}
	return out, nil
}

// ExtractPaged drains a table chunk by chunk. page renders the SELECT for one
// chunk at a given row offset; chunks are fetched until one comes back short,
// so a positive chunk size bounds memory per round trip without capping the
// extraction. The ORDER BY carried by every page keeps the pass deterministic.
func ExtractPaged(ctx context.Context, db *sql.DB, page func(offset int) string, chunkSize int, orderKey string) (*ExtractResult, error) {
	start := time.Now()
	out := &ExtractResult{}
	for offset := 0; ; offset += chunkSize {
		chunk, err := ExtractRows(ctx, db, page(offset), orderKey)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, chunk.Rows...)
		if len(chunk.Rows) < chunkSize {
			break
		}
	}
	out.Stats = ExtractStats{
		RowCount:     len(out.Rows),
		Duration:     time.Since(start),
		OrderKeyUsed: orderKey,
	}
	return out, nil
}

// OrderKey picks the deterministic extraction order for a table: the primary
// key columns when present, else the first column.
func OrderKey(schema *ir.TableSchema) string {
	if len(schema.PrimaryKey) > 0 {
		return strings.Join(schema.PrimaryKey, ", ")
	}
	if len(schema.Columns) > 0 {
		return schema.Columns[0].Name
	}
	return ""
}

// OrderViews topologically orders views by their view-to-view dependencies.
// Cycles degrade to lexical order with a warning, never to an error.
func OrderViews(views []ir.View) ([]ir.View, []ir.Warning) {
	return ir.TopoSortViews(views)
}

// SplitRoutines classifies every routine and partitions the list into the
// safe subset and the skipped remainder. Classification is recorded on each
// routine either way.
func SplitRoutines(dialect ir.Dialect, routines []ir.Routine) (safe, skipped []ir.Routine) {
	for i := range routines {
		analyze.ClassifyRoutine(dialect, &routines[i])
		if routines[i].Classification.Allowed {
			safe = append(safe, routines[i])
		} else {
			skipped = append(skipped, routines[i])
		}
	}
	return safe, skipped
}

// SplitTriggers does the same partition for triggers.
func SplitTriggers(triggers []ir.Trigger) (safe, skipped []ir.Trigger) {
	for i := range triggers {
		a := analyze.AnalyzeTrigger(&triggers[i])
		triggers[i].Classification = ir.Classification{Allowed: a.Allowed, ReasonCodes: a.Reasons}
		if a.Allowed {
			safe = append(safe, triggers[i])
		} else {
			skipped = append(skipped, triggers[i])
		}
	}
	return safe, skipped
}
