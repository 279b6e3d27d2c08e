// Package sqlite implements the SQLite adapter over mattn/go-sqlite3.
// Schema metadata comes from sqlite_master and the PRAGMA family. SQLite has
// no stored routines, so L3 is advertised as unsupported.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func init() {
	adapter.Register(ir.DialectSQLite, New)
}

type liteAdapter struct {
	cfg     adapter.Config
	db      *sql.DB
	session map[string]string
}

// New builds an unconnected SQLite adapter; cfg.Database is the file path.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &liteAdapter{cfg: cfg, session: map[string]string{}}, nil
}

func (a *liteAdapter) Dialect() ir.Dialect { return ir.DialectSQLite }

func (a *liteAdapter) Supports(level adapter.Level) bool {
	return level != adapter.L3Routines
}

func (a *liteAdapter) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", a.cfg.Database)
	if err != nil {
		return fmt.Errorf("sqlite: open %s: %w", a.cfg.Database, err)
	}
	// A single writer avoids SQLITE_BUSY churn on the migration path.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite: open %s: %w", a.cfg.Database, err)
	}
	a.db = db

	// The baseline pragmas are not configurable: foreign key enforcement is
	// always on and trigger recursion always off during migration.
	pragmas := map[string]string{
		"foreign_keys":       "ON",
		"recursive_triggers": "OFF",
	}
	for k, v := range a.cfg.Pragmas {
		if _, fixed := pragmas[k]; !fixed {
			pragmas[k] = v
		}
	}
	keys := make([]string, 0, len(pragmas))
	for k := range pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", k, pragmas[k])); err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite: pragma %s: %w", k, err)
		}
		a.session[k] = pragmas[k]
	}
	return nil
}

func (a *liteAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *liteAdapter) Version(ctx context.Context) (string, error) {
	var v string
	err := a.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v)
	return v, err
}

func (a *liteAdapter) SessionSettings() map[string]string {
	out := make(map[string]string, len(a.session))
	for k, v := range a.session {
		out[k] = v
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
