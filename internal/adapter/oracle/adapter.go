// Package oracle implements the Oracle adapter over sijms/go-ora. Metadata
// comes from the USER_* catalog views, so the adapter sees exactly the
// objects the configured migration user owns.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func init() {
	adapter.Register(ir.DialectOracle, New)
}

type oraAdapter struct {
	cfg     adapter.Config
	db      *sql.DB
	session map[string]string
}

// New builds an unconnected Oracle adapter; cfg.Database is the service name.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &oraAdapter{cfg: cfg, session: map[string]string{}}, nil
}

func (a *oraAdapter) Dialect() ir.Dialect { return ir.DialectOracle }

func (a *oraAdapter) Supports(level adapter.Level) bool { return true }

func (a *oraAdapter) Connect(ctx context.Context) error {
	opts := map[string]string{}
	if a.cfg.ConnectTimeout > 0 {
		opts["TIMEOUT"] = fmt.Sprintf("%d", int(a.cfg.ConnectTimeout.Seconds()))
	}
	dsn := go_ora.BuildUrl(a.cfg.Host, a.cfg.Port, a.cfg.Database, a.cfg.User, a.cfg.Password, opts)

	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return fmt.Errorf("oracle: open: %w", err)
	}
	if a.cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(a.cfg.MaxConnections)
	}
	db.SetMaxIdleConns(a.cfg.MinConnections)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("oracle: connect %s:%d/%s: %w", a.cfg.Host, a.cfg.Port, a.cfg.Database, err)
	}
	a.db = db

	// NLS baseline so DATE and TIMESTAMP literals round-trip predictably.
	settings := [][2]string{
		{"NLS_DATE_FORMAT", "YYYY-MM-DD HH24:MI:SS"},
		{"NLS_TIMESTAMP_FORMAT", "YYYY-MM-DD HH24:MI:SS.FF"},
		{"NLS_NUMERIC_CHARACTERS", ".,"},
	}
	for _, s := range settings {
		stmt := fmt.Sprintf("ALTER SESSION SET %s = '%s'", s[0], s[1])
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("oracle: session setup %s: %w", s[0], err)
		}
		a.session[s[0]] = s[1]
	}
	return nil
}

func (a *oraAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *oraAdapter) Version(ctx context.Context) (string, error) {
	var v string
	err := a.db.QueryRowContext(ctx,
		"SELECT banner FROM v$version WHERE ROWNUM = 1").Scan(&v)
	return v, err
}

func (a *oraAdapter) SessionSettings() map[string]string {
	out := make(map[string]string, len(a.session))
	for k, v := range a.session {
		out[k] = v
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(strings.ToUpper(name), `"`, ``) + `"`
}
