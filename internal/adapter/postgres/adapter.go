// Package postgres implements the Postgres adapter over lib/pq. All five
// levels are supported; object metadata comes from information_schema and
// pg_catalog.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func init() {
	adapter.Register(ir.DialectPostgres, New)
}

type pgAdapter struct {
	cfg     adapter.Config
	db      *sql.DB
	session map[string]string
}

// New builds an unconnected Postgres adapter.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &pgAdapter{cfg: cfg, session: map[string]string{}}, nil
}

func (a *pgAdapter) Dialect() ir.Dialect { return ir.DialectPostgres }

func (a *pgAdapter) Supports(level adapter.Level) bool { return true }

func (a *pgAdapter) dsn() string {
	parts := []string{
		fmt.Sprintf("host=%s", a.cfg.Host),
		fmt.Sprintf("port=%d", a.cfg.Port),
		fmt.Sprintf("dbname=%s", a.cfg.Database),
		fmt.Sprintf("user=%s", a.cfg.User),
	}
	if a.cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", a.cfg.Password))
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", pqSSLMode(a.cfg.SSLMode)))
	if a.cfg.SSLCert != "" {
		parts = append(parts, fmt.Sprintf("sslcert=%s sslkey=%s", a.cfg.SSLCert, a.cfg.SSLKey))
	}
	if a.cfg.SSLCA != "" {
		parts = append(parts, fmt.Sprintf("sslrootcert=%s", a.cfg.SSLCA))
	}
	if a.cfg.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(a.cfg.ConnectTimeout.Seconds())))
	}
	return strings.Join(parts, " ")
}

// pqSSLMode maps the shared ssl_mode vocabulary onto lib/pq's.
func pqSSLMode(m adapter.SSLMode) string {
	switch m {
	case adapter.SSLPreferred:
		return "prefer"
	case adapter.SSLRequired:
		return "require"
	case adapter.SSLVerifyCA:
		return "verify-ca"
	case adapter.SSLVerifyIdentity:
		return "verify-full"
	default:
		return "disable"
	}
}

func (a *pgAdapter) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", a.dsn())
	if err != nil {
		return fmt.Errorf("postgres: open: %w", err)
	}
	if a.cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(a.cfg.MaxConnections)
	}
	db.SetMaxIdleConns(a.cfg.MinConnections)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("postgres: connect %s:%d: %w", a.cfg.Host, a.cfg.Port, err)
	}
	a.db = db

	// Session baseline, recorded for the run manifest.
	timeout := int(a.cfg.ReadTimeout.Milliseconds())
	if timeout > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET statement_timeout = %d", timeout)); err != nil {
			_ = db.Close()
			return fmt.Errorf("postgres: session setup: %w", err)
		}
		a.session["statement_timeout"] = fmt.Sprintf("%dms", timeout)
	}
	if _, err := db.ExecContext(ctx, "SET timezone = 'UTC'"); err != nil {
		_ = db.Close()
		return fmt.Errorf("postgres: session setup: %w", err)
	}
	a.session["timezone"] = "UTC"
	a.session["client_encoding"] = "UTF8"
	return nil
}

func (a *pgAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *pgAdapter) Version(ctx context.Context) (string, error) {
	var v string
	err := a.db.QueryRowContext(ctx, "SHOW server_version").Scan(&v)
	return v, err
}

func (a *pgAdapter) SessionSettings() map[string]string {
	out := make(map[string]string, len(a.session))
	for k, v := range a.session {
		out[k] = v
	}
	return out
}

// quoteIdent double-quotes an identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
