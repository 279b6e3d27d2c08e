// Package mysql implements the adapter for MySQL and MariaDB, which share a
// wire protocol and driver. The concrete dialect is detected from
// version_comment after connecting and decides which classification rules
// apply.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func init() {
	adapter.Register(ir.DialectMySQL, func(cfg adapter.Config) (adapter.Adapter, error) {
		return New(ir.DialectMySQL, cfg)
	})
	adapter.Register(ir.DialectMariaDB, func(cfg adapter.Config) (adapter.Adapter, error) {
		return New(ir.DialectMariaDB, cfg)
	})
}

type myAdapter struct {
	cfg     adapter.Config
	dialect ir.Dialect
	db      *sql.DB
	session map[string]string
}

// New builds an unconnected adapter; the configured dialect is provisional
// until detection runs on Connect.
func New(dialect ir.Dialect, cfg adapter.Config) (adapter.Adapter, error) {
	return &myAdapter{cfg: cfg, dialect: dialect, session: map[string]string{}}, nil
}

func (a *myAdapter) Dialect() ir.Dialect { return a.dialect }

func (a *myAdapter) Supports(level adapter.Level) bool { return true }

func (a *myAdapter) Connect(ctx context.Context) error {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
	mc.User = a.cfg.User
	mc.Passwd = a.cfg.Password
	mc.DBName = a.cfg.Database
	mc.ParseTime = true
	mc.Timeout = a.cfg.ConnectTimeout
	mc.ReadTimeout = a.cfg.ReadTimeout
	mc.WriteTimeout = a.cfg.WriteTimeout
	if a.cfg.Charset != "" {
		mc.Params = map[string]string{"charset": a.cfg.Charset}
	}
	if a.cfg.SSLMode == adapter.SSLRequired || a.cfg.SSLMode == adapter.SSLVerifyCA ||
		a.cfg.SSLMode == adapter.SSLVerifyIdentity {
		mc.TLSConfig = "true"
	}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return fmt.Errorf("mysql: open: %w", err)
	}
	if a.cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(a.cfg.MaxConnections)
	}
	db.SetMaxIdleConns(a.cfg.MinConnections)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("mysql: connect %s: %w", mc.Addr, err)
	}
	a.db = db

	if detected, err := detectDialect(ctx, db); err == nil {
		a.dialect = detected
	}

	// STRICT_TRANS_TABLES keeps silent truncation out of inserted data.
	if _, err := db.ExecContext(ctx, "SET SESSION sql_mode = 'STRICT_TRANS_TABLES,NO_ENGINE_SUBSTITUTION'"); err != nil {
		_ = db.Close()
		return fmt.Errorf("mysql: session setup: %w", err)
	}
	a.session["sql_mode"] = "STRICT_TRANS_TABLES,NO_ENGINE_SUBSTITUTION"
	if _, err := db.ExecContext(ctx, "SET SESSION time_zone = '+00:00'"); err == nil {
		a.session["time_zone"] = "+00:00"
	}
	return nil
}

// detectDialect tells MySQL and MariaDB apart from the server's
// version_comment; the version string alone is ambiguous.
func detectDialect(ctx context.Context, db *sql.DB) (ir.Dialect, error) {
	var varName, comment string
	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", err
	}
	if strings.Contains(strings.ToLower(comment), "mariadb") {
		return ir.DialectMariaDB, nil
	}
	return ir.DialectMySQL, nil
}

func (a *myAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *myAdapter) Version(ctx context.Context) (string, error) {
	var v string
	err := a.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&v)
	return v, err
}

func (a *myAdapter) SessionSettings() map[string]string {
	out := make(map[string]string, len(a.session))
	for k, v := range a.session {
		out[k] = v
	}
	return out
}

// quoteIdent backtick-quotes an identifier.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
