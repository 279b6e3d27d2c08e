// Package hana implements the SAP HANA adapter over go-hdb. HANA serves as
// an L0/L1 endpoint: tables, data, and constraints migrate, while views,
// routines, and triggers are advertised as unsupported and surface through
// the skip path.
package hana

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/SAP/go-hdb/driver"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func init() {
	adapter.Register(ir.DialectHANA, New)
}

type hanaAdapter struct {
	cfg     adapter.Config
	db      *sql.DB
	session map[string]string
}

// New builds an unconnected HANA adapter.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &hanaAdapter{cfg: cfg, session: map[string]string{}}, nil
}

func (a *hanaAdapter) Dialect() ir.Dialect { return ir.DialectHANA }

func (a *hanaAdapter) Supports(level adapter.Level) bool {
	return level == adapter.L0Tables || level == adapter.L1Constraints
}

func (a *hanaAdapter) dsn() string {
	return fmt.Sprintf("hdb://%s:%s@%s:%d", a.cfg.User, a.cfg.Password, a.cfg.Host, a.cfg.Port)
}

func (a *hanaAdapter) Connect(ctx context.Context) error {
	db, err := sql.Open("hdb", a.dsn())
	if err != nil {
		return fmt.Errorf("hana: open: %w", err)
	}
	if a.cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(a.cfg.MaxConnections)
	}
	db.SetMaxIdleConns(a.cfg.MinConnections)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("hana: connect %s:%d: %w", a.cfg.Host, a.cfg.Port, err)
	}
	a.db = db
	a.session["ISOLATION"] = "READ COMMITTED"
	return nil
}

func (a *hanaAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *hanaAdapter) Version(ctx context.Context) (string, error) {
	var v string
	err := a.db.QueryRowContext(ctx,
		"SELECT VERSION FROM SYS.M_DATABASE").Scan(&v)
	return v, err
}

func (a *hanaAdapter) SessionSettings() map[string]string {
	out := make(map[string]string, len(a.session))
	for k, v := range a.session {
		out[k] = v
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(strings.ToUpper(name), `"`, ``) + `"`
}
