package adapter

import (
	"errors"
	"fmt"
	"time"

	"saiql/internal/ir"
)

// ErrConfig marks configuration errors; they are detected before any
// connection is attempted and are fatal to the run.
var ErrConfig = errors.New("configuration error")

// SSLMode is the closed set of TLS negotiation modes.
type SSLMode string

const (
	SSLDisabled       SSLMode = "disabled"
	SSLPreferred      SSLMode = "preferred"
	SSLRequired       SSLMode = "required"
	SSLVerifyCA       SSLMode = "verify_ca"
	SSLVerifyIdentity SSLMode = "verify_identity"
)

// Config is the connection configuration shared by all dialects, with
// dialect-specific extensions. Passwords and key material never appear in
// logs or bundle artifacts; see Redacted.
type Config struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"` // database, service name, or SQLite file path
	User     string `toml:"user"`
	Password string `toml:"password"`

	MinConnections int           `toml:"min_connections"`
	MaxConnections int           `toml:"max_connections"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`

	SSLMode SSLMode `toml:"ssl_mode"`
	SSLCert string  `toml:"ssl_cert"`
	SSLKey  string  `toml:"ssl_key"`
	SSLCA   string  `toml:"ssl_ca"`

	MaxRetries int           `toml:"max_retries"`
	RetryDelay time.Duration `toml:"retry_delay"`

	Charset    string `toml:"charset"`
	Autocommit bool   `toml:"autocommit"`

	// StrictTypes makes an UNKNOWN type mapping fatal to the table instead
	// of flag-and-continue.
	StrictTypes bool `toml:"strict_types"`

	// Pragmas is the SQLite baseline; foreign_keys=ON and
	// recursive_triggers=OFF are enforced regardless of what is listed here.
	Pragmas map[string]string `toml:"pragmas"`
}

// Validate checks the config for one dialect before any connection.
func (c Config) Validate(dialect ir.Dialect) error {
	if dialect == ir.DialectSQLite {
		if c.Database == "" {
			return fmt.Errorf("%w: sqlite requires a database file path", ErrConfig)
		}
	} else {
		if c.Host == "" {
			return fmt.Errorf("%w: host is required", ErrConfig)
		}
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrConfig, c.Port)
		}
		if c.User == "" {
			return fmt.Errorf("%w: user is required", ErrConfig)
		}
	}
	switch c.SSLMode {
	case "", SSLDisabled, SSLPreferred, SSLRequired, SSLVerifyCA, SSLVerifyIdentity:
	default:
		return fmt.Errorf("%w: unknown ssl_mode %q", ErrConfig, c.SSLMode)
	}
	if (c.SSLCert == "") != (c.SSLKey == "") {
		return fmt.Errorf("%w: ssl_cert and ssl_key must be set together", ErrConfig)
	}
	if (c.SSLMode == SSLVerifyCA || c.SSLMode == SSLVerifyIdentity) && c.SSLCA == "" {
		return fmt.Errorf("%w: ssl_mode %s requires ssl_ca", ErrConfig, c.SSLMode)
	}
	if c.MinConnections > c.MaxConnections && c.MaxConnections != 0 {
		return fmt.Errorf("%w: min_connections %d exceeds max_connections %d",
			ErrConfig, c.MinConnections, c.MaxConnections)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrConfig)
	}
	return nil
}

// Redacted returns the connection metadata that may appear in bundles and
// logs: host, port, database/service, and user. Nothing else.
func (c Config) Redacted() map[string]string {
	out := map[string]string{
		"host": c.Host,
		"user": c.User,
	}
	if c.Port != 0 {
		out["port"] = fmt.Sprintf("%d", c.Port)
	}
	if c.Database != "" {
		out["database"] = c.Database
	}
	return out
}

// Secrets returns the substrings that must never appear in any artifact.
// The bundle writer scrubs its output against this list.
func (c Config) Secrets() []string {
	var out []string
	if c.Password != "" {
		out = append(out, c.Password)
	}
	if c.SSLKey != "" {
		out = append(out, c.SSLKey)
	}
	return out
}
