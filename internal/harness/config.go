// Package harness orchestrates a full migration run: paired source and
// target endpoints, clean state per run, the L0-L4 level walk, and the
// evidence bundle written atomically at the end.
package harness

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// LogConfig shapes the rotated harness run log.
type LogConfig struct {
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// RunConfig is the full TOML run configuration.
type RunConfig struct {
	Mode          string `toml:"mode"`
	SourceDialect string `toml:"source_dialect"`
	TargetDialect string `toml:"target_dialect"`
	Schema        string `toml:"schema"`
	OutputDir     string `toml:"output_dir"`
	ChunkSize     int    `toml:"chunk_size"`
	// KeepTarget leaves the migrated objects on the target after the run
	// instead of tearing the scratch state down.
	KeepTarget bool `toml:"keep_target"`

	Source adapter.Config `toml:"source"`
	Target adapter.Config `toml:"target"`
	Log    LogConfig      `toml:"log"`
}

// LoadConfig reads and validates a run configuration file.
func LoadConfig(path string) (*RunConfig, error) {
	var cfg RunConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", adapter.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var knownDialects = map[ir.Dialect]bool{
	ir.DialectPostgres: true,
	ir.DialectMySQL:    true,
	ir.DialectMariaDB:  true,
	ir.DialectSQLite:   true,
	ir.DialectOracle:   true,
	ir.DialectMSSQL:    true,
	ir.DialectHANA:     true,
}

// Validate checks the run configuration; errors here are fatal before any
// connection is attempted.
func (c *RunConfig) Validate() error {
	switch ir.TranslateMode(c.Mode) {
	case ir.ModeAnalyze, ir.ModeStub, ir.ModeSubsetTranslate:
	case "":
		c.Mode = string(ir.ModeAnalyze)
	default:
		return fmt.Errorf("%w: unknown mode %q", adapter.ErrConfig, c.Mode)
	}
	if !knownDialects[ir.Dialect(c.SourceDialect)] {
		return fmt.Errorf("%w: unknown source_dialect %q", adapter.ErrConfig, c.SourceDialect)
	}
	if !knownDialects[ir.Dialect(c.TargetDialect)] {
		return fmt.Errorf("%w: unknown target_dialect %q", adapter.ErrConfig, c.TargetDialect)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", adapter.ErrConfig)
	}
	if err := c.Source.Validate(ir.Dialect(c.SourceDialect)); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Target.Validate(ir.Dialect(c.TargetDialect)); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if err := refuseOverprivileged(ir.Dialect(c.SourceDialect), c.Source.User); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := refuseOverprivileged(ir.Dialect(c.TargetDialect), c.Target.User); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	return nil
}

// overprivilegedUsers are admin identities the harness refuses to run under;
// a dedicated migration user is required.
var overprivilegedUsers = map[string]bool{
	"root":   true,
	"sys":    true,
	"system": true,
	"sa":     true,
}

func refuseOverprivileged(dialect ir.Dialect, user string) error {
	if dialect == ir.DialectSQLite {
		return nil
	}
	if overprivilegedUsers[strings.ToLower(user)] {
		return fmt.Errorf("%w: refusing to run as admin identity %q; use a dedicated migration user",
			adapter.ErrConfig, user)
	}
	return nil
}
