package harness

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func seedSource() *fakeAdapter {
	src := newFakeAdapter(ir.DialectPostgres)
	src.tables = []string{"users"}
	src.schemas["users"] = &ir.TableSchema{
		Name: "users",
		Columns: []ir.Column{
			{Name: "id", NativeType: "bigint", Type: ir.TypeInfo{Kind: ir.KindBigInt}},
			{Name: "email", NativeType: "text", Type: ir.TypeInfo{Kind: ir.KindText}, Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
	src.rows["users"] = []map[string]any{
		{"id": int64(1), "email": "a@example.com"},
		{"id": int64(2), "email": "b@example.com"},
	}
	src.views = []ir.View{{
		Name:       "v_active",
		Definition: "SELECT id, email FROM users WHERE active = 1",
	}}
	src.routines = []ir.Routine{{
		Name:       "fn_total",
		Kind:       ir.RoutineFunction,
		Language:   "sql",
		Volatility: ir.VolatilityImmutable,
		Security:   ir.SecurityInvoker,
		Definition: "CREATE FUNCTION fn_total() RETURNS integer AS $$ SELECT count(*) FROM users $$ LANGUAGE sql",
	}}
	src.triggers = []ir.Trigger{{
		Name:       "trg_lower_email",
		Table:      "users",
		Timing:     ir.TimingBefore,
		Events:     []ir.TriggerEvent{ir.EventInsert},
		Scope:      ir.ScopeRow,
		Body:       ":NEW.email := LOWER(:NEW.email);",
		Definition: "CREATE TRIGGER trg_lower_email BEFORE INSERT ON users FOR EACH ROW BEGIN :NEW.email := LOWER(:NEW.email); END;",
	}}
	return src
}

// registerFakes installs a constructor that hands the source fake to the
// endpoint configured with database "srcdb" and the target fake to everyone
// else.
func registerFakes(src, tgt *fakeAdapter) {
	adapter.Register(ir.DialectPostgres, func(cfg adapter.Config) (adapter.Adapter, error) {
		if cfg.Database == "srcdb" {
			return src, nil
		}
		return tgt, nil
	})
}

func runConfig(t *testing.T, mode string) *RunConfig {
	t.Helper()
	return &RunConfig{
		Mode:          mode,
		SourceDialect: "postgres",
		TargetDialect: "postgres",
		OutputDir:     t.TempDir(),
		Source: adapter.Config{
			Host: "db1", User: "migrator", Password: "hunter2", Database: "srcdb",
		},
		Target: adapter.Config{
			Host: "db2", User: "migrator", Password: "t0psecret", Database: "tgtdb",
		},
	}
}

func TestRunEndToEndStubMode(t *testing.T) {
	src := seedSource()
	tgt := newFakeAdapter(ir.DialectPostgres)
	registerFakes(src, tgt)

	cfg := runConfig(t, "stub")
	r, err := NewRunner(cfg)
	require.NoError(t, err)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, res.Status)

	// Table and rows carried; stubs created but counted as skipped.
	require.Len(t, res.Levels, 5)
	l0 := res.Levels[0]
	assert.Equal(t, 1, l0.Migrated)
	assert.Equal(t, 2, l0.RowsInserted)
	assert.Equal(t, 0, l0.RowsFailed)

	l1 := res.Levels[1]
	assert.Equal(t, 1, l1.Migrated)

	l2 := res.Levels[2]
	assert.Equal(t, 1, l2.SourceCount)
	assert.Equal(t, 0, l2.Migrated)
	assert.Equal(t, 1, l2.Skipped)

	assert.Contains(t, tgt.created[ir.ObjectTable], "users")
	assert.Contains(t, tgt.created[ir.ObjectView], "v_active")
	assert.Equal(t, 2, tgt.inserted["users"])

	// Bundle layout.
	for _, rel := range []string{
		"run_manifest.json",
		filepath.Join("ddl", "TABLE_users.sql"),
		filepath.Join("ddl", "VIEW_v_active.sql"),
		filepath.Join("reports", "validation_report.json"),
		filepath.Join("reports", "limitations_report.json"),
		filepath.Join("reports", "parity_summary.json"),
		filepath.Join("reports", "translation_report.json"),
		filepath.Join("reports", "translation_report.txt"),
		filepath.Join("logs", "harness_run.log"),
	} {
		_, err := os.Stat(filepath.Join(res.BundleDir, rel))
		assert.NoError(t, err, rel)
	}

	raw, err := os.ReadFile(filepath.Join(res.BundleDir, "run_manifest.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")
	assert.NotContains(t, string(raw), "t0psecret")

	var manifest Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, res.RunID, manifest.RunID)
	assert.Equal(t, StatusPass, manifest.OverallStatus)
	assert.Len(t, manifest.SeedHash, 64)
	assert.Equal(t, "fake 1.0", manifest.Versions["source"])
	assert.Equal(t, "migrator", manifest.Source["user"])

	stub, err := os.ReadFile(filepath.Join(res.BundleDir, "ddl", "VIEW_v_active.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(stub), "STUB")
}

func TestRunAnalyzeModeEmitsNoObjectDDL(t *testing.T) {
	src := seedSource()
	tgt := newFakeAdapter(ir.DialectPostgres)
	registerFakes(src, tgt)

	r, err := NewRunner(runConfig(t, "analyze"))
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, res.Status)

	// No view, routine, or trigger lands on the target in analyze mode.
	assert.Empty(t, tgt.created[ir.ObjectView])
	assert.Empty(t, tgt.created[ir.ObjectFunction])
	assert.Empty(t, tgt.created[ir.ObjectTrigger])

	_, err = os.Stat(filepath.Join(res.BundleDir, "ddl", "VIEW_v_active.sql"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunFailsOnRejectedRows(t *testing.T) {
	src := seedSource()
	tgt := newFakeAdapter(ir.DialectPostgres)
	tgt.rejectRows = true
	registerFakes(src, tgt)

	r, err := NewRunner(runConfig(t, "analyze"))
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, 2, res.Levels[0].RowsFailed)
}

func TestRunFailsWhenSourceUnreachable(t *testing.T) {
	src := seedSource()
	src.connectErrs = 100
	tgt := newFakeAdapter(ir.DialectPostgres)
	registerFakes(src, tgt)

	cfg := runConfig(t, "analyze")
	cfg.Source.MaxRetries = 1
	cfg.Source.RetryDelay = 1 // nanoseconds; keep the test fast

	r, err := NewRunner(cfg)
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// The run fails but still leaves a complete bundle behind.
	assert.Equal(t, StatusFail, res.Status)
	raw, err := os.ReadFile(filepath.Join(res.BundleDir, "reports", "validation_report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "source connect")
}

func TestParitySummaryReportsStatus(t *testing.T) {
	parityOf := func(t *testing.T, bundleDir string) (string, paritySummary) {
		t.Helper()
		raw, err := os.ReadFile(filepath.Join(bundleDir, "reports", "parity_summary.json"))
		require.NoError(t, err)
		var parsed struct {
			Summary paritySummary `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(raw, &parsed))
		return parsed.Summary.ParityStatus, parsed.Summary
	}

	t.Run("clean table run is complete", func(t *testing.T) {
		src := newFakeAdapter(ir.DialectPostgres)
		src.tables = []string{"users"}
		src.schemas["users"] = seedSource().schemas["users"]
		src.rows["users"] = []map[string]any{{"id": int64(1), "email": "a@example.com"}}
		registerFakes(src, newFakeAdapter(ir.DialectPostgres))

		r, err := NewRunner(runConfig(t, "analyze"))
		require.NoError(t, err)
		res, err := r.Run(context.Background())
		require.NoError(t, err)

		status, summary := parityOf(t, res.BundleDir)
		assert.Equal(t, "COMPLETE", status)
		assert.Equal(t, 0, summary.Skipped)
		assert.Equal(t, 0, summary.Failed)
	})

	t.Run("skipped objects downgrade to partial", func(t *testing.T) {
		registerFakes(seedSource(), newFakeAdapter(ir.DialectPostgres))

		r, err := NewRunner(runConfig(t, "stub"))
		require.NoError(t, err)
		res, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusPass, res.Status)

		status, summary := parityOf(t, res.BundleDir)
		assert.Equal(t, "PARTIAL", status)
		assert.Greater(t, summary.Skipped, 0)
	})
}

func TestRunCarriesConstraintsAndIndexes(t *testing.T) {
	src := seedSource()
	src.tables = []string{"orders", "users"}
	src.schemas["orders"] = &ir.TableSchema{
		Name: "orders",
		Columns: []ir.Column{
			{Name: "id", NativeType: "bigint", Type: ir.TypeInfo{Kind: ir.KindBigInt}, Identity: true},
			{Name: "user_id", NativeType: "bigint", Type: ir.TypeInfo{Kind: ir.KindBigInt}},
			{Name: "ref", NativeType: "text", Type: ir.TypeInfo{Kind: ir.KindText}, Nullable: true},
		},
		PrimaryKey:  []string{"id"},
		ForeignKeys: []ir.ForeignKey{{Name: "fk_orders_user", Column: "user_id", RefTable: "users", RefColumn: "id"}},
		Uniques:     []ir.UniqueConstraint{{Name: "uq_orders_ref", Columns: []string{"ref"}}},
		Indexes: []ir.Index{
			{Name: "orders_pkey", Columns: []string{"id"}, Unique: true, Primary: true},
			{Name: "uq_orders_ref", Columns: []string{"ref"}, Unique: true},
			{Name: "idx_orders_user", Columns: []string{"user_id"}},
		},
	}
	tgt := newFakeAdapter(ir.DialectPostgres)
	registerFakes(src, tgt)

	r, err := NewRunner(runConfig(t, "analyze"))
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, res.Status)

	// Foreign key and secondary index land on the target; the unique
	// constraint rides inside CREATE TABLE and verifies in place. The
	// constraint-backing indexes are never recreated.
	require.Len(t, tgt.addedFKs["orders"], 1)
	assert.Equal(t, "fk_orders_user", tgt.addedFKs["orders"][0].Name)
	assert.Equal(t, []string{"idx_orders_user"}, tgt.indexed["orders"])

	l1 := res.Levels[1]
	assert.Equal(t, "l1", l1.Level)
	assert.Equal(t, 5, l1.SourceCount)
	assert.Equal(t, 5, l1.Migrated)
	assert.Equal(t, 0, l1.Skipped)
	assert.Equal(t, 0, l1.Failed)

	// The table artifact records the full shape.
	ddl, err := os.ReadFile(filepath.Join(res.BundleDir, "ddl", "TABLE_orders.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(ddl), "GENERATED BY DEFAULT AS IDENTITY")
	assert.Contains(t, string(ddl), "CONSTRAINT uq_orders_ref UNIQUE (ref)")
	assert.Contains(t, string(ddl), "CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id)")
	assert.Contains(t, string(ddl), "CREATE INDEX idx_orders_user ON orders (user_id);")
}

func TestRunTearsDownTargetObjects(t *testing.T) {
	t.Run("default run drops everything it created", func(t *testing.T) {
		tgt := newFakeAdapter(ir.DialectPostgres)
		registerFakes(seedSource(), tgt)

		r, err := NewRunner(runConfig(t, "stub"))
		require.NoError(t, err)
		_, err = r.Run(context.Background())
		require.NoError(t, err)

		// Each object is dropped once before create and once at teardown.
		assert.Equal(t, []string{"users", "users"}, tgt.dropped[ir.ObjectTable])
		assert.Equal(t, []string{"v_active", "v_active"}, tgt.dropped[ir.ObjectView])
		assert.Equal(t, []string{"fn_total", "fn_total"}, tgt.dropped[ir.ObjectFunction])
		assert.Equal(t, []string{"trg_lower_email", "trg_lower_email"}, tgt.dropped[ir.ObjectTrigger])
	})

	t.Run("keep_target leaves the objects in place", func(t *testing.T) {
		tgt := newFakeAdapter(ir.DialectPostgres)
		registerFakes(seedSource(), tgt)

		cfg := runConfig(t, "stub")
		cfg.KeepTarget = true
		r, err := NewRunner(cfg)
		require.NoError(t, err)
		_, err = r.Run(context.Background())
		require.NoError(t, err)

		// Only the pre-create drops ran.
		assert.Equal(t, []string{"users"}, tgt.dropped[ir.ObjectTable])
		assert.Equal(t, []string{"v_active"}, tgt.dropped[ir.ObjectView])
	})
}

func TestRunRemovesSQLiteScratchFile(t *testing.T) {
	src := seedSource()
	registerFakes(src, newFakeAdapter(ir.DialectPostgres))
	adapter.Register(ir.DialectSQLite, func(cfg adapter.Config) (adapter.Adapter, error) {
		return newFakeAdapter(ir.DialectSQLite), nil
	})

	cfg := &RunConfig{
		Mode:          "analyze",
		SourceDialect: "postgres",
		TargetDialect: "sqlite",
		OutputDir:     t.TempDir(),
		Source:        adapter.Config{Host: "db1", User: "migrator", Database: "srcdb"},
		Target:        adapter.Config{Database: filepath.Join(t.TempDir(), "target.db")},
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)

	// Simulate the driver materializing the per-run scratch file.
	require.NoError(t, os.WriteFile(cfg.Target.Database, []byte("stub"), 0o644))

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, res.Status)

	_, err = os.Stat(cfg.Target.Database)
	assert.True(t, os.IsNotExist(err), "per-run scratch database must be removed")
}

func TestRunnerGivesSQLiteTargetFreshFile(t *testing.T) {
	src := seedSource()
	registerFakes(src, newFakeAdapter(ir.DialectPostgres))
	lite := newFakeAdapter(ir.DialectSQLite)
	adapter.Register(ir.DialectSQLite, func(cfg adapter.Config) (adapter.Adapter, error) {
		return lite, nil
	})

	cfg := &RunConfig{
		Mode:          "analyze",
		SourceDialect: "postgres",
		TargetDialect: "sqlite",
		OutputDir:     t.TempDir(),
		Source:        adapter.Config{Host: "db1", User: "migrator", Database: "srcdb"},
		Target:        adapter.Config{Database: filepath.Join(t.TempDir(), "target.db")},
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	defer r.bundle.Abort()

	assert.Contains(t, cfg.Target.Database, "target.db.")
	assert.Contains(t, cfg.Target.Database, r.RunID()[:8])
}
