package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saiql/internal/adapter"
	"saiql/internal/ir"
	"saiql/internal/report"
	"saiql/internal/translate"
)

// LevelResult is the per-level parity record: how many source objects were
// seen, carried, skipped, or failed, and why.
type LevelResult struct {
	Level       string         `json:"level"`
	Supported   bool           `json:"supported"`
	SourceCount int            `json:"source_objects"`
	Migrated    int            `json:"migrated"`
	Skipped     int            `json:"skipped"`
	Failed      int            `json:"failed"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Errors      []string       `json:"errors,omitempty"`

	RowsExtracted int `json:"rows_extracted,omitempty"`
	RowsInserted  int `json:"rows_inserted,omitempty"`
	RowsFailed    int `json:"rows_failed,omitempty"`
}

func (l *LevelResult) skip(reason string) {
	l.Skipped++
	if l.SkipReasons == nil {
		l.SkipReasons = map[string]int{}
	}
	l.SkipReasons[reason]++
}

func (l *LevelResult) fail(err string) {
	l.Failed++
	l.Errors = append(l.Errors, err)
}

// RunResult is what Run hands back to the CLI.
type RunResult struct {
	RunID     string
	Status    Status
	BundleDir string
	Levels    []*LevelResult
}

// Runner drives one full migration run: connect, walk L0-L4, translate,
// validate, and write the evidence bundle.
type Runner struct {
	cfg    *RunConfig
	runID  string
	log    *zap.Logger
	bundle *Bundle

	source adapter.Adapter
	target adapter.Adapter
	tr     *translate.Translator

	levels   []*LevelResult
	schemas  map[string]*ir.TableSchema
	extracts map[string]*adapter.ExtractResult
	teardown []func(ctx context.Context) adapter.ExecResult
	targetUp bool
	fatal    []string
	aborted  bool
}

// NewRunner validates the configuration, allocates the run identity, and
// prepares the bundle, logger, adapters, and translator. Nothing connects
// until Run.
func NewRunner(cfg *RunConfig) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()

	// Each run gets a fresh SQLite target file; server targets are cleaned
	// object by object during the walk.
	if ir.Dialect(cfg.TargetDialect) == ir.DialectSQLite {
		cfg.Target.Database = cfg.Target.Database + "." + runID[:8]
	}

	secrets := append(cfg.Source.Secrets(), cfg.Target.Secrets()...)
	bundle, err := NewBundle(cfg.OutputDir, runID, secrets)
	if err != nil {
		return nil, err
	}
	log := newRunLogger(bundle.LogPath(), cfg.Log, secrets)

	source, err := adapter.New(ir.Dialect(cfg.SourceDialect), cfg.Source)
	if err != nil {
		_ = bundle.Abort()
		return nil, err
	}
	target, err := adapter.New(ir.Dialect(cfg.TargetDialect), cfg.Target)
	if err != nil {
		_ = bundle.Abort()
		return nil, err
	}
	tr, err := translate.New(ir.TranslateMode(cfg.Mode),
		ir.Dialect(cfg.SourceDialect), ir.Dialect(cfg.TargetDialect), log)
	if err != nil {
		_ = bundle.Abort()
		return nil, err
	}

	return &Runner{
		cfg:      cfg,
		runID:    runID,
		log:      log,
		bundle:   bundle,
		source:   source,
		target:   target,
		tr:       tr,
		schemas:  map[string]*ir.TableSchema{},
		extracts: map[string]*adapter.ExtractResult{},
	}, nil
}

// RunID returns the identity of this run.
func (r *Runner) RunID() string { return r.runID }

// Run executes the level walk end to end and finalizes the bundle. The
// returned error covers harness failures only; object-level failures are
// data of the run and land in the reports.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now().UTC()
	defer func() { _ = r.log.Sync() }()

	r.log.Info("run starting",
		zap.String("run_id", r.runID),
		zap.String("mode", r.cfg.Mode),
		zap.String("source", r.cfg.SourceDialect),
		zap.String("target", r.cfg.TargetDialect))

	versions := map[string]string{}
	sessions := map[string]map[string]string{}
	srcDialect, tgtDialect := r.cfg.SourceDialect, r.cfg.TargetDialect

	if err := r.connect(ctx, "source", r.source, r.cfg.Source); err == nil {
		defer func() { _ = r.source.Close() }()
		if v, verr := r.source.Version(ctx); verr == nil {
			versions["source"] = v
		}
		sessions["source"] = r.source.SessionSettings()
		// Connect may refine the dialect (MySQL vs MariaDB detection).
		srcDialect = string(r.source.Dialect())
	}
	if err := r.connect(ctx, "target", r.target, r.cfg.Target); err == nil {
		defer func() { _ = r.target.Close() }()
		r.targetUp = true
		if v, verr := r.target.Version(ctx); verr == nil {
			versions["target"] = v
		}
		sessions["target"] = r.target.SessionSettings()
		tgtDialect = string(r.target.Dialect())
	}

	if len(r.fatal) == 0 {
		r.runTables(ctx)
		r.runConstraints(ctx)
		r.runViews(ctx)
		r.runRoutines(ctx)
		r.runTriggers(ctx)
	}

	status := r.status(ctx)

	if r.targetUp {
		r.teardownTarget(ctx)
	}
	finished := time.Now().UTC()

	if err := r.writeReports(status); err != nil {
		r.log.Error("write reports", zap.Error(err))
	}
	manifest := &Manifest{
		RunID:           r.runID,
		Mode:            r.cfg.Mode,
		SourceDialect:   srcDialect,
		TargetDialect:   tgtDialect,
		Source:          r.cfg.Source.Redacted(),
		Target:          r.cfg.Target.Redacted(),
		Versions:        versions,
		SessionSettings: sessions,
		SeedHash:        SeedHash(r.extracts),
		OverallStatus:   status,
		StartedAt:       started.Format(time.RFC3339),
		FinishedAt:      finished.Format(time.RFC3339),
	}
	if err := r.bundle.WriteManifest(manifest); err != nil {
		_ = r.bundle.Abort()
		return nil, err
	}
	if err := r.bundle.Finalize(); err != nil {
		return nil, err
	}

	r.log.Info("run finished",
		zap.String("run_id", r.runID),
		zap.String("status", string(status)),
		zap.Duration("elapsed", finished.Sub(started)))

	return &RunResult{
		RunID:     r.runID,
		Status:    status,
		BundleDir: r.bundle.Path(),
		Levels:    r.levels,
	}, nil
}

func (r *Runner) connect(ctx context.Context, role string, a adapter.Adapter, cfg adapter.Config) error {
	res := adapter.Retry(ctx, cfg.MaxRetries, cfg.RetryDelay, func() adapter.ExecResult {
		if err := a.Connect(ctx); err != nil {
			return adapter.Failed(adapter.ErrClassConnection, err)
		}
		return adapter.Done(0)
	})
	if !res.OK {
		r.fatal = append(r.fatal, role+" connect: "+res.Err)
		r.log.Error("connect failed", zap.String("role", role), zap.String("error", res.Err))
		return errors.New(res.Err)
	}
	r.log.Info("connected", zap.String("role", role), zap.String("dialect", string(a.Dialect())))
	return nil
}

// teardownTarget unwinds the scratch state the run left on the target. The
// per-run SQLite file is deleted outright; server targets are unwound object
// by object in reverse creation order, so triggers go before routines, views
// before tables. keep_target in the run config leaves everything in place.
func (r *Runner) teardownTarget(ctx context.Context) {
	if r.cfg.KeepTarget {
		r.log.Info("keeping target objects", zap.String("target", r.cfg.TargetDialect))
		return
	}
	if ir.Dialect(r.cfg.TargetDialect) == ir.DialectSQLite {
		_ = r.target.Close()
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(r.cfg.Target.Database + suffix)
		}
		r.log.Info("removed scratch target database", zap.String("path", r.cfg.Target.Database))
		return
	}
	for i := len(r.teardown) - 1; i >= 0; i-- {
		if res := r.teardown[i](ctx); !res.OK {
			r.log.Warn("teardown drop failed", zap.String("error", res.Err))
		}
	}
	if left, err := r.target.ListTables(ctx); err == nil {
		for _, tbl := range left {
			if _, ok := r.schemas[tbl]; ok {
				r.log.Warn("table survived teardown", zap.String("table", tbl))
			}
		}
	}
}

func (r *Runner) level(name string, supported bool) *LevelResult {
	lr := &LevelResult{Level: name, Supported: supported}
	r.levels = append(r.levels, lr)
	return lr
}

// status derives the overall verdict. Skips never fail a run; they are the
// documented limitation surface. Object-level failures fail it, and an
// interrupted walk is incomplete rather than failed.
func (r *Runner) status(ctx context.Context) Status {
	if r.aborted || ctx.Err() != nil {
		return StatusIncomplete
	}
	if len(r.fatal) > 0 {
		return StatusFail
	}
	for _, lr := range r.levels {
		if lr.Failed > 0 || lr.RowsFailed > 0 {
			return StatusFail
		}
	}
	return StatusPass
}

func (r *Runner) writeReports(status Status) error {
	validation := struct {
		RunID         string         `json:"run_id"`
		OverallStatus Status         `json:"overall_status"`
		FatalErrors   []string       `json:"fatal_errors,omitempty"`
		Levels        []*LevelResult `json:"levels"`
	}{r.runID, status, r.fatal, r.levels}
	if err := r.bundle.WriteReport("validation_report", validation); err != nil {
		return err
	}

	limitations := struct {
		RunID   string         `json:"run_id"`
		Reasons map[string]int `json:"reason_histogram"`
	}{r.runID, r.limitationHistogram()}
	if err := r.bundle.WriteReport("limitations_report", limitations); err != nil {
		return err
	}

	parity := struct {
		RunID   string         `json:"run_id"`
		Summary paritySummary  `json:"summary"`
		Levels  []*LevelResult `json:"levels"`
	}{r.runID, summarizeParity(r.levels), r.levels}
	if err := r.bundle.WriteReport("parity_summary", parity); err != nil {
		return err
	}

	gen := report.Generator{
		Mode:   ir.TranslateMode(r.cfg.Mode),
		Source: ir.Dialect(r.cfg.SourceDialect),
		Target: ir.Dialect(r.cfg.TargetDialect),
	}
	results := r.tr.Results()
	machine := gen.Machine(results)
	if err := r.bundle.WriteReport("translation_report", machine); err != nil {
		return err
	}
	return r.bundle.writeFile(filepath.Join("reports", "translation_report.txt"), []byte(gen.Text(results)))
}

const (
	parityComplete = "COMPLETE"
	parityPartial  = "PARTIAL"
)

// paritySummary is the roll-up verdict over the whole level walk. COMPLETE
// means every source object was carried and every row landed; anything
// skipped, failed, or rejected downgrades the run to PARTIAL.
type paritySummary struct {
	ParityStatus string `json:"parity_status"`
	Migrated     int    `json:"migrated"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
}

func summarizeParity(levels []*LevelResult) paritySummary {
	s := paritySummary{ParityStatus: parityComplete}
	for _, lr := range levels {
		s.Migrated += lr.Migrated
		s.Skipped += lr.Skipped
		s.Failed += lr.Failed
		if lr.RowsFailed > 0 {
			s.ParityStatus = parityPartial
		}
	}
	if s.Skipped > 0 || s.Failed > 0 {
		s.ParityStatus = parityPartial
	}
	return s
}

// limitationHistogram aggregates every reason code seen this run: skip
// reasons from the level walk plus warning reasons from the translator.
func (r *Runner) limitationHistogram() map[string]int {
	hist := map[string]int{}
	for _, lr := range r.levels {
		for reason, n := range lr.SkipReasons {
			hist[reason] += n
		}
	}
	for _, res := range r.tr.Results() {
		for _, w := range res.Warnings {
			hist[string(w.Reason)]++
		}
	}
	return hist
}
