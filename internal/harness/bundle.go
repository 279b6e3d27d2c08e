package harness

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// Status is the overall verdict of one run.
type Status string

const (
	StatusPass       Status = "PASS"
	StatusFail       Status = "FAIL"
	StatusIncomplete Status = "INCOMPLETE"
)

const redactedPlaceholder = "[REDACTED]"

// Manifest is run_manifest.json: everything needed to reproduce and audit a
// run. Endpoint entries are the redacted subset only.
type Manifest struct {
	RunID           string                       `json:"run_id"`
	Mode            string                       `json:"mode"`
	SourceDialect   string                       `json:"source_dialect"`
	TargetDialect   string                       `json:"target_dialect"`
	Source          map[string]string            `json:"source_endpoint"`
	Target          map[string]string            `json:"target_endpoint"`
	Versions        map[string]string            `json:"engine_versions"`
	SessionSettings map[string]map[string]string `json:"session_settings"`
	SeedHash        string                       `json:"seed_hash"`
	OverallStatus   Status                       `json:"overall_status"`
	StartedAt       string                       `json:"started_at"`
	FinishedAt      string                       `json:"finished_at"`
}

// Bundle accumulates run artifacts in a run_<id>.partial directory and
// promotes it to run_<id> in a single rename on Finalize. A file lock on the
// output root keeps concurrent runs from interleaving bundles.
type Bundle struct {
	runID   string
	partial string
	final   string
	secrets []string
	lock    *flock.Flock
}

// NewBundle prepares the partial bundle directory layout and takes the
// output-root lock. Secrets are scrubbed from every byte written through the
// bundle.
func NewBundle(outputDir, runID string, secrets []string) (*Bundle, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(outputDir, ".saiql.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire bundle lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("output dir %s is locked by another run", outputDir)
	}

	b := &Bundle{
		runID:   runID,
		partial: filepath.Join(outputDir, "run_"+runID+".partial"),
		final:   filepath.Join(outputDir, "run_"+runID),
		secrets: secrets,
		lock:    lock,
	}
	for _, sub := range []string{"ddl", "reports", "logs"} {
		if err := os.MkdirAll(filepath.Join(b.partial, sub), 0o755); err != nil {
			_ = lock.Unlock()
			return nil, fmt.Errorf("create bundle dir: %w", err)
		}
	}
	return b, nil
}

// LogPath is where the run log lives inside the bundle; the logger writes to
// it directly so the log travels with the evidence.
func (b *Bundle) LogPath() string {
	return filepath.Join(b.partial, "logs", "harness_run.log")
}

// Path returns the final bundle directory. Valid after Finalize.
func (b *Bundle) Path() string { return b.final }

func (b *Bundle) scrub(data []byte) []byte {
	for _, s := range b.secrets {
		if s == "" {
			continue
		}
		data = bytes.ReplaceAll(data, []byte(s), []byte(redactedPlaceholder))
	}
	return data
}

func (b *Bundle) writeFile(rel string, data []byte) error {
	return os.WriteFile(filepath.Join(b.partial, rel), b.scrub(data), 0o644)
}

// WriteDDL stores one emitted statement as ddl/<OBJTYPE>_<name>.sql.
func (b *Bundle) WriteDDL(objType ir.ObjectType, name, sql string) error {
	file := fmt.Sprintf("%s_%s.sql", strings.ToUpper(string(objType)), ir.FoldName(name))
	if !strings.HasSuffix(sql, "\n") {
		sql += "\n"
	}
	return b.writeFile(filepath.Join("ddl", file), []byte(sql))
}

// WriteReport serialises v as reports/<name>.json with stable indentation.
func (b *Bundle) WriteReport(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report %s: %w", name, err)
	}
	return b.writeFile(filepath.Join("reports", name+".json"), append(data, '\n'))
}

// WriteManifest stores run_manifest.json at the bundle root.
func (b *Bundle) WriteManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return b.writeFile("run_manifest.json", append(data, '\n'))
}

// Finalize promotes the partial directory to its final name and releases the
// lock. The rename is the commit point: a bundle directory without the
// .partial suffix is always complete.
func (b *Bundle) Finalize() error {
	if err := os.Rename(b.partial, b.final); err != nil {
		_ = b.lock.Unlock()
		return fmt.Errorf("finalize bundle: %w", err)
	}
	return b.lock.Unlock()
}

// Abort releases the lock and leaves the .partial directory behind for
// inspection.
func (b *Bundle) Abort() error {
	return b.lock.Unlock()
}

// SeedHash computes a deterministic digest of the extracted source data so
// two runs over the same seed can be compared. Tables are visited in sorted
// order and row fields in sorted key order.
func SeedHash(tables map[string]*adapter.ExtractResult) string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "table:%s\n", name)
		res := tables[name]
		if res == nil {
			continue
		}
		for _, row := range res.Rows {
			keys := make([]string, 0, len(row))
			for k := range row {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(h, "%s=%v;", k, row[k])
			}
			fmt.Fprintln(h)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
