// Package translate contains the translator engine: per-object translation
// under one of three explicit capability modes. Analyze produces no SQL
// ever, stub produces loud-failure DDL, and subset-translate emits real DDL
// only for objects the analyzers whitelisted, falling back to stub
// behaviour for the rest.
package translate

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"saiql/internal/analyze"
	"saiql/internal/ir"
)

// unverifiedSyntaxMessage is attached to every non-stub translation.
const unverifiedSyntaxMessage = "Translated SQL syntax unverified (no compile-check); manual verification required."

// Translator orchestrates per-object translation for one (source, target,
// mode) triple. It owns its results slice exclusively; the report generator
// reads it after translation completes.
type Translator struct {
	mode    ir.TranslateMode
	source  ir.Dialect
	target  ir.Dialect
	results []ir.TranslationResult
	log     *zap.Logger
}

// New builds a translator. An unknown mode is a programming error and the
// only condition under which construction fails.
func New(mode ir.TranslateMode, source, target ir.Dialect, log *zap.Logger) (*Translator, error) {
	switch mode {
	case ir.ModeAnalyze, ir.ModeStub, ir.ModeSubsetTranslate:
	default:
		return nil, fmt.Errorf("unknown translate mode %q", mode)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Translator{mode: mode, source: source, target: target, log: log}, nil
}

// Mode returns the translator's capability mode.
func (t *Translator) Mode() ir.TranslateMode { return t.mode }

// Results returns the accumulated result list, read-only by convention.
func (t *Translator) Results() []ir.TranslationResult { return t.results }

// View translates, stubs, or analyzes one view according to the mode.
func (t *Translator) View(v *ir.View) ir.TranslationResult {
	name := ir.FoldName(v.Name)
	a := analyze.AnalyzeView(t.source, name, v.Definition)

	res := ir.TranslationResult{
		ObjectType: ir.ObjectView,
		ObjectName: name,
		Mode:       t.mode,
		Risk:       a.Risk,
		Metadata:   map[string]string{"pattern": string(a.Pattern)},
	}

	switch t.mode {
	case ir.ModeAnalyze:
		t.analyzeOutcome(&res, a.Supported(), a.Reasons, "rewrite view for target dialect")
	case ir.ModeStub:
		t.stubOutcome(&res, stubView(t.target, name, a.Reasons), "rewrite view for target dialect")
	case ir.ModeSubsetTranslate:
		if !a.Supported() {
			t.stubOutcome(&res, stubView(t.target, name, a.Reasons), "rewrite view for target dialect")
			break
		}
		sql, err := translateViewSQL(t.source, t.target, v)
		if err != nil {
			reason := ir.ReasonTranslationRefused
			var verr *viewTranslationError
			if errors.As(err, &verr) {
				reason = verr.reason
			}
			res.Risk = ir.RiskHigh
			t.stubOutcome(&res, stubView(t.target, name, []ir.ReasonCode{reason}), "rewrite view for target dialect")
			break
		}
		t.translatedOutcome(&res, sql)
	}

	t.finish(&res)
	return res
}

// Routine analyzes or stubs one routine. Routines are never translated:
// even under subset-translate an admitted routine is re-emitted only when
// source and target dialects match, otherwise it stubs.
func (t *Translator) Routine(r *ir.Routine) ir.TranslationResult {
	name := ir.FoldName(r.Name)
	analyze.ClassifyRoutine(t.source, r)

	objType := ir.ObjectFunction
	if r.Kind == ir.RoutineProcedure {
		objType = ir.ObjectProcedure
	}

	res := ir.TranslationResult{
		ObjectType: objType,
		ObjectName: name,
		Mode:       t.mode,
		Risk:       ir.RiskMedium,
		Metadata:   map[string]string{"kind": string(r.Kind), "language": r.Language},
	}
	if !r.Classification.Allowed {
		res.Risk = ir.RiskHigh
	}

	switch t.mode {
	case ir.ModeAnalyze:
		t.analyzeOutcome(&res, r.Classification.Allowed, r.Classification.ReasonCodes,
			fmt.Sprintf("port %s for target dialect", r.Kind))
	case ir.ModeStub:
		t.stubOutcome(&res, stubRoutine(t.target, name, r.Kind, r.Classification.ReasonCodes),
			fmt.Sprintf("port %s for target dialect", r.Kind))
	case ir.ModeSubsetTranslate:
		if r.Classification.Allowed && t.source == t.target {
			t.translatedOutcome(&res, r.Definition)
			break
		}
		reasons := r.Classification.ReasonCodes
		if len(reasons) == 0 {
			reasons = []ir.ReasonCode{ir.ReasonTranslationRefused}
		}
		t.stubOutcome(&res, stubRoutine(t.target, name, r.Kind, reasons),
			fmt.Sprintf("port %s for target dialect", r.Kind))
	}

	t.finish(&res)
	return res
}

// Trigger translates, stubs, or analyzes one trigger.
func (t *Translator) Trigger(trg *ir.Trigger) ir.TranslationResult {
	name := ir.FoldName(trg.Name)
	a := analyze.AnalyzeTrigger(trg)
	trg.Classification = ir.Classification{Allowed: a.Allowed, ReasonCodes: a.Reasons}

	res := ir.TranslationResult{
		ObjectType: ir.ObjectTrigger,
		ObjectName: name,
		Mode:       t.mode,
		Risk:       a.Risk,
		Metadata:   map[string]string{"table": trg.Table, "timing": string(trg.Timing)},
	}

	switch t.mode {
	case ir.ModeAnalyze:
		t.analyzeOutcome(&res, a.Allowed, a.Reasons, "rewrite trigger for target dialect")
	case ir.ModeStub:
		t.stubOutcome(&res, stubTrigger(t.target, name, trg.Table, a.Reasons), "rewrite trigger for target dialect")
	case ir.ModeSubsetTranslate:
		if !a.Allowed || !canTranslateTrigger(t.source, t.target) {
			reasons := a.Reasons
			if len(reasons) == 0 {
				reasons = []ir.ReasonCode{ir.ReasonTranslationRefused}
			}
			t.stubOutcome(&res, stubTrigger(t.target, name, trg.Table, reasons), "rewrite trigger for target dialect")
			break
		}
		t.translatedOutcome(&res, translateTriggerSQL(trg))
	}

	t.finish(&res)
	return res
}

// Package analyzes one package. Packages are never translated and never
// stubbed into executable objects: the output is the analysis itself, with
// the manual checklist carrying the real work.
func (t *Translator) Package(name, body string) ir.TranslationResult {
	a := analyze.AnalyzePackage(name, body)

	res := ir.TranslationResult{
		ObjectType:  ir.ObjectPackage,
		ObjectName:  a.Name,
		Mode:        t.mode,
		Risk:        ir.RiskCritical,
		Warnings:    a.Warnings,
		ManualSteps: a.ManualSteps,
		Metadata: map[string]string{
			"complexity": strconv.Itoa(a.Complexity),
			"members":    strconv.Itoa(len(a.Members)),
		},
	}
	res.Warnings = append(res.Warnings, ir.Warning{
		Severity: ir.RiskCritical,
		Object:   a.Name,
		Message:  "package requires manual migration; no translation attempted",
		Reason:   ir.ReasonPackage,
	})

	if t.mode == ir.ModeStub || t.mode == ir.ModeSubsetTranslate {
		out := stubRoutine(t.target, a.Name, ir.RoutinePackage, []ir.ReasonCode{ir.ReasonPackage})
		res.SQL = &out.sql
	}

	t.finish(&res)
	return res
}

// analyzeOutcome fills a result under ModeAnalyze: never any SQL.
func (t *Translator) analyzeOutcome(res *ir.TranslationResult, allowed bool, reasons []ir.ReasonCode, action string) {
	if allowed {
		return
	}
	for _, reason := range reasons {
		res.Warnings = append(res.Warnings, ir.Warning{
			Severity: res.Risk,
			Object:   res.ObjectName,
			Message:  fmt.Sprintf("%s not in supported subset: %s", res.ObjectType, reason),
			Reason:   reason,
		})
	}
	res.ManualSteps = append(res.ManualSteps, ir.ManualStep{
		Object: res.ObjectName,
		Action: action,
		Reason: string(firstReason(reasons)),
	})
}

// stubOutcome fills a result with stub output: risk is always critical and
// a critical warning is always attached. Where the target cannot guarantee
// loud failure, a second warning says so.
func (t *Translator) stubOutcome(res *ir.TranslationResult, out stubOutput, action string) {
	res.SQL = &out.sql
	res.Risk = ir.RiskCritical
	res.Warnings = append(res.Warnings, ir.Warning{
		Severity: ir.RiskCritical,
		Object:   res.ObjectName,
		Message:  fmt.Sprintf("%s emitted as loud-failure stub; %s", res.ObjectType, manualRewriteBanner),
		Reason:   ir.ReasonStubEmitted,
	})
	if !out.guaranteed {
		res.Warnings = append(res.Warnings, ir.Warning{
			Severity: ir.RiskHigh,
			Object:   res.ObjectName,
			Message:  "stub may return NULL instead of failing under certain session modes",
			Reason:   ir.ReasonStubMayNotFail,
		})
	}
	res.ManualSteps = append(res.ManualSteps, ir.ManualStep{
		Object: res.ObjectName,
		Action: action,
		Reason: string(ir.ReasonStubEmitted),
	})
}

// translatedOutcome fills a result with real output. The unverified-syntax
// warning is mandatory on every non-stub translation; this is its single
// emission site.
func (t *Translator) translatedOutcome(res *ir.TranslationResult, sql string) {
	res.SQL = &sql
	res.Warnings = append(res.Warnings, ir.Warning{
		Severity: ir.RiskLow,
		Object:   res.ObjectName,
		Message:  unverifiedSyntaxMessage,
		Reason:   ir.ReasonUnverifiedSyntax,
	})
}

// finish enforces the analyze boundary, canonicalises the per-result lists,
// and appends to the owned results slice.
func (t *Translator) finish(res *ir.TranslationResult) {
	if t.mode == ir.ModeAnalyze && res.SQL != nil {
		// The analyze boundary is inviolable; reaching this line is a bug
		// in the translator itself, not in the input.
		panic("translate: sql_output produced under mode=analyze")
	}
	ir.SortWarnings(res.Warnings)
	res.ManualSteps = ir.CanonicalManualSteps(res.ManualSteps)
	t.log.Debug("object translated",
		zap.String("object", res.ObjectName),
		zap.String("type", string(res.ObjectType)),
		zap.String("mode", string(res.Mode)),
		zap.String("risk", string(res.Risk)))
	t.results = append(t.results, *res)
}

func firstReason(reasons []ir.ReasonCode) ir.ReasonCode {
	if len(reasons) == 0 {
		return ir.ReasonTranslationRefused
	}
	return reasons[0]
}
