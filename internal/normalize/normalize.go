// Package normalize converts raw collaborator evidence into registry-resolved
// findings. Records that cannot be resolved are dropped into a diagnostics
// list; evidence problems are never fatal, since partial evidence is the
// expected case.
package normalize

import (
	"fmt"

	"github.com/dshills/a11ycheck/internal/registry"
	"github.com/dshills/a11ycheck/internal/schema"
)

// Per-source confidence defaults. Rule-based scanner findings are
// deterministic and default to full confidence; AI judgments that arrive
// without a reported confidence default to 0.5.
const (
	DefaultScannerConfidence  = 1.0
	DefaultJudgmentConfidence = 0.5
)

// DefaultSeverity is applied to records that carry no severity hint.
const DefaultSeverity = schema.SeverityModerate

// Normalize resolves raw findings against the criteria registry. Records with
// unknown criterion identifiers, unrecognized sources, or out-of-range
// confidence values are excluded from the result and reported in the
// returned diagnostics. Output order follows input order.
func Normalize(raws []schema.RawFinding, reg *registry.Registry) ([]schema.NormalizedFinding, []schema.Diagnostic) {
	var out []schema.NormalizedFinding
	var diags []schema.Diagnostic

	drop := func(r schema.RawFinding, msg string) {
		diags = append(diags, schema.Diagnostic{
			Stage:       "normalize",
			CriterionID: r.CriterionID,
			Message:     msg,
		})
	}

	for _, r := range raws {
		if r.CriterionID == "" {
			drop(r, "record has no criterion identifier")
			continue
		}
		if _, ok := reg.Lookup(r.CriterionID); !ok {
			drop(r, fmt.Sprintf("criterion %q not in registry", r.CriterionID))
			continue
		}

		var defConf float64
		switch r.Source {
		case schema.SourceScanner:
			defConf = DefaultScannerConfidence
		case schema.SourceAIJudgment:
			defConf = DefaultJudgmentConfidence
		default:
			drop(r, fmt.Sprintf("unrecognized evidence source %q", r.Source))
			continue
		}

		conf := r.Confidence
		if conf == 0 {
			conf = defConf
		}
		if conf < 0 || conf > 1 {
			drop(r, fmt.Sprintf("confidence %v out of range [0, 1]", r.Confidence))
			continue
		}

		outcome := r.Outcome
		if outcome == "" {
			outcome = schema.OutcomeViolation
		}
		if outcome != schema.OutcomeViolation && outcome != schema.OutcomeConformance {
			drop(r, fmt.Sprintf("unrecognized outcome %q", r.Outcome))
			continue
		}

		sev := r.Severity
		if sev == "" {
			sev = DefaultSeverity
		}
		if schema.SeverityOrdinal(sev) == 0 {
			drop(r, fmt.Sprintf("unrecognized severity %q", r.Severity))
			continue
		}

		out = append(out, schema.NormalizedFinding{
			Source:      r.Source,
			CriterionID: r.CriterionID,
			Outcome:     outcome,
			Description: r.Description,
			Locator:     r.Locator,
			Severity:    sev,
			Confidence:  conf,
		})
	}

	return out, diags
}

// EvaluatedCriteria returns the set of criterion identifiers touched by any
// normalized finding, violation or conformance. This set drives the
// NOT_EVALUATED distinction during scoring.
func EvaluatedCriteria(findings []schema.NormalizedFinding) map[string]bool {
	evaluated := make(map[string]bool, len(findings))
	for _, f := range findings {
		evaluated[f.CriterionID] = true
	}
	return evaluated
}
