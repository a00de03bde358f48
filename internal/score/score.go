// Package score provides deterministic local logic for per-criterion status
// determination and the overall weighted compliance score. No LLM calls are
// made here.
package score

import (
	"sort"

	"github.com/dshills/a11ycheck/internal/registry"
	"github.com/dshills/a11ycheck/internal/schema"
)

// Thresholds are the tunable scoring constants. The original tool hard-coded
// these; they are exposed so deployments can tighten or relax them.
type Thresholds struct {
	// FailSeverityFloor is the lowest severity that can fail a criterion.
	// Findings below it only ever produce PARTIAL_PASS.
	FailSeverityFloor schema.Severity `yaml:"fail_severity_floor"`
	// ConfidenceCutoff is the minimum combined confidence for a finding to
	// fail a criterion outright. Lower-confidence findings produce
	// PARTIAL_PASS.
	ConfidenceCutoff float64 `yaml:"confidence_cutoff"`
	// Status contributions to the weighted overall score.
	PassContribution    float64 `yaml:"pass_contribution"`
	PartialContribution float64 `yaml:"partial_contribution"`
	FailContribution    float64 `yaml:"fail_contribution"`
}

// DefaultThresholds returns the default scoring constants: a finding must be
// above minor severity and at least 0.5 confidence to fail a criterion, and
// Pass/PartialPass/Fail contribute 100/50/0 to the weighted mean.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FailSeverityFloor:   schema.SeverityModerate,
		ConfidenceCutoff:    0.5,
		PassContribution:    100,
		PartialContribution: 50,
		FailContribution:    0,
	}
}

// Score derives one CriterionResult per registry criterion and the overall
// weighted compliance score.
//
// Status rules:
//  1. Any merged finding at or above the severity floor with confidence at or
//     above the cutoff → FAIL.
//  2. Findings exist but are all low-severity or low-confidence → PARTIAL_PASS.
//  3. Criterion was evaluated (conformance evidence or a clean automated run)
//     with no violation findings → PASS.
//  4. No evidence touched the criterion → NOT_EVALUATED.
//
// The overall score is the priority-weighted mean over evaluated criteria
// only; NOT_EVALUATED criteria appear in the results but never in the score,
// so the score is not deflated by criteria nobody checked. When zero criteria
// were evaluated the score is nil: insufficient evidence is not 0 or 100.
//
// Results are ordered by criterion identifier ascending.
func Score(
	merged []schema.MergedFinding,
	evaluated map[string]bool,
	reg *registry.Registry,
	th Thresholds,
) ([]schema.CriterionResult, *float64) {
	byCriterion := make(map[string][]schema.MergedFinding)
	for _, m := range merged {
		byCriterion[m.CriterionID] = append(byCriterion[m.CriterionID], m)
	}
	for id, findings := range byCriterion {
		sort.Slice(findings, func(i, j int) bool { return findings[i].Locator < findings[j].Locator })
		byCriterion[id] = findings
	}

	var results []schema.CriterionResult
	var weightSum, contribSum float64

	for _, id := range reg.IDs() {
		crit, _ := reg.Lookup(id)
		findings := byCriterion[id]

		status := schema.StatusNotEvaluated
		switch {
		case len(findings) > 0:
			status = schema.StatusPartialPass
			for _, f := range findings {
				if failing(f, th) {
					status = schema.StatusFail
					break
				}
			}
		case evaluated[id]:
			status = schema.StatusPass
		}

		if status != schema.StatusNotEvaluated {
			weightSum += crit.Weight
			contribSum += crit.Weight * contribution(status, th)
		}

		results = append(results, schema.CriterionResult{
			Criterion: crit,
			Status:    status,
			Findings:  findings,
		})
	}

	if weightSum == 0 {
		return results, nil
	}
	overall := contribSum / weightSum
	return results, &overall
}

// failing reports whether a single merged finding is strong enough to fail
// its criterion.
func failing(f schema.MergedFinding, th Thresholds) bool {
	return schema.SeverityOrdinal(f.Severity) >= schema.SeverityOrdinal(th.FailSeverityFloor) &&
		f.Confidence >= th.ConfidenceCutoff
}

// contribution maps a status to its score contribution.
func contribution(s schema.Status, th Thresholds) float64 {
	switch s {
	case schema.StatusPass:
		return th.PassContribution
	case schema.StatusPartialPass:
		return th.PartialContribution
	default:
		return th.FailContribution
	}
}

// Summarize counts results by status for the report's coverage summary.
func Summarize(results []schema.CriterionResult) (pass, fail, partial, notEvaluated int) {
	for _, r := range results {
		switch r.Status {
		case schema.StatusPass:
			pass++
		case schema.StatusFail:
			fail++
		case schema.StatusPartialPass:
			partial++
		case schema.StatusNotEvaluated:
			notEvaluated++
		}
	}
	return
}
