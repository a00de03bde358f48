// Package rank derives the priority-ordered remediation list from scored
// criterion results.
package rank

import (
	"sort"
	"strings"

	"github.com/dshills/a11ycheck/internal/schema"
)

// Options are the tunable ranking constants.
type Options struct {
	// ConfidenceDiscount controls how strongly uncertain findings are
	// demoted: the rank key is multiplied by 1 − (1 − confidence) × discount.
	// At 0 confidence is ignored; at 1 a zero-confidence finding ranks at
	// nothing.
	ConfidenceDiscount float64 `yaml:"confidence_discount"`
}

// DefaultOptions returns the default ranking constants.
func DefaultOptions() Options {
	return Options{ConfidenceDiscount: 0.5}
}

// severityScore maps a severity to its multiplier in the rank key.
func severityScore(s schema.Severity) float64 {
	return float64(schema.SeverityOrdinal(s))
}

// Rank builds the remediation list from FAIL and PARTIAL_PASS results.
//
// The rank key is criterion priority weight × max severity among the
// criterion's findings × (1 − (1 − confidence) × discount), descending.
// Confidence is the highest combined confidence among the findings. Ties
// break by criterion identifier ascending, so the order is a total order and
// re-ranking identical input never changes it.
func Rank(results []schema.CriterionResult, opts Options) []schema.RecommendationItem {
	type candidate struct {
		result schema.CriterionResult
		key    float64
	}

	var candidates []candidate
	for _, r := range results {
		if r.Status != schema.StatusFail && r.Status != schema.StatusPartialPass {
			continue
		}
		maxSev := schema.Severity("")
		maxConf := 0.0
		for _, f := range r.Findings {
			maxSev = schema.MaxSeverity(maxSev, f.Severity)
			if f.Confidence > maxConf {
				maxConf = f.Confidence
			}
		}
		key := r.Criterion.Weight * severityScore(maxSev) * (1 - (1-maxConf)*opts.ConfidenceDiscount)
		candidates = append(candidates, candidate{result: r, key: key})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].key != candidates[j].key {
			return candidates[i].key > candidates[j].key
		}
		return candidates[i].result.Criterion.ID < candidates[j].result.Criterion.ID
	})

	items := make([]schema.RecommendationItem, 0, len(candidates))
	for i, c := range candidates {
		items = append(items, schema.RecommendationItem{
			Rank:        i + 1,
			CriterionID: c.result.Criterion.ID,
			Title:       c.result.Criterion.Title,
			Rationale:   rationale(c.result),
			Findings:    c.result.Findings,
		})
	}
	return items
}

// rationale joins the distinct finding descriptions for a criterion; when no
// description is available it falls back to the criterion's guidance text.
func rationale(r schema.CriterionResult) string {
	var parts []string
	seen := make(map[string]bool)
	for _, f := range r.Findings {
		for _, d := range f.Descriptions {
			if d != "" && !seen[d] {
				seen[d] = true
				parts = append(parts, d)
			}
		}
	}
	if len(parts) == 0 {
		return r.Criterion.Guidance
	}
	return strings.Join(parts, "; ")
}
