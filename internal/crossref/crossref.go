// Package crossref matches and deduplicates findings that different evidence
// sources raised against the same criterion or the same page element, merging
// each group into a single finding with combined severity and confidence.
package crossref

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/a11ycheck/internal/schema"
)

// Volatile selector fragments stripped during locator normalization, so the
// same logical element reported with slightly different selector strings by
// two evidence sources still merges:
//   - [data-*] attribute selectors (framework-generated bookkeeping)
//   - #id fragments containing digits (generated ids like #radix-42, #ember103)
var (
	dataAttrRe    = regexp.MustCompile(`\[data-[^\]]*\]`)
	generatedIDRe = regexp.MustCompile(`#[a-z_-]*\d[\w-]*`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// NormalizeLocator canonicalizes an element locator for grouping. It is
// idempotent: normalizing an already-normalized locator is a no-op.
func NormalizeLocator(loc string) string {
	s := strings.ToLower(strings.TrimSpace(loc))
	s = dataAttrRe.ReplaceAllString(s, "")
	s = generatedIDRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	// Tighten combinators so "div > img" and "div>img" group together.
	s = strings.ReplaceAll(s, " > ", ">")
	s = strings.ReplaceAll(s, " + ", "+")
	s = strings.ReplaceAll(s, " ~ ", "~")
	return strings.TrimSpace(s)
}

// sourceWeight returns the reliability weight of a finding in the combined
// confidence average. Rule-based scanner evidence is ground truth (weight 1.0);
// AI judgments weigh in proportion to their own reported confidence.
func sourceWeight(f schema.NormalizedFinding) float64 {
	if f.Source == schema.SourceScanner {
		return 1.0
	}
	return f.Confidence
}

// Merge groups violation findings by (criterion, normalized locator) and
// combines each group into one MergedFinding. Findings without a locator fall
// back to grouping by criterion alone, so page-level judgments collapse into
// a single record instead of exploding the report. Conformance findings carry
// no violation content and are not merged; they only mark criteria as
// evaluated.
//
// Output order is (criterion id, locator) ascending. For identical input the
// output is identical, and merging an already-merged set again yields the
// same grouping.
func Merge(findings []schema.NormalizedFinding) []schema.MergedFinding {
	groups := make(map[[2]string]*group)
	var order [][2]string
	for _, f := range findings {
		if f.Outcome != schema.OutcomeViolation {
			continue
		}
		key := [2]string{f.CriterionID, NormalizeLocator(f.Locator)}
		g, ok := groups[key]
		if !ok {
			g = &group{criterionID: key[0], locator: key[1]}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, f)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i][0] != order[j][0] {
			return order[i][0] < order[j][0]
		}
		return order[i][1] < order[j][1]
	})

	out := make([]schema.MergedFinding, 0, len(order))
	for _, key := range order {
		out = append(out, combine(groups[key]))
	}
	return out
}

// combine folds a group's members into one MergedFinding: severity is the
// maximum of the group (false negatives are worse than noisy positives in a
// compliance tool), confidence is the source-weighted average, sources are
// the sorted union, descriptions the order-preserving dedup union.
func combine(g *group) schema.MergedFinding {
	m := schema.MergedFinding{
		CriterionID: g.criterionID,
		Locator:     g.locator,
	}

	var weightSum, confSum float64
	sourceSet := make(map[schema.EvidenceSource]bool)
	descSeen := make(map[string]bool)
	for _, f := range g.members {
		m.Severity = schema.MaxSeverity(m.Severity, f.Severity)
		w := sourceWeight(f)
		weightSum += w
		confSum += w * f.Confidence
		sourceSet[f.Source] = true
		if f.Description != "" && !descSeen[f.Description] {
			descSeen[f.Description] = true
			m.Descriptions = append(m.Descriptions, f.Description)
		}
	}
	if weightSum > 0 {
		m.Confidence = confSum / weightSum
	}

	for s := range sourceSet {
		m.Sources = append(m.Sources, s)
	}
	sort.Slice(m.Sources, func(i, j int) bool { return m.Sources[i] < m.Sources[j] })

	return m
}

// group collects the findings sharing one (criterion, locator) key.
type group struct {
	criterionID string
	locator     string
	members     []schema.NormalizedFinding
}
