// Package scanner adapts an axe-core results document into evidence records.
// It is a pure decoder: no browser, no network. The caller supplies the JSON
// produced by an axe-core run and gets back raw findings for the engine.
package scanner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/a11ycheck/internal/schema"
)

// axeResults mirrors the subset of the axe-core results document we consume.
// Unknown fields are ignored.
type axeResults struct {
	URL        string    `json:"url"`
	Violations []axeRule `json:"violations"`
	Passes     []axeRule `json:"passes"`
	Incomplete []axeRule `json:"incomplete"`
}

type axeRule struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	Tags        []string  `json:"tags"`
	Nodes       []axeNode `json:"nodes"`
}

type axeNode struct {
	Impact string   `json:"impact"`
	Target []string `json:"target"`
}

// Parse decodes an axe-core results document into raw findings.
//
// Each violation rule contributes one finding per affected node, tied to the
// success criteria named in the rule's wcag tags. Passed rules contribute
// conformance findings so clean criteria count as evaluated. Incomplete rules
// ("needs review" in axe terms) become violation findings at reduced
// confidence rather than being dropped. Rules whose tags name no success
// criterion (best-practice rules) are skipped.
func Parse(data []byte) ([]schema.RawFinding, error) {
	var doc axeResults
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scanner: parse axe results: %w", err)
	}

	var findings []schema.RawFinding
	for _, rule := range doc.Violations {
		findings = append(findings, ruleFindings(rule, schema.OutcomeViolation, 0)...)
	}
	for _, rule := range doc.Incomplete {
		// Axe could not decide; keep the evidence but below the engine's
		// confidence cutoff so it can only ever produce a partial pass.
		findings = append(findings, ruleFindings(rule, schema.OutcomeViolation, 0.4)...)
	}
	for _, rule := range doc.Passes {
		for _, id := range criteriaForTags(rule.Tags) {
			findings = append(findings, schema.RawFinding{
				Source:      schema.SourceScanner,
				CriterionID: id,
				Outcome:     schema.OutcomeConformance,
				Description: rule.Help,
			})
		}
	}
	return findings, nil
}

// URL extracts the evaluated page URL from an axe results document.
func URL(data []byte) string {
	var doc struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return doc.URL
}

func ruleFindings(rule axeRule, outcome schema.Outcome, confidence float64) []schema.RawFinding {
	ids := criteriaForTags(rule.Tags)
	if len(ids) == 0 {
		return nil
	}
	desc := rule.Help
	if desc == "" {
		desc = rule.Description
	}
	var out []schema.RawFinding
	for _, id := range ids {
		if len(rule.Nodes) == 0 {
			out = append(out, schema.RawFinding{
				Source:      schema.SourceScanner,
				CriterionID: id,
				Outcome:     outcome,
				Description: desc,
				Severity:    impactSeverity(rule.Impact),
				Confidence:  confidence,
			})
			continue
		}
		for _, node := range rule.Nodes {
			impact := node.Impact
			if impact == "" {
				impact = rule.Impact
			}
			out = append(out, schema.RawFinding{
				Source:      schema.SourceScanner,
				CriterionID: id,
				Outcome:     outcome,
				Description: desc,
				Locator:     strings.Join(node.Target, " "),
				Severity:    impactSeverity(impact),
				Confidence:  confidence,
			})
		}
	}
	return out
}

// impactSeverity maps axe impact strings onto the severity scale. The scale
// is axe's own, so this is the identity for known values; unknown or absent
// impacts are left empty for the normalizer to default.
func impactSeverity(impact string) schema.Severity {
	switch impact {
	case "minor":
		return schema.SeverityMinor
	case "moderate":
		return schema.SeverityModerate
	case "serious":
		return schema.SeveritySerious
	case "critical":
		return schema.SeverityCritical
	default:
		return ""
	}
}

// criteriaForTags extracts success criterion identifiers from axe rule tags.
// Axe encodes criteria as "wcag" plus the dotless number: wcag111 is 1.1.1,
// wcag1412 is 1.4.12. Conformance-level tags (wcag2a, wcag21aa) and
// best-practice tags carry no digits-only suffix and are skipped.
func criteriaForTags(tags []string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		id, ok := criterionFromTag(tag)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func criterionFromTag(tag string) (string, bool) {
	digits, ok := strings.CutPrefix(tag, "wcag")
	if !ok || len(digits) < 3 {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	// Principle and guideline are single digits; the remainder is the
	// criterion number (one or two digits).
	return fmt.Sprintf("%c.%c.%s", digits[0], digits[1], digits[2:]), true
}
