package crossref

import (
	"math"
	"reflect"
	"testing"

	"github.com/dshills/a11ycheck/internal/schema"
)

func TestNormalizeLocator(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"DIV > IMG.hero", "div>img.hero"},
		{"div>img.hero", "div>img.hero"},
		{"  nav   ul > li  ", "nav ul>li"},
		{`button[data-testid="submit"]`, "button"},
		{"#radix-42 > span", ">span"},
		{"#main > span", "#main>span"}, // digit-free ids are stable, keep them
		{"form + div", "form+div"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeLocator(c.in); got != c.want {
			t.Errorf("NormalizeLocator(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeLocator_Idempotent(t *testing.T) {
	inputs := []string{"DIV > IMG.hero", `a[data-x="1"][href]`, "#ember22 li", "nav  ul"}
	for _, in := range inputs {
		once := NormalizeLocator(in)
		twice := NormalizeLocator(once)
		if once != twice {
			t.Errorf("NormalizeLocator not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

// Scanner and AI evidence against the same (criterion, locator) pair collapse
// into exactly one finding with the source-weighted confidence average.
func TestMerge_ScannerAndJudgmentSameElement(t *testing.T) {
	aiConf := 0.8
	findings := []schema.NormalizedFinding{
		{
			Source: schema.SourceScanner, CriterionID: "2.4.4", Outcome: schema.OutcomeViolation,
			Description: "link text is ambiguous", Locator: "a.more", Severity: schema.SeveritySerious, Confidence: 1.0,
		},
		{
			Source: schema.SourceAIJudgment, CriterionID: "2.4.4", Outcome: schema.OutcomeViolation,
			Description: `link reads "click here" with no context`, Locator: "A.more", Severity: schema.SeverityModerate, Confidence: aiConf,
		},
	}
	merged := Merge(findings)
	if len(merged) != 1 {
		t.Fatalf("merged %d findings, want 1", len(merged))
	}
	m := merged[0]
	if m.CriterionID != "2.4.4" || m.Locator != "a.more" {
		t.Errorf("merged key = (%q, %q), want (2.4.4, a.more)", m.CriterionID, m.Locator)
	}
	if m.Severity != schema.SeveritySerious {
		t.Errorf("merged severity = %q, want serious (max of group)", m.Severity)
	}
	// Weighted average: scanner weight 1.0 value 1.0, AI weight 0.8 value 0.8.
	want := (1.0*1.0 + aiConf*aiConf) / (1.0 + aiConf)
	if math.Abs(m.Confidence-want) > 1e-9 {
		t.Errorf("merged confidence = %v, want %v", m.Confidence, want)
	}
	wantSources := []schema.EvidenceSource{schema.SourceAIJudgment, schema.SourceScanner}
	if !reflect.DeepEqual(m.Sources, wantSources) {
		t.Errorf("merged sources = %v, want %v", m.Sources, wantSources)
	}
	if len(m.Descriptions) != 2 {
		t.Errorf("merged descriptions = %v, want both retained", m.Descriptions)
	}
}

// Findings without locators collapse per criterion, so page-level AI
// judgments do not explode the report.
func TestMerge_LocatorlessGroupByCriterion(t *testing.T) {
	findings := []schema.NormalizedFinding{
		{Source: schema.SourceAIJudgment, CriterionID: "1.3.2", Outcome: schema.OutcomeViolation, Description: "a", Severity: schema.SeverityMinor, Confidence: 0.6},
		{Source: schema.SourceAIJudgment, CriterionID: "1.3.2", Outcome: schema.OutcomeViolation, Description: "b", Severity: schema.SeverityMinor, Confidence: 0.4},
		{Source: schema.SourceAIJudgment, CriterionID: "2.4.2", Outcome: schema.OutcomeViolation, Description: "c", Severity: schema.SeverityMinor, Confidence: 0.5},
	}
	merged := Merge(findings)
	if len(merged) != 2 {
		t.Fatalf("merged %d findings, want 2 (one per criterion)", len(merged))
	}
	if merged[0].CriterionID != "1.3.2" || merged[1].CriterionID != "2.4.2" {
		t.Errorf("merged order = %s, %s; want criterion id ascending", merged[0].CriterionID, merged[1].CriterionID)
	}
}

// No two merged findings share a (criterion, locator) pair.
func TestMerge_KeyUniqueness(t *testing.T) {
	findings := []schema.NormalizedFinding{
		{Source: schema.SourceScanner, CriterionID: "1.1.1", Outcome: schema.OutcomeViolation, Locator: "img.a", Severity: schema.SeverityCritical, Confidence: 1},
		{Source: schema.SourceScanner, CriterionID: "1.1.1", Outcome: schema.OutcomeViolation, Locator: "img.b", Severity: schema.SeverityCritical, Confidence: 1},
		{Source: schema.SourceAIJudgment, CriterionID: "1.1.1", Outcome: schema.OutcomeViolation, Locator: "IMG.a", Severity: schema.SeverityMinor, Confidence: 0.5},
	}
	merged := Merge(findings)
	seen := make(map[[2]string]bool)
	for _, m := range merged {
		key := [2]string{m.CriterionID, m.Locator}
		if seen[key] {
			t.Errorf("duplicate merged key %v", key)
		}
		seen[key] = true
	}
	if len(merged) != 2 {
		t.Errorf("merged %d findings, want 2", len(merged))
	}
}

func TestMerge_ConformanceFindingsExcluded(t *testing.T) {
	findings := []schema.NormalizedFinding{
		{Source: schema.SourceScanner, CriterionID: "3.1.1", Outcome: schema.OutcomeConformance, Confidence: 1},
	}
	if merged := Merge(findings); len(merged) != 0 {
		t.Errorf("merged = %+v, want none (conformance evidence is not a violation)", merged)
	}
}

// Merging an already-merged set, fed back as normalized findings of
// equivalent shape, yields the same grouping and values.
func TestMerge_Idempotent(t *testing.T) {
	findings := []schema.NormalizedFinding{
		{Source: schema.SourceScanner, CriterionID: "1.1.1", Outcome: schema.OutcomeViolation, Locator: "img.hero", Description: "x", Severity: schema.SeverityCritical, Confidence: 1},
		{Source: schema.SourceAIJudgment, CriterionID: "1.1.1", Outcome: schema.OutcomeViolation, Locator: "IMG.hero", Description: "y", Severity: schema.SeverityMinor, Confidence: 0.7},
		{Source: schema.SourceAIJudgment, CriterionID: "1.4.1", Outcome: schema.OutcomeViolation, Description: "z", Severity: schema.SeverityModerate, Confidence: 0.5},
	}
	first := Merge(findings)

	// Re-feed each merged record as a single normalized finding. A
	// single-member group's weighted average is its own confidence, so the
	// second pass must reproduce the first exactly.
	refeed := make([]schema.NormalizedFinding, 0, len(first))
	for _, m := range first {
		refeed = append(refeed, schema.NormalizedFinding{
			Source:      m.Sources[0],
			CriterionID: m.CriterionID,
			Outcome:     schema.OutcomeViolation,
			Locator:     m.Locator,
			Severity:    m.Severity,
			Confidence:  m.Confidence,
		})
	}
	second := Merge(refeed)
	if len(second) != len(first) {
		t.Fatalf("re-merge produced %d findings, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i].CriterionID != first[i].CriterionID || second[i].Locator != first[i].Locator {
			t.Errorf("re-merge group %d = (%q, %q), want (%q, %q)",
				i, second[i].CriterionID, second[i].Locator, first[i].CriterionID, first[i].Locator)
		}
		if second[i].Severity != first[i].Severity {
			t.Errorf("re-merge severity %d = %q, want %q", i, second[i].Severity, first[i].Severity)
		}
		if math.Abs(second[i].Confidence-first[i].Confidence) > 1e-9 {
			t.Errorf("re-merge confidence %d = %v, want %v", i, second[i].Confidence, first[i].Confidence)
		}
	}
}

func TestMerge_DeterministicForIdenticalInput(t *testing.T) {
	findings := []schema.NormalizedFinding{
		{Source: schema.SourceScanner, CriterionID: "2.4.4", Outcome: schema.OutcomeViolation, Locator: "a.x", Severity: schema.SeveritySerious, Confidence: 1},
		{Source: schema.SourceAIJudgment, CriterionID: "1.1.1", Outcome: schema.OutcomeViolation, Severity: schema.SeverityModerate, Confidence: 0.5},
		{Source: schema.SourceScanner, CriterionID: "1.4.3", Outcome: schema.OutcomeViolation, Locator: "p.low", Severity: schema.SeverityMinor, Confidence: 1},
	}
	first := Merge(findings)
	for i := 0; i < 50; i++ {
		if got := Merge(findings); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed from first merge:\n%+v\nvs\n%+v", i, got, first)
		}
	}
}
