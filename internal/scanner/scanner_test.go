package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/a11ycheck/internal/schema"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "axe_results.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestParseFixture(t *testing.T) {
	findings, err := Parse(loadFixture(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var violations, conformances []schema.RawFinding
	for _, f := range findings {
		if f.Source != schema.SourceScanner {
			t.Errorf("source = %q, want scanner", f.Source)
		}
		switch f.Outcome {
		case schema.OutcomeViolation:
			violations = append(violations, f)
		case schema.OutcomeConformance:
			conformances = append(conformances, f)
		}
	}

	// image-alt has two nodes, color-contrast one, link-in-text-block
	// (incomplete) one. The best-practice "region" rule names no criterion
	// and is skipped.
	if len(violations) != 4 {
		t.Fatalf("violations = %d, want 4: %+v", len(violations), violations)
	}
	if len(conformances) != 2 {
		t.Fatalf("conformances = %d, want 2: %+v", len(conformances), conformances)
	}

	byCriterion := make(map[string][]schema.RawFinding)
	for _, f := range violations {
		byCriterion[f.CriterionID] = append(byCriterion[f.CriterionID], f)
	}
	if len(byCriterion["1.1.1"]) != 2 {
		t.Errorf("1.1.1 violations = %d, want 2", len(byCriterion["1.1.1"]))
	}
	if got := byCriterion["1.1.1"][0]; got.Severity != schema.SeverityCritical || got.Locator != "#hero > img" {
		t.Errorf("first 1.1.1 finding = %+v", got)
	}
	if len(byCriterion["1.4.3"]) != 1 || byCriterion["1.4.3"][0].Severity != schema.SeveritySerious {
		t.Errorf("1.4.3 findings = %+v", byCriterion["1.4.3"])
	}
}

func TestParseIncompleteConfidence(t *testing.T) {
	findings, err := Parse(loadFixture(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, f := range findings {
		if f.Outcome != schema.OutcomeViolation {
			continue
		}
		switch f.CriterionID {
		case "1.4.1":
			if f.Confidence != 0.4 {
				t.Errorf("incomplete finding confidence = %v, want 0.4", f.Confidence)
			}
		default:
			if f.Confidence != 0 {
				t.Errorf("%s confidence = %v, want 0 (defaulted downstream)", f.CriterionID, f.Confidence)
			}
		}
	}
}

func TestParsePassesMarkCriteria(t *testing.T) {
	findings, err := Parse(loadFixture(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := make(map[string]bool)
	for _, f := range findings {
		if f.Outcome == schema.OutcomeConformance {
			got[f.CriterionID] = true
		}
	}
	for _, want := range []string{"3.1.1", "4.1.1"} {
		if !got[want] {
			t.Errorf("no conformance finding for %s", want)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Error("Parse accepted malformed document")
	}
}

func TestParseEmpty(t *testing.T) {
	findings, err := Parse([]byte(`{"violations":[],"passes":[]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %+v, want none", findings)
	}
}

func TestURL(t *testing.T) {
	if got := URL(loadFixture(t)); got != "https://example.com/products" {
		t.Errorf("URL = %q", got)
	}
	if got := URL([]byte("junk")); got != "" {
		t.Errorf("URL on junk = %q, want empty", got)
	}
}

func TestCriterionFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		want string
		ok   bool
	}{
		{"wcag111", "1.1.1", true},
		{"wcag143", "1.4.3", true},
		{"wcag1412", "1.4.12", true},
		{"wcag2a", "", false},
		{"wcag21aa", "", false},
		{"best-practice", "", false},
		{"cat.color", "", false},
		{"wcag", "", false},
		{"wcag11", "", false},
	}
	for _, tt := range tests {
		got, ok := criterionFromTag(tt.tag)
		if got != tt.want || ok != tt.ok {
			t.Errorf("criterionFromTag(%q) = (%q, %v), want (%q, %v)", tt.tag, got, ok, tt.want, tt.ok)
		}
	}
}
