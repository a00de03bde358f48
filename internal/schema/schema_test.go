package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/a11ycheck/internal/schema"
)

func TestSeverityOrdinal_Ascending(t *testing.T) {
	order := []schema.Severity{
		schema.SeverityMinor,
		schema.SeverityModerate,
		schema.SeveritySerious,
		schema.SeverityCritical,
	}
	for i := 1; i < len(order); i++ {
		if schema.SeverityOrdinal(order[i-1]) >= schema.SeverityOrdinal(order[i]) {
			t.Errorf("SeverityOrdinal(%q) >= SeverityOrdinal(%q): not strictly ascending",
				order[i-1], order[i])
		}
	}
}

func TestSeverityOrdinal_Unknown(t *testing.T) {
	if got := schema.SeverityOrdinal(schema.Severity("catastrophic")); got != 0 {
		t.Errorf("SeverityOrdinal(unknown) = %d, want 0", got)
	}
}

func TestMaxSeverity(t *testing.T) {
	cases := []struct {
		a, b, want schema.Severity
	}{
		{schema.SeverityMinor, schema.SeverityCritical, schema.SeverityCritical},
		{schema.SeverityCritical, schema.SeverityMinor, schema.SeverityCritical},
		{schema.SeverityModerate, schema.SeverityModerate, schema.SeverityModerate},
		{schema.SeveritySerious, schema.Severity(""), schema.SeveritySerious},
	}
	for _, c := range cases {
		if got := schema.MaxSeverity(c.a, c.b); got != c.want {
			t.Errorf("MaxSeverity(%q, %q) = %q, want %q", c.a, c.b, got, c.want)
		}
	}
}

func TestComplianceReport_JSONRoundTrip(t *testing.T) {
	score := 72.5
	original := &schema.ComplianceReport{
		Tool:         "a11ycheck",
		Version:      "0.1.0",
		URL:          "https://example.com",
		GeneratedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		OverallScore: &score,
		Results: []schema.CriterionResult{
			{
				Criterion: schema.Criterion{
					ID:     "1.1.1",
					Title:  "Non-text Content",
					Level:  schema.LevelA,
					Weight: 3.0,
				},
				Status: schema.StatusFail,
				Findings: []schema.MergedFinding{
					{
						CriterionID:  "1.1.1",
						Locator:      "img.hero",
						Severity:     schema.SeverityCritical,
						Confidence:   1.0,
						Sources:      []schema.EvidenceSource{schema.SourceScanner},
						Descriptions: []string{"image missing alt text"},
					},
				},
			},
			{
				Criterion: schema.Criterion{ID: "2.4.2", Title: "Page Titled", Level: schema.LevelA, Weight: 3.0},
				Status:    schema.StatusNotEvaluated,
			},
		},
		Recommendations: []schema.RecommendationItem{
			{
				Rank:        1,
				CriterionID: "1.1.1",
				Title:       "Non-text Content",
				Rationale:   "image missing alt text",
			},
		},
		Coverage: schema.SourceCoverage{
			ScannerFindings: 1,
			CriteriaTouched: 1,
			CriteriaTotal:   2,
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded schema.ComplianceReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(original, &decoded) {
		t.Errorf("round trip mismatch:\noriginal: %+v\ndecoded:  %+v", original, &decoded)
	}
}

func TestComplianceReport_AbsentScoreSurvivesRoundTrip(t *testing.T) {
	original := &schema.ComplianceReport{Tool: "a11ycheck", OverallScore: nil}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded schema.ComplianceReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.OverallScore != nil {
		t.Errorf("absent overall score decoded as %v, want nil", *decoded.OverallScore)
	}
}
