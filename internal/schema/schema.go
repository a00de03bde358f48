// Package schema defines all canonical data types for the a11ycheck report format.
package schema

import "time"

// ConformanceLevel is a WCAG conformance level.
type ConformanceLevel string

const (
	LevelA   ConformanceLevel = "A"
	LevelAA  ConformanceLevel = "AA"
	LevelAAA ConformanceLevel = "AAA"
)

// Severity represents the impact of a finding, using the axe-core impact
// vocabulary so scanner records pass through without translation.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySerious  Severity = "serious"
	SeverityCritical Severity = "critical"
)

// SeverityOrdinal returns the numeric ordinal for a severity, used to compare
// and combine severities. minor=1, moderate=2, serious=3, critical=4.
// Unknown severities return 0 and therefore never dominate a merge.
func SeverityOrdinal(s Severity) int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySerious:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if SeverityOrdinal(b) > SeverityOrdinal(a) {
		return b
	}
	return a
}

// EvidenceSource identifies which collaborator produced a finding.
type EvidenceSource string

const (
	SourceScanner    EvidenceSource = "scanner"
	SourceAIJudgment EvidenceSource = "ai_judgment"
)

// Outcome distinguishes findings that report a violation from findings that
// assert conformance (a clean automated check or an AI "pass" verdict).
type Outcome string

const (
	OutcomeViolation   Outcome = "violation"
	OutcomeConformance Outcome = "conformance"
)

// Status is the evaluated state of one success criterion.
type Status string

const (
	StatusPass         Status = "PASS"
	StatusFail         Status = "FAIL"
	StatusPartialPass  Status = "PARTIAL_PASS"
	StatusNotEvaluated Status = "NOT_EVALUATED"
)

// Criterion describes one WCAG success criterion. Criteria are loaded once
// from the registry catalog and never mutated.
type Criterion struct {
	ID          string           `json:"id" yaml:"id"`
	Title       string           `json:"title" yaml:"title"`
	Level       ConformanceLevel `json:"level" yaml:"level"`
	Automatable bool             `json:"automatable" yaml:"automatable"`
	// Weight is the priority weight used in scoring and ranking;
	// higher means more critical.
	Weight   float64 `json:"weight" yaml:"weight"`
	Guidance string  `json:"guidance,omitempty" yaml:"guidance,omitempty"`
}

// RawFinding is one evidence record as handed to the engine by a collaborator,
// before registry resolution. Immutable once constructed.
type RawFinding struct {
	Source      EvidenceSource `json:"source"`
	CriterionID string         `json:"criterion_id"`
	Outcome     Outcome        `json:"outcome"`
	Description string         `json:"description"`
	Locator     string         `json:"locator,omitempty"`
	Severity    Severity       `json:"severity,omitempty"`
	// Confidence is 0–1. Zero means "not supplied"; the normalizer applies
	// the per-source default (1.0 scanner, 0.5 AI judgment).
	Confidence float64 `json:"confidence,omitempty"`
}

// NormalizedFinding is a RawFinding resolved against the criteria registry.
// Its CriterionID is guaranteed to exist in the registry and its severity and
// confidence are always populated.
type NormalizedFinding struct {
	Source      EvidenceSource `json:"source"`
	CriterionID string         `json:"criterion_id"`
	Outcome     Outcome        `json:"outcome"`
	Description string         `json:"description"`
	Locator     string         `json:"locator,omitempty"`
	Severity    Severity       `json:"severity"`
	Confidence  float64        `json:"confidence"`
}

// MergedFinding is one cross-referenced finding: all violation evidence for
// the same (criterion, normalized locator) pair combined into a single record.
type MergedFinding struct {
	CriterionID string `json:"criterion_id"`
	// Locator is the normalized locator shared by the merged evidence;
	// empty for page-level findings.
	Locator  string   `json:"locator,omitempty"`
	Severity Severity `json:"severity"`
	// Confidence is the evidence-source-weighted average of the group.
	Confidence   float64          `json:"confidence"`
	Sources      []EvidenceSource `json:"sources"`
	Descriptions []string         `json:"descriptions"`
}

// CriterionResult is the scored outcome for one criterion.
type CriterionResult struct {
	Criterion Criterion       `json:"criterion"`
	Status    Status          `json:"status"`
	Findings  []MergedFinding `json:"findings,omitempty"`
}

// RecommendationItem is one entry in the priority-ordered remediation list.
type RecommendationItem struct {
	Rank        int             `json:"rank"`
	CriterionID string          `json:"criterion_id"`
	Title       string          `json:"title"`
	Rationale   string          `json:"rationale"`
	Findings    []MergedFinding `json:"findings"`
}

// SourceCoverage summarizes how much evidence each source contributed.
type SourceCoverage struct {
	ScannerFindings  int `json:"scanner_findings"`
	JudgmentFindings int `json:"judgment_findings"`
	CriteriaTouched  int `json:"criteria_touched"`
	CriteriaTotal    int `json:"criteria_total"`
}

// ComplianceReport is the top-level output document. It is owned by the
// caller once returned; the engine keeps no reference to it.
type ComplianceReport struct {
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	URL         string    `json:"url"`
	GeneratedAt time.Time `json:"generated_at"`
	// OverallScore is nil when zero criteria were evaluated, signaling
	// insufficient evidence rather than a false 0 or 100.
	OverallScore    *float64             `json:"overall_score"`
	Results         []CriterionResult    `json:"results"`
	Recommendations []RecommendationItem `json:"recommendations"`
	Coverage        SourceCoverage       `json:"coverage"`
}

// Diagnostic records a non-fatal evidence problem encountered during a run:
// an unresolvable criterion identifier, a malformed record, or a judgment
// response that could not be parsed.
type Diagnostic struct {
	Stage       string `json:"stage"`
	CriterionID string `json:"criterion_id,omitempty"`
	Message     string `json:"message"`
}
