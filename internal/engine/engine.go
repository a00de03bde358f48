// Package engine runs the full evaluation pipeline: raw evidence is
// normalized against the criteria registry, cross-referenced into merged
// findings, scored per criterion, and ranked into remediation
// recommendations. The engine is deterministic: the same evidence, registry,
// and configuration always produce the same report.
package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/a11ycheck/internal/crossref"
	"github.com/dshills/a11ycheck/internal/normalize"
	"github.com/dshills/a11ycheck/internal/rank"
	"github.com/dshills/a11ycheck/internal/registry"
	"github.com/dshills/a11ycheck/internal/schema"
	"github.com/dshills/a11ycheck/internal/score"
)

const (
	ToolName    = "a11ycheck"
	ToolVersion = "1.0.0"
)

// ErrNoRegistry is returned when Evaluate is called without a criteria
// registry. Evidence cannot be resolved against nothing.
var ErrNoRegistry = errors.New("engine: nil registry")

// Config carries the tunable pipeline constants. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	Thresholds score.Thresholds `yaml:"thresholds"`
	Ranking    rank.Options     `yaml:"ranking"`
}

// DefaultConfig returns the standard pipeline constants.
func DefaultConfig() Config {
	return Config{
		Thresholds: score.DefaultThresholds(),
		Ranking:    rank.DefaultOptions(),
	}
}

// LoadConfig reads a YAML config file over the defaults. Fields absent from
// the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("engine: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("engine: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Options controls one Evaluate run.
type Options struct {
	// URL identifies the evaluated page in the report.
	URL string
	// Config holds the pipeline constants; the zero value means defaults.
	Config *Config
	// Now supplies the report timestamp. Nil means time.Now. Tests inject a
	// fixed clock so reruns over the same evidence are byte-identical.
	Now func() time.Time
}

// Evaluate runs the pipeline over the raw evidence and assembles the report.
// Malformed evidence records are dropped into the returned diagnostics, never
// silently discarded and never fatal.
func Evaluate(raws []schema.RawFinding, reg *registry.Registry, opts Options) (*schema.ComplianceReport, []schema.Diagnostic, error) {
	if reg == nil {
		return nil, nil, ErrNoRegistry
	}
	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	normalized, diags := normalize.Normalize(raws, reg)
	evaluated := normalize.EvaluatedCriteria(normalized)
	merged := crossref.Merge(normalized)
	results, overall := score.Score(merged, evaluated, reg, cfg.Thresholds)
	recs := rank.Rank(results, cfg.Ranking)

	report := &schema.ComplianceReport{
		Tool:            ToolName,
		Version:         ToolVersion,
		URL:             opts.URL,
		GeneratedAt:     now().UTC(),
		OverallScore:    overall,
		Results:         results,
		Recommendations: recs,
		Coverage:        coverage(normalized, evaluated, reg),
	}
	return report, diags, nil
}

func coverage(normalized []schema.NormalizedFinding, evaluated map[string]bool, reg *registry.Registry) schema.SourceCoverage {
	cov := schema.SourceCoverage{
		CriteriaTouched: len(evaluated),
		CriteriaTotal:   reg.Len(),
	}
	for _, f := range normalized {
		switch f.Source {
		case schema.SourceScanner:
			cov.ScannerFindings++
		case schema.SourceAIJudgment:
			cov.JudgmentFindings++
		}
	}
	return cov
}
