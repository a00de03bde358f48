// Package registry provides the static WCAG success criteria catalog.
// The catalog is embedded at build time, loaded once, and read-only
// thereafter; lookups are exact-match only.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/a11ycheck/internal/schema"
)

//go:embed criteria.yaml
var catalogYAML []byte

// ErrEmptyCatalog is returned when a catalog contains no criteria. An empty
// registry is a configuration error; evaluation cannot proceed without one.
var ErrEmptyCatalog = errors.New("registry: catalog contains no criteria")

// catalog is the on-disk shape of the criteria catalog.
type catalog struct {
	WCAGVersion string             `yaml:"wcag_version"`
	Criteria    []schema.Criterion `yaml:"criteria"`
}

// Registry is an immutable set of WCAG success criteria keyed by identifier.
type Registry struct {
	wcagVersion string
	byID        map[string]schema.Criterion
	ids         []string // sorted, for deterministic iteration
}

// Load parses the embedded criteria catalog.
func Load() (*Registry, error) {
	return loadBytes(catalogYAML)
}

// LoadBytes parses a caller-supplied catalog. Exposed for tests and for
// callers shipping an alternate criteria set (e.g. a WCAG 2.2 catalog).
func LoadBytes(data []byte) (*Registry, error) {
	return loadBytes(data)
}

func loadBytes(data []byte) (*Registry, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("registry: parse catalog: %w", err)
	}
	if len(c.Criteria) == 0 {
		return nil, ErrEmptyCatalog
	}

	byID := make(map[string]schema.Criterion, len(c.Criteria))
	ids := make([]string, 0, len(c.Criteria))
	for i, crit := range c.Criteria {
		if crit.ID == "" {
			return nil, fmt.Errorf("registry: criterion %d has no id", i)
		}
		if _, dup := byID[crit.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate criterion id %q", crit.ID)
		}
		switch crit.Level {
		case schema.LevelA, schema.LevelAA, schema.LevelAAA:
		default:
			return nil, fmt.Errorf("registry: criterion %q has invalid level %q", crit.ID, crit.Level)
		}
		if crit.Weight <= 0 {
			return nil, fmt.Errorf("registry: criterion %q has non-positive weight %v", crit.ID, crit.Weight)
		}
		byID[crit.ID] = crit
		ids = append(ids, crit.ID)
	}
	sort.Strings(ids)

	return &Registry{wcagVersion: c.WCAGVersion, byID: byID, ids: ids}, nil
}

// WCAGVersion returns the catalog's WCAG version string.
func (r *Registry) WCAGVersion() string { return r.wcagVersion }

// Len returns the number of criteria in the registry.
func (r *Registry) Len() int { return len(r.ids) }

// Lookup returns the criterion with the given identifier. The match is exact;
// there is no fuzzy resolution, since a near-miss would misattribute scoring.
func (r *Registry) Lookup(id string) (schema.Criterion, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// IDs returns all criterion identifiers in ascending order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// ByLevel returns the criteria whose conformance level is in levels,
// in ascending identifier order.
func (r *Registry) ByLevel(levels ...schema.ConformanceLevel) []schema.Criterion {
	want := make(map[schema.ConformanceLevel]bool, len(levels))
	for _, l := range levels {
		want[l] = true
	}
	var out []schema.Criterion
	for _, id := range r.ids {
		if c := r.byID[id]; want[c.Level] {
			out = append(out, c)
		}
	}
	return out
}

// ManualOnly returns the criteria that cannot be mechanically verified and
// therefore require judgment assessment, in ascending identifier order.
func (r *Registry) ManualOnly() []schema.Criterion {
	var out []schema.Criterion
	for _, id := range r.ids {
		if c := r.byID[id]; !c.Automatable {
			out = append(out, c)
		}
	}
	return out
}
