// Package profile defines audit profiles that modulate AI judgment prompt
// construction. Each profile provides a SystemPromptAddendum that is appended
// to the system prompt sent to the model.
package profile

import (
	"fmt"

	"github.com/dshills/a11ycheck/internal/schema"
)

// Profile describes an audit strategy.
type Profile struct {
	Name                 string
	Description          string
	SystemPromptAddendum string
	// EscalateSeverity, when true, causes all AI violation findings to be
	// escalated one severity level before aggregation (minor→moderate,
	// moderate→serious, serious→critical).
	EscalateSeverity bool
}

// builtins is the registry of built-in profiles keyed by name.
var builtins = map[string]Profile{
	"general": {
		Name:        "general",
		Description: "Default profile; balanced judgment across all criteria.",
		SystemPromptAddendum: "Evaluate the page against the criterion as a typical user would " +
			"experience it. When the page content gives insufficient signal, say so in the " +
			"assessment and lower your confidence rather than guessing.",
		EscalateSeverity: false,
	},
	"strict": {
		Name:        "strict",
		Description: "Compliance-audit profile; treats ambiguity as a failure signal.",
		SystemPromptAddendum: "This is a formal compliance audit. Treat ambiguous or partially " +
			"conforming content as failing. Flag every missing text alternative, unlabeled " +
			"control, and vague link text, even when a sighted user could compensate. Do not " +
			"give the benefit of the doubt.",
		EscalateSeverity: true,
	},
	"lenient": {
		Name:        "lenient",
		Description: "Triage profile; surfaces only clear-cut user-blocking problems.",
		SystemPromptAddendum: "This is an early triage pass. Report only problems you are " +
			"confident would block or seriously impede a user with a disability. Skip stylistic " +
			"and borderline concerns; they will be covered in a later audit.",
		EscalateSeverity: false,
	},
}

// Load returns the named built-in profile or an error if the name is unknown.
func Load(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown profile %q (available: general, strict, lenient)", name)
	}
	return p, nil
}

// Escalate bumps a severity one level when the profile demands it.
// critical is unchanged; outside escalating profiles there is no change.
func (p Profile) Escalate(s schema.Severity) schema.Severity {
	if !p.EscalateSeverity {
		return s
	}
	switch s {
	case schema.SeverityMinor:
		return schema.SeverityModerate
	case schema.SeverityModerate:
		return schema.SeveritySerious
	case schema.SeveritySerious:
		return schema.SeverityCritical
	}
	return s
}
