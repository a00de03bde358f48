// Package judgment handles AI model communication, per-criterion prompt
// construction, response validation, and the single repair attempt. Its
// output is raw evidence records for the engine; it never scores anything
// itself.
package judgment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/a11ycheck/internal/page"
	"github.com/dshills/a11ycheck/internal/profile"
	"github.com/dshills/a11ycheck/internal/schema"
)

// ErrInvalidModelOutput is returned when both the initial and repair model
// responses for a criterion fail validation. Assess does not return it; the
// criterion is skipped with a diagnostic instead. It is exported for callers
// of ValidateResponse.
var ErrInvalidModelOutput = errors.New("judgment: invalid model output after repair attempt")

// Provider is the interface for AI model backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating model providers. It is a
// package-level variable so tests can replace it with a mock without
// modifying the call site. Tests must restore the original value; use
// t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures an Assess call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Debug       bool
}

// ValidationError records a single validation failure on a model response.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Verdict is the per-criterion response contract the model is asked to
// follow.
type Verdict struct {
	Status          string   `json:"status"` // pass | warning | fail
	Confidence      float64  `json:"confidence"`
	Assessment      string   `json:"assessment"`
	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Priority        string   `json:"priority"`
}

// Issue is one concrete problem inside a Verdict.
type Issue struct {
	Description string `json:"description"`
	Locator     string `json:"locator"`
	Severity    string `json:"severity"`
}

const (
	statusPass    = "pass"
	statusWarning = "warning"
	statusFail    = "fail"
)

// Assess evaluates each criterion against the page content and converts the
// verdicts into raw evidence records. A criterion whose response is invalid
// after one repair attempt is skipped with a diagnostic; provider failures
// abort the run.
func Assess(
	ctx context.Context,
	criteria []schema.Criterion,
	content page.Content,
	prof profile.Profile,
	opts Options,
) ([]schema.RawFinding, []schema.Diagnostic, error) {
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("judgment: create provider: %w", err)
	}

	sysPrompt := buildSystemPrompt(prof)
	summary := content.Summary()

	var findings []schema.RawFinding
	var diags []schema.Diagnostic
	for _, crit := range criteria {
		userPrompt := buildUserPrompt(crit, summary)

		if opts.Debug {
			fmt.Fprintf(os.Stderr, "=== DEBUG: system prompt ===\n%s\n", sysPrompt)
			fmt.Fprintf(os.Stderr, "=== DEBUG: user prompt (%s) ===\n%s\n", crit.ID, userPrompt)
		}

		raw, err := provider.Complete(ctx, sysPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
		if err != nil {
			return nil, nil, fmt.Errorf("judgment: complete %s: %w", crit.ID, err)
		}

		verdict, validationErrs := ValidateResponse(raw)
		if verdict == nil || needsRepair(validationErrs) {
			// One repair attempt: include the original prompt and the invalid
			// response so the model has full context.
			repairPrompt := buildRepairPrompt(userPrompt, raw, validationErrs)
			raw2, err := provider.Complete(ctx, sysPrompt, repairPrompt, opts.MaxTokens, opts.Temperature)
			if err != nil {
				return nil, nil, fmt.Errorf("judgment: repair complete %s: %w", crit.ID, err)
			}
			verdict, validationErrs = ValidateResponse(raw2)
			if verdict == nil || needsRepair(validationErrs) {
				// Never guess a verdict from unparseable output; record the
				// raw text and move on.
				diags = append(diags, schema.Diagnostic{
					Stage:       "judgment",
					CriterionID: crit.ID,
					Message:     fmt.Sprintf("invalid model output after repair attempt: %s", rawSnippet(raw2)),
				})
				continue
			}
		}

		findings = append(findings, verdictFindings(crit, verdict, prof)...)
	}
	return findings, diags, nil
}

// verdictFindings converts one validated verdict into raw evidence records.
// A pass becomes a conformance finding so the criterion counts as evaluated.
// A warning or fail becomes one violation finding per reported issue, or a
// single page-level finding when the model gave no issue breakdown.
func verdictFindings(crit schema.Criterion, v *Verdict, prof profile.Profile) []schema.RawFinding {
	if v.Status == statusPass {
		return []schema.RawFinding{{
			Source:      schema.SourceAIJudgment,
			CriterionID: crit.ID,
			Outcome:     schema.OutcomeConformance,
			Description: v.Assessment,
			Confidence:  v.Confidence,
		}}
	}

	issues := v.Issues
	if len(issues) == 0 {
		desc := v.Assessment
		if len(v.Recommendations) > 0 {
			desc = desc + " Recommended: " + strings.Join(v.Recommendations, "; ")
		}
		issues = []Issue{{Description: desc, Severity: v.Priority}}
	}

	out := make([]schema.RawFinding, 0, len(issues))
	for _, is := range issues {
		sev := schema.Severity(is.Severity)
		if sev == "" {
			sev = schema.Severity(v.Priority)
		}
		out = append(out, schema.RawFinding{
			Source:      schema.SourceAIJudgment,
			CriterionID: crit.ID,
			Outcome:     schema.OutcomeViolation,
			Description: is.Description,
			Locator:     is.Locator,
			Severity:    prof.Escalate(sev),
			Confidence:  v.Confidence,
		})
	}
	return out
}

// needsRepair returns true when validation errors include a parse or
// required-field failure that requires a retry.
func needsRepair(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Field == "json_parse" || e.Field == "required_field" {
			return true
		}
	}
	return false
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences. The content group
// uses `.*?` (not `.+?`) to allow empty bodies inside fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line (no closing fence required).
// Used to strip orphaned opening fences from truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes leading/trailing markdown code fences that
// models sometimes wrap around JSON output (e.g., "```json\n...\n```").
// If only an opening fence is present (e.g., the response was truncated
// before the closing fence), the opening line is stripped so that the JSON
// content can still be parsed.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// invalidJSONEscapeRe matches a backslash followed by any character that is
// not a valid JSON string escape character ("\/bfnrtu). Models sometimes emit
// CSS selectors with escaped characters (e.g. \:hover) unescaped inside JSON
// strings; this sanitizer converts them to properly double-escaped sequences
// so that the JSON parser accepts the response.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

// fixInvalidJSONEscapes replaces invalid JSON escape sequences in s with
// their correctly double-escaped equivalents.
func fixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

var validSeverities = map[string]bool{
	"":         true, // omitted; defaulted downstream
	"minor":    true,
	"moderate": true,
	"serious":  true,
	"critical": true,
}

// ValidateResponse parses and validates a raw model response.
// Leading/trailing markdown fences are stripped before parsing. Non-fatal
// issues (out-of-range confidence, unknown severities) are corrected in
// place and recorded as ValidationErrors. Fatal issues (parse failure,
// missing or unknown status) return a nil verdict.
func ValidateResponse(raw string) (*Verdict, []ValidationError) {
	var errs []ValidationError

	raw = stripMarkdownFences(raw)

	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		fixed := fixInvalidJSONEscapes(raw)
		if err2 := json.Unmarshal([]byte(fixed), &v); err2 != nil {
			errs = append(errs, ValidationError{
				Field:   "json_parse",
				Message: err.Error(),
			})
			return nil, errs
		}
	}

	switch v.Status {
	case statusPass, statusWarning, statusFail:
	case "":
		errs = append(errs, ValidationError{
			Field:   "required_field",
			Message: "status is missing",
		})
		return nil, errs
	default:
		errs = append(errs, ValidationError{
			Field:   "required_field",
			Message: fmt.Sprintf("invalid status %q", v.Status),
		})
		return nil, errs
	}

	// Confidence outside 0..1 is clamped, not rejected.
	if v.Confidence < 0 || v.Confidence > 1 {
		errs = append(errs, ValidationError{
			Field:   "confidence",
			Message: fmt.Sprintf("confidence %v out of range; clamped", v.Confidence),
		})
		if v.Confidence < 0 {
			v.Confidence = 0
		} else {
			v.Confidence = 1
		}
	}

	if !validSeverities[v.Priority] {
		errs = append(errs, ValidationError{
			Field:   "priority",
			Message: fmt.Sprintf("unknown priority %q; cleared", v.Priority),
		})
		v.Priority = ""
	}
	for i := range v.Issues {
		if !validSeverities[v.Issues[i].Severity] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("issues[%d].severity", i),
				Message: fmt.Sprintf("unknown severity %q; cleared", v.Issues[i].Severity),
			})
			v.Issues[i].Severity = ""
		}
	}

	return &v, errs
}

// rawSnippet truncates raw model output for inclusion in a diagnostic.
func rawSnippet(raw string) string {
	raw = strings.TrimSpace(raw)
	const max = 200
	if len(raw) > max {
		return raw[:max] + "..."
	}
	return raw
}

// buildSystemPrompt assembles the model system prompt.
func buildSystemPrompt(prof profile.Profile) string {
	var sb strings.Builder

	sb.WriteString("You are an accessibility auditor evaluating a web page against a single WCAG success criterion.\n\n")

	sb.WriteString("Output ONLY valid JSON conforming to the schema below. " +
		"No prose, no markdown, no explanation outside the JSON.\n\n")

	sb.WriteString("Base your verdict only on the PAGE CONTENT provided. " +
		"Never invent elements or selectors that do not appear in it. " +
		"If the content gives insufficient signal, lower your confidence and say so in the assessment.\n\n")

	if prof.SystemPromptAddendum != "" {
		sb.WriteString(prof.SystemPromptAddendum)
		sb.WriteString("\n\n")
	}

	sb.WriteString(outputSchema)

	return sb.String()
}

// outputSchema is the JSON schema fragment shown to the model.
const outputSchema = `Output schema (JSON only):
{
  "status": "pass|warning|fail",
  "confidence": 0.0,
  "assessment": "one-paragraph explanation of the verdict",
  "issues": [
    {"description": "...", "locator": "css selector from the page content, or empty for page-level", "severity": "minor|moderate|serious|critical"}
  ],
  "recommendations": ["..."],
  "priority": "minor|moderate|serious|critical"
}
`

// buildUserPrompt assembles the model user prompt for one criterion.
func buildUserPrompt(crit schema.Criterion, pageSummary string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "SUCCESS CRITERION %s: %s (Level %s)\n", crit.ID, crit.Title, crit.Level)
	if crit.Guidance != "" {
		fmt.Fprintf(&sb, "Guidance: %s\n", crit.Guidance)
	}

	sb.WriteString("\nPAGE CONTENT:\n")
	sb.WriteString(pageSummary)

	sb.WriteString("\nProduce the JSON verdict now.")

	return sb.String()
}

// buildRepairPrompt constructs the repair message. It includes the original
// user prompt and the previous invalid response so the model has full
// context.
func buildRepairPrompt(originalUserPrompt, previousResponse string, errs []ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	sb.WriteString("\nPlease output only the corrected JSON conforming to the schema. Do not repeat the error.")
	return sb.String()
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("judgment: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider implements Provider using the Anthropic SDK.
// anthropic.Client is a value type; the SDK's NewClient returns it by value.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(model string) (Provider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("judgment: ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		// block.Type is a string field from the Anthropic API; "text" is the
		// only content type that carries assistant text output. The SDK does
		// not expose a typed constant for content block types in this version.
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic: response contained no text content blocks")
	}
	return strings.Join(parts, ""), nil
}
