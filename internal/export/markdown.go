package export

import (
	"fmt"
	"strings"

	"github.com/dshills/a11ycheck/internal/schema"
)

// exportMarkdown produces a GitHub-flavoured Markdown summary of the report,
// suitable for PR comments or terminal output.
func exportMarkdown(report *schema.ComplianceReport) (Payload, error) {
	var sb strings.Builder

	sb.WriteString("## Accessibility Report\n\n")
	fmt.Fprintf(&sb, "**URL:** %s  \n", report.URL)
	if report.OverallScore != nil {
		fmt.Fprintf(&sb, "**Compliance score:** %.1f/100  \n", *report.OverallScore)
	} else {
		sb.WriteString("**Compliance score:** insufficient evidence  \n")
	}
	fmt.Fprintf(&sb, "**Evidence:** %d scanner | %d AI judgment | %d/%d criteria touched\n\n",
		report.Coverage.ScannerFindings, report.Coverage.JudgmentFindings,
		report.Coverage.CriteriaTouched, report.Coverage.CriteriaTotal)

	if len(report.Results) > 0 {
		sb.WriteString("## Criterion Results\n\n")
		sb.WriteString("| Criterion | Level | Status | Findings |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, r := range report.Results {
			fmt.Fprintf(&sb, "| %s %s | %s | %s | %d |\n",
				r.Criterion.ID, mdEscape(r.Criterion.Title), r.Criterion.Level, r.Status, len(r.Findings))
		}
		sb.WriteString("\n")
	}

	if len(report.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&sb, "<details>\n<summary><strong>#%d %s</strong>: %s</summary>\n\n",
				rec.Rank, rec.CriterionID, mdEscape(rec.Title))
			if rec.Rationale != "" {
				fmt.Fprintf(&sb, "%s\n\n", mdEscape(rec.Rationale))
			}
			for _, f := range rec.Findings {
				if f.Locator != "" {
					fmt.Fprintf(&sb, "- `%s` [%s, confidence %.2f]\n", f.Locator, f.Severity, f.Confidence)
				} else {
					fmt.Fprintf(&sb, "- page-level [%s, confidence %.2f]\n", f.Severity, f.Confidence)
				}
			}
			sb.WriteString("\n</details>\n\n")
		}
	}

	return Payload{
		Data:        []byte(sb.String()),
		Filename:    "accessibility_report.md",
		ContentType: "text/markdown",
	}, nil
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
