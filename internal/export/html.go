package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dshills/a11ycheck/internal/schema"
)

// exportHTML produces the styled-document form: a single self-contained HTML
// page with inline CSS and no external resource references. It is lossy for
// machine consumption but preserves every criterion status and the
// recommendation order visibly.
func exportHTML(report *schema.ComplianceReport) (Payload, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, htmlView(report)); err != nil {
		return Payload{}, fmt.Errorf("export: html template: %w", err)
	}
	return Payload{
		Data:        buf.Bytes(),
		Filename:    "accessibility_report.html",
		ContentType: "text/html",
	}, nil
}

// view is the template input. Score formatting and status counts are
// precomputed so the template stays presentation-only.
type view struct {
	Report       *schema.ComplianceReport
	ScoreDisplay string
	Pass         int
	Fail         int
	Partial      int
	NotEvaluated int
}

func htmlView(report *schema.ComplianceReport) view {
	v := view{Report: report, ScoreDisplay: "insufficient evidence"}
	if report.OverallScore != nil {
		v.ScoreDisplay = fmt.Sprintf("%.1f%%", *report.OverallScore)
	}
	for _, r := range report.Results {
		switch r.Status {
		case schema.StatusPass:
			v.Pass++
		case schema.StatusFail:
			v.Fail++
		case schema.StatusPartialPass:
			v.Partial++
		case schema.StatusNotEvaluated:
			v.NotEvaluated++
		}
	}
	return v
}

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"statusClass": func(s schema.Status) string {
		switch s {
		case schema.StatusPass:
			return "pass"
		case schema.StatusFail:
			return "fail"
		case schema.StatusPartialPass:
			return "partial"
		default:
			return "skipped"
		}
	},
	"pct": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
}).Parse(htmlPage))

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Accessibility Report - {{.Report.URL}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; margin: 40px; color: #333; }
.header { background: #f8f9fa; padding: 20px; border-radius: 8px; margin-bottom: 30px; }
.summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 20px; margin-bottom: 30px; }
.metric { background: #fff; padding: 15px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
.score { font-size: 2em; font-weight: bold; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #ddd; }
th { background-color: #f8f9fa; }
.pass { border-left: 4px solid #28a745; }
.fail { border-left: 4px solid #dc3545; }
.partial { border-left: 4px solid #ffc107; }
.skipped { border-left: 4px solid #adb5bd; color: #6c757d; }
.rec { background: #fff5f5; border-left: 4px solid #dc3545; padding: 15px; margin: 10px 0; }
.rec .rank { font-weight: bold; margin-right: 8px; }
code { background: #f1f3f5; padding: 1px 4px; border-radius: 3px; }
</style>
</head>
<body>
<div class="header">
<h1>Web Accessibility Report</h1>
<p><strong>URL:</strong> {{.Report.URL}}</p>
<p><strong>Generated:</strong> {{.Report.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}</p>
<p><strong>Tool:</strong> {{.Report.Tool}} {{.Report.Version}}</p>
</div>

<div class="summary">
<div class="metric"><h3>Compliance Score</h3><div class="score">{{.ScoreDisplay}}</div></div>
<div class="metric"><h3>Passed</h3><div class="score">{{.Pass}}</div></div>
<div class="metric"><h3>Failed</h3><div class="score">{{.Fail}}</div></div>
<div class="metric"><h3>Partial</h3><div class="score">{{.Partial}}</div></div>
<div class="metric"><h3>Not Evaluated</h3><div class="score">{{.NotEvaluated}}</div></div>
</div>

<h2>Criterion Results</h2>
<table>
<tr><th>Criterion</th><th>Title</th><th>Level</th><th>Status</th><th>Findings</th></tr>
{{range .Report.Results}}
<tr class="{{statusClass .Status}}">
<td>{{.Criterion.ID}}</td>
<td>{{.Criterion.Title}}</td>
<td>{{.Criterion.Level}}</td>
<td>{{.Status}}</td>
<td>{{len .Findings}}</td>
</tr>
{{end}}
</table>

<h2>Recommendations</h2>
{{if .Report.Recommendations}}
{{range .Report.Recommendations}}
<div class="rec">
<span class="rank">#{{.Rank}}</span><strong>{{.CriterionID}} {{.Title}}</strong>
<p>{{.Rationale}}</p>
{{range .Findings}}{{if .Locator}}<p>Element: <code>{{.Locator}}</code> ({{.Severity}}, confidence {{pct .Confidence}})</p>{{end}}{{end}}
</div>
{{end}}
{{else}}
<p>No remediation items.</p>
{{end}}

<h2>Evidence Coverage</h2>
<table>
<tr><th>Scanner findings</th><td>{{.Report.Coverage.ScannerFindings}}</td></tr>
<tr><th>AI judgment findings</th><td>{{.Report.Coverage.JudgmentFindings}}</td></tr>
<tr><th>Criteria touched</th><td>{{.Report.Coverage.CriteriaTouched}} of {{.Report.Coverage.CriteriaTotal}}</td></tr>
</table>
</body>
</html>
`
