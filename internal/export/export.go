// Package export serializes an assembled compliance report into its output
// encodings: full-fidelity JSON, a self-contained styled HTML document, a
// tabular CSV, and a Markdown summary.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dshills/a11ycheck/internal/schema"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ErrUnsupportedFormat is returned for format values outside the supported
// set. It is a caller error, detected before any encoding work; there is no
// silent fallback to a default format.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Payload is an encoded report plus the metadata a caller needs to persist
// or serve it. Persistence itself is the caller's concern.
type Payload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Export encodes the report in the requested format.
func Export(report *schema.ComplianceReport, format Format) (Payload, error) {
	if report == nil {
		return Payload{}, fmt.Errorf("export: nil report")
	}
	switch format {
	case FormatJSON:
		return exportJSON(report)
	case FormatHTML:
		return exportHTML(report)
	case FormatCSV:
		return exportCSV(report)
	case FormatMarkdown:
		return exportMarkdown(report)
	default:
		return Payload{}, fmt.Errorf("%w: %q (supported: json, html, csv, markdown)", ErrUnsupportedFormat, format)
	}
}

// exportJSON produces the full-fidelity structured form. The output
// round-trips through json.Unmarshal back to an equal ComplianceReport.
func exportJSON(report *schema.ComplianceReport) (Payload, error) {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return Payload{}, fmt.Errorf("export: json marshal: %w", err)
	}
	return Payload{
		Data:        b,
		Filename:    "accessibility_report.json",
		ContentType: "application/json",
	}, nil
}

// exportCSV produces the tabular form: one row per CriterionResult. (Rows are
// per criterion, not per finding; a criterion's finding descriptions are
// folded into the last column.)
func exportCSV(report *schema.ComplianceReport) (Payload, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"Criterion", "Title", "Level", "Status", "Severity", "Confidence", "Findings"},
	}
	for _, r := range report.Results {
		maxSev := schema.Severity("")
		maxConf := 0.0
		var descs bytes.Buffer
		for _, f := range r.Findings {
			maxSev = schema.MaxSeverity(maxSev, f.Severity)
			if f.Confidence > maxConf {
				maxConf = f.Confidence
			}
			for _, d := range f.Descriptions {
				if descs.Len() > 0 {
					descs.WriteString("; ")
				}
				descs.WriteString(d)
			}
		}
		conf := ""
		if len(r.Findings) > 0 {
			conf = strconv.FormatFloat(maxConf, 'f', 2, 64)
		}
		rows = append(rows, []string{
			r.Criterion.ID,
			r.Criterion.Title,
			string(r.Criterion.Level),
			string(r.Status),
			string(maxSev),
			conf,
			descs.String(),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return Payload{}, fmt.Errorf("export: csv write: %w", err)
	}
	return Payload{
		Data:        buf.Bytes(),
		Filename:    "accessibility_report.csv",
		ContentType: "text/csv",
	}, nil
}
