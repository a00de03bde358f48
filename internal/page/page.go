// Package page holds a lightweight content inventory of an evaluated web
// page. It is decoded from a page-content JSON document captured alongside
// the scanner run and rendered as a plain-text summary for AI judgment
// prompts. It never participates in scoring.
package page

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Heading is one document heading in source order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Image is one img element. Alt distinguishes empty from absent via HasAlt.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	HasAlt bool   `json:"has_alt"`
}

// Link is one anchor element.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// FormField is one labeled or unlabeled form control.
type FormField struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Label   string `json:"label"`
	Labeled bool   `json:"labeled"`
}

// Content is the inventory of a single page.
type Content struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Lang     string            `json:"lang"`
	Headings []Heading         `json:"headings"`
	Images   []Image           `json:"images"`
	Links    []Link            `json:"links"`
	Forms    []FormField       `json:"forms"`
	Meta     map[string]string `json:"meta"`
	// Text is the visible text excerpt of the page body.
	Text string `json:"text"`
}

// maxSummaryBytes is the maximum byte length of Summary() output before the
// text excerpt is truncated.
const maxSummaryBytes = 40_000

// Parse decodes a page-content JSON document.
func Parse(data []byte) (Content, error) {
	var c Content
	if err := json.Unmarshal(data, &c); err != nil {
		return Content{}, fmt.Errorf("page: parse content: %w", err)
	}
	return c, nil
}

// writeStructureSections appends the structural sections (title, headings,
// images, links, forms, meta) to sb. Called by both Summary and
// truncatedSummary.
func writeStructureSections(sb *strings.Builder, c Content) {
	fmt.Fprintf(sb, "=== Page ===\n  URL: %s\n  Title: %s\n", c.URL, c.Title)
	if c.Lang != "" {
		fmt.Fprintf(sb, "  Lang: %s\n", c.Lang)
	}
	if len(c.Headings) > 0 {
		sb.WriteString("\n=== Headings ===\n")
		for _, h := range c.Headings {
			fmt.Fprintf(sb, "  h%d: %s\n", h.Level, h.Text)
		}
	}
	if len(c.Images) > 0 {
		sb.WriteString("\n=== Images ===\n")
		for _, img := range c.Images {
			alt := "(no alt attribute)"
			if img.HasAlt {
				alt = fmt.Sprintf("alt=%q", img.Alt)
			}
			fmt.Fprintf(sb, "  %s %s\n", img.Src, alt)
		}
	}
	if len(c.Links) > 0 {
		sb.WriteString("\n=== Links ===\n")
		for _, l := range c.Links {
			fmt.Fprintf(sb, "  %q -> %s\n", l.Text, l.Href)
		}
	}
	if len(c.Forms) > 0 {
		sb.WriteString("\n=== Form Fields ===\n")
		for _, f := range c.Forms {
			label := "(unlabeled)"
			if f.Labeled {
				label = fmt.Sprintf("label=%q", f.Label)
			}
			fmt.Fprintf(sb, "  %s %s %s\n", f.Type, f.Name, label)
		}
	}
	if len(c.Meta) > 0 {
		sb.WriteString("\n=== Meta ===\n")
		for _, k := range sortedKeys(c.Meta) {
			fmt.Fprintf(sb, "  %s: %s\n", k, c.Meta[k])
		}
	}
}

const textSectionHeader = "\n=== Text ===\n"

// Summary produces a plain-text block for AI judgment prompts. If the output
// exceeds maxSummaryBytes, the text excerpt is truncated and a notice is
// appended; the structural sections are always kept whole.
func (c Content) Summary() string {
	var sb strings.Builder
	writeStructureSections(&sb, c)
	if c.Text != "" {
		sb.WriteString(textSectionHeader)
		sb.WriteString(c.Text)
		sb.WriteString("\n")
	}

	result := sb.String()
	if len(result) <= maxSummaryBytes {
		return result
	}
	return truncatedSummary(c, len(result))
}

// truncatedSummary rebuilds Summary() with the text excerpt pruned to fit
// within maxSummaryBytes. It emits a warning to stderr.
func truncatedSummary(c Content, fullLen int) string {
	var structure strings.Builder
	writeStructureSections(&structure, c)
	structureStr := structure.String()

	const truncationNotice = "\n[TRUNCATED: %d bytes of page text omitted to fit context limit]\n"
	reservedForOverhead := len(textSectionHeader) + 80 // 80 bytes covers the formatted notice
	budget := maxSummaryBytes - len(structureStr) - reservedForOverhead
	if budget < 0 {
		budget = 0
	}
	kept := c.Text
	if len(kept) > budget {
		kept = kept[:budget]
	}
	omitted := len(c.Text) - len(kept)

	fmt.Fprintf(os.Stderr,
		"page: WARNING: summary truncated: %d text bytes omitted (total %d chars > %d limit)\n",
		omitted, fullLen, maxSummaryBytes)

	var sb strings.Builder
	sb.WriteString(structureStr)
	sb.WriteString(textSectionHeader)
	sb.WriteString(kept)
	fmt.Fprintf(&sb, truncationNotice, omitted)
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
