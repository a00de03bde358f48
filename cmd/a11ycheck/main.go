package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/a11ycheck/internal/engine"
	"github.com/dshills/a11ycheck/internal/export"
	"github.com/dshills/a11ycheck/internal/judgment"
	"github.com/dshills/a11ycheck/internal/page"
	"github.com/dshills/a11ycheck/internal/profile"
	"github.com/dshills/a11ycheck/internal/registry"
	"github.com/dshills/a11ycheck/internal/scanner"
	"github.com/dshills/a11ycheck/internal/schema"
)

func main() {
	root := &cobra.Command{
		Use:   "a11ycheck",
		Short: "WCAG evaluation aggregation and scoring",
	}

	root.AddCommand(newAuditCmd())
	root.AddCommand(newCriteriaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type auditFlags struct {
	axeResults  string
	pageContent string
	url         string
	levels      []string
	ai          bool
	provider    string
	model       string
	maxTokens   int
	temperature float64
	profileName string
	format      string
	out         string
	configPath  string
	debug       bool
}

func newAuditCmd() *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Aggregate scanner and AI evidence into a compliance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.axeResults, "axe-results", "", "path to an axe-core results JSON file")
	cmd.Flags().StringVar(&flags.pageContent, "page-content", "", "path to a page-content JSON file (required with --ai)")
	cmd.Flags().StringVar(&flags.url, "url", "", "evaluated page URL (defaults to the one in the axe results)")
	cmd.Flags().StringSliceVar(&flags.levels, "levels", []string{"A", "AA"}, "conformance levels to judge with AI")
	cmd.Flags().BoolVar(&flags.ai, "ai", false, "run AI judgment on criteria automation cannot cover")
	cmd.Flags().StringVar(&flags.provider, "provider", "anthropic", "AI provider: anthropic, openai, or google")
	cmd.Flags().StringVar(&flags.model, "model", "claude-sonnet-4-20250514", "AI model name")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 2048, "maximum AI response tokens per criterion")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", 0.2, "AI sampling temperature")
	cmd.Flags().StringVar(&flags.profileName, "profile", "general", "audit profile: general, strict, or lenient")
	cmd.Flags().StringVar(&flags.format, "format", "json", "output format: json, html, csv, or markdown")
	cmd.Flags().StringVar(&flags.out, "out", "", "output path (default: the format's standard filename)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a YAML config overriding scoring thresholds")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "print AI prompts to stderr")

	return cmd
}

func runAudit(cmd *cobra.Command, flags auditFlags) error {
	if flags.axeResults == "" && !flags.ai {
		return fmt.Errorf("nothing to do: provide --axe-results, --ai, or both")
	}

	reg, err := registry.Load()
	if err != nil {
		return err
	}

	cfg := engine.DefaultConfig()
	if flags.configPath != "" {
		cfg, err = engine.LoadConfig(flags.configPath)
		if err != nil {
			return err
		}
	}

	var raws []schema.RawFinding
	url := flags.url

	if flags.axeResults != "" {
		data, err := os.ReadFile(flags.axeResults)
		if err != nil {
			return fmt.Errorf("read axe results: %w", err)
		}
		scanned, err := scanner.Parse(data)
		if err != nil {
			return err
		}
		raws = append(raws, scanned...)
		if url == "" {
			url = scanner.URL(data)
		}
	}

	var judgmentDiags []schema.Diagnostic
	if flags.ai {
		if flags.pageContent == "" {
			return fmt.Errorf("--ai requires --page-content")
		}
		data, err := os.ReadFile(flags.pageContent)
		if err != nil {
			return fmt.Errorf("read page content: %w", err)
		}
		content, err := page.Parse(data)
		if err != nil {
			return err
		}
		if url == "" {
			url = content.URL
		}

		prof, err := profile.Load(flags.profileName)
		if err != nil {
			return err
		}
		criteria, err := judgeTargets(reg, flags.levels)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "a11ycheck: judging %d criteria with %s\n", len(criteria), flags.provider)
		judged, diags, err := judgment.Assess(cmd.Context(), criteria, content, prof, judgment.Options{
			Provider:    flags.provider,
			Model:       flags.model,
			MaxTokens:   flags.maxTokens,
			Temperature: flags.temperature,
			Debug:       flags.debug,
		})
		if err != nil {
			return err
		}
		raws = append(raws, judged...)
		judgmentDiags = diags
	}

	report, diags, err := engine.Evaluate(raws, reg, engine.Options{URL: url, Config: &cfg})
	if err != nil {
		return err
	}
	diags = append(judgmentDiags, diags...)
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "a11ycheck: %s: %s: %s\n", d.Stage, d.CriterionID, d.Message)
	}

	payload, err := export.Export(report, export.Format(flags.format))
	if err != nil {
		return err
	}
	out := flags.out
	if out == "" {
		out = payload.Filename
	}
	if out == "-" {
		_, err = os.Stdout.Write(payload.Data)
		return err
	}
	if err := os.WriteFile(out, payload.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "a11ycheck: wrote %s\n", out)
	return nil
}

// judgeTargets selects the criteria to send to AI judgment: the manual-only
// criteria within the requested conformance levels. Automatable criteria are
// the scanner's job.
func judgeTargets(reg *registry.Registry, levels []string) ([]schema.Criterion, error) {
	want := make(map[schema.ConformanceLevel]bool, len(levels))
	for _, l := range levels {
		level := schema.ConformanceLevel(strings.ToUpper(strings.TrimSpace(l)))
		switch level {
		case schema.LevelA, schema.LevelAA, schema.LevelAAA:
			want[level] = true
		default:
			return nil, fmt.Errorf("unknown conformance level %q", l)
		}
	}
	var out []schema.Criterion
	for _, c := range reg.ManualOnly() {
		if want[c.Level] {
			out = append(out, c)
		}
	}
	return out, nil
}

func newCriteriaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "criteria",
		Short: "List the success criteria in the built-in catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load()
			if err != nil {
				return err
			}
			fmt.Printf("WCAG %s, %d criteria\n", reg.WCAGVersion(), reg.Len())
			for _, id := range reg.IDs() {
				c, _ := reg.Lookup(id)
				auto := "manual"
				if c.Automatable {
					auto = "automatable"
				}
				fmt.Printf("  %-7s %-4s %-12s %s\n", c.ID, c.Level, auto, c.Title)
			}
			return nil
		},
	}
}
