package main

import (
	"fmt"
	"io"

	"github.com/agusespa/diffscope/internal/agent"
	"github.com/agusespa/diffscope/internal/types"
	"github.com/agusespa/diffscope/pkg/spinner"
	"github.com/spf13/cobra"
)

var (
	allSymbolsFlag bool
	quietFlag      bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Order the change set, list touched symbols and scan for their usages",
	Long: `Run the full review: dependency order, changed declarations and the
files that use them, rated by impact.

The markdown report is written to review.report_path (or --output) and a short
summary is printed to stdout.

Examples:
  diffscope review
  diffscope review --base main --head HEAD -o review.md
  diffscope review --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReview(cmd, agent.ReviewOptions{Symbols: true, Impact: true, AllSymbols: allSymbolsFlag})
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List the declarations touched by the change set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSymbols(cmd, agent.ReviewOptions{Symbols: true, AllSymbols: allSymbolsFlag})
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "List the files that use declarations touched by the change set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runImpact(cmd, agent.ReviewOptions{Symbols: true, Impact: true, AllSymbols: allSymbolsFlag})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{reviewCmd, symbolsCmd, impactCmd} {
		cmd.Flags().BoolVar(&allSymbolsFlag, "all-symbols", false, "Include every declaration of a changed file, not only those the diff touches")
		rootCmd.AddCommand(cmd)
	}
	reviewCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Do not show progress")
}

func review(cmd *cobra.Command, env *environment, opts agent.ReviewOptions) (*types.ReviewResult, error) {
	opts.Base = baseFlag
	opts.Head = revision(headFlag)
	opts.Direction = types.ParseOrderDirection(directionFlag)

	if !quietFlag {
		s := spinner.New("Reviewing changes...")
		s.Start()
		defer s.Stop()
	}
	return env.agent.Review(cmd.Context(), opts)
}

func runReview(cmd *cobra.Command, opts agent.ReviewOptions) error {
	env, err := setup()
	if err != nil {
		return err
	}
	result, err := review(cmd, env, opts)
	if err != nil {
		return err
	}

	if formatFlag == "json" {
		return withOutput(cmd.OutOrStdout(), func(w io.Writer) error {
			return writeJSON(w, result)
		})
	}

	reportPath := outputFlag
	if reportPath == "" {
		reportPath = env.config.Review.ReportPath
	}
	report := agent.NewReportGenerator(env.source).GenerateMarkdownReport(cmd.Context(), result)
	if err := agent.WriteReport(reportPath, report); err != nil {
		return err
	}
	agent.PrintReviewSummary(cmd.OutOrStdout(), result, reportPath)
	return nil
}

func runSymbols(cmd *cobra.Command, opts agent.ReviewOptions) error {
	env, err := setup()
	if err != nil {
		return err
	}
	quietFlag = true
	result, err := review(cmd, env, opts)
	if err != nil {
		return err
	}

	return withOutput(cmd.OutOrStdout(), func(w io.Writer) error {
		if formatFlag == "json" {
			return writeJSON(w, result.Symbols)
		}
		for _, f := range result.Symbols {
			fmt.Fprintln(w, f.Path)
			for _, s := range f.Symbols {
				name := s.Name
				if s.OwningClass != "" {
					name = s.OwningClass + "." + s.Name
				}
				fmt.Fprintf(w, "  %d\t%s\t%s\n", s.DefinitionLine, s.Kind, name)
			}
		}
		return nil
	})
}

func runImpact(cmd *cobra.Command, opts agent.ReviewOptions) error {
	env, err := setup()
	if err != nil {
		return err
	}
	quietFlag = true
	result, err := review(cmd, env, opts)
	if err != nil {
		return err
	}

	return withOutput(cmd.OutOrStdout(), func(w io.Writer) error {
		if formatFlag == "json" {
			return writeJSON(w, result.Impact)
		}
		if result.Impact == nil {
			fmt.Fprintln(w, "no changed symbols to scan for")
			return nil
		}
		for _, f := range result.Impact.AffectedFiles {
			fmt.Fprintf(w, "%s\t%s\t%d\n", f.ImpactLevel, f.Path, len(f.Usages))
			for _, u := range f.Usages {
				fmt.Fprintf(w, "  %d:%d\t%s\t%s\n", u.Line, u.Column, u.UsageKind, u.Name)
			}
		}
		return nil
	})
}
