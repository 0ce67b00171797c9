package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fraudscope/internal/analysis/composite"
	"github.com/seenimoa/fraudscope/internal/metrics"
	"github.com/seenimoa/fraudscope/internal/report"
	"github.com/seenimoa/fraudscope/pkg/models"
	"github.com/seenimoa/fraudscope/pkg/utils"
)

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Score a company's filings for manipulation risk",
	Long: `Fetch the latest annual 10-K financials for a company from EDGAR and run
the forensic models over them.

Examples:
  fraudscope analyze AAPL
  fraudscope analyze --cik 320193 --years 5 --format text
  fraudscope analyze MSFT --format pdf --output msft.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("cik", "", "company CIK (instead of a ticker)")
	analyzeCmd.Flags().Int("years", 0, "annual periods to analyze (default from config)")
	analyzeCmd.Flags().String("format", "text", "output format: json, csv, text, html or pdf")
	analyzeCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().String("periods-csv", "", "also export the fetched periods as CSV to this file")
	addModelFlags(analyzeCmd)
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("market-cap", 0, "market value of equity in USD for the Altman Z-Score")
	cmd.Flags().Bool("second-digit", false, "also run Benford's second-digit test")
}

// analyzerFromFlags builds the composite analyzer from config and the
// shared model flags.
func analyzerFromFlags(cmd *cobra.Command) (*composite.Analyzer, error) {
	opts := []composite.Option{composite.WithLogger(logger)}
	mc, _ := cmd.Flags().GetFloat64("market-cap")
	if mc < 0 {
		return nil, errors.New("--market-cap must be non-negative")
	}
	if mc > 0 {
		opts = append(opts, composite.WithMarketCap(mc))
	}
	sd, _ := cmd.Flags().GetBool("second-digit")
	if sd || cfg.Analysis.SecondDigit {
		opts = append(opts, composite.WithSecondDigit())
	}
	return composite.New(cfg.Analysis.Weights, opts...), nil
}

func yearsFlag(cmd *cobra.Command) (int, error) {
	years, _ := cmd.Flags().GetInt("years")
	if years == 0 {
		years = cfg.SEC.Years
	}
	if years < 2 || years > 20 {
		return 0, fmt.Errorf("--years must be between 2 and 20, got %d", years)
	}
	return years, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	started := time.Now()
	id, _ := cmd.Flags().GetString("cik")
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return errors.New("provide a ticker or --cik")
	}
	years, err := yearsFlag(cmd)
	if err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	pdf := strings.EqualFold(formatName, "pdf")
	if pdf && output == "" {
		return errors.New("--format pdf requires --output")
	}
	format := report.FormatHTML
	if !pdf {
		if format, err = report.ParseFormat(formatName); err != nil {
			return err
		}
	}
	analyzer, err := analyzerFromFlags(cmd)
	if err != nil {
		return err
	}

	client, cleanup, err := newClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	co, err := client.Resolve(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", id, err)
	}
	logger.Info("fetching financials", "company", co.Name, "cik", co.CIK, "years", years)
	periods, err := client.History(ctx, co.CIK, years)
	if err != nil {
		return fmt.Errorf("fetch financials for %s: %w", co.CIK, err)
	}

	if path, _ := cmd.Flags().GetString("periods-csv"); path != "" {
		data, err := report.PeriodsCSV(periods)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write periods: %w", err)
		}
	}

	a, analyzeErr := analyzer.Analyze(co, periods)
	if a == nil {
		return analyzeErr
	}
	metrics.ObserveAnalysis(string(a.Status), string(a.RiskLevel), started)

	if pdf {
		path, err := report.WritePDF(ctx, a, report.DefaultPDFConfig(output))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
		return analyzeErr
	}
	body, err := report.Render(a, format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), output, body); err != nil {
		return err
	}
	return analyzeErr
}

// writeOutput writes body to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, body []byte) error {
	if path == "" {
		_, err := w.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(w, "Report written to %s\n", path)
	return nil
}

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [tickers...]",
	Short: "Score several companies and print a summary table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		years, err := yearsFlag(cmd)
		if err != nil {
			return err
		}
		analyzer, err := analyzerFromFlags(cmd)
		if err != nil {
			return err
		}
		client, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		reqs := make([]composite.Request, len(args))
		fetchErrs := make([]error, len(args))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(batchLimit())
		for i, id := range args {
			g.Go(func() error {
				co, err := client.Resolve(ctx, id)
				if err != nil {
					reqs[i].Company = models.Company{Ticker: utils.NormalizeTicker(id)}
					fetchErrs[i] = err
					return nil
				}
				reqs[i].Company = co
				reqs[i].Periods, fetchErrs[i] = client.History(ctx, co.CIK, years)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		outcomes, err := analyzer.AnalyzeBatch(cmd.Context(), reqs, batchLimit())
		if err != nil {
			return err
		}
		for i := range outcomes {
			if fetchErrs[i] != nil {
				outcomes[i] = composite.Outcome{Err: fetchErrs[i]}
			}
		}
		return printBatch(cmd.OutOrStdout(), reqs, outcomes)
	},
}

func init() {
	batchCmd.Flags().Int("years", 0, "annual periods to analyze (default from config)")
	addModelFlags(batchCmd)
}

func batchLimit() int {
	if cfg.Analysis.BatchConcurrency > 0 {
		return cfg.Analysis.BatchConcurrency
	}
	return 4
}

func printBatch(w io.Writer, reqs []composite.Request, outcomes []composite.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tCIK\tLEVEL\tSCORE\tRED FLAGS\tNOTE")
	failed := 0
	for i, o := range outcomes {
		co := reqs[i].Company
		switch {
		case o.Assessment != nil && o.Assessment.Status == models.StatusComplete:
			a := o.Assessment
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%d\t\n",
				co.Ticker, co.CIK, a.RiskLevel, a.CompositeScore, len(a.RedFlags))
		case o.Assessment != nil:
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t%s\n", co.Ticker, co.CIK, o.Assessment.Summary)
		default:
			failed++
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\terror: %v\n", co.Ticker, co.CIK, o.Err)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed == len(outcomes) {
		return errors.New("every company in the batch failed")
	}
	return nil
}

// --- Score Command (offline) ---

// scoreInput is the file format read by the score command. A bare JSON
// array of snapshots is also accepted.
type scoreInput struct {
	Company models.Company    `json:"company"`
	Periods []models.Snapshot `json:"periods"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score financial periods from a JSON file without contacting EDGAR",
	Long: `Score financial periods from a JSON file without contacting EDGAR.

The file holds either {"company": {...}, "periods": [...]} or a bare array
of periods, newest first. Each period must carry "valid": true; periods
without it are skipped and reported on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return errors.New("--file is required")
		}
		formatName, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		in, err := parseScoreInput(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		analyzer, err := analyzerFromFlags(cmd)
		if err != nil {
			return err
		}
		if skipped := len(in.Periods) - len(composite.ValidPeriods(in.Periods)); skipped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d of %d period(s) not marked \"valid\": true\n",
				skipped, len(in.Periods))
		}

		a, analyzeErr := analyzer.Analyze(in.Company, in.Periods)
		if a == nil {
			return analyzeErr
		}
		body, err := report.Render(a, format)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if err := writeOutput(cmd.OutOrStdout(), output, body); err != nil {
			return err
		}
		return analyzeErr
	},
}

func init() {
	scoreCmd.Flags().StringP("file", "f", "", "JSON file with periods to score")
	scoreCmd.Flags().String("format", "text", "output format: json, csv, text or html")
	scoreCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	addModelFlags(scoreCmd)
}

func parseScoreInput(data []byte) (scoreInput, error) {
	data = bytes.TrimSpace(data)
	var in scoreInput
	if len(data) > 0 && data[0] == '[' {
		err := json.Unmarshal(data, &in.Periods)
		return in, err
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, err
	}
	if in.Periods == nil {
		return in, errors.New(`missing "periods"`)
	}
	return in, nil
}

// withTimeout bounds ctx by the configured EDGAR timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cfg.SEC.Timeout())
}
