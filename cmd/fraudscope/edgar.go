package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seenimoa/fraudscope/pkg/models"
	"github.com/seenimoa/fraudscope/pkg/utils"
)

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search EDGAR companies by name or ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		matches, err := client.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), matches)
		}
		if len(matches) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No companies match %q\n", args[0])
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tCIK\tNAME")
		for _, c := range matches {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Ticker, c.CIK, c.Name)
		}
		return tw.Flush()
	},
}

// --- Filings Command ---

var filingsCmd = &cobra.Command{
	Use:   "filings [ticker]",
	Short: "List a company's recent filings",
	Long: `List a company's recent filings from the submissions API, or from the
EDGAR Atom feed with --feed.

Examples:
  fraudscope filings AAPL --form 10-K
  fraudscope filings AAPL --feed --form 8-K`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form, _ := cmd.Flags().GetString("form")
		count, _ := cmd.Flags().GetInt("count")
		feed, _ := cmd.Flags().GetBool("feed")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		co, err := client.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if feed {
			entries, err := client.FilingFeed(ctx, co.CIK, form)
			if err != nil {
				return err
			}
			if count > 0 && len(entries) > count {
				entries = entries[:count]
			}
			if asJSON {
				return printJSON(out, entries)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FORM\tACCESSION\tUPDATED\tLINK")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.FormType, e.AccessionNumber, dash(utils.FormatDate(e.Updated)), e.Link)
			}
			return tw.Flush()
		}

		var filings []models.Filing
		if form != "" {
			filings, err = client.FilingsByType(ctx, co.CIK, form, count)
		} else {
			filings, err = client.Filings(ctx, co.CIK)
			if count > 0 && len(filings) > count {
				filings = filings[:count]
			}
		}
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, filings)
		}
		fmt.Fprintf(out, "%s (CIK %s)\n\n", co.Name, co.CIK)
		return printFilings(out, filings)
	},
}

func init() {
	searchCmd.Flags().Bool("json", false, "print JSON")
	filingsCmd.Flags().String("form", "", "only this form type, e.g. 10-K")
	filingsCmd.Flags().Int("count", 20, "maximum filings to list (0 for all)")
	filingsCmd.Flags().Bool("feed", false, "read the EDGAR Atom feed instead of the submissions API")
	filingsCmd.Flags().Bool("json", false, "print JSON")
	documentsCmd.Flags().Bool("json", false, "print JSON")
}

func printFilings(w io.Writer, filings []models.Filing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FORM\tACCESSION\tFILED\tPERIOD\tFY")
	for _, f := range filings {
		fy := "-"
		if f.FiscalYear > 0 {
			fy = fmt.Sprint(f.FiscalYear)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.FormType, f.AccessionNumber, dash(f.FiledDate), dash(f.ReportDate), fy)
	}
	return tw.Flush()
}

// --- Documents Command ---

var documentsCmd = &cobra.Command{
	Use:   "documents [ticker] [accession]",
	Short: "List the documents in one filing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		co, err := client.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		docs, err := client.FilingDocuments(ctx, co.CIK, args[1])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), docs)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tTYPE\tDOCUMENT\tSIZE\tDESCRIPTION")
		for _, d := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Seq, d.Type, d.Document, d.Size, d.Description)
		}
		return tw.Flush()
	},
}

// --- Cache Command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the EDGAR response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached EDGAR response, including the disk cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := client.ClearCache()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d in-memory entries", n)
		if cfg.Cache.DiskEnabled {
			fmt.Fprintf(cmd.OutOrStdout(), " and the disk cache at %s", cfg.Cache.Dir)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
