// fraudscope scores SEC registrants for financial-statement manipulation
// risk using forensic accounting models over EDGAR XBRL data.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seenimoa/fraudscope/api"
	"github.com/seenimoa/fraudscope/internal/config"
	"github.com/seenimoa/fraudscope/internal/infra"
	"github.com/seenimoa/fraudscope/internal/providers/sec"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fraudscope",
	Short: "fraudscope — forensic risk scoring for SEC filers",
	Long: `fraudscope pulls annual XBRL financials from SEC EDGAR and scores each
company for earnings-manipulation and distress risk with the Beneish M-Score,
Altman Z-Score, Piotroski F-Score, Benford's Law and accruals quality models.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		logger = infra.NewLogger(level, cfg.Logging.Format, os.Stderr)
		slog.SetDefault(logger)
		api.Version = version
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(filingsCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newClient builds the EDGAR client from cfg. The returned cleanup closes
// the disk cache when one was opened.
func newClient() (*sec.Client, func(), error) {
	opts := sec.Options{
		UserAgent:       cfg.SEC.UserAgent,
		BaseURL:         cfg.SEC.BaseURL,
		ArchiveURL:      cfg.SEC.ArchiveURL,
		RateLimitPerSec: cfg.SEC.RateLimitPerSec,
		Timeout:         cfg.SEC.Timeout(),
		CacheTTL:        cfg.Cache.TTL(),
		Logger:          logger,
	}
	cleanup := func() {}
	if cfg.Cache.DiskEnabled {
		disk, err := infra.OpenDiskCache(infra.DiskCacheConfig{
			Dir:    cfg.Cache.Dir,
			TTL:    cfg.Cache.TTL(),
			Logger: logger,
		})
		if err != nil {
			return nil, nil, err
		}
		opts.Disk = disk
		cleanup = func() {
			if err := disk.Close(); err != nil {
				logger.Warn("closing disk cache", "error", err)
			}
		}
	}
	return sec.New(opts), cleanup, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fraudscope %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}
