package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/fraudscope/api"
	"github.com/seenimoa/fraudscope/internal/config"
	"github.com/seenimoa/fraudscope/internal/report"
)

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		client, cleanup, err := newClient()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := cfg.API.Addr()
		fmt.Fprintf(cmd.OutOrStdout(), "Starting fraudscope API server on %s\n", addr)
		srv := api.NewServer(cfg, client, logger)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and EDGAR connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  fraudscope — System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    EDGAR:         %s\n", cfg.SEC.BaseURL)
		fmt.Fprintf(out, "    Rate limit:    %.0f req/s\n", cfg.SEC.RateLimitPerSec)
		fmt.Fprintf(out, "    Years:         %d\n", cfg.SEC.Years)
		fmt.Fprintf(out, "    Disk cache:    %s\n", diskCacheStatus())
		fmt.Fprintf(out, "    PDF engine:    %s\n", pdfEngineStatus())
		fmt.Fprintf(out, "    API Server:    %s\n", cfg.API.Addr())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Settings:")
		for _, s := range config.CheckSettings(cfg) {
			status := "✅ " + string(s.Source)
			if s.Value != "" {
				status += ": " + s.Value
			}
			if !s.OK {
				status = "❌ " + s.Warning
			}
			fmt.Fprintf(out, "    %-25s %s\n", s.Name+":", status)
		}

		if offline, _ := cmd.Flags().GetBool("offline"); !offline {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  EDGAR:         %s\n", pingEDGAR(cmd.Context()))
		}
		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("offline", false, "skip the EDGAR connectivity check")
}

func diskCacheStatus() string {
	if !cfg.Cache.DiskEnabled {
		return "disabled"
	}
	return cfg.Cache.Dir
}

func pdfEngineStatus() string {
	if e := report.DetectPDFEngine(); e != report.EngineNone {
		return string(e)
	}
	return "none (HTML fallback)"
}

func pingEDGAR(ctx context.Context) string {
	client, cleanup, err := newClient()
	if err != nil {
		return "❌ " + err.Error()
	}
	defer cleanup()

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return "❌ " + err.Error()
	}
	return "✅ reachable"
}
