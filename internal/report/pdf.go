package report

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/seenimoa/fraudscope/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// PDF export: HTML → PDF via wkhtmltopdf or headless chromium
// ════════════════════════════════════════════════════════════════════

// PDFEngine names an external HTML→PDF converter.
type PDFEngine string

const (
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none"
)

var chromiumBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// PDFConfig holds PDF page settings.
type PDFConfig struct {
	Engine     PDFEngine // empty auto-detects
	PageSize   string
	MarginMM   int
	OutputPath string
}

// DefaultPDFConfig returns A4 with 12mm margins.
func DefaultPDFConfig(output string) PDFConfig {
	return PDFConfig{PageSize: "A4", MarginMM: 12, OutputPath: output}
}

// DetectPDFEngine returns the first converter found on PATH.
func DetectPDFEngine() PDFEngine {
	if _, err := lookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML
	}
	for _, name := range chromiumBinaries {
		if _, err := lookPath(name); err == nil {
			return EngineChromium
		}
	}
	return EngineNone
}

// WritePDF renders a as HTML and converts it to cfg.OutputPath. Without a
// converter the HTML is written next to it with an .html extension; the
// returned path is the file actually written.
func WritePDF(ctx context.Context, a *models.RiskAssessment, cfg PDFConfig) (string, error) {
	html, err := HTML(a)
	if err != nil {
		return "", err
	}
	return GeneratePDF(ctx, html, cfg)
}

// GeneratePDF converts an HTML document to a PDF file.
func GeneratePDF(ctx context.Context, html string, cfg PDFConfig) (string, error) {
	if cfg.OutputPath == "" {
		return "", fmt.Errorf("pdf export: output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	engine := cfg.Engine
	if engine == "" {
		engine = DetectPDFEngine()
	}
	switch engine {
	case EngineWKHTML:
		return cfg.OutputPath, convert(ctx, html, func(src string) *exec.Cmd {
			return exec.CommandContext(ctx, "wkhtmltopdf",
				"--page-size", cfg.PageSize,
				"--margin-top", fmt.Sprintf("%dmm", cfg.MarginMM),
				"--margin-bottom", fmt.Sprintf("%dmm", cfg.MarginMM),
				"--margin-left", fmt.Sprintf("%dmm", cfg.MarginMM),
				"--margin-right", fmt.Sprintf("%dmm", cfg.MarginMM),
				"--encoding", "UTF-8",
				"--enable-local-file-access",
				"--quiet",
				src, cfg.OutputPath)
		})
	case EngineChromium:
		bin := ""
		for _, name := range chromiumBinaries {
			if p, err := lookPath(name); err == nil {
				bin = p
				break
			}
		}
		if bin == "" {
			return "", fmt.Errorf("chromium not found in PATH")
		}
		abs, err := filepath.Abs(cfg.OutputPath)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		return cfg.OutputPath, convert(ctx, html, func(src string) *exec.Cmd {
			return exec.CommandContext(ctx, bin,
				"--headless", "--disable-gpu", "--no-sandbox",
				"--print-to-pdf="+abs, "--print-to-pdf-no-header",
				"file://"+src)
		})
	case EngineNone:
		return writeHTMLFallback(html, cfg.OutputPath)
	}
	return "", fmt.Errorf("unsupported PDF engine %q", engine)
}

func convert(ctx context.Context, html string, command func(src string) *exec.Cmd) error {
	tmp, err := os.CreateTemp("", "fraudscope-report-*.html")
	if err != nil {
		return fmt.Errorf("create temp HTML: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(html); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp HTML: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write temp HTML: %w", err)
	}

	cmd := command(tmp.Name())
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w\nOutput: %s", filepath.Base(cmd.Path), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func writeHTMLFallback(html, outputPath string) (string, error) {
	if strings.HasSuffix(strings.ToLower(outputPath), ".pdf") {
		outputPath = outputPath[:len(outputPath)-4] + ".html"
	}
	if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write HTML fallback: %w", err)
	}
	return outputPath, nil
}
