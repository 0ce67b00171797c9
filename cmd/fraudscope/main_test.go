package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/fraudscope/internal/analysis/composite"
	"github.com/seenimoa/fraudscope/pkg/models"
)

func period(year int, revenue, netIncome float64) models.Snapshot {
	return models.Snapshot{
		Filing: models.Filing{
			AccessionNumber: fmt.Sprintf("0000000042-%d-000001", year%100),
			FormType:        "10-K",
			PeriodType:      models.PeriodAnnual,
			FiscalYear:      year,
		},
		BalanceSheet: models.BalanceSheet{
			TotalAssets:        1000,
			CurrentAssets:      600,
			AccountsReceivable: 100,
			PPE:                200,
			TotalLiabilities:   500,
			CurrentLiabilities: 400,
			LongTermDebt:       100,
			TotalEquity:        500,
			RetainedEarnings:   200,
			SharesOutstanding:  100,
		},
		Income: models.IncomeStatement{
			Revenue:         revenue,
			GrossProfit:     revenue * 0.4,
			SGAExpense:      revenue * 0.1,
			Depreciation:    20,
			OperatingIncome: 150,
			NetIncome:       netIncome,
		},
		CashFlow: models.CashFlow{OperatingCashFlow: netIncome},
		Valid:    true,
	}
}

// writeFixtures writes a minimal config and a periods file to a temp dir.
func writeFixtures(t *testing.T, in any) (configPath, periodsPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath,
		[]byte("sec:\n  user_agent: \"Test Suite test@example.com\"\nlogging:\n  level: error\n"), 0644))

	data, err := json.Marshal(in)
	require.NoError(t, err)
	periodsPath = filepath.Join(dir, "periods.json")
	require.NoError(t, os.WriteFile(periodsPath, data, 0644))
	return configPath, periodsPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommandText(t *testing.T) {
	in := scoreInput{
		Company: models.Company{Name: "Acme Widgets Inc", Ticker: "ACME", CIK: "0000000042"},
		Periods: []models.Snapshot{period(2024, 900, 90), period(2023, 900, 90), period(2022, 850, 80)},
	}
	configPath, periodsPath := writeFixtures(t, in)

	out, err := execute(t, "score", "--config", configPath, "--file", periodsPath, "--format", "text", "--output", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Widgets Inc")
	assert.Contains(t, out, "OVERALL RISK")
	assert.Contains(t, out, "MODEL RESULTS")
}

func TestScoreCommandJSONToFile(t *testing.T) {
	periods := []models.Snapshot{period(2024, 900, 90), period(2023, 900, 90)}
	configPath, periodsPath := writeFixtures(t, periods)
	output := filepath.Join(t.TempDir(), "report.json")

	out, err := execute(t, "score", "--config", configPath, "--file", periodsPath, "--format", "json", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var a models.RiskAssessment
	require.NoError(t, json.Unmarshal(data, &a))
	assert.Equal(t, models.StatusComplete, a.Status)
	assert.Equal(t, 2, a.PeriodsAnalyzed)
	assert.Equal(t, composite.ModelVersion, a.Version)
}

func TestScoreCommandInsufficientData(t *testing.T) {
	periods := []models.Snapshot{period(2024, 900, 90)}
	configPath, periodsPath := writeFixtures(t, periods)

	out, err := execute(t, "score", "--config", configPath, "--file", periodsPath, "--format", "text", "--output", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, composite.ErrInsufficientData))
	assert.Contains(t, out, "INSUFFICIENT DATA")
}

func TestScoreCommandReportsSkippedPeriods(t *testing.T) {
	unmarked := period(2023, 900, 90)
	unmarked.Valid = false
	configPath, periodsPath := writeFixtures(t, []models.Snapshot{period(2024, 900, 90), unmarked})

	out, err := execute(t, "score", "--config", configPath, "--file", periodsPath, "--format", "text", "--output", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, composite.ErrInsufficientData))
	assert.Contains(t, out, "skipped 1 of 2 period(s)")
}

func TestScoreCommandRequiresFile(t *testing.T) {
	configPath, _ := writeFixtures(t, []models.Snapshot{})
	_, err := execute(t, "score", "--config", configPath, "--file", "", "--format", "text", "--output", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--file is required")
}

func TestVersionCommand(t *testing.T) {
	configPath, _ := writeFixtures(t, []models.Snapshot{})
	out, err := execute(t, "version", "--config", configPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "fraudscope "+version))
}

func TestParseScoreInput(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		in, err := parseScoreInput([]byte(`{"company":{"name":"Acme","ticker":"ACME"},"periods":[{"valid":true}]}`))
		require.NoError(t, err)
		assert.Equal(t, "ACME", in.Company.Ticker)
		assert.Len(t, in.Periods, 1)
	})
	t.Run("bare array", func(t *testing.T) {
		in, err := parseScoreInput([]byte("  [{\"valid\":true},{\"valid\":false}]\n"))
		require.NoError(t, err)
		assert.Len(t, in.Periods, 2)
		assert.Empty(t, in.Company.Name)
	})
	t.Run("missing periods", func(t *testing.T) {
		_, err := parseScoreInput([]byte(`{"company":{"name":"Acme"}}`))
		assert.Error(t, err)
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := parseScoreInput([]byte(`{"periods":`))
		assert.Error(t, err)
	})
}

func TestPrintBatch(t *testing.T) {
	complete := &models.RiskAssessment{
		Status:         models.StatusComplete,
		RiskLevel:      models.RiskHigh,
		CompositeScore: 0.6123,
		RedFlags:       []models.RedFlag{{}, {}},
	}
	insufficient := &models.RiskAssessment{
		Status:  models.StatusInsufficientData,
		Summary: "Insufficient data: 1 valid period(s), need 2.",
	}
	reqs := []composite.Request{
		{Company: models.Company{Ticker: "ACME", CIK: "0000000042"}},
		{Company: models.Company{Ticker: "TINY", CIK: "0000000043"}},
		{Company: models.Company{Ticker: "NOPE"}},
	}
	outcomes := []composite.Outcome{
		{Assessment: complete},
		{Assessment: insufficient},
		{Err: errors.New("not found")},
	}

	var buf bytes.Buffer
	require.NoError(t, printBatch(&buf, reqs, outcomes))
	out := buf.String()
	assert.Contains(t, out, "0.612")
	assert.Contains(t, out, string(models.RiskHigh))
	assert.Contains(t, out, "Insufficient data")
	assert.Contains(t, out, "error: not found")

	err := printBatch(&bytes.Buffer{}, reqs[2:], outcomes[2:])
	assert.Error(t, err, "an all-failed batch reports an error")
}

func TestPrintFilings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printFilings(&buf, []models.Filing{
		{FormType: "10-K", AccessionNumber: "0000000042-24-000001", FiledDate: "2024-02-01", ReportDate: "2023-12-31", FiscalYear: 2023},
		{FormType: "8-K", AccessionNumber: "0000000042-24-000002"},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "2023-12-31")
	assert.Contains(t, lines[2], "-")
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "", []byte("body")))
	assert.Equal(t, "body", buf.String())

	path := filepath.Join(t.TempDir(), "out.txt")
	buf.Reset()
	require.NoError(t, writeOutput(&buf, path, []byte("body")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "body", string(data))
	assert.Contains(t, buf.String(), path)
}
