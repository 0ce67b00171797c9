package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/seenimoa/fraudscope/pkg/models"
	"github.com/seenimoa/fraudscope/pkg/utils"
)

const maxSearchResults = 10

// LookupTicker resolves a ticker to the company's name and CIK.
// "BRK.A" and "brk-a" are equivalent.
func (c *Client) LookupTicker(ctx context.Context, ticker string) (models.Company, error) {
	normalized := utils.NormalizeTicker(ticker)
	if normalized == "" {
		return models.Company{}, fmt.Errorf("%w: empty ticker", ErrNotFound)
	}

	key := "company:ticker:" + normalized
	if data, ok := c.cache.Get(key); ok {
		var co models.Company
		if err := json.Unmarshal(data, &co); err == nil {
			return co, nil
		}
	}

	entries, err := c.tickers(ctx)
	if err != nil {
		return models.Company{}, fmt.Errorf("fetch company tickers: %w", err)
	}
	for _, e := range entries {
		if strings.EqualFold(e.Ticker, normalized) {
			co := e.company()
			if data, err := json.Marshal(co); err == nil {
				c.cache.Set(key, data)
			}
			c.logger.Info("found company", "ticker", co.Ticker, "name", co.Name, "cik", co.CIK)
			return co, nil
		}
	}
	c.logger.Warn("ticker not found", "ticker", ticker, "entries", len(entries))
	return models.Company{}, fmt.Errorf("%w: ticker %s", ErrNotFound, ticker)
}

// LookupCIK returns company metadata from the submissions endpoint.
func (c *Client) LookupCIK(ctx context.Context, cik string) (models.Company, error) {
	if !utils.IsCIK(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(cik)), "CIK")) {
		return models.Company{}, fmt.Errorf("%w: invalid CIK %q", ErrNotFound, cik)
	}
	sub, err := c.submissions(ctx, utils.NormalizeCIK(cik))
	if err != nil {
		return models.Company{}, fmt.Errorf("fetch company info for CIK %s: %w", cik, err)
	}
	return sub.company(), nil
}

// Resolve accepts a ticker or a CIK and returns full company metadata.
// Tickers are resolved through the tickers file, then enriched from the
// submissions endpoint when it is reachable.
func (c *Client) Resolve(ctx context.Context, tickerOrCIK string) (models.Company, error) {
	if utils.IsCIK(tickerOrCIK) {
		return c.LookupCIK(ctx, tickerOrCIK)
	}
	co, err := c.LookupTicker(ctx, tickerOrCIK)
	if err != nil {
		return models.Company{}, err
	}
	full, err := c.LookupCIK(ctx, co.CIK)
	if err != nil {
		c.logger.Warn("company enrichment failed", "cik", co.CIK, "error", err)
		return co, nil
	}
	if full.Ticker == "" {
		full.Ticker = co.Ticker
	}
	return full, nil
}

// Search returns up to ten companies whose name or ticker contains query,
// case-insensitively, in EDGAR's ranking order.
func (c *Client) Search(ctx context.Context, query string) ([]models.Company, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return []models.Company{}, nil
	}
	entries, err := c.tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}

	results := []models.Company{}
	for _, e := range entries {
		if strings.Contains(strings.ToUpper(e.Title), q) || strings.Contains(strings.ToUpper(e.Ticker), q) {
			results = append(results, e.company())
			if len(results) >= maxSearchResults {
				break
			}
		}
	}
	return results, nil
}

// tickers returns the company tickers file ordered by its rank keys.
func (c *Client) tickers(ctx context.Context) ([]tickerEntry, error) {
	var raw map[string]tickerEntry
	url := c.archiveURL + "/files/company_tickers.json"
	if err := c.fetchJSON(ctx, endpointTickers, "tickers", url, &raw); err != nil {
		return nil, err
	}

	type ranked struct {
		rank  int
		entry tickerEntry
	}
	rows := make([]ranked, 0, len(raw))
	for k, v := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			n = len(raw) + len(rows)
		}
		rows = append(rows, ranked{rank: n, entry: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].rank < rows[j].rank })

	entries := make([]tickerEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry
	}
	return entries, nil
}

func (c *Client) submissions(ctx context.Context, cik string) (*submissionsResponse, error) {
	var sub submissionsResponse
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, cik)
	if err := c.fetchJSON(ctx, endpointSubmissions, "submissions:"+cik, url, &sub); err != nil {
		return nil, err
	}
	if sub.CIK == "" {
		sub.CIK = cik
	}
	return &sub, nil
}

func (e tickerEntry) company() models.Company {
	return models.Company{
		Name:   e.Title,
		Ticker: e.Ticker,
		CIK:    utils.NormalizeCIK(strconv.FormatInt(e.CIK, 10)),
	}
}

func (s *submissionsResponse) company() models.Company {
	co := models.Company{
		Name:          s.Name,
		CIK:           utils.NormalizeCIK(s.CIK),
		SIC:           s.SIC,
		Industry:      s.SICDescription,
		FiscalYearEnd: s.FiscalYearEnd,
	}
	if len(s.Tickers) > 0 {
		co.Ticker = s.Tickers[0]
	}
	if len(s.Exchanges) > 0 {
		co.Exchange = s.Exchanges[0]
	}
	return co
}
