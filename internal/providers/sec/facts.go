package sec

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fraudscope/pkg/models"
	"github.com/seenimoa/fraudscope/pkg/utils"
)

// factUnits are tried in order for every concept.
var factUnits = []string{"USD", "USD/shares", "shares", "pure"}

// FinancialData extracts one snapshot for filing from the company's XBRL
// facts. A snapshot is Valid when it has revenue or total assets.
func (c *Client) FinancialData(ctx context.Context, filing models.Filing) (models.Snapshot, error) {
	if filing.CIK == "" {
		return models.Snapshot{Filing: filing, Error: "filing has no CIK"}, fmt.Errorf("%w: filing %s has no CIK", ErrNotFound, filing.AccessionNumber)
	}
	facts, err := c.companyFacts(ctx, utils.NormalizeCIK(filing.CIK))
	if err != nil {
		return models.Snapshot{Filing: filing, Error: err.Error()}, fmt.Errorf("fetch company facts for CIK %s: %w", filing.CIK, err)
	}
	snap := extractSnapshot(facts, filing)
	c.logger.Debug("extracted financial data",
		"accession", filing.AccessionNumber,
		"revenue", utils.FormatUSDCompact(snap.Income.Revenue),
		"net_income", utils.FormatUSDCompact(snap.Income.NetIncome),
		"valid", snap.Valid)
	return snap, nil
}

// History returns up to years annual snapshots, newest first, one per
// fiscal year. The submissions list and the company facts are fetched
// concurrently, each once.
func (c *Client) History(ctx context.Context, cik string, years int) ([]models.Snapshot, error) {
	cik = utils.NormalizeCIK(cik)
	if years <= 0 {
		years = 5
	}

	var (
		sub   *submissionsResponse
		facts *companyFactsResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sub, err = c.submissions(gctx, cik)
		return err
	})
	g.Go(func() error {
		var err error
		facts, err = c.companyFacts(gctx, cik)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch history for CIK %s: %w", cik, err)
	}

	annual := annualFilings(parseFilings(sub, cik), years)
	snaps := make([]models.Snapshot, 0, len(annual))
	for _, f := range annual {
		snaps = append(snaps, extractSnapshot(facts, f))
	}
	c.logger.Info("retrieved financial history", "cik", cik, "periods", len(snaps))
	return snaps, nil
}

// annualFilings keeps one 10-K per fiscal year, newest first, preferring
// an original 10-K over an amendment for the same year.
func annualFilings(filings []models.Filing, limit int) []models.Filing {
	out := []models.Filing{}
	index := map[int]int{}
	for _, f := range filings {
		if !f.IsAnnual() {
			continue
		}
		if i, seen := index[f.FiscalYear]; seen {
			if out[i].FormType == "10-K/A" && f.FormType == "10-K" {
				out[i] = f
			}
			continue
		}
		if len(out) >= limit {
			continue
		}
		index[f.FiscalYear] = len(out)
		out = append(out, f)
	}
	return out
}

func (c *Client) companyFacts(ctx context.Context, cik string) (*companyFactsResponse, error) {
	var facts companyFactsResponse
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, cik)
	if err := c.fetchJSON(ctx, endpointFacts, "facts:"+cik, url, &facts); err != nil {
		return nil, err
	}
	return &facts, nil
}

// --- Extraction ---

// factQuery selects facts reported for one filing period.
type factQuery struct {
	facts     map[string]conceptFacts
	year      int
	annual    bool
	accession string
	periodEnd string
}

// extractSnapshot maps us-gaap concepts onto a snapshot.
func extractSnapshot(resp *companyFactsResponse, filing models.Filing) models.Snapshot {
	snap := models.Snapshot{Filing: filing}
	if resp == nil || resp.Facts["us-gaap"] == nil {
		snap.Error = "no us-gaap facts in company data"
		return snap
	}
	year := filing.FiscalYear
	if year == 0 {
		year = utils.YearOf(filing.FiledDate)
	}
	q := factQuery{
		facts:     resp.Facts["us-gaap"],
		year:      year,
		annual:    !filing.IsQuarterly(),
		accession: filing.AccessionNumber,
		periodEnd: filing.ReportDate,
	}

	// Income statement
	is := &snap.Income
	is.Revenue = q.first("Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet")
	is.CostOfRevenue = q.first("CostOfGoodsAndServicesSold", "CostOfRevenue")
	is.GrossProfit = q.first("GrossProfit")
	if is.GrossProfit == 0 && is.Revenue > 0 && is.CostOfRevenue > 0 {
		is.GrossProfit = is.Revenue - is.CostOfRevenue
	}
	is.OperatingExpenses = q.first("OperatingExpenses", "CostsAndExpenses")
	is.RDExpense = q.first("ResearchAndDevelopmentExpense")
	is.SGAExpense = q.first("SellingGeneralAndAdministrativeExpense")
	is.Depreciation = q.first("DepreciationDepletionAndAmortization", "DepreciationAndAmortization", "Depreciation")
	is.OperatingIncome = q.first("OperatingIncomeLoss")
	is.InterestExpense = q.first("InterestExpense", "InterestExpenseNonoperating")
	is.NetIncome = q.first("NetIncomeLoss", "ProfitLoss")
	is.EPS = q.first("EarningsPerShareDiluted", "EarningsPerShareBasic")

	// Balance sheet
	bs := &snap.BalanceSheet
	bs.TotalAssets = q.first("Assets")
	bs.CurrentAssets = q.first("AssetsCurrent")
	bs.Cash = q.first("CashAndCashEquivalentsAtCarryingValue")
	bs.AccountsReceivable = q.first("AccountsReceivableNetCurrent")
	bs.Inventory = q.first("InventoryNet")
	bs.PPE = q.first("PropertyPlantAndEquipmentNet")
	bs.Goodwill = q.first("Goodwill")
	bs.IntangibleAssets = q.first("IntangibleAssetsNetExcludingGoodwill")
	bs.TotalEquity = q.first("StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest")
	bs.TotalLiabilities = q.first("Liabilities")
	if bs.TotalLiabilities == 0 && bs.TotalAssets > 0 && bs.TotalEquity != 0 {
		bs.TotalLiabilities = bs.TotalAssets - bs.TotalEquity
	}
	bs.CurrentLiabilities = q.first("LiabilitiesCurrent")
	bs.AccountsPayable = q.first("AccountsPayableCurrent")
	bs.LongTermDebt = q.first("LongTermDebt", "LongTermDebtNoncurrent")
	bs.RetainedEarnings = q.first("RetainedEarningsAccumulatedDeficit")
	bs.SharesOutstanding = q.first("CommonStockSharesOutstanding")

	// Cash flow
	cf := &snap.CashFlow
	cf.OperatingCashFlow = q.first("NetCashProvidedByUsedInOperatingActivities")
	cf.DepreciationAmortization = is.Depreciation
	cf.AccountsReceivableChange = q.first("IncreaseDecreaseInAccountsReceivable")
	cf.InventoryChange = q.first("IncreaseDecreaseInInventories")
	cf.AccountsPayableChange = q.first("IncreaseDecreaseInAccountsPayable")
	cf.InvestingCashFlow = q.first("NetCashProvidedByUsedInInvestingActivities")
	cf.CapitalExpenditures = q.first("PaymentsToAcquirePropertyPlantAndEquipment")
	cf.FinancingCashFlow = q.first("NetCashProvidedByUsedInFinancingActivities")
	cf.DividendsPaid = q.first("PaymentsOfDividends", "PaymentsOfDividendsCommonStock")
	cf.StockBuybacks = q.first("PaymentsForRepurchaseOfCommonStock")
	cf.NetChangeInCash = q.first("CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalentsPeriodIncreaseDecreaseIncludingExchangeRateEffect",
		"CashAndCashEquivalentsPeriodIncreaseDecrease")

	snap.Valid = is.Revenue > 0 || bs.TotalAssets > 0
	if !snap.Valid {
		snap.Error = fmt.Sprintf("no revenue or total assets reported for fiscal year %d", year)
	}
	return snap
}

// first returns the value of the first concept that has a matching fact.
func (q factQuery) first(concepts ...string) float64 {
	for _, name := range concepts {
		if v, ok := q.value(name); ok {
			return v
		}
	}
	return 0
}

// value finds the fact for one concept. Among facts with a matching fiscal
// year and form, those from the filing itself ending on its report date
// win; otherwise the latest period end does, since a filing also restates
// prior-year comparatives under the same fiscal year. Equal ends prefer
// the full year for annual filings and the single quarter otherwise.
func (q factQuery) value(concept string) (float64, bool) {
	cf, ok := q.facts[concept]
	if !ok {
		return 0, false
	}
	for _, unit := range factUnits {
		values, ok := cf.Units[unit]
		if !ok {
			continue
		}
		var (
			best  factValue
			found bool
		)
		for _, v := range values {
			if v.FY != q.year || !q.formMatches(v) {
				continue
			}
			if !found || q.better(v, best) {
				best, found = v, true
			}
		}
		if found {
			return best.Val, true
		}
	}
	return 0, false
}

// better reports whether a should be preferred over b.
func (q factQuery) better(a, b factValue) bool {
	if ea, eb := q.exact(a), q.exact(b); ea != eb {
		return ea
	}
	if a.End != b.End {
		return a.End > b.End
	}
	if q.annual {
		return a.Start < b.Start
	}
	return a.Start > b.Start
}

func (q factQuery) exact(v factValue) bool {
	return q.accession != "" && v.Accn == q.accession && (q.periodEnd == "" || v.End == q.periodEnd)
}

func (q factQuery) formMatches(v factValue) bool {
	if q.annual {
		return v.Form == "10-K" || v.Form == "10-K/A" || v.FP == "FY"
	}
	return v.Form == "10-Q" || v.Form == "10-Q/A" || v.FP == "Q1" || v.FP == "Q2" || v.FP == "Q3"
}
