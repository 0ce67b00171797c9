package sec

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/fraudscope/pkg/models"
	"github.com/seenimoa/fraudscope/pkg/utils"
)

const maxFilings = 100

// analysisForms are the forms kept by Filings.
var analysisForms = map[string]bool{
	"10-K":   true,
	"10-K/A": true,
	"10-Q":   true,
	"10-Q/A": true,
	"8-K":    true,
}

// Filings returns the company's recent 10-K, 10-Q and 8-K filings
// (amendments included), newest first. At most 100 recent rows are scanned.
func (c *Client) Filings(ctx context.Context, cik string) ([]models.Filing, error) {
	cik = utils.NormalizeCIK(cik)
	sub, err := c.submissions(ctx, cik)
	if err != nil {
		return nil, fmt.Errorf("fetch filings for CIK %s: %w", cik, err)
	}
	return parseFilings(sub, cik), nil
}

func parseFilings(sub *submissionsResponse, cik string) []models.Filing {
	recent := sub.Filings.Recent
	n := len(recent.Form)
	if len(recent.FilingDate) < n {
		n = len(recent.FilingDate)
	}
	if len(recent.AccessionNumber) < n {
		n = len(recent.AccessionNumber)
	}
	if n > maxFilings {
		n = maxFilings
	}

	filings := []models.Filing{}
	for i := 0; i < n; i++ {
		form := recent.Form[i]
		if !analysisForms[form] {
			continue
		}
		f := models.Filing{
			CIK:             cik,
			AccessionNumber: recent.AccessionNumber[i],
			FormType:        form,
			FiledDate:       recent.FilingDate[i],
		}
		if i < len(recent.ReportDate) {
			f.ReportDate = recent.ReportDate[i]
		}
		// Fiscal year from the period end, else the filing date.
		f.FiscalYear = utils.YearOf(f.ReportDate)
		if f.FiscalYear == 0 {
			f.FiscalYear = utils.YearOf(f.FiledDate)
		}
		switch {
		case f.IsAnnual():
			f.PeriodType = models.PeriodAnnual
		case f.IsQuarterly():
			f.PeriodType = models.PeriodQuarterly
		}
		filings = append(filings, f)
	}
	return filings
}

// FilingsByType returns up to count filings of the given form type.
func (c *Client) FilingsByType(ctx context.Context, cik, formType string, count int) ([]models.Filing, error) {
	all, err := c.Filings(ctx, cik)
	if err != nil {
		return nil, err
	}
	filtered := []models.Filing{}
	for _, f := range all {
		if f.FormType == formType {
			filtered = append(filtered, f)
			if count > 0 && len(filtered) >= count {
				break
			}
		}
	}
	return filtered, nil
}

// --- Atom feed ---

// FilingFeed returns the EDGAR Atom feed of a company's filings of the
// given form ("" for all forms).
func (c *Client) FilingFeed(ctx context.Context, cik, form string) ([]FeedEntry, error) {
	cik = utils.NormalizeCIK(cik)
	q := url.Values{}
	q.Set("action", "getcompany")
	q.Set("CIK", cik)
	q.Set("type", form)
	q.Set("dateb", "")
	q.Set("owner", "include")
	q.Set("count", "40")
	q.Set("output", "atom")
	u := c.archiveURL + "/cgi-bin/browse-edgar?" + q.Encode()

	data, err := c.fetch(ctx, endpointFeed, "feed:"+cik+":"+form, u)
	if err != nil {
		return nil, fmt.Errorf("fetch filing feed for CIK %s: %w", cik, err)
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		c.cache.Delete("feed:" + cik + ":" + form)
		return nil, fmt.Errorf("parse filing feed: %w", err)
	}

	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		e := FeedEntry{
			Title:           strings.TrimSpace(item.Title),
			Link:            item.Link,
			Summary:         cleanHTML(item.Description),
			AccessionNumber: accessionFromID(item.GUID),
		}
		if len(item.Categories) > 0 {
			e.FormType = item.Categories[0]
		}
		switch {
		case item.UpdatedParsed != nil:
			e.Updated = item.UpdatedParsed.UTC()
		case item.PublishedParsed != nil:
			e.Updated = item.PublishedParsed.UTC()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// accessionFromID extracts the accession number from an EDGAR Atom id such
// as "urn:tag:sec.gov,2008:accession-number=0000320193-23-000106".
func accessionFromID(id string) string {
	const marker = "accession-number="
	if i := strings.Index(id, marker); i >= 0 {
		return id[i+len(marker):]
	}
	return ""
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// --- Filing index ---

// FilingDocuments lists the documents of one filing from its index page.
func (c *Client) FilingDocuments(ctx context.Context, cik, accession string) ([]FilingDocument, error) {
	u := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s-index.htm",
		c.archiveURL, utils.TrimCIK(cik), utils.AccessionPath(accession), accession)

	data, err := c.fetch(ctx, endpointIndex, "index:"+accession, u)
	if err != nil {
		return nil, fmt.Errorf("fetch filing index %s: %w", accession, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse filing index HTML: %w", err)
	}

	docs := []FilingDocument{}
	doc.Find("table.tableFile").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return // header row
		}
		link := cells.Eq(2).Find("a").First()
		d := FilingDocument{
			Seq:         strings.TrimSpace(cells.Eq(0).Text()),
			Description: strings.TrimSpace(cells.Eq(1).Text()),
			Document:    strings.TrimSpace(link.Text()),
			Type:        strings.TrimSpace(cells.Eq(3).Text()),
		}
		if cells.Length() > 4 {
			d.Size = strings.TrimSpace(cells.Eq(4).Text())
		}
		if d.Document == "" {
			d.Document = strings.TrimSpace(cells.Eq(2).Text())
		}
		if href, ok := link.Attr("href"); ok {
			d.URL = c.documentURL(href)
		}
		docs = append(docs, d)
	})
	return docs, nil
}

// documentURL resolves an index href, unwrapping inline XBRL viewer links.
func (c *Client) documentURL(href string) string {
	href = strings.TrimPrefix(href, "/ix?doc=")
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.archiveURL + href
}
