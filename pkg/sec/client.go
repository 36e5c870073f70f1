// Package sec wraps the SEC EDGAR data endpoints used by the screener:
// the company ticker universe and per-company XBRL facts.
package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-screener/internal/fetcher"
)

const (
	// DefaultAPIBaseURL serves the structured XBRL endpoints.
	DefaultAPIBaseURL = "https://data.sec.gov"
	// DefaultFilesBaseURL serves static files such as the ticker list.
	DefaultFilesBaseURL = "https://www.sec.gov"
)

// Config configures the EDGAR client. Zero values fall back to the
// public SEC hosts.
type Config struct {
	APIBaseURL   string `mapstructure:"api_base_url"`
	FilesBaseURL string `mapstructure:"files_base_url"`
}

// TickerEntry is one row of the SEC company tickers file.
type TickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Client fetches EDGAR documents. All network access goes through the
// injected fetcher, which owns rate limiting and retries.
type Client struct {
	fetch fetcher.Client
	cfg   Config
}

// New creates an EDGAR client.
func New(fetch fetcher.Client, cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.FilesBaseURL == "" {
		cfg.FilesBaseURL = DefaultFilesBaseURL
	}
	return &Client{fetch: fetch, cfg: cfg}
}

// CompanyTickers downloads the full ticker universe, sorted by ticker
// symbol for deterministic iteration. The upstream file is keyed by
// arbitrary index strings, which are discarded.
func (c *Client) CompanyTickers(ctx context.Context) ([]TickerEntry, error) {
	body, err := c.fetch.Get(ctx, c.cfg.FilesBaseURL+"/files/company_tickers.json")
	if err != nil {
		return nil, eris.Wrap(err, "sec: fetch company tickers")
	}

	var raw map[string]TickerEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "sec: parse company tickers")
	}
	entries := make([]TickerEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Ticker < entries[j].Ticker })
	return entries, nil
}

// CompanyFacts downloads the raw XBRL company facts document for one
// CIK. The CIK is zero padded to ten digits as the endpoint requires.
// A 404 surfaces as fetcher.ErrNotFound: plenty of listed tickers have
// no facts document and the caller decides what that means.
func (c *Client) CompanyFacts(ctx context.Context, cik int) ([]byte, error) {
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%010d.json", c.cfg.APIBaseURL, cik)
	body, err := c.fetch.Get(ctx, url)
	if err != nil {
		if fetcher.IsNotFound(err) {
			return nil, err
		}
		return nil, eris.Wrapf(err, "sec: fetch company facts cik=%d", cik)
	}
	return body, nil
}
