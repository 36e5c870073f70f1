// Package finnhub wraps the Finnhub market data endpoints: current
// quote, company profile, and basic financial metrics.
package finnhub

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-screener/internal/fetcher"
)

// DefaultBaseURL is the public Finnhub REST host.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Config configures the Finnhub client.
type Config struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Quote is a current price quote.
type Quote struct {
	Current       float64 `json:"c"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Profile is the slim company profile, enough for sector
// classification and sizing.
type Profile struct {
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	Currency     string  `json:"currency"`
	Exchange     string  `json:"exchange"`
	Industry     string  `json:"finnhubIndustry"`
	MarketCap    float64 `json:"marketCapitalization"`
	SharesOutst  float64 `json:"shareOutstanding"`
	IPODate      string  `json:"ipo"`
	WebURL       string  `json:"weburl"`
	TickerSymbol string  `json:"ticker"`
}

// Metrics holds the subset of basic financials the screener consumes.
// Pointer fields distinguish "not reported" from zero; ratio values
// are in percent, as Finnhub reports them.
type Metrics struct {
	PayoutRatioTTM   *float64 `json:"payoutRatioTTM"`
	DividendYieldTTM *float64 `json:"currentDividendYieldTTM"`
	PERatioTTM       *float64 `json:"peTTM"`
	ROETTM           *float64 `json:"roeTTM"`
}

type basicFinancials struct {
	Metric Metrics `json:"metric"`
}

// Client calls the Finnhub REST API. Rate limiting and retries live in
// the injected fetcher.
type Client struct {
	fetch fetcher.Client
	cfg   Config
}

// New creates a Finnhub client.
func New(fetch fetcher.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{fetch: fetch, cfg: cfg}
}

func (c *Client) get(ctx context.Context, endpoint, symbol string, extra url.Values, out any) error {
	q := url.Values{}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("symbol", symbol)
	q.Set("token", c.cfg.APIKey)

	body, err := c.fetch.Get(ctx, c.cfg.BaseURL+endpoint+"?"+q.Encode())
	if err != nil {
		return eris.Wrapf(err, "finnhub: get %s symbol=%s", endpoint, symbol)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "finnhub: parse %s response", endpoint)
	}
	return nil
}

// Quote returns the current quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	var q Quote
	err := c.get(ctx, "/quote", symbol, nil, &q)
	return q, err
}

// Profile returns the company profile for a symbol. Finnhub answers
// an empty object for unknown symbols, which comes back as the zero
// Profile rather than an error.
func (c *Client) Profile(ctx context.Context, symbol string) (Profile, error) {
	var p Profile
	err := c.get(ctx, "/stock/profile2", symbol, nil, &p)
	return p, err
}

// BasicFinancials returns the TTM metric block for a symbol.
func (c *Client) BasicFinancials(ctx context.Context, symbol string) (Metrics, error) {
	var bf basicFinancials
	err := c.get(ctx, "/stock/metric", symbol, url.Values{"metric": {"all"}}, &bf)
	return bf.Metric, err
}
