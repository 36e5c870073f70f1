package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-screener/internal/fetcher"
	"github.com/sells-group/stock-screener/internal/ratelimit"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fetch := fetcher.NewHTTP(ratelimit.New(1000, 1000), fetcher.HTTPOptions{
		Timeout: 5 * time.Second,
		Sleep:   func(ctx context.Context, d time.Duration) {},
	})
	return New(fetch, Config{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestQuote(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		require.Equal(t, "test-key", r.URL.Query().Get("token"))
		w.Write([]byte(`{"c": 191.45, "h": 193.1, "l": 190.2, "o": 192.0, "pc": 190.9, "t": 1700000000}`))
	}))

	q, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 191.45, q.Current)
	assert.Equal(t, 190.9, q.PreviousClose)
}

func TestProfile(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/profile2", r.URL.Path)
		w.Write([]byte(`{"name": "Apple Inc", "finnhubIndustry": "Technology", "marketCapitalization": 2950000}`))
	}))

	p, err := client.Profile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Technology", p.Industry)
	assert.Equal(t, 2950000.0, p.MarketCap)
}

func TestProfile_UnknownSymbolIsZeroProfile(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	p, err := client.Profile(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, p.Industry)
}

func TestBasicFinancials(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/metric", r.URL.Path)
		require.Equal(t, "all", r.URL.Query().Get("metric"))
		w.Write([]byte(`{"metric": {"payoutRatioTTM": 24.6, "currentDividendYieldTTM": 0.55}}`))
	}))

	m, err := client.BasicFinancials(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, m.PayoutRatioTTM)
	assert.Equal(t, 24.6, *m.PayoutRatioTTM)
	require.NotNil(t, m.DividendYieldTTM)
	assert.Equal(t, 0.55, *m.DividendYieldTTM)
	assert.Nil(t, m.PERatioTTM)
}
