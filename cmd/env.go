package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-screener/internal/archive"
	"github.com/sells-group/stock-screener/internal/fetcher"
	"github.com/sells-group/stock-screener/internal/ratelimit"
	"github.com/sells-group/stock-screener/internal/scan"
	"github.com/sells-group/stock-screener/internal/store"
	"github.com/sells-group/stock-screener/pkg/finnhub"
	"github.com/sells-group/stock-screener/pkg/sec"
)

// env bundles the provider clients and the store for one command
// invocation. Each provider gets its own limiter instance; nothing
// here is a package-level singleton.
type env struct {
	SEC     *sec.Client
	Finnhub *finnhub.Client
	Store   store.Store
	Archive *archive.Archiver
}

func initEnv(ctx context.Context) (*env, error) {
	secFetch := fetcher.NewHTTP(
		ratelimit.New(cfg.SEC.RateLimit, cfg.SEC.Burst),
		fetcher.HTTPOptions{
			UserAgent: cfg.SEC.UserAgent,
			Timeout:   30 * time.Second,
		})
	finnhubFetch := fetcher.NewHTTP(
		ratelimit.New(cfg.Finnhub.RateLimit, cfg.Finnhub.Burst),
		fetcher.HTTPOptions{
			Timeout: 15 * time.Second,
		})

	e := &env{
		SEC:     sec.New(secFetch, sec.Config{}),
		Finnhub: finnhub.New(finnhubFetch, finnhub.Config{BaseURL: cfg.Finnhub.BaseURL, APIKey: cfg.Finnhub.Key}),
	}

	dsn := cfg.Store.SQLitePath
	if cfg.Store.Driver == "postgres" {
		dsn = cfg.Store.DatabaseURL
	}
	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	e.Store = st

	if cfg.Archive.Enabled {
		arch, err := archive.New(cfg.Archive.Dir)
		if err != nil {
			st.Close()
			return nil, err
		}
		e.Archive = arch
	}
	return e, nil
}

// market returns the market data provider for the pipeline, or nil
// when no API key is configured so the scan runs on filings alone.
func (e *env) market() scan.MarketProvider {
	if cfg.Finnhub.Key == "" {
		return nil
	}
	return e.Finnhub
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}
