// Package scan runs the screening pipeline over the ticker universe:
// fetch, normalize, evaluate, and append to a resumable CSV report.
package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/stock-screener/internal/archive"
	"github.com/sells-group/stock-screener/internal/fetcher"
	"github.com/sells-group/stock-screener/internal/fundamentals"
	"github.com/sells-group/stock-screener/internal/store"
	"github.com/sells-group/stock-screener/internal/strategy"
	"github.com/sells-group/stock-screener/internal/xbrl"
	"github.com/sells-group/stock-screener/pkg/finnhub"
	"github.com/sells-group/stock-screener/pkg/sec"
)

// FactsProvider fetches raw XBRL company facts.
type FactsProvider interface {
	CompanyFacts(ctx context.Context, cik int) ([]byte, error)
}

// MarketProvider fetches quotes, profiles, and TTM metrics.
type MarketProvider interface {
	Quote(ctx context.Context, symbol string) (finnhub.Quote, error)
	Profile(ctx context.Context, symbol string) (finnhub.Profile, error)
	BasicFinancials(ctx context.Context, symbol string) (finnhub.Metrics, error)
}

// Options configures one scan run. SectorLimits may be nil to use the
// built-in debt to equity bands.
type Options struct {
	OutputPath     string
	CheckpointPath string
	Concurrency    int
	AnnualYears    int
	Quarters       int
	SectorLimits   *strategy.SectorLimits
}

// Summary counts the outcomes of a run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Orchestrator drives the per-ticker pipeline over a universe with a
// bounded worker pool. Persistence is the only shared write path and
// is serialized under one mutex; a ticker is only marked complete
// after its rows are durable in the report.
type Orchestrator struct {
	opts       Options
	facts      FactsProvider
	market     MarketProvider
	st         store.Store
	arch       *archive.Archiver
	builder    *fundamentals.Builder
	calc       *fundamentals.Calculator
	evaluators []strategy.Evaluator
}

// New creates an orchestrator. market and arch may be nil; the
// pipeline then runs on filings alone. st may be nil to skip the
// store and produce only the CSV report.
func New(opts Options, facts FactsProvider, market MarketProvider, st store.Store, arch *archive.Archiver) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	reg := fundamentals.DefaultRegistry()
	return &Orchestrator{
		opts:       opts,
		facts:      facts,
		market:     market,
		st:         st,
		arch:       arch,
		builder:    fundamentals.NewBuilder(reg),
		calc:       fundamentals.NewCalculator(reg),
		evaluators: strategy.All(opts.SectorLimits),
	}
}

// tickerResult is everything one ticker's pipeline produced.
type tickerResult struct {
	company   fundamentals.Company
	annual    []fundamentals.AnnualRecord
	quarterly []fundamentals.QuarterlyRecord
	verdicts  []strategy.Verdict
}

// Run processes the universe. On interrupt it stops picking up new
// tickers, lets in-flight ones finish, and leaves the checkpoint in
// place; on natural completion the checkpoint is removed.
func (o *Orchestrator) Run(ctx context.Context, universe []sec.TickerEntry) (Summary, error) {
	var sum Summary

	resumed, err := o.resumeSet()
	if err != nil {
		return sum, err
	}
	if len(resumed) > 0 {
		zap.L().Info("resuming scan",
			zap.Int("already_written", len(resumed)),
			zap.String("output", o.opts.OutputPath))
	}

	// Workers mark completions in their own copy under mu; the
	// dispatch loop only ever reads the immutable resumed snapshot.
	done := make(map[string]bool, len(resumed))
	for ticker := range resumed {
		done[ticker] = true
	}

	writer, err := OpenReport(o.opts.OutputPath)
	if err != nil {
		return sum, err
	}
	defer writer.Close()

	if err := WriteCheckpoint(o.opts.CheckpointPath, Checkpoint{OutputPath: o.opts.OutputPath}); err != nil {
		return sum, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Concurrency)

	for _, entry := range universe {
		if resumed[entry.Ticker] {
			sum.Skipped++
			continue
		}
		// Stop dispatching between tickers once the run is canceled;
		// in-flight workers drain on their own.
		if gctx.Err() != nil {
			break
		}

		entry := entry
		g.Go(func() error {
			res, err := o.process(gctx, entry)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				if fetcher.IsNotFound(err) {
					sum.Skipped++
				} else {
					sum.Failed++
				}
				mu.Unlock()
				logTickerFailure(entry.Ticker, err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if done[entry.Ticker] {
				return nil
			}
			if err := o.persist(gctx, writer, res); err != nil {
				// A persistence failure poisons the checkpoint
				// invariant, so it aborts the whole run.
				return err
			}
			done[entry.Ticker] = true
			sum.Processed++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return sum, err
	}
	if ctx.Err() != nil {
		zap.L().Warn("scan interrupted, checkpoint kept",
			zap.Int("processed", sum.Processed))
		return sum, ctx.Err()
	}

	if err := RemoveCheckpoint(o.opts.CheckpointPath); err != nil {
		return sum, err
	}
	zap.L().Info("scan complete",
		zap.Int("processed", sum.Processed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed))
	return sum, nil
}

func (o *Orchestrator) resumeSet() (map[string]bool, error) {
	cp, err := LoadCheckpoint(o.opts.CheckpointPath)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return map[string]bool{}, nil
	}
	if cp.OutputPath != o.opts.OutputPath {
		return nil, eris.Errorf(
			"checkpoint %s resumes report %s but output is %s; remove the checkpoint to start fresh",
			o.opts.CheckpointPath, cp.OutputPath, o.opts.OutputPath)
	}
	return CompletedTickers(cp.OutputPath)
}

func (o *Orchestrator) process(ctx context.Context, entry sec.TickerEntry) (*tickerResult, error) {
	raw, err := o.facts.CompanyFacts(ctx, entry.CIK)
	if err != nil {
		return nil, err
	}
	if o.arch != nil {
		if _, err := o.arch.Store(fmt.Sprintf("CIK%010d", entry.CIK), raw); err != nil {
			zap.L().Warn("archive failed", zap.String("ticker", entry.Ticker), zap.Error(err))
		}
	}

	facts, err := xbrl.ParseCompanyFacts(raw)
	if err != nil {
		return nil, err
	}

	company := fundamentals.Company{
		CIK:    entry.CIK,
		Ticker: entry.Ticker,
		Name:   entry.Title,
	}
	in := strategy.Input{Company: company}

	var price fundamentals.Value
	if o.market != nil {
		if profile, err := o.market.Profile(ctx, entry.Ticker); err != nil {
			zap.L().Warn("profile unavailable", zap.String("ticker", entry.Ticker), zap.Error(err))
		} else {
			company.Sector = profile.Industry
			in.Company = company
		}
		if quote, err := o.market.Quote(ctx, entry.Ticker); err != nil {
			zap.L().Warn("quote unavailable", zap.String("ticker", entry.Ticker), zap.Error(err))
		} else if quote.Current > 0 {
			price = fundamentals.Known(quote.Current)
		}
		if metrics, err := o.market.BasicFinancials(ctx, entry.Ticker); err != nil {
			zap.L().Warn("basic financials unavailable", zap.String("ticker", entry.Ticker), zap.Error(err))
		} else {
			in.PayoutRatio = fundamentals.FromPtr(metrics.PayoutRatioTTM)
			in.DividendYield = fundamentals.FromPtr(metrics.DividendYieldTTM)
		}
	}

	annual := o.builder.Annual(company, facts, o.opts.AnnualYears)
	quarterly := o.builder.Quarterly(company, facts, o.opts.Quarters)

	// Current price belongs to the latest fiscal year only; derived
	// market metrics fill in on the second calculator pass.
	if price.Valid && len(annual) > 0 {
		latest := &annual[len(annual)-1]
		latest.Metrics.Set(fundamentals.MetricPrice, price)
		o.calc.Apply(&latest.Metrics)
	}

	in.Annual = annual
	in.Quarterly = quarterly

	verdicts := make([]strategy.Verdict, 0, len(o.evaluators))
	for _, e := range o.evaluators {
		verdicts = append(verdicts, e.Evaluate(in))
	}

	return &tickerResult{
		company:   company,
		annual:    annual,
		quarterly: quarterly,
		verdicts:  verdicts,
	}, nil
}

// persist makes one ticker's results durable: report rows first, then
// the store. Only a fully appended ticker counts as checkpointed.
func (o *Orchestrator) persist(ctx context.Context, writer *ReportWriter, res *tickerResult) error {
	if err := writer.Append(res.verdicts); err != nil {
		return err
	}
	if o.st == nil {
		return nil
	}
	if err := o.st.UpsertCompany(ctx, res.company); err != nil {
		return err
	}
	if err := o.st.UpsertAnnualRecords(ctx, res.annual); err != nil {
		return err
	}
	if err := o.st.UpsertQuarterlyRecords(ctx, res.quarterly); err != nil {
		return err
	}
	return o.st.SaveVerdicts(ctx, res.verdicts)
}

func logTickerFailure(ticker string, err error) {
	switch {
	case fetcher.IsNotFound(err):
		zap.L().Debug("no facts document", zap.String("ticker", ticker))
	default:
		zap.L().Warn("ticker skipped", zap.String("ticker", ticker), zap.String("cause", eris.ToString(err, false)))
	}
}
