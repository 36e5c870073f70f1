package main

import (
	"context"
	"errors"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stock-screener/internal/scan"
	"github.com/sells-group/stock-screener/internal/strategy"
	"github.com/sells-group/stock-screener/pkg/sec"
)

var (
	scanTickers string
	scanLimit   int
	scanOutput  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the ticker universe and evaluate all strategies",
	Long:  "Fetches XBRL company facts and market data for every ticker, evaluates the screening strategies, and appends results to a resumable CSV report. An interrupted scan resumes from the checkpoint on the next run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("scan"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		universe, err := resolveUniverse(ctx, e)
		if err != nil {
			return err
		}
		if scanLimit > 0 && len(universe) > scanLimit {
			universe = universe[:scanLimit]
		}
		zap.L().Info("starting scan", zap.Int("universe", len(universe)))

		output := scanOutput
		if output == "" {
			output = filepath.Join(cfg.Scan.OutputDir, "screen_results.csv")
		}
		limits, err := loadSectorLimits()
		if err != nil {
			return err
		}
		o := scan.New(scan.Options{
			OutputPath:     output,
			CheckpointPath: cfg.Scan.CheckpointPath,
			Concurrency:    cfg.Scan.Concurrency,
			AnnualYears:    cfg.Scan.AnnualYears,
			Quarters:       cfg.Scan.Quarters,
			SectorLimits:   limits,
		}, e.SEC, e.market(), e.Store, e.Archive)

		_, err = o.Run(ctx, universe)
		if errors.Is(err, context.Canceled) {
			// Interrupt is a clean stop; the checkpoint stays for the
			// next invocation.
			return nil
		}
		return err
	},
}

// loadSectorLimits reads the optional debt to equity overrides file.
func loadSectorLimits() (*strategy.SectorLimits, error) {
	if cfg.Scan.SectorLimitsPath == "" {
		return nil, nil
	}
	limits, err := strategy.LoadSectorLimits(cfg.Scan.SectorLimitsPath)
	if err != nil {
		return nil, err
	}
	return limits, nil
}

// resolveUniverse returns either the full SEC universe or the
// explicitly requested tickers.
func resolveUniverse(ctx context.Context, e *env) ([]sec.TickerEntry, error) {
	all, err := e.SEC.CompanyTickers(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "fetch ticker universe")
	}
	if scanTickers == "" {
		return all, nil
	}

	want := map[string]bool{}
	for _, tk := range strings.Split(scanTickers, ",") {
		want[strings.ToUpper(strings.TrimSpace(tk))] = true
	}
	var subset []sec.TickerEntry
	for _, entry := range all {
		if want[entry.Ticker] {
			subset = append(subset, entry)
		}
	}
	return subset, nil
}

func init() {
	scanCmd.Flags().StringVar(&scanTickers, "tickers", "", "comma-separated tickers to scan (default: full universe)")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "max tickers to process (0 = no limit)")
	scanCmd.Flags().StringVar(&scanOutput, "output", "", "output CSV path (default from config)")
	rootCmd.AddCommand(scanCmd)
}
