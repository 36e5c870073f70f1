package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/stock-screener/internal/fundamentals"
	"github.com/sells-group/stock-screener/internal/scan"
	"github.com/sells-group/stock-screener/internal/store"
	"github.com/sells-group/stock-screener/pkg/sec"
)

var tickerCmd = &cobra.Command{
	Use:   "ticker SYMBOL",
	Short: "Screen a single ticker and print the verdicts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ticker"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		symbol := strings.ToUpper(args[0])
		universe, err := e.SEC.CompanyTickers(ctx)
		if err != nil {
			return eris.Wrap(err, "fetch ticker universe")
		}
		var entry *sec.TickerEntry
		for i := range universe {
			if universe[i].Ticker == symbol {
				entry = &universe[i]
				break
			}
		}
		if entry == nil {
			return eris.Errorf("ticker %s not in SEC universe", symbol)
		}

		limits, err := loadSectorLimits()
		if err != nil {
			return err
		}
		// A single-ticker run keeps its own checkpoint so it never
		// clobbers an interrupted batch scan's.
		output := cmd.Flag("output").Value.String()
		o := scan.New(scan.Options{
			OutputPath:     output,
			CheckpointPath: output + ".checkpoint",
			Concurrency:    1,
			AnnualYears:    cfg.Scan.AnnualYears,
			Quarters:       cfg.Scan.Quarters,
			SectorLimits:   limits,
		}, e.SEC, e.market(), e.Store, e.Archive)

		if _, err := o.Run(ctx, []sec.TickerEntry{*entry}); err != nil {
			return err
		}
		return printReport(cmd, e.Store, symbol)
	},
}

func printReport(cmd *cobra.Command, st store.Store, symbol string) error {
	ctx := cmd.Context()
	company, err := st.GetCompanyByTicker(ctx, symbol)
	if err != nil {
		return eris.Wrapf(err, "load company %s", symbol)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) CIK %d\n", company.Name, company.Ticker, company.CIK)
	if company.Sector != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Sector: %s\n", company.Sector)
	}

	records, err := st.ListAnnualRecords(ctx, company.CIK)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		latest := records[len(records)-1]
		fmt.Fprintf(cmd.OutOrStdout(), "Latest fiscal year: %d\n", latest.FiscalYear)
		for _, name := range []string{
			fundamentals.MetricRevenue,
			fundamentals.MetricNetIncome,
			fundamentals.MetricFreeCashFlow,
			fundamentals.MetricEPS,
		} {
			if v := latest.Metric(name); v.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", name, v)
			}
		}
	}

	verdicts, err := st.ListVerdicts(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	for _, v := range verdicts {
		status := "FAIL"
		if v.Pass {
			status = "PASS"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  %s\n", v.Strategy, status, v.Signal)
	}
	return nil
}

func init() {
	tickerCmd.Flags().String("output", "ticker_result.csv", "output CSV path")
	rootCmd.AddCommand(tickerCmd)
}
