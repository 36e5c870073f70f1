package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stock-screener/internal/fundamentals"
)

var universeSave bool

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "List the SEC company ticker universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("universe"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := e.SEC.CompanyTickers(ctx)
		if err != nil {
			return eris.Wrap(err, "fetching company tickers")
		}

		for _, entry := range entries {
			fmt.Printf("%-8s CIK%010d  %s\n", entry.Ticker, entry.CIK, entry.Title)
		}
		zap.L().Info("universe listed", zap.Int("companies", len(entries)))

		if !universeSave {
			return nil
		}
		for _, entry := range entries {
			company := fundamentals.Company{
				CIK:    entry.CIK,
				Ticker: entry.Ticker,
				Name:   entry.Title,
			}
			if err := e.Store.UpsertCompany(ctx, company); err != nil {
				return eris.Wrapf(err, "saving company %s", entry.Ticker)
			}
		}
		zap.L().Info("universe saved", zap.Int("companies", len(entries)))
		return nil
	},
}

func init() {
	universeCmd.Flags().BoolVar(&universeSave, "save", false, "persist the universe to the store")
	rootCmd.AddCommand(universeCmd)
}
