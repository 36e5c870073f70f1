package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/stock-screener/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stock-screener",
	Short: "Fundamental stock screening over SEC XBRL filings",
	Long:  "Ingests SEC company facts, normalizes them into canonical financial records, and evaluates growth, dividend, turnaround, and loss-to-earn screening strategies across the ticker universe.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
