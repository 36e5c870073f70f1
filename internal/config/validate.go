package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Shared
// settings are checked for every mode; mode-specific ones only when
// that command will actually use them.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "scan", "ticker", "universe":
		// EDGAR rejects anonymous clients, and more than 10 req/s gets
		// the client throttled server side.
		if c.SEC.UserAgent == "" {
			problems = append(problems, "sec.user_agent is required")
		}
		if c.SEC.RateLimit <= 0 || c.SEC.RateLimit > 10 {
			problems = append(problems, "sec.rate_limit must be between 1 and 10")
		}
		if mode != "universe" {
			if c.Scan.Concurrency < 1 || c.Scan.Concurrency > 32 {
				problems = append(problems, "scan.concurrency must be between 1 and 32")
			}
			if c.Scan.AnnualYears < 1 {
				problems = append(problems, "scan.annual_years must be >= 1")
			}
			if c.Scan.Quarters < 1 {
				problems = append(problems, "scan.quarters must be >= 1")
			}
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
