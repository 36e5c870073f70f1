// Package store persists normalized company records and strategy
// verdicts. Two backends exist: SQLite for local single user runs and
// Postgres for shared deployments.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-screener/internal/fundamentals"
	"github.com/sells-group/stock-screener/internal/strategy"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the screener.
type Store interface {
	// Companies
	UpsertCompany(ctx context.Context, company fundamentals.Company) error
	GetCompanyByTicker(ctx context.Context, ticker string) (*fundamentals.Company, error)

	// Normalized records. List results are ordered by fiscal year
	// ascending (then quarter), the order the read API contracts on.
	UpsertAnnualRecords(ctx context.Context, records []fundamentals.AnnualRecord) error
	UpsertQuarterlyRecords(ctx context.Context, records []fundamentals.QuarterlyRecord) error
	ListAnnualRecords(ctx context.Context, cik int) ([]fundamentals.AnnualRecord, error)
	ListQuarterlyRecords(ctx context.Context, cik int) ([]fundamentals.QuarterlyRecord, error)

	// Verdicts
	SaveVerdicts(ctx context.Context, verdicts []strategy.Verdict) error
	ListVerdicts(ctx context.Context, ticker string) ([]strategy.Verdict, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// encodeMetrics serializes the known metrics of a record. Unknown
// values are omitted entirely so they round trip back to unknown.
func encodeMetrics(m fundamentals.Metrics) (string, error) {
	known := make(map[string]float64, len(m))
	for name, v := range m {
		if v.Valid {
			known[name] = v.Float64
		}
	}
	b, err := json.Marshal(known)
	if err != nil {
		return "", eris.Wrap(err, "store: encode metrics")
	}
	return string(b), nil
}

func decodeMetrics(raw string) (fundamentals.Metrics, error) {
	var known map[string]float64
	if err := json.Unmarshal([]byte(raw), &known); err != nil {
		return nil, eris.Wrap(err, "store: decode metrics")
	}
	m := make(fundamentals.Metrics, len(known))
	for name, f := range known {
		m[name] = fundamentals.Known(f)
	}
	return m, nil
}

func encodeEvidence(ev map[string]string) (string, error) {
	if ev == nil {
		ev = map[string]string{}
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return "", eris.Wrap(err, "store: encode evidence")
	}
	return string(b), nil
}

func decodeEvidence(raw string) (map[string]string, error) {
	var ev map[string]string
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, eris.Wrap(err, "store: decode evidence")
	}
	return ev, nil
}
