package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-screener/internal/fundamentals"
	"github.com/sells-group/stock-screener/internal/strategy"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for
// unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetCompanyByTicker_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT cik, ticker, name, sector FROM companies WHERE ticker = \$1`).
		WithArgs("NOPE").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCompanyByTicker(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO companies .* ON CONFLICT`).
		WithArgs(320193, "AAPL", "Apple Inc.", "Technology").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertCompany(context.Background(), fundamentals.Company{
		CIK: 320193, Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnnualRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"cik", "ticker", "fiscal_year", "metrics"}).
		AddRow(1, "TST", 2023, `{"revenue": 150}`).
		AddRow(1, "TST", 2024, `{"revenue": 200, "eps": 2.5}`)
	mock.ExpectQuery(`SELECT cik, ticker, fiscal_year, metrics FROM annual_records`).
		WithArgs(1).
		WillReturnRows(rows)

	records, err := s.ListAnnualRecords(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2023, records[0].FiscalYear)
	assert.Equal(t, fundamentals.Known(200), records[1].Metric(fundamentals.MetricRevenue))
	assert.False(t, records[0].Metric(fundamentals.MetricEPS).Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveVerdicts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO verdicts`).
		WithArgs(pgxmock.AnyArg(), "TST", strategy.NameGrowth, true,
			"durable growth with cash generation", `{"revenue_cagr":"0.149"}`, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveVerdicts(context.Background(), []strategy.Verdict{{
		Strategy: strategy.NameGrowth,
		Ticker:   "TST",
		Pass:     true,
		Signal:   "durable growth with cash generation",
		Evidence: map[string]string{"revenue_cagr": "0.149"},
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
