package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-screener/internal/fundamentals"
	"github.com/sells-group/stock-screener/internal/strategy"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by
// pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The store does not own
// the pool; Close is a no-op. Used by tests with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	cik    BIGINT PRIMARY KEY,
	ticker TEXT NOT NULL UNIQUE,
	name   TEXT NOT NULL DEFAULT '',
	sector TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS annual_records (
	cik         BIGINT NOT NULL,
	ticker      TEXT NOT NULL,
	fiscal_year INT NOT NULL,
	metrics     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (cik, fiscal_year)
);

CREATE TABLE IF NOT EXISTS quarterly_records (
	cik            BIGINT NOT NULL,
	ticker         TEXT NOT NULL,
	fiscal_year    INT NOT NULL,
	fiscal_quarter INT NOT NULL,
	metrics        JSONB NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (cik, fiscal_year, fiscal_quarter)
);

CREATE TABLE IF NOT EXISTS verdicts (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	ticker     TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	pass       BOOLEAN NOT NULL,
	signal     TEXT NOT NULL DEFAULT '',
	evidence   JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_verdicts_ticker ON verdicts(ticker, created_at);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the pool if the store owns it.
func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

// UpsertCompany inserts or updates one company.
func (s *PostgresStore) UpsertCompany(ctx context.Context, company fundamentals.Company) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO companies (cik, ticker, name, sector) VALUES ($1, $2, $3, $4)
		ON CONFLICT (cik) DO UPDATE SET ticker = EXCLUDED.ticker, name = EXCLUDED.name, sector = EXCLUDED.sector`,
		company.CIK, company.Ticker, company.Name, company.Sector)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert company %s", company.Ticker)
	}
	return nil
}

// GetCompanyByTicker looks a company up by ticker symbol.
func (s *PostgresStore) GetCompanyByTicker(ctx context.Context, ticker string) (*fundamentals.Company, error) {
	var c fundamentals.Company
	err := s.pool.QueryRow(ctx,
		`SELECT cik, ticker, name, sector FROM companies WHERE ticker = $1`, ticker).
		Scan(&c.CIK, &c.Ticker, &c.Name, &c.Sector)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", ticker)
	}
	return &c, nil
}

// UpsertAnnualRecords writes a batch of annual records.
func (s *PostgresStore) UpsertAnnualRecords(ctx context.Context, records []fundamentals.AnnualRecord) error {
	for _, r := range records {
		metrics, err := encodeMetrics(r.Metrics)
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO annual_records (cik, ticker, fiscal_year, metrics, updated_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cik, fiscal_year) DO UPDATE SET ticker = EXCLUDED.ticker, metrics = EXCLUDED.metrics, updated_at = EXCLUDED.updated_at`,
			r.CIK, r.Ticker, r.FiscalYear, metrics, time.Now().UTC())
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert annual %s fy=%d", r.Ticker, r.FiscalYear)
		}
	}
	return nil
}

// UpsertQuarterlyRecords writes a batch of quarterly records.
func (s *PostgresStore) UpsertQuarterlyRecords(ctx context.Context, records []fundamentals.QuarterlyRecord) error {
	for _, r := range records {
		metrics, err := encodeMetrics(r.Metrics)
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO quarterly_records (cik, ticker, fiscal_year, fiscal_quarter, metrics, updated_at) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (cik, fiscal_year, fiscal_quarter) DO UPDATE SET ticker = EXCLUDED.ticker, metrics = EXCLUDED.metrics, updated_at = EXCLUDED.updated_at`,
			r.CIK, r.Ticker, r.FiscalYear, r.FiscalQuarter, metrics, time.Now().UTC())
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert quarterly %s fy=%d q=%d", r.Ticker, r.FiscalYear, r.FiscalQuarter)
		}
	}
	return nil
}

// ListAnnualRecords returns a company's annual records, fiscal year
// ascending.
func (s *PostgresStore) ListAnnualRecords(ctx context.Context, cik int) ([]fundamentals.AnnualRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cik, ticker, fiscal_year, metrics FROM annual_records
		WHERE cik = $1 ORDER BY fiscal_year ASC`, cik)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list annual cik=%d", cik)
	}
	defer rows.Close()

	var records []fundamentals.AnnualRecord
	for rows.Next() {
		var r fundamentals.AnnualRecord
		var metrics string
		if err := rows.Scan(&r.CIK, &r.Ticker, &r.FiscalYear, &metrics); err != nil {
			return nil, eris.Wrap(err, "postgres: scan annual record")
		}
		if r.Metrics, err = decodeMetrics(metrics); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: rows iteration")
	}
	return records, nil
}

// ListQuarterlyRecords returns a company's quarterly records in
// chronological order.
func (s *PostgresStore) ListQuarterlyRecords(ctx context.Context, cik int) ([]fundamentals.QuarterlyRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cik, ticker, fiscal_year, fiscal_quarter, metrics FROM quarterly_records
		WHERE cik = $1 ORDER BY fiscal_year ASC, fiscal_quarter ASC`, cik)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list quarterly cik=%d", cik)
	}
	defer rows.Close()

	var records []fundamentals.QuarterlyRecord
	for rows.Next() {
		var r fundamentals.QuarterlyRecord
		var metrics string
		if err := rows.Scan(&r.CIK, &r.Ticker, &r.FiscalYear, &r.FiscalQuarter, &metrics); err != nil {
			return nil, eris.Wrap(err, "postgres: scan quarterly record")
		}
		if r.Metrics, err = decodeMetrics(metrics); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: rows iteration")
	}
	return records, nil
}

// SaveVerdicts appends strategy verdicts.
func (s *PostgresStore) SaveVerdicts(ctx context.Context, verdicts []strategy.Verdict) error {
	for _, v := range verdicts {
		evidence, err := encodeEvidence(v.Evidence)
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO verdicts (id, ticker, strategy, pass, signal, evidence, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), v.Ticker, v.Strategy, v.Pass, v.Signal, evidence, time.Now().UTC())
		if err != nil {
			return eris.Wrapf(err, "postgres: insert verdict %s/%s", v.Ticker, v.Strategy)
		}
	}
	return nil
}

// ListVerdicts returns a ticker's verdicts, oldest first.
func (s *PostgresStore) ListVerdicts(ctx context.Context, ticker string) ([]strategy.Verdict, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ticker, strategy, pass, signal, evidence FROM verdicts
		WHERE ticker = $1 ORDER BY seq ASC`, ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list verdicts %s", ticker)
	}
	defer rows.Close()

	var verdicts []strategy.Verdict
	for rows.Next() {
		var v strategy.Verdict
		var evidence string
		if err := rows.Scan(&v.Ticker, &v.Strategy, &v.Pass, &v.Signal, &evidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verdict")
		}
		if v.Evidence, err = decodeEvidence(evidence); err != nil {
			return nil, err
		}
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: rows iteration")
	}
	return verdicts, nil
}
