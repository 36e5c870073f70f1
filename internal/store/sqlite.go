package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/stock-screener/internal/fundamentals"
	"github.com/sells-group/stock-screener/internal/strategy"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	cik    INTEGER PRIMARY KEY,
	ticker TEXT NOT NULL UNIQUE,
	name   TEXT NOT NULL DEFAULT '',
	sector TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS annual_records (
	cik         INTEGER NOT NULL,
	ticker      TEXT NOT NULL,
	fiscal_year INTEGER NOT NULL,
	metrics     TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (cik, fiscal_year)
);

CREATE TABLE IF NOT EXISTS quarterly_records (
	cik            INTEGER NOT NULL,
	ticker         TEXT NOT NULL,
	fiscal_year    INTEGER NOT NULL,
	fiscal_quarter INTEGER NOT NULL,
	metrics        TEXT NOT NULL,
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (cik, fiscal_year, fiscal_quarter)
);

CREATE TABLE IF NOT EXISTS verdicts (
	id         TEXT PRIMARY KEY,
	cik        INTEGER NOT NULL DEFAULT 0,
	ticker     TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	pass       INTEGER NOT NULL,
	signal     TEXT NOT NULL DEFAULT '',
	evidence   TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_verdicts_ticker ON verdicts(ticker, created_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertCompany inserts or updates one company.
func (s *SQLiteStore) UpsertCompany(ctx context.Context, company fundamentals.Company) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (cik, ticker, name, sector) VALUES (?, ?, ?, ?)
		ON CONFLICT(cik) DO UPDATE SET ticker = excluded.ticker, name = excluded.name, sector = excluded.sector`,
		company.CIK, company.Ticker, company.Name, company.Sector)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert company %s", company.Ticker)
	}
	return nil
}

// GetCompanyByTicker looks a company up by ticker symbol.
func (s *SQLiteStore) GetCompanyByTicker(ctx context.Context, ticker string) (*fundamentals.Company, error) {
	var c fundamentals.Company
	err := s.db.QueryRowContext(ctx,
		`SELECT cik, ticker, name, sector FROM companies WHERE ticker = ?`, ticker).
		Scan(&c.CIK, &c.Ticker, &c.Name, &c.Sector)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", ticker)
	}
	return &c, nil
}

// UpsertAnnualRecords writes a batch of annual records.
func (s *SQLiteStore) UpsertAnnualRecords(ctx context.Context, records []fundamentals.AnnualRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	for _, r := range records {
		metrics, err := encodeMetrics(r.Metrics)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO annual_records (cik, ticker, fiscal_year, metrics, updated_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(cik, fiscal_year) DO UPDATE SET ticker = excluded.ticker, metrics = excluded.metrics, updated_at = excluded.updated_at`,
			r.CIK, r.Ticker, r.FiscalYear, metrics, time.Now().UTC())
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert annual %s fy=%d", r.Ticker, r.FiscalYear)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit annual records")
	}
	return nil
}

// UpsertQuarterlyRecords writes a batch of quarterly records.
func (s *SQLiteStore) UpsertQuarterlyRecords(ctx context.Context, records []fundamentals.QuarterlyRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	for _, r := range records {
		metrics, err := encodeMetrics(r.Metrics)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO quarterly_records (cik, ticker, fiscal_year, fiscal_quarter, metrics, updated_at) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(cik, fiscal_year, fiscal_quarter) DO UPDATE SET ticker = excluded.ticker, metrics = excluded.metrics, updated_at = excluded.updated_at`,
			r.CIK, r.Ticker, r.FiscalYear, r.FiscalQuarter, metrics, time.Now().UTC())
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert quarterly %s fy=%d q=%d", r.Ticker, r.FiscalYear, r.FiscalQuarter)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit quarterly records")
	}
	return nil
}

// ListAnnualRecords returns a company's annual records, fiscal year
// ascending.
func (s *SQLiteStore) ListAnnualRecords(ctx context.Context, cik int) ([]fundamentals.AnnualRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cik, ticker, fiscal_year, metrics FROM annual_records
		WHERE cik = ? ORDER BY fiscal_year ASC`, cik)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list annual cik=%d", cik)
	}
	defer rows.Close()

	var records []fundamentals.AnnualRecord
	for rows.Next() {
		var r fundamentals.AnnualRecord
		var metrics string
		if err := rows.Scan(&r.CIK, &r.Ticker, &r.FiscalYear, &metrics); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan annual record")
		}
		if r.Metrics, err = decodeMetrics(metrics); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: rows iteration")
	}
	return records, nil
}

// ListQuarterlyRecords returns a company's quarterly records in
// chronological order.
func (s *SQLiteStore) ListQuarterlyRecords(ctx context.Context, cik int) ([]fundamentals.QuarterlyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cik, ticker, fiscal_year, fiscal_quarter, metrics FROM quarterly_records
		WHERE cik = ? ORDER BY fiscal_year ASC, fiscal_quarter ASC`, cik)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list quarterly cik=%d", cik)
	}
	defer rows.Close()

	var records []fundamentals.QuarterlyRecord
	for rows.Next() {
		var r fundamentals.QuarterlyRecord
		var metrics string
		if err := rows.Scan(&r.CIK, &r.Ticker, &r.FiscalYear, &r.FiscalQuarter, &metrics); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quarterly record")
		}
		if r.Metrics, err = decodeMetrics(metrics); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: rows iteration")
	}
	return records, nil
}

// SaveVerdicts appends strategy verdicts.
func (s *SQLiteStore) SaveVerdicts(ctx context.Context, verdicts []strategy.Verdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	for _, v := range verdicts {
		evidence, err := encodeEvidence(v.Evidence)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO verdicts (id, ticker, strategy, pass, signal, evidence, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), v.Ticker, v.Strategy, v.Pass, v.Signal, evidence, time.Now().UTC())
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert verdict %s/%s", v.Ticker, v.Strategy)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit verdicts")
	}
	return nil
}

// ListVerdicts returns a ticker's verdicts, oldest first.
func (s *SQLiteStore) ListVerdicts(ctx context.Context, ticker string) ([]strategy.Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, strategy, pass, signal, evidence FROM verdicts
		WHERE ticker = ? ORDER BY rowid ASC`, ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list verdicts %s", ticker)
	}
	defer rows.Close()

	var verdicts []strategy.Verdict
	for rows.Next() {
		var v strategy.Verdict
		var evidence string
		if err := rows.Scan(&v.Ticker, &v.Strategy, &v.Pass, &v.Signal, &evidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verdict")
		}
		if v.Evidence, err = decodeEvidence(evidence); err != nil {
			return nil, err
		}
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: rows iteration")
	}
	return verdicts, nil
}
