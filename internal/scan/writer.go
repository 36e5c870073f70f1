package scan

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-screener/internal/strategy"
)

var reportHeader = []string{"ticker", "strategy", "pass", "signal", "evidence"}

// ReportWriter appends verdict rows to the CSV report. Every append is
// flushed and synced before returning, so a row that has been written
// is durable and safe to treat as checkpointed.
type ReportWriter struct {
	f   *os.File
	csv *csv.Writer
}

// OpenReport opens the report for appending, writing the header only
// when the file is new or empty.
func OpenReport(path string) (*ReportWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "scan: open report %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(err, "scan: stat report %s", path)
	}

	w := &ReportWriter{f: f, csv: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := w.csv.Write(reportHeader); err != nil {
			f.Close()
			return nil, eris.Wrap(err, "scan: write report header")
		}
		if err := w.flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

// Append writes one row per verdict for a ticker and makes them
// durable before returning.
func (w *ReportWriter) Append(verdicts []strategy.Verdict) error {
	for _, v := range verdicts {
		pass := "false"
		if v.Pass {
			pass = "true"
		}
		row := []string{v.Ticker, v.Strategy, pass, v.Signal, v.EvidenceString()}
		if err := w.csv.Write(row); err != nil {
			return eris.Wrapf(err, "scan: write report row %s/%s", v.Ticker, v.Strategy)
		}
	}
	return w.flush()
}

func (w *ReportWriter) flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return eris.Wrap(err, "scan: flush report")
	}
	if err := w.f.Sync(); err != nil {
		return eris.Wrap(err, "scan: sync report")
	}
	return nil
}

// Close flushes and closes the report file.
func (w *ReportWriter) Close() error {
	if err := w.flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
