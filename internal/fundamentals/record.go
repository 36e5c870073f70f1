package fundamentals

// Metrics maps canonical metric names to values. A missing key and an
// unknown Value mean the same thing; lookups on absent keys return the
// zero Value, which is unknown.
type Metrics map[string]Value

// Get is a nil-safe lookup.
func (m Metrics) Get(name string) Value {
	if m == nil {
		return Unknown
	}
	return m[name]
}

// Set stores a value, allocating on first use.
func (m *Metrics) Set(name string, v Value) {
	if *m == nil {
		*m = make(Metrics)
	}
	(*m)[name] = v
}

// Company identifies one issuer in the SEC universe.
type Company struct {
	CIK    int    `json:"cik"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}

// AnnualRecord holds one fiscal year of canonical metrics for a company.
type AnnualRecord struct {
	CIK        int
	Ticker     string
	FiscalYear int
	Metrics    Metrics
}

// Metric returns the named metric for this record.
func (r AnnualRecord) Metric(name string) Value {
	return r.Metrics.Get(name)
}

// QuarterlyRecord holds one fiscal quarter of canonical metrics.
type QuarterlyRecord struct {
	CIK           int
	Ticker        string
	FiscalYear    int
	FiscalQuarter int
	Metrics       Metrics
}

// Metric returns the named metric for this record.
func (r QuarterlyRecord) Metric(name string) Value {
	return r.Metrics.Get(name)
}
