// Package xbrl parses XBRL company-facts JSON from EDGAR filings and
// resolves canonical metrics from them via ordered tag fallback.
package xbrl

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// CompanyFacts represents the EDGAR company facts JSON structure.
type CompanyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]FactNS `json:"facts"`
}

// FactNS groups facts by namespace (e.g., "us-gaap", "dei").
type FactNS map[string]Fact

// Fact is a single XBRL fact with its units and values.
type Fact struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactValue `json:"units"`
}

// FactValue is a single data point for a fact.
type FactValue struct {
	Start string  `json:"start,omitempty"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Accn  string  `json:"accn"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	Frame string  `json:"frame,omitempty"`
}

// ParseCompanyFacts parses an EDGAR company-facts payload.
func ParseCompanyFacts(data []byte) (*CompanyFacts, error) {
	var facts CompanyFacts
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, eris.Wrap(err, "xbrl: parse company facts")
	}
	return &facts, nil
}

// USGAAP returns the us-gaap namespace, or nil when the filing carries
// none.
func (f *CompanyFacts) USGAAP() FactNS {
	if f == nil {
		return nil
	}
	return f.Facts["us-gaap"]
}
