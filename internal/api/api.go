// Package api exposes the read-only HTTP surface over the store:
// normalized records, derived ratios, and strategy verdicts.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/stock-screener/internal/fundamentals"
	"github.com/sells-group/stock-screener/internal/store"
)

// Server wires the chi router over a store.
type Server struct {
	st store.Store
}

// NewServer creates the API server.
func NewServer(st store.Store) *Server {
	return &Server{st: st}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/companies/{ticker}", func(r chi.Router) {
		r.Get("/", s.handleCompany)
		r.Get("/records", s.handleRecords)
		r.Get("/verdicts", s.handleVerdicts)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// annualRecordJSON is the wire shape of one fiscal year.
type annualRecordJSON struct {
	FiscalYear int                `json:"fiscal_year"`
	Metrics    map[string]float64 `json:"metrics"`
}

type companyJSON struct {
	fundamentals.Company
	PriceEarnings *float64 `json:"price_earnings,omitempty"`
}

func (s *Server) lookupCompany(w http.ResponseWriter, r *http.Request) (*fundamentals.Company, bool) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	company, err := s.st.GetCompanyByTicker(r.Context(), ticker)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown ticker"})
		return nil, false
	}
	if err != nil {
		serverError(w, err)
		return nil, false
	}
	return company, true
}

// handleCompany returns the company with its derived price/earnings
// ratio, computed from the latest annual record. The ratio is omitted
// when EPS is unknown or zero.
func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	company, ok := s.lookupCompany(w, r)
	if !ok {
		return
	}

	records, err := s.st.ListAnnualRecords(r.Context(), company.CIK)
	if err != nil {
		serverError(w, err)
		return
	}

	resp := companyJSON{Company: *company}
	if len(records) > 0 {
		latest := records[len(records)-1]
		pe := fundamentals.PriceEarnings(
			latest.Metric(fundamentals.MetricPrice),
			latest.Metric(fundamentals.MetricEPS))
		resp.PriceEarnings = pe.Ptr()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRecords returns annual records ordered by fiscal year
// ascending, the order the store guarantees.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	company, ok := s.lookupCompany(w, r)
	if !ok {
		return
	}

	records, err := s.st.ListAnnualRecords(r.Context(), company.CIK)
	if err != nil {
		serverError(w, err)
		return
	}

	out := make([]annualRecordJSON, 0, len(records))
	for _, rec := range records {
		metrics := make(map[string]float64, len(rec.Metrics))
		for name, v := range rec.Metrics {
			if v.Valid {
				metrics[name] = v.Float64
			}
		}
		out = append(out, annualRecordJSON{FiscalYear: rec.FiscalYear, Metrics: metrics})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVerdicts(w http.ResponseWriter, r *http.Request) {
	company, ok := s.lookupCompany(w, r)
	if !ok {
		return
	}

	verdicts, err := s.st.ListVerdicts(r.Context(), company.Ticker)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdicts)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func serverError(w http.ResponseWriter, err error) {
	zap.L().Error("api: request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
