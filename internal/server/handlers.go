package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/engine"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

const (
	defaultMoversLimit = 10
	defaultNewsLimit   = 20
)

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.app.Logger.Warn().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// limitParam parses a positive "limit" query parameter with a fallback.
func limitParam(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// listCompaniesHandler returns all tracked companies.
func (s *Server) listCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	companies, err := s.app.StorageManager.CompanyStorage().List(r.Context())
	if err != nil {
		s.app.Logger.Error().Err(err).Msg("Company list failed")
		s.writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(companies),
		"companies": companies,
	})
}

// companyRouteHandler dispatches the companies subtree:
// /api/companies/{ticker} and /api/companies/{ticker}/insight. Bare codes
// resolve through the default exchange.
func (s *Server) companyRouteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/companies/")
	wantInsight := false
	if rest, ok := strings.CutSuffix(raw, "/insight"); ok {
		raw = rest
		wantInsight = true
	}

	ticker := common.ParseTicker(raw)
	if ticker.Code == "" || strings.Contains(raw, "/") {
		s.writeError(w, http.StatusBadRequest, "invalid ticker")
		return
	}

	if wantInsight {
		s.companyInsightHandler(w, r, ticker.String())
		return
	}
	s.getCompanyHandler(w, r, ticker.String())
}

// getCompanyHandler returns one company by exchange-qualified ticker.
func (s *Server) getCompanyHandler(w http.ResponseWriter, r *http.Request, ticker string) {
	company, err := s.app.StorageManager.CompanyStorage().Get(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "company not found")
			return
		}
		s.app.Logger.Error().Err(err).Str("ticker", ticker).Msg("Company lookup failed")
		s.writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}

	s.writeJSON(w, http.StatusOK, company)
}

// companyInsightHandler generates a SWOT analysis for one stored company.
func (s *Server) companyInsightHandler(w http.ResponseWriter, r *http.Request, ticker string) {
	insight, err := s.app.InsightService.CompanyInsight(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "company not found")
			return
		}
		s.app.Logger.Error().Err(err).Str("ticker", ticker).Msg("Insight generation failed")
		s.writeError(w, http.StatusServiceUnavailable, "company insight unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, insight)
}

// marketHandler returns the market overview: stocks ranked by market cap
// plus sector rollups.
func (s *Server) marketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	companies, err := s.app.StorageManager.CompanyStorage().List(r.Context())
	if err != nil {
		s.app.Logger.Error().Err(err).Msg("Company list failed")
		s.writeError(w, http.StatusInternalServerError, "failed to load market data")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stocks":  engine.ByMarketCap(companies, 0),
		"sectors": engine.SectorSummaries(companies),
	})
}

// moversHandler returns the top movers by change percent.
func (s *Server) moversHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	companies, err := s.app.StorageManager.CompanyStorage().List(r.Context())
	if err != nil {
		s.app.Logger.Error().Err(err).Msg("Company list failed")
		s.writeError(w, http.StatusInternalServerError, "failed to load movers")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"movers": engine.TopMovers(companies, limitParam(r, defaultMoversLimit)),
	})
}

// sectorsHandler returns sector summaries ordered by average change.
func (s *Server) sectorsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	companies, err := s.app.StorageManager.CompanyStorage().List(r.Context())
	if err != nil {
		s.app.Logger.Error().Err(err).Msg("Company list failed")
		s.writeError(w, http.StatusInternalServerError, "failed to load sectors")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sectors": engine.SectorSummaries(companies),
	})
}

// pulseHandler serves the cached market summary, generating one
// synchronously when none exists yet.
func (s *Server) pulseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	doc, err := s.app.PulseService.GetOrGenerate(r.Context())
	if err != nil {
		s.app.Logger.Error().Err(err).Msg("Pulse retrieval failed")
		s.writeError(w, http.StatusServiceUnavailable, "market pulse unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, doc)
}

// newsHandler returns recent stored headlines, newest first.
func (s *Server) newsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	headlines, err := s.app.NewsService.MostRecent(r.Context(), limitParam(r, defaultNewsLimit))
	if err != nil {
		s.app.Logger.Error().Err(err).Msg("Headline lookup failed")
		s.writeError(w, http.StatusInternalServerError, "failed to load news")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(headlines),
		"headlines": headlines,
	})
}

// refreshHandler manually triggers a scheduled job. The job name comes from
// the "job" query parameter and defaults to the full refresh.
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobName := r.URL.Query().Get("job")
	if jobName == "" {
		jobName = "full-refresh"
	}

	if err := s.app.SchedulerService.TriggerJob(r.Context(), jobName); err != nil {
		s.app.Logger.Warn().Err(err).Str("job_name", jobName).Msg("Manual trigger failed")
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "completed",
		"job":    jobName,
	})
}

// statusHandler reports job statuses, store counts and dataset metadata.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	companyCount, err := s.app.StorageManager.CompanyStorage().Count(r.Context())
	if err != nil {
		s.app.Logger.Warn().Err(err).Msg("Company count failed")
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"environment":       s.app.Config.Environment,
		"reference_version": s.app.ReferenceStore.Version(),
		"universe_size":     s.app.ReferenceStore.Len(),
		"companies_stored":  companyCount,
		"jobs":              s.app.SchedulerService.GetAllJobStatuses(),
		"time":              time.Now().UTC().Format(time.RFC3339),
	})
}

// versionHandler returns build information.
func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// healthHandler is the liveness probe.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// notFoundHandler handles unmatched API routes.
func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}
