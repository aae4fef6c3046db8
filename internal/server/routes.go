package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - companies
	mux.HandleFunc("/api/companies", s.listCompaniesHandler)  // GET - all tracked companies
	mux.HandleFunc("/api/companies/", s.companyRouteHandler)  // GET /{ticker}, /{ticker}/insight

	// API routes - market views
	mux.HandleFunc("/api/market", s.marketHandler)   // GET - stocks by market cap + sector rollups
	mux.HandleFunc("/api/movers", s.moversHandler)   // GET - top movers by change percent
	mux.HandleFunc("/api/sectors", s.sectorsHandler) // GET - sector summaries

	// API routes - pulse and news
	mux.HandleFunc("/api/pulse", s.pulseHandler) // GET - cached market summary (generates when absent)
	mux.HandleFunc("/api/news", s.newsHandler)   // GET - recent headlines

	// API routes - operations
	mux.HandleFunc("/api/refresh", s.refreshHandler) // POST - manual job trigger
	mux.HandleFunc("/api/status", s.statusHandler)   // GET - job statuses and store counts

	// API routes - system
	mux.HandleFunc("/api/version", s.versionHandler)
	mux.HandleFunc("/api/health", s.healthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}
