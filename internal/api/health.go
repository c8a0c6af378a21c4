package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database    string `json:"database"`
	QuoteCache  string `json:"quoteCache"`
	CacheExpiry string `json:"cacheExpiry,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	dbStatus := "not configured"
	if s.deps.DB != nil {
		dbStatus = "connected"
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			dbStatus = "disconnected"
		}
	}

	services := healthServices{Database: dbStatus, QuoteCache: "empty"}
	if s.deps.Cache != nil {
		if exp, ok := s.deps.Cache.Expiry(r.Context()); ok {
			services.CacheExpiry = exp.UTC().Format(time.RFC3339)
			services.QuoteCache = "fresh"
			if now.After(exp) {
				services.QuoteCache = "expired"
			}
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		Services:  services,
	})
}
