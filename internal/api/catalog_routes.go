package api

import (
	"net/http"

	"github.com/stockdash/stockdash-backend/internal/models"
)

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Predictions.All())
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	p, ok := s.deps.Predictions.Find(r.PathValue("symbol"))
	if !ok {
		writeError(w, http.StatusNotFound, "no prediction for symbol")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	team := s.deps.Catalog.Team
	if team == nil {
		team = []models.TeamMember{}
	}
	writeJSON(w, http.StatusOK, team)
}
