package api

import (
	"fmt"
	"net/http"

	"github.com/stockdash/stockdash-backend/internal/mockseries"
	"github.com/stockdash/stockdash-backend/internal/models"
	"github.com/stockdash/stockdash-backend/internal/predictions"
	"github.com/stockdash/stockdash-backend/internal/symbols"
)

type quotesResponse struct {
	Quotes    []models.QuoteRecord `json:"quotes"`
	FromCache bool                 `json:"fromCache"`
	Mock      []string             `json:"mock"`
}

type stockResponse struct {
	Symbol        string             `json:"symbol"`
	UsingFallback bool               `json:"usingFallback"`
	Quote         models.QuoteRecord `json:"quote"`
	FromCache     bool               `json:"fromCache"`
	Mock          bool               `json:"mock"`
	Prediction    *predictions.View  `json:"prediction,omitempty"`
}

type seriesResponse struct {
	Symbol string    `json:"symbol"`
	Points int       `json:"points"`
	Series []float64 `json:"series"`
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Catalog.PopularSymbols
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		list = symbols.ParseList(raw)
	}
	if len(list) == 0 {
		writeError(w, http.StatusBadRequest, "no symbols requested")
		return
	}
	if len(list) > maxSymbolsPerRequest {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d symbols per request", maxSymbolsPerRequest))
		return
	}
	s.writeQuotes(w, r, list)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	s.writeQuotes(w, r, s.deps.Catalog.PopularSymbols)
}

func (s *Server) writeQuotes(w http.ResponseWriter, r *http.Request, list []string) {
	res := s.deps.Quotes.Resolve(r.Context(), list)
	mock := res.Mock
	if mock == nil {
		mock = []string{}
	}
	writeJSON(w, http.StatusOK, quotesResponse{
		Quotes:    res.Ordered(list),
		FromCache: res.FromCache,
		Mock:      mock,
	})
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	symbol, fallback := symbols.ResolveDecoded(r.PathValue("symbol"))

	res := s.deps.Quotes.ResolveOne(r.Context(), symbol)
	out := stockResponse{
		Symbol:        symbol,
		UsingFallback: fallback,
		Quote:         res.Records[symbol],
		FromCache:     res.FromCache,
		Mock:          len(res.Mock) > 0,
	}
	if p, ok := s.deps.Predictions.Find(symbol); ok {
		out.Prediction = &p
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	symbol, _ := symbols.ResolveDecoded(r.PathValue("symbol"))
	n := min(parseCount(r, "n", s.deps.SeriesDays), mockseries.MaxLength)

	series := mockseries.Series(symbol, n)
	writeJSON(w, http.StatusOK, seriesResponse{
		Symbol: symbol,
		Points: len(series),
		Series: series,
	})
}
