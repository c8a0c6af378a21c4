package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stockdash/stockdash-backend/internal/auth"
	"github.com/stockdash/stockdash-backend/internal/catalog"
	"github.com/stockdash/stockdash-backend/internal/predictions"
	"github.com/stockdash/stockdash-backend/internal/quotecache"
	"github.com/stockdash/stockdash-backend/internal/quotes"
)

const (
	maxSymbolsPerRequest = 50
	maxBodyBytes         = 1 << 20
)

type QuoteResolver interface {
	Resolve(ctx context.Context, symbols []string) *quotes.Result
	ResolveOne(ctx context.Context, symbol string) *quotes.Result
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. DB may be nil when the server runs
// without Postgres.
type Deps struct {
	DB          Pinger
	Quotes      QuoteResolver
	Cache       *quotecache.Cache
	Catalog     *catalog.Catalog
	Predictions *predictions.Book
	Auth        *auth.Service
	SeriesDays  int
}

type Server struct {
	deps       Deps
	httpServer *http.Server
	handler    http.Handler
	apiKey     string
}

func NewServer(deps Deps, port int, apiKey, corsOrigin string) *Server {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Predictions == nil {
		deps.Predictions = predictions.NewBook(deps.Catalog.Predictions)
	}
	if deps.SeriesDays <= 0 {
		deps.SeriesDays = quotes.DefaultSeriesDays
	}

	s := &Server{deps: deps, apiKey: apiKey}

	mux := http.NewServeMux()

	// Quote routes
	mux.HandleFunc("GET /v1/quotes", s.handleQuotes)
	mux.HandleFunc("GET /v1/stocks/popular", s.handlePopular)
	mux.HandleFunc("GET /v1/stocks/{$}", s.handleStock)
	mux.HandleFunc("GET /v1/stocks/{symbol}", s.handleStock)
	mux.HandleFunc("GET /v1/series/{symbol}", s.handleSeries)

	// Catalog routes
	mux.HandleFunc("GET /v1/predictions", s.handlePredictions)
	mux.HandleFunc("GET /v1/predictions/{symbol}", s.handlePrediction)
	mux.HandleFunc("GET /v1/team", s.handleTeam)

	// Auth routes
	mux.HandleFunc("POST /v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	return s
}

// Handler exposes the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- request helpers ---

// parseCount reads a positive integer query parameter, falling back to def.
func parseCount(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
