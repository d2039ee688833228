package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjannette/swing-trade-backend/internal/service"
)

const maxQueryLimit = 1000

type Server struct {
	pool       *pgxpool.Pool
	svc        *service.Service
	httpServer *http.Server
	apiKey     string
}

func NewServer(pool *pgxpool.Pool, svc *service.Service, port int, apiKey, corsOrigin string) *Server {
	s := &Server{
		pool:   pool,
		svc:    svc,
		apiKey: apiKey,
	}

	mux := http.NewServeMux()

	// Strategy lifecycle
	mux.HandleFunc("POST /v1/strategies", s.handleCreateStrategy)
	mux.HandleFunc("GET /v1/strategies", s.handleListStrategies)
	mux.HandleFunc("GET /v1/strategies/{id}", s.handleGetStrategy)
	mux.HandleFunc("PUT /v1/strategies/{id}", s.handleUpdateStrategy)
	mux.HandleFunc("DELETE /v1/strategies/{id}", s.handleDeleteStrategy)
	mux.HandleFunc("POST /v1/strategies/{id}/pause", s.handlePauseStrategy)
	mux.HandleFunc("POST /v1/strategies/{id}/activate", s.handleActivateStrategy)
	mux.HandleFunc("POST /v1/strategies/{id}/position", s.handleRegisterPosition)
	mux.HandleFunc("POST /v1/strategies/{id}/tick", s.handleTickStrategy)

	// History and stats
	mux.HandleFunc("GET /v1/strategies/{id}/signals", s.handleSignals)
	mux.HandleFunc("GET /v1/strategies/{id}/executions", s.handleExecutions)
	mux.HandleFunc("GET /v1/strategies/{id}/stats", s.handleStats)

	// Observability (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
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
		if s.apiKey == "" || r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
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
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
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
