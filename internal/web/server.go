package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/cache"
	"github.com/dwlarson10/basketball-stats/internal/refresh"
	"github.com/dwlarson10/basketball-stats/internal/store"

	"github.com/gorilla/mux"
)

// Server serves the dashboard and the JSON API.
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates the dashboard server. The cache may be nil.
func NewServer(port string, db *store.Database, rc *cache.RedisCache, refreshSvc *refresh.Service) *Server {
	handler := NewHandler(db, rc, refreshSvc)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Dashboard
	router.HandleFunc("/", handler.Dashboard).Methods("GET")

	// API routes
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/seasons", handler.GetSeasons).Methods("GET")
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/players", handler.GetPlayers).Methods("GET")
	api.HandleFunc("/matchup", handler.GetMatchup).Methods("GET")
	api.HandleFunc("/refresh", handler.TriggerRefresh).Methods("POST")
	api.HandleFunc("/refresh/status", handler.RefreshStatus).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// SetCacheTTLs overrides the handler's default cache lifetimes.
func (s *Server) SetCacheTTLs(ttls CacheTTLs) {
	s.handler.SetCacheTTLs(ttls)
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.server.Handler
}

// Start starts the dashboard server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
