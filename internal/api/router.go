package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/petrhn/arena-server/internal/api/handler"
	apimiddleware "github.com/petrhn/arena-server/internal/api/middleware"
	"github.com/petrhn/arena-server/internal/middleware"
	"github.com/petrhn/arena-server/internal/services/identity"
	"github.com/petrhn/arena-server/internal/services/progression"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Verifier           identity.Verifier
	Binder             *identity.Service
	ProgressionService *progression.Service
	// RealtimeHandler serves the websocket channel at /ws
	RealtimeHandler http.Handler
	// CORSOrigin is the allowed cross-origin value ("*" when empty)
	CORSOrigin string
}

// NewRouter creates the HTTP router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	profileHandler := handler.NewProfileHandler(cfg.ProgressionService)

	authMiddleware := apimiddleware.Auth(cfg.Verifier, cfg.Binder)
	corsMiddleware := apimiddleware.CORS(cfg.CORSOrigin)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(corsMiddleware)
	api.Use(authMiddleware)

	api.HandleFunc("/profile", profileHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/progress", profileHandler.UpdateProgress).Methods(http.MethodPut)
	api.HandleFunc("/migrate", profileHandler.Migrate).Methods(http.MethodPost)

	// Preflight requests must not hit the auth middleware
	r.PathPrefix("/api/v1").Methods(http.MethodOptions).Handler(
		corsMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))

	// Liveness check (no auth)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Real-time channel
	if cfg.RealtimeHandler != nil {
		r.Handle("/ws", cfg.RealtimeHandler)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
