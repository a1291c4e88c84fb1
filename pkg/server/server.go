// Package server exposes the concierge over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/elyxhealth/concierge/pkg/analytics"
	"github.com/elyxhealth/concierge/pkg/chat"
	"github.com/elyxhealth/concierge/pkg/logger"
	"github.com/elyxhealth/concierge/pkg/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds the handler dependencies.
type Server struct {
	repo   store.Repository
	engine *chat.Engine
	agg    *analytics.Aggregator
	log    *logger.Logger
}

// New creates a Server.
func New(repo store.Repository, engine *chat.Engine, agg *analytics.Aggregator) *Server {
	return &Server{
		repo:   repo,
		engine: engine,
		agg:    agg,
		log:    logger.WithComponent("server"),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(CORS(corsOrigins))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/chat/history", s.handleChatHistory)

		r.Get("/specialists", s.handleSpecialists)
		r.Get("/specialists/stats", s.handleSpecialistStats)

		r.Get("/plans", s.handlePlans)
		r.Route("/plans/{planID}", func(r chi.Router) {
			r.Get("/", s.handleGetPlan)
			r.Delete("/", s.handleDeactivatePlan)
			r.Get("/progress", s.handlePlanProgress)
			r.Post("/progress", s.handleMarkProgress)
		})

		r.Get("/dashboard/summary", s.handleDashboardSummary)

		r.Get("/progress/check-daily", s.handleCheckDaily)
		r.Post("/progress/daily-report", s.handleDailyReport)

		r.Get("/analytics/time-spent", s.handleTimeSpent)
		r.Get("/analytics/trends", s.handleTrends)
	})

	return r
}

// CORS returns middleware that handles CORS headers.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
