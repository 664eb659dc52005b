package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DRPozdniakov/Tracker/internal/logging"
	"github.com/DRPozdniakov/Tracker/internal/services"
)

// Server is the read-only reporting API. Writes only ever happen through
// the chat transport; this surface exists for dashboards and debugging.
type Server struct {
	timesheet *services.TimesheetService
	logger    *slog.Logger
}

func NewServer(timesheet *services.TimesheetService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		timesheet: timesheet,
		logger:    logger.With("component", "httpapi"),
	}
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(s.withLogger)

	// Health check endpoints
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/timesheet", s.handleTimesheet)
	})

	return router
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithContext(r.Context(), s.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
