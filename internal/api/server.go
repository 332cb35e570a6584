// Package api exposes items, events and reminders over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/status"
	"github.com/pbaille/since/internal/store"
)

// Server handles HTTP requests for the tracker API
type Server struct {
	store  *store.Store
	addr   string
	opts   status.Options
	logger *log.Logger
	now    func() time.Time
}

// Config holds server configuration
type Config struct {
	Addr    string
	Store   *store.Store
	Options status.Options
	Logger  *log.Logger
	Now     func() time.Time
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		store:  cfg.Store,
		addr:   cfg.Addr,
		opts:   cfg.Options,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "api"})
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Items
	mux.HandleFunc("GET /items", s.listItems)
	mux.HandleFunc("POST /items", s.addItem)
	mux.HandleFunc("GET /items/{id}", s.getItem)
	mux.HandleFunc("PATCH /items/{id}", s.updateItem)
	mux.HandleFunc("DELETE /items/{id}", s.deleteItem)

	// Events
	mux.HandleFunc("GET /items/{id}/events", s.listEvents)
	mux.HandleFunc("POST /items/{id}/events", s.addEvent)
	mux.HandleFunc("DELETE /events/{id}", s.deleteEvent)

	// Reminders
	mux.HandleFunc("GET /items/{id}/config", s.getConfig)
	mux.HandleFunc("PUT /items/{id}/config", s.setConfig)
	mux.HandleFunc("GET /due", s.listDue)
	mux.HandleFunc("GET /calendar.ics", s.exportCalendar)

	// Settings
	mux.HandleFunc("GET /settings", s.getSettings)
	mux.HandleFunc("PUT /settings", s.updateSettings)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return s.withLogging(withCORS(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting server", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusOptions applies the stored display mode to the server options
func (s *Server) statusOptions() (status.Options, error) {
	settings, err := s.store.GetSettings()
	if err != nil {
		return s.opts, err
	}
	return s.opts.WithSettings(settings), nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps domain errors to status codes
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAmbiguous):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("store", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
