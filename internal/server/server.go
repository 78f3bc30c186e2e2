// Package server provides the HTTP surface of mimic: health, history,
// detection toggle, the composited MJPEG stream and live gesture events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ayusman/mimic/internal/server/api"
	"github.com/ayusman/mimic/internal/store"
)

// Config holds the server dependencies. Nil dependencies disable their routes.
type Config struct {
	StaticDir string
	Store     *store.Store
	Assets    api.AssetCatalog
	Detection api.DetectionControl
	Frames    *FrameHub
	Events    *EventHub
	Logger    *zap.Logger
}

// Server is the HTTP handler for the mimic API.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
	logger *zap.Logger
}

func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	if s.config.Assets != nil {
		r.Handle("/api/gestures", api.NewGestureHandler(s.config.Assets)).Methods(http.MethodGet)
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		r.HandleFunc("/api/sessions", sessions.List).Methods(http.MethodGet)
		r.HandleFunc("/api/sessions/{id}", sessions.Get).Methods(http.MethodGet)
		r.HandleFunc("/api/sessions/{id}/events", sessions.Events).Methods(http.MethodGet)
	}

	if s.config.Detection != nil {
		detection := api.NewDetectionHandler(s.config.Detection)
		r.HandleFunc("/api/detection", detection.Get).Methods(http.MethodGet)
		r.HandleFunc("/api/detection", detection.Put).Methods(http.MethodPut)
	}

	if s.config.Frames != nil {
		r.Handle("/api/stream", NewStreamHandler(s.config.Frames)).Methods(http.MethodGet)
	}

	if s.config.Events != nil {
		r.Handle("/api/ws", s.config.Events).Methods(http.MethodGet)
	}

	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Events != nil {
		response["clients"] = s.config.Events.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Handler:           s,
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Streams never finish on their own.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	srv.Close()
	s.logger.Info("http server stopped")
	return nil
}
