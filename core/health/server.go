// Package health serves a small JSON liveness endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m3rciful/buttonbot/core/buildinfo"
	"github.com/m3rciful/buttonbot/core/logger"
)

// Reporter supplies the live figures shown by /healthz.
type Reporter interface {
	Sessions() int
	SendFailures() uint64
}

// Status is the /healthz response body.
type Status struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Sessions     int    `json:"sessions"`
	SendFailures uint64 `json:"send_failures"`
}

// Server wraps the HTTP listener.
type Server struct {
	srv *http.Server
}

// New builds a server listening on addr.
func New(addr string, rep Reporter) *Server {
	return &Server{srv: &http.Server{
		Addr:         addr,
		Handler:      NewRouter(rep),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}}
}

// NewRouter registers GET /healthz.
func NewRouter(rep Reporter) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := Status{Status: "ok", Version: buildinfo.Version}
		if rep != nil {
			body.Sessions = rep.Sessions()
			body.SendFailures = rep.SendFailures()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Warn(context.Background(), "health", "health.write",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}).Methods(http.MethodGet)
	return r
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	logger.Info(context.Background(), "health", "health.listen",
		slog.String("status", "ok"),
		slog.String("listen", s.srv.Addr),
	)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "health", "health.listen",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Shutdown stops the listener, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
