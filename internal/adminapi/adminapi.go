// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package adminapi exposes h2sr's optional operational surface: a
// liveness probe and a Prometheus scrape endpoint, bound to a second
// listener separate from the proxy's own (spec's admin_listen ambient
// addition, grounded on the teacher's gorilla/mux admin API routing).
package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/h2sr/internal/logging"
)

// Server serves /healthz and /metrics on a dedicated listen address.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

// NewServer builds an admin Server bound to listen, scraping reg for
// /metrics.
func NewServer(listen string, reg *prometheus.Registry) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{
			Addr:              listen,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logging.WithComponent("adminapi"),
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ListenAndServe starts the admin server and blocks until ctx is
// canceled or an unrecoverable error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
