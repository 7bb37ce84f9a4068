package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/globeandmail/enrich/pkg/log"
)

// Server exposes the Prometheus metrics endpoint.
type Server struct {
	server *http.Server
	logger log.Logger
}

// NewServer creates a metrics server listening on addr (e.g. ":9102").
func NewServer(addr string, registry *Registry, logger log.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Start serves metrics until the listener fails. Run it on its own
// goroutine; a closed server returns nil.
func (s *Server) Start() error {
	s.logger.Info("metrics server listening", log.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
