package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server exposes /metrics and /health over HTTP.
type Server struct {
	server *http.Server
	log    *logrus.Entry
}

func NewServer(addr string, m *Metrics, log *logrus.Entry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// StartAsync serves in a goroutine. A listen failure is logged, not fatal.
func (s *Server) StartAsync() {
	go func() {
		s.log.WithField("address", s.server.Addr).Info("metrics server listening")
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("metrics server stopped")
		}
	}()
}

// Stop shuts the server down, waiting for in-flight scrapes until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
