// Package httpapi is the REST control plane spec.md §6 describes:
// job submission/status routes and read-only rollup query routes,
// grounded on DrisanJames-project-jarvis's chi-based server/router
// split.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server wraps the chi router with the http.Server lifecycle.
type Server struct {
	handler http.Handler
	server  *http.Server
	log     *logrus.Entry
}

func NewServer(addr string, deps Dependencies, log *logrus.Entry) *Server {
	router := NewRouter(deps, log)
	return &Server{
		handler: router,
		log:     log,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}
