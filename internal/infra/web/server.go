// Package web serves the operational HTTP surface: health, Prometheus
// metrics, read-only job/queue views and the admin debug toggle.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-ai-forge/internal/config"
)

type Server struct {
	jobs        JobDirectory
	auth        *AuthManager
	archiveBase string
	srv         *http.Server
	log         *zerolog.Logger
}

func NewServer(cfg config.WebConfig, paths config.PathsConfig, jobs JobDirectory, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	s := &Server{
		jobs:        jobs,
		auth:        NewAuthManager(cfg.AdminSecret, false, "", cfg.SessionTTL),
		archiveBase: paths.ArchiveBase,
		log:         &l,
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(30*time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/jobs/{id}", jobGetHandler(s.jobs))
		r.Get("/jobs/{id}/archive", jobArchiveHandler(s.jobs, s.archiveBase))
		r.Get("/queue", queueHandler(s.jobs))

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", loginHandler(s.auth))
			r.Post("/logout", logoutHandler(s.auth))

			r.Group(func(r chi.Router) {
				r.Use(s.auth.RequireAdmin())
				r.Post("/debug/{userID}", debugSetHandler(s.jobs, true))
				r.Delete("/debug/{userID}", debugSetHandler(s.jobs, false))
			})
		})
	})
	return r
}

// Handler exposes the routed handler; tests drive it via httptest.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("web server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
