// Package server runs the HTTP side of the bot: liveness routes for the
// hosting platform and the Prometheus scrape endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artur/clipdrop/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// Service runs an *http.Server under a suture supervisor.
type Service struct {
	server          *http.Server
	name            string
	shutdownTimeout time.Duration
	log             zerolog.Logger
}

func NewService(name string, server *http.Server) *Service {
	return &Service{
		server:          server,
		name:            name,
		shutdownTimeout: defaultShutdownTimeout,
		log:             logging.Component(name),
	}
}

// New returns the liveness service listening on addr.
func New(addr string) *Service {
	return NewService("liveness", NewHTTPServer(addr, Routes()))
}

// NewHTTPServer wraps handler in an *http.Server with the shared timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Serve listens until ctx is cancelled, then shuts the server down gracefully.
func (s *Service) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		s.log.Info().Msg("http server stopped")
		return ctx.Err()
	}
}

func (s *Service) String() string {
	return s.name
}

// Routes builds the liveness router.
func Routes() http.Handler {
	r := NewRouter("liveness")

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Bot is running!"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// NewRouter returns a chi router with the common middleware stack.
func NewRouter(component string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logging.Component(component)))
	r.Use(chimw.Recoverer)
	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logging.Component("http")
		log.Error().Err(err).Msg("failed to encode response")
	}
}
