// Package server exposes a resolver over a small read-only HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/olehluchkiv/goimplements/internal/registry"
	"github.com/olehluchkiv/goimplements/internal/render"
	"github.com/olehluchkiv/goimplements/internal/resolver"
)

// Catalog is the registry view the server needs: lookups for rendering and
// a listing for /api/registry.
type Catalog interface {
	Lookup(name string) (registry.Descriptor, bool)
	Names() []string
}

// Config holds what the server is built from.
type Config struct {
	Resolver *resolver.Resolver
	Catalog  Catalog
	Port     int
	Logger   *slog.Logger
}

// Server answers implements queries over HTTP.
type Server struct {
	resolver *resolver.Resolver
	catalog  Catalog
	port     int
	logger   *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		resolver: cfg.Resolver,
		catalog:  cfg.Catalog,
		port:     cfg.Port,
		logger:   logger.With("component", "server"),
	}
}

// Handler returns the routed handler. Names contain slashes (import
// paths), so they are matched as a trailing wildcard.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/registry", s.handleRegistry)
		r.Get("/implements/*", s.handleImplements(render.FormatJSON))
		r.Get("/mermaid/*", s.handleImplements(render.FormatMermaid))
	})
	return r
}

// Serve listens on the configured port until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting HTTP server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	return eg.Wait()
}

func (s *Server) handleImplements(format render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		if name == "" {
			writeError(w, name, http.StatusBadRequest, errors.New("missing class or interface name"))
			return
		}

		autoload := true
		if v := r.URL.Query().Get("autoload"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, name, http.StatusBadRequest, fmt.Errorf("autoload: %w", err))
				return
			}
			autoload = b
		}

		ifaces, err := s.resolver.Resolve(r.Context(), resolver.ByName(name), resolver.WithAutoload(autoload))
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("resolve failed", "name", name, "error", err)
			} else {
				s.logger.Debug("resolve failed", "name", name, "error", err)
			}
			writeError(w, name, status, err)
			return
		}

		setContentType(w, format)
		if err := render.New(format, s.catalog).Result(w, name, ifaces); err != nil {
			s.logger.Error("failed to write response", "error", err)
		}
	}
}

type registryEntry struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Parent     string   `json:"parent,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	Source     string   `json:"source,omitempty"`
}

func (s *Server) handleRegistry(w http.ResponseWriter, _ *http.Request) {
	entries := []registryEntry{}
	for _, name := range s.catalog.Names() {
		d, ok := s.catalog.Lookup(name)
		if !ok {
			continue
		}
		entries = append(entries, registryEntry{
			Name:       d.Name,
			Kind:       d.Kind.String(),
			Parent:     d.Parent,
			Interfaces: d.Interfaces,
			Source:     d.Source,
		})
	}
	setContentType(w, render.FormatJSON)
	if err := render.WriteJSON(w, entries); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// statusFor maps resolver failures to HTTP status codes.
func statusFor(err error) int {
	var cycle *resolver.CycleError
	var kind *resolver.KindError
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &cycle), errors.As(err, &kind):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resolver.ErrInvalidSubject):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError always answers in JSON, mermaid routes included.
func writeError(w http.ResponseWriter, name string, status int, err error) {
	setContentType(w, render.FormatJSON)
	w.WriteHeader(status)
	_ = render.New(render.FormatJSON, nil).Error(w, name, err)
}

func setContentType(w http.ResponseWriter, format render.Format) {
	if format == render.FormatJSON {
		w.Header().Set("Content-Type", "application/json")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
}

// requestLogger logs each request at debug level with its status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
