// Package server exposes the stemmer over a small JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deidaraiorek/snowstem/internal/config"
	"github.com/deidaraiorek/snowstem/internal/storage"
	"github.com/deidaraiorek/snowstem/internal/tokenizer"
)

// Version is reported by /healthz.
var Version = "dev"

// Server holds HTTP handlers for the snowstem API.
type Server struct {
	cfg       *config.Config
	store     storage.Store
	storePath string
	tokenizer *tokenizer.Tokenizer
	logger    *slog.Logger
	router    chi.Router
}

// New wires the routes. store may be nil, in which case the document
// endpoints answer 503. storePath, when set, is locked around every stored
// document that is stemmed.
func New(cfg *config.Config, store storage.Store, storePath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		store:     store,
		storePath: storePath,
		tokenizer: cfg.Tokenizer.New(),
		logger:    logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.cfg.Server.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(s.cfg.Server.MaxBodyBytes))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/languages", s.handleLanguages)
		r.Post("/stem", s.handleStem)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Get("/{name}", s.handleGetDocument)
			r.Put("/{name}", s.handlePutDocument)
			r.Delete("/{name}", s.handleDeleteDocument)
			r.Post("/{name}/stem", s.handleStemDocument)
		})
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", time.Since(start)))
	})
}
