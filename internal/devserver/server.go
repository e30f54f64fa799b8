// Package devserver serves the sleeves REST API from memory so the client
// can be exercised end to end without the real backend.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/catalog"
	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// DefaultAddr matches the client's default api.base_url.
const DefaultAddr = "127.0.0.1:8000"

type ServerConfig struct {
	Addr           string
	Sleeves        []types.Sleeve
	Engine         *reward.Engine
	StartingWallet int
	Logger         *zap.Logger
	Clock          func() time.Time
}

type Server struct {
	router   chi.Router
	server   *http.Server
	state    *State
	handlers *Handlers
	logger   *zap.Logger
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Sleeves == nil {
		cfg.Sleeves = catalog.Sleeves()
	}
	if cfg.Engine == nil {
		cfg.Engine = reward.NewEngine(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	logger := cfg.Logger.Named("devserver")
	state := NewState(cfg.Sleeves, cfg.StartingWallet, cfg.Clock)

	s := &Server{
		router:   chi.NewRouter(),
		state:    state,
		handlers: NewHandlers(state, cfg.Engine, logger),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/songs/", s.handlers.Songs)
		r.Get("/sleeves/", s.handlers.Sleeves)
		r.Post("/sleeves/{sleeveID}/open", s.handlers.OpenSleeve)
		r.Get("/inventory/", s.handlers.Inventory)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register/", s.handlers.Register)
			r.Post("/login/", s.handlers.Login)
			r.Get("/session/", s.handlers.Session)
			r.Post("/logout/", s.handlers.Logout)
		})
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
		)
	})
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// State gives direct access to the in-memory backend data.
func (s *Server) State() *State {
	return s.state
}

func (s *Server) Start() error {
	s.logger.Info("dev backend listening", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}

	s.logger.Info("shutting down dev backend")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
