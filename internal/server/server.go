// Package server wires the pressroom services together and serves the HTTP
// API: project store, research sessions, provider registry, pipeline, image
// hosting, and WeChat publishing.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pressroom/pressroom/internal/api"
	"github.com/pressroom/pressroom/internal/config"
	"github.com/pressroom/pressroom/internal/home"
	"github.com/pressroom/pressroom/internal/imagehost"
	"github.com/pressroom/pressroom/internal/pipeline"
	"github.com/pressroom/pressroom/internal/providers"
	"github.com/pressroom/pressroom/internal/publisher"
	"github.com/pressroom/pressroom/internal/server/endpoints"
	"github.com/pressroom/pressroom/internal/session"
	"github.com/pressroom/pressroom/internal/store"
	"github.com/pressroom/pressroom/internal/svcctx"
)

// Server is the main Pressroom HTTP server. It owns the project database and
// session store lifecycles: opened on Start, closed on shutdown.
type Server struct {
	httpServer *http.Server
	home       *home.Dir
	registry   *providers.Registry
	router     *providers.Router
	configMgr  *config.Manager
	logger     *slog.Logger

	store    *store.Store
	sessions *session.Store

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the pressroom home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := cfg.ConfigManager.Get()
	if cfg.Host == "" {
		cfg.Host = appCfg.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = appCfg.Server.Port
	}

	// Generated images are written to the home files dir and referenced by
	// the externally visible base URL.
	hosting := imagehost.New(cfg.Home.FilesPath(), appCfg.Server.BaseURL)

	registry := providers.NewRegistryFromConfig(appCfg.ToRegistryConfig(), hosting)
	registry.SetLogger(cfg.Logger)

	router := providers.NewRouter(registry, providers.RouterConfig{
		FastRetries:    appCfg.Router.FastRetries,
		QualityRetries: appCfg.Router.QualityRetries,
	}, cfg.Logger)

	// Hot reload: backend credentials and retry budgets follow the config
	// file without a restart.
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToRegistryConfig())
		router.SetRetries(providers.RouterConfig{
			FastRetries:    c.Router.FastRetries,
			QualityRetries: c.Router.QualityRetries,
		})
		cfg.Logger.Info("provider registry reloaded from config")
	})

	s := &Server{
		home:      cfg.Home,
		registry:  registry,
		router:    router,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	// Hosted files (generated images, covers) are served straight from disk.
	mux.Handle("GET /files/", http.StripPrefix("/files/",
		http.FileServer(http.Dir(cfg.Home.FilesPath()))))

	// Write timeout must cover the slowest LLM stage; article drafting on a
	// reasoning model can run several minutes.
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 600 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start opens the stores and serves HTTP. It blocks until the context is
// cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.initServices(); err != nil {
		s.setNotRunning()
		return err
	}

	s.configMgr.WatchConfig()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// initServices opens the stores and assembles the service stack that flows
// through request contexts.
func (s *Server) initServices() error {
	if err := s.home.EnsureExists(); err != nil {
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	st, err := store.New(s.home.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open project store: %w", err)
	}
	s.store = st

	appCfg := s.configMgr.Get()
	s.sessions = session.NewStore(
		time.Duration(appCfg.Session.TTLMinutes)*time.Minute,
		time.Duration(appCfg.Session.SweepMinutes)*time.Minute,
	)

	pipe := pipeline.New(s.router, s.registry, s.store, s.logger)

	// Publishing stays off when no WeChat credentials are configured; the
	// publish endpoint reports 503 in that case.
	var pub *publisher.Publisher
	appID := config.ResolveEnvVars(appCfg.WeChat.AppID)
	appSecret := config.ResolveEnvVars(appCfg.WeChat.AppSecret)
	if appID != "" && appSecret != "" {
		pub, err = publisher.New(publisher.Config{
			AppID:     appID,
			AppSecret: appSecret,
			BaseURL:   appCfg.WeChat.BaseURL,
			FilesDir:  s.home.FilesPath(),
		}, s.logger)
		if err != nil {
			s.logger.Warn("wechat publisher disabled", "error", err)
		}
	} else {
		s.logger.Info("wechat credentials not set, publishing disabled")
	}

	s.services = &svcctx.Services{
		Store:     s.store,
		Sessions:  s.sessions,
		Registry:  s.registry,
		Router:    s.router,
		Pipeline:  pipe,
		Publisher: pub,
		ConfigMgr: s.configMgr,
		Home:      s.home,
		Logger:    s.logger,
	}
	return nil
}

// shutdown performs graceful shutdown of the HTTP server and closes stores.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.sessions != nil {
		s.sessions.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("project store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Handler returns the full HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until Start has opened the stores.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
