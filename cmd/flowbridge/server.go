package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flowbridge/flowbridge/api/handlers"
	"github.com/flowbridge/flowbridge/bridge"
	"github.com/flowbridge/flowbridge/config"
	"github.com/flowbridge/flowbridge/engine"
	"github.com/flowbridge/flowbridge/graph"
	"github.com/flowbridge/flowbridge/internal/metrics"
	"github.com/flowbridge/flowbridge/internal/server"
	"github.com/flowbridge/flowbridge/internal/telemetry"
	"github.com/flowbridge/flowbridge/notify"
	"github.com/flowbridge/flowbridge/persist"
	"github.com/flowbridge/flowbridge/wallet"
)

// Server owns the full service: the graph store, the executor, workflow
// persistence, and the HTTP and metrics listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	store    *graph.Store
	executor *engine.Executor
	db       *persist.Store
	cache    *persist.Cache

	collector *metrics.Collector
	providers *telemetry.Providers

	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server from loaded configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, providers *telemetry.Providers) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		providers: providers,
	}
}

// Start brings up persistence, the executor, and both listeners.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector("flowbridge", s.logger)

	s.openPersistence()
	s.store = graph.NewStore(s.logger)
	s.restoreCachedGraph()
	s.executor = engine.NewExecutor(s.store, s.buildDeps(), engine.Config{
		Pacing:           s.cfg.Executor.Pacing,
		BridgeTimeout:    s.cfg.Executor.BridgeTimeout,
		DefaultRecipient: s.cfg.Bridge.DefaultRecipient,
		DefaultAmount:    s.cfg.Bridge.DefaultAmount,
	}, s.logger)

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	return nil
}

// openPersistence connects the database and, when enabled, the Redis
// snapshot cache. Both are optional: on failure the feature is disabled
// and the service keeps running in-memory.
func (s *Server) openPersistence() {
	db, err := persist.Open(persist.DatabaseConfig{
		Driver:          s.cfg.Database.Driver,
		Host:            s.cfg.Database.Host,
		Port:            s.cfg.Database.Port,
		User:            s.cfg.Database.User,
		Password:        s.cfg.Database.Password,
		Name:            s.cfg.Database.Name,
		SSLMode:         s.cfg.Database.SSLMode,
		MaxOpenConns:    s.cfg.Database.MaxOpenConns,
		MaxIdleConns:    s.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
	}, s.logger)
	if err != nil {
		s.logger.Warn("database not available, workflow persistence disabled", zap.Error(err))
	} else {
		s.db = db
	}

	if !s.cfg.Redis.Enabled {
		return
	}
	cacheCfg := persist.DefaultCacheConfig()
	cacheCfg.Addr = s.cfg.Redis.Addr
	cacheCfg.Password = s.cfg.Redis.Password
	cacheCfg.DB = s.cfg.Redis.DB
	cacheCfg.PoolSize = s.cfg.Redis.PoolSize
	cacheCfg.MinIdleConns = s.cfg.Redis.MinIdleConns
	cache, err := persist.NewCache(cacheCfg, s.logger)
	if err != nil {
		s.logger.Warn("redis not available, graph snapshot cache disabled", zap.Error(err))
		return
	}
	s.cache = cache
}

// restoreCachedGraph reloads the last cached graph snapshot so a restart
// does not lose the canvas in progress.
func (s *Server) restoreCachedGraph() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := s.cache.LoadGraph(ctx)
	if err != nil {
		if err != persist.ErrCacheMiss {
			s.logger.Warn("failed to load cached graph", zap.Error(err))
		}
		return
	}
	if err := s.store.Import(data); err != nil {
		s.logger.Warn("cached graph snapshot is not importable", zap.Error(err))
		return
	}
	s.logger.Info("graph restored from cache", zap.Int("nodes", s.store.Len()))
}

// buildDeps assembles the executor's collaborators from configuration.
func (s *Server) buildDeps() engine.Deps {
	deps := engine.Deps{
		Wallet: &wallet.Static{
			Account: s.cfg.Wallet.Address,
			Chain:   s.cfg.Wallet.ChainID,
		},
		Bridges: map[graph.NodeType]bridge.Adapter{},
		Metrics: s.collector,
	}

	if s.cfg.Bridge.Messaging.BaseURL != "" {
		deps.Bridges[graph.NodeTypeBridgeBase] = bridge.NewMessagingClient(bridge.MessagingConfig{
			BaseURL:      s.cfg.Bridge.Messaging.BaseURL,
			APIKey:       s.cfg.Bridge.Messaging.APIKey,
			Timeout:      s.cfg.Bridge.Messaging.Timeout,
			PollInterval: s.cfg.Bridge.Messaging.PollInterval,
		}, s.logger)
	}
	if s.cfg.Bridge.Intent.BaseURL != "" {
		deps.Bridges[graph.NodeTypeBridgeHedera] = bridge.NewIntentClient(bridge.IntentConfig{
			BaseURL:      s.cfg.Bridge.Intent.BaseURL,
			APIKey:       s.cfg.Bridge.Intent.APIToken,
			Timeout:      s.cfg.Bridge.Intent.Timeout,
			PollInterval: s.cfg.Bridge.Intent.PollInterval,
		}, s.logger)
	}

	if s.cfg.Telegram.BotToken != "" {
		deps.Notifier = notify.NewTelegram(notify.TelegramConfig{
			BotToken:      s.cfg.Telegram.BotToken,
			BaseURL:       s.cfg.Telegram.BaseURL,
			DefaultChatID: s.cfg.Telegram.DefaultChatID,
			RatePerSecond: s.cfg.Telegram.RatePerSecond,
		}, s.logger)
	}
	return deps
}

func (s *Server) startHTTPServer() error {
	healthHandler := handlers.NewHealthHandler(s.logger)
	if s.db != nil {
		healthHandler.RegisterCheck(handlers.CheckFunc{
			CheckName: "database",
			Fn:        s.db.Ping,
		})
	}
	if s.cache != nil {
		healthHandler.RegisterCheck(handlers.CheckFunc{
			CheckName: "redis",
			Fn:        s.cache.Ping,
		})
	}

	mux := handlers.NewRouter(handlers.RouterDeps{
		Graph:  handlers.NewGraphHandler(s.store, s.db, s.cache, s.logger),
		Run:    handlers.NewRunHandler(s.executor, s.cfg.Server.AllowedOrigin, s.logger),
		Health: healthHandler,
	})

	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.AllowedOrigin),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		MetricsMiddleware(s.collector),
		OTelTracing(),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}
	s.logger.Info("http server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}
	s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until SIGINT/SIGTERM or a serve error, then
// shuts everything down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the listeners and releases external connections.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// Both listeners drain in parallel inside the shutdown timeout.
	var g errgroup.Group
	if s.httpManager != nil {
		g.Go(func() error { return s.httpManager.Shutdown(ctx) })
	}
	if s.metricsManager != nil {
		g.Go(func() error { return s.metricsManager.Shutdown(ctx) })
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("server shutdown error", zap.Error(err))
	}

	// Persist the current canvas so a restart picks it up again.
	if s.cache != nil && s.store != nil {
		if data, err := s.store.Export(); err == nil {
			if err := s.cache.StoreGraph(ctx, data); err != nil {
				s.logger.Warn("failed to cache graph snapshot", zap.Error(err))
			}
		}
		if err := s.cache.Close(); err != nil {
			s.logger.Error("redis close error", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", zap.Error(err))
		}
	}
	if s.providers != nil {
		if err := s.providers.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("shutdown complete")
}
