package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/config"
	"github.com/aasimohyeah/natours/logging"
	"github.com/aasimohyeah/natours/middleware"
	"github.com/aasimohyeah/natours/storage"
	"github.com/aasimohyeah/natours/tours"
)

// Query parameters that may be repeated.
var pollutionWhitelist = []string{
	"duration",
	"ratingsQuantity",
	"ratingsAverage",
	"maxGroupSize",
	"difficulty",
	"price",
}

func main() {
	configPath := flag.String("config", os.Getenv("NATOURS_CONFIG"), "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coll, closeStorage, err := storage.OpenTours(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(context.Background()); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()
	log.Info("storage ready", zap.String("backend", cfg.Storage.Backend))

	limiter, closeLimiter := newLimiter(cfg.RateLimit)
	defer closeLimiter()

	router := newRouter(cfg, log, coll, limiter)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newLimiter(cfg config.RateLimitConfig) (middleware.Limiter, func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}
	if cfg.RedisAddr == "" {
		return middleware.NewLocalLimiter(cfg.Max, cfg.Window), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return middleware.NewRedisLimiter(client, cfg.Max, cfg.Window), func() { _ = client.Close() }
}

func newRouter(cfg *config.Config, log *zap.Logger, coll storage.Collection, limiter middleware.Limiter) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	mode := natours.Development
	if cfg.IsProduction() {
		mode = natours.Production
	}

	var stageLogger natours.Logger = logging.NewStageLogger(log)
	if cfg.Logging.StageTrace {
		stageLogger = natours.DefaultLogger{}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(natours.UseMode(mode))

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := middleware.NewMetrics(registry)
		router.Use(metrics.Middleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, natours.H{"status": "ok"})
	})

	api := router.Group("/api")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter, cfg.RateLimit.Max, log))
	}
	api.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	api.Use(middleware.Sanitize())
	api.Use(middleware.ParameterPollution(pollutionWhitelist...))

	tours.Register(api.Group("/v1"), coll, stageLogger)

	router.NoRoute(natours.NotFound())
	return router
}
