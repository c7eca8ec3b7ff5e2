package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/kailas-cloud/petmatch/internal/bootstrap"
	"github.com/kailas-cloud/petmatch/internal/config"
	dbRedis "github.com/kailas-cloud/petmatch/internal/db/redis"
	logpkg "github.com/kailas-cloud/petmatch/internal/logger"
	"github.com/kailas-cloud/petmatch/internal/metrics"
	budgetrepo "github.com/kailas-cloud/petmatch/internal/repository/budget"
	"github.com/kailas-cloud/petmatch/internal/repository/enrichcache"
	chiTransport "github.com/kailas-cloud/petmatch/internal/transport/chi"
	"github.com/kailas-cloud/petmatch/internal/transport/petfinder"
	budgetuc "github.com/kailas-cloud/petmatch/internal/usecase/budget"
	enrichuc "github.com/kailas-cloud/petmatch/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/petmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
	randomuc "github.com/kailas-cloud/petmatch/internal/usecase/random"
	usageuc "github.com/kailas-cloud/petmatch/internal/usecase/usage"
	"github.com/kailas-cloud/petmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting petmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vision_provider", cfg.Vision.Provider),
		zap.String("vision_model", cfg.Vision.Model),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterMatchMetrics()

	ctx := context.Background()

	// Optional cache: enrichment results and budget counters live here.
	var store *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache")
	} else {
		logger.Warn("No cache configured, enrichment results will not be cached")
	}

	// Pet directory
	directory := bootstrap.NewDirectory(&cfg.Directory, logger)

	// Vision provider, guarded by the shared call budget.
	provider, err := bootstrap.NewVision(ctx, &cfg.Vision, logger)
	if err != nil {
		logger.Fatal("Failed to create vision provider", zap.Error(err))
	}

	var tracker *budgetuc.Tracker
	budgetCfg := cfg.Vision.Budget
	if budgetCfg.DailyCallLimit > 0 || budgetCfg.MonthlyCallLimit > 0 {
		tracker = budgetuc.NewTracker(
			cfg.Vision.Provider, cfg.Cache.KeyPrefix,
			budgetCfg.DailyCallLimit, budgetCfg.MonthlyCallLimit,
			budgetuc.Action(budgetCfg.Action), logger,
		)
		if store != nil {
			tracker.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var checker budgetuc.Checker
	if tracker != nil {
		checker = tracker
	}
	vision := budgetuc.NewGuardedVision(provider, cfg.Vision.Provider, cfg.Vision.Model, checker, logger)

	// Relaxation engine
	engine, err := bootstrap.NewEngine(&cfg.Search, directory, logger)
	if err != nil {
		logger.Fatal("Failed to create relaxation engine", zap.Error(err))
	}

	// Enrichment
	var enricher matchuc.Enricher
	if cfg.Enrich.Enabled {
		enrichSvc, err := newEnricher(cfg, store, directory, vision, logger)
		if err != nil {
			logger.Fatal("Failed to create enrichment service", zap.Error(err))
		}
		defer enrichSvc.Release()
		enricher = enrichSvc
	}

	// Use case services
	matchSvc := matchuc.New(vision, engine, enricher, cfg.Vision.MaxImages, logger)
	randomSvc := randomuc.New(directory, matchSvc, logger)

	var budgetReader usageuc.BudgetReader
	if tracker != nil {
		budgetReader = tracker
	}
	usageSvc := usageuc.New(budgetReader, cfg.Vision.Provider)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	var visionChecker healthuc.Checker
	if hc, ok := provider.(healthuc.Checker); ok {
		visionChecker = hc
	}
	healthSvc := healthuc.New(cachePinger, directory, visionChecker)

	// Create chi server
	server := chiTransport.NewServer(matchSvc, randomSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.CORS.AllowedOrigin))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Use(chiMiddleware.Timeout(time.Duration(cfg.HTTP.RequestTimeout) * time.Second))
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newEnricher assembles the enrichment chain: directory/vision -> cache -> worker pool.
func newEnricher(
	cfg config.Config,
	store *dbRedis.Store,
	directory *petfinder.Client,
	vision enrichuc.Describer,
	logger *zap.Logger,
) (*enrichuc.Service, error) {
	var orgs enrichuc.OrganizationLookup = directory
	var describer enrichuc.Describer
	if cfg.Enrich.Descriptions {
		describer = vision
	}

	if store != nil {
		orgs = enrichcache.NewOrganizations(
			directory, store, cfg.Cache.KeyPrefix,
			time.Duration(cfg.Cache.OrganizationTTL)*time.Hour,
			metrics.CacheTotal, logger,
		)
		if describer != nil {
			describer = enrichcache.NewDescriber(
				vision, store, cfg.Cache.KeyPrefix,
				time.Duration(cfg.Cache.DescriptionTTL)*time.Hour,
				metrics.CacheTotal, logger,
			)
		}
	}

	return enrichuc.New(cfg.Enrich.PoolSize, orgs, describer, logger)
}
