package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/news-tracker/app/api"
	"github.com/lysyi3m/news-tracker/app/cache"
	"github.com/lysyi3m/news-tracker/app/cfg"
	"github.com/lysyi3m/news-tracker/app/database"
	"github.com/lysyi3m/news-tracker/app/llm"
	"github.com/lysyi3m/news-tracker/app/news"
	"github.com/lysyi3m/news-tracker/app/tasks"
	"golang.org/x/time/rate"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fatal("Failed to load configuration", err)
	}
	if appConfig == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appConfig.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting News Tracker server", "version", cfg.GetVersion())

	// Database connection
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", appConfig.DBPath)

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		fatal("Failed to run migrations", err)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	// Initialize repositories
	store := database.NewDocumentStore(db)
	newsRepo := database.NewNewsRepository(store)
	trackerRepo := database.NewTrackerRepository(store)

	trackerConfig, err := news.LoadTrackerConfig(appConfig.TrackerConfig)
	if err != nil {
		fatal("Failed to load tracker config", err)
	}
	slog.Info("Tracker config loaded", "channels", trackerConfig.EnabledChannels(), "frequency", trackerConfig.UpdateFrequency)

	ctx := context.Background()

	generator, err := llm.New(ctx, llm.Config{
		Provider:  appConfig.LLMProvider,
		APIKey:    appConfig.LLMAPIKey,
		APIURL:    appConfig.LLMAPIURL,
		Model:     appConfig.LLMModel,
		UserAgent: appConfig.UserAgent,
		Timeout:   appConfig.GeneratorTimeoutDuration(),
	})
	if err != nil {
		fatal("Failed to configure news generator", err)
	}
	slog.Info("News generator configured", "provider", generator.Name())

	// Initialize core components
	aggregator := news.NewAggregator(generator, newsRepo, appConfig.GeneratorTimeoutDuration())
	service := news.NewService(newsRepo)

	queryCache, err := newQueryCache(ctx, appConfig)
	if err != nil {
		fatal("Failed to connect to cache", err)
	}
	defer queryCache.Close()

	articleClient := tasks.NewArticleClient(30 * time.Second)

	// Initialize and start scheduler
	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount, "interval", appConfig.SchedulerInterval)
	scheduler := tasks.NewScheduler(aggregator, newsRepo, trackerRepo, trackerConfig, articleClient,
		news.NewContentExtractor(), tasks.SchedulerOptions{
			Interval:    time.Duration(appConfig.SchedulerInterval) * time.Second,
			WorkerCount: appConfig.WorkerCount,
			UserAgent:   appConfig.UserAgent,
			QueryCache:  queryCache,
		})
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	var fetchLimiter *rate.Limiter
	if appConfig.FetchRateLimit > 0 {
		fetchLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(appConfig.FetchRateLimit)), appConfig.FetchRateLimit)
	}

	apiHandler := api.NewHandler(aggregator, service, trackerRepo, news.NewFeedGenerator(cfg.GetVersion()),
		queryCache, appConfig.CacheTTLDuration(), scheduler, trackerConfig, appConfig.BaseUrl)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey, fetchLimiter)

	// The fetch endpoint waits on the generator, so the write timeout has to outlast it.
	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appConfig.GeneratorTimeoutDuration() + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("News Tracker server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("News Tracker server shutdown complete")
}

func newQueryCache(ctx context.Context, appConfig *cfg.Cfg) (cache.CacheInterface, error) {
	if appConfig.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, appConfig.RedisURL)
		if err != nil {
			return nil, err
		}
		slog.Info("Using Redis query cache")
		return redisCache, nil
	}

	slog.Info("Using in-memory query cache", "ttl", appConfig.CacheTTLDuration())
	return cache.NewMemoryCache(appConfig.CacheTTLDuration()), nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
