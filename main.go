package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/pricetracker/config"
	"sjsage522/pricetracker/helpers"
	"sjsage522/pricetracker/internal/crawler"
	"sjsage522/pricetracker/internal/report"
	"sjsage522/pricetracker/logger"
	"sjsage522/pricetracker/services/archive"
	"sjsage522/pricetracker/services/cache"
	"sjsage522/pricetracker/services/publisher"
	"sjsage522/pricetracker/services/store"
	"sjsage522/pricetracker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Int("products", len(cfg.ProductURLs)).
		Str("storage", cfg.StorageBackend).
		Str("fetch_mode", cfg.FetchMode).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	var renderer report.Renderer
	if cfg.ReportEnabled {
		renderer = report.NewWorkbookRenderer(cfg.ReportDir)
	}

	// Create worker
	w := worker.NewWorker(
		worker.Options{
			URLs:          cfg.ProductURLs,
			Concurrency:   cfg.Concurrency,
			CrawlInterval: cfg.CrawlInterval,
			ArchivePrefix: cfg.ArchivePrefix,
			Production:    cfg.IsProduction(),
		},
		crawler.NewProductCrawler(newFetcher(cfg, services.Cache), nil),
		services.Store,
		services.Publisher,
		renderer,
		services.Archiver,
		helpers.NewLogger(cfg.ErrorLogFile),
	)

	if cfg.RunOnce {
		reports, err := w.RunOnce(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Run failed")
			return
		}
		log.Info().Int("products", len(reports)).Msg("Single run complete")
		return
	}

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting price tracker worker")
		workerDone <- w.Start(ctx)
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     store.Store
	Archiver  archive.Archiver
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
	if closer, ok := s.Cache.(interface{ Close() error }); ok {
		closer.Close()
	}
}

// newFetcher selects the page fetcher for the configured mode
func newFetcher(cfg *config.Config, cacheSvc cache.CacheService) crawler.Fetcher {
	if cfg.FetchMode == config.FetchModeRender {
		return crawler.NewRenderFetcher(cfg.RenderAddr, crawler.DefaultLayout().WaitFor, cfg.RenderTimeout)
	}
	return crawler.NewHTTPFetcher(cacheSvc, "rate_limited", cfg.BlockTime)
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		services.Cache = cache.NewRedisCacheService(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.CachePrefix)
		logger.Info("Using Redis cache at %s", cfg.RedisAddr)
	default:
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr, cfg.CachePrefix)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if err := redisPublisher.Ping(); err != nil {
		logger.Warn("Redis at %s is not reachable yet: %v", cfg.RedisAddr, err)
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Initialize series store
	st, err := store.Open(ctx, store.Options{
		Backend:     cfg.StorageBackend,
		DataDir:     cfg.DataDir,
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
		Debug:       logger.IsDebugEnabled(),
	})
	if err != nil {
		services.Cleanup()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StorageBackend, err)
	}
	services.Store = st

	// Initialize archiver
	services.Archiver = archive.NoopArchiver{}
	if cfg.S3Bucket != "" {
		s3Archiver, err := archive.NewS3Archiver(ctx, archive.S3Config{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
		if err != nil {
			services.Cleanup()
			return nil, fmt.Errorf("failed to create archiver: %w", err)
		}
		services.Archiver = s3Archiver
		logger.Info("Archiving artifacts to bucket %s", cfg.S3Bucket)
	}

	return services, nil
}
