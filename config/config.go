package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	trackerr "sjsage522/pricetracker/pkg/errors"

	"github.com/BurntSushi/toml"
)

// Fetch modes
const (
	FetchModeHTTP   = "http"
	FetchModeRender = "render"
)

// Cache backends
const (
	CacheBackendMemcache = "memcache"
	CacheBackendRedis    = "redis"
)

// Storage backends
const (
	StorageCSV      = "csv"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// DefaultProductURLs are tracked when no product list is configured
var DefaultProductURLs = []string{
	"https://www.tcgplayer.com/product/624679/",
	"https://www.tcgplayer.com/product/623628",
	"https://www.tcgplayer.com/product/565606",
	"https://www.tcgplayer.com/product/543846/",
	"https://www.tcgplayer.com/product/493975/",
	"https://www.tcgplayer.com/product/283389/",
	"https://www.tcgplayer.com/product/618893/",
}

// Product is one entry of the products file
type Product struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

type productsFile struct {
	Products []Product `toml:"product"`
}

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Cache configuration
	CacheBackend string
	MemcacheAddr string
	CachePrefix  string
	BlockTime    time.Duration

	// Fetch configuration
	FetchMode     string
	RenderAddr    string
	RenderTimeout time.Duration

	// Products
	ProductsFile string
	ProductURLs  []string

	// Worker configuration
	CrawlInterval time.Duration
	Concurrency   int
	RunOnce       bool
	ErrorLogFile  string

	// Storage configuration
	StorageBackend string
	DataDir        string
	SQLitePath     string
	PostgresDSN    string

	// Report configuration
	ReportEnabled bool
	ReportDir     string

	// Archive configuration
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3ForcePathStyle bool
	ArchivePrefix    string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	blockSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))
	renderTimeout, _ := strconv.Atoi(getEnv("RENDER_TIMEOUT_SECONDS", "30"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "86400"))
	concurrency, _ := strconv.Atoi(getEnv("CRAWL_CONCURRENCY", "2"))

	cfg := &Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "market_summaries"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		CacheBackend:         getEnv("CACHE_BACKEND", CacheBackendMemcache),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		CachePrefix:          getEnv("CACHE_PREFIX", "pricetracker"),
		BlockTime:            time.Duration(blockSeconds) * time.Second,
		FetchMode:            getEnv("FETCH_MODE", FetchModeHTTP),
		RenderAddr:           getEnv("RENDER_ADDR", "http://localhost:3000"),
		RenderTimeout:        time.Duration(renderTimeout) * time.Second,
		ProductsFile:         getEnv("PRODUCTS_FILE", ""),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		Concurrency:          concurrency,
		RunOnce:              getBool("RUN_ONCE", false),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", ""),
		StorageBackend:       strings.ToLower(getEnv("STORAGE_BACKEND", StorageCSV)),
		DataDir:              getEnv("DATA_DIR", "data"),
		SQLitePath:           getEnv("SQLITE_PATH", ""),
		PostgresDSN:          getEnv("DATABASE_URL", ""),
		ReportEnabled:        getBool("REPORT_ENABLED", true),
		ReportDir:            getEnv("REPORT_DIR", "reports"),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Region:             getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3AccessKey:          getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:          getEnv("S3_SECRET_KEY", ""),
		S3ForcePathStyle:     getBool("S3_FORCE_PATH_STYLE", false),
		ArchivePrefix:        getEnv("ARCHIVE_PREFIX", "pricetracker"),
		Environment:          getEnv("TRACKER_ENVIRONMENT", "development"),
	}

	urls, err := loadProductURLs(cfg.ProductsFile, getEnv("PRODUCT_URLS", ""))
	if err != nil {
		return nil, err
	}
	cfg.ProductURLs = urls

	return cfg, nil
}

// loadProductURLs prefers the products file, then the comma separated
// list, then the defaults
func loadProductURLs(path, list string) ([]string, error) {
	if path != "" {
		products, err := LoadProducts(path)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(products))
		for _, p := range products {
			urls = append(urls, p.URL)
		}
		return urls, nil
	}

	if list != "" {
		var urls []string
		for _, u := range strings.Split(list, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		return urls, nil
	}

	return append([]string(nil), DefaultProductURLs...), nil
}

// LoadProducts decodes a TOML products file
func LoadProducts(path string) ([]Product, error) {
	var file productsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, trackerr.NewConfiguration("failed to read products file "+path, err)
	}

	products := make([]Product, 0, len(file.Products))
	for i, p := range file.Products {
		p.URL = strings.TrimSpace(p.URL)
		if p.URL == "" {
			return nil, trackerr.NewConfiguration(fmt.Sprintf("product %d in %s has no url", i+1, path), nil)
		}
		products = append(products, p)
	}
	return products, nil
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	if len(c.ProductURLs) == 0 {
		return trackerr.NewConfiguration("no product URLs configured", nil)
	}
	if c.CrawlInterval <= 0 {
		return trackerr.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	}
	if c.Concurrency <= 0 {
		return trackerr.NewConfiguration("CRAWL_CONCURRENCY must be positive", nil)
	}

	switch c.StorageBackend {
	case StorageCSV, StorageSQLite:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return trackerr.NewConfiguration("DATABASE_URL is required for the postgres backend", nil)
		}
	default:
		return trackerr.NewConfiguration(fmt.Sprintf("unknown storage backend %q", c.StorageBackend), nil)
	}

	switch c.FetchMode {
	case FetchModeHTTP:
	case FetchModeRender:
		if c.RenderAddr == "" {
			return trackerr.NewConfiguration("RENDER_ADDR is required for the render fetch mode", nil)
		}
	default:
		return trackerr.NewConfiguration(fmt.Sprintf("unknown fetch mode %q", c.FetchMode), nil)
	}

	switch c.CacheBackend {
	case CacheBackendMemcache, CacheBackendRedis:
	default:
		return trackerr.NewConfiguration(fmt.Sprintf("unknown cache backend %q", c.CacheBackend), nil)
	}

	return nil
}

// IsProduction reports whether the tracker runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getBool parses a boolean environment variable, falling back on parse errors
func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
