package config

import (
	"os"
	"strconv"
	"time"

	apperr "sjsage522/productworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Memcache configuration (crawl-block cache, wiki visited marks)
	MemcacheAddr string

	// Redis configuration (ingest event stream)
	RedisAddr         string
	RedisDB           int
	RedisStreamPrefix string
	RedisStreamCount  int
	RedisStreamMaxLen int

	// Proxy configuration
	ProxyURL     string
	ProxyEnabled bool

	// Snapshot payload storage; empty means inline in the database row
	SnapshotDir string

	// Source site base URLs
	FanzaBaseURL string
	MgsBaseURL   string

	// Wiki site base URLs
	AvWikiBaseURL       string
	ShiroutonameBaseURL string

	// Crawl pacing
	FetchBaseDelay time.Duration
	FetchJitter    time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration

	// Listing-loop stop heuristics
	EmptyPageLimit int
	NoNewPageLimit int

	// Downstream service endpoints (consumed by other components)
	TranslateEndpoint string
	AIEndpoint        string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LEN", "1000"))
	baseDelay, _ := strconv.Atoi(getEnv("FETCH_BASE_DELAY_MS", "1000"))
	jitter, _ := strconv.Atoi(getEnv("FETCH_JITTER_MS", "2000"))
	maxAttempts, _ := strconv.Atoi(getEnv("FETCH_MAX_ATTEMPTS", "3"))
	retryDelay, _ := strconv.Atoi(getEnv("FETCH_RETRY_DELAY_MS", "2000"))
	emptyLimit, _ := strconv.Atoi(getEnv("STOP_EMPTY_PAGE_LIMIT", "3"))
	noNewLimit, _ := strconv.Atoi(getEnv("STOP_NO_NEW_PAGE_LIMIT", "5"))

	return Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MemcacheAddr:        getEnv("MEMCACHE_ADDR", "localhost:11211"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             redisDB,
		RedisStreamPrefix:   getEnv("REDIS_STREAM_PREFIX", "products"),
		RedisStreamCount:    streamCount,
		RedisStreamMaxLen:   streamMaxLen,
		ProxyURL:            getEnv("PROXY_URL", ""),
		ProxyEnabled:        getEnv("PROXY_ENABLED", "false") == "true",
		SnapshotDir:         getEnv("SNAPSHOT_DIR", ""),
		FanzaBaseURL:        getEnv("FANZA_BASE_URL", "https://www.dmm.co.jp"),
		MgsBaseURL:          getEnv("MGS_BASE_URL", "https://www.mgstage.com"),
		AvWikiBaseURL:       getEnv("AVWIKI_BASE_URL", "https://av-wiki.net"),
		ShiroutonameBaseURL: getEnv("SHIROUTONAME_BASE_URL", "https://shiroutoname.com"),
		FetchBaseDelay:      time.Duration(baseDelay) * time.Millisecond,
		FetchJitter:         time.Duration(jitter) * time.Millisecond,
		MaxAttempts:         maxAttempts,
		RetryBaseDelay:      time.Duration(retryDelay) * time.Millisecond,
		EmptyPageLimit:      emptyLimit,
		NoNewPageLimit:      noNewLimit,
		TranslateEndpoint:   getEnv("TRANSLATE_ENDPOINT", ""),
		AIEndpoint:          getEnv("AI_ENDPOINT", ""),
		Environment:         getEnv("WORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return apperr.NewConfiguration("DATABASE_URL is required", nil)
	}
	if c.MaxAttempts < 1 {
		return apperr.NewConfiguration("FETCH_MAX_ATTEMPTS must be at least 1", nil)
	}
	if c.EmptyPageLimit < 1 || c.NoNewPageLimit < 1 {
		return apperr.NewConfiguration("stop heuristic limits must be at least 1", nil)
	}
	if c.RedisStreamCount < 1 {
		return apperr.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	if c.ProxyEnabled && c.ProxyURL == "" {
		return apperr.NewConfiguration("PROXY_ENABLED is set but PROXY_URL is empty", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
