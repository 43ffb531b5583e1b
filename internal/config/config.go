package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/pinned-repos/internal/build"
	"github.com/rohmanhakim/pinned-repos/pkg/retry"
	"github.com/rohmanhakim/pinned-repos/pkg/timeutil"
	"github.com/rohmanhakim/pinned-repos/pkg/urlutil"
)

type Config struct {
	//===============
	// Server
	//===============
	// TCP port the HTTP server listens on
	port int
	// Root of the platform whose profile pages are read
	baseURL url.URL

	//===============
	// Cache
	//===============
	// Maximum number of identifiers held; least recently used goes first
	cacheCapacity int
	// How long an entry is served without going upstream
	cacheTTL time.Duration
	// Oldest entry still served while it is refreshed. Zero means unbounded
	maxStale time.Duration
	// Serve expired entries and refresh them in the background
	staleWhileRevalidate bool
	// Maximum number of background refreshes in flight
	refreshConcurrency int

	//===============
	// Fetch
	//===============
	// Maximum time of a single profile page fetch
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string
	// maximum attempt during retry; 1 disables retries
	maxAttempt int
	// Minimum delay before another attempt
	baseDelay time.Duration
	// Randomized variation added on top of the backoff
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Enrichment
	//===============
	enrichEnabled     bool
	enrichTimeout     time.Duration
	enrichConcurrency int

	//===============
	// Logging
	//===============
	logLevel  string
	logFormat string
}

// WithDefault creates a new Config holding the default value of every field.
func WithDefault() *Config {
	defaultConfig := Config{
		port: 8000,
		baseURL: url.URL{
			Scheme: "https",
			Host:   "github.com",
		},
		cacheCapacity:          500,
		cacheTTL:               6 * time.Hour,
		maxStale:               30 * 24 * time.Hour,
		staleWhileRevalidate:   true,
		refreshConcurrency:     4,
		timeout:                10 * time.Second,
		userAgent:              build.UserAgent(),
		maxAttempt:             1,
		baseDelay:              0,
		jitter:                 0,
		randomSeed:             time.Now().UnixNano(),
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		enrichEnabled:          true,
		enrichTimeout:          5 * time.Second,
		enrichConcurrency:      4,
		logLevel:               "info",
		logFormat:              "json",
	}
	return &defaultConfig
}

func (c *Config) WithPort(port int) *Config {
	c.port = port
	return c
}

func (c *Config) WithBaseURL(baseURL url.URL) *Config {
	c.baseURL = baseURL
	return c
}

func (c *Config) WithCacheCapacity(capacity int) *Config {
	c.cacheCapacity = capacity
	return c
}

func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.cacheTTL = ttl
	return c
}

func (c *Config) WithMaxStale(maxStale time.Duration) *Config {
	c.maxStale = maxStale
	return c
}

func (c *Config) WithStaleWhileRevalidate(enabled bool) *Config {
	c.staleWhileRevalidate = enabled
	return c
}

func (c *Config) WithRefreshConcurrency(concurrency int) *Config {
	c.refreshConcurrency = concurrency
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithEnrichEnabled(enabled bool) *Config {
	c.enrichEnabled = enabled
	return c
}

func (c *Config) WithEnrichTimeout(timeout time.Duration) *Config {
	c.enrichTimeout = timeout
	return c
}

func (c *Config) WithEnrichConcurrency(concurrency int) *Config {
	c.enrichConcurrency = concurrency
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = strings.ToLower(strings.TrimSpace(level))
	return c
}

func (c *Config) WithLogFormat(format string) *Config {
	c.logFormat = strings.ToLower(strings.TrimSpace(format))
	return c
}

var logLevels = map[string]struct{}{
	"trace": {}, "debug": {}, "info": {}, "warn": {}, "error": {}, "fatal": {}, "panic": {}, "disabled": {},
}

func (c *Config) Build() (Config, error) {
	c.baseURL = urlutil.Canonicalize(c.baseURL)

	switch {
	case c.port < 1 || c.port > 65535:
		return Config{}, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.port)
	case c.baseURL.Scheme != "http" && c.baseURL.Scheme != "https":
		return Config{}, fmt.Errorf("%w: baseUrl must be http or https, got %q", ErrInvalidConfig, c.baseURL.String())
	case c.baseURL.Host == "":
		return Config{}, fmt.Errorf("%w: baseUrl has no host", ErrInvalidConfig)
	case c.cacheCapacity < 1:
		return Config{}, fmt.Errorf("%w: cacheCapacity must be positive", ErrInvalidConfig)
	case c.cacheTTL <= 0:
		return Config{}, fmt.Errorf("%w: cacheTtl must be positive", ErrInvalidConfig)
	case c.maxStale < 0:
		return Config{}, fmt.Errorf("%w: maxStale cannot be negative", ErrInvalidConfig)
	case c.maxStale > 0 && c.maxStale < c.cacheTTL:
		return Config{}, fmt.Errorf("%w: maxStale %v is shorter than cacheTtl %v", ErrInvalidConfig, c.maxStale, c.cacheTTL)
	case c.refreshConcurrency < 1:
		return Config{}, fmt.Errorf("%w: refreshConcurrency must be positive", ErrInvalidConfig)
	case c.timeout <= 0:
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.maxAttempt < 1:
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	case c.enrichConcurrency < 1:
		return Config{}, fmt.Errorf("%w: enrichConcurrency must be positive", ErrInvalidConfig)
	case c.enrichEnabled && c.enrichTimeout <= 0:
		return Config{}, fmt.Errorf("%w: enrichTimeout must be positive", ErrInvalidConfig)
	case c.logFormat != "json" && c.logFormat != "console":
		return Config{}, fmt.Errorf("%w: unknown logFormat %q", ErrInvalidConfig, c.logFormat)
	}
	if _, ok := logLevels[c.logLevel]; !ok {
		return Config{}, fmt.Errorf("%w: unknown logLevel %q", ErrInvalidConfig, c.logLevel)
	}
	if strings.TrimSpace(c.userAgent) == "" {
		c.userAgent = build.UserAgent()
	}

	// profile links are built from the root; a trailing slash would double up
	c.baseURL.Path = strings.TrimRight(c.baseURL.Path, "/")

	return *c, nil
}

func (c Config) Port() int {
	return c.port
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.port)
}

func (c Config) BaseURL() url.URL {
	return c.baseURL
}

func (c Config) CacheCapacity() int {
	return c.cacheCapacity
}

func (c Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c Config) MaxStale() time.Duration {
	return c.maxStale
}

func (c Config) StaleWhileRevalidate() bool {
	return c.staleWhileRevalidate
}

func (c Config) RefreshConcurrency() int {
	return c.refreshConcurrency
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) EnrichEnabled() bool {
	return c.enrichEnabled
}

func (c Config) EnrichTimeout() time.Duration {
	return c.enrichTimeout
}

func (c Config) EnrichConcurrency() int {
	return c.enrichConcurrency
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogFormat() string {
	return c.logFormat
}

func (c Config) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(
		c.backoffInitialDuration,
		c.backoffMultiplier,
		c.backoffMaxDuration,
	)
}

// RetryParam is the retry policy for profile page fetches.
func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(
		c.baseDelay,
		c.jitter,
		c.randomSeed,
		c.maxAttempt,
		c.BackoffParam(),
	)
}
