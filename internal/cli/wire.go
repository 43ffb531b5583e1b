package cmd

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rohmanhakim/pinned-repos/internal/cache"
	"github.com/rohmanhakim/pinned-repos/internal/config"
	"github.com/rohmanhakim/pinned-repos/internal/enrich"
	"github.com/rohmanhakim/pinned-repos/internal/extractor"
	"github.com/rohmanhakim/pinned-repos/internal/fetcher"
	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/internal/resolver"
	"github.com/rohmanhakim/pinned-repos/pkg/limiter"
)

// newLogger builds the process logger from cfg, writing to w.
func newLogger(w io.Writer, cfg config.Config) (zerolog.Logger, error) {
	return metadata.NewLogger(w, cfg.LogLevel(), cfg.LogFormat())
}

// newResolver assembles the fetch pipeline behind a cache:
// limiter -> fetcher -> extractor -> enricher -> loader -> resolver.
func newResolver(cfg config.Config, sink metadata.MetadataSink, httpClient *http.Client) *resolver.Resolver {
	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.BaseDelay())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())
	rateLimiter.SetBackoffParam(cfg.BackoffParam())

	htmlFetcher := fetcher.NewHtmlFetcher(sink, httpClient, rateLimiter)
	pinnedExtractor := extractor.NewPinnedExtractor(sink, cfg.BaseURL())

	var recordEnricher resolver.RecordEnricher
	if cfg.EnrichEnabled() {
		recordEnricher = enrich.NewEnricher(sink, htmlFetcher, cfg.BaseURL(), enrich.Options{
			Enabled:     true,
			Timeout:     cfg.EnrichTimeout(),
			Concurrency: cfg.EnrichConcurrency(),
			UserAgent:   cfg.UserAgent(),
		})
	}

	loader := resolver.NewProfileLoader(
		htmlFetcher,
		&pinnedExtractor,
		recordEnricher,
		cfg.BaseURL(),
		cfg.UserAgent(),
		cfg.Timeout(),
		cfg.RetryParam(),
	)

	// entries past this age are never served, so the store can drop them
	maxAge := cfg.MaxStale()
	if !cfg.StaleWhileRevalidate() {
		maxAge = cfg.CacheTTL()
	}
	store := cache.NewLRUStore(cfg.CacheCapacity(), maxAge)

	return resolver.NewResolver(sink, store, loader, resolver.Policy{
		TTL:                  cfg.CacheTTL(),
		MaxStale:             cfg.MaxStale(),
		StaleWhileRevalidate: cfg.StaleWhileRevalidate(),
		RefreshConcurrency:   cfg.RefreshConcurrency(),
		RefreshTimeout:       cfg.Timeout() + cfg.EnrichTimeout(),
	})
}
