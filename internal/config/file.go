package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rohmanhakim/pinned-repos/pkg/fileutil"
)

// configDTO is the on-disk shape of a config file. Durations are written
// the way time.ParseDuration reads them ("10s", "6h"). Unset fields keep
// their default.
type configDTO struct {
	Port                   int        `json:"port,omitempty" yaml:"port,omitempty"`
	BaseURL                string     `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	CacheCapacity          int        `json:"cacheCapacity,omitempty" yaml:"cacheCapacity,omitempty"`
	CacheTTL               string     `json:"cacheTtl,omitempty" yaml:"cacheTtl,omitempty"`
	MaxStale               string     `json:"maxStale,omitempty" yaml:"maxStale,omitempty"`
	StaleWhileRevalidate   *bool      `json:"staleWhileRevalidate,omitempty" yaml:"staleWhileRevalidate,omitempty"`
	RefreshConcurrency     int        `json:"refreshConcurrency,omitempty" yaml:"refreshConcurrency,omitempty"`
	Timeout                string     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	UserAgent              string     `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	MaxAttempt             int        `json:"maxAttempt,omitempty" yaml:"maxAttempt,omitempty"`
	BaseDelay              string     `json:"baseDelay,omitempty" yaml:"baseDelay,omitempty"`
	Jitter                 string     `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	RandomSeed             int64      `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	BackoffInitialDuration string     `json:"backoffInitialDuration,omitempty" yaml:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64    `json:"backoffMultiplier,omitempty" yaml:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     string     `json:"backoffMaxDuration,omitempty" yaml:"backoffMaxDuration,omitempty"`
	Enrich                 *enrichDTO `json:"enrich,omitempty" yaml:"enrich,omitempty"`
	LogLevel               string     `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat              string     `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
}

type enrichDTO struct {
	Enabled     *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Timeout     string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Concurrency int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

type durationField struct {
	name  string
	value string
	apply func(time.Duration) *Config
}

// WithConfigFile reads path and builds a validated Config from it.
func WithConfigFile(path string) (Config, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Config{}, err
	}
	return cfg.Build()
}

// FromFile reads path on top of the defaults and returns the builder
// without validating it, so callers can layer more settings before Build.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
func FromFile(path string) (*Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch fileutil.GetFileExtension(path) {
	case "yaml", "yml":
		err = yaml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

func newConfigFromDTO(dto configDTO) (*Config, error) {
	cfg := WithDefault()

	if dto.Port != 0 {
		cfg.WithPort(dto.Port)
	}
	if dto.BaseURL != "" {
		baseURL, err := url.Parse(dto.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: baseUrl: %s", ErrConfigParsingFail, err.Error())
		}
		cfg.WithBaseURL(*baseURL)
	}
	if dto.CacheCapacity != 0 {
		cfg.WithCacheCapacity(dto.CacheCapacity)
	}
	if dto.StaleWhileRevalidate != nil {
		cfg.WithStaleWhileRevalidate(*dto.StaleWhileRevalidate)
	}
	if dto.RefreshConcurrency != 0 {
		cfg.WithRefreshConcurrency(dto.RefreshConcurrency)
	}
	if dto.UserAgent != "" {
		cfg.WithUserAgent(dto.UserAgent)
	}
	if dto.MaxAttempt != 0 {
		cfg.WithMaxAttempt(dto.MaxAttempt)
	}
	if dto.RandomSeed != 0 {
		cfg.WithRandomSeed(dto.RandomSeed)
	}
	if dto.BackoffMultiplier != 0 {
		cfg.WithBackoffMultiplier(dto.BackoffMultiplier)
	}
	if dto.LogLevel != "" {
		cfg.WithLogLevel(dto.LogLevel)
	}
	if dto.LogFormat != "" {
		cfg.WithLogFormat(dto.LogFormat)
	}

	durations := []durationField{
		{"cacheTtl", dto.CacheTTL, cfg.WithCacheTTL},
		{"maxStale", dto.MaxStale, cfg.WithMaxStale},
		{"timeout", dto.Timeout, cfg.WithTimeout},
		{"baseDelay", dto.BaseDelay, cfg.WithBaseDelay},
		{"jitter", dto.Jitter, cfg.WithJitter},
		{"backoffInitialDuration", dto.BackoffInitialDuration, cfg.WithBackoffInitialDuration},
		{"backoffMaxDuration", dto.BackoffMaxDuration, cfg.WithBackoffMaxDuration},
	}

	if dto.Enrich != nil {
		if dto.Enrich.Enabled != nil {
			cfg.WithEnrichEnabled(*dto.Enrich.Enabled)
		}
		if dto.Enrich.Concurrency != 0 {
			cfg.WithEnrichConcurrency(dto.Enrich.Concurrency)
		}
		durations = append(durations, durationField{"enrich.timeout", dto.Enrich.Timeout, cfg.WithEnrichTimeout})
	}

	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrConfigParsingFail, d.name, err.Error())
		}
		d.apply(parsed)
	}

	return cfg, nil
}
