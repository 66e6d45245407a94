package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the enrichment API, the batch
// dispatcher, input and output files, and the optional debug listener.
type Config struct {
	// Environment specifies the current running environment (development, production)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// Log contains logging related configurations
	Log struct {
		// File is the path logs are appended to; empty logs to stderr
		File string `env:"LOG_FILE" env-default:"" yaml:"file"`
	} `yaml:"log"`

	// API contains the enrichment provider configuration
	API struct {
		// URLTemplate is the search endpoint with start and end date placeholders
		URLTemplate string `env:"API_URL_TEMPLATE" env-required:"true" yaml:"urlTemplate"`
		// Key is the provider API key
		Key string `env:"API_KEY" env-required:"true" yaml:"key"`
		// ContentType is the Content-Type header sent with every request
		ContentType string `env:"API_CONTENT_TYPE" env-required:"true" yaml:"contentType"`
		// SearchType is the value of the "type" query parameter
		SearchType string `env:"API_SEARCH_TYPE" env-default:"employees" yaml:"searchType"`
		// ThirdPartyDomains is the value of the "third_party_domains" query parameter.
		// It is a string because cleanenv cannot tell an explicit false from a
		// missing bool and would apply the default.
		ThirdPartyDomains string `env:"API_THIRD_PARTY_DOMAINS" env-default:"true" yaml:"thirdPartyDomains"`
		// LookbackDays is the size of the searched date window ending now
		LookbackDays int `env:"API_LOOKBACK_DAYS" env-default:"30" yaml:"lookbackDays"`
		// RequestTimeout bounds a single request attempt
		RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// RequestsPerSecond caps the request rate across workers; 0 disables the cap
		RequestsPerSecond float64 `env:"API_REQUESTS_PER_SECOND" env-default:"0" yaml:"requestsPerSecond"`
	} `yaml:"api"`

	// Dispatch contains the batch dispatcher configuration
	Dispatch struct {
		// BatchSize is the maximum number of domains per request
		BatchSize int `env:"DISPATCH_BATCH_SIZE" env-default:"50" yaml:"batchSize"`
		// Concurrency is the number of batches fetched in parallel
		Concurrency int `env:"DISPATCH_CONCURRENCY" env-default:"4" yaml:"concurrency"`
		// MaxAttempts is the total number of attempts per batch
		MaxAttempts int `env:"DISPATCH_MAX_ATTEMPTS" env-default:"5" yaml:"maxAttempts"`
		// BackoffBase is the wait after the first failed attempt; it doubles after each failure
		BackoffBase time.Duration `env:"DISPATCH_BACKOFF_BASE" env-default:"2s" yaml:"backoffBase"`
		// NoProgress disables the progress bar drawn when stderr is a terminal
		NoProgress bool `env:"DISPATCH_NO_PROGRESS" env-default:"false" yaml:"noProgress"`
	} `yaml:"dispatch"`

	// Files contains input and output paths
	Files struct {
		// Input is the JSON domain list
		Input string `env:"FILES_INPUT" env-default:"domains.json" yaml:"input"`
		// Output is the results file, overwritten on every run
		Output string `env:"FILES_OUTPUT" env-default:"results.txt" yaml:"output"`
	} `yaml:"files"`

	// Debug contains the optional metrics and pprof listener configuration
	Debug struct {
		// Addr is the listen address; empty disables the listener
		Addr string `env:"DEBUG_ADDR" env-default:"" yaml:"addr"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"DEBUG_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"debug"`

	// GracefulShutdownTimeout is the maximum duration to wait for the debug listener to stop
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// maxAttempts keeps the doubling backoff of the last attempt (base << 15)
// far below the time.Duration range.
const maxAttempts = 16

// Load receives the path for yaml config file and returns a filled Config struct.
// Missing required keys are reported as an error.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges cleanenv cannot express.
func (c *Config) Validate() error {
	switch {
	case c.Dispatch.BatchSize <= 0:
		return fmt.Errorf("dispatch.batchSize must be positive, got %d", c.Dispatch.BatchSize)
	case c.Dispatch.Concurrency <= 0:
		return fmt.Errorf("dispatch.concurrency must be positive, got %d", c.Dispatch.Concurrency)
	case c.Dispatch.MaxAttempts <= 0 || c.Dispatch.MaxAttempts > maxAttempts:
		return fmt.Errorf("dispatch.maxAttempts must be between 1 and %d, got %d", maxAttempts, c.Dispatch.MaxAttempts)
	case c.Dispatch.BackoffBase < 0:
		return fmt.Errorf("dispatch.backoffBase must not be negative, got %s", c.Dispatch.BackoffBase)
	case c.API.RequestTimeout <= 0:
		return fmt.Errorf("api.requestTimeout must be positive, got %s", c.API.RequestTimeout)
	case c.API.LookbackDays < 0:
		return fmt.Errorf("api.lookbackDays must not be negative, got %d", c.API.LookbackDays)
	case c.API.RequestsPerSecond < 0:
		return fmt.Errorf("api.requestsPerSecond must not be negative, got %v", c.API.RequestsPerSecond)
	}

	if _, err := strconv.ParseBool(c.API.ThirdPartyDomains); err != nil {
		return fmt.Errorf("api.thirdPartyDomains must be a boolean, got %q", c.API.ThirdPartyDomains)
	}

	return nil
}

// ThirdPartyDomains reports whether third-party domains are included in the
// search. Validate has already checked the value.
func (c *Config) ThirdPartyDomains() bool {
	v, _ := strconv.ParseBool(c.API.ThirdPartyDomains)

	return v
}
