// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads folio's configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/folio/internal/client"
	internallog "github.com/tombee/folio/internal/log"
	"github.com/tombee/folio/internal/provenance"
	"github.com/tombee/folio/internal/storage"
	"github.com/tombee/folio/internal/tracing"
	folioerrors "github.com/tombee/folio/pkg/errors"
	"github.com/tombee/folio/pkg/httpclient"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete folio configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// APIConfig configures how the content API is reached.
type APIConfig struct {
	// BaseURL is the API root that request paths are appended to.
	// Environment: FOLIO_BASE_URL
	BaseURL string `yaml:"base_url"`

	// Origin is the site origin used to label internal referrers.
	// Environment: FOLIO_ORIGIN
	// Default: the origin of BaseURL
	Origin string `yaml:"origin,omitempty"`

	// Referrer is sent on article reads when no navigation was captured.
	// Environment: FOLIO_REFERRER
	Referrer string `yaml:"referrer,omitempty"`

	// Timeout bounds each request.
	// Environment: FOLIO_TIMEOUT
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is the User-Agent header value.
	// Default: folio/1.0
	UserAgent string `yaml:"user_agent,omitempty"`

	// RetryAttempts is the number of transport retries for idempotent
	// requests on 5xx, 408 and 429. Session statuses are never retried here.
	// Default: 0
	RetryAttempts int `yaml:"retry_attempts"`

	// RateLimit caps requests per second (0 = unlimited).
	// Environment: FOLIO_RATE_LIMIT
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the rate limiter bucket size.
	RateBurst int `yaml:"rate_burst,omitempty"`
}

// SessionConfig classifies endpoints for the session state machine.
type SessionConfig struct {
	// PublicPrefixes are readable as a guest.
	PublicPrefixes []string `yaml:"public_prefixes"`

	// SilentPrefixes never announce 401s.
	SilentPrefixes []string `yaml:"silent_prefixes"`

	// ArticlePattern matches the article read that carries attribution.
	ArticlePattern string `yaml:"article_pattern"`

	// ProvenanceTTL is how long a captured navigation stays readable.
	// Default: 15s
	ProvenanceTTL time.Duration `yaml:"provenance_ttl"`
}

// StorageConfig selects where the credential and provenance slots live.
type StorageConfig struct {
	// Backend is one of memory, file, keychain, sqlite.
	// Environment: FOLIO_STORAGE
	// Default: file
	Backend string `yaml:"backend"`

	// Dir is the state directory for the file and sqlite backends.
	// Environment: FOLIO_STATE_DIR
	Dir string `yaml:"dir,omitempty"`

	// MasterKey seals file and sqlite backend slots when set.
	// Environment: FOLIO_MASTER_KEY
	MasterKey string `yaml:"master_key,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Environment: FOLIO_LOG_LEVEL, LOG_LEVEL
	// Default: warn
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: text
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	AddSource bool `yaml:"add_source,omitempty"`
}

// TelemetryConfig configures span export and the metrics snapshot.
type TelemetryConfig struct {
	// Exporter is one of none, stdout, otlp-http, otlp-grpc.
	// Environment: FOLIO_TRACE_EXPORTER
	// Default: none
	Exporter string `yaml:"exporter,omitempty"`

	// Endpoint is the collector host:port for the OTLP exporters.
	// Environment: FOLIO_TRACE_ENDPOINT
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends spans to the collector without TLS.
	// Environment: FOLIO_TRACE_INSECURE
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are added to every export request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MetricsFile receives a Prometheus text snapshot when a command ends.
	// Environment: FOLIO_METRICS_FILE
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	policy := client.DefaultPolicy()
	http := httpclient.DefaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:   client.DefaultBaseURL,
			Timeout:   http.Timeout,
			UserAgent: http.UserAgent,
		},
		Session: SessionConfig{
			PublicPrefixes: policy.PublicPrefixes,
			SilentPrefixes: policy.SilentPrefixes,
			ArticlePattern: policy.ArticlePattern,
			ProvenanceTTL:  provenance.DefaultTTL,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: string(internallog.FormatText),
		},
		Telemetry: TelemetryConfig{
			Exporter: tracing.ExporterNone,
		},
	}
}

// Load loads configuration from an optional YAML file, then environment
// variables, then validates it. Environment variables take precedence over
// the file. An empty configPath uses only defaults and the environment.
func Load(configPath string) (*Config, error) {
	cfg, err := Decode(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &folioerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// Decode is Load without validation.
func Decode(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &folioerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	// Apply defaults to any zero values (handles minimal configs)
	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, &folioerrors.ConfigError{
			Key:    "environment",
			Reason: "invalid environment override",
			Cause:  err,
		}
	}

	return cfg, nil
}

// LoadDefault loads from path when it is set, otherwise from the default
// config file if one exists.
func LoadDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	defaultPath, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			return Load(defaultPath)
		}
	}
	return Load("")
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaults.API.UserAgent
	}
	// nil keeps the defaults; an explicit empty list disables the category
	if c.Session.PublicPrefixes == nil {
		c.Session.PublicPrefixes = defaults.Session.PublicPrefixes
	}
	if c.Session.SilentPrefixes == nil {
		c.Session.SilentPrefixes = defaults.Session.SilentPrefixes
	}
	if c.Session.ArticlePattern == "" {
		c.Session.ArticlePattern = defaults.Session.ArticlePattern
	}
	if c.Session.ProvenanceTTL == 0 {
		c.Session.ProvenanceTTL = defaults.Session.ProvenanceTTL
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = tracing.ExporterNone
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	// Expand home directory if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv applies environment variable overrides.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("FOLIO_BASE_URL"); val != "" {
		c.API.BaseURL = val
	}
	if val := os.Getenv("FOLIO_ORIGIN"); val != "" {
		c.API.Origin = val
	}
	if val := os.Getenv("FOLIO_REFERRER"); val != "" {
		c.API.Referrer = val
	}
	if val := os.Getenv("FOLIO_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("FOLIO_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if val := os.Getenv("FOLIO_RATE_LIMIT"); val != "" {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("FOLIO_RATE_LIMIT: %w", err)
		}
		c.API.RateLimit = rps
	}

	if val := os.Getenv("FOLIO_STORAGE"); val != "" {
		c.Storage.Backend = strings.ToLower(val)
	}
	if val := os.Getenv("FOLIO_STATE_DIR"); val != "" {
		c.Storage.Dir = val
	}
	if val := os.Getenv("FOLIO_MASTER_KEY"); val != "" {
		c.Storage.MasterKey = val
	}

	if val := os.Getenv("FOLIO_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	} else if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	if val := os.Getenv("FOLIO_TRACE_EXPORTER"); val != "" {
		c.Telemetry.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("FOLIO_TRACE_ENDPOINT"); val != "" {
		c.Telemetry.Endpoint = val
	}
	if val := os.Getenv("FOLIO_TRACE_INSECURE"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("FOLIO_TRACE_INSECURE: %w", err)
		}
		c.Telemetry.Insecure = b
	}
	if val := os.Getenv("FOLIO_METRICS_FILE"); val != "" {
		c.Telemetry.MetricsFile = val
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if errs := c.Problems(); len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Problems lists every validation failure, one message per field.
func (c *Config) Problems() []string {
	var errs []string

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Origin != "" {
		if u, err := url.Parse(c.API.Origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("api.origin must be scheme://host, got %q", c.API.Origin))
		}
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("api.timeout must be positive, got %v", c.API.Timeout))
	}
	if c.API.RetryAttempts < 0 || c.API.RetryAttempts > 10 {
		errs = append(errs, fmt.Sprintf("api.retry_attempts must be between 0 and 10, got %d", c.API.RetryAttempts))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("api.rate_limit must be non-negative, got %v", c.API.RateLimit))
	}

	if err := c.Policy().Validate(); err != nil {
		errs = append(errs, "session: "+err.Error())
	}
	if c.Session.ProvenanceTTL <= 0 {
		errs = append(errs, fmt.Sprintf("session.provenance_ttl must be positive, got %v", c.Session.ProvenanceTTL))
	}

	validBackends := map[string]bool{storage.BackendMemory: true, storage.BackendFile: true, storage.BackendKeychain: true, storage.BackendSQLite: true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, fmt.Sprintf("storage.backend must be one of [memory, file, keychain, sqlite], got %q", c.Storage.Backend))
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	switch c.Telemetry.Exporter {
	case tracing.ExporterNone, tracing.ExporterStdout:
	case tracing.ExporterOTLPHTTP, tracing.ExporterOTLPGRPC:
		if c.Telemetry.Endpoint == "" {
			errs = append(errs, fmt.Sprintf("telemetry.endpoint is required for the %s exporter", c.Telemetry.Exporter))
		}
	default:
		errs = append(errs, fmt.Sprintf("telemetry.exporter must be one of [none, stdout, otlp-http, otlp-grpc], got %q", c.Telemetry.Exporter))
	}

	return errs
}

// Policy returns the endpoint policy described by the session section.
func (c *Config) Policy() client.Policy {
	return client.Policy{
		PublicPrefixes: c.Session.PublicPrefixes,
		SilentPrefixes: c.Session.SilentPrefixes,
		ArticlePattern: c.Session.ArticlePattern,
	}
}

// HTTPClient returns the transport configuration for the API section.
func (c *Config) HTTPClient() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = c.API.Timeout
	cfg.UserAgent = c.API.UserAgent
	cfg.RetryAttempts = c.API.RetryAttempts
	cfg.RateLimit = c.API.RateLimit
	cfg.RateBurst = c.API.RateBurst
	return cfg
}

// Logging returns the logger configuration for the log section.
func (c *Config) Logging() *internallog.Config {
	cfg := internallog.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = internallog.Format(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}

// Tracing returns the span exporter configuration for the telemetry section.
func (c *Config) Tracing() tracing.ExporterConfig {
	return tracing.ExporterConfig{
		Type:     c.Telemetry.Exporter,
		Endpoint: c.Telemetry.Endpoint,
		Insecure: c.Telemetry.Insecure,
		Headers:  c.Telemetry.Headers,
	}
}

// StorageOptions returns the options for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Dir:       c.Storage.Dir,
		MasterKey: c.Storage.MasterKey,
	}
}
