// Package config handles loading and validation of storefront configuration.
// Supports both development (.env and env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Defaults.
const (
	DefaultAPIURL         = "https://api.everrest.educata.dev"
	DefaultNamespace      = "storefront"
	DefaultSettingsSecret = "storefront-settings"
	DefaultSearchDebounce = 500 * time.Millisecond
	DefaultTaxRate        = 0.10
)

// Config holds all storefront configuration.
// Environment determines whether store settings come from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject     string
	SettingsSecret string

	Store StoreConfig
}

// StoreConfig holds the storefront settings. In production it is loaded
// from Secret Manager as JSON on top of the environment.
type StoreConfig struct {
	APIURL           string   `json:"api_url"`
	StorageBackend   string   `json:"storage_backend"`
	StateFile        string   `json:"state_file,omitempty"`
	RedisURL         string   `json:"redis_url,omitempty"`
	Namespace        string   `json:"namespace,omitempty"`
	RequestRate      float64  `json:"request_rate,omitempty"` // requests per second, 0 = unlimited
	BrowserTLS       bool     `json:"browser_tls,omitempty"`
	SearchDebounce   Duration `json:"search_debounce,omitempty"`
	TaxRate          *float64 `json:"tax_rate,omitempty"`
	PageSize         int      `json:"page_size,omitempty"`
	CORSOrigins      []string `json:"cors_origins,omitempty"`
	BrokenImageHosts []string `json:"broken_image_hosts,omitempty"`
}

// Tax returns the configured tax rate or DefaultTaxRate.
func (s StoreConfig) Tax() float64 {
	if s.TaxRate == nil {
		return DefaultTaxRate
	}
	return *s.TaxRate
}

// Duration is a time.Duration that reads from JSON as "500ms" or as a
// number of milliseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a string or milliseconds: %w", err)
	}
	*d = Duration(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → .env + ENV vars → Secret Manager in production.
// Validates all fields and returns an error if any are invalid.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           envOrDefault("PORT", "8080"),
		Environment:    envOrDefault("ENVIRONMENT", "development"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		GCPProject:     os.Getenv("GCP_PROJECT"),
		SettingsSecret: envOrDefault("SETTINGS_SECRET", DefaultSettingsSecret),
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading store config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		Store       StoreConfig `json:"store"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		Store:       fileConfig.Store,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager overlays store settings from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{settings_secret}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SettingsSecret)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	// Fields absent from the secret keep their env values.
	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads store settings from individual environment variables.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		APIURL:           os.Getenv("API_URL"),
		StorageBackend:   os.Getenv("STORAGE_BACKEND"),
		StateFile:        os.Getenv("STATE_FILE"),
		RedisURL:         os.Getenv("REDIS_URL"),
		Namespace:        os.Getenv("STORAGE_NAMESPACE"),
		CORSOrigins:      splitList(os.Getenv("CORS_ORIGINS")),
		BrokenImageHosts: splitList(os.Getenv("BROKEN_IMAGE_HOSTS")),
	}

	if v := os.Getenv("REQUEST_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing REQUEST_RATE: %w", err)
		}
		c.Store.RequestRate = rate
	}
	if v := os.Getenv("BROWSER_TLS"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing BROWSER_TLS: %w", err)
		}
		c.Store.BrowserTLS = on
	}
	if v := os.Getenv("SEARCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing SEARCH_DEBOUNCE: %w", err)
		}
		c.Store.SearchDebounce = Duration(d)
	}
	if v := os.Getenv("TAX_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing TAX_RATE: %w", err)
		}
		c.Store.TaxRate = &rate
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PAGE_SIZE: %w", err)
		}
		c.Store.PageSize = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	s := &c.Store
	s.APIURL = strings.TrimSuffix(withDefault(s.APIURL, DefaultAPIURL), "/")
	s.StorageBackend = strings.ToLower(withDefault(s.StorageBackend, BackendFile))
	s.Namespace = withDefault(s.Namespace, DefaultNamespace)
	if s.StateFile == "" {
		s.StateFile = defaultStateFile()
	}
	if s.SearchDebounce == 0 {
		s.SearchDebounce = Duration(DefaultSearchDebounce)
	}
}

// validate checks that the configuration is usable.
func (c *Config) validate() error {
	s := c.Store

	u, err := url.Parse(s.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an absolute http(s) URL", s.APIURL)
	}

	switch s.StorageBackend {
	case BackendFile:
		if s.StateFile == "" {
			return fmt.Errorf("state_file is required for the file backend")
		}
	case BackendRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("redis_url is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage_backend %q (file, redis or memory)", s.StorageBackend)
	}

	if s.RequestRate < 0 {
		return fmt.Errorf("request_rate must not be negative")
	}
	if s.Tax() < 0 {
		return fmt.Errorf("tax_rate must not be negative")
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size must not be negative")
	}
	if s.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".storefront", "state.json")
	}
	return filepath.Join(home, ".storefront", "state.json")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
