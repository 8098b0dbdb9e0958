package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/internradar/internradar/internal/filter"
)

// Config is the root configuration for InternRadar.
type Config struct {
	Provider     ProviderConfig
	Cache        CacheConfig
	Filters      filter.Vocabularies
	Server       ServerConfig
	Store        StoreConfig
	Notification NotificationConfig
}

// ProviderConfig describes the external internship search API.
type ProviderConfig struct {
	Host           string
	APIKey         string // expanded from env var by Load
	TitleFilter    string
	LocationFilter string
	PageOffsets    []int
	RequestTimeout time.Duration // per page request
	MinDelay       time.Duration // gap between page requests within a cycle
	MaxRetries     int           // additional attempts per page on 429/5xx
	RetryBaseDelay time.Duration
}

// CacheConfig controls snapshot freshness.
type CacheConfig struct {
	RefreshInterval  time.Duration // normal cadence, snapshot stale after this
	DegradedInterval time.Duration // retry cadence while the snapshot is empty
}

// ServerConfig controls the REST API and token issuance.
type ServerConfig struct {
	Addr       string
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// StoreConfig locates the account database.
type StoreConfig struct {
	Path string
}

// NotificationConfig controls digest and alert delivery.
type NotificationConfig struct {
	Type              string `yaml:"type"` // "log" or "smtp"
	SMTPHost          string `yaml:"smtp_host"`
	SMTPPort          int    `yaml:"smtp_port"`
	EmailUser         string `yaml:"email_user"`
	EmailPassword     string `yaml:"email_password"`
	TwilioAccountSID  string `yaml:"twilio_account_sid"`
	TwilioAuthToken   string `yaml:"twilio_auth_token"`
	TwilioPhoneNumber string `yaml:"twilio_phone_number"`
	DigestSchedule    string `yaml:"digest_schedule"` // cron spec
}

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	Provider     rawProviderConfig  `yaml:"provider"`
	Cache        rawCacheConfig     `yaml:"cache"`
	Filters      rawFilterConfig    `yaml:"filters"`
	Server       rawServerConfig    `yaml:"server"`
	Store        StoreConfig        `yaml:"store"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawProviderConfig struct {
	Host           string `yaml:"host"`
	APIKey         string `yaml:"api_key"`
	TitleFilter    string `yaml:"title_filter"`
	LocationFilter string `yaml:"location_filter"`
	PageOffsets    []int  `yaml:"page_offsets"`
	RequestTimeout string `yaml:"request_timeout"`
	MinDelay       string `yaml:"min_delay"`
	MaxRetries     *int   `yaml:"max_retries"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
}

type rawCacheConfig struct {
	RefreshInterval  string `yaml:"refresh_interval"`
	DegradedInterval string `yaml:"degraded_interval"`
}

type rawFilterConfig struct {
	ExcludeKeywords    []string `yaml:"exclude_keywords"`
	InternshipKeywords []string `yaml:"internship_keywords"`
	CSKeywords         []string `yaml:"cs_keywords"`
}

type rawServerConfig struct {
	Addr       string `yaml:"addr"`
	JWTSecret  string `yaml:"jwt_secret"`
	TokenTTL   string `yaml:"token_ttl"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config. Environment variables in the file are
// expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Provider: ProviderConfig{
			Host:           defaultString(raw.Provider.Host, "internships-api.p.rapidapi.com"),
			APIKey:         raw.Provider.APIKey,
			TitleFilter:    defaultString(raw.Provider.TitleFilter, "intern"),
			LocationFilter: defaultString(raw.Provider.LocationFilter, "United States"),
			PageOffsets:    raw.Provider.PageOffsets,
			MaxRetries:     2,
		},
		Filters: filter.Vocabularies{
			Exclude:    raw.Filters.ExcludeKeywords,
			Internship: raw.Filters.InternshipKeywords,
			CS:         raw.Filters.CSKeywords,
		},
		Server: ServerConfig{
			Addr:       defaultString(raw.Server.Addr, ":8000"),
			JWTSecret:  raw.Server.JWTSecret,
			BcryptCost: raw.Server.BcryptCost,
		},
		Store:        StoreConfig{Path: defaultString(raw.Store.Path, "internradar.db")},
		Notification: raw.Notification,
	}

	if len(cfg.Provider.PageOffsets) == 0 {
		cfg.Provider.PageOffsets = []int{0, 10, 20, 30, 40}
	}
	if raw.Provider.MaxRetries != nil {
		cfg.Provider.MaxRetries = *raw.Provider.MaxRetries
	}
	if cfg.Server.BcryptCost == 0 {
		cfg.Server.BcryptCost = 12
	}
	if len(cfg.Filters.Exclude) == 0 {
		cfg.Filters.Exclude = DefaultExcludeKeywords()
	}
	if len(cfg.Filters.Internship) == 0 {
		cfg.Filters.Internship = DefaultInternshipKeywords()
	}
	if len(cfg.Filters.CS) == 0 {
		cfg.Filters.CS = DefaultCSKeywords()
	}
	cfg.Notification.Type = defaultString(cfg.Notification.Type, "log")
	cfg.Notification.SMTPHost = defaultString(cfg.Notification.SMTPHost, "smtp.gmail.com")
	if cfg.Notification.SMTPPort == 0 {
		cfg.Notification.SMTPPort = 587
	}
	cfg.Notification.DigestSchedule = defaultString(cfg.Notification.DigestSchedule, "0 8 * * *")

	if cfg.Provider.RequestTimeout, err = parseDuration(raw.Provider.RequestTimeout, 15*time.Second, "provider.request_timeout"); err != nil {
		return nil, err
	}
	if cfg.Provider.MinDelay, err = parseDuration(raw.Provider.MinDelay, 500*time.Millisecond, "provider.min_delay"); err != nil {
		return nil, err
	}
	if cfg.Provider.RetryBaseDelay, err = parseDuration(raw.Provider.RetryBaseDelay, 5*time.Second, "provider.retry_base_delay"); err != nil {
		return nil, err
	}
	if cfg.Cache.RefreshInterval, err = parseDuration(raw.Cache.RefreshInterval, 24*time.Hour, "cache.refresh_interval"); err != nil {
		return nil, err
	}
	if cfg.Cache.DegradedInterval, err = parseDuration(raw.Cache.DegradedInterval, time.Hour, "cache.degraded_interval"); err != nil {
		return nil, err
	}
	if cfg.Server.TokenTTL, err = parseDuration(raw.Server.TokenTTL, 30*24*time.Hour, "server.token_ttl"); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	for _, off := range cfg.Provider.PageOffsets {
		if off < 0 {
			return fmt.Errorf("provider.page_offsets must be non-negative, got %d", off)
		}
	}
	if cfg.Provider.MaxRetries < 0 {
		return fmt.Errorf("provider.max_retries must be non-negative, got %d", cfg.Provider.MaxRetries)
	}
	if cfg.Cache.RefreshInterval <= 0 {
		return fmt.Errorf("cache.refresh_interval must be positive, got %v", cfg.Cache.RefreshInterval)
	}
	if cfg.Cache.DegradedInterval <= 0 || cfg.Cache.DegradedInterval > cfg.Cache.RefreshInterval {
		return fmt.Errorf("cache.degraded_interval must be positive and at most cache.refresh_interval, got %v", cfg.Cache.DegradedInterval)
	}
	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	if cfg.Server.BcryptCost < 10 || cfg.Server.BcryptCost > 14 {
		return fmt.Errorf("server.bcrypt_cost must be between 10 and 14, got %d", cfg.Server.BcryptCost)
	}
	switch cfg.Notification.Type {
	case "log":
	case "smtp":
		if cfg.Notification.EmailUser == "" || cfg.Notification.EmailPassword == "" {
			return fmt.Errorf("notification.email_user and notification.email_password are required when type is \"smtp\"")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"smtp\", got %q", cfg.Notification.Type)
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration, field string) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
