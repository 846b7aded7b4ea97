package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/seat-allocator/internal/apportion"
	"github.com/eugenenazirov/seat-allocator/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultMaxSeats       = 10_000
	defaultMaxParties     = 200
	defaultCacheSize      = 1024
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	DefaultMethod        apportion.Method
	MaxSeats             int
	MaxParties           int
	CacheSize            int
	MetricsEnabled       bool
	LogFile              string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	// TrustedProxies are the networks whose X-Forwarded-For header names the
	// client for rate limiting. Empty means the peer address is always used.
	TrustedProxies []netip.Prefix
}

// yamlConfig represents the YAML configuration file structure.
// Pointers distinguish "absent" from an explicit zero value.
type yamlConfig struct {
	Port                 string            `yaml:"port"`
	Method               *apportion.Method `yaml:"method"`
	MaxSeats             *int              `yaml:"max_seats"`
	MaxParties           *int              `yaml:"max_parties"`
	CacheSize            *int              `yaml:"cache_size"`
	MetricsEnabled       *bool             `yaml:"metrics_enabled"`
	LogFile              string            `yaml:"log_file"`
	ShutdownGracePeriod  string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string            `yaml:"read_header_timeout"`
	WriteTimeout         string            `yaml:"write_timeout"`
	IdleTimeout          string            `yaml:"idle_timeout"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit     `yaml:"rate_limit"`
	TrustedProxies       []string          `yaml:"trusted_proxies"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	Method         *string
	MaxSeats       *int
	CacheSize      *int
	LogFile        *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment first so the YAML file and flags can override it.
	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		DefaultMethod:        storage.DefaultMethod,
		MaxSeats:             defaultMaxSeats,
		MaxParties:           defaultMaxParties,
		CacheSize:            defaultCacheSize,
		MetricsEnabled:       true,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.Method != nil {
		cfg.DefaultMethod = *yamlCfg.Method
	}
	if yamlCfg.MaxSeats != nil {
		cfg.MaxSeats = *yamlCfg.MaxSeats
	}
	if yamlCfg.MaxParties != nil {
		cfg.MaxParties = *yamlCfg.MaxParties
	}
	if yamlCfg.CacheSize != nil {
		cfg.CacheSize = *yamlCfg.CacheSize
	}
	if yamlCfg.MetricsEnabled != nil {
		cfg.MetricsEnabled = *yamlCfg.MetricsEnabled
	}
	if yamlCfg.LogFile != "" {
		cfg.LogFile = yamlCfg.LogFile
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	durations := []struct {
		raw    string
		target *time.Duration
		name   string
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod, "shutdown_grace_period"},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout, "read_header_timeout"},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout, "write_timeout"},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout, "idle_timeout"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.target = parsed
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.TrustedProxies != nil {
		proxies, err := parseTrustedProxies(yamlCfg.TrustedProxies)
		if err != nil {
			return fmt.Errorf("trusted_proxies: %w", err)
		}
		cfg.TrustedProxies = proxies
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
// Malformed values are ignored and the previous value is kept.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if raw := strings.TrimSpace(os.Getenv("ALLOCATION_METHOD")); raw != "" {
		if m, err := apportion.ParseMethod(raw); err == nil {
			cfg.DefaultMethod = m
		}
	}

	if v, ok := envInt("MAX_SEATS"); ok && v > 0 {
		cfg.MaxSeats = v
	}
	if v, ok := envInt("MAX_PARTIES"); ok && v > 0 {
		cfg.MaxParties = v
	}
	if v, ok := envInt("CACHE_SIZE"); ok && v >= 0 {
		cfg.CacheSize = v
	}

	if raw := strings.TrimSpace(os.Getenv("METRICS_ENABLED")); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.MetricsEnabled = value
		}
	}

	if logFile := strings.TrimSpace(os.Getenv("LOG_FILE")); logFile != "" {
		cfg.LogFile = logFile
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if v, ok := envInt("RATE_LIMIT_BURST"); ok && v >= 0 {
		cfg.RateLimitBurst = v
	}

	if raw := strings.TrimSpace(os.Getenv("TRUSTED_PROXIES")); raw != "" {
		if proxies, err := parseTrustedProxies(strings.Split(raw, ",")); err == nil {
			cfg.TrustedProxies = proxies
		}
	}
}

// parseTrustedProxies accepts CIDR prefixes and bare addresses.
func parseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: must be an IP address or CIDR prefix", raw)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func envInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.Method != nil && *overrides.Method != "" {
		m, err := apportion.ParseMethod(*overrides.Method)
		if err != nil {
			return fmt.Errorf("parse method: %w", err)
		}
		cfg.DefaultMethod = m
	}

	if overrides.MaxSeats != nil && *overrides.MaxSeats > 0 {
		cfg.MaxSeats = *overrides.MaxSeats
	}

	if overrides.CacheSize != nil && *overrides.CacheSize >= 0 {
		cfg.CacheSize = *overrides.CacheSize
	}

	if overrides.LogFile != nil && *overrides.LogFile != "" {
		cfg.LogFile = *overrides.LogFile
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if !cfg.DefaultMethod.Valid() {
		return fmt.Errorf("method: %w", apportion.ErrUnknownMethod)
	}
	if cfg.MaxSeats <= 0 {
		return fmt.Errorf("MAX_SEATS must be > 0")
	}
	if cfg.MaxParties <= 0 {
		return fmt.Errorf("MAX_PARTIES must be > 0")
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("CACHE_SIZE must be >= 0")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}
