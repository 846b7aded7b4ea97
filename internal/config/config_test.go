package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/eugenenazirov/seat-allocator/internal/apportion"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "ALLOCATION_METHOD", "MAX_SEATS", "MAX_PARTIES", "CACHE_SIZE",
		"METRICS_ENABLED", "LOG_FILE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TRUSTED_PROXIES",
	} {
		t.Setenv(name, "")
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.DefaultMethod != apportion.DHondt {
		t.Fatalf("expected default method dhondt, got %s", cfg.DefaultMethod)
	}
	if cfg.MaxSeats != defaultMaxSeats || cfg.MaxParties != defaultMaxParties {
		t.Fatalf("unexpected limits: seats=%d parties=%d", cfg.MaxSeats, cfg.MaxParties)
	}
	if !cfg.MetricsEnabled || cfg.CacheSize != defaultCacheSize {
		t.Fatalf("unexpected metrics/cache defaults: %+v", cfg)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOCATION_METHOD", "Sainte-Laguë")
	t.Setenv("MAX_SEATS", "650")
	t.Setenv("CACHE_SIZE", "0")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.DefaultMethod != apportion.SainteLague {
		t.Fatalf("expected sainte-lague, got %s", cfg.DefaultMethod)
	}
	if cfg.MaxSeats != 650 {
		t.Fatalf("expected max seats 650, got %d", cfg.MaxSeats)
	}
	if cfg.CacheSize != 0 || cfg.MetricsEnabled {
		t.Fatalf("expected cache and metrics disabled, got %+v", cfg)
	}
	if cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("malformed env value must be ignored, got %d", cfg.RateLimitBurst)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("ALLOCATION_METHOD", "danish")

	path := writeYAML(t, `
port: "7100"
method: imperiali
max_parties: 12
write_timeout: 2s
enable_request_logging: false
rate_limit:
  rps: 0
  burst: 3
`)

	method := "huntington-hill"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Method: &method})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7100" {
		t.Fatalf("YAML must override env port, got %s", cfg.Port)
	}
	if cfg.DefaultMethod != apportion.HuntingtonHill {
		t.Fatalf("CLI must override YAML method, got %s", cfg.DefaultMethod)
	}
	if cfg.MaxParties != 12 {
		t.Fatalf("expected max parties 12, got %d", cfg.MaxParties)
	}
	if cfg.WriteTimeout != 2*time.Second {
		t.Fatalf("expected write timeout 2s, got %s", cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled")
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != 3 {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})

	t.Run("unknown method in YAML", func(t *testing.T) {
		path := writeYAML(t, "method: hare\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for unknown method")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeYAML(t, "idle_timeout: soon\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for malformed duration")
		}
	})

	t.Run("unknown method flag", func(t *testing.T) {
		method := "plurality"
		if _, err := Load(&CLIOverrides{Method: &method}); err == nil {
			t.Fatalf("expected error for unknown method flag")
		}
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		path := writeYAML(t, "trusted_proxies: [\"10.0.0.0/8\", \"gateway\"]\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for malformed trusted proxy")
		}
	})

	t.Run("invalid limits", func(t *testing.T) {
		path := writeYAML(t, "max_seats: 0\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for zero max seats")
		}
	})
}

func TestLoadTrustedProxies(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", "192.0.2.10, 10.0.0.0/8")
	cfg, err = Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []netip.Prefix{netip.MustParsePrefix("192.0.2.10/32"), netip.MustParsePrefix("10.0.0.0/8")}
	if !slices.Equal(cfg.TrustedProxies, want) {
		t.Fatalf("expected proxies %v from env, got %v", want, cfg.TrustedProxies)
	}

	path := writeYAML(t, "trusted_proxies:\n  - 172.16.5.1/12\n")
	cfg, err = Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want = []netip.Prefix{netip.MustParsePrefix("172.16.0.0/12")}
	if !slices.Equal(cfg.TrustedProxies, want) {
		t.Fatalf("expected YAML proxies %v to override env, got %v", want, cfg.TrustedProxies)
	}
}
