package authplane

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := testConfig().Validate(); err != nil {
		t.Fatalf("baseline config should validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short access secret", func(c *Config) { c.Token.AccessSecret = []byte("short") }},
		{"short refresh secret", func(c *Config) { c.Token.RefreshSecret = []byte("short") }},
		{"identical secrets", func(c *Config) { c.Token.RefreshSecret = c.Token.AccessSecret }},
		{"missing issuer", func(c *Config) { c.Token.Issuer = "" }},
		{"zero session TTL", func(c *Config) { c.Session.TTL = 0 }},
		{"session shorter than access", func(c *Config) { c.Session.TTL = c.Token.AccessTTL - time.Minute }},
		{"zero guard attempts", func(c *Config) { c.Guard.MaxAttempts = 0 }},
		{"zero guard window", func(c *Config) { c.Guard.Window = 0 }},
		{"no rate limit scopes", func(c *Config) { c.RateLimit.Quotas = nil }},
		{"zero verify budget", func(c *Config) { c.VerifyBudget = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultConfigPolicies(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.ReuseRevokesAll {
		t.Fatal("replay of a rotated refresh credential should revoke everything by default")
	}
	if cfg.Token.Leeway != 0 {
		t.Fatalf("Leeway = %v, want exact expiry by default", cfg.Token.Leeway)
	}
}

func TestEnvConfigDefaults(t *testing.T) {
	ec, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if !ec.ReuseRevokesAll {
		t.Fatal("ReuseRevokesAll should default to true")
	}
	if ec.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr = %q", ec.RedisAddr)
	}

	cfg := ec.ToConfig()
	def := DefaultConfig()
	if cfg.Token.AccessTTL != def.Token.AccessTTL {
		t.Fatalf("unset AccessTTL should keep default, got %v", cfg.Token.AccessTTL)
	}
	if cfg.Guard.MaxAttempts != def.Guard.MaxAttempts {
		t.Fatalf("unset guard should keep default, got %d", cfg.Guard.MaxAttempts)
	}
}

func TestEnvConfigOverrides(t *testing.T) {
	t.Setenv("AUTHPLANE_ACCESS_SECRET", strings.Repeat("a", 32))
	t.Setenv("AUTHPLANE_REFRESH_SECRET", strings.Repeat("r", 32))
	t.Setenv("AUTHPLANE_ISSUER", "authplane-test")
	t.Setenv("AUTHPLANE_ACCESS_TTL", "5m")
	t.Setenv("AUTHPLANE_GUARD_MAX_ATTEMPTS", "3")
	t.Setenv("AUTHPLANE_REUSE_REVOKES_ALL", "false")

	ec, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	cfg := ec.ToConfig()

	if cfg.Token.AccessTTL != 5*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.Token.AccessTTL)
	}
	if cfg.Guard.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d", cfg.Guard.MaxAttempts)
	}
	if cfg.ReuseRevokesAll {
		t.Fatal("ReuseRevokesAll should be overridden to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env-built config should validate: %v", err)
	}
}

func TestEnvConfigBadValue(t *testing.T) {
	t.Setenv("AUTHPLANE_GUARD_WINDOW", "not-a-duration")

	if _, err := ParseEnv(); err == nil {
		t.Fatal("expected parse error for malformed duration")
	}
}
