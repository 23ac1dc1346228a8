package authplane

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the environment-variable surface for services embedding
// the engine. ToConfig folds it over DefaultConfig, so unset variables
// keep the defaults.
type EnvConfig struct {
	AccessSecret  string `env:"AUTHPLANE_ACCESS_SECRET"`
	RefreshSecret string `env:"AUTHPLANE_REFRESH_SECRET"`
	Issuer        string `env:"AUTHPLANE_ISSUER"`

	AccessTTL  time.Duration `env:"AUTHPLANE_ACCESS_TTL"`
	RefreshTTL time.Duration `env:"AUTHPLANE_REFRESH_TTL"`
	SessionTTL time.Duration `env:"AUTHPLANE_SESSION_TTL"`

	GuardMaxAttempts int           `env:"AUTHPLANE_GUARD_MAX_ATTEMPTS"`
	GuardWindow      time.Duration `env:"AUTHPLANE_GUARD_WINDOW"`

	VerifyBudget    time.Duration `env:"AUTHPLANE_VERIFY_BUDGET"`
	ReuseRevokesAll bool          `env:"AUTHPLANE_REUSE_REVOKES_ALL" envDefault:"true"`

	RedisAddr   string `env:"AUTHPLANE_REDIS_ADDR" envDefault:"localhost:6379"`
	PostgresDSN string `env:"AUTHPLANE_POSTGRES_DSN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.Parse(&ec); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return ec, nil
}

// ToConfig merges the parsed environment over the defaults. The result
// still needs Validate; notably the secrets may be absent.
func (ec EnvConfig) ToConfig() Config {
	cfg := DefaultConfig()

	cfg.Token.AccessSecret = []byte(ec.AccessSecret)
	cfg.Token.RefreshSecret = []byte(ec.RefreshSecret)
	cfg.Token.Issuer = ec.Issuer
	cfg.ReuseRevokesAll = ec.ReuseRevokesAll

	if ec.AccessTTL > 0 {
		cfg.Token.AccessTTL = ec.AccessTTL
	}
	if ec.RefreshTTL > 0 {
		cfg.Token.RefreshTTL = ec.RefreshTTL
	}
	if ec.SessionTTL > 0 {
		cfg.Session.TTL = ec.SessionTTL
	}
	if ec.GuardMaxAttempts > 0 {
		cfg.Guard.MaxAttempts = ec.GuardMaxAttempts
	}
	if ec.GuardWindow > 0 {
		cfg.Guard.Window = ec.GuardWindow
	}
	if ec.VerifyBudget > 0 {
		cfg.VerifyBudget = ec.VerifyBudget
	}

	return cfg
}
