package tokenauth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/MrEthical07/tokenauth/jwt"
)

const (
	// DefaultBearer is the scheme keyword used when Config.Bearer is empty.
	DefaultBearer = "Bearer"
	// HeaderAuthorization is the request header carrying the credential.
	HeaderAuthorization = "authorization"
	// DefaultExpiresIn is the validity window applied by Create when the
	// caller sets no ExpiresIn.
	DefaultExpiresIn = time.Hour
)

// Config is the call-site configuration an Authority executes against.
//
// Zero values select the process-wide defaults: the "Bearer" keyword and the
// secret read from the environment (see [EnvConfig]).
type Config struct {
	Bearer string
	Secret string

	// Algorithm is the HMAC algorithm used for new tokens. Defaults to HS256.
	Algorithm jwt.Algorithm
	// Leeway is the clock tolerance applied to exp/nbf during validation.
	Leeway time.Duration
	// IssueTokenIDs makes Create assign a random jti to new token lineages.
	IssueTokenIDs bool
	// AllowInsecureSecret permits the username+HOSTNAME fallback secret when
	// JWT_SECRET is unset.
	AllowInsecureSecret bool

	Metrics MetricsConfig
	Audit   AuditConfig
}

// MetricsConfig toggles the in-process counters exposed by
// [Authority.MetricsSnapshot].
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// EnvConfig holds the process environment consulted for defaults.
type EnvConfig struct {
	Secret              string `env:"JWT_SECRET"`
	Username            string `env:"username"`
	Hostname            string `env:"HOSTNAME"`
	AllowInsecureSecret bool   `env:"JWT_ALLOW_INSECURE_SECRET" envDefault:"false"`
}

// LoadEnv reads EnvConfig from the process environment.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("load environment: %w", err)
	}
	return cfg, nil
}

// processEnv is read once; later changes to the environment are not observed.
var processEnv = sync.OnceValues(LoadEnv)

// Validate checks the call-site overrides.
func (c *Config) Validate() error {
	if c.Bearer != "" && (strings.TrimSpace(c.Bearer) == "" || strings.Contains(c.Bearer, " ")) {
		return fmt.Errorf("%w: %q", ErrInvalidBearer, c.Bearer)
	}
	return nil
}

func (c *Config) bearer() string {
	if c.Bearer == "" {
		return DefaultBearer
	}
	return c.Bearer
}

// resolveSecret picks the call-site secret, then JWT_SECRET, then the
// username+HOSTNAME fallback when explicitly allowed. The returned flag
// reports whether the fallback was used.
func resolveSecret(cfg Config, e EnvConfig) (string, bool, error) {
	if cfg.Secret != "" {
		return cfg.Secret, false, nil
	}
	if e.Secret != "" {
		return e.Secret, false, nil
	}
	if !cfg.AllowInsecureSecret && !e.AllowInsecureSecret {
		return "", false, ErrSecretNotConfigured
	}
	fallback := e.Username + e.Hostname
	if fallback == "" {
		return "", false, fmt.Errorf("%w: insecure fallback is empty", ErrSecretNotConfigured)
	}
	return fallback, true, nil
}
