package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/email"
	"github.com/dmitrymomot/twofactor/pkg/httpserver"
	"github.com/dmitrymomot/twofactor/pkg/provisioning"
	"github.com/dmitrymomot/twofactor/pkg/redis"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
	storeRedis    = "redis"
)

// Config is the service configuration. Postgres settings are loaded separately, and
// only when TWOFA_STORE=postgres, because PG_CONN_URL is required there.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	HTTP             httpserver.Config
	TrustedIPHeaders []string `env:"HTTP_TRUSTED_IP_HEADERS" envSeparator:","`

	Redis redis.Config
	Email email.Config

	Issuer        string        `env:"TWOFA_ISSUER" envDefault:"TwoFactor"`
	EncryptionKey string        `env:"TWOFA_ENCRYPTION_KEY,required,unset"`
	SetupTTL      time.Duration `env:"TWOFA_SETUP_TTL" envDefault:"10m"`
	Window        int           `env:"TWOFA_WINDOW" envDefault:"1"`
	MaxFailures   int           `env:"TWOFA_MAX_FAILURES" envDefault:"5"`
	FailureRefill time.Duration `env:"TWOFA_FAILURE_REFILL" envDefault:"1m"`
	// Each entry is name=https://host/path?data={data}. Remote renderers run after the
	// local ones and receive the secret, so they are off unless listed here.
	RemoteQREndpoints []string      `env:"TWOFA_REMOTE_QR_ENDPOINTS" envSeparator:","`
	Store             string        `env:"TWOFA_STORE" envDefault:"memory"`
	ThrottleStore     string        `env:"TWOFA_THROTTLE_STORE" envDefault:"memory"`
	VerifyIPLimit     int           `env:"TWOFA_VERIFY_IP_LIMIT" envDefault:"30"` // per minute, 0 disables
	SessionTTL        time.Duration `env:"TWOFA_SESSION_TTL" envDefault:"1h"`
	Notify            bool          `env:"TWOFA_NOTIFY" envDefault:"true"`
}

var errConfig = errors.New("invalid configuration")

func (c *Config) Validate() error {
	var errs []error
	if c.Store != storeMemory && c.Store != storePostgres {
		errs = append(errs, fmt.Errorf("TWOFA_STORE must be %q or %q", storeMemory, storePostgres))
	}
	if c.ThrottleStore != storeMemory && c.ThrottleStore != storeRedis {
		errs = append(errs, fmt.Errorf("TWOFA_THROTTLE_STORE must be %q or %q", storeMemory, storeRedis))
	}
	if c.Window < 0 || c.Window > 10 {
		errs = append(errs, errors.New("TWOFA_WINDOW must be between 0 and 10"))
	}
	if c.MaxFailures < 1 {
		errs = append(errs, errors.New("TWOFA_MAX_FAILURES must be positive"))
	}
	if c.FailureRefill <= 0 || c.SetupTTL <= 0 || c.SessionTTL <= 0 {
		errs = append(errs, errors.New("durations must be positive"))
	}
	if c.VerifyIPLimit < 0 {
		errs = append(errs, errors.New("TWOFA_VERIFY_IP_LIMIT must not be negative"))
	}
	if _, err := remoteRenderers(c.RemoteQREndpoints); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{errConfig}, errs...)...)
	}
	return nil
}

// remoteRenderers parses TWOFA_REMOTE_QR_ENDPOINTS in order.
func remoteRenderers(specs []string) ([]provisioning.Renderer, error) {
	out := make([]provisioning.Renderer, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		name, endpoint, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("remote QR endpoint %q: want name=url", spec)
		}
		r, err := provisioning.NewRemoteRenderer(name, endpoint)
		if err != nil {
			return nil, fmt.Errorf("remote QR endpoint %q: %w", name, err)
		}
		out = append(out, r)
	}
	return out, nil
}
