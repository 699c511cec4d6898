package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
)

// DevSessionSecret is the development default for SESSION_SECRET. The server
// refuses to start in production while it is in use.
const DevSessionSecret = "dev-secret-change-in-production"

// Database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Session backends.
const (
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

var (
	ErrDevSecretInProduction = errors.New("SESSION_SECRET must be set in production environment")
	ErrUnknownDriver         = errors.New("unknown DATABASE_DRIVER")
	ErrUnknownBackend        = errors.New("unknown SESSION_BACKEND")
	ErrInvalidDuration       = errors.New("session lifetimes must be positive")
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	Env        string `env:"NODE_ENV" envDefault:"development"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"mysql"`
	DatabaseDSN    string `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/wanderplan?parseTime=true"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	SessionBackend string `env:"SESSION_BACKEND" envDefault:"sql"`
	RedisURL       string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	SessionCookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionShortTTL      time.Duration `env:"SESSION_SHORT_TTL" envDefault:"24h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`
	CookieDomain         string        `env:"COOKIE_DOMAIN"`

	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev-secret-change-in-production"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	LockoutWindow       time.Duration `env:"LOCKOUT_WINDOW" envDefault:"5m"`
	LegacyHashMigration bool          `env:"LEGACY_HASH_MIGRATION" envDefault:"false"`
	AuthRateLimitRPS    float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst  int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	Paths PathConfig
}

// PathConfig controls how the request gate classifies paths.
type PathConfig struct {
	Public            []string `env:"PUBLIC_PATHS" envSeparator:"," envDefault:"/,/auth/signin,/auth/signup,/auth/signout,/auth/error,/api/public,/api/v1/auth/signin,/api/v1/auth/signup,/api/v1/auth/signout,/api/v1/auth/session,/api/v1/auth/password-reset,/api/v1/auth/verify-email/confirm,/metrics"`
	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES" envSeparator:"," envDefault:"/__protected__"`
	AdminPrefixes     []string `env:"ADMIN_PREFIXES" envSeparator:"," envDefault:"/admin,/api/v1/admin"`
	SignIn            string   `env:"SIGNIN_PATH" envDefault:"/auth/signin"`
	SignUp            string   `env:"SIGNUP_PATH" envDefault:"/auth/signup"`
	Landing           string   `env:"LANDING_PATH" envDefault:"/__protected__/dashboard"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses cfg from the given variables instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) sanitize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	c.CORSOrigins = trimAll(c.CORSOrigins)
	c.Paths.Public = trimAll(c.Paths.Public)
	c.Paths.ProtectedPrefixes = trimAll(c.Paths.ProtectedPrefixes)
	c.Paths.AdminPrefixes = trimAll(c.Paths.AdminPrefixes)
}

// IsProduction reports whether NODE_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports configuration that must not be used to start the server.
func (c Config) Validate() error {
	if c.IsProduction() && c.SessionSecret == DevSessionSecret {
		return ErrDevSecretInProduction
	}

	switch c.DatabaseDriver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DatabaseDriver)
	}

	switch c.SessionBackend {
	case BackendSQL, BackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.SessionBackend)
	}

	if c.SessionTTL <= 0 || c.SessionShortTTL <= 0 {
		return ErrInvalidDuration
	}

	return nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
