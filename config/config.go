package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// insecureDevKey is only ever used when APP_ENV=development and no signing
// key was provided. Any other environment refuses to start without a key.
const insecureDevKey = "insecure-development-signing-key"

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`
	AppName string `envconfig:"APP_NAME" default:"clinica-api"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	DBDSN         string        `envconfig:"DB_DSN" default:"file:clinica.db?cache=shared"`
	DBPingTimeout time.Duration `envconfig:"DB_PING_TIMEOUT" default:"5s"`

	JWTSigningKey    string   `envconfig:"JWT_SIGNING_KEY"`
	JWTSigningMethod string   `envconfig:"JWT_SIGNING_METHOD" default:"HS256"`
	JWTIssuer        string   `envconfig:"JWT_ISSUER" default:"clinica-api"`
	JWTAudience      []string `envconfig:"JWT_AUDIENCE" default:"clinica-api"`
	TokenExpiration  int      `envconfig:"TOKEN_EXPIRATION_HOURS" default:"24"`
	TokenLookup      string   `envconfig:"TOKEN_LOOKUP" default:"header:Authorization"`
	AuthScheme       string   `envconfig:"AUTH_SCHEME" default:"Bearer"`
	ContextKey       string   `envconfig:"AUTH_CONTEXT_KEY" default:"user"`

	// UsingInsecureDevKey flags that the development fallback key is active.
	UsingInsecureDevKey bool `ignored:"true"`
}

// Load reads configuration from environment variables. A missing signing key
// is a hard startup failure outside development.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSigningKey == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("JWT_SIGNING_KEY must be provided")
		}
		cfg.JWTSigningKey = insecureDevKey
		cfg.UsingInsecureDevKey = true
	}

	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// IsDevelopment returns true when the application runs in development.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

func (c *Config) GetSigningKey() string {
	return c.JWTSigningKey
}

func (c *Config) GetSigningMethod() string {
	return c.JWTSigningMethod
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *Config) GetIssuer() string {
	return c.JWTIssuer
}

func (c *Config) GetAudience() []string {
	return c.JWTAudience
}

// Persistence is the database sub configuration.
type Persistence struct {
	DSN         string
	PingTimeout time.Duration
}

func (c *Config) GetPersistence() Persistence {
	return Persistence{
		DSN:         c.DBDSN,
		PingTimeout: c.DBPingTimeout,
	}
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetPingTimeout() time.Duration {
	return p.PingTimeout
}
