// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig    `envPrefix:"SERVER_"`
	Catalog  CatalogConfig   `envPrefix:"CATALOG_"`
	View     ViewConfig      `envPrefix:"VIEW_"`
	Session  SessionConfig   `envPrefix:"SESSION_"`
	Export   ExportConfig    `envPrefix:"EXPORT_"`
	Rate     RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Security SecurityConfig
	Logging  LoggingConfig `envPrefix:"LOG_"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"PORT" envDefault:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// CatalogConfig holds settings for the product catalog fetch.
type CatalogConfig struct {
	// URL is the catalog endpoint (default: https://dummyjson.com/products)
	URL string `env:"URL" envDefault:"https://dummyjson.com/products"`

	// Timeout bounds the single fetch; 0 waits indefinitely (default: 0s)
	Timeout time.Duration `env:"TIMEOUT" envDefault:"0s"`

	// UserAgent is sent with the catalog request
	UserAgent string `env:"USER_AGENT" envDefault:"product-table/1.0"`

	// MaxBodyBytes caps the response body; 0 disables the cap (default: 10MB)
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"10485760"`
}

// ViewConfig holds table rendering settings.
type ViewConfig struct {
	// Locale drives name collation when sorting (default: en)
	Locale string `env:"LOCALE" envDefault:"en"`

	// TextSort compares every column as text, so id 10 sorts before 9 (default: false)
	TextSort bool `env:"TEXT_SORT" envDefault:"false"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// CookieName is the name of the session cookie (default: pt_session)
	CookieName string `env:"COOKIE_NAME" envDefault:"pt_session"`

	// IdleTTL is how long an unused session is kept (default: 2h)
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"2h"`

	// SweepInterval is how often idle sessions are evicted (default: 5m)
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	// SecureCookie sets the Secure flag on the cookie (default: false)
	SecureCookie bool `env:"SECURE_COOKIE" envDefault:"false"`
}

// ExportConfig holds spreadsheet export settings.
type ExportConfig struct {
	// MaxConcurrent is the maximum number of workbooks built at once (default: 4)
	MaxConcurrent int `env:"MAX_CONCURRENT" envDefault:"4"`

	// MaxWait is how long to wait for an export slot (default: 10s)
	MaxWait time.Duration `env:"MAX_WAIT" envDefault:"10s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 300)
	RequestsPerMinute int `env:"REQUESTS_PER_MINUTE" envDefault:"300"`

	// Burst is the number of requests allowed above the rate (default: 50)
	Burst int `env:"BURST" envDefault:"50"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" envDefault:"true"`

	// RequireAPIKey protects /api and /metrics with an API key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" envDefault:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS" envSeparator:","`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"FORMAT" envDefault:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Tag returns the parsed collation locale, English if it does not parse.
func (c *ViewConfig) Tag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
