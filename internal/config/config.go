// Package config loads nemweb settings from the environment.
// Every value has a default so a bare `nemweb parse` works without a .env file;
// the server additionally reads DATABASE_URL when a Postgres ledger is wanted.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Nemweb   NemwebConfig
	Parse    ParseConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: localhost)
	Host string `env:"SERVER_HOST" default:"localhost"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"120s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for API requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`

	// MaxUpload is the largest archive accepted by POST /api/parse (default: 100MB)
	MaxUpload int64 `env:"SERVER_MAX_UPLOAD" default:"104857600"`

	// MaxConcurrent is the number of archives parsed at once (default: 4)
	MaxConcurrent int `env:"SERVER_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a request waits for a parse slot (default: 10s)
	MaxWait time.Duration `env:"SERVER_MAX_WAIT" default:"10s"`

	// TrustedProxies are CIDRs whose X-Real-IP / X-Forwarded-For headers are honored.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`

	// APIKeys guard POST /api/ingest, which makes outbound requests to NEMweb.
	// Empty leaves the endpoint open.
	APIKeys []string `env:"SERVER_API_KEYS"`
}

// DatabaseConfig holds the processed-archive ledger connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty selects the in-memory ledger.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// NemwebConfig holds settings for the NEMweb HTTP collaborator.
type NemwebConfig struct {
	BaseURL   string        `env:"NEMWEB_BASE_URL" default:"http://nemweb.com.au"`
	UserAgent string        `env:"NEMWEB_USER_AGENT" default:"nemweb-ingest/1.0"`
	Timeout   time.Duration `env:"NEMWEB_TIMEOUT" default:"10s"`

	// RequestGap is the minimum spacing between requests to NEMweb (default: 250ms)
	RequestGap time.Duration `env:"NEMWEB_REQUEST_GAP" default:"250ms"`

	// ReportPaths are the directory listings scanned by `fetch` and the poller.
	ReportPaths []string `env:"NEMWEB_REPORT_PATHS" default:"/Reports/Current/TradingIS_Reports/,/Reports/Current/ROOFTOP_PV/ACTUAL/,/Reports/Current/ROOFTOP_PV/FORECAST/"`

	// PollInterval is how often `serve -poll` rescans ReportPaths (default: 5m)
	PollInterval time.Duration `env:"NEMWEB_POLL_INTERVAL" default:"5m"`
}

// ParseConfig holds MMS parser settings.
type ParseConfig struct {
	// Workers is the aggregator pool size; 0 means GOMAXPROCS.
	Workers int `env:"PARSE_WORKERS" default:"0"`

	// Strict aborts an entry on its first bad row instead of recording it.
	Strict bool `env:"PARSE_STRICT" default:"false"`

	// Timezone is the civil zone MMS timestamps are written in.
	Timezone string `env:"PARSE_TIMEZONE" default:"Australia/Sydney"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// HasDatabase reports whether a Postgres ledger is configured.
func (c *DatabaseConfig) HasDatabase() bool {
	return c.URL != ""
}
