package config

import (
	"net/url"
	"strings"
	"time"
)

// Transport names accepted by the server
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all configuration for the UUID MCP server
type Config struct {
	Transport      string     `json:"transport" yaml:"transport"`
	HTTPAddr       string     `json:"httpAddr" yaml:"httpAddr"`
	ServerName     string     `json:"serverName" yaml:"serverName"`
	ServerVersion  string     `json:"serverVersion" yaml:"serverVersion"`
	Auth           AuthConfig `json:"auth" yaml:"auth"`
	AllowedOrigins []string   `json:"allowedOrigins" yaml:"allowedOrigins"`
	SessionTTL     string     `json:"sessionTtl" yaml:"sessionTtl"` // Go duration, e.g. "24h"
	RateLimit      RateLimit  `json:"rateLimit" yaml:"rateLimit"`
	Telemetry      bool       `json:"telemetry" yaml:"telemetry"`
	OTLPEndpoint   string     `json:"otlpEndpoint" yaml:"otlpEndpoint"` // traces are exported here when telemetry is on
	Debug          bool       `json:"debug" yaml:"debug"`
	LogLevel       string     `json:"logLevel" yaml:"logLevel"`
}

// AuthConfig configures bearer token validation for the HTTP transport
type AuthConfig struct {
	HS256Secret string `json:"hs256Secret" yaml:"hs256Secret"` // empty disables auth
}

// RateLimit bounds POST /mcp requests per client on the HTTP transport.
// Clients are keyed by token subject, or by remote address when auth is off.
type RateLimit struct {
	RequestsPerMinute int `json:"requestsPerMinute" yaml:"requestsPerMinute"` // 0 disables limiting
	Burst             int `json:"burst" yaml:"burst"`                         // token bucket size, defaults to RequestsPerMinute
}

// Enabled reports whether requests are limited
func (r RateLimit) Enabled() bool {
	return r.RequestsPerMinute > 0
}

// BucketSize returns the configured burst, falling back to one minute of requests
func (r RateLimit) BucketSize() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.RequestsPerMinute
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return ErrInvalidTransport
	}

	if c.Transport == TransportHTTP && strings.TrimSpace(c.HTTPAddr) == "" {
		return ErrMissingHTTPAddr
	}

	if c.ServerName == "" {
		return ErrMissingServerName
	}

	if _, err := c.SessionTTLDuration(); err != nil {
		return ErrInvalidSessionTTL
	}

	if c.OTLPEndpoint != "" {
		u, err := url.Parse(c.OTLPEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidOTLPEndpoint
		}
	}

	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return ErrInvalidRateLimit
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// AuthEnabled reports whether HTTP requests must carry a bearer token
func (c *Config) AuthEnabled() bool {
	return c.Auth.HS256Secret != ""
}

// SessionTTLDuration parses SessionTTL, falling back to the default when unset
func (c *Config) SessionTTLDuration() (time.Duration, error) {
	if c.SessionTTL == "" {
		return DefaultSessionTTL, nil
	}
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, ErrInvalidSessionTTL
	}
	return d, nil
}

// DefaultSessionTTL is how long an idle HTTP session survives
const DefaultSessionTTL = 24 * time.Hour

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Transport:      TransportStdio,
		HTTPAddr:       "127.0.0.1:8080",
		ServerName:     "uuid-server",
		ServerVersion:  "0.1.0",
		AllowedOrigins: []string{},
		Debug:          false,
		LogLevel:       "info",
	}
}
