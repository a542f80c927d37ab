package config

import "errors"

var (
	// ErrInvalidTransport indicates that the transport is neither stdio nor http
	ErrInvalidTransport = errors.New("transport must be \"stdio\" or \"http\"")

	// ErrMissingHTTPAddr indicates that the http transport has no listen address
	ErrMissingHTTPAddr = errors.New("httpAddr is required for the http transport")

	// ErrMissingServerName indicates that the server name reported on initialize is empty
	ErrMissingServerName = errors.New("serverName is required in configuration")

	// ErrInvalidSessionTTL indicates that sessionTtl is not a positive Go duration
	ErrInvalidSessionTTL = errors.New("sessionTtl must be a positive duration")

	// ErrInvalidRateLimit indicates a negative rate or burst
	ErrInvalidRateLimit = errors.New("rateLimit values must not be negative")

	// ErrInvalidOTLPEndpoint indicates that otlpEndpoint is not an http(s) URL
	ErrInvalidOTLPEndpoint = errors.New("otlpEndpoint must be an http or https URL")

	// ErrInvalidLogLevel indicates an unsupported log level
	ErrInvalidLogLevel = errors.New("logLevel must be one of debug, info, warn, error")

	// ErrConfigFileNotFound indicates that the config file was not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFormat indicates that the config file could not be decoded
	ErrInvalidConfigFormat = errors.New("invalid configuration file format")
)
