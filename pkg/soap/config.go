// Package soap provides a minimal SOAP 1.1 client for SAP RFC web services.
package soap

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Default connection settings for the SAP SOAP runtime.
const (
	DefaultBaseURL       = "https://vhivcqasci.sap.inventec.com:44300"
	DefaultClient        = "100"
	DefaultTimeout       = 60 * time.Second
	DefaultMaxConcurrent = 5
	DefaultRate          = 20 // requests per second
)

// Config holds the configuration for the SOAP transport.
type Config struct {
	// BaseURL is the SAP system URL (e.g., "https://host:44300")
	BaseURL string
	// Client is the SAP client number embedded in every SOAP endpoint path
	Client string
	// InsecureSkipVerify disables TLS certificate verification.
	// The SAP gateway serves an internal certificate, so this defaults to true.
	InsecureSkipVerify bool
	// Timeout for a single SOAP call
	Timeout time.Duration
	// MaxConcurrent limits parallel requests to SAP
	MaxConcurrent int
	// Rate is the sustained request rate towards SAP (requests per second, 0 = unlimited)
	Rate float64
}

// Option is a functional option for configuring the transport.
type Option func(*Config)

// WithClient sets the SAP client number.
func WithClient(client string) Option {
	return func(c *Config) {
		c.Client = client
	}
}

// WithInsecureSkipVerify sets TLS certificate verification behaviour.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Config) {
		c.InsecureSkipVerify = skip
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMaxConcurrent caps the number of in-flight SOAP calls.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithRate sets the sustained outbound request rate.
func WithRate(rps float64) Option {
	return func(c *Config) {
		c.Rate = rps
	}
}

// NewConfig creates a new Config with the given base URL and options.
func NewConfig(baseURL string, opts ...Option) *Config {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg := &Config{
		BaseURL:            baseURL,
		Client:             DefaultClient,
		InsecureSkipVerify: true,
		Timeout:            DefaultTimeout,
		MaxConcurrent:      DefaultMaxConcurrent,
		Rate:               DefaultRate,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	return cfg
}

// NewHTTPClient creates an http.Client configured for the given Config.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.InsecureSkipVerify, //nolint:gosec // internal SAP certificate
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: c.MaxConcurrent,
		MaxConnsPerHost:     c.MaxConcurrent,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.Timeout,
	}
}
