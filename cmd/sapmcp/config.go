package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JinArO/sap-mcp-server/internal/mcp"
	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

// appConfig is the resolved command-line and environment configuration.
type appConfig struct {
	BaseURL            string
	Client             string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	MaxConcurrent      int
	Rate               float64

	CatalogPath string

	Transport   string
	Addr        string
	MetricsAddr string

	CredentialStore string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CredentialTTL   time.Duration

	Verbose bool
}

// stringFlag defines a string CLI flag
type stringFlag struct {
	name, shorthand, defaultValue, description string
}

// boolFlag defines a bool CLI flag
type boolFlag struct {
	name, shorthand, description string
	defaultValue                 bool
}

// intFlag defines an int CLI flag
type intFlag struct {
	name, description string
	defaultValue      int
}

// durationFlag defines a duration CLI flag
type durationFlag struct {
	name, description string
	defaultValue      time.Duration
}

var stringFlags = []stringFlag{
	{"url", "", soap.DefaultBaseURL, "SAP system URL (e.g., https://host:44300)"},
	{"client", "", soap.DefaultClient, "SAP client number"},
	{"user", "u", "", "Default SAP username for sessions without their own login"},
	{"password", "p", "", "Default SAP password"},
	{"catalog", "", "", "Path to an operation catalog YAML (defaults to the built-in catalog)"},
	{"transport", "t", mcp.TransportStdio, "MCP transport: stdio, sse or http"},
	{"addr", "", ":8080", "Listen address for sse and http transports"},
	{"metrics-addr", "", "", "Listen address for /metrics when using the stdio transport"},
	{"credential-store", "", "memory", "Session credential store: memory or redis"},
	{"redis-addr", "", "localhost:6379", "Redis address for the redis credential store"},
	{"redis-password", "", "", "Redis password"},
}

var boolFlags = []boolFlag{
	{"insecure", "", "Skip TLS certificate verification", true},
	{"verbose", "v", "Enable debug logging to stderr", false},
}

var intFlags = []intFlag{
	{"redis-db", "Redis database number", 0},
	{"max-concurrent", "Maximum concurrent SOAP requests", soap.DefaultMaxConcurrent},
}

var durationFlags = []durationFlag{
	{"timeout", "Per-request timeout", soap.DefaultTimeout},
	{"credential-ttl", "Expiry of session logins in redis (0 keeps them until cleared)", 0},
}

// registerFlags declares the persistent flags and binds them to viper.
func registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	for _, f := range stringFlags {
		if f.shorthand != "" {
			flags.StringP(f.name, f.shorthand, f.defaultValue, f.description)
		} else {
			flags.String(f.name, f.defaultValue, f.description)
		}
		_ = viper.BindPFlag(f.name, flags.Lookup(f.name))
	}

	for _, f := range boolFlags {
		if f.shorthand != "" {
			flags.BoolP(f.name, f.shorthand, f.defaultValue, f.description)
		} else {
			flags.Bool(f.name, f.defaultValue, f.description)
		}
		_ = viper.BindPFlag(f.name, flags.Lookup(f.name))
	}

	for _, f := range intFlags {
		flags.Int(f.name, f.defaultValue, f.description)
		_ = viper.BindPFlag(f.name, flags.Lookup(f.name))
	}

	for _, f := range durationFlags {
		flags.Duration(f.name, f.defaultValue, f.description)
		_ = viper.BindPFlag(f.name, flags.Lookup(f.name))
	}

	flags.Float64("rate", soap.DefaultRate, "Maximum SOAP requests per second (0 disables pacing)")
	_ = viper.BindPFlag("rate", flags.Lookup("rate"))
}

func resolveConfig(cmd *cobra.Command) {
	resolveConnectionConfig(cmd)
	resolveServerConfig(cmd)
	resolveCredentialConfig(cmd)
}

// resolveConnectionConfig resolves URL, auth, and connection settings
func resolveConnectionConfig(cmd *cobra.Command) {
	// URL: flag > SAP_URL > SAP_SERVICE_URL > built-in default
	if cmd.Flags().Changed("url") {
		cfg.BaseURL, _ = cmd.Flags().GetString("url")
	} else {
		cfg.BaseURL = getFirstNonEmpty("URL", "SERVICE_URL")
	}

	resolveString(cmd, "client", "CLIENT", &cfg.Client)

	// Username/Password: flag > SAP_USER > SAP_USERNAME
	if cmd.Flags().Changed("user") {
		cfg.Username, _ = cmd.Flags().GetString("user")
	} else {
		cfg.Username = getFirstNonEmpty("USER", "USERNAME")
	}
	if cmd.Flags().Changed("password") {
		cfg.Password, _ = cmd.Flags().GetString("password")
	} else {
		cfg.Password = getFirstNonEmpty("PASSWORD", "PASS")
	}

	resolveBool(cmd, "insecure", "INSECURE", &cfg.InsecureSkipVerify)
	resolveDuration(cmd, "timeout", "TIMEOUT", &cfg.Timeout)
	resolveInt(cmd, "max-concurrent", "MAX_CONCURRENT", &cfg.MaxConcurrent)
	resolveFloat(cmd, "rate", "RATE", &cfg.Rate)
	resolveBool(cmd, "verbose", "VERBOSE", &cfg.Verbose)
}

// resolveServerConfig resolves transport and catalog settings
func resolveServerConfig(cmd *cobra.Command) {
	resolveString(cmd, "catalog", "CATALOG", &cfg.CatalogPath)
	resolveString(cmd, "transport", "TRANSPORT", &cfg.Transport)
	resolveString(cmd, "addr", "ADDR", &cfg.Addr)
	resolveString(cmd, "metrics-addr", "METRICS_ADDR", &cfg.MetricsAddr)
}

// resolveCredentialConfig resolves the session credential store settings
func resolveCredentialConfig(cmd *cobra.Command) {
	resolveString(cmd, "credential-store", "CREDENTIAL_STORE", &cfg.CredentialStore)
	resolveString(cmd, "redis-addr", "REDIS_ADDR", &cfg.RedisAddr)
	resolveString(cmd, "redis-password", "REDIS_PASSWORD", &cfg.RedisPassword)
	resolveInt(cmd, "redis-db", "REDIS_DB", &cfg.RedisDB)
	resolveDuration(cmd, "credential-ttl", "CREDENTIAL_TTL", &cfg.CredentialTTL)
}

// Helper functions for config resolution

func getFirstNonEmpty(keys ...string) string {
	for _, key := range keys {
		if v := viper.GetString(key); v != "" {
			return v
		}
	}
	return ""
}

func resolveString(cmd *cobra.Command, flag, envKey string, target *string) {
	if cmd.Flags().Changed(flag) {
		*target, _ = cmd.Flags().GetString(flag)
		return
	}
	if v := viper.GetString(envKey); v != "" {
		*target = v
		return
	}
	*target, _ = cmd.Flags().GetString(flag)
}

func resolveBool(cmd *cobra.Command, flag, envKey string, target *bool) {
	if cmd.Flags().Changed(flag) || !viper.IsSet(envKey) {
		*target, _ = cmd.Flags().GetBool(flag)
		return
	}
	*target = viper.GetBool(envKey)
}

func resolveInt(cmd *cobra.Command, flag, envKey string, target *int) {
	if cmd.Flags().Changed(flag) || !viper.IsSet(envKey) {
		*target, _ = cmd.Flags().GetInt(flag)
		return
	}
	*target = viper.GetInt(envKey)
}

func resolveFloat(cmd *cobra.Command, flag, envKey string, target *float64) {
	if cmd.Flags().Changed(flag) || !viper.IsSet(envKey) {
		*target, _ = cmd.Flags().GetFloat64(flag)
		return
	}
	*target = viper.GetFloat64(envKey)
}

func resolveDuration(cmd *cobra.Command, flag, envKey string, target *time.Duration) {
	if cmd.Flags().Changed(flag) || !viper.IsSet(envKey) {
		*target, _ = cmd.Flags().GetDuration(flag)
		return
	}
	*target = viper.GetDuration(envKey)
}

func validateConfig() error {
	switch cfg.Transport {
	case mcp.TransportStdio, mcp.TransportSSE, mcp.TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (want %s, %s or %s)", cfg.Transport, mcp.TransportStdio, mcp.TransportSSE, mcp.TransportHTTP)
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return fmt.Errorf("SAP user and password must be set together. Use --user/--password or SAP_USER/SAP_PASSWORD")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
