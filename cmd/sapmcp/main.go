// sapmcp is an MCP server exposing SAP SOAP business operations as tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JinArO/sap-mcp-server/internal/credentials"
	"github.com/JinArO/sap-mcp-server/internal/dispatch"
	"github.com/JinArO/sap-mcp-server/internal/logging"
	"github.com/JinArO/sap-mcp-server/internal/mcp"
	"github.com/JinArO/sap-mcp-server/internal/metrics"
	"github.com/JinArO/sap-mcp-server/pkg/rfc"
	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var cfg = &appConfig{}

var rootCmd = &cobra.Command{
	Use:   "sapmcp",
	Short: "MCP server for SAP SOAP business operations",
	Long: `sapmcp is a Model Context Protocol (MCP) server that exposes SAP RFC
function modules, published as SOAP web services, as tools for AI assistants.

Each catalog operation (sales order, STO purchase order, outbound delivery,
material views, source list, info record, kitting status) becomes one tool.
Sessions may set their own SAP login with set_sap_credentials.

Examples:
  # Using environment variables
  SAP_URL=https://host:44300 SAP_USER=user SAP_PASSWORD=pass sapmcp

  # Using command-line flags
  sapmcp --url https://host:44300 --client 100 --user admin --password secret

  # Serving several agents over streamable HTTP with shared session logins
  sapmcp --transport http --addr :8080 --credential-store redis --redis-addr redis:6379

  # Dry-run: print the envelope a call would send
  sapmcp render SRC MATERIAL=M1 VALID_FROM=2025-01-01`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
	RunE:          runServer,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	// Load .env file if it exists (ignore error - file is optional)
	_ = godotenv.Load()

	registerFlags(rootCmd)

	rootCmd.AddCommand(catalogCmd, renderCmd)

	// Set up environment variable mapping
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SAP")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	// Resolve configuration with priority: flags > env vars > defaults
	resolveConfig(cmd)

	if err := validateConfig(); err != nil {
		return err
	}

	logger := logging.New(cfg.Verbose)
	logStartupInfo(logger)

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	store, closeStore, err := newCredentialStore(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var fallback *credentials.Entry
	if cfg.Username != "" && cfg.Password != "" {
		fallback = &credentials.Entry{Username: cfg.Username, Password: cfg.Password}
	}
	resolver := credentials.NewResolver(store, fallback)

	soapCfg := soap.NewConfig(cfg.BaseURL,
		soap.WithClient(cfg.Client),
		soap.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		soap.WithTimeout(cfg.Timeout),
		soap.WithMaxConcurrent(cfg.MaxConcurrent),
		soap.WithRate(cfg.Rate),
	)
	m := metrics.New()

	server := mcp.NewServer(&mcp.Config{
		Name:    "sap-mcp-server",
		Version: Version,
		BaseURL: soapCfg.BaseURL,
		Client:  soapCfg.Client,
		Dispatcher: dispatch.New(dispatch.Config{
			Catalog:  catalog,
			Resolver: resolver,
			Caller:   soap.NewTransport(soapCfg),
			Metrics:  m,
			Logger:   logger,
		}),
		Resolver: resolver,
		Metrics:  m,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Transport == mcp.TransportStdio {
		if cfg.MetricsAddr != "" {
			go serveMetrics(ctx, logger, cfg.MetricsAddr, m)
		}
		return server.ServeStdio()
	}
	return server.ListenAndServe(ctx, cfg.Transport, cfg.Addr)
}

// newCredentialStore builds the session credential store selected by --credential-store.
func newCredentialStore(ctx context.Context, logger *log.Logger) (credentials.Store, func(), error) {
	switch cfg.CredentialStore {
	case "", "memory":
		return credentials.NewMemoryStore(), func() {}, nil
	case "redis":
		var opts []credentials.RedisOption
		if cfg.CredentialTTL > 0 {
			opts = append(opts, credentials.WithTTL(cfg.CredentialTTL))
		}
		store := credentials.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if ctx == nil {
			ctx = context.Background()
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		logger.Info("using redis credential store", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "ttl", cfg.CredentialTTL)
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown credential store %q (want memory or redis)", cfg.CredentialStore)
	}
}

// serveMetrics exposes /metrics next to a stdio transport.
func serveMetrics(ctx context.Context, logger *log.Logger, addr string, m *metrics.Metrics) {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "err", err)
	}
}

// logStartupInfo outputs startup information at debug level.
func logStartupInfo(logger *log.Logger) {
	logger.Debug("starting sapmcp", "version", Version, "transport", cfg.Transport)
	logger.Debug("SAP system", "url", cfg.BaseURL, "client", cfg.Client, "insecure", cfg.InsecureSkipVerify)

	if cfg.Username != "" {
		logger.Debug("default login configured", "user", cfg.Username)
	} else {
		logger.Debug("no default login, sessions must call set_sap_credentials")
	}
	logger.Debug("pacing", "max_concurrent", cfg.MaxConcurrent, "rate", cfg.Rate, "timeout", cfg.Timeout)
}

func loadCatalog() (*rfc.Catalog, error) {
	if cfg.CatalogPath == "" {
		return rfc.DefaultCatalog()
	}
	return rfc.LoadCatalog(cfg.CatalogPath)
}
