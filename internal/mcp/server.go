// Package mcp provides the MCP server that exposes SAP SOAP operations as tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JinArO/sap-mcp-server/internal/credentials"
	"github.com/JinArO/sap-mcp-server/internal/dispatch"
	"github.com/JinArO/sap-mcp-server/internal/metrics"
)

// Transport names accepted by ListenAndServe.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Server wraps the MCP server with the SAP dispatcher.
type Server struct {
	mcpServer  *server.MCPServer
	dispatcher *dispatch.Dispatcher
	resolver   *credentials.Resolver
	config     *Config
	logger     *log.Logger
	sessionKey SessionKeyFunc

	// tools lists registered tool names in registration order.
	tools []string
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string

	// SAP connection settings, reported by sap_connection_info.
	BaseURL string
	Client  string

	Dispatcher *dispatch.Dispatcher
	Resolver   *credentials.Resolver

	// Metrics is optional; when set, HTTP transports serve /metrics.
	Metrics *metrics.Metrics
	Logger  *log.Logger

	// SessionKey overrides how the credential key is derived from a request.
	SessionKey SessionKeyFunc
}

// NewServer creates a new MCP server with one tool per catalog operation.
func NewServer(cfg *Config) *Server {
	name := cfg.Name
	if name == "" {
		name = "sap-mcp-server"
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	keyFn := cfg.SessionKey
	if keyFn == nil {
		keyFn = SessionKeyFromContext
	}

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		dispatcher: cfg.Dispatcher,
		resolver:   cfg.Resolver,
		config:     cfg,
		logger:     logger,
		sessionKey: keyFn,
	}

	s.registerTools()

	return s
}

// MCPServer exposes the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

// registerTools registers the catalog operations, the umbrella tool and the session tools.
func (s *Server) registerTools() {
	s.registerOperationTools()
	s.registerUniversalTool()
	s.registerSessionTools()
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Router builds the HTTP routes for an HTTP-based transport:
// the MCP endpoints plus /healthz and, when metrics are enabled, /metrics.
func (s *Server) Router(transport, addr string) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.config.Metrics != nil {
		r.Handle("/metrics", s.config.Metrics.Handler())
	}

	switch transport {
	case TransportSSE:
		sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(publicURL(addr)))
		r.Handle("/sse", sse.SSEHandler())
		r.Handle("/message", sse.MessageHandler())
	case TransportHTTP:
		r.Handle("/mcp", server.NewStreamableHTTPServer(s.mcpServer))
	default:
		return nil, fmt.Errorf("unsupported HTTP transport %q (want %s or %s)", transport, TransportSSE, TransportHTTP)
	}
	return r, nil
}

// ListenAndServe runs an HTTP-based transport on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, transport, addr string) error {
	handler, err := s.Router(transport, addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening", "transport", transport, "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// publicURL turns a listen address such as ":8080" into a URL clients can reach.
func publicURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
