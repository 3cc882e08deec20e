// Package dispatch runs one SAP operation end to end: render, authenticate,
// send, unwrap. Every failure becomes an Outcome rather than a Go error, so
// the MCP layer can hand the text straight to the agent.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/JinArO/sap-mcp-server/internal/credentials"
	"github.com/JinArO/sap-mcp-server/internal/metrics"
	"github.com/JinArO/sap-mcp-server/pkg/rfc"
	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

// Caller sends an RFC fragment to a SOAP endpoint. *soap.Transport implements it.
type Caller interface {
	Call(ctx context.Context, ep soap.Endpoint, fragment string, creds soap.Credentials) (*soap.Response, error)
}

// Config wires a Dispatcher.
type Config struct {
	Catalog  *rfc.Catalog
	Resolver *credentials.Resolver
	Caller   Caller
	Metrics  *metrics.Metrics
	Logger   *log.Logger
}

// Dispatcher executes catalog operations.
type Dispatcher struct {
	catalog  *rfc.Catalog
	resolver *credentials.Resolver
	caller   Caller
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// New creates a Dispatcher. Metrics may be nil.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		catalog:  cfg.Catalog,
		resolver: cfg.Resolver,
		caller:   cfg.Caller,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Catalog returns the operations this dispatcher serves.
func (d *Dispatcher) Catalog() *rfc.Catalog {
	return d.catalog
}

// Call runs operation opKey for the session identified by sessionKey.
// Validation and credential failures are reported before any network I/O.
func (d *Dispatcher) Call(ctx context.Context, sessionKey, opKey string, values rfc.Values) *Outcome {
	callID := uuid.NewString()
	logger := d.logger.With("call_id", callID, "operation", opKey, "session", sessionKey)

	out := d.call(ctx, logger, sessionKey, opKey, values)
	out.CallID = callID

	d.metrics.ObserveCall(out.Operation, string(out.Kind), out.Elapsed)

	switch out.Kind {
	case KindSuccess:
		if out.Summary != nil && out.Summary.Failed {
			logger.Warn("SAP rejected the request", "document", out.Summary.Document, "messages", len(out.Summary.Messages))
		} else {
			logger.Info("SAP call succeeded", "elapsed", out.Elapsed)
		}
	default:
		logger.Warn("SAP call failed", "outcome", out.Kind, "err", out.Err, "elapsed", out.Elapsed)
	}
	return out
}

func (d *Dispatcher) call(ctx context.Context, logger *log.Logger, sessionKey, opKey string, values rfc.Values) *Outcome {
	op, ok := d.catalog.Lookup(opKey)
	if !ok {
		return &Outcome{Kind: KindFieldError, Operation: opKey, Err: fmt.Errorf("unknown operation %q", opKey)}
	}

	fragment, err := rfc.Render(op, values)
	if err != nil {
		return &Outcome{Kind: KindFieldError, Operation: op.Key, Err: err}
	}

	entry, source, err := d.resolver.Resolve(ctx, sessionKey)
	if err != nil {
		return &Outcome{Kind: KindCredentialError, Operation: op.Key, Err: err}
	}
	logger.Debug("dispatching", "user", entry.Username, "source", source, "bytes", len(fragment))

	done := d.metrics.Begin()
	start := time.Now()
	resp, err := d.caller.Call(ctx, op.SOAPEndpoint(), fragment, soap.Credentials{
		Username: entry.Username,
		Password: entry.Password,
	})
	elapsed := time.Since(start)
	done()

	if err != nil {
		out := &Outcome{Operation: op.Key, Err: err, Elapsed: elapsed}
		var httpErr *soap.HTTPError
		if errors.As(err, &httpErr) {
			out.Kind = KindHTTPError
			out.StatusCode = httpErr.StatusCode
		} else {
			out.Kind = KindTransportError
		}
		return out
	}

	result := soap.Unwrap(resp.Body)
	out := &Outcome{
		Kind:       KindSuccess,
		Operation:  op.Key,
		StatusCode: resp.StatusCode,
		Result:     result,
		Elapsed:    elapsed,
	}

	switch r := result.(type) {
	case *soap.Envelope:
		if op.Summary != nil {
			out.Summary = rfc.Summarize(op.Summary, r.Body)
		}
	case *soap.ParseError:
		logger.Debug("response is not XML, returning raw text", "err", r.Err)
	}
	return out
}
