package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// Header values sent with every SOAP call.
const (
	contentTypeXML = "text/xml; charset=utf-8"
	acceptXML      = "text/xml"
)

// HTTPDoer is an interface for executing HTTP requests.
// This abstraction allows for easy testing with mock implementations.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoint identifies one SAP SOAP service binding.
// The URL path has the shape /sap/bc/srt/rfc/sap/<function>/<client>/<service>/<binding>.
type Endpoint struct {
	Function string
	Service  string
	Binding  string
	// Action is the SOAPAction URI, sent quoted.
	Action string
}

// Path returns the endpoint path for the given SAP client.
func (e Endpoint) Path(client string) string {
	return fmt.Sprintf("/sap/bc/srt/rfc/sap/%s/%s/%s/%s", e.Function, client, e.Service, e.Binding)
}

// Credentials carries HTTP Basic authentication for one call.
type Credentials struct {
	Username string
	Password string
}

// Response wraps a successful (HTTP 200) SOAP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Transport posts SOAP envelopes to SAP.
// It paces outbound requests but never repeats one: creating sales orders,
// purchase orders or deliveries is not idempotent on the SAP side.
type Transport struct {
	config     *Config
	httpClient HTTPDoer

	semaphore chan struct{}
	limiter   *rate.Limiter
}

// NewTransport creates a new Transport with the given configuration.
func NewTransport(cfg *Config) *Transport {
	return NewTransportWithClient(cfg, cfg.NewHTTPClient())
}

// NewTransportWithClient creates a new Transport with a custom HTTP client.
// This is useful for testing with mock HTTP clients.
func NewTransportWithClient(cfg *Config, client HTTPDoer) *Transport {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	return &Transport{
		config:     cfg,
		httpClient: client,
		semaphore:  make(chan struct{}, cfg.MaxConcurrent),
		limiter:    rate.NewLimiter(limit, cfg.MaxConcurrent),
	}
}

// Config returns the transport configuration.
func (t *Transport) Config() *Config {
	return t.config
}

// URL returns the absolute URL of an endpoint.
func (t *Transport) URL(ep Endpoint) string {
	return strings.TrimSuffix(t.config.BaseURL, "/") + ep.Path(t.config.Client)
}

// acquireSlot blocks until a request slot is available and the rate limiter admits the call.
func (t *Transport) acquireSlot(ctx context.Context) error {
	select {
	case t.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		<-t.semaphore
		return err
	}
	return nil
}

func (t *Transport) releaseSlot() {
	<-t.semaphore
}

// Call wraps fragment in a SOAP envelope and posts it to the endpoint.
// Exactly one attempt is made. A non-200 status yields *HTTPError and any
// network-level failure yields *TransportError.
func (t *Transport) Call(ctx context.Context, ep Endpoint, fragment string, creds Credentials) (*Response, error) {
	target := t.URL(ep)

	if err := t.acquireSlot(ctx); err != nil {
		return nil, &TransportError{Endpoint: target, Err: err}
	}
	defer t.releaseSlot()

	envelope := Envelope(fragment)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader([]byte(envelope)))
	if err != nil {
		return nil, &TransportError{Endpoint: target, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Content-Type", contentTypeXML)
	req.Header.Set("Accept", acceptXML)
	req.Header.Set("SOAPAction", quoteAction(ep.Action))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: target, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Endpoint:   target,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// quoteAction wraps a SOAPAction in double quotes unless it already is.
func quoteAction(action string) string {
	if strings.HasPrefix(action, `"`) && strings.HasSuffix(action, `"`) && len(action) > 1 {
		return action
	}
	return `"` + action + `"`
}

// HTTPError is a non-200 answer from the SAP SOAP runtime.
type HTTPError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Error %d: %s", e.StatusCode, e.Body)
}

// IsAuthError returns true for 401 responses.
func (e *HTTPError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// TransportError is a network-level failure: DNS, connect, TLS, timeout.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Connection Error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsHTTPError checks if an error is a non-200 SOAP response.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// IsTransportError checks if an error is a network-level failure.
func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
