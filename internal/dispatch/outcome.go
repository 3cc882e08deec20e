package dispatch

import (
	"encoding/json"
	"time"

	"github.com/JinArO/sap-mcp-server/pkg/rfc"
	"github.com/JinArO/sap-mcp-server/pkg/soap"
)

// Kind classifies how an operation ended.
type Kind string

const (
	KindSuccess         Kind = "success"
	KindHTTPError       Kind = "http_error"
	KindTransportError  Kind = "transport_error"
	KindCredentialError Kind = "credential_error"
	KindFieldError      Kind = "field_error"
)

// Outcome is the result of one Dispatcher.Call.
type Outcome struct {
	Kind      Kind
	Operation string
	CallID    string

	// StatusCode is the HTTP status, zero when nothing was sent.
	StatusCode int
	Elapsed    time.Duration

	// Result is set for KindSuccess.
	Result soap.Result
	// Summary is set for successful calls of operations with a summary policy.
	Summary *rfc.Summary

	Err error
}

// IsError reports whether the agent should treat the outcome as a failure.
// A delivered response counts as a failure only when its summary says so.
func (o *Outcome) IsError() bool {
	if o.Kind != KindSuccess {
		return true
	}
	return o.Summary != nil && o.Summary.Failed
}

// Text renders the outcome for the tool boundary.
func (o *Outcome) Text() string {
	switch o.Kind {
	case KindSuccess:
		body := o.bodyText()
		if o.Summary == nil {
			return body
		}
		return o.Summary.String() + "\n\n" + body
	case KindHTTPError, KindTransportError:
		// *soap.HTTPError and *soap.TransportError carry the final wording.
		return o.Err.Error()
	case KindCredentialError:
		return "Credential Error: " + o.Err.Error()
	default:
		return "Request Error: " + o.Err.Error()
	}
}

// bodyText is the unwrapped Body as indented JSON, or the raw response
// when no Body could be extracted.
func (o *Outcome) bodyText() string {
	env, ok := o.Result.(*soap.Envelope)
	if !ok {
		if o.Result == nil {
			return ""
		}
		return o.Result.Text()
	}
	data, err := json.MarshalIndent(env.Body, "", "  ")
	if err != nil {
		return env.Raw
	}
	return string(data)
}
