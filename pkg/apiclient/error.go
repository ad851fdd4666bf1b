package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags the class of a failed call.
type Kind string

const (
	// KindTransport means the round trip never completed.
	KindTransport Kind = "transport"
	// KindStatus means the service answered outside 200-299.
	KindStatus Kind = "status"
	// KindDecode means a 2xx body was not valid JSON for the target type.
	KindDecode Kind = "decode"
	// KindRequest means the request could not be built (empty path, unencodable body).
	KindRequest Kind = "request"
)

// UnknownErrorMessage is the message used when a transport error carries no text.
const UnknownErrorMessage = "Unknown error occurred"

// Error is the single error type returned by every request function.
//
// StatusCode is 0 when no trustworthy HTTP response was received: transport
// failures, undecodable 2xx bodies and unbuildable requests. Otherwise it is
// the real HTTP status and Payload holds the decoded error body.
type Error struct {
	Message    string
	StatusCode int
	Payload    *Payload
	Kind       Kind

	Method string
	URL    string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Describe renders the error with its request line, for logs.
func (e *Error) Describe() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s failure: %s", e.Method, e.URL, e.Kind, e.Message)
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an *Error carrying the given HTTP status.
func IsStatus(err error, code int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == code
}

// IsTransport reports whether err is an *Error with status 0, i.e. the call
// failed before a usable response arrived.
func IsTransport(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == 0
}

// StatusCode returns the status carried by err, or 0.
func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

// Payload is the decoded body of a non-2xx response.
type Payload struct {
	// Raw is the JSON text of the body, or "{}" when the body did not parse.
	Raw json.RawMessage
	// Fields is set when the body is a JSON object.
	Fields map[string]any
}

// emptyPayload is what a non-2xx response with an unparsable body carries.
func emptyPayload() *Payload {
	return &Payload{Raw: json.RawMessage("{}"), Fields: map[string]any{}}
}

// parsePayload decodes body, falling back to an empty object.
func parsePayload(body []byte) *Payload {
	if !json.Valid(body) {
		return emptyPayload()
	}
	p := &Payload{Raw: append(json.RawMessage(nil), body...)}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil && fields != nil {
		p.Fields = fields
	}
	return p
}

// Detail returns the conventional "detail" string field, if present.
func (p *Payload) Detail() (string, bool) {
	if p == nil || p.Fields == nil {
		return "", false
	}
	detail, ok := p.Fields["detail"].(string)
	if !ok || detail == "" {
		return "", false
	}
	return detail, true
}

// Decode unmarshals the payload into v.
func (p *Payload) Decode(v any) error {
	if p == nil {
		return errors.New("no payload")
	}
	return json.Unmarshal(p.Raw, v)
}

// IsEmpty reports whether the payload is an empty JSON object.
func (p *Payload) IsEmpty() bool {
	return p == nil || (p.Fields != nil && len(p.Fields) == 0)
}
