package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"
)

// Method is an HTTP verb accepted by Request.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Descriptor describes one outbound call.
type Descriptor struct {
	// Path is appended to the client's BaseURL, e.g. "/health".
	Path   string
	Method Method
	// Headers override defaults; keys are case-insensitive.
	Headers map[string]string
	// Body is sent as-is. Nil means no body.
	Body []byte
}

// RequestOption adjusts a Descriptor built by the method helpers.
type RequestOption func(*Descriptor)

// WithHeader sets a single request header.
func WithHeader(key, value string) RequestOption {
	return func(r *Descriptor) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithHeaders sets several request headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Descriptor) {
		for k, v := range headers {
			WithHeader(k, v)(r)
		}
	}
}

// Get issues a GET request and decodes the response into T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, newRequest(MethodGet, path, nil, opts))
}

// Delete issues a DELETE request and decodes the response into T.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, newRequest(MethodDelete, path, nil, opts))
}

// Post issues a POST request. A non-nil data is sent as its JSON encoding;
// nil, including a typed nil pointer, sends no body.
func Post[T any](ctx context.Context, c *Client, path string, data any, opts ...RequestOption) (T, error) {
	return withJSONBody[T](ctx, c, MethodPost, path, data, opts)
}

// Put issues a PUT request. See Post for body handling.
func Put[T any](ctx context.Context, c *Client, path string, data any, opts ...RequestOption) (T, error) {
	return withJSONBody[T](ctx, c, MethodPut, path, data, opts)
}

// Patch issues a PATCH request. See Post for body handling.
func Patch[T any](ctx context.Context, c *Client, path string, data any, opts ...RequestOption) (T, error) {
	return withJSONBody[T](ctx, c, MethodPatch, path, data, opts)
}

func withJSONBody[T any](ctx context.Context, c *Client, method Method, path string, data any, opts []RequestOption) (T, error) {
	var body []byte
	if !isNil(data) {
		encoded, err := json.Marshal(data)
		if err != nil {
			var zero T
			return zero, &Error{
				Message: fmt.Sprintf("encode request body: %v", err),
				Kind:    KindRequest,
				Method:  string(method),
				URL:     c.baseURL + path,
				Cause:   err,
			}
		}
		body = encoded
	}
	return Request[T](ctx, c, newRequest(method, path, body, opts))
}

func isNil(data any) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func newRequest(method Method, path string, body []byte, opts []RequestOption) Descriptor {
	req := Descriptor{Path: path, Method: method, Body: body}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}
	return req
}

// Request sends req and decodes a 2xx JSON response into T. A 204 response
// yields an empty object of type T without reading the body. Every failure is
// returned as *Error.
func Request[T any](ctx context.Context, c *Client, req Descriptor) (T, error) {
	var out T

	method := strings.ToUpper(string(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL + req.Path

	logger := c.logger.With().
		Str("method", method).
		Str("url", target).
		Logger()

	if req.Path == "" {
		return out, &Error{Message: "request path must not be empty", Kind: KindRequest, Method: method, URL: target}
	}

	httpReq, err := c.build(ctx, method, target, req)
	if err != nil {
		return out, &Error{Message: err.Error(), Kind: KindRequest, Method: method, URL: target, Cause: err}
	}

	start := time.Now()
	resp, err := c.doer.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		logger.Debug().Err(err).Dur("duration", duration).Msg("request failed")
		return out, transportError(method, target, err)
	}
	defer resp.Body.Close()

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, statusError(method, target, resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		// Types that cannot hold an object keep their zero value.
		_ = json.Unmarshal([]byte("{}"), &out)
		return out, nil
	}

	// The whole body must be one JSON value; trailing data is a decode failure.
	body, err := io.ReadAll(resp.Body)
	if err == nil {
		err = json.Unmarshal(body, &out)
	}
	if err != nil {
		var zero T
		return zero, &Error{Message: err.Error(), Kind: KindDecode, Method: method, URL: target, Cause: err}
	}
	return out, nil
}

// build assembles the *http.Request: defaults first, then Content-Type, then
// caller headers, so the caller always wins.
func (c *Client) build(ctx context.Context, method, target string, req Descriptor) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	for k, vv := range c.headers {
		for _, v := range vv {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func transportError(method, target string, err error) *Error {
	msg := err.Error()
	if strings.TrimSpace(msg) == "" {
		msg = UnknownErrorMessage
	}
	return &Error{Message: msg, Kind: KindTransport, Method: method, URL: target, Cause: err}
}

func statusError(method, target string, resp *http.Response) *Error {
	payload := emptyPayload()
	if body, err := io.ReadAll(resp.Body); err == nil {
		payload = parsePayload(body)
	}

	msg, ok := payload.Detail()
	if !ok {
		msg = fmt.Sprintf("API error: %d", resp.StatusCode)
	}

	return &Error{
		Message:    msg,
		StatusCode: resp.StatusCode,
		Payload:    payload,
		Kind:       KindStatus,
		Method:     method,
		URL:        target,
	}
}
