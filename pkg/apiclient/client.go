// Package apiclient issues typed JSON requests against a remote service and
// reports every failure as a single *Error value.
//
// A Client is built once from a Config and is safe for concurrent use. Each
// call makes exactly one network attempt:
//
//	c := apiclient.New(apiclient.ConfigFromEnv())
//	health, err := apiclient.Get[Health](ctx, c, "/health")
//	if apiErr, ok := apiclient.AsError(err); ok && apiErr.StatusCode == 0 {
//		// the service was not reachable or sent an unreadable body
//	}
package apiclient

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is used when no Endpoint Base is configured.
	DefaultBaseURL = "http://localhost:8000"

	// BaseURLEnv names the environment variable holding the Endpoint Base.
	BaseURLEnv = "STACKCHECK_API_URL"
)

// Doer performs a single HTTP round trip. *http.Client satisfies it, as do
// the transports in pkg/transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the values a Client captures at construction
type Config struct {
	// BaseURL is prepended verbatim to every request path.
	BaseURL string

	// HTTPClient performs the round trip. Defaults to an *http.Client with no timeout.
	HTTPClient Doer

	// DefaultHeaders are applied to every request before caller headers.
	DefaultHeaders map[string]string

	// Logger receives one debug event per call. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// ConfigFromEnv returns a Config whose BaseURL comes from STACKCHECK_API_URL,
// or DefaultBaseURL if the variable is unset or blank.
func ConfigFromEnv() Config {
	base := strings.TrimSpace(os.Getenv(BaseURLEnv))
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{BaseURL: base}
}

// Client is an immutable request client bound to one Endpoint Base.
type Client struct {
	baseURL string
	doer    Doer
	headers http.Header
	logger  zerolog.Logger
}

// New creates a Client from cfg. The config is copied; later changes to cfg's
// header map do not affect the client.
func New(cfg Config) *Client {
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{}
	}

	headers := make(http.Header, len(cfg.DefaultHeaders))
	for k, v := range cfg.DefaultHeaders {
		headers.Set(k, v)
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		baseURL: cfg.BaseURL,
		doer:    doer,
		headers: headers,
		logger:  logger.With().Str("component", "api_client").Logger(),
	}
}

// BaseURL returns the Endpoint Base the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}
