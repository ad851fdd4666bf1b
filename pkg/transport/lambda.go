// Package transport provides Doer implementations for reaching the service
// over plain HTTP, direct AWS Lambda invocation or SigV4-signed HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog"
)

// LambdaScheme routes a request to Lambda Invoke instead of the network.
// The function name is the URL host: lambda://my-function/health.
const LambdaScheme = "lambda"

// LambdaInvoker is the subset of *lambda.Client used here.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// HTTPDoer performs plain HTTP round trips.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends http(s) requests through an HTTP client and lambda:// requests
// through Lambda Invoke. AWS configuration is only loaded on the first
// lambda:// request.
type Client struct {
	http   HTTPDoer
	logger zerolog.Logger

	once    sync.Once
	invoker LambdaInvoker
	initErr error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for non-Lambda requests.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLambdaInvoker skips AWS config loading and uses invoker directly.
func WithLambdaInvoker(invoker LambdaInvoker) Option {
	return func(c *Client) {
		if invoker != nil {
			c.invoker = invoker
			c.once.Do(func() {})
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Lambda-aware client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "transport").Logger()
	return c
}

// Do performs the request, routing on the URL scheme.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == LambdaScheme {
		return c.doLambda(req)
	}
	return c.http.Do(req)
}

func (c *Client) lambdaInvoker(ctx context.Context) (LambdaInvoker, error) {
	c.once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			c.initErr = fmt.Errorf("loading AWS config: %w", err)
			return
		}
		c.invoker = lambda.NewFromConfig(cfg)
	})
	return c.invoker, c.initErr
}

func (c *Client) doLambda(req *http.Request) (*http.Response, error) {
	functionName := req.URL.Host
	if functionName == "" {
		return nil, fmt.Errorf("lambda URL missing function name")
	}

	ctx := req.Context()
	invoker, err := c.lambdaInvoker(ctx)
	if err != nil {
		return nil, err
	}

	event, err := requestToEvent(req)
	if err != nil {
		return nil, fmt.Errorf("converting request to Lambda event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling Lambda event: %w", err)
	}

	c.logger.Debug().
		Str("function", functionName).
		Str("path", event.RawPath).
		Msg("invoking lambda")

	output, err := invoker.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("invoking Lambda function: %w", err)
	}
	if output.FunctionError != nil {
		return nil, fmt.Errorf("lambda function error: %s", aws.ToString(output.FunctionError))
	}

	return eventToResponse(output.Payload)
}

// requestToEvent converts req to an API Gateway v2 HTTP proxy event.
func requestToEvent(req *http.Request) (*events.APIGatewayV2HTTPRequest, error) {
	var body string
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(data))
		body = string(data)
	}

	headers := make(map[string]string, len(req.Header)+1)
	for key, values := range req.Header {
		headers[key] = strings.Join(values, ",")
	}
	if req.Host != "" {
		headers["Host"] = req.Host
	}

	query := make(map[string]string)
	for key, values := range req.URL.Query() {
		query[key] = strings.Join(values, ",")
	}

	path := req.URL.Path
	if path == "" {
		path = "/"
	}
	routeKey := fmt.Sprintf("%s %s", req.Method, path)
	now := time.Now()

	return &events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              routeKey,
		RawPath:               path,
		RawQueryString:        req.URL.RawQuery,
		Headers:               headers,
		QueryStringParameters: query,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			AccountID:    "000000000000",
			APIID:        "stackcheck",
			DomainName:   "lambda.local",
			DomainPrefix: "lambda",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    req.Method,
				Path:      path,
				Protocol:  "HTTP/1.1",
				SourceIP:  "127.0.0.1",
				UserAgent: req.UserAgent(),
			},
			RequestID: fmt.Sprintf("stackcheck-%d", now.UnixNano()),
			RouteKey:  routeKey,
			Stage:     "$default",
			Time:      now.Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch: now.UnixMilli(),
		},
		Body: body,
	}, nil
}

// eventToResponse converts a Lambda proxy response payload to an *http.Response.
func eventToResponse(payload []byte) (*http.Response, error) {
	var out events.APIGatewayV2HTTPResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("parsing Lambda response: %w", err)
	}
	if out.StatusCode == 0 {
		return nil, fmt.Errorf("parsing Lambda response: missing statusCode")
	}

	body := []byte(out.Body)
	if out.IsBase64Encoded && out.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(out.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 Lambda body: %w", err)
		}
		body = decoded
	}

	resp := &http.Response{
		StatusCode:    out.StatusCode,
		Status:        fmt.Sprintf("%d %s", out.StatusCode, http.StatusText(out.StatusCode)),
		Header:        make(http.Header),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
	for key, value := range out.Headers {
		resp.Header.Set(key, value)
	}
	for key, values := range out.MultiValueHeaders {
		for _, v := range values {
			resp.Header.Add(key, v)
		}
	}
	for _, cookie := range out.Cookies {
		resp.Header.Add("Set-Cookie", cookie)
	}
	return resp, nil
}
