package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brendan.keane/stackcheck/internal/config"
	"github.com/brendan.keane/stackcheck/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{"API_URL", "BEARER", "SIG_V4", "SIG_V4_SERVICE", "TIMEOUT", "VERBOSE", "DEBUG", "LOG_FORMAT"} {
		t.Setenv(config.EnvPrefix+"_"+key, "")
		os.Unsetenv(config.EnvPrefix + "_" + key)
	}
	orig := config.DotEnvFile
	config.DotEnvFile = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { config.DotEnvFile = orig })
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestRun_Check(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "check", "--api-url", fake.URL())

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "API URL: "+fake.URL())
	assert.Contains(t, res.stdout, "All checks passed")
	assert.Empty(t, res.stderr)
}

func TestRun_CheckJSON(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t, testutil.WithRedis(false))

	res := run(t, "check", "--json", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)

	var report struct {
		URL     string `json:"url"`
		Results []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, fake.URL(), report.URL)
	require.Len(t, report.Results, 5)
	assert.Equal(t, "redis", report.Results[2].Name)
	assert.Equal(t, "warn", report.Results[2].Status)
}

func TestRun_CheckUnreachable(t *testing.T) {
	isolate(t)

	res := run(t, "check", "--api-url", testutil.UnreachableURL(t))

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "All checks failed")
	assert.Contains(t, res.stderr, "Error: 5 of 5 checks failed")
}

func TestRun_Health(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t, testutil.WithSupabase(false))

	res := run(t, "health", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Redis: Connected")
	assert.Contains(t, res.stdout, "Supabase: Not configured")

	res = run(t, "health", "--json", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{
		"status": "healthy",
		"redis": "connected",
		"supabase": "unavailable",
		"message": "API is running with Redis"
	}`, res.stdout)
}

func TestRun_Request(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "request", "get", "health", "--api-url", fake.URL(), "--query", "status")

	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "\"healthy\"\n", res.stdout)
	testutil.AssertPathEqual(t, fake.LastRequest().Request, "/health", "request path")
}

func TestRun_RequestBody(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)
	fake.Override("PATCH /items/1", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})

	res := run(t, "request", "PATCH", "/items/1", "-d", `{"name":"x"}`, "--api-url", fake.URL())

	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{"name":"x"}`, res.stdout)
	last := fake.LastRequest()
	assert.Equal(t, http.MethodPatch, last.Method)
	assert.Equal(t, "application/json", last.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"x"}`, string(last.Body))
}

func TestRun_RequestErrors(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "unsupported method",
			args: []string{"request", "TRACE", "/health"},
			want: []string{"Invalid method", "Hint: use one of GET, POST, PUT, PATCH, DELETE"},
		},
		{
			name: "invalid body",
			args: []string{"request", "POST", "/health", "-d", "{nope"},
			want: []string{"Invalid data: request body is not valid JSON"},
		},
		{
			name: "not found",
			args: []string{"request", "GET", "/missing"},
			want: []string{"API error 404 from " + fake.URL() + "/missing: Not Found"},
		},
		{
			name: "bad query",
			args: []string{"request", "GET", "/health", "--query", "["},
			want: []string{"Invalid query"},
		},
		{
			name: "wrong arg count",
			args: []string{"request", "GET"},
			want: []string{"accepts 2 arg(s)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, append(tt.args, "--api-url", fake.URL())...)
			assert.Equal(t, 1, res.code)
			for _, want := range tt.want {
				assert.Contains(t, res.stderr, want)
			}
		})
	}
}

func TestRun_RequestAgainstErrorServer(t *testing.T) {
	isolate(t)
	server := testutil.NewErrorTestServer(t)

	tests := []struct {
		path    string
		code    int
		stdout  string
		stderr  string
		without string
	}{
		{path: "/400", code: 1, stderr: "API error 400 from " + server.URL + "/400: Bad Request"},
		{path: "/503", code: 1, stderr: "Service Unavailable"},
		{path: "/invalid", code: 1, stderr: "API error: 500", without: "<html>"},
		{path: "/empty", code: 0, stdout: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := run(t, "request", "GET", tt.path, "--api-url", server.URL)
			assert.Equal(t, tt.code, res.code)
			testutil.AssertStringContains(t, res.stdout, tt.stdout, "stdout")
			testutil.AssertStringContains(t, res.stderr, tt.stderr, "stderr")
			if tt.without != "" {
				testutil.AssertStringNotContains(t, res.stderr, tt.without, "stderr")
			}
		})
	}
}

func TestRun_Cache(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "cache", "set", "greeting", "hello world", "--ttl", "30", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{"action":"set","key":"greeting","value":"hello world","ttl":30,"success":true}`, res.stdout)

	value, ttl, ok := fake.CacheValue("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello world", value)
	assert.Equal(t, 30, ttl)

	res = run(t, "cache", "get", "greeting", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{"action":"get","key":"greeting","value":"hello world","found":true}`, res.stdout)

	res = run(t, "cache", "delete", "greeting", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{"action":"delete","key":"greeting","deleted":true}`, res.stdout)

	_, _, ok = fake.CacheValue("greeting")
	assert.False(t, ok)
}

func TestRun_CacheDefaultTTL(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "cache", "set", "k", "v", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)

	testutil.AssertQueryParamAbsent(t, fake.LastRequest().Request, "ttl", "default ttl")
	_, ttl, _ := fake.CacheValue("k")
	assert.Equal(t, 300, ttl)
}

func TestRun_CacheErrors(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t, testutil.WithRedis(false))

	res := run(t, "cache", "get", "k", "--api-url", fake.URL())
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "API error 503")
	assert.Contains(t, res.stderr, "Redis is not available")

	res = run(t, "cache", "set", "k", "v", "--ttl", "-1", "--api-url", fake.URL())
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Invalid ttl")
}

func TestRun_Routes(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "routes", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "FastAPI Template")
	assert.Contains(t, res.stdout, "/redis/cache/{key}")
	assert.Contains(t, res.stdout, "/supabase/test")

	res = run(t, "routes", "/redis/*", "-X", "DELETE", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Delete Cache")
	assert.NotContains(t, res.stdout, "Set Cache")

	res = run(t, "routes", "/health", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Health Check")
	assert.Contains(t, res.stdout, "Responses")
}

func TestRun_RoutesBadDocument(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)
	fake.Override("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hello":"world"}`))
	})

	res := run(t, "routes", "--api-url", fake.URL())
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "failed to read OpenAPI document")
}

func TestRun_DefaultHeaders(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "health", "--api-url", fake.URL(), "--bearer", "tok", "-H", "X-Trace: 1", "-H", "Accept: application/json")
	require.Equal(t, 0, res.code, res.stderr)

	last := fake.LastRequest().Request
	testutil.AssertHeaderSet(t, last, "Authorization", "Bearer tok", "bearer")
	testutil.AssertHeaderSet(t, last, "X-Trace", "1", "custom header")
	testutil.AssertHeaderSet(t, last, "Accept", "application/json", "accept header")
}

func TestRun_ConfigErrors(t *testing.T) {
	isolate(t)

	res := run(t, "health", "--api-url", "ftp://example.com")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Invalid api-url")

	res = run(t, "health", "--api-url", "http://localhost:8000", "-H", ": nameless")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Hint: use -H 'Name: value'")
}

func TestRun_DebugLogging(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "health", "--debug", "--log-format", "json", "--api-url", fake.URL())
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, `"message":"configuration loaded"`)
	assert.Contains(t, res.stderr, `"handler":"health"`)
	assert.Contains(t, res.stderr, `"message":"request completed"`)
}

func TestRun_DebugErrorDetails(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)

	res := run(t, "request", "GET", "/missing", "--debug", "--log-format", "json", "--api-url", fake.URL())
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `"message":"error details"`)
	assert.Contains(t, res.stderr, `"type":"api"`)
	assert.Contains(t, res.stderr, "Error: API error 404")
}

func TestRun_Completion(t *testing.T) {
	isolate(t)

	res := run(t, "completion", "bash")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "bash completion")

	res = run(t, "completion", "tcsh")
	assert.Equal(t, 1, res.code)
}

func TestCompletionFunctions(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeAPI(t)
	t.Setenv("STACKCHECK_API_URL", fake.URL())

	cmd := &cobra.Command{}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringP("method", "X", "ANY", "")

	methods, directive := requestCompletion(cmd, nil, "")
	assert.Equal(t, requestMethods, methods)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)

	paths, _ := requestCompletion(cmd, []string{"delete"}, "")
	assert.Equal(t, []string{"/redis/cache/{key}"}, paths)

	paths, _ = routesCompletion(cmd, nil, "")
	assert.Len(t, paths, 5)

	_, directive = requestCompletion(cmd, []string{"GET", "/health"}, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"check", "health", "request", "cache", "routes", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	for _, key := range []string{config.KeyAPIURL, config.KeyHeader, config.KeyBearer, config.KeySigV4, config.KeyTimeout} {
		assert.NotNil(t, root.PersistentFlags().Lookup(key), key)
	}
}

func TestNewAPIClient(t *testing.T) {
	cfg := testutil.NewConfigBuilder().
		WithAPIURL("http://svc").
		WithBearer("tok").
		WithSigV4("").
		WithTimeout(time.Second).
		WithLogFormat("json").
		Build()

	client, err := NewAPIClient(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "http://svc", client.BaseURL())

	_, err = NewAPIClient(testutil.NewConfigBuilder().WithHeaders("bad").Build(), zerolog.Nop())
	assert.NoError(t, err, "a bare header name is allowed")

	_, err = NewAPIClient(testutil.NewConfigBuilder().WithHeaders(":x").Build(), zerolog.Nop())
	assert.Error(t, err)
}
