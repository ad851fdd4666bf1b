package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/brendan.keane/stackcheck/pkg/apiclient"
)

// RecordedRequest is a request seen by a FakeAPI.
type RecordedRequest struct {
	*http.Request
	Body []byte
}

// FakeAPI is an in-memory stand-in for the template API. Redis and Supabase
// availability can be toggled, and the cache is a plain map.
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	redisUp    bool
	supabaseUp bool
	cache      map[string]string
	ttls       map[string]int
	requests   []*RecordedRequest
	overrides  map[string]http.HandlerFunc
}

// FakeOption configures a FakeAPI.
type FakeOption func(*FakeAPI)

func WithRedis(up bool) FakeOption {
	return func(f *FakeAPI) { f.redisUp = up }
}

func WithSupabase(up bool) FakeOption {
	return func(f *FakeAPI) { f.supabaseUp = up }
}

// NewFakeAPI starts a FakeAPI with both dependencies up. The server is closed
// when the test ends.
func NewFakeAPI(t testing.TB, opts ...FakeOption) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		redisUp:    true,
		supabaseUp: true,
		cache:      make(map[string]string),
		ttls:       make(map[string]int),
		overrides:  make(map[string]http.HandlerFunc),
	}
	for _, opt := range opts {
		opt(f)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", f.root)
	mux.HandleFunc("GET /health", f.health)
	mux.HandleFunc("GET /redis/test", f.redisTest)
	mux.HandleFunc("POST /redis/cache/{key}", f.setCache)
	mux.HandleFunc("GET /redis/cache/{key}", f.getCache)
	mux.HandleFunc("DELETE /redis/cache/{key}", f.deleteCache)
	mux.HandleFunc("GET /supabase/test", f.supabaseTest)
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, json.RawMessage(TemplateAPISpec))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		f.mu.Lock()
		f.requests = append(f.requests, &RecordedRequest{Request: r.Clone(context.Background()), Body: body})
		override := f.overrides[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// URL returns the server's base URL.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Client returns a request client bound to the fake.
func (f *FakeAPI) Client() *apiclient.Client {
	return apiclient.New(apiclient.Config{BaseURL: f.Server.URL})
}

// Override replaces the handler for an exact "METHOD /path".
func (f *FakeAPI) Override(route string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[route] = handler
}

// Requests returns every request received so far.
func (f *FakeAPI) Requests() []*RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*RecordedRequest(nil), f.requests...)
}

// LastRequest returns the most recent request, or nil.
func (f *FakeAPI) LastRequest() *RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// CacheValue reads the fake's cache directly.
func (f *FakeAPI) CacheValue(key string) (value string, ttl int, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok = f.cache[key]
	return value, f.ttls[key], ok
}

func (f *FakeAPI) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "FastAPI Template",
		"version": "1.0.0",
		"docs":    "/docs",
		"health":  "/health",
	})
}

func (f *FakeAPI) health(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	redisUp, supabaseUp := f.redisUp, f.supabaseUp
	f.mu.Unlock()

	redis, supabase := "unavailable", "unavailable"
	var services []string
	if redisUp {
		redis = "connected"
		services = append(services, "Redis")
	}
	if supabaseUp {
		supabase = "connected"
		services = append(services, "Supabase")
	}

	status, message := "degraded", "API is running (no services connected)"
	if len(services) > 0 {
		status = "healthy"
		message = "API is running with " + strings.Join(services, ", ")
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"redis":    redis,
		"supabase": supabase,
		"message":  message,
	})
}

func (f *FakeAPI) redisTest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.redisUp {
		writeJSON(w, http.StatusOK, map[string]any{
			"action":          "none",
			"key":             "test:connection",
			"value":           nil,
			"cached":          false,
			"redis_available": false,
		})
		return
	}

	f.cache["test:connection"] = "FastAPI + Redis working!"
	f.ttls["test:connection"] = 60
	writeJSON(w, http.StatusOK, map[string]any{
		"action":          "set_and_get",
		"key":             "test:connection",
		"value":           f.cache["test:connection"],
		"cached":          true,
		"redis_available": true,
	})
}

func (f *FakeAPI) setCache(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("value") {
		writeValidation(w, "value", "Field required", "missing")
		return
	}
	ttl := 300
	if raw := query.Get("ttl"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeValidation(w, "ttl", "Input should be a valid integer", "int_parsing")
			return
		}
		ttl = parsed
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.redisUp {
		writeDetail(w, http.StatusServiceUnavailable, "Redis is not available")
		return
	}

	key, value := r.PathValue("key"), query.Get("value")
	f.cache[key] = value
	f.ttls[key] = ttl
	writeJSON(w, http.StatusOK, map[string]any{
		"action":  "set",
		"key":     key,
		"value":   value,
		"ttl":     ttl,
		"success": true,
	})
}

func (f *FakeAPI) getCache(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.redisUp {
		writeDetail(w, http.StatusServiceUnavailable, "Redis is not available")
		return
	}

	key := r.PathValue("key")
	value, found := f.cache[key]
	var out any
	if found {
		out = value
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"action": "get",
		"key":    key,
		"value":  out,
		"found":  found,
	})
}

func (f *FakeAPI) deleteCache(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.redisUp {
		writeDetail(w, http.StatusServiceUnavailable, "Redis is not available")
		return
	}

	key := r.PathValue("key")
	_, found := f.cache[key]
	delete(f.cache, key)
	delete(f.ttls, key)
	writeJSON(w, http.StatusOK, map[string]any{
		"action":  "delete",
		"key":     key,
		"deleted": found,
	})
}

func (f *FakeAPI) supabaseTest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	up := f.supabaseUp
	f.mu.Unlock()

	if !up {
		writeJSON(w, http.StatusOK, map[string]any{
			"supabase_available": false,
			"message":            "Supabase client not initialized",
			"details":            "Check SUPABASE_URL and SUPABASE_KEY environment variables",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"supabase_available": true,
		"message":            "Supabase client initialized successfully",
		"url":                "https://example.supabase.co",
		"note":               "To test database operations, create a table and use Supabase client methods",
	})
}

// NewErrorTestServer returns canned failures: /400, /404, /500 and /503 carry
// a detail body, /invalid sends HTML with a 500, /empty answers 204.
func NewErrorTestServer(t testing.TB) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		mux.HandleFunc(fmt.Sprintf("/%d", status), func(w http.ResponseWriter, r *http.Request) {
			writeDetail(w, status, http.StatusText(status))
		})
	}
	mux.HandleFunc("/invalid", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>Internal Server Error</html>"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// UnreachableURL returns the base URL of a server that has already been closed.
func UnreachableURL(t testing.TB) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation mimics FastAPI's 422 body.
func writeValidation(w http.ResponseWriter, field, msg, kind string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{
			"type": kind,
			"loc":  []string{"query", field},
			"msg":  msg,
		}},
	})
}
