// Package service binds the template API's endpoints to typed calls.
package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/brendan.keane/stackcheck/pkg/apiclient"
)

// DefaultCacheTTL is what the server applies when no ttl is sent.
const DefaultCacheTTL = 300

// Health status values reported by GET /health.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"

	DependencyConnected   = "connected"
	DependencyInitialized = "initialized"
	DependencyUnavailable = "unavailable"
)

// Info is the root endpoint's description of the API.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

// Health is the /health response.
type Health struct {
	Status   string `json:"status"`
	Redis    string `json:"redis"`
	Supabase string `json:"supabase"`
	Message  string `json:"message"`
}

// Healthy reports whether at least one backing service is connected.
func (h Health) Healthy() bool {
	return h.Status == StatusHealthy
}

// RedisConnected reports whether the server reached Redis.
func (h Health) RedisConnected() bool {
	return h.Redis == DependencyConnected
}

// SupabaseReady reports whether the Supabase client is usable.
func (h Health) SupabaseReady() bool {
	return h.Supabase == DependencyConnected || h.Supabase == DependencyInitialized
}

// CacheTest is the /redis/test response.
type CacheTest struct {
	Action         string  `json:"action"`
	Key            string  `json:"key"`
	Value          *string `json:"value"`
	Cached         bool    `json:"cached"`
	RedisAvailable bool    `json:"redis_available"`
}

type CacheSet struct {
	Action  string `json:"action"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	TTL     int    `json:"ttl"`
	Success bool   `json:"success"`
}

type CacheGet struct {
	Action string  `json:"action"`
	Key    string  `json:"key"`
	Value  *string `json:"value"`
	Found  bool    `json:"found"`
}

type CacheDelete struct {
	Action  string `json:"action"`
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

// SupabaseStatus is the /supabase/test response. Details is set when the
// client is not initialized; URL and Note when it is.
type SupabaseStatus struct {
	Available bool   `json:"supabase_available"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	URL       string `json:"url,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Service issues typed calls against one API deployment.
type Service struct {
	client *apiclient.Client
}

// New binds a Service to client.
func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// Client returns the underlying request client.
func (s *Service) Client() *apiclient.Client {
	return s.client
}

func (s *Service) Info(ctx context.Context) (Info, error) {
	return apiclient.Get[Info](ctx, s.client, "/")
}

func (s *Service) Health(ctx context.Context) (Health, error) {
	return apiclient.Get[Health](ctx, s.client, "/health")
}

func (s *Service) RedisTest(ctx context.Context) (CacheTest, error) {
	return apiclient.Get[CacheTest](ctx, s.client, "/redis/test")
}

// SetCache stores value under key. The value travels as a query parameter;
// ttl <= 0 leaves the server default in place.
func (s *Service) SetCache(ctx context.Context, key, value string, ttl int) (CacheSet, error) {
	query := url.Values{}
	query.Set("value", value)
	if ttl > 0 {
		query.Set("ttl", strconv.Itoa(ttl))
	}
	return apiclient.Post[CacheSet](ctx, s.client, cachePath(key)+"?"+query.Encode(), nil)
}

func (s *Service) GetCache(ctx context.Context, key string) (CacheGet, error) {
	return apiclient.Get[CacheGet](ctx, s.client, cachePath(key))
}

func (s *Service) DeleteCache(ctx context.Context, key string) (CacheDelete, error) {
	return apiclient.Delete[CacheDelete](ctx, s.client, cachePath(key))
}

func (s *Service) SupabaseTest(ctx context.Context) (SupabaseStatus, error) {
	return apiclient.Get[SupabaseStatus](ctx, s.client, "/supabase/test")
}

func cachePath(key string) string {
	return "/redis/cache/" + url.PathEscape(key)
}
