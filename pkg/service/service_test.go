package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/brendan.keane/stackcheck/internal/testutil"
	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, opts ...testutil.FakeOption) (*Service, *testutil.FakeAPI) {
	t.Helper()
	fake := testutil.NewFakeAPI(t, opts...)
	return New(fake.Client()), fake
}

func TestService_Info(t *testing.T) {
	svc, fake := newService(t)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Info{Name: "FastAPI Template", Version: "1.0.0", Docs: "/docs", Health: "/health"}, info)
	req := fake.LastRequest()
	testutil.AssertMethodEqual(t, req.Request, http.MethodGet, "info method")
	testutil.AssertPathEqual(t, req.Request, "/", "info path")
}

func TestService_Health(t *testing.T) {
	tests := []struct {
		name         string
		opts         []testutil.FakeOption
		wantStatus   string
		wantHealthy  bool
		wantRedis    bool
		wantSupabase bool
	}{
		{name: "all connected", wantStatus: StatusHealthy, wantHealthy: true, wantRedis: true, wantSupabase: true},
		{name: "redis only", opts: []testutil.FakeOption{testutil.WithSupabase(false)}, wantStatus: StatusHealthy, wantHealthy: true, wantRedis: true},
		{name: "nothing connected", opts: []testutil.FakeOption{testutil.WithRedis(false), testutil.WithSupabase(false)}, wantStatus: StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, tt.opts...)

			health, err := svc.Health(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, health.Status)
			assert.Equal(t, tt.wantHealthy, health.Healthy())
			assert.Equal(t, tt.wantRedis, health.RedisConnected())
			assert.Equal(t, tt.wantSupabase, health.SupabaseReady())
			assert.NotEmpty(t, health.Message)
		})
	}
}

func TestHealth_SupabaseInitializedCountsAsReady(t *testing.T) {
	assert.True(t, Health{Supabase: DependencyInitialized}.SupabaseReady())
	assert.False(t, Health{Supabase: "error: timeout"}.SupabaseReady())
}

func TestService_RedisTest(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		svc, _ := newService(t)

		got, err := svc.RedisTest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "set_and_get", got.Action)
		assert.True(t, got.Cached)
		assert.True(t, got.RedisAvailable)
		require.NotNil(t, got.Value)
		assert.Equal(t, "FastAPI + Redis working!", *got.Value)
	})

	t.Run("unavailable", func(t *testing.T) {
		svc, _ := newService(t, testutil.WithRedis(false))

		got, err := svc.RedisTest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "none", got.Action)
		assert.False(t, got.RedisAvailable)
		assert.Nil(t, got.Value)
	})
}

func TestService_SetCache_UsesQueryAndNoBody(t *testing.T) {
	svc, fake := newService(t)

	got, err := svc.SetCache(context.Background(), "greeting", "hello world", 60)
	require.NoError(t, err)
	assert.Equal(t, CacheSet{Action: "set", Key: "greeting", Value: "hello world", TTL: 60, Success: true}, got)

	req := fake.LastRequest()
	testutil.AssertMethodEqual(t, req.Request, http.MethodPost, "set method")
	testutil.AssertPathEqual(t, req.Request, "/redis/cache/greeting", "set path")
	testutil.AssertQueryParam(t, req.Request, "value", "hello world", "set value")
	testutil.AssertQueryParam(t, req.Request, "ttl", "60", "set ttl")
	assert.Empty(t, req.Body)

	value, ttl, ok := fake.CacheValue("greeting")
	assert.True(t, ok)
	assert.Equal(t, "hello world", value)
	assert.Equal(t, 60, ttl)
}

func TestService_SetCache_DefaultTTL(t *testing.T) {
	svc, fake := newService(t)

	got, err := svc.SetCache(context.Background(), "k", "v", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheTTL, got.TTL)
	testutil.AssertQueryParamAbsent(t, fake.LastRequest().Request, "ttl", "ttl omitted")
}

func TestService_CacheRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SetCache(ctx, "user:1/profile", "x", 30)
	require.NoError(t, err)

	got, err := svc.GetCache(ctx, "user:1/profile")
	require.NoError(t, err)
	assert.True(t, got.Found)
	require.NotNil(t, got.Value)
	assert.Equal(t, "x", *got.Value)
	assert.Equal(t, "user:1/profile", got.Key)

	deleted, err := svc.DeleteCache(ctx, "user:1/profile")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	missing, err := svc.GetCache(ctx, "user:1/profile")
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.Nil(t, missing.Value)

	again, err := svc.DeleteCache(ctx, "user:1/profile")
	require.NoError(t, err)
	assert.False(t, again.Deleted)
}

func TestService_CacheUnavailable(t *testing.T) {
	svc, _ := newService(t, testutil.WithRedis(false))
	ctx := context.Background()

	_, err := svc.SetCache(ctx, "k", "v", 10)
	apiErr := testutil.AssertClientError(t, err, http.StatusServiceUnavailable, apiclient.KindStatus, "set")
	assert.Equal(t, "Redis is not available", apiErr.Message)

	_, err = svc.GetCache(ctx, "k")
	testutil.AssertClientError(t, err, http.StatusServiceUnavailable, apiclient.KindStatus, "get")

	_, err = svc.DeleteCache(ctx, "k")
	testutil.AssertClientError(t, err, http.StatusServiceUnavailable, apiclient.KindStatus, "delete")
}

func TestService_Supabase(t *testing.T) {
	t.Run("initialized", func(t *testing.T) {
		svc, _ := newService(t)
		got, err := svc.SupabaseTest(context.Background())
		require.NoError(t, err)
		assert.True(t, got.Available)
		assert.NotEmpty(t, got.URL)
	})

	t.Run("not configured", func(t *testing.T) {
		svc, _ := newService(t, testutil.WithSupabase(false))
		got, err := svc.SupabaseTest(context.Background())
		require.NoError(t, err)
		assert.False(t, got.Available)
		assert.Contains(t, got.Details, "SUPABASE_URL")
	})
}

func TestService_Unreachable(t *testing.T) {
	svc := New(apiclient.New(apiclient.Config{BaseURL: testutil.UnreachableURL(t)}))

	_, err := svc.Health(context.Background())
	testutil.AssertClientError(t, err, 0, apiclient.KindTransport, "health")
}

func TestService_ValidationErrorHasNoDetailString(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	c := fake.Client()

	_, err := apiclient.Post[CacheSet](context.Background(), c, "/redis/cache/k", nil)
	apiErr := testutil.AssertClientError(t, err, http.StatusUnprocessableEntity, apiclient.KindStatus, "missing value")
	assert.Equal(t, "API error: 422", apiErr.Message)
	assert.Contains(t, string(apiErr.Payload.Raw), "Field required")
}

func TestService_WithMockDoer(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  string
		wantHealthy bool
	}{
		{name: "healthy", body: testutil.HealthyJSON, wantStatus: StatusHealthy, wantHealthy: true},
		{name: "degraded", body: testutil.DegradedJSON, wantStatus: StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := testutil.NewMockDoer(tt.body, http.StatusOK, map[string]string{"Content-Type": "application/json"}, nil)
			svc := New(apiclient.New(apiclient.Config{BaseURL: "http://svc", HTTPClient: doer}))

			health, err := svc.Health(context.Background())
			testutil.AssertNoError(t, err, "health")
			assert.Equal(t, tt.wantStatus, health.Status)
			assert.Equal(t, tt.wantHealthy, health.Healthy())

			require.Len(t, doer.Requests, 1)
			assert.Equal(t, "http://svc/health", doer.Requests[0].URL.String())
			testutil.AssertHeaderNotSet(t, doer.Requests[0], "Authorization", "no auth by default")
		})
	}
}

func TestService_MockTransportError(t *testing.T) {
	doer := testutil.NewMockDoer("", 0, nil, testutil.NewMockError("connection refused"))
	svc := New(apiclient.New(apiclient.Config{BaseURL: "http://svc", HTTPClient: doer}))

	_, err := svc.RedisTest(context.Background())
	testutil.AssertError(t, err, "redis test")
	testutil.AssertErrorContains(t, err, "connection refused", "transport error text")
	testutil.AssertClientError(t, err, 0, apiclient.KindTransport, "transport kind")
}
