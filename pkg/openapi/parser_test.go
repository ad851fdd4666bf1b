package openapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/brendan.keane/stackcheck/internal/testutil"
	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTemplate(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse([]byte(testutil.TemplateAPISpec))
	require.NoError(t, err)
	return doc
}

func TestParse_Info(t *testing.T) {
	doc := parseTemplate(t)

	assert.Equal(t, "FastAPI Template", doc.Title())
	assert.Equal(t, "1.0.0", doc.Version())
	assert.Contains(t, doc.Description(), "Redis and Supabase")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("not an openapi document"))
	assert.Error(t, err)

	_, err = Parse(nil)
	assert.Error(t, err)
}

func TestDocument_Routes(t *testing.T) {
	doc := parseTemplate(t)

	tests := []struct {
		name         string
		pathFilter   string
		methodFilter string
		want         []string
	}{
		{
			name: "everything",
			want: []string{
				"GET /",
				"GET /health",
				"GET /redis/cache/{key}",
				"POST /redis/cache/{key}",
				"DELETE /redis/cache/{key}",
				"GET /redis/test",
				"GET /supabase/test",
			},
		},
		{
			name:       "prefix",
			pathFilter: "/redis/*",
			want: []string{
				"GET /redis/cache/{key}",
				"POST /redis/cache/{key}",
				"DELETE /redis/cache/{key}",
				"GET /redis/test",
			},
		},
		{
			name:       "exact",
			pathFilter: "/health",
			want:       []string{"GET /health"},
		},
		{
			name:         "method list",
			pathFilter:   "*",
			methodFilter: "post, delete",
			want:         []string{"POST /redis/cache/{key}", "DELETE /redis/cache/{key}"},
		},
		{
			name:         "any",
			pathFilter:   "/redis/cache/{key}",
			methodFilter: "ANY",
			want:         []string{"GET /redis/cache/{key}", "POST /redis/cache/{key}", "DELETE /redis/cache/{key}"},
		},
		{
			name:       "no match",
			pathFilter: "/users",
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, route := range doc.Routes(tt.pathFilter, tt.methodFilter) {
				got = append(got, route.Method+" "+route.Path)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocument_RouteDetails(t *testing.T) {
	doc := parseTemplate(t)

	routes := doc.Routes("/redis/cache/{key}", "POST")
	require.Len(t, routes, 1)
	route := routes[0]

	assert.Equal(t, "Set Cache", route.Summary)
	assert.False(t, route.HasBody)
	assert.Equal(t, []string{"200", "422"}, route.Responses)
	assert.Equal(t, []Parameter{
		{Name: "key", In: "path", Required: true, Type: "string"},
		{Name: "ttl", In: "query", Type: "integer", Description: "Time-to-live in seconds"},
		{Name: "value", In: "query", Required: true, Type: "string"},
	}, route.Parameters)
}

func TestFetch(t *testing.T) {
	fake := testutil.NewFakeAPI(t)

	doc, err := Fetch(context.Background(), fake.Client())
	require.NoError(t, err)
	assert.Equal(t, "FastAPI Template", doc.Title())
	testutil.AssertPathEqual(t, fake.LastRequest().Request, SpecPath, "spec path")
}

func TestFetch_NotFound(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Override("GET "+SpecPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not Found"}`))
	})

	_, err := Fetch(context.Background(), fake.Client())
	apiErr := testutil.AssertClientError(t, err, http.StatusNotFound, apiclient.KindStatus, "fetch")
	assert.Equal(t, "Not Found", apiErr.Message)
}

func TestCompletions(t *testing.T) {
	doc := parseTemplate(t)

	assert.Equal(t, []string{"/redis/cache/{key}"}, doc.PathCompletions("DELETE"))
	assert.Len(t, doc.PathCompletions(""), 5)
	assert.Equal(t, []string{"GET", "POST", "DELETE"}, doc.MethodCompletions("/redis/cache/{key}"))
	assert.Empty(t, doc.MethodCompletions("/nope"))
}

func TestMatchesMethodFilter(t *testing.T) {
	assert.True(t, matchesMethodFilter("get", ""))
	assert.True(t, matchesMethodFilter("get", "*"))
	assert.True(t, matchesMethodFilter("get", "any"))
	assert.True(t, matchesMethodFilter("patch", "GET,PATCH"))
	assert.False(t, matchesMethodFilter("put", "GET,PATCH"))
}
