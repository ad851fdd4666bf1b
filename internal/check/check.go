// Package check runs the connectivity suite against a template API
// deployment: root, health, Redis, a cache round trip and Supabase.
package check

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/internal/logger"
	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/brendan.keane/stackcheck/pkg/service"
	"github.com/rs/zerolog"
)

// Status is the outcome of one check.
type Status string

const (
	StatusPass Status = "pass"
	// StatusWarn marks a dependency that is absent but handled gracefully.
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check names, in run order.
const (
	NameRoot     = "api_root"
	NameHealth   = "health"
	NameRedis    = "redis"
	NameCache    = "cache"
	NameSupabase = "supabase"
)

// SkippedSummary is the summary of checks not run because the API was unreachable.
const SkippedSummary = "skipped: API unreachable"

const (
	// DefaultCacheKey is written and removed by the cache round trip.
	DefaultCacheKey = "stackcheck:probe"
	cacheProbeValue = "stackcheck"
	cacheProbeTTL   = 60
)

// Result is one check's outcome.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Summary  string        `json:"summary"`
	Details  any           `json:"details,omitempty"`
	Duration time.Duration `json:"duration"`

	unreachable bool
}

// Report collects every result of a run.
type Report struct {
	URL     string   `json:"url"`
	Results []Result `json:"results"`
}

// OK reports whether no check failed. Warnings do not count.
func (r Report) OK() bool {
	return r.Count(StatusFail) == 0
}

// Count returns how many results have status.
func (r Report) Count(status Status) int {
	n := 0
	for _, result := range r.Results {
		if result.Status == status {
			n++
		}
	}
	return n
}

// Checker runs the suite through a service binding.
type Checker struct {
	svc      *service.Service
	logger   zerolog.Logger
	cacheKey string
}

// Option configures a Checker.
type Option func(*Checker)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// WithCacheKey changes the key used by the cache round trip.
func WithCacheKey(key string) Option {
	return func(c *Checker) {
		if key != "" {
			c.cacheKey = key
		}
	}
}

// New creates a Checker.
func New(svc *service.Service, opts ...Option) *Checker {
	c := &Checker{
		svc:      svc,
		logger:   zerolog.Nop(),
		cacheKey: DefaultCacheKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type step struct {
	name string
	run  func(context.Context) Result
}

// Run executes every check in order. Steps run sequentially because the cache
// round trip depends on its own ordering. If the root check cannot reach the
// API at all, the remaining checks are reported as failed without running.
func (c *Checker) Run(ctx context.Context) Report {
	report := Report{URL: c.svc.Client().BaseURL()}

	steps := []step{
		{NameRoot, c.root},
		{NameHealth, c.health},
		{NameRedis, c.redis},
		{NameCache, c.cache},
		{NameSupabase, c.supabase},
	}

	for i, s := range steps {
		log := logger.ForCheck(c.logger, s.name)

		start := time.Now()
		result := s.run(ctx)
		result.Name = s.name
		result.Duration = time.Since(start)

		log.Info().
			Str("status", string(result.Status)).
			Dur("duration", result.Duration).
			Msg(result.Summary)
		report.Results = append(report.Results, result)

		if s.name == NameRoot && result.unreachable {
			for _, rest := range steps[i+1:] {
				report.Results = append(report.Results, Result{
					Name:    rest.name,
					Status:  StatusFail,
					Summary: SkippedSummary,
				})
			}
			break
		}
	}

	return report
}

func (c *Checker) root(ctx context.Context) Result {
	info, err := c.svc.Info(ctx)
	if err != nil {
		return failed(err)
	}
	return Result{
		Status:  StatusPass,
		Summary: fmt.Sprintf("API is responding (%s %s)", info.Name, info.Version),
		Details: info,
	}
}

func (c *Checker) health(ctx context.Context) Result {
	h, err := c.svc.Health(ctx)
	if err != nil {
		return failed(err)
	}

	result := Result{Status: StatusPass, Summary: h.Message, Details: h}
	if !h.Healthy() {
		result.Status = StatusWarn
	}
	if result.Summary == "" {
		result.Summary = "health status " + h.Status
	}
	return result
}

func (c *Checker) redis(ctx context.Context) Result {
	test, err := c.svc.RedisTest(ctx)
	if err != nil {
		return failed(err)
	}

	switch {
	case !test.RedisAvailable:
		return Result{Status: StatusWarn, Summary: "Redis not configured (gracefully degraded)", Details: test}
	case !test.Cached:
		return Result{Status: StatusWarn, Summary: "Redis test did not cache a value", Details: test}
	default:
		return Result{Status: StatusPass, Summary: "Redis set and get working", Details: test}
	}
}

// cache sets, reads back and deletes a probe key.
func (c *Checker) cache(ctx context.Context) Result {
	set, err := c.svc.SetCache(ctx, c.cacheKey, cacheProbeValue, cacheProbeTTL)
	if err != nil {
		return cacheFailed(err)
	}
	if !set.Success {
		return Result{Status: StatusFail, Summary: "cache set was not acknowledged", Details: set}
	}

	got, err := c.svc.GetCache(ctx, c.cacheKey)
	if err != nil {
		return cacheFailed(err)
	}
	if !got.Found || got.Value == nil || *got.Value != cacheProbeValue {
		return Result{Status: StatusFail, Summary: "cache get did not return the stored value", Details: got}
	}

	deleted, err := c.svc.DeleteCache(ctx, c.cacheKey)
	if err != nil {
		return cacheFailed(err)
	}
	if !deleted.Deleted {
		return Result{Status: StatusFail, Summary: "cache delete did not remove the key", Details: deleted}
	}

	return Result{
		Status:  StatusPass,
		Summary: fmt.Sprintf("cache round trip on %q succeeded", c.cacheKey),
		Details: map[string]any{"set": set, "get": got, "delete": deleted},
	}
}

func (c *Checker) supabase(ctx context.Context) Result {
	status, err := c.svc.SupabaseTest(ctx)
	if err != nil {
		return failed(err)
	}
	if !status.Available {
		return Result{Status: StatusWarn, Summary: "Supabase not configured (gracefully degraded)", Details: status}
	}
	return Result{Status: StatusPass, Summary: status.Message, Details: status}
}

func failed(err error) Result {
	result := Result{
		Status:  StatusFail,
		Summary: errors.UserMessage(errors.FromClientError(err)),
	}
	if apiErr, ok := apiclient.AsError(err); ok {
		result.unreachable = apiErr.Kind == apiclient.KindTransport
		if !apiErr.Payload.IsEmpty() {
			result.Details = apiErr.Payload.Raw
		}
	}
	return result
}

// cacheFailed treats a 503 as Redis being absent rather than broken.
func cacheFailed(err error) Result {
	if apiclient.IsStatus(err, http.StatusServiceUnavailable) {
		return Result{Status: StatusWarn, Summary: "Redis not available for caching (gracefully degraded)"}
	}
	return failed(err)
}
