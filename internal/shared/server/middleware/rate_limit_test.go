package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limiter *RateLimiter, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(principalKey, "token:test")
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/batches" {
				return "BATCH"
			}
			return "DEFAULT"
		},
		Limiter: limiter,
		Rules:   rules,
	}))
	r.GET("/api/v1/records", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/api/v1/batches", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(method, path, nil))
	return resp
}

func TestRateLimitBatchStricterThanSearch(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newLimitedRouter(limiter, map[string]RateLimitRule{
		"DEFAULT": {Rate: 5, Burst: 10},
		"BATCH":   {Rate: 0.2, Burst: 1},
	})

	for i := 0; i < 3; i++ {
		if resp := serve(r, http.MethodGet, "/api/v1/records"); resp.Code != http.StatusOK {
			t.Fatalf("search request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	if resp := serve(r, http.MethodPost, "/api/v1/batches"); resp.Code != http.StatusOK {
		t.Fatalf("first batch expected 200, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodPost, "/api/v1/batches"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second batch expected 429, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodGet, "/api/v1/records"); resp.Code != http.StatusOK {
		t.Fatalf("search after batch limit expected 200, got %d", resp.Code)
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	r := newLimitedRouter(limiter, map[string]RateLimitRule{"DEFAULT": {Rate: 1, Burst: 1}})

	if resp := serve(r, http.MethodGet, "/api/v1/records"); resp.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp.Code)
	}
	resp := serve(r, http.MethodGet, "/api/v1/records")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp.Header().Get("Retry-After"))
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" {
		t.Fatalf("expected code rate_limited, got %q", payload.Error.Code)
	}
	if _, ok := payload.Error.Details["retryAfterMs"]; !ok {
		t.Fatalf("expected retryAfterMs in details")
	}
}

func TestRateLimitRefillsOverTime(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected first token")
	}
	if ok, wait := limiter.Allow("k", rule); ok || wait != time.Second {
		t.Fatalf("expected denial with 1s wait, got ok=%v wait=%v", ok, wait)
	}
	now = now.Add(time.Second)
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected refill after 1s")
	}
}

func TestRateLimiterPrunesIdleBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 5}

	for i := 0; i < pruneEvery-1; i++ {
		limiter.Allow(fmt.Sprintf("caller-%d", i), rule)
	}
	if got := limiter.Len(); got != pruneEvery-1 {
		t.Fatalf("expected %d buckets, got %d", pruneEvery-1, got)
	}

	now = now.Add(defaultBucketIdleTTL + time.Minute)
	limiter.Allow("fresh", rule)
	if got := limiter.Len(); got != 1 {
		t.Fatalf("expected idle buckets pruned, got %d", got)
	}
}
