package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
)

func newTestRateLimiter(t *testing.T, perMinute, burst int) *RateLimiter {
	t.Helper()
	return NewRateLimiter(RateLimiterParams{
		LC: fxtest.NewLifecycle(t),
		Config: &config.Config{
			RateLimit: config.RateLimit{
				PerMinute: perMinute,
				Burst:     burst,
				Cleanup:   config.Duration(5 * time.Minute),
			},
		},
		Log: zap.NewNop(),
	})
}

func Test_RateLimiter_Allow(t *testing.T) {
	assert := assert.New(t)

	rl := newTestRateLimiter(t, 1, 2)

	assert.True(rl.Allow("1.2.3.4"))
	assert.True(rl.Allow("1.2.3.4"))
	assert.False(rl.Allow("1.2.3.4"), "burst exhausted")

	assert.True(rl.Allow("5.6.7.8"), "limits are per client")
}

func Test_RateLimiter_Middleware(t *testing.T) {
	assert := assert.New(t)

	rl := newTestRateLimiter(t, 1, 1)
	handler := rl.Middleware(func(*http.Request) string { return "client" })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact", nil))
	assert.Equal(http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact", nil))
	assert.Equal(http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(rec.Header().Get("Retry-After"))
}

func Test_RateLimiter_sweep(t *testing.T) {
	assert := assert.New(t)

	rl := newTestRateLimiter(t, 10, 5)
	rl.Allow("stale")
	rl.Allow("fresh")
	assert.Equal(2, rl.Len())

	rl.mu.Lock()
	rl.limiters["stale"].lastAccess = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.sweep(time.Now())
	assert.Equal(1, rl.Len())
	assert.True(rl.Allow("fresh"))
}
