package web

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewRateLimiterStoreDisabled(t *testing.T) {
	assert.Nil(t, newRateLimiterStore(0, 5))
	assert.Nil(t, newRateLimiterStore(-1, 5))
}

func TestRateLimiterStoreBurst(t *testing.T) {
	store := newRateLimiterStore(0.001, 2)
	require.NotNil(t, store)

	assert.True(t, store.allow("10.0.0.1"))
	assert.True(t, store.allow("10.0.0.1"))
	assert.False(t, store.allow("10.0.0.1"))

	// Buckets are per client.
	assert.True(t, store.allow("10.0.0.2"))
}

func TestRateLimiterStoreDefaultBurst(t *testing.T) {
	store := newRateLimiterStore(0.5, 0)
	require.NotNil(t, store)
	assert.Equal(t, 1, store.burst)
}

func TestRateLimiterStoreCleanupKeepsBusyClients(t *testing.T) {
	store := newRateLimiterStore(0.001, 1)
	require.NotNil(t, store)

	store.allow("busy")
	store.limiters["idle"] = rate.NewLimiter(store.rps, store.burst)
	store.cleanup()

	assert.Contains(t, store.limiters, "busy")
	assert.NotContains(t, store.limiters, "idle")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:5000", want: "192.0.2.1"},
		{name: "forwarded chain", remoteAddr: "10.0.0.1:80", xff: "203.0.113.7, 10.0.0.1", want: "203.0.113.7"},
		{name: "single forwarded", remoteAddr: "10.0.0.1:80", xff: " 203.0.113.8 ", want: "203.0.113.8"},
		{name: "blank forwarded", remoteAddr: "10.0.0.1:80", xff: " ,", want: "10.0.0.1"},
		{name: "no port", remoteAddr: "192.0.2.9", want: "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestRateLimiterStoreSweepKeepsCurrentClient(t *testing.T) {
	store := newRateLimiterStore(0.001, 1)
	require.NotNil(t, store)

	// The next lookup triggers a sweep.
	store.counter.Store(cleanupEvery - 1)

	assert.True(t, store.allow("fresh"))
	assert.Contains(t, store.limiters, "fresh")
	assert.False(t, store.allow("fresh"))
}
