// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyPoolPrefersSuccessfulProxy(t *testing.T) {
	pool := NewProxyPool([]string{"http://p1:8080", "http://p2:8080", "http://p3:8080"}, time.Second)

	pool.MarkSuccess("http://p2:8080")
	pool.MarkSuccess("http://p2:8080")
	pool.MarkSuccess("http://p3:8080")

	proxy, err := pool.next()
	require.NoError(t, err)
	assert.Equal(t, "http://p2:8080", proxy)
}

func TestProxyPoolSkipsFailed(t *testing.T) {
	pool := NewProxyPool([]string{"http://p1:8080", "http://p2:8080"}, time.Second)

	pool.MarkSuccess("http://p1:8080")
	pool.MarkFailed("http://p1:8080")

	proxy, err := pool.next()
	require.NoError(t, err)
	assert.Equal(t, "http://p2:8080", proxy)
}

func TestProxyPoolResetsWhenExhausted(t *testing.T) {
	pool := NewProxyPool([]string{"http://p1:8080", "http://p2:8080"}, time.Second)

	pool.MarkFailed("http://p1:8080")
	pool.MarkFailed("http://p2:8080")

	// All failed: the pool clears the failed set and tries again.
	proxy, err := pool.next()
	require.NoError(t, err)
	assert.Contains(t, []string{"http://p1:8080", "http://p2:8080"}, proxy)
}

func TestProxyPoolEmpty(t *testing.T) {
	pool := NewProxyPool(nil, time.Second)
	_, err := pool.next()
	assert.Error(t, err)
}

func TestProxyPoolGetThroughProxy(t *testing.T) {
	// The httptest server plays the proxy: for plain-HTTP targets the
	// client sends the full request to the proxy address.
	var sawProxyRequest bool
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawProxyRequest = true
		w.Write([]byte("proxied"))
	}))
	defer proxy.Close()

	pool := NewProxyPool([]string{proxy.URL}, time.Second)
	resp, err := pool.Get(context.Background(), "http://target.example/page", "test/0.1", 2)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.True(t, sawProxyRequest)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, pool.successes[proxy.URL])
}

func TestProxyPoolGetMarksFailedOnError(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer proxy.Close()

	pool := NewProxyPool([]string{proxy.URL}, time.Second)
	_, err := pool.Get(context.Background(), "http://target.example/page", "test/0.1", 2)
	assert.Error(t, err)
}
