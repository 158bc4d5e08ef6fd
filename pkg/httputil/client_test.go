package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/logger"
)

func testClient() *Client {
	cfg := &config.Config{Env: "development"}
	return New(cfg, logger.Nop())
}

func TestNew(t *testing.T) {
	client := testClient()

	require.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.logger)
	assert.Equal(t, 3, client.retryConfig.MaxRetries)
	assert.True(t, client.retryConfig.Enabled)
}

func TestNewWithTimeout(t *testing.T) {
	cfg := &config.Config{Env: "development"}
	client := NewWithTimeout(cfg, logger.Nop(), 5*time.Second)

	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestWithRetryAndDisable(t *testing.T) {
	client := testClient().WithRetry(5, 10*time.Millisecond)
	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, client.retryConfig.InitialDelay)

	client.DisableRetry()
	assert.False(t, client.retryConfig.Enabled)
}

func TestGetJSON_SendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"brand": "acme"})
	}))
	defer server.Close()

	client := testClient().WithHeader("X-Api-Key", "secret")

	var got map[string]string
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &got))
	assert.Equal(t, "acme", got["brand"])
}

func TestGetJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer server.Close()

	var got map[string]string
	err := testClient().GetJSON(context.Background(), server.URL, &got)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "missing", statusErr.Body)
}

func TestRetryOn5xx(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient().WithRetry(3, 5*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryOn429(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := testClient().WithRetry(2, time.Millisecond).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		if got := IsRetryableError(tt.statusCode); got != tt.want {
			t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
		}
	}
}
