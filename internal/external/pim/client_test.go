package pim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/httputil"
	"github.com/wonny/shelforder/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	cfg := &config.Config{Env: "development"}
	hc := httputil.New(cfg, logger.Nop()).DisableRetry().WithHeader("X-Api-Key", "k")
	return NewClient(hc, logger.Nop(), baseURL+"/")
}

func TestLookupBrands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/brands", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "a,b,c", r.URL.Query().Get("ids"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"brands": map[string]string{"a": "acme", "b": "  "},
		})
	}))
	defer server.Close()

	brands, err := newTestClient(server.URL).LookupBrands(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a": "acme",
		"b": contracts.NoBrand,
		"c": contracts.NoBrand,
	}, brands)
}

func TestLookupBrands_Batches(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		assert.LessOrEqual(t, len(ids), BatchSize)

		out := make(map[string]string, len(ids))
		for _, id := range ids {
			out[id] = "brand-" + id
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"brands": out})
	}))
	defer server.Close()

	ids := make([]string, BatchSize*2+5)
	for i := range ids {
		ids[i] = fmt.Sprintf("i%d", i)
	}

	brands, err := newTestClient(server.URL).LookupBrands(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Len(t, brands, len(ids))
	assert.Equal(t, "brand-i7", brands["i7"])
}

func TestLookupBrands_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).LookupBrands(context.Background(), []string{"a"})
	require.Error(t, err)

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestLookupBrands_Empty(t *testing.T) {
	brands, err := newTestClient("http://unused.invalid").LookupBrands(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, brands)
}
