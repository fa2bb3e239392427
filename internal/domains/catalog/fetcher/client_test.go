package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"barcatalog-backend/internal/config"
	"barcatalog-backend/internal/domains/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string, maxRetries int) config.SourceConfig {
	return config.SourceConfig{
		BaseURL:         baseURL,
		RequestInterval: time.Millisecond,
		RequestTimeout:  time.Second,
		MaxRetries:      maxRetries,
	}
}

func TestFetchCatalogConcatenatesPartitions(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		switch r.URL.Query().Get("f") {
		case "a":
			w.Write([]byte(`{"drinks":[{"idDrink":"1","strDrink":"Aviation"}]}`))
		case "b":
			w.Write([]byte(`{"drinks":[{"idDrink":"2","strDrink":"Bramble"},{"idDrink":"3","strDrink":"Bellini"}]}`))
		default:
			// empty partition: null list, still a valid response
			w.Write([]byte(`{"drinks":null}`))
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 3))
	drinks, err := client.FetchCatalog(context.Background())

	require.NoError(t, err)
	require.Len(t, drinks, 3)
	assert.Equal(t, "Aviation", drinks[0].Name)
	assert.Equal(t, int32(26), atomic.LoadInt32(&requests), "one request per partition key")
}

func TestFetchExhaustedAfterExactRetryBudget(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 3))
	_, err := client.FetchCatalog(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrFetchExhausted))
	// initial attempt plus exactly 3 retries, first partition only
	assert.Equal(t, int32(4), atomic.LoadInt32(&requests))
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if r.URL.Query().Get("f") == "a" && n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"drinks":null}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 3))
	drinks, err := client.FetchCatalog(context.Background())

	require.NoError(t, err)
	assert.Empty(t, drinks)
	// 2 failures + 1 success for "a", then 25 clean partitions
	assert.Equal(t, int32(28), atomic.LoadInt32(&requests))
}

func TestFetchRetriesMalformedBody(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			w.Write([]byte(`{"drinks": [`))
			return
		}
		w.Write([]byte(`{"drinks":null}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 1))
	_, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)
}

func TestFetchHonorsRetryAfterHint(t *testing.T) {
	var requests int32
	start := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"drinks":null}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 2))
	_, err := client.FetchCatalog(context.Background())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), time.Second, "waited at least the source hint")
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(testConfig(server.URL, 3))
	_, err := client.FetchCatalog(ctx)

	require.Error(t, err)
	assert.False(t, errors.Is(err, catalog.ErrFetchExhausted))
}
