package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/localrank/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", ClientOptions{})

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", ClientOptions{})

	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestSearchPlaces_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-API-KEY"))

		var body domain.SearchQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, domain.SearchQuery{Q: "bakers in york", GL: "gb", HL: "en", Page: 2}, body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"places":[{"position":1,"title":"Bready Steady York","address":"1 Stonegate"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, ClientOptions{})

	places, err := client.SearchPlaces(context.Background(), domain.SearchQuery{Q: "bakers in york", GL: "gb", HL: "en", Page: 2})

	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Bready Steady York", places[0].Title())
	raw, ok := places[0].Get("address")
	require.True(t, ok)
	assert.JSONEq(t, `"1 Stonegate"`, string(raw))
}

func TestSearchPlaces_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"searchParameters":{"q":"x"}}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, ClientOptions{})

	places, err := client.SearchPlaces(context.Background(), domain.SearchQuery{Q: "x", Page: 1})

	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestSearchPlaces_NonSuccessStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, ClientOptions{})

	places, err := client.SearchPlaces(context.Background(), domain.SearchQuery{Q: "x", Page: 1})

	assert.Nil(t, places)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(1), calls.Load(), "failed calls must not be retried")
}

func TestSearchPlaces_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Unauthorized."}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", server.URL, ClientOptions{})

	_, err := client.SearchPlaces(context.Background(), domain.SearchQuery{Q: "x", Page: 1})

	assert.True(t, domain.IsProviderError(err))
	assert.Contains(t, err.Error(), "401")
}

func TestSearchPlaces_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, ClientOptions{})

	_, err := client.SearchPlaces(context.Background(), domain.SearchQuery{Q: "x", Page: 1})

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestSearchPlaces_MissingCredential(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient("", server.URL, ClientOptions{})

	_, err := client.SearchPlaces(context.Background(), domain.SearchQuery{Q: "x", Page: 1})

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, calls.Load())
}

func TestSearchPlaces_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient("test-api-key", url, ClientOptions{Timeout: time.Second})

	_, err := client.SearchPlaces(context.Background(), domain.SearchQuery{Q: "x", Page: 1})

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestSearchPlaces_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"places":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, ClientOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchPlaces(ctx, domain.SearchQuery{Q: "x", Page: 1})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, domain.IsProviderError(err))
}

func TestSearchPlaces_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"places":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, ClientOptions{RateLimit: 20, Burst: 1})
	ctx := context.Background()

	start := time.Now()
	for page := 1; page <= 3; page++ {
		_, err := client.SearchPlaces(ctx, domain.SearchQuery{Q: "x", Page: page})
		require.NoError(t, err)
	}

	// burst 1 at 20/s: the 2nd and 3rd calls wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
