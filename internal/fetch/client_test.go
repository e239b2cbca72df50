package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
)

func fastClient() *Client {
	return NewClient(ClientConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		Timeout:           time.Second,
	}, nil)
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "equitylens/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"symbol":"600519","value":1}`))
	}))
	defer srv.Close()

	var got payload
	err := fastClient().GetJSON(context.Background(), srv.URL, &got)
	require.NoError(t, err)
	assert.Equal(t, "600519", got.Symbol)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"value":5}`))
	}))
	defer srv.Close()

	var got payload
	err := fastClient().GetJSON(context.Background(), srv.URL, &got)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Value)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fastClient().Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsDataUnavailable(err))
	assert.Equal(t, int32(1), hits.Load(), "4xx responses must not be retried")
}

func TestClient_ExhaustedRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fastClient().Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsDataUnavailable(err))
	assert.Equal(t, int32(3), hits.Load(), "initial attempt plus two retries")
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastClient().Get(ctx, srv.URL)
	require.Error(t, err)
	assert.True(t, apperrors.IsDataUnavailable(err))
}

func TestClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var got payload
	err := fastClient().GetJSON(context.Background(), srv.URL, &got)
	require.Error(t, err)
	assert.True(t, apperrors.IsDataUnavailable(err))
}
