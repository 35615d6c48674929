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
)

func TestFetch_OK(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><title>Hello</title></html>"))
	}))
	defer srv.Close()

	c := New(Options{Timeout: time.Second})
	html, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "<title>Hello</title>")
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFetch_Latin1IsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><title>caf\xe9</title></html>"))
	}))
	defer srv.Close()

	html, err := New(Options{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "café")
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(Options{}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := New(Options{Retries: 2}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_Cache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := New(Options{CacheTTL: time.Minute})
	ctx := context.Background()
	_, err := c.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	_, err = c.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	c.Forget(srv.URL)
	_, err = c.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_BadURL(t *testing.T) {
	_, err := New(Options{}).Fetch(context.Background(), "://nope")
	assert.Error(t, err)
}
