package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	glimpsehttp "github.com/fwojciec/glimpse/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("parses the served document", func(t *testing.T) {
		t.Parallel()

		userAgents := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgents <- r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><title>Hello</title></head><body><img src="/a.jpg" width="300" height="200"></body></html>`))
		}))
		defer server.Close()

		loader := glimpsehttp.NewLoader()
		defer loader.Close()

		page, err := loader.Load(context.Background(), server.URL)
		require.NoError(t, err)
		defer page.Close()

		state, err := page.State(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Hello", state.Title)
		assert.Equal(t, server.URL, state.URL)
		assert.Equal(t, glimpsehttp.UserAgent, <-userAgents)

		images, err := page.Query(context.Background(), "img")
		require.NoError(t, err)
		require.Len(t, images, 1)
		w, h := images[0].NaturalSize()
		assert.Equal(t, 300, w)
		assert.Equal(t, 200, h)
	})

	t.Run("page url is the final url after redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html></html>`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		page, err := glimpsehttp.NewLoader().Load(context.Background(), server.URL+"/old")
		require.NoError(t, err)

		state, err := page.State(context.Background())
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/new", state.URL)
	})

	t.Run("returns error for non-200 status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := glimpsehttp.NewLoader().Load(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		loader := glimpsehttp.NewLoader(glimpsehttp.WithTimeout(10 * time.Millisecond))

		_, err := loader.Load(context.Background(), server.URL)
		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("<html></html>"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := glimpsehttp.NewLoader().Load(ctx, server.URL)
		require.Error(t, err)
	})
}
