package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTavilySearch(t *testing.T) {
	var got tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"EV Market","url":"https://a.example","content":"Growth 20%","score":0.91},
			{"title":"","url":"https://b.example","content":"No title","published_date":"2024-05-01"}
		]}`))
	}))
	defer server.Close()

	p := NewTavilyProvider(server.URL, "tvly-test", 5*time.Second, "", zap.NewNop())
	results, err := p.Search(context.Background(), Request{Query: "EV market", Depth: DepthBasic, MaxResults: 5})
	require.NoError(t, err)

	assert.Equal(t, "tvly-test", got.APIKey)
	assert.Equal(t, "EV market", got.Query)
	assert.Equal(t, DepthBasic, got.SearchDepth)
	assert.Equal(t, 5, got.MaxResults)

	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "EV Market", URL: "https://a.example", Content: "Growth 20%", Score: 0.91}, results[0])
	assert.Equal(t, "2024-05-01", results[1].PublishedDate)
}

func TestTavilyDefaultDepth(t *testing.T) {
	var got tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	p := NewTavilyProvider(server.URL, "k", 5*time.Second, "", zap.NewNop())
	results, err := p.Search(context.Background(), Request{Query: "q", MaxResults: 3})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, DepthAdvanced, got.SearchDepth)
}

func TestTavilyErrors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		p := NewTavilyProvider("http://unused", "", time.Second, "", zap.NewNop())
		_, err := p.Search(context.Background(), Request{Query: "q"})
		assert.ErrorContains(t, err, "api key")
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		}))
		defer server.Close()

		p := NewTavilyProvider(server.URL, "bad", time.Second, "", zap.NewNop())
		_, err := p.Search(context.Background(), Request{Query: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": [`))
		}))
		defer server.Close()

		p := NewTavilyProvider(server.URL, "k", time.Second, "", zap.NewNop())
		_, err := p.Search(context.Background(), Request{Query: "q"})
		assert.ErrorContains(t, err, "decode")
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		p := NewTavilyProvider(server.URL, "k", 5*time.Second, "", zap.NewNop())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := p.Search(ctx, Request{Query: "q"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTimeout))
	})
}
