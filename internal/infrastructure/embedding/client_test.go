package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag-api/internal/config"
)

func TestClientEmbedStringsBatches(t *testing.T) {
	var batches [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bge-m3", req.Model)
		batches = append(batches, req.Texts)

		resp := embedResponse{}
		for i := range req.Texts {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(len(req.Texts[i])), 0.5})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(&config.EmbeddingConfig{Endpoint: srv.URL, Model: "bge-m3", BatchSize: 2})
	vecs, err := c.EmbedStrings(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float64{3, 0.5}, vecs[2])
	assert.Len(t, batches, 2)
}

func TestClientEmbedStringsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("model loading"))
	}))
	defer srv.Close()

	c := NewClient(&config.EmbeddingConfig{Endpoint: srv.URL})
	_, err := c.EmbedStrings(context.Background(), []string{"a"})
	require.ErrorContains(t, err, "status=503 body=model loading")

	empty := NewClient(&config.EmbeddingConfig{})
	_, err = empty.EmbedStrings(context.Background(), []string{"a"})
	require.ErrorContains(t, err, "endpoint is empty")

	vecs, err := empty.EmbedStrings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestClientRejectsWrongDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1, 2}}})
	}))
	defer srv.Close()

	c := NewClient(&config.EmbeddingConfig{Endpoint: srv.URL, Dimension: 1536})
	_, err := c.EmbedStrings(context.Background(), []string{"revenue"})
	require.ErrorContains(t, err, "dimension mismatch: got 2, want 1536")
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.EmbeddingConfig{Provider: "bogus"})
	require.ErrorContains(t, err, "unsupported embedding provider")

	e, err := New(context.Background(), &config.EmbeddingConfig{Provider: "http", Endpoint: "http://localhost:8081"})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, e)
}
