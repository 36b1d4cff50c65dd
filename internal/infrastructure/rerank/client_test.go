package rerank

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

func TestScoreRestoresInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "apple revenue", req.Query)
		assert.Equal(t, []string{"a", "b", "c"}, req.Texts)
		// 服务端按分数降序返回
		_, _ = w.Write([]byte(`[{"index":2,"score":0.9},{"index":0,"score":0.4},{"index":1,"score":0.1}]`))
	}))
	defer srv.Close()

	c := NewClient(&config.RerankConfig{Endpoint: srv.URL, Model: "ProsusAI/finbert"})
	scores, err := c.Score(context.Background(), "apple revenue", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, 0.1, 0.9}, scores)
}

func TestScoreRejectsMalformedResponses(t *testing.T) {
	cases := map[string]string{
		"short":     `[{"index":0,"score":0.4}]`,
		"duplicate": `[{"index":0,"score":0.4},{"index":0,"score":0.1}]`,
		"range":     `[{"index":0,"score":0.4},{"index":5,"score":0.1}]`,
		"garbage":   `not json`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c := NewClient(&config.RerankConfig{Endpoint: srv.URL})
			_, err := c.Score(context.Background(), "q", []string{"a", "b"})
			require.Error(t, err)
		})
	}
}

func TestScoreUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(&config.RerankConfig{Endpoint: srv.URL + "/v1/rerank"})
	_, err := c.Score(context.Background(), "q", []string{"a"})
	require.ErrorContains(t, err, "status=503")

	scores, err := c.Score(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)

	_, err = NewClient(&config.RerankConfig{}).Score(context.Background(), "q", []string{"a"})
	require.ErrorContains(t, err, "endpoint is empty")
}
