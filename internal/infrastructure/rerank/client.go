// Package rerank 提供交叉编码器相关性打分客户端
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"filing-rag-api/internal/config"
	"filing-rag-api/pkg/metrics"
)

var tracer = otel.Tracer("rerank")

// Client TEI 风格 /rerank 接口客户端
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	Model     string   `json:"model,omitempty"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type rerankItem struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewClient 创建重排客户端
func NewClient(cfg *config.RerankConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Score 对每段文本与查询的相关性打分，返回顺序与输入一致
func (c *Client) Score(ctx context.Context, query string, texts []string) (scores []float64, err error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}
	ctx, span := tracer.Start(ctx, "rerank.Score",
		trace.WithAttributes(
			attribute.String("rerank.model", c.model),
			attribute.Int("rerank.texts", len(texts)),
		))
	defer span.End()
	defer func() {
		metrics.RerankTotal.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			span.RecordError(err)
		}
	}()

	u, err := c.url()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(&rerankRequest{
		Query:    query,
		Texts:    texts,
		Model:    c.model,
		Truncate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rerank request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var items []rerankItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	if len(items) != len(texts) {
		return nil, fmt.Errorf("rerank returned %d scores for %d texts", len(items), len(texts))
	}

	scores = make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, it := range items {
		if it.Index < 0 || it.Index >= len(texts) || seen[it.Index] {
			return nil, fmt.Errorf("rerank returned invalid index %d", it.Index)
		}
		seen[it.Index] = true
		scores[it.Index] = it.Score
	}
	return scores, nil
}

func (c *Client) url() (string, error) {
	endpoint := strings.TrimRight(c.endpoint, "/")
	if endpoint == "" {
		return "", fmt.Errorf("rerank endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid rerank endpoint: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/rerank"
	}
	return u.String(), nil
}
