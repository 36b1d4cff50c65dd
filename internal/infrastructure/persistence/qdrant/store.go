// Package qdrant 提供基于 Qdrant REST API 的向量仓储实现
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/domain/repository"
	"filing-rag-api/pkg/metrics"
)

var tracer = otel.Tracer("qdrant")

const (
	storeLabel     = "qdrant"
	scrollPageSize = 256
	defaultTimeout = 12 * time.Second
)

var _ repository.VectorRepository = (*Store)(nil)

// Config Qdrant 连接配置
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Store Qdrant 向量仓储，集合使用 Cosine 距离
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// NewStore 创建 Qdrant 仓储
func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// StatusError Qdrant 返回非 2xx 状态
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: status=%d body=%s", e.Method, e.Path, e.Status, e.Body)
}

func (s *Store) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(s.collection) + suffix
}

// EnsureCollection 集合不存在时创建
func (s *Store) EnsureCollection(ctx context.Context) (err error) {
	ctx, span := s.start(ctx, "qdrant.EnsureCollection")
	defer span.End()
	defer func() { observe("ensure", err) }()

	err = s.do(ctx, http.MethodGet, s.collectionPath(""), nil, nil)
	if err == nil {
		return nil
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		span.RecordError(err)
		return err
	}

	if s.dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", s.dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	if err = s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Upsert 写入单个点，ID 需为 UUID
func (s *Store) Upsert(ctx context.Context, record *entity.VectorRecord) (err error) {
	if record == nil {
		return fmt.Errorf("vector record is nil")
	}
	ctx, span := s.start(ctx, "qdrant.Upsert", attribute.String("file_id", record.Payload.FileID))
	defer span.End()
	defer func() { observe("upsert", err) }()

	body := map[string]any{
		"points": []point{{
			ID:      record.ID,
			Vector:  record.Vector,
			Payload: record.Payload,
		}},
	}
	if err = s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil); err != nil {
		span.RecordError(err)
	}
	return err
}

// Search 带过滤的向量检索
func (s *Store) Search(ctx context.Context, params *repository.VectorSearchParams) (_ []*entity.SearchResult, err error) {
	if params == nil || len(params.Vector) == 0 || params.Limit <= 0 {
		return []*entity.SearchResult{}, nil
	}
	ctx, span := s.start(ctx, "qdrant.Search",
		attribute.Int("limit", params.Limit),
		attribute.Int("filters", len(params.Filter)))
	defer span.End()
	defer func() { observe("search", err) }()

	req := map[string]any{
		"vector":       params.Vector,
		"limit":        params.Limit,
		"with_payload": true,
	}
	if f := BuildFilter(params.Filter); f != nil {
		req["filter"] = f
	}

	var resp struct {
		Result []struct {
			ID      any                 `json:"id"`
			Score   float32             `json:"score"`
			Payload entity.ChunkPayload `json:"payload"`
		} `json:"result"`
	}
	start := time.Now()
	err = s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &resp)
	metrics.VectorSearchDuration.WithLabelValues(storeLabel, s.collection).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]*entity.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		out = append(out, &entity.SearchResult{
			ID:         fmt.Sprint(r.ID),
			Payload:    r.Payload,
			Similarity: r.Score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

// DeleteByTicker 按 ticker 过滤删除点
func (s *Store) DeleteByTicker(ctx context.Context, ticker string) (err error) {
	ctx, span := s.start(ctx, "qdrant.DeleteByTicker", attribute.String("ticker", ticker))
	defer span.End()
	defer func() { observe("delete", err) }()

	body := map[string]any{
		"filter": filter{Must: []condition{matchCondition(entity.PayloadTicker, ticker)}},
	}
	if err = s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), body, nil); err != nil {
		span.RecordError(err)
	}
	return err
}

// ListFileNames 滚动遍历集合收集 file_name
func (s *Store) ListFileNames(ctx context.Context) (_ []string, err error) {
	ctx, span := s.start(ctx, "qdrant.ListFileNames")
	defer span.End()
	defer func() { observe("list", err) }()

	seen := make(map[string]struct{})
	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{entity.PayloadFileName},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err = s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), req, &resp); err != nil {
			span.RecordError(err)
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if name, ok := p.Payload[entity.PayloadFileName].(string); ok {
				seen[name] = struct{}{}
			}
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Ping 连通性检查
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (s *Store) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("collection", s.collection))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}
	return nil
}

func observe(op string, err error) {
	metrics.VectorOpsTotal.WithLabelValues(storeLabel, op, metrics.Status(err)).Inc()
}
