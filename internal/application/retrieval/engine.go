package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel/attribute"

	"filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/domain/repository"
	"filing-rag-api/internal/domain/service"
	"filing-rag-api/pkg/logger"
	"filing-rag-api/pkg/metrics"
	"filing-rag-api/pkg/tracer"
)

// Engine 过滤检索与可选重排
type Engine struct {
	embedder embedding.Embedder
	vector   repository.VectorRepository
	scorer   RelevanceScorer

	searchLimit int
	rerankTopK  int
	callTimeout time.Duration
}

// EngineOption 配置 Engine
type EngineOption func(*Engine)

// WithScorer 设置相关性打分器
func WithScorer(s RelevanceScorer) EngineOption {
	return func(e *Engine) { e.scorer = s }
}

// WithLimits 设置检索上限与重排保留数
func WithLimits(searchLimit, rerankTopK int) EngineOption {
	return func(e *Engine) {
		if searchLimit > 0 {
			e.searchLimit = searchLimit
		}
		if rerankTopK > 0 {
			e.rerankTopK = rerankTopK
		}
	}
}

// WithCallTimeout 设置单次外部调用超时
func WithCallTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

func NewEngine(embedder embedding.Embedder, vectorRepo repository.VectorRepository, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder:    embedder,
		vector:      vectorRepo,
		searchLimit: DefaultSearchLimit,
		rerankTopK:  DefaultRerankTopK,
		callTimeout: 12 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RerankAvailable 是否配置了打分器
func (e *Engine) RerankAvailable() bool {
	return e.scorer != nil
}

// Search 嵌入查询一次，按析取过滤做相似度检索；
// 未重排时按相似度降序返回至多 searchLimit 条，重排后按相关性降序返回至多 rerankTopK 条。
func (e *Engine) Search(ctx context.Context, in SearchInput) ([]*entity.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "retrieval.search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("retrieval.filters", len(in.Filters)),
		attribute.Bool("retrieval.rerank", in.Rerank),
	)

	results, err := e.search(ctx, in)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieval.results", len(results)))
	return results, nil
}

func (e *Engine) search(ctx context.Context, in SearchInput) ([]*entity.SearchResult, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, &SearchError{Op: OpValidate, Err: ErrEmptyQuery}
	}
	filter, err := BuildFilter(in.Filters)
	if err != nil {
		return nil, &SearchError{Op: OpValidate, Err: err}
	}
	if in.Rerank && e.scorer == nil {
		return nil, &SearchError{Op: OpValidate, Err: ErrRerankUnavailable}
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	vec, err := service.EmbedText(embedCtx, e.embedder, query)
	cancel()
	if err != nil {
		return nil, &SearchError{Op: OpEmbed, Err: err}
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	results, err := e.vector.Search(searchCtx, &repository.VectorSearchParams{
		Vector: vec,
		Filter: filter,
		Limit:  e.searchLimit,
	})
	cancel()
	if err != nil {
		return nil, &SearchError{Op: OpSearch, Err: err}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > e.searchLimit {
		results = results[:e.searchLimit]
	}
	logger.Debug(ctx, "vector search completed", "filters", len(filter), "candidates", len(results))

	if !in.Rerank || len(results) == 0 {
		return results, nil
	}
	return e.rerank(ctx, query, results)
}

// rerank 稳定排序，分数相同时保留相似度顺序
func (e *Engine) rerank(ctx context.Context, query string, results []*entity.SearchResult) ([]*entity.SearchResult, error) {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Payload.Text
	}

	rerankCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	scores, err := e.scorer.Score(rerankCtx, query, texts)
	cancel()
	if err == nil && len(scores) != len(results) {
		err = fmt.Errorf("scorer returned %d scores for %d texts", len(scores), len(results))
	}
	metrics.RerankTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, &SearchError{Op: OpRerank, Err: err}
	}

	ranked := make([]*entity.SearchResult, len(results))
	for i, r := range results {
		cp := *r
		score := scores[i]
		cp.Relevance = &score
		ranked[i] = &cp
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Relevance > *ranked[j].Relevance
	})
	if len(ranked) > e.rerankTopK {
		ranked = ranked[:e.rerankTopK]
	}
	return ranked, nil
}
