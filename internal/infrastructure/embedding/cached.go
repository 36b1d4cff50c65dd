package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"filing-rag-api/internal/infrastructure/persistence/redis"
	"filing-rag-api/pkg/logger"
	"filing-rag-api/pkg/metrics"
)

// VectorCache 向量缓存存取
type VectorCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() ([]byte, error)) ([]byte, bool, error)
}

var _ embedding.Embedder = (*CachedEmbedder)(nil)

// CachedEmbedder 以文本哈希为键缓存向量
// 缓存故障只记录日志，不影响向量生成。
type CachedEmbedder struct {
	next  embedding.Embedder
	cache VectorCache
	model string
	ttl   time.Duration
}

// NewCachedEmbedder 包装 Embedder
func NewCachedEmbedder(next embedding.Embedder, cache VectorCache, model string, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedEmbedder{next: next, cache: cache, model: model, ttl: ttl}
}

// CacheKey 向量缓存键
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s", model, hex.EncodeToString(sum[:]))
}

// EmbedStrings 先查缓存，仅对未命中的文本调用下游
func (e *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 1 {
		vec, err := e.embedOne(ctx, texts[0], opts...)
		if err != nil {
			return nil, err
		}
		return [][]float64{vec}, nil
	}

	out := make([][]float64, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, text := range texts {
		if vec, ok := e.lookup(ctx, text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.next.EmbedStrings(ctx, missTexts, opts...)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		e.store(ctx, missTexts[j], vecs[j])
	}
	return out, nil
}

// embedOne 单条查询走 read-through，并发的相同查询只调用一次下游
func (e *CachedEmbedder) embedOne(ctx context.Context, text string, opts ...embedding.Option) ([]float64, error) {
	var loadErr error
	data, hit, err := e.cache.GetOrLoadSafe(ctx, CacheKey(e.model, text), e.ttl, func() ([]byte, error) {
		vecs, err := e.next.EmbedStrings(ctx, []string{text}, opts...)
		if err == nil && len(vecs) != 1 {
			err = fmt.Errorf("embedding count mismatch: got %d, want 1", len(vecs))
		}
		if err != nil {
			loadErr = err
			return nil, err
		}
		return json.Marshal(vecs[0])
	})
	if loadErr != nil {
		return nil, loadErr
	}
	if err == nil {
		var vec []float64
		if jerr := json.Unmarshal(data, &vec); jerr == nil && len(vec) > 0 {
			if hit {
				metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			} else {
				metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
			}
			return vec, nil
		}
	}

	// 缓存不可用或内容损坏时直接调用下游
	metrics.EmbeddingCacheTotal.WithLabelValues("error").Inc()
	if err != nil {
		logger.Warn(ctx, "embedding cache read failed", "error", err)
	}
	vecs, err := e.next.EmbedStrings(ctx, []string{text}, opts...)
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want 1", len(vecs))
	}
	return vecs[0], nil
}

func (e *CachedEmbedder) lookup(ctx context.Context, text string) ([]float64, bool) {
	data, err := e.cache.Get(ctx, CacheKey(e.model, text))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		} else {
			metrics.EmbeddingCacheTotal.WithLabelValues("error").Inc()
			logger.Warn(ctx, "embedding cache read failed", "error", err)
		}
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		metrics.EmbeddingCacheTotal.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
	return vec, true
}

func (e *CachedEmbedder) store(ctx context.Context, text string, vec []float64) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, CacheKey(e.model, text), data, e.ttl); err != nil {
		logger.Warn(ctx, "embedding cache write failed", "error", err)
	}
}
