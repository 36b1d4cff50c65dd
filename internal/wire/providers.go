package wire

import (
	"context"
	"fmt"
	"strings"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"filing-rag-api/internal/application/answer"
	"filing-rag-api/internal/application/ingestion"
	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/config"
	"filing-rag-api/internal/domain/repository"
	infraembedding "filing-rag-api/internal/infrastructure/embedding"
	"filing-rag-api/internal/infrastructure/llm"
	"filing-rag-api/internal/infrastructure/persistence/memory"
	"filing-rag-api/internal/infrastructure/persistence/milvus"
	"filing-rag-api/internal/infrastructure/persistence/qdrant"
	"filing-rag-api/internal/infrastructure/persistence/redis"
	"filing-rag-api/internal/infrastructure/rerank"
	"filing-rag-api/internal/interfaces/http/handler"
	"filing-rag-api/internal/interfaces/http/middleware"
	"filing-rag-api/internal/workflow/chain"
	"filing-rag-api/pkg/logger"
)

// 向量库提供方
const (
	VectorProviderMilvus = "milvus"
	VectorProviderQdrant = "qdrant"
	VectorProviderMemory = "memory"
)

// Components CLI 使用的组件集合
type Components struct {
	Vector   repository.VectorRepository
	Engine   *retrieval.Engine
	Agent    *answer.Agent
	Pipeline *ingestion.Pipeline
}

// ProvideRedisClientOptional 未启用或不可达时返回 nil，相关能力降级
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(ctx, &cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, embedding cache and rate limit disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideVectorRepository 按配置选择向量库并确保集合存在
func ProvideVectorRepository(ctx context.Context, cfg *config.Config) (repository.VectorRepository, func(), error) {
	vc := cfg.Vector
	var (
		repo    repository.VectorRepository
		cleanup = func() {}
	)

	switch strings.ToLower(strings.TrimSpace(vc.Provider)) {
	case "", VectorProviderMilvus:
		client, err := milvus.NewClient(ctx, &vc.Milvus, vc.Timeout)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			_ = client.Close()
		}
		repo = milvus.NewRepository(client, vc.Collection, vc.Dimension)
	case VectorProviderQdrant:
		repo = qdrant.NewStore(qdrant.Config{
			URL:        vc.Qdrant.URL,
			APIKey:     vc.Qdrant.APIKey,
			Collection: vc.Collection,
			Dimension:  vc.Dimension,
			Timeout:    vc.Timeout,
		})
	case VectorProviderMemory:
		repo = memory.NewStore()
	default:
		return nil, nil, fmt.Errorf("unsupported vector provider %q", vc.Provider)
	}

	if err := repo.EnsureCollection(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to ensure vector collection: %w", err)
	}
	logger.Info(ctx, "vector store ready", "provider", vc.Provider, "collection", vc.Collection)
	return repo, cleanup, nil
}

// ProvideEmbedder 创建 Embedder，Redis 可用时包一层查询向量缓存
func ProvideEmbedder(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (einoembedding.Embedder, error) {
	base, err := infraembedding.New(ctx, &cfg.Embedding)
	if err != nil {
		return nil, err
	}
	if redisClient == nil {
		return base, nil
	}
	return infraembedding.NewCachedEmbedder(base, redis.NewCache(redisClient), cfg.Embedding.Model, cfg.Cache.Redis.EmbeddingTTL), nil
}

// ProvideRelevanceScorer 未启用重排时返回 nil
func ProvideRelevanceScorer(cfg *config.Config) retrieval.RelevanceScorer {
	if !cfg.Rerank.Enabled || strings.TrimSpace(cfg.Rerank.Endpoint) == "" {
		return nil
	}
	return rerank.NewClient(&cfg.Rerank)
}

// ProvideRetrievalEngine 创建检索引擎
func ProvideRetrievalEngine(cfg *config.Config, embedder einoembedding.Embedder, vectorRepo repository.VectorRepository, scorer retrieval.RelevanceScorer) *retrieval.Engine {
	opts := []retrieval.EngineOption{
		retrieval.WithLimits(cfg.Retrieval.SearchLimit, cfg.Retrieval.RerankTopK),
		retrieval.WithCallTimeout(cfg.Vector.Timeout),
	}
	if scorer != nil {
		opts = append(opts, retrieval.WithScorer(scorer))
	}
	return retrieval.NewEngine(embedder, vectorRepo, opts...)
}

// ProvideChatModelFactory 创建 LLM 工厂
func ProvideChatModelFactory(cfg *config.Config) *llm.EinoFactory {
	return llm.NewEinoFactory(&cfg.LLM)
}

// ProvideAgent 组装 解析 -> 检索 -> 生成 的问答流程
func ProvideAgent(cfg *config.Config, factory *llm.EinoFactory, engine *retrieval.Engine) *answer.Agent {
	interpreter := answer.NewInterpreter(
		chain.NewInterpretChain(factory, cfg.LLM.Interpreter),
		cfg.Query.DefaultYear,
		cfg.Query.DefaultQuarter,
	)
	synthesizer := answer.NewSynthesizer(chain.NewSynthesizeChain(factory, cfg.LLM.Synthesizer), 0)
	return answer.NewAgent(interpreter, engine, synthesizer,
		answer.WithUsageLabels(factory.ProviderName(cfg.LLM.Synthesizer.Provider), cfg.LLM.Synthesizer.Model),
	)
}

// ProvidePipeline 创建摄取流水线
func ProvidePipeline(cfg *config.Config, embedder einoembedding.Embedder, vectorRepo repository.VectorRepository) (*ingestion.Pipeline, error) {
	ic := cfg.Ingestion
	tickers, err := ingestion.LoadTickerMap(ic.TickerMapPath)
	if err != nil {
		return nil, err
	}
	profile, err := ingestion.ProfileFor(ic.ReportType)
	if err != nil {
		return nil, err
	}
	chunker := ingestion.NewChunker(
		ingestion.WithChunkSize(ic.ChunkSize),
		ingestion.WithOverlap(ic.ChunkOverlap),
	)
	return ingestion.NewPipeline(
		ingestion.NewNormalizer(tickers, profile),
		chunker,
		embedder,
		vectorRepo,
		ingestion.WithCallTimeout(cfg.Vector.Timeout),
	), nil
}

// ProvideRateLimiter Redis 不可用时不限流
func ProvideRateLimiter(redisClient *redis.Client) middleware.RateLimiter {
	if redisClient == nil {
		return nil
	}
	return redis.NewRateLimiter(redisClient)
}

// ProvideHealthHandler 向量库必需，Redis 可选
func ProvideHealthHandler(cfg *config.Config, vectorRepo repository.VectorRepository, redisClient *redis.Client) *handler.HealthHandler {
	var redisPinger handler.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	return handler.NewHealthHandler(vectorRepo, redisPinger, cfg.App.Version)
}

// ProvideFilingHandler 申报管理处理器
func ProvideFilingHandler(vectorRepo repository.VectorRepository) *handler.FilingHandler {
	return handler.NewFilingHandler(vectorRepo)
}
