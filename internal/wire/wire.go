//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"filing-rag-api/internal/application/answer"
	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/config"
	"filing-rag-api/internal/interfaces/http/handler"
	"filing-rag-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 HTTP 服务（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		InfraSet,
		CoreSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeComponents 初始化 CLI 使用的组件
func InitializeComponents(ctx context.Context, cfg *config.Config) (*Components, func(), error) {
	wire.Build(
		InfraSet,
		CoreSet,
		ProvidePipeline,
		wire.Struct(new(Components), "*"),
	)
	return nil, nil, nil
}

// InfraSet 基础设施提供者集合
var InfraSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideVectorRepository,
	ProvideEmbedder,
	ProvideRelevanceScorer,
	ProvideChatModelFactory,
)

// CoreSet 检索与问答提供者集合
var CoreSet = wire.NewSet(
	ProvideRetrievalEngine,
	ProvideAgent,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideRateLimiter,
	ProvideHealthHandler,
	handler.NewSearchHandler,
	handler.NewRetrievalHandler,
	ProvideFilingHandler,
	wire.Bind(new(handler.Asker), new(*answer.Agent)),
	wire.Bind(new(handler.Searcher), new(*retrieval.Engine)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
