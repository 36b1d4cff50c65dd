package retrieval

import "filing-rag-api/internal/domain/entity"

const (
	DefaultSearchLimit = 50
	DefaultRerankTopK  = 10
)

// SearchInput 检索输入
type SearchInput struct {
	Filters []entity.QueryFilter
	Query   string
	// Rerank 为 true 时按相关性重排并截取前 RerankTopK 条
	Rerank bool
}
