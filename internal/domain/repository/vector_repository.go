// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"filing-rag-api/internal/domain/entity"
)

// VectorSearchParams 向量检索参数
type VectorSearchParams struct {
	Vector []float32
	Filter entity.Disjunction
	Limit  int
}

// VectorRepository 申报分块向量存储
// 检索结果按相似度降序返回。
type VectorRepository interface {
	// EnsureCollection 集合不存在时创建
	EnsureCollection(ctx context.Context) error
	// Upsert 写入单条记录
	Upsert(ctx context.Context, record *entity.VectorRecord) error
	Search(ctx context.Context, params *VectorSearchParams) ([]*entity.SearchResult, error)
	// DeleteByTicker 删除某个 ticker 的全部记录
	DeleteByTicker(ctx context.Context, ticker string) error
	// ListFileNames 返回去重后的源文件名
	ListFileNames(ctx context.Context) ([]string, error)
	// Ping 连通性检查
	Ping(ctx context.Context) error
}
