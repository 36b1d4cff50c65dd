// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domain "filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/domain/repository"
	"filing-rag-api/pkg/metrics"
)

const (
	storeLabel = "milvus"

	// queryPageSize 单次 Query 返回上限；Milvus 要求 offset+limit 不超过 16384
	queryPageSize = 1000
	queryWindow   = 16384
)

var _ repository.VectorRepository = (*Repository)(nil)

// Repository 申报分块向量仓储
type Repository struct {
	client     *Client
	collection string
	dimension  int
}

// NewRepository 创建向量仓储
func NewRepository(client *Client, collection string, dimension int) *Repository {
	if collection == "" {
		collection = CollectionFilingChunks
	}
	if dimension <= 0 {
		dimension = DefaultVectorDimension
	}
	return &Repository{client: client, collection: collection, dimension: dimension}
}

func (r *Repository) ready() error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	return nil
}

func (r *Repository) collName() string {
	return r.client.CollectionName(r.collection)
}

// EnsureCollection 集合不存在时创建集合与 HNSW 索引，并加载到内存
func (r *Repository) EnsureCollection(ctx context.Context) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", r.collection)))
	defer span.End()
	defer func() { r.observe("ensure", err) }()

	exists, err := r.client.HasCollection(ctx, r.collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		if err := r.createCollection(ctx); err != nil {
			span.RecordError(err)
			return err
		}
		if err := r.createIndex(ctx); err != nil {
			span.RecordError(err)
			return err
		}
	}
	if err := r.client.LoadCollection(ctx, r.collection); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

func (r *Repository) createCollection(ctx context.Context) error {
	schema := FilingChunksSchema(r.collName(), r.dimension)
	if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *Repository) createIndex(ctx context.Context) error {
	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		return fmt.Errorf("failed to create index params: %w", err)
	}
	if err := r.client.milvus.CreateIndex(ctx, r.collName(), fieldVector, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Upsert 写入单条分块记录，相同 ID 覆盖
func (r *Repository) Upsert(ctx context.Context, record *domain.VectorRecord) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("vector record is nil")
	}
	if len(record.Vector) != r.dimension {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(record.Vector), r.dimension)
	}
	ctx, span := tracer.Start(ctx, "milvus.Upsert",
		trace.WithAttributes(
			attribute.String("collection", r.collection),
			attribute.String("file_id", record.Payload.FileID),
		))
	defer span.End()
	defer func() { r.observe("upsert", err) }()

	p := record.Payload
	columns := []entity.Column{
		entity.NewColumnVarChar(fieldID, []string{record.ID}),
		entity.NewColumnFloatVector(fieldVector, r.dimension, [][]float32{record.Vector}),
		entity.NewColumnVarChar(domain.PayloadFileID, []string{p.FileID}),
		entity.NewColumnVarChar(domain.PayloadFileName, []string{p.FileName}),
		entity.NewColumnVarChar(domain.PayloadTicker, []string{p.Ticker}),
		entity.NewColumnVarChar(domain.PayloadCompanyName, []string{p.CompanyName}),
		entity.NewColumnVarChar(domain.PayloadConformedPeriod, []string{p.ConformedPeriod}),
		entity.NewColumnVarChar(domain.PayloadReportType, []string{p.ReportType}),
		entity.NewColumnVarChar(domain.PayloadItemName, []string{p.ItemName}),
		entity.NewColumnVarChar(domain.PayloadText, []string{p.Text}),
		entity.NewColumnInt64(domain.PayloadYear, []int64{int64(p.Year)}),
		entity.NewColumnVarChar(domain.PayloadQuarter, []string{p.Quarter}),
	}

	if _, err := r.client.milvus.Upsert(ctx, r.collName(), "", columns...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Search 带元数据过滤的向量检索，按余弦相似度降序返回
func (r *Repository) Search(ctx context.Context, params *repository.VectorSearchParams) (_ []*domain.SearchResult, err error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if params == nil || len(params.Vector) == 0 || params.Limit <= 0 {
		return []*domain.SearchResult{}, nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", r.collection),
			attribute.Int("limit", params.Limit),
			attribute.Int("filters", len(params.Filter)),
		))
	defer span.End()
	defer func() { r.observe("search", err) }()

	expr, err := RenderFilter(params.Filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to render filter: %w", err)
	}

	ef := r.client.config.SearchEf
	if ef < params.Limit {
		ef = params.Limit
	}
	sp, err := entity.NewIndexHNSWSearchParam(ef)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	start := time.Now()
	results, err := r.client.milvus.Search(ctx,
		r.collName(),
		[]string{},
		expr,
		outputFields,
		[]entity.Vector{entity.FloatVector(params.Vector)},
		fieldVector,
		entity.COSINE,
		params.Limit,
		sp,
	)
	metrics.VectorSearchDuration.WithLabelValues(storeLabel, r.collection).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	out := make([]*domain.SearchResult, 0, params.Limit)
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			sr := &domain.SearchResult{Similarity: result.Scores[i]}
			if idCol, ok := result.IDs.(*entity.ColumnVarChar); ok {
				sr.ID = idCol.Data()[i]
			}
			sr.Payload = payloadAt(result.Fields, i)
			out = append(out, sr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })

	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

// DeleteByTicker 删除某个 ticker 的全部分块
func (r *Repository) DeleteByTicker(ctx context.Context, ticker string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteByTicker",
		trace.WithAttributes(
			attribute.String("collection", r.collection),
			attribute.String("ticker", ticker),
		))
	defer span.End()
	defer func() { r.observe("delete", err) }()

	if err := r.client.milvus.Delete(ctx, r.collName(), "", tickerExpr(ticker)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete ticker %s: %w", ticker, err)
	}
	return nil
}

// ListFileNames 分页查询 file_name 字段并去重排序
func (r *Repository) ListFileNames(ctx context.Context) (_ []string, err error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "milvus.ListFileNames",
		trace.WithAttributes(attribute.String("collection", r.collection)))
	defer span.End()
	defer func() { r.observe("list", err) }()

	seen := make(map[string]struct{})
	expr := domain.PayloadFileName + ` != ""`
	for offset := 0; offset < queryWindow; offset += queryPageSize {
		limit := queryPageSize
		if offset+limit > queryWindow {
			limit = queryWindow - offset
		}
		rs, err := r.client.milvus.Query(ctx,
			r.collName(),
			[]string{},
			expr,
			[]string{domain.PayloadFileName},
			client.WithOffset(int64(offset)),
			client.WithLimit(int64(limit)),
		)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to query file names: %w", err)
		}
		col, ok := rs.GetColumn(domain.PayloadFileName).(*entity.ColumnVarChar)
		if !ok {
			break
		}
		names := col.Data()
		for _, n := range names {
			seen[n] = struct{}{}
		}
		if len(names) < limit {
			break
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Ping 连通性检查
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	return r.client.HealthCheck(ctx, r.collection)
}

func (r *Repository) observe(op string, err error) {
	metrics.VectorOpsTotal.WithLabelValues(storeLabel, op, metrics.Status(err)).Inc()
}

// payloadAt 从结果列中读取第 i 行载荷
func payloadAt(fields client.ResultSet, i int) domain.ChunkPayload {
	str := func(name string) string {
		if col, ok := fields.GetColumn(name).(*entity.ColumnVarChar); ok && i < col.Len() {
			return col.Data()[i]
		}
		return ""
	}
	p := domain.ChunkPayload{
		FileID:          str(domain.PayloadFileID),
		FileName:        str(domain.PayloadFileName),
		Ticker:          str(domain.PayloadTicker),
		CompanyName:     str(domain.PayloadCompanyName),
		ConformedPeriod: str(domain.PayloadConformedPeriod),
		ReportType:      str(domain.PayloadReportType),
		ItemName:        str(domain.PayloadItemName),
		Text:            str(domain.PayloadText),
		Quarter:         str(domain.PayloadQuarter),
	}
	if col, ok := fields.GetColumn(domain.PayloadYear).(*entity.ColumnInt64); ok && i < col.Len() {
		p.Year = int(col.Data()[i])
	}
	return p
}
