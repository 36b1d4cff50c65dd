// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	domain "filing-rag-api/internal/domain/entity"
)

const (
	// CollectionFilingChunks 申报分块集合
	CollectionFilingChunks = "filing_chunks"

	// DefaultVectorDimension 默认向量维度 (text-embedding-3-small)
	DefaultVectorDimension = 1536

	fieldID     = "id"
	fieldVector = "vector"
)

func varcharField(name string, maxLength int) *entity.Field {
	return &entity.Field{
		Name:     name,
		DataType: entity.FieldTypeVarChar,
		TypeParams: map[string]string{
			"max_length": strconv.Itoa(maxLength),
		},
	}
}

// FilingChunksSchema 申报分块 Collection Schema
func FilingChunksSchema(collection string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: collection,
		Description:    "10-K/10-Q filing chunks for filtered semantic search",
		Fields: []*entity.Field{
			{
				Name:       fieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     fieldVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dim),
				},
			},
			varcharField(domain.PayloadFileID, 256),
			varcharField(domain.PayloadFileName, 512),
			varcharField(domain.PayloadTicker, 16),
			varcharField(domain.PayloadCompanyName, 256),
			varcharField(domain.PayloadConformedPeriod, 16),
			varcharField(domain.PayloadReportType, 16),
			varcharField(domain.PayloadItemName, 16),
			varcharField(domain.PayloadText, 65535),
			{
				Name:     domain.PayloadYear,
				DataType: entity.FieldTypeInt64,
			},
			varcharField(domain.PayloadQuarter, 8),
		},
	}
}

// outputFields 检索时返回的载荷字段
var outputFields = []string{
	domain.PayloadFileID,
	domain.PayloadFileName,
	domain.PayloadTicker,
	domain.PayloadCompanyName,
	domain.PayloadConformedPeriod,
	domain.PayloadReportType,
	domain.PayloadItemName,
	domain.PayloadText,
	domain.PayloadYear,
	domain.PayloadQuarter,
}
