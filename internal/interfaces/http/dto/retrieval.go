package dto

import (
	"strings"

	"filing-rag-api/internal/domain/entity"
)

// QueryFilterDTO 结构化过滤条件
type QueryFilterDTO struct {
	Ticker     string `json:"ticker" binding:"required,max=16"`
	Year       int    `json:"year" binding:"required,min=1990,max=2100"`
	Quarter    string `json:"quarter" binding:"required,oneof=Q1 Q2 Q3 Q4"`
	ReportType string `json:"report_type" binding:"required,oneof=10-K 10-Q"`
}

// RetrievalSearchRequest 过滤检索请求
type RetrievalSearchRequest struct {
	Filters []QueryFilterDTO `json:"filters" binding:"required,min=1,max=20,dive"`
	Query   string           `json:"query" binding:"required,max=5000"`
	Rerank  bool             `json:"rerank,omitempty"`
	// IncludeContext 为 true 时附带拼接好的提示上下文
	IncludeContext bool `json:"include_context,omitempty"`
}

// SearchResultDTO 检索命中
type SearchResultDTO struct {
	ID              string   `json:"id"`
	FileID          string   `json:"file_id"`
	FileName        string   `json:"file_name"`
	Ticker          string   `json:"ticker"`
	CompanyName     string   `json:"company_name"`
	ConformedPeriod string   `json:"conformed_period"`
	ReportType      string   `json:"report_type"`
	ItemName        string   `json:"item_name"`
	Year            int      `json:"year"`
	Quarter         string   `json:"quarter"`
	Text            string   `json:"text"`
	Similarity      float32  `json:"similarity"`
	Relevance       *float64 `json:"relevance,omitempty"`
}

// RetrievalSearchResponse 过滤检索响应
type RetrievalSearchResponse struct {
	Results []*SearchResultDTO `json:"results"`
	Total   int                `json:"total"`
	Context string             `json:"context,omitempty"`
}

// FilesResponse 已入库文件列表
type FilesResponse struct {
	Files []string `json:"files"`
	Total int      `json:"total"`
}

// PurgeResponse 按 ticker 清除结果
type PurgeResponse struct {
	Ticker  string `json:"ticker"`
	Deleted bool   `json:"deleted"`
}

// ToEntity 转换为领域过滤条件
func (f QueryFilterDTO) ToEntity() entity.QueryFilter {
	return entity.QueryFilter{
		Ticker:     strings.ToUpper(strings.TrimSpace(f.Ticker)),
		Year:       f.Year,
		Quarter:    strings.TrimSpace(f.Quarter),
		ReportType: strings.TrimSpace(f.ReportType),
	}
}

// FiltersToEntity 批量转换过滤条件
func FiltersToEntity(in []QueryFilterDTO) []entity.QueryFilter {
	out := make([]entity.QueryFilter, 0, len(in))
	for _, f := range in {
		out = append(out, f.ToEntity())
	}
	return out
}

// FiltersFromEntity 领域过滤条件转 DTO
func FiltersFromEntity(in []entity.QueryFilter) []QueryFilterDTO {
	out := make([]QueryFilterDTO, 0, len(in))
	for _, f := range in {
		out = append(out, QueryFilterDTO{
			Ticker:     f.Ticker,
			Year:       f.Year,
			Quarter:    f.Quarter,
			ReportType: f.ReportType,
		})
	}
	return out
}

// ToSearchResultDTOs 转换检索命中，保持原有顺序
func ToSearchResultDTOs(results []*entity.SearchResult) []*SearchResultDTO {
	out := make([]*SearchResultDTO, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		p := r.Payload
		out = append(out, &SearchResultDTO{
			ID:              r.ID,
			FileID:          p.FileID,
			FileName:        p.FileName,
			Ticker:          p.Ticker,
			CompanyName:     p.CompanyName,
			ConformedPeriod: p.ConformedPeriod,
			ReportType:      p.ReportType,
			ItemName:        p.ItemName,
			Year:            p.Year,
			Quarter:         p.Quarter,
			Text:            p.Text,
			Similarity:      r.Similarity,
			Relevance:       r.Relevance,
		})
	}
	return out
}
