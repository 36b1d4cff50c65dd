package entity

import (
	"fmt"
)

// 向量记录载荷字段名，各向量库实现共用
const (
	PayloadFileID          = "file_id"
	PayloadFileName        = "file_name"
	PayloadTicker          = "ticker"
	PayloadCompanyName     = "company_name"
	PayloadConformedPeriod = "conformed_period"
	PayloadReportType      = "report_type"
	PayloadItemName        = "item_name"
	PayloadText            = "text"
	PayloadYear            = "year"
	PayloadQuarter         = "quarter"
)

// ChunkPayload 分块元数据
type ChunkPayload struct {
	FileID          string `json:"file_id"`
	FileName        string `json:"file_name"`
	Ticker          string `json:"ticker"`
	CompanyName     string `json:"company_name"`
	ConformedPeriod string `json:"conformed_period"`
	ReportType      string `json:"report_type"`
	ItemName        string `json:"item_name"`
	Text            string `json:"text"`
	Year            int    `json:"year"`
	Quarter         string `json:"quarter"`
}

// Field 按载荷字段名取值，用于过滤匹配
func (p *ChunkPayload) Field(name string) (any, bool) {
	switch name {
	case PayloadFileID:
		return p.FileID, true
	case PayloadFileName:
		return p.FileName, true
	case PayloadTicker:
		return p.Ticker, true
	case PayloadCompanyName:
		return p.CompanyName, true
	case PayloadConformedPeriod:
		return p.ConformedPeriod, true
	case PayloadReportType:
		return p.ReportType, true
	case PayloadItemName:
		return p.ItemName, true
	case PayloadText:
		return p.Text, true
	case PayloadYear:
		return p.Year, true
	case PayloadQuarter:
		return p.Quarter, true
	default:
		return nil, false
	}
}

// VectorRecord 写入向量库的记录，创建后不再修改
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload ChunkPayload
}

// BuildFileID 生成 report_type_ticker_period_item_chunkindex 形式的稳定标识
func BuildFileID(s *NormalizedSection, chunkIndex int) string {
	return fmt.Sprintf("%s_%s_%s_%s_%d", s.ReportType, s.Ticker, s.ConformedPeriod(), s.ItemName, chunkIndex)
}

// NewChunkPayload 由条目与分块构造载荷
func NewChunkPayload(s *NormalizedSection, chunkIndex int, text string) ChunkPayload {
	return ChunkPayload{
		FileID:          BuildFileID(s, chunkIndex),
		FileName:        s.FileName,
		Ticker:          s.Ticker,
		CompanyName:     s.CompanyName,
		ConformedPeriod: s.ConformedPeriod(),
		ReportType:      s.ReportType,
		ItemName:        s.ItemName,
		Text:            text,
		Year:            s.Year,
		Quarter:         s.Quarter,
	}
}
