package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// QueryFilter 单个实体的结构化检索条件
type QueryFilter struct {
	Ticker     string `json:"ticker"`
	Year       int    `json:"year"`
	Quarter    string `json:"quarter"`
	ReportType string `json:"report_type"`
}

// UnmarshalJSON 兼容 year 为字符串或数字
func (q *QueryFilter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ticker     string          `json:"ticker"`
		Year       json.RawMessage `json:"year"`
		Quarter    string          `json:"quarter"`
		ReportType string          `json:"report_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	year, err := decodeYear(raw.Year)
	if err != nil {
		return err
	}
	*q = QueryFilter{
		Ticker:     strings.TrimSpace(raw.Ticker),
		Year:       year,
		Quarter:    strings.TrimSpace(raw.Quarter),
		ReportType: strings.TrimSpace(raw.ReportType),
	}
	return nil
}

func decodeYear(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("year: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
	} else {
		s = string(raw)
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("year is not an integer: %q", s)
	}
	return year, nil
}

// Validate 检查四个字段均已填写
func (q QueryFilter) Validate() error {
	var missing []string
	if q.Ticker == "" {
		missing = append(missing, "ticker")
	}
	if q.Year <= 0 {
		missing = append(missing, "year")
	}
	if q.Quarter == "" {
		missing = append(missing, "quarter")
	}
	if q.ReportType == "" {
		missing = append(missing, "report_type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("query filter missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Conjunction 将条件转换为四字段等值合取
func (q QueryFilter) Conjunction() Conjunction {
	return Conjunction{
		{Field: PayloadTicker, Value: q.Ticker},
		{Field: PayloadYear, Value: q.Year},
		{Field: PayloadQuarter, Value: q.Quarter},
		{Field: PayloadReportType, Value: q.ReportType},
	}
}

// SearchResult 检索结果
type SearchResult struct {
	ID         string       `json:"id"`
	Payload    ChunkPayload `json:"payload"`
	Similarity float32      `json:"similarity"`
	// Relevance 仅在重排后设置
	Relevance *float64 `json:"relevance,omitempty"`
}
