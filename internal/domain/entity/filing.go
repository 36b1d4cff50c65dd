// Package entity 定义领域实体
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 申报文件中的保留字段
const (
	FieldCIK            = "cik"
	FieldCompany        = "company"
	FieldPeriodOfReport = "period_of_report"
)

// FilingRecord 原始申报文件（10-K/10-Q）
// Items 为条目名到原文的映射，缺失的条目视为空内容。
type FilingRecord struct {
	CIK            string
	Company        string
	PeriodOfReport string
	Items          map[string]string
}

// Item 返回条目原文，缺失时返回空串
func (f *FilingRecord) Item(name string) string {
	if f == nil || f.Items == nil {
		return ""
	}
	return f.Items[name]
}

// UnmarshalJSON 解析申报 JSON，cik 兼容字符串与数字
func (f *FilingRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	cik, err := decodeCIK(raw[FieldCIK])
	if err != nil {
		return err
	}
	company, err := decodeOptionalString(raw[FieldCompany])
	if err != nil {
		return fmt.Errorf("company: %w", err)
	}
	period, err := decodeOptionalString(raw[FieldPeriodOfReport])
	if err != nil {
		return fmt.Errorf("period_of_report: %w", err)
	}

	items := make(map[string]string, len(raw))
	for key, value := range raw {
		switch key {
		case FieldCIK, FieldCompany, FieldPeriodOfReport:
			continue
		}
		s, err := decodeOptionalString(value)
		if err != nil {
			// 非文本字段（如 htm 元数据数组）不是条目
			continue
		}
		items[key] = s
	}

	*f = FilingRecord{
		CIK:            cik,
		Company:        company,
		PeriodOfReport: period,
		Items:          items,
	}
	return nil
}

func decodeCIK(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("cik is missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("cik: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("cik: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return "", fmt.Errorf("cik is not an integer: %s", n.String())
	}
	return n.String(), nil
}

func decodeOptionalString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

// NormalizedSection 规范化后的申报条目
type NormalizedSection struct {
	FileName    string
	Ticker      string
	CompanyName string
	Period      time.Time
	Year        int
	Quarter     string
	ReportType  string
	ItemName    string
	Content     string
}

// ConformedPeriod 返回 ISO 日期 (YYYY-MM-DD)
func (s *NormalizedSection) ConformedPeriod() string {
	return s.Period.Format(time.DateOnly)
}
