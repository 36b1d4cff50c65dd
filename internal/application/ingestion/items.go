package ingestion

import (
	"fmt"
	"strings"
)

// FormProfile 描述一种报告类型的条目结构
type FormProfile struct {
	ReportType string
	// Quarter 写入载荷的季度标签
	Quarter string
	// Items 条目规范顺序
	Items    []string
	required map[string]struct{}
}

// IsRequired 判断条目是否为必填
func (p FormProfile) IsRequired(item string) bool {
	_, ok := p.required[item]
	return ok
}

// NewFormProfile 创建报告类型描述
func NewFormProfile(reportType, quarter string, items []string, required []string) FormProfile {
	req := make(map[string]struct{}, len(required))
	for _, r := range required {
		req[r] = struct{}{}
	}
	return FormProfile{
		ReportType: reportType,
		Quarter:    quarter,
		Items:      append([]string(nil), items...),
		required:   req,
	}
}

// Form10K 年报（10-K）的 23 个标准条目
var Form10K = NewFormProfile("10-K", "Q4",
	[]string{
		"item_1", "item_1A", "item_1B", "item_1C", "item_2", "item_3", "item_4",
		"item_5", "item_6", "item_7", "item_7A", "item_8", "item_9", "item_9A",
		"item_9B", "item_9C", "item_10", "item_11", "item_12", "item_13", "item_14",
		"item_15", "item_16",
	},
	[]string{
		"item_1", "item_1A", "item_5", "item_7", "item_8",
		"item_9A", "item_10", "item_11", "item_12", "item_15",
	},
)

// ProfileFor 按报告类型返回条目结构，目前仅支持 10-K
func ProfileFor(reportType string) (FormProfile, error) {
	switch strings.ToUpper(strings.TrimSpace(reportType)) {
	case "", Form10K.ReportType:
		return Form10K, nil
	default:
		return FormProfile{}, fmt.Errorf("unsupported report type %q", reportType)
	}
}
