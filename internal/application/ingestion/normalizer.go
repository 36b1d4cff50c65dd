package ingestion

import (
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"

	"filing-rag-api/internal/domain/entity"
)

// Normalizer 将原始申报拆分为规范化条目
type Normalizer struct {
	tickers TickerResolver
	profile FormProfile
}

// NewNormalizer 创建 Normalizer
func NewNormalizer(tickers TickerResolver, profile FormProfile) *Normalizer {
	return &Normalizer{tickers: tickers, profile: profile}
}

// Normalize 按条目规范顺序产出非空条目。
// 任一条目校验失败则整份申报失败，不返回部分结果。
func (n *Normalizer) Normalize(fileName string, rec *entity.FilingRecord) ([]*entity.NormalizedSection, error) {
	ticker, ok := n.tickers.Ticker(rec.CIK)
	if !ok {
		return nil, &LookupError{CIK: rec.CIK}
	}

	period, err := parsePeriod(rec.PeriodOfReport)
	if err != nil {
		return nil, &ParseError{Field: entity.FieldPeriodOfReport, Err: err}
	}

	sections := make([]*entity.NormalizedSection, 0, len(n.profile.Items))
	for _, item := range n.profile.Items {
		content := rec.Item(item)
		if err := checkContent(item, content, n.profile.IsRequired(item)); err != nil {
			return nil, err
		}
		if content == "" {
			continue
		}
		sections = append(sections, &entity.NormalizedSection{
			FileName:    fileName,
			Ticker:      ticker,
			CompanyName: rec.Company,
			Period:      period,
			Year:        period.Year(),
			Quarter:     n.profile.Quarter,
			ReportType:  n.profile.ReportType,
			ItemName:    item,
			Content:     content,
		})
	}
	return sections, nil
}

func parsePeriod(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyPeriod
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// checkContent 校验条目内容以条目名开头。
// 空内容只允许出现在非必填条目上，仅含空白的内容不算空。
func checkContent(item, content string, required bool) error {
	if content == "" {
		if required {
			return &ValidationError{Item: item, Reason: "required item is empty"}
		}
		return nil
	}

	cleaned := cleanHeading(content)
	want := strings.ToLower(strings.ReplaceAll(item, "_", ""))
	if !strings.HasPrefix(cleaned, want) {
		return &ValidationError{Item: item, Reason: "content does not start with item heading"}
	}
	return nil
}

// cleanHeading 去除全部空白，各删除第一个 '.' ':' '-' 后转小写
func cleanHeading(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	for _, p := range []string{".", ":", "-"} {
		s = strings.Replace(s, p, "", 1)
	}
	return strings.ToLower(s)
}
