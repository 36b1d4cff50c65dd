package milvus

import (
	"fmt"
	"strconv"
	"strings"

	domain "filing-rag-api/internal/domain/entity"
)

// RenderFilter 将析取范式渲染为 Milvus 布尔表达式，
// 例如 (ticker == "AAPL" && year == 2023) || (ticker == "MSFT" && year == 2022)
func RenderFilter(d domain.Disjunction) (string, error) {
	if len(d) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(d))
	for _, conj := range d {
		terms := make([]string, 0, len(conj))
		for _, m := range conj {
			lit, err := literal(m.Value)
			if err != nil {
				return "", fmt.Errorf("field %s: %w", m.Field, err)
			}
			terms = append(terms, m.Field+" == "+lit)
		}
		if len(terms) == 0 {
			continue
		}
		parts = append(parts, "("+strings.Join(terms, " && ")+")")
	}
	return strings.Join(parts, " || "), nil
}

func literal(v any) (string, error) {
	switch vv := v.(type) {
	case string:
		return quote(vv), nil
	case int:
		return strconv.Itoa(vv), nil
	case int64:
		return strconv.FormatInt(vv, 10), nil
	default:
		return "", fmt.Errorf("unsupported filter value type %T", v)
	}
}

// tickerExpr 单 ticker 删除表达式
func tickerExpr(ticker string) string {
	return domain.PayloadTicker + " == " + quote(ticker)
}

// Milvus 字符串字面量只需转义反斜杠与双引号，其余字符原样保留
var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}
