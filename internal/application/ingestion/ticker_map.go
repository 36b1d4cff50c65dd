package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TickerResolver CIK 到 ticker 的静态映射
type TickerResolver interface {
	Ticker(cik string) (string, bool)
}

// TickerMap 以规范化 CIK（去前导零）为键的映射
type TickerMap map[string]string

// Ticker 查找 ticker，CIK 前导零不影响匹配
func (m TickerMap) Ticker(cik string) (string, bool) {
	t, ok := m[normalizeCIK(cik)]
	return t, ok
}

// Add 添加一条映射
func (m TickerMap) Add(cik, ticker string) {
	m[normalizeCIK(cik)] = strings.ToUpper(strings.TrimSpace(ticker))
}

func normalizeCIK(cik string) string {
	s := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if s == "" && strings.TrimSpace(cik) != "" {
		return "0"
	}
	return s
}

// tickerMapFile SEC company_tickers_exchange.json 格式
type tickerMapFile struct {
	Fields []string            `json:"fields"`
	Data   [][]json.RawMessage `json:"data"`
}

// LoadTickerMap 从文件加载映射
func LoadTickerMap(path string) (TickerMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticker map %s: %w", path, err)
	}
	defer f.Close()
	return ParseTickerMap(f)
}

// ParseTickerMap 解析 {fields:[...], data:[[...]]} 格式
// 同一 CIK 出现多次时保留第一条。
func ParseTickerMap(r io.Reader) (TickerMap, error) {
	var doc tickerMapFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode ticker map: %w", err)
	}

	cikIdx, tickerIdx := -1, -1
	for i, f := range doc.Fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "cik":
			cikIdx = i
		case "ticker":
			tickerIdx = i
		}
	}
	if cikIdx < 0 || tickerIdx < 0 {
		return nil, fmt.Errorf("ticker map fields must include cik and ticker, got %v", doc.Fields)
	}

	m := make(TickerMap, len(doc.Data))
	for row, values := range doc.Data {
		if cikIdx >= len(values) || tickerIdx >= len(values) {
			return nil, fmt.Errorf("ticker map row %d has %d columns", row, len(values))
		}
		cik, err := scalarString(values[cikIdx])
		if err != nil {
			return nil, fmt.Errorf("ticker map row %d cik: %w", row, err)
		}
		ticker, err := scalarString(values[tickerIdx])
		if err != nil {
			return nil, fmt.Errorf("ticker map row %d ticker: %w", row, err)
		}
		if cik == "" || ticker == "" {
			continue
		}
		if _, exists := m.Ticker(cik); exists {
			continue
		}
		m.Add(cik, ticker)
	}
	return m, nil
}

func scalarString(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch vv := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(vv), nil
	case float64:
		return strconv.FormatInt(int64(vv), 10), nil
	default:
		return "", fmt.Errorf("unexpected value %s", string(raw))
	}
}
