package retrieval

import (
	"fmt"
	"strings"

	"filing-rag-api/internal/domain/entity"
)

// BuildPromptContext 将检索结果格式化为 "Result N:" 编号块。
// maxRunesPerResult <= 0 时不截断。
func BuildPromptContext(results []*entity.SearchResult, maxResults int, maxRunesPerResult int) string {
	if len(results) == 0 {
		return ""
	}
	n := len(results)
	if maxResults > 0 && n > maxResults {
		n = maxResults
	}

	blocks := make([]string, 0, n)
	for i := 0; i < n; i++ {
		txt := strings.TrimSpace(results[i].Payload.Text)
		if maxRunesPerResult > 0 {
			txt = truncateRunes(txt, maxRunesPerResult)
		}
		blocks = append(blocks, fmt.Sprintf("Result %d:\n%s", i+1, txt))
	}
	return strings.Join(blocks, "\n\n")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
