package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFilters 未提供任何过滤条件
	ErrNoFilters = errors.New("at least one query filter is required")
	// ErrEmptyQuery 查询文本为空
	ErrEmptyQuery = errors.New("query is empty")
	// ErrRerankUnavailable 请求重排但未配置打分器
	ErrRerankUnavailable = errors.New("rerank requested but no relevance scorer is configured")
)

// 检索阶段
const (
	OpValidate = "validate"
	OpEmbed    = "embed"
	OpSearch   = "search"
	OpRerank   = "rerank"
)

// SearchError 检索失败，Op 标明失败阶段
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("retrieval %s failed: %v", e.Op, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }
