package answer

import (
	"errors"
	"fmt"
)

// NoResultsMessage 检索无结果时的固定回答
const NoResultsMessage = "No relevant financial data found."

// ErrEmptyQuery 查询为空
var ErrEmptyQuery = errors.New("query is empty")

// InterpretError 模型回复无法转换为过滤条件，Reply 保留模型原文
// （例如要求用户补充 ticker）。
type InterpretError struct {
	Reply  string
	Reason string
}

func (e *InterpretError) Error() string {
	return fmt.Sprintf("failed to interpret query: %s", e.Reason)
}

// LLMError LLM 调用失败
type LLMError struct {
	Purpose string
	Err     error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s call failed: %v", e.Purpose, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }
