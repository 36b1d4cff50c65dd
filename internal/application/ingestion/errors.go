package ingestion

import (
	"errors"
	"fmt"
)

// LookupError CIK 无法映射到 ticker
type LookupError struct {
	CIK string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no ticker found for cik %q", e.CIK)
}

// ValidationError 条目内容未通过校验，整份申报被跳过
type ValidationError struct {
	Item   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("item %s failed validation: %s", e.Item, e.Reason)
}

// ParseError 申报 JSON 或日期无法解析
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UpstreamError 外部依赖（embedding / 向量库）调用失败
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// 失败阶段，用于报告与指标标签
const (
	StageLookup     = "lookup"
	StageValidation = "validation"
	StageParse      = "parse"
	StageUpstream   = "upstream"
	StageMove       = "move"
	StageRead       = "read"
)

// Stage 返回错误所属阶段
func Stage(err error) string {
	var (
		lookupErr     *LookupError
		validationErr *ValidationError
		parseErr      *ParseError
		upstreamErr   *UpstreamError
		moveErr       *moveError
	)
	switch {
	case errors.As(err, &lookupErr):
		return StageLookup
	case errors.As(err, &validationErr):
		return StageValidation
	case errors.As(err, &parseErr):
		return StageParse
	case errors.As(err, &upstreamErr):
		return StageUpstream
	case errors.As(err, &moveErr):
		return StageMove
	default:
		return StageRead
	}
}

var errEmptyPeriod = errors.New("period_of_report is empty")

type moveError struct {
	Err error
}

func (e *moveError) Error() string { return fmt.Sprintf("failed to move file: %v", e.Err) }

func (e *moveError) Unwrap() error { return e.Err }
