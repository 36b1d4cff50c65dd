// Package answer 实现查询解析、答案生成与问答编排
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"filing-rag-api/internal/domain/entity"
	llmctx "filing-rag-api/internal/domain/service"
	wfmodel "filing-rag-api/internal/workflow/model"
	wfnode "filing-rag-api/internal/workflow/node"
	"filing-rag-api/pkg/logger"
)

const (
	DefaultYear    = 2023
	DefaultQuarter = "Q4"

	reportType10K = "10-K"
	reportType10Q = "10-Q"
)

// InterpretRunner 执行解析调用链
type InterpretRunner interface {
	Invoke(ctx context.Context, in *wfmodel.InterpretInput) (*schema.Message, error)
}

// Interpreter 自然语言查询 -> 结构化过滤条件
type Interpreter struct {
	chain          InterpretRunner
	defaultYear    int
	defaultQuarter string
}

// NewInterpreter 创建解析器，defaultYear / defaultQuarter 为空时使用 2023 / Q4
func NewInterpreter(chain InterpretRunner, defaultYear int, defaultQuarter string) *Interpreter {
	if defaultYear <= 0 {
		defaultYear = DefaultYear
	}
	if strings.TrimSpace(defaultQuarter) == "" {
		defaultQuarter = DefaultQuarter
	}
	return &Interpreter{chain: chain, defaultYear: defaultYear, defaultQuarter: normalizeQuarter(defaultQuarter)}
}

// Interpret 调用 LLM 生成过滤条件列表，缺失的 year / quarter / report_type 使用默认值补齐
func (i *Interpreter) Interpret(ctx context.Context, query string) ([]entity.QueryFilter, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	msg, err := i.chain.Invoke(ctx, &wfmodel.InterpretInput{
		Query:          query,
		DefaultYear:    i.defaultYear,
		DefaultQuarter: i.defaultQuarter,
	})
	if err != nil {
		return nil, &LLMError{Purpose: llmctx.PurposeInterpret, Err: err}
	}

	filters, err := i.ParseFilters(msg.Content)
	if err != nil {
		logger.Warn(ctx, "query interpretation rejected", "error", err)
		return nil, err
	}
	return filters, nil
}

// ParseFilters 解析模型回复，接受单个对象或对象数组
func (i *Interpreter) ParseFilters(reply string) ([]entity.QueryFilter, error) {
	raw, ok := wfnode.ExtractJSON(reply)
	if !ok {
		return nil, &InterpretError{Reply: strings.TrimSpace(reply), Reason: "reply is not valid JSON"}
	}

	var filters []entity.QueryFilter
	if strings.HasPrefix(raw, "{") {
		var one entity.QueryFilter
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return nil, &InterpretError{Reply: strings.TrimSpace(reply), Reason: err.Error()}
		}
		filters = []entity.QueryFilter{one}
	} else if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, &InterpretError{Reply: strings.TrimSpace(reply), Reason: err.Error()}
	}
	if len(filters) == 0 {
		return nil, &InterpretError{Reply: strings.TrimSpace(reply), Reason: "no filters generated"}
	}

	out := make([]entity.QueryFilter, 0, len(filters))
	seen := make(map[entity.QueryFilter]struct{}, len(filters))
	for idx, f := range filters {
		f = i.applyDefaults(f)
		if err := f.Validate(); err != nil {
			return nil, &InterpretError{Reply: strings.TrimSpace(reply), Reason: fmt.Sprintf("filter %d: %v", idx, err)}
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

func (i *Interpreter) applyDefaults(f entity.QueryFilter) entity.QueryFilter {
	f.Ticker = strings.ToUpper(strings.TrimSpace(f.Ticker))
	if f.Year <= 0 {
		f.Year = i.defaultYear
	}
	f.Quarter = normalizeQuarter(f.Quarter)
	if f.Quarter == "" {
		f.Quarter = i.defaultQuarter
	}
	f.ReportType = strings.ToUpper(strings.TrimSpace(f.ReportType))
	if f.ReportType == "" {
		if f.Quarter == "Q4" {
			f.ReportType = reportType10K
		} else {
			f.ReportType = reportType10Q
		}
	}
	return f
}

// normalizeQuarter 将 "4"、"q4" 统一为 "Q4"
func normalizeQuarter(q string) string {
	q = strings.ToUpper(strings.TrimSpace(q))
	if len(q) == 1 && q[0] >= '1' && q[0] <= '4' {
		return "Q" + q
	}
	return q
}
