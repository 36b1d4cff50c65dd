package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"filing-rag-api/internal/config"
	llmctx "filing-rag-api/internal/domain/service"
	wfmodel "filing-rag-api/internal/workflow/model"
	workflowport "filing-rag-api/internal/workflow/port"
	workflowprompt "filing-rag-api/internal/workflow/prompt"
)

// InterpretChain 将自然语言查询交给 LLM 转换为过滤条件 JSON
type InterpretChain struct {
	promptChain[*wfmodel.InterpretInput]
}

func NewInterpretChain(factory workflowport.ChatModelFactory, call config.CallConfig) *InterpretChain {
	return &InterpretChain{promptChain[*wfmodel.InterpretInput]{
		name:    "interpret",
		purpose: llmctx.PurposeInterpret,
		factory: factory,
		call:    call,
		prompt:  workflowprompt.PromptQueryInterpretV1,
		vars: func(in *wfmodel.InterpretInput) map[string]any {
			return map[string]any{
				"query":           strings.TrimSpace(in.Query),
				"default_year":    in.DefaultYear,
				"default_quarter": in.DefaultQuarter,
			}
		},
	}}
}

func (c *InterpretChain) Invoke(ctx context.Context, in *wfmodel.InterpretInput) (*schema.Message, error) {
	if c == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	return c.invoke(ctx, in)
}
