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

// SynthesizeChain 基于检索结果生成分析回答
type SynthesizeChain struct {
	promptChain[*wfmodel.SynthesizeInput]
}

func NewSynthesizeChain(factory workflowport.ChatModelFactory, call config.CallConfig) *SynthesizeChain {
	return &SynthesizeChain{promptChain[*wfmodel.SynthesizeInput]{
		name:    "synthesize",
		purpose: llmctx.PurposeSynthesize,
		factory: factory,
		call:    call,
		prompt:  workflowprompt.PromptAnswerSynthesisV1,
		vars: func(in *wfmodel.SynthesizeInput) map[string]any {
			return map[string]any{
				"query":        strings.TrimSpace(in.Query),
				"result_count": in.ResultCount,
				"results":      in.ResultsBlock,
			}
		},
	}}
}

func (c *SynthesizeChain) Invoke(ctx context.Context, in *wfmodel.SynthesizeInput) (*schema.Message, error) {
	if c == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	return c.invoke(ctx, in)
}
