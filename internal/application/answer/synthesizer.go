package answer

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/domain/entity"
	llmctx "filing-rag-api/internal/domain/service"
	wfmodel "filing-rag-api/internal/workflow/model"
)

// SynthesizeRunner 执行答案生成调用链
type SynthesizeRunner interface {
	Invoke(ctx context.Context, in *wfmodel.SynthesizeInput) (*schema.Message, error)
}

// Synthesizer 基于检索结果生成回答
type Synthesizer struct {
	chain             SynthesizeRunner
	maxRunesPerResult int
}

// NewSynthesizer maxRunesPerResult <= 0 时不截断结果文本
func NewSynthesizer(chain SynthesizeRunner, maxRunesPerResult int) *Synthesizer {
	return &Synthesizer{chain: chain, maxRunesPerResult: maxRunesPerResult}
}

// Synthesize 生成回答，results 为空时直接返回 NoResultsMessage
func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []*entity.SearchResult) (string, *schema.Message, error) {
	if len(results) == 0 {
		return NoResultsMessage, nil, nil
	}
	msg, err := s.chain.Invoke(ctx, &wfmodel.SynthesizeInput{
		Query:        strings.TrimSpace(query),
		ResultCount:  len(results),
		ResultsBlock: retrieval.BuildPromptContext(results, 0, s.maxRunesPerResult),
	})
	if err != nil {
		return "", nil, &LLMError{Purpose: llmctx.PurposeSynthesize, Err: err}
	}
	return strings.TrimSpace(msg.Content), msg, nil
}
