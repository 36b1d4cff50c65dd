package answer

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/domain/entity"
	wfmodel "filing-rag-api/internal/workflow/model"
	"filing-rag-api/pkg/logger"
	"filing-rag-api/pkg/tracer"
)

// Searcher 过滤检索
type Searcher interface {
	Search(ctx context.Context, in retrieval.SearchInput) ([]*entity.SearchResult, error)
}

// AskInput 问答输入
type AskInput struct {
	Query  string
	Rerank bool
}

// Answer 问答结果，NoData 为 true 时 Answer 为固定提示
type Answer struct {
	Query   string                 `json:"query"`
	Filters []entity.QueryFilter   `json:"filters"`
	Answer  string                 `json:"answer"`
	Results []*entity.SearchResult `json:"results"`
	NoData  bool                   `json:"no_data"`
	Usage   *wfmodel.LLMUsageMeta  `json:"usage,omitempty"`
}

// Agent 解析 -> 检索 -> 生成 的问答编排
type Agent struct {
	interpreter *Interpreter
	searcher    Searcher
	synthesizer *Synthesizer

	provider string
	model    string
}

// AgentOption 配置 Agent
type AgentOption func(*Agent)

// WithUsageLabels 设置回答用量中的提供商与模型名
func WithUsageLabels(provider, model string) AgentOption {
	return func(a *Agent) {
		a.provider = provider
		a.model = model
	}
}

func NewAgent(interpreter *Interpreter, searcher Searcher, synthesizer *Synthesizer, opts ...AgentOption) *Agent {
	a := &Agent{interpreter: interpreter, searcher: searcher, synthesizer: synthesizer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask 执行一次完整问答
func (a *Agent) Ask(ctx context.Context, in AskInput) (*Answer, error) {
	ctx, span := tracer.Start(ctx, "answer.ask")
	defer span.End()
	span.SetAttributes(attribute.Bool("answer.rerank", in.Rerank))

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	filters, err := a.interpreter.Interpret(ctx, query)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("answer.filters", len(filters)))

	results, err := a.searcher.Search(ctx, retrieval.SearchInput{
		Filters: filters,
		Query:   query,
		Rerank:  in.Rerank,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	out := &Answer{Query: query, Filters: filters, Results: results}
	if len(results) == 0 {
		out.Answer = NoResultsMessage
		out.NoData = true
		logger.Info(ctx, "no results for query", "filters", len(filters))
		return out, nil
	}

	text, msg, err := a.synthesizer.Synthesize(ctx, query, results)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	out.Answer = text
	usage := wfmodel.UsageFromMessage(a.provider, a.model, msg)
	out.Usage = &usage

	logger.Info(ctx, "query answered",
		"filters", len(filters),
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
