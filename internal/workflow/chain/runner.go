package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"filing-rag-api/internal/config"
	llmctx "filing-rag-api/internal/domain/service"
	workflowport "filing-rag-api/internal/workflow/port"
	workflowprompt "filing-rag-api/internal/workflow/prompt"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

// promptChain 模板 -> LLM 的单轮调用链
type promptChain[I any] struct {
	name    string
	purpose string
	factory workflowport.ChatModelFactory
	call    config.CallConfig
	vars    func(in I) map[string]any
	prompt  workflowprompt.PromptID

	chainOnce sync.Once
	chain     compose.Runnable[I, *schema.Message]
	chainErr  error
}

type chainState[I any] struct {
	In       I
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *promptChain[I]) invoke(ctx context.Context, in I) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.build(context.Background())
	})
	if c.chainErr != nil {
		return nil, c.chainErr
	}
	return c.chain.Invoke(ctx, in)
}

func (c *promptChain[I]) build(ctx context.Context) (compose.Runnable[I, *schema.Message], error) {
	chain := compose.NewChain[I, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in I) (*chainState[I], error) {
			tpl, err := defaultPromptRegistry.ChatTemplate(c.prompt)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, c.vars(in))
			if err != nil {
				return nil, err
			}
			return &chainState[I]{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName(c.name+".template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *chainState[I]) (*chainState[I], error) {
			if st == nil {
				return nil, fmt.Errorf("state is nil")
			}
			ctx = llmctx.WithPurposeProvider(ctx, c.purpose, c.ProviderName())
			chatModel, err := c.factory.ForCall(ctx, c.call)
			if err != nil {
				return nil, err
			}
			outMsg, err := chatModel.Generate(ctx, st.Messages)
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName(c.name+".llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *chainState[I]) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName(c.name+".finalize"),
	)

	return chain.Compile(ctx)
}

// ProviderName 实际使用的提供商
func (c *promptChain[I]) ProviderName() string {
	return strings.TrimSpace(c.factory.ProviderName(c.call.Provider))
}

// ModelName 配置的模型名
func (c *promptChain[I]) ModelName() string {
	return c.call.Model
}
