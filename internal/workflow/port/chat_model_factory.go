package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"

	"filing-rag-api/internal/config"
)

// ChatModelFactory 定义工作流层对 LLM ChatModel 的最小依赖（port）。
type ChatModelFactory interface {
	ForCall(ctx context.Context, call config.CallConfig) (model.BaseChatModel, error)
	ProviderName(name string) string
}
