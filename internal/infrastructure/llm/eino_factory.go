// Package llm 提供基于 Eino 的 ChatModel 工厂
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"filing-rag-api/internal/config"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.LLMConfig) *EinoFactory {
	return &EinoFactory{
		config: cfg,
		models: make(map[string]model.BaseChatModel),
	}
}

// ProviderName 解析实际使用的提供商名称
func (f *EinoFactory) ProviderName(name string) string {
	if name == "" {
		return f.config.DefaultProvider
	}
	return name
}

// Get 获取指定提供商的 ChatModel，使用提供商默认参数
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	return f.ForCall(ctx, config.CallConfig{Provider: name, Temperature: -1})
}

// ForCall 按用途参数获取 ChatModel
// Model 为空时使用提供商默认模型；Temperature 小于 0 时使用提供商默认温度。
func (f *EinoFactory) ForCall(ctx context.Context, call config.CallConfig) (model.BaseChatModel, error) {
	name := f.ProviderName(call.Provider)
	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	modelName := call.Model
	if modelName == "" {
		modelName = providerCfg.Model
	}
	maxTokens := call.MaxTokens
	if maxTokens <= 0 {
		maxTokens = providerCfg.MaxTokens
	}
	temperature := call.Temperature
	if temperature < 0 {
		temperature = float32(providerCfg.Temperature)
	}
	key := fmt.Sprintf("%s|%s|%g|%d", name, modelName, temperature, maxTokens)

	f.mu.RLock()
	m, ok := f.models[key]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[key]; ok {
		return m, nil
	}

	cmCfg := &openai.ChatModelConfig{
		APIKey:      providerCfg.APIKey,
		BaseURL:     providerCfg.BaseURL,
		Model:       modelName,
		Temperature: &temperature,
		Timeout:     providerCfg.Timeout,
	}
	if maxTokens > 0 {
		cmCfg.MaxTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, cmCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[key] = chatModel
	return chatModel, nil
}
