package model

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// InterpretInput 查询解析输入
type InterpretInput struct {
	Query          string
	DefaultYear    int
	DefaultQuarter string
}

// SynthesizeInput 答案生成输入，ResultsBlock 为编号后的检索结果
type SynthesizeInput struct {
	Query        string
	ResultCount  int
	ResultsBlock string
}

type LLMUsageMeta struct {
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// UsageFromMessage 从模型回复中提取用量
func UsageFromMessage(provider, model string, msg *schema.Message) LLMUsageMeta {
	meta := LLMUsageMeta{Provider: provider, Model: model, GeneratedAt: time.Now()}
	if msg != nil && msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		meta.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}
	return meta
}
