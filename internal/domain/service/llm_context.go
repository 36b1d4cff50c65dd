package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyPurpose  llmCtxKey = "llm_purpose"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

// LLM 调用用途，用于指标与追踪标签
const (
	PurposeInterpret  = "interpret"
	PurposeSynthesize = "synthesize"
)

func WithPurpose(ctx context.Context, purpose string) context.Context {
	if ctx == nil {
		return nil
	}
	p := strings.TrimSpace(purpose)
	if p == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyPurpose, p)
}

func WithProvider(ctx context.Context, provider string) context.Context {
	if ctx == nil {
		return nil
	}
	p := strings.TrimSpace(provider)
	if p == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyProvider, p)
}

func WithPurposeProvider(ctx context.Context, purpose, provider string) context.Context {
	return WithProvider(WithPurpose(ctx, purpose), provider)
}

func PurposeFromContext(ctx context.Context) string {
	return stringFromContext(ctx, llmCtxKeyPurpose)
}

func ProviderFromContext(ctx context.Context) string {
	return stringFromContext(ctx, llmCtxKeyProvider)
}

func stringFromContext(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return "unknown"
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return strings.TrimSpace(s)
}
