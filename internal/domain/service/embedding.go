package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"filing-rag-api/pkg/metrics"
)

// EmbedText 对单段文本生成向量
// 换行替换为空格后再送入 embedder，存储的原文不受影响。
func EmbedText(ctx context.Context, embedder embedding.Embedder, text string) ([]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	input := strings.ReplaceAll(text, "\n", " ")

	v64, err := embedder.EmbedStrings(ctx, []string{input})
	metrics.EmbeddingCallTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 || len(v64[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return ToFloat32(v64[0]), nil
}

// ToFloat32 将 eino 的 float64 向量转换为向量库使用的 float32
func ToFloat32(vec []float64) []float32 {
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out
}
