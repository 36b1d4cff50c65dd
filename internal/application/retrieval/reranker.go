package retrieval

import "context"

// RelevanceScorer 对 (query, text) 打相关性分，返回值与 texts 一一对应
type RelevanceScorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}
