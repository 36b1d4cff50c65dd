package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/embedding"

	"filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/domain/repository"
)

// fakeEmbedder 返回固定维度的确定性向量，可在第 failAt 次调用时失败
type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	failAt int
	inputs []string
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, errors.New("embedding service unavailable")
	}
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		f.inputs = append(f.inputs, t)
		out = append(out, []float64{float64(len(t)), 1, 0})
	}
	return out, nil
}

type fakeStore struct {
	mu        sync.Mutex
	ensured   int
	ensureErr error
	records   []*entity.VectorRecord
}

var _ repository.VectorRepository = (*fakeStore)(nil)

func (s *fakeStore) EnsureCollection(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured++
	return s.ensureErr
}

func (s *fakeStore) Upsert(_ context.Context, r *entity.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *fakeStore) Search(context.Context, *repository.VectorSearchParams) ([]*entity.SearchResult, error) {
	return nil, nil
}

func (s *fakeStore) DeleteByTicker(context.Context, string) error { return nil }

func (s *fakeStore) ListFileNames(context.Context) ([]string, error) { return nil, nil }

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
