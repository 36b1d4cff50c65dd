// Package memory 提供进程内向量存储，用于本地调试与测试
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/domain/repository"
)

// Store 线性扫描的余弦相似度存储
type Store struct {
	mu      sync.RWMutex
	records []*entity.VectorRecord
	byID    map[string]int
	ready   bool
}

var _ repository.VectorRepository = (*Store)(nil)

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

func (s *Store) EnsureCollection(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	return nil
}

// Upsert 相同 ID 覆盖，否则追加
func (s *Store) Upsert(_ context.Context, record *entity.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	cp.Vector = append([]float32(nil), record.Vector...)
	if idx, ok := s.byID[record.ID]; ok {
		s.records[idx] = &cp
		return nil
	}
	s.byID[record.ID] = len(s.records)
	s.records = append(s.records, &cp)
	return nil
}

// Search 过滤后按余弦相似度降序返回，相同分数保持写入顺序
func (s *Store) Search(_ context.Context, params *repository.VectorSearchParams) ([]*entity.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*entity.SearchResult, 0)
	for _, r := range s.records {
		if !params.Filter.Matches(&r.Payload) {
			continue
		}
		score := cosineSimilarity(params.Vector, r.Vector)
		if math.IsNaN(score) {
			continue
		}
		results = append(results, &entity.SearchResult{
			ID:         r.ID,
			Payload:    r.Payload,
			Similarity: float32(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if params.Limit > 0 && len(results) > params.Limit {
		results = results[:params.Limit]
	}
	return results, nil
}

func (s *Store) DeleteByTicker(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.Payload.Ticker != ticker {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	s.reindex()
	return nil
}

func (s *Store) ListFileNames(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range s.records {
		if _, ok := seen[r.Payload.FileName]; ok {
			continue
		}
		seen[r.Payload.FileName] = struct{}{}
		names = append(names, r.Payload.FileName)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len 返回记录数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) reindex() {
	s.byID = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.byID[r.ID] = i
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
