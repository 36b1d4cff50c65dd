package retrieval

import (
	"fmt"

	"filing-rag-api/internal/domain/entity"
)

// BuildFilter 每个条件生成四字段合取，条件之间取析取
func BuildFilter(filters []entity.QueryFilter) (entity.Disjunction, error) {
	if len(filters) == 0 {
		return nil, ErrNoFilters
	}
	out := make(entity.Disjunction, 0, len(filters))
	for i, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		out = append(out, f.Conjunction())
	}
	return out, nil
}
