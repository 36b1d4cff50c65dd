package qdrant

import "filing-rag-api/internal/domain/entity"

type point struct {
	ID      string              `json:"id"`
	Vector  []float32           `json:"vector"`
	Payload entity.ChunkPayload `json:"payload"`
}

type filter struct {
	Should []filter    `json:"should,omitempty"`
	Must   []condition `json:"must,omitempty"`
}

type condition struct {
	Key   string `json:"key"`
	Match match  `json:"match"`
}

type match struct {
	Value any `json:"value"`
}

func matchCondition(key string, value any) condition {
	return condition{Key: key, Match: match{Value: value}}
}

// BuildFilter 将析取范式转换为 should-of-must 过滤器，空析取返回 nil
func BuildFilter(d entity.Disjunction) *filter {
	if len(d) == 0 {
		return nil
	}
	f := &filter{Should: make([]filter, 0, len(d))}
	for _, conj := range d {
		must := make([]condition, 0, len(conj))
		for _, m := range conj {
			must = append(must, matchCondition(m.Field, m.Value))
		}
		f.Should = append(f.Should, filter{Must: must})
	}
	return f
}
