package entity

// FieldMatch 单字段等值条件，Value 为 string 或 int
type FieldMatch struct {
	Field string
	Value any
}

// Conjunction 条件合取（AND）
type Conjunction []FieldMatch

// Disjunction 合取式的析取（OR），空析取不做过滤
type Disjunction []Conjunction

// Matches 判断载荷是否满足任一合取式
func (d Disjunction) Matches(p *ChunkPayload) bool {
	if len(d) == 0 {
		return true
	}
	for _, conj := range d {
		if conj.Matches(p) {
			return true
		}
	}
	return false
}

// Matches 判断载荷是否满足全部条件
func (c Conjunction) Matches(p *ChunkPayload) bool {
	for _, m := range c {
		v, ok := p.Field(m.Field)
		if !ok || !equalValue(v, m.Value) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		switch bv := b.(type) {
		case int:
			return av == bv
		case int64:
			return int64(av) == bv
		}
	}
	return false
}
