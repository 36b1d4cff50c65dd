package ingestion

import (
	"iter"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 3000
	DefaultChunkOverlap = 300
)

// Chunker 按字符数切分文本，优先在分隔符处断开
type Chunker struct {
	size       int
	overlap    int
	separators map[rune]struct{}
}

// ChunkerOption 配置 Chunker
type ChunkerOption func(*Chunker)

// WithChunkSize 设置单块最大字符数
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap 设置相邻块重叠字符数
func WithOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithSeparators 设置断点字符，默认仅空格
func WithSeparators(seps ...rune) ChunkerOption {
	return func(c *Chunker) {
		if len(seps) == 0 {
			return
		}
		c.separators = make(map[rune]struct{}, len(seps))
		for _, r := range seps {
			c.separators[r] = struct{}{}
		}
	}
}

// NewChunker 创建 Chunker，overlap 不小于 size 时收敛为 size/4
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		size:       DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: map[rune]struct{}{' ': {}},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Chunks 惰性产出 (序号, 块)，可重复遍历。
// 除最后一块外每块不超过 size；相邻块恰好重叠 overlap 个字符。
func (c *Chunker) Chunks(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		if text == "" {
			return
		}
		runes := []rune(text)
		n := len(runes)
		start := 0
		for idx := 0; ; idx++ {
			if n-start <= c.size {
				yield(idx, string(runes[start:]))
				return
			}
			end := c.cutPoint(runes, start)
			if !yield(idx, string(runes[start:end])) {
				return
			}
			start = end - c.overlap
		}
	}
}

// cutPoint 在 (start+overlap, start+size] 内寻找最后一个分隔符之后的位置，
// 找不到时在 start+size 处硬切。结果总大于 start+overlap，保证前进。
func (c *Chunker) cutPoint(runes []rune, start int) int {
	limit := start + c.size
	for p := limit - 1; p >= start+c.overlap; p-- {
		if _, ok := c.separators[runes[p]]; ok {
			return p + 1
		}
	}
	return limit
}

// Split 返回全部块
func (c *Chunker) Split(text string) []string {
	out := make([]string, 0, utf8.RuneCountInString(text)/max(c.size-c.overlap, 1)+1)
	for _, chunk := range c.Chunks(text) {
		out = append(out, chunk)
	}
	return out
}
