package ingestion

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomWords(r *rand.Rand, n int) string {
	words := []string{"revenue", "net", "income", "iPhone", "services", "margin", "€", "营收", "risk", "Q4"}
	var b strings.Builder
	for b.Len() < n {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(words[r.Intn(len(words))])
	}
	return b.String()
}

func reconstruct(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func assertChunkProperties(t *testing.T, c *Chunker, text string) []string {
	t.Helper()
	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		if i < len(chunks)-1 {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), c.Size(), "chunk %d too long", i)
		}
		if i > 0 {
			prev := []rune(chunks[i-1])
			cur := []rune(chunk)
			require.GreaterOrEqual(t, len(cur), c.Overlap())
			assert.Equal(t, string(prev[len(prev)-c.Overlap():]), string(cur[:c.Overlap()]), "overlap mismatch at %d", i)
		}
	}
	assert.Equal(t, text, reconstruct(chunks, c.Overlap()))
	return chunks
}

func TestChunkerProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	configs := []struct{ size, overlap int }{
		{3000, 300},
		{100, 10},
		{50, 0},
		{17, 5},
	}
	for _, cfg := range configs {
		c := NewChunker(WithChunkSize(cfg.size), WithOverlap(cfg.overlap))
		for _, n := range []int{1, cfg.size - 1, cfg.size, cfg.size + 1, cfg.size*5 + 7} {
			if n <= 0 {
				continue
			}
			assertChunkProperties(t, c, randomWords(r, n))
		}
	}
}

func TestChunkerShortTextSingleChunk(t *testing.T) {
	c := NewChunker()
	chunks := c.Split("Item 1. Business")
	assert.Equal(t, []string{"Item 1. Business"}, chunks)
	assert.Empty(t, c.Split(""))
}

func TestChunkerHardCutWithoutSeparators(t *testing.T) {
	c := NewChunker(WithChunkSize(3000), WithOverlap(300))
	text := strings.Repeat("x", 7000)

	chunks := assertChunkProperties(t, c, text)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3000)
	assert.Len(t, chunks[1], 3000)
	assert.Len(t, chunks[2], 1600)
}

func TestChunkerPrefersSeparator(t *testing.T) {
	c := NewChunker(WithChunkSize(10), WithOverlap(2))
	chunks := assertChunkProperties(t, c, "aaaa bbbb cccc dddd")
	assert.Equal(t, "aaaa bbbb ", chunks[0])
}

func TestChunkerCustomSeparators(t *testing.T) {
	c := NewChunker(WithChunkSize(12), WithOverlap(0), WithSeparators('\n'))
	chunks := assertChunkProperties(t, c, "line one\nline two\nline three")
	assert.Equal(t, "line one\n", chunks[0])
}

func TestChunkerClampsOverlap(t *testing.T) {
	c := NewChunker(WithChunkSize(100), WithOverlap(100))
	assert.Equal(t, 25, c.Overlap())

	c = NewChunker(WithChunkSize(0), WithOverlap(-1))
	assert.Equal(t, DefaultChunkSize, c.Size())
	assert.Equal(t, DefaultChunkOverlap, c.Overlap())
}

func TestChunksIsRestartableAndStoppable(t *testing.T) {
	c := NewChunker(WithChunkSize(10), WithOverlap(2))
	seq := c.Chunks(strings.Repeat("word ", 20))

	var first, second []string
	for _, chunk := range seq {
		first = append(first, chunk)
	}
	for _, chunk := range seq {
		second = append(second, chunk)
	}
	assert.Equal(t, first, second)

	seen := 0
	for idx := range seq {
		seen++
		if idx == 1 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}
