package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n[{\"a\":1}]\n```": `[{"a":1}]`,
		"```\n{\"a\":1}\n```":       `{"a":1}`,
		"```json[1]```":             `[1]`,
		"  {\"a\":1}  ":             `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFence(in), in)
	}
}

func TestExtractJSON(t *testing.T) {
	got, ok := ExtractJSON("Sure! Here you go:\n```json\n[{\"ticker\": \"AMD\"}]\n```")
	assert.True(t, ok)
	assert.Equal(t, `[{"ticker": "AMD"}]`, got)

	got, ok = ExtractJSON(`prefix {"ticker":"AAPL"} trailing {"x":1}`)
	assert.True(t, ok)
	assert.Equal(t, `{"ticker":"AAPL"}`, got)

	got, ok = ExtractJSON("{broken [1,2]")
	assert.True(t, ok)
	assert.Equal(t, "[1,2]", got)

	_, ok = ExtractJSON("Please provide the ticker or company name.")
	assert.False(t, ok)

	_, ok = ExtractJSON("")
	assert.False(t, ok)
}
