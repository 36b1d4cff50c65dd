package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag-api/internal/application/answer"
)

type scriptedAsker struct {
	queries []string
}

func (s *scriptedAsker) Ask(_ context.Context, in answer.AskInput) (*answer.Answer, error) {
	s.queries = append(s.queries, in.Query)
	switch in.Query {
	case "which one?":
		return nil, &answer.InterpretError{Reply: "Please specify a company.", Reason: "no json"}
	case "boom":
		return nil, errors.New("llm down")
	}
	return &answer.Answer{Query: in.Query, Answer: "answer to " + in.Query}, nil
}

func TestAskLoop(t *testing.T) {
	a := &scriptedAsker{}
	in := strings.NewReader("revenue?\n\nwhich one?\nboom\nEXIT\nnever asked\n")
	var out bytes.Buffer

	require.NoError(t, askLoop(context.Background(), a, in, &out))
	assert.Equal(t, []string{"revenue?", "which one?", "boom"}, a.queries)
	assert.Contains(t, out.String(), "answer to revenue?")
	assert.Contains(t, out.String(), "Please specify a company.")
	assert.Contains(t, out.String(), "Error: llm down")
}

func TestAskLoopEndsOnEOF(t *testing.T) {
	a := &scriptedAsker{}
	var out bytes.Buffer
	require.NoError(t, askLoop(context.Background(), a, strings.NewReader("q1"), &out))
	assert.Equal(t, []string{"q1"}, a.queries)
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"aapl:2023:q4:10-k", "MSFT:2022:Q2:10-Q"})
	require.NoError(t, err)
	require.Len(t, filters, 2)
	assert.Equal(t, "AAPL", filters[0].Ticker)
	assert.Equal(t, "10-K", filters[0].ReportType)
	assert.Equal(t, 2022, filters[1].Year)

	_, err = parseFilters([]string{"AAPL:2023"})
	require.Error(t, err)
	_, err = parseFilters([]string{"AAPL:twenty:Q4:10-K"})
	require.Error(t, err)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t c", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
}
