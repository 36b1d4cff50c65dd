package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/domain/entity"
	wfmodel "filing-rag-api/internal/workflow/model"
)

type fakeInterpretChain struct {
	reply string
	err   error
	got   *wfmodel.InterpretInput
}

func (f *fakeInterpretChain) Invoke(_ context.Context, in *wfmodel.InterpretInput) (*schema.Message, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

type fakeSynthChain struct {
	reply string
	err   error
	got   *wfmodel.SynthesizeInput
}

func (f *fakeSynthChain) Invoke(_ context.Context, in *wfmodel.SynthesizeInput) (*schema.Message, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	msg := schema.AssistantMessage(f.reply, nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 30}}
	return msg, nil
}

type fakeSearcher struct {
	results []*entity.SearchResult
	err     error
	got     retrieval.SearchInput
}

func (f *fakeSearcher) Search(_ context.Context, in retrieval.SearchInput) ([]*entity.SearchResult, error) {
	f.got = in
	return f.results, f.err
}

func TestInterpretAppliesDefaults(t *testing.T) {
	chain := &fakeInterpretChain{reply: "```json\n[{\"ticker\": \"amd\"}, {\"ticker\": \"NVDA\", \"year\": \"2022\", \"quarter\": \"2\"}]\n```"}
	in := NewInterpreter(chain, 0, "")

	filters, err := in.Interpret(context.Background(), "  Compare AMD and Nvidia  ")
	require.NoError(t, err)
	assert.Equal(t, []entity.QueryFilter{
		{Ticker: "AMD", Year: 2023, Quarter: "Q4", ReportType: "10-K"},
		{Ticker: "NVDA", Year: 2022, Quarter: "Q2", ReportType: "10-Q"},
	}, filters)
	assert.Equal(t, "Compare AMD and Nvidia", chain.got.Query)
	assert.Equal(t, 2023, chain.got.DefaultYear)
	assert.Equal(t, "Q4", chain.got.DefaultQuarter)
}

func TestParseFiltersSingleObjectAndDuplicates(t *testing.T) {
	in := NewInterpreter(nil, 2024, "q4")

	filters, err := in.ParseFilters(`{"ticker":"AAPL","year":2021,"quarter":"Q4","report_type":"10-k"}`)
	require.NoError(t, err)
	assert.Equal(t, []entity.QueryFilter{{Ticker: "AAPL", Year: 2021, Quarter: "Q4", ReportType: "10-K"}}, filters)

	filters, err = in.ParseFilters(`[{"ticker":"AAPL"},{"ticker":"aapl","year":"2024"}]`)
	require.NoError(t, err)
	assert.Len(t, filters, 1)
	assert.Equal(t, 2024, filters[0].Year)
}

func TestParseFiltersRejects(t *testing.T) {
	in := NewInterpreter(nil, 0, "")
	cases := map[string]string{
		"prose":         "Please provide the ticker or company name.",
		"empty list":    "[]",
		"no ticker":     `[{"year":"2023"}]`,
		"bad year":      `[{"ticker":"AMD","year":"last year"}]`,
		"not an object": `[1, 2]`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := in.ParseFilters(reply)
			var ie *InterpretError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, reply, ie.Reply)
		})
	}
}

func TestInterpretErrors(t *testing.T) {
	_, err := NewInterpreter(&fakeInterpretChain{}, 0, "").Interpret(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuery)

	upstream := errors.New("timeout")
	_, err = NewInterpreter(&fakeInterpretChain{err: upstream}, 0, "").Interpret(context.Background(), "AMD")
	var le *LLMError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "interpret", le.Purpose)
	require.ErrorIs(t, err, upstream)
}

func TestSynthesize(t *testing.T) {
	chain := &fakeSynthChain{reply: "  Net sales were $383.3B.  "}
	s := NewSynthesizer(chain, 0)

	text, msg, err := s.Synthesize(context.Background(), "AAPL sales", []*entity.SearchResult{
		{Payload: entity.ChunkPayload{Text: "Net sales $383.3B"}},
		{Payload: entity.ChunkPayload{Text: "Services grew"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Net sales were $383.3B.", text)
	require.NotNil(t, msg)
	assert.Equal(t, 2, chain.got.ResultCount)
	assert.Equal(t, "Result 1:\nNet sales $383.3B\n\nResult 2:\nServices grew", chain.got.ResultsBlock)

	text, msg, err = s.Synthesize(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, NoResultsMessage, text)
	assert.Nil(t, msg)
}

func TestAgentAsk(t *testing.T) {
	interp := NewInterpreter(&fakeInterpretChain{reply: `[{"ticker":"AAPL","year":"2023","quarter":"Q4","report_type":"10-K"}]`}, 0, "")
	searcher := &fakeSearcher{results: []*entity.SearchResult{{ID: "1", Payload: entity.ChunkPayload{Text: "iPhone revenue"}, Similarity: 0.8}}}
	synth := NewSynthesizer(&fakeSynthChain{reply: "iPhone drove revenue."}, 0)
	agent := NewAgent(interp, searcher, synth, WithUsageLabels("openai", "gpt-4o-mini"))

	ans, err := agent.Ask(context.Background(), AskInput{Query: "Apple iPhone revenue", Rerank: true})
	require.NoError(t, err)
	assert.Equal(t, "iPhone drove revenue.", ans.Answer)
	assert.False(t, ans.NoData)
	assert.Len(t, ans.Results, 1)
	assert.True(t, searcher.got.Rerank)
	assert.Equal(t, "Apple iPhone revenue", searcher.got.Query)
	assert.Equal(t, []entity.QueryFilter{{Ticker: "AAPL", Year: 2023, Quarter: "Q4", ReportType: "10-K"}}, searcher.got.Filters)
	require.NotNil(t, ans.Usage)
	assert.Equal(t, 120, ans.Usage.PromptTokens)
	assert.Equal(t, "gpt-4o-mini", ans.Usage.Model)
}

func TestAgentAskNoResults(t *testing.T) {
	synthChain := &fakeSynthChain{reply: "unused"}
	agent := NewAgent(
		NewInterpreter(&fakeInterpretChain{reply: `[{"ticker":"ZZZZ"}]`}, 0, ""),
		&fakeSearcher{},
		NewSynthesizer(synthChain, 0),
	)

	ans, err := agent.Ask(context.Background(), AskInput{Query: "ZZZZ outlook"})
	require.NoError(t, err)
	assert.True(t, ans.NoData)
	assert.Equal(t, NoResultsMessage, ans.Answer)
	assert.Nil(t, synthChain.got)
}

func TestAgentAskPropagatesErrors(t *testing.T) {
	searchErr := &retrieval.SearchError{Op: retrieval.OpSearch, Err: errors.New("down")}
	agent := NewAgent(
		NewInterpreter(&fakeInterpretChain{reply: `[{"ticker":"AMD"}]`}, 0, ""),
		&fakeSearcher{err: searchErr},
		NewSynthesizer(&fakeSynthChain{}, 0),
	)
	_, err := agent.Ask(context.Background(), AskInput{Query: "AMD"})
	require.ErrorIs(t, err, searchErr)

	_, err = agent.Ask(context.Background(), AskInput{Query: ""})
	require.ErrorIs(t, err, ErrEmptyQuery)

	agent = NewAgent(
		NewInterpreter(&fakeInterpretChain{reply: "Which company?"}, 0, ""),
		&fakeSearcher{},
		NewSynthesizer(&fakeSynthChain{}, 0),
	)
	_, err = agent.Ask(context.Background(), AskInput{Query: "how are things"})
	var ie *InterpretError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Which company?", ie.Reply)
}
