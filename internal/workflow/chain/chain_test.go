package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag-api/internal/config"
	llmctx "filing-rag-api/internal/domain/service"
	wfmodel "filing-rag-api/internal/workflow/model"
)

type fakeChatModel struct {
	reply    string
	err      error
	received []*schema.Message
	purpose  string
	provider string
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.received = input
	m.purpose = llmctx.PurposeFromContext(ctx)
	m.provider = llmctx.ProviderFromContext(ctx)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type fakeFactory struct {
	model *fakeChatModel
	calls []config.CallConfig
	err   error
}

func (f *fakeFactory) ForCall(_ context.Context, call config.CallConfig) (model.BaseChatModel, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

func (f *fakeFactory) ProviderName(name string) string {
	if name == "" {
		return "openai"
	}
	return name
}

func TestInterpretChain(t *testing.T) {
	cm := &fakeChatModel{reply: `[{"ticker":"AAPL"}]`}
	f := &fakeFactory{model: cm}
	call := config.CallConfig{Model: "gpt-4o", Temperature: 0, MaxTokens: 1024}
	c := NewInterpretChain(f, call)

	out, err := c.Invoke(context.Background(), &wfmodel.InterpretInput{Query: " apple 2022 ", DefaultYear: 2023, DefaultQuarter: "Q4"})
	require.NoError(t, err)
	assert.Equal(t, `[{"ticker":"AAPL"}]`, out.Content)

	require.Len(t, cm.received, 2)
	assert.Equal(t, "apple 2022", cm.received[1].Content)
	assert.Contains(t, cm.received[0].Content, "most recent fiscal year(2023)")
	assert.Equal(t, llmctx.PurposeInterpret, cm.purpose)
	assert.Equal(t, "openai", cm.provider)
	assert.Equal(t, []config.CallConfig{call}, f.calls)
	assert.Equal(t, "gpt-4o", c.ModelName())
}

func TestSynthesizeChain(t *testing.T) {
	cm := &fakeChatModel{reply: "Revenue increased 2%."}
	c := NewSynthesizeChain(&fakeFactory{model: cm}, config.CallConfig{Provider: "azure", Model: "gpt-4o-mini"})

	out, err := c.Invoke(context.Background(), &wfmodel.SynthesizeInput{
		Query:        "AAPL revenue",
		ResultCount:  1,
		ResultsBlock: "Result 1:\nNet sales were $383.3 billion.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue increased 2%.", out.Content)
	require.Len(t, cm.received, 3)
	assert.Equal(t, "User Query: AAPL revenue", cm.received[1].Content)
	assert.Contains(t, cm.received[2].Content, "Result 1:\nNet sales")
	assert.Equal(t, llmctx.PurposeSynthesize, cm.purpose)
	assert.Equal(t, "azure", cm.provider)
}

func TestChainErrors(t *testing.T) {
	c := NewInterpretChain(&fakeFactory{err: errors.New("no provider")}, config.CallConfig{})
	_, err := c.Invoke(context.Background(), &wfmodel.InterpretInput{Query: "x"})
	require.ErrorContains(t, err, "no provider")

	_, err = c.Invoke(context.Background(), nil)
	require.Error(t, err)

	failing := NewSynthesizeChain(&fakeFactory{model: &fakeChatModel{err: errors.New("rate limited")}}, config.CallConfig{})
	_, err = failing.Invoke(context.Background(), &wfmodel.SynthesizeInput{Query: "x"})
	require.ErrorContains(t, err, "rate limited")

	var nilChain *InterpretChain
	_, err = nilChain.Invoke(context.Background(), &wfmodel.InterpretInput{})
	require.Error(t, err)
}
