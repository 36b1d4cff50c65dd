package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "filing-rag-api/internal/domain/entity"
)

func TestRenderFilter(t *testing.T) {
	d := domain.Disjunction{
		domain.QueryFilter{Ticker: "AAPL", Year: 2023, Quarter: "Q4", ReportType: "10-K"}.Conjunction(),
		domain.QueryFilter{Ticker: "MSFT", Year: 2022, Quarter: "Q4", ReportType: "10-K"}.Conjunction(),
	}
	expr, err := RenderFilter(d)
	require.NoError(t, err)
	assert.Equal(t,
		`(ticker == "AAPL" && year == 2023 && quarter == "Q4" && report_type == "10-K") || `+
			`(ticker == "MSFT" && year == 2022 && quarter == "Q4" && report_type == "10-K")`,
		expr)
}

func TestRenderFilterEscapesStrings(t *testing.T) {
	expr, err := RenderFilter(domain.Disjunction{{{Field: "ticker", Value: `A" || ticker != "`}}})
	require.NoError(t, err)
	assert.Equal(t, `(ticker == "A\" || ticker != \"")`, expr)
}

func TestQuoteKeepsNonASCII(t *testing.T) {
	assert.Equal(t, `"BRK·B"`, quote("BRK·B"))
	assert.Equal(t, `"a\\b\"c"`, quote(`a\b"c`))
	assert.Equal(t, `ticker == "Ñ\\"`, tickerExpr(`Ñ\`))
}

func TestRenderFilterRejectsUnknownTypes(t *testing.T) {
	_, err := RenderFilter(domain.Disjunction{{{Field: "year", Value: 2023.5}}})
	require.Error(t, err)

	expr, err := RenderFilter(nil)
	require.NoError(t, err)
	assert.Empty(t, expr)
	assert.Equal(t, `ticker == "AAPL"`, tickerExpr("AAPL"))
}

func TestFilingChunksSchema(t *testing.T) {
	s := FilingChunksSchema("filing_chunks", 1536)
	assert.Equal(t, "filing_chunks", s.CollectionName)
	require.Len(t, s.Fields, 12)
	assert.Equal(t, "1536", s.Fields[1].TypeParams["dim"])
	assert.True(t, s.Fields[0].PrimaryKey)
}
