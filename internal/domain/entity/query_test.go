package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFilterUnmarshalYearForms(t *testing.T) {
	var filters []QueryFilter
	data := `[
		{"ticker":"AAPL","year":"2023","quarter":"Q4","report_type":"10-K"},
		{"ticker":"MSFT","year":2022,"quarter":"Q4","report_type":"10-K"}
	]`
	require.NoError(t, json.Unmarshal([]byte(data), &filters))
	require.Len(t, filters, 2)
	assert.Equal(t, 2023, filters[0].Year)
	assert.Equal(t, 2022, filters[1].Year)
	assert.NoError(t, filters[0].Validate())
}

func TestQueryFilterUnmarshalRejectsBadYear(t *testing.T) {
	var q QueryFilter
	err := json.Unmarshal([]byte(`{"ticker":"AAPL","year":"last year"}`), &q)
	require.Error(t, err)
}

func TestQueryFilterValidate(t *testing.T) {
	err := QueryFilter{Ticker: "AAPL"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year, quarter, report_type")
}

func TestDisjunctionMatches(t *testing.T) {
	aapl := &ChunkPayload{Ticker: "AAPL", Year: 2023, Quarter: "Q4", ReportType: "10-K"}
	msft := &ChunkPayload{Ticker: "MSFT", Year: 2022, Quarter: "Q4", ReportType: "10-K"}
	msft23 := &ChunkPayload{Ticker: "MSFT", Year: 2023, Quarter: "Q4", ReportType: "10-K"}

	d := Disjunction{
		QueryFilter{Ticker: "AAPL", Year: 2023, Quarter: "Q4", ReportType: "10-K"}.Conjunction(),
		QueryFilter{Ticker: "MSFT", Year: 2022, Quarter: "Q4", ReportType: "10-K"}.Conjunction(),
	}

	assert.True(t, d.Matches(aapl))
	assert.True(t, d.Matches(msft))
	// 字段交叉组合不应命中
	assert.False(t, d.Matches(msft23))
	assert.True(t, Disjunction(nil).Matches(msft23))
}
