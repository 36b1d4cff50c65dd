package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilingRecordUnmarshal(t *testing.T) {
	data := `{
		"cik": 320193,
		"company": "Apple Inc.",
		"period_of_report": "2023-09-30",
		"item_1": "Item 1. Business",
		"item_1B": "",
		"item_9C": null,
		"htm_filing_link": ["not", "an", "item"]
	}`

	var f FilingRecord
	require.NoError(t, json.Unmarshal([]byte(data), &f))

	assert.Equal(t, "320193", f.CIK)
	assert.Equal(t, "Apple Inc.", f.Company)
	assert.Equal(t, "2023-09-30", f.PeriodOfReport)
	assert.Equal(t, "Item 1. Business", f.Item("item_1"))
	assert.Equal(t, "", f.Item("item_1B"))
	assert.Equal(t, "", f.Item("item_9C"))
	assert.Equal(t, "", f.Item("item_7"))
	assert.NotContains(t, f.Items, "htm_filing_link")
}

func TestFilingRecordUnmarshalStringCIK(t *testing.T) {
	var f FilingRecord
	require.NoError(t, json.Unmarshal([]byte(`{"cik":" 0000320193 ","company":"Apple"}`), &f))
	assert.Equal(t, "0000320193", f.CIK)
}

func TestFilingRecordUnmarshalRejectsMissingCIK(t *testing.T) {
	var f FilingRecord
	err := json.Unmarshal([]byte(`{"company":"Apple"}`), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cik")
}

func TestBuildFileID(t *testing.T) {
	s := &NormalizedSection{
		Ticker:     "AAPL",
		Period:     time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC),
		ReportType: "10-K",
		ItemName:   "item_7",
	}
	assert.Equal(t, "10-K_AAPL_2023-09-30_item_7_3", BuildFileID(s, 3))

	p := NewChunkPayload(s, 0, "chunk")
	assert.Equal(t, "2023-09-30", p.ConformedPeriod)
	assert.Equal(t, "chunk", p.Text)
}
