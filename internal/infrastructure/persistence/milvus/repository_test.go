package milvus

import (
	"context"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag-api/internal/config"
	domain "filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/domain/repository"
)

func TestPayloadAt(t *testing.T) {
	rs := client.ResultSet{
		entity.NewColumnVarChar(domain.PayloadFileID, []string{"10-K_AAPL_2023-09-30_7_0", "10-K_AAPL_2023-09-30_7_1"}),
		entity.NewColumnVarChar(domain.PayloadTicker, []string{"AAPL", "AAPL"}),
		entity.NewColumnVarChar(domain.PayloadText, []string{"first", "second"}),
		entity.NewColumnInt64(domain.PayloadYear, []int64{2023, 2023}),
		entity.NewColumnVarChar(domain.PayloadQuarter, []string{"Q4", "Q4"}),
	}

	p := payloadAt(rs, 1)
	assert.Equal(t, "10-K_AAPL_2023-09-30_7_1", p.FileID)
	assert.Equal(t, "AAPL", p.Ticker)
	assert.Equal(t, "second", p.Text)
	assert.Equal(t, 2023, p.Year)
	assert.Equal(t, "Q4", p.Quarter)
	assert.Empty(t, p.CompanyName)
}

func TestRepositoryNotConfigured(t *testing.T) {
	var r *Repository
	ctx := context.Background()

	require.EqualError(t, r.EnsureCollection(ctx), "milvus client not configured")
	_, err := r.Search(ctx, &repository.VectorSearchParams{Vector: []float32{1}, Limit: 1})
	require.Error(t, err)
	require.Error(t, r.DeleteByTicker(ctx, "AAPL"))
	_, err = r.ListFileNames(ctx)
	require.Error(t, err)
	require.Error(t, r.Ping(ctx))
}

func TestNewRepositoryDefaults(t *testing.T) {
	r := NewRepository(nil, "", 0)
	assert.Equal(t, CollectionFilingChunks, r.collection)
	assert.Equal(t, DefaultVectorDimension, r.dimension)
}

func TestCollectionNamePrefix(t *testing.T) {
	c := &Client{config: &config.MilvusConfig{CollectionPrefix: "prod"}}
	r := NewRepository(c, "", 0)
	assert.Equal(t, "prod_filing_chunks", r.collName())

	plain := NewRepository(&Client{config: &config.MilvusConfig{}}, "filings", 0)
	assert.Equal(t, "filings", plain.collName())
	assert.Equal(t, "x", (&Client{}).CollectionName("x"))
	assert.NoError(t, (&Client{}).Close())
}
