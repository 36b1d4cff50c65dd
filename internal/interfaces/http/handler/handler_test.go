package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag-api/internal/application/answer"
	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAsker struct {
	out *answer.Answer
	err error
	got answer.AskInput
}

func (f *fakeAsker) Ask(_ context.Context, in answer.AskInput) (*answer.Answer, error) {
	f.got = in
	return f.out, f.err
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

type fakeStore struct {
	files  []string
	purged []string
	err    error
}

func (f *fakeStore) ListFileNames(context.Context) ([]string, error) { return f.files, f.err }

func (f *fakeStore) DeleteByTicker(_ context.Context, ticker string) error {
	f.purged = append(f.purged, ticker)
	return f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func do(t *testing.T, method, path, body string, register func(e *gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	e := gin.New()
	register(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleResult() *entity.SearchResult {
	rel := 0.9
	return &entity.SearchResult{
		ID: "id-1",
		Payload: entity.ChunkPayload{
			FileID: "10-K_AAPL_2023-Q4_Item 7_0", FileName: "aapl.json", Ticker: "AAPL",
			ReportType: "10-K", ItemName: "Item 7", Text: "Net sales grew.", Year: 2023, Quarter: "Q4",
		},
		Similarity: 0.8,
		Relevance:  &rel,
	}
}

func TestAsk(t *testing.T) {
	asker := &fakeAsker{out: &answer.Answer{
		Query:   "How did Apple do?",
		Filters: []entity.QueryFilter{{Ticker: "AAPL", Year: 2023, Quarter: "Q4", ReportType: "10-K"}},
		Answer:  "Well.",
		Results: []*entity.SearchResult{sampleResult()},
	}}
	h := NewSearchHandler(asker)

	w := do(t, http.MethodPost, "/v1/search", `{"query":"How did Apple do?","rerank":true}`, func(e *gin.Engine) {
		e.POST("/v1/search", h.Ask)
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, asker.got.Rerank)

	var resp dto.Response[dto.AskResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Well.", resp.Data.Answer)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "AAPL", resp.Data.Results[0].Ticker)
	assert.Equal(t, "10-K", resp.Data.Filters[0].ReportType)
}

func TestAskErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{name: "missing query", body: `{}`, status: http.StatusBadRequest},
		{name: "unresolved", body: `{"query":"revenue?"}`, err: &answer.InterpretError{Reply: "Which company?", Reason: "no json"}, status: http.StatusUnprocessableEntity, code: "4010"},
		{name: "llm", body: `{"query":"q"}`, err: &answer.LLMError{Purpose: "interpret", Err: errors.New("boom")}, status: http.StatusBadGateway, code: "4005"},
		{name: "embed", body: `{"query":"q"}`, err: &retrieval.SearchError{Op: retrieval.OpEmbed, Err: errors.New("down")}, status: http.StatusBadGateway, code: "4006"},
		{name: "vector", body: `{"query":"q"}`, err: &retrieval.SearchError{Op: retrieval.OpSearch, Err: errors.New("down")}, status: http.StatusBadGateway, code: "5003"},
		{name: "rerank", body: `{"query":"q"}`, err: &retrieval.SearchError{Op: retrieval.OpRerank, Err: errors.New("down")}, status: http.StatusBadGateway, code: "4009"},
		{name: "rerank unavailable", body: `{"query":"q"}`, err: &retrieval.SearchError{Op: retrieval.OpValidate, Err: retrieval.ErrRerankUnavailable}, status: http.StatusBadRequest, code: "1001"},
		{name: "unknown", body: `{"query":"q"}`, err: errors.New("???"), status: http.StatusInternalServerError, code: "1007"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSearchHandler(&fakeAsker{err: tc.err})
			w := do(t, http.MethodPost, "/v1/search", tc.body, func(e *gin.Engine) { e.POST("/v1/search", h.Ask) })
			require.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				resp := decodeError(t, w)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.code, resp.Error.ErrorCode)
			}
		})
	}
}

func TestAskUnresolvedCarriesModelReply(t *testing.T) {
	h := NewSearchHandler(&fakeAsker{err: &answer.InterpretError{Reply: "Please provide a ticker.", Reason: "no json"}})
	w := do(t, http.MethodPost, "/v1/search", `{"query":"revenue?"}`, func(e *gin.Engine) { e.POST("/v1/search", h.Ask) })
	resp := decodeError(t, w)
	assert.Equal(t, "Please provide a ticker.", resp.Error.Details)
}

func TestAskNotConfigured(t *testing.T) {
	var h *SearchHandler
	w := do(t, http.MethodPost, "/v1/search", `{"query":"q"}`, func(e *gin.Engine) { e.POST("/v1/search", h.Ask) })
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRetrievalSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []*entity.SearchResult{sampleResult()}}
	h := NewRetrievalHandler(searcher)
	body := `{"filters":[{"ticker":"aapl","year":2023,"quarter":"Q4","report_type":"10-K"}],"query":"net sales","include_context":true}`

	w := do(t, http.MethodPost, "/v1/retrieval/search", body, func(e *gin.Engine) { e.POST("/v1/retrieval/search", h.Search) })
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, searcher.got.Filters, 1)
	assert.Equal(t, "AAPL", searcher.got.Filters[0].Ticker)

	var resp dto.Response[dto.RetrievalSearchResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Contains(t, resp.Data.Context, "Net sales grew.")
	require.NotNil(t, resp.Data.Results[0].Relevance)
}

func TestRetrievalSearchValidation(t *testing.T) {
	h := NewRetrievalHandler(&fakeSearcher{})
	register := func(e *gin.Engine) { e.POST("/v1/retrieval/search", h.Search) }

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, "/v1/retrieval/search", `{"filters":[],"query":"x"}`, register).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, "/v1/retrieval/search",
		`{"filters":[{"ticker":"AAPL","year":2023,"quarter":"Q5","report_type":"10-K"}],"query":"x"}`, register).Code)
}

func TestFiles(t *testing.T) {
	store := &fakeStore{files: []string{"a.json", "b.json"}}
	h := NewFilingHandler(store)

	w := do(t, http.MethodGet, "/v1/files", "", func(e *gin.Engine) { e.GET("/v1/files", h.ListFiles) })
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response[dto.FilesResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Total)

	store.err = &retrieval.SearchError{Op: retrieval.OpSearch, Err: errors.New("down")}
	w = do(t, http.MethodGet, "/v1/files", "", func(e *gin.Engine) { e.GET("/v1/files", h.ListFiles) })
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPurgeTicker(t *testing.T) {
	store := &fakeStore{}
	h := NewFilingHandler(store)
	register := func(e *gin.Engine) { e.DELETE("/v1/tickers/:ticker", h.PurgeTicker) }

	w := do(t, http.MethodDelete, "/v1/tickers/brk.b", "", register)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"BRK.B"}, store.purged)

	w = do(t, http.MethodDelete, "/v1/tickers/"+strings.Repeat("A", 17), "", register)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReady(t *testing.T) {
	register := func(h *HealthHandler) func(e *gin.Engine) {
		return func(e *gin.Engine) { e.GET("/ready", h.Ready) }
	}

	w := do(t, http.MethodGet, "/ready", "", register(NewHealthHandler(fakePinger{}, nil, "v1")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":{"status":"disabled"}`)

	w = do(t, http.MethodGet, "/ready", "", register(NewHealthHandler(fakePinger{}, fakePinger{err: errors.New("down")}, "v1")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")

	w = do(t, http.MethodGet, "/ready", "", register(NewHealthHandler(fakePinger{err: errors.New("down")}, nil, "v1")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, http.MethodGet, "/ready", "", register(NewHealthHandler(nil, nil, "v1")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
