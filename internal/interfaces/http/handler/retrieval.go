package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/interfaces/http/dto"
)

const (
	promptContextResults  = 10
	promptContextMaxRunes = 2000
)

// Searcher 过滤检索
type Searcher interface {
	Search(ctx context.Context, in retrieval.SearchInput) ([]*entity.SearchResult, error)
}

// RetrievalHandler 检索处理器
type RetrievalHandler struct {
	searcher Searcher
}

// NewRetrievalHandler 创建检索处理器
func NewRetrievalHandler(searcher Searcher) *RetrievalHandler {
	return &RetrievalHandler{searcher: searcher}
}

// Search 按结构化过滤条件检索
// @Summary 过滤检索
// @Description 在指定 ticker / 年份 / 季度 / 报告类型范围内做语义检索
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param body body dto.RetrievalSearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.RetrievalSearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/retrieval/search [post]
func (h *RetrievalHandler) Search(c *gin.Context) {
	if h == nil || h.searcher == nil {
		dto.ServiceUnavailable(c, "retrieval engine not configured")
		return
	}

	var req dto.RetrievalSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	results, err := h.searcher.Search(c.Request.Context(), retrieval.SearchInput{
		Filters: dto.FiltersToEntity(req.Filters),
		Query:   req.Query,
		Rerank:  req.Rerank,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := &dto.RetrievalSearchResponse{
		Results: dto.ToSearchResultDTOs(results),
		Total:   len(results),
	}
	if req.IncludeContext {
		resp.Context = retrieval.BuildPromptContext(results, promptContextResults, promptContextMaxRunes)
	}
	dto.Success(c, resp)
}
