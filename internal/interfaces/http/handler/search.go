package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"filing-rag-api/internal/application/answer"
	"filing-rag-api/internal/interfaces/http/dto"
)

// Asker 自然语言问答
type Asker interface {
	Ask(ctx context.Context, in answer.AskInput) (*answer.Answer, error)
}

// SearchHandler 问答处理器
type SearchHandler struct {
	agent Asker
}

func NewSearchHandler(agent Asker) *SearchHandler {
	return &SearchHandler{agent: agent}
}

// Ask 解析问题、检索申报内容并生成回答
// @Summary 财报问答
// @Tags Search
// @Accept json
// @Produce json
// @Param body body dto.AskRequest true "问答请求"
// @Success 200 {object} dto.Response[dto.AskResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/search [post]
func (h *SearchHandler) Ask(c *gin.Context) {
	if h == nil || h.agent == nil {
		dto.ServiceUnavailable(c, "answer agent not configured")
		return
	}

	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	out, err := h.agent.Ask(c.Request.Context(), answer.AskInput{Query: req.Query, Rerank: req.Rerank})
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToAskResponse(out))
}
