package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"filing-rag-api/internal/interfaces/http/dto"
	"filing-rag-api/pkg/logger"
)

const maxTickerLength = 16

// FilingStore 已入库申报的管理操作
type FilingStore interface {
	ListFileNames(ctx context.Context) ([]string, error)
	DeleteByTicker(ctx context.Context, ticker string) error
}

// FilingHandler 申报管理处理器
type FilingHandler struct {
	store FilingStore
}

// NewFilingHandler 创建申报管理处理器
func NewFilingHandler(store FilingStore) *FilingHandler {
	return &FilingHandler{store: store}
}

// ListFiles 列出已入库的源文件名
// @Summary 已入库文件
// @Tags Filings
// @Produce json
// @Success 200 {object} dto.Response[dto.FilesResponse]
// @Router /v1/files [get]
func (h *FilingHandler) ListFiles(c *gin.Context) {
	if h == nil || h.store == nil {
		dto.ServiceUnavailable(c, "vector store not configured")
		return
	}
	files, err := h.store.ListFileNames(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if files == nil {
		files = []string{}
	}
	dto.Success(c, &dto.FilesResponse{Files: files, Total: len(files)})
}

// PurgeTicker 删除某个 ticker 的全部分块
// @Summary 按 ticker 清除
// @Tags Filings
// @Produce json
// @Param ticker path string true "Ticker"
// @Success 200 {object} dto.Response[dto.PurgeResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/tickers/{ticker} [delete]
func (h *FilingHandler) PurgeTicker(c *gin.Context) {
	if h == nil || h.store == nil {
		dto.ServiceUnavailable(c, "vector store not configured")
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if !validTicker(ticker) {
		dto.BadRequest(c, "invalid ticker")
		return
	}
	if err := h.store.DeleteByTicker(c.Request.Context(), ticker); err != nil {
		writeError(c, err)
		return
	}
	logger.Info(c.Request.Context(), "ticker purged", "ticker", ticker)
	dto.Success(c, &dto.PurgeResponse{Ticker: ticker, Deleted: true})
}

func validTicker(t string) bool {
	if t == "" || len(t) > maxTickerLength {
		return false
	}
	for _, r := range t {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '.' && r != '-' {
			return false
		}
	}
	return true
}
