package router

import (
	"github.com/gin-gonic/gin"

	"filing-rag-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	searchHandler *handler.SearchHandler,
	retrievalHandler *handler.RetrievalHandler,
	filingHandler *handler.FilingHandler,
) {
	// 自然语言问答
	v1.POST("/search", searchHandler.Ask)

	// 结构化检索
	retrieval := v1.Group("/retrieval")
	{
		retrieval.POST("/search", retrievalHandler.Search)
	}

	// 申报管理
	v1.GET("/files", filingHandler.ListFiles)
	v1.DELETE("/tickers/:ticker", filingHandler.PurgeTicker)
}
