package handler

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filing-rag-api/internal/application/answer"
	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/interfaces/http/dto"
	"filing-rag-api/pkg/errors"
	"filing-rag-api/pkg/logger"
)

var (
	errEmbeddingFailed = errors.New(errors.CodeEmbeddingFailed, "embedding service call failed")
	errVectorDB        = errors.New(errors.CodeVectorDBError, "vector store call failed")
	errRerankFailed    = errors.New(errors.CodeRerankFailed, "relevance scoring failed")
)

// toAppError 将领域错误映射为 AppError
func toAppError(err error) *errors.AppError {
	var (
		appErr       *errors.AppError
		interpretErr *answer.InterpretError
		llmErr       *answer.LLMError
		searchErr    *retrieval.SearchError
	)
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, answer.ErrEmptyQuery), stderrors.Is(err, retrieval.ErrEmptyQuery), stderrors.Is(err, retrieval.ErrNoFilters):
		return errors.ErrInvalidParam.WithDetail(err.Error()).WithError(err)
	case stderrors.As(err, &interpretErr):
		return errors.ErrQueryUnresolved.WithDetail(interpretErr.Reply).WithError(err)
	case stderrors.As(err, &llmErr):
		return errors.ErrLLMCallFailed.WithDetail(llmErr.Purpose).WithError(err)
	case stderrors.As(err, &searchErr):
		switch searchErr.Op {
		case retrieval.OpValidate:
			return errors.ErrInvalidParam.WithDetail(searchErr.Err.Error()).WithError(err)
		case retrieval.OpEmbed:
			return errEmbeddingFailed.WithError(err)
		case retrieval.OpRerank:
			return errRerankFailed.WithError(err)
		default:
			return errVectorDB.WithError(err)
		}
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrServiceUnavailable.WithDetail("upstream call timed out").WithError(err)
	default:
		return errors.ErrInternalError.WithError(err)
	}
}

// writeError 记录日志并输出错误响应
func writeError(c *gin.Context, err error) {
	appErr := toAppError(err)
	ctx := c.Request.Context()
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", err, "path", c.FullPath(), "code", string(appErr.Code))
	} else {
		logger.Warn(ctx, "request rejected", "path", c.FullPath(), "code", string(appErr.Code), "error", err.Error())
	}
	dto.AppError(c, appErr)
}
