package dto

import (
	"filing-rag-api/internal/application/answer"
)

// AskRequest 自然语言问答请求
type AskRequest struct {
	Query  string `json:"query" binding:"required,max=2000"`
	Rerank bool   `json:"rerank,omitempty"`
}

// LLMUsageDTO 模型用量
type LLMUsageDTO struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// AskResponse 问答响应
type AskResponse struct {
	Query   string             `json:"query"`
	Filters []QueryFilterDTO   `json:"filters"`
	Answer  string             `json:"answer"`
	NoData  bool               `json:"no_data"`
	Results []*SearchResultDTO `json:"results"`
	Usage   *LLMUsageDTO       `json:"usage,omitempty"`
}

// ToAskResponse 转换问答结果
func ToAskResponse(a *answer.Answer) *AskResponse {
	if a == nil {
		return nil
	}
	resp := &AskResponse{
		Query:   a.Query,
		Filters: FiltersFromEntity(a.Filters),
		Answer:  a.Answer,
		NoData:  a.NoData,
		Results: ToSearchResultDTOs(a.Results),
	}
	if a.Usage != nil {
		resp.Usage = &LLMUsageDTO{
			Provider:         a.Usage.Provider,
			Model:            a.Usage.Model,
			PromptTokens:     a.Usage.PromptTokens,
			CompletionTokens: a.Usage.CompletionTokens,
		}
	}
	return resp
}
