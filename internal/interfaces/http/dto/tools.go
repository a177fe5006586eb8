// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"knearme-portfolio-api/internal/application/portfolio/tools"
)

// ToolDispatchRequest 工具批量调用请求。project_id/session_id 是
// 批次级作用域，对批内所有调用生效。
type ToolDispatchRequest struct {
	ToolCalls         []tools.Call `json:"tool_calls" binding:"required,min=1,max=16"`
	ProjectID         string       `json:"project_id,omitempty"`
	SessionID         string       `json:"session_id,omitempty"`
	LatestUserMessage string       `json:"latest_user_message,omitempty"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ToolDispatchResponse 工具批量调用响应。results[i] 与 tool_calls[i]
// 一一对应，output 与 error 互斥。
type ToolDispatchResponse struct {
	Results    []tools.CallResult `json:"results"`
	DurationMs int64              `json:"duration_ms"`
}

// ToToolDispatchResponse 从批次结果构造响应
func ToToolDispatchResponse(batch *tools.BatchResult) *ToolDispatchResponse {
	if batch == nil {
		return &ToolDispatchResponse{Results: []tools.CallResult{}}
	}
	return &ToolDispatchResponse{
		Results:    batch.Results,
		DurationMs: batch.DurationMs,
	}
}
